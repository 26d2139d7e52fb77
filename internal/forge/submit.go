package forge

import (
	"context"
	"fmt"

	"github.com/google/go-github/v43/github"
)

// CommitRecipe replaces recipe/meta.yaml on the default branch of the
// user's fork via the contents API. blobSHA must be the SHA of the blob
// being replaced, version the new upstream version (used in the commit
// message).
func (c *Client) CommitRecipe(ctx context.Context, repoName, version, blobSHA string, content []byte) error {
	user, err := c.User(ctx)
	if err != nil {
		return err
	}

	opts := &github.RepositoryContentFileOptions{
		Message: github.String(fmt.Sprintf("Tick version to %s", version)),
		Content: content,
		SHA:     github.String(blobSHA),
	}

	_, _, err = c.rest.Repositories.UpdateFile(ctx, user, repoName, recipePath, opts)
	if err != nil {
		return fmt.Errorf("committing %s to %s/%s: %w", recipePath, user, repoName, err)
	}
	return nil
}

// OpenPullRequest opens a PR from the user's fork master branch against the
// upstream feedstock and returns its HTML URL.
func (c *Client) OpenPullRequest(ctx context.Context, repoName, title, body string) (string, error) {
	user, err := c.User(ctx)
	if err != nil {
		return "", err
	}

	pr, _, err := c.rest.PullRequests.Create(ctx, ForgeOrg, repoName, &github.NewPullRequest{
		Title: github.String(title),
		Head:  github.String(user + ":master"),
		Base:  github.String("master"),
		Body:  github.String(body),
	})
	if err != nil {
		return "", fmt.Errorf("opening pull request on %s/%s: %w", ForgeOrg, repoName, err)
	}

	return pr.GetHTMLURL(), nil
}

package forge

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/go-github/v43/github"
)

// ErrForkAhead indicates the user's fork carries commits the upstream
// feedstock does not have. Deleting it would lose work, so the feedstock is
// skipped for this run.
var ErrForkAhead = errors.New("fork is ahead of upstream")

// EnsureEvenFork returns a fork of conda-forge/<repoName> owned by the
// authenticated user whose default branch matches upstream exactly.
// A missing fork is created; a stale fork is deleted and recreated.
// A fork with local commits is left alone and ErrForkAhead is returned.
func (c *Client) EnsureEvenFork(ctx context.Context, repoName string) (*github.Repository, error) {
	user, err := c.User(ctx)
	if err != nil {
		return nil, err
	}

	fork, err := c.findFork(ctx, repoName, user)
	if err != nil {
		return nil, err
	}
	if fork == nil {
		return c.createFork(ctx, repoName)
	}

	cmp, _, err := c.rest.Repositories.CompareCommits(ctx, ForgeOrg, repoName,
		"master", user+":master", &github.ListOptions{PerPage: 1})
	if err != nil {
		return nil, fmt.Errorf("comparing fork of %s: %w", repoName, err)
	}

	switch {
	case cmp.GetAheadBy() > 0:
		return nil, fmt.Errorf("%s: %w", repoName, ErrForkAhead)
	case cmp.GetBehindBy() > 0:
		if _, err := c.rest.Repositories.Delete(ctx, user, repoName); err != nil {
			return nil, fmt.Errorf("deleting stale fork of %s: %w", repoName, err)
		}
		return c.createFork(ctx, repoName)
	default:
		return fork, nil
	}
}

func (c *Client) findFork(ctx context.Context, repoName, user string) (*github.Repository, error) {
	opts := &github.RepositoryListForksOptions{
		ListOptions: github.ListOptions{PerPage: 100},
	}
	for {
		forks, resp, err := c.rest.Repositories.ListForks(ctx, ForgeOrg, repoName, opts)
		if err != nil {
			return nil, fmt.Errorf("listing forks of %s: %w", repoName, err)
		}
		for _, fork := range forks {
			if fork.GetOwner().GetLogin() == user {
				return fork, nil
			}
		}
		if resp.NextPage == 0 {
			return nil, nil
		}
		opts.Page = resp.NextPage
	}
}

func (c *Client) createFork(ctx context.Context, repoName string) (*github.Repository, error) {
	fork, _, err := c.rest.Repositories.CreateFork(ctx, ForgeOrg, repoName, nil)
	if err != nil {
		// Forking is asynchronous; GitHub answers 202 while the fork is
		// still being created, which go-github surfaces as AcceptedError.
		var accepted *github.AcceptedError
		if !errors.As(err, &accepted) {
			return nil, fmt.Errorf("forking %s: %w", repoName, err)
		}
	}
	return fork, nil
}

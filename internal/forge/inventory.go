package forge

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/go-github/v43/github"

	"github.com/feedtick/feedtick/internal/feedstock"
)

// ErrNoFeedstocks indicates the user maintains no feedstocks at all.
var ErrNoFeedstocks = errors.New("no maintained feedstocks found")

const recipePath = "recipe/meta.yaml"

// Skipped records a feedstock that could not be inventoried, with the
// reason. Skips are reported, never fatal.
type Skipped struct {
	Name   string
	Reason error
}

// MaintainedFeedstocks lists the feedstock repositories the authenticated
// user maintains. conda-forge grants maintainership through a per-feedstock
// team holding exactly that one repository, so teams with any other repo
// count are ignored.
func (c *Client) MaintainedFeedstocks(ctx context.Context) ([]*github.Repository, error) {
	var repos []*github.Repository

	opts := &github.ListOptions{PerPage: 100}
	for {
		teams, resp, err := c.rest.Teams.ListUserTeams(ctx, opts)
		if err != nil {
			return nil, fmt.Errorf("listing teams: %w", err)
		}

		for _, team := range teams {
			if team.GetReposCount() != 1 {
				continue
			}
			if team.GetOrganization().GetLogin() != ForgeOrg {
				continue
			}

			teamRepos, _, err := c.rest.Teams.ListTeamReposByID(ctx,
				team.GetOrganization().GetID(), team.GetID(),
				&github.ListOptions{PerPage: 2})
			if err != nil {
				return nil, fmt.Errorf("listing repos of team %s: %w", team.GetName(), err)
			}
			if len(teamRepos) != 1 {
				continue
			}

			repo := teamRepos[0]
			if _, ok := PackageFromRepo(repo.GetFullName()); ok {
				repos = append(repos, repo)
			}
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return repos, nil
}

// FetchRecipe downloads and parses recipe/meta.yaml from a feedstock
// repository, keeping the blob SHA needed for a later content update.
func (c *Client) FetchRecipe(ctx context.Context, repoName string, ignored map[string]struct{}) (*feedstock.Recipe, error) {
	file, _, _, err := c.rest.Repositories.GetContents(ctx, ForgeOrg, repoName, recipePath, nil)
	if err != nil {
		return nil, fmt.Errorf("fetching %s from %s: %w", recipePath, repoName, err)
	}
	if file == nil {
		return nil, fmt.Errorf("%s in %s is not a file", recipePath, repoName)
	}

	content, err := file.GetContent()
	if err != nil {
		return nil, fmt.Errorf("decoding %s from %s: %w", recipePath, repoName, err)
	}

	recipe, err := feedstock.ParseRecipe(content, ignored)
	if err != nil {
		return nil, err
	}
	recipe.BlobSHA = file.GetSHA()

	return recipe, nil
}

// BuildInventory assembles the snapshot of every maintained feedstock whose
// recipe parses. Unparseable or unreachable recipes are returned as skips.
func (c *Client) BuildInventory(ctx context.Context, ignored map[string]struct{}) (*feedstock.Snapshot, []Skipped, error) {
	repos, err := c.MaintainedFeedstocks(ctx)
	if err != nil {
		return nil, nil, err
	}
	if len(repos) == 0 {
		return nil, nil, ErrNoFeedstocks
	}

	var (
		stocks  []feedstock.Feedstock
		skipped []Skipped
	)

	for _, repo := range repos {
		pkg, _ := PackageFromRepo(repo.GetFullName())

		recipe, err := c.FetchRecipe(ctx, repo.GetName(), ignored)
		if err != nil {
			skipped = append(skipped, Skipped{Name: pkg, Reason: err})
			continue
		}

		stocks = append(stocks, feedstock.Feedstock{
			Name:          pkg,
			PinnedVersion: recipe.Version,
			Dependencies:  recipe.Requirements,
			Recipe:        recipe,
		})
	}

	return feedstock.NewSnapshot(stocks), skipped, nil
}

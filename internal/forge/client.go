// Package forge talks to GitHub: it discovers the conda-forge feedstocks a
// user maintains, manages forks, commits recipe patches, and opens pull
// requests.
package forge

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v43/github"
	"golang.org/x/oauth2"
)

// DefaultHTTPClientTimeout bounds every GitHub API call.
const DefaultHTTPClientTimeout = time.Minute

// ForgeOrg is the GitHub organization that owns all feedstock repositories.
const ForgeOrg = "conda-forge"

// feedstockSuffix is the repository-name suffix every feedstock carries.
const feedstockSuffix = "-feedstock"

// Client wraps the GitHub REST API for feedstock operations.
type Client struct {
	rest *github.Client
	// user is the authenticated login, resolved lazily when empty
	user string
}

// New returns a client authenticated with a personal access token or OAuth
// token. An empty token yields an unauthenticated client (useful for tests
// and read-only runs against public data).
func New(token string) *Client {
	return &Client{rest: github.NewClient(newHTTPClient(token))}
}

func newHTTPClient(apiToken string) *http.Client {
	if apiToken == "" {
		return &http.Client{Timeout: DefaultHTTPClientTimeout}
	}

	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: apiToken},
	)

	tc := oauth2.NewClient(context.Background(), ts)
	tc.Timeout = DefaultHTTPClientTimeout

	return tc
}

// SetBaseURL points the client at a different API endpoint (tests).
func (c *Client) SetBaseURL(rawurl string) error {
	if !strings.HasSuffix(rawurl, "/") {
		rawurl += "/"
	}
	u, err := url.Parse(rawurl)
	if err != nil {
		return err
	}
	c.rest.BaseURL = u
	return nil
}

// SetUser overrides the authenticated login, skipping the lookup.
func (c *Client) SetUser(login string) {
	c.user = login
}

// User returns the authenticated login, resolving it on first use.
func (c *Client) User(ctx context.Context) (string, error) {
	if c.user != "" {
		return c.user, nil
	}

	user, _, err := c.rest.Users.Get(ctx, "")
	if err != nil {
		return "", err
	}

	c.user = user.GetLogin()
	return c.user, nil
}

// FeedstockRepoName returns the repository name for a package
// ("toolz" -> "toolz-feedstock").
func FeedstockRepoName(pkg string) string {
	return pkg + feedstockSuffix
}

// PackageFromRepo extracts the package name from a feedstock repository
// full name ("conda-forge/toolz-feedstock" -> "toolz", ok).
func PackageFromRepo(fullName string) (string, bool) {
	if !strings.HasPrefix(fullName, ForgeOrg+"/") {
		return "", false
	}
	name := strings.TrimPrefix(fullName, ForgeOrg+"/")
	if !strings.HasSuffix(name, feedstockSuffix) {
		return "", false
	}
	pkg := strings.TrimSuffix(name, feedstockSuffix)
	if pkg == "" {
		return "", false
	}
	return pkg, true
}

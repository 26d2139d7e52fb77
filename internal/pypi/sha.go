package pypi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
)

var (
	// ErrSHANotFound is returned when no checksum could be scraped for a bundle
	ErrSHANotFound = errors.New("could not find SHA256 for source bundle")
)

// sha256Regex matches a SHA256 hex digest.
var sha256Regex = regexp.MustCompile(`\b[0-9a-f]{64}\b`)

// SourceSHA256 scrapes the pypi.org files page of a release for the SHA256 of
// its source bundle (e.g. name "toolz", version "0.9.0", bundleType ".tar.gz").
//
// PyPI does not serve checksums through the JSON API paths the updater already
// uses for old releases, so the files page is parsed instead: a CSS-selector
// pass first, an XPath pass when the page structure defeats it, and a plain
// text scan as the last resort. A page that yields no digest degrades to
// ErrSHANotFound; the caller skips the feedstock rather than failing the run.
func (c *Client) SourceSHA256(ctx context.Context, name, version, bundleType string) (string, error) {
	url := fmt.Sprintf("%s/project/%s/%s/#files", c.BaseURL, name, version)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", c.UserAgent)

	resp, err := c.httpClient.DoWithContext(ctx, req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", ErrSHANotFound, resp.StatusCode)
	}

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	bundleName := fmt.Sprintf("%s-%s%s", name, version, bundleType)

	if sha, err := shaFromCSS(content, bundleName); err == nil {
		return sha, nil
	}
	if sha, err := shaFromXPath(content, bundleName); err == nil {
		return sha, nil
	}
	if sha, err := shaFromText(content, bundleName); err == nil {
		return sha, nil
	}

	return "", fmt.Errorf("%w: %s", ErrSHANotFound, bundleName)
}

// shaFromCSS finds the download link for the bundle and searches its enclosing
// file card for a copyable SHA256 digest.
func shaFromCSS(content []byte, bundleName string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(content)))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	var sha string
	doc.Find("a[href]").EachWithBreak(func(_ int, link *goquery.Selection) bool {
		href, _ := link.Attr("href")
		if !strings.Contains(href, bundleName) {
			return true
		}

		// Climb to the file card the link lives in and look for the
		// clipboard value PyPI attaches to the hash button.
		card := link
		for depth := 0; depth < 4; depth++ {
			card = card.Parent()
			if card.Length() == 0 {
				break
			}
			card.Find("[data-clipboard-text]").EachWithBreak(func(_ int, el *goquery.Selection) bool {
				val, _ := el.Attr("data-clipboard-text")
				if sha256Regex.MatchString(val) {
					sha = sha256Regex.FindString(val)
					return false
				}
				return true
			})
			if sha != "" {
				return false
			}
		}
		return true
	})

	if sha == "" {
		return "", ErrSHANotFound
	}
	return sha, nil
}

// shaFromXPath is the fallback pass for pages where the CSS traversal finds
// the link but not the digest.
func shaFromXPath(content []byte, bundleName string) (string, error) {
	doc, err := htmlquery.Parse(strings.NewReader(string(content)))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	query := fmt.Sprintf(`//a[contains(@href, %q)]/ancestor::*[position()<=4]//*[@data-clipboard-text]`, bundleName)
	nodes, err := htmlquery.QueryAll(doc, query)
	if err != nil {
		return "", err
	}

	for _, node := range nodes {
		val := htmlquery.SelectAttr(node, "data-clipboard-text")
		if sha256Regex.MatchString(val) {
			return sha256Regex.FindString(val), nil
		}
	}

	return "", ErrSHANotFound
}

// shaFromText scans the raw page text for the first digest after the bundle
// filename. Crude, but survives markup changes that break both tree passes.
func shaFromText(content []byte, bundleName string) (string, error) {
	text := string(content)
	idx := strings.Index(text, bundleName)
	if idx < 0 {
		return "", ErrSHANotFound
	}

	if sha := sha256Regex.FindString(text[idx:]); sha != "" {
		return sha, nil
	}

	return "", ErrSHANotFound
}

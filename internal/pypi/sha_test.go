package pypi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

const testSHA = "aaaabbbbccccddddeeeeffff0000111122223333444455556666777788889999"

// filesPage builds a minimal pypi.org files page in the shape the scraper
// understands: a download link per bundle and a clipboard button with the hash.
func filesPage(bundleName, sha string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html><body>
<div class="file">
  <div class="file__card">
    <a href="https://files.pythonhosted.org/packages/ab/cd/%s">%s</a>
    <div>
      <button data-clipboard-text="%s">Copy SHA256</button>
    </div>
  </div>
</div>
</body></html>`, bundleName, bundleName, sha)
}

func newSHATestClient(t *testing.T, page string) *Client {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(page))
	}))
	t.Cleanup(server.Close)
	return newTestClient(t, server.URL)
}

func TestSourceSHA256(t *testing.T) {
	client := newSHATestClient(t, filesPage("toolz-0.9.0.tar.gz", testSHA))

	sha, err := client.SourceSHA256(context.Background(), "toolz", "0.9.0", ".tar.gz")
	if err != nil {
		t.Fatalf("SourceSHA256 failed: %v", err)
	}
	if sha != testSHA {
		t.Errorf("sha = %q, want %q", sha, testSHA)
	}
}

func TestSourceSHA256CanonicalCaseBundle(t *testing.T) {
	// pypi.org hrefs carry the canonical package spelling, so the caller
	// passes the base name from the recipe filename, not the normalized
	// feedstock name.
	client := newSHATestClient(t, filesPage("PyYAML-6.0.tar.gz", testSHA))

	sha, err := client.SourceSHA256(context.Background(), "PyYAML", "6.0", ".tar.gz")
	if err != nil {
		t.Fatalf("SourceSHA256 failed: %v", err)
	}
	if sha != testSHA {
		t.Errorf("sha = %q, want %q", sha, testSHA)
	}
}

func TestSourceSHA256WrongBundleIgnored(t *testing.T) {
	// The page lists a wheel, not the sdist the recipe pins.
	client := newSHATestClient(t, filesPage("toolz-0.9.0-py3-none-any.whl", testSHA))

	_, err := client.SourceSHA256(context.Background(), "toolz", "0.9.0", ".tar.gz")
	if !errors.Is(err, ErrSHANotFound) {
		t.Errorf("error = %v, want ErrSHANotFound", err)
	}
}

func TestSourceSHA256TextFallback(t *testing.T) {
	// No clipboard markup at all: the raw text scan should still find the
	// digest that follows the bundle name.
	page := fmt.Sprintf(`<html><body><pre>
toolz-0.9.0.tar.gz
sha256: %s
</pre></body></html>`, testSHA)

	client := newSHATestClient(t, page)

	sha, err := client.SourceSHA256(context.Background(), "toolz", "0.9.0", ".tar.gz")
	if err != nil {
		t.Fatalf("SourceSHA256 failed: %v", err)
	}
	if sha != testSHA {
		t.Errorf("sha = %q, want %q", sha, testSHA)
	}
}

func TestSourceSHA256InvalidClipboardValue(t *testing.T) {
	client := newSHATestClient(t, filesPage("toolz-0.9.0.tar.gz", "not-a-digest"))

	if _, err := client.SourceSHA256(context.Background(), "toolz", "0.9.0", ".tar.gz"); !errors.Is(err, ErrSHANotFound) {
		t.Errorf("error = %v, want ErrSHANotFound", err)
	}
}

func TestSourceSHA256NotFoundPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	if _, err := client.SourceSHA256(context.Background(), "ghost", "1.0", ".tar.gz"); !errors.Is(err, ErrSHANotFound) {
		t.Errorf("error = %v, want ErrSHANotFound", err)
	}
}

package forge

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

// newTestClient wires a client to a fake GitHub API served by mux.
func newTestClient(t *testing.T, mux *http.ServeMux) *Client {
	t.Helper()

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client := New("")
	if err := client.SetBaseURL(server.URL); err != nil {
		t.Fatalf("SetBaseURL failed: %v", err)
	}
	return client
}

func writeJSON(t *testing.T, w http.ResponseWriter, v interface{}) {
	t.Helper()
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Fatalf("encoding response failed: %v", err)
	}
}

func TestPackageFromRepo(t *testing.T) {
	tests := []struct {
		fullName string
		pkg      string
		ok       bool
	}{
		{"conda-forge/toolz-feedstock", "toolz", true},
		{"conda-forge/python-utils-feedstock", "python-utils", true},
		{"conda-forge/staged-recipes", "", false},
		{"someone-else/toolz-feedstock", "", false},
		{"conda-forge/-feedstock", "", false},
	}

	for _, tt := range tests {
		pkg, ok := PackageFromRepo(tt.fullName)
		if pkg != tt.pkg || ok != tt.ok {
			t.Errorf("PackageFromRepo(%q) = (%q, %v), want (%q, %v)",
				tt.fullName, pkg, ok, tt.pkg, tt.ok)
		}
	}
}

func TestFeedstockRepoName(t *testing.T) {
	if got := FeedstockRepoName("toolz"); got != "toolz-feedstock" {
		t.Errorf("FeedstockRepoName(toolz) = %q", got)
	}
}

func TestUserResolvedOnce(t *testing.T) {
	var calls int
	mux := http.NewServeMux()
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		calls++
		writeJSON(t, w, map[string]string{"login": "alice"})
	})

	client := newTestClient(t, mux)

	for i := 0; i < 3; i++ {
		user, err := client.User(context.Background())
		if err != nil {
			t.Fatalf("User failed: %v", err)
		}
		if user != "alice" {
			t.Errorf("user = %q, want alice", user)
		}
	}

	if calls != 1 {
		t.Errorf("login endpoint hit %d times, want 1", calls)
	}
}

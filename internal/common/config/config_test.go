package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// genToken generates plausible API token strings
func genToken() gopter.Gen {
	return gen.RegexMatch(`^ghp_[A-Za-z0-9]{10,30}$`)
}

// genUsername generates valid GitHub login strings
func genUsername() gopter.Gen {
	return gen.RegexMatch(`^[a-zA-Z][a-zA-Z0-9-]{0,15}$`)
}

// genTTL generates valid duration strings
func genTTL() gopter.Gen {
	return gen.OneConstOf("30m", "1h", "2h30m", "24h")
}

// genConfig generates valid Config structs
func genConfig() gopter.Gen {
	return gopter.CombineGens(
		genToken(),
		genUsername(),
		genTTL(),
		gen.Bool(),
	).Map(func(values []interface{}) *Config {
		return &Config{
			GitHub: GitHubConfig{
				Token: values[0].(string),
				User:  values[1].(string),
			},
			PyPI: PyPIConfig{
				CacheTTL: values[2].(string),
			},
			Render: RenderConfig{
				Enabled: values[3].(bool),
			},
		}
	})
}

func TestConfigRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("Config YAML round-trip preserves data", prop.ForAll(
		func(cfg *Config) bool {
			tmpDir, err := os.MkdirTemp("", "config-test-*")
			if err != nil {
				t.Logf("Failed to create temp dir: %v", err)
				return false
			}
			defer os.RemoveAll(tmpDir)

			configPath := filepath.Join(tmpDir, "config.yaml")

			if err := cfg.SaveTo(configPath); err != nil {
				t.Logf("Failed to save config: %v", err)
				return false
			}

			loaded, err := LoadFrom(configPath)
			if err != nil {
				t.Logf("Failed to load config: %v", err)
				return false
			}

			return reflect.DeepEqual(cfg, loaded)
		},
		genConfig(),
	))

	properties.TestingRun(t)
}

func TestMissingConfigFileCreatesDefault(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "subdir", "config.yaml")

	cfg, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if cfg.GitHub.Token != "" {
		t.Errorf("Expected empty token, got: %s", cfg.GitHub.Token)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Error("Expected config file to be created")
	}
}

func TestGetGitHubToken(t *testing.T) {
	cfg := &Config{GitHub: GitHubConfig{Token: "ghp_configured"}}
	token, err := cfg.GetGitHubToken()
	if err != nil || token != "ghp_configured" {
		t.Errorf("GetGitHubToken = (%q, %v)", token, err)
	}

	t.Setenv("GITHUB_TOKEN", "ghp_fromenv")
	cfg = &Config{}
	token, err = cfg.GetGitHubToken()
	if err != nil || token != "ghp_fromenv" {
		t.Errorf("env fallback = (%q, %v)", token, err)
	}

	t.Setenv("GITHUB_TOKEN", "")
	if _, err := cfg.GetGitHubToken(); !errors.Is(err, ErrGitHubTokenNotSet) {
		t.Errorf("error = %v, want ErrGitHubTokenNotSet", err)
	}
}

func TestGetCacheTTL(t *testing.T) {
	tests := []struct {
		name     string
		ttl      string
		expected time.Duration
		wantErr  bool
	}{
		{"empty returns default", "", DefaultCacheTTL, false},
		{"configured value", "30m", 30 * time.Minute, false},
		{"composite value", "1h30m", 90 * time.Minute, false},
		{"garbage", "soon", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{PyPI: PyPIConfig{CacheTTL: tt.ttl}}
			got, err := cfg.GetCacheTTL()
			if tt.wantErr {
				if !errors.Is(err, ErrBadCacheTTL) {
					t.Errorf("error = %v, want ErrBadCacheTTL", err)
				}
				return
			}
			if err != nil || got != tt.expected {
				t.Errorf("GetCacheTTL() = (%v, %v), want %v", got, err, tt.expected)
			}
		})
	}
}

func TestGetIgnoredRequirements(t *testing.T) {
	cfg := &Config{}
	if got := cfg.GetIgnoredRequirements(); got != nil {
		t.Errorf("empty config should yield nil (built-in default), got %v", got)
	}

	cfg = &Config{IgnoredRequirements: []string{"python", "pip"}}
	got := cfg.GetIgnoredRequirements()
	if len(got) != 2 {
		t.Fatalf("got %d entries, want 2", len(got))
	}
	if _, ok := got["pip"]; !ok {
		t.Errorf("pip missing from ignore set")
	}
}

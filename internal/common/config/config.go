package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/feedtick/feedtick/internal/feedstock"
)

var (
	ErrGitHubTokenNotSet = errors.New("github token is not configured: set github.token in the config file or the GITHUB_TOKEN environment variable")
	ErrBadCacheTTL       = errors.New("pypi.cache_ttl is not a valid duration")
)

// DefaultCacheTTL is used when pypi.cache_ttl is not configured.
const DefaultCacheTTL = time.Hour

// Config represents the application configuration
type Config struct {
	GitHub GitHubConfig `yaml:"github"`
	PyPI   PyPIConfig   `yaml:"pypi"`
	Render RenderConfig `yaml:"render"`
	// IgnoredRequirements lists requirement names that never count as
	// feedstock dependencies, replacing the built-in python/setuptools set
	// when non-empty
	IgnoredRequirements []string `yaml:"ignored_requirements,omitempty"`
}

// GitHubConfig holds GitHub API settings
type GitHubConfig struct {
	// Token is a personal access token with repo and delete_repo scopes
	Token string `yaml:"token"`
	// User overrides the login lookup (mostly for testing)
	User string `yaml:"user,omitempty"`
}

// PyPIConfig holds upstream version source settings
type PyPIConfig struct {
	// BaseURL overrides https://pypi.org (mostly for testing)
	BaseURL string `yaml:"base_url,omitempty"`
	// CacheTTL is how long version lookups stay cached, as a Go duration
	// string ("1h", "30m"). Empty means one hour.
	CacheTTL string `yaml:"cache_ttl,omitempty"`
}

// RenderConfig holds conda-smithy rerender settings
type RenderConfig struct {
	// Enabled turns on rerendering after the version commit
	Enabled bool `yaml:"enabled"`
	// Command overrides the rerender command line (default: conda smithy rerender)
	Command []string `yaml:"command,omitempty"`
	// WorkDir is the scratch directory for fork clones (default: os.TempDir)
	WorkDir string `yaml:"work_dir,omitempty"`
}

// ConfigPaths returns all possible config file paths in priority order
// 1. ~/.config/feedtick/config.yaml (XDG standard - priority)
// 2. ~/.feedtick/config.yaml (legacy fallback)
func ConfigPaths() ([]string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfig == "" {
		xdgConfig = filepath.Join(home, ".config")
	}

	return []string{
		filepath.Join(xdgConfig, "feedtick", "config.yaml"),
		filepath.Join(home, ".feedtick", "config.yaml"),
	}, nil
}

// DefaultConfigPath returns the default config file path (XDG standard)
func DefaultConfigPath() (string, error) {
	paths, err := ConfigPaths()
	if err != nil {
		return "", err
	}
	return paths[0], nil
}

// FindConfigPath returns the first existing config file path.
// Returns the default path if no config file exists yet.
func FindConfigPath() (string, error) {
	paths, err := ConfigPaths()
	if err != nil {
		return "", err
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return paths[0], nil
}

// DataDir returns the directory holding the version cache and pending list.
func DataDir() (string, error) {
	path, err := DefaultConfigPath()
	if err != nil {
		return "", err
	}
	return filepath.Dir(path), nil
}

// Load reads configuration from the first available config file.
// Priority: ~/.config/feedtick/config.yaml > ~/.feedtick/config.yaml
func Load() (*Config, error) {
	configPath, err := FindConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(configPath)
}

// LoadFrom reads configuration from a specific file path.
// A missing file creates a default config in place.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := &Config{}
			if saveErr := cfg.SaveTo(path); saveErr != nil {
				return nil, saveErr
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes configuration to the default config file
func (c *Config) Save() error {
	configPath, err := DefaultConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(configPath)
}

// SaveTo writes configuration to a specific file path
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// GetGitHubToken returns the configured token, falling back to the
// GITHUB_TOKEN environment variable.
func (c *Config) GetGitHubToken() (string, error) {
	if c.GitHub.Token != "" {
		return c.GitHub.Token, nil
	}
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		return token, nil
	}
	return "", ErrGitHubTokenNotSet
}

// GetCacheTTL parses pypi.cache_ttl, defaulting to one hour.
func (c *Config) GetCacheTTL() (time.Duration, error) {
	if c.PyPI.CacheTTL == "" {
		return DefaultCacheTTL, nil
	}
	ttl, err := time.ParseDuration(c.PyPI.CacheTTL)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrBadCacheTTL, c.PyPI.CacheTTL)
	}
	return ttl, nil
}

// GetRenderWorkDir returns the scratch directory for fork clones.
func (c *Config) GetRenderWorkDir() string {
	if c.Render.WorkDir != "" {
		return c.Render.WorkDir
	}
	return filepath.Join(os.TempDir(), "feedtick-render")
}

// GetIgnoredRequirements returns the configured ignore set, or nil when the
// built-in default should apply.
func (c *Config) GetIgnoredRequirements() map[string]struct{} {
	if len(c.IgnoredRequirements) == 0 {
		return nil
	}
	ignored := make(map[string]struct{}, len(c.IgnoredRequirements))
	for _, name := range c.IgnoredRequirements {
		ignored[feedstock.NormalizeName(name)] = struct{}{}
	}
	return ignored
}

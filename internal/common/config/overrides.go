package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/feedtick/feedtick/internal/feedstock"
)

// FeedstockOverride tunes the pipeline for a single feedstock.
type FeedstockOverride struct {
	// Skip excludes the feedstock from ticking entirely
	Skip bool `toml:"skip,omitempty"`
	// IgnoredRequirements lists extra requirement names that never count
	// as dependencies of this feedstock
	IgnoredRequirements []string `toml:"ignored_requirements,omitempty"`
	// BundleType overrides the source-bundle extension derived from the
	// recipe filename (".zip" for feedstocks whose sdist is not a tarball)
	BundleType string `toml:"bundle_type,omitempty"`
}

// Overrides holds per-feedstock tuning, loaded from feedstocks.toml next to
// the main config. Each [name] section is one feedstock.
type Overrides struct {
	Feedstocks map[string]FeedstockOverride
}

// overridesFile matches the TOML structure where each feedstock is a
// top-level section
type overridesFile map[string]FeedstockOverride

// LoadOverrides reads feedstocks.toml from configDir. A missing file yields
// empty overrides; a malformed file is an error.
func LoadOverrides(configDir string) (*Overrides, error) {
	path := filepath.Join(configDir, "feedstocks.toml")

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Overrides{Feedstocks: make(map[string]FeedstockOverride)}, nil
		}
		return nil, fmt.Errorf("failed to read feedstocks.toml: %w", err)
	}

	var file overridesFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse feedstocks.toml: %w", err)
	}

	// Section and requirement names are normalized the same way feedstock
	// names are, so a [PyYAML] section matches the snapshot entry pyyaml.
	overrides := &Overrides{Feedstocks: make(map[string]FeedstockOverride, len(file))}
	for name, override := range file {
		for i, req := range override.IgnoredRequirements {
			override.IgnoredRequirements[i] = feedstock.NormalizeName(req)
		}
		overrides.Feedstocks[feedstock.NormalizeName(name)] = override
	}

	return overrides, nil
}

// SkipSet returns the names of all feedstocks marked skip.
func (o *Overrides) SkipSet() map[string]struct{} {
	skip := make(map[string]struct{})
	for name, override := range o.Feedstocks {
		if override.Skip {
			skip[name] = struct{}{}
		}
	}
	return skip
}

// BundleTypes returns the configured bundle-type overrides keyed by
// feedstock name.
func (o *Overrides) BundleTypes() map[string]string {
	types := make(map[string]string)
	for name, override := range o.Feedstocks {
		if override.BundleType != "" {
			types[name] = override.BundleType
		}
	}
	return types
}

// MergedIgnores combines a base ignore set with every per-feedstock extra.
// The pipeline applies ignores at parse time, before dependencies are
// attributed to a feedstock, so the merge is global.
func (o *Overrides) MergedIgnores(base map[string]struct{}) map[string]struct{} {
	if base == nil && len(o.Feedstocks) == 0 {
		return nil
	}

	merged := make(map[string]struct{}, len(base))
	for name := range base {
		merged[name] = struct{}{}
	}
	for _, override := range o.Feedstocks {
		for _, name := range override.IgnoredRequirements {
			merged[name] = struct{}{}
		}
	}
	if len(merged) == 0 {
		return nil
	}
	return merged
}

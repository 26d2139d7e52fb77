package feedstock

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	// ErrRecipeUnparseable is returned when meta.yaml cannot be decoded
	ErrRecipeUnparseable = errors.New("could not parse meta.yaml")
	// ErrMissingRecipeKey is returned when a required meta.yaml key is absent
	ErrMissingRecipeKey = errors.New("missing meta.yaml key")
)

// Recipe is the parsed payload of a feedstock's recipe/meta.yaml.
// Raw keeps the unrendered text so the pipeline can patch it verbatim.
type Recipe struct {
	// Raw is the original meta.yaml text, before template rendering
	Raw string
	// Version is package/version
	Version string
	// SourceFilename is source/fn (the sdist bundle filename)
	SourceFilename string
	// SHA256 is source/sha256
	SHA256 string
	// Requirements is the union of all requirement sections, first token of
	// each spec line, normalized, with the ignore set removed
	Requirements []string
	// BlobSHA is the git blob SHA of the recipe file, needed for the
	// contents-API commit
	BlobSHA string
}

// DefaultIgnoredRequirements are requirement names that never count as
// feedstock dependencies. python and setuptools appear in nearly every recipe
// and are not maintained as ordinary feedstocks.
func DefaultIgnoredRequirements() map[string]struct{} {
	return map[string]struct{}{
		"python":     {},
		"setuptools": {},
	}
}

var (
	// {% set name = "value" %}
	jinjaSetRegex = regexp.MustCompile(`\{%\s*set\s+([A-Za-z_][A-Za-z0-9_]*)\s*=\s*"([^"]*)"\s*%\}`)
	// {% ... %} statements that are not simple set assignments
	jinjaStmtRegex = regexp.MustCompile(`\{%[^%]*%\}`)
	// {{ expr }} expressions; group 1 is a bare variable name when present
	jinjaExprRegex = regexp.MustCompile(`\{\{\s*([A-Za-z_][A-Za-z0-9_]*)?[^}]*\}\}`)
)

// renderTemplate resolves the template subset conda recipes commonly use:
// simple {% set x = "v" %} assignments are substituted into {{ x }}
// expressions, every other expression (RECIPE_DIR references, filters) is
// erased, and remaining statements are dropped.
func renderTemplate(text string) string {
	vars := make(map[string]string)
	for _, m := range jinjaSetRegex.FindAllStringSubmatch(text, -1) {
		vars[m[1]] = m[2]
	}

	text = jinjaStmtRegex.ReplaceAllString(text, "")
	text = jinjaExprRegex.ReplaceAllStringFunc(text, func(expr string) string {
		m := jinjaExprRegex.FindStringSubmatch(expr)
		if m[1] != "" {
			if val, ok := vars[m[1]]; ok {
				return val
			}
		}
		return ""
	})

	return text
}

// metaYAML mirrors the meta.yaml structure for the keys the updater needs.
type metaYAML struct {
	Package struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"package"`
	Source struct {
		Fn     string `yaml:"fn"`
		URL    string `yaml:"url"`
		SHA256 string `yaml:"sha256"`
	} `yaml:"source"`
	Requirements map[string][]string `yaml:"requirements"`
}

// ParseRecipe renders and decodes a meta.yaml document.
// ignore lists requirement names that never count as dependencies; pass nil
// for the default set. Version, source filename, and sha256 are required:
// without them the recipe cannot be patched safely.
func ParseRecipe(raw string, ignore map[string]struct{}) (*Recipe, error) {
	if ignore == nil {
		ignore = DefaultIgnoredRequirements()
	}

	rendered := renderTemplate(raw)

	var meta metaYAML
	if err := yaml.Unmarshal([]byte(rendered), &meta); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRecipeUnparseable, err)
	}

	version := strings.TrimSpace(meta.Package.Version)
	if version == "" {
		return nil, fmt.Errorf("%w: package/version", ErrMissingRecipeKey)
	}
	fn := strings.TrimSpace(meta.Source.Fn)
	if fn == "" {
		return nil, fmt.Errorf("%w: source/fn", ErrMissingRecipeKey)
	}
	sha := strings.TrimSpace(meta.Source.SHA256)
	if sha == "" {
		return nil, fmt.Errorf("%w: source/sha256", ErrMissingRecipeKey)
	}

	sections := make([]string, 0, len(meta.Requirements))
	for name := range meta.Requirements {
		sections = append(sections, name)
	}
	sort.Strings(sections)

	seen := make(map[string]struct{})
	var reqs []string
	for _, sectionName := range sections {
		for _, line := range meta.Requirements[sectionName] {
			fields := strings.Fields(line)
			if len(fields) == 0 {
				continue
			}
			name := NormalizeName(fields[0])
			if name == "" {
				continue
			}
			if _, skip := ignore[name]; skip {
				continue
			}
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			reqs = append(reqs, name)
		}
	}

	return &Recipe{
		Raw:            raw,
		Version:        version,
		SourceFilename: fn,
		SHA256:         sha,
		Requirements:   reqs,
	}, nil
}

// BundleType returns the archive extension of the source bundle
// (".tar.gz", ".zip"), derived from the source filename and pinned version.
// Empty when the filename does not contain the version.
func (r *Recipe) BundleType() string {
	idx := strings.LastIndex(r.SourceFilename, r.Version)
	if idx < 0 {
		return ""
	}
	return r.SourceFilename[idx+len(r.Version):]
}

// SourceBaseName returns the package part of the source filename, in the
// spelling PyPI uses ("PyYAML-6.0.tar.gz" -> "PyYAML"). Feedstock names are
// normalized to lower case, but pypi.org file listings keep the canonical
// case. Empty when the filename does not contain the version.
func (r *Recipe) SourceBaseName() string {
	idx := strings.LastIndex(r.SourceFilename, "-"+r.Version)
	if idx < 0 {
		return ""
	}
	return r.SourceFilename[:idx]
}

package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"github.com/feedtick/feedtick/internal/feedstock"
)

// Error variables for recipe patching errors
var (
	// ErrVersionNotInRecipe is returned when the pinned version string does
	// not occur in the raw recipe text
	ErrVersionNotInRecipe = errors.New("pinned version not found in recipe text")
	// ErrSHANotInRecipe is returned when the pinned sha256 does not occur in
	// the raw recipe text
	ErrSHANotInRecipe = errors.New("pinned sha256 not found in recipe text")
)

// PatchRecipe rewrites the raw recipe text, replacing every occurrence of the
// pinned version and source hash with the new ones. It patches the unrendered
// text so template variables like {% set version = "..." %} are updated in
// place and the rest of the recipe stays byte-identical.
//
// Both old values must be present in the text; a recipe that renders a
// version the raw text never spells out cannot be patched safely.
func PatchRecipe(recipe *feedstock.Recipe, newVersion, newSHA string) (string, error) {
	if !strings.Contains(recipe.Raw, recipe.Version) {
		return "", fmt.Errorf("%w: %q", ErrVersionNotInRecipe, recipe.Version)
	}
	if !strings.Contains(recipe.Raw, recipe.SHA256) {
		return "", fmt.Errorf("%w: %q", ErrSHANotInRecipe, recipe.SHA256)
	}

	patched := strings.ReplaceAll(recipe.Raw, recipe.Version, newVersion)
	patched = strings.ReplaceAll(patched, recipe.SHA256, newSHA)
	return patched, nil
}

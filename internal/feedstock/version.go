// Package feedstock defines the core data model for conda-forge feedstocks:
// the inventory snapshot, recipe parsing, and version ordering.
package feedstock

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

var (
	// ErrMalformedVersion is returned when a version string cannot be parsed
	// into the comparison order.
	ErrMalformedVersion = errors.New("malformed version string")
)

// Release-cycle suffix priorities (lower = earlier in the cycle).
// Covers the common PyPI spellings: dev < alpha < beta < rc < release < post.
var suffixPriority = map[string]int{
	"dev":   -4,
	"alpha": -3,
	"beta":  -2,
	"rc":    -1,
	"":      0, // plain release
	"post":  1,
}

// canonicalSuffix maps the spelling variants seen on PyPI to one canonical form.
var canonicalSuffix = map[string]string{
	"dev":   "dev",
	"a":     "alpha",
	"alpha": "alpha",
	"b":     "beta",
	"beta":  "beta",
	"c":     "rc",
	"rc":    "rc",
	"pre":   "rc",
	"post":  "post",
	"r":     "post",
	"rev":   "post",
}

// versionRegex splits a version into numeric part, letter suffix, suffix
// counter, and an opaque tail kept only for the lexicographic tie-break.
var versionRegex = regexp.MustCompile(`^([0-9][0-9.]*)(?:[._-]?([a-z]+)[._-]?([0-9]*))?(.*)$`)

// Version is a parsed version string with a strict total order.
type Version struct {
	// Raw is the original string as given
	Raw string
	// nums are the dot-separated numeric segments
	nums []int
	// suffix is the canonical release-cycle suffix ("" for plain releases)
	suffix string
	// suffixNum is the counter after the suffix (rc2 -> 2)
	suffixNum int
	// tail is whatever remained after parsing, compared lexicographically
	tail string
}

// ParseVersion parses a version string into its comparable form.
// It accepts the common numeric-dotted and pre-release conventions
// ("1.2.3", "1.2.3.1", "1.2.3rc1", "1.2.3.dev2", "1.0-alpha").
// A string that is empty or does not start with a digit is malformed.
func ParseVersion(s string) (Version, error) {
	raw := s
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return Version{}, ErrMalformedVersion
	}

	matches := versionRegex.FindStringSubmatch(s)
	if matches == nil {
		return Version{}, ErrMalformedVersion
	}

	numPart := strings.Trim(matches[1], ".")
	rawSuffix := matches[2]
	suffixNumStr := matches[3]
	tail := matches[4]

	if numPart == "" {
		return Version{}, ErrMalformedVersion
	}

	parts := strings.Split(numPart, ".")
	nums := make([]int, len(parts))
	for i, p := range parts {
		if p == "" {
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return Version{}, ErrMalformedVersion
		}
		nums[i] = n
	}

	suffix := ""
	if rawSuffix != "" {
		if canon, ok := canonicalSuffix[rawSuffix]; ok {
			suffix = canon
		} else {
			// Unknown letter run: keep it for the lexicographic tie-break
			// instead of guessing a release-cycle meaning.
			tail = rawSuffix + suffixNumStr + tail
			suffixNumStr = ""
		}
	}

	suffixNum := 0
	if suffixNumStr != "" {
		suffixNum, _ = strconv.Atoi(suffixNumStr)
	}

	return Version{
		Raw:       raw,
		nums:      nums,
		suffix:    suffix,
		suffixNum: suffixNum,
		tail:      tail,
	}, nil
}

// compareIntSlices compares numeric segments, padding the shorter side with
// zeros so "1.2.3" < "1.2.3.1".
func compareIntSlices(a, b []int) int {
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}

	for i := 0; i < maxLen; i++ {
		var av, bv int
		if i < len(a) {
			av = a[i]
		}
		if i < len(b) {
			bv = b[i]
		}

		if av < bv {
			return -1
		}
		if av > bv {
			return 1
		}
	}
	return 0
}

// Compare returns -1, 0, or 1 if v is older than, equal to, or newer than other.
// The order is total: numeric segments, then release-cycle suffix, then suffix
// counter, then the lexicographic tail tie-break.
func (v Version) Compare(other Version) int {
	if cmp := compareIntSlices(v.nums, other.nums); cmp != 0 {
		return cmp
	}

	p1 := suffixPriority[v.suffix]
	p2 := suffixPriority[other.suffix]
	if p1 < p2 {
		return -1
	}
	if p1 > p2 {
		return 1
	}

	if v.suffixNum < other.suffixNum {
		return -1
	}
	if v.suffixNum > other.suffixNum {
		return 1
	}

	return strings.Compare(v.tail, other.tail)
}

// Compare compares two version strings under the package's total order.
// Returns -1, 0, or 1, or ErrMalformedVersion if either string cannot be parsed.
func Compare(a, b string) (int, error) {
	va, err := ParseVersion(a)
	if err != nil {
		return 0, err
	}
	vb, err := ParseVersion(b)
	if err != nil {
		return 0, err
	}
	return va.Compare(vb), nil
}

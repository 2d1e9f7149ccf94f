// Package ident handles arXiv identifier parsing, canonical folder keys,
// and expansion of month + sequence-number ranges into identifier lists.
package ident

import (
	"fmt"
	"regexp"
	"strings"
)

// versionSuffix matches a trailing version marker such as "v2".
var versionSuffix = regexp.MustCompile(`v(\d+)$`)

// CanonicalKey converts an arXiv identifier to the folder key used for all
// on-disk artifacts: "1706.03762" -> "1706-03762". A trailing version
// suffix is preserved, so CanonicalKey("1706.03762v2") == "1706-03762v2".
func CanonicalKey(id string) string {
	v := ""
	if m := versionSuffix.FindString(id); m != "" {
		v = m
		id = id[:len(id)-len(m)]
	}
	return strings.ReplaceAll(id, ".", "-") + v
}

// StripVersion removes a trailing version suffix, yielding the base
// identifier. Identifiers without a suffix are returned unchanged.
func StripVersion(id string) string {
	return versionSuffix.ReplaceAllString(id, "")
}

// HasVersion reports whether the identifier carries a version suffix.
func HasVersion(id string) bool {
	return versionSuffix.MatchString(id)
}

// WithVersion appends a version suffix to a base identifier.
func WithVersion(baseID string, version int) string {
	return fmt.Sprintf("%sv%d", baseID, version)
}

// Normalize strips version suffixes and removes duplicates while
// preserving first-seen order. The crawler treats each base identifier as
// one unit of work regardless of how it was specified.
func Normalize(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		base := StripVersion(strings.TrimSpace(id))
		if base == "" || seen[base] {
			continue
		}
		seen[base] = true
		out = append(out, base)
	}
	return out
}

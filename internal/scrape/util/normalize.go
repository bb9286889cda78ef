package util

import (
	"regexp"
	"strings"
)

func CleanText(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimSpace(s)
}

var reNonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slug turns "Data Analyst" into "data-analyst" for path-style search URLs.
func Slug(s string) string {
	s = reNonSlug.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), "-")
	return strings.Trim(s, "-")
}

// ContainsAnyFold reports whether s contains any of needles, ignoring case.
func ContainsAnyFold(s string, needles []string) bool {
	low := strings.ToLower(s)
	for _, n := range needles {
		n = strings.ToLower(strings.TrimSpace(n))
		if n != "" && strings.Contains(low, n) {
			return true
		}
	}
	return false
}

// FirstNonEmpty returns the first argument that is not blank.
func FirstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

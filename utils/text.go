package utils

import (
	"regexp"
	"strings"
)

// spaceRegex collapses any run of whitespace, including the non-breaking
// spaces WooCommerce themes like to put inside price tags.
var spaceRegex = regexp.MustCompile(`[\s\x{00a0}]+`)

// CleanText trims a scraped text node and collapses internal whitespace runs
// into single spaces.
func CleanText(s string) string {
	return strings.TrimSpace(spaceRegex.ReplaceAllString(s, " "))
}

// brandRegex matches anything that is not a letter, a number, or a hyphen.
var brandRegex = regexp.MustCompile(`[^\p{L}\p{N}-]+`)

// NormalizeBrand turns user input into the lowercase slug the catalog's
// brand filter expects.
func NormalizeBrand(brand string) string {
	slug := strings.ReplaceAll(strings.TrimSpace(brand), " ", "-")
	slug = brandRegex.ReplaceAllString(slug, "")
	return strings.ToLower(slug)
}

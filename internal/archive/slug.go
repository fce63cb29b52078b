package archive

import (
	"regexp"
	"strings"
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	nonSlugChars  = regexp.MustCompile(`[^\w-]`)
	hyphenRun     = regexp.MustCompile(`-+`)
)

// Slug derives the path-safe folder name for a title: lower-cased, trimmed,
// whitespace runs collapsed to single hyphens, non-word characters stripped,
// repeated hyphens collapsed. Distinct titles can slugify identically; the
// archive layout accepts that.
func Slug(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	s = whitespaceRun.ReplaceAllString(s, "-")
	s = nonSlugChars.ReplaceAllString(s, "")
	s = hyphenRun.ReplaceAllString(s, "-")
	return s
}

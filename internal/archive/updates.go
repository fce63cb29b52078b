package archive

import (
	"path"
	"regexp"
	"sort"
	"strings"
	"time"
)

var (
	datedTitleDir = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})-(.+)$`)
	dateOnlyDir   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// parseUpdateDir derives an update's date and title from its folder name
// with an explicit fallback chain: full "YYYY-MM-DD-title-slug" pattern,
// then a bare date, then the raw name with a zero date. Folder names that
// match no expectation are never misread as dates.
func parseUpdateDir(name string) (date time.Time, title string) {
	if m := datedTitleDir.FindStringSubmatch(name); m != nil {
		if parsed, err := time.Parse("2006-01-02", m[1]); err == nil {
			return parsed, titleFromSlug(m[2])
		}
	}
	if dateOnlyDir.MatchString(name) {
		if parsed, err := time.Parse("2006-01-02", name); err == nil {
			return parsed, ""
		}
	}
	return time.Time{}, name
}

func titleFromSlug(slug string) string {
	words := strings.Split(slug, "-")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// mediaExtensions restricts update media to common image and video types.
var mediaExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".mp4":  true,
	".mov":  true,
	".webm": true,
}

// IsMediaFile reports whether a file name carries an allowed media extension.
func IsMediaFile(name string) bool {
	return mediaExtensions[strings.ToLower(path.Ext(name))]
}

// sortUpdates orders updates newest first, with undated entries last.
func sortUpdates(updates []ProjectUpdate) {
	sort.SliceStable(updates, func(i, j int) bool {
		if updates[i].Date.IsZero() != updates[j].Date.IsZero() {
			return !updates[i].Date.IsZero()
		}
		return updates[i].Date.After(updates[j].Date)
	})
}

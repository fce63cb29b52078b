package reconcile

import (
	"strings"

	"aviationclub/api/internal/club"
)

// UpgradeURLs rewrites every stored URL field from http to https, in place.
// Already-secure, relative, and empty values pass through unchanged, so
// applying the transform twice equals applying it once.
func UpgradeURLs(d *club.Dataset) {
	if d == nil {
		return
	}
	for i := range d.Projects {
		d.Projects[i].ImageURL = secureURL(d.Projects[i].ImageURL)
	}
	for i := range d.Officers {
		d.Officers[i].ImageURL = secureURL(d.Officers[i].ImageURL)
	}
	for i := range d.Meetings {
		d.Meetings[i].ImageURL = secureURL(d.Meetings[i].ImageURL)
	}
	for i := range d.Pillars {
		d.Pillars[i].ImageURL = secureURL(d.Pillars[i].ImageURL)
	}
	for i := range d.MissionCards {
		d.MissionCards[i].ImageURL = secureURL(d.MissionCards[i].ImageURL)
	}
	d.GoogleCalendarURL = secureURL(d.GoogleCalendarURL)
	d.DiscordURL = secureURL(d.DiscordURL)
}

func secureURL(u string) string {
	if rest, ok := strings.CutPrefix(u, "http://"); ok {
		return "https://" + rest
	}
	return u
}

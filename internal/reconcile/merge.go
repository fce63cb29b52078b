package reconcile

import "aviationclub/api/internal/club"

// Merge overlays the winning candidate onto the snapshot base. A collection
// the candidate omits (nil, not empty) falls back to the base's; an
// explicitly empty collection stays empty. Site content is merged key by key
// so base keys the candidate did not carry survive. The result is normalized
// and shares no storage with either input.
func Merge(base, candidate *club.Dataset) *club.Dataset {
	out := base.Clone()
	if candidate == nil {
		return out.Normalize()
	}

	c := candidate.Clone()
	if candidate.Projects != nil {
		out.Projects = c.Projects
	}
	if candidate.Officers != nil {
		out.Officers = c.Officers
	}
	if candidate.Meetings != nil {
		out.Meetings = c.Meetings
	}
	if candidate.Pillars != nil {
		out.Pillars = c.Pillars
	}
	if candidate.MissionCards != nil {
		out.MissionCards = c.MissionCards
	}
	if candidate.TickerItems != nil {
		out.TickerItems = c.TickerItems
	}
	if out.SiteContent == nil {
		out.SiteContent = map[string]string{}
	}
	for k, v := range candidate.SiteContent {
		out.SiteContent[k] = v
	}
	if candidate.GoogleCalendarURL != "" {
		out.GoogleCalendarURL = candidate.GoogleCalendarURL
	}
	if candidate.DiscordURL != "" {
		out.DiscordURL = candidate.DiscordURL
	}
	if candidate.LastUpdated != "" {
		out.LastUpdated = candidate.LastUpdated
	}
	return out.Normalize()
}

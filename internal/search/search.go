// Package search indexes the site's projects, meetings, and editable content
// for the site-wide search box. Meilisearch is used when configured; an
// in-memory scan of the published dataset is the fallback.
package search

import (
	"strings"

	"aviationclub/api/internal/club"
)

// ResultType identifies the kind of entity in a search result.
type ResultType string

const (
	ResultProject ResultType = "project"
	ResultMeeting ResultType = "meeting"
	ResultContent ResultType = "content"
)

// Result is a single search hit returned to the caller.
type Result struct {
	Type    ResultType `json:"type"`
	ID      string     `json:"id"`
	Title   string     `json:"title"`
	Snippet string     `json:"snippet"`
}

// Query describes a search request.
type Query struct {
	Text       string
	FilterType ResultType // empty = all types
	Limit      int
	Offset     int
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// Searcher can execute a full-text search.
type Searcher interface {
	Search(q Query) ([]Result, int, error)
	Healthy() bool
}

// ProjectRecord is the data indexed for a project.
type ProjectRecord struct {
	ID                string `json:"id"`
	Title             string `json:"title"`
	Description       string `json:"description"`
	Status            string `json:"status"`
	OperationalStatus string `json:"operationalStatus"`
}

// MeetingRecord is the data indexed for a meeting.
type MeetingRecord struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Date        string `json:"date"`
	Location    string `json:"location"`
	Description string `json:"description"`
	Status      string `json:"status"`
}

// ContentRecord is one site content entry; the content key doubles as the id.
type ContentRecord struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Records flattens a dataset into indexable form.
func Records(d *club.Dataset) ([]ProjectRecord, []MeetingRecord, []ContentRecord) {
	projects := make([]ProjectRecord, 0, len(d.Projects))
	for _, p := range d.Projects {
		projects = append(projects, ProjectRecord{
			ID:                p.ID,
			Title:             p.Title,
			Description:       p.Description,
			Status:            p.Status,
			OperationalStatus: p.OperationalStatus,
		})
	}
	meetings := make([]MeetingRecord, 0, len(d.Meetings))
	for _, m := range d.Meetings {
		meetings = append(meetings, MeetingRecord{
			ID:          m.ID,
			Title:       m.Title,
			Date:        m.Date,
			Location:    m.Location,
			Description: m.Description,
			Status:      m.Status,
		})
	}
	content := make([]ContentRecord, 0, len(d.SiteContent))
	for key, text := range d.SiteContent {
		content = append(content, ContentRecord{ID: key, Text: text})
	}
	return projects, meetings, content
}

// snippet trims freeform text down to a short display excerpt.
func snippet(text string) string {
	text = strings.TrimSpace(text)
	const max = 160
	if len(text) <= max {
		return text
	}
	cut := strings.LastIndexByte(text[:max], ' ')
	if cut <= 0 {
		cut = max
	}
	return text[:cut] + "…"
}

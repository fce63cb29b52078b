package search

import (
	"sort"
	"strings"

	"aviationclub/api/internal/club"
)

// Memory implements Searcher by scanning the published dataset directly.
// Always healthy: if the dataset is there, it can be searched.
type Memory struct {
	source func() *club.Dataset
}

func NewMemory(source func() *club.Dataset) *Memory {
	return &Memory{source: source}
}

func (m *Memory) Healthy() bool {
	return true
}

// Search does a case-insensitive substring match over titles, descriptions,
// locations, and site content text.
func (m *Memory) Search(q Query) ([]Result, int, error) {
	text := strings.TrimSpace(q.Text)
	if text == "" {
		return nil, 0, nil
	}

	var results []Result
	projects, meetings, content := Records(m.source())

	if q.FilterType == "" || q.FilterType == ResultProject {
		for _, p := range projects {
			if containsFold(text, p.Title, p.Description) {
				results = append(results, Result{Type: ResultProject, ID: p.ID, Title: p.Title, Snippet: snippet(p.Description)})
			}
		}
	}
	if q.FilterType == "" || q.FilterType == ResultMeeting {
		for _, mt := range meetings {
			if containsFold(text, mt.Title, mt.Description, mt.Location) {
				results = append(results, Result{Type: ResultMeeting, ID: mt.ID, Title: mt.Title, Snippet: snippet(mt.Description)})
			}
		}
	}
	if q.FilterType == "" || q.FilterType == ResultContent {
		hits := make([]Result, 0)
		for _, c := range content {
			if containsFold(text, c.ID, c.Text) {
				hits = append(hits, Result{Type: ResultContent, ID: c.ID, Title: c.ID, Snippet: snippet(c.Text)})
			}
		}
		// Records ranges over a map; keep content hits deterministic.
		sort.Slice(hits, func(i, j int) bool { return hits[i].ID < hits[j].ID })
		results = append(results, hits...)
	}

	total := len(results)
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= total {
		return nil, total, nil
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return results[offset:end], total, nil
}

func containsFold(needle string, haystacks ...string) bool {
	needle = strings.ToLower(needle)
	for _, h := range haystacks {
		if strings.Contains(strings.ToLower(h), needle) {
			return true
		}
	}
	return false
}

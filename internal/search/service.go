package search

import (
	"log"

	"aviationclub/api/internal/club"
)

// Service is the facade that tries Meilisearch first and falls back to the
// in-memory scan.
type Service struct {
	meili  *Meili
	memory *Memory
}

// NewService creates a search service. meili may be nil when Meilisearch is
// not configured.
func NewService(meili *Meili, memory *Memory) *Service {
	return &Service{meili: meili, memory: memory}
}

// Search tries Meilisearch if healthy, otherwise scans the dataset.
func (s *Service) Search(q Query) Response {
	if s.meili != nil && s.meili.Healthy() {
		results, total, err := s.meili.Search(q)
		if err == nil {
			return Response{Results: nonNil(results), Total: total, Query: q.Text}
		}
		log.Printf("search: meilisearch error, falling back to dataset scan: %v", err)
	}

	results, total, err := s.memory.Search(q)
	if err != nil {
		log.Printf("search: dataset scan error: %v", err)
		return Response{Results: []Result{}, Total: 0, Query: q.Text}
	}
	return Response{Results: nonNil(results), Total: total, Query: q.Text}
}

// Reindex pushes the dataset's searchable records to Meilisearch. Called at
// bootstrap and after every published change; a no-op without a healthy
// Meilisearch since the fallback reads the live dataset directly.
func (s *Service) Reindex(d *club.Dataset) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	projects, meetings, content := Records(d)
	go func() {
		if err := s.meili.IndexDataset(projects, meetings, content); err != nil {
			log.Printf("search: reindex failed: %v", err)
		}
	}()
}

// Remove drops a deleted entity from the Meilisearch index so it stops
// appearing in results. Fire-and-forget; the fallback scan never sees
// deleted entities anyway.
func (s *Service) Remove(typ ResultType, id string) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		var err error
		switch typ {
		case ResultProject:
			err = s.meili.DeleteProject(id)
		case ResultMeeting:
			err = s.meili.DeleteMeeting(id)
		default:
			return
		}
		if err != nil {
			log.Printf("search: remove %s %s: %v", typ, id, err)
		}
	}()
}

// Close stops the Meilisearch health monitor.
func (s *Service) Close() {
	if s.meili != nil {
		s.meili.Close()
	}
}

func nonNil(r []Result) []Result {
	if r == nil {
		return []Result{}
	}
	return r
}

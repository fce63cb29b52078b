package search

import (
	"testing"

	"aviationclub/api/internal/club"
)

func testDataset() *club.Dataset {
	return (&club.Dataset{
		Projects: []club.Project{
			{ID: "p1", Title: "Flight Simulator Rig", Description: "Cockpit build with rudder pedals"},
			{ID: "p2", Title: "Weather Balloon", Description: "High-altitude telemetry payload"},
		},
		Meetings: []club.Meeting{
			{ID: "m1", Title: "Build Night", Location: "Room 204", Description: "Simulator wiring session"},
			{ID: "m2", Title: "Launch Review", Location: "Field", Description: "Balloon recovery debrief"},
		},
		SiteContent: map[string]string{
			"homeHeroTitle": "Cleared for takeoff",
			"aboutIntro":    "We build flight hardware after school",
		},
	}).Normalize()
}

func newTestMemory() *Memory {
	d := testDataset()
	return NewMemory(func() *club.Dataset { return d })
}

func TestMemorySearchAcrossTypes(t *testing.T) {
	m := newTestMemory()

	results, total, err := m.Search(Query{Text: "simulator"})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if total != 2 {
		t.Fatalf("total = %d, want 2 (one project, one meeting)", total)
	}
	types := map[ResultType]bool{}
	for _, r := range results {
		types[r.Type] = true
	}
	if !types[ResultProject] || !types[ResultMeeting] {
		t.Errorf("expected both a project and a meeting hit, got %+v", results)
	}
}

func TestMemorySearchMatchesCaseInsensitive(t *testing.T) {
	m := newTestMemory()
	_, total, err := m.Search(Query{Text: "BALLOON"})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if total != 2 {
		t.Errorf("total = %d, want 2", total)
	}
}

func TestMemorySearchContentByKeyAndText(t *testing.T) {
	m := newTestMemory()

	results, _, err := m.Search(Query{Text: "takeoff", FilterType: ResultContent})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 1 || results[0].ID != "homeHeroTitle" {
		t.Fatalf("results = %+v, want the homeHeroTitle entry", results)
	}

	results, _, err = m.Search(Query{Text: "aboutIntro", FilterType: ResultContent})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 1 || results[0].ID != "aboutIntro" {
		t.Errorf("content keys should be searchable, got %+v", results)
	}
}

func TestMemorySearchFilterAndPaging(t *testing.T) {
	m := newTestMemory()

	results, total, err := m.Search(Query{Text: "simulator", FilterType: ResultProject})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if total != 1 || results[0].ID != "p1" {
		t.Errorf("filtered search = %+v (total %d)", results, total)
	}

	page, total, err := m.Search(Query{Text: "e", Limit: 2, Offset: 2})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if total <= 2 {
		t.Fatalf("broad query should match more than one page, total = %d", total)
	}
	if len(page) == 0 || len(page) > 2 {
		t.Errorf("page size = %d, want 1..2", len(page))
	}
}

func TestMemorySearchEmptyQuery(t *testing.T) {
	m := newTestMemory()
	results, total, err := m.Search(Query{Text: "   "})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if total != 0 || len(results) != 0 {
		t.Errorf("blank query must match nothing, got %d", total)
	}
}

func TestServiceFallsBackWithoutMeili(t *testing.T) {
	svc := NewService(nil, newTestMemory())
	resp := svc.Search(Query{Text: "balloon"})
	if resp.Total != 2 {
		t.Errorf("total = %d, want 2", resp.Total)
	}
	if resp.Query != "balloon" {
		t.Errorf("query echo = %q", resp.Query)
	}
	if resp.Results == nil {
		t.Error("results must never be nil")
	}
}

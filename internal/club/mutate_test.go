package club

import (
	"encoding/json"
	"testing"
	"time"
)

func threeOfficers() *Dataset {
	return (&Dataset{
		Officers: []Officer{
			{ID: "1", Name: "Alex", Role: "President", Email: "a@lahs.edu"},
			{ID: "2", Name: "Sam", Role: "VP", Email: "s@lahs.edu"},
			{ID: "3", Name: "Jordan", Role: "Treasurer", Email: "j@lahs.edu"},
		},
	}).Normalize()
}

func TestUpdateFieldIsolation(t *testing.T) {
	d := threeOfficers()
	if err := d.UpdateField(ColOfficers, "2", "name", "Sam P."); err != nil {
		t.Fatalf("UpdateField failed: %v", err)
	}
	if d.Officers[1].Name != "Sam P." {
		t.Errorf("officer 2 name = %q, want %q", d.Officers[1].Name, "Sam P.")
	}
	if d.Officers[0] != (Officer{ID: "1", Name: "Alex", Role: "President", Email: "a@lahs.edu"}) {
		t.Error("officer 1 changed")
	}
	if d.Officers[2] != (Officer{ID: "3", Name: "Jordan", Role: "Treasurer", Email: "j@lahs.edu"}) {
		t.Error("officer 3 changed")
	}
}

func TestUpdateFieldMissingIDIsNoop(t *testing.T) {
	d := threeOfficers()
	if err := d.UpdateField(ColOfficers, "nope", "name", "X"); err != nil {
		t.Fatalf("missing id should be a no-op, got error: %v", err)
	}
	if len(d.Officers) != 3 || d.Officers[0].Name != "Alex" {
		t.Error("collection changed on missing id")
	}
}

func TestUpdateFieldUnknownCollection(t *testing.T) {
	d := threeOfficers()
	if err := d.UpdateField("hangars", "1", "name", "X"); err == nil {
		t.Error("expected error for unknown collection")
	}
}

func TestUpdateFieldUnknownField(t *testing.T) {
	d := threeOfficers()
	if err := d.UpdateField(ColOfficers, "1", "altitude", "X"); err == nil {
		t.Error("expected error for unknown field")
	}
}

func TestUpdateProjectSpecs(t *testing.T) {
	d := (&Dataset{Projects: []Project{{ID: "p1", Title: "Rocket"}}}).Normalize()
	specs := []Spec{{Label: "Apogee", Value: "3,200 ft"}}
	if err := d.UpdateField(ColProjects, "p1", "specs", specs); err != nil {
		t.Fatalf("UpdateField specs failed: %v", err)
	}
	if len(d.Projects[0].Specs) != 1 || d.Projects[0].Specs[0].Label != "Apogee" {
		t.Errorf("specs = %+v", d.Projects[0].Specs)
	}

	if err := d.UpdateField(ColProjects, "p1", "specs", "not-specs"); err == nil {
		t.Error("expected error for non-spec value")
	}
}

func TestAppendGeneratesID(t *testing.T) {
	d := (&Dataset{}).Normalize()
	id, err := d.Append(ColProjects, json.RawMessage(`{"id":"ignored","title":"New Project"}`))
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if id == "" || id == "ignored" {
		t.Errorf("expected generated id, got %q", id)
	}
	if len(d.Projects) != 1 {
		t.Fatalf("expected 1 project, got %d", len(d.Projects))
	}
	p := d.Projects[0]
	if p.ID != id || p.Title != "New Project" {
		t.Errorf("appended project = %+v", p)
	}
	if p.Specs == nil {
		t.Error("appended project specs should be defaulted")
	}
	if p.OperationalStatus != OpActive {
		t.Errorf("operational status = %q, want %q", p.OperationalStatus, OpActive)
	}
}

func TestAppendMeetingDefaultsActive(t *testing.T) {
	d := (&Dataset{}).Normalize()
	if _, err := d.Append(ColMeetings, json.RawMessage(`{"title":"Launch Day","date":"2025-03-01"}`)); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if d.Meetings[0].Status != MeetingActive {
		t.Errorf("meeting status = %q, want %q", d.Meetings[0].Status, MeetingActive)
	}
}

func TestRemove(t *testing.T) {
	d := threeOfficers()
	if err := d.Remove(ColOfficers, "2"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if len(d.Officers) != 2 {
		t.Fatalf("expected 2 officers, got %d", len(d.Officers))
	}
	if d.Officers[0].ID != "1" || d.Officers[1].ID != "3" {
		t.Errorf("remaining order wrong: %v, %v", d.Officers[0].ID, d.Officers[1].ID)
	}

	// Missing id leaves the collection unchanged.
	if err := d.Remove(ColOfficers, "nope"); err != nil {
		t.Fatalf("Remove missing id: %v", err)
	}
	if len(d.Officers) != 2 {
		t.Error("collection changed on missing id")
	}
}

func TestSwapBounded(t *testing.T) {
	d := threeOfficers()

	if err := d.Swap(ColOfficers, "2", -1); err != nil {
		t.Fatalf("Swap failed: %v", err)
	}
	if d.Officers[0].ID != "2" || d.Officers[1].ID != "1" {
		t.Errorf("swap up: order = %s,%s,%s", d.Officers[0].ID, d.Officers[1].ID, d.Officers[2].ID)
	}

	// First entity up and last entity down are no-ops.
	if err := d.Swap(ColOfficers, "2", -1); err != nil {
		t.Fatalf("Swap failed: %v", err)
	}
	if d.Officers[0].ID != "2" {
		t.Error("moving first entity up should be a no-op")
	}
	if err := d.Swap(ColOfficers, "3", 1); err != nil {
		t.Fatalf("Swap failed: %v", err)
	}
	if d.Officers[2].ID != "3" {
		t.Error("moving last entity down should be a no-op")
	}

	if err := d.Swap(ColOfficers, "1", 2); err == nil {
		t.Error("expected error for delta outside -1..1")
	}
}

func TestGenerateMeetings(t *testing.T) {
	start := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	meetings, err := GenerateMeetings(start, Weekly, 3, "Build Night", "16:00", "Room 702")
	if err != nil {
		t.Fatalf("GenerateMeetings failed: %v", err)
	}
	if len(meetings) != 3 {
		t.Fatalf("expected 3 meetings, got %d", len(meetings))
	}
	wantDates := []string{"2025-01-06", "2025-01-13", "2025-01-20"}
	seen := map[string]bool{}
	for i, m := range meetings {
		if m.Date != wantDates[i] {
			t.Errorf("meeting %d date = %s, want %s", i, m.Date, wantDates[i])
		}
		if m.Status != MeetingActive {
			t.Errorf("meeting %d status = %q", i, m.Status)
		}
		if m.Title != "Build Night" || m.Time != "16:00" || m.Location != "Room 702" {
			t.Errorf("meeting %d fields = %+v", i, m)
		}
		if seen[m.ID] {
			t.Errorf("duplicate id %q in batch", m.ID)
		}
		seen[m.ID] = true
	}
}

func TestGenerateMeetingsMonthlyAndDaily(t *testing.T) {
	start := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)
	monthly, err := GenerateMeetings(start, Monthly, 2, "M", "12:00", "Quad")
	if err != nil {
		t.Fatalf("GenerateMeetings failed: %v", err)
	}
	if monthly[1].Date != "2025-03-03" {
		// AddDate normalizes Jan 31 + 1 month past the end of February.
		t.Errorf("monthly step = %s, want 2025-03-03", monthly[1].Date)
	}

	daily, err := GenerateMeetings(start, Daily, 2, "D", "12:00", "Quad")
	if err != nil {
		t.Fatalf("GenerateMeetings failed: %v", err)
	}
	if daily[1].Date != "2025-02-01" {
		t.Errorf("daily step = %s, want 2025-02-01", daily[1].Date)
	}
}

func TestGenerateMeetingsRejectsBadInput(t *testing.T) {
	start := time.Now()
	if _, err := GenerateMeetings(start, Weekly, 0, "X", "12:00", "Quad"); err == nil {
		t.Error("expected error for zero count")
	}
	if _, err := GenerateMeetings(start, Cadence("Fortnightly"), 2, "X", "12:00", "Quad"); err == nil {
		t.Error("expected error for unknown cadence")
	}
}

package reconcile

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"aviationclub/api/internal/cache"
	"aviationclub/api/internal/club"
)

type fakeRemote struct {
	data *club.Dataset
	err  error
}

func (f *fakeRemote) ReadLedger(ctx context.Context) (*club.Dataset, string, error) {
	if f.err != nil {
		return nil, "", f.err
	}
	return f.data, "token", nil
}

type fakeCache struct {
	entry *cache.Entry
	err   error
}

func (f *fakeCache) Load(ctx context.Context) (*cache.Entry, error) {
	return f.entry, f.err
}

func fixedNow() time.Time {
	return time.Date(2024, 6, 15, 10, 30, 0, 0, time.UTC)
}

// stamped returns a snapshot-derived candidate with a marker title and a
// lastUpdated timestamp.
func stamped(marker, lastUpdated string) *club.Dataset {
	d := club.Snapshot()
	d.Projects[0].Title = marker
	d.LastUpdated = lastUpdated
	return d
}

func TestFreshestSourceWins(t *testing.T) {
	cases := []struct {
		name       string
		remoteAt   string
		localAt    time.Time
		wantSource Source
		wantTitle  string
	}{
		{
			name:       "local newest",
			remoteAt:   "2024-01-01T00:00:00Z",
			localAt:    time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
			wantSource: SourceLocal,
			wantTitle:  "from-local",
		},
		{
			name:       "remote newest",
			remoteAt:   "2024-03-01T00:00:00Z",
			localAt:    time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
			wantSource: SourceRemote,
			wantTitle:  "from-remote",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			local := stamped("from-local", "")
			r := New(
				&fakeRemote{data: stamped("from-remote", tc.remoteAt)},
				&fakeCache{entry: &cache.Entry{Data: local, SavedAt: tc.localAt}},
			)
			r.Now = fixedNow

			res := r.Load(context.Background())
			if res.Source != tc.wantSource {
				t.Fatalf("source = %q, want %q", res.Source, tc.wantSource)
			}
			if res.Data.Projects[0].Title != tc.wantTitle {
				t.Errorf("winning project title = %q, want %q", res.Data.Projects[0].Title, tc.wantTitle)
			}
		})
	}
}

func TestRemoteWinsTimestampTie(t *testing.T) {
	at := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	r := New(
		&fakeRemote{data: stamped("from-remote", at.Format(time.RFC3339))},
		&fakeCache{entry: &cache.Entry{Data: stamped("from-local", ""), SavedAt: at}},
	)
	r.Now = fixedNow

	res := r.Load(context.Background())
	if res.Source != SourceRemote {
		t.Errorf("equal timestamps should keep the remote candidate, got %q", res.Source)
	}
}

func TestSourceFailuresDegradeToSnapshot(t *testing.T) {
	r := New(
		&fakeRemote{err: errors.New("network down")},
		&fakeCache{err: errors.New("cache down")},
	)
	r.Now = fixedNow

	res := r.Load(context.Background())
	if res.Source != SourceSnapshot {
		t.Fatalf("source = %q, want snapshot", res.Source)
	}
	if len(res.Data.Projects) == 0 {
		t.Error("snapshot fallback published no projects")
	}
}

func TestMergeFillsOmittedCollections(t *testing.T) {
	snap := club.Snapshot()
	candidate := &club.Dataset{
		Projects:    []club.Project{{ID: "p1", Title: "Only Project"}},
		SiteContent: map[string]string{"homeHeroTitle": "Overridden"},
		LastUpdated: "2024-05-01T00:00:00Z",
	}

	merged := Merge(snap, candidate)
	if !reflect.DeepEqual(merged.Pillars, snap.Pillars) {
		t.Error("omitted pillars must fall back to the snapshot's")
	}
	if len(merged.Projects) != 1 || merged.Projects[0].Title != "Only Project" {
		t.Errorf("candidate projects must win, got %+v", merged.Projects)
	}
	if merged.SiteContent["homeHeroTitle"] != "Overridden" {
		t.Error("candidate site content key must override")
	}
	for key, want := range snap.SiteContent {
		if key == "homeHeroTitle" {
			continue
		}
		if merged.SiteContent[key] != want {
			t.Errorf("snapshot site content key %q did not survive the merge", key)
		}
	}
	if merged.Projects[0].Specs == nil {
		t.Error("merged project specs must default to an empty slice")
	}
	if merged.Projects[0].OperationalStatus != club.OpActive {
		t.Error("merged project operational status must default to Active")
	}
}

func TestMergeKeepsExplicitlyEmptyCollection(t *testing.T) {
	merged := Merge(club.Snapshot(), &club.Dataset{Pillars: []club.Pillar{}})
	if len(merged.Pillars) != 0 {
		t.Errorf("explicitly empty pillars must stay empty, got %d", len(merged.Pillars))
	}
}

func TestPruneDropsPastKeepsRest(t *testing.T) {
	meetings := []club.Meeting{
		{ID: "1", Date: "2024-06-14"},
		{ID: "2", Date: "2024-06-15"},
		{ID: "3", Date: "2024-06-20"},
		{ID: "4", Date: "not-a-date"},
	}
	got := pruneStaleMeetings(meetings, fixedNow())
	ids := make([]string, len(got))
	for i, m := range got {
		ids[i] = m.ID
	}
	if !reflect.DeepEqual(ids, []string{"2", "3", "4"}) {
		t.Errorf("kept meetings = %v, want [2 3 4]", ids)
	}
}

func TestPruneNeverEmpties(t *testing.T) {
	meetings := []club.Meeting{
		{ID: "1", Date: "2020-01-01"},
		{ID: "2", Date: "2020-02-01"},
	}
	got := pruneStaleMeetings(meetings, fixedNow())
	if !reflect.DeepEqual(got, meetings) {
		t.Errorf("all-past collection must be kept unpruned, got %v", got)
	}
}

func TestUpgradeURLsIdempotent(t *testing.T) {
	d := &club.Dataset{
		Projects:          []club.Project{{ID: "p1", ImageURL: "http://img.example/p.png"}},
		Officers:          []club.Officer{{ID: "o1", ImageURL: "https://img.example/o.png"}},
		Pillars:           []club.Pillar{{ID: "pl1", ImageURL: ""}},
		GoogleCalendarURL: "http://calendar.example/feed",
		DiscordURL:        "not a url",
	}

	UpgradeURLs(d)
	once := d.Clone()
	UpgradeURLs(d)

	if !reflect.DeepEqual(d.Projects, once.Projects) || d.GoogleCalendarURL != once.GoogleCalendarURL {
		t.Error("applying the transform twice must equal applying it once")
	}
	if d.Projects[0].ImageURL != "https://img.example/p.png" {
		t.Errorf("insecure image URL not upgraded: %q", d.Projects[0].ImageURL)
	}
	if d.Officers[0].ImageURL != "https://img.example/o.png" {
		t.Error("already-secure URL must be unchanged")
	}
	if d.Pillars[0].ImageURL != "" || d.DiscordURL != "not a url" {
		t.Error("empty and non-URL values must pass through unchanged")
	}
}

func TestLoadEndToEnd(t *testing.T) {
	remote := stamped("Orbital Glider", "2024-01-01T00:00:00Z")
	remote.Projects[0].ImageURL = "http://img.example/glider.png"

	r := New(&fakeRemote{data: remote}, &fakeCache{entry: nil})
	r.Now = fixedNow

	res := r.Load(context.Background())
	if res.Source != SourceRemote {
		t.Fatalf("source = %q, want remote", res.Source)
	}
	if len(res.Data.Projects) != 3 {
		t.Fatalf("expected 3 projects, got %d", len(res.Data.Projects))
	}
	if res.Data.Projects[0].Title != "Orbital Glider" {
		t.Errorf("remote project content missing: %q", res.Data.Projects[0].Title)
	}
	if res.Data.Projects[0].ImageURL != "https://img.example/glider.png" {
		t.Errorf("remote URL not upgraded: %q", res.Data.Projects[0].ImageURL)
	}
	if res.Data.LastUpdated != "2024-01-01T00:00:00Z" {
		t.Errorf("lastUpdated = %q", res.Data.LastUpdated)
	}
}

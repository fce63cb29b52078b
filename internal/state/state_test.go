package state

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"aviationclub/api/internal/club"
)

type recordingCache struct {
	saves   int
	lastAt  time.Time
	failing bool
}

func (c *recordingCache) Save(ctx context.Context, data *club.Dataset, savedAt time.Time) error {
	if c.failing {
		return errors.New("cache down")
	}
	c.saves++
	c.lastAt = savedAt
	return nil
}

func TestMutationPublishesNewValue(t *testing.T) {
	cache := &recordingCache{}
	store := New(club.Snapshot(), cache)

	var notified *club.Dataset
	store.OnChange(func(d *club.Dataset) { notified = d })

	before := store.Current()
	if err := store.SetSiteContent(context.Background(), "homeHeroTitle", "New Headline"); err != nil {
		t.Fatalf("SetSiteContent failed: %v", err)
	}

	after := store.Current()
	if after == before {
		t.Fatal("mutation must publish a new dataset value")
	}
	if before.SiteContent["homeHeroTitle"] == "New Headline" {
		t.Error("previously published value was mutated in place")
	}
	if after.SiteContent["homeHeroTitle"] != "New Headline" {
		t.Error("published value missing the change")
	}
	if cache.saves != 1 {
		t.Errorf("expected 1 cache write-through, got %d", cache.saves)
	}
	if time.Since(cache.lastAt) > time.Minute {
		t.Errorf("cache timestamp not current: %v", cache.lastAt)
	}
	if notified != after {
		t.Error("observer must receive the published value")
	}
}

func TestFailedMutationPublishesNothing(t *testing.T) {
	cache := &recordingCache{}
	store := New(club.Snapshot(), cache)

	before := store.Current()
	err := store.UpdateField(context.Background(), "starships", "1", "title", "X")
	if !errors.Is(err, club.ErrUnknownCollection) {
		t.Fatalf("expected ErrUnknownCollection, got %v", err)
	}
	if store.Current() != before {
		t.Error("failed mutation must not publish")
	}
	if cache.saves != 0 {
		t.Error("failed mutation must not write through")
	}
}

func TestCacheFailureDoesNotFailMutation(t *testing.T) {
	store := New(club.Snapshot(), &recordingCache{failing: true})
	if err := store.SetDiscordURL(context.Background(), "https://discord.gg/club"); err != nil {
		t.Fatalf("mutation should survive a cache failure: %v", err)
	}
	if store.Current().DiscordURL != "https://discord.gg/club" {
		t.Error("change not published")
	}
}

func TestAppendAndRemove(t *testing.T) {
	store := New(club.Snapshot(), nil)
	ctx := context.Background()

	raw, _ := json.Marshal(map[string]string{"title": "Wind Tunnel", "description": "Desktop test rig"})
	id, err := store.AppendEntity(ctx, club.ColProjects, raw)
	if err != nil {
		t.Fatalf("AppendEntity failed: %v", err)
	}
	projects := store.Current().Projects
	last := projects[len(projects)-1]
	if last.ID != id || last.Title != "Wind Tunnel" {
		t.Errorf("appended project = %+v", last)
	}

	if err := store.RemoveEntity(ctx, club.ColProjects, id); err != nil {
		t.Fatalf("RemoveEntity failed: %v", err)
	}
	for _, p := range store.Current().Projects {
		if p.ID == id {
			t.Error("removed project still present")
		}
	}
}

func TestAppendMeetingsBatch(t *testing.T) {
	store := New(club.Snapshot(), nil)
	start := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	batch, err := club.GenerateMeetings(start, club.Weekly, 3, "Build Night", "18:00", "Room 204")
	if err != nil {
		t.Fatalf("GenerateMeetings failed: %v", err)
	}

	baseline := len(store.Current().Meetings)
	if err := store.AppendMeetings(context.Background(), batch); err != nil {
		t.Fatalf("AppendMeetings failed: %v", err)
	}
	if got := len(store.Current().Meetings); got != baseline+3 {
		t.Errorf("meetings = %d, want %d", got, baseline+3)
	}
}

type lastValueCache struct {
	mu   sync.Mutex
	last *club.Dataset
}

func (c *lastValueCache) Save(ctx context.Context, data *club.Dataset, savedAt time.Time) error {
	c.mu.Lock()
	c.last = data
	c.mu.Unlock()
	return nil
}

func TestConcurrentWriteThroughEndsCurrent(t *testing.T) {
	cache := &lastValueCache{}
	store := New(club.Snapshot(), cache)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			if err := store.SetSiteContent(context.Background(), "homeHeroTitle", strconv.Itoa(n)); err != nil {
				t.Errorf("SetSiteContent failed: %v", err)
			}
		}(i)
	}
	wg.Wait()

	// The cache must hold the last published value, not whichever racing
	// write-through happened to finish last.
	want := store.Current().SiteContent["homeHeroTitle"]
	if got := cache.last.SiteContent["homeHeroTitle"]; got != want {
		t.Errorf("cached value = %q, published value = %q", got, want)
	}
}

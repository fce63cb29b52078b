// Package state holds the published in-memory dataset. All writes go through
// the mutation operations here; each one works on a clone and replaces the
// published value wholesale, so observers can compare serializations to
// detect change. Every successful mutation is mirrored to the local cache
// synchronously, which is what lets an unsynced draft survive a restart.
package state

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"aviationclub/api/internal/club"
)

// CacheWriter is the slice of the cache store the state container writes to.
type CacheWriter interface {
	Save(ctx context.Context, data *club.Dataset, savedAt time.Time) error
}

// Store is the single owner of the dataset after load. The published value is
// never mutated in place.
type Store struct {
	mu       sync.RWMutex
	current  *club.Dataset
	seq      uint64
	cache    CacheWriter
	onChange func(*club.Dataset)
	now      func() time.Time

	// cacheMu orders write-throughs by publish sequence, so the cache never
	// ends up holding an older publish than the last one mirrored.
	cacheMu   sync.Mutex
	cachedSeq uint64
}

// New seeds the store with the reconciled dataset. cacheWriter may be nil.
func New(initial *club.Dataset, cacheWriter CacheWriter) *Store {
	return &Store{current: initial.Clone(), cache: cacheWriter, now: time.Now}
}

// OnChange registers the observer called after every published change.
// Must be set before the store is shared across goroutines.
func (s *Store) OnChange(fn func(*club.Dataset)) {
	s.onChange = fn
}

// Current returns the published dataset. Callers must treat it as read-only;
// mutation goes through the operations below.
func (s *Store) Current() *club.Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// SetSiteContent replaces one key of the site content map.
func (s *Store) SetSiteContent(ctx context.Context, key, value string) error {
	return s.mutate(ctx, func(d *club.Dataset) error {
		d.SetSiteContent(key, value)
		return nil
	})
}

// SetGoogleCalendarURL replaces the calendar link.
func (s *Store) SetGoogleCalendarURL(ctx context.Context, url string) error {
	return s.mutate(ctx, func(d *club.Dataset) error {
		d.GoogleCalendarURL = url
		return nil
	})
}

// SetDiscordURL replaces the Discord invite link.
func (s *Store) SetDiscordURL(ctx context.Context, url string) error {
	return s.mutate(ctx, func(d *club.Dataset) error {
		d.DiscordURL = url
		return nil
	})
}

// UpdateField replaces one field on one entity. A missing id is a no-op.
func (s *Store) UpdateField(ctx context.Context, collection, id, field string, value any) error {
	return s.mutate(ctx, func(d *club.Dataset) error {
		return d.UpdateField(collection, id, field, value)
	})
}

// AppendEntity adds an entity with caller-supplied defaults and a generated
// id, returning the new id.
func (s *Store) AppendEntity(ctx context.Context, collection string, raw json.RawMessage) (string, error) {
	var id string
	err := s.mutate(ctx, func(d *club.Dataset) error {
		var err error
		id, err = d.Append(collection, raw)
		return err
	})
	return id, err
}

// AppendMeetings adds a generated batch of meetings in one published change.
func (s *Store) AppendMeetings(ctx context.Context, meetings []club.Meeting) error {
	return s.mutate(ctx, func(d *club.Dataset) error {
		d.Meetings = append(d.Meetings, meetings...)
		return nil
	})
}

// RemoveEntity deletes an entity from a collection by id.
func (s *Store) RemoveEntity(ctx context.Context, collection, id string) error {
	return s.mutate(ctx, func(d *club.Dataset) error {
		return d.Remove(collection, id)
	})
}

// SwapEntity reorders an entity with its adjacent sibling.
func (s *Store) SwapEntity(ctx context.Context, collection, id string, delta int) error {
	return s.mutate(ctx, func(d *club.Dataset) error {
		return d.Swap(collection, id, delta)
	})
}

// mutate clones the published dataset, applies fn, and on success publishes
// the clone, mirrors it to the cache, and notifies the observer. A cache
// write failure is logged but does not fail the mutation; the in-memory
// value is already published.
func (s *Store) mutate(ctx context.Context, fn func(*club.Dataset) error) error {
	s.mu.Lock()
	next := s.current.Clone()
	if err := fn(next); err != nil {
		s.mu.Unlock()
		return err
	}
	s.current = next
	s.seq++
	seq := s.seq
	s.mu.Unlock()

	if s.cache != nil {
		s.cacheMu.Lock()
		if seq > s.cachedSeq {
			s.cachedSeq = seq
			if err := s.cache.Save(ctx, next, s.now()); err != nil {
				log.Printf("state: cache write-through failed: %v", err)
			}
		}
		s.cacheMu.Unlock()
	}
	if s.onChange != nil {
		s.onChange(next)
	}
	return nil
}

// Package reconcile decides, at load time, which of three candidate datasets
// is authoritative: the bundled snapshot, the local cache, or the remote
// ledger. The freshest candidate wins and is merged onto the snapshot so a
// partial payload never blanks content it did not include.
package reconcile

import (
	"context"
	"log"
	"time"

	"aviationclub/api/internal/cache"
	"aviationclub/api/internal/club"
)

// Source identifies which candidate won reconciliation.
type Source string

const (
	SourceSnapshot Source = "snapshot"
	SourceRemote   Source = "remote"
	SourceLocal    Source = "local"
)

// LedgerReader is the slice of the archive store the reconciler reads from.
type LedgerReader interface {
	ReadLedger(ctx context.Context) (*club.Dataset, string, error)
}

// CacheReader loads the last reconciled dataset from the local cache.
type CacheReader interface {
	Load(ctx context.Context) (*cache.Entry, error)
}

// Result is the published outcome of a load.
type Result struct {
	Data   *club.Dataset
	Source Source
}

// Reconciler merges the three candidate sources. Remote and cache are both
// optional and both fallible; the snapshot always renders.
type Reconciler struct {
	remote LedgerReader
	cache  CacheReader

	// Now supplies the calendar day for the stale-meeting prune.
	Now func() time.Time
}

func New(remote LedgerReader, cacheReader CacheReader) *Reconciler {
	return &Reconciler{remote: remote, cache: cacheReader, Now: time.Now}
}

// Load produces the authoritative dataset. Remote is evaluated for freshness
// before the cache, so a cached copy overrides remote only by carrying a
// strictly newer timestamp. Source failures degrade to the next candidate and
// never prevent publishing.
func (r *Reconciler) Load(ctx context.Context) *Result {
	snapshot := club.Snapshot()
	winner := snapshot
	winnerAt := snapshot.UpdatedAt()
	source := SourceSnapshot

	if r.remote != nil {
		remote, _, err := r.remote.ReadLedger(ctx)
		if err != nil {
			log.Printf("reconcile: remote ledger unavailable: %v", err)
		} else {
			UpgradeURLs(remote)
			if remote.UpdatedAt().After(winnerAt) {
				winner = remote
				winnerAt = remote.UpdatedAt()
				source = SourceRemote
			}
		}
	}

	if r.cache != nil {
		entry, err := r.cache.Load(ctx)
		if err != nil {
			log.Printf("reconcile: local cache unavailable: %v", err)
		} else if entry != nil && entry.SavedAt.After(winnerAt) {
			winner = entry.Data
			source = SourceLocal
		}
	}

	winner.Meetings = pruneStaleMeetings(winner.Meetings, r.Now())
	return &Result{Data: Merge(snapshot, winner), Source: source}
}

// pruneStaleMeetings drops meetings dated strictly before today. The
// comparison is date-only. A meeting whose date does not parse is kept, and
// a prune that would empty a non-empty collection is discarded entirely.
func pruneStaleMeetings(meetings []club.Meeting, now time.Time) []club.Meeting {
	if len(meetings) == 0 {
		return meetings
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	kept := make([]club.Meeting, 0, len(meetings))
	for _, m := range meetings {
		day, err := time.Parse("2006-01-02", m.Date)
		if err != nil || !day.Before(today) {
			kept = append(kept, m)
		}
	}
	if len(kept) == 0 {
		return meetings
	}
	return kept
}

// Package sync pushes admin edits to the remote ledger. Changes are
// debounced; each push reads the ledger's current version token, stamps the
// outgoing dataset, and submits a conditional write. A stale token fails the
// whole push; there is no merge on conflict and no automatic retry.
package sync

import (
	"bytes"
	"context"
	"errors"
	"log"
	stdsync "sync"
	"time"

	"aviationclub/api/internal/archive"
	"aviationclub/api/internal/club"
)

// Status of the engine, surfaced on the admin save indicator.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusUnsaved Status = "unsaved"
	StatusSaving  Status = "saving"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// LedgerStore is the slice of the archive store the engine pushes through.
type LedgerStore interface {
	ReadLedger(ctx context.Context) (*club.Dataset, string, error)
	WriteLedger(ctx context.Context, data *club.Dataset, token string) error
}

// SaveStatus is the externally visible engine state.
type SaveStatus struct {
	State        Status `json:"state"`
	Error        string `json:"error,omitempty"`
	LastSyncedAt string `json:"lastSyncedAt,omitempty"`
}

// Engine observes dataset changes and pushes them upstream. It only ever
// reads the dataset; it never mutates published state.
type Engine struct {
	store  LedgerStore
	source func() *club.Dataset

	debounce    time.Duration
	successHold time.Duration
	now         func() time.Time

	mu           stdsync.Mutex
	status       Status
	errMsg       string
	lastSynced   []byte
	lastSyncedAt time.Time
	timer        *time.Timer
	resetTimer   *time.Timer
	closed       bool
}

// New builds an engine reading the current dataset from source. A zero or
// negative debounce falls back to ten seconds.
func New(store LedgerStore, source func() *club.Dataset, debounce time.Duration) *Engine {
	if debounce <= 0 {
		debounce = 10 * time.Second
	}
	return &Engine{
		store:       store,
		source:      source,
		debounce:    debounce,
		successHold: 3 * time.Second,
		now:         time.Now,
		status:      StatusIdle,
	}
}

// NoteChange records that the dataset changed. The debounce timer is re-armed
// on every call, so a burst of edits results in one push timed from the last
// edit. A change whose serialization equals the last synced payload arms
// nothing.
func (e *Engine) NoteChange(d *club.Dataset) {
	raw, err := club.Encode(d)
	if err != nil {
		e.fail(err)
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	if bytes.Equal(raw, e.lastSynced) {
		if e.timer != nil {
			e.timer.Stop()
			e.timer = nil
		}
		if e.status == StatusUnsaved {
			e.status = StatusIdle
		}
		return
	}
	if e.status != StatusSaving {
		e.status = StatusUnsaved
	}
	if e.timer != nil {
		e.timer.Stop()
	}
	e.timer = time.AfterFunc(e.debounce, func() {
		if err := e.push(context.Background()); err != nil {
			log.Printf("sync: debounced push failed: %v", err)
		}
	})
}

// SaveNow cancels any pending debounce timer and pushes immediately.
func (e *Engine) SaveNow(ctx context.Context) error {
	e.mu.Lock()
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.mu.Unlock()
	return e.push(ctx)
}

// Status reports the engine state for the admin indicator.
func (e *Engine) Status() SaveStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	st := SaveStatus{State: e.status, Error: e.errMsg}
	if !e.lastSyncedAt.IsZero() {
		st.LastSyncedAt = e.lastSyncedAt.UTC().Format(time.RFC3339)
	}
	return st
}

// Close cancels pending timers. An in-flight push is not cancellable and
// completes or fails on its own.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	if e.resetTimer != nil {
		e.resetTimer.Stop()
		e.resetTimer = nil
	}
}

func (e *Engine) push(ctx context.Context) error {
	d := e.source()
	raw, err := club.Encode(d)
	if err != nil {
		e.fail(err)
		return err
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.status = StatusSaving
	e.mu.Unlock()

	_, token, err := e.store.ReadLedger(ctx)
	if err != nil && !errors.Is(err, archive.ErrNotFound) {
		e.fail(err)
		return err
	}

	out := d.Clone()
	out.LastUpdated = e.now().UTC().Format(time.RFC3339)
	if err := e.store.WriteLedger(ctx, out, token); err != nil {
		e.fail(err)
		return err
	}

	e.mu.Lock()
	e.lastSynced = raw
	e.lastSyncedAt = e.now()
	e.status = StatusSuccess
	e.errMsg = ""
	if e.resetTimer != nil {
		e.resetTimer.Stop()
	}
	e.resetTimer = time.AfterFunc(e.successHold, func() {
		e.mu.Lock()
		if e.status == StatusSuccess {
			e.status = StatusIdle
		}
		e.mu.Unlock()
	})
	e.mu.Unlock()
	return nil
}

func (e *Engine) fail(err error) {
	e.mu.Lock()
	e.status = StatusError
	e.errMsg = err.Error()
	e.mu.Unlock()
}

package sync

import (
	"context"
	"errors"
	stdsync "sync"
	"testing"
	"time"

	"aviationclub/api/internal/archive"
	"aviationclub/api/internal/club"
)

type fakeLedger struct {
	mu         stdsync.Mutex
	data       *club.Dataset
	token      string
	writes     int
	lastWrite  time.Time
	alwaysFail error
}

func (f *fakeLedger) ReadLedger(ctx context.Context) (*club.Dataset, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.data == nil {
		return nil, "", archive.ErrNotFound
	}
	return f.data.Clone(), f.token, nil
}

func (f *fakeLedger) WriteLedger(ctx context.Context, data *club.Dataset, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.alwaysFail != nil {
		return f.alwaysFail
	}
	if f.data != nil && token != f.token {
		return archive.ErrConflict
	}
	f.data = data.Clone()
	f.token += "x"
	f.writes++
	f.lastWrite = time.Now()
	return nil
}

func (f *fakeLedger) writeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writes
}

// mutableSource publishes clone-and-replace snapshots the way the state
// container does.
type mutableSource struct {
	mu stdsync.Mutex
	d  *club.Dataset
}

func newMutableSource() *mutableSource {
	return &mutableSource{d: club.Snapshot()}
}

func (s *mutableSource) current() *club.Dataset {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d
}

func (s *mutableSource) edit(title string) *club.Dataset {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.d.Clone()
	next.Projects[0].Title = title
	s.d = next
	return next
}

func TestDebounceCoalescesBurst(t *testing.T) {
	ledger := &fakeLedger{}
	source := newMutableSource()
	e := New(ledger, source.current, 150*time.Millisecond)
	defer e.Close()

	start := time.Now()
	e.NoteChange(source.edit("one"))
	time.Sleep(50 * time.Millisecond)
	e.NoteChange(source.edit("two"))
	time.Sleep(50 * time.Millisecond)
	lastChange := time.Now()
	e.NoteChange(source.edit("three"))

	// The timer re-arms on each change, so nothing fires until 150ms after
	// the last one.
	time.Sleep(170 * time.Millisecond)
	if got := ledger.writeCount(); got != 1 {
		t.Fatalf("expected exactly 1 push for the burst, got %d", got)
	}

	ledger.mu.Lock()
	at := ledger.lastWrite
	ledger.mu.Unlock()
	if at.Sub(lastChange) < 140*time.Millisecond {
		t.Errorf("push fired %v after the last change; debounce must time from the last change, not the first (start %v ago)",
			at.Sub(lastChange), at.Sub(start))
	}
	if ledger.data.Projects[0].Title != "three" {
		t.Errorf("pushed dataset = %q, want the latest edit", ledger.data.Projects[0].Title)
	}
}

func TestSaveNowBypassesDebounce(t *testing.T) {
	ledger := &fakeLedger{}
	source := newMutableSource()
	e := New(ledger, source.current, time.Hour)
	defer e.Close()

	e.NoteChange(source.edit("draft"))
	if err := e.SaveNow(context.Background()); err != nil {
		t.Fatalf("SaveNow failed: %v", err)
	}
	if ledger.writeCount() != 1 {
		t.Fatalf("expected immediate push, got %d writes", ledger.writeCount())
	}
	if st := e.Status(); st.State != StatusSuccess {
		t.Errorf("state = %q, want success", st.State)
	}
	if ledger.data.UpdatedAt().IsZero() {
		t.Error("push must stamp lastUpdated")
	}
	if source.current().LastUpdated != "" {
		t.Error("push must not mutate the published dataset")
	}
}

func TestConflictSurfacesAsError(t *testing.T) {
	ledger := &fakeLedger{data: club.Snapshot(), token: "remote-token"}
	// Another writer moves the token between our read and write.
	ledger.alwaysFail = archive.ErrConflict

	source := newMutableSource()
	e := New(ledger, source.current, time.Hour)
	defer e.Close()

	before := source.edit("local edit")
	e.NoteChange(before)
	err := e.SaveNow(context.Background())
	if !errors.Is(err, archive.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if st := e.Status(); st.State != StatusError || st.Error == "" {
		t.Errorf("status = %+v, want error state with message", st)
	}
	if source.current() != before {
		t.Error("failed push must leave the published dataset untouched")
	}
	if ledger.writeCount() != 0 {
		t.Error("conflicting push must not record a write")
	}
}

func TestSuccessRevertsToIdle(t *testing.T) {
	ledger := &fakeLedger{}
	source := newMutableSource()
	e := New(ledger, source.current, time.Hour)
	e.successHold = 30 * time.Millisecond
	defer e.Close()

	e.NoteChange(source.edit("draft"))
	if err := e.SaveNow(context.Background()); err != nil {
		t.Fatalf("SaveNow failed: %v", err)
	}
	time.Sleep(60 * time.Millisecond)
	if st := e.Status(); st.State != StatusIdle {
		t.Errorf("state = %q, want idle after the success hold", st.State)
	}
	if st := e.Status(); st.LastSyncedAt == "" {
		t.Error("last synced time should be recorded")
	}
}

func TestUnchangedDatasetArmsNothing(t *testing.T) {
	ledger := &fakeLedger{}
	source := newMutableSource()
	e := New(ledger, source.current, 30*time.Millisecond)
	defer e.Close()

	e.NoteChange(source.edit("draft"))
	if err := e.SaveNow(context.Background()); err != nil {
		t.Fatalf("SaveNow failed: %v", err)
	}

	// Re-announcing the already-synced value must not arm a push.
	e.NoteChange(source.current())
	time.Sleep(60 * time.Millisecond)
	if got := ledger.writeCount(); got != 1 {
		t.Errorf("expected no second push, got %d writes", got)
	}
}

func TestErrorClearsOnNextSuccessfulSave(t *testing.T) {
	ledger := &fakeLedger{}
	failure := errors.New("network down")
	ledger.alwaysFail = failure

	source := newMutableSource()
	e := New(ledger, source.current, time.Hour)
	defer e.Close()

	e.NoteChange(source.edit("draft"))
	if err := e.SaveNow(context.Background()); !errors.Is(err, failure) {
		t.Fatalf("expected push failure, got %v", err)
	}
	if e.Status().State != StatusError {
		t.Fatal("expected error state")
	}

	ledger.mu.Lock()
	ledger.alwaysFail = nil
	ledger.mu.Unlock()
	if err := e.SaveNow(context.Background()); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if st := e.Status(); st.State != StatusSuccess || st.Error != "" {
		t.Errorf("status = %+v, want clean success", st)
	}
}

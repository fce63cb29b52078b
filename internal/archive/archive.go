// Package archive talks to the club's archive repository: the remote store
// holding the ledger document and the per-project update logs. Two backends
// implement the same contract, a GitHub contents API client and a local
// git-directory store for development and offline use.
package archive

import (
	"context"
	"time"

	"aviationclub/api/internal/club"
)

const (
	// LedgerPath is the single JSON document holding the site dataset.
	LedgerPath = "metadata.json"

	// ProjectsBasePath is the folder holding per-project update logs.
	ProjectsBasePath = "projects"

	descFileName    = "desc.txt"
	mediaFolderName = "media"
	keepFileName    = ".gitkeep"
)

// Store is the remote store contract. The version token is host-assigned
// and required for conditional writes; a stale token fails the whole write
// (ErrConflict) rather than merging.
type Store interface {
	// ReadLedger returns the parsed ledger and its version token.
	ReadLedger(ctx context.Context) (*club.Dataset, string, error)

	// WriteLedger replaces the ledger. An empty token creates the document;
	// otherwise the write is conditional on the token still being current.
	WriteLedger(ctx context.Context, data *club.Dataset, token string) error

	// EnsureProjectFolders creates any missing placeholder files under the
	// project's archive path. Each creation is an independent write; partial
	// completion on error is possible and surfaced as an overall failure.
	EnsureProjectFolders(ctx context.Context, projectTitle string) error

	// ListProjectUpdates lists the dated update folders under a project's
	// path, newest first, including each update's description and media.
	ListProjectUpdates(ctx context.Context, projectTitle string) ([]ProjectUpdate, error)
}

// MediaFile is one image or video attached to an update.
type MediaFile struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// ProjectUpdate is one dated entry in a project's update log.
type ProjectUpdate struct {
	Date        time.Time   `json:"date"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Media       []MediaFile `json:"media"`
}

// EnsureAll runs EnsureProjectFolders for every project, sequentially to
// stay inside the host's rate limits, and reports partial success as a
// succeeded count out of the total.
func EnsureAll(ctx context.Context, store Store, projects []club.Project) (succeeded, total int) {
	total = len(projects)
	for _, p := range projects {
		if err := store.EnsureProjectFolders(ctx, p.Title); err != nil {
			continue
		}
		succeeded++
	}
	return succeeded, total
}

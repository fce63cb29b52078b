// Package app wires the reconciler, state container, sync engine, archive
// store, and search behind the HTTP surface.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"aviationclub/api/internal/adminauth"
	"aviationclub/api/internal/archive"
	"aviationclub/api/internal/cache"
	"aviationclub/api/internal/club"
	"aviationclub/api/internal/config"
	"aviationclub/api/internal/media"
	"aviationclub/api/internal/reconcile"
	"aviationclub/api/internal/search"
	"aviationclub/api/internal/state"
	clubsync "aviationclub/api/internal/sync"
)

// Service owns the application wiring. Bootstrap must run before the HTTP
// surface serves requests.
type Service struct {
	cfg     config.Config
	cache   *cache.Store
	archive archive.Store
	auth    *adminauth.Service
	search  *search.Service
	media   *media.Service

	state  *state.Store
	engine *clubsync.Engine
	source reconcile.Source
}

// New assembles a service. cacheStore, authSvc, searchSvc, and mediaSvc may
// each be nil when the corresponding backend is not configured.
func New(cfg config.Config, cacheStore *cache.Store, archiveStore archive.Store, authSvc *adminauth.Service, searchSvc *search.Service, mediaSvc *media.Service) *Service {
	return &Service{
		cfg:     cfg,
		cache:   cacheStore,
		archive: archiveStore,
		auth:    authSvc,
		search:  searchSvc,
		media:   mediaSvc,
	}
}

// Bootstrap reconciles the three candidate sources, publishes the winner,
// and starts the sync engine. Source failures never block startup; the
// snapshot always renders.
func (s *Service) Bootstrap(ctx context.Context) error {
	var remote reconcile.LedgerReader
	if s.archive != nil {
		remote = s.archive
	}
	var cacheReader reconcile.CacheReader
	var cacheWriter state.CacheWriter
	if s.cache != nil {
		cacheReader = s.cache
		cacheWriter = s.cache
	}

	res := reconcile.New(remote, cacheReader).Load(ctx)
	s.source = res.Source
	log.Printf("app: reconciled dataset from %s source", res.Source)

	s.state = state.New(res.Data, cacheWriter)
	s.engine = clubsync.New(s.archive, s.state.Current, s.cfg.SyncDebounce)
	s.state.OnChange(func(d *club.Dataset) {
		s.engine.NoteChange(d)
		if s.search != nil {
			s.search.Reindex(d)
		}
	})

	// Mirror the reconciled result so a later load prefers it over a
	// stale remote.
	if s.cache != nil {
		if err := s.cache.Save(ctx, res.Data, time.Now()); err != nil {
			log.Printf("app: initial cache write failed: %v", err)
		}
	}
	if s.search != nil {
		s.search.Reindex(res.Data)
	}
	return nil
}

// ConfigureSearch attaches the search service. Safe to call after Bootstrap;
// the change observer picks it up on the next mutation.
func (s *Service) ConfigureSearch(svc *search.Service) {
	s.search = svc
	if s.state != nil {
		svc.Reindex(s.state.Current())
	}
}

// Close stops the sync engine's timers.
func (s *Service) Close() {
	if s.engine != nil {
		s.engine.Close()
	}
}

// Dataset returns the published dataset. Read-only.
func (s *Service) Dataset() *club.Dataset {
	return s.state.Current()
}

// Source reports which candidate won reconciliation at startup.
func (s *Service) Source() reconcile.Source {
	return s.source
}

// Ping checks cache connectivity for the readiness probe.
func (s *Service) Ping(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Ping(ctx)
}

// Login verifies the shared passphrase and returns a session token.
func (s *Service) Login(passphrase string) (string, error) {
	if s.auth == nil {
		return "", domainError(503, "AUTH_DISABLED", "Admin login is not configured", nil)
	}
	token, err := s.auth.Login(passphrase)
	if err != nil {
		return "", domainError(401, "UNAUTHORIZED", "Invalid passphrase", nil)
	}
	return token, nil
}

// Authorize validates an admin session token.
func (s *Service) Authorize(token string) error {
	if s.auth == nil {
		return domainError(503, "AUTH_DISABLED", "Admin login is not configured", nil)
	}
	if token == "" {
		return domainError(401, "UNAUTHORIZED", "Missing session token", nil)
	}
	if err := s.auth.Verify(token); err != nil {
		return domainError(401, "UNAUTHORIZED", "Invalid session token", nil)
	}
	return nil
}

func (s *Service) SetSiteContent(ctx context.Context, key, value string) error {
	if key == "" {
		return domainError(422, "VALIDATION_ERROR", "key is required", nil)
	}
	return s.state.SetSiteContent(ctx, key, value)
}

// SetLinks updates the two top-level URL fields; nil leaves a field alone.
func (s *Service) SetLinks(ctx context.Context, calendarURL, discordURL *string) error {
	if calendarURL != nil {
		if err := s.state.SetGoogleCalendarURL(ctx, *calendarURL); err != nil {
			return err
		}
	}
	if discordURL != nil {
		if err := s.state.SetDiscordURL(ctx, *discordURL); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) UpdateField(ctx context.Context, collection, id, field string, value any) error {
	return s.state.UpdateField(ctx, collection, id, field, value)
}

func (s *Service) AppendEntity(ctx context.Context, collection string, raw []byte) (string, error) {
	return s.state.AppendEntity(ctx, collection, raw)
}

func (s *Service) RemoveEntity(ctx context.Context, collection, id string) error {
	if err := s.state.RemoveEntity(ctx, collection, id); err != nil {
		return err
	}
	if s.search != nil {
		switch collection {
		case club.ColProjects:
			s.search.Remove(search.ResultProject, id)
		case club.ColMeetings:
			s.search.Remove(search.ResultMeeting, id)
		}
	}
	return nil
}

func (s *Service) SwapEntity(ctx context.Context, collection, id string, delta int) error {
	return s.state.SwapEntity(ctx, collection, id, delta)
}

// GenerateRecurringMeetings creates a batch of meetings and appends it in one
// published change. Returns how many were created.
func (s *Service) GenerateRecurringMeetings(ctx context.Context, startDate string, cadence string, count int, title, meetingTime, location string) (int, error) {
	start, err := time.Parse("2006-01-02", startDate)
	if err != nil {
		return 0, domainError(422, "VALIDATION_ERROR", fmt.Sprintf("startDate %q is not a valid date", startDate), nil)
	}
	batch, err := club.GenerateMeetings(start, club.Cadence(cadence), count, title, meetingTime, location)
	if err != nil {
		return 0, domainError(422, "VALIDATION_ERROR", err.Error(), nil)
	}
	if err := s.state.AppendMeetings(ctx, batch); err != nil {
		return 0, err
	}
	return len(batch), nil
}

// SaveNow pushes the current dataset immediately, bypassing the debounce.
func (s *Service) SaveNow(ctx context.Context) error {
	return s.engine.SaveNow(ctx)
}

// SaveStatus reports the sync engine state for the admin indicator.
func (s *Service) SaveStatus() clubsync.SaveStatus {
	return s.engine.Status()
}

// EnsureProjectArchive initializes the archive folders for one project.
func (s *Service) EnsureProjectArchive(ctx context.Context, projectID string) error {
	p, ok := s.findProject(projectID)
	if !ok {
		return domainError(404, "NOT_FOUND", "Project not found", nil)
	}
	return s.archive.EnsureProjectFolders(ctx, p.Title)
}

// EnsureAllArchives initializes folders for every project, sequentially, and
// reports partial success as a fraction.
func (s *Service) EnsureAllArchives(ctx context.Context) (succeeded, total int) {
	return archive.EnsureAll(ctx, s.archive, s.state.Current().Projects)
}

// ProjectUpdates lists a project's dated update log from the archive.
func (s *Service) ProjectUpdates(ctx context.Context, projectID string) ([]archive.ProjectUpdate, error) {
	p, ok := s.findProject(projectID)
	if !ok {
		return nil, domainError(404, "NOT_FOUND", "Project not found", nil)
	}
	updates, err := s.archive.ListProjectUpdates(ctx, p.Title)
	if err != nil {
		if errors.Is(err, archive.ErrNotFound) {
			return []archive.ProjectUpdate{}, nil
		}
		return nil, err
	}
	return updates, nil
}

// SearchContent runs a site-wide search.
func (s *Service) SearchContent(q search.Query) search.Response {
	if s.search == nil {
		return search.Response{Results: []search.Result{}, Query: q.Text}
	}
	return s.search.Search(q)
}

// UploadMedia stores a media file and returns its public URL.
func (s *Service) UploadMedia(ctx context.Context, name string, r io.Reader, size int64, contentType string) (string, error) {
	if s.media == nil {
		return "", domainError(503, "MEDIA_DISABLED", "Media uploads are not configured", nil)
	}
	url, err := s.media.Upload(ctx, name, r, size, contentType)
	if err != nil {
		return "", domainError(422, "VALIDATION_ERROR", err.Error(), nil)
	}
	return url, nil
}

func (s *Service) findProject(id string) (club.Project, bool) {
	for _, p := range s.state.Current().Projects {
		if p.ID == id {
			return p, true
		}
	}
	return club.Project{}, false
}

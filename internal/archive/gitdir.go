package archive

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
	"unicode/utf8"

	"aviationclub/api/internal/club"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// GitDir implements Store against a local git working directory. It mirrors
// the hosted contract closely enough for development and offline use: the
// ledger file's git blob hash is the version token, so a conditional write
// against a stale token fails with ErrConflict exactly like the hosted API.
type GitDir struct {
	dir string
	mu  sync.Mutex
}

// NewGitDir opens or initializes a git repository at dir.
func NewGitDir(dir string) (*GitDir, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create archive dir: %w", err)
	}
	if _, err := git.PlainOpen(dir); err != nil {
		if !errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, fmt.Errorf("open archive repo: %w", err)
		}
		if _, err := git.PlainInit(dir, false); err != nil {
			return nil, fmt.Errorf("init archive repo: %w", err)
		}
	}
	return &GitDir{dir: dir}, nil
}

func (g *GitDir) ReadLedger(ctx context.Context) (*club.Dataset, string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	raw, err := os.ReadFile(filepath.Join(g.dir, LedgerPath))
	if errors.Is(err, os.ErrNotExist) {
		return nil, "", ErrNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("read ledger: %w", err)
	}
	data, err := club.Decode(raw)
	if err != nil {
		return nil, "", err
	}
	return data, blobToken(raw), nil
}

func (g *GitDir) WriteLedger(ctx context.Context, data *club.Dataset, token string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	payload, err := club.Encode(data)
	if err != nil {
		return err
	}
	if !utf8.Valid(payload) {
		return fmt.Errorf("%w: ledger is not valid UTF-8", ErrEncoding)
	}

	current, err := os.ReadFile(filepath.Join(g.dir, LedgerPath))
	switch {
	case errors.Is(err, os.ErrNotExist):
		if token != "" {
			// A conditional write against a path that no longer exists is a
			// distinct failure from a stale token.
			return ErrNotFound
		}
	case err != nil:
		return fmt.Errorf("read current ledger: %w", err)
	default:
		if token != blobToken(current) {
			return ErrConflict
		}
	}

	if err := os.WriteFile(filepath.Join(g.dir, LedgerPath), payload, 0o644); err != nil {
		return fmt.Errorf("write ledger: %w", err)
	}
	return g.commit("Update site metadata", LedgerPath)
}

func (g *GitDir) EnsureProjectFolders(ctx context.Context, projectTitle string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	base := filepath.Join(g.dir, ProjectsBasePath, Slug(projectTitle))
	placeholders := []string{
		filepath.Join(base, keepFileName),
		filepath.Join(base, mediaFolderName, keepFileName),
	}
	created := make([]string, 0, len(placeholders))
	for _, p := range placeholders {
		if _, err := os.Stat(p); err == nil {
			continue
		} else if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("stat %s: %w", p, err)
		}
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return fmt.Errorf("create folder for %s: %w", p, err)
		}
		if err := os.WriteFile(p, []byte{}, 0o644); err != nil {
			return fmt.Errorf("create %s: %w", p, err)
		}
		rel, err := filepath.Rel(g.dir, p)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", p, err)
		}
		created = append(created, filepath.ToSlash(rel))
	}
	if len(created) == 0 {
		return nil
	}
	return g.commit(fmt.Sprintf("Initialize archive folder for %s", projectTitle), created...)
}

func (g *GitDir) ListProjectUpdates(ctx context.Context, projectTitle string) ([]ProjectUpdate, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	base := filepath.Join(g.dir, ProjectsBasePath, Slug(projectTitle))
	entries, err := os.ReadDir(base)
	if errors.Is(err, os.ErrNotExist) {
		return []ProjectUpdate{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list project folder: %w", err)
	}

	updates := make([]ProjectUpdate, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() || entry.Name() == mediaFolderName {
			continue
		}
		date, title := parseUpdateDir(entry.Name())
		update := ProjectUpdate{Date: date, Title: title, Media: []MediaFile{}}

		updateDir := filepath.Join(base, entry.Name())
		files, err := os.ReadDir(updateDir)
		if err != nil {
			return nil, fmt.Errorf("list update %s: %w", entry.Name(), err)
		}
		for _, f := range files {
			if f.IsDir() {
				continue
			}
			if f.Name() == descFileName {
				desc, err := os.ReadFile(filepath.Join(updateDir, descFileName))
				if err != nil {
					return nil, fmt.Errorf("read %s/%s: %w", entry.Name(), descFileName, err)
				}
				update.Description = string(desc)
				continue
			}
			if IsMediaFile(f.Name()) {
				rel, _ := filepath.Rel(g.dir, filepath.Join(updateDir, f.Name()))
				update.Media = append(update.Media, MediaFile{
					Name: f.Name(),
					URL:  filepath.ToSlash(rel),
				})
			}
		}
		updates = append(updates, update)
	}
	sortUpdates(updates)
	return updates, nil
}

func (g *GitDir) commit(message string, paths ...string) error {
	repo, err := git.PlainOpen(g.dir)
	if err != nil {
		return fmt.Errorf("open archive repo: %w", err)
	}
	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("open worktree: %w", err)
	}
	for _, p := range paths {
		if _, err := worktree.Add(p); err != nil {
			return fmt.Errorf("git add %s: %w", p, err)
		}
	}
	_, err = worktree.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  "Aviation Club Site",
			Email: "site@aviationclub.local",
			When:  time.Now(),
		},
	})
	if err != nil {
		return fmt.Errorf("commit archive change: %w", err)
	}
	return nil
}

// blobToken computes the git blob hash of a file's content, matching the
// sha the hosted contents API reports for the same bytes.
func blobToken(content []byte) string {
	return plumbing.ComputeHash(plumbing.BlobObject, content).String()
}

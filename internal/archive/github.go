package archive

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"aviationclub/api/internal/club"
)

const defaultGitHubBase = "https://api.github.com"

// GitHub implements Store against the GitHub repository contents API.
// File reads return the content plus its blob sha, which doubles as the
// optimistic-concurrency version token on writes.
type GitHub struct {
	// BaseURL is overridable for tests.
	BaseURL string

	repo   string
	branch string
	token  string
	httpc  *http.Client
}

// NewGitHub creates a client for the given "owner/name" repository. The
// token may be empty for read-only access to public repositories.
func NewGitHub(repo, branch, token string) *GitHub {
	return &GitHub{
		BaseURL: defaultGitHubBase,
		repo:    repo,
		branch:  branch,
		token:   token,
		httpc:   &http.Client{Timeout: 30 * time.Second},
	}
}

func (g *GitHub) ReadLedger(ctx context.Context) (*club.Dataset, string, error) {
	file, err := g.getFile(ctx, LedgerPath)
	if err != nil {
		return nil, "", err
	}
	raw, err := decodeContent(file.Content)
	if err != nil {
		return nil, "", fmt.Errorf("decode ledger content: %w", err)
	}
	data, err := club.Decode(raw)
	if err != nil {
		return nil, "", err
	}
	return data, file.SHA, nil
}

func (g *GitHub) WriteLedger(ctx context.Context, data *club.Dataset, token string) error {
	payload, err := club.Encode(data)
	if err != nil {
		return err
	}
	return g.putText(ctx, LedgerPath, "Update site metadata", payload, token)
}

func (g *GitHub) EnsureProjectFolders(ctx context.Context, projectTitle string) error {
	base := ProjectsBasePath + "/" + Slug(projectTitle)
	placeholders := []string{
		base + "/" + keepFileName,
		base + "/" + mediaFolderName + "/" + keepFileName,
	}
	for _, p := range placeholders {
		_, err := g.getFile(ctx, p)
		if err == nil {
			continue
		}
		if err != ErrNotFound {
			return fmt.Errorf("check %s: %w", p, err)
		}
		message := fmt.Sprintf("Initialize archive folder for %s", projectTitle)
		if err := g.putText(ctx, p, message, []byte{}, ""); err != nil {
			return fmt.Errorf("create %s: %w", p, err)
		}
	}
	return nil
}

func (g *GitHub) ListProjectUpdates(ctx context.Context, projectTitle string) ([]ProjectUpdate, error) {
	base := ProjectsBasePath + "/" + Slug(projectTitle)
	entries, err := g.listDir(ctx, base)
	if err == ErrNotFound {
		return []ProjectUpdate{}, nil
	}
	if err != nil {
		return nil, err
	}

	updates := make([]ProjectUpdate, 0, len(entries))
	for _, entry := range entries {
		if entry.Type != "dir" || entry.Name == mediaFolderName {
			continue
		}
		date, title := parseUpdateDir(entry.Name)
		update := ProjectUpdate{Date: date, Title: title, Media: []MediaFile{}}

		files, err := g.listDir(ctx, base+"/"+entry.Name)
		if err != nil && err != ErrNotFound {
			return nil, fmt.Errorf("list update %s: %w", entry.Name, err)
		}
		for _, f := range files {
			if f.Type != "file" {
				continue
			}
			if f.Name == descFileName {
				desc, err := g.fetchText(ctx, f.DownloadURL)
				if err != nil {
					return nil, fmt.Errorf("fetch %s/%s: %w", entry.Name, descFileName, err)
				}
				update.Description = desc
				continue
			}
			if IsMediaFile(f.Name) {
				update.Media = append(update.Media, MediaFile{Name: f.Name, URL: f.DownloadURL})
			}
		}
		updates = append(updates, update)
	}
	sortUpdates(updates)
	return updates, nil
}

type contentsEntry struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	SHA         string `json:"sha"`
	Type        string `json:"type"`
	Content     string `json:"content"`
	DownloadURL string `json:"download_url"`
}

func (g *GitHub) contentsURL(path string) string {
	return g.BaseURL + "/repos/" + g.repo + "/contents/" + path + "?ref=" + url.QueryEscape(g.branch)
}

func (g *GitHub) getFile(ctx context.Context, path string) (contentsEntry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.contentsURL(path), nil)
	if err != nil {
		return contentsEntry{}, fmt.Errorf("build request: %w", err)
	}
	g.setHeaders(req)

	resp, err := g.httpc.Do(req)
	if err != nil {
		return contentsEntry{}, fmt.Errorf("get %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return contentsEntry{}, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return contentsEntry{}, fmt.Errorf("get %s: unexpected status %d", path, resp.StatusCode)
	}

	var entry contentsEntry
	if err := json.NewDecoder(resp.Body).Decode(&entry); err != nil {
		return contentsEntry{}, fmt.Errorf("decode response for %s: %w", path, err)
	}
	return entry, nil
}

func (g *GitHub) listDir(ctx context.Context, path string) ([]contentsEntry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.contentsURL(path), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	g.setHeaders(req)

	resp, err := g.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list %s: unexpected status %d", path, resp.StatusCode)
	}

	var entries []contentsEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode listing for %s: %w", path, err)
	}
	return entries, nil
}

// putText creates or updates a text file. The payload must be valid UTF-8:
// it travels as base64 of UTF-8 bytes, and anything else is an ErrEncoding,
// not a silent truncation. A non-empty sha makes the write conditional.
func (g *GitHub) putText(ctx context.Context, path, message string, content []byte, sha string) error {
	if !utf8.Valid(content) {
		return fmt.Errorf("%w: %s is not valid UTF-8", ErrEncoding, path)
	}

	body := map[string]any{
		"message": message,
		"content": base64.StdEncoding.EncodeToString(content),
		"branch":  g.branch,
	}
	if sha != "" {
		body["sha"] = sha
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEncoding, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, g.contentsURL(path), bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	g.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("put %s: %w", path, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		return nil
	case http.StatusConflict, http.StatusUnprocessableEntity:
		// Stale version token: something else wrote since it was read.
		return ErrConflict
	case http.StatusNotFound:
		return ErrNotFound
	default:
		return fmt.Errorf("put %s: unexpected status %d", path, resp.StatusCode)
	}
}

func (g *GitHub) fetchText(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}

	resp, err := g.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch %s: unexpected status %d", rawURL, resp.StatusCode)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", rawURL, err)
	}
	return string(raw), nil
}

func (g *GitHub) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/vnd.github+json")
	if g.token != "" {
		req.Header.Set("Authorization", "Bearer "+g.token)
	}
}

func decodeContent(content string) ([]byte, error) {
	cleaned := strings.ReplaceAll(content, "\n", "")
	return base64.StdEncoding.DecodeString(cleaned)
}

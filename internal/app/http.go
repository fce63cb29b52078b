package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"aviationclub/api/internal/archive"
	"aviationclub/api/internal/club"
	"aviationclub/api/internal/search"
)

type HTTPServer struct {
	service    *Service
	corsOrigin string
}

func NewHTTPServer(service *Service, corsOrigin string) *HTTPServer {
	return &HTTPServer{service: service, corsOrigin: corsOrigin}
}

func (s *HTTPServer) Handler() http.Handler {
	return s.withMiddleware(http.HandlerFunc(s.handle))
}

func (s *HTTPServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/health" {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/ready" {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		status := "ready"
		statusCode := http.StatusOK
		checks := map[string]any{
			"cache": map[string]any{"status": "ok"},
		}
		if err := s.service.Ping(ctx); err != nil {
			status = "not_ready"
			statusCode = http.StatusServiceUnavailable
			checks["cache"] = map[string]any{"status": "error", "error": err.Error()}
		}
		writeJSON(w, statusCode, map[string]any{
			"ok":     status == "ready",
			"status": status,
			"checks": checks,
		})
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/data" {
		writeJSON(w, http.StatusOK, map[string]any{
			"data":   s.service.Dataset(),
			"source": s.service.Source(),
		})
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/search" {
		q := search.Query{
			Text:       r.URL.Query().Get("q"),
			FilterType: search.ResultType(r.URL.Query().Get("type")),
		}
		if v := r.URL.Query().Get("limit"); v != "" {
			q.Limit, _ = strconv.Atoi(v)
		}
		if v := r.URL.Query().Get("offset"); v != "" {
			q.Offset, _ = strconv.Atoi(v)
		}
		writeJSON(w, http.StatusOK, s.service.SearchContent(q))
		return
	}

	parts := splitPath(r.URL.Path)

	// GET /api/projects/{id}/updates
	if r.Method == http.MethodGet && len(parts) == 4 && parts[0] == "api" && parts[1] == "projects" && parts[3] == "updates" {
		updates, err := s.service.ProjectUpdates(r.Context(), parts[2])
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"updates": updates})
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/admin/login" {
		var body struct {
			Passphrase string `json:"passphrase"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		token, err := s.service.Login(body.Passphrase)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"token": token})
		return
	}

	// Everything below /api/admin/ requires a session token.
	if len(parts) >= 2 && parts[0] == "api" && parts[1] == "admin" {
		if err := s.service.Authorize(bearerToken(r)); err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		s.handleAdmin(w, r, parts[2:])
		return
	}

	writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
}

func (s *HTTPServer) handleAdmin(w http.ResponseWriter, r *http.Request, parts []string) {
	switch {
	case r.Method == http.MethodPut && len(parts) == 1 && parts[0] == "content":
		var body struct {
			Key   string `json:"key"`
			Value string `json:"value"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		s.respond(w, s.service.SetSiteContent(r.Context(), body.Key, body.Value))

	case r.Method == http.MethodPut && len(parts) == 1 && parts[0] == "settings":
		var body struct {
			GoogleCalendarURL *string `json:"googleCalendarUrl"`
			DiscordURL        *string `json:"discordUrl"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		s.respond(w, s.service.SetLinks(r.Context(), body.GoogleCalendarURL, body.DiscordURL))

	// POST /api/admin/collections/{collection}
	case r.Method == http.MethodPost && len(parts) == 2 && parts[0] == "collections":
		raw, err := rawBody(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		id, err := s.service.AppendEntity(r.Context(), parts[1], raw)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"id": id})

	// PUT /api/admin/collections/{collection}/{id}
	case r.Method == http.MethodPut && len(parts) == 3 && parts[0] == "collections":
		var body struct {
			Field string          `json:"field"`
			Value json.RawMessage `json:"value"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		value, err := decodeFieldValue(body.Field, body.Value)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error(), nil)
			return
		}
		s.respond(w, s.service.UpdateField(r.Context(), parts[1], parts[2], body.Field, value))

	// DELETE /api/admin/collections/{collection}/{id}
	case r.Method == http.MethodDelete && len(parts) == 3 && parts[0] == "collections":
		s.respond(w, s.service.RemoveEntity(r.Context(), parts[1], parts[2]))

	// POST /api/admin/collections/{collection}/{id}/swap
	case r.Method == http.MethodPost && len(parts) == 4 && parts[0] == "collections" && parts[3] == "swap":
		var body struct {
			Delta int `json:"delta"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		s.respond(w, s.service.SwapEntity(r.Context(), parts[1], parts[2], body.Delta))

	case r.Method == http.MethodPost && len(parts) == 2 && parts[0] == "meetings" && parts[1] == "recurring":
		var body struct {
			StartDate string `json:"startDate"`
			Cadence   string `json:"cadence"`
			Count     int    `json:"count"`
			Title     string `json:"title"`
			Time      string `json:"time"`
			Location  string `json:"location"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		created, err := s.service.GenerateRecurringMeetings(r.Context(), body.StartDate, body.Cadence, body.Count, body.Title, body.Time, body.Location)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"created": created})

	case r.Method == http.MethodPost && len(parts) == 1 && parts[0] == "save":
		if err := s.service.SaveNow(r.Context()); err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, s.service.SaveStatus())

	case r.Method == http.MethodGet && len(parts) == 1 && parts[0] == "save-status":
		writeJSON(w, http.StatusOK, s.service.SaveStatus())

	case r.Method == http.MethodPost && len(parts) == 2 && parts[0] == "archive" && parts[1] == "ensure":
		succeeded, total := s.service.EnsureAllArchives(r.Context())
		writeJSON(w, http.StatusOK, map[string]any{"succeeded": succeeded, "total": total})

	// POST /api/admin/archive/ensure/{projectID}
	case r.Method == http.MethodPost && len(parts) == 3 && parts[0] == "archive" && parts[1] == "ensure":
		s.respond(w, s.service.EnsureProjectArchive(r.Context(), parts[2]))

	case r.Method == http.MethodPost && len(parts) == 1 && parts[0] == "media":
		s.handleMediaUpload(w, r)

	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	}
}

func (s *HTTPServer) handleMediaUpload(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "multipart field \"file\" is required", nil)
		return
	}
	defer file.Close()

	url, err := s.service.UploadMedia(r.Context(), header.Filename, file, header.Size, header.Header.Get("Content-Type"))
	if err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"url": url})
}

// respond writes {"ok":true} or maps the error.
func (s *HTTPServer) respond(w http.ResponseWriter, err error) {
	if err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// decodeFieldValue turns a raw JSON field value into what the mutation layer
// expects: a spec list for the project "specs" field, a string otherwise.
func decodeFieldValue(field string, raw json.RawMessage) (any, error) {
	if field == "" {
		return nil, fmt.Errorf("field is required")
	}
	if field == "specs" {
		var specs []club.Spec
		if err := json.Unmarshal(raw, &specs); err != nil {
			return nil, fmt.Errorf("specs requires a list of {label, value} pairs")
		}
		return specs, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("%s requires a string value", field)
	}
	return s, nil
}

func (s *HTTPServer) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = randomRequestID()
		}
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		started := time.Now()
		writer := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		setCORSHeaders(writer.Header(), s.corsOrigin)
		writer.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(writer, r)

		log.Printf(`{"request_id":"%s","method":"%s","path":"%s","status":%d,"duration_ms":%d}`,
			requestID,
			r.Method,
			r.URL.Path,
			writer.status,
			time.Since(started).Milliseconds(),
		)
	})
}

type requestIDKey struct{}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func randomRequestID() string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

func setCORSHeaders(header http.Header, corsOrigin string) {
	header.Set("Access-Control-Allow-Origin", corsOrigin)
	header.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
	header.Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
	header.Set("Cache-Control", "no-store")
	header.Set("Content-Type", "application/json")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	response := map[string]any{
		"code":  code,
		"error": message,
	}
	if details != nil {
		response["details"] = details
	}
	writeJSON(w, status, response)
}

func decodeBody(r *http.Request, target any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(target); err != nil {
		if errors.Is(err, http.ErrBodyReadAfterClose) {
			return nil
		}
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func rawBody(r *http.Request) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := decodeBody(r, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

func mapError(err error) (status int, code, message string, details any) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Status, domainErr.Code, domainErr.Message, domainErr.Details
	}
	switch {
	case errors.Is(err, club.ErrUnknownCollection), errors.Is(err, club.ErrUnknownField), errors.Is(err, club.ErrBadValue):
		return http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error(), nil
	case errors.Is(err, archive.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND", "Not found", nil
	case errors.Is(err, archive.ErrConflict):
		return http.StatusConflict, "SYNC_CONFLICT", "The archive changed since the last read; save again to overwrite", nil
	case errors.Is(err, archive.ErrEncoding):
		return http.StatusUnprocessableEntity, "ENCODING_ERROR", "The dataset contains characters that cannot be transported", nil
	}
	return http.StatusInternalServerError, "SERVER_ERROR", "Server error", nil
}

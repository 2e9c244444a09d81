package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/cruciblehq/crucible/internal/history"
	"github.com/cruciblehq/crucible/internal/storage"
)

// --- JSON helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// --- Session handlers ---

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	opts := storage.SessionListOptions{}

	if limit := r.URL.Query().Get("limit"); limit != "" {
		if n, err := strconv.Atoi(limit); err == nil {
			opts.Limit = n
		}
	}
	if offset := r.URL.Query().Get("offset"); offset != "" {
		if n, err := strconv.Atoi(offset); err == nil {
			opts.Offset = n
		}
	}

	sessions, err := s.store.ListSessions(r.Context(), opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if sessions == nil {
		sessions = []storage.Session{}
	}
	writeJSON(w, http.StatusOK, sessions)
}

type createSessionRequest struct {
	Title string `json:"title"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	sess := &storage.Session{
		ID:    uuid.New().String(),
		Title: req.Title,
	}

	if err := s.store.CreateSession(r.Context(), sess); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, sess)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sess, err := s.store.GetSession(r.Context(), id)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			writeError(w, http.StatusNotFound, "session not found")
		} else {
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	// Drop the live session first
	s.sessions.Remove(id)

	if err := s.store.DeleteSession(r.Context(), id); err != nil {
		if strings.Contains(err.Error(), "not found") {
			writeError(w, http.StatusNotFound, "session not found")
		} else {
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// --- Execution handlers ---

type runRequest struct {
	Source string `json:"source"`
}

type runResponse struct {
	Allowed bool            `json:"allowed"`
	Reason  string          `json:"reason,omitempty"`
	Record  *history.Record `json:"record,omitempty"`
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req runRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if req.Source == "" {
		writeError(w, http.StatusBadRequest, "source is required")
		return
	}

	meta, err := s.store.GetSession(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	active, err := s.sessions.GetOrCreate(r.Context(), meta, s.store)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("initializing session: %v", err))
		return
	}

	verdict, rec := active.Submit(s.policy, s.engine, req.Source)
	if !verdict.Allowed {
		// Rejected submissions are surfaced, not recorded.
		writeJSON(w, http.StatusOK, runResponse{Allowed: false, Reason: verdict.Reason})
		return
	}

	// Auto-generate title from first submission
	if meta.Title == "" {
		meta.Title = generateTitle(req.Source)
		s.store.UpdateSession(r.Context(), meta)
	}

	if err := s.store.AppendRecord(r.Context(), meta.ID, *rec); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("saving record: %v", err))
		return
	}

	writeJSON(w, http.StatusOK, runResponse{Allowed: true, Record: rec})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	meta, err := s.store.GetSession(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	active, err := s.sessions.GetOrCreate(r.Context(), meta, s.store)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("initializing session: %v", err))
		return
	}

	order := history.NewestFirst
	if r.URL.Query().Get("order") == "asc" {
		order = history.OldestFirst
	}

	records := active.Ledger.List(order)
	if limit := r.URL.Query().Get("limit"); limit != "" {
		if n, err := strconv.Atoi(limit); err == nil && n >= 0 && n < len(records) {
			records = records[:n]
		}
	}

	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	meta, err := s.store.GetSession(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	active, err := s.sessions.GetOrCreate(r.Context(), meta, s.store)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("initializing session: %v", err))
		return
	}

	// Ledger and namespace clear together; persisted records go with them.
	active.Reset()
	if err := s.store.ClearRecords(r.Context(), meta.ID); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("clearing records: %v", err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// --- Capability handlers ---

type capabilityInfo struct {
	Name       string `json:"name"`
	Doc        string `json:"doc,omitempty"`
	Registered bool   `json:"registered"`
}

func (s *Server) handleListCapabilities(w http.ResponseWriter, r *http.Request) {
	registered := make(map[string]bool, len(s.registry.Names()))
	for _, name := range s.registry.Names() {
		registered[name] = true
	}

	// The allow-list is authoritative; entries without a registered bundle
	// resolve to warnings at run time.
	var out []capabilityInfo
	for _, name := range s.policy.Allowed {
		out = append(out, capabilityInfo{
			Name:       name,
			Doc:        s.registry.Doc(name),
			Registered: registered[name],
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// generateTitle creates a session title from the first submitted snippet.
func generateTitle(source string) string {
	t := strings.TrimSpace(source)
	if i := strings.IndexByte(t, '\n'); i >= 0 {
		t = t[:i]
	}
	if len(t) > 80 {
		t = t[:80] + "..."
	}
	return t
}

package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cruciblehq/crucible/internal/caps"
	"github.com/cruciblehq/crucible/internal/config"
	"github.com/cruciblehq/crucible/internal/history"
	"github.com/cruciblehq/crucible/internal/storage"
	"github.com/cruciblehq/crucible/internal/storage/sqlite"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	store, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	registry := caps.Default()
	cfg := &config.Config{
		Sandbox: config.SandboxConfig{Allow: registry.Names()},
	}
	return New(cfg, store, registry)
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func createTestSession(t *testing.T, s *Server) storage.Session {
	t.Helper()
	w := doJSON(t, s, http.MethodPost, "/api/sessions", map[string]string{})
	if w.Code != http.StatusCreated {
		t.Fatalf("create session: status %d: %s", w.Code, w.Body.String())
	}
	var sess storage.Session
	if err := json.Unmarshal(w.Body.Bytes(), &sess); err != nil {
		t.Fatalf("decoding session: %v", err)
	}
	return sess
}

func TestRunEndpoint(t *testing.T) {
	s := testServer(t)
	sess := createTestSession(t, s)

	w := doJSON(t, s, http.MethodPost, "/api/sessions/"+sess.ID+"/run",
		map[string]string{"source": "x = 2\nprint(x * 3)"})
	if w.Code != http.StatusOK {
		t.Fatalf("run: status %d: %s", w.Code, w.Body.String())
	}

	var resp runResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if !resp.Allowed {
		t.Fatalf("rejected: %s", resp.Reason)
	}
	if !resp.Record.Success || resp.Record.Output != "6" {
		t.Errorf("record = %+v", resp.Record)
	}
}

func TestRunRejectedNotRecorded(t *testing.T) {
	s := testServer(t)
	sess := createTestSession(t, s)

	w := doJSON(t, s, http.MethodPost, "/api/sessions/"+sess.ID+"/run",
		map[string]string{"source": `eval("1")`})
	if w.Code != http.StatusOK {
		t.Fatalf("run: status %d", w.Code)
	}

	var resp runResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Allowed {
		t.Fatal("deny pattern should be rejected")
	}
	if resp.Record != nil {
		t.Error("rejection carried a record")
	}

	hw := doJSON(t, s, http.MethodGet, "/api/sessions/"+sess.ID+"/history", nil)
	var records []history.Record
	json.Unmarshal(hw.Body.Bytes(), &records)
	if len(records) != 0 {
		t.Errorf("history has %d records after rejection, want 0", len(records))
	}
}

func TestNamespacePersistsBetweenRequests(t *testing.T) {
	s := testServer(t)
	sess := createTestSession(t, s)

	doJSON(t, s, http.MethodPost, "/api/sessions/"+sess.ID+"/run",
		map[string]string{"source": "greeting = \"hello\""})
	w := doJSON(t, s, http.MethodPost, "/api/sessions/"+sess.ID+"/run",
		map[string]string{"source": "print(greeting)"})

	var resp runResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Record == nil || resp.Record.Output != "hello" {
		t.Errorf("record = %+v", resp.Record)
	}
}

func TestHistoryOrdering(t *testing.T) {
	s := testServer(t)
	sess := createTestSession(t, s)

	for _, src := range []string{"a = 1", "b = 2", "c = 3"} {
		doJSON(t, s, http.MethodPost, "/api/sessions/"+sess.ID+"/run", map[string]string{"source": src})
	}

	w := doJSON(t, s, http.MethodGet, "/api/sessions/"+sess.ID+"/history", nil)
	var records []history.Record
	json.Unmarshal(w.Body.Bytes(), &records)
	if len(records) != 3 || records[0].Source != "c = 3" {
		t.Errorf("default order should be newest first, got %+v", records)
	}

	w = doJSON(t, s, http.MethodGet, "/api/sessions/"+sess.ID+"/history?order=asc", nil)
	json.Unmarshal(w.Body.Bytes(), &records)
	if len(records) != 3 || records[0].Source != "a = 1" {
		t.Errorf("asc order should be oldest first, got %+v", records)
	}
}

func TestResetClearsHistoryAndNamespace(t *testing.T) {
	s := testServer(t)
	sess := createTestSession(t, s)

	doJSON(t, s, http.MethodPost, "/api/sessions/"+sess.ID+"/run", map[string]string{"source": "x = 1"})

	w := doJSON(t, s, http.MethodPost, "/api/sessions/"+sess.ID+"/reset", nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("reset: status %d", w.Code)
	}

	hw := doJSON(t, s, http.MethodGet, "/api/sessions/"+sess.ID+"/history", nil)
	var records []history.Record
	json.Unmarshal(hw.Body.Bytes(), &records)
	if len(records) != 0 {
		t.Errorf("history has %d records after reset", len(records))
	}

	rw := doJSON(t, s, http.MethodPost, "/api/sessions/"+sess.ID+"/run", map[string]string{"source": "print(x)"})
	var resp runResponse
	json.Unmarshal(rw.Body.Bytes(), &resp)
	if resp.Record == nil || resp.Record.Success {
		t.Error("binding survived reset")
	}
}

func TestListCapabilities(t *testing.T) {
	s := testServer(t)

	w := doJSON(t, s, http.MethodGet, "/api/capabilities", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("capabilities: status %d", w.Code)
	}

	var out []capabilityInfo
	json.Unmarshal(w.Body.Bytes(), &out)
	found := false
	for _, c := range out {
		if c.Name == "math" && c.Registered {
			found = true
		}
	}
	if !found {
		t.Errorf("math capability missing from %+v", out)
	}
}

func TestRunUnknownSession(t *testing.T) {
	s := testServer(t)
	w := doJSON(t, s, http.MethodPost, "/api/sessions/nope/run", map[string]string{"source": "x = 1"})
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

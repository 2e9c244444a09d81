package sqlite

import (
	"context"
	"testing"

	"github.com/cruciblehq/crucible/internal/caps"
	"github.com/cruciblehq/crucible/internal/history"
	"github.com/cruciblehq/crucible/internal/storage"
)

func testStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("opening memory db: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreateAndGetSession(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	sess := &storage.Session{
		ID:    "abc12345-0000-0000-0000-000000000000",
		Title: "scratch work",
	}

	if err := s.CreateSession(ctx, sess); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	got, err := s.GetSession(ctx, sess.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}

	if got.Title != "scratch work" {
		t.Errorf("title = %q, want %q", got.Title, "scratch work")
	}
	if got.CreatedAt.IsZero() {
		t.Error("created_at should not be zero")
	}
}

func TestGetSessionByPrefix(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	sess := &storage.Session{ID: "abc12345-0000-0000-0000-000000000000"}
	if err := s.CreateSession(ctx, sess); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	got, err := s.GetSession(ctx, "abc12345")
	if err != nil {
		t.Fatalf("GetSession by prefix: %v", err)
	}
	if got.ID != sess.ID {
		t.Errorf("got ID %q, want %q", got.ID, sess.ID)
	}
}

func TestGetSessionAmbiguousPrefix(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	for _, id := range []string{
		"abc00000-0000-0000-0000-000000000000",
		"abc11111-0000-0000-0000-000000000000",
	} {
		if err := s.CreateSession(ctx, &storage.Session{ID: id}); err != nil {
			t.Fatalf("CreateSession: %v", err)
		}
	}

	_, err := s.GetSession(ctx, "abc")
	if err == nil {
		t.Fatal("expected error for ambiguous prefix")
	}
}

func TestListSessions(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	for _, id := range []string{"aaa", "bbb", "ccc"} {
		if err := s.CreateSession(ctx, &storage.Session{ID: id}); err != nil {
			t.Fatalf("CreateSession: %v", err)
		}
	}

	sessions, err := s.ListSessions(ctx, storage.SessionListOptions{})
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(sessions) != 3 {
		t.Errorf("got %d sessions, want 3", len(sessions))
	}
}

func TestListSessionsLimit(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		s.CreateSession(ctx, &storage.Session{ID: string(rune('a' + i))})
	}

	sessions, err := s.ListSessions(ctx, storage.SessionListOptions{Limit: 2})
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(sessions) != 2 {
		t.Errorf("got %d sessions, want 2", len(sessions))
	}
}

func TestUpdateSession(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	sess := &storage.Session{ID: "upd1"}
	s.CreateSession(ctx, sess)

	sess.Title = "renamed"
	if err := s.UpdateSession(ctx, sess); err != nil {
		t.Fatalf("UpdateSession: %v", err)
	}

	got, err := s.GetSession(ctx, "upd1")
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got.Title != "renamed" {
		t.Errorf("title = %q, want %q", got.Title, "renamed")
	}
}

func TestAppendAndLoadRecords(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	s.CreateSession(ctx, &storage.Session{ID: "rec1"})

	records := []history.Record{
		{Seq: 1, Source: "x = 1", Success: true, Output: "Code executed successfully with no output."},
		{
			Seq: 2, Source: "import plot\nplot.line([1, 2])", Success: true, Output: "ok",
			Figures: []caps.Figure{{Seq: 1, Kind: "line", X: []float64{0, 1}, Y: []float64{1, 2}}},
		},
		{Seq: 3, Source: "boom()", Success: false, Trace: "trace (most recent statement last):\n  line 1: boom()\neval error: unknown name boom"},
	}

	for _, rec := range records {
		if err := s.AppendRecord(ctx, "rec1", rec); err != nil {
			t.Fatalf("AppendRecord seq %d: %v", rec.Seq, err)
		}
	}

	loaded, err := s.LoadRecords(ctx, "rec1")
	if err != nil {
		t.Fatalf("LoadRecords: %v", err)
	}
	if len(loaded) != 3 {
		t.Fatalf("got %d records, want 3", len(loaded))
	}

	if loaded[0].Source != "x = 1" || !loaded[0].Success {
		t.Errorf("record 1 = %+v", loaded[0])
	}
	if len(loaded[1].Figures) != 1 || loaded[1].Figures[0].Kind != "line" {
		t.Errorf("record 2 figures = %+v", loaded[1].Figures)
	}
	if loaded[2].Success || loaded[2].Trace == "" {
		t.Errorf("record 3 = %+v", loaded[2])
	}
}

func TestClearRecords(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	s.CreateSession(ctx, &storage.Session{ID: "clr1"})
	s.AppendRecord(ctx, "clr1", history.Record{Seq: 1, Source: "x = 1", Success: true})

	if err := s.ClearRecords(ctx, "clr1"); err != nil {
		t.Fatalf("ClearRecords: %v", err)
	}

	loaded, err := s.LoadRecords(ctx, "clr1")
	if err != nil {
		t.Fatalf("LoadRecords: %v", err)
	}
	if len(loaded) != 0 {
		t.Errorf("got %d records after clear, want 0", len(loaded))
	}
}

func TestDeleteSessionRemovesRecords(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	s.CreateSession(ctx, &storage.Session{ID: "del1"})
	s.AppendRecord(ctx, "del1", history.Record{Seq: 1, Source: "x = 1", Success: true})

	if err := s.DeleteSession(ctx, "del1"); err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}

	if _, err := s.GetSession(ctx, "del1"); err == nil {
		t.Fatal("expected error after delete")
	}

	records, err := s.LoadRecords(ctx, "del1")
	if err != nil {
		t.Fatalf("LoadRecords after delete: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected no records after delete, got %d", len(records))
	}
}

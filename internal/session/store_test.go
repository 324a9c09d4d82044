package session

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T, ttl time.Duration) *SQLiteStore {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "sessions.db"), ttl, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func record(idx int, tool string, at time.Time) TurnRecord {
	return TurnRecord{
		TurnIndex: idx,
		ToolName:  tool,
		Input:     `{"user_google_email":"u@test.com"}`,
		Output:    "ok",
		Timestamp: at,
	}
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	s := openTestStore(t, time.Hour)
	ctx := context.Background()
	now := time.Now()

	if err := s.Append(ctx, "u1", "sess1", record(0, "list_emails", now)); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := s.Append(ctx, "u1", "sess1", record(1, "trash_emails", now)); err != nil {
		t.Fatalf("Append: %v", err)
	}
	// Another session must stay isolated.
	if err := s.Append(ctx, "u1", "sess2", record(0, "list_labels", now)); err != nil {
		t.Fatalf("Append: %v", err)
	}

	history, err := s.History(ctx, "u1", "sess1")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history has %d turns, want 2", len(history))
	}
	if history[0].ToolName != "list_emails" || history[1].ToolName != "trash_emails" {
		t.Errorf("history order wrong: %+v", history)
	}
	if history[0].Input == "" {
		t.Error("input should round-trip")
	}
}

func TestSQLiteStoreTTLExcludesExpired(t *testing.T) {
	s := openTestStore(t, time.Hour)
	ctx := context.Background()

	old := time.Now().Add(-2 * time.Hour)
	if err := s.Append(ctx, "u1", "sess1", record(0, "list_emails", old)); err != nil {
		t.Fatalf("Append old: %v", err)
	}
	if err := s.Append(ctx, "u1", "sess1", record(1, "list_labels", time.Now())); err != nil {
		t.Fatalf("Append fresh: %v", err)
	}

	history, err := s.History(ctx, "u1", "sess1")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 1 || history[0].ToolName != "list_labels" {
		t.Errorf("expired turns should be excluded, got %+v", history)
	}
}

func TestSQLiteStoreNextTurnIndex(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.db")
	ctx := context.Background()

	s, err := Open(path, time.Hour, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	for want := 0; want < 3; want++ {
		if got := s.NextTurnIndex(ctx, "u1", "sess1"); got != want {
			t.Errorf("NextTurnIndex = %d, want %d", got, want)
		}
	}
	if got := s.NextTurnIndex(ctx, "u1", "other"); got != 0 {
		t.Errorf("fresh session index = %d, want 0", got)
	}

	// Indexes are seeded from the database on reopen.
	if err := s.Append(ctx, "u1", "sess1", record(2, "list_emails", time.Now())); err != nil {
		t.Fatalf("Append: %v", err)
	}
	s.Close()

	reopened, err := Open(path, time.Hour, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	if got := reopened.NextTurnIndex(ctx, "u1", "sess1"); got != 3 {
		t.Errorf("seeded index after reopen = %d, want 3", got)
	}
}

func TestMemoryStore(t *testing.T) {
	m := NewMemoryStore(time.Hour)
	ctx := context.Background()

	if got := m.NextTurnIndex(ctx, "u1", "sess1"); got != 0 {
		t.Errorf("first index = %d, want 0", got)
	}
	if got := m.NextTurnIndex(ctx, "u1", "sess1"); got != 1 {
		t.Errorf("second index = %d, want 1", got)
	}

	if err := m.Append(ctx, "u1", "sess1", record(0, "list_emails", time.Now().Add(-2*time.Hour))); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := m.Append(ctx, "u1", "sess1", record(1, "list_labels", time.Now())); err != nil {
		t.Fatalf("Append: %v", err)
	}

	history, err := m.History(ctx, "u1", "sess1")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 1 || history[0].ToolName != "list_labels" {
		t.Errorf("TTL pruning failed, got %+v", history)
	}

	other, _ := m.History(ctx, "u1", "sess2")
	if len(other) != 0 {
		t.Errorf("unrelated session should be empty, got %+v", other)
	}
}

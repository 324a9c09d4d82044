// Package session persists per-conversation tool-call history so a later
// turn can reference earlier results. Writes are fire-and-forget; the
// store degrades to in-memory history when the database is unavailable.
package session

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// TurnRecord is one tool invocation and its result.
type TurnRecord struct {
	TurnIndex int       `json:"turn_index"`
	ToolName  string    `json:"tool_name"`
	Input     string    `json:"input"`
	Output    string    `json:"output"`
	IsError   bool      `json:"is_error"`
	Timestamp time.Time `json:"timestamp"`
}

// Store records tool-call turns keyed by (user_id, session_id) with a TTL.
type Store interface {
	Append(ctx context.Context, userID, sessionID string, rec TurnRecord) error
	History(ctx context.Context, userID, sessionID string) ([]TurnRecord, error)
	NextTurnIndex(ctx context.Context, userID, sessionID string) int
	Close() error
}

const schema = `
CREATE TABLE IF NOT EXISTS session_turns (
	user_id    TEXT NOT NULL,
	session_id TEXT NOT NULL,
	turn_index INTEGER NOT NULL,
	tool_name  TEXT NOT NULL,
	input      TEXT NOT NULL,
	output     TEXT NOT NULL,
	is_error   INTEGER NOT NULL DEFAULT 0,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_session_turns_key
	ON session_turns (user_id, session_id, turn_index);
`

// SQLiteStore is the durable implementation.
type SQLiteStore struct {
	db  *sql.DB
	ttl time.Duration
	log *slog.Logger

	mu        sync.Mutex
	nextIdx   map[string]int
	lastPurge time.Time
}

// Open creates (or opens) the SQLite database at path. A 24h TTL applies
// when ttl is zero.
func Open(path string, ttl time.Duration, log *slog.Logger) (*SQLiteStore, error) {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if log == nil {
		log = slog.Default()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening session store %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialising session schema: %w", err)
	}
	return &SQLiteStore{
		db:      db,
		ttl:     ttl,
		log:     log,
		nextIdx: make(map[string]int),
	}, nil
}

// Append records one turn. Errors are returned for logging but callers
// treat writes as fire-and-forget.
func (s *SQLiteStore) Append(ctx context.Context, userID, sessionID string, rec TurnRecord) error {
	s.purgeExpired(ctx)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO session_turns (user_id, session_id, turn_index, tool_name, input, output, is_error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		userID, sessionID, rec.TurnIndex, rec.ToolName, rec.Input, rec.Output,
		boolToInt(rec.IsError), rec.Timestamp.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("appending session turn: %w", err)
	}
	return nil
}

// History returns the recorded turns in order, excluding expired ones.
func (s *SQLiteStore) History(ctx context.Context, userID, sessionID string) ([]TurnRecord, error) {
	cutoff := time.Now().Add(-s.ttl).UnixMilli()
	rows, err := s.db.QueryContext(ctx,
		`SELECT turn_index, tool_name, input, output, is_error, created_at
		 FROM session_turns
		 WHERE user_id = ? AND session_id = ? AND created_at >= ?
		 ORDER BY turn_index`,
		userID, sessionID, cutoff,
	)
	if err != nil {
		return nil, fmt.Errorf("reading session history: %w", err)
	}
	defer rows.Close()

	var out []TurnRecord
	for rows.Next() {
		var rec TurnRecord
		var isErr int
		var createdAt int64
		if err := rows.Scan(&rec.TurnIndex, &rec.ToolName, &rec.Input, &rec.Output, &isErr, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning session turn: %w", err)
		}
		rec.IsError = isErr != 0
		rec.Timestamp = time.UnixMilli(createdAt)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// NextTurnIndex hands out monotonically increasing turn indexes per key.
// Indexes are tracked in memory and seeded from the database once; a
// duplicate after restart is tolerated by consumers.
func (s *SQLiteStore) NextTurnIndex(ctx context.Context, userID, sessionID string) int {
	key := userID + ":" + sessionID
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.nextIdx[key]; !ok {
		var max sql.NullInt64
		err := s.db.QueryRowContext(ctx,
			`SELECT MAX(turn_index) FROM session_turns WHERE user_id = ? AND session_id = ?`,
			userID, sessionID,
		).Scan(&max)
		if err == nil && max.Valid {
			s.nextIdx[key] = int(max.Int64) + 1
		}
	}
	idx := s.nextIdx[key]
	s.nextIdx[key] = idx + 1
	return idx
}

// purgeExpired drops turns past the TTL, at most once a minute.
func (s *SQLiteStore) purgeExpired(ctx context.Context) {
	s.mu.Lock()
	if time.Since(s.lastPurge) < time.Minute {
		s.mu.Unlock()
		return
	}
	s.lastPurge = time.Now()
	s.mu.Unlock()

	cutoff := time.Now().Add(-s.ttl).UnixMilli()
	if _, err := s.db.ExecContext(ctx, `DELETE FROM session_turns WHERE created_at < ?`, cutoff); err != nil {
		s.log.Warn("session TTL purge failed", "error", err)
	}
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error { return s.db.Close() }

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// MemoryStore keeps history in process memory. It backs tests and the
// degraded mode when the database cannot be opened.
type MemoryStore struct {
	ttl time.Duration

	mu    sync.Mutex
	turns map[string][]TurnRecord
	next  map[string]int
}

// NewMemoryStore builds an in-memory store with the given TTL.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &MemoryStore{
		ttl:   ttl,
		turns: make(map[string][]TurnRecord),
		next:  make(map[string]int),
	}
}

func (m *MemoryStore) Append(ctx context.Context, userID, sessionID string, rec TurnRecord) error {
	key := userID + ":" + sessionID
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns[key] = append(m.prune(m.turns[key]), rec)
	return nil
}

func (m *MemoryStore) History(ctx context.Context, userID, sessionID string) ([]TurnRecord, error) {
	key := userID + ":" + sessionID
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.prune(m.turns[key])
	m.turns[key] = kept
	out := make([]TurnRecord, len(kept))
	copy(out, kept)
	return out, nil
}

func (m *MemoryStore) NextTurnIndex(ctx context.Context, userID, sessionID string) int {
	key := userID + ":" + sessionID
	m.mu.Lock()
	defer m.mu.Unlock()
	idx := m.next[key]
	m.next[key] = idx + 1
	return idx
}

func (m *MemoryStore) Close() error { return nil }

func (m *MemoryStore) prune(recs []TurnRecord) []TurnRecord {
	cutoff := time.Now().Add(-m.ttl)
	kept := recs[:0]
	for _, r := range recs {
		if r.Timestamp.After(cutoff) {
			kept = append(kept, r)
		}
	}
	return kept
}

var (
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*MemoryStore)(nil)
)

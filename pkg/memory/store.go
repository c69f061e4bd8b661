package memory

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// DefaultMaxPerChat is the hard retention cap applied to each chat partition.
const DefaultMaxPerChat = 30

// Message is one entry in a chat's conversational memory. Timestamps are
// assigned by the store at write time, never by callers.
type Message struct {
	ID        int64
	ChatID    int64
	UserID    int64
	Username  string
	Text      string
	CreatedAt time.Time
}

// SQLiteStore is the canonical persistent chat memory.
type SQLiteStore struct {
	db         *sql.DB
	maxPerChat int
}

// NewSQLiteStore creates/opens the memory database at path. maxPerChat <= 0
// selects DefaultMaxPerChat.
func NewSQLiteStore(path string, maxPerChat int) (*SQLiteStore, error) {
	if maxPerChat <= 0 {
		maxPerChat = DefaultMaxPerChat
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create memory db dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// Single-process store. One shared connection avoids writer lock
	// contention with SQLite under concurrent goroutines and makes the
	// evict+insert transaction atomic with respect to readers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &SQLiteStore{db: db, maxPerChat: maxPerChat}
	if err := store.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) init() error {
	stmts := []string{
		`PRAGMA journal_mode=WAL;`,
		`PRAGMA synchronous=NORMAL;`,
		`PRAGMA busy_timeout=5000;`,
		`CREATE TABLE IF NOT EXISTS chat_memory (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			chat_id INTEGER NOT NULL,
			user_id INTEGER NOT NULL,
			username TEXT NOT NULL DEFAULT '',
			message_text TEXT NOT NULL,
			created_at_ms INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS chat_memory_recency_idx ON chat_memory(chat_id, created_at_ms);`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("init sqlite schema failed on %q: %w", trimSQL(stmt), err)
		}
	}
	return nil
}

func trimSQL(sql string) string {
	line := strings.TrimSpace(sql)
	if len(line) > 96 {
		return line[:96] + "..."
	}
	return line
}

// Append inserts one message into the chat's partition, evicting whatever
// falls outside the most-recent window first so the cap holds after the
// call. Eviction and insert share one transaction: a concurrent Recent never
// observes a partially evicted partition and two concurrent Appends cannot
// overshoot the cap.
func (s *SQLiteStore) Append(ctx context.Context, chatID, userID int64, username, text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("append message: empty text")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("append message begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
DELETE FROM chat_memory
WHERE chat_id = ?
AND id NOT IN (
	SELECT id FROM chat_memory
	WHERE chat_id = ?
	ORDER BY created_at_ms DESC, id DESC
	LIMIT ?
)`, chatID, chatID, s.maxPerChat-1); err != nil {
		return fmt.Errorf("append message evict: %w", err)
	}

	// Store-assigned timestamp, clamped so per-chat insertion order stays
	// non-decreasing even if the wall clock steps backwards.
	now := time.Now().UnixMilli()
	var last sql.NullInt64
	if err := tx.QueryRowContext(ctx, `SELECT MAX(created_at_ms) FROM chat_memory WHERE chat_id = ?`, chatID).Scan(&last); err != nil {
		return fmt.Errorf("append message read last timestamp: %w", err)
	}
	if last.Valid && last.Int64 > now {
		now = last.Int64
	}

	if _, err := tx.ExecContext(ctx, `
INSERT INTO chat_memory(chat_id, user_id, username, message_text, created_at_ms)
VALUES(?, ?, ?, ?, ?)`, chatID, userID, username, text, now); err != nil {
		return fmt.Errorf("append message insert: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("append message commit: %w", err)
	}
	return nil
}

// Recent returns up to limit most recent messages for the chat in
// chronological (oldest-to-newest) order. An empty partition yields an empty
// slice, not an error.
func (s *SQLiteStore) Recent(ctx context.Context, chatID int64, limit int) ([]Message, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("recent messages: limit must be positive, got %d", limit)
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT id, chat_id, user_id, username, message_text, created_at_ms
FROM chat_memory
WHERE chat_id = ?
ORDER BY created_at_ms DESC, id DESC
LIMIT ?`, chatID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent messages: %w", err)
	}
	defer rows.Close()

	out := make([]Message, 0, limit)
	for rows.Next() {
		var m Message
		var createdMS int64
		if err := rows.Scan(&m.ID, &m.ChatID, &m.UserID, &m.Username, &m.Text, &createdMS); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.CreatedAt = time.UnixMilli(createdMS)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}

	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// Count reports how many messages a chat partition currently holds.
func (s *SQLiteStore) Count(ctx context.Context, chatID int64) (int, error) {
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chat_memory WHERE chat_id = ?`, chatID)
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("count messages: %w", err)
	}
	return n, nil
}

// PruneBefore deletes all messages older than cutoff across every chat.
// This backs the optional time-based retention policy; the per-chat count
// cap in Append is always enforced regardless.
func (s *SQLiteStore) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM chat_memory WHERE created_at_ms < ?`, cutoff.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("prune messages: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"tam-chat/internal/reply"

	_ "modernc.org/sqlite"
)

var sqliteSchema = []string{`
CREATE TABLE IF NOT EXISTS messages (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	id         TEXT NOT NULL,
	session    TEXT NOT NULL,
	role       TEXT NOT NULL,
	content    TEXT NOT NULL,
	timestamp  TEXT NOT NULL,
	created_at TEXT NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session, seq)`,
}

type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (and migrates) the database at path. ":memory:" is accepted.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// 单连接避免 database is locked；:memory: 也依赖同一连接
	db.SetMaxOpenConns(1)
	for _, stmt := range sqliteSchema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate sqlite %s: %w", path, err)
		}
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Append(ctx context.Context, e Entry) error {
	if err := checkSession(e.Session); err != nil {
		return err
	}
	content, err := json.Marshal(e.Content)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO messages (id, session, role, content, timestamp, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.Session, e.Role, string(content), e.Timestamp, e.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	return err
}

func (s *SQLiteStore) List(ctx context.Context, session string) ([]Entry, error) {
	if err := checkSession(session); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session, role, content, timestamp, created_at FROM messages WHERE session = ? ORDER BY seq`,
		session,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e         Entry
			content   string
			createdAt string
		)
		if err := rows.Scan(&e.ID, &e.Session, &e.Role, &content, &e.Timestamp, &createdAt); err != nil {
			return nil, err
		}
		raw, err := reply.Decode([]byte(content))
		if err != nil {
			log.WithError(err).WithField("id", e.ID).Warn("skipping unreadable history row")
			continue
		}
		e.Content = raw
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Clear(ctx context.Context, session string) error {
	if err := checkSession(session); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE session = ?`, session)
	return err
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

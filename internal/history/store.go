// Package history persists per-session chat history for the chat server.
package history

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"tam-chat/internal/logger"
	"tam-chat/internal/reply"
)

var log = logger.Named("history")

var (
	ErrUnknownBackend = errors.New("unknown history backend")
	ErrEmptySession   = errors.New("history session is empty")
)

const (
	BackendJSONL  = "jsonl"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Entry is one stored chat message. Content keeps the reply exactly as it was sent so a
// replay classifies the same way.
type Entry struct {
	ID        string    `json:"id"`
	Session   string    `json:"session"`
	Role      string    `json:"role"`
	Content   reply.Raw `json:"content"`
	Timestamp string    `json:"timestamp"`
	CreatedAt time.Time `json:"created_at"`
}

// NewEntry fills ID and CreatedAt.
func NewEntry(session, role string, content reply.Raw, timestamp string) Entry {
	return Entry{
		ID:        uuid.NewString(),
		Session:   session,
		Role:      role,
		Content:   content,
		Timestamp: timestamp,
		CreatedAt: time.Now().UTC(),
	}
}

// Store 按会话保存聊天记录，List 按写入顺序返回。
type Store interface {
	Append(ctx context.Context, e Entry) error
	List(ctx context.Context, session string) ([]Entry, error)
	Clear(ctx context.Context, session string) error
	Close() error
}

func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".tam", "history"), nil
}

// Open returns the store for backend. path is a directory for jsonl, a database file for
// sqlite and ignored for memory; empty means the default location.
func Open(backend, path string) (Store, error) {
	backend = strings.ToLower(strings.TrimSpace(backend))
	if backend == "" {
		backend = BackendJSONL
	}
	if backend != BackendMemory && strings.TrimSpace(path) == "" {
		dir, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		path = dir
		if backend == BackendSQLite {
			path = filepath.Join(dir, "history.db")
		}
	}
	log.WithFields(logger.Fields{"backend": backend, "path": path}).Info("opening history store")
	switch backend {
	case BackendJSONL:
		return NewJSONLStore(path), nil
	case BackendSQLite:
		return OpenSQLite(path)
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}

// Tail returns at most n trailing entries.
func Tail(entries []Entry, n int) []Entry {
	if n <= 0 || len(entries) <= n {
		return entries
	}
	return entries[len(entries)-n:]
}

func checkSession(session string) error {
	if strings.TrimSpace(session) == "" {
		return ErrEmptySession
	}
	return nil
}

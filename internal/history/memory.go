package history

import (
	"context"
	"sync"
)

type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string][]Entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: map[string][]Entry{}}
}

func (s *MemoryStore) Append(ctx context.Context, e Entry) error {
	if err := checkSession(e.Session); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[e.Session] = append(s.sessions[e.Session], e)
	return nil
}

func (s *MemoryStore) List(ctx context.Context, session string) ([]Entry, error) {
	if err := checkSession(session); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := s.sessions[session]
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out, nil
}

func (s *MemoryStore) Clear(ctx context.Context, session string) error {
	if err := checkSession(session); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, session)
	return nil
}

func (s *MemoryStore) Close() error { return nil }

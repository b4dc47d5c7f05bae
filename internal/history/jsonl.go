package history

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// JSONLStore 每个会话一个 JSONL 文件：<Dir>/<session>.jsonl。
type JSONLStore struct {
	Dir string

	mu sync.Mutex
}

func NewJSONLStore(dir string) *JSONLStore {
	return &JSONLStore{Dir: dir}
}

func (s *JSONLStore) path(session string) string {
	// 会话 ID 来自请求头，转义后再作为文件名
	return filepath.Join(s.Dir, url.PathEscape(session)+".jsonl")
}

func (s *JSONLStore) Append(ctx context.Context, e Entry) error {
	if err := checkSession(e.Session); err != nil {
		return err
	}
	if strings.TrimSpace(s.Dir) == "" {
		return errors.New("history dir is empty")
	}
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return appendLine(s.path(e.Session), data)
}

func (s *JSONLStore) List(ctx context.Context, session string) ([]Entry, error) {
	if err := checkSession(session); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Entry
	err := scanLines(s.path(session), func(line []byte) {
		var e Entry
		if err := json.Unmarshal(line, &e); err != nil {
			log.WithError(err).Warn("skipping unreadable history line")
			return
		}
		out = append(out, e)
	})
	return out, err
}

func (s *JSONLStore) Clear(ctx context.Context, session string) error {
	if err := checkSession(session); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path(session)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (s *JSONLStore) Close() error { return nil }

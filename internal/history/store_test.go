package history

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tam-chat/internal/reply"
)

func backends(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()
	sqlite, err := OpenSQLite(filepath.Join(dir, "db", "history.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { sqlite.Close() })
	return map[string]Store{
		BackendJSONL:  NewJSONLStore(filepath.Join(dir, "jsonl")),
		BackendSQLite: sqlite,
		BackendMemory: NewMemoryStore(),
	}
}

func TestStore_AppendListClear(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		entries := []Entry{
			NewEntry("s1", "user", reply.Text("깃허브 저장소 보여줘"), "10:00:00"),
			NewEntry("s1", "assistant", reply.FromValue(map[string]any{"repos": []any{map[string]any{"name": "r"}}}), "10:00:01"),
			NewEntry("s2", "user", reply.Text("other session"), "10:00:02"),
		}
		for _, e := range entries {
			if err := s.Append(ctx, e); err != nil {
				t.Fatalf("%s: Append: %v", name, err)
			}
		}

		got, err := s.List(ctx, "s1")
		if err != nil {
			t.Fatalf("%s: List: %v", name, err)
		}
		if len(got) != 2 {
			t.Fatalf("%s: List len = %d, want 2", name, len(got))
		}
		if got[0].Role != "user" || got[0].Content.String() != "깃허브 저장소 보여줘" || got[0].Timestamp != "10:00:00" {
			t.Fatalf("%s: first entry = %+v", name, got[0])
		}
		if _, ok := got[1].Content.Object(); !ok {
			t.Fatalf("%s: structured content lost: %#v", name, got[1].Content.Value())
		}
		if got[0].ID != entries[0].ID {
			t.Fatalf("%s: id = %q, want %q", name, got[0].ID, entries[0].ID)
		}

		if err := s.Clear(ctx, "s1"); err != nil {
			t.Fatalf("%s: Clear: %v", name, err)
		}
		got, err = s.List(ctx, "s1")
		if err != nil || len(got) != 0 {
			t.Fatalf("%s: List after clear = %v, %v", name, got, err)
		}
		other, err := s.List(ctx, "s2")
		if err != nil || len(other) != 1 {
			t.Fatalf("%s: other session affected: %v, %v", name, other, err)
		}
		// 清空不存在的会话不是错误
		if err := s.Clear(ctx, "missing"); err != nil {
			t.Fatalf("%s: Clear missing: %v", name, err)
		}
	}
}

func TestStore_EmptySession(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		if err := s.Append(ctx, Entry{Role: "user"}); !errors.Is(err, ErrEmptySession) {
			t.Fatalf("%s: Append err = %v", name, err)
		}
		if _, err := s.List(ctx, " "); !errors.Is(err, ErrEmptySession) {
			t.Fatalf("%s: List err = %v", name, err)
		}
	}
}

func TestJSONLStore_SkipsGarbageLines(t *testing.T) {
	dir := t.TempDir()
	s := NewJSONLStore(dir)
	if err := os.WriteFile(filepath.Join(dir, "default.jsonl"), []byte(strings.Join([]string{
		`{"id":"1","session":"default","role":"user","content":"one","timestamp":"01:00:00"}`,
		`{not json}`,
		``,
		`{"id":"2","session":"default","role":"assistant","content":"two","timestamp":"01:00:01"}`,
	}, "\n")), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	got, err := s.List(context.Background(), "default")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 || got[1].Content.String() != "two" {
		t.Fatalf("List = %+v", got)
	}
}

func TestJSONLStore_SkipsOversizedLines(t *testing.T) {
	prev := maxLineBytes
	maxLineBytes = 256
	t.Cleanup(func() { maxLineBytes = prev })

	dir := t.TempDir()
	s := NewJSONLStore(dir)
	huge := `{"id":"big","session":"default","role":"assistant","content":"` + strings.Repeat("x", 200*1024) + `","timestamp":"01:00:01"}`
	if err := os.WriteFile(filepath.Join(dir, "default.jsonl"), []byte(strings.Join([]string{
		`{"id":"1","session":"default","role":"user","content":"one","timestamp":"01:00:00"}`,
		huge,
		`{"id":"2","session":"default","role":"assistant","content":"two","timestamp":"01:00:02"}`,
	}, "\r\n")+"\r\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	got, err := s.List(context.Background(), "default")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 || got[0].ID != "1" || got[1].ID != "2" {
		t.Fatalf("List = %+v", got)
	}

	// 超长行之后仍可继续追加与读取
	if err := s.Append(context.Background(), Entry{ID: "3", Session: "default", Role: "user", Content: reply.Text("three"), Timestamp: "01:00:03"}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if got, err := s.List(context.Background(), "default"); err != nil || len(got) != 3 {
		t.Fatalf("List after append = %d entries, %v", len(got), err)
	}
}

func TestJSONLStore_EscapesSessionFileName(t *testing.T) {
	dir := t.TempDir()
	s := NewJSONLStore(dir)
	if err := s.Append(context.Background(), NewEntry("../escape", "user", reply.Text("x"), "")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(dir), "escape.jsonl")); err == nil {
		t.Fatalf("session id escaped the history dir")
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	s, err := Open("JSONL", filepath.Join(dir, "h"))
	if err != nil {
		t.Fatalf("Open jsonl: %v", err)
	}
	if _, ok := s.(*JSONLStore); !ok {
		t.Fatalf("Open jsonl = %T", s)
	}

	s, err = Open(BackendSQLite, filepath.Join(dir, "h.db"))
	if err != nil {
		t.Fatalf("Open sqlite: %v", err)
	}
	defer s.Close()
	if _, ok := s.(*SQLiteStore); !ok {
		t.Fatalf("Open sqlite = %T", s)
	}

	if _, err := Open("redis", ""); !errors.Is(err, ErrUnknownBackend) {
		t.Fatalf("Open redis err = %v", err)
	}
}

func TestTail(t *testing.T) {
	entries := make([]Entry, 12)
	for i := range entries {
		entries[i].ID = string(rune('a' + i))
	}
	got := Tail(entries, 10)
	if len(got) != 10 || got[0].ID != "c" {
		t.Fatalf("Tail = %d entries starting %q", len(got), got[0].ID)
	}
	if len(Tail(entries[:3], 10)) != 3 {
		t.Fatalf("Tail should keep short lists")
	}
}

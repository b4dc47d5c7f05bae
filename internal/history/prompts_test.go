package history

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestPromptStoreAppendAndLoadTexts(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "prompts.jsonl")
	s := &PromptStore{Path: path}

	if got, err := s.LoadTexts(); err != nil || len(got) != 0 {
		t.Fatalf("LoadTexts on missing file: got=%v err=%v", got, err)
	}
	if err := s.Append("   "); err != nil {
		t.Fatalf("Append whitespace: %v", err)
	}
	if err := s.Append("one"); err != nil {
		t.Fatalf("Append one: %v", err)
	}
	if err := s.Append("two"); err != nil {
		t.Fatalf("Append two: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	// 注入损坏行，加载时应跳过
	if err := os.WriteFile(path, append(data, []byte("{not json}\n")...), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	got, err := s.LoadTexts()
	if err != nil {
		t.Fatalf("LoadTexts: %v", err)
	}
	if strings.Join(got, ",") != "one,two" {
		t.Fatalf("LoadTexts = %#v", got)
	}
}

func TestPromptStoreErrors(t *testing.T) {
	t.Parallel()

	var s *PromptStore
	if err := s.Append("hi"); err == nil {
		t.Fatalf("expected error for nil store")
	}
	s = &PromptStore{}
	if err := s.Append("hi"); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

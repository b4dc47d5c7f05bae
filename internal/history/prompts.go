package history

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// PromptEntry 是终端输入历史中的一行。
type PromptEntry struct {
	Text string    `json:"text"`
	TS   time.Time `json:"ts"`
}

// PromptStore keeps the terminal client's submitted prompts for ↑/↓ recall.
type PromptStore struct {
	Path string
}

func DefaultPromptPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".tam", "prompts.jsonl"), nil
}

func NewDefaultPromptStore() (*PromptStore, error) {
	path, err := DefaultPromptPath()
	if err != nil {
		return nil, err
	}
	return &PromptStore{Path: path}, nil
}

func (s *PromptStore) Append(text string) error {
	if s == nil {
		return errors.New("prompt store is nil")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if strings.TrimSpace(s.Path) == "" {
		return errors.New("prompt store path is empty")
	}
	data, err := json.Marshal(PromptEntry{Text: text, TS: time.Now()})
	if err != nil {
		return err
	}
	return appendLine(s.Path, data)
}

func (s *PromptStore) LoadTexts() ([]string, error) {
	if s == nil {
		return nil, errors.New("prompt store is nil")
	}
	if strings.TrimSpace(s.Path) == "" {
		return nil, errors.New("prompt store path is empty")
	}
	var out []string
	err := scanLines(s.Path, func(line []byte) {
		var e PromptEntry
		if err := json.Unmarshal(line, &e); err != nil {
			return
		}
		if strings.TrimSpace(e.Text) == "" {
			return
		}
		out = append(out, e.Text)
	})
	return out, err
}

func appendLine(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.Write(append(data, '\n'))
	return err
}

// maxLineBytes 是单条记录的上限，超出的行被跳过而不是让整个文件不可读。
var maxLineBytes = 4 << 20

// scanLines 逐行读取 JSONL，文件不存在视为空；空行与超长行跳过。
func scanLines(path string, fn func(line []byte)) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	defer f.Close()

	r := bufio.NewReaderSize(f, 64*1024)
	var line []byte
	oversized := false
	for {
		chunk, isPrefix, err := r.ReadLine()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if !oversized {
			if len(line)+len(chunk) > maxLineBytes {
				oversized = true
				line = line[:0]
			} else {
				line = append(line, chunk...)
			}
		}
		if isPrefix {
			continue
		}
		if oversized {
			log.WithField("path", path).Warnf("skipping history line longer than %d bytes", maxLineBytes)
		} else if trimmed := bytes.TrimSpace(line); len(trimmed) > 0 {
			fn(append([]byte(nil), trimmed...))
		}
		line = line[:0]
		oversized = false
	}
}

package tui

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"tam-chat/internal/chat"
	"tam-chat/internal/history"
	"tam-chat/internal/render"
	"tam-chat/internal/reply"
)

type stubTransport struct {
	mu       sync.Mutex
	response reply.Raw
	posts    []string
	clears   int
	history  []chat.HistoryEntry
}

func (s *stubTransport) PostMessage(_ context.Context, text string) (chat.PostResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts = append(s.posts, text)
	return chat.PostResult{OK: true, Response: s.response, Timestamp: "10:00:00"}, nil
}

func (s *stubTransport) ClearHistory(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clears++
	return nil
}

func (s *stubTransport) FetchHistory(context.Context) ([]chat.HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history, nil
}

func newTestModel(t *testing.T, tr chat.Transport, copied *string) *Model {
	t.Helper()
	m := New(Options{
		Transport: tr,
		Language:  "ko",
		ServerURL: "http://chat.test",
		Prompts:   &history.PromptStore{Path: filepath.Join(t.TempDir(), "prompts.jsonl")},
		CopyText: func(text string) error {
			if copied == nil {
				return errors.New("no clipboard")
			}
			*copied = text
			return nil
		},
	})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	drain(m)
	return m
}

// drain 把控制器产生的事件同步喂给模型。
func drain(m *Model) {
	for {
		select {
		case msg := <-m.events:
			m.Update(msg)
		default:
			return
		}
	}
}

func typeText(m *Model, text string) {
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
}

func press(m *Model, k tea.KeyType) tea.Cmd {
	_, cmd := m.Update(tea.KeyMsg{Type: k})
	return cmd
}

func pressRune(m *Model, r rune) tea.Cmd {
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	return cmd
}

func run(m *Model, cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	if msg := cmd(); msg != nil {
		m.Update(msg)
	}
	drain(m)
}

func TestNewShowsGreeting(t *testing.T) {
	m := newTestModel(t, &stubTransport{}, nil)
	msgs := m.Messages()
	if len(msgs) != 1 || msgs[0].Role != chat.RoleAssistant {
		t.Fatalf("messages = %+v, want greeting", msgs)
	}
	if !strings.Contains(m.View(), "안녕하세요") {
		t.Fatalf("view missing greeting:\n%s", m.View())
	}
}

func TestSendRendersStructuredReply(t *testing.T) {
	tr := &stubTransport{response: reply.FromValue(map[string]any{
		"repos": []any{map[string]any{"name": "tam", "description": "chat", "language": "Go", "stars": 3.0, "url": "https://github.com/o/tam"}},
	})}
	m := newTestModel(t, tr, nil)

	typeText(m, "repos?")
	run(m, press(m, tea.KeyEnter))

	if len(tr.posts) != 1 || tr.posts[0] != "repos?" {
		t.Fatalf("posts = %v", tr.posts)
	}
	msgs := m.Messages()
	if len(msgs) != 3 {
		t.Fatalf("messages = %d, want greeting+user+assistant", len(msgs))
	}
	if _, ok := msgs[2].Content.(render.Table); !ok {
		t.Fatalf("assistant content = %T, want render.Table", msgs[2].Content)
	}
	if m.pending {
		t.Fatalf("pending should clear after the exchange")
	}
	if m.textarea.Value() != "" {
		t.Fatalf("composer not cleared: %q", m.textarea.Value())
	}
	if !strings.Contains(m.renderMessages(90), "repos?") {
		t.Fatalf("transcript missing the user message")
	}
}

func TestSubmitIgnoredWhilePending(t *testing.T) {
	tr := &stubTransport{response: reply.Text("ok")}
	m := newTestModel(t, tr, nil)
	m.pending = true

	typeText(m, "again")
	if cmd := press(m, tea.KeyEnter); cmd != nil {
		t.Fatalf("submit while pending should not start a send")
	}
	if m.textarea.Value() != "again" {
		t.Fatalf("composer should keep the text, got %q", m.textarea.Value())
	}
}

func TestClearAsksForConfirmation(t *testing.T) {
	tr := &stubTransport{response: reply.Text("ok")}
	m := newTestModel(t, tr, nil)
	typeText(m, "hello")
	run(m, press(m, tea.KeyEnter))

	typeText(m, "/clear")
	run(m, press(m, tea.KeyEnter))
	if !m.confirming {
		t.Fatalf("expected confirmation prompt")
	}
	if !strings.Contains(m.View(), "(y/n)") {
		t.Fatalf("view missing confirm prompt")
	}

	run(m, pressRune(m, 'n'))
	if m.confirming || tr.clears != 0 {
		t.Fatalf("declined clear should not reach the server: confirming=%v clears=%d", m.confirming, tr.clears)
	}

	typeText(m, "/clear")
	run(m, press(m, tea.KeyEnter))
	run(m, pressRune(m, 'y'))
	if tr.clears != 1 {
		t.Fatalf("clears = %d, want 1", tr.clears)
	}
	if len(m.Messages()) != 1 {
		t.Fatalf("transcript should reset to the greeting, got %d", len(m.Messages()))
	}
	if !strings.Contains(m.status, "삭제") {
		t.Fatalf("status = %q", m.status)
	}
}

func TestHistoryCommandReplacesPlaceholder(t *testing.T) {
	tr := &stubTransport{history: []chat.HistoryEntry{
		{Role: "user", Content: reply.Text("hi"), Timestamp: "09:00:00"},
		{Role: "assistant", Content: reply.Text("hello"), Timestamp: "09:00:01"},
	}}
	m := newTestModel(t, tr, nil)
	typeText(m, "/history")
	run(m, press(m, tea.KeyEnter))

	msgs := m.Messages()
	if len(msgs) != 2 || msgs[0].Text() != "hi" || msgs[1].Timestamp != "09:00:01" {
		t.Fatalf("messages = %+v", msgs)
	}
}

func TestCopyLastReply(t *testing.T) {
	var copied string
	tr := &stubTransport{response: reply.Text("복사할 답")}
	m := newTestModel(t, tr, &copied)
	typeText(m, "q")
	run(m, press(m, tea.KeyEnter))

	typeText(m, "/copy")
	run(m, press(m, tea.KeyEnter))
	if copied != "복사할 답" {
		t.Fatalf("copied = %q", copied)
	}
	if !strings.Contains(m.status, "복사") {
		t.Fatalf("status = %q", m.status)
	}
}

func TestCopyFailureShowsError(t *testing.T) {
	m := newTestModel(t, &stubTransport{}, nil)
	m.copyLast()
	if !strings.Contains(m.status, "no clipboard") {
		t.Fatalf("status = %q", m.status)
	}
}

func TestUnknownSlashCommand(t *testing.T) {
	tr := &stubTransport{}
	m := newTestModel(t, tr, nil)
	m.setInput("/nope now")
	if cmd := press(m, tea.KeyEnter); cmd != nil {
		t.Fatalf("unknown command should not produce a cmd")
	}
	if len(tr.posts) != 0 {
		t.Fatalf("unknown command must not be sent as a message")
	}
	if !strings.Contains(m.status, "/nope") {
		t.Fatalf("status = %q", m.status)
	}
}

func TestQuitCommand(t *testing.T) {
	m := newTestModel(t, &stubTransport{}, nil)
	typeText(m, "/quit")
	cmd := press(m, tea.KeyEnter)
	if cmd == nil {
		t.Fatalf("expected quit cmd")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg")
	}
}

func TestPromptHistoryRecall(t *testing.T) {
	tr := &stubTransport{response: reply.Text("ok")}
	m := newTestModel(t, tr, nil)
	for _, text := range []string{"first", "second"} {
		typeText(m, text)
		run(m, press(m, tea.KeyEnter))
	}
	typeText(m, "draft")

	press(m, tea.KeyUp)
	if got := m.textarea.Value(); got != "second" {
		t.Fatalf("after up = %q", got)
	}
	press(m, tea.KeyUp)
	if got := m.textarea.Value(); got != "first" {
		t.Fatalf("after up x2 = %q", got)
	}
	press(m, tea.KeyDown)
	press(m, tea.KeyDown)
	if got := m.textarea.Value(); got != "draft" {
		t.Fatalf("after down x2 = %q, want draft restored", got)
	}

	texts, err := m.prompts.LoadTexts()
	if err != nil {
		t.Fatalf("LoadTexts: %v", err)
	}
	if len(texts) != 2 || texts[1] != "second" {
		t.Fatalf("persisted prompts = %v", texts)
	}
}

func TestHelpToggle(t *testing.T) {
	m := newTestModel(t, &stubTransport{}, nil)
	typeText(m, "/help")
	run(m, press(m, tea.KeyEnter))
	if !m.showHelp || !strings.Contains(m.View(), "/history") {
		t.Fatalf("help not shown")
	}
	press(m, tea.KeyEsc)
	if m.showHelp {
		t.Fatalf("esc should hide help")
	}
}

func TestTranscriptStaysPinnedToNewest(t *testing.T) {
	tr := &stubTransport{response: reply.Text("답변")}
	m := newTestModel(t, tr, nil)
	for i := 0; i < 12; i++ {
		typeText(m, fmt.Sprintf("질문 %d", i))
		run(m, press(m, tea.KeyEnter))
	}
	if m.viewport.TotalLineCount() <= m.viewport.Height {
		t.Fatalf("transcript (%d lines) should overflow the %d-line pane", m.viewport.TotalLineCount(), m.viewport.Height)
	}
	if !m.viewport.AtBottom() {
		t.Fatalf("viewport should follow the newest message")
	}

	press(m, tea.KeyPgUp)
	if m.viewport.AtBottom() {
		t.Fatalf("pgup should scroll away from the bottom")
	}
	typeText(m, "마지막")
	run(m, press(m, tea.KeyEnter))
	if !m.viewport.AtBottom() {
		t.Fatalf("a new message should scroll back to the bottom")
	}
	if !strings.Contains(m.viewport.View(), "답변") {
		t.Fatalf("newest reply not visible:\n%s", m.viewport.View())
	}
}

// Package tui is the terminal chat widget: a bubbletea program driving a chat.Controller
// over the HTTP transport.
package tui

import (
	"context"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"tam-chat/internal/chat"
	"tam-chat/internal/history"
	"tam-chat/internal/i18n"
	"tam-chat/internal/logger"
	"tam-chat/internal/render"
	"tam-chat/internal/tui/slash"
)

var log = logger.Named("tui")

type Options struct {
	Transport chat.Transport
	Language  i18n.Language
	// ServerURL 仅用于标题栏展示。
	ServerURL string
	// Prompts 为 nil 时不持久化输入历史。
	Prompts *history.PromptStore
	// CopyText 默认写入系统剪贴板。
	CopyText func(text string) error
}

type transcriptMsg struct{ messages []chat.Message }

type submitEnabledMsg bool

type alertMsg string

type historyLoadedMsg int

type clearedMsg bool

type sentMsg struct{}

type confirmedKey struct{}

// Model 是终端聊天界面的 bubbletea 模型。
type Model struct {
	textarea textarea.Model
	viewport viewport.Model
	spin     spinner.Model
	slash    *slash.State
	history  promptHistory
	prompts  *history.PromptStore
	copyText func(string) error

	ctrl     *chat.Controller
	events   chan tea.Msg
	messages []chat.Message
	renderer render.TermRenderer

	lang       i18n.Language
	serverURL  string
	pending    bool
	confirming bool
	showHelp   bool
	status     string
	width      int
	height     int
}

func New(opts Options) *Model {
	lang := i18n.Normalize(string(opts.Language))

	ti := textarea.New()
	ti.Placeholder = i18n.T(lang, i18n.InputHint)
	ti.Prompt = "› "
	ti.CharLimit = 0
	ti.SetWidth(90)
	ti.SetHeight(1)
	ti.ShowLineNumbers = false
	ti.Focus()

	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4"))

	m := &Model{
		textarea:  ti,
		viewport:  viewport.New(90, 16),
		spin:      spin,
		slash:     slash.NewState(0),
		prompts:   opts.Prompts,
		copyText:  opts.CopyText,
		events:    make(chan tea.Msg, 64),
		renderer:  render.TermRenderer{Lang: lang, CellWidth: 24},
		lang:      lang,
		serverURL: opts.ServerURL,
		width:     90,
		height:    24,
	}
	if m.copyText == nil {
		m.copyText = clipboard.WriteAll
	}

	transcript := chat.NewTranscript()
	transcript.OnChange = func(messages []chat.Message) {
		m.events <- transcriptMsg{messages: messages}
	}
	m.ctrl = chat.New(chat.Options{
		Transport: opts.Transport,
		Sink:      transcript,
		Confirmer: chat.ConfirmFunc(func(ctx context.Context, _ string) bool {
			ok, _ := ctx.Value(confirmedKey{}).(bool)
			return ok
		}),
		Alerter:  chat.AlertFunc(func(message string) { m.events <- alertMsg(message) }),
		Composer: composer{events: m.events},
		Language: lang,
	})
	transcript.Reset(m.ctrl.Greeting())

	if m.prompts != nil {
		texts, err := m.prompts.LoadTexts()
		if err != nil {
			log.WithError(err).Warn("load prompt history failed")
		}
		m.history.Load(texts)
	}
	return m
}

// composer 把控制器的输入区状态转成 tea 消息。
type composer struct{ events chan<- tea.Msg }

func (c composer) SetSubmitEnabled(enabled bool) { c.events <- submitEnabledMsg(enabled) }
func (c composer) Focus()                        {}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.waitEvent(), m.spin.Tick, textarea.Blink, m.loadHistory())
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	case transcriptMsg:
		m.messages = msg.messages
		m.refreshTranscript()
		return m, m.waitEvent()
	case submitEnabledMsg:
		m.pending = !bool(msg)
		return m, m.waitEvent()
	case alertMsg:
		m.status = string(msg)
		return m, m.waitEvent()
	case historyLoadedMsg:
		log.WithField("entries", int(msg)).Debug("history loaded")
		return m, nil
	case clearedMsg:
		if msg {
			m.status = i18n.T(m.lang, i18n.ClearDone)
		}
		return m, nil
	case sentMsg:
		return m, nil
	case tea.KeyMsg:
		if cmd, handled := m.handleKey(msg); handled {
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	cmds = append(cmds, cmd)
	if _, ok := msg.(tea.KeyMsg); ok {
		m.slash.SyncInput(m.textarea.Value())
		m.setComposerHeight()
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	key := msg.String()
	if key == "ctrl+c" {
		return tea.Quit, true
	}

	if m.confirming {
		switch key {
		case "y", "Y":
			m.confirming = false
			return m.clear(), true
		case "n", "N", "esc":
			m.confirming = false
		}
		return nil, true
	}

	if m.slash.Open() {
		if act, handled := m.slash.HandleKey(key); handled {
			return m.applySlash(act), true
		}
	}

	switch key {
	case "enter":
		return m.submit(), true
	case "alt+enter", "ctrl+j":
		m.textarea.InsertString("\n")
		m.setComposerHeight()
		return nil, true
	case "up":
		if m.textarea.Line() != 0 {
			return nil, false
		}
		if text, ok := m.history.Older(m.textarea.Value()); ok {
			m.setInput(text)
		}
		return nil, true
	case "down":
		if !m.history.Browsing() {
			return nil, false
		}
		if text, ok := m.history.Newer(); ok {
			m.setInput(text)
		}
		return nil, true
	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return cmd, true
	case "esc":
		m.showHelp = false
		m.status = ""
		return nil, true
	}
	if m.history.Browsing() {
		m.history.Stop()
	}
	return nil, false
}

func (m *Model) submit() tea.Cmd {
	value := m.textarea.Value()
	if strings.TrimSpace(value) == "" {
		return nil
	}
	act := m.slash.ResolveSubmit(value)
	switch act.Kind {
	case slash.ActionSubmitCommand:
		m.resetInput()
		return m.runCommand(act.Command)
	case slash.ActionError:
		m.status = i18n.T(m.lang, i18n.UnknownCommand) + ": " + act.Message
		return nil
	}
	// 发送中不清空输入框，控制器也会忽略这次提交
	if m.pending || m.ctrl.Busy() {
		return nil
	}
	m.history.Remember(value)
	if m.prompts != nil {
		if err := m.prompts.Append(value); err != nil {
			log.WithError(err).Warn("save prompt failed")
		}
	}
	m.resetInput()
	m.status = ""
	m.pending = true
	return m.send(value)
}

func (m *Model) applySlash(act slash.Action) tea.Cmd {
	switch act.Kind {
	case slash.ActionInsert:
		m.setInput(act.NewValue)
	case slash.ActionSubmitCommand:
		m.resetInput()
		return m.runCommand(act.Command)
	case slash.ActionError:
		m.status = i18n.T(m.lang, i18n.UnknownCommand) + ": " + act.Message
	}
	return nil
}

func (m *Model) runCommand(cmd slash.Command) tea.Cmd {
	switch cmd {
	case slash.CommandClear:
		m.confirming = true
		m.status = ""
	case slash.CommandHistory:
		return m.loadHistory()
	case slash.CommandCopy:
		m.copyLast()
	case slash.CommandHelp:
		m.showHelp = !m.showHelp
	case slash.CommandQuit:
		return tea.Quit
	}
	return nil
}

func (m *Model) copyLast() {
	for i := len(m.messages) - 1; i >= 0; i-- {
		msg := m.messages[i]
		if msg.Role != chat.RoleAssistant {
			continue
		}
		if err := m.copyText(msg.Text()); err != nil {
			log.WithError(err).Warn("copy failed")
			m.status = i18n.T(m.lang, i18n.ErrorPrefix) + ": " + err.Error()
			return
		}
		m.status = i18n.T(m.lang, i18n.Copied)
		return
	}
	m.status = i18n.T(m.lang, i18n.NothingToCopy)
}

func (m *Model) send(text string) tea.Cmd {
	return func() tea.Msg {
		m.ctrl.Send(context.Background(), text)
		return sentMsg{}
	}
}

func (m *Model) clear() tea.Cmd {
	return func() tea.Msg {
		ctx := context.WithValue(context.Background(), confirmedKey{}, true)
		return clearedMsg(m.ctrl.Clear(ctx))
	}
}

func (m *Model) loadHistory() tea.Cmd {
	return func() tea.Msg {
		return historyLoadedMsg(m.ctrl.LoadHistory(context.Background()))
	}
}

func (m *Model) waitEvent() tea.Cmd {
	return func() tea.Msg {
		return <-m.events
	}
}

func (m *Model) setInput(text string) {
	m.textarea.SetValue(text)
	m.textarea.CursorEnd()
	m.slash.SyncInput(text)
	m.setComposerHeight()
}

func (m *Model) resetInput() {
	m.textarea.Reset()
	m.slash.Close()
	m.setComposerHeight()
}

func (m *Model) setComposerHeight() {
	lines := m.textarea.LineCount()
	if lines < 1 {
		lines = 1
	}
	if lines > 6 {
		lines = 6
	}
	m.textarea.SetHeight(lines)
}

// Messages 返回当前界面上的对话快照。
func (m *Model) Messages() []chat.Message {
	return append([]chat.Message(nil), m.messages...)
}

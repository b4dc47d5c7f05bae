package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"tam-chat/internal/chat"
	"tam-chat/internal/i18n"
)

var (
	accentColor   = lipgloss.Color("#7D56F4")
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D7A85"))
	userStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#8BD5CA"))
	botStyle      = lipgloss.NewStyle().Bold(true).Foreground(accentColor)
	alertStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#EBCB8B"))
	confirmStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F38BA8"))
	popupStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(accentColor).Padding(0, 1)
	composerStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#5E6472")).Padding(0, 1)
)

func (m *Model) View() string {
	parts := []string{
		renderBanner(m.serverURL, m.width),
		renderPane(m.viewport.View(), m.width),
	}
	if line := m.statusLine(); line != "" {
		parts = append(parts, line)
	}
	if m.slash.Open() {
		parts = append(parts, popupStyle.Render(m.slash.View(maxInt(20, m.width-4))))
	}
	parts = append(parts, composerStyle.Width(maxInt(20, m.width-2)).Render(m.textarea.View()))
	if m.showHelp {
		parts = append(parts, renderHelp(m.width))
	} else {
		parts = append(parts, renderHints(m.width))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m *Model) statusLine() string {
	switch {
	case m.confirming:
		return confirmStyle.Render(i18n.T(m.lang, i18n.ClearConfirm) + " (y/n)")
	case m.pending:
		return m.spin.View() + mutedStyle.Render(" …")
	case m.status != "":
		return alertStyle.Render(m.status)
	}
	return ""
}

// layout 按窗口尺寸分配 transcript 与输入区高度。
func (m *Model) layout() {
	width := maxInt(40, m.width)
	m.textarea.SetWidth(width - 6)
	m.renderer.Width = width - 6
	reserved := lipgloss.Height(renderBanner(m.serverURL, width)) + 2 + m.textarea.Height() + 2 + 1 + 1
	m.viewport.Width = width - 4
	m.viewport.Height = maxInt(3, m.height-reserved)
	m.refreshTranscript()
}

func (m *Model) refreshTranscript() {
	m.viewport.SetContent(m.renderMessages(m.viewport.Width))
	m.viewport.GotoBottom()
}

func (m *Model) renderMessages(width int) string {
	blocks := make([]string, 0, len(m.messages))
	body := lipgloss.NewStyle().Width(maxInt(10, width)).PaddingLeft(2)
	for _, msg := range m.messages {
		var label string
		var content string
		if msg.Role == chat.RoleUser {
			label = userStyle.Render("you")
			content = msg.Text()
		} else {
			label = botStyle.Render("tam")
			content = m.renderer.Render(msg.Content)
		}
		header := label + " " + mutedStyle.Render(msg.Timestamp)
		blocks = append(blocks, header+"\n"+body.Render(content))
	}
	return strings.Join(blocks, "\n\n")
}

func renderBanner(serverURL string, width int) string {
	left := lipgloss.NewStyle().Bold(true).Foreground(accentColor).Render("TAM")
	right := mutedStyle.Render(serverURL)
	return lipgloss.NewStyle().
		Padding(0, 1).
		Width(maxInt(20, width)).
		Render(lipgloss.JoinHorizontal(lipgloss.Top, left, lipgloss.NewStyle().PaddingLeft(2).Render(right)))
}

func renderPane(body string, width int) string {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#5E6472")).
		Padding(0, 1).
		Width(maxInt(20, width-2)).
		Render(body)
}

func renderHints(width int) string {
	hint := "Enter 전송 • Alt+Enter 줄바꿈 • ↑/↓ 입력 기록 • PgUp/PgDn 스크롤 • / 명령 • Ctrl+C 종료"
	return mutedStyle.Padding(0, 1).Width(maxInt(20, width)).Render(hint)
}

func renderHelp(width int) string {
	lines := []string{
		"/clear    채팅 기록 삭제 (y/n 확인)",
		"/history  서버 기록 다시 불러오기",
		"/copy     마지막 응답 복사",
		"/help     도움말 토글",
		"/quit     종료",
		"Esc       도움말/알림 닫기",
	}
	return mutedStyle.Padding(0, 1).Width(maxInt(20, width)).Render(strings.Join(lines, "\n"))
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

package chat

import (
	"strings"

	"tam-chat/internal/render"
)

// Role 对话角色。
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// NormalizeRole maps wire roles onto Role. Anything that is not the user (including the
// legacy "ai") is treated as the assistant.
func NormalizeRole(role string) Role {
	if strings.EqualFold(strings.TrimSpace(role), string(RoleUser)) {
		return RoleUser
	}
	return RoleAssistant
}

// Message is one entry of the visible transcript. It is never mutated after Append.
type Message struct {
	Role      Role
	Content   render.Decision
	Timestamp string
}

// Text returns a plain-text form of the content, used for copy and logs.
func (m Message) Text() string {
	switch v := m.Content.(type) {
	case render.PlainText:
		return v.Text
	case render.AuthPrompt:
		return v.URL
	case nil:
		return ""
	default:
		return render.TermRenderer{}.Render(v)
	}
}

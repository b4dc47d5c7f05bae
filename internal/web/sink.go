package web

import (
	"html/template"
	"sync"

	"tam-chat/internal/chat"
	"tam-chat/internal/render"
)

// renderedMessage 是已转换为 HTML 的一条消息。
type renderedMessage struct {
	Role      chat.Role
	HTML      template.HTML
	Timestamp string
}

// HTMLTranscript 是网页端的 Sink：追加时立即渲染，页面只读取结果。
type HTMLTranscript struct {
	renderer *render.HTMLRenderer

	mu       sync.Mutex
	messages []renderedMessage
}

func NewHTMLTranscript(renderer *render.HTMLRenderer, placeholder ...chat.Message) *HTMLTranscript {
	t := &HTMLTranscript{renderer: renderer}
	t.Reset(placeholder...)
	return t
}

func (t *HTMLTranscript) Append(msg chat.Message) {
	rendered := t.render(msg)
	t.mu.Lock()
	t.messages = append(t.messages, rendered)
	t.mu.Unlock()
}

func (t *HTMLTranscript) Reset(placeholder ...chat.Message) {
	rendered := make([]renderedMessage, 0, len(placeholder))
	for _, msg := range placeholder {
		rendered = append(rendered, t.render(msg))
	}
	t.mu.Lock()
	t.messages = rendered
	t.mu.Unlock()
}

func (t *HTMLTranscript) Messages() []renderedMessage {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]renderedMessage, len(t.messages))
	copy(out, t.messages)
	return out
}

// render 用户消息始终按纯文本转义；助手消息走渲染分发。
func (t *HTMLTranscript) render(msg chat.Message) renderedMessage {
	out := renderedMessage{Role: msg.Role, Timestamp: msg.Timestamp}
	if msg.Role == chat.RoleUser {
		out.HTML = render.PlainTextRenderer{}.RenderText(msg.Text())
		return out
	}
	html, err := t.renderer.Render(msg.Content)
	if err != nil {
		log.WithError(err).Warn("render message failed")
		html = render.PlainTextRenderer{}.RenderText(msg.Text())
	}
	out.HTML = html
	return out
}

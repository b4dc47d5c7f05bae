package tui

import "strings"

const maxPromptHistory = 500

// promptHistory 是 ↑/↓ 召回用的输入记录。back 为 0 时表示正在编辑草稿，
// back = n 表示显示倒数第 n 条。
type promptHistory struct {
	entries []string
	back    int
	draft   string
}

// Load 用持久化的记录替换当前内容，只保留最近的 maxPromptHistory 条。
func (h *promptHistory) Load(entries []string) {
	if len(entries) > maxPromptHistory {
		entries = entries[len(entries)-maxPromptHistory:]
	}
	h.entries = append(h.entries[:0:0], entries...)
	h.Stop()
}

// Remember 记录一次提交；与上一条相同的输入不重复保存。
func (h *promptHistory) Remember(text string) {
	text = strings.TrimSpace(text)
	if text != "" && (len(h.entries) == 0 || h.entries[len(h.entries)-1] != text) {
		h.entries = append(h.entries, text)
		if over := len(h.entries) - maxPromptHistory; over > 0 {
			h.entries = h.entries[over:]
		}
	}
	h.Stop()
}

func (h *promptHistory) Browsing() bool { return h.back > 0 }

func (h *promptHistory) Stop() {
	h.back = 0
	h.draft = ""
}

// Older 返回更早的一条；第一次调用时保存 draft。
func (h *promptHistory) Older(draft string) (string, bool) {
	if len(h.entries) == 0 {
		return "", false
	}
	if h.back == 0 {
		h.draft = draft
	}
	h.back = min(h.back+1, len(h.entries))
	return h.entries[len(h.entries)-h.back], true
}

// Newer 向草稿方向移动，越过最新一条时还原 draft。
func (h *promptHistory) Newer() (string, bool) {
	if h.back == 0 {
		return "", false
	}
	h.back--
	if h.back == 0 {
		draft := h.draft
		h.draft = ""
		return draft, true
	}
	return h.entries[len(h.entries)-h.back], true
}

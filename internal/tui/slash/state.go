package slash

import (
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"
)

// ActionKind 描述按键触发后的处理类型。
type ActionKind int

const (
	ActionNone ActionKind = iota
	ActionClose
	ActionInsert
	ActionSubmitCommand
	ActionError
)

// Action 汇总 Slash 处理结果。
type Action struct {
	Kind     ActionKind
	Command  Command
	NewValue string
	Args     string
	Message  string
}

// State 维护 slash 弹窗的匹配与选择状态。
type State struct {
	items    []Item
	matches  []match
	selected int
	open     bool
	token    string
	args     string
	maxLines int
}

type match struct {
	item       Item
	highlights []int
	score      int
}

// NewState 构造 slash 状态机；maxLines <= 0 时使用默认值。
func NewState(maxLines int) *State {
	if maxLines <= 0 {
		maxLines = 6
	}
	return &State{items: BuiltinItems(), maxLines: maxLines}
}

// Open 返回弹窗是否展示。
func (s *State) Open() bool {
	return s != nil && s.open
}

// Selected 返回当前选中的条目。
func (s *State) Selected() (Item, bool) {
	if s == nil || len(s.matches) == 0 {
		return Item{}, false
	}
	return s.matches[s.selected].item, true
}

// SyncInput 根据最新文本同步过滤列表与选中项。只有单行且仍在输入命令名时弹窗才打开。
func (s *State) SyncInput(value string) {
	if s == nil {
		return
	}
	token, args, ok := parseToken(value)
	s.token, s.args = token, args
	if !ok || strings.Contains(value, "\n") || strings.ContainsAny(value, " \t") {
		s.open = false
		s.matches = nil
		return
	}
	s.open = true
	s.matches = filterMatches(s.items, token)
	if s.selected >= len(s.matches) {
		s.selected = 0
	}
}

// ResolveSubmit 按 Enter 行为解析当前输入，不依赖弹窗是否打开。
// 非斜杠输入返回 ActionNone，由调用方当作普通消息发送。
func (s *State) ResolveSubmit(value string) Action {
	token, args, ok := parseToken(value)
	if !ok || token == "" {
		return Action{Kind: ActionNone}
	}
	for _, item := range s.items {
		if item.matches(token) {
			return Action{Kind: ActionSubmitCommand, Command: item.Command, Args: args}
		}
	}
	return Action{Kind: ActionError, Message: "/" + token}
}

// HandleKey 处理弹窗打开时的按键，第二个返回值表示按键是否被消费。
func (s *State) HandleKey(key string) (Action, bool) {
	if s == nil || !s.open {
		return Action{}, false
	}
	switch key {
	case "up", "ctrl+p":
		if len(s.matches) == 0 {
			return Action{Kind: ActionClose}, true
		}
		s.selected--
		if s.selected < 0 {
			s.selected = len(s.matches) - 1
		}
		return Action{Kind: ActionNone}, true
	case "down", "ctrl+n":
		if len(s.matches) == 0 {
			return Action{Kind: ActionClose}, true
		}
		s.selected++
		if s.selected >= len(s.matches) {
			s.selected = 0
		}
		return Action{Kind: ActionNone}, true
	case "esc":
		s.open = false
		return Action{Kind: ActionClose}, true
	case "tab":
		item, ok := s.Selected()
		if !ok {
			return Action{Kind: ActionError, Message: "/" + s.token}, true
		}
		return Action{Kind: ActionInsert, Command: item.Command, NewValue: item.DisplayName()}, true
	case "enter":
		item, ok := s.Selected()
		if !ok {
			return Action{Kind: ActionError, Message: "/" + s.token}, true
		}
		s.open = false
		return Action{Kind: ActionSubmitCommand, Command: item.Command, Args: s.args}, true
	default:
		return Action{}, false
	}
}

// Close 关闭弹窗并清除匹配。
func (s *State) Close() {
	if s == nil {
		return
	}
	s.open = false
	s.matches = nil
	s.selected = 0
}

func parseToken(value string) (token string, args string, ok bool) {
	line := strings.TrimLeft(value, " ")
	if !strings.HasPrefix(line, "/") {
		return "", "", false
	}
	line = strings.TrimPrefix(line, "/")
	if idx := strings.IndexAny(line, " \t\n"); idx >= 0 {
		return line[:idx], strings.TrimSpace(line[idx+1:]), true
	}
	return line, "", true
}

func filterMatches(items []Item, query string) []match {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		matches := make([]match, 0, len(items))
		for _, item := range items {
			matches = append(matches, match{item: item})
		}
		return matches
	}

	keys := make([]string, 0, len(items))
	for _, item := range items {
		keys = append(keys, strings.ToLower(item.Token()))
	}
	results := fuzzy.Find(strings.ToLower(trimmed), keys)
	matches := make([]match, 0, len(results))
	for _, res := range results {
		matches = append(matches, match{
			item:       items[res.Index],
			highlights: res.MatchedIndexes,
			score:      res.Score,
		})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].score == matches[j].score {
			return matches[i].item.Token() < matches[j].item.Token()
		}
		return matches[i].score > matches[j].score
	})
	return matches
}

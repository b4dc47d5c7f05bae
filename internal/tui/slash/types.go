package slash

import "strings"

// Command 表示内置斜杠命令的标识符。
type Command string

const (
	CommandClear   Command = "clear"
	CommandHistory Command = "history"
	CommandCopy    Command = "copy"
	CommandHelp    Command = "help"
	CommandQuit    Command = "quit"
)

// Item 代表弹窗中的一行条目。
type Item struct {
	Command     Command
	Description string
	// Aliases 也参与精确匹配，不在列表中展示。
	Aliases []string
}

// Token 返回无前导斜杠的匹配键。
func (i Item) Token() string {
	return string(i.Command)
}

// DisplayName 返回带前缀斜杠的展示名称。
func (i Item) DisplayName() string {
	token := i.Token()
	if token == "" {
		return ""
	}
	if strings.HasPrefix(token, "/") {
		return token
	}
	return "/" + token
}

func (i Item) matches(token string) bool {
	if strings.EqualFold(i.Token(), token) {
		return true
	}
	for _, a := range i.Aliases {
		if strings.EqualFold(a, token) {
			return true
		}
	}
	return false
}

// BuiltinItems 返回内置命令，顺序即展示顺序。
func BuiltinItems() []Item {
	return []Item{
		{Command: CommandClear, Description: "clear the chat history (asks first)"},
		{Command: CommandHistory, Description: "reload the history from the server"},
		{Command: CommandCopy, Description: "copy the last reply to the clipboard"},
		{Command: CommandHelp, Description: "show key bindings and commands", Aliases: []string{"?"}},
		{Command: CommandQuit, Description: "exit", Aliases: []string{"exit", "q"}},
	}
}

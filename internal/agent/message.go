package agent

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// ToolCall 是模型请求的一次函数调用，Arguments 为原始 JSON 字符串。
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

type Message struct {
	Role    Role
	Content string
	// ToolCalls 仅用于 assistant 消息。
	ToolCalls []ToolCall
	// ToolCallID 仅用于 tool 消息，对应被回复的调用。
	ToolCallID string
	// ToolName 为 tool 消息记录工具名（部分提供方需要）。
	ToolName string
}

func SystemMessage(text string) Message    { return Message{Role: RoleSystem, Content: text} }
func UserMessage(text string) Message      { return Message{Role: RoleUser, Content: text} }
func AssistantMessage(text string) Message { return Message{Role: RoleAssistant, Content: text} }

func ToolResultMessage(call ToolCall, content string) Message {
	return Message{Role: RoleTool, Content: content, ToolCallID: call.ID, ToolName: call.Name}
}

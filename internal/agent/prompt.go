package agent

// ToolSpec 描述可供模型调用的工具定义，遵循 function 工具的通用 schema 约定。
type ToolSpec struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// Prompt 代表一次模型调用的完整请求，包括模型、消息与工具配置。
type Prompt struct {
	Model    string
	Messages []Message
	Tools    []ToolSpec
}

// Completion 为一次模型调用的结果：文本或工具调用（或两者）。
type Completion struct {
	Content   string
	ToolCalls []ToolCall
}

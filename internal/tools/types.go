package tools

import (
	"context"
	"encoding/json"

	"tam-chat/internal/agent"
)

// Handler 定义具体工具的执行入口。
type Handler interface {
	Name() string
	Spec() agent.ToolSpec
	Handle(ctx context.Context, args json.RawMessage) (map[string]any, error)
}

type ToolResult struct {
	ID     string
	Name   string
	Status string // completed|error
	Output map[string]any
	Error  string
}

// JSON 返回回传给模型的 tool 消息内容。
func (r ToolResult) JSON() string {
	payload := r.Output
	if r.Status == "error" {
		payload = map[string]any{"error": r.Error}
	}
	if payload == nil {
		payload = map[string]any{}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return `{"error":"unencodable tool result"}`
	}
	return string(raw)
}

// HandlerFunc 把普通函数包装成 Handler。
type HandlerFunc struct {
	ToolSpec agent.ToolSpec
	Fn       func(ctx context.Context, args json.RawMessage) (map[string]any, error)
}

func (h HandlerFunc) Name() string         { return h.ToolSpec.Name }
func (h HandlerFunc) Spec() agent.ToolSpec { return h.ToolSpec }
func (h HandlerFunc) Handle(ctx context.Context, args json.RawMessage) (map[string]any, error) {
	return h.Fn(ctx, args)
}

func objectSchema(properties map[string]any, required ...string) map[string]any {
	if required == nil {
		required = []string{}
	}
	return map[string]any{
		"type":       "object",
		"properties": properties,
		"required":   required,
	}
}

func prop(kind, desc string) map[string]any {
	return map[string]any{"type": kind, "description": desc}
}

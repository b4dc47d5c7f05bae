package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"tam-chat/internal/agent"
)

type Registry struct {
	handlers map[string]Handler
	order    []string
}

func NewRegistry(handlers ...Handler) *Registry {
	r := &Registry{handlers: make(map[string]Handler, len(handlers))}
	for _, h := range handlers {
		r.Register(h)
	}
	return r
}

// Register 添加或替换同名 handler，保留首次注册的顺序。
func (r *Registry) Register(h Handler) {
	if h == nil {
		return
	}
	name := h.Name()
	if _, exists := r.handlers[name]; !exists {
		r.order = append(r.order, name)
	}
	r.handlers[name] = h
}

func (r *Registry) Handler(name string) (Handler, bool) {
	h, ok := r.handlers[name]
	return h, ok
}

func (r *Registry) Specs() []agent.ToolSpec {
	specs := make([]agent.ToolSpec, 0, len(r.order))
	for _, name := range r.order {
		specs = append(specs, r.handlers[name].Spec())
	}
	return specs
}

// Execute 运行一次工具调用；失败以 error 状态的结果返回，不向上抛出。
func (r *Registry) Execute(ctx context.Context, call agent.ToolCall) ToolResult {
	h, ok := r.Handler(call.Name)
	logToolRequest(call, ok)
	start := time.Now()

	result := ToolResult{ID: call.ID, Name: call.Name, Status: "completed"}
	if !ok {
		result.Status = "error"
		result.Error = fmt.Sprintf("알 수 없는 함수: %s", call.Name)
		logToolResult(call, result, time.Since(start))
		return result
	}

	args := json.RawMessage(strings.TrimSpace(call.Arguments))
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	if !json.Valid(args) {
		result.Status = "error"
		result.Error = "invalid tool arguments"
		logToolResult(call, result, time.Since(start))
		return result
	}

	out, err := h.Handle(ctx, args)
	if err != nil {
		result.Status = "error"
		result.Error = err.Error()
	} else {
		result.Output = out
	}
	logToolResult(call, result, time.Since(start))
	return result
}

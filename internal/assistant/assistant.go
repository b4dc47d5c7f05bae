// Package assistant runs one chat exchange against a model client, executing
// tool calls until the model produces a final answer.
package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"tam-chat/internal/agent"
	"tam-chat/internal/logger"
	"tam-chat/internal/render"
	"tam-chat/internal/reply"
	"tam-chat/internal/tools"
)

const DefaultMaxToolRounds = 5

var log = logger.Named("assistant")

type Options struct {
	Client        agent.ModelClient
	Tools         *tools.Registry
	Model         string
	System        string
	MaxToolRounds int
	// LoginURL 用于模型文本提示 Kakao 认证失败时生成登录按钮。
	LoginURL string
}

type Assistant struct {
	client    agent.ModelClient
	tools     *tools.Registry
	model     string
	system    string
	maxRounds int
	loginURL  string
}

func New(opts Options) (*Assistant, error) {
	if opts.Client == nil {
		return nil, errors.New("assistant: model client is required")
	}
	rounds := opts.MaxToolRounds
	if rounds <= 0 {
		rounds = DefaultMaxToolRounds
	}
	registry := opts.Tools
	if registry == nil {
		registry = tools.NewRegistry()
	}
	return &Assistant{
		client:    opts.Client,
		tools:     registry,
		model:     opts.Model,
		system:    opts.System,
		maxRounds: rounds,
		loginURL:  opts.LoginURL,
	}, nil
}

// Reply 以 history（最后一条为本轮用户输入）生成回复。
// 工具结果若能被渲染器识别为结构化结果，则原样返回该结果。
func (a *Assistant) Reply(ctx context.Context, history []agent.Message) (reply.Raw, error) {
	messages := make([]agent.Message, 0, len(history)+1)
	if strings.TrimSpace(a.system) != "" {
		messages = append(messages, agent.SystemMessage(a.system))
	}
	messages = append(messages, history...)

	completion, err := a.complete(ctx, messages, 0)
	if err != nil {
		return reply.Raw{}, err
	}

	var structured reply.Raw
	for round := 1; len(completion.ToolCalls) > 0 && round <= a.maxRounds; round++ {
		messages = append(messages, agent.Message{
			Role:      agent.RoleAssistant,
			Content:   completion.Content,
			ToolCalls: completion.ToolCalls,
		})
		for _, call := range completion.ToolCalls {
			logger.LLMLog.ToolCall(call.Name, call.Arguments, round)
			result := a.tools.Execute(ctx, call)
			a.attachLoginURL(result.Output)
			content := result.JSON()
			logger.LLMLog.ToolResult(call.Name, content, round)
			messages = append(messages, agent.ToolResultMessage(call, content))

			if raw, ok := structuredResult(content); ok {
				structured = raw
			}
		}
		if err := ctx.Err(); err != nil {
			return reply.Raw{}, err
		}
		completion, err = a.complete(ctx, messages, round)
		if err != nil {
			return reply.Raw{}, err
		}
	}
	if len(completion.ToolCalls) > 0 {
		log.Warnf("tool rounds exhausted (max=%d); returning partial answer", a.maxRounds)
	}

	if !structured.IsZero() {
		return structured, nil
	}
	text := strings.TrimSpace(completion.Content)
	if a.loginURL != "" && NeedsKakaoLogin(text) {
		return reply.FromValue(AuthPayload(a.loginURL)), nil
	}
	return reply.Text(text), nil
}

func (a *Assistant) complete(ctx context.Context, messages []agent.Message, round int) (agent.Completion, error) {
	logger.LLMLog.Request(a.model, agent.ToLLMMessages(messages), round)
	completion, err := a.client.Complete(ctx, agent.Prompt{
		Model:    a.model,
		Messages: messages,
		Tools:    a.tools.Specs(),
	})
	if err != nil {
		logger.LLMLog.Error(a.model, err, round)
		return agent.Completion{}, fmt.Errorf("model completion: %w", err)
	}
	logger.LLMLog.Response(a.model, completion.Content, round)
	return completion, nil
}

// attachLoginURL 为工具返回的 Kakao 认证失败结果补上登录地址。
func (a *Assistant) attachLoginURL(out map[string]any) {
	if a.loginURL == "" || out == nil {
		return
	}
	if required, _ := out["auth_required"].(bool); !required {
		return
	}
	if url, _ := out["auth_url"].(string); url == "" {
		out["auth_url"] = a.loginURL
	}
}

// structuredResult 判断工具输出是否为可直接展示的结构化结果。
func structuredResult(content string) (reply.Raw, bool) {
	raw, err := reply.Decode([]byte(content))
	if err != nil {
		return reply.Raw{}, false
	}
	switch render.Classify(raw).(type) {
	case render.PlainText, render.MarkdownTable:
		return reply.Raw{}, false
	default:
		return raw, true
	}
}

// NeedsKakaoLogin 粗略判断模型文本是否在提示 Kakao 认证失败。
func NeedsKakaoLogin(text string) bool {
	lower := strings.ToLower(text)
	if strings.Contains(lower, "401") && strings.Contains(lower, "kakao") {
		return true
	}
	if strings.Contains(text, "카카오") && (strings.Contains(text, "인증") || strings.Contains(text, "로그인")) {
		return true
	}
	return false
}

func AuthPayload(loginURL string) map[string]any {
	return map[string]any{
		"auth_required": true,
		"auth_url":      loginURL,
		"provider":      "kakao",
	}
}

// ContentForModel 把已保存的回复转换成模型上下文中的文本。
func ContentForModel(r reply.Raw) string {
	if s, ok := r.Text(); ok {
		return s
	}
	raw, err := json.Marshal(r)
	if err != nil {
		return r.String()
	}
	return string(raw)
}

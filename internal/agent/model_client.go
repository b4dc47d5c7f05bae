package agent

import (
	"context"
	"errors"

	"tam-chat/internal/logger"
)

// ModelClient 定义模型客户端接口
type ModelClient interface {
	Complete(ctx context.Context, prompt Prompt) (Completion, error)
}

// EchoClient is a fallback when no API key is available.
type EchoClient struct {
	Prefix string
}

func (c EchoClient) Complete(_ context.Context, prompt Prompt) (Completion, error) {
	for i := len(prompt.Messages) - 1; i >= 0; i-- {
		if prompt.Messages[i].Role == RoleUser {
			return Completion{Content: c.Prefix + prompt.Messages[i].Content}, nil
		}
	}
	return Completion{}, errors.New("no messages to echo")
}

// ToLLMMessages 将内部消息转换为日志友好的结构。
func ToLLMMessages(msgs []Message) []logger.LLMMessage {
	out := make([]logger.LLMMessage, 0, len(msgs))
	for _, msg := range msgs {
		content := msg.Content
		if content == "" && len(msg.ToolCalls) > 0 {
			content = "[tool_calls]"
			for _, call := range msg.ToolCalls {
				content += " " + call.Name
			}
		}
		out = append(out, logger.LLMMessage{
			Role:    string(msg.Role),
			Content: content,
		})
	}
	return out
}

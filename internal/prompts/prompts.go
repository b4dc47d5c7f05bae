package prompts

import (
	"fmt"
	"os"
	"strings"

	"tam-chat/internal/i18n"
)

// LoadSystemPrompt 读取自定义系统提示词；path 为空时使用内置版本。
func LoadSystemPrompt(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return builtinPrompts[PromptSystem], nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read system prompt: %w", err)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return builtinPrompts[PromptSystem], nil
	}
	return text, nil
}

// ComposeSystem 把系统提示词与语言指令拼接成一条 system 消息。
func ComposeSystem(system string, lang i18n.Language) string {
	parts := make([]string, 0, 2)
	if s := strings.TrimSpace(system); s != "" {
		parts = append(parts, s)
	}
	parts = append(parts, BuildLanguagePrompt(lang))
	return strings.Join(parts, "\n\n")
}

package prompts

import (
	"fmt"
	"strings"

	"tam-chat/internal/i18n"
)

const languagePromptPlaceholder = "{{PREFERRED_LANGUAGE}}"

// BuildLanguagePrompt 构造输出语言提示词（默认韩语）。
func BuildLanguagePrompt(lang i18n.Language) string {
	preferred := i18n.Normalize(lang.Code())
	display := strings.TrimSpace(preferred.DisplayName())
	if display == "" {
		display = i18n.DefaultLanguage.DisplayName()
	}
	if templateText, ok := builtinPrompts[PromptLanguage]; ok {
		rendered := strings.TrimSpace(strings.ReplaceAll(templateText, languagePromptPlaceholder, display))
		if rendered != "" {
			return rendered
		}
	}
	return fmt.Sprintf("Respond in %s unless the user explicitly requests another language.", display)
}

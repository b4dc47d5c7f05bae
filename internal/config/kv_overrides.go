package config

import (
	"strconv"
	"strings"
)

// ApplyKVOverrides applies free-form -c key=value overrides.
func ApplyKVOverrides(cfg Config, overrides []string) Config {
	if len(overrides) == 0 {
		return cfg
	}
	for _, raw := range overrides {
		parts := strings.SplitN(raw, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		val := strings.TrimSpace(parts[1])
		switch key {
		case "server_url", "url":
			cfg.ServerURL = val
		case "listen":
			cfg.Listen = val
		case "provider":
			cfg.Provider = val
		case "anthropic.token":
			cfg.Anthropic.Token = val
		case "anthropic.base_url":
			cfg.Anthropic.BaseURL = val
		case "anthropic.model":
			cfg.Anthropic.Model = val
		case "model":
			cfg.Model = val
		case "api_key":
			cfg.APIKey = val
		case "base_url":
			cfg.BaseURL = val
		case "language", "lang":
			cfg.Language = val
		case "system_prompt_path":
			cfg.SystemPromptPath = val
		case "history_backend":
			cfg.HistoryBackend = val
		case "history_path":
			cfg.HistoryPath = val
		case "markdown":
			if b, err := strconv.ParseBool(val); err == nil {
				cfg.Markdown = b
			}
		case "request_timeout_seconds", "timeout":
			if n, err := strconv.Atoi(val); err == nil && n >= 0 {
				cfg.RequestTimeoutSecs = n
			}
		case "max_tool_rounds":
			if n, err := strconv.Atoi(val); err == nil && n >= 0 {
				cfg.MaxToolRounds = n
			}
		case "context_messages":
			if n, err := strconv.Atoi(val); err == nil && n > 0 {
				cfg.ContextMessages = n
			}
		case "log_level":
			cfg.LogLevel = val
		case "github.token":
			cfg.GitHub.Token = val
		case "github.api_base":
			cfg.GitHub.APIBase = val
		case "github.default_user":
			cfg.GitHub.DefaultUser = val
		case "kakao.access_token":
			cfg.Kakao.AccessToken = val
		case "kakao.admin_key":
			cfg.Kakao.AdminKey = val
		case "kakao.api_base":
			cfg.Kakao.APIBase = val
		case "kakao.login_url":
			cfg.Kakao.LoginURL = val
		case "kakao.token_path":
			cfg.Kakao.TokenPath = val
		case "data_dir":
			cfg.DataDir = val
		case "famous_saying_url":
			cfg.FamousSayingURL = val
		case "devtalk.host":
			cfg.Devtalk.Host = val
		case "devtalk.api_key":
			cfg.Devtalk.APIKey = val
		case "devtalk.api_username":
			cfg.Devtalk.APIUsername = val
		case "devtalk.reply_api_key":
			cfg.Devtalk.ReplyKey = val
		case "devtalk.reply_api_username":
			cfg.Devtalk.ReplyUsername = val
		case "tam_admin.host":
			cfg.TamAdmin.Host = val
		}
	}
	return cfg
}

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config is the persisted config file schema. Environment variables (and a local .env
// file) override file values.
type Config struct {
	ServerURL          string `toml:"server_url" yaml:"server_url" env:"TAM_SERVER_URL"`
	Listen             string `toml:"listen" yaml:"listen" env:"TAM_LISTEN"`
	Provider           string `toml:"provider" yaml:"provider" env:"TAM_PROVIDER"`
	Model              string `toml:"model" yaml:"model" env:"TAM_MODEL"`
	APIKey             string `toml:"api_key" yaml:"api_key" env:"OPENAI_API_KEY"`
	BaseURL            string `toml:"base_url" yaml:"base_url" env:"OPENAI_BASE_URL"`
	Language           string `toml:"language" yaml:"language" env:"TAM_LANGUAGE"`
	SystemPromptPath   string `toml:"system_prompt_path" yaml:"system_prompt_path" env:"TAM_SYSTEM_PROMPT_PATH"`
	HistoryBackend     string `toml:"history_backend" yaml:"history_backend" env:"TAM_HISTORY_BACKEND"`
	HistoryPath        string `toml:"history_path" yaml:"history_path" env:"TAM_HISTORY_PATH"`
	Markdown           bool   `toml:"markdown" yaml:"markdown" env:"TAM_MARKDOWN"`
	RequestTimeoutSecs int    `toml:"request_timeout_seconds" yaml:"request_timeout_seconds" env:"TAM_REQUEST_TIMEOUT"`
	MaxToolRounds      int    `toml:"max_tool_rounds" yaml:"max_tool_rounds" env:"TAM_MAX_TOOL_ROUNDS"`
	ContextMessages    int    `toml:"context_messages" yaml:"context_messages" env:"TAM_CONTEXT_MESSAGES"`
	LogLevel           string `toml:"log_level" yaml:"log_level" env:"TAM_LOG_LEVEL"`
	DataDir            string `toml:"data_dir" yaml:"data_dir" env:"TAM_DATA_DIR"`

	Anthropic AnthropicConfig `toml:"anthropic" yaml:"anthropic"`
	GitHub    GitHubConfig    `toml:"github" yaml:"github"`
	Kakao     KakaoConfig     `toml:"kakao" yaml:"kakao"`
	Devtalk   DevtalkConfig   `toml:"devtalk" yaml:"devtalk"`
	TamAdmin  TamAdminConfig  `toml:"tam_admin" yaml:"tam_admin"`

	FamousSayingURL string `toml:"famous_saying_url" yaml:"famous_saying_url" env:"FAMOUSSAYING_API_URL"`

	Source string `toml:"-" yaml:"-"`
}

// AnthropicConfig 仅在 provider = "anthropic" 时使用。
type AnthropicConfig struct {
	Token   string `toml:"token" yaml:"token" env:"ANTHROPIC_AUTH_TOKEN"`
	BaseURL string `toml:"base_url" yaml:"base_url" env:"ANTHROPIC_BASE_URL"`
	Model   string `toml:"model" yaml:"model" env:"ANTHROPIC_MODEL"`
}

type GitHubConfig struct {
	Token       string `toml:"token" yaml:"token" env:"GITHUB_TOKEN"`
	APIBase     string `toml:"api_base" yaml:"api_base" env:"GITHUB_API_BASE"`
	DefaultUser string `toml:"default_user" yaml:"default_user" env:"GITHUB_DEFAULT_USER"`
}

type KakaoConfig struct {
	AccessToken string `toml:"access_token" yaml:"access_token" env:"KAKAO_ACCESS_TOKEN"`
	AdminKey    string `toml:"admin_key" yaml:"admin_key" env:"KAKAO_ADMIN_KEY"`
	APIBase     string `toml:"api_base" yaml:"api_base" env:"KAKAO_API_BASE_URL"`
	LoginURL    string `toml:"login_url" yaml:"login_url" env:"KAKAO_LOGIN_URL"`
	TokenPath   string `toml:"token_path" yaml:"token_path" env:"KAKAO_TOKEN_PATH"`
}

// DevtalkConfig 查询与回帖使用不同的 API key。
type DevtalkConfig struct {
	Host          string `toml:"host" yaml:"host" env:"DEVTALK_HOST"`
	APIKey        string `toml:"api_key" yaml:"api_key" env:"DEVTALK_API_KEY"`
	APIUsername   string `toml:"api_username" yaml:"api_username" env:"DEVTALK_API_USERNAME"`
	ReplyKey      string `toml:"reply_api_key" yaml:"reply_api_key" env:"DEVTALK_REPLY_API_KEY"`
	ReplyUsername string `toml:"reply_api_username" yaml:"reply_api_username" env:"DEVTALK_REPLY_API_USERNAME"`
}

type TamAdminConfig struct {
	Host string `toml:"host" yaml:"host" env:"TAM_ADMIN_API_HOST"`
}

// DotenvPath is read before the config file; a missing file is not an error.
var DotenvPath = ".env"

func Default() Config {
	return Config{
		ServerURL:          "http://127.0.0.1:5002",
		Listen:             "127.0.0.1:5002",
		Provider:           "openai",
		Model:              "gpt-4o-mini",
		Language:           "ko",
		HistoryBackend:     "jsonl",
		RequestTimeoutSecs: 30,
		MaxToolRounds:      5,
		ContextMessages:    10,
		LogLevel:           "info",
		DataDir:            "data",
		FamousSayingURL:    "http://test-tam.pe.kr/api/famoussaying",
		GitHub: GitHubConfig{
			APIBase: "https://api.github.com",
		},
		Kakao: KakaoConfig{
			APIBase:  "https://kapi.kakao.com",
			LoginURL: "http://127.0.0.1:5003/mcp/kakao/login",
		},
		Devtalk: DevtalkConfig{
			Host: "https://devtalk.kakao.com",
		},
	}
}

func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".tam", "config.toml")
}

func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultPath()
	}
	if path == "" {
		return cfg, errors.New("config path is empty and $HOME is not set")
	}
	cfg.Source = path

	if err := loadDotenv(DotenvPath); err != nil {
		return cfg, err
	}

	content, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return cfg, err
	default:
		if err := decode(path, content, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// RequestTimeout returns the per-exchange timeout; zero disables it.
func (c Config) RequestTimeout() time.Duration {
	if c.RequestTimeoutSecs <= 0 {
		return 0
	}
	return time.Duration(c.RequestTimeoutSecs) * time.Second
}

func decode(path string, content []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(content, cfg)
	default:
		return toml.Unmarshal(content, cfg)
	}
}

func loadDotenv(path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	// godotenv never overrides variables that are already set.
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// applyEnv binds non-empty environment variables onto cfg.
func applyEnv(cfg *Config) error {
	environ := map[string]string{}
	for _, kv := range os.Environ() {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 || strings.TrimSpace(parts[1]) == "" {
			continue
		}
		environ[parts[0]] = strings.TrimSpace(parts[1])
	}
	if err := env.ParseWithOptions(cfg, env.Options{Environment: environ}); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}
	return nil
}

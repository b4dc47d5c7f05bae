package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"tam-chat/internal/agent"
	anthropicmodel "tam-chat/internal/agent/anthropic"
	openaimodel "tam-chat/internal/agent/openai"
	"tam-chat/internal/assistant"
	"tam-chat/internal/config"
	"tam-chat/internal/history"
	"tam-chat/internal/i18n"
	"tam-chat/internal/logger"
	"tam-chat/internal/prompts"
	"tam-chat/internal/server"
	"tam-chat/internal/support"
	"tam-chat/internal/tools"
	"tam-chat/internal/web"
)

func serveMain(ctx context.Context, root rootArgs, args []string) {
	if err := runServe(ctx, root, args); err != nil {
		log.Fatalf("serve: %v", err)
	}
}

func runServe(ctx context.Context, root rootArgs, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var cfgPath, listen string
	var overrides stringSlice
	fs.StringVar(&cfgPath, "config", "", "Path to config file (default ~/.tam/config.toml)")
	fs.StringVar(&listen, "listen", "", "Listen address (default from config)")
	fs.Var(&overrides, "c", "Override config value key=value (repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(root, cfgPath, overrides)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if strings.TrimSpace(listen) != "" {
		cfg.Listen = strings.TrimSpace(listen)
	}

	if logFile, _, err := logger.SetupFile(logger.DefaultLogPath); err != nil {
		log.Warnf("failed to initialize log file: %v", err)
	} else {
		defer logFile.Close()
	}
	if toolsCloser, _, err := tools.SetupToolsLog(tools.DefaultToolsLogPath); err != nil {
		log.Warnf("failed to initialize tools log (%s): %v", tools.DefaultToolsLogPath, err)
	} else if toolsCloser != nil {
		defer toolsCloser.Close()
	}
	if llmCloser, err := logger.SetupLLMFile(logger.DefaultLLMLogPath); err != nil {
		log.Warnf("failed to initialize llm log (%s): %v", logger.DefaultLLMLogPath, err)
	} else {
		defer llmCloser.Close()
	}
	httpLog := logger.Named("http")
	if entry, closer, _, err := logger.SetupComponentFile("http", logger.DefaultHTTPLogPath); err != nil {
		log.Warnf("failed to initialize http log (%s): %v", logger.DefaultHTTPLogPath, err)
	} else {
		httpLog = entry
		if closer != nil {
			defer closer.Close()
		}
	}

	app, err := buildApp(cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           server.AccessLog(app.Handler, httpLog),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.WithFields(logger.Fields{"listen": cfg.Listen, "provider": cfg.Provider}).Info("serving chat")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// app 是 serve 与 chat -local 共用的进程内组装结果。
type app struct {
	Handler http.Handler
	API     http.Handler
	store   history.Store
}

func (a *app) Close() error {
	if a == nil || a.store == nil {
		return nil
	}
	return a.store.Close()
}

func buildApp(cfg config.Config) (*app, error) {
	lang := i18n.Normalize(cfg.Language)

	system, err := prompts.LoadSystemPrompt(cfg.SystemPromptPath)
	if err != nil {
		return nil, fmt.Errorf("load system prompt: %w", err)
	}
	client, model, err := buildModelClient(cfg)
	if err != nil {
		return nil, err
	}
	desk, err := support.Open(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("open support data: %w", err)
	}
	httpClient := &http.Client{Timeout: cfg.RequestTimeout()}
	asst, err := assistant.New(assistant.Options{
		Client:        client,
		Tools:         tools.NewDefaultRegistry(cfg, httpClient, desk),
		Model:         model,
		System:        prompts.ComposeSystem(system, lang),
		MaxToolRounds: cfg.MaxToolRounds,
		LoginURL:      cfg.Kakao.LoginURL,
	})
	if err != nil {
		return nil, err
	}

	store, err := history.Open(cfg.HistoryBackend, cfg.HistoryPath)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	api, err := server.New(server.Options{
		Responder:       asst,
		Store:           store,
		ContextMessages: cfg.ContextMessages,
		Language:        lang,
	})
	if err != nil {
		store.Close()
		return nil, err
	}
	widget, err := web.New(web.Options{
		API:      api.Handler(),
		Markdown: cfg.Markdown,
		Language: lang,
	})
	if err != nil {
		store.Close()
		return nil, err
	}

	mux := http.NewServeMux()
	api.Register(mux)
	widget.Register(mux)
	return &app{Handler: mux, API: api.Handler(), store: store}, nil
}

// buildModelClient 按 provider 选择模型客户端，缺少凭据时退回 echo 模式。
func buildModelClient(cfg config.Config) (agent.ModelClient, string, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	switch provider {
	case "", "openai":
		if strings.TrimSpace(cfg.APIKey) == "" {
			log.Warn("OPENAI_API_KEY is empty; falling back to echo mode")
			return agent.EchoClient{Prefix: "echo: "}, cfg.Model, nil
		}
		client, err := openaimodel.New(openaimodel.Options{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			MaxRetries: -1,
		})
		if err != nil {
			return nil, "", fmt.Errorf("init openai client: %w", err)
		}
		return client, cfg.Model, nil
	case "anthropic":
		model := strings.TrimSpace(cfg.Anthropic.Model)
		if model == "" {
			model = cfg.Model
		}
		client, err := anthropicmodel.New(anthropicmodel.Options{
			Token:   cfg.Anthropic.Token,
			BaseURL: cfg.Anthropic.BaseURL,
			Model:   model,
		})
		if err != nil {
			return nil, "", fmt.Errorf("init anthropic client: %w", err)
		}
		return client, model, nil
	case "echo":
		return agent.EchoClient{Prefix: "echo: "}, cfg.Model, nil
	default:
		return nil, "", fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"strings"

	"tam-chat/internal/history"
	"tam-chat/internal/i18n"
	"tam-chat/internal/logger"
	"tam-chat/internal/transport"
	"tam-chat/internal/tui"
)

// localBaseURL 是 -local 模式下进程内传输使用的虚拟地址。
const localBaseURL = "http://tam.internal"

func chatMain(ctx context.Context, root rootArgs, args []string) {
	if err := runChat(ctx, root, args); err != nil {
		log.Fatalf("chat: %v", err)
	}
}

func runChat(ctx context.Context, root rootArgs, args []string) error {
	fs := flag.NewFlagSet("chat", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var cfgPath, serverURL, session string
	var local, noHistory bool
	var overrides stringSlice
	fs.StringVar(&cfgPath, "config", "", "Path to config file (default ~/.tam/config.toml)")
	fs.StringVar(&serverURL, "url", "", "Chat server URL (default from config)")
	fs.StringVar(&session, "session", "terminal", "Session id sent as X-Chat-Session")
	fs.BoolVar(&local, "local", false, "Run the chat server in-process instead of connecting over the network")
	fs.BoolVar(&noHistory, "no-prompt-history", false, "Do not persist typed prompts")
	fs.Var(&overrides, "c", "Override config value key=value (repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(root, cfgPath, overrides)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	// TUI 占用终端，日志只写文件
	if logFile, _, err := logger.SetupFile(logger.DefaultLogPath); err != nil {
		return fmt.Errorf("initialize log file: %w", err)
	} else {
		defer logFile.Close()
	}

	opts := []transport.Option{
		transport.WithTimeout(cfg.RequestTimeout()),
		transport.WithSession(session),
	}
	base := strings.TrimSpace(serverURL)
	if base == "" {
		base = cfg.ServerURL
	}
	if local {
		a, err := buildApp(cfg)
		if err != nil {
			return err
		}
		defer a.Close()
		base = localBaseURL
		opts = append([]transport.Option{transport.WithHTTPClient(&http.Client{Transport: transport.InProcess(a.API)})}, opts...)
	}
	tr := transport.NewHTTP(base, opts...)
	if !local {
		if err := tr.Ping(ctx); err != nil {
			log.WithError(err).Warn("chat server is not reachable")
		}
	}

	var store *history.PromptStore
	if !noHistory {
		if s, err := history.NewDefaultPromptStore(); err != nil {
			log.Warnf("prompt history disabled: %v", err)
		} else {
			store = s
		}
	}

	_, err = tui.Run(tui.Options{
		Transport: tr,
		Language:  i18n.Normalize(cfg.Language),
		ServerURL: base,
		Prompts:   store,
	})
	return err
}

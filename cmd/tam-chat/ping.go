package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"tam-chat/internal/agent"
	"tam-chat/internal/transport"
)

func pingMain(ctx context.Context, root rootArgs, args []string) {
	if err := runPing(ctx, root, args, os.Stdout); err != nil {
		log.Fatalf("ping failed: %v", err)
	}
}

// runPing 默认检查聊天服务的 /healthz；-model 时改为向模型发送一次 ping。
func runPing(ctx context.Context, root rootArgs, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("ping", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var cfgPath, serverURL string
	var checkModel bool
	var timeoutSeconds int
	var overrides stringSlice
	fs.StringVar(&cfgPath, "config", "", "Path to config file (default ~/.tam/config.toml)")
	fs.StringVar(&serverURL, "url", "", "Chat server URL (default from config)")
	fs.BoolVar(&checkModel, "model", false, "Ping the configured model provider instead of the chat server")
	fs.IntVar(&timeoutSeconds, "timeout", 0, "Timeout seconds (default from config)")
	fs.Var(&overrides, "c", "Override config value key=value (repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(root, cfgPath, overrides)
	if err != nil {
		return err
	}
	timeout := cfg.RequestTimeout()
	if timeoutSeconds > 0 {
		timeout = time.Duration(timeoutSeconds) * time.Second
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if checkModel {
		client, model, err := buildModelClient(cfg)
		if err != nil {
			return err
		}
		if _, ok := client.(agent.EchoClient); ok {
			return errors.New("no model credentials configured")
		}
		got, err := client.Complete(ctx, agent.Prompt{
			Model: model,
			Messages: []agent.Message{
				agent.SystemMessage("Reply with exactly: pong"),
				agent.UserMessage("ping"),
			},
		})
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(out, "ok: %s\n", strings.TrimSpace(got.Content))
		return nil
	}

	base := strings.TrimSpace(serverURL)
	if base == "" {
		base = cfg.ServerURL
	}
	if err := transport.NewHTTP(base).Ping(ctx); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "ok: %s\n", base)
	return nil
}

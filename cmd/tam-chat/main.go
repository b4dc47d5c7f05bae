package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"tam-chat/internal/logger"
)

var log = logger.Named("main")

func main() {
	logger.Configure()

	root, rest, err := parseRootArgs(os.Args[1:])
	if err != nil {
		log.Fatalf("parse args: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(rest) > 0 {
		switch rest[0] {
		case "serve":
			serveMain(ctx, root, rest[1:])
			return
		case "chat":
			chatMain(ctx, root, rest[1:])
			return
		case "render":
			renderMain(root, rest[1:])
			return
		case "ping":
			pingMain(ctx, root, rest[1:])
			return
		case "init":
			initMain(root, rest[1:])
			return
		}
	}
	chatMain(ctx, root, rest)
}

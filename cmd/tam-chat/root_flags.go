package main

import (
	"flag"
	"io"
	"strings"

	"tam-chat/internal/config"
	"tam-chat/internal/logger"
)

type rootArgs struct {
	overrides []string
	cfgPath   string
}

func parseRootArgs(args []string) (rootArgs, []string, error) {
	fs := flag.NewFlagSet("tam-chat", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var overrides stringSlice
	var cfgPath string
	fs.Var(&overrides, "c", "Override config value key=value (repeatable, applied before subcommand overrides)")
	fs.StringVar(&cfgPath, "config", "", "Path to config file (default ~/.tam/config.toml)")
	if err := fs.Parse(args); err != nil {
		return rootArgs{}, nil, err
	}
	return rootArgs{overrides: append([]string{}, overrides...), cfgPath: cfgPath}, fs.Args(), nil
}

func prependOverrides(root []string, overrides []string) []string {
	merged := append([]string{}, root...)
	return append(merged, overrides...)
}

// loadConfig 读取配置文件并依次应用 root 与子命令的 -c 覆盖。
func loadConfig(root rootArgs, cfgPath string, overrides []string) (config.Config, error) {
	if strings.TrimSpace(cfgPath) == "" {
		cfgPath = root.cfgPath
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return cfg, err
	}
	cfg = config.ApplyKVOverrides(cfg, prependOverrides(root.overrides, overrides))
	if err := logger.SetLevel(cfg.LogLevel); err != nil {
		log.Warnf("%v", err)
	}
	return cfg, nil
}

package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"tam-chat/internal/config"
)

func initMain(root rootArgs, args []string) {
	if err := runInit(root, args, os.Stdout); err != nil {
		log.Fatalf("init: %v", err)
	}
}

// runInit 写出一份默认配置（叠加 -c 覆盖），已存在时需 -force。
func runInit(root rootArgs, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var cfgPath string
	var force bool
	var overrides stringSlice
	fs.StringVar(&cfgPath, "config", "", "Path to write (default ~/.tam/config.toml)")
	fs.BoolVar(&force, "force", false, "Overwrite an existing file")
	fs.Var(&overrides, "c", "Override config value key=value (repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(cfgPath) == "" {
		cfgPath = root.cfgPath
	}
	if strings.TrimSpace(cfgPath) == "" {
		cfgPath = config.DefaultPath()
	}
	if _, err := os.Stat(cfgPath); err == nil && !force {
		return fmt.Errorf("%s already exists (use -force to overwrite)", cfgPath)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	cfg := config.ApplyKVOverrides(config.Default(), prependOverrides(root.overrides, overrides))
	if err := config.Save(cfgPath, cfg); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "wrote %s\n", cfgPath)
	return nil
}

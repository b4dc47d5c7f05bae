package main

import (
	"path/filepath"
	"reflect"
	"testing"
)

func TestParseRootArgsStopsAtSubcommand(t *testing.T) {
	orig := []string{"serve", "--listen", ":9000"}
	root, rest, err := parseRootArgs(orig)
	if err != nil {
		t.Fatalf("parseRootArgs returned error: %v", err)
	}
	if len(root.overrides) != 0 || root.cfgPath != "" {
		t.Fatalf("expected empty root args, got %+v", root)
	}
	if !reflect.DeepEqual(rest, orig) {
		t.Fatalf("expected rest to preserve args %v, got %v", orig, rest)
	}
}

func TestParseRootArgsExtractsOverrides(t *testing.T) {
	args := []string{
		"-c", "model=m1",
		"-c=language=en",
		"--config", "/tmp/tam.toml",
		"chat",
	}
	root, rest, err := parseRootArgs(args)
	if err != nil {
		t.Fatalf("parseRootArgs returned error: %v", err)
	}
	if want := []string{"model=m1", "language=en"}; !reflect.DeepEqual(root.overrides, want) {
		t.Fatalf("unexpected overrides: got %v, want %v", root.overrides, want)
	}
	if root.cfgPath != "/tmp/tam.toml" {
		t.Fatalf("cfgPath = %q", root.cfgPath)
	}
	if !reflect.DeepEqual(rest, []string{"chat"}) {
		t.Fatalf("unexpected rest args: %v", rest)
	}
}

func TestLoadConfigAppliesOverridesInOrder(t *testing.T) {
	t.Setenv("TAM_MODEL", "")
	root := rootArgs{
		overrides: []string{"model=from-root", "language=en"},
		cfgPath:   filepath.Join(t.TempDir(), "config.toml"),
	}
	cfg, err := loadConfig(root, "", []string{"model=from-subcommand"})
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Model != "from-subcommand" || cfg.Language != "en" {
		t.Fatalf("cfg = %+v", cfg)
	}
}

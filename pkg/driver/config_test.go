package driver

import (
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/Unlimited-Development-Works/Intent/pkg/interpreter"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName)
	writeFile(t, path, `
exec_mode: treewalker
limits:
  max_steps: 5000
  max_depth: 64
fixtures:
  paths: [fixtures, /abs/suites]
  cache_dir: .cache
  sources:
    Shared-Suites:
      git: https://example.com/suites.git
      tag: v1
      dir: suites
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Path != path {
		t.Fatalf("Path = %q, want %q", cfg.Path, path)
	}
	if cfg.ExecMode != interpreter.ModeTreewalker {
		t.Fatalf("ExecMode = %q", cfg.ExecMode)
	}
	if cfg.Limits != (Limits{MaxSteps: 5000, MaxDepth: 64}) {
		t.Fatalf("Limits = %+v", cfg.Limits)
	}
	wantPaths := []string{filepath.Join(dir, "fixtures"), "/abs/suites"}
	if !reflect.DeepEqual(cfg.Fixtures.Paths, wantPaths) {
		t.Fatalf("Paths = %v, want %v", cfg.Fixtures.Paths, wantPaths)
	}
	if cfg.Fixtures.CacheDir != filepath.Join(dir, ".cache") {
		t.Fatalf("CacheDir = %q", cfg.Fixtures.CacheDir)
	}
	src := cfg.Fixtures.Sources["shared_suites"]
	if src == nil {
		t.Fatalf("missing shared_suites source: %#v", cfg.Fixtures.Sources)
	}
	if src.Git != "https://example.com/suites.git" || src.Tag != "v1" || src.Dir != "suites" {
		t.Fatalf("unexpected source %+v", src)
	}
	if got := cfg.SourceNames(); !reflect.DeepEqual(got, []string{"shared_suites"}) {
		t.Fatalf("SourceNames = %v", got)
	}
	if cfg.LockfilePath() != filepath.Join(dir, LockfileName) {
		t.Fatalf("LockfilePath = %q", cfg.LockfilePath())
	}
	opts := cfg.InterpreterOptions()
	if opts.Mode != interpreter.ModeTreewalker || opts.MaxSteps != 5000 || opts.MaxDepth != 64 {
		t.Fatalf("InterpreterOptions = %+v", opts)
	}
}

func TestLoadConfigRejectsInvalidFiles(t *testing.T) {
	cases := map[string]string{
		"unknown field":  "exec_modes: stack\n",
		"bad mode":       "exec_mode: bytecode\n",
		"negative limit": "limits:\n  max_steps: -1\n",
		"missing git":    "fixtures:\n  sources:\n    a:\n      rev: abc\n",
		"missing rev":    "fixtures:\n  sources:\n    a:\n      git: https://example.com/a.git\n",
	}
	for name, contents := range cases {
		path := filepath.Join(t.TempDir(), ConfigFileName)
		writeFile(t, path, contents)
		if _, err := LoadConfig(path); err == nil {
			t.Fatalf("%s: LoadConfig succeeded", name)
		}
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.ExecMode != interpreter.DefaultMode {
		t.Fatalf("ExecMode = %q", cfg.ExecMode)
	}
	if cfg.Limits != (Limits{}) {
		t.Fatalf("Limits = %+v", cfg.Limits)
	}
	if cfg.LockfilePath() != LockfileName {
		t.Fatalf("LockfilePath = %q", cfg.LockfilePath())
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"INTENT_EXEC_MODE": "treewalker",
		"INTENT_MAX_STEPS": "10",
		"INTENT_MAX_DEPTH": " 3 ",
		"INTENT_CACHE_DIR": "/tmp/intent-cache",
	}
	lookup := func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
	cfg := DefaultConfig()
	if err := cfg.ApplyEnv(lookup); err != nil {
		t.Fatalf("ApplyEnv: %v", err)
	}
	if cfg.ExecMode != interpreter.ModeTreewalker || cfg.Limits.MaxSteps != 10 || cfg.Limits.MaxDepth != 3 {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.Fixtures.CacheDir != "/tmp/intent-cache" {
		t.Fatalf("CacheDir = %q", cfg.Fixtures.CacheDir)
	}

	env = map[string]string{"INTENT_MAX_STEPS": "-4"}
	err := DefaultConfig().ApplyEnv(lookup)
	if err == nil || !strings.Contains(err.Error(), "INTENT_MAX_STEPS") {
		t.Fatalf("expected INTENT_MAX_STEPS error, got %v", err)
	}
}

func TestFindConfig(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, ConfigFileName)
	writeFile(t, path, "exec_mode: stack\n")
	nested := filepath.Join(root, "a", "b")
	writeFile(t, filepath.Join(nested, "placeholder"), "")

	found, err := FindConfig(nested)
	if err != nil {
		t.Fatalf("FindConfig: %v", err)
	}
	if found != path {
		t.Fatalf("FindConfig = %q, want %q", found, path)
	}

	if _, err := FindConfig(t.TempDir()); err != nil && !errors.Is(err, ErrConfigNotFound) {
		t.Fatalf("expected ErrConfigNotFound, got %v", err)
	}
}

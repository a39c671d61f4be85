package driver

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Unlimited-Development-Works/Intent/pkg/interpreter"
)

// ConfigFileName is the project configuration file searched for by FindConfig.
const ConfigFileName = "intent.yml"

// LockfileName sits next to the configuration file.
const LockfileName = "intent.lock"

var ErrConfigNotFound = errors.New(ConfigFileName + " not found")

// Config models intent.yml after defaults and environment overrides.
type Config struct {
	Path     string
	ExecMode interpreter.Mode
	Limits   Limits
	Fixtures FixtureConfig
}

// Limits bounds evaluation; zero means unbounded.
type Limits struct {
	MaxSteps int
	MaxDepth int
}

// FixtureConfig lists local suite roots and git sources of further suites.
type FixtureConfig struct {
	Paths    []string
	CacheDir string
	Sources  map[string]*FixtureSource
}

// FixtureSource pins a git repository holding fixture suites.
type FixtureSource struct {
	Name   string
	Git    string
	Rev    string
	Tag    string
	Branch string
	// Dir is the directory inside the repository that holds the suites.
	Dir string
}

// DefaultConfig returns the configuration used when no intent.yml exists.
func DefaultConfig() *Config {
	return &Config{
		ExecMode: interpreter.DefaultMode,
		Fixtures: FixtureConfig{
			Sources: map[string]*FixtureSource{},
		},
	}
}

// LoadConfig parses intent.yml from disk. Relative fixture paths resolve
// against the file's directory.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config: empty path")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("config: resolve %s: %w", path, err)
	}
	file, err := os.Open(abs)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var raw configDisk
	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(&raw); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", abs, err)
	}

	cfg, err := raw.toConfig(filepath.Dir(abs))
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", abs, err)
	}
	cfg.Path = abs
	return cfg, nil
}

// FindConfig walks from dir towards the filesystem root looking for intent.yml.
func FindConfig(dir string) (string, error) {
	start, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("config: resolve %s: %w", dir, err)
	}
	current := start
	for {
		candidate := filepath.Join(current, ConfigFileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
		parent := filepath.Dir(current)
		if parent == current {
			return "", ErrConfigNotFound
		}
		current = parent
	}
}

// ApplyEnv overrides settings from INTENT_* variables.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if raw, ok := lookup("INTENT_EXEC_MODE"); ok && strings.TrimSpace(raw) != "" {
		mode, err := interpreter.ParseMode(raw)
		if err != nil {
			return fmt.Errorf("INTENT_EXEC_MODE: %w", err)
		}
		c.ExecMode = mode
	}
	if raw, ok := lookup("INTENT_MAX_STEPS"); ok && strings.TrimSpace(raw) != "" {
		n, err := parseLimit(raw)
		if err != nil {
			return fmt.Errorf("INTENT_MAX_STEPS: %w", err)
		}
		c.Limits.MaxSteps = n
	}
	if raw, ok := lookup("INTENT_MAX_DEPTH"); ok && strings.TrimSpace(raw) != "" {
		n, err := parseLimit(raw)
		if err != nil {
			return fmt.Errorf("INTENT_MAX_DEPTH: %w", err)
		}
		c.Limits.MaxDepth = n
	}
	if raw, ok := lookup("INTENT_CACHE_DIR"); ok && strings.TrimSpace(raw) != "" {
		c.Fixtures.CacheDir = strings.TrimSpace(raw)
	}
	return nil
}

// InterpreterOptions converts the configuration into interpreter options.
func (c *Config) InterpreterOptions() interpreter.Options {
	return interpreter.Options{
		Mode:     c.ExecMode,
		MaxSteps: c.Limits.MaxSteps,
		MaxDepth: c.Limits.MaxDepth,
	}
}

// LockfilePath returns the lockfile location for this configuration.
func (c *Config) LockfilePath() string {
	if c.Path == "" {
		return LockfileName
	}
	return filepath.Join(filepath.Dir(c.Path), LockfileName)
}

// SourceNames returns the configured fixture source names in sorted order.
func (c *Config) SourceNames() []string {
	names := make([]string, 0, len(c.Fixtures.Sources))
	for name := range c.Fixtures.Sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func parseLimit(raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("limit must not be negative, got %d", n)
	}
	return n, nil
}

type configDisk struct {
	ExecMode string            `yaml:"exec_mode"`
	Limits   limitsDisk        `yaml:"limits"`
	Fixtures fixtureConfigDisk `yaml:"fixtures"`
}

type limitsDisk struct {
	MaxSteps int `yaml:"max_steps"`
	MaxDepth int `yaml:"max_depth"`
}

type fixtureConfigDisk struct {
	Paths    []string                     `yaml:"paths"`
	CacheDir string                       `yaml:"cache_dir"`
	Sources  map[string]fixtureSourceDisk `yaml:"sources"`
}

type fixtureSourceDisk struct {
	Git    string `yaml:"git"`
	Rev    string `yaml:"rev"`
	Tag    string `yaml:"tag"`
	Branch string `yaml:"branch"`
	Dir    string `yaml:"dir"`
}

func (d configDisk) toConfig(baseDir string) (*Config, error) {
	cfg := DefaultConfig()
	if mode := strings.TrimSpace(d.ExecMode); mode != "" {
		parsed, err := interpreter.ParseMode(mode)
		if err != nil {
			return nil, fmt.Errorf("exec_mode: %w", err)
		}
		cfg.ExecMode = parsed
	}
	if d.Limits.MaxSteps < 0 || d.Limits.MaxDepth < 0 {
		return nil, fmt.Errorf("limits must not be negative")
	}
	cfg.Limits = Limits{MaxSteps: d.Limits.MaxSteps, MaxDepth: d.Limits.MaxDepth}

	for _, p := range d.Fixtures.Paths {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !filepath.IsAbs(p) {
			p = filepath.Join(baseDir, p)
		}
		cfg.Fixtures.Paths = append(cfg.Fixtures.Paths, filepath.Clean(p))
	}
	if cache := strings.TrimSpace(d.Fixtures.CacheDir); cache != "" {
		if !filepath.IsAbs(cache) {
			cache = filepath.Join(baseDir, cache)
		}
		cfg.Fixtures.CacheDir = filepath.Clean(cache)
	}
	for name, src := range d.Fixtures.Sources {
		clean := sanitizeName(name)
		if clean == "" {
			return nil, fmt.Errorf("fixture source with empty name")
		}
		source := &FixtureSource{
			Name:   clean,
			Git:    strings.TrimSpace(src.Git),
			Rev:    strings.TrimSpace(src.Rev),
			Tag:    strings.TrimSpace(src.Tag),
			Branch: strings.TrimSpace(src.Branch),
			Dir:    filepath.Clean(strings.TrimSpace(src.Dir)),
		}
		if source.Git == "" {
			return nil, fmt.Errorf("fixture source %q: git URL required", name)
		}
		if source.Rev == "" && source.Tag == "" && source.Branch == "" {
			return nil, fmt.Errorf("fixture source %q: rev, tag, or branch required", name)
		}
		cfg.Fixtures.Sources[clean] = source
	}
	return cfg, nil
}

func sanitizeName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, "-", "_")
	return strings.ToLower(name)
}

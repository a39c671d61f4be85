package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Unlimited-Development-Works/Intent/pkg/driver"
	"github.com/Unlimited-Development-Works/Intent/pkg/interpreter"
)

// cliState holds global flags and the lazily loaded configuration.
type cliState struct {
	configPath string
	execMode   string
	verbose    bool

	cfg    *driver.Config
	logger *slog.Logger
}

func newRootCommand() *cobra.Command {
	state := &cliState{}
	root := &cobra.Command{
		Use:           "intent",
		Short:         "Evaluate nouns with the Intent opcode dispatcher",
		Version:       cliToolVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level := slog.LevelWarn
			if state.verbose {
				level = slog.LevelDebug
			}
			state.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
			return nil
		},
	}
	root.SetVersionTemplate("{{.Version}}\n")

	flags := root.PersistentFlags()
	flags.StringVar(&state.execMode, "exec-mode", "", "executor to use: treewalker or stack")
	flags.StringVar(&state.configPath, "config", "", "path to intent.yml (default: search upwards from the working directory)")
	flags.BoolVarP(&state.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newEvalCommand(state),
		newReplCommand(state),
		newTestCommand(state),
		newFixturesCommand(state),
		newServeCommand(state),
		newVersionCommand(),
	)
	return root
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the tool version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), cliToolVersion)
		},
	}
}

// config loads intent.yml once, applying INTENT_* overrides and then the
// --exec-mode flag. A missing file yields the defaults.
func (s *cliState) config() (*driver.Config, error) {
	if s.cfg != nil {
		return s.cfg, nil
	}
	var (
		cfg *driver.Config
		err error
	)
	path := s.configPath
	if path == "" {
		path, err = driver.FindConfig(".")
		if err != nil && !errors.Is(err, driver.ErrConfigNotFound) {
			return nil, err
		}
	}
	if path != "" {
		cfg, err = driver.LoadConfig(path)
		if err != nil {
			return nil, err
		}
		s.log().Debug("loaded config", slog.String("path", cfg.Path))
	} else {
		cfg = driver.DefaultConfig()
	}
	if err := cfg.ApplyEnv(nil); err != nil {
		return nil, err
	}
	if s.execMode != "" {
		mode, err := interpreter.ParseMode(s.execMode)
		if err != nil {
			return nil, fmt.Errorf("--exec-mode: %w", err)
		}
		cfg.ExecMode = mode
	}
	s.cfg = cfg
	return cfg, nil
}

func (s *cliState) log() *slog.Logger {
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	}
	return s.logger
}

func (s *cliState) cacheDir(cfg *driver.Config) (string, error) {
	if cfg.Fixtures.CacheDir != "" {
		return cfg.Fixtures.CacheDir, nil
	}
	return driver.DefaultCacheDir()
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Unlimited-Development-Works/Intent/pkg/driver"
	"github.com/Unlimited-Development-Works/Intent/pkg/interpreter"
)

type testSummary struct {
	passed int
	failed int
}

func newTestCommand(state *cliState) *cobra.Command {
	var (
		allModes bool
		listAll  bool
	)
	cmd := &cobra.Command{
		Use:   "test [paths]",
		Short: "Run *.fixtures.yml suites",
		Long: "Run fixture suites found under the given paths. Without paths, the\n" +
			"suites configured in intent.yml and any fetched fixture sources are run.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := state.config()
			if err != nil {
				return failWith(exitFramework, "intent test: %v", err)
			}
			roots := args
			if len(roots) == 0 {
				roots, err = configuredSuiteRoots(state, cfg)
				if err != nil {
					return failWith(exitFramework, "intent test: %v", err)
				}
			}

			files, err := driver.CollectSuites(roots)
			if err != nil {
				return failWith(exitFramework, "intent test: %v", err)
			}
			out := cmd.OutOrStdout()
			if len(files) == 0 {
				fmt.Fprintln(out, "intent test: no fixture suites found")
				return nil
			}

			modes := []interpreter.Mode{cfg.ExecMode}
			if allModes {
				modes = []interpreter.Mode{interpreter.ModeTreewalker, interpreter.ModeStack}
			}
			var summary testSummary
			for _, file := range files {
				suite, err := driver.LoadSuite(file)
				if err != nil {
					return failWith(exitFramework, "intent test: %v", err)
				}
				state.log().Debug("running suite", slog.String("suite", suite.Name), slog.Int("cases", len(suite.Cases)))
				for _, mode := range modes {
					opts := cfg.InterpreterOptions()
					opts.Mode = mode
					results := driver.RunSuite(context.Background(), suite, opts)
					reportResults(out, results, listAll, &summary)
				}
			}

			fmt.Fprintf(out, "intent test: %d passed, %d failed\n", summary.passed, summary.failed)
			if summary.failed > 0 {
				return &exitError{code: exitFailure}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&allModes, "all-modes", false, "run every case under each executor")
	cmd.Flags().BoolVar(&listAll, "list", false, "print passing cases too")
	return cmd
}

func reportResults(out io.Writer, results []driver.CaseResult, verbose bool, summary *testSummary) {
	for _, res := range results {
		if res.Passed {
			summary.passed++
			if verbose {
				fmt.Fprintf(out, "ok   %s/%s [%s]\n", res.Suite, res.Case, res.Mode)
			}
			continue
		}
		summary.failed++
		fmt.Fprintf(out, "FAIL %s/%s [%s]: %s\n", res.Suite, res.Case, res.Mode, res.Message)
	}
}

// configuredSuiteRoots lists intent.yml's fixture paths plus the checkouts of
// locked fixture sources that are present in the cache.
func configuredSuiteRoots(state *cliState, cfg *driver.Config) ([]string, error) {
	roots := append([]string{}, cfg.Fixtures.Paths...)
	if len(cfg.Fixtures.Sources) == 0 {
		return roots, nil
	}
	lock, err := driver.LoadLockfile(cfg.LockfilePath())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			state.log().Warn("fixture sources not fetched; run 'intent fixtures fetch'")
			return roots, nil
		}
		return nil, err
	}
	cacheDir, err := state.cacheDir(cfg)
	if err != nil {
		return nil, err
	}
	for _, name := range cfg.SourceNames() {
		locked := lock.Find(name)
		if locked == nil {
			state.log().Warn("fixture source missing from lockfile", slog.String("source", name))
			continue
		}
		dir := driver.LockedSuiteDir(cacheDir, locked)
		if _, err := os.Stat(dir); err != nil {
			state.log().Warn("fixture source not in cache", slog.String("source", name), slog.String("dir", dir))
			continue
		}
		roots = append(roots, dir)
	}
	return roots, nil
}

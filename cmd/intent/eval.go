package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Unlimited-Development-Works/Intent/pkg/interpreter"
	"github.com/Unlimited-Development-Works/Intent/pkg/parser"
	"github.com/Unlimited-Development-Works/Intent/pkg/runtime"
)

func newEvalCommand(state *cliState) *cobra.Command {
	var (
		maxSteps  int
		maxDepth  int
		showStats bool
	)
	cmd := &cobra.Command{
		Use:   "eval [noun|-]",
		Short: "Evaluate one noun and print its reduct",
		Long: "Evaluate one noun written as JSON, e.g. 'intent eval \"[3, 1, 2]\"'.\n" +
			"With no argument or '-', the noun is read from standard input.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := state.config()
			if err != nil {
				return failWith(exitFailure, "intent eval: %v", err)
			}
			opts := cfg.InterpreterOptions()
			if cmd.Flags().Changed("max-steps") {
				opts.MaxSteps = maxSteps
			}
			if cmd.Flags().Changed("max-depth") {
				opts.MaxDepth = maxDepth
			}

			source, err := evalSource(cmd.InOrStdin(), args)
			if err != nil {
				return failWith(exitFailure, "intent eval: %v", err)
			}
			input, err := parser.Parse(source)
			if err != nil {
				return failWith(exitFailure, "intent eval: %v", err)
			}

			interp := interpreter.New(opts)
			result, stats, err := interp.Run(context.Background(), input)
			if err != nil {
				return failWith(exitFailure, "intent eval: %v", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), runtime.Format(result))
			if showStats {
				fmt.Fprintf(cmd.ErrOrStderr(), "mode=%s steps=%d depth=%d size=%d\n",
					interp.Options().Mode, stats.Steps, stats.MaxDepth, runtime.Size(result))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&maxSteps, "max-steps", 0, "stop after this many reductions (0 = unbounded)")
	cmd.Flags().IntVar(&maxDepth, "max-depth", 0, "stop past this nesting depth (0 = unbounded)")
	cmd.Flags().BoolVar(&showStats, "stats", false, "print steps, depth and result size to stderr")
	return cmd
}

func evalSource(stdin io.Reader, args []string) ([]byte, error) {
	if len(args) == 1 && args[0] != "-" {
		return []byte(args[0]), nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return nil, fmt.Errorf("read stdin: %w", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return nil, fmt.Errorf("no noun given")
	}
	return data, nil
}

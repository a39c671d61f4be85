package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/Unlimited-Development-Works/Intent/pkg/interpreter"
	"github.com/Unlimited-Development-Works/Intent/pkg/parser"
	"github.com/Unlimited-Development-Works/Intent/pkg/runtime"
)

const (
	replPrompt      = "intent> "
	replContinue    = "   ...> "
	replHistoryFile = ".intent_history"
)

func newReplCommand(state *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Evaluate nouns interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := state.config()
			if err != nil {
				return failWith(exitFailure, "intent repl: %v", err)
			}
			session, err := newReplSession(cfg.InterpreterOptions(), cmd.OutOrStdout())
			if err != nil {
				return failWith(exitFailure, "intent repl: %v", err)
			}
			defer session.Close()
			return runReplLoop(session)
		},
	}
}

func runReplLoop(session *replSession) error {
	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	histPath := ""
	if home, err := os.UserHomeDir(); err == nil {
		histPath = filepath.Join(home, replHistoryFile)
		if f, err := os.Open(histPath); err == nil {
			_, _ = ln.ReadHistory(f)
			_ = f.Close()
		}
	}
	defer func() {
		if histPath == "" {
			return
		}
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	fmt.Fprintf(session.out, "%s (mode %s). Type :help for commands.\n", cliToolVersion, session.opts.Mode)
	for {
		entry, ok := readEntry(ln)
		if !ok {
			fmt.Fprintln(session.out)
			return nil
		}
		if strings.TrimSpace(entry) == "" {
			continue
		}
		ln.AppendHistory(strings.ReplaceAll(entry, "\n", " "))
		if session.Handle(entry) {
			return nil
		}
	}
}

// readEntry reads lines until the brackets of the entry balance.
func readEntry(ln *liner.State) (string, bool) {
	var b strings.Builder
	for {
		prompt := replPrompt
		if b.Len() > 0 {
			prompt = replContinue
		}
		line, err := ln.Prompt(prompt)
		if err != nil {
			// io.EOF on ^D, liner.ErrPromptAborted on ^C.
			return "", false
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
		if bracketDepth(b.String()) <= 0 {
			return b.String(), true
		}
	}
}

func bracketDepth(src string) int {
	depth := 0
	for _, r := range src {
		switch r {
		case '[':
			depth++
		case ']':
			depth--
		}
	}
	return depth
}

// replSession evaluates entries and handles :commands. It owns a NounParser
// reused across entries.
type replSession struct {
	opts   interpreter.Options
	out    io.Writer
	parser *parser.NounParser
}

func newReplSession(opts interpreter.Options, out io.Writer) (*replSession, error) {
	p, err := parser.NewNounParser()
	if err != nil {
		return nil, err
	}
	if opts.Mode == "" {
		opts.Mode = interpreter.DefaultMode
	}
	return &replSession{opts: opts, out: out, parser: p}, nil
}

func (s *replSession) Close() {
	s.parser.Close()
}

// Handle processes one entry and reports whether the session should end.
func (s *replSession) Handle(entry string) bool {
	entry = strings.TrimSpace(entry)
	if strings.HasPrefix(entry, ":") {
		return s.command(strings.Fields(entry))
	}
	input, err := s.parser.Parse([]byte(entry))
	if err != nil {
		fmt.Fprintf(s.out, "error: %v\n", err)
		return false
	}
	result, stats, err := interpreter.New(s.opts).Run(context.Background(), input)
	if err != nil {
		fmt.Fprintf(s.out, "error: %v\n", err)
		return false
	}
	fmt.Fprintln(s.out, runtime.Format(result))
	if s.opts.MaxSteps > 0 || s.opts.MaxDepth > 0 {
		fmt.Fprintf(s.out, "; steps=%d depth=%d\n", stats.Steps, stats.MaxDepth)
	}
	return false
}

func (s *replSession) command(fields []string) bool {
	switch strings.ToLower(fields[0]) {
	case ":quit", ":q":
		return true
	case ":mode":
		if len(fields) == 1 {
			fmt.Fprintf(s.out, "mode %s\n", s.opts.Mode)
			return false
		}
		mode, err := interpreter.ParseMode(fields[1])
		if err != nil {
			fmt.Fprintf(s.out, "error: %v\n", err)
			return false
		}
		s.opts.Mode = mode
		fmt.Fprintf(s.out, "mode %s\n", mode)
	case ":help":
		fmt.Fprintln(s.out, "Enter a noun as JSON, e.g. [3, 1, 2]. Opcodes: 0 kind, 1 sub, 2 eq, 3 swap, 4 compose, 5 select.")
		fmt.Fprintln(s.out, "  :mode [treewalker|stack]  show or change the executor")
		fmt.Fprintln(s.out, "  :quit                     leave the REPL")
	default:
		fmt.Fprintf(s.out, "unknown command %s. Type :help for commands.\n", fields[0])
	}
	return false
}

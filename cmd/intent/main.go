package main

import (
	"errors"
	"fmt"
	"os"
)

const cliToolVersion = "intent 0.1.0-dev"

// Exit codes shared by every subcommand.
const (
	exitOK        = 0
	exitFailure   = 1
	exitFramework = 2
)

// exitError carries a subcommand's exit status through cobra. A nil err means
// the command already reported its outcome.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

func failWith(code int, format string, args ...any) error {
	return &exitError{code: code, err: fmt.Errorf(format, args...)}
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	root := newRootCommand()
	root.SetArgs(args)
	root.SetIn(os.Stdin)
	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)

	err := root.Execute()
	if err == nil {
		return exitOK
	}
	var exit *exitError
	if errors.As(err, &exit) {
		if exit.err != nil {
			fmt.Fprintln(os.Stderr, exit.err)
		}
		return exit.code
	}
	fmt.Fprintf(os.Stderr, "intent: %v\n", err)
	fmt.Fprintln(os.Stderr, "Run 'intent --help' for usage.")
	return exitFailure
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/Unlimited-Development-Works/Intent/pkg/server"
)

func newServeCommand(state *cliState) *cobra.Command {
	var (
		addr    string
		timeout time.Duration
		maxBody int64
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve POST /v1/eval over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := state.config()
			if err != nil {
				return failWith(exitFailure, "intent serve: %v", err)
			}
			if !state.verbose {
				gin.SetMode(gin.ReleaseMode)
			}
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			err = server.Serve(ctx, addr, server.Options{
				Interpreter:  cfg.InterpreterOptions(),
				Timeout:      timeout,
				MaxBodyBytes: maxBody,
				Logger:       state.log(),
			})
			if err != nil {
				return failWith(exitFailure, "intent serve: %v", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "per-request evaluation timeout (0 = none)")
	cmd.Flags().Int64Var(&maxBody, "max-body", server.DefaultMaxBodyBytes, "largest accepted request body in bytes")
	return cmd
}

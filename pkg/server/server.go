// Package server exposes the evaluator over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Unlimited-Development-Works/Intent/pkg/interpreter"
	"github.com/Unlimited-Development-Works/Intent/pkg/parser"
	"github.com/Unlimited-Development-Works/Intent/pkg/runtime"
)

// Options configures the HTTP handler.
type Options struct {
	// Interpreter supplies the default executor and limits for every request.
	Interpreter interpreter.Options
	// Timeout bounds a single evaluation; zero means no timeout.
	Timeout time.Duration
	// MaxBodyBytes caps a request body; zero means DefaultMaxBodyBytes.
	MaxBodyBytes int64
	Logger       *slog.Logger
}

// DefaultMaxBodyBytes is the request body cap used when Options sets none.
const DefaultMaxBodyBytes int64 = 1 << 20

type evalRequest struct {
	Noun     json.RawMessage `json:"noun"`
	ExecMode string          `json:"exec_mode"`
}

type evalResponse struct {
	Result json.RawMessage `json:"result"`
	Kind   string          `json:"kind"`
	Steps  int             `json:"steps"`
	Depth  int             `json:"depth"`
}

type errorResponse struct {
	Error string `json:"error"`
	Limit string `json:"limit,omitempty"`
}

type handler struct {
	opts   Options
	logger *slog.Logger
}

// NewRouter builds the gin engine serving POST /v1/eval and GET /healthz.
func NewRouter(opts Options) *gin.Engine {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	h := &handler{opts: opts, logger: logger}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))
	router.GET("/healthz", h.health)
	router.POST("/v1/eval", h.eval)
	return router
}

// Serve listens on addr until ctx is done, then shuts down gracefully.
func Serve(ctx context.Context, addr string, opts Options) error {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           NewRouter(opts),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", slog.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server: shutdown: %w", err)
		}
		return nil
	}
}

func (h *handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handler) eval(c *gin.Context) {
	limit := h.opts.MaxBodyBytes
	if limit <= 0 {
		limit = DefaultMaxBodyBytes
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)

	var req evalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, errorResponse{Error: fmt.Sprintf("request body exceeds %d bytes", limit)})
			return
		}
		c.JSON(http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("invalid request: %v", err)})
		return
	}
	if len(req.Noun) == 0 {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "noun required"})
		return
	}

	opts := h.opts.Interpreter
	if req.ExecMode != "" {
		mode, err := interpreter.ParseMode(req.ExecMode)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		opts.Mode = mode
	}

	input, err := parser.Parse(req.Noun)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	ctx := c.Request.Context()
	if h.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.opts.Timeout)
		defer cancel()
	}

	interp := interpreter.New(opts)
	result, stats, err := interp.Run(ctx, input)
	if err != nil {
		h.writeRunError(c, err)
		return
	}
	h.logger.Debug("evaluated",
		slog.String("mode", string(interp.Options().Mode)),
		slog.Int("steps", stats.Steps),
		slog.Int("depth", stats.MaxDepth))
	c.JSON(http.StatusOK, evalResponse{
		Result: json.RawMessage(runtime.Format(result)),
		Kind:   runtime.KindName(result),
		Steps:  stats.Steps,
		Depth:  stats.MaxDepth,
	})
}

func (h *handler) writeRunError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, interpreter.ErrStepLimit):
		c.JSON(http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), Limit: "steps"})
	case errors.Is(err, interpreter.ErrDepthLimit):
		c.JSON(http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), Limit: "depth"})
	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "evaluation timed out"})
	default:
		h.logger.Warn("evaluation aborted", slog.Any("error", err))
		c.JSON(http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
	}
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.FullPath()),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("latency", time.Since(start)))
	}
}

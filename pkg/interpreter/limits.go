package interpreter

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrStepLimit reports that a run performed more reductions than allowed.
	ErrStepLimit = errors.New("step limit exceeded")
	// ErrDepthLimit reports that a run nested evaluations deeper than allowed.
	ErrDepthLimit = errors.New("depth limit exceeded")
)

// LimitError is returned by Run when a configured bound is hit.
type LimitError struct {
	Limit error
	Max   int
	Stats Stats
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("interpreter: %v (max %d, after %d steps)", e.Limit, e.Max, e.Stats.Steps)
}

func (e *LimitError) Unwrap() error { return e.Limit }

// Stats describes the work done by one run. Steps counts dispatcher reductions;
// MaxDepth is the deepest nesting of pending reductions.
type Stats struct {
	Steps    int
	MaxDepth int
}

const contextCheckInterval = 1024

// budget is shared by both executors so their accounting stays identical.
type budget struct {
	ctx      context.Context
	maxSteps int
	maxDepth int
	stats    Stats
}

func newBudget(ctx context.Context, opts Options) *budget {
	return &budget{ctx: ctx, maxSteps: opts.MaxSteps, maxDepth: opts.MaxDepth}
}

// enter records one reduction at the given depth.
func (b *budget) enter(depth int) error {
	b.stats.Steps++
	if depth > b.stats.MaxDepth {
		b.stats.MaxDepth = depth
	}
	if b.maxSteps > 0 && b.stats.Steps > b.maxSteps {
		return &LimitError{Limit: ErrStepLimit, Max: b.maxSteps, Stats: b.stats}
	}
	if b.maxDepth > 0 && depth > b.maxDepth {
		return &LimitError{Limit: ErrDepthLimit, Max: b.maxDepth, Stats: b.stats}
	}
	if b.ctx != nil && b.stats.Steps%contextCheckInterval == 1 {
		if err := b.ctx.Err(); err != nil {
			return err
		}
	}
	return nil
}

package interpreter

import (
	"context"

	"github.com/Unlimited-Development-Works/Intent/pkg/runtime"
)

// Opcode values understood by the dispatcher.
const (
	OpKind    int64 = 0
	OpSub     int64 = 1
	OpEq      int64 = 2
	OpSwap    int64 = 3
	OpCompose int64 = 4
	OpSelect  int64 = 5
)

// Options configures an Interpreter. Zero limits mean unbounded.
type Options struct {
	Mode     Mode
	MaxSteps int
	MaxDepth int
}

// Interpreter evaluates nouns with a fixed executor and limits. It holds no
// state between runs and may be shared by goroutines.
type Interpreter struct {
	opts Options
}

// New returns an interpreter for opts. An empty mode selects DefaultMode;
// negative limits are treated as unbounded.
func New(opts Options) *Interpreter {
	if opts.Mode == "" {
		opts.Mode = DefaultMode
	}
	if opts.MaxSteps < 0 {
		opts.MaxSteps = 0
	}
	if opts.MaxDepth < 0 {
		opts.MaxDepth = 0
	}
	return &Interpreter{opts: opts}
}

// Options returns the normalised options the interpreter was built with.
func (i *Interpreter) Options() Options {
	return i.opts
}

// Run reduces v. The returned error is non-nil only when a limit is exceeded or
// ctx is done; a failed reduction is the Error noun with a nil error.
func (i *Interpreter) Run(ctx context.Context, v runtime.Value) (runtime.Value, Stats, error) {
	b := newBudget(ctx, i.opts)
	var (
		result runtime.Value
		err    error
	)
	switch i.opts.Mode {
	case ModeTreewalker:
		w := &treeWalker{budget: b}
		result, err = w.eval(v, 1)
	default:
		vm := newStackVM(b)
		result, err = vm.run(v)
	}
	if err != nil {
		return nil, b.stats, err
	}
	return result, b.stats, nil
}

// Evaluate reduces v with the default executor and no limits. It is total and
// referentially transparent.
func Evaluate(v runtime.Value) runtime.Value {
	result, _, err := New(Options{}).Run(context.Background(), v)
	if err != nil {
		return runtime.Error()
	}
	return result
}

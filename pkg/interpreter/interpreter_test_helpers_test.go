package interpreter

import (
	"context"
	"math/rand"
	"testing"

	"github.com/Unlimited-Development-Works/Intent/pkg/runtime"
)

var allModes = []Mode{ModeTreewalker, ModeStack}

func atom(i int64) runtime.Value { return runtime.Atom(i) }

func cell(a, b runtime.Value) runtime.Value { return runtime.Cell(a, b) }

func nouns(items ...any) runtime.Value {
	values := make([]runtime.Value, len(items))
	for i, item := range items {
		switch v := item.(type) {
		case int:
			values[i] = runtime.Atom(int64(v))
		case int64:
			values[i] = runtime.Atom(v)
		case runtime.Value:
			values[i] = v
		case nil:
			values[i] = runtime.Error()
		default:
			panic("nouns: unsupported item")
		}
	}
	return runtime.Tuple(values...)
}

func assertNoun(t testing.TB, label string, got, want runtime.Value) {
	t.Helper()
	if !runtime.Identical(got, want) {
		t.Fatalf("%s: got %s, want %s", label, runtime.Format(got), runtime.Format(want))
	}
}

// runMode evaluates v in one executor without limits.
func runMode(t testing.TB, mode Mode, v runtime.Value) (runtime.Value, Stats) {
	t.Helper()
	result, stats, err := New(Options{Mode: mode}).Run(context.Background(), v)
	if err != nil {
		t.Fatalf("%s run failed: %v", mode, err)
	}
	return result, stats
}

// evalBoth evaluates v in every executor and fails unless they agree.
func evalBoth(t testing.TB, v runtime.Value) runtime.Value {
	t.Helper()
	var first runtime.Value
	var firstStats Stats
	for i, mode := range allModes {
		got, stats := runMode(t, mode, v)
		if i == 0 {
			first, firstStats = got, stats
			continue
		}
		if !runtime.Identical(got, first) {
			t.Fatalf("executor mismatch for %s: %s=%s %s=%s", runtime.Format(v),
				allModes[0], runtime.Format(first), mode, runtime.Format(got))
		}
		if stats != firstStats {
			t.Fatalf("stats mismatch for %s: %s=%+v %s=%+v", runtime.Format(v), allModes[0], firstStats, mode, stats)
		}
	}
	return first
}

// randomNoun draws small trees whose atoms land on valid opcodes and selectors
// often enough to exercise every dispatcher branch.
func randomNoun(r *rand.Rand, depth int) runtime.Value {
	roll := r.Intn(10)
	if depth <= 0 || roll < 3 {
		if roll == 0 {
			return runtime.Error()
		}
		return runtime.Atom(int64(r.Intn(9) - 2))
	}
	if roll < 6 {
		return runtime.Cell(runtime.Atom(int64(r.Intn(7))), randomNoun(r, depth-1))
	}
	return runtime.Cell(randomNoun(r, depth-1), randomNoun(r, depth-1))
}

// nestedCompose builds a chain of n compose reductions, each re-evaluating the
// previous level through two selects. The innermost level is kind(1).
func nestedCompose(n int) runtime.Value {
	current := nouns(0, 1)
	for i := 0; i < n; i++ {
		op, operand, _ := runtime.CellOf(current)
		current = nouns(OpCompose, OpSelect,
			nouns(0, op, 0),
			nouns(0, operand, 0),
		)
	}
	return current
}

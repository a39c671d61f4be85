package interpreter

import (
	"math/big"
	"testing"

	"github.com/Unlimited-Development-Works/Intent/pkg/runtime"
)

func TestKindClassifiesNouns(t *testing.T) {
	for _, x := range []int64{-5, 0, 1, 42} {
		assertNoun(t, "kind atom", Kind(atom(x)), atom(0))
	}
	assertNoun(t, "kind cell", Kind(cell(atom(1), runtime.Error())), atom(1))
	assertNoun(t, "kind error", Kind(runtime.Error()), runtime.Error())
}

func TestSubNegatesAtoms(t *testing.T) {
	assertNoun(t, "sub -1", Sub(atom(-1)), atom(1))
	for _, x := range []int64{0, 7, -300} {
		assertNoun(t, "sub atom", Sub(atom(x)), atom(-x))
	}
}

func TestSubErrorIsError(t *testing.T) {
	assertNoun(t, "sub error", Sub(runtime.Error()), runtime.Error())
}

func TestSubCells(t *testing.T) {
	cases := []struct {
		name string
		in   runtime.Value
		want runtime.Value
	}{
		{"atom from atom", cell(atom(1), atom(2)), atom(-1)},
		{"atom from cell", cell(cell(atom(1), atom(2)), atom(3)), cell(atom(-2), atom(-1))},
		{"cell from atom", cell(atom(3), cell(atom(1), atom(2))), cell(atom(2), atom(1))},
		{"cell from cell", cell(cell(atom(1), atom(2)), cell(atom(3), atom(4))), cell(atom(-2), atom(-2))},
		{"error operand", cell(atom(1), runtime.Error()), runtime.Error()},
		{"error nested", cell(cell(atom(1), runtime.Error()), atom(1)), cell(atom(0), runtime.Error())},
		{
			"mismatched depth",
			cell(cell(cell(atom(5), atom(6)), atom(2)), cell(atom(1), cell(atom(1), atom(2)))),
			cell(cell(atom(4), atom(5)), cell(atom(1), atom(0))),
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assertNoun(t, tc.name, Sub(tc.in), tc.want)
		})
	}
}

func TestSubDoesNotOverflow(t *testing.T) {
	minAtom := atom(-1 << 63)
	got := Sub(minAtom)
	want := runtime.AtomBig(new(big.Int).Lsh(big.NewInt(1), 63))
	assertNoun(t, "negate min int64", got, want)

	diff := Sub(cell(minAtom, atom(1)))
	wantDiff := runtime.AtomBig(new(big.Int).Sub(big.NewInt(-1<<63), big.NewInt(1)))
	assertNoun(t, "min int64 - 1", diff, wantDiff)
}

func TestEqTopLevel(t *testing.T) {
	assertNoun(t, "eq error", Eq(runtime.Error()), runtime.Error())
	assertNoun(t, "eq atom", Eq(atom(1)), runtime.Error())
}

func TestEqCells(t *testing.T) {
	cases := []struct {
		name string
		in   runtime.Value
		want runtime.Value
	}{
		{"equal atoms", cell(atom(1), atom(1)), atom(1)},
		{"unequal atoms", cell(atom(1), atom(2)), atom(0)},
		{"equal subtrees", cell(cell(atom(1), atom(2)), cell(atom(1), atom(2))), atom(1)},
		{"half equal subtrees", cell(cell(atom(1), atom(2)), cell(atom(1), atom(3))), atom(0)},
		// Both child comparisons answer 0, and comparing those answers gives 1.
		{"fully unequal subtrees", cell(cell(atom(1), atom(2)), cell(atom(3), atom(4))), atom(1)},
		{"atom against cell", cell(atom(1), cell(atom(1), atom(1))), atom(0)},
		{"error child", cell(runtime.Error(), runtime.Error()), atom(0)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assertNoun(t, tc.name, Eq(tc.in), tc.want)
		})
	}
}

func TestSwap(t *testing.T) {
	left, right := cell(atom(1), atom(2)), runtime.Error()
	swapped := Swap(cell(left, right))
	l, r, ok := runtime.CellOf(swapped)
	if !ok {
		t.Fatalf("swap of cell returned %s", runtime.Format(swapped))
	}
	if l != right || r != left {
		t.Fatal("swap copied children instead of sharing them")
	}
	assertNoun(t, "swap atom", Swap(atom(9)), atom(9))
	assertNoun(t, "swap error", Swap(runtime.Error()), runtime.Error())
}

func TestSwapInvolution(t *testing.T) {
	inputs := []runtime.Value{
		cell(atom(1), atom(2)),
		cell(cell(atom(1), runtime.Error()), atom(-4)),
		atom(3),
		runtime.Error(),
	}
	for _, in := range inputs {
		assertNoun(t, "swap twice", Swap(Swap(in)), in)
	}
}

func TestOperationsDoNotMutateInput(t *testing.T) {
	in := cell(cell(atom(1), atom(2)), cell(atom(3), atom(4)))
	snapshot := runtime.Format(in)
	_ = Sub(in)
	_ = Eq(in)
	_ = Swap(in)
	if got := runtime.Format(in); got != snapshot {
		t.Fatalf("input mutated: %s -> %s", snapshot, got)
	}
}

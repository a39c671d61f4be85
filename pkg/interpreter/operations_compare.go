package interpreter

import "github.com/Unlimited-Development-Works/Intent/pkg/runtime"

var (
	nounTrue  = runtime.Atom(1)
	nounFalse = runtime.Atom(0)
)

// Eq compares the two children of a cell and answers with a noun: 1 when equal,
// 0 when not. A bare atom has nothing to compare and yields Error.
func Eq(v runtime.Value) runtime.Value {
	switch n := v.(type) {
	case *runtime.CellValue:
		if n == nil {
			return runtime.Error()
		}
		return eqCell(n.Left(), n.Right())
	default:
		return runtime.Error()
	}
}

// eqCell compares a and b. For two cells the child comparisons are themselves
// compared with eqCell, so [[1 2] [3 4]] yields 1: both child results are 0.
func eqCell(a, b runtime.Value) runtime.Value {
	switch left := a.(type) {
	case runtime.AtomValue:
		if right, ok := b.(runtime.AtomValue); ok {
			return atomsEqual(left, right)
		}
	case *runtime.CellValue:
		if right, ok := b.(*runtime.CellValue); ok && left != nil && right != nil {
			return eqCell(
				eqCell(left.Left(), right.Left()),
				eqCell(left.Right(), right.Right()),
			)
		}
	}
	return nounFalse
}

func atomsEqual(a, b runtime.AtomValue) runtime.Value {
	if a.Cmp(b) == 0 {
		return nounTrue
	}
	return nounFalse
}

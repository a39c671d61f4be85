package interpreter

import (
	"math/big"

	"github.com/Unlimited-Development-Works/Intent/pkg/runtime"
)

// Sub is structural subtraction. An atom is negated; a cell subtracts its right
// child from its left one, broadcasting atoms across cells and zipping cells
// position by position.
func Sub(v runtime.Value) runtime.Value {
	switch n := v.(type) {
	case runtime.AtomValue:
		return negateAtom(n)
	case *runtime.CellValue:
		if n == nil {
			return runtime.Error()
		}
		return subCell(n.Left(), n.Right())
	default:
		return runtime.Error()
	}
}

// subCell is Sub applied to the pair (a, b) without allocating the pair.
func subCell(a, b runtime.Value) runtime.Value {
	switch left := a.(type) {
	case runtime.AtomValue:
		switch right := b.(type) {
		case runtime.AtomValue:
			return subtractAtoms(left, right)
		case *runtime.CellValue:
			if right == nil {
				return runtime.Error()
			}
			return runtime.Cell(subCell(left, right.Left()), subCell(left, right.Right()))
		}
	case *runtime.CellValue:
		if left == nil {
			return runtime.Error()
		}
		switch right := b.(type) {
		case runtime.AtomValue:
			return runtime.Cell(subCell(left.Left(), right), subCell(left.Right(), right))
		case *runtime.CellValue:
			if right == nil {
				return runtime.Error()
			}
			return runtime.Cell(subCell(left.Left(), right.Left()), subCell(left.Right(), right.Right()))
		}
	}
	return runtime.Error()
}

func negateAtom(a runtime.AtomValue) runtime.Value {
	return runtime.AtomBig(new(big.Int).Neg(a.Int()))
}

func subtractAtoms(a, b runtime.AtomValue) runtime.Value {
	return runtime.AtomBig(new(big.Int).Sub(a.Int(), b.Int()))
}

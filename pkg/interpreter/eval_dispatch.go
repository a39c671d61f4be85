package interpreter

import "github.com/Unlimited-Development-Works/Intent/pkg/runtime"

type treeWalker struct {
	budget *budget
}

// eval dispatches Cell(opcode, operand) recursively. depth is the nesting of
// the current reduction, starting at 1.
func (w *treeWalker) eval(v runtime.Value, depth int) (runtime.Value, error) {
	if err := w.budget.enter(depth); err != nil {
		return nil, err
	}
	opcode, operand, ok := decodeInvocation(v)
	if !ok {
		return runtime.Error(), nil
	}
	switch opcode {
	case OpKind:
		return Kind(operand), nil
	case OpSub:
		return Sub(operand), nil
	case OpEq:
		return Eq(operand), nil
	case OpSwap:
		return Swap(operand), nil
	case OpCompose:
		fn, x, y, ok := decodeCompose(operand)
		if !ok {
			return runtime.Error(), nil
		}
		left, err := w.eval(runtime.Cell(fn, x), depth+1)
		if err != nil {
			return nil, err
		}
		right, err := w.eval(runtime.Cell(fn, y), depth+1)
		if err != nil {
			return nil, err
		}
		return w.eval(runtime.Cell(left, right), depth+1)
	case OpSelect:
		return selectBranch(operand), nil
	default:
		return runtime.Error(), nil
	}
}

// decodeInvocation splits v into an opcode and its operand. Opcodes that do not
// fit in an int64 are reported as -1, which no opcode matches.
func decodeInvocation(v runtime.Value) (int64, runtime.Value, bool) {
	head, operand, ok := runtime.CellOf(v)
	if !ok {
		return 0, nil, false
	}
	atom, ok := head.(runtime.AtomValue)
	if !ok {
		return 0, nil, false
	}
	opcode, fits := atom.Int64()
	if !fits {
		opcode = -1
	}
	return opcode, operand, true
}

// decodeCompose matches Cell(f, Cell(x, y)).
func decodeCompose(operand runtime.Value) (fn, x, y runtime.Value, ok bool) {
	fn, args, ok := runtime.CellOf(operand)
	if !ok {
		return nil, nil, nil, false
	}
	x, y, ok = runtime.CellOf(args)
	if !ok {
		return nil, nil, nil, false
	}
	return fn, x, y, true
}

// selectBranch matches Cell(selector, Cell(b, c)); the selector is not
// evaluated and must be the atom 0 or 1.
func selectBranch(operand runtime.Value) runtime.Value {
	selector, branches, ok := runtime.CellOf(operand)
	if !ok {
		return runtime.Error()
	}
	whenZero, whenOne, ok := runtime.CellOf(branches)
	if !ok {
		return runtime.Error()
	}
	atom, ok := selector.(runtime.AtomValue)
	if !ok {
		return runtime.Error()
	}
	switch n, fits := atom.Int64(); {
	case fits && n == 0:
		return whenZero
	case fits && n == 1:
		return whenOne
	default:
		return runtime.Error()
	}
}

package interpreter

import (
	"fmt"

	"github.com/Unlimited-Development-Works/Intent/pkg/runtime"
)

type stackTaskKind int

const (
	// stackTaskEval reduces left as a Cell(opcode, operand) at depth.
	stackTaskEval stackTaskKind = iota
	// stackTaskCompose pops the results of f x and f y and reduces their pair.
	stackTaskCompose
	// stackTaskSubCell pushes subCell(left, right).
	stackTaskSubCell
	// stackTaskEqCell pushes eqCell(left, right).
	stackTaskEqCell
	// stackTaskJoinCell pops two results and pushes their cell.
	stackTaskJoinCell
	// stackTaskJoinEq pops two comparison results and compares them again.
	stackTaskJoinEq
)

type stackTask struct {
	kind  stackTaskKind
	left  runtime.Value
	right runtime.Value
	depth int
}

// stackVM evaluates nouns without Go recursion. Pending work lives on tasks and
// finished results on values, like an operand stack.
type stackVM struct {
	budget *budget
	tasks  []stackTask
	values []runtime.Value
}

func newStackVM(b *budget) *stackVM {
	return &stackVM{
		budget: b,
		tasks:  make([]stackTask, 0, 16),
		values: make([]runtime.Value, 0, 8),
	}
}

func (vm *stackVM) run(v runtime.Value) (runtime.Value, error) {
	vm.tasks = append(vm.tasks[:0], stackTask{kind: stackTaskEval, left: v, depth: 1})
	vm.values = vm.values[:0]
	for len(vm.tasks) > 0 {
		task := vm.tasks[len(vm.tasks)-1]
		vm.tasks = vm.tasks[:len(vm.tasks)-1]
		switch task.kind {
		case stackTaskEval:
			if err := vm.budget.enter(task.depth); err != nil {
				return nil, err
			}
			vm.dispatch(task.left, task.depth)
		case stackTaskCompose:
			right, err := vm.pop()
			if err != nil {
				return nil, err
			}
			left, err := vm.pop()
			if err != nil {
				return nil, err
			}
			vm.tasks = append(vm.tasks, stackTask{kind: stackTaskEval, left: runtime.Cell(left, right), depth: task.depth + 1})
		case stackTaskSubCell:
			vm.subCell(task.left, task.right)
		case stackTaskEqCell:
			vm.eqCell(task.left, task.right)
		case stackTaskJoinCell:
			right, err := vm.pop()
			if err != nil {
				return nil, err
			}
			left, err := vm.pop()
			if err != nil {
				return nil, err
			}
			vm.push(runtime.Cell(left, right))
		case stackTaskJoinEq:
			right, err := vm.pop()
			if err != nil {
				return nil, err
			}
			left, err := vm.pop()
			if err != nil {
				return nil, err
			}
			vm.tasks = append(vm.tasks, stackTask{kind: stackTaskEqCell, left: left, right: right})
		default:
			return nil, fmt.Errorf("stack vm: unknown task kind %d", task.kind)
		}
	}
	if len(vm.values) != 1 {
		return nil, fmt.Errorf("stack vm: %d results left on stack", len(vm.values))
	}
	return vm.values[0], nil
}

func (vm *stackVM) dispatch(v runtime.Value, depth int) {
	opcode, operand, ok := decodeInvocation(v)
	if !ok {
		vm.push(runtime.Error())
		return
	}
	switch opcode {
	case OpKind:
		vm.push(Kind(operand))
	case OpSub:
		switch n := operand.(type) {
		case runtime.AtomValue:
			vm.push(negateAtom(n))
		case *runtime.CellValue:
			if n == nil {
				vm.push(runtime.Error())
				return
			}
			vm.schedule(stackTaskSubCell, n.Left(), n.Right())
		default:
			vm.push(runtime.Error())
		}
	case OpEq:
		left, right, ok := runtime.CellOf(operand)
		if !ok {
			vm.push(runtime.Error())
			return
		}
		vm.schedule(stackTaskEqCell, left, right)
	case OpSwap:
		vm.push(Swap(operand))
	case OpCompose:
		fn, x, y, ok := decodeCompose(operand)
		if !ok {
			vm.push(runtime.Error())
			return
		}
		// x must finish first: the tasks run in reverse order of pushing.
		vm.tasks = append(vm.tasks,
			stackTask{kind: stackTaskCompose, depth: depth},
			stackTask{kind: stackTaskEval, left: runtime.Cell(fn, y), depth: depth + 1},
			stackTask{kind: stackTaskEval, left: runtime.Cell(fn, x), depth: depth + 1},
		)
	case OpSelect:
		vm.push(selectBranch(operand))
	default:
		vm.push(runtime.Error())
	}
}

func (vm *stackVM) subCell(a, b runtime.Value) {
	switch left := a.(type) {
	case runtime.AtomValue:
		switch right := b.(type) {
		case runtime.AtomValue:
			vm.push(subtractAtoms(left, right))
			return
		case *runtime.CellValue:
			if right != nil {
				vm.joinPair(stackTaskJoinCell, stackTaskSubCell, left, right.Left(), left, right.Right())
				return
			}
		}
	case *runtime.CellValue:
		if left == nil {
			break
		}
		switch right := b.(type) {
		case runtime.AtomValue:
			vm.joinPair(stackTaskJoinCell, stackTaskSubCell, left.Left(), right, left.Right(), right)
			return
		case *runtime.CellValue:
			if right != nil {
				vm.joinPair(stackTaskJoinCell, stackTaskSubCell, left.Left(), right.Left(), left.Right(), right.Right())
				return
			}
		}
	}
	vm.push(runtime.Error())
}

func (vm *stackVM) eqCell(a, b runtime.Value) {
	switch left := a.(type) {
	case runtime.AtomValue:
		if right, ok := b.(runtime.AtomValue); ok {
			vm.push(atomsEqual(left, right))
			return
		}
	case *runtime.CellValue:
		if right, ok := b.(*runtime.CellValue); ok && left != nil && right != nil {
			vm.joinPair(stackTaskJoinEq, stackTaskEqCell, left.Left(), right.Left(), left.Right(), right.Right())
			return
		}
	}
	vm.push(nounFalse)
}

// joinPair schedules op(a1, b1) then op(a2, b2), followed by join over both
// results.
func (vm *stackVM) joinPair(join, op stackTaskKind, a1, b1, a2, b2 runtime.Value) {
	vm.tasks = append(vm.tasks,
		stackTask{kind: join},
		stackTask{kind: op, left: a2, right: b2},
		stackTask{kind: op, left: a1, right: b1},
	)
}

func (vm *stackVM) schedule(kind stackTaskKind, left, right runtime.Value) {
	vm.tasks = append(vm.tasks, stackTask{kind: kind, left: left, right: right})
}

func (vm *stackVM) push(v runtime.Value) {
	vm.values = append(vm.values, v)
}

func (vm *stackVM) pop() (runtime.Value, error) {
	if len(vm.values) == 0 {
		return nil, fmt.Errorf("stack vm: value stack underflow")
	}
	last := vm.values[len(vm.values)-1]
	vm.values = vm.values[:len(vm.values)-1]
	return last, nil
}

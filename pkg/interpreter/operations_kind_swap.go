package interpreter

import "github.com/Unlimited-Development-Works/Intent/pkg/runtime"

// Kind classifies v: Error for Error, 0 for atoms, 1 for cells.
func Kind(v runtime.Value) runtime.Value {
	return runtime.KindOf(v)
}

// Swap exchanges the children of a cell. Atoms are returned unchanged and
// Error stays Error. Swap(Swap(v)) is identical to v.
func Swap(v runtime.Value) runtime.Value {
	switch n := v.(type) {
	case runtime.AtomValue:
		return n
	case *runtime.CellValue:
		if n == nil {
			return runtime.Error()
		}
		return runtime.Cell(n.Right(), n.Left())
	default:
		return runtime.Error()
	}
}

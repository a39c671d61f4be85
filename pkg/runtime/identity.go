package runtime

// Identical reports whether a and b have the same shape and the same atoms.
// It is host-side structural identity, not the noun-level eq opcode, and walks
// with an explicit stack so deep trees do not grow the Go stack.
func Identical(a, b Value) bool {
	type pair struct{ a, b Value }
	pending := []pair{{a, b}}
	for len(pending) > 0 {
		top := pending[len(pending)-1]
		pending = pending[:len(pending)-1]
		switch x := top.a.(type) {
		case AtomValue:
			y, ok := top.b.(AtomValue)
			if !ok || x.Cmp(y) != 0 {
				return false
			}
		case *CellValue:
			if x == nil {
				if !IsError(top.b) {
					return false
				}
				continue
			}
			y, ok := top.b.(*CellValue)
			if !ok || y == nil {
				return false
			}
			if x == y {
				continue
			}
			pending = append(pending, pair{x.right, y.right}, pair{x.left, y.left})
		default:
			if !IsError(top.b) {
				return false
			}
		}
	}
	return true
}

// Size counts the atoms, cells and errors reachable from v, visiting shared
// sub-nouns once per reference.
func Size(v Value) int {
	count := 0
	pending := []Value{v}
	for len(pending) > 0 {
		top := pending[len(pending)-1]
		pending = pending[:len(pending)-1]
		count++
		if cell, ok := top.(*CellValue); ok && cell != nil {
			pending = append(pending, cell.right, cell.left)
		}
	}
	return count
}

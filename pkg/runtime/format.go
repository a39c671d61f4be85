package runtime

import "strings"

// Format renders v in the canonical JSON-compatible noun notation: atoms as
// decimal integers, Error as null, and cells as arrays whose right spine is
// flattened, so Cell(1, Cell(2, 3)) prints as [1, 2, 3].
func Format(v Value) string {
	var b strings.Builder
	writeValue(&b, v)
	return b.String()
}

func writeValue(b *strings.Builder, v Value) {
	switch n := v.(type) {
	case AtomValue:
		b.WriteString(n.String())
	case *CellValue:
		if n == nil {
			b.WriteString("null")
			return
		}
		b.WriteByte('[')
		writeValue(b, n.left)
		tail := n.right
		for {
			b.WriteString(", ")
			next, ok := tail.(*CellValue)
			if !ok || next == nil {
				writeValue(b, tail)
				break
			}
			writeValue(b, next.left)
			tail = next.right
		}
		b.WriteByte(']')
	default:
		b.WriteString("null")
	}
}

// KindName returns "error", "atom" or "cell" for v.
func KindName(v Value) string {
	if IsError(v) {
		return KindError.String()
	}
	return v.Kind().String()
}

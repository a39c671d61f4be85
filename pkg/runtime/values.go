package runtime

import (
	"fmt"
	"math/big"
)

// Kind identifies the runtime value category.
type Kind int

const (
	KindError Kind = iota
	KindAtom
	KindCell
)

func (k Kind) String() string {
	switch k {
	case KindError:
		return "error"
	case KindAtom:
		return "atom"
	case KindCell:
		return "cell"
	default:
		return fmt.Sprintf("unknown_kind_%d", int(k))
	}
}

// Value is the shared behaviour for all nouns. The set of implementations is
// closed: ErrorValue, AtomValue and *CellValue.
type Value interface {
	Kind() Kind
}

// ErrorValue is the failure sentinel. It carries no payload and is returned and
// propagated like any other noun.
type ErrorValue struct{}

func (ErrorValue) Kind() Kind { return KindError }

// AtomValue is a signed integer leaf of unbounded width. The integer is never
// mutated after construction.
type AtomValue struct {
	val *big.Int
}

func (v AtomValue) Kind() Kind { return KindAtom }

// Int returns a copy of the atom's integer.
func (v AtomValue) Int() *big.Int {
	return new(big.Int).Set(v.bigInt())
}

// Int64 reports the atom as an int64 when it fits.
func (v AtomValue) Int64() (int64, bool) {
	b := v.bigInt()
	if !b.IsInt64() {
		return 0, false
	}
	return b.Int64(), true
}

// Cmp compares two atoms numerically.
func (v AtomValue) Cmp(other AtomValue) int {
	return v.bigInt().Cmp(other.bigInt())
}

func (v AtomValue) String() string {
	return v.bigInt().String()
}

var bigZero = new(big.Int)

func (v AtomValue) bigInt() *big.Int {
	if v.val == nil {
		return bigZero
	}
	return v.val
}

// CellValue is an ordered pair of nouns. Children are shared, never copied, so a
// noun may appear under any number of parents.
type CellValue struct {
	left  Value
	right Value
}

func (v *CellValue) Kind() Kind { return KindCell }

// Left returns the head of the cell.
func (v *CellValue) Left() Value { return v.left }

// Right returns the tail of the cell.
func (v *CellValue) Right() Value { return v.right }

//-----------------------------------------------------------------------------
// Construction
//-----------------------------------------------------------------------------

// Error returns the failure sentinel.
func Error() Value { return ErrorValue{} }

// Atom constructs an atom from a machine integer.
func Atom(i int64) AtomValue {
	return AtomValue{val: big.NewInt(i)}
}

// AtomBig constructs an atom holding a copy of i. A nil i yields zero.
func AtomBig(i *big.Int) AtomValue {
	if i == nil {
		return AtomValue{val: new(big.Int)}
	}
	return AtomValue{val: new(big.Int).Set(i)}
}

// Cell pairs two existing nouns. A nil child is stored as Error so every cell
// always has exactly two nouns.
func Cell(left, right Value) *CellValue {
	if left == nil {
		left = ErrorValue{}
	}
	if right == nil {
		right = ErrorValue{}
	}
	return &CellValue{left: left, right: right}
}

// Tuple builds right-nested cells: Tuple(a, b, c) is Cell(a, Cell(b, c)).
// A single item is returned as is; no items yields Error.
func Tuple(items ...Value) Value {
	switch len(items) {
	case 0:
		return ErrorValue{}
	case 1:
		if items[0] == nil {
			return ErrorValue{}
		}
		return items[0]
	}
	var out Value = Cell(items[len(items)-2], items[len(items)-1])
	for i := len(items) - 3; i >= 0; i-- {
		out = Cell(items[i], out)
	}
	return out
}

//-----------------------------------------------------------------------------
// Inspection
//-----------------------------------------------------------------------------

// AtomOf returns a copy of the integer held by v, or false when v is not an atom.
func AtomOf(v Value) (*big.Int, bool) {
	if atom, ok := v.(AtomValue); ok {
		return atom.Int(), true
	}
	return nil, false
}

// CellOf returns the children of v, or false when v is not a cell.
func CellOf(v Value) (Value, Value, bool) {
	if cell, ok := v.(*CellValue); ok && cell != nil {
		return cell.left, cell.right, true
	}
	return nil, nil, false
}

// KindOf classifies v as a noun: Error for Error, 0 for any atom, 1 for any cell.
func KindOf(v Value) Value {
	switch n := v.(type) {
	case AtomValue:
		return Atom(0)
	case *CellValue:
		if n == nil {
			return ErrorValue{}
		}
		return Atom(1)
	default:
		return ErrorValue{}
	}
}

// IsError reports whether v is the failure sentinel. A nil interface counts.
func IsError(v Value) bool {
	switch n := v.(type) {
	case AtomValue:
		return false
	case *CellValue:
		return n == nil
	default:
		return true
	}
}

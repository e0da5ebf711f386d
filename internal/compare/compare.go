// Package compare implements the engine's total order and equality
// (spec.md §3 "Ordered containers", §4.F) plus checked integer/float
// arithmetic. It operates directly on *heap.Heap and heap.Index so
// internal/object, internal/treestore, and internal/engine can all
// depend on it without a cycle.
//
// Grounded on the teacher's internal/evaluator/objects_equal.go and
// expressions_operators.go (a type-switch per operator, numeric
// promotion across bool/int/float), adapted to the arena's tag-indexed
// entries instead of Go interface values.
package compare

import (
	"fmt"
	"math"

	"github.com/aspembed/asp/internal/heap"
)

// typeRank gives the total order's primary key: none < ellipsis <
// numeric < symbol < range < string < tuple < list < set < dictionary
// < iterators < functions < modules < app-objects < type.
func typeRank(tag heap.Tag) int {
	switch tag {
	case heap.TagNone:
		return 0
	case heap.TagEllipsis:
		return 1
	case heap.TagBoolean, heap.TagInteger, heap.TagFloat:
		return 2
	case heap.TagSymbol:
		return 3
	case heap.TagRange:
		return 4
	case heap.TagString:
		return 5
	case heap.TagTuple:
		return 6
	case heap.TagList:
		return 7
	case heap.TagSet:
		return 8
	case heap.TagDictionary:
		return 9
	case heap.TagIteratorFwd, heap.TagIteratorRev:
		return 10
	case heap.TagScriptFunction, heap.TagAppFunction:
		return 11
	case heap.TagModule:
		return 12
	case heap.TagAppInteger, heap.TagAppPointer:
		return 13
	case heap.TagType:
		return 14
	default:
		return 15
	}
}

func isNumeric(tag heap.Tag) bool {
	return tag == heap.TagBoolean || tag == heap.TagInteger || tag == heap.TagFloat
}

func numericValue(h *heap.Heap, idx heap.Index) float64 {
	e := h.At(idx)
	switch e.Tag {
	case heap.TagBoolean:
		if e.Int != 0 {
			return 1
		}
		return 0
	case heap.TagInteger:
		return float64(e.Int)
	case heap.TagFloat:
		return e.Float
	}
	return 0
}

// sign3 returns -1/0/1 for a<b / a==b / a>b on ordered Go values.
func sign3[T int | int32 | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// OrderKey computes the engine's total order between two values —
// used to keep the treestore's sets/dictionaries/namespaces ordered.
// It never errors: every pair of values has a defined position in the
// total order, even across unrelated types.
func OrderKey(h *heap.Heap, a, b heap.Index) int {
	ea, eb := h.At(a), h.At(b)
	ra, rb := typeRank(ea.Tag), typeRank(eb.Tag)
	if isNumeric(ea.Tag) && isNumeric(eb.Tag) {
		return sign3(numericValue(h, a), numericValue(h, b))
	}
	if ra != rb {
		return sign3(ra, rb)
	}
	switch ea.Tag {
	case heap.TagNone, heap.TagEllipsis:
		return 0
	case heap.TagSymbol:
		return sign3(ea.Int, eb.Int)
	case heap.TagString:
		return compareBytes(stringBytes(h, a), stringBytes(h, b))
	case heap.TagTuple, heap.TagList:
		return compareSequences(h, a, b)
	case heap.TagRange:
		if c := sign3(int(ea.L[0]), int(eb.L[0])); c != 0 {
			return c
		}
		if c := sign3(int(ea.L[1]), int(eb.L[1])); c != 0 {
			return c
		}
		return sign3(int(ea.L[2]), int(eb.L[2]))
	default:
		return sign3(int32(a), int32(b)) // identity order for reference types
	}
}

func stringBytes(h *heap.Heap, head heap.Index) []byte {
	var out []byte
	for e := h.At(head).L[heap.L0]; e != heap.NullIndex; e = h.At(e).L[heap.L1] {
		out = append(out, h.At(e).Bytes...)
	}
	return out
}

func compareBytes(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return sign3(int(a[i]), int(b[i]))
		}
	}
	return sign3(len(a), len(b))
}

func compareSequences(h *heap.Heap, a, b heap.Index) int {
	ea, eb := h.At(a).L[heap.L0], h.At(b).L[heap.L0]
	for {
		if ea == heap.NullIndex && eb == heap.NullIndex {
			return 0
		}
		if ea == heap.NullIndex {
			return -1
		}
		if eb == heap.NullIndex {
			return 1
		}
		va, vb := h.At(ea).L[heap.L0], h.At(eb).L[heap.L0]
		if c := OrderKey(h, va, vb); c != 0 {
			return c
		}
		ea, eb = h.At(ea).L[heap.L1], h.At(eb).L[heap.L1]
	}
}

// Equal reports value equality. Never errors (spec.md §4.F: "Equality
// comparisons never signal type errors").
func Equal(h *heap.Heap, a, b heap.Index) bool {
	if a == b {
		return true
	}
	ea, eb := h.At(a), h.At(b)
	if isNumeric(ea.Tag) && isNumeric(eb.Tag) {
		return numericValue(h, a) == numericValue(h, b)
	}
	if ea.Tag != eb.Tag {
		return false
	}
	return OrderKey(h, a, b) == 0
}

// ErrUnexpectedType is returned by Relational when asked to order two
// values with no defined relational comparison.
type ErrUnexpectedType struct{ Detail string }

func (e *ErrUnexpectedType) Error() string { return fmt.Sprintf("unexpected type: %s", e.Detail) }

// Relational implements the script-visible <, <=, >, >= operators:
// numeric family members compare by promoted value; strings compare
// only against strings; tuples/lists compare only against their own
// kind; everything else is not relationally comparable.
func Relational(h *heap.Heap, a, b heap.Index) (int, error) {
	ea, eb := h.At(a), h.At(b)
	if isNumeric(ea.Tag) && isNumeric(eb.Tag) {
		return sign3(numericValue(h, a), numericValue(h, b)), nil
	}
	if ea.Tag == heap.TagString && eb.Tag == heap.TagString {
		return compareBytes(stringBytes(h, a), stringBytes(h, b)), nil
	}
	if ea.Tag == eb.Tag && (ea.Tag == heap.TagTuple || ea.Tag == heap.TagList) {
		return compareSequences(h, a, b), nil
	}
	return 0, &ErrUnexpectedType{Detail: fmt.Sprintf("tag %d vs tag %d", ea.Tag, eb.Tag)}
}

// --- arithmetic (spec.md §4.F) ---

// ErrDivideByZero is returned by integer division/modulo by zero (DivInt,
// ModInt); float division follows IEEE-754 and yields Inf or NaN instead.
var ErrDivideByZero = fmt.Errorf("divide by zero")

// ErrArithmeticOverflow is returned when a widened computation shows
// the int32 result would overflow.
var ErrArithmeticOverflow = fmt.Errorf("arithmetic overflow")

func AddInt(a, b int32) (int32, error) {
	r := int64(a) + int64(b)
	if r < math.MinInt32 || r > math.MaxInt32 {
		return 0, ErrArithmeticOverflow
	}
	return int32(r), nil
}

func SubInt(a, b int32) (int32, error) {
	r := int64(a) - int64(b)
	if r < math.MinInt32 || r > math.MaxInt32 {
		return 0, ErrArithmeticOverflow
	}
	return int32(r), nil
}

func MulInt(a, b int32) (int32, error) {
	r := int64(a) * int64(b)
	if r < math.MinInt32 || r > math.MaxInt32 {
		return 0, ErrArithmeticOverflow
	}
	return int32(r), nil
}

func NegInt(a int32) (int32, error) {
	r := -int64(a)
	if r < math.MinInt32 || r > math.MaxInt32 {
		return 0, ErrArithmeticOverflow
	}
	return int32(r), nil
}

func DivInt(a, b int32) (int32, error) {
	if b == 0 {
		return 0, ErrDivideByZero
	}
	r := int64(a) / int64(b)
	if r < math.MinInt32 || r > math.MaxInt32 {
		return 0, ErrArithmeticOverflow
	}
	return int32(r), nil
}

func ModInt(a, b int32) (int32, error) {
	if b == 0 {
		return 0, ErrDivideByZero
	}
	return a % b, nil
}

// DivFloat and friends follow IEEE-754 with no trap: NaN/Inf propagate
// through ordinary Go float64 arithmetic, so no wrapper is needed for
// add/sub/mul; only division-by-zero-as-error is spec'd for the
// integer path. Float division by zero yields +/-Inf or NaN per IEEE-754,
// which is the documented behavior, not an engine error.
func DivFloat(a, b float64) float64 { return a / b }

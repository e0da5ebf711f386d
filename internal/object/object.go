// Package object implements the Asp object model: typed constructors
// and accessors layered over the fixed-capacity heap, the four
// singleton values, and the conversion/repr policies from spec.md §4.B.
//
// Grounded on the teacher's internal/vm/value.go and internal/vm/objects.go
// (small typed wrappers with a constructor and a handful of accessor
// methods per kind), adapted from Go-GC-owned structs to heap.Index
// handles: every "value" here is an index into a Store's heap, and
// construction always goes through the Store so singletons and
// reference counts stay correct (Design Note: arena indices replace
// pointer cross-references).
package object

import (
	"math"

	"github.com/aspembed/asp/internal/heap"
	"github.com/aspembed/asp/internal/seqstore"
	"github.com/aspembed/asp/internal/treestore"
)

// Value is a strong or borrowed reference to a heap entry. Ownership
// conventions follow the embedding API: most constructors return a
// value already holding one reference, which the caller must Unref
// (directly, or by handing it to a container that takes ownership).
type Value = heap.Index

// Null is the reserved absent/none-at-the-heap-level index, distinct
// from the None singleton value (which is a real TagNone entry).
const Null = heap.NullIndex

const DefaultFragmentCap = seqstore.DefaultFragmentCap

// Store is the object model: a heap plus the sequence/tree stores
// layered over it, plus the four singleton entries.
type Store struct {
	Heap *heap.Heap
	Seq  *seqstore.Store
	Tree *treestore.Store

	none     Value
	ellipsis Value
	trueVal  Value
	falseVal Value
}

// New builds a Store over a freshly-created heap with the given
// capacity and cycle-detection limit, wiring up seqstore/treestore and
// registering the combined ChildrenFunc so Heap.Unref can cascade.
func New(cfg heap.Config, fragmentCap int) *Store {
	h := heap.New(cfg)
	s := &Store{
		Heap: h,
		Seq:  seqstore.New(h, fragmentCap),
	}
	s.Tree = treestore.New(h, s.compareKeys)
	h.SetHooks(s.children)

	s.none, _ = h.Alloc(heap.TagNone)
	s.ellipsis, _ = h.Alloc(heap.TagEllipsis)
	s.trueVal, _ = h.Alloc(heap.TagBoolean)
	h.At(s.trueVal).Int = 1
	s.falseVal, _ = h.Alloc(heap.TagBoolean)
	h.At(s.falseVal).Int = 0
	return s
}

// None returns the none singleton, refcounted.
func (s *Store) None() Value { s.Heap.Ref(s.none); return s.none }

// Ellipsis returns the ellipsis singleton, refcounted.
func (s *Store) Ellipsis() Value { s.Heap.Ref(s.ellipsis); return s.ellipsis }

// Bool returns the true/false singleton, refcounted.
func (s *Store) Bool(b bool) Value {
	if b {
		s.Heap.Ref(s.trueVal)
		return s.trueVal
	}
	s.Heap.Ref(s.falseVal)
	return s.falseVal
}

// Tag returns the value's heap tag.
func (s *Store) Tag(v Value) heap.Tag { return s.Heap.At(v).Tag }

// Int creates a new integer entry.
func (s *Store) Int(v int32) Value {
	idx, _ := s.Heap.Alloc(heap.TagInteger)
	s.Heap.At(idx).Int = v
	return idx
}

// IntValue reads an integer entry's payload.
func (s *Store) IntValue(v Value) int32 { return s.Heap.At(v).Int }

// Float creates a new float entry.
func (s *Store) Float(v float64) Value {
	idx, _ := s.Heap.Alloc(heap.TagFloat)
	s.Heap.At(idx).Float = v
	return idx
}

// FloatValue reads a float entry's payload.
func (s *Store) FloatValue(v Value) float64 { return s.Heap.At(v).Float }

// Symbol creates a new symbol entry (32-bit signed id).
func (s *Store) Symbol(id int32) Value {
	idx, _ := s.Heap.Alloc(heap.TagSymbol)
	s.Heap.At(idx).Int = id
	return idx
}

// SymbolID reads a symbol entry's id.
func (s *Store) SymbolID(v Value) int32 { return s.Heap.At(v).Int }

// BoolValue reads a boolean entry's payload.
func (s *Store) BoolValue(v Value) bool { return s.Heap.At(v).Int != 0 }

// --- integer conversions (spec.md §4.B) ---

// IntFromFloat truncates f via round-to-nearest (ties away from zero,
// matching original_source/engine/lib-type.c's AspToInteger): NaN -> 0,
// out-of-range finite or infinite -> saturated int32 min/max. When
// check is true, any value that was not already an exact int32 (NaN,
// out-of-range, or a fractional part) is reported as an error instead.
func IntFromFloat(f float64, check bool) (int32, error) {
	if math.IsNaN(f) {
		if check {
			return 0, errValueOutOfRange
		}
		return 0, nil
	}
	r := math.Round(f)
	if r > math.MaxInt32 {
		if check {
			return 0, errValueOutOfRange
		}
		return math.MaxInt32, nil
	}
	if r < math.MinInt32 {
		if check {
			return 0, errValueOutOfRange
		}
		return math.MinInt32, nil
	}
	if check && r != f {
		return 0, errValueOutOfRange
	}
	return int32(r), nil
}

var errValueOutOfRange = &ValueOutOfRangeError{}

// ValueOutOfRangeError is returned by checked conversions that lose
// precision or would saturate.
type ValueOutOfRangeError struct{}

func (*ValueOutOfRangeError) Error() string { return "value out of range" }

// NegatedMinSentinel marks an integer literal token as the bytecode
// compiler's representation of -INT32_MIN, preserving representability
// of math.MinInt32 through unary negation of its positive counterpart
// (spec.md §4.B: "a sentinel 'negated-min' attribute on the integer
// literal token").
type NegatedMinSentinel struct{}

// NegateInt32 negates v, detecting the one case that would overflow
// (MinInt32) and following the sentinel convention instead of wrapping.
func NegateInt32(v int32) (int32, bool) {
	if v == math.MinInt32 {
		return 0, false // caller must use the negated-min literal path instead
	}
	return -v, true
}

package object

import (
	"fmt"

	"github.com/aspembed/asp/internal/compare"
	"github.com/aspembed/asp/internal/heap"
)

// compareKeys adapts compare.OrderKey to treestore.Compare's signature.
func (s *Store) compareKeys(h *heap.Heap, a, b heap.Index) int {
	return compare.OrderKey(h, a, b)
}

// IsValidKey reports whether v may be used as a set/dictionary key:
// none, ellipsis, boolean, integer, float, symbol, range, string,
// tuple of keys, frozen (script) function, or type (spec.md §3 "Keys").
func (s *Store) IsValidKey(v Value) bool {
	if v == Null {
		return false
	}
	switch s.Tag(v) {
	case heap.TagNone, heap.TagEllipsis, heap.TagBoolean, heap.TagInteger, heap.TagFloat,
		heap.TagSymbol, heap.TagRange, heap.TagString, heap.TagType:
		return true
	case heap.TagScriptFunction, heap.TagAppFunction:
		return s.IsFrozen(v)
	case heap.TagTuple:
		for e := s.Seq.First(v); e != heap.NullIndex; e = s.Seq.Next(e) {
			if !s.IsValidKey(s.Seq.Value(e)) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// UnexpectedTypeError is the engine-wide error for a value used where
// its type is not permitted (spec.md §7 "unexpected-type").
type UnexpectedTypeError struct{ Detail string }

func (e *UnexpectedTypeError) Error() string { return fmt.Sprintf("unexpected type: %s", e.Detail) }

func errUnexpectedType(detail string) error { return &UnexpectedTypeError{Detail: detail} }

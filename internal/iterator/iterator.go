// Package iterator implements cursor objects over sequences, trees,
// and ranges (spec.md §4.E), as a thin layer above internal/object: an
// iterator entry holds a strong reference to the iterable plus a
// cursor, and Dereference/Advance step it without copying the
// iterable.
//
// Grounded on the teacher's internal/vm range-based for-loop lowering
// (a single opcode pair driving a position + source pair), adapted
// here into a first-class heap value so the embedding API can expose
// an iterator handle directly (spec.md §5 predicates/extractors
// include "is an iterator").
package iterator

import (
	"github.com/aspembed/asp/internal/heap"
	"github.com/aspembed/asp/internal/object"
)

// New allocates an iterator over iterable, positioned at its first
// element (forward) or last element (reverse). Takes a reference on
// iterable.
func New(s *object.Store, iterable object.Value, reverse bool) object.Value {
	tag := heap.TagIteratorFwd
	if reverse {
		tag = heap.TagIteratorRev
	}
	v, _ := s.Heap.Alloc(tag)
	e := s.Heap.At(v)
	e.L[heap.L0] = iterable
	s.Heap.Ref(iterable)

	switch s.Tag(iterable) {
	case heap.TagString, heap.TagTuple, heap.TagList:
		if reverse {
			e.L[heap.L1] = s.Seq.Last(iterable)
		} else {
			e.L[heap.L1] = s.Seq.First(iterable)
		}
	case heap.TagSet, heap.TagDictionary, heap.TagNamespace:
		if reverse {
			e.L[heap.L1] = lastInOrder(s, iterable)
		} else {
			e.L[heap.L1] = s.Tree.NextInOrder(iterable, object.Null)
		}
	case heap.TagRange:
		if reverse {
			e.Int, e.Flag = rangeLastCursor(s, iterable)
		} else {
			e.Int = s.RangeStart(iterable)
			e.Flag = s.RangeAtEnd(iterable, e.Int)
		}
	}
	return v
}

func lastInOrder(s *object.Store, head object.Value) heap.Index {
	last := heap.NullIndex
	for n := s.Tree.NextInOrder(head, object.Null); n != heap.NullIndex; n = s.Tree.NextInOrder(head, n) {
		last = n
	}
	return last
}

// rangeLastCursor computes the final in-range integer for a bounded
// range walked in reverse, and whether the range is empty.
func rangeLastCursor(s *object.Store, v object.Value) (int32, bool) {
	end, bounded := s.RangeEndBounded(v)
	step := s.RangeStep(v)
	start := s.RangeStart(v)
	if !bounded {
		// An unbounded range has no defined last element; a reverse
		// iterator over one starts at end and yields nothing.
		return start, true
	}
	if step > 0 {
		if start >= end {
			return start, true
		}
		n := (end - start - 1) / step
		return start + n*step, false
	}
	if start <= end {
		return start, true
	}
	n := (start - end - 1) / (-step)
	return start + n*step, false
}

func isReverse(s *object.Store, iter object.Value) bool {
	return s.Tag(iter) == heap.TagIteratorRev
}

// Iterable returns the iterable an iterator was constructed over.
func Iterable(s *object.Store, iter object.Value) object.Value {
	return s.Heap.At(iter).L[heap.L0]
}

// AtEnd reports whether the iterator has advanced past its iterable's
// last element.
func AtEnd(s *object.Store, iter object.Value) bool {
	iterable := Iterable(s, iter)
	e := s.Heap.At(iter)
	switch s.Tag(iterable) {
	case heap.TagString, heap.TagTuple, heap.TagList, heap.TagSet, heap.TagDictionary, heap.TagNamespace:
		return e.L[heap.L1] == heap.NullIndex
	case heap.TagRange:
		return e.Flag
	}
	return true
}

// Dereference returns the current value: for sequences the element
// value, for sets/dicts/namespaces the key, for ranges the current
// integer as a fresh Integer value. Returns object.Null at end.
func Dereference(s *object.Store, iter object.Value) object.Value {
	if AtEnd(s, iter) {
		return object.Null
	}
	iterable := Iterable(s, iter)
	e := s.Heap.At(iter)
	switch s.Tag(iterable) {
	case heap.TagString, heap.TagTuple, heap.TagList:
		return s.Seq.Value(e.L[heap.L1])
	case heap.TagSet, heap.TagDictionary, heap.TagNamespace:
		return s.Tree.Key(e.L[heap.L1])
	case heap.TagRange:
		return s.Int(e.Int)
	}
	return object.Null
}

// DereferenceValue returns the companion value for a dictionary
// iterator (the entry's value, as opposed to its key). Returns
// object.Null for any other iterable kind, or at end.
func DereferenceValue(s *object.Store, iter object.Value) object.Value {
	iterable := Iterable(s, iter)
	if s.Tag(iterable) != heap.TagDictionary || AtEnd(s, iter) {
		return object.Null
	}
	return s.Tree.Value(s.Heap.At(iter).L[heap.L1])
}

// Advance steps the cursor one position in the iterator's direction.
// A no-op once AtEnd.
func Advance(s *object.Store, iter object.Value) {
	if AtEnd(s, iter) {
		return
	}
	iterable := Iterable(s, iter)
	e := s.Heap.At(iter)
	reverse := isReverse(s, iter)
	switch s.Tag(iterable) {
	case heap.TagString, heap.TagTuple, heap.TagList:
		if reverse {
			e.L[heap.L1] = s.Seq.Prev(e.L[heap.L1])
		} else {
			e.L[heap.L1] = s.Seq.Next(e.L[heap.L1])
		}
	case heap.TagSet, heap.TagDictionary, heap.TagNamespace:
		if reverse {
			e.L[heap.L1] = prevInOrder(s, iterable, e.L[heap.L1])
		} else {
			e.L[heap.L1] = s.Tree.NextInOrder(iterable, e.L[heap.L1])
		}
	case heap.TagRange:
		step := s.RangeStep(iterable)
		if reverse {
			e.Int -= step
			_, bounded := s.RangeEndBounded(iterable)
			start := s.RangeStart(iterable)
			if !bounded || (step > 0 && e.Int < start) || (step < 0 && e.Int > start) {
				e.Flag = true
			}
		} else {
			e.Int += step
			e.Flag = s.RangeAtEnd(iterable, e.Int)
		}
	}
}

// prevInOrder walks from the tree's start to find the predecessor of
// n; the tree store only exposes forward in-order stepping, so a
// reverse cursor re-derives its predecessor by scanning (bounded by
// the container's own size, not the engine's cycle-detection limit).
func prevInOrder(s *object.Store, head, n object.Value) heap.Index {
	prev := heap.NullIndex
	for cur := s.Tree.NextInOrder(head, object.Null); cur != heap.NullIndex; cur = s.Tree.NextInOrder(head, cur) {
		if cur == n {
			return prev
		}
		prev = cur
	}
	return heap.NullIndex
}

// Equal reports whether two iterators reference the same iterable and
// sit at the same cursor position (spec.md §4.E and §8 "Iterator
// equality").
func Equal(s *object.Store, a, b object.Value) bool {
	if Iterable(s, a) != Iterable(s, b) {
		return false
	}
	ea, eb := s.Heap.At(a), s.Heap.At(b)
	iterable := Iterable(s, a)
	switch s.Tag(iterable) {
	case heap.TagRange:
		return ea.Int == eb.Int && ea.Flag == eb.Flag
	default:
		return ea.L[heap.L1] == eb.L[heap.L1]
	}
}

package object

import "github.com/aspembed/asp/internal/heap"

// NewRange allocates a range with optional start/end/step, each either
// Null (absent) or an integer Value. Canonical absent values: start
// defaults to 0 (or -1 if step<0), end defaults to unbounded, step
// defaults to 1 (spec.md §3 "Ranges"). NewRange takes a reference on
// each non-null component.
func (s *Store) NewRange(start, end, step Value) Value {
	v, _ := s.Heap.Alloc(heap.TagRange)
	e := s.Heap.At(v)
	e.L[heap.L0], e.L[heap.L1], e.L[heap.L2] = start, end, step
	if start != Null {
		s.Heap.Ref(start)
	}
	if end != Null {
		s.Heap.Ref(end)
	}
	if step != Null {
		s.Heap.Ref(step)
	}
	return v
}

// RangeParts returns the raw start/end/step component indices (Null if absent).
func (s *Store) RangeParts(v Value) (start, end, step Value) {
	e := s.Heap.At(v)
	return e.L[heap.L0], e.L[heap.L1], e.L[heap.L2]
}

// RangeStep returns the effective step, defaulting to 1 when absent.
func (s *Store) RangeStep(v Value) int32 {
	_, _, step := s.RangeParts(v)
	if step == Null {
		return 1
	}
	return s.IntValue(step)
}

// RangeStart returns the effective start: 0, or -1 if the step is
// negative, when absent.
func (s *Store) RangeStart(v Value) int32 {
	start, _, _ := s.RangeParts(v)
	if start != Null {
		return s.IntValue(start)
	}
	if s.RangeStep(v) < 0 {
		return -1
	}
	return 0
}

// RangeEndBounded reports whether the range has a concrete end, and
// its value when it does. An unbounded range (spec.md §3) must never
// be materialized as a concrete sequence.
func (s *Store) RangeEndBounded(v Value) (int32, bool) {
	_, end, _ := s.RangeParts(v)
	if end == Null {
		return 0, false
	}
	return s.IntValue(end), true
}

// RangeAtEnd reports whether cur has passed the range's end, respecting
// step direction. An unbounded range is never at-end.
func (s *Store) RangeAtEnd(v Value, cur int32) bool {
	end, bounded := s.RangeEndBounded(v)
	if !bounded {
		return false
	}
	if s.RangeStep(v) < 0 {
		return cur <= end
	}
	return cur >= end
}

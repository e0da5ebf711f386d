package embedabi

import (
	"github.com/aspembed/asp/internal/heap"
	"github.com/aspembed/asp/internal/object"
)

// NewNone mirrors AspNewNone.
func NewNone(s *object.Store) object.Value { return s.None() }

// NewEllipsis mirrors AspNewEllipsis.
func NewEllipsis(s *object.Store) object.Value { return s.Ellipsis() }

// NewBoolean mirrors AspNewBoolean.
func NewBoolean(s *object.Store, b bool) object.Value { return s.Bool(b) }

// NewInteger mirrors AspNewInteger.
func NewInteger(s *object.Store, v int32) object.Value { return s.Int(v) }

// NewFloat mirrors AspNewFloat.
func NewFloat(s *object.Store, v float64) object.Value { return s.Float(v) }

// NewSymbol mirrors AspNewSymbol.
func NewSymbol(s *object.Store, id int32) object.Value { return s.Symbol(id) }

// NewRange mirrors AspNewRange: start and step are always given; end
// is given with endBounded true, or ignored (unbounded range) when
// endBounded is false.
func NewRange(s *object.Store, start, end int32, endBounded bool, step int32) object.Value {
	startV := s.Int(start)
	stepV := s.Int(step)
	endV := object.Null
	if endBounded {
		endV = s.Int(end)
	}
	r := s.NewRange(startV, endV, stepV)
	s.Heap.Unref(startV)
	if endBounded {
		s.Heap.Unref(endV)
	}
	s.Heap.Unref(stepV)
	return r
}

// NewString mirrors AspNewString, copying data into a new string value.
func NewString(s *object.Store, data []byte) object.Value { return s.NewStringFrom(data) }

// NewTuple mirrors AspNewTuple (an initially empty tuple; elements are
// appended with TupleAppend).
func NewTuple(s *object.Store) object.Value { return s.NewTuple() }

// NewList mirrors AspNewList.
func NewList(s *object.Store) object.Value { return s.NewList() }

// NewSet mirrors AspNewSet.
func NewSet(s *object.Store) object.Value { return s.NewSet() }

// NewDictionary mirrors AspNewDictionary.
func NewDictionary(s *object.Store) object.Value { return s.NewDictionary() }

// NewType mirrors AspNewType.
func NewType(s *object.Store, tag heap.Tag) object.Value { return s.NewType(tag) }

// NewAppInteger mirrors AspNewAppInteger.
func NewAppInteger(s *object.Store, appTag uint16, value int32) object.Value {
	return s.NewAppInteger(appTag, value)
}

// NewAppPointer mirrors AspNewAppPointer.
func NewAppPointer(s *object.Store, appTag uint16, ptr uintptr, dtor heap.AppDestructor) object.Value {
	return s.NewAppPointer(appTag, ptr, dtor)
}

package embedabi

import (
	"github.com/aspembed/asp/internal/heap"
	"github.com/aspembed/asp/internal/object"
)

// IsNone mirrors asp.h's AspIsNone.
func IsNone(s *object.Store, v object.Value) bool { return s.Tag(v) == heap.TagNone }

// IsEllipsis mirrors AspIsEllipsis.
func IsEllipsis(s *object.Store, v object.Value) bool { return s.Tag(v) == heap.TagEllipsis }

// IsBoolean mirrors AspIsBoolean.
func IsBoolean(s *object.Store, v object.Value) bool { return s.Tag(v) == heap.TagBoolean }

// IsInteger mirrors AspIsInteger.
func IsInteger(s *object.Store, v object.Value) bool { return s.Tag(v) == heap.TagInteger }

// IsFloat mirrors AspIsFloat.
func IsFloat(s *object.Store, v object.Value) bool { return s.Tag(v) == heap.TagFloat }

// IsNumber mirrors AspIsNumber (boolean, integer, or float).
func IsNumber(s *object.Store, v object.Value) bool {
	switch s.Tag(v) {
	case heap.TagBoolean, heap.TagInteger, heap.TagFloat:
		return true
	default:
		return false
	}
}

// IsSymbol mirrors AspIsSymbol.
func IsSymbol(s *object.Store, v object.Value) bool { return s.Tag(v) == heap.TagSymbol }

// IsRange mirrors AspIsRange.
func IsRange(s *object.Store, v object.Value) bool { return s.Tag(v) == heap.TagRange }

// IsString mirrors AspIsString.
func IsString(s *object.Store, v object.Value) bool { return s.Tag(v) == heap.TagString }

// IsTuple mirrors AspIsTuple.
func IsTuple(s *object.Store, v object.Value) bool { return s.Tag(v) == heap.TagTuple }

// IsList mirrors AspIsList.
func IsList(s *object.Store, v object.Value) bool { return s.Tag(v) == heap.TagList }

// IsSet mirrors AspIsSet.
func IsSet(s *object.Store, v object.Value) bool { return s.Tag(v) == heap.TagSet }

// IsDictionary mirrors AspIsDictionary.
func IsDictionary(s *object.Store, v object.Value) bool { return s.Tag(v) == heap.TagDictionary }

// IsIterator mirrors AspIsIterator.
func IsIterator(s *object.Store, v object.Value) bool {
	t := s.Tag(v)
	return t == heap.TagIteratorFwd || t == heap.TagIteratorRev
}

// IsFunction mirrors AspIsFunction (script or app function).
func IsFunction(s *object.Store, v object.Value) bool {
	t := s.Tag(v)
	return t == heap.TagScriptFunction || t == heap.TagAppFunction
}

// IsModule mirrors AspIsModule.
func IsModule(s *object.Store, v object.Value) bool { return s.Tag(v) == heap.TagModule }

// IsType mirrors AspIsType.
func IsType(s *object.Store, v object.Value) bool { return s.Tag(v) == heap.TagType }

// IsAppObject mirrors AspIsAppObject (app-owned integer or pointer object).
func IsAppObject(s *object.Store, v object.Value) bool {
	t := s.Tag(v)
	return t == heap.TagAppInteger || t == heap.TagAppPointer
}

// IsTrue mirrors AspIsTrue, the script truthiness test.
func IsTrue(s *object.Store, v object.Value) bool { return s.ToBool(v) }

// IsContainer mirrors AspIsContainer: a value whose contents can be
// mutated through the container mutators in mutate.go.
func IsContainer(s *object.Store, v object.Value) bool {
	switch s.Tag(v) {
	case heap.TagTuple, heap.TagList, heap.TagString, heap.TagSet, heap.TagDictionary:
		return true
	default:
		return false
	}
}

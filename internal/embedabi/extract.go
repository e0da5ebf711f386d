package embedabi

import (
	"github.com/aspembed/asp/internal/heap"
	"github.com/aspembed/asp/internal/iterator"
	"github.com/aspembed/asp/internal/object"
)

// IntegerValue mirrors AspIntegerValue, reading a boolean or integer
// as an int32 (booleans promote to 0/1, matching asNumber in the
// bytecode arithmetic path).
func IntegerValue(s *object.Store, v object.Value) int32 {
	if s.Tag(v) == heap.TagBoolean {
		if s.BoolValue(v) {
			return 1
		}
		return 0
	}
	return s.IntValue(v)
}

// FloatValue mirrors AspFloatValue.
func FloatValue(s *object.Store, v object.Value) float64 { return s.FloatValue(v) }

// SymbolValue mirrors AspSymbolValue.
func SymbolValue(s *object.Store, v object.Value) int32 { return s.SymbolID(v) }

// RangeValues mirrors AspRangeValues: start, an end bound (with a
// boundedness flag since an unbounded end has no finite value), and
// step.
func RangeValues(s *object.Store, v object.Value) (start, end int32, endBounded bool, step int32) {
	start = s.RangeStart(v)
	end, endBounded = s.RangeEndBounded(v)
	step = s.RangeStep(v)
	return
}

// StringValue mirrors AspStringValue, copying up to len(buf) bytes of
// the string's content into buf and returning the string's full
// length (which may exceed len(buf), the same truncate-and-report
// contract as the C API's buffer-fill functions).
func StringValue(s *object.Store, v object.Value, buf []byte) int32 {
	data := s.StringBytes(v)
	copy(buf, data)
	return int32(len(data))
}

// ToString mirrors AspToString: the str() conversion of any value.
func ToString(s *object.Store, v object.Value) (string, error) { return s.ToString(v) }

// ToRepr mirrors AspToRepr: the repr() conversion of any value.
func ToRepr(s *object.Store, v object.Value) (string, error) { return s.Repr(v) }

// Count mirrors AspCount: the element count of a sequence, set,
// dictionary, or string.
func Count(s *object.Store, v object.Value) int32 {
	switch s.Tag(v) {
	case heap.TagString:
		return s.StringLen(v)
	case heap.TagTuple, heap.TagList:
		return s.SequenceLen(v)
	case heap.TagSet, heap.TagDictionary:
		return s.TreeLen(v)
	default:
		return 0
	}
}

// Element mirrors AspElement: the index-th element of a tuple or list.
func Element(s *object.Store, seq object.Value, index int) (object.Value, error) {
	return s.SequenceAt(seq, index)
}

// RangeElement mirrors AspRangeElement: the index-th integer a range
// would yield if iterated.
func RangeElement(s *object.Store, rangeVal object.Value, index int32) int32 {
	return s.RangeStart(rangeVal) + index*s.RangeStep(rangeVal)
}

// StringElement mirrors AspStringElement: the index-th byte of a string.
func StringElement(s *object.Store, str object.Value, index int) (byte, bool) {
	data := s.StringBytes(str)
	if index < 0 || index >= len(data) {
		return 0, false
	}
	return data[index], true
}

// Find mirrors AspFind: a set's or dictionary's membership test,
// returning the value mapped to key (dictionaries) or the probe itself
// (sets) and whether it was present.
func Find(s *object.Store, container, key object.Value) (object.Value, bool) {
	if s.Tag(container) == heap.TagDictionary {
		return s.DictionaryLookup(container, key)
	}
	return key, s.SetContains(container, key)
}

// At mirrors AspAt: the value at an iterator's current position.
func At(s *object.Store, iter object.Value) object.Value { return iterator.DereferenceValue(s, iter) }

// AtSame mirrors AspAtSame: whether two iterators currently reference
// the same position of the same iterable.
func AtSame(s *object.Store, a, b object.Value) bool { return iterator.Equal(s, a, b) }

// Next mirrors AspNext: advances iter by one position.
func Next(s *object.Store, iter object.Value) { iterator.Advance(s, iter) }

// Iterable mirrors AspIterable: the underlying iterable an iterator
// walks.
func Iterable(s *object.Store, iter object.Value) object.Value { return iterator.Iterable(s, iter) }

// AppObjectTypeValue mirrors AspAppObjectTypeValue: the app-defined tag
// distinguishing kinds of app integer/pointer objects from each other.
func AppObjectTypeValue(s *object.Store, v object.Value) uint16 {
	if s.Tag(v) == heap.TagAppInteger {
		return s.AppIntegerTag(v)
	}
	return s.AppPointerTag(v)
}

// AppIntegerObjectValues mirrors AspAppIntegerObjectValues.
func AppIntegerObjectValues(s *object.Store, v object.Value) (tag uint16, value int32) {
	return s.AppIntegerTag(v), s.AppIntegerValue(v)
}

// AppPointerObjectValues mirrors AspAppPointerObjectValues.
func AppPointerObjectValues(s *object.Store, v object.Value) (tag uint16, ptr uintptr) {
	return s.AppPointerTag(v), s.AppPointerValue(v)
}

package embedabi

import "github.com/aspembed/asp/internal/object"

// Every object.Store container insert already takes its own reference
// on the inserted value (see internal/object/container.go doc
// comments), leaving the caller's original reference theirs to manage.
// The embedding API's take flag (asp.h: "bool take") asks for the
// opposite default: the container consumes the caller's reference
// outright. releaseIfTaken reconciles the two by dropping the extra
// reference the caller still holds once take is true, regardless of
// whether the underlying insert succeeded — matching asp.h's own
// unconditional-consume contract for its take-flagged calls.
func releaseIfTaken(s *object.Store, v object.Value, take bool) {
	if take {
		s.Heap.Unref(v)
	}
}

// TupleAppend mirrors AspTupleAppend.
func TupleAppend(s *object.Store, tuple, value object.Value, take bool) error {
	err := s.SequenceAppend(tuple, value)
	releaseIfTaken(s, value, take)
	return err
}

// ListAppend mirrors AspListAppend.
func ListAppend(s *object.Store, list, value object.Value, take bool) error {
	err := s.SequenceAppend(list, value)
	releaseIfTaken(s, value, take)
	return err
}

// ListInsert mirrors AspListInsert.
func ListInsert(s *object.Store, list object.Value, index int, value object.Value, take bool) error {
	err := s.SequenceInsertAt(list, index, value)
	releaseIfTaken(s, value, take)
	return err
}

// ListErase mirrors AspListErase: removes and unrefs the list's own
// reference to the element at index. Distinct from EraseAt, which is
// the sequence-generic mirror of AspEraseAt.
func ListErase(s *object.Store, list object.Value, index int) error {
	return s.SequenceEraseAt(list, index)
}

// InsertAt mirrors AspInsertAt: sequence-generic insert, usable on
// either a tuple under construction or a list.
func InsertAt(s *object.Store, seq object.Value, index int, value object.Value, take bool) error {
	err := s.SequenceInsertAt(seq, index, value)
	releaseIfTaken(s, value, take)
	return err
}

// EraseAt mirrors AspEraseAt.
func EraseAt(s *object.Store, seq object.Value, index int) error {
	return s.SequenceEraseAt(seq, index)
}

// StringAppend mirrors AspStringAppend, appending raw bytes in place.
func StringAppend(s *object.Store, str object.Value, data []byte) error {
	return s.StringAppend(str, data)
}

// SetInsert mirrors AspSetInsert.
func SetInsert(s *object.Store, set, key object.Value, take bool) (bool, error) {
	inserted, err := s.SetInsert(set, key)
	releaseIfTaken(s, key, take)
	return inserted, err
}

// SetErase mirrors AspSetErase.
func SetErase(s *object.Store, set, key object.Value) error { return s.SetErase(set, key) }

// DictionaryInsert mirrors AspDictionaryInsert. Both key and value are
// subject to take independently, matching asp.h's two separate take
// parameters on the dictionary insert call.
func DictionaryInsert(s *object.Store, dict, key, value object.Value, takeKey, takeValue bool) error {
	err := s.DictionaryInsert(dict, key, value)
	releaseIfTaken(s, key, takeKey)
	releaseIfTaken(s, value, takeValue)
	return err
}

// DictionaryErase mirrors AspDictionaryErase.
func DictionaryErase(s *object.Store, dict, key object.Value) error {
	return s.DictionaryErase(dict, key)
}

package object

import "github.com/aspembed/asp/internal/heap"

// --- strings ---

// NewString allocates an empty string.
func (s *Store) NewString() Value {
	v, _ := s.Seq.NewHeader(heap.TagString)
	return v
}

// NewStringFrom allocates a string initialized with data.
func (s *Store) NewStringFrom(data []byte) Value {
	v := s.NewString()
	s.Seq.AppendBytes(v, data)
	return v
}

// StringAppend appends raw bytes to an existing string in place.
func (s *Store) StringAppend(v Value, data []byte) error {
	return s.Seq.AppendBytes(v, data)
}

// StringLen returns a string's byte length.
func (s *Store) StringLen(v Value) int32 { return s.Heap.At(v).Int }

// StringBytes reassembles a string's fragment chain into a single
// buffer. Call sparingly on large strings; the ABI's buffered
// StringValue extractor is the streaming alternative.
func (s *Store) StringBytes(v Value) []byte {
	out := make([]byte, 0, s.StringLen(v))
	for e := s.Seq.First(v); e != heap.NullIndex; e = s.Seq.Next(e) {
		out = append(out, s.Seq.Bytes(e)...)
	}
	return out
}

// --- tuples & lists ---

// NewTuple allocates an empty tuple header. Tuples are immutable once
// built by the caller (the bytecode MAKE_TUPLE-style instruction) but
// share the sequence store's append machinery during construction.
func (s *Store) NewTuple() Value {
	v, _ := s.Seq.NewHeader(heap.TagTuple)
	return v
}

// NewList allocates an empty list header.
func (s *Store) NewList() Value {
	v, _ := s.Seq.NewHeader(heap.TagList)
	return v
}

// SequenceLen returns the element count of a string/tuple/list.
func (s *Store) SequenceLen(v Value) int32 { return s.Seq.Count(v) }

// SequenceAppend appends value to a tuple/list, taking a reference.
func (s *Store) SequenceAppend(seq, value Value) error {
	_, err := s.Seq.AppendValue(seq, value)
	return err
}

// SequenceInsertAt inserts value at index (negative counts from the end).
func (s *Store) SequenceInsertAt(seq Value, index int, value Value) error {
	return s.Seq.InsertValueAt(seq, index, value)
}

// SequenceEraseAt removes and unrefs the element at index.
func (s *Store) SequenceEraseAt(seq Value, index int) error {
	return s.Seq.EraseAt(seq, index)
}

// SequenceAt returns the value at index without changing any reference
// count (the sequence's own reference is the one the caller observes).
func (s *Store) SequenceAt(seq Value, index int) (Value, error) {
	elem, err := s.Seq.ElementAt(seq, index)
	if err != nil {
		return Null, err
	}
	return s.Seq.Value(elem), nil
}

// --- sets & dictionaries ---

// NewSet allocates an empty set.
func (s *Store) NewSet() Value {
	v, _ := s.Tree.NewHeader(heap.TagSet)
	return v
}

// NewDictionary allocates an empty dictionary.
func (s *Store) NewDictionary() Value {
	v, _ := s.Tree.NewHeader(heap.TagDictionary)
	return v
}

// NewNamespace allocates an empty namespace tree.
func (s *Store) NewNamespace() Value {
	v, _ := s.Tree.NewHeader(heap.TagNamespace)
	return v
}

// TreeLen returns the element count of a set/dictionary/namespace.
func (s *Store) TreeLen(v Value) int32 { return s.Tree.Count(v) }

// SetInsert inserts key into a set if not already present. Returns
// whether it was newly inserted.
func (s *Store) SetInsert(set, key Value) (bool, error) {
	if !s.IsValidKey(key) {
		return false, errUnexpectedType("set key")
	}
	res, err := s.Tree.TryInsert(set, key, Null)
	if err != nil {
		return false, err
	}
	return res.Inserted, nil
}

// SetContains reports whether key is present in set.
func (s *Store) SetContains(set, key Value) bool {
	return s.Tree.Find(set, key) != heap.NullIndex
}

// SetErase removes key from set, if present.
func (s *Store) SetErase(set, key Value) error {
	return s.Tree.Erase(set, key)
}

// DictionaryInsert inserts or overwrites key -> value.
func (s *Store) DictionaryInsert(dict, key, value Value) error {
	if !s.IsValidKey(key) {
		return errUnexpectedType("dictionary key")
	}
	_, err := s.Tree.Insert(dict, key, value)
	return err
}

// DictionaryLookup returns the value for key, and whether it was found.
func (s *Store) DictionaryLookup(dict, key Value) (Value, bool) {
	n := s.Tree.Find(dict, key)
	if n == heap.NullIndex {
		return Null, false
	}
	return s.Tree.Value(n), true
}

// DictionaryErase removes key and its value from dict.
func (s *Store) DictionaryErase(dict, key Value) error {
	return s.Tree.Erase(dict, key)
}

// --- namespaces (component D, keyed by symbol id rather than by value) ---

// NamespaceLoad finds the value bound to symbolID in ns.
func (s *Store) NamespaceLoad(ns Value, symbolID int32) (Value, bool) {
	n := s.Tree.FindBySymbol(ns, symbolID)
	if n == heap.NullIndex {
		return Null, false
	}
	return s.Tree.Value(n), true
}

// NamespaceStore binds symbolID to value in ns, overwriting any
// existing binding.
func (s *Store) NamespaceStore(ns Value, symbolID int32, value Value) error {
	key := s.symbolKey(symbolID)
	_, err := s.Tree.Insert(ns, key, value)
	s.Heap.Unref(key)
	return err
}

// NamespaceErase unbinds symbolID from ns, if bound.
func (s *Store) NamespaceErase(ns Value, symbolID int32) error {
	key := s.symbolKey(symbolID)
	err := s.Tree.Erase(ns, key)
	s.Heap.Unref(key)
	return err
}

// symbolKey builds a throwaway TagInteger entry used as a namespace
// lookup/insert key; namespace keys compare by raw Int value (see
// compareKeys), so a symbol id and its integer-entry encoding are
// interchangeable for this purpose.
func (s *Store) symbolKey(symbolID int32) Value {
	idx, _ := s.Heap.Alloc(heap.TagInteger)
	s.Heap.At(idx).Int = symbolID
	return idx
}

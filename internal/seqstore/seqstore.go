// Package seqstore implements the sequence store: a header entry
// pointing to a doubly-linkable chain of element entries, backing
// strings, tuples, lists, and argument/parameter lists. Strings use
// TagSeqElemBytes elements (inline byte fragments); every other
// sequence uses TagSeqElemValue elements (a strong reference to a
// value entry).
//
// Grounded on the teacher's internal/vm/chunk.go append-and-grow
// pattern, generalized from a single growable []byte into an
// arena-backed doubly-linked chain so elements can be inserted and
// erased in the middle without shifting the whole sequence.
package seqstore

import (
	"fmt"

	"github.com/aspembed/asp/internal/heap"
)

// DefaultFragmentCap is the number of bytes a single TagSeqElemBytes
// fragment holds when New is given a non-positive cap. The cap itself
// is New's fragmentCap argument, not a constant (Design Note: string
// fragment size must be a capacity parameter).
const DefaultFragmentCap = 32

// Store wraps a heap for sequence operations. A single Store instance
// serves strings, tuples, lists, and call-protocol lists alike; the
// caller picks the header tag.
type Store struct {
	h          *heap.Heap
	fragmentCap int
}

func New(h *heap.Heap, fragmentCap int) *Store {
	if fragmentCap <= 0 {
		fragmentCap = DefaultFragmentCap
	}
	return &Store{h: h, fragmentCap: fragmentCap}
}

// NewHeader allocates an empty sequence header of the given tag
// (TagString, TagTuple, TagList, TagArgumentList, or TagParameterList).
func (s *Store) NewHeader(tag heap.Tag) (heap.Index, error) {
	return s.h.Alloc(tag)
}

// Count returns the number of elements in the sequence at head.
func (s *Store) Count(head heap.Index) int32 {
	return s.h.At(head).Int
}

// First returns the index of the first element (NullIndex if empty).
func (s *Store) First(head heap.Index) heap.Index { return s.h.At(head).L[heap.L0] }

// Last returns the index of the last element (NullIndex if empty).
func (s *Store) Last(head heap.Index) heap.Index { return s.h.At(head).L[heap.L1] }

// Next returns the element following elem in the chain.
func (s *Store) Next(elem heap.Index) heap.Index { return s.h.At(elem).L[heap.L1] }

// Prev returns the element preceding elem in the chain.
func (s *Store) Prev(elem heap.Index) heap.Index { return s.h.At(elem).L[heap.L2] }

// Value returns the value index held by a TagSeqElemValue element.
func (s *Store) Value(elem heap.Index) heap.Index { return s.h.At(elem).L[heap.L0] }

// Bytes returns the raw fragment bytes held by a TagSeqElemBytes element.
func (s *Store) Bytes(elem heap.Index) []byte { return s.h.At(elem).Bytes }

// AppendValue appends a value-holding element to a tuple/list/argument
// list, taking a reference on value.
func (s *Store) AppendValue(head, value heap.Index) (heap.Index, error) {
	elem, err := s.h.Alloc(heap.TagSeqElemValue)
	if err != nil {
		return heap.NullIndex, err
	}
	s.h.At(elem).L[heap.L0] = value
	s.h.Ref(value)
	s.linkAtEnd(head, elem)
	return elem, nil
}

// AppendBytes appends raw bytes to a string, splitting across fragments
// of at most fragmentCap bytes, reusing a non-full tail fragment first.
func (s *Store) AppendBytes(head heap.Index, data []byte) error {
	for len(data) > 0 {
		tail := s.Last(head)
		if tail != heap.NullIndex && len(s.h.At(tail).Bytes) < s.fragmentCap {
			room := s.fragmentCap - len(s.h.At(tail).Bytes)
			n := room
			if n > len(data) {
				n = len(data)
			}
			e := s.h.At(tail)
			e.Bytes = append(e.Bytes, data[:n]...)
			s.h.At(head).Int += int32(n)
			data = data[n:]
			continue
		}
		n := s.fragmentCap
		if n > len(data) {
			n = len(data)
		}
		elem, err := s.h.Alloc(heap.TagSeqElemBytes)
		if err != nil {
			return err
		}
		e := s.h.At(elem)
		e.Bytes = append([]byte(nil), data[:n]...)
		s.linkAtEnd(head, elem)
		s.h.At(head).Int += int32(n)
		data = data[n:]
	}
	return nil
}

// AppendElement links an already-allocated element entry (of any tag
// that follows the L0=payload/L1=next/L2=prev convention) onto the end
// of head's chain. Used by callers that need a chain element with a
// payload shape seqstore doesn't know about, such as internal/calling's
// TagArgument/TagParameter entries.
func (s *Store) AppendElement(head, elem heap.Index) {
	s.linkAtEnd(head, elem)
}

func (s *Store) linkAtEnd(head, elem heap.Index) {
	hd := s.h.At(head)
	tail := hd.L[heap.L1]
	s.h.At(elem).L[heap.L2] = tail
	if tail == heap.NullIndex {
		hd.L[heap.L0] = elem
	} else {
		s.h.At(tail).L[heap.L1] = elem
	}
	hd.L[heap.L1] = elem
	if hd.Tag != heap.TagString {
		hd.Int++
	}
}

// InsertValueAt inserts value as a new element at position index
// (0-based; negative counts from the end, per spec). index == Count
// appends.
func (s *Store) InsertValueAt(head heap.Index, index int, value heap.Index) error {
	n := int(s.Count(head))
	index = normalizeInsertIndex(index, n)
	if index < 0 || index > n {
		return fmt.Errorf("seqstore: index out of range")
	}
	if index == n {
		_, err := s.AppendValue(head, value)
		return err
	}
	at := s.elementAt(head, index)
	elem, err := s.h.Alloc(heap.TagSeqElemValue)
	if err != nil {
		return err
	}
	s.h.At(elem).L[heap.L0] = value
	s.h.Ref(value)
	s.linkBefore(head, at, elem)
	return nil
}

func (s *Store) linkBefore(head, at, elem heap.Index) {
	prev := s.h.At(at).L[heap.L2]
	s.h.At(elem).L[heap.L1] = at
	s.h.At(elem).L[heap.L2] = prev
	s.h.At(at).L[heap.L2] = elem
	if prev == heap.NullIndex {
		s.h.At(head).L[heap.L0] = elem
	} else {
		s.h.At(prev).L[heap.L1] = elem
	}
	s.h.At(head).Int++
}

// EraseAt removes the element at index, unreferencing its value.
func (s *Store) EraseAt(head heap.Index, index int) error {
	n := int(s.Count(head))
	idx := normalizeInsertIndex(index, n)
	if idx < 0 || idx >= n {
		return fmt.Errorf("seqstore: index out of range")
	}
	elem := s.elementAt(head, idx)
	return s.Erase(head, elem)
}

// Erase unlinks elem from head's chain and unrefs its value.
func (s *Store) Erase(head, elem heap.Index) error {
	e := s.h.At(elem)
	prev, next := e.L[heap.L2], e.L[heap.L1]
	if prev == heap.NullIndex {
		s.h.At(head).L[heap.L0] = next
	} else {
		s.h.At(prev).L[heap.L1] = next
	}
	if next == heap.NullIndex {
		s.h.At(head).L[heap.L1] = prev
	} else {
		s.h.At(next).L[heap.L2] = prev
	}
	s.h.At(head).Int--
	value := e.L[heap.L0]
	// elem is unlinked: clear its links before Unref so freeing it
	// neither cascades into its former successor nor unrefs value twice.
	e.L = [4]heap.Index{}
	if err := s.h.Unref(elem); err != nil {
		return err
	}
	return s.h.Unref(value)
}

// ElementAt returns the index-th element (0-based, negative from the
// end), walking linearly from whichever end is closer. Callers needing
// many lookups over a large sequence should iterate with Next/Prev
// instead (spec: "callers are expected to iterate rather than
// random-access for large sequences").
func (s *Store) ElementAt(head heap.Index, index int) (heap.Index, error) {
	n := int(s.Count(head))
	idx := normalizeInsertIndex(index, n)
	if idx < 0 || idx >= n {
		return heap.NullIndex, fmt.Errorf("seqstore: index out of range")
	}
	return s.elementAt(head, idx), nil
}

func (s *Store) elementAt(head heap.Index, idx int) heap.Index {
	n := int(s.Count(head))
	if idx <= n/2 {
		cur := s.First(head)
		for i := 0; i < idx; i++ {
			cur = s.Next(cur)
		}
		return cur
	}
	cur := s.Last(head)
	for i := n - 1; i > idx; i-- {
		cur = s.Prev(cur)
	}
	return cur
}

func normalizeInsertIndex(index, n int) int {
	if index < 0 {
		return n + index
	}
	return index
}

// Children returns the strong-reference children of a sequence header
// or element entry, for heap.ChildrenFunc.
func Children(tag heap.Tag, e *heap.Entry) []heap.Index {
	switch tag {
	case heap.TagString, heap.TagTuple, heap.TagList, heap.TagArgumentList, heap.TagParameterList:
		// A header holds exactly one strong reference: the first
		// element. Each element in turn references the next, so
		// freeing the header cascades down the whole chain one link
		// at a time (each element's own Children call below).
		if e.L[heap.L0] != heap.NullIndex {
			return []heap.Index{e.L[heap.L0]}
		}
		return nil
	case heap.TagSeqElemValue:
		kids := []heap.Index{e.L[heap.L0]}
		if e.L[heap.L1] != heap.NullIndex {
			kids = append(kids, e.L[heap.L1])
		}
		return kids
	case heap.TagSeqElemBytes:
		if e.L[heap.L1] != heap.NullIndex {
			return []heap.Index{e.L[heap.L1]}
		}
		return nil
	}
	return nil
}

package iterator

import (
	"testing"

	"github.com/aspembed/asp/internal/heap"
	"github.com/aspembed/asp/internal/object"
)

func newTestStore(t *testing.T) *object.Store {
	t.Helper()
	return object.New(heap.Config{Capacity: 512, CycleDetectionLimit: 1000}, object.DefaultFragmentCap)
}

func TestForwardOverList(t *testing.T) {
	s := newTestStore(t)
	list := s.NewList()
	defer s.Heap.Unref(list)
	for _, v := range []int32{10, 20, 30} {
		e := s.Int(v)
		s.SequenceAppend(list, e)
		s.Heap.Unref(e)
	}

	it := New(s, list, false)
	defer s.Heap.Unref(it)

	var got []int32
	for !AtEnd(s, it) {
		got = append(got, s.IntValue(Dereference(s, it)))
		Advance(s, it)
	}
	if len(got) != 3 || got[0] != 10 || got[1] != 20 || got[2] != 30 {
		t.Fatalf("unexpected forward order: %v", got)
	}
	if !AtEnd(s, it) {
		t.Fatalf("expected iterator to be at end")
	}
	if Dereference(s, it) != object.Null {
		t.Fatalf("expected dereference past-end to yield Null")
	}
}

func TestReverseOverList(t *testing.T) {
	s := newTestStore(t)
	list := s.NewList()
	defer s.Heap.Unref(list)
	for _, v := range []int32{1, 2, 3} {
		e := s.Int(v)
		s.SequenceAppend(list, e)
		s.Heap.Unref(e)
	}

	it := New(s, list, true)
	defer s.Heap.Unref(it)

	var got []int32
	for !AtEnd(s, it) {
		got = append(got, s.IntValue(Dereference(s, it)))
		Advance(s, it)
	}
	if len(got) != 3 || got[0] != 3 || got[1] != 2 || got[2] != 1 {
		t.Fatalf("unexpected reverse order: %v", got)
	}
}

func TestDictionaryIteratorKeyAndValue(t *testing.T) {
	s := newTestStore(t)
	dict := s.NewDictionary()
	defer s.Heap.Unref(dict)

	k := s.Symbol(1)
	v := s.Int(99)
	s.DictionaryInsert(dict, k, v)
	s.Heap.Unref(k)
	s.Heap.Unref(v)

	it := New(s, dict, false)
	defer s.Heap.Unref(it)

	if AtEnd(s, it) {
		t.Fatalf("expected non-empty dictionary iterator to not be at end")
	}
	if s.SymbolID(Dereference(s, it)) != 1 {
		t.Fatalf("expected dereference to yield the key")
	}
	if s.IntValue(DereferenceValue(s, it)) != 99 {
		t.Fatalf("expected DereferenceValue to yield 99")
	}
}

func TestRangeIteratorForwardAndReverse(t *testing.T) {
	s := newTestStore(t)
	start := s.Int(0)
	end := s.Int(5)
	r := s.NewRange(start, end, object.Null)
	s.Heap.Unref(start)
	s.Heap.Unref(end)
	defer s.Heap.Unref(r)

	fwd := New(s, r, false)
	defer s.Heap.Unref(fwd)
	var got []int32
	for !AtEnd(s, fwd) {
		got = append(got, s.IntValue(Dereference(s, fwd)))
		Advance(s, fwd)
	}
	if len(got) != 5 || got[0] != 0 || got[4] != 4 {
		t.Fatalf("unexpected forward range: %v", got)
	}

	rev := New(s, r, true)
	defer s.Heap.Unref(rev)
	var gotRev []int32
	for !AtEnd(s, rev) {
		gotRev = append(gotRev, s.IntValue(Dereference(s, rev)))
		Advance(s, rev)
	}
	if len(gotRev) != 5 || gotRev[0] != 4 || gotRev[4] != 0 {
		t.Fatalf("unexpected reverse range: %v", gotRev)
	}
}

func TestIteratorEquality(t *testing.T) {
	s := newTestStore(t)
	list := s.NewList()
	defer s.Heap.Unref(list)
	for _, v := range []int32{1, 2, 3} {
		e := s.Int(v)
		s.SequenceAppend(list, e)
		s.Heap.Unref(e)
	}

	a := New(s, list, false)
	defer s.Heap.Unref(a)
	b := New(s, list, false)
	defer s.Heap.Unref(b)

	Dereference(s, a)
	Advance(s, a)
	Advance(s, b)
	if !Equal(s, a, b) {
		t.Fatalf("expected two iterators advanced the same number of times to be equal")
	}
	Advance(s, a)
	if Equal(s, a, b) {
		t.Fatalf("expected iterators at different positions to differ")
	}
}

func TestFreeingIteratorUnrefsIterable(t *testing.T) {
	s := newTestStore(t)
	list := s.NewList()
	it := New(s, list, false)
	s.Heap.Unref(list)

	if s.Heap.IsFree(list) {
		t.Fatalf("expected iterable to stay alive while iterator holds it")
	}
	s.Heap.Unref(it)
	if !s.Heap.IsFree(list) {
		t.Fatalf("expected iterable to be freed once the iterator releases it")
	}
}

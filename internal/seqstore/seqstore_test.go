package seqstore

import (
	"testing"

	"github.com/aspembed/asp/internal/heap"
)

func newTestStore(t *testing.T, cap int) (*heap.Heap, *Store) {
	t.Helper()
	h := heap.New(heap.Config{Capacity: cap, CycleDetectionLimit: 1000})
	h.SetHooks(Children)
	return h, New(h, 4)
}

func TestAppendAndIndex(t *testing.T) {
	h, s := newTestStore(t, 64)
	head, _ := s.NewHeader(heap.TagList)
	var values []heap.Index
	for i := 0; i < 5; i++ {
		v, _ := h.Alloc(heap.TagInteger)
		h.At(v).Int = int32(i)
		if _, err := s.AppendValue(head, v); err != nil {
			t.Fatalf("append: %v", err)
		}
		h.Unref(v) // AppendValue took its own ref; drop the allocator's
		values = append(values, v)
	}
	if s.Count(head) != 5 {
		t.Fatalf("expected count 5, got %d", s.Count(head))
	}
	for i, v := range values {
		elem, err := s.ElementAt(head, i)
		if err != nil {
			t.Fatalf("elementAt(%d): %v", i, err)
		}
		if s.Value(elem) != v {
			t.Fatalf("elementAt(%d) mismatch", i)
		}
	}
	last, err := s.ElementAt(head, -1)
	if err != nil || s.Value(last) != values[4] {
		t.Fatalf("negative index lookup failed: %v", err)
	}
}

func TestEraseAt(t *testing.T) {
	h, s := newTestStore(t, 64)
	head, _ := s.NewHeader(heap.TagList)
	for i := 0; i < 3; i++ {
		v, _ := h.Alloc(heap.TagInteger)
		s.AppendValue(head, v)
		h.Unref(v)
	}
	if err := s.EraseAt(head, 1); err != nil {
		t.Fatalf("erase: %v", err)
	}
	if s.Count(head) != 2 {
		t.Fatalf("expected count 2 after erase, got %d", s.Count(head))
	}
}

func TestAppendBytesSpansFragments(t *testing.T) {
	h, s := newTestStore(t, 64)
	head, _ := s.NewHeader(heap.TagString)
	if err := s.AppendBytes(head, []byte("Hello, world!")); err != nil {
		t.Fatalf("append bytes: %v", err)
	}
	if h.At(head).Int != 13 {
		t.Fatalf("expected length 13, got %d", h.At(head).Int)
	}
	var got []byte
	for e := s.First(head); e != heap.NullIndex; e = s.Next(e) {
		got = append(got, s.Bytes(e)...)
	}
	if string(got) != "Hello, world!" {
		t.Fatalf("fragment reassembly mismatch: %q", got)
	}
}

func TestFreeingHeaderFreesChain(t *testing.T) {
	h, s := newTestStore(t, 64)
	head, _ := s.NewHeader(heap.TagList)
	for i := 0; i < 3; i++ {
		v, _ := h.Alloc(heap.TagInteger)
		s.AppendValue(head, v)
		h.Unref(v)
	}
	before := h.FreeCount()
	if err := h.Unref(head); err != nil {
		t.Fatalf("unref head: %v", err)
	}
	if h.FreeCount() <= before {
		t.Fatalf("expected free count to increase after freeing list")
	}
}

package heap

import "testing"

func TestAllocFreeRoundTrip(t *testing.T) {
	h := New(Config{Capacity: 4, CycleDetectionLimit: 100})
	if h.FreeCount() != 3 {
		t.Fatalf("expected 3 free entries, got %d", h.FreeCount())
	}
	idx, err := h.Alloc(TagInteger)
	if err != nil {
		t.Fatalf("alloc: %v", err)
	}
	if h.UseCount(idx) != 1 {
		t.Fatalf("expected use count 1, got %d", h.UseCount(idx))
	}
	if err := h.Unref(idx); err != nil {
		t.Fatalf("unref: %v", err)
	}
	if !h.IsFree(idx) {
		t.Fatalf("expected entry to be freed")
	}
	if h.FreeCount() != 3 {
		t.Fatalf("expected free count restored to 3, got %d", h.FreeCount())
	}
}

func TestAllocExhaustion(t *testing.T) {
	h := New(Config{Capacity: 2, CycleDetectionLimit: 100})
	if _, err := h.Alloc(TagInteger); err != nil {
		t.Fatalf("first alloc: %v", err)
	}
	if _, err := h.Alloc(TagInteger); err == nil {
		t.Fatalf("expected out-of-data-memory error")
	} else if _, ok := err.(*ErrOutOfMemory); !ok {
		t.Fatalf("expected ErrOutOfMemory, got %T", err)
	}
}

func TestChildrenFreedRecursively(t *testing.T) {
	h := New(Config{Capacity: 8, CycleDetectionLimit: 100})
	h.SetHooks(func(tag Tag, e *Entry) []Index {
		if tag == TagList {
			return []Index{e.L[L0]}
		}
		return nil
	})

	child, _ := h.Alloc(TagInteger)
	parent, _ := h.Alloc(TagList)
	h.At(parent).L[L0] = child
	h.Ref(child) // parent now holds one reference in addition to the allocator's

	if err := h.Unref(child); err != nil {
		t.Fatalf("unref child: %v", err)
	}
	if h.IsFree(child) {
		t.Fatalf("child should still be referenced by parent")
	}
	if err := h.Unref(parent); err != nil {
		t.Fatalf("unref parent: %v", err)
	}
	if !h.IsFree(parent) || !h.IsFree(child) {
		t.Fatalf("expected parent and child both freed")
	}
}

func TestCycleDetected(t *testing.T) {
	h := New(Config{Capacity: 8, CycleDetectionLimit: 1})
	h.SetHooks(func(tag Tag, e *Entry) []Index {
		if tag == TagList {
			return []Index{e.L[L0]}
		}
		return nil
	})

	a, _ := h.Alloc(TagList)
	b, _ := h.Alloc(TagList)
	c, _ := h.Alloc(TagList)
	h.At(a).L[L0] = b
	h.At(b).L[L0] = c
	h.At(c).L[L0] = a
	// c -> a closes the ring; each link holds its target's allocation
	// reference, so freeing a walks a -> b -> c, past the limit of 1.

	err := h.Unref(a)
	if err == nil {
		t.Fatalf("expected cycle-detected error")
	}
	if _, ok := err.(*ErrCycleDetected); !ok {
		t.Fatalf("expected ErrCycleDetected, got %T: %v", err, err)
	}
}

func TestLowWaterMarkMonotonic(t *testing.T) {
	h := New(Config{Capacity: 10, CycleDetectionLimit: 100})
	idx, _ := h.Alloc(TagInteger)
	if h.LowWaterMark() != 8 {
		t.Fatalf("expected low water 8, got %d", h.LowWaterMark())
	}
	h.Unref(idx)
	if h.LowWaterMark() != 8 {
		t.Fatalf("low water mark must not increase after free, got %d", h.LowWaterMark())
	}
}

package compare

import (
	"testing"

	"github.com/aspembed/asp/internal/heap"
)

func newInt(h *heap.Heap, v int32) heap.Index {
	idx, _ := h.Alloc(heap.TagInteger)
	h.At(idx).Int = v
	return idx
}

func newFloat(h *heap.Heap, v float64) heap.Index {
	idx, _ := h.Alloc(heap.TagFloat)
	h.At(idx).Float = v
	return idx
}

func newBool(h *heap.Heap, v bool) heap.Index {
	idx, _ := h.Alloc(heap.TagBoolean)
	if v {
		h.At(idx).Int = 1
	}
	return idx
}

func newString(h *heap.Heap, data string) heap.Index {
	head, _ := h.Alloc(heap.TagString)
	elem, _ := h.Alloc(heap.TagSeqElemBytes)
	h.At(elem).Bytes = []byte(data)
	h.At(head).L[heap.L0] = elem
	h.At(head).L[heap.L1] = elem
	h.At(head).Int = int32(len(data))
	return head
}

func newTestHeap(t *testing.T) *heap.Heap {
	t.Helper()
	return heap.New(heap.Config{Capacity: 256, CycleDetectionLimit: 1000})
}

func TestOrderKeyNumericCrossType(t *testing.T) {
	h := newTestHeap(t)
	i := newInt(h, 2)
	f := newFloat(h, 2.0)
	b := newBool(h, true)
	one := newInt(h, 1)

	if OrderKey(h, i, f) != 0 {
		t.Fatalf("expected int 2 and float 2.0 to order equal")
	}
	if OrderKey(h, b, one) != 0 {
		t.Fatalf("expected true and 1 to order equal")
	}
	if !Equal(h, i, f) {
		t.Fatalf("expected int 2 and float 2.0 to be equal")
	}
}

func TestOrderKeyTypeRankSeparatesFamilies(t *testing.T) {
	h := newTestHeap(t)
	n, _ := h.Alloc(heap.TagNone)
	i := newInt(h, 0)
	if OrderKey(h, n, i) >= 0 {
		t.Fatalf("expected none to order before numeric 0")
	}
}

func TestOrderKeyStringLexicographic(t *testing.T) {
	h := newTestHeap(t)
	a := newString(h, "abc")
	b := newString(h, "abd")
	c := newString(h, "ab")
	if OrderKey(h, a, b) >= 0 {
		t.Fatalf("expected 'abc' < 'abd'")
	}
	if OrderKey(h, c, a) >= 0 {
		t.Fatalf("expected prefix 'ab' < 'abc'")
	}
}

func TestRelationalRejectsMixedNonNumericTypes(t *testing.T) {
	h := newTestHeap(t)
	s := newString(h, "x")
	n, _ := h.Alloc(heap.TagNone)
	if _, err := Relational(h, s, n); err == nil {
		t.Fatalf("expected relational comparison of string vs none to error")
	}
}

func TestRelationalNumeric(t *testing.T) {
	h := newTestHeap(t)
	a := newInt(h, 3)
	b := newFloat(h, 4.5)
	c, err := Relational(h, a, b)
	if err != nil {
		t.Fatalf("relational: %v", err)
	}
	if c >= 0 {
		t.Fatalf("expected 3 < 4.5")
	}
}

func TestArithmeticOverflowAndDivideByZero(t *testing.T) {
	if _, err := MulInt(1<<30, 4); err != ErrArithmeticOverflow {
		t.Fatalf("expected overflow error, got %v", err)
	}
	if _, err := DivInt(1, 0); err != ErrDivideByZero {
		t.Fatalf("expected divide-by-zero error, got %v", err)
	}
	if v, err := AddInt(2, 3); err != nil || v != 5 {
		t.Fatalf("expected 2+3=5, got %d, %v", v, err)
	}
	if v, err := ModInt(-7, 3); err != nil || v != -1 {
		t.Fatalf("expected -7%%3 == -1 (Go truncated semantics), got %d, %v", v, err)
	}
}

func TestNegIntOverflow(t *testing.T) {
	if _, err := NegInt(-2147483648); err != ErrArithmeticOverflow {
		t.Fatalf("expected overflow negating MinInt32, got %v", err)
	}
}

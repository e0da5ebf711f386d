package object

import (
	"testing"

	"github.com/aspembed/asp/internal/heap"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return New(heap.Config{Capacity: 512, CycleDetectionLimit: 1000}, DefaultFragmentCap)
}

func TestSingletonsDistinctAndStable(t *testing.T) {
	s := newTestStore(t)
	n1, n2 := s.None(), s.None()
	if n1 != n2 {
		t.Fatalf("expected None() to return the same entry each time")
	}
	if s.Tag(n1) != heap.TagNone {
		t.Fatalf("expected TagNone, got %v", s.Tag(n1))
	}
	s.Heap.Unref(n1)
	s.Heap.Unref(n2)

	tv, fv := s.Bool(true), s.Bool(false)
	if tv == fv {
		t.Fatalf("expected true/false singletons to differ")
	}
	if !s.BoolValue(tv) || s.BoolValue(fv) {
		t.Fatalf("bool singleton values read back wrong")
	}
	s.Heap.Unref(tv)
	s.Heap.Unref(fv)
}

func TestStringAppendAndRepr(t *testing.T) {
	s := newTestStore(t)
	str := s.NewStringFrom([]byte("it's\na test"))
	defer s.Heap.Unref(str)

	if s.StringLen(str) != int32(len("it's\na test")) {
		t.Fatalf("unexpected string length %d", s.StringLen(str))
	}
	r, err := s.Repr(str)
	if err != nil {
		t.Fatalf("repr: %v", err)
	}
	want := `'it\'s\na test'`
	if r != want {
		t.Fatalf("repr mismatch: got %q want %q", r, want)
	}
}

func TestListReprAndTruthiness(t *testing.T) {
	s := newTestStore(t)
	list := s.NewList()
	defer s.Heap.Unref(list)

	if s.ToBool(list) {
		t.Fatalf("expected empty list to be falsy")
	}
	a := s.Int(1)
	if err := s.SequenceAppend(list, a); err != nil {
		t.Fatalf("append: %v", err)
	}
	s.Heap.Unref(a)

	if !s.ToBool(list) {
		t.Fatalf("expected non-empty list to be truthy")
	}
	r, err := s.Repr(list)
	if err != nil {
		t.Fatalf("repr: %v", err)
	}
	if r != "[1]" {
		t.Fatalf("repr mismatch: got %q", r)
	}
}

func TestTupleSingletonTrailingComma(t *testing.T) {
	s := newTestStore(t)
	tup := s.NewTuple()
	defer s.Heap.Unref(tup)
	a := s.Int(7)
	s.SequenceAppend(tup, a)
	s.Heap.Unref(a)

	r, err := s.Repr(tup)
	if err != nil {
		t.Fatalf("repr: %v", err)
	}
	if r != "(7,)" {
		t.Fatalf("expected singleton tuple trailing comma, got %q", r)
	}
}

func TestDictionaryInsertLookupErase(t *testing.T) {
	s := newTestStore(t)
	dict := s.NewDictionary()
	defer s.Heap.Unref(dict)

	k := s.Symbol(1)
	v := s.Int(100)
	if err := s.DictionaryInsert(dict, k, v); err != nil {
		t.Fatalf("insert: %v", err)
	}
	s.Heap.Unref(k)
	s.Heap.Unref(v)

	k2 := s.Symbol(1)
	got, ok := s.DictionaryLookup(dict, k2)
	if !ok {
		t.Fatalf("expected lookup to find the key")
	}
	if s.IntValue(got) != 100 {
		t.Fatalf("expected value 100, got %d", s.IntValue(got))
	}

	if err := s.DictionaryErase(dict, k2); err != nil {
		t.Fatalf("erase: %v", err)
	}
	s.Heap.Unref(k2)
	if s.TreeLen(dict) != 0 {
		t.Fatalf("expected dictionary empty after erase")
	}
}

func TestInvalidKeyRejected(t *testing.T) {
	s := newTestStore(t)
	set := s.NewSet()
	defer s.Heap.Unref(set)

	list := s.NewList()
	defer s.Heap.Unref(list)

	if s.IsValidKey(list) {
		t.Fatalf("expected a list to be an invalid key")
	}
	if _, err := s.SetInsert(set, list); err == nil {
		t.Fatalf("expected SetInsert to reject a list key")
	}
}

func TestNamespaceBySymbol(t *testing.T) {
	s := newTestStore(t)
	ns := s.NewNamespace()
	defer s.Heap.Unref(ns)

	v := s.Int(42)
	if err := s.NamespaceStore(ns, 3, v); err != nil {
		t.Fatalf("store: %v", err)
	}
	s.Heap.Unref(v)

	got, ok := s.NamespaceLoad(ns, 3)
	if !ok || s.IntValue(got) != 42 {
		t.Fatalf("expected to load 42 back for symbol 3")
	}
	if _, ok := s.NamespaceLoad(ns, 4); ok {
		t.Fatalf("expected symbol 4 to be unbound")
	}
}

func TestIntFromFloatRoundingAndSaturation(t *testing.T) {
	v, err := IntFromFloat(2.5, false)
	if err != nil || v != 3 {
		t.Fatalf("expected round-away-from-zero 2.5 -> 3, got %d, %v", v, err)
	}
	v, err = IntFromFloat(-2.5, false)
	if err != nil || v != -3 {
		t.Fatalf("expected round-away-from-zero -2.5 -> -3, got %d, %v", v, err)
	}
	v, err = IntFromFloat(1e20, false)
	if err != nil || v != 1<<31-1 {
		t.Fatalf("expected saturation to MaxInt32, got %d, %v", v, err)
	}
	if _, err := IntFromFloat(2.5, true); err == nil {
		t.Fatalf("expected checked conversion of a fractional value to error")
	}
}

func TestFrozenFunctionIsValidKey(t *testing.T) {
	s := newTestStore(t)
	mod := s.NewModule(0)
	defer s.Heap.Unref(mod)

	fn := s.NewScriptFunction(10, mod, Null)
	if !s.IsFrozen(fn) {
		t.Fatalf("expected a function with no captured params to be frozen")
	}
	if !s.IsValidKey(fn) {
		t.Fatalf("expected a frozen function to be a valid key")
	}
	s.Heap.Unref(fn)

	appFn := s.NewAppFunction(5)
	if !s.IsValidKey(appFn) {
		t.Fatalf("expected an app function to always be a valid key")
	}
	s.Heap.Unref(appFn)
}

func TestRangeRepr(t *testing.T) {
	s := newTestStore(t)

	full := s.NewRange(Null, Null, Null)
	r, _ := s.Repr(full)
	if r != ".." {
		t.Fatalf("expected unbounded range to repr as '..', got %q", r)
	}
	s.Heap.Unref(full)

	end := s.Int(10)
	bounded := s.NewRange(Null, end, Null)
	s.Heap.Unref(end)
	r, _ = s.Repr(bounded)
	if r != "..10" {
		t.Fatalf("expected '..10', got %q", r)
	}
	s.Heap.Unref(bounded)
}

func TestFreeingListFreesElements(t *testing.T) {
	s := newTestStore(t)
	list := s.NewList()
	for i := int32(0); i < 5; i++ {
		v := s.Int(i)
		s.SequenceAppend(list, v)
		s.Heap.Unref(v)
	}
	before := s.Heap.FreeCount()
	if err := s.Heap.Unref(list); err != nil {
		t.Fatalf("unref list: %v", err)
	}
	if s.Heap.FreeCount() <= before {
		t.Fatalf("expected free count to rise after freeing the list")
	}
}

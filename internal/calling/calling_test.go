package calling

import (
	"testing"

	"github.com/aspembed/asp/internal/heap"
	"github.com/aspembed/asp/internal/object"
)

func newTestStore(t *testing.T) *object.Store {
	t.Helper()
	return object.New(heap.Config{Capacity: 1024, CycleDetectionLimit: 1000}, object.DefaultFragmentCap)
}

func TestBindPlainPositional(t *testing.T) {
	s := newTestStore(t)
	params := NewParameterList(s)
	defer s.Heap.Unref(params)
	AppendParameter(s, params, ParamPlain, 1, object.Null)
	AppendParameter(s, params, ParamPlain, 2, object.Null)

	args := NewArgumentList(s)
	defer s.Heap.Unref(args)
	a := s.Int(10)
	b := s.Int(20)
	AppendPositional(s, args, a)
	AppendPositional(s, args, b)
	s.Heap.Unref(a)
	s.Heap.Unref(b)

	ns := s.NewNamespace()
	defer s.Heap.Unref(ns)
	if err := Bind(s, params, args, ns); err != nil {
		t.Fatalf("bind: %v", err)
	}
	v1, ok := s.NamespaceLoad(ns, 1)
	if !ok || s.IntValue(v1) != 10 {
		t.Fatalf("expected symbol 1 bound to 10")
	}
	v2, ok := s.NamespaceLoad(ns, 2)
	if !ok || s.IntValue(v2) != 20 {
		t.Fatalf("expected symbol 2 bound to 20")
	}
}

func TestBindMissingRequiredIsMalformed(t *testing.T) {
	s := newTestStore(t)
	params := NewParameterList(s)
	defer s.Heap.Unref(params)
	AppendParameter(s, params, ParamPlain, 1, object.Null)

	args := NewArgumentList(s)
	defer s.Heap.Unref(args)

	ns := s.NewNamespace()
	defer s.Heap.Unref(ns)
	if err := Bind(s, params, args, ns); err == nil {
		t.Fatalf("expected missing required argument to be malformed")
	}
}

func TestBindDefaultedFillsMissing(t *testing.T) {
	s := newTestStore(t)
	params := NewParameterList(s)
	defer s.Heap.Unref(params)
	def := s.Int(99)
	AppendParameter(s, params, ParamDefaulted, 1, def)
	s.Heap.Unref(def)

	args := NewArgumentList(s)
	defer s.Heap.Unref(args)

	ns := s.NewNamespace()
	defer s.Heap.Unref(ns)
	if err := Bind(s, params, args, ns); err != nil {
		t.Fatalf("bind: %v", err)
	}
	v, ok := s.NamespaceLoad(ns, 1)
	if !ok || s.IntValue(v) != 99 {
		t.Fatalf("expected default value 99 bound")
	}
}

func TestBindNamedArgument(t *testing.T) {
	s := newTestStore(t)
	params := NewParameterList(s)
	defer s.Heap.Unref(params)
	AppendParameter(s, params, ParamPlain, 5, object.Null)

	args := NewArgumentList(s)
	defer s.Heap.Unref(args)
	v := s.Int(7)
	AppendNamed(s, args, 5, v)
	s.Heap.Unref(v)

	ns := s.NewNamespace()
	defer s.Heap.Unref(ns)
	if err := Bind(s, params, args, ns); err != nil {
		t.Fatalf("bind: %v", err)
	}
	got, ok := s.NamespaceLoad(ns, 5)
	if !ok || s.IntValue(got) != 7 {
		t.Fatalf("expected symbol 5 bound to 7 by name")
	}
}

func TestBindDuplicateNamedIsMalformed(t *testing.T) {
	s := newTestStore(t)
	params := NewParameterList(s)
	defer s.Heap.Unref(params)
	AppendParameter(s, params, ParamPlain, 1, object.Null)

	args := NewArgumentList(s)
	defer s.Heap.Unref(args)
	a := s.Int(1)
	b := s.Int(2)
	AppendNamed(s, args, 1, a)
	AppendNamed(s, args, 1, b)
	s.Heap.Unref(a)
	s.Heap.Unref(b)

	ns := s.NewNamespace()
	defer s.Heap.Unref(ns)
	if err := Bind(s, params, args, ns); err == nil {
		t.Fatalf("expected duplicate named argument to be malformed")
	}
}

func TestBindTupleGroupCollectsRemaining(t *testing.T) {
	s := newTestStore(t)
	params := NewParameterList(s)
	defer s.Heap.Unref(params)
	AppendParameter(s, params, ParamPlain, 1, object.Null)
	AppendParameter(s, params, ParamTupleGroup, 2, object.Null)

	args := NewArgumentList(s)
	defer s.Heap.Unref(args)
	for _, v := range []int32{1, 2, 3, 4} {
		e := s.Int(v)
		AppendPositional(s, args, e)
		s.Heap.Unref(e)
	}

	ns := s.NewNamespace()
	defer s.Heap.Unref(ns)
	if err := Bind(s, params, args, ns); err != nil {
		t.Fatalf("bind: %v", err)
	}
	rest, ok := s.NamespaceLoad(ns, 2)
	if !ok {
		t.Fatalf("expected tuple-group bound")
	}
	if s.SequenceLen(rest) != 3 {
		t.Fatalf("expected 3 remaining positionals in the tuple, got %d", s.SequenceLen(rest))
	}
}

func TestBindDictGroupCapturesUnknownNamed(t *testing.T) {
	s := newTestStore(t)
	params := NewParameterList(s)
	defer s.Heap.Unref(params)
	AppendParameter(s, params, ParamDictGroup, 99, object.Null)

	args := NewArgumentList(s)
	defer s.Heap.Unref(args)
	v := s.Int(5)
	AppendNamed(s, args, 42, v)
	s.Heap.Unref(v)

	ns := s.NewNamespace()
	defer s.Heap.Unref(ns)
	if err := Bind(s, params, args, ns); err != nil {
		t.Fatalf("bind: %v", err)
	}
	dict, ok := s.NamespaceLoad(ns, 99)
	if !ok {
		t.Fatalf("expected dict-group bound")
	}
	key := s.Symbol(42)
	got, found := s.DictionaryLookup(dict, key)
	s.Heap.Unref(key)
	if !found || s.IntValue(got) != 5 {
		t.Fatalf("expected unknown named argument captured in dict-group")
	}
}

func TestBindUnknownNamedWithoutDictGroupIsMalformed(t *testing.T) {
	s := newTestStore(t)
	params := NewParameterList(s)
	defer s.Heap.Unref(params)
	AppendParameter(s, params, ParamPlain, 1, object.Null)

	args := NewArgumentList(s)
	defer s.Heap.Unref(args)
	v := s.Int(5)
	AppendNamed(s, args, 42, v)
	s.Heap.Unref(v)

	ns := s.NewNamespace()
	defer s.Heap.Unref(ns)
	if err := Bind(s, params, args, ns); err == nil {
		t.Fatalf("expected unknown named argument with no dict-group to be malformed")
	}
}

func TestAppendIterableGroupExpandsPositionals(t *testing.T) {
	s := newTestStore(t)
	params := NewParameterList(s)
	defer s.Heap.Unref(params)
	AppendParameter(s, params, ParamTupleGroup, 1, object.Null)

	list := s.NewList()
	defer s.Heap.Unref(list)
	for _, v := range []int32{1, 2, 3} {
		e := s.Int(v)
		s.SequenceAppend(list, e)
		s.Heap.Unref(e)
	}

	args := NewArgumentList(s)
	defer s.Heap.Unref(args)
	if err := AppendIterableGroup(s, args, list); err != nil {
		t.Fatalf("append group: %v", err)
	}

	ns := s.NewNamespace()
	defer s.Heap.Unref(ns)
	if err := Bind(s, params, args, ns); err != nil {
		t.Fatalf("bind: %v", err)
	}
	rest, _ := s.NamespaceLoad(ns, 1)
	if s.SequenceLen(rest) != 3 {
		t.Fatalf("expected expanded group to produce 3 positionals")
	}
}

// Package calling implements the engine's call protocol (spec.md
// §4.G): a pending argument list built by the caller, parameter
// binding against a function's declared parameter list, and the
// return-value / again / abort protocol observed by the interpreter.
//
// Grounded on the teacher's internal/evaluator call-site argument
// handling (a flat slice of evaluated args plus a separate kwargs
// map), adapted to the heap's arena-indexed chains: an argument list
// is a TagArgumentList sequence of TagArgument entries instead of a Go
// slice, so it can be built incrementally across several engine steps
// (spec.md §4.H: loading and calling both need to survive across
// Step boundaries) and because, unlike a native Go call, nothing here
// may allocate outside the fixed-capacity heap.
package calling

import (
	"fmt"

	"github.com/aspembed/asp/internal/heap"
	"github.com/aspembed/asp/internal/object"
)

// ArgKind identifies which of the four ways an argument entered the
// pending list (spec.md §4.G "Argument list").
type ArgKind uint16

const (
	ArgPositional ArgKind = iota
	ArgNamed
	ArgIterableGroup
	ArgDictGroup
)

// NewArgumentList allocates an empty pending argument list.
func NewArgumentList(s *object.Store) object.Value {
	v, _ := s.Seq.NewHeader(heap.TagArgumentList)
	return v
}

// AppendPositional adds a positional argument, taking a reference on value.
func AppendPositional(s *object.Store, list, value object.Value) {
	appendArg(s, list, ArgPositional, 0, value)
}

// AppendNamed adds a name=value argument, taking a reference on value.
func AppendNamed(s *object.Store, list object.Value, symbolID int32, value object.Value) {
	appendArg(s, list, ArgNamed, symbolID, value)
}

// AppendIterableGroup expands iterable's elements as successive
// positional arguments (spec.md: "each element becomes a positional").
func AppendIterableGroup(s *object.Store, list, iterable object.Value) error {
	switch s.Tag(iterable) {
	case heap.TagTuple, heap.TagList, heap.TagString:
		for e := s.Seq.First(iterable); e != heap.NullIndex; e = s.Seq.Next(e) {
			AppendPositional(s, list, s.Seq.Value(e))
		}
		return nil
	case heap.TagSet:
		for n := s.Tree.NextInOrder(iterable, object.Null); n != heap.NullIndex; n = s.Tree.NextInOrder(iterable, n) {
			AppendPositional(s, list, s.Tree.Key(n))
		}
		return nil
	default:
		return fmt.Errorf("calling: value is not iterable for group-expansion")
	}
}

// AppendDictGroup expands dict's (key, value) pairs as successive
// named arguments; each key must be a symbol (spec.md: "each (symbol,
// value) pair becomes a named").
func AppendDictGroup(s *object.Store, list, dict object.Value) error {
	if s.Tag(dict) != heap.TagDictionary {
		return fmt.Errorf("calling: dictionary-group expansion requires a dictionary")
	}
	for n := s.Tree.NextInOrder(dict, object.Null); n != heap.NullIndex; n = s.Tree.NextInOrder(dict, n) {
		key := s.Tree.Key(n)
		if s.Tag(key) != heap.TagSymbol {
			return fmt.Errorf("calling: dictionary-group expansion requires symbol keys")
		}
		AppendNamed(s, list, s.SymbolID(key), s.Tree.Value(n))
	}
	return nil
}

func appendArg(s *object.Store, list object.Value, kind ArgKind, symbolID int32, value object.Value) {
	elem, _ := s.Heap.Alloc(heap.TagArgument)
	e := s.Heap.At(elem)
	e.AppTag = uint16(kind)
	e.Int = symbolID
	e.L[heap.L0] = value
	s.Heap.Ref(value)
	s.Seq.AppendElement(list, elem)
}

// argEntry is a lightweight view over one TagArgument chain element.
type argEntry struct {
	idx   heap.Index
	kind  ArgKind
	sym   int32
	value object.Value
}

func walkArgs(s *object.Store, list object.Value) []argEntry {
	var out []argEntry
	for e := s.Seq.First(list); e != heap.NullIndex; e = s.Seq.Next(e) {
		ent := s.Heap.At(e)
		out = append(out, argEntry{idx: e, kind: ArgKind(ent.AppTag), sym: ent.Int, value: ent.L[heap.L0]})
	}
	return out
}

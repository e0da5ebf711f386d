package calling

import (
	"fmt"

	"github.com/aspembed/asp/internal/heap"
	"github.com/aspembed/asp/internal/object"
)

// ParamKind identifies one of the four parameter flags an appspec
// declares per parameter (spec.md §4.G "Parameter binding").
type ParamKind uint16

const (
	ParamPlain ParamKind = iota
	ParamDefaulted
	ParamTupleGroup
	ParamDictGroup
)

// NewParameterList allocates an empty parameter list (built once, at
// function-definition time, from the appspec's per-parameter
// declarations).
func NewParameterList(s *object.Store) object.Value {
	v, _ := s.Seq.NewHeader(heap.TagParameterList)
	return v
}

// AppendParameter declares one parameter. defaultValue is object.Null
// unless kind is ParamDefaulted, in which case it is taken by reference.
func AppendParameter(s *object.Store, list object.Value, kind ParamKind, symbolID int32, defaultValue object.Value) {
	elem, _ := s.Heap.Alloc(heap.TagParameter)
	e := s.Heap.At(elem)
	e.AppTag = uint16(kind)
	e.Int = symbolID
	if defaultValue != object.Null {
		e.L[heap.L0] = defaultValue
		s.Heap.Ref(defaultValue)
	}
	s.Seq.AppendElement(list, elem)
}

type paramEntry struct {
	idx    heap.Index
	kind   ParamKind
	sym    int32
	defVal object.Value
}

func walkParams(s *object.Store, list object.Value) []paramEntry {
	var out []paramEntry
	for e := s.Seq.First(list); e != heap.NullIndex; e = s.Seq.Next(e) {
		ent := s.Heap.At(e)
		out = append(out, paramEntry{idx: e, kind: ParamKind(ent.AppTag), sym: ent.Int, defVal: ent.L[heap.L0]})
	}
	return out
}

// MalformedCallError reports a call whose arguments cannot satisfy the
// callee's declared parameters (spec.md §4.G: missing required,
// duplicate named, or unknown named with no dictionary-group).
type MalformedCallError struct{ Detail string }

func (e *MalformedCallError) Error() string { return fmt.Sprintf("malformed call: %s", e.Detail) }

func errMalformed(format string, args ...any) error {
	return &MalformedCallError{Detail: fmt.Sprintf(format, args...)}
}

// Bind resolves argList against paramList and stores each parameter's
// symbol id -> value binding into ns (spec.md §4.G "Parameter
// binding"). It consumes no references of its own beyond what
// NamespaceStore takes; argList and paramList are left untouched by
// the caller's ownership.
func Bind(s *object.Store, paramList, argList, ns object.Value) error {
	params := walkParams(s, paramList)
	args := walkArgs(s, argList)

	var positionals []object.Value
	named := make(map[int32]object.Value)
	for _, a := range args {
		switch a.kind {
		case ArgPositional:
			positionals = append(positionals, a.value)
		case ArgNamed:
			if _, dup := named[a.sym]; dup {
				return errMalformed("duplicate named argument for symbol %d", a.sym)
			}
			named[a.sym] = a.value
		}
	}

	bound := make(map[int32]bool, len(params))
	posIdx := 0
	var dictGroup *paramEntry

	for i := range params {
		p := &params[i]
		switch p.kind {
		case ParamPlain, ParamDefaulted:
			if posIdx < len(positionals) {
				if err := s.NamespaceStore(ns, p.sym, positionals[posIdx]); err != nil {
					return err
				}
				bound[p.sym] = true
				posIdx++
			}
		case ParamTupleGroup:
			tuple := s.NewTuple()
			for ; posIdx < len(positionals); posIdx++ {
				if err := s.SequenceAppend(tuple, positionals[posIdx]); err != nil {
					s.Heap.Unref(tuple)
					return err
				}
			}
			err := s.NamespaceStore(ns, p.sym, tuple)
			s.Heap.Unref(tuple)
			if err != nil {
				return err
			}
			bound[p.sym] = true
		case ParamDictGroup:
			dictGroup = p
		}
	}
	if posIdx < len(positionals) {
		return errMalformed("too many positional arguments")
	}

	for sym, val := range named {
		matched := false
		for i := range params {
			p := &params[i]
			if p.kind != ParamPlain && p.kind != ParamDefaulted {
				continue
			}
			if p.sym == sym {
				if bound[sym] {
					return errMalformed("argument for symbol %d bound both positionally and by name", sym)
				}
				if err := s.NamespaceStore(ns, sym, val); err != nil {
					return err
				}
				bound[sym] = true
				matched = true
				break
			}
		}
		if matched {
			continue
		}
		if dictGroup == nil {
			return errMalformed("unknown named argument for symbol %d", sym)
		}
	}

	if dictGroup != nil {
		dict := s.NewDictionary()
		for sym, val := range named {
			if bound[sym] {
				continue
			}
			key := s.Symbol(sym)
			err := s.DictionaryInsert(dict, key, val)
			s.Heap.Unref(key)
			if err != nil {
				s.Heap.Unref(dict)
				return err
			}
		}
		err := s.NamespaceStore(ns, dictGroup.sym, dict)
		s.Heap.Unref(dict)
		if err != nil {
			return err
		}
		bound[dictGroup.sym] = true
	}

	for i := range params {
		p := &params[i]
		if bound[p.sym] {
			continue
		}
		switch p.kind {
		case ParamDefaulted:
			if err := s.NamespaceStore(ns, p.sym, p.defVal); err != nil {
				return err
			}
		case ParamPlain:
			return errMalformed("missing required argument for symbol %d", p.sym)
		case ParamTupleGroup:
			empty := s.NewTuple()
			err := s.NamespaceStore(ns, p.sym, empty)
			s.Heap.Unref(empty)
			if err != nil {
				return err
			}
		case ParamDictGroup:
			empty := s.NewDictionary()
			err := s.NamespaceStore(ns, p.sym, empty)
			s.Heap.Unref(empty)
			if err != nil {
				return err
			}
		}
	}
	return nil
}

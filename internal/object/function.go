package object

import "github.com/aspembed/asp/internal/heap"

// NewScriptFunction allocates a function value pointing at a bytecode
// address within module, with a captured parameter list describing its
// signature (spec.md §3: "function: ... a script function (bytecode
// address + captured parameter list + module)").
func (s *Store) NewScriptFunction(address int32, module, paramList Value) Value {
	v, _ := s.Heap.Alloc(heap.TagScriptFunction)
	e := s.Heap.At(v)
	e.Int = address
	e.L[heap.L0] = module
	e.L[heap.L1] = paramList
	s.Heap.Ref(module)
	if paramList != Null {
		s.Heap.Ref(paramList)
	}
	return v
}

// ScriptFunctionAddress, ScriptFunctionModule, ScriptFunctionParams
// read back a script function's components.
func (s *Store) ScriptFunctionAddress(v Value) int32   { return s.Heap.At(v).Int }
func (s *Store) ScriptFunctionModule(v Value) Value    { return s.Heap.At(v).L[heap.L0] }
func (s *Store) ScriptFunctionParams(v Value) Value    { return s.Heap.At(v).L[heap.L1] }

// NewAppFunction allocates a function value bound to an appspec symbol
// id (spec.md §3: "an app function (symbol into appspec)").
func (s *Store) NewAppFunction(symbolID int32) Value {
	v, _ := s.Heap.Alloc(heap.TagAppFunction)
	s.Heap.At(v).Int = symbolID
	return v
}

// AppFunctionSymbol reads back an app function's bound symbol id.
func (s *Store) AppFunctionSymbol(v Value) int32 { return s.Heap.At(v).Int }

// IsFrozen reports whether a function value may be used as a
// dictionary/set key (spec.md §3 "Keys": "frozen function"). A script
// function with no free captured variables (an empty parameter-list
// closure, i.e. a plain top-level function) is frozen; app functions
// are always frozen.
func (s *Store) IsFrozen(v Value) bool {
	switch s.Tag(v) {
	case heap.TagAppFunction:
		return true
	case heap.TagScriptFunction:
		return s.ScriptFunctionParams(v) == Null
	default:
		return false
	}
}

// NewModule allocates a module value: a bytecode entry address plus a
// fresh root namespace.
func (s *Store) NewModule(entryAddress int32) Value {
	v, _ := s.Heap.Alloc(heap.TagModule)
	ns := s.NewNamespace()
	e := s.Heap.At(v)
	e.Int = entryAddress
	e.L[heap.L0] = ns
	return v
}

// ModuleNamespace returns a module's root namespace.
func (s *Store) ModuleNamespace(v Value) Value { return s.Heap.At(v).L[heap.L0] }

// ModuleEntryAddress returns a module's bytecode entry point.
func (s *Store) ModuleEntryAddress(v Value) int32 { return s.Heap.At(v).Int }

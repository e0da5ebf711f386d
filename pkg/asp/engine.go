// Package asp is the idiomatic Go embedding surface for the Asp
// engine: a Program type a host builds once from generated appspec and
// bytecode, binds Go functions into by name, and drives with ordinary
// Go values in and out, without touching internal/embedabi's
// C-ABI-shaped calls or internal/engine's object.Value handles
// directly.
//
// Grounded on the teacher's pkg/embed (a VM wrapper with a name→Binding
// table and a reflect-based Marshaller translating Go calls across the
// host/script boundary); adapted from Funxy's tree-walking Object
// interface to the Asp engine's heap-backed object.Value and its
// single-step Engine.
package asp

import (
	"fmt"
	"reflect"

	"github.com/aspembed/asp/internal/appspec"
	"github.com/aspembed/asp/internal/calling"
	"github.com/aspembed/asp/internal/embedabi"
	"github.com/aspembed/asp/internal/engine"
	"github.com/aspembed/asp/internal/object"
)

// Program wraps one loaded, runnable Asp engine plus the name-based
// bindings a host registers before running it.
type Program struct {
	engine     *engine.Engine
	spec       *appspec.Spec
	marshaller *Marshaller
	bindings   map[int32]reflect.Value
}

// NewProgram builds a Program over a fresh engine from
// embedabi.Initialize's default bounds, with no appspec or code loaded.
func NewProgram() *Program {
	e := embedabi.Initialize()
	p := &Program{
		engine:     e,
		marshaller: NewMarshaller(),
		bindings:   make(map[int32]reflect.Value),
	}
	e.SetAppCall(p.dispatch)
	return p
}

// LoadAppSpec adopts a decoded application specification, the symbol
// table a host's Bind calls and a compiled program's bytecode both
// resolve against.
func (p *Program) LoadAppSpec(spec *appspec.Spec) {
	p.spec = spec
	p.engine.LoadAppSpec(spec)
}

// LoadCode adopts a complete sealed bytecode buffer (spec.md §4.H
// sealed-from-buffer mode), the common case for a host embedding a
// single compiled program.
func (p *Program) LoadCode(data []byte) error {
	return p.engine.LoadBuffer(data)
}

// Bind registers a Go function under name, making it callable from the
// script as an app function. name must name an EntryFunction in the
// loaded appspec.
func (p *Program) Bind(name string, fn interface{}) error {
	if p.spec == nil {
		return fmt.Errorf("asp: Bind called before LoadAppSpec")
	}
	id, ok := p.spec.SymbolID(name)
	if !ok {
		return fmt.Errorf("asp: no appspec entry named %q", name)
	}
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func {
		return fmt.Errorf("asp: Bind(%q, ...) requires a function, got %s", name, v.Kind())
	}
	p.bindings[id] = v
	return nil
}

// Run starts the program at entryAddress and steps it to completion,
// servicing any bound app calls along the way.
func (p *Program) Run(entryAddress int32) error {
	if err := p.engine.Run(entryAddress); err != nil {
		return err
	}
	for p.engine.IsRunnable() {
		if _, err := p.engine.Step(); err != nil {
			return err
		}
	}
	if p.engine.State() == engine.StateError {
		return p.engine.Err()
	}
	return nil
}

// Engine exposes the underlying engine for a host that needs direct
// access to internal/embedabi calls (iteration, raw value inspection).
func (p *Program) Engine() *engine.Engine { return p.engine }

// dispatch is the engine's AppCallFunc, routing a pending app call to
// its bound Go function and marshalling arguments and the result.
func (p *Program) dispatch(e *engine.Engine, symbolID int32, argList object.Value) calling.Result {
	fn, ok := p.bindings[symbolID]
	if !ok {
		e.Store().Heap.Unref(argList)
		e.Fail(engine.ErrUndefinedAppFunction, "no binding for symbol %d", symbolID)
		return calling.Abort()
	}
	goArgs, err := p.marshaller.unpackArgs(e.Store(), argList, fn.Type())
	e.Store().Heap.Unref(argList)
	if err != nil {
		e.Fail(engine.ErrInvalidAppFunction, "%s", err.Error())
		return calling.Abort()
	}
	results := fn.Call(goArgs)
	resultValue, err := p.marshaller.packResults(e.Store(), results)
	if err != nil {
		e.Fail(engine.ErrApplication, "%s", err.Error())
		return calling.Abort()
	}
	return calling.Normal(resultValue)
}

package engine

import "github.com/aspembed/asp/internal/object"

// CallValue invokes fn (a script or app function value) with argList
// and runs until it returns, for a host-initiated call from outside the
// bytecode stream (spec.md §4.K "call and return" — an app function
// calling back into a script-declared callback). The bytecode OpCall
// only ever starts a call and lets Step carry it forward; CallValue
// gives an embedding host the same "call and wait for the result"
// shape by driving Step internally until the call completes.
func (e *Engine) CallValue(fn, argList object.Value) (object.Value, error) {
	if e.state != StateRunning && e.state != StateAppCallPending {
		e.store.Heap.Unref(fn)
		e.store.Heap.Unref(argList)
		return object.Null, newError(ErrInvalidState, e.pc, "CallValue requires a running or app-call-pending engine")
	}
	savedState := e.state
	e.state = StateRunning // opCall/Step dispatch bytecode only while Running

	depthBefore := len(e.calls)
	if ee := e.push(fn); ee != nil {
		e.store.Heap.Unref(argList)
		return object.Null, ee
	}
	if ee := e.push(argList); ee != nil {
		return object.Null, ee
	}
	if ee := e.opCall(); ee != nil {
		return object.Null, ee
	}

	for (len(e.calls) > depthBefore || e.state == StateAppCallPending) && e.state != StateError {
		if _, err := e.Step(); err != nil {
			return object.Null, err
		}
	}
	if e.state == StateError {
		return object.Null, e.err
	}

	v, ee := e.pop()
	if ee != nil {
		return object.Null, ee
	}
	e.state = savedState
	return v, nil
}

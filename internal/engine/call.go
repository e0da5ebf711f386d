package engine

import (
	"github.com/aspembed/asp/internal/calling"
	"github.com/aspembed/asp/internal/codeload"
	"github.com/aspembed/asp/internal/heap"
	"github.com/aspembed/asp/internal/object"
)

// callingNewArgList is a thin indirection so dispatch.go doesn't need
// to import internal/calling directly just for this one call.
func callingNewArgList(e *Engine) object.Value {
	return calling.NewArgumentList(e.store)
}

func (e *Engine) opArgPositional() *EngineError {
	value, ee := e.pop()
	if ee != nil {
		return ee
	}
	list, ee := e.peek()
	if ee != nil {
		e.unref(value)
		return ee
	}
	calling.AppendPositional(e.store, list, value)
	e.unref(value)
	return nil
}

func (e *Engine) opArgNamed() *EngineError {
	symbolID, ee := e.fetchInt32()
	if ee != nil {
		return ee
	}
	value, ee := e.pop()
	if ee != nil {
		return ee
	}
	list, ee := e.peek()
	if ee != nil {
		e.unref(value)
		return ee
	}
	calling.AppendNamed(e.store, list, symbolID, value)
	e.unref(value)
	return nil
}

func (e *Engine) opArgIterableGroup() *EngineError {
	iterable, ee := e.pop()
	if ee != nil {
		return ee
	}
	list, ee := e.peek()
	if ee != nil {
		e.unref(iterable)
		return ee
	}
	err := calling.AppendIterableGroup(e.store, list, iterable)
	e.unref(iterable)
	if err != nil {
		return e.fail(newError(ErrUnexpectedType, e.pc, "%s", err.Error()))
	}
	return nil
}

func (e *Engine) opArgDictGroup() *EngineError {
	dict, ee := e.pop()
	if ee != nil {
		return ee
	}
	list, ee := e.peek()
	if ee != nil {
		e.unref(dict)
		return ee
	}
	err := calling.AppendDictGroup(e.store, list, dict)
	e.unref(dict)
	if err != nil {
		return e.fail(newError(ErrUnexpectedType, e.pc, "%s", err.Error()))
	}
	return nil
}

func callingNewParamList(e *Engine) object.Value {
	return calling.NewParameterList(e.store)
}

func (e *Engine) opAddParameter() *EngineError {
	kindByte, ee := e.fetchByte()
	if ee != nil {
		return ee
	}
	symbolID, ee := e.fetchInt32()
	if ee != nil {
		return ee
	}
	defaultValue, ee := e.pop()
	if ee != nil {
		return ee
	}
	list, ee := e.peek()
	if ee != nil {
		e.unref(defaultValue)
		return ee
	}
	calling.AppendParameter(e.store, list, calling.ParamKind(kindByte), symbolID, defaultValue)
	e.unref(defaultValue)
	return nil
}

func (e *Engine) opMakeFunction() *EngineError {
	address, ee := e.fetchInt32()
	if ee != nil {
		return ee
	}
	paramList, ee := e.pop()
	if ee != nil {
		return ee
	}
	fn := e.store.NewScriptFunction(address, e.module, paramList)
	e.unref(paramList)
	return e.push(fn)
}

func (e *Engine) opCall() *EngineError {
	argList, ee := e.pop()
	if ee != nil {
		return ee
	}
	fn, ee := e.pop()
	if ee != nil {
		e.unref(argList)
		return ee
	}

	switch e.store.Tag(fn) {
	case heap.TagScriptFunction:
		return e.callScript(fn, argList)
	case heap.TagAppFunction:
		if e.cfg.CallLimit > 0 && len(e.calls) >= e.cfg.CallLimit {
			e.unref(fn)
			e.unref(argList)
			return e.fail(newError(ErrOutOfDataMemory, e.pc, "call stack limit (%d) exceeded", e.cfg.CallLimit))
		}
		symbolID := e.store.AppFunctionSymbol(fn)
		e.unref(fn)
		e.pendingSymbol = symbolID
		e.pendingArgs = argList // ownership moves to the engine until resolved
		e.state = StateAppCallPending
		return nil
	default:
		e.unref(fn)
		e.unref(argList)
		return e.fail(newError(ErrUnexpectedType, e.pc, "call target is not callable"))
	}
}

func (e *Engine) callScript(fn, argList object.Value) *EngineError {
	if e.cfg.CallLimit > 0 && len(e.calls) >= e.cfg.CallLimit {
		e.unref(fn)
		e.unref(argList)
		return e.fail(newError(ErrOutOfDataMemory, e.pc, "call stack limit (%d) exceeded", e.cfg.CallLimit))
	}
	paramList := e.store.ScriptFunctionParams(fn)
	newNS := e.store.NewNamespace()
	if err := calling.Bind(e.store, paramList, argList, newNS); err != nil {
		e.unref(newNS)
		e.unref(fn)
		e.unref(argList)
		return e.fail(newError(ErrMalformedFunctionCall, e.pc, "%s", err.Error()))
	}
	e.unref(argList)

	fnModule := e.store.ScriptFunctionModule(fn)
	e.store.Heap.Ref(fnModule) // e.module owns its own reference, independent of fn's
	address := e.store.ScriptFunctionAddress(fn)
	e.unref(fn)

	e.calls = append(e.calls, Frame{returnPC: e.pc, ns: e.ns, module: e.module})
	e.ns = newNS
	e.module = fnModule
	e.pc = int32(codeload.HeaderSize) + address
	return nil
}

func (e *Engine) opReturn() *EngineError {
	value, ee := e.pop()
	if ee != nil {
		return ee
	}
	if len(e.calls) == 0 {
		e.unref(value)
		return e.fail(newError(ErrInvalidEnd, e.pc, "return with no active call frame"))
	}
	frame := e.calls[len(e.calls)-1]
	e.calls = e.calls[:len(e.calls)-1]

	e.unref(e.ns)
	e.unref(e.module)
	e.ns = frame.ns
	e.module = frame.module
	e.pc = frame.returnPC
	return e.push(value)
}

func (e *Engine) opLoadLocal() *EngineError {
	symbolID, ee := e.fetchInt32()
	if ee != nil {
		return ee
	}
	v, found := e.store.NamespaceLoad(e.ns, symbolID)
	if !found {
		return e.fail(newError(ErrNameNotFound, e.pc, "name not found"))
	}
	e.store.Heap.Ref(v)
	return e.push(v)
}

func (e *Engine) opStoreLocal() *EngineError {
	symbolID, ee := e.fetchInt32()
	if ee != nil {
		return ee
	}
	value, ee := e.pop()
	if ee != nil {
		return ee
	}
	err := e.store.NamespaceStore(e.ns, symbolID, value)
	e.unref(value)
	if err != nil {
		return e.fail(newError(ErrInternalError, e.pc, "%s", err.Error()))
	}
	return nil
}

func (e *Engine) opEraseLocal() *EngineError {
	symbolID, ee := e.fetchInt32()
	if ee != nil {
		return ee
	}
	if err := e.store.NamespaceErase(e.ns, symbolID); err != nil {
		return e.fail(newError(ErrInternalError, e.pc, "%s", err.Error()))
	}
	return nil
}

// opEnterModule and opLeaveModule switch which module's root namespace
// unqualified locals resolve against (spec.md §4.I "module"); they do
// not participate in the call stack and carry no return value. e.ns
// and e.module are each an independently owned reference, so entering
// takes a fresh reference on the module's namespace and leaving drops
// exactly the references this pair took.
func (e *Engine) opEnterModule() *EngineError {
	module, ee := e.pop()
	if ee != nil {
		return ee
	}
	if e.store.Tag(module) != heap.TagModule {
		e.unref(module)
		return e.fail(newError(ErrUnexpectedType, e.pc, "enter-module requires a module value"))
	}
	e.mods = append(e.mods, moduleFrame{module: e.module, ns: e.ns})
	e.module = module
	ns := e.store.ModuleNamespace(module)
	e.store.Heap.Ref(ns)
	e.ns = ns
	return nil
}

func (e *Engine) opLeaveModule() *EngineError {
	if len(e.mods) == 0 {
		return e.fail(newError(ErrInvalidState, e.pc, "leave-module with no active module frame"))
	}
	frame := e.mods[len(e.mods)-1]
	e.mods = e.mods[:len(e.mods)-1]
	e.unref(e.module)
	e.unref(e.ns)
	e.module = frame.module
	e.ns = frame.ns
	return nil
}

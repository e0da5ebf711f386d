package engine

import "github.com/aspembed/asp/internal/heap"

func (e *Engine) opMakeContainer(op Opcode) *EngineError {
	count, ee := e.fetchUint16()
	if ee != nil {
		return ee
	}
	n := int(count)
	if op == OpMakeDict {
		return e.makeDict(n)
	}

	values := make([]heap.Index, n)
	for i := n - 1; i >= 0; i-- {
		v, ee := e.pop()
		if ee != nil {
			for _, leftover := range values[i+1:] {
				e.unref(leftover)
			}
			return ee
		}
		values[i] = v
	}

	var container heap.Index
	switch op {
	case OpMakeTuple:
		container = e.store.NewTuple()
	case OpMakeList:
		container = e.store.NewList()
	case OpMakeSet:
		container = e.store.NewSet()
	}
	for _, v := range values {
		var err error
		if op == OpMakeSet {
			_, err = e.store.SetInsert(container, v)
		} else {
			err = e.store.SequenceAppend(container, v)
		}
		e.unref(v)
		if err != nil {
			e.unref(container)
			return e.fail(newError(ErrUnexpectedType, e.pc, "%s", err.Error()))
		}
	}
	return e.push(container)
}

func (e *Engine) makeDict(n int) *EngineError {
	pairs := make([][2]heap.Index, n)
	for i := n - 1; i >= 0; i-- {
		v, ee := e.pop()
		if ee != nil {
			return ee
		}
		k, ee := e.pop()
		if ee != nil {
			e.unref(v)
			return ee
		}
		pairs[i] = [2]heap.Index{k, v}
	}
	dict := e.store.NewDictionary()
	for _, kv := range pairs {
		err := e.store.DictionaryInsert(dict, kv[0], kv[1])
		e.unref(kv[0])
		e.unref(kv[1])
		if err != nil {
			e.unref(dict)
			return e.fail(newError(ErrUnexpectedType, e.pc, "%s", err.Error()))
		}
	}
	return e.push(dict)
}

// opAppend pops a value and appends it to the sequence/set that is
// now on top of the stack, leaving the container in place (spec.md
// §4.I "sequence / tree construction"; used by list/set display
// bytecode built incrementally rather than via one MAKE_* instruction).
func (e *Engine) opAppend() *EngineError {
	v, ee := e.pop()
	if ee != nil {
		return ee
	}
	container, ee := e.peek()
	if ee != nil {
		e.unref(v)
		return ee
	}
	var err error
	switch e.store.Tag(container) {
	case heap.TagList, heap.TagTuple, heap.TagString:
		err = e.store.SequenceAppend(container, v)
	case heap.TagSet:
		_, err = e.store.SetInsert(container, v)
	default:
		e.unref(v)
		return e.fail(newError(ErrUnexpectedType, e.pc, "append target is not a sequence or set"))
	}
	e.unref(v)
	if err != nil {
		return e.fail(newError(ErrUnexpectedType, e.pc, "%s", err.Error()))
	}
	return nil
}

func (e *Engine) opDictSet() *EngineError {
	value, ee := e.pop()
	if ee != nil {
		return ee
	}
	key, ee := e.pop()
	if ee != nil {
		e.unref(value)
		return ee
	}
	dict, ee := e.peek()
	if ee != nil {
		e.unref(key)
		e.unref(value)
		return ee
	}
	if e.store.Tag(dict) != heap.TagDictionary {
		e.unref(key)
		e.unref(value)
		return e.fail(newError(ErrUnexpectedType, e.pc, "dict-set target is not a dictionary"))
	}
	err := e.store.DictionaryInsert(dict, key, value)
	e.unref(key)
	e.unref(value)
	if err != nil {
		return e.fail(newError(ErrUnexpectedType, e.pc, "%s", err.Error()))
	}
	return nil
}

func (e *Engine) opIndexLoad() *EngineError {
	index, ee := e.pop()
	if ee != nil {
		return ee
	}
	container, ee := e.pop()
	if ee != nil {
		e.unref(index)
		return ee
	}
	defer e.unref(index)
	defer e.unref(container)

	switch e.store.Tag(container) {
	case heap.TagString, heap.TagTuple, heap.TagList:
		if e.store.Tag(index) != heap.TagInteger {
			return e.fail(newError(ErrUnexpectedType, e.pc, "sequence index must be an integer"))
		}
		v, err := e.store.SequenceAt(container, int(e.store.IntValue(index)))
		if err != nil {
			return e.fail(newError(ErrValueOutOfRange, e.pc, "%s", err.Error()))
		}
		e.store.Heap.Ref(v)
		return e.push(v)
	case heap.TagDictionary:
		v, found := e.store.DictionaryLookup(container, index)
		if !found {
			return e.fail(newError(ErrKeyNotFound, e.pc, "key not found"))
		}
		e.store.Heap.Ref(v)
		return e.push(v)
	default:
		return e.fail(newError(ErrUnexpectedType, e.pc, "value is not indexable"))
	}
}

func (e *Engine) opIndexStore() *EngineError {
	value, ee := e.pop()
	if ee != nil {
		return ee
	}
	index, ee := e.pop()
	if ee != nil {
		e.unref(value)
		return ee
	}
	container, ee := e.pop()
	if ee != nil {
		e.unref(index)
		e.unref(value)
		return ee
	}
	defer e.unref(container)
	defer e.unref(index)

	switch e.store.Tag(container) {
	case heap.TagList:
		if e.store.Tag(index) != heap.TagInteger {
			e.unref(value)
			return e.fail(newError(ErrUnexpectedType, e.pc, "sequence index must be an integer"))
		}
		idx := int(e.store.IntValue(index))
		if err := e.store.SequenceEraseAt(container, idx); err != nil {
			e.unref(value)
			return e.fail(newError(ErrValueOutOfRange, e.pc, "%s", err.Error()))
		}
		if err := e.store.SequenceInsertAt(container, idx, value); err != nil {
			e.unref(value)
			return e.fail(newError(ErrValueOutOfRange, e.pc, "%s", err.Error()))
		}
		e.unref(value)
		return nil
	case heap.TagDictionary:
		err := e.store.DictionaryInsert(container, index, value)
		e.unref(value)
		if err != nil {
			return e.fail(newError(ErrUnexpectedType, e.pc, "%s", err.Error()))
		}
		return nil
	default:
		e.unref(value)
		return e.fail(newError(ErrUnexpectedType, e.pc, "value does not support index assignment"))
	}
}

func (e *Engine) opAttrLoad() *EngineError {
	symbolID, ee := e.fetchInt32()
	if ee != nil {
		return ee
	}
	module, ee := e.pop()
	if ee != nil {
		return ee
	}
	defer e.unref(module)
	if e.store.Tag(module) != heap.TagModule {
		return e.fail(newError(ErrUnexpectedType, e.pc, "attribute access requires a module"))
	}
	v, found := e.store.NamespaceLoad(e.store.ModuleNamespace(module), symbolID)
	if !found {
		return e.fail(newError(ErrNameNotFound, e.pc, "name not found"))
	}
	e.store.Heap.Ref(v)
	return e.push(v)
}

func (e *Engine) opAttrStore() *EngineError {
	symbolID, ee := e.fetchInt32()
	if ee != nil {
		return ee
	}
	value, ee := e.pop()
	if ee != nil {
		return ee
	}
	module, ee := e.pop()
	if ee != nil {
		e.unref(value)
		return ee
	}
	defer e.unref(module)
	if e.store.Tag(module) != heap.TagModule {
		e.unref(value)
		return e.fail(newError(ErrUnexpectedType, e.pc, "attribute assignment requires a module"))
	}
	err := e.store.NamespaceStore(e.store.ModuleNamespace(module), symbolID, value)
	e.unref(value)
	if err != nil {
		return e.fail(newError(ErrInternalError, e.pc, "%s", err.Error()))
	}
	return nil
}

package engine

import "github.com/aspembed/asp/internal/iterator"

func (e *Engine) opIterNew(reverse bool) *EngineError {
	iterable, ee := e.pop()
	if ee != nil {
		return ee
	}
	iter := iterator.New(e.store, iterable, reverse)
	e.unref(iterable) // iterator.New takes its own reference
	return e.push(iter)
}

func (e *Engine) opIterAtEnd() *EngineError {
	iter, ee := e.peek()
	if ee != nil {
		return ee
	}
	return e.push(e.store.Bool(iterator.AtEnd(e.store, iter)))
}

func (e *Engine) opIterDeref(companion bool) *EngineError {
	iter, ee := e.peek()
	if ee != nil {
		return ee
	}
	if iterator.AtEnd(e.store, iter) {
		return e.fail(newError(ErrIteratorAtEnd, e.pc, "dereference past end of iterator"))
	}
	var v = iterator.Dereference(e.store, iter)
	if companion {
		v = iterator.DereferenceValue(e.store, iter)
	}
	e.store.Heap.Ref(v)
	return e.push(v)
}

func (e *Engine) opIterAdvance() *EngineError {
	iter, ee := e.peek()
	if ee != nil {
		return ee
	}
	iterator.Advance(e.store, iter)
	return nil
}

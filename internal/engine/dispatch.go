package engine

import "github.com/aspembed/asp/internal/heap"

// dispatch executes one already-fetched opcode. pc has already been
// advanced past the opcode byte; operand fetches advance it further.
func (e *Engine) dispatch(op Opcode) *EngineError {
	switch op {
	case OpPushNone:
		return e.push(e.store.None())
	case OpPushEllipsis:
		return e.push(e.store.Ellipsis())
	case OpPushTrue:
		return e.push(e.store.Bool(true))
	case OpPushFalse:
		return e.push(e.store.Bool(false))
	case OpPushInt:
		v, ee := e.fetchInt32()
		if ee != nil {
			return ee
		}
		return e.push(e.store.Int(v))
	case OpPushFloat:
		v, ee := e.fetchFloat64()
		if ee != nil {
			return ee
		}
		return e.push(e.store.Float(v))
	case OpPushSymbol:
		v, ee := e.fetchInt32()
		if ee != nil {
			return ee
		}
		return e.push(e.store.Symbol(v))
	case OpPushString:
		n, ee := e.fetchUint16()
		if ee != nil {
			return ee
		}
		data, ee := e.fetchBytes(int(n))
		if ee != nil {
			return ee
		}
		return e.push(e.store.NewStringFrom(data))
	case OpMakeRange:
		return e.opMakeRange()

	case OpPop:
		v, ee := e.pop()
		if ee != nil {
			return ee
		}
		e.unref(v)
		return nil
	case OpDup:
		v, ee := e.peek()
		if ee != nil {
			return ee
		}
		e.store.Heap.Ref(v)
		return e.push(v)
	case OpSwap:
		if len(e.stack) < 2 {
			return e.fail(newError(ErrStackUnderflow, e.pc, "swap needs two values"))
		}
		n := len(e.stack)
		e.stack[n-1], e.stack[n-2] = e.stack[n-2], e.stack[n-1]
		return nil

	case OpAdd, OpSub, OpMul, OpDiv, OpMod, OpNeg:
		return e.opArith(op)

	case OpEq, OpNe, OpLt, OpLe, OpGt, OpGe:
		return e.opCompare(op)
	case OpNot:
		return e.opNot()
	case OpAnd, OpOr:
		return e.opLogic(op)

	case OpMakeTuple, OpMakeList, OpMakeSet, OpMakeDict:
		return e.opMakeContainer(op)
	case OpAppend:
		return e.opAppend()
	case OpDictSet:
		return e.opDictSet()

	case OpIndexLoad:
		return e.opIndexLoad()
	case OpIndexStore:
		return e.opIndexStore()
	case OpAttrLoad:
		return e.opAttrLoad()
	case OpAttrStore:
		return e.opAttrStore()

	case OpJump:
		return e.opJump(false, false)
	case OpJumpIfFalse:
		return e.opJump(true, false)
	case OpJumpIfTrue:
		return e.opJump(true, true)
	case OpIterNewFwd:
		return e.opIterNew(false)
	case OpIterNewRev:
		return e.opIterNew(true)
	case OpIterAtEnd:
		return e.opIterAtEnd()
	case OpIterDeref:
		return e.opIterDeref(false)
	case OpIterDerefVal:
		return e.opIterDeref(true)
	case OpIterAdvance:
		return e.opIterAdvance()

	case OpMakeArgList:
		return e.push(callingNewArgList(e))
	case OpArgPositional:
		return e.opArgPositional()
	case OpArgNamed:
		return e.opArgNamed()
	case OpArgIterableGroup:
		return e.opArgIterableGroup()
	case OpArgDictGroup:
		return e.opArgDictGroup()
	case OpMakeParamList:
		return e.push(callingNewParamList(e))
	case OpAddParameter:
		return e.opAddParameter()
	case OpMakeFunction:
		return e.opMakeFunction()
	case OpCall:
		return e.opCall()

	case OpReturn:
		return e.opReturn()

	case OpLoadLocal:
		return e.opLoadLocal()
	case OpStoreLocal:
		return e.opStoreLocal()
	case OpEraseLocal:
		return e.opEraseLocal()

	case OpEnterModule:
		return e.opEnterModule()
	case OpLeaveModule:
		return e.opLeaveModule()

	case OpEnd:
		if len(e.calls) != 0 {
			return e.fail(newError(ErrInvalidEnd, e.pc, "end reached with %d call frames still open", len(e.calls)))
		}
		e.state = StateComplete
		return nil

	default:
		return e.fail(newError(ErrInvalidInstruction, e.pc, "unknown opcode %d", op))
	}
}

func (e *Engine) opMakeRange() *EngineError {
	step, ee := e.popOptionalInt()
	if ee != nil {
		return ee
	}
	end, ee := e.popOptionalInt()
	if ee != nil {
		return ee
	}
	start, ee := e.popOptionalInt()
	if ee != nil {
		return ee
	}
	rng := e.store.NewRange(start, end, step)
	if start != heap.NullIndex {
		e.unref(start)
	}
	if end != heap.NullIndex {
		e.unref(end)
	}
	if step != heap.NullIndex {
		e.unref(step)
	}
	return e.push(rng)
}

// popOptionalInt pops one value that is either the none singleton
// (absent) or an integer, returning heap.NullIndex for the former.
func (e *Engine) popOptionalInt() (heap.Index, *EngineError) {
	v, ee := e.pop()
	if ee != nil {
		return heap.NullIndex, ee
	}
	if e.store.Tag(v) == heap.TagNone {
		e.unref(v)
		return heap.NullIndex, nil
	}
	if e.store.Tag(v) != heap.TagInteger {
		e.unref(v)
		return heap.NullIndex, e.fail(newError(ErrUnexpectedType, e.pc, "range component must be none or integer"))
	}
	return v, nil
}

func (e *Engine) opJump(conditional, onTrue bool) *EngineError {
	offset, ee := e.fetchInt32()
	if ee != nil {
		return ee
	}
	from := e.pc
	if conditional {
		cond, ee := e.pop()
		if ee != nil {
			return ee
		}
		taken := e.store.ToBool(cond)
		e.unref(cond)
		if taken != onTrue {
			return nil
		}
	}
	e.pc = from + offset
	return nil
}

package engine

import (
	"encoding/binary"
	"math"

	"github.com/aspembed/asp/internal/calling"
	"github.com/aspembed/asp/internal/heap"
	"github.com/aspembed/asp/internal/object"
)

// unref drops one reference, latching cycle-detected (spec.md §7 "Heap"
// errors, §8 scenario 5) the same way an in-dispatch error would. Every
// other opcode handler calls this instead of the heap directly so a
// cycle surfaces on the very next Step instead of being swallowed.
func (e *Engine) unref(v object.Value) {
	err := e.store.Heap.Unref(v)
	if err == nil {
		return
	}
	if _, ok := err.(*heap.ErrCycleDetected); ok {
		e.fail(newError(ErrCycleDetected, e.pc, "%s", err.Error()))
		return
	}
	e.fail(newError(ErrInternalError, e.pc, "%s", err.Error()))
}

// Step executes a single instruction (or, while StateAppCallPending,
// re-polls the pending app call). Once the engine has latched an
// error or reached StateComplete, Step is a no-op that returns the
// same outcome every time (spec.md §7 "latching propagation").
func (e *Engine) Step() (State, error) {
	switch e.state {
	case StateError:
		return StateError, e.err
	case StateComplete:
		return StateComplete, nil
	case StateAppCallPending:
		return e.pollAppCall()
	case StateRunning:
		return e.execOne()
	default:
		return e.state, e.fail(newError(ErrInvalidState, e.pc, "Step called in state %s", e.state))
	}
}

func (e *Engine) fail(ee *EngineError) *EngineError {
	e.state = StateError
	e.err = ee
	return ee
}

func (e *Engine) pollAppCall() (State, error) {
	if e.appCall == nil {
		return StateError, e.fail(newError(ErrUndefinedAppFunction, e.pc, "no app call handler registered"))
	}
	res := e.appCall(e, e.pendingSymbol, e.pendingArgs)
	switch res.Signal {
	case calling.ReturnAgain:
		return StateAppCallPending, nil
	case calling.ReturnAbort:
		e.unref(e.pendingArgs)
		e.pendingArgs = object.Null
		return StateError, e.fail(newError(ErrAbort, e.pc, "application requested abort"))
	case calling.ReturnNormal:
		e.unref(e.pendingArgs)
		e.pendingArgs = object.Null
		if ee := e.push(res.Value); ee != nil {
			return StateError, ee
		}
		e.state = StateRunning
		return StateRunning, nil
	default:
		return StateError, e.fail(newError(ErrInternalError, e.pc, "unknown return signal %d", res.Signal))
	}
}

// --- fetch helpers ---

func (e *Engine) fetchByte() (byte, *EngineError) {
	b, err := e.loader.ByteAt(e.pc)
	if err != nil {
		return 0, e.fail(newError(ErrBeyondEndOfCode, e.pc, "%s", err.Error()))
	}
	e.pc++
	return b, nil
}

func (e *Engine) fetchBytes(n int) ([]byte, *EngineError) {
	buf := make([]byte, n)
	for i := 0; i < n; i++ {
		b, ee := e.fetchByte()
		if ee != nil {
			return nil, ee
		}
		buf[i] = b
	}
	return buf, nil
}

func (e *Engine) fetchInt32() (int32, *EngineError) {
	buf, ee := e.fetchBytes(4)
	if ee != nil {
		return 0, ee
	}
	return int32(binary.LittleEndian.Uint32(buf)), nil
}

func (e *Engine) fetchUint16() (uint16, *EngineError) {
	buf, ee := e.fetchBytes(2)
	if ee != nil {
		return 0, ee
	}
	return binary.LittleEndian.Uint16(buf), nil
}

func (e *Engine) fetchFloat64() (float64, *EngineError) {
	buf, ee := e.fetchBytes(8)
	if ee != nil {
		return 0, ee
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(buf)), nil
}

// --- stack helpers ---

func (e *Engine) push(v object.Value) *EngineError {
	if e.cfg.StackLimit > 0 && len(e.stack) >= e.cfg.StackLimit {
		e.unref(v)
		return e.fail(newError(ErrOutOfDataMemory, e.pc, "working stack limit (%d) exceeded", e.cfg.StackLimit))
	}
	e.stack = append(e.stack, v)
	return nil
}

func (e *Engine) pop() (object.Value, *EngineError) {
	if len(e.stack) == 0 {
		return object.Null, e.fail(newError(ErrStackUnderflow, e.pc, "pop on empty stack"))
	}
	v := e.stack[len(e.stack)-1]
	e.stack = e.stack[:len(e.stack)-1]
	return v, nil
}

func (e *Engine) peek() (object.Value, *EngineError) {
	if len(e.stack) == 0 {
		return object.Null, e.fail(newError(ErrStackUnderflow, e.pc, "peek on empty stack"))
	}
	return e.stack[len(e.stack)-1], nil
}

// execOne fetches one opcode and dispatches it.
func (e *Engine) execOne() (State, error) {
	startPC := e.pc
	opByte, ee := e.fetchByte()
	if ee != nil {
		return StateError, ee
	}
	op := Opcode(opByte)
	ee = e.dispatch(op)
	if ee != nil {
		// The instruction's own PC, not wherever fetching operands left
		// pc, is the useful one to report.
		ee.PC = startPC
		return StateError, ee
	}
	return e.state, nil
}

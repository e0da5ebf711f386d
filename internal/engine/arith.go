package engine

import (
	"math"

	"github.com/aspembed/asp/internal/compare"
	"github.com/aspembed/asp/internal/heap"
	"github.com/aspembed/asp/internal/object"
)

// asNumber reads v's numeric payload, promoting booleans to 0/1.
// ok is false for any non-numeric tag.
func (e *Engine) asNumber(v object.Value) (isFloat bool, i int32, f float64, ok bool) {
	switch e.store.Tag(v) {
	case heap.TagInteger:
		return false, e.store.IntValue(v), 0, true
	case heap.TagBoolean:
		if e.store.BoolValue(v) {
			return false, 1, 0, true
		}
		return false, 0, 0, true
	case heap.TagFloat:
		return true, 0, e.store.FloatValue(v), true
	default:
		return false, 0, 0, false
	}
}

func (e *Engine) arithError(err error) *EngineError {
	switch err {
	case compare.ErrDivideByZero:
		return e.fail(newError(ErrDivideByZero, e.pc, ""))
	case compare.ErrArithmeticOverflow:
		return e.fail(newError(ErrArithmeticOverflow, e.pc, ""))
	default:
		return e.fail(newError(ErrInternalError, e.pc, "%s", err.Error()))
	}
}

// opArith implements the binary arithmetic opcodes plus unary negate.
func (e *Engine) opArith(op Opcode) *EngineError {
	if op == OpNeg {
		a, ee := e.pop()
		if ee != nil {
			return ee
		}
		isFloat, ai, af, ok := e.asNumber(a)
		e.unref(a)
		if !ok {
			return e.fail(newError(ErrUnexpectedType, e.pc, "negate requires a numeric value"))
		}
		if isFloat {
			return e.push(e.store.Float(-af))
		}
		r, err := compare.NegInt(ai)
		if err != nil {
			return e.arithError(err)
		}
		return e.push(e.store.Int(r))
	}

	b, ee := e.pop()
	if ee != nil {
		return ee
	}
	a, ee := e.pop()
	if ee != nil {
		e.unref(b)
		return ee
	}
	aFloat, ai, af, aok := e.asNumber(a)
	bFloat, bi, bf, bok := e.asNumber(b)
	e.unref(a)
	e.unref(b)
	if !aok || !bok {
		return e.fail(newError(ErrUnexpectedType, e.pc, "arithmetic requires numeric operands"))
	}

	if aFloat || bFloat {
		if !aFloat {
			af = float64(ai)
		}
		if !bFloat {
			bf = float64(bi)
		}
		var r float64
		switch op {
		case OpAdd:
			r = af + bf
		case OpSub:
			r = af - bf
		case OpMul:
			r = af * bf
		case OpDiv:
			r = compare.DivFloat(af, bf)
		case OpMod:
			r = math.Mod(af, bf)
		}
		return e.push(e.store.Float(r))
	}

	var r int32
	var err error
	switch op {
	case OpAdd:
		r, err = compare.AddInt(ai, bi)
	case OpSub:
		r, err = compare.SubInt(ai, bi)
	case OpMul:
		r, err = compare.MulInt(ai, bi)
	case OpDiv:
		r, err = compare.DivInt(ai, bi)
	case OpMod:
		r, err = compare.ModInt(ai, bi)
	}
	if err != nil {
		return e.arithError(err)
	}
	return e.push(e.store.Int(r))
}

func (e *Engine) opCompare(op Opcode) *EngineError {
	b, ee := e.pop()
	if ee != nil {
		return ee
	}
	a, ee := e.pop()
	if ee != nil {
		e.unref(b)
		return ee
	}
	defer e.unref(a)
	defer e.unref(b)

	if op == OpEq || op == OpNe {
		eq := compare.Equal(e.store.Heap, a, b)
		if op == OpNe {
			eq = !eq
		}
		return e.push(e.store.Bool(eq))
	}

	sign, err := compare.Relational(e.store.Heap, a, b)
	if err != nil {
		return e.fail(newError(ErrUnexpectedType, e.pc, "%s", err.Error()))
	}
	var result bool
	switch op {
	case OpLt:
		result = sign < 0
	case OpLe:
		result = sign <= 0
	case OpGt:
		result = sign > 0
	case OpGe:
		result = sign >= 0
	}
	return e.push(e.store.Bool(result))
}

func (e *Engine) opNot() *EngineError {
	v, ee := e.pop()
	if ee != nil {
		return ee
	}
	result := !e.store.ToBool(v)
	e.unref(v)
	return e.push(e.store.Bool(result))
}

func (e *Engine) opLogic(op Opcode) *EngineError {
	b, ee := e.pop()
	if ee != nil {
		return ee
	}
	a, ee := e.pop()
	if ee != nil {
		e.unref(b)
		return ee
	}
	ab, bb := e.store.ToBool(a), e.store.ToBool(b)
	e.unref(a)
	e.unref(b)
	var result bool
	if op == OpAnd {
		result = ab && bb
	} else {
		result = ab || bb
	}
	return e.push(e.store.Bool(result))
}

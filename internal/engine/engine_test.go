package engine

import (
	"encoding/binary"
	"testing"

	"github.com/aspembed/asp/internal/appspec"
	"github.com/aspembed/asp/internal/calling"
	"github.com/aspembed/asp/internal/codeload"
	"github.com/aspembed/asp/internal/heap"
	"github.com/aspembed/asp/internal/object"
)

// asm is a minimal test-only bytecode assembler: it writes opcodes and
// little-endian operands into a byte buffer without a real compiler.
type asm struct{ buf []byte }

func (a *asm) op(o Opcode)        { a.buf = append(a.buf, byte(o)) }
func (a *asm) byte(b byte)        { a.buf = append(a.buf, b) }
func (a *asm) i32(v int32)        { a.buf = appendInt32(a.buf, v) }
func (a *asm) u16(v uint16)       { a.buf = appendUint16(a.buf, v) }
func (a *asm) pushInt(v int32)    { a.op(OpPushInt); a.i32(v) }
func (a *asm) len32() int32       { return int32(len(a.buf)) }

func appendInt32(buf []byte, v int32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], uint32(v))
	return append(buf, tmp[:]...)
}

func appendUint16(buf []byte, v uint16) []byte {
	var tmp [2]byte
	binary.LittleEndian.PutUint16(tmp[:], v)
	return append(buf, tmp[:]...)
}

// wrapBuffer prefixes code with a valid codeload header checked against
// spec's canonical CheckValue.
func wrapBuffer(t *testing.T, spec *appspec.Spec, code []byte) []byte {
	t.Helper()
	check := appspec.CheckValue(spec.Entries)
	out := make([]byte, 0, codeload.HeaderSize+len(code))
	out = append(out, codeload.Magic[:]...)
	out = append(out, codeload.CurrentVersion.Major, codeload.CurrentVersion.Minor,
		codeload.CurrentVersion.Patch, codeload.CurrentVersion.Tweak)
	var tmp [2]byte
	binary.LittleEndian.PutUint16(tmp[:], check)
	out = append(out, tmp[:]...)
	out = append(out, code...)
	return out
}

func newReadyEngine(t *testing.T, spec *appspec.Spec, code []byte) *Engine {
	t.Helper()
	e := New(DefaultConfig())
	e.LoadAppSpec(spec)
	if err := e.LoadBuffer(wrapBuffer(t, spec, code)); err != nil {
		t.Fatalf("LoadBuffer: %v", err)
	}
	if e.State() != StateReady {
		t.Fatalf("expected StateReady after load, got %v", e.State())
	}
	return e
}

func runToTerminal(t *testing.T, e *Engine) State {
	t.Helper()
	for i := 0; i < 10000; i++ {
		st, err := e.Step()
		if st == StateComplete {
			return st
		}
		if st == StateError {
			return st
		}
		_ = err
	}
	t.Fatalf("engine did not reach a terminal state within step budget")
	return StateError
}

func TestArithmeticAndReturnValue(t *testing.T) {
	spec := &appspec.Spec{Version: appspec.CurrentVersion}
	var a asm
	a.pushInt(2)
	a.pushInt(3)
	a.op(OpAdd)
	a.op(OpEnd)

	e := newReadyEngine(t, spec, a.buf)
	if err := e.Run(0); err != nil {
		t.Fatalf("Run: %v", err)
	}
	st := runToTerminal(t, e)
	if st != StateComplete {
		t.Fatalf("expected StateComplete, got %v (err=%v)", st, e.Err())
	}
	top, ok := e.TopValue()
	if !ok {
		t.Fatalf("expected a value on top of the stack")
	}
	if e.Store().Tag(top) != heap.TagInteger {
		t.Fatalf("expected an integer result")
	}
	if e.Store().IntValue(top) != 5 {
		t.Fatalf("expected 2+3=5, got %d", e.Store().IntValue(top))
	}
}

func TestDivideByZeroLatchesError(t *testing.T) {
	spec := &appspec.Spec{Version: appspec.CurrentVersion}
	var a asm
	a.pushInt(1)
	a.pushInt(0)
	a.op(OpDiv)
	a.op(OpEnd)

	e := newReadyEngine(t, spec, a.buf)
	if err := e.Run(0); err != nil {
		t.Fatalf("Run: %v", err)
	}
	st := runToTerminal(t, e)
	if st != StateError {
		t.Fatalf("expected StateError, got %v", st)
	}
	ee := e.Err()
	if ee == nil || ee.Kind != ErrDivideByZero {
		t.Fatalf("expected ErrDivideByZero, got %v", ee)
	}

	// Latching: repeated Step calls return the same error without
	// re-executing anything.
	st2, err2 := e.Step()
	if st2 != StateError || err2 != ee {
		t.Fatalf("expected latched error to be returned unchanged, got state=%v err=%v", st2, err2)
	}
}

func TestResetReturnsToReady(t *testing.T) {
	spec := &appspec.Spec{Version: appspec.CurrentVersion}
	var a asm
	a.pushInt(1)
	a.pushInt(0)
	a.op(OpDiv)
	a.op(OpEnd)

	e := newReadyEngine(t, spec, a.buf)
	e.Run(0)
	runToTerminal(t, e)
	if e.State() != StateError {
		t.Fatalf("expected StateError before reset")
	}
	if err := e.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if e.State() != StateReady {
		t.Fatalf("expected StateReady after reset, got %v", e.State())
	}
	if e.StackLen() != 0 {
		t.Fatalf("expected empty stack after reset")
	}
}

func TestAppFunctionCallAgainThenNormal(t *testing.T) {
	const fnSymbol int32 = 7
	spec := &appspec.Spec{
		Version: appspec.CurrentVersion,
		Entries: []appspec.Entry{
			{Kind: appspec.EntryFunction, Name: "greet", SymbolID: fnSymbol},
		},
	}

	var a asm
	a.op(OpLoadLocal)
	a.i32(fnSymbol)
	a.op(OpMakeArgList)
	a.pushInt(42)
	a.op(OpArgPositional)
	a.op(OpCall)
	a.op(OpEnd)

	e := newReadyEngine(t, spec, a.buf)

	calls := 0
	e.SetAppCall(func(eng *Engine, symbolID int32, args object.Value) calling.Result {
		calls++
		if symbolID != fnSymbol {
			t.Fatalf("unexpected symbol id %d", symbolID)
		}
		if calls == 1 {
			return calling.Again()
		}
		return calling.Normal(eng.Store().Int(99))
	})

	if err := e.Run(0); err != nil {
		t.Fatalf("Run: %v", err)
	}
	st := runToTerminal(t, e)
	if st != StateComplete {
		t.Fatalf("expected StateComplete, got %v (err=%v)", st, e.Err())
	}
	if calls != 2 {
		t.Fatalf("expected the app call hook to run twice (again, then normal), got %d", calls)
	}
	top, ok := e.TopValue()
	if !ok || e.Store().IntValue(top) != 99 {
		t.Fatalf("expected 99 on top of the stack")
	}
}

func TestScriptFunctionCallAndReturn(t *testing.T) {
	spec := &appspec.Spec{Version: appspec.CurrentVersion}

	var a asm
	// Top-level: build an empty parameter list, make a function
	// pointing past the top-level's own OP_END, call it, then halt.
	a.op(OpMakeParamList)
	makeFnPos := a.len32()
	a.op(OpMakeFunction)
	a.i32(0) // patched below
	a.op(OpMakeArgList)
	a.op(OpCall)
	a.op(OpEnd)
	funcAddr := a.len32()
	a.pushInt(99)
	a.op(OpReturn)

	// patch the function address operand in place
	patchAt := int(makeFnPos) + 1
	binary.LittleEndian.PutUint32(a.buf[patchAt:patchAt+4], uint32(funcAddr))

	e := newReadyEngine(t, spec, a.buf)
	if err := e.Run(0); err != nil {
		t.Fatalf("Run: %v", err)
	}
	st := runToTerminal(t, e)
	if st != StateComplete {
		t.Fatalf("expected StateComplete, got %v (err=%v)", st, e.Err())
	}
	top, ok := e.TopValue()
	if !ok || e.Store().IntValue(top) != 99 {
		t.Fatalf("expected the called function's return value 99 on top of the stack")
	}
}

func TestMakeListAndIndexLoad(t *testing.T) {
	spec := &appspec.Spec{Version: appspec.CurrentVersion}
	var a asm
	a.pushInt(10)
	a.pushInt(20)
	a.pushInt(30)
	a.op(OpMakeList)
	a.u16(3)
	a.pushInt(1)
	a.op(OpIndexLoad)
	a.op(OpEnd)

	e := newReadyEngine(t, spec, a.buf)
	e.Run(0)
	st := runToTerminal(t, e)
	if st != StateComplete {
		t.Fatalf("expected StateComplete, got %v (err=%v)", st, e.Err())
	}
	top, _ := e.TopValue()
	if e.Store().IntValue(top) != 20 {
		t.Fatalf("expected list[1] == 20, got %d", e.Store().IntValue(top))
	}
}

func TestIteratorWalksList(t *testing.T) {
	spec := &appspec.Spec{Version: appspec.CurrentVersion}
	var a asm
	a.pushInt(1)
	a.pushInt(2)
	a.op(OpMakeList)
	a.u16(2)
	a.op(OpIterNewFwd)
	a.op(OpIterAtEnd)
	a.op(OpEnd)

	e := newReadyEngine(t, spec, a.buf)
	e.Run(0)
	st := runToTerminal(t, e)
	if st != StateComplete {
		t.Fatalf("expected StateComplete, got %v (err=%v)", st, e.Err())
	}
	top, _ := e.TopValue()
	if e.Store().BoolValue(top) {
		t.Fatalf("expected at-end to be false right after construction")
	}
}

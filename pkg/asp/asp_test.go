package asp

import (
	"testing"

	"github.com/aspembed/asp/internal/appspec"
	"github.com/aspembed/asp/internal/codeload"
	"github.com/aspembed/asp/internal/engine"
)

// buildProgram assembles a tiny program that calls the bound app
// function "double" with one positional integer argument, then ends
// with the result on top of the stack.
func buildProgram(t *testing.T) (*Program, int32) {
	t.Helper()
	spec := &appspec.Spec{
		Version: appspec.CurrentVersion,
		Entries: []appspec.Entry{
			{Kind: appspec.EntryFunction, Name: "double", SymbolID: 1},
		},
	}

	var code []byte
	appendOp := func(op engine.Opcode) { code = append(code, byte(op)) }
	appendI32 := func(v int32) {
		var tmp [4]byte
		for i := range tmp {
			tmp[i] = byte(v >> (8 * i))
		}
		code = append(code, tmp[:]...)
	}

	// load the app function, push one positional arg, call it, end.
	appendOp(engine.OpLoadLocal)
	appendI32(1)
	appendOp(engine.OpMakeArgList)
	appendOp(engine.OpPushInt)
	appendI32(21)
	appendOp(engine.OpArgPositional)
	appendOp(engine.OpCall)
	appendOp(engine.OpEnd)

	check := appspec.CheckValue(spec.Entries)
	header := make([]byte, 0, codeload.HeaderSize+len(code))
	header = append(header, codeload.Magic[:]...)
	header = append(header, codeload.CurrentVersion.Major, codeload.CurrentVersion.Minor,
		codeload.CurrentVersion.Patch, codeload.CurrentVersion.Tweak)
	header = append(header, byte(check), byte(check>>8))
	header = append(header, code...)

	p := NewProgram()
	p.LoadAppSpec(spec)
	if err := p.LoadCode(header); err != nil {
		t.Fatalf("LoadCode: %v", err)
	}
	return p, 0
}

func TestBindAndCallDoubles(t *testing.T) {
	p, entry := buildProgram(t)
	if err := p.Bind("double", func(n int32) int32 { return n * 2 }); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if err := p.Run(entry); err != nil {
		t.Fatalf("Run: %v", err)
	}
	top, ok := p.Engine().TopValue()
	if !ok {
		t.Fatalf("expected a result on the stack")
	}
	if p.Engine().Store().IntValue(top) != 42 {
		t.Fatalf("expected 42, got %d", p.Engine().Store().IntValue(top))
	}
}

func TestBindRejectsUnknownName(t *testing.T) {
	p, _ := buildProgram(t)
	if err := p.Bind("missing", func() {}); err == nil {
		t.Fatalf("expected an error binding an undeclared name")
	}
}

func TestBindRejectsNonFunction(t *testing.T) {
	p, _ := buildProgram(t)
	if err := p.Bind("double", 5); err == nil {
		t.Fatalf("expected an error binding a non-function")
	}
}

func TestMarshallerRoundTripsSlice(t *testing.T) {
	p, _ := buildProgram(t)
	s := p.Engine().Store()
	m := NewMarshaller()

	v, err := m.ToValue(s, []int{1, 2, 3})
	if err != nil {
		t.Fatalf("ToValue: %v", err)
	}
	got, err := m.FromValue(s, v, nil)
	if err != nil {
		t.Fatalf("FromValue: %v", err)
	}
	list, ok := got.([]interface{})
	if !ok || len(list) != 3 {
		t.Fatalf("expected a 3-element slice, got %#v", got)
	}
	s.Heap.Unref(v)
}

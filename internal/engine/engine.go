// Package engine implements the stepwise bytecode interpreter
// (spec.md §4.I): a program counter, a working stack, a call stack of
// frames, and a Step method that executes one instruction per call so
// a host can interleave script execution with its own event loop.
//
// Grounded on the teacher's internal/vm (a fetch-decode-execute loop
// over a Chunk's Code/Constants/Lines), adapted from a run-to-completion
// VM.Run loop into single-step dispatch: every opcode handler here
// returns after doing its work instead of looping, and the call/return
// machinery threads through internal/calling's argument lists and
// bind/return protocol instead of Go's native call stack.
package engine

import (
	"github.com/aspembed/asp/internal/appspec"
	"github.com/aspembed/asp/internal/calling"
	"github.com/aspembed/asp/internal/codeload"
	"github.com/aspembed/asp/internal/heap"
	"github.com/aspembed/asp/internal/object"
)

// State is the engine's coarse lifecycle state (spec.md §4.I state
// table): Uninitialized -> Loading -> Ready -> Running/AppCallPending
// -> Complete/Error.
type State int

const (
	StateUninitialized State = iota
	StateLoading
	StateReady
	StateRunning
	StateAppCallPending
	StateComplete
	StateError
)

func (st State) String() string {
	switch st {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateRunning:
		return "running"
	case StateAppCallPending:
		return "app-call-pending"
	case StateComplete:
		return "complete"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Frame is one call's saved context, pushed by OpCall and popped by
// OpReturn (spec.md §4.I "call stack").
type Frame struct {
	returnPC int32
	ns       object.Value
	module   object.Value
}

// moduleFrame is one entry of the module-qualified-access stack used
// by OpEnterModule/OpLeaveModule, distinct from the call stack: it
// changes which namespace locals resolve against without binding
// parameters or expecting a return value.
type moduleFrame struct {
	module object.Value
	ns     object.Value
}

// AppCallFunc is the host hook invoked for every app-function call.
// The engine calls it once per Step while in StateAppCallPending;
// returning calling.Again() asks the engine to call it again next Step
// with the same arguments, without re-binding (spec.md §4.G "Return
// protocol").
type AppCallFunc func(e *Engine, symbolID int32, args object.Value) calling.Result

// Config bundles the pieces an Engine is built from.
type Config struct {
	Heap        heap.Config
	FragmentCap int
	StackLimit  int
	CallLimit   int
}

// DefaultConfig returns reasonable bounds for an embedded engine.
func DefaultConfig() Config {
	return Config{
		Heap:        heap.DefaultConfig(),
		FragmentCap: object.DefaultFragmentCap,
		StackLimit:  1024,
		CallLimit:   256,
	}
}

// Engine is one instance of the interpreter: its heap-backed object
// store, its loaded code and appspec, and its run state.
type Engine struct {
	cfg    Config
	store  *object.Store
	loader *codeload.Loader
	spec   *appspec.Spec

	state State
	err   *EngineError

	stack []object.Value
	calls []Frame
	mods  []moduleFrame

	// rootModule is the program's top-level module, never reassigned
	// once finishLoad sets it; Reset uses it to rebuild e.ns/e.module.
	// ns and module are each an independently owned reference at all
	// times (never a bare alias of one another's child), so Reset and
	// the call/module stacks can Unref them uniformly.
	rootModule object.Value
	ns         object.Value
	module     object.Value
	pc         int32

	appCall       AppCallFunc
	pendingSymbol int32
	pendingArgs   object.Value

	// context is opaque host state threaded through app-function calls
	// (asp.h's `void *context`), set once by the host and never touched
	// by the engine itself.
	context any

	// nextDynSymbol counts downward from ArgsSymbolID so host-minted
	// symbol ids (NextSymbol) never collide with the compiler's
	// non-negative assignments.
	nextDynSymbol int32

	// traceID is an opaque correlation id a host stamps onto this
	// engine instance (internal/tracestore's per-session uuid) so a
	// batch of Steps can be joined back to one postmortem trace record.
	// The engine never interprets or requires it.
	traceID string
}

// SetTraceID records a host-assigned correlation id for this engine
// instance, for a debug trace/dump sink keyed by session.
func (e *Engine) SetTraceID(id string) { e.traceID = id }

// TraceID returns the correlation id set by SetTraceID, or "" if none.
func (e *Engine) TraceID() string { return e.traceID }

// ArgsSymbolID is the system-reserved symbol under which SetArguments
// stores the script's argument list, before the first Step (spec.md §6
// "Script arguments accessible via a system-reserved symbol").
const ArgsSymbolID int32 = -1

// NextSymbol mirrors asp.h's AspNextSymbol: mints a fresh symbol id a
// host can use to intern a new global name at run time, disjoint from
// every id the compiler could have assigned.
func (e *Engine) NextSymbol() int32 {
	e.nextDynSymbol--
	return e.nextDynSymbol
}

// SetContext attaches opaque host state retrievable from an app call
// via Context.
func (e *Engine) SetContext(v any) { e.context = v }

// Context returns the opaque host state set by SetContext, or nil.
func (e *Engine) Context() any { return e.context }

// SetArguments builds a list of strings under ArgsSymbolID in the root
// module's namespace. Called before Run so a script's top-level code
// can read its invocation arguments.
func (e *Engine) SetArguments(args []string) error {
	list := e.store.NewList()
	for _, a := range args {
		sv := e.store.NewStringFrom([]byte(a))
		if err := e.store.SequenceAppend(list, sv); err != nil {
			e.unref(sv)
			e.unref(list)
			return err
		}
		e.unref(sv)
	}
	err := e.store.NamespaceStore(e.ns, ArgsSymbolID, list)
	e.unref(list)
	return err
}

// ProgramCounter returns the engine's current raw program counter.
func (e *Engine) ProgramCounter() int32 { return e.pc }

// LowFreeCount returns the heap's low-water free count, the narrowest
// the free list has been since the heap was created.
func (e *Engine) LowFreeCount() int { return e.store.Heap.LowWaterMark() }

// IsReady reports whether the engine is ready to Run.
func (e *Engine) IsReady() bool { return e.state == StateReady }

// IsRunning reports whether the engine is mid-program (running or
// waiting on a pending app call).
func (e *Engine) IsRunning() bool {
	return e.state == StateRunning || e.state == StateAppCallPending
}

// IsRunnable reports whether calling Step would do anything other than
// repeat a latched terminal outcome.
func (e *Engine) IsRunnable() bool {
	return e.state == StateRunning || e.state == StateAppCallPending
}

// New builds an uninitialized engine. Call LoadAppSpec and one of
// AddCode/Seal, LoadBuffer, or LoadPaged before Step.
func New(cfg Config) *Engine {
	return &Engine{
		cfg:           cfg,
		store:         object.New(cfg.Heap, cfg.FragmentCap),
		loader:        codeload.New(),
		state:         StateUninitialized,
		nextDynSymbol: ArgsSymbolID,
	}
}

// Store exposes the engine's object store, for a host building
// argument values to pass into an app call.
func (e *Engine) Store() *object.Store { return e.store }

// SetAppCall registers the host callback invoked for app-function calls.
func (e *Engine) SetAppCall(fn AppCallFunc) { e.appCall = fn }

// State returns the engine's current lifecycle state.
func (e *Engine) State() State { return e.state }

// Err returns the latched error, if the engine is in StateError.
func (e *Engine) Err() *EngineError { return e.err }

// Fail latches the engine into StateError with the given kind and
// message, for a host-facing API layer (internal/embedabi) that
// detects a precondition violation outside the bytecode dispatch loop
// and needs the same latching behavior an opcode handler gets from fail.
func (e *Engine) Fail(kind ErrorKind, format string, args ...any) {
	e.fail(newError(kind, e.pc, format, args...))
}

// CurrentNamespace returns the namespace local load/store/erase (asp.h's
// AspLoadLocal/AspStoreLocal/AspEraseLocal) operate against: the
// innermost scope of whatever script function or module is currently
// executing, or the root module's namespace before the program starts.
func (e *Engine) CurrentNamespace() object.Value { return e.ns }

// Loader exposes the code-memory loader for a host that needs its
// paging/version details (AspCodeVersion, AspCodePageReadCount).
func (e *Engine) Loader() *codeload.Loader { return e.loader }

// EngineVersion mirrors AspEngineVersion: the version quad this build
// of the engine accepts.
func EngineVersion() codeload.Version { return codeload.CurrentVersion }

// DataEntrySize mirrors AspDataEntrySize: the heap's fixed per-entry
// footprint, in bytes, as the original C engine's sizeof(AspDataEntry)
// would report it for a host estimating a data-memory budget from an
// entry count.
func DataEntrySize() int { return heap.EntrySize }

// LoadAppSpec adopts a decoded application specification. Must be
// called before Seal/LoadBuffer/LoadPaged validates the matching
// bytecode's check value against it.
func (e *Engine) LoadAppSpec(spec *appspec.Spec) {
	e.spec = spec
	e.state = StateLoading
}

// StackLen returns the working stack's current depth.
func (e *Engine) StackLen() int { return len(e.stack) }

// TopValue returns the value on top of the working stack without
// popping it, and whether the stack was non-empty. A host retrieves a
// top-level expression's result this way once the engine reaches
// StateComplete.
func (e *Engine) TopValue() (object.Value, bool) {
	if len(e.stack) == 0 {
		return object.Null, false
	}
	return e.stack[len(e.stack)-1], true
}

// AddCode appends streamed bytecode bytes (spec.md §4.H streamed mode).
func (e *Engine) AddCode(data []byte) error {
	e.state = StateLoading
	return e.loader.AddCode(data)
}

// Seal finishes streamed-mode loading, validating the header against
// the loaded appspec's check value, and seeds the root namespace.
func (e *Engine) Seal() error {
	if e.spec == nil {
		return newError(ErrInvalidState, 0, "Seal called before LoadAppSpec")
	}
	if err := e.loader.Seal(appspec.CheckValue(e.spec.Entries)); err != nil {
		return e.latchLoadError(err)
	}
	return e.finishLoad()
}

// LoadBuffer adopts a complete bytecode buffer in one call
// (spec.md §4.H sealed-from-buffer mode).
func (e *Engine) LoadBuffer(data []byte) error {
	if e.spec == nil {
		return newError(ErrInvalidState, 0, "LoadBuffer called before LoadAppSpec")
	}
	e.state = StateLoading
	if err := e.loader.LoadBuffer(data, appspec.CheckValue(e.spec.Entries)); err != nil {
		return e.latchLoadError(err)
	}
	return e.finishLoad()
}

// LoadPaged configures demand-paged bytecode loading (spec.md §4.H
// paged mode).
func (e *Engine) LoadPaged(pageCount, pageSize int, reader codeload.PageReader) error {
	if e.spec == nil {
		return newError(ErrInvalidState, 0, "LoadPaged called before LoadAppSpec")
	}
	e.state = StateLoading
	if err := e.loader.LoadPaged(pageCount, pageSize, reader, appspec.CheckValue(e.spec.Entries)); err != nil {
		return e.latchLoadError(err)
	}
	return e.finishLoad()
}

func (e *Engine) latchLoadError(err error) error {
	kind := ErrInvalidFormat
	switch err.(type) {
	case *codeload.ErrInvalidVersion:
		kind = ErrInvalidVersion
	case *codeload.ErrInvalidCheckValue:
		kind = ErrInvalidCheckValue
	}
	if err == codeload.ErrBadMagic {
		kind = ErrInvalidFormat
	}
	ee := newError(kind, 0, "%s", err.Error())
	e.state = StateError
	e.err = ee
	return ee
}

// finishLoad seeds the root module's namespace from the loaded
// appspec's declared variables and functions, then transitions to Ready.
func (e *Engine) finishLoad() error {
	e.rootModule = e.store.NewModule(0)
	e.module = e.rootModule
	e.store.Heap.Ref(e.module)
	ns := e.store.ModuleNamespace(e.module)
	e.store.Heap.Ref(ns)
	e.ns = ns
	for _, ent := range e.spec.Entries {
		switch ent.Kind {
		case appspec.EntryVariable:
			v, err := appspecLiteralValue(e.store, ent.Literal)
			if err != nil {
				return err
			}
			err = e.store.NamespaceStore(e.ns, ent.SymbolID, v)
			e.unref(v)
			if err != nil {
				return err
			}
		case appspec.EntryFunction:
			fn := e.store.NewAppFunction(ent.SymbolID)
			err := e.store.NamespaceStore(e.ns, ent.SymbolID, fn)
			e.unref(fn)
			if err != nil {
				return err
			}
		}
	}
	e.state = StateReady
	return nil
}

// appspecLiteralValue materializes one appspec.Literal as a heap value.
func appspecLiteralValue(s *object.Store, lit *appspec.Literal) (object.Value, error) {
	if lit == nil {
		return s.None(), nil
	}
	switch lit.Kind {
	case appspec.LiteralBool:
		return s.Bool(lit.Bool), nil
	case appspec.LiteralInt32:
		return s.Int(lit.Int32), nil
	case appspec.LiteralFloat64:
		return s.Float(lit.Float64), nil
	case appspec.LiteralBytes:
		return s.NewStringFrom(lit.Bytes), nil
	default:
		return object.Null, newError(ErrInternalError, 0, "unknown literal kind %d", lit.Kind)
	}
}

// Reset unwinds all execution state (working stack, call stack,
// module stack, pending app call) and returns the engine to Ready,
// keeping the loaded code and appspec (spec.md §4.I Reset).
func (e *Engine) Reset() error {
	if e.state == StateUninitialized || e.state == StateLoading {
		return newError(ErrInvalidState, e.pc, "Reset called before engine finished loading")
	}
	for _, v := range e.stack {
		e.unref(v)
	}
	e.stack = e.stack[:0]
	for _, f := range e.calls {
		e.unref(f.ns)
		e.unref(f.module)
	}
	e.calls = e.calls[:0]
	for _, m := range e.mods {
		e.unref(m.ns)
		e.unref(m.module)
	}
	e.mods = e.mods[:0]
	if e.pendingArgs != object.Null {
		e.unref(e.pendingArgs)
		e.pendingArgs = object.Null
	}
	e.unref(e.ns)
	e.unref(e.module)
	e.store.Heap.Ref(e.rootModule)
	e.module = e.rootModule
	ns := e.store.ModuleNamespace(e.module)
	e.store.Heap.Ref(ns)
	e.ns = ns
	e.pc = 0
	e.err = nil
	e.state = StateReady
	return nil
}

// Run points the program counter at entryAddress (an offset past the
// code header, as recorded in a module's entry address or a script
// function's bytecode address) and transitions Ready -> Running.
func (e *Engine) Run(entryAddress int32) error {
	if e.state != StateReady {
		return newError(ErrInvalidState, e.pc, "Run called in state %s", e.state)
	}
	e.pc = int32(codeload.HeaderSize) + entryAddress
	e.state = StateRunning
	return nil
}

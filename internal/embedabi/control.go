package embedabi

import (
	"github.com/aspembed/asp/internal/appspec"
	"github.com/aspembed/asp/internal/codeload"
	"github.com/aspembed/asp/internal/engine"
	"github.com/aspembed/asp/internal/heap"
)

// Initialize mirrors AspInitialize: a new engine with spec.md's default
// bounds (2048 data entries, no code paging, §6's CLI defaults).
func Initialize() *engine.Engine {
	return engine.New(engine.DefaultConfig())
}

// InitializeEx mirrors AspInitializeEx: a new engine with
// caller-supplied data-entry capacity, cycle-detection limit, working
// stack depth, and call-stack depth.
func InitializeEx(dataCapacity, cycleDetectionLimit, stackLimit, callLimit int) *engine.Engine {
	cfg := engine.DefaultConfig()
	cfg.Heap.Capacity = dataCapacity
	cfg.Heap.CycleDetectionLimit = cycleDetectionLimit
	cfg.StackLimit = stackLimit
	cfg.CallLimit = callLimit
	return engine.New(cfg)
}

// EngineVersion mirrors AspEngineVersion.
func EngineVersion() codeload.Version { return engine.EngineVersion() }

// DataEntrySize mirrors AspDataEntrySize.
func DataEntrySize() int { return engine.DataEntrySize() }

// MaxDataSize mirrors AspMaxDataSize: total data memory budget in bytes.
func MaxDataSize(e *engine.Engine) int {
	return e.Store().Heap.Capacity() * engine.DataEntrySize()
}

// MaxCodeSize mirrors AspMaxCodeSize.
func MaxCodeSize(e *engine.Engine) int { return e.Loader().CodeSize() }

// CodeVersion mirrors AspCodeVersion: the version quad of the code
// loaded into e, valid once sealed.
func CodeVersion(e *engine.Engine) codeload.Version { return e.Loader().Header().Version }

// CodePageReadCount mirrors AspCodePageReadCount.
func CodePageReadCount(e *engine.Engine) int { return e.Loader().PageReadCount() }

// LoadAppSpec mirrors the appspec half of AspInitialize: a host loads
// its generated appspec before any code.
func LoadAppSpec(e *engine.Engine, spec *appspec.Spec) { e.LoadAppSpec(spec) }

// AddCode mirrors AspAddCode (streamed mode).
func AddCode(e *engine.Engine, data []byte) error { return e.AddCode(data) }

// Seal mirrors AspSeal, finishing streamed-mode loading.
func Seal(e *engine.Engine) error { return e.Seal() }

// SealCode mirrors AspSealCode: sealed-from-buffer mode in one call.
func SealCode(e *engine.Engine, data []byte) error { return e.LoadBuffer(data) }

// SetCodePaging mirrors AspSetCodePaging / PageCode: configures
// demand-paged code acquisition.
func SetCodePaging(e *engine.Engine, pageCount, pageSize int, reader codeload.PageReader) error {
	return e.LoadPaged(pageCount, pageSize, reader)
}

// Reset mirrors AspReset: clears execution state and returns to Ready,
// keeping loaded code and appspec.
func Reset(e *engine.Engine) error { return e.Reset() }

// SetArguments mirrors AspSetArguments: exposes a string list to the
// script under the reserved arguments symbol.
func SetArguments(e *engine.Engine, args []string) error { return e.SetArguments(args) }

// SetCycleDetectionLimit mirrors AspSetCycleDetectionLimit.
func SetCycleDetectionLimit(e *engine.Engine, limit int) {
	e.Store().Heap.SetCycleDetectionLimit(limit)
}

// GetCycleDetectionLimit mirrors AspGetCycleDetectionLimit.
func GetCycleDetectionLimit(e *engine.Engine) int { return e.Store().Heap.CycleDetectionLimit() }

// Restart mirrors AspRestart: Reset followed by Run from entryAddress,
// the pattern a host uses to re-invoke a loaded program without
// reloading its code.
func Restart(e *engine.Engine, entryAddress int32) error {
	if err := e.Reset(); err != nil {
		return err
	}
	return e.Run(entryAddress)
}

// Step mirrors AspStep.
func Step(e *engine.Engine) (engine.State, error) { return e.Step() }

// IsReady mirrors AspIsReady.
func IsReady(e *engine.Engine) bool { return e.IsReady() }

// IsRunning mirrors AspIsRunning.
func IsRunning(e *engine.Engine) bool { return e.IsRunning() }

// IsRunnable mirrors AspIsRunnable.
func IsRunnable(e *engine.Engine) bool { return e.IsRunnable() }

// ProgramCounter mirrors AspProgramCounter.
func ProgramCounter(e *engine.Engine) int32 { return e.ProgramCounter() }

// LowFreeCount mirrors AspLowFreeCount.
func LowFreeCount(e *engine.Engine) int { return e.LowFreeCount() }

// EntryCount exposes the heap's live-entry count (Capacity - FreeCount),
// the other half of the heap usage report the standalone CLI prints
// under -v alongside LowFreeCount.
func EntryCount(e *engine.Engine) int {
	h := e.Store().Heap
	return h.Capacity() - h.FreeCount()
}

// TypeTag exposes heap.Tag values to a host building AspNewType/AspIsType
// calls without importing internal/heap directly.
type TypeTag = heap.Tag

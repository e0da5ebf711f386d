package calling

import "github.com/aspembed/asp/internal/object"

// ReturnSignal is what a host app function hands back to the engine
// after one invocation (spec.md §4.G "Return protocol").
type ReturnSignal int

const (
	// ReturnNormal carries a single return value; the call is complete.
	ReturnNormal ReturnSignal = iota
	// ReturnAgain asks the engine to re-invoke the same app function on
	// the next Step without rebinding arguments (cooperative multi-step
	// work such as polling blocking I/O).
	ReturnAgain
	// ReturnAbort terminates engine execution.
	ReturnAbort
)

// Result is the value an app function call produces for one Step.
type Result struct {
	Signal ReturnSignal
	Value  object.Value // meaningful only when Signal == ReturnNormal
}

// Normal builds a ReturnNormal result carrying value.
func Normal(value object.Value) Result { return Result{Signal: ReturnNormal, Value: value} }

// Again builds a ReturnAgain result.
func Again() Result { return Result{Signal: ReturnAgain} }

// Abort builds a ReturnAbort result.
func Abort() Result { return Result{Signal: ReturnAbort} }

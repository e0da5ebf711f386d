package embedabi

import (
	"github.com/aspembed/asp/internal/calling"
	"github.com/aspembed/asp/internal/engine"
	"github.com/aspembed/asp/internal/object"
)

// NewFunctionArguments mirrors the argument-list half of AspCall's
// setup: an empty list the host appends to with the Add*Argument
// calls below, then passes to Call.
func NewFunctionArguments(s *object.Store) object.Value { return calling.NewArgumentList(s) }

// ClearFunctionArguments mirrors AspClearFunctionArguments, dropping a
// previously built argument list without calling it.
func ClearFunctionArguments(s *object.Store, list object.Value) { s.Heap.Unref(list) }

// AddPositionalArgument mirrors AspAddPositionalArgument.
func AddPositionalArgument(s *object.Store, list, value object.Value, take bool) {
	calling.AppendPositional(s, list, value)
	releaseIfTaken(s, value, take)
}

// AddNamedArgument mirrors AspAddNamedArgument.
func AddNamedArgument(s *object.Store, list object.Value, symbolID int32, value object.Value, take bool) {
	calling.AppendNamed(s, list, symbolID, value)
	releaseIfTaken(s, value, take)
}

// AddIterableGroupArgument mirrors AspAddIterableGroupArgument: expands
// iterable's elements as trailing positional arguments (the *args
// group, spec.md §4.K).
func AddIterableGroupArgument(s *object.Store, list, iterable object.Value, take bool) error {
	err := calling.AppendIterableGroup(s, list, iterable)
	releaseIfTaken(s, iterable, take)
	return err
}

// AddDictionaryGroupArgument mirrors AspAddDictionaryGroupArgument: the
// **kwargs group.
func AddDictionaryGroupArgument(s *object.Store, list, dict object.Value, take bool) error {
	err := calling.AppendDictGroup(s, list, dict)
	releaseIfTaken(s, dict, take)
	return err
}

// Call mirrors AspCall: invoke fn with argList (built via the Add*
// calls above) and block until it returns, for a host calling back
// into script/app code from outside the bytecode stream.
func Call(e *engine.Engine, fn, argList object.Value) (object.Value, error) {
	return e.CallValue(fn, argList)
}

// ReturnValue mirrors AspReturnValue: used from inside an AppCallFunc
// handler to hand back a result via calling.Normal, the same return
// protocol Step's pollAppCall already expects.
func ReturnValue(value object.Value) calling.Result { return calling.Normal(value) }

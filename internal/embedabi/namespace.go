package embedabi

import (
	"github.com/aspembed/asp/internal/calling"
	"github.com/aspembed/asp/internal/engine"
	"github.com/aspembed/asp/internal/object"
)

// LoadLocal mirrors AspLoadLocal: reads symbolID from the engine's
// currently executing namespace.
func LoadLocal(e *engine.Engine, symbolID int32) (object.Value, bool) {
	return e.Store().NamespaceLoad(e.CurrentNamespace(), symbolID)
}

// StoreLocal mirrors AspStoreLocal.
func StoreLocal(e *engine.Engine, symbolID int32, value object.Value, take bool) error {
	s := e.Store()
	err := s.NamespaceStore(e.CurrentNamespace(), symbolID, value)
	releaseIfTaken(s, value, take)
	return err
}

// EraseLocal mirrors AspEraseLocal.
func EraseLocal(e *engine.Engine, symbolID int32) error {
	return e.Store().NamespaceErase(e.CurrentNamespace(), symbolID)
}

// Ref mirrors AspRef: take an additional reference on v, for a host
// that wants to retain a value beyond the call that handed it over.
func Ref(s *object.Store, v object.Value) object.Value {
	s.Heap.Ref(v)
	return v
}

// Unref mirrors AspUnref.
func Unref(s *object.Store, v object.Value) error { return s.Heap.Unref(v) }

// Context mirrors asp.h's void *context accessor, reading the opaque
// host state an AppCallFunc handler was given by SetContext.
func Context(e *engine.Engine) any { return e.Context() }

// Again mirrors AspAgain: the signal a host's AppCallFunc returns to
// say "call me again on the next Step instead of completing now"
// (spec.md §4.K, the suspend/resume protocol for slow app calls).
// calling.Again already implements the value this wraps; re-exported
// here so every AspXxx-shaped name a caller needs lives in one package.
func Again() calling.Result { return calling.Again() }

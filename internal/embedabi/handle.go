// Package embedabi is the host embedding surface the spec's C API
// (asp.h) names: predicates, extractors, constructors, container
// mutators with take-ownership semantics, argument-list builders, and
// engine control. It is a pure Go, handle-based rendering of that C
// surface — asp.h's AspDataEntry* handles become object.Value.
// assertFailed renders asp.h's AspAssert; the functions of this package
// do not check their preconditions and do not call it.
//
// A real cgo forwarding layer (a separate package main built with
// -buildmode=c-archive, since //export requires package main) would
// sit on top of this package, translating *C.AspEngine and
// *C.AspDataEntry to the Engine and object.Value this package already
// works with. No such layer exists in this module: nothing here
// assumes cgo, and everything is exercised directly from Go.
package embedabi

import "github.com/aspembed/asp/internal/engine"

// assertFailed renders the asp.h AspAssert contract: when cond is false
// it latches the engine into its Error state with ErrInternalError,
// rather than panicking across what would be the ABI boundary in a cgo
// build, and returns true ("bail out now, the engine has latched").
// Nothing in this package calls it.
func assertFailed(e *engine.Engine, cond bool) bool {
	if cond {
		return false
	}
	e.Fail(engine.ErrInternalError, "embedding API precondition violated")
	return true
}

// Package heap implements the fixed-capacity data heap that backs every
// live value in an Asp engine: a flat arena of uniform entries, a free
// list, and explicit reference counting with a bounded cycle-detection
// budget on recursive free.
//
// The heap itself knows nothing about value semantics — it stores a tag
// byte and a handful of generic payload slots per entry, and asks a
// registered ChildrenFunc which other indices an entry holds a strong
// reference to. internal/object registers that function; this mirrors
// the teacher's separation between internal/vm (mechanics: stack, frames,
// dispatch) and internal/evaluator (what a value actually means).
package heap

import (
	"fmt"
	"unsafe"
)

// Index addresses one entry in the arena. Index 0 is the reserved null
// sentinel — never a live value, never returned by Alloc.
type Index int32

// NullIndex is the reserved sentinel; no entry may be allocated at it.
const NullIndex Index = 0

// Tag identifies what an entry's payload means.
type Tag byte

const (
	TagFree Tag = iota // on the free list; payload invalid

	TagNone
	TagEllipsis
	TagBoolean
	TagInteger
	TagFloat
	TagSymbol
	TagRange

	TagString // sequence header; elements are TagSeqElemBytes fragments
	TagTuple  // sequence header; elements are TagSeqElemValue
	TagList   // sequence header; elements are TagSeqElemValue
	TagSeqElemValue
	TagSeqElemBytes

	TagSet        // tree header; nodes are TagTreeNode with Links[key]
	TagDictionary // tree header; nodes are TagTreeNode with Links[key,value]
	TagNamespace  // tree header; nodes keyed by symbol id (Int)
	TagTreeNode

	TagIteratorFwd
	TagIteratorRev

	TagScriptFunction
	TagAppFunction
	TagModule

	TagAppInteger
	TagAppPointer
	TagType

	TagArgument
	TagArgumentList
	TagParameter
	TagParameterList
)

// Link slot indices within Entry.L, named per the container role that
// uses them. A given tag only uses the slots documented for it in
// internal/object, internal/seqstore, and internal/treestore.
const (
	L0 = 0
	L1 = 1
	L2 = 2
	L3 = 3
)

// ChildrenFunc returns the set of indices an entry holds a strong
// reference to, so that Free can recursively unref them. Registered by
// internal/object, which alone knows what each tag's payload fields mean.
type ChildrenFunc func(tag Tag, e *Entry) []Index

// Entry is the single fixed-shape cell of the heap. Every live value is
// one or more entries; which fields are meaningful depends on Tag.
type Entry struct {
	Tag Tag
	Use uint32

	// next links free-list entries; on a live entry it is unused.
	next Index

	Int    int32   // integer / symbol id / app-int32 / bool(0|1) / type tag / bytecode addr
	Float  float64 // float payload
	L      [4]Index // generic strong-reference links; meaning is tag-specific
	Bytes  []byte  // string fragment bytes / raw literal bytes
	Ptr    uintptr // app-pointer object opaque handle
	AppTag uint16  // application-defined type tag for app objects
	Dtor   AppDestructor
	Flag   bool // iterator at-end flag; direction-independent extra bit
}

// AppDestructor is a host-supplied finalizer for an app-integer or
// app-pointer object, invoked by Free just before the entry is recycled.
type AppDestructor func(appTag uint16, payload uintptr)

// EntrySize is the fixed per-entry footprint a host budgets data memory
// against (asp.h's AspDataEntrySize / sizeof(AspDataEntry)).
const EntrySize = int(unsafe.Sizeof(Entry{}))

// ErrOutOfMemory is returned by Alloc when the free list is exhausted.
type ErrOutOfMemory struct{ Capacity int }

func (e *ErrOutOfMemory) Error() string {
	return fmt.Sprintf("out of data memory (capacity %d)", e.Capacity)
}

// ErrCycleDetected is returned by Free (and by any bounded traversal)
// when a recursive operation exceeds the configured cycle-detection limit.
type ErrCycleDetected struct{ Limit int }

func (e *ErrCycleDetected) Error() string {
	return fmt.Sprintf("cycle detected (limit %d)", e.Limit)
}

// Config bounds the heap's two compile-time-constant-in-the-original
// knobs as runtime parameters (Design Note: capacity and cycle limit are
// parameters, not hard-coded values).
type Config struct {
	Capacity           int // number of entries, including index 0
	CycleDetectionLimit int // max recursive Free/traversal steps
}

// DefaultConfig matches the standalone CLI's documented defaults (§6: -d 2048).
func DefaultConfig() Config {
	return Config{Capacity: 2048, CycleDetectionLimit: 10000}
}

// Heap is the fixed-capacity entry arena.
type Heap struct {
	entries      []Entry
	freeHead     Index
	freeCount    int
	lowWater     int
	cycleLimit   int
	children     ChildrenFunc
}

// New allocates a Heap with cfg.Capacity entries (index 0 reserved).
// children may be nil until internal/object registers it via SetHooks;
// Alloc/Ref work without it, and Free without it releases the entry
// without touching any children.
func New(cfg Config) *Heap {
	if cfg.Capacity < 1 {
		cfg.Capacity = 1
	}
	h := &Heap{
		entries:    make([]Entry, cfg.Capacity),
		cycleLimit: cfg.CycleDetectionLimit,
	}
	h.entries[0] = Entry{Tag: TagFree}
	// Build the free list over indices [1, Capacity), each entry points to the next.
	for i := 1; i < cfg.Capacity; i++ {
		h.entries[i].Tag = TagFree
		if i+1 < cfg.Capacity {
			h.entries[i].next = Index(i + 1)
		} else {
			h.entries[i].next = NullIndex
		}
	}
	if cfg.Capacity > 1 {
		h.freeHead = Index(1)
		h.freeCount = cfg.Capacity - 1
	}
	h.lowWater = h.freeCount
	return h
}

// SetHooks registers the object-model callback used by Free to find an
// entry's children. Called once during engine construction, before any Alloc.
func (h *Heap) SetHooks(children ChildrenFunc) {
	h.children = children
}

// Capacity returns the total number of entries, including the reserved index 0.
func (h *Heap) Capacity() int { return len(h.entries) }

// FreeCount returns the number of entries currently on the free list.
func (h *Heap) FreeCount() int { return h.freeCount }

// LowWaterMark returns the historical minimum of FreeCount observed.
func (h *Heap) LowWaterMark() int { return h.lowWater }

// CycleDetectionLimit returns the current bound on recursive free
// traversal depth (asp.h's AspGetCycleDetectionLimit).
func (h *Heap) CycleDetectionLimit() int { return h.cycleLimit }

// SetCycleDetectionLimit changes the bound on recursive free traversal
// depth at run time (asp.h's AspSetCycleDetectionLimit), letting a host
// raise it for a program known to build deep structures or lower it to
// fail fast during testing.
func (h *Heap) SetCycleDetectionLimit(limit int) { h.cycleLimit = limit }

// At returns a pointer to the entry at idx for direct field access by
// internal/object. Panics on an out-of-range index; idx==NullIndex is
// valid and addresses the reserved sentinel (always TagFree).
func (h *Heap) At(idx Index) *Entry {
	return &h.entries[idx]
}

// Alloc detaches the free-list head, zeros its payload, sets tag and a
// use count of 1.
func (h *Heap) Alloc(tag Tag) (Index, error) {
	if h.freeHead == NullIndex {
		return NullIndex, &ErrOutOfMemory{Capacity: len(h.entries)}
	}
	idx := h.freeHead
	e := &h.entries[idx]
	h.freeHead = e.next
	h.freeCount--
	if h.freeCount < h.lowWater {
		h.lowWater = h.freeCount
	}
	*e = Entry{Tag: tag, Use: 1}
	return idx, nil
}

// Ref increments idx's use count. A no-op on NullIndex.
func (h *Heap) Ref(idx Index) {
	if idx == NullIndex {
		return
	}
	h.entries[idx].Use++
}

// Unref decrements idx's use count, freeing it (recursively, bounded by
// the cycle-detection limit) when it reaches zero. A no-op on NullIndex.
func (h *Heap) Unref(idx Index) error {
	if idx == NullIndex {
		return nil
	}
	e := &h.entries[idx]
	if e.Use == 0 {
		return fmt.Errorf("heap: unref of already-free entry %d", idx)
	}
	e.Use--
	if e.Use > 0 {
		return nil
	}
	return h.free(idx, 0)
}

// free recursively decrements children's use counts and returns idx to
// the free list, bounded by h.cycleLimit traversal steps.
func (h *Heap) free(idx Index, depth int) error {
	if depth > h.cycleLimit {
		return &ErrCycleDetected{Limit: h.cycleLimit}
	}
	e := &h.entries[idx]
	tag := e.Tag

	if e.Dtor != nil {
		e.Dtor(e.AppTag, e.Ptr)
	}

	var kids []Index
	if h.children != nil {
		kids = h.children(tag, e)
	}

	*e = Entry{Tag: TagFree, next: h.freeHead}
	h.freeHead = idx
	h.freeCount++

	for _, k := range kids {
		if k == NullIndex {
			continue
		}
		ke := &h.entries[k]
		if ke.Use == 0 {
			continue // already collected by an earlier cycle step
		}
		ke.Use--
		if ke.Use == 0 {
			if err := h.free(k, depth+1); err != nil {
				return err
			}
		}
	}
	return nil
}

// IsFree reports whether idx currently sits on the free list.
func (h *Heap) IsFree(idx Index) bool {
	if idx == NullIndex {
		return true
	}
	return h.entries[idx].Tag == TagFree
}

// UseCount returns idx's current reference count (0 if free).
func (h *Heap) UseCount(idx Index) uint32 {
	if idx == NullIndex {
		return 0
	}
	return h.entries[idx].Use
}

// Package codeload implements the engine's code-memory loader
// (spec.md §4.H): streamed-add, sealed-from-buffer, and paged
// acquisition of a program's bytecode, plus the header it validates
// against an appspec's check value.
//
// Grounded on the teacher's internal/vm/bundle.go (a single type that
// owns the compiled program's bytes and exposes it to the VM),
// adapted from a gob-decoded in-memory struct to a byte-oriented
// loader: the spec's engine never holds a parsed program, only a flat
// code buffer (or demand-loaded pages of one) that the interpreter
// reads by program counter.
package codeload

import (
	"encoding/binary"
	"fmt"
)

// Magic identifies a bytecode (.aspe) stream, distinct from an
// appspec's "AspS" header (spec.md §4.J).
var Magic = [4]byte{'A', 's', 'p', 'E'}

// HeaderSize is the fixed byte length of the validated header: 4-byte
// magic, 4-byte version quad, 2-byte check value.
const HeaderSize = 4 + 4 + 2

// Version is the engine's four-byte version quad (Design Note: mirrors
// asp.h's ASP_VERSION_MAJOR/MINOR/PATCH/TWEAK macros).
type Version struct {
	Major, Minor, Patch, Tweak byte
}

// CurrentVersion is the version this engine accepts.
var CurrentVersion = Version{Major: 1, Minor: 0, Patch: 0, Tweak: 0}

// Header is the fixed prefix every code stream carries.
type Header struct {
	Magic      [4]byte
	Version    Version
	CheckValue uint16
}

// ErrInvalidCheckValue is returned when a header's check value does
// not match the appspec it was compiled against.
type ErrInvalidCheckValue struct{ Got, Want uint16 }

func (e *ErrInvalidCheckValue) Error() string {
	return fmt.Sprintf("invalid check value: got %#04x, want %#04x", e.Got, e.Want)
}

// ErrInvalidVersion is returned when a header's version quad does not
// match CurrentVersion.
type ErrInvalidVersion struct{ Got Version }

func (e *ErrInvalidVersion) Error() string {
	return fmt.Sprintf("invalid version: %d.%d.%d.%d", e.Got.Major, e.Got.Minor, e.Got.Patch, e.Got.Tweak)
}

// ErrBadMagic is returned when a stream does not start with Magic.
var ErrBadMagic = fmt.Errorf("codeload: bad magic bytes")

// parseHeader reads and validates the fixed header prefix of data.
func parseHeader(data []byte, wantCheckValue uint16) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, fmt.Errorf("codeload: short header (%d bytes)", len(data))
	}
	var h Header
	copy(h.Magic[:], data[0:4])
	if h.Magic != Magic {
		return Header{}, ErrBadMagic
	}
	h.Version = Version{data[4], data[5], data[6], data[7]}
	if h.Version != CurrentVersion {
		return Header{}, &ErrInvalidVersion{Got: h.Version}
	}
	h.CheckValue = binary.LittleEndian.Uint16(data[8:10])
	if h.CheckValue != wantCheckValue {
		return Header{}, &ErrInvalidCheckValue{Got: h.CheckValue, Want: wantCheckValue}
	}
	return h, nil
}

// Mode identifies which of the three acquisition modes a Loader is
// using (spec.md §4.H).
type Mode int

const (
	ModeUnset Mode = iota
	ModeStreamed
	ModeBuffer
	ModePaged
)

// PageReader demand-loads one page of a paged code stream: id is the
// page number, offset/size locate the requested slice within it, and
// buf is the caller-owned destination.
type PageReader func(id int32, offset, size int, buf []byte) error

const defaultPageCacheDepth = 4

// Loader accumulates or demand-loads a program's bytecode and
// validates its header once sealed.
type Loader struct {
	mode Mode
	buf  []byte // streamed/whole-buffer code, header included

	pageSize   int
	pageCount  int
	reader     PageReader
	cache      map[int32][]byte
	cacheOrder []int32
	cacheDepth int

	header  Header
	sealed  bool

	pageReads int // count of reader() invocations, for AspCodePageReadCount
}

// New returns an unloaded Loader.
func New() *Loader {
	return &Loader{cacheDepth: defaultPageCacheDepth}
}

// AddCode appends data to the streamed-mode buffer. Valid only before
// Seal and incompatible with the other two modes.
func (l *Loader) AddCode(data []byte) error {
	if l.mode == ModeUnset {
		l.mode = ModeStreamed
	}
	if l.mode != ModeStreamed {
		return fmt.Errorf("codeload: AddCode called in mode %v", l.mode)
	}
	if l.sealed {
		return fmt.Errorf("codeload: AddCode called after Seal")
	}
	l.buf = append(l.buf, data...)
	return nil
}

// Seal validates the header of a streamed-mode (or sealed-from-buffer)
// code stream against wantCheckValue and transitions the loader to its
// ready state.
func (l *Loader) Seal(wantCheckValue uint16) error {
	if l.mode != ModeStreamed && l.mode != ModeBuffer {
		return fmt.Errorf("codeload: Seal called in mode %v", l.mode)
	}
	h, err := parseHeader(l.buf, wantCheckValue)
	if err != nil {
		return err
	}
	l.header = h
	l.sealed = true
	return nil
}

// LoadBuffer adopts a complete code buffer (sealed-from-buffer mode)
// and validates its header immediately.
func (l *Loader) LoadBuffer(data []byte, wantCheckValue uint16) error {
	if l.mode != ModeUnset {
		return fmt.Errorf("codeload: LoadBuffer called after another mode was chosen")
	}
	l.mode = ModeBuffer
	l.buf = data
	return l.Seal(wantCheckValue)
}

// LoadPaged configures paged mode: the engine reads the header via one
// synchronous page-0 fetch, then demand-loads further pages as the
// program counter reaches them.
func (l *Loader) LoadPaged(pageCount, pageSize int, reader PageReader, wantCheckValue uint16) error {
	if l.mode != ModeUnset {
		return fmt.Errorf("codeload: LoadPaged called after another mode was chosen")
	}
	if pageSize < HeaderSize {
		return fmt.Errorf("codeload: page size %d too small for header", pageSize)
	}
	l.mode = ModePaged
	l.pageCount = pageCount
	l.pageSize = pageSize
	l.reader = reader
	l.cache = make(map[int32][]byte, l.cacheDepth)

	page0 := make([]byte, pageSize)
	l.pageReads++
	if err := reader(0, 0, pageSize, page0); err != nil {
		return fmt.Errorf("codeload: reading page 0: %w", err)
	}
	h, err := parseHeader(page0, wantCheckValue)
	if err != nil {
		return err
	}
	l.header = h
	l.sealed = true
	l.cachePut(0, page0)
	return nil
}

// Header returns the validated header; only meaningful once sealed.
func (l *Loader) Header() Header { return l.header }

// Sealed reports whether the loader has a validated header and is
// ready to serve ByteAt.
func (l *Loader) Sealed() bool { return l.sealed }

// PageReadCount returns how many times the host's PageReader has been
// invoked to satisfy a demand-load, for AspCodePageReadCount.
func (l *Loader) PageReadCount() int { return l.pageReads }

// CodeSize returns the total bytes of code memory available: the
// loaded buffer's length in streamed/buffer mode, or pageCount*pageSize
// in paged mode (AspMaxCodeSize).
func (l *Loader) CodeSize() int {
	if l.mode == ModePaged {
		return l.pageCount * l.pageSize
	}
	return len(l.buf)
}

// ByteAt returns the byte at code offset pc (0 addresses the first
// header byte), demand-loading pages in paged mode.
func (l *Loader) ByteAt(pc int32) (byte, error) {
	if !l.sealed {
		return 0, fmt.Errorf("codeload: ByteAt called before Seal")
	}
	switch l.mode {
	case ModeStreamed, ModeBuffer:
		if int(pc) >= len(l.buf) {
			return 0, fmt.Errorf("codeload: pc %d out of range (%d bytes loaded)", pc, len(l.buf))
		}
		return l.buf[pc], nil
	case ModePaged:
		id := pc / int32(l.pageSize)
		offset := pc % int32(l.pageSize)
		page, err := l.page(id)
		if err != nil {
			return 0, err
		}
		if int(offset) >= len(page) {
			return 0, fmt.Errorf("codeload: pc %d out of range within page %d", pc, id)
		}
		return page[offset], nil
	default:
		return 0, fmt.Errorf("codeload: ByteAt called with no mode set")
	}
}

func (l *Loader) page(id int32) ([]byte, error) {
	if p, ok := l.cache[id]; ok {
		return p, nil
	}
	if id < 0 || int(id) >= l.pageCount {
		return nil, fmt.Errorf("codeload: page %d out of range (%d pages)", id, l.pageCount)
	}
	buf := make([]byte, l.pageSize)
	l.pageReads++
	if err := l.reader(id, 0, l.pageSize, buf); err != nil {
		return nil, fmt.Errorf("codeload: reading page %d: %w", id, err)
	}
	l.cachePut(id, buf)
	return buf, nil
}

// cachePut inserts a page, evicting the oldest entry once the cache
// exceeds cacheDepth (spec.md §4.H: "maintains a small set of cached
// pages").
func (l *Loader) cachePut(id int32, page []byte) {
	if _, exists := l.cache[id]; exists {
		return
	}
	l.cache[id] = page
	l.cacheOrder = append(l.cacheOrder, id)
	if len(l.cacheOrder) > l.cacheDepth {
		oldest := l.cacheOrder[0]
		l.cacheOrder = l.cacheOrder[1:]
		delete(l.cache, oldest)
	}
}

// Unload clears all loaded code and cache state, returning the loader
// to its unloaded state (spec.md §4.I Reset: "clears ... and returns
// to Ready" — the loader itself is re-primed by the next AddCode/
// LoadBuffer/LoadPaged call rather than by Reset, since code memory
// outlives a Reset in the original engine; this method exists for
// tests and for a host that wants to load an entirely new program).
func (l *Loader) Unload() {
	*l = Loader{cacheDepth: l.cacheDepth}
}

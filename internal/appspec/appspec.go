package appspec

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"

	"github.com/aspembed/asp/internal/calling"
)

// Magic identifies an appspec stream (spec.md §4.J: "header magic AspS").
var Magic = [4]byte{'A', 's', 'p', 'S'}

// CurrentVersion is the single version byte this package emits and accepts.
const CurrentVersion byte = 1

// EntryKind tags one top-level declaration (spec.md §4.J).
type EntryKind byte

const (
	EntrySymbol EntryKind = iota
	EntryVariable
	EntryFunction
)

// Parameter is one declared parameter of a function entry. Name is
// carried alongside SymbolID so the canonical CRC serialization (which
// is computed before any script has resolved names to ids) has
// something stable to hash; only SymbolID and Kind travel in the
// packed 32-bit word the engine actually dispatches on.
type Parameter struct {
	Name     string
	SymbolID int32
	Kind     calling.ParamKind
	Default  *Literal // non-nil iff Kind == calling.ParamDefaulted
}

// Entry is one declaration: a bare symbol, a variable with an initial
// literal, or a function with its parameter list.
type Entry struct {
	Kind       EntryKind
	Name       string
	SymbolID   int32
	Literal    *Literal    // EntryVariable only
	Parameters []Parameter // EntryFunction only
}

// Spec is a fully decoded (or not-yet-encoded) application specification.
type Spec struct {
	Version    byte
	CheckValue uint16
	Entries    []Entry
}

// SymbolID looks up an entry's id by name. Used to build the name→id
// table a host program consumes (spec.md §4.J: "A symbol table mapping
// names→ids").
func (s *Spec) SymbolID(name string) (int32, bool) {
	for _, e := range s.Entries {
		if e.Name == name {
			return e.SymbolID, true
		}
	}
	return 0, false
}

// ErrInvalidCheckValue is returned when a decoded spec's embedded check
// value does not match the one recomputed over its canonical form.
type ErrInvalidCheckValue struct{ Got, Want uint16 }

func (e *ErrInvalidCheckValue) Error() string {
	return fmt.Sprintf("appspec: invalid check value: got %#04x, want %#04x", e.Got, e.Want)
}

// ErrInvalidVersion is returned when a decoded spec's version byte is
// not CurrentVersion.
type ErrInvalidVersion struct{ Got byte }

func (e *ErrInvalidVersion) Error() string {
	return fmt.Sprintf("appspec: invalid version %d", e.Got)
}

// ErrBadMagic is returned when a stream does not start with Magic.
var ErrBadMagic = fmt.Errorf("appspec: bad magic bytes")

// CheckValue computes the 16-bit CRC-32/ISO-HDLC check value over
// spec's canonicalized serialization (spec.md §4.J): for each
// variable, `\v` + name + literal; for each function, `\f` + name,
// then for each parameter `(` + name + default literal (if present).
// Plain symbol declarations (no literal) do not contribute.
func CheckValue(entries []Entry) uint16 {
	var buf []byte
	for _, e := range entries {
		switch e.Kind {
		case EntryVariable:
			buf = append(buf, '\v')
			buf = append(buf, e.Name...)
			if e.Literal != nil {
				buf = canonicalLiteral(buf, *e.Literal)
			}
		case EntryFunction:
			buf = append(buf, '\f')
			buf = append(buf, e.Name...)
			for _, p := range e.Parameters {
				buf = append(buf, '(')
				buf = append(buf, p.Name...)
				if p.Default != nil {
					buf = canonicalLiteral(buf, *p.Default)
				}
			}
		}
	}
	sum := crc32.ChecksumIEEE(buf) // CRC-32/ISO-HDLC is crc32's IEEE polynomial
	return uint16(sum & 0xFFFF)
}

// Encode serializes spec to its wire form, recomputing and stamping
// its check value first.
func Encode(spec *Spec) ([]byte, error) {
	check := CheckValue(spec.Entries)

	var body []byte
	for _, e := range spec.Entries {
		var err error
		body, err = encodeEntry(body, e)
		if err != nil {
			return nil, err
		}
	}
	if len(body) > 0xFFFF {
		return nil, fmt.Errorf("appspec: body too large (%d bytes) for 16-bit byte count", len(body))
	}

	out := make([]byte, 0, 4+1+2+2+len(body))
	out = append(out, Magic[:]...)
	out = append(out, CurrentVersion)
	var tmp [2]byte
	binary.LittleEndian.PutUint16(tmp[:], uint16(len(body)))
	out = append(out, tmp[:]...)
	binary.LittleEndian.PutUint16(tmp[:], check)
	out = append(out, tmp[:]...)
	out = append(out, body...)
	return out, nil
}

// Decode parses and validates an appspec stream, checking its CRC
// against its own canonicalized entries (spec.md: "mismatch at load
// time aborts with invalid-check-value").
func Decode(data []byte) (*Spec, error) {
	if len(data) < 9 {
		return nil, fmt.Errorf("appspec: short header (%d bytes)", len(data))
	}
	var magic [4]byte
	copy(magic[:], data[0:4])
	if magic != Magic {
		return nil, ErrBadMagic
	}
	version := data[4]
	if version != CurrentVersion {
		return nil, &ErrInvalidVersion{Got: version}
	}
	byteCount := binary.LittleEndian.Uint16(data[5:7])
	checkValue := binary.LittleEndian.Uint16(data[7:9])
	body := data[9:]
	if len(body) < int(byteCount) {
		return nil, fmt.Errorf("appspec: truncated body (%d of %d bytes)", len(body), byteCount)
	}
	body = body[:byteCount]

	entries, err := decodeEntries(body)
	if err != nil {
		return nil, err
	}
	want := CheckValue(entries)
	if checkValue != want {
		return nil, &ErrInvalidCheckValue{Got: checkValue, Want: want}
	}
	return &Spec{Version: version, CheckValue: checkValue, Entries: entries}, nil
}

func encodeEntry(buf []byte, e Entry) ([]byte, error) {
	buf = append(buf, byte(e.Kind))
	buf = appendName(buf, e.Name)
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], uint32(e.SymbolID))
	buf = append(buf, tmp[:]...)

	switch e.Kind {
	case EntrySymbol:
		return buf, nil
	case EntryVariable:
		if e.Literal == nil {
			return nil, fmt.Errorf("appspec: variable %q missing literal", e.Name)
		}
		return encodeLiteral(buf, *e.Literal), nil
	case EntryFunction:
		if len(e.Parameters) > 127 {
			return nil, fmt.Errorf("appspec: function %q has %d parameters, max 127", e.Name, len(e.Parameters))
		}
		buf = append(buf, byte(len(e.Parameters)))
		for _, p := range e.Parameters {
			buf = appendName(buf, p.Name)
			word, err := packParamWord(p.SymbolID, p.Kind)
			if err != nil {
				return nil, err
			}
			var w [4]byte
			binary.BigEndian.PutUint32(w[:], word)
			buf = append(buf, w[:]...)
			if p.Kind == calling.ParamDefaulted {
				if p.Default == nil {
					return nil, fmt.Errorf("appspec: defaulted parameter %q missing default literal", p.Name)
				}
				buf = encodeLiteral(buf, *p.Default)
			}
		}
		return buf, nil
	default:
		return nil, fmt.Errorf("appspec: unknown entry kind %d", e.Kind)
	}
}

func decodeEntries(body []byte) ([]Entry, error) {
	var entries []Entry
	for len(body) > 0 {
		kind := EntryKind(body[0])
		body = body[1:]
		name, n, err := readName(body)
		if err != nil {
			return nil, err
		}
		body = body[n:]
		if len(body) < 4 {
			return nil, fmt.Errorf("appspec: truncated entry %q symbol id", name)
		}
		symbolID := int32(binary.LittleEndian.Uint32(body[0:4]))
		body = body[4:]

		e := Entry{Kind: kind, Name: name, SymbolID: symbolID}
		switch kind {
		case EntrySymbol:
			// no further payload
		case EntryVariable:
			lit, n, err := decodeLiteral(body)
			if err != nil {
				return nil, err
			}
			e.Literal = &lit
			body = body[n:]
		case EntryFunction:
			if len(body) < 1 {
				return nil, fmt.Errorf("appspec: truncated function %q parameter count", name)
			}
			count := int(body[0])
			body = body[1:]
			e.Parameters = make([]Parameter, 0, count)
			for i := 0; i < count; i++ {
				pname, n, err := readName(body)
				if err != nil {
					return nil, err
				}
				body = body[n:]
				if len(body) < 4 {
					return nil, fmt.Errorf("appspec: truncated function %q parameter word", name)
				}
				word := binary.BigEndian.Uint32(body[0:4])
				body = body[4:]
				symID, paramKind, err := unpackParamWord(word)
				if err != nil {
					return nil, err
				}
				p := Parameter{Name: pname, SymbolID: symID, Kind: paramKind}
				if paramKind == calling.ParamDefaulted {
					lit, n, err := decodeLiteral(body)
					if err != nil {
						return nil, err
					}
					p.Default = &lit
					body = body[n:]
				}
				e.Parameters = append(e.Parameters, p)
			}
		default:
			return nil, fmt.Errorf("appspec: unknown entry kind %d", kind)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func appendName(buf []byte, name string) []byte {
	buf = append(buf, byte(len(name)))
	return append(buf, name...)
}

func readName(data []byte) (string, int, error) {
	if len(data) < 1 {
		return "", 0, fmt.Errorf("appspec: truncated name length")
	}
	n := int(data[0])
	if len(data) < 1+n {
		return "", 0, fmt.Errorf("appspec: truncated name")
	}
	return string(data[1 : 1+n]), 1 + n, nil
}

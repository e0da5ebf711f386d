// Package appspec implements the binary application specification
// (spec.md §4.J): the host's declared symbols, variables, and
// functions, plus the CRC-32/ISO-HDLC check value that must match the
// compiled bytecode's embedded copy.
//
// Grounded on the teacher's internal/vm/chunk.go constant-pool
// encoding (a typed tag byte followed by a fixed or length-prefixed
// payload per Go value kind), generalized from a compiler's constant
// pool to a host-declared symbol table with defaulted literals.
package appspec

import (
	"encoding/binary"
	"fmt"
	"math"
)

// LiteralKind tags a Literal's payload (spec.md §4.J: "bool, int32
// little-endian, float in host-endian-corrected IEEE binary64, or
// length-prefixed bytes").
type LiteralKind byte

const (
	LiteralBool LiteralKind = iota
	LiteralInt32
	LiteralFloat64
	LiteralBytes
)

// Literal is one default/initial value carried by a variable or
// defaulted-parameter declaration.
type Literal struct {
	Kind    LiteralKind
	Bool    bool
	Int32   int32
	Float64 float64
	Bytes   []byte
}

func BoolLiteral(v bool) Literal       { return Literal{Kind: LiteralBool, Bool: v} }
func Int32Literal(v int32) Literal     { return Literal{Kind: LiteralInt32, Int32: v} }
func Float64Literal(v float64) Literal { return Literal{Kind: LiteralFloat64, Float64: v} }
func BytesLiteral(v []byte) Literal    { return Literal{Kind: LiteralBytes, Bytes: v} }

// encodeLiteral appends lit's wire representation to buf, always
// little-endian regardless of host byte order (spec.md: "host-endian-
// corrected").
func encodeLiteral(buf []byte, lit Literal) []byte {
	buf = append(buf, byte(lit.Kind))
	switch lit.Kind {
	case LiteralBool:
		b := byte(0)
		if lit.Bool {
			b = 1
		}
		return append(buf, b)
	case LiteralInt32:
		var tmp [4]byte
		binary.LittleEndian.PutUint32(tmp[:], uint32(lit.Int32))
		return append(buf, tmp[:]...)
	case LiteralFloat64:
		var tmp [8]byte
		binary.LittleEndian.PutUint64(tmp[:], math.Float64bits(lit.Float64))
		return append(buf, tmp[:]...)
	case LiteralBytes:
		var tmp [2]byte
		binary.LittleEndian.PutUint16(tmp[:], uint16(len(lit.Bytes)))
		buf = append(buf, tmp[:]...)
		return append(buf, lit.Bytes...)
	}
	return buf
}

// decodeLiteral reads one Literal from the front of data, returning
// the literal and the number of bytes consumed.
func decodeLiteral(data []byte) (Literal, int, error) {
	if len(data) < 1 {
		return Literal{}, 0, fmt.Errorf("appspec: truncated literal")
	}
	kind := LiteralKind(data[0])
	switch kind {
	case LiteralBool:
		if len(data) < 2 {
			return Literal{}, 0, fmt.Errorf("appspec: truncated bool literal")
		}
		return Literal{Kind: kind, Bool: data[1] != 0}, 2, nil
	case LiteralInt32:
		if len(data) < 5 {
			return Literal{}, 0, fmt.Errorf("appspec: truncated int32 literal")
		}
		v := int32(binary.LittleEndian.Uint32(data[1:5]))
		return Literal{Kind: kind, Int32: v}, 5, nil
	case LiteralFloat64:
		if len(data) < 9 {
			return Literal{}, 0, fmt.Errorf("appspec: truncated float64 literal")
		}
		v := math.Float64frombits(binary.LittleEndian.Uint64(data[1:9]))
		return Literal{Kind: kind, Float64: v}, 9, nil
	case LiteralBytes:
		if len(data) < 3 {
			return Literal{}, 0, fmt.Errorf("appspec: truncated bytes literal")
		}
		n := int(binary.LittleEndian.Uint16(data[1:3]))
		if len(data) < 3+n {
			return Literal{}, 0, fmt.Errorf("appspec: truncated bytes literal payload")
		}
		return Literal{Kind: kind, Bytes: append([]byte(nil), data[3:3+n]...)}, 3 + n, nil
	default:
		return Literal{}, 0, fmt.Errorf("appspec: unknown literal kind %d", kind)
	}
}

// canonicalLiteral appends lit's bytes to the canonical CRC input
// stream. Unlike encodeLiteral it has no length framing beyond what
// encodeLiteral itself already provides, since the canonical form is
// consumed only by the CRC, never re-parsed.
func canonicalLiteral(buf []byte, lit Literal) []byte {
	return encodeLiteral(buf, lit)
}

package appspec

import (
	"encoding/binary"
	"fmt"

	"github.com/funvibe/funbit/pkg/funbit"

	"github.com/aspembed/asp/internal/calling"
)

// paramWord packs one function parameter's symbol id (30 bits) and
// parameter kind (2 bits) into the 32-bit word spec.md §4.J describes
// ("a 32-bit word packing the symbol id in its low bits and one of
// four parameter kinds ... in the high bits"), using funbit's
// Erlang-style bit-syntax builder rather than hand-rolled shifts, the
// same way the teacher's script-level binary builtins construct
// packed bit fields.
func packParamWord(symbolID int32, kind calling.ParamKind) (uint32, error) {
	builder := funbit.NewBuilder()
	funbit.AddInteger(builder, int64(kind), funbit.WithSize(2))
	funbit.AddInteger(builder, int64(uint32(symbolID)&0x3FFFFFFF), funbit.WithSize(30))
	bits, err := funbit.Build(builder)
	if err != nil {
		return 0, fmt.Errorf("appspec: packing parameter word: %w", err)
	}
	data := bits.ToBytes()
	if len(data) != 4 {
		return 0, fmt.Errorf("appspec: packed parameter word has %d bytes, want 4", len(data))
	}
	return binary.BigEndian.Uint32(data), nil
}

// unpackParamWord is packParamWord's inverse, matching the same field
// layout with funbit's bitstring matcher.
func unpackParamWord(word uint32) (symbolID int32, kind calling.ParamKind, err error) {
	data := make([]byte, 4)
	binary.BigEndian.PutUint32(data, word)

	var kindBits, symBits int64
	matcher := funbit.NewMatcher()
	funbit.Integer(matcher, &kindBits, funbit.WithSize(2))
	funbit.Integer(matcher, &symBits, funbit.WithSize(30))
	if _, err := funbit.Match(matcher, data); err != nil {
		return 0, 0, fmt.Errorf("appspec: unpacking parameter word: %w", err)
	}
	return int32(symBits), calling.ParamKind(kindBits), nil
}

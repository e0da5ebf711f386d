package appspec

import (
	"reflect"
	"testing"

	"github.com/aspembed/asp/internal/calling"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	spec := &Spec{
		Version: CurrentVersion,
		Entries: []Entry{
			{Kind: EntrySymbol, Name: "kReserved", SymbolID: 1},
			{Kind: EntryVariable, Name: "maxRetries", SymbolID: 2, Literal: int32LiteralPtr(3)},
			{
				Kind:     EntryFunction,
				Name:     "connect",
				SymbolID: 3,
				Parameters: []Parameter{
					{Name: "host", SymbolID: 10, Kind: calling.ParamPlain},
					{Name: "timeout", SymbolID: 11, Kind: calling.ParamDefaulted, Default: int32LiteralPtr(30)},
					{Name: "rest", SymbolID: 12, Kind: calling.ParamTupleGroup},
				},
			},
		},
	}

	data, err := Encode(spec)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(decoded.Entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(decoded.Entries))
	}
	fn := decoded.Entries[2]
	if fn.Name != "connect" || len(fn.Parameters) != 3 {
		t.Fatalf("unexpected function entry: %+v", fn)
	}
	if fn.Parameters[1].Kind != calling.ParamDefaulted || fn.Parameters[1].Default.Int32 != 30 {
		t.Fatalf("unexpected defaulted parameter: %+v", fn.Parameters[1])
	}
	if id, ok := decoded.SymbolID("connect"); !ok || id != 3 {
		t.Fatalf("expected symbol table lookup for connect -> 3, got %d, %v", id, ok)
	}
}

func TestDecodeRejectsBadMagic(t *testing.T) {
	data := []byte{'X', 'X', 'X', 'X', CurrentVersion, 0, 0, 0, 0}
	if _, err := Decode(data); err != ErrBadMagic {
		t.Fatalf("expected ErrBadMagic, got %v", err)
	}
}

func TestDecodeRejectsTamperedCheckValue(t *testing.T) {
	spec := &Spec{Version: CurrentVersion, Entries: []Entry{
		{Kind: EntryVariable, Name: "x", SymbolID: 1, Literal: int32LiteralPtr(5)},
	}}
	data, err := Encode(spec)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	data[7] ^= 0xFF // flip every bit of the check-value field's low byte
	if _, err := Decode(data); err == nil {
		t.Fatalf("expected tampered check value to be rejected")
	}
}

func TestLiteralRoundTrip(t *testing.T) {
	cases := []Literal{
		BoolLiteral(true),
		Int32Literal(-12345),
		Float64Literal(3.5),
		BytesLiteral([]byte("hello")),
	}
	for _, lit := range cases {
		buf := encodeLiteral(nil, lit)
		got, n, err := decodeLiteral(buf)
		if err != nil {
			t.Fatalf("decode %v: %v", lit, err)
		}
		if n != len(buf) {
			t.Fatalf("expected to consume all %d bytes, consumed %d", len(buf), n)
		}
		if !reflect.DeepEqual(got, lit) {
			t.Fatalf("round-trip mismatch: got %+v want %+v", got, lit)
		}
	}
}

func TestCheckValueStableAcrossSymbolIDs(t *testing.T) {
	a := []Entry{{Kind: EntryVariable, Name: "x", SymbolID: 1, Literal: int32LiteralPtr(1)}}
	b := []Entry{{Kind: EntryVariable, Name: "x", SymbolID: 999, Literal: int32LiteralPtr(1)}}
	if CheckValue(a) != CheckValue(b) {
		t.Fatalf("expected check value to depend only on names/literals, not symbol ids")
	}
}

func int32LiteralPtr(v int32) *Literal {
	l := Int32Literal(v)
	return &l
}

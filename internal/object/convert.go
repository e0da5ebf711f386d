package object

import (
	"fmt"
	"math"

	"github.com/aspembed/asp/internal/heap"
)

// ToBool implements Asp truthiness: none/false/0/0.0/empty containers
// are false; everything else, ellipsis included, is true.
func (s *Store) ToBool(v Value) bool {
	switch s.Tag(v) {
	case heap.TagNone:
		return false
	case heap.TagEllipsis:
		return true
	case heap.TagBoolean:
		return s.BoolValue(v)
	case heap.TagInteger:
		return s.IntValue(v) != 0
	case heap.TagFloat:
		return s.FloatValue(v) != 0
	case heap.TagSymbol:
		return true
	case heap.TagString, heap.TagTuple, heap.TagList:
		return s.SequenceLen(v) != 0
	case heap.TagSet, heap.TagDictionary, heap.TagNamespace:
		return s.TreeLen(v) != 0
	default:
		return true
	}
}

// ToFloat converts a numeric value to float64; non-numeric values
// report an unexpected-type error.
func (s *Store) ToFloat(v Value) (float64, error) {
	switch s.Tag(v) {
	case heap.TagBoolean:
		if s.BoolValue(v) {
			return 1, nil
		}
		return 0, nil
	case heap.TagInteger:
		return float64(s.IntValue(v)), nil
	case heap.TagFloat:
		return s.FloatValue(v), nil
	default:
		return 0, errUnexpectedType("expected a numeric value")
	}
}

// ToInt converts a numeric value to int32, applying IntFromFloat's
// rounding/saturation policy for floats. check promotes an imprecise
// float conversion into a value-out-of-range error.
func (s *Store) ToInt(v Value, check bool) (int32, error) {
	switch s.Tag(v) {
	case heap.TagBoolean:
		if s.BoolValue(v) {
			return 1, nil
		}
		return 0, nil
	case heap.TagInteger:
		return s.IntValue(v), nil
	case heap.TagFloat:
		return IntFromFloat(s.FloatValue(v), check)
	default:
		return 0, errUnexpectedType("expected a numeric value")
	}
}

// ToString renders v as its "print" form (unquoted for strings, unlike Repr).
func (s *Store) ToString(v Value) (string, error) {
	switch s.Tag(v) {
	case heap.TagString:
		return string(s.StringBytes(v)), nil
	default:
		return s.Repr(v)
	}
}

// Repr renders v the way the compiler's literal syntax would read it
// back (spec.md §4.B "Repr of string"/"Repr of range", §8 "repr(x)
// parsed back by the compiler round-trips").
func (s *Store) Repr(v Value) (string, error) {
	if v == Null {
		return "", errUnexpectedType("null value has no representation")
	}
	switch s.Tag(v) {
	case heap.TagNone:
		return "none", nil
	case heap.TagEllipsis:
		return "...", nil
	case heap.TagBoolean:
		if s.BoolValue(v) {
			return "true", nil
		}
		return "false", nil
	case heap.TagInteger:
		return fmt.Sprintf("%d", s.IntValue(v)), nil
	case heap.TagFloat:
		return reprFloat(s.FloatValue(v)), nil
	case heap.TagSymbol:
		return fmt.Sprintf("symbol(%d)", s.SymbolID(v)), nil
	case heap.TagString:
		return reprString(s.StringBytes(v)), nil
	case heap.TagRange:
		return s.reprRange(v), nil
	case heap.TagTuple:
		return s.reprSequence(v, "(", ")", true)
	case heap.TagList:
		return s.reprSequence(v, "[", "]", false)
	case heap.TagSet:
		return s.reprSet(v)
	case heap.TagDictionary:
		return s.reprDict(v)
	case heap.TagScriptFunction, heap.TagAppFunction:
		return "<function>", nil
	case heap.TagModule:
		return "<module>", nil
	case heap.TagType:
		return fmt.Sprintf("<type %d>", s.TypeTagValue(v)), nil
	default:
		return fmt.Sprintf("<object %d>", v), nil
	}
}

func reprFloat(f float64) string {
	if math.IsNaN(f) {
		return "nan"
	}
	if math.IsInf(f, 1) {
		return "inf"
	}
	if math.IsInf(f, -1) {
		return "-inf"
	}
	s := fmt.Sprintf("%g", f)
	for _, c := range s {
		if c == '.' || c == 'e' || c == 'E' {
			return s
		}
	}
	return s + ".0"
}

// reprString quotes a byte string, escaping non-printable bytes as
// \0 \a \b \f \n \r \t \v \\ \' or \xNN (spec.md §4.B).
func reprString(b []byte) string {
	out := make([]byte, 0, len(b)+2)
	out = append(out, '\'')
	for _, c := range b {
		switch c {
		case 0:
			out = append(out, '\\', '0')
		case '\a':
			out = append(out, '\\', 'a')
		case '\b':
			out = append(out, '\\', 'b')
		case '\f':
			out = append(out, '\\', 'f')
		case '\n':
			out = append(out, '\\', 'n')
		case '\r':
			out = append(out, '\\', 'r')
		case '\t':
			out = append(out, '\\', 't')
		case '\v':
			out = append(out, '\\', 'v')
		case '\\':
			out = append(out, '\\', '\\')
		case '\'':
			out = append(out, '\\', '\'')
		default:
			if c < 0x20 || c >= 0x7f {
				out = append(out, []byte(fmt.Sprintf("\\x%02X", c))...)
			} else {
				out = append(out, c)
			}
		}
	}
	out = append(out, '\'')
	return string(out)
}

// reprRange omits start if it equals the step-direction default (0 or
// -1), omits end if unbounded, omits step if 1; separator is "..",
// step prefix is ":" (spec.md §4.B "Repr of range").
func (s *Store) reprRange(v Value) string {
	start, end, step := s.RangeParts(v)
	stepVal := s.RangeStep(v)
	defaultStart := int32(0)
	if stepVal < 0 {
		defaultStart = -1
	}

	out := ""
	if start != Null && s.IntValue(start) != defaultStart {
		out += fmt.Sprintf("%d", s.IntValue(start))
	}
	out += ".."
	if end != Null {
		out += fmt.Sprintf("%d", s.IntValue(end))
	}
	if step != Null && stepVal != 1 {
		out += fmt.Sprintf(":%d", stepVal)
	}
	return out
}

func (s *Store) reprSequence(v Value, open, close string, singletonComma bool) (string, error) {
	out := open
	n := 0
	for e := s.Seq.First(v); e != heap.NullIndex; e = s.Seq.Next(e) {
		if n > 0 {
			out += ", "
		}
		r, err := s.Repr(s.Seq.Value(e))
		if err != nil {
			return "", err
		}
		out += r
		n++
	}
	if singletonComma && n == 1 {
		out += ","
	}
	out += close
	return out, nil
}

func (s *Store) reprSet(v Value) (string, error) {
	if s.TreeLen(v) == 0 {
		return "{}", nil
	}
	out := "{"
	n := 0
	for node := s.Tree.NextInOrder(v, Null); node != heap.NullIndex; node = s.Tree.NextInOrder(v, node) {
		if n > 0 {
			out += ", "
		}
		r, err := s.Repr(s.Tree.Key(node))
		if err != nil {
			return "", err
		}
		out += r
		n++
	}
	out += "}"
	return out, nil
}

func (s *Store) reprDict(v Value) (string, error) {
	out := "{"
	n := 0
	for node := s.Tree.NextInOrder(v, Null); node != heap.NullIndex; node = s.Tree.NextInOrder(v, node) {
		if n > 0 {
			out += ", "
		}
		k, err := s.Repr(s.Tree.Key(node))
		if err != nil {
			return "", err
		}
		val, err := s.Repr(s.Tree.Value(node))
		if err != nil {
			return "", err
		}
		out += k + ": " + val
		n++
	}
	out += "}"
	return out, nil
}

package asp

import (
	"fmt"
	"reflect"

	"github.com/aspembed/asp/internal/calling"
	"github.com/aspembed/asp/internal/embedabi"
	"github.com/aspembed/asp/internal/object"
)

// Marshaller converts between Go values and Asp object.Values at the
// Bind/Call boundary, the same role the teacher's pkg/embed Marshaller
// plays for Funxy's evaluator.Object, adapted to the heap-backed
// object.Value the Asp engine uses instead.
type Marshaller struct{}

// NewMarshaller returns a ready Marshaller. It carries no state of its
// own; every conversion takes the relevant object.Store explicitly.
func NewMarshaller() *Marshaller { return &Marshaller{} }

// ToValue converts a Go value into a new, owned object.Value.
func (m *Marshaller) ToValue(s *object.Store, val interface{}) (object.Value, error) {
	if val == nil {
		return s.None(), nil
	}
	v := reflect.ValueOf(val)
	switch v.Kind() {
	case reflect.Bool:
		return s.Bool(v.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return s.Int(int32(v.Int())), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return s.Int(int32(v.Uint())), nil
	case reflect.Float32, reflect.Float64:
		return s.Float(v.Float()), nil
	case reflect.String:
		return s.NewStringFrom([]byte(v.String())), nil
	case reflect.Slice, reflect.Array:
		list := s.NewList()
		for i := 0; i < v.Len(); i++ {
			elem, err := m.ToValue(s, v.Index(i).Interface())
			if err != nil {
				s.Heap.Unref(list)
				return object.Null, err
			}
			if err := s.SequenceAppend(list, elem); err != nil {
				s.Heap.Unref(elem)
				s.Heap.Unref(list)
				return object.Null, err
			}
			s.Heap.Unref(elem)
		}
		return list, nil
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return object.Null, fmt.Errorf("asp: only string-keyed maps convert to dictionaries")
		}
		dict := s.NewDictionary()
		iter := v.MapRange()
		for iter.Next() {
			key := s.NewStringFrom([]byte(iter.Key().String()))
			val, err := m.ToValue(s, iter.Value().Interface())
			if err != nil {
				s.Heap.Unref(key)
				s.Heap.Unref(dict)
				return object.Null, err
			}
			err = s.DictionaryInsert(dict, key, val)
			s.Heap.Unref(key)
			s.Heap.Unref(val)
			if err != nil {
				s.Heap.Unref(dict)
				return object.Null, err
			}
		}
		return dict, nil
	default:
		return object.Null, fmt.Errorf("asp: cannot convert Go %s to a script value", v.Kind())
	}
}

// FromValue converts an object.Value into a Go value. None becomes nil;
// booleans, integers, floats and strings become bool/int32/float64/
// string, converted to targetType when one is given. Lists and tuples
// always become []interface{} of naturally converted elements,
// whatever targetType is. Dictionaries, sets and every other kind of
// value report an error.
func (m *Marshaller) FromValue(s *object.Store, v object.Value, targetType reflect.Type) (interface{}, error) {
	switch {
	case embedabi.IsNone(s, v):
		return nil, nil
	case embedabi.IsBoolean(s, v):
		b := s.BoolValue(v)
		return convertTo(reflect.ValueOf(b), targetType)
	case embedabi.IsInteger(s, v):
		i := s.IntValue(v)
		return convertTo(reflect.ValueOf(i), targetType)
	case embedabi.IsFloat(s, v):
		f := s.FloatValue(v)
		return convertTo(reflect.ValueOf(f), targetType)
	case embedabi.IsString(s, v):
		str, err := s.ToString(v)
		if err != nil {
			return nil, err
		}
		return convertTo(reflect.ValueOf(str), targetType)
	case embedabi.IsList(s, v), embedabi.IsTuple(s, v):
		n := int(s.SequenceLen(v))
		out := make([]interface{}, n)
		for i := 0; i < n; i++ {
			elem, err := s.SequenceAt(v, i)
			if err != nil {
				return nil, err
			}
			out[i], err = m.FromValue(s, elem, nil)
			if err != nil {
				return nil, err
			}
		}
		return out, nil
	default:
		repr, _ := s.Repr(v)
		return nil, fmt.Errorf("asp: cannot convert script value %s to a Go value", repr)
	}
}

// convertTo adapts v to targetType when one was asked for, or returns
// v's natural Go value otherwise.
func convertTo(v reflect.Value, targetType reflect.Type) (interface{}, error) {
	if targetType == nil {
		return v.Interface(), nil
	}
	if !v.Type().ConvertibleTo(targetType) {
		return nil, fmt.Errorf("asp: cannot convert %s to %s", v.Type(), targetType)
	}
	return v.Convert(targetType).Interface(), nil
}

// unpackArgs resolves argList against a synthetic parameter list
// shaped like fnType (plain positional parameters, with a trailing
// tuple group absorbing extras if fnType is variadic), via the same
// calling.Bind every script call uses, then reads each bound value back
// out through a scratch namespace and converts it to fnType's declared
// Go parameter type.
func (m *Marshaller) unpackArgs(s *object.Store, argList object.Value, fnType reflect.Type) ([]reflect.Value, error) {
	numIn := fnType.NumIn()
	fixedCount := numIn
	if fnType.IsVariadic() {
		fixedCount--
	}

	paramList := calling.NewParameterList(s)
	for i := 0; i < fixedCount; i++ {
		calling.AppendParameter(s, paramList, calling.ParamPlain, int32(i), object.Null)
	}
	groupSymbol := int32(fixedCount)
	if fnType.IsVariadic() {
		calling.AppendParameter(s, paramList, calling.ParamTupleGroup, groupSymbol, object.Null)
	}

	ns := s.NewNamespace()
	err := calling.Bind(s, paramList, argList, ns)
	s.Heap.Unref(paramList)
	if err != nil {
		s.Heap.Unref(ns)
		return nil, err
	}

	goArgs := make([]reflect.Value, 0, numIn)
	for i := 0; i < fixedCount; i++ {
		v, _ := s.NamespaceLoad(ns, int32(i))
		target := fnType.In(i)
		goVal, err := m.FromValue(s, v, target)
		if err != nil {
			s.Heap.Unref(ns)
			return nil, err
		}
		goArgs = append(goArgs, reflect.ValueOf(goVal))
	}
	if fnType.IsVariadic() {
		group, _ := s.NamespaceLoad(ns, groupSymbol)
		n := int(s.SequenceLen(group))
		elemType := fnType.In(numIn - 1).Elem()
		for i := 0; i < n; i++ {
			elem, err := s.SequenceAt(group, i)
			if err != nil {
				s.Heap.Unref(ns)
				return nil, err
			}
			goVal, err := m.FromValue(s, elem, elemType)
			if err != nil {
				s.Heap.Unref(ns)
				return nil, err
			}
			goArgs = append(goArgs, reflect.ValueOf(goVal))
		}
	}
	s.Heap.Unref(ns)
	return goArgs, nil
}

// packResults converts a bound Go function's return values into a
// single script value: None for no results, the lone converted value
// for one, or a tuple for more than one.
func (m *Marshaller) packResults(s *object.Store, results []reflect.Value) (object.Value, error) {
	switch len(results) {
	case 0:
		return s.None(), nil
	case 1:
		return m.ToValue(s, results[0].Interface())
	default:
		tuple := s.NewTuple()
		for _, r := range results {
			v, err := m.ToValue(s, r.Interface())
			if err != nil {
				s.Heap.Unref(tuple)
				return object.Null, err
			}
			err = s.SequenceAppend(tuple, v)
			s.Heap.Unref(v)
			if err != nil {
				s.Heap.Unref(tuple)
				return object.Null, err
			}
		}
		return tuple, nil
	}
}

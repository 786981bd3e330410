package domain

import (
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
)

// Metadata is the typed key/value bag attached to a memory.  It reuses the
// otel attribute model so entries can be copied onto spans as-is, and the
// json form round-trips the value types.
type Metadata []Field

type Field struct {
	attribute.KeyValue
}

func String(key, value string) Field    { return Field{attribute.String(key, value)} }
func Bool(key string, v bool) Field     { return Field{attribute.Bool(key, v)} }
func Int(key string, v int64) Field     { return Field{attribute.Int64(key, v)} }
func Float(key string, v float64) Field { return Field{attribute.Float64(key, v)} }

func (m Metadata) Attributes() []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, len(m))
	for i, f := range m {
		attrs[i] = f.KeyValue
	}
	return attrs
}

func (f *Field) UnmarshalJSON(b []byte) error {

	type helper struct {
		Key   string
		Value struct {
			Type  string
			Value any
		}
	}

	kv := helper{}
	if err := json.Unmarshal(b, &kv); err != nil {
		return err
	}

	value, err := ParseValue(kv.Value.Type, kv.Value.Value)
	if err != nil {
		return fmt.Errorf("metadata %q: %w", kv.Key, err)
	}

	f.Key = attribute.Key(kv.Key)
	f.Value = value

	return nil
}

// ParseValue rebuilds an attribute value from its json form.  Values arrive
// over http, so a mismatch between type tag and value is an error, not a
// panic.
func ParseValue(valType string, val any) (attribute.Value, error) {

	switch valType {
	case "BOOL":
		b, ok := val.(bool)
		if !ok {
			return attribute.Value{}, typeError(valType, val)
		}
		return attribute.BoolValue(b), nil

	case "BOOLSLICE":
		bools, err := parseSlice[bool](valType, val)
		if err != nil {
			return attribute.Value{}, err
		}
		return attribute.BoolSliceValue(bools), nil

	case "INT64":
		f, ok := val.(float64)
		if !ok {
			return attribute.Value{}, typeError(valType, val)
		}
		return attribute.Int64Value(int64(f)), nil

	case "INT64SLICE":
		floats, err := parseSlice[float64](valType, val)
		if err != nil {
			return attribute.Value{}, err
		}
		ints := make([]int64, len(floats))
		for i, f := range floats {
			ints[i] = int64(f)
		}
		return attribute.Int64SliceValue(ints), nil

	case "FLOAT64":
		f, ok := val.(float64)
		if !ok {
			return attribute.Value{}, typeError(valType, val)
		}
		return attribute.Float64Value(f), nil

	case "FLOAT64SLICE":
		floats, err := parseSlice[float64](valType, val)
		if err != nil {
			return attribute.Value{}, err
		}
		return attribute.Float64SliceValue(floats), nil

	case "STRING":
		s, ok := val.(string)
		if !ok {
			return attribute.Value{}, typeError(valType, val)
		}
		return attribute.StringValue(s), nil

	case "STRINGSLICE":
		strings, err := parseSlice[string](valType, val)
		if err != nil {
			return attribute.Value{}, err
		}
		return attribute.StringSliceValue(strings), nil
	}

	return attribute.Value{}, fmt.Errorf("unknown value type %q", valType)
}

func parseSlice[T any](valType string, val any) ([]T, error) {
	sl, ok := val.([]any)
	if !ok {
		return nil, typeError(valType, val)
	}

	out := make([]T, len(sl))
	for i, v := range sl {
		t, ok := v.(T)
		if !ok {
			return nil, typeError(valType, v)
		}
		out[i] = t
	}

	return out, nil
}

func typeError(valType string, val any) error {
	return fmt.Errorf("value %v (%T) is not valid for type %s", val, val, valType)
}

package entity

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

type ValueKind uint8

const (
	KindNull ValueKind = iota
	KindString
	KindNumber
	KindBool
	KindArray
	KindObject
)

func (k ValueKind) String() string {
	return [...]string{"null", "string", "number", "bool", "array", "object"}[k]
}

// Value is a tagged representation of an arbitrary JSON value. User-defined
// fields have no schema, so the raw shape is kept as-is: numbers keep their
// source literal (no float round-trip), objects and arrays nest.
type Value struct {
	Kind ValueKind
	Str  string
	Num  json.Number
	Bool bool
	Arr  []Value
	Obj  map[string]Value
}

func NullValue() Value                { return Value{Kind: KindNull} }
func StringValue(s string) Value      { return Value{Kind: KindString, Str: s} }
func NumberValue(n json.Number) Value { return Value{Kind: KindNumber, Num: n} }
func BoolValue(b bool) Value          { return Value{Kind: KindBool, Bool: b} }

// ValueOf converts a decoded JSON value (the map[string]any / []any /
// json.Number shapes produced by encoding/json with UseNumber) into a Value.
func ValueOf(raw any) Value {
	switch v := raw.(type) {
	case nil:
		return Value{Kind: KindNull}
	case string:
		return Value{Kind: KindString, Str: v}
	case bool:
		return Value{Kind: KindBool, Bool: v}
	case json.Number:
		return Value{Kind: KindNumber, Num: v}
	case float64:
		// Callers that decode without UseNumber still get a sane value.
		return Value{Kind: KindNumber, Num: json.Number(fmt.Sprintf("%v", v))}
	case []any:
		arr := make([]Value, len(v))
		for i, e := range v {
			arr[i] = ValueOf(e)
		}
		return Value{Kind: KindArray, Arr: arr}
	case map[string]any:
		obj := make(map[string]Value, len(v))
		for k, e := range v {
			obj[k] = ValueOf(e)
		}
		return Value{Kind: KindObject, Obj: obj}
	default:
		return Value{Kind: KindString, Str: fmt.Sprintf("%v", v)}
	}
}

// IsZero reports whether the value is unset. An explicit JSON null and an
// absent attribute are deliberately indistinguishable: both count as unset
// for presence checks and filter matching.
func (v Value) IsZero() bool {
	return v.Kind == KindNull
}

// String renders the canonical string form used for filter matching:
// strings verbatim, numbers as their source literal, booleans as
// "true"/"false", null as "null", arrays/objects as compact JSON.
func (v Value) String() string {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindNumber:
		return v.Num.String()
	case KindBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case KindNull:
		return "null"
	default:
		var b strings.Builder
		v.writeJSON(&b)
		return b.String()
	}
}

func (v Value) writeJSON(b *strings.Builder) {
	switch v.Kind {
	case KindString:
		raw, _ := json.Marshal(v.Str)
		b.Write(raw)
	case KindNumber:
		b.WriteString(v.Num.String())
	case KindBool, KindNull:
		b.WriteString(v.String())
	case KindArray:
		b.WriteByte('[')
		for i, e := range v.Arr {
			if i > 0 {
				b.WriteByte(',')
			}
			e.writeJSON(b)
		}
		b.WriteByte(']')
	case KindObject:
		// Deterministic key order so representations are comparable.
		keys := make([]string, 0, len(v.Obj))
		for k := range v.Obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				b.WriteByte(',')
			}
			raw, _ := json.Marshal(k)
			b.Write(raw)
			b.WriteByte(':')
			v.Obj[k].writeJSON(b)
		}
		b.WriteByte('}')
	}
}

// MarshalJSON renders the underlying JSON value, not the tagged wrapper.
func (v Value) MarshalJSON() ([]byte, error) {
	var b strings.Builder
	v.writeJSON(&b)
	return []byte(b.String()), nil
}

// Equal compares two values structurally.
func (v Value) Equal(other Value) bool {
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case KindString:
		return v.Str == other.Str
	case KindNumber:
		return v.Num == other.Num
	case KindBool:
		return v.Bool == other.Bool
	case KindNull:
		return true
	case KindArray:
		if len(v.Arr) != len(other.Arr) {
			return false
		}
		for i := range v.Arr {
			if !v.Arr[i].Equal(other.Arr[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if len(v.Obj) != len(other.Obj) {
			return false
		}
		for k, e := range v.Obj {
			o, ok := other.Obj[k]
			if !ok || !e.Equal(o) {
				return false
			}
		}
		return true
	}
	return false
}

package postcrud

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"
)

// Kind identifies which variant a Value holds.
type Kind uint8

// Value kinds.
const (
	KindNull Kind = iota
	KindString
	KindInt
	KindFloat
	KindBool
	KindTime
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindTime:
		return "time"
	default:
		return "unknown"
	}
}

// Value is a loosely typed column or metadata value. It is a closed variant:
// null, string, int, float, bool or time. The zero Value is null.
type Value struct {
	kind Kind
	s    string
	i    int64
	f    float64
	b    bool
	t    time.Time
}

// Null returns the null Value.
func Null() Value { return Value{} }

// String returns a string Value.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Int returns an integer Value.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Float returns a floating point Value.
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// Bool returns a boolean Value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Time returns a time Value.
func Time(t time.Time) Value { return Value{kind: KindTime, t: t} }

// ValueOf converts a native Go value into a Value. Supported inputs are nil,
// Value, string, []byte, every int/uint width, float32/64, bool, time.Time
// and pointers to those.
func ValueOf(v any) (Value, error) {
	switch x := v.(type) {
	case nil:
		return Null(), nil
	case Value:
		return x, nil
	case string:
		return String(x), nil
	case []byte:
		return String(string(x)), nil
	case int:
		return Int(int64(x)), nil
	case int8:
		return Int(int64(x)), nil
	case int16:
		return Int(int64(x)), nil
	case int32:
		return Int(int64(x)), nil
	case int64:
		return Int(x), nil
	case uint:
		return Int(int64(x)), nil
	case uint8:
		return Int(int64(x)), nil
	case uint16:
		return Int(int64(x)), nil
	case uint32:
		return Int(int64(x)), nil
	case uint64:
		if x > math.MaxInt64 {
			return Value{}, fmt.Errorf("value %d overflows int64", x)
		}
		return Int(int64(x)), nil
	case float32:
		return Float(float64(x)), nil
	case float64:
		return Float(x), nil
	case bool:
		return Bool(x), nil
	case time.Time:
		return Time(x), nil
	case *string:
		return ptrValue(x)
	case *int64:
		return ptrValue(x)
	case *int32:
		return ptrValue(x)
	case *float64:
		return ptrValue(x)
	case *bool:
		return ptrValue(x)
	case *time.Time:
		return ptrValue(x)
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return Int(i), nil
		}
		f, err := x.Float64()
		if err != nil {
			return Value{}, err
		}
		return Float(f), nil
	default:
		return Value{}, fmt.Errorf("unsupported value type %T", v)
	}
}

func ptrValue[T any](p *T) (Value, error) {
	if p == nil {
		return Null(), nil
	}
	return ValueOf(*p)
}

// Kind reports the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Str returns the string variant. ok is false for any other kind.
func (v Value) Str() (s string, ok bool) { return v.s, v.kind == KindString }

// Int64 returns the integer variant. ok is false for any other kind.
func (v Value) Int64() (i int64, ok bool) { return v.i, v.kind == KindInt }

// Float64 returns the numeric value as a float. Ints are converted.
func (v Value) Float64() (f float64, ok bool) {
	switch v.kind {
	case KindFloat:
		return v.f, true
	case KindInt:
		return float64(v.i), true
	}
	return 0, false
}

// Boolean returns the bool variant. ok is false for any other kind.
func (v Value) Boolean() (b bool, ok bool) { return v.b, v.kind == KindBool }

// TimeValue returns the time variant. ok is false for any other kind.
func (v Value) TimeValue() (t time.Time, ok bool) { return v.t, v.kind == KindTime }

// Interface returns the held value as a native Go value, nil for null.
func (v Value) Interface() any {
	switch v.kind {
	case KindString:
		return v.s
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindBool:
		return v.b
	case KindTime:
		return v.t
	default:
		return nil
	}
}

// String renders v for display. Null renders as the empty string.
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.s
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindTime:
		return v.t.Format(time.RFC3339Nano)
	default:
		return ""
	}
}

// Equal reports whether v and o hold the same kind and value.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.s == o.s
	case KindInt:
		return v.i == o.i
	case KindFloat:
		return v.f == o.f
	case KindBool:
		return v.b == o.b
	case KindTime:
		return v.t.Equal(o.t)
	default:
		return true
	}
}

// timeKey tags a time Value on the wire so that it does not decode back as
// a string.
const timeKey = "$time"

type jsonTime struct {
	Time *string `json:"$time"`
}

// MarshalJSON encodes v as a plain JSON scalar. Times are wrapped as
// {"$time": "<RFC 3339>"}.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindTime:
		s := v.t.Format(time.RFC3339Nano)
		return json.Marshal(jsonTime{Time: &s})
	case KindNull:
		return []byte("null"), nil
	default:
		return json.Marshal(v.Interface())
	}
}

// UnmarshalJSON decodes a JSON scalar or a tagged time. Integral numbers
// become ints, other numbers floats. Other objects and arrays are rejected.
func (v *Value) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		return v.unmarshalTime(trimmed)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	val, err := ValueOf(raw)
	if err != nil {
		return fmt.Errorf("decode value: %w", err)
	}
	*v = val
	return nil
}

func (v *Value) unmarshalTime(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var wrapped jsonTime
	if err := dec.Decode(&wrapped); err != nil {
		return fmt.Errorf("decode value: %w", err)
	}
	if wrapped.Time == nil {
		return fmt.Errorf("decode value: object without %s", timeKey)
	}
	t, err := time.Parse(time.RFC3339Nano, *wrapped.Time)
	if err != nil {
		return fmt.Errorf("decode time: %w", err)
	}
	*v = Time(t)
	return nil
}

// Fields maps a column or metadata key to its value.
type Fields map[string]Value

// Clone returns a shallow copy of f. A nil map clones to an empty one.
func (f Fields) Clone() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// FieldsOf converts a map of native values into Fields.
func FieldsOf(m map[string]any) (Fields, error) {
	out := make(Fields, len(m))
	for k, raw := range m {
		v, err := ValueOf(raw)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", k, err)
		}
		out[k] = v
	}
	return out, nil
}

// EncodeValue renders v as "<kind>:<text>" so that DecodeValue restores the
// same kind. Schemaless hosts store values in this form.
func EncodeValue(v Value) string {
	switch v.kind {
	case KindString:
		return "s:" + v.s
	case KindInt:
		return "i:" + strconv.FormatInt(v.i, 10)
	case KindFloat:
		return "f:" + strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindBool:
		return "b:" + strconv.FormatBool(v.b)
	case KindTime:
		return "t:" + v.t.Format(time.RFC3339Nano)
	default:
		return "n:"
	}
}

// DecodeValue parses the output of EncodeValue.
func DecodeValue(s string) (Value, error) {
	if len(s) < 2 || s[1] != ':' {
		return Value{}, fmt.Errorf("malformed encoded value %q", s)
	}
	text := s[2:]
	switch s[0] {
	case 'n':
		return Null(), nil
	case 's':
		return String(text), nil
	case 'i':
		i, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("decode int: %w", err)
		}
		return Int(i), nil
	case 'f':
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return Value{}, fmt.Errorf("decode float: %w", err)
		}
		return Float(f), nil
	case 'b':
		b, err := strconv.ParseBool(text)
		if err != nil {
			return Value{}, fmt.Errorf("decode bool: %w", err)
		}
		return Bool(b), nil
	case 't':
		t, err := time.Parse(time.RFC3339Nano, text)
		if err != nil {
			return Value{}, fmt.Errorf("decode time: %w", err)
		}
		return Time(t), nil
	default:
		return Value{}, fmt.Errorf("unknown value kind %q", s[0])
	}
}

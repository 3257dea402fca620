package core

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/ajitpratap0/opendota-datasource/pkg/errors"
	"github.com/ajitpratap0/opendota-datasource/pkg/json"
)

// Kind tags the variant held by a Value
type Kind uint8

const (
	KindNull Kind = iota
	KindNumber
	KindString
	KindBool
	KindDate
	KindJSON
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindDate:
		return "date"
	case KindJSON:
		return "json"
	default:
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Value is a tagged scalar as found in an upstream JSON row. Numbers keep
// their literal text so 64-bit ids survive unchanged; nested arrays and
// objects are kept as raw JSON.
type Value struct {
	kind Kind
	num  json.Number
	str  string
	b    bool
	t    time.Time
	raw  json.RawMessage
}

// Null returns the null Value
func Null() Value { return Value{} }

// NumberValue wraps a JSON number literal
func NumberValue(n json.Number) Value { return Value{kind: KindNumber, num: n} }

// IntValue wraps an integer
func IntValue(i int64) Value { return NumberValue(json.Number(strconv.FormatInt(i, 10))) }

// FloatValue wraps a float; NaN and infinities have no JSON form and become null
func FloatValue(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Null()
	}
	return NumberValue(json.Number(strconv.FormatFloat(f, 'f', -1, 64)))
}

// StringValue wraps a string
func StringValue(s string) Value { return Value{kind: KindString, str: s} }

// BoolValue wraps a boolean
func BoolValue(b bool) Value { return Value{kind: KindBool, b: b} }

// DateValue wraps a timestamp
func DateValue(t time.Time) Value { return Value{kind: KindDate, t: t} }

// JSONValue wraps a raw nested array or object
func JSONValue(raw json.RawMessage) Value {
	return Value{kind: KindJSON, raw: append(json.RawMessage(nil), raw...)}
}

// FromAny converts a decoded JSON value into a Value
func FromAny(v interface{}) (Value, error) {
	switch x := v.(type) {
	case nil:
		return Null(), nil
	case Value:
		return x, nil
	case json.Number:
		return NumberValue(x), nil
	case string:
		return StringValue(x), nil
	case bool:
		return BoolValue(x), nil
	case float64:
		return FloatValue(x), nil
	case float32:
		return FloatValue(float64(x)), nil
	case int:
		return IntValue(int64(x)), nil
	case int32:
		return IntValue(int64(x)), nil
	case int64:
		return IntValue(x), nil
	case uint64:
		return NumberValue(json.Number(strconv.FormatUint(x, 10))), nil
	case time.Time:
		return DateValue(x), nil
	case []interface{}, map[string]interface{}:
		raw, err := json.Marshal(x)
		if err != nil {
			return Null(), errors.Wrap(err, errors.ErrorTypeData, "failed to encode nested value")
		}
		return JSONValue(raw), nil
	default:
		return Null(), errors.Newf(errors.ErrorTypeData, "unsupported value type %T", v)
	}
}

// Kind returns the variant tag
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is null
func (v Value) IsNull() bool { return v.kind == KindNull }

// Number returns the number literal
func (v Value) Number() (json.Number, bool) { return v.num, v.kind == KindNumber }

// Float64 returns the number as float64
func (v Value) Float64() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	f, err := v.num.Float64()
	return f, err == nil
}

// Str returns the string
func (v Value) Str() (string, bool) { return v.str, v.kind == KindString }

// Bool returns the boolean
func (v Value) Bool() (bool, bool) { return v.b, v.kind == KindBool }

// Time returns the timestamp of a Date value
func (v Value) Time() (time.Time, bool) { return v.t, v.kind == KindDate }

// Raw returns the raw JSON of a nested value
func (v Value) Raw() (json.RawMessage, bool) { return v.raw, v.kind == KindJSON }

// dateLayouts are the string forms accepted as dates
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// AsTime interprets v as a point in time: Date values directly, numbers as
// Unix seconds and strings in ISO-8601 form.
func (v Value) AsTime() (time.Time, bool) {
	switch v.kind {
	case KindDate:
		return v.t, true
	case KindNumber:
		if i, err := v.num.Int64(); err == nil {
			return time.Unix(i, 0).UTC(), true
		}
		if f, err := v.num.Float64(); err == nil {
			sec, frac := math.Modf(f)
			return time.Unix(int64(sec), int64(frac*1e9)).UTC(), true
		}
	case KindString:
		s := strings.TrimSpace(v.str)
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

// String renders v as plain text: numbers as their literal, nested values as
// JSON, dates as RFC 3339 and null as the empty string.
func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return v.num.String()
	case KindString:
		return v.str
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindDate:
		return v.t.Format(time.RFC3339Nano)
	case KindJSON:
		return string(v.raw)
	default:
		return ""
	}
}

// Interface returns v as a plain Go value
func (v Value) Interface() interface{} {
	switch v.kind {
	case KindNumber:
		return v.num
	case KindString:
		return v.str
	case KindBool:
		return v.b
	case KindDate:
		return v.t
	case KindJSON:
		return v.raw
	default:
		return nil
	}
}

// Equal reports whether both values hold the same variant and content
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindNumber:
		return v.num == o.num
	case KindString:
		return v.str == o.str
	case KindBool:
		return v.b == o.b
	case KindDate:
		return v.t.Equal(o.t)
	case KindJSON:
		return bytes.Equal(v.raw, o.raw)
	}
	return false
}

// MarshalJSON writes v back out as the JSON it was decoded from
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindNumber:
		if v.num == "" {
			return []byte("0"), nil
		}
		return []byte(v.num), nil
	case KindString:
		return json.Marshal(v.str)
	case KindBool:
		return []byte(strconv.FormatBool(v.b)), nil
	case KindDate:
		return json.Marshal(v.t.Format(time.RFC3339Nano))
	case KindJSON:
		return v.raw, nil
	default:
		return nil, fmt.Errorf("unknown value kind %d", v.kind)
	}
}

// UnmarshalJSON decodes a JSON scalar or nested value
func (v *Value) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && (trimmed[0] == '[' || trimmed[0] == '{') {
		if !json.Valid(trimmed) {
			return errors.New(errors.ErrorTypeParse, "invalid nested JSON value")
		}
		*v = JSONValue(trimmed)
		return nil
	}
	decoded, err := json.DecodeAny(bytes.NewReader(trimmed))
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeParse, "invalid JSON value")
	}
	parsed, err := FromAny(decoded)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

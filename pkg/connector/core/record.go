package core

import (
	"bytes"
	"sort"

	"github.com/ajitpratap0/opendota-datasource/pkg/errors"
	"github.com/ajitpratap0/opendota-datasource/pkg/json"
)

// Record is one upstream row: field name to tagged value. Its shape is
// whatever the API returned.
type Record map[string]Value

// RecordFromMap converts a decoded JSON object into a Record
func RecordFromMap(m map[string]interface{}) (Record, error) {
	rec := make(Record, len(m))
	for k, raw := range m {
		v, err := FromAny(raw)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to convert field").WithDetail("field", k)
		}
		rec[k] = v
	}
	return rec, nil
}

// Keys returns the field names in sorted order
func (r Record) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Has reports whether the field exists, even if it holds null
func (r Record) Has(key string) bool {
	_, ok := r[key]
	return ok
}

// Equal reports whether both records hold the same fields and values
func (r Record) Equal(o Record) bool {
	if len(r) != len(o) {
		return false
	}
	for k, v := range r {
		ov, ok := o[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

// MarshalJSON writes the fields in sorted key order so identical records
// always produce identical bytes.
func (r Record) MarshalJSON() ([]byte, error) {
	if r == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := r[k].MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object into the record
func (r *Record) UnmarshalJSON(data []byte) error {
	var fields map[string]Value
	if err := json.Unmarshal(data, &fields); err != nil {
		return errors.Wrap(err, errors.ErrorTypeParse, "record is not a JSON object")
	}
	*r = Record(fields)
	return nil
}

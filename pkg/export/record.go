package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// Record is an ordered, flat column to value mapping. Values are scalars or
// nil. Column order is part of the record and drives export column order.
type Record struct {
	keys   []string
	values map[string]any
}

// NewRecord builds a record from alternating key, value arguments.
func NewRecord(pairs ...any) *Record {
	r := &Record{}
	for i := 0; i+1 < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			key = fmt.Sprint(pairs[i])
		}
		r.Set(key, pairs[i+1])
	}
	return r
}

// RecordFromMap builds a record with keys in lexical order.
func RecordFromMap(m map[string]any) *Record {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	r := &Record{}
	for _, key := range keys {
		r.Set(key, m[key])
	}
	return r
}

// Set assigns value to key. New keys are appended; existing keys keep their
// position.
func (r *Record) Set(key string, value any) *Record {
	if r.values == nil {
		r.values = make(map[string]any)
	}
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = value
	return r
}

// Get returns the value stored under key.
func (r *Record) Get(key string) (any, bool) {
	if r == nil {
		return nil, false
	}
	v, ok := r.values[key]
	return v, ok
}

// Keys returns the column names in order.
func (r *Record) Keys() []string {
	if r == nil {
		return nil
	}
	return append([]string(nil), r.keys...)
}

// Len returns the number of columns.
func (r *Record) Len() int {
	if r == nil {
		return 0
	}
	return len(r.keys)
}

// MarshalJSON encodes the record as an object in column order without HTML
// escaping.
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if r != nil {
		for i, key := range r.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSON(&buf, key); err != nil {
				return nil, err
			}
			buf.WriteByte(':')
			if err := writeJSON(&buf, r.values[key]); err != nil {
				return nil, fmt.Errorf("export: encode %q: %w", key, err)
			}
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes an object keeping its key order. Nested values are
// decoded as generic JSON.
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errors.New("export: record must be a JSON object")
	}
	*r = Record{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("export: unexpected token %v", tok)
		}
		var value any
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("export: decode %q: %w", key, err)
		}
		r.Set(key, value)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

func writeJSON(buf *bytes.Buffer, v any) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return err
	}
	// Encode terminates every value with a newline.
	buf.Truncate(buf.Len() - 1)
	return nil
}

package recs

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Record is an ordered field-name-to-value mapping, the unit of data
// flowing through a chain. Field order is insertion order and survives
// JSON round-trips at the top level, so a record rendered as a JSON line
// and parsed back presents its fields in the same order.
//
// Values may be scalars or nested structures; nested objects decode as
// plain maps and do not preserve order. A record has no identity beyond
// its field contents - its lifetime is one pass through a chain, or
// materialization into a record sink's held collection via Map.
type Record struct {
	keys   []string
	fields map[string]any
}

// NewRecord creates an empty record.
func NewRecord() *Record {
	return &Record{fields: make(map[string]any)}
}

// RecordFromMap creates a record from a plain mapping. Plain Go maps
// have no order, so fields are keyed in sorted order for determinism.
func RecordFromMap(m map[string]any) *Record {
	r := &Record{
		keys:   make([]string, 0, len(m)),
		fields: make(map[string]any, len(m)),
	}
	for k := range m {
		r.keys = append(r.keys, k)
	}
	sort.Strings(r.keys)
	for _, k := range r.keys {
		r.fields[k] = m[k]
	}
	return r
}

// Set assigns a field value. A new field name is appended after all
// existing fields; setting an existing field keeps its position.
// Returns the record for chaining.
func (r *Record) Set(key string, value any) *Record {
	if _, ok := r.fields[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.fields[key] = value
	return r
}

// Get returns the value of a field and whether the field exists.
func (r *Record) Get(key string) (any, bool) {
	v, ok := r.fields[key]
	return v, ok
}

// Delete removes a field, reporting whether it was present.
func (r *Record) Delete(key string) bool {
	if _, ok := r.fields[key]; !ok {
		return false
	}
	delete(r.fields, key)
	for i, k := range r.keys {
		if k == key {
			r.keys = append(r.keys[:i], r.keys[i+1:]...)
			break
		}
	}
	return true
}

// Keys returns the field names in order. The returned slice is a copy.
func (r *Record) Keys() []string {
	keys := make([]string, len(r.keys))
	copy(keys, r.keys)
	return keys
}

// Len returns the number of fields.
func (r *Record) Len() int {
	return len(r.keys)
}

// Map returns the record as a plain mapping, losing field order. This is
// the conversion applied when a record reaches a record-collecting sink.
// The map is a shallow copy: nested values are shared with the record.
func (r *Record) Map() map[string]any {
	m := make(map[string]any, len(r.fields))
	for k, v := range r.fields {
		m[k] = v
	}
	return m
}

// Clone returns a copy of the record with its own key order and field
// table. Nested values are shared, matching Map.
func (r *Record) Clone() *Record {
	c := &Record{
		keys:   make([]string, len(r.keys)),
		fields: make(map[string]any, len(r.fields)),
	}
	copy(c.keys, r.keys)
	for k, v := range r.fields {
		c.fields[k] = v
	}
	return c
}

// MarshalJSON encodes the record as a JSON object with fields in record
// order.
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(r.fields[k])
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object, preserving the order of its
// top-level fields.
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("record must be a JSON object, got %v", tok)
	}

	r.keys = r.keys[:0]
	r.fields = make(map[string]any)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("record field name must be a string, got %v", tok)
		}
		var value any
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("field %q: %w", key, err)
		}
		r.Set(key, value)
	}
	// Consume the closing brace.
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

// ParseRecord decodes one JSON line into a record. This is the wire
// format records travel in between line-oriented and record-oriented
// stages.
func ParseRecord(line string) (*Record, error) {
	r := NewRecord()
	if err := json.Unmarshal([]byte(line), r); err != nil {
		return nil, fmt.Errorf("parse record: %w", err)
	}
	return r, nil
}

// String returns the record's JSON encoding, for debugging.
func (r *Record) String() string {
	b, err := r.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("record{error: %v}", err)
	}
	return string(b)
}

// Package answers models submitted template answers.
//
// Go maps do not keep insertion order, but field order drives diff output and
// the legacy shape heuristic, so both Flat and Nested keep their keys in the
// order they were set or decoded.
package answers

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Flat is an ordered field-id → value map.
type Flat struct {
	keys   []string
	values map[string]any
}

// NewFlat returns an empty Flat.
func NewFlat() *Flat {
	return &Flat{values: make(map[string]any)}
}

// FlatOf builds a Flat from alternating key, value pairs.
func FlatOf(kv ...any) *Flat {
	f := NewFlat()
	for i := 0; i+1 < len(kv); i += 2 {
		k, ok := kv[i].(string)
		if !ok {
			panic(fmt.Sprintf("answers.FlatOf: key at %d is %T, want string", i, kv[i]))
		}
		f.Set(k, kv[i+1])
	}
	return f
}

// Set stores v under k. Existing keys keep their position.
func (f *Flat) Set(k string, v any) {
	if f.values == nil {
		f.values = make(map[string]any)
	}
	if _, ok := f.values[k]; !ok {
		f.keys = append(f.keys, k)
	}
	f.values[k] = v
}

func (f *Flat) Get(k string) (any, bool) {
	if f == nil {
		return nil, false
	}
	v, ok := f.values[k]
	return v, ok
}

// Text returns the value under k when it is a string.
func (f *Flat) Text(k string) string {
	v, _ := f.Get(k)
	s, _ := v.(string)
	return s
}

func (f *Flat) Has(k string) bool {
	_, ok := f.Get(k)
	return ok
}

func (f *Flat) Delete(k string) {
	if f == nil {
		return
	}
	if _, ok := f.values[k]; !ok {
		return
	}
	delete(f.values, k)
	for i, key := range f.keys {
		if key == k {
			f.keys = append(f.keys[:i:i], f.keys[i+1:]...)
			break
		}
	}
}

func (f *Flat) Len() int {
	if f == nil {
		return 0
	}
	return len(f.keys)
}

// Keys returns a copy of the keys in order.
func (f *Flat) Keys() []string {
	if f == nil {
		return nil
	}
	out := make([]string, len(f.keys))
	copy(out, f.keys)
	return out
}

// Range calls fn for each entry in order until fn returns false.
func (f *Flat) Range(fn func(k string, v any) bool) {
	if f == nil {
		return
	}
	for _, k := range f.keys {
		if !fn(k, f.values[k]) {
			return
		}
	}
}

// Clone returns a shallow copy.
func (f *Flat) Clone() *Flat {
	out := NewFlat()
	f.Range(func(k string, v any) bool {
		out.Set(k, v)
		return true
	})
	return out
}

// Map returns the entries as a plain map, for callers that do not care about order.
func (f *Flat) Map() map[string]any {
	out := make(map[string]any, f.Len())
	f.Range(func(k string, v any) bool {
		out[k] = v
		return true
	})
	return out
}

func (f *Flat) MarshalJSON() ([]byte, error) {
	if f == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range f.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(f.values[k])
		if err != nil {
			return nil, fmt.Errorf("marshal answer %q: %w", k, err)
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (f *Flat) UnmarshalJSON(data []byte) error {
	*f = Flat{values: make(map[string]any)}
	return decodeObject(data, func(k string, raw json.RawMessage) error {
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return fmt.Errorf("answer %q: %w", k, err)
		}
		f.Set(k, v)
		return nil
	})
}

// decodeObject walks a JSON object in document order.
func decodeObject(data []byte, fn func(k string, raw json.RawMessage) error) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("expected JSON object, got %v", tok)
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("expected object key, got %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		if err := fn(key, raw); err != nil {
			return err
		}
	}
	_, err = dec.Token()
	return err
}

func isObject(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '{'
}

// Package jsonout builds insertion-ordered JSON objects and writes whole
// documents to disk in one step.
package jsonout

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/rotisserie/eris"
)

// Object is a JSON object whose keys serialize in first-insertion order.
// Setting an existing key replaces its value but keeps its position.
type Object struct {
	keys []string
	vals map[string]any
}

// NewObject returns an empty Object with room for n keys.
func NewObject(n int) *Object {
	return &Object{
		keys: make([]string, 0, n),
		vals: make(map[string]any, n),
	}
}

// Set stores v under key. It reports whether key was already present.
func (o *Object) Set(key string, v any) (replaced bool) {
	if _, ok := o.vals[key]; ok {
		o.vals[key] = v
		return true
	}
	o.keys = append(o.keys, key)
	o.vals[key] = v
	return false
}

// Get returns the value stored under key.
func (o *Object) Get(key string) (any, bool) {
	v, ok := o.vals[key]
	return v, ok
}

// Len returns the number of keys.
func (o *Object) Len() int { return len(o.keys) }

// Keys returns the keys in serialization order.
func (o *Object) Keys() []string {
	out := make([]string, len(o.keys))
	copy(out, o.keys)
	return out
}

// MarshalJSON implements json.Marshaler.
func (o *Object) MarshalJSON() ([]byte, error) {
	if o == nil {
		return []byte("{}"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, eris.Wrapf(err, "marshal key %q", k)
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(o.vals[k])
		if err != nil {
			return nil, eris.Wrapf(err, "marshal value for key %q", k)
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Ordinal re-keys items by their position: "0", "1", ... An empty or nil
// slice yields an empty object, never null.
func Ordinal[T any](items []T) *Object {
	o := NewObject(len(items))
	for i, item := range items {
		o.Set(strconv.Itoa(i), item)
	}
	return o
}

// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package composer

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// OrderedObject is a JSON object that remembers the order of its keys.
// Composer files are rewritten through it so untouched fields and the
// order of autoload mappings survive a round trip.
type OrderedObject struct {
	keys   []string
	values map[string]json.RawMessage
}

// NewOrderedObject returns an empty object.
func NewOrderedObject() *OrderedObject {
	return &OrderedObject{values: make(map[string]json.RawMessage)}
}

// Keys returns the keys in document order.
func (o *OrderedObject) Keys() []string {
	result := make([]string, len(o.keys))
	copy(result, o.keys)
	return result
}

// Len returns the number of keys.
func (o *OrderedObject) Len() int { return len(o.keys) }

// Has reports whether key is present.
func (o *OrderedObject) Has(key string) bool {
	_, ok := o.values[key]
	return ok
}

// Raw returns the undecoded value of key.
func (o *OrderedObject) Raw(key string) (json.RawMessage, bool) {
	v, ok := o.values[key]
	return v, ok
}

// Get decodes the value of key into dst. It returns false when the key is
// absent.
func (o *OrderedObject) Get(key string, dst any) (bool, error) {
	raw, ok := o.values[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return true, fmt.Errorf("decoding %q: %w", key, err)
	}
	return true, nil
}

// Object decodes the value of key as a nested ordered object.
func (o *OrderedObject) Object(key string) (*OrderedObject, error) {
	raw, ok := o.values[key]
	if !ok {
		return nil, nil
	}
	child := NewOrderedObject()
	if err := json.Unmarshal(raw, child); err != nil {
		return nil, fmt.Errorf("decoding %q: %w", key, err)
	}
	return child, nil
}

// Set encodes value under key. An existing key keeps its position; a new
// key is appended.
func (o *OrderedObject) Set(key string, value any) error {
	raw, err := marshalNoEscape(value)
	if err != nil {
		return fmt.Errorf("encoding %q: %w", key, err)
	}
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = raw
	return nil
}

// RenameKey replaces oldKey with newKey at the same position. It returns
// false when oldKey is absent or newKey already exists.
func (o *OrderedObject) RenameKey(oldKey, newKey string) bool {
	if oldKey == newKey {
		return o.Has(oldKey)
	}
	raw, ok := o.values[oldKey]
	if !ok || o.Has(newKey) {
		return false
	}
	for i, k := range o.keys {
		if k == oldKey {
			o.keys[i] = newKey
			break
		}
	}
	delete(o.values, oldKey)
	o.values[newKey] = raw
	return true
}

// UnmarshalJSON reads an object, keeping key order.
func (o *OrderedObject) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("expected JSON object, got %v", tok)
	}

	o.keys = nil
	o.values = make(map[string]json.RawMessage)
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
			return fmt.Errorf("decoding %q: %w", key, err)
		}
		if _, dup := o.values[key]; !dup {
			o.keys = append(o.keys, key)
		}
		o.values[key] = raw
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

// MarshalJSON writes the object with keys in their original order.
func (o *OrderedObject) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := marshalNoEscape(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(o.values[k])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// marshalNoEscape encodes v without HTML escaping, the way Composer writes
// its files.
func marshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Pretty renders v with four-space indentation and a trailing newline, the
// layout Composer uses for installed.json.
func Pretty(v any) ([]byte, error) {
	compact, err := marshalNoEscape(v)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, compact, "", "    "); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

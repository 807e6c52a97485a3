package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Auxiliary metadata keys stored next to snapshot entries. They are never
// produced by SnapshotKey, so they cannot collide with a recorded value.
const (
	MetaCSSClassName = "cssClassName"
	MetaDecorator    = "decorator"
)

// DefaultOmittedFields are the metadata keys the codecs leave out of
// baseline files unless configured otherwise.
var DefaultOmittedFields = []string{MetaCSSClassName, MetaDecorator}

// OnMissing policies for a compare that finds no baseline.
const (
	OnMissingFail   = "fail"
	OnMissingRecord = "record"
)

// IsMetaKey reports whether key holds auxiliary metadata rather than a
// snapshot.
func IsMetaKey(key string) bool {
	return key == MetaCSSClassName || key == MetaDecorator
}

// Content is the insertion-ordered key → serialized value mapping of one
// baseline group.
type Content struct {
	keys   []string
	values map[string]string
}

// NewContent returns an empty Content.
func NewContent() *Content {
	return &Content{values: make(map[string]string)}
}

// Get returns the value stored under key.
func (c *Content) Get(key string) (string, bool) {
	if c == nil {
		return "", false
	}
	v, ok := c.values[key]
	return v, ok
}

// Set stores value under key. New keys are appended to the order. The
// zero Content is ready to use.
func (c *Content) Set(key, value string) {
	if c.values == nil {
		c.values = make(map[string]string)
	}
	if _, ok := c.values[key]; !ok {
		c.keys = append(c.keys, key)
	}
	c.values[key] = value
}

// Keys returns the keys in insertion order.
func (c *Content) Keys() []string {
	if c == nil {
		return nil
	}
	out := make([]string, len(c.keys))
	copy(out, c.keys)
	return out
}

// Len returns the number of entries.
func (c *Content) Len() int {
	if c == nil {
		return 0
	}
	return len(c.keys)
}

// Clone returns a deep copy.
func (c *Content) Clone() *Content {
	out := NewContent()
	for _, k := range c.Keys() {
		out.Set(k, c.values[k])
	}
	return out
}

// Equal reports whether both contents hold the same entries in the same order.
func (c *Content) Equal(o *Content) bool {
	if c.Len() != o.Len() {
		return false
	}
	for i, k := range c.Keys() {
		if o.keys[i] != k || o.values[k] != c.values[k] {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the content as a JSON object preserving key order.
func (c *Content) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range c.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeJSONString(&buf, k); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		if err := writeJSONString(&buf, c.values[k]); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// writeJSONString encodes s without HTML escaping so markup stays readable
// in baseline files.
func writeJSONString(buf *bytes.Buffer, s string) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	// Encode always terminates with a newline.
	buf.Truncate(buf.Len() - 1)
	return nil
}

// UnmarshalJSON decodes a JSON object of string values, keeping the order in
// which keys appear in the document.
func (c *Content) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("content: expected object, got %v", tok)
	}

	out := NewContent()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("content: expected string key, got %v", tok)
		}
		var value string
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("content: value of %q: %w", key, err)
		}
		out.Set(key, value)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*c = *out
	return nil
}

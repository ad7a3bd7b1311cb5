// Package catalog implements reading and writing of JSON translation
// catalogs, one file per language.
//
// A catalog is a JSON object whose leaves are translated strings. Keys may
// be flat or nested; both are addressed with dot-joined keys:
//
//	{
//	    "greeting": "Hello",
//	    "nav": {
//	        "home": "Home"
//	    },
//	    "nav.about": "About"
//	}
//
// Here "greeting", "nav.home" and "nav.about" are all keys of the catalog.
// A literal top-level key always wins over a nested path of the same name.
// Key order is preserved on round-trip; non-string leaves are kept as-is.
package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Separator joins the segments of a nested key.
const Separator = "."

// ErrParse reports a catalog file that is not a JSON object.
var ErrParse = errors.New("invalid catalog")

type kind int

const (
	kindString kind = iota
	kindObject
	kindRaw // numbers, booleans, arrays, null: passed through unchanged
)

type node struct {
	kind kind
	str  string
	obj  *object
	raw  json.RawMessage
}

// object preserves insertion order of a JSON object.
type object struct {
	keys   []string
	values map[string]*node
}

func newObject() *object {
	return &object{values: make(map[string]*node)}
}

func (o *object) get(k string) (*node, bool) {
	n, ok := o.values[k]
	return n, ok
}

func (o *object) set(k string, n *node) {
	if _, ok := o.values[k]; !ok {
		o.keys = append(o.keys, k)
	}
	o.values[k] = n
}

func (o *object) remove(k string) {
	if _, ok := o.values[k]; !ok {
		return
	}
	delete(o.values, k)
	for i, key := range o.keys {
		if key == k {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)
			break
		}
	}
}

// Catalog is a parsed translation catalog.
type Catalog struct {
	// Nested controls where new dotted keys are created: as nested objects
	// when true, as literal flat keys otherwise. Existing keys are always
	// updated in place.
	Nested bool

	root *object
}

// New returns an empty catalog.
func New() *Catalog {
	return &Catalog{root: newObject()}
}

// Load reads a catalog file. A missing or empty file yields an empty catalog.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return New(), nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Parse parses catalog JSON data.
func Parse(data []byte) (*Catalog, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return New(), nil
	}
	root, err := parseObject(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return &Catalog{root: root}, nil
}

func parseObject(data []byte) (*object, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	t, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := t.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected {, got %v", t)
	}

	o := newObject()
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := kt.(string)
		if !ok {
			return nil, fmt.Errorf("expected string key, got %T", kt)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("value for key %q: %w", key, err)
		}
		n, err := parseValue(raw)
		if err != nil {
			return nil, fmt.Errorf("value for key %q: %w", key, err)
		}
		o.set(key, n)
	}

	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return o, nil
}

func parseValue(raw json.RawMessage) (*node, error) {
	trimmed := bytes.TrimSpace(raw)
	switch {
	case len(trimmed) > 0 && trimmed[0] == '{':
		obj, err := parseObject(trimmed)
		if err != nil {
			return nil, err
		}
		return &node{kind: kindObject, obj: obj}, nil
	case len(trimmed) > 0 && trimmed[0] == '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return nil, err
		}
		return &node{kind: kindString, str: s}, nil
	default:
		var compact bytes.Buffer
		if err := json.Compact(&compact, trimmed); err != nil {
			return nil, err
		}
		return &node{kind: kindRaw, raw: json.RawMessage(compact.Bytes())}, nil
	}
}

// lookup finds the string leaf for key, checking a literal top-level key
// before the nested path.
func (c *Catalog) lookup(key string) (*node, bool) {
	if n, ok := c.root.get(key); ok && n.kind == kindString {
		return n, true
	}
	parts := strings.Split(key, Separator)
	if len(parts) < 2 {
		return nil, false
	}
	cur := c.root
	for i, part := range parts {
		n, ok := cur.get(part)
		if !ok {
			return nil, false
		}
		if i == len(parts)-1 {
			return n, n.kind == kindString
		}
		if n.kind != kindObject {
			return nil, false
		}
		cur = n.obj
	}
	return nil, false
}

// Has reports whether key exists as a string leaf.
func (c *Catalog) Has(key string) bool {
	_, ok := c.lookup(key)
	return ok
}

// Get returns the value stored for key.
func (c *Catalog) Get(key string) (string, bool) {
	n, ok := c.lookup(key)
	if !ok {
		return "", false
	}
	return n.str, true
}

// Set stores value under key, updating an existing leaf in place.
func (c *Catalog) Set(key, value string) {
	if n, ok := c.lookup(key); ok {
		n.str = value
		return
	}
	leaf := &node{kind: kindString, str: value}
	if !c.Nested || !strings.Contains(key, Separator) {
		c.root.set(key, leaf)
		return
	}

	parts := strings.Split(key, Separator)
	cur := c.root
	for _, part := range parts[:len(parts)-1] {
		n, ok := cur.get(part)
		if !ok {
			n = &node{kind: kindObject, obj: newObject()}
			cur.set(part, n)
		}
		if n.kind != kindObject {
			// A string already sits on the path; keep the key flat.
			c.root.set(key, leaf)
			return
		}
		cur = n.obj
	}
	cur.set(parts[len(parts)-1], leaf)
}

// Delete removes key and prunes objects left empty. It reports whether
// the key existed.
func (c *Catalog) Delete(key string) bool {
	if n, ok := c.root.get(key); ok && n.kind == kindString {
		c.root.remove(key)
		prune(c.root)
		return true
	}
	parts := strings.Split(key, Separator)
	if len(parts) < 2 {
		return false
	}
	cur := c.root
	for _, part := range parts[:len(parts)-1] {
		n, ok := cur.get(part)
		if !ok || n.kind != kindObject {
			return false
		}
		cur = n.obj
	}
	last := parts[len(parts)-1]
	if n, ok := cur.get(last); !ok || n.kind != kindString {
		return false
	}
	cur.remove(last)
	prune(c.root)
	return true
}

// prune removes empty objects recursively.
func prune(o *object) {
	for _, k := range append([]string(nil), o.keys...) {
		n := o.values[k]
		if n.kind != kindObject {
			continue
		}
		prune(n.obj)
		if len(n.obj.keys) == 0 {
			o.remove(k)
		}
	}
}

// Keys returns all string keys, dot-joined, in document order.
func (c *Catalog) Keys() []string {
	var keys []string
	walk(c.root, "", func(key string, _ *node) {
		keys = append(keys, key)
	})
	return keys
}

// Flatten returns the flattened key→value view of the catalog.
func (c *Catalog) Flatten() map[string]string {
	out := make(map[string]string)
	walk(c.root, "", func(key string, n *node) {
		out[key] = n.str
	})
	return out
}

// Len returns the number of string keys.
func (c *Catalog) Len() int {
	return len(c.Keys())
}

func walk(o *object, prefix string, fn func(string, *node)) {
	for _, k := range o.keys {
		n := o.values[k]
		full := k
		if prefix != "" {
			full = prefix + Separator + k
		}
		switch n.kind {
		case kindString:
			fn(full, n)
		case kindObject:
			walk(n.obj, full, fn)
		}
	}
}

// WriteFile writes the catalog to path, creating parent directories.
func (c *Catalog) WriteFile(path string) error {
	data, err := c.Marshal()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// Marshal produces pretty-printed JSON with 4-space indentation,
// preserving key order.
func (c *Catalog) Marshal() ([]byte, error) {
	var b bytes.Buffer
	if err := writeObject(&b, c.root, 0); err != nil {
		return nil, err
	}
	b.WriteByte('\n')
	return b.Bytes(), nil
}

func writeObject(b *bytes.Buffer, o *object, depth int) error {
	if len(o.keys) == 0 {
		b.WriteString("{}")
		return nil
	}
	indent := strings.Repeat("    ", depth+1)
	b.WriteString("{\n")
	for i, k := range o.keys {
		key, err := jsonString(k)
		if err != nil {
			return err
		}
		b.WriteString(indent)
		b.WriteString(key)
		b.WriteString(": ")

		n := o.values[k]
		switch n.kind {
		case kindString:
			v, err := jsonString(n.str)
			if err != nil {
				return err
			}
			b.WriteString(v)
		case kindObject:
			if err := writeObject(b, n.obj, depth+1); err != nil {
				return err
			}
		case kindRaw:
			b.Write(n.raw)
		}
		if i < len(o.keys)-1 {
			b.WriteByte(',')
		}
		b.WriteByte('\n')
	}
	b.WriteString(strings.Repeat("    ", depth))
	b.WriteByte('}')
	return nil
}

// jsonString returns a JSON-encoded string without HTML escaping.
func jsonString(s string) (string, error) {
	var b bytes.Buffer
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return "", err
	}
	return strings.TrimSuffix(b.String(), "\n"), nil
}

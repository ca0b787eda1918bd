// Package jsontree implements the loosely typed hierarchical tree that
// requests travel through between decoding, validation and serialization.
// A node is an object, an array or a string scalar, mirroring JSON's shape
// while keeping every leaf stringly typed the way query parameters arrive.
package jsontree

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// Kind tags the variant a Node holds.
type Kind int

const (
	// KindObject is an ordered key/value mapping.
	KindObject Kind = iota
	// KindArray is an ordered list of nodes.
	KindArray
	// KindScalar is a string leaf.
	KindScalar
)

// String returns a human readable kind name.
func (k Kind) String() string {
	switch k {
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	case KindScalar:
		return "scalar"
	default:
		return "unknown"
	}
}

// ErrNotFound is returned by typed accessors when a key is absent.
var ErrNotFound = errors.New("no such key")

// TypeMismatchError is returned when a value exists but has the wrong shape.
type TypeMismatchError struct {
	Path string // Key the caller asked for.
	Want string // Shape the caller required, e.g. "object" or "number".
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("value at %q is not a %s", e.Path, e.Want)
}

// Node is one vertex of the request tree. The zero value is not usable;
// construct nodes with NewObject, NewArray or NewScalar.
type Node struct {
	kind   Kind
	value  string
	keys   []string
	fields map[string]*Node
	items  []*Node
}

// NewObject returns an empty object node.
func NewObject() *Node {
	return &Node{kind: KindObject, fields: map[string]*Node{}}
}

// NewArray returns an empty array node.
func NewArray() *Node {
	return &Node{kind: KindArray}
}

// NewScalar returns a string leaf.
func NewScalar(value string) *Node {
	return &Node{kind: KindScalar, value: value}
}

// NewFloat returns a string leaf holding a formatted float.
func NewFloat(value float64) *Node {
	return NewScalar(strconv.FormatFloat(value, 'f', -1, 64))
}

// Parse decodes a JSON document into a tree. Numbers keep their original
// textual form, booleans and null become their JSON spelling.
func Parse(data []byte) (*Node, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	// Trailing garbage after the document is malformed input.
	if dec.More() {
		return nil, errors.New("unexpected trailing data after json document")
	}
	return fromAny(raw), nil
}

func fromAny(raw any) *Node {
	switch v := raw.(type) {
	case map[string]any:
		node := NewObject()
		// encoding/json maps lose key order; sort for deterministic trees.
		for _, key := range sortedKeys(v) {
			node.Set(key, fromAny(v[key]))
		}
		return node
	case []any:
		node := NewArray()
		for _, item := range v {
			node.Append(fromAny(item))
		}
		return node
	case json.Number:
		return NewScalar(v.String())
	case string:
		return NewScalar(v)
	case bool:
		return NewScalar(strconv.FormatBool(v))
	case nil:
		return NewScalar("null")
	default:
		return NewScalar(fmt.Sprint(v))
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j] < keys[j-1]; j-- {
			keys[j], keys[j-1] = keys[j-1], keys[j]
		}
	}
	return keys
}

// Kind reports which variant the node holds.
func (n *Node) Kind() Kind { return n.kind }

// Scalar returns the leaf value, false when the node is not a scalar.
func (n *Node) Scalar() (string, bool) {
	if n.kind != KindScalar {
		return "", false
	}
	return n.value, true
}

// Items returns the children of an array node, nil otherwise.
func (n *Node) Items() []*Node {
	if n.kind != KindArray {
		return nil
	}
	return n.items
}

// Keys returns an object's keys in insertion order, nil otherwise.
func (n *Node) Keys() []string {
	if n.kind != KindObject {
		return nil
	}
	return n.keys
}

// Child returns the named child of an object node.
func (n *Node) Child(key string) (*Node, bool) {
	if n.kind != KindObject {
		return nil, false
	}
	child, ok := n.fields[key]
	return child, ok
}

// Set adds or replaces a child on an object node.
func (n *Node) Set(key string, child *Node) {
	if n.kind != KindObject {
		return
	}
	if _, exists := n.fields[key]; !exists {
		n.keys = append(n.keys, key)
	}
	n.fields[key] = child
}

// SetScalar adds or replaces a string leaf on an object node.
func (n *Node) SetScalar(key, value string) {
	n.Set(key, NewScalar(value))
}

// Delete removes a child from an object node.
func (n *Node) Delete(key string) {
	if n.kind != KindObject {
		return
	}
	if _, exists := n.fields[key]; !exists {
		return
	}
	delete(n.fields, key)
	for i, k := range n.keys {
		if k == key {
			n.keys = append(n.keys[:i], n.keys[i+1:]...)
			break
		}
	}
}

// Append adds a child to an array node.
func (n *Node) Append(child *Node) {
	if n.kind != KindArray {
		return
	}
	n.items = append(n.items, child)
}

// String returns the scalar value stored under key.
func (n *Node) String(key string) (string, error) {
	child, ok := n.Child(key)
	if !ok {
		return "", fmt.Errorf("%q: %w", key, ErrNotFound)
	}
	value, ok := child.Scalar()
	if !ok {
		return "", &TypeMismatchError{Path: key, Want: "scalar"}
	}
	return value, nil
}

// Float returns the scalar value stored under key parsed as a float.
func (n *Node) Float(key string) (float64, error) {
	value, err := n.String(key)
	if err != nil {
		return 0, err
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, &TypeMismatchError{Path: key, Want: "number"}
	}
	return parsed, nil
}

// Array returns the children of the array stored under key.
func (n *Node) Array(key string) ([]*Node, error) {
	child, ok := n.Child(key)
	if !ok {
		return nil, fmt.Errorf("%q: %w", key, ErrNotFound)
	}
	if child.kind != KindArray {
		return nil, &TypeMismatchError{Path: key, Want: "array"}
	}
	return child.items, nil
}

// Object returns the object stored under key.
func (n *Node) Object(key string) (*Node, error) {
	child, ok := n.Child(key)
	if !ok {
		return nil, fmt.Errorf("%q: %w", key, ErrNotFound)
	}
	if child.kind != KindObject {
		return nil, &TypeMismatchError{Path: key, Want: "object"}
	}
	return child, nil
}

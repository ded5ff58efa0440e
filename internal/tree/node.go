// Package tree models TBTA annotation trees as insertion-ordered records
// with explicit value kinds, so callers discriminate structure without
// reflecting over arbitrary nested types.
package tree

import (
	"fmt"
	"strconv"
)

// Kind discriminates the three value forms an annotation tree can hold.
type Kind int

const (
	KindScalar Kind = iota
	KindList
	KindNode
)

// Value is a single slot in an annotation tree: a scalar leaf, a list of
// values, or a nested node. The zero value is a null scalar.
type Value struct {
	kind   Kind
	scalar any // string, bool, int64, float64, or nil
	list   []Value
	node   *Node
}

// String wraps a string scalar.
func String(s string) Value { return Value{scalar: s} }

// Bool wraps a boolean scalar.
func Bool(b bool) Value { return Value{scalar: b} }

// Int wraps an integer scalar.
func Int(i int64) Value { return Value{scalar: i} }

// Float wraps a floating-point scalar.
func Float(f float64) Value { return Value{scalar: f} }

// Null is the explicit null scalar.
func Null() Value { return Value{} }

// List wraps a sequence of values.
func List(vals ...Value) Value { return Value{kind: KindList, list: vals} }

// Nested wraps a child node.
func Nested(n *Node) Value { return Value{kind: KindNode, node: n} }

// Kind reports which form the value holds.
func (v Value) Kind() Kind { return v.kind }

// Node returns the nested node, or nil for non-node values.
func (v Value) Node() *Node {
	if v.kind != KindNode {
		return nil
	}
	return v.node
}

// List returns the list elements, or nil for non-list values.
func (v Value) List() []Value {
	if v.kind != KindList {
		return nil
	}
	return v.list
}

// IsNull reports whether the value is the null scalar.
func (v Value) IsNull() bool { return v.kind == KindScalar && v.scalar == nil }

// AsString returns the scalar as a string when it is one.
func (v Value) AsString() (string, bool) {
	s, ok := v.scalar.(string)
	return s, ok && v.kind == KindScalar
}

// AsBool returns the scalar as a bool when it is one.
func (v Value) AsBool() (bool, bool) {
	b, ok := v.scalar.(bool)
	return b, ok && v.kind == KindScalar
}

// AsFloat returns the scalar as a float when it is numeric.
func (v Value) AsFloat() (float64, bool) {
	if v.kind != KindScalar {
		return 0, false
	}
	switch n := v.scalar.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// Text renders a scalar for display and rule matching. Null renders empty;
// non-scalar values render empty.
func (v Value) Text() string {
	if v.kind != KindScalar || v.scalar == nil {
		return ""
	}
	switch s := v.scalar.(type) {
	case string:
		return s
	case bool:
		return strconv.FormatBool(s)
	case int64:
		return strconv.FormatInt(s, 10)
	case float64:
		return strconv.FormatFloat(s, 'g', -1, 64)
	default:
		return fmt.Sprintf("%v", s)
	}
}

// Node is an insertion-ordered key/value record. Overwriting a key keeps
// its original position. The zero value is an empty node ready for use.
type Node struct {
	keys []string
	vals map[string]Value
}

// NewNode returns an empty node.
func NewNode() *Node { return &Node{} }

// Len returns the number of keys.
func (n *Node) Len() int { return len(n.keys) }

// Keys returns the keys in insertion order. The slice is a copy.
func (n *Node) Keys() []string {
	out := make([]string, len(n.keys))
	copy(out, n.keys)
	return out
}

// Get looks up a key.
func (n *Node) Get(key string) (Value, bool) {
	v, ok := n.vals[key]
	return v, ok
}

// Has reports whether a key is present.
func (n *Node) Has(key string) bool {
	_, ok := n.vals[key]
	return ok
}

// Set stores a value, appending the key on first insertion.
func (n *Node) Set(key string, v Value) {
	if n.vals == nil {
		n.vals = make(map[string]Value)
	}
	if _, ok := n.vals[key]; !ok {
		n.keys = append(n.keys, key)
	}
	n.vals[key] = v
}

// Text returns the scalar rendering of the value under key, or empty when
// the key is absent or not a scalar.
func (n *Node) Text(key string) string {
	v, ok := n.Get(key)
	if !ok {
		return ""
	}
	return v.Text()
}

// Bool reports whether key holds the boolean true.
func (n *Node) Bool(key string) bool {
	v, ok := n.Get(key)
	if !ok {
		return false
	}
	b, ok := v.AsBool()
	return ok && b
}

// Float returns the numeric value under key.
func (n *Node) Float(key string) (float64, bool) {
	v, ok := n.Get(key)
	if !ok {
		return 0, false
	}
	return v.AsFloat()
}

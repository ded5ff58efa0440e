// Package review scores machine-generated TBTA annotation fields, decides
// which ones need a human reviewer, explains why, and decorates annotation
// trees with the resulting metadata.
package review

import "fmt"

// Context carries the situational signals that scoring and classification
// read: verse reference, dialogue and discourse flags, corpus signals, and
// free-text notes. A missing key behaves as absent, and a value of the
// wrong type under a known key is treated the same way.
type Context map[string]any

// Bool reports whether key holds the boolean true.
func (c Context) Bool(key string) bool {
	b, ok := c[key].(bool)
	return ok && b
}

// String returns the string under key, or empty when absent.
func (c Context) String(key string) string {
	s, _ := c[key].(string)
	return s
}

// Text renders the value under key for note interpolation, using fallback
// when the key is absent.
func (c Context) Text(key, fallback string) string {
	v, ok := c[key]
	if !ok || v == nil {
		return fallback
	}
	return fmt.Sprintf("%v", v)
}

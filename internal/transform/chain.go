package transform

import (
	"encoding/json"
	"strings"
)

// Chain is an ordered sequence of descriptors applied left to right.
type Chain struct {
	descriptors []Descriptor
}

// NewChain builds a chain from ds, preserving order.
func NewChain(ds ...Descriptor) Chain {
	return Chain{descriptors: append([]Descriptor(nil), ds...)}
}

// Add appends d.
func (c *Chain) Add(d Descriptor) {
	c.descriptors = append(c.descriptors, d)
}

// Descriptors returns a copy of the descriptors in order.
func (c Chain) Descriptors() []Descriptor {
	return append([]Descriptor(nil), c.descriptors...)
}

// Len returns the number of descriptors.
func (c Chain) Len() int { return len(c.descriptors) }

// IsEmpty reports whether the chain holds no descriptors.
func (c Chain) IsEmpty() bool { return len(c.descriptors) == 0 }

// String joins the canonical descriptor strings with ",".
func (c Chain) String() string {
	parts := make([]string, 0, len(c.descriptors))
	for _, d := range c.descriptors {
		parts = append(parts, d.String())
	}

	return strings.Join(parts, ",")
}

// PathSuffix is String with "/" escaped back to "%", so path-like argument
// values cannot split the derived file name.
func (c Chain) PathSuffix() string {
	return EscapeValue(c.String())
}

// MarshalJSON encodes the chain as its descriptor list.
func (c Chain) MarshalJSON() ([]byte, error) {
	if c.descriptors == nil {
		return []byte("[]"), nil
	}

	return json.Marshal(c.descriptors)
}

// UnmarshalJSON decodes a descriptor list.
func (c *Chain) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &c.descriptors)
}

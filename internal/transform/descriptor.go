package transform

import (
	"sort"
	"strings"
)

// Descriptor is a template bound to concrete argument values.
type Descriptor struct {
	Template Template          `json:"template"`
	Args     map[string]string `json:"args"`
}

// NewDescriptor binds no arguments yet.
func NewDescriptor(t Template) Descriptor {
	return Descriptor{Template: t, Args: map[string]string{}}
}

// Name returns the transformation kind.
func (d Descriptor) Name() Name { return d.Template.Name }

// Arg returns the bound value for key.
func (d Descriptor) Arg(key string) (string, bool) {
	v, ok := d.Args[key]
	return v, ok
}

// SetArg binds key to value.
func (d *Descriptor) SetArg(key, value string) {
	if d.Args == nil {
		d.Args = map[string]string{}
	}
	d.Args[key] = value
}

// String renders the canonical form "code,key-value,...". Bound arguments are
// emitted with their keys sorted, so equal descriptors always produce the
// same string.
func (d Descriptor) String() string {
	keys := make([]string, 0, len(d.Args))
	for key := range d.Args {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(string(d.Template.Name))

	for _, key := range keys {
		value := d.Args[key]

		b.WriteByte(',')
		b.WriteString(key)
		b.WriteByte('-')
		b.WriteString(value)
	}

	return b.String()
}

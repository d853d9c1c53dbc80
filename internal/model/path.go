package model

import (
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
)

// derivedNamespace seeds the name-based UUIDs used for derived media, so the
// same original always maps onto the same derived leaf name.
var derivedNamespace = uuid.MustParse("8f0c1a44-3b7e-5d2a-9c61-7a5e2d9b4f10")

// Path is an absolute, slash-separated media identifier.
// The zero value is an empty path and is not valid for storage.
type Path struct {
	value string
}

// ParsePath validates s and returns it as a Path.
func ParsePath(s string) (Path, error) {
	if !strings.HasPrefix(s, "/") {
		return Path{}, fmt.Errorf("parse path %q: must start with '/': %w", s, ErrInvalidArgument)
	}

	for _, segment := range strings.Split(s, "/")[1:] {
		if segment == ".." || segment == "." {
			return Path{}, fmt.Errorf("parse path %q: relative segment: %w", s, ErrInvalidArgument)
		}
	}

	cleaned := path.Clean(s)
	if cleaned == "/" || strings.HasSuffix(s, "/") {
		return Path{}, fmt.Errorf("parse path %q: missing file name: %w", s, ErrInvalidArgument)
	}

	return Path{value: cleaned}, nil
}

// MustParsePath is like ParsePath but panics on error. Meant for tests and constants.
func MustParsePath(s string) Path {
	p, err := ParsePath(s)
	if err != nil {
		panic(err)
	}

	return p
}

// GeneratePath mints a UUID-named leaf in the folder of original, keeping its extension.
// Client-chosen file names never become storage identities.
func GeneratePath(original string) (Path, error) {
	p, err := ParsePath(original)
	if err != nil {
		return Path{}, err
	}

	return p.Regenerate(uuid.New()), nil
}

// DerivedPath returns the cache location of original transformed by the chain
// whose path suffix is given. The result depends only on its inputs.
func DerivedPath(original Path, suffix string) Path {
	id := uuid.NewSHA1(derivedNamespace, []byte(original.value))
	p := original.Regenerate(id)
	if suffix == "" {
		return p
	}

	return p.DeriveWithSuffix(suffix)
}

// String returns the path as stored.
func (p Path) String() string { return p.value }

// Key returns the path without its leading slash, the form object stores expect.
func (p Path) Key() string { return strings.TrimPrefix(p.value, "/") }

// IsZero reports whether p is the empty path.
func (p Path) IsZero() bool { return p.value == "" }

// Folder returns the directory part, "/" for top-level files.
func (p Path) Folder() string { return path.Dir(p.value) }

// Basename returns the file name without its extension.
func (p Path) Basename() string {
	base := path.Base(p.value)
	return strings.TrimSuffix(base, path.Ext(base))
}

// Extension returns the extension without the leading dot.
func (p Path) Extension() string {
	return strings.TrimPrefix(path.Ext(path.Base(p.value)), ".")
}

// WithExtension returns a copy of p with its extension replaced by ext.
func (p Path) WithExtension(ext string) Path {
	return p.withName(p.Basename(), strings.TrimPrefix(ext, "."))
}

// DeriveWithSuffix inserts "-suffix" between the base name and the extension.
func (p Path) DeriveWithSuffix(suffix string) Path {
	return p.withName(p.Basename()+"-"+suffix, p.Extension())
}

// Regenerate replaces the base name with id, keeping folder and extension.
func (p Path) Regenerate(id uuid.UUID) Path {
	return p.withName(id.String(), p.Extension())
}

func (p Path) withName(name, ext string) Path {
	leaf := name
	if ext != "" {
		leaf += "." + ext
	}

	return Path{value: path.Join(p.Folder(), leaf)}
}

// MarshalJSON encodes the path as a plain JSON string.
func (p Path) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.value)
}

// UnmarshalJSON decodes a JSON string without re-validating it, so records
// written by older versions always load.
func (p *Path) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("unmarshal path: %w", err)
	}

	p.value = s

	return nil
}

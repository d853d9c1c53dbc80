package model

import (
	"fmt"
	"strings"
)

// reservedNameChars are separators of the path grammar. A name holding one
// of them could never be referenced as a single "t_" token.
const reservedNameChars = "/:,% \t\n"

// ApiKey grants access to the API. Name identifies the key for management,
// Key is the bearer token clients present.
type ApiKey struct {
	Name string `json:"name"`
	Key  string `json:"key"`
}

// NamedTransformation is a persisted alias for a reusable chain. Transformations
// holds the chain in path grammar, e.g. "c_scale:w_100,h_100/c_grayscale".
type NamedTransformation struct {
	Name            string `json:"name"`
	Transformations string `json:"transformations"`
}

// ValidateName reports whether nt.Name can be referenced as "t_<name>".
func (nt NamedTransformation) ValidateName() error {
	if nt.Name == "" {
		return fmt.Errorf("name is required: %w", ErrInvalidArgument)
	}

	if strings.ContainsAny(nt.Name, reservedNameChars) {
		return fmt.Errorf("name %q must not contain any of \"/:,%%\" or whitespace: %w", nt.Name, ErrInvalidArgument)
	}

	return nil
}

package transform

import (
	"context"
	"fmt"
	"strings"

	"github.com/aliskhannn/media-service/internal/model"
)

// namedStore resolves named transformation aliases.
type namedStore interface {
	Get(ctx context.Context, name string) (model.NamedTransformation, error)
}

// Extractor resolves chain strings into descriptor chains using the template
// registry and the named transformation store.
type Extractor struct {
	registry *Registry
	named    namedStore
}

// NewExtractor creates a new Extractor.
func NewExtractor(registry *Registry, named namedStore) *Extractor {
	return &Extractor{registry: registry, named: named}
}

// Registry returns the registry inline codes are resolved against.
func (e *Extractor) Registry() *Registry { return e.registry }

// Extract resolves one chain string. Named references expand in place into
// the descriptors of the stored alias.
func (e *Extractor) Extract(ctx context.Context, s string) (Chain, error) {
	var chain Chain

	for _, token := range splitTokens(s) {
		if name, ok := strings.CutPrefix(token, namedPrefix); ok {
			named, err := e.named.Get(ctx, name)
			if err != nil {
				return Chain{}, fmt.Errorf("extract %q: failed to get named transformation: %w", token, err)
			}

			expanded, err := e.registry.ParseChain(named.Transformations)
			if err != nil {
				return Chain{}, fmt.Errorf("extract %q: %w", token, err)
			}

			for _, d := range expanded.Descriptors() {
				chain.Add(d)
			}

			continue
		}

		d, err := e.registry.ParseDescriptor(token)
		if err != nil {
			return Chain{}, err
		}

		chain.Add(d)
	}

	return chain, nil
}

// ExtractAll resolves every chain string, failing on the first bad one.
func (e *Extractor) ExtractAll(ctx context.Context, ss []string) ([]Chain, error) {
	chains := make([]Chain, 0, len(ss))

	for _, s := range ss {
		chain, err := e.Extract(ctx, s)
		if err != nil {
			return nil, err
		}

		chains = append(chains, chain)
	}

	return chains, nil
}

// ParseChain resolves a chain string made only of inline "c_" tokens.
// Named references are rejected, which keeps aliases from referring to
// each other.
func (r *Registry) ParseChain(s string) (Chain, error) {
	var chain Chain

	for _, token := range splitTokens(s) {
		if strings.HasPrefix(token, namedPrefix) {
			return Chain{}, fmt.Errorf("parse chain: nested named transformation %q: %w", token, model.ErrInvalidArgument)
		}

		d, err := r.ParseDescriptor(token)
		if err != nil {
			return Chain{}, err
		}

		chain.Add(d)
	}

	return chain, nil
}

// ParseDescriptor parses one inline token of the form
// "c_code[:key_value,key_value,...]".
func (r *Registry) ParseDescriptor(token string) (Descriptor, error) {
	code, rawArgs, hasArgs := strings.Cut(token, ":")

	t, ok := r.Find(code)
	if !ok {
		return Descriptor{}, fmt.Errorf("parse %q: %w", code, model.ErrUnknownTransformation)
	}

	d := NewDescriptor(t)
	if !hasArgs || rawArgs == "" {
		return d, nil
	}

	for _, pair := range strings.Split(rawArgs, ",") {
		if pair == "" {
			continue
		}

		key, value, found := strings.Cut(pair, "_")
		if !found || key == "" {
			return Descriptor{}, fmt.Errorf("parse %q: malformed argument %q: %w", code, pair, model.ErrInvalidArgument)
		}

		if _, declared := t.Args[key]; !declared {
			return Descriptor{}, fmt.Errorf("parse %q: unknown argument %q: %w", code, key, model.ErrInvalidArgument)
		}

		d.SetArg(key, UnescapeValue(value))
	}

	return d, nil
}

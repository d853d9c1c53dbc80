package transform

import "sort"

// Registry is the read-only catalog of transformation templates keyed by code.
// It is built once by NewRegistry and never mutated afterwards.
type Registry struct {
	templates map[Name]Template
}

// NewRegistry returns the catalog of every supported transformation.
func NewRegistry() *Registry {
	templates := []Template{
		NewTemplate(Scale, "Scale the image to the given width and height").
			WithArg("w", "The width to scale the image to").
			WithArg("h", "The height to scale the image to").
			WithArg("s", "Crop strategy: forced_crop (default) or pad"),
		NewTemplate(Watermark, "Overlay an image stored at the given path").
			WithArg("f", "The path to the watermark").
			WithArg("p", "The padding to add to the watermark").
			WithArg("a", "The anchor to apply to the watermark in regard to the image").
			WithArg("w", "The width to scale the watermark to").
			WithArg("h", "The height to scale the watermark to"),
		NewTemplate(Colorize, "Colorize a black and white image with an external model").
			WithArg("m", "Model name, Artistic (default) or Stable").
			WithArg("r", "Render factor (default from configuration)"),
		NewTemplate(Grayscale, "Convert the image to grayscale"),
	}

	r := &Registry{templates: make(map[Name]Template, len(templates))}
	for _, t := range templates {
		r.templates[t.Name] = t
	}

	return r
}

// Find returns the template registered under code.
func (r *Registry) Find(code string) (Template, bool) {
	t, ok := r.templates[Name(code)]
	return t, ok
}

// All returns every template ordered by code.
func (r *Registry) All() []Template {
	out := make([]Template, 0, len(r.templates))
	for _, t := range r.templates {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	return out
}

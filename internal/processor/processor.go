package processor

import (
	"fmt"
	"strconv"

	"github.com/aliskhannn/media-service/internal/model"
	"github.com/aliskhannn/media-service/internal/transform"
)

// Builder turns a descriptor into an executable step. Arguments are
// validated here, before anything runs.
type Builder func(d transform.Descriptor) (Step, error)

// Factory maps transformation kinds to step builders.
type Factory struct {
	builders map[transform.Name]Builder
	codec    Codec
}

// NewFactory creates a Factory with builders for every built-in
// transformation. files serves watermark overlays, colorize serves the
// colorize step and codec encodes every produced image.
func NewFactory(files blobDownloader, colorize colorizeService, codec Codec) *Factory {
	f := &Factory{builders: make(map[transform.Name]Builder), codec: codec}

	f.Register(transform.Scale, func(d transform.Descriptor) (Step, error) {
		width, err := requiredInt(d, "w")
		if err != nil {
			return nil, err
		}

		height, err := requiredInt(d, "h")
		if err != nil {
			return nil, err
		}

		strategy, err := ParseCropStrategy(optional(d, "s"))
		if err != nil {
			return nil, err
		}

		return NewScaler(width, height, strategy, codec), nil
	})

	f.Register(transform.Watermark, func(d transform.Descriptor) (Step, error) {
		raw, ok := d.Arg("f")
		if !ok || raw == "" {
			return nil, missingArg(d, "f")
		}

		overlay, err := model.ParsePath(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: argument f: %w", d.Name(), err)
		}

		anchorName, ok := d.Arg("a")
		if !ok {
			return nil, missingArg(d, "a")
		}

		anchor, err := ParseAnchor(anchorName)
		if err != nil {
			return nil, err
		}

		padding, err := nonNegativeInt(d, "p")
		if err != nil {
			return nil, err
		}

		width, err := optionalInt(d, "w")
		if err != nil {
			return nil, err
		}

		height, err := optionalInt(d, "h")
		if err != nil {
			return nil, err
		}

		return NewWatermarker(files, overlay, anchor, padding, width, height, codec), nil
	})

	f.Register(transform.Colorize, func(d transform.Descriptor) (Step, error) {
		renderFactor, err := optionalInt(d, "r")
		if err != nil {
			return nil, err
		}

		return NewColorizer(colorize, optional(d, "m"), renderFactor, codec), nil
	})

	f.Register(transform.Grayscale, func(transform.Descriptor) (Step, error) {
		return NewGrayscaler(codec), nil
	})

	return f
}

// Register installs b for name, replacing any previous builder. It is meant
// to be called while wiring, before the factory is shared.
func (f *Factory) Register(name transform.Name, b Builder) {
	f.builders[name] = b
}

// Build returns one step per descriptor of chain, in order.
func (f *Factory) Build(chain transform.Chain) ([]Step, error) {
	steps := make([]Step, 0, chain.Len())

	for _, d := range chain.Descriptors() {
		build, ok := f.builders[d.Name()]
		if !ok {
			return nil, fmt.Errorf("build %s: %w", d.Name(), model.ErrFactoryNotFound)
		}

		step, err := build(d)
		if err != nil {
			return nil, err
		}

		steps = append(steps, step)
	}

	return steps, nil
}

// Validate reports whether every descriptor of chain builds.
func (f *Factory) Validate(chain transform.Chain) error {
	_, err := f.Build(chain)
	return err
}

// DerivationSteps returns the steps computing a derivative for chain: the
// chain itself followed by path generation and content info.
func (f *Factory) DerivationSteps(chain transform.Chain) ([]Step, error) {
	steps, err := f.Build(chain)
	if err != nil {
		return nil, err
	}

	return append(steps, NewPathGenerator(), NewContentInfo()), nil
}

// NormalizationSteps returns the steps every uploaded original goes through.
func (f *Factory) NormalizationSteps() []Step {
	return []Step{
		NewExifExtractor(),
		NewFormatConverter(f.codec),
		NewPathGenerator(),
		NewContentInfo(),
	}
}

func optional(d transform.Descriptor, key string) string {
	v, _ := d.Arg(key)
	return v
}

func missingArg(d transform.Descriptor, key string) error {
	return fmt.Errorf("%s: missing argument %q: %w", d.Name(), key, model.ErrInvalidArgument)
}

func requiredInt(d transform.Descriptor, key string) (int, error) {
	raw, ok := d.Arg(key)
	if !ok || raw == "" {
		return 0, missingArg(d, key)
	}

	n, err := parseDimension(d, key, raw)
	if err != nil {
		return 0, err
	}

	if n == 0 {
		return 0, fmt.Errorf("%s: argument %q must be positive: %w", d.Name(), key, model.ErrInvalidArgument)
	}

	return n, nil
}

func nonNegativeInt(d transform.Descriptor, key string) (int, error) {
	raw, ok := d.Arg(key)
	if !ok || raw == "" {
		return 0, missingArg(d, key)
	}

	return parseDimension(d, key, raw)
}

func optionalInt(d transform.Descriptor, key string) (int, error) {
	raw, ok := d.Arg(key)
	if !ok || raw == "" {
		return 0, nil
	}

	return parseDimension(d, key, raw)
}

func parseDimension(d transform.Descriptor, key, raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s: invalid argument %q=%q: %w", d.Name(), key, raw, model.ErrInvalidArgument)
	}

	return n, nil
}

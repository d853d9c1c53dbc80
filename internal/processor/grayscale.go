package processor

import (
	"context"
	"image"

	"github.com/disintegration/imaging"
)

// Grayscaler drops colour information.
type Grayscaler struct {
	codec Codec
}

// NewGrayscaler creates a new Grayscaler.
func NewGrayscaler(codec Codec) *Grayscaler {
	return &Grayscaler{codec: codec}
}

// Name returns the step name.
func (g *Grayscaler) Name() string { return "grayscale" }

// Execute converts the handle body to grayscale.
func (g *Grayscaler) Execute(_ context.Context, pc Context) (Context, error) {
	return transformImage(pc, g.codec, func(img image.Image) (image.Image, error) {
		return imaging.Grayscale(img), nil
	})
}

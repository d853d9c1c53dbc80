package processor

import (
	"context"
	"fmt"
)

// colorizeService colorizes one image.
type colorizeService interface {
	Colorize(ctx context.Context, req ColorizeRequest) ([]byte, error)
}

// Colorizer sends the handle body to an external colorization service.
type Colorizer struct {
	service      colorizeService
	modelName    string
	renderFactor int
	codec        Codec
}

// NewColorizer creates a new Colorizer.
func NewColorizer(service colorizeService, modelName string, renderFactor int, codec Codec) *Colorizer {
	return &Colorizer{service: service, modelName: modelName, renderFactor: renderFactor, codec: codec}
}

// Name returns the step name.
func (c *Colorizer) Name() string { return "colorizer" }

// Execute replaces the body with the colorized result re-encoded with the
// storage codec.
func (c *Colorizer) Execute(ctx context.Context, pc Context) (Context, error) {
	out, err := c.service.Colorize(ctx, ColorizeRequest{
		Image:        pc.Attributes.Media.Body,
		ContentType:  pc.Attributes.Media.Metadata.ContentType,
		ModelName:    c.modelName,
		RenderFactor: c.renderFactor,
	})
	if err != nil {
		return pc, err
	}

	img, err := decodeImage(out)
	if err != nil {
		return pc, fmt.Errorf("colorize: result: %w", err)
	}

	return replaceImage(pc, c.codec, img)
}

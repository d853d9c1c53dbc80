package processor

import (
	"context"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"

	"github.com/aliskhannn/media-service/internal/model"
)

// CropStrategy decides how an image is fitted into the target box.
type CropStrategy string

const (
	// ForcedCrop fills the box and crops the overflow around the centre.
	ForcedCrop CropStrategy = "forced_crop"
	// Pad fits the image inside the box and centres it on a transparent canvas.
	Pad CropStrategy = "pad"
)

// ParseCropStrategy returns ForcedCrop for an empty string.
func ParseCropStrategy(s string) (CropStrategy, error) {
	switch CropStrategy(s) {
	case "", ForcedCrop:
		return ForcedCrop, nil
	case Pad:
		return Pad, nil
	default:
		return "", fmt.Errorf("invalid crop strategy %q: %w", s, model.ErrInvalidArgument)
	}
}

// Scaler resizes images to an exact width and height.
type Scaler struct {
	width    int
	height   int
	strategy CropStrategy
	codec    Codec
}

// NewScaler creates a new Scaler.
func NewScaler(width, height int, strategy CropStrategy, codec Codec) *Scaler {
	return &Scaler{width: width, height: height, strategy: strategy, codec: codec}
}

// Name returns the step name.
func (s *Scaler) Name() string { return "scaler" }

// Execute resizes the handle body.
func (s *Scaler) Execute(_ context.Context, pc Context) (Context, error) {
	return transformImage(pc, s.codec, func(img image.Image) (image.Image, error) {
		if s.strategy == Pad {
			fitted := imaging.Fit(img, s.width, s.height, imaging.Lanczos)
			canvas := imaging.New(s.width, s.height, color.NRGBA{})

			return imaging.PasteCenter(canvas, fitted), nil
		}

		return imaging.Fill(img, s.width, s.height, imaging.Center, imaging.Lanczos), nil
	})
}

// Package webp encodes images as lossy WebP through libwebp.
package webp

import (
	"fmt"
	"image"
	"io"

	"github.com/kolesa-team/go-webp/encoder"
	"github.com/kolesa-team/go-webp/webp"
)

const defaultQuality = 75

// Codec encodes images as WebP with a fixed quality.
type Codec struct {
	quality float32
}

// New returns a Codec. A quality outside (0, 100] falls back to 75.
func New(quality float32) *Codec {
	if quality <= 0 || quality > 100 {
		quality = defaultQuality
	}

	return &Codec{quality: quality}
}

// Encode writes img as lossy WebP.
func (c *Codec) Encode(w io.Writer, img image.Image) error {
	opts, err := encoder.NewLossyEncoderOptions(encoder.PresetDefault, c.quality)
	if err != nil {
		return fmt.Errorf("webp: failed to build encoder options: %w", err)
	}

	if err := webp.Encode(w, img, opts); err != nil {
		return fmt.Errorf("webp: failed to encode: %w", err)
	}

	return nil
}

// MIMEType returns "image/webp".
func (c *Codec) MIMEType() string { return "image/webp" }

// Extension returns "webp".
func (c *Codec) Extension() string { return "webp" }

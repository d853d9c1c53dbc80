package processor

import (
	"context"
	"errors"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/aliskhannn/media-service/internal/model"
)

// FormatConverter re-encodes raster images with the storage codec and
// rewrites the path extension to match. Other content passes through.
type FormatConverter struct {
	codec Codec
}

// NewFormatConverter creates a new FormatConverter.
func NewFormatConverter(codec Codec) *FormatConverter {
	return &FormatConverter{codec: codec}
}

// Name returns the step name.
func (f *FormatConverter) Name() string { return "format_converter" }

// Execute converts the handle body.
func (f *FormatConverter) Execute(_ context.Context, pc Context) (Context, error) {
	media := &pc.Attributes.Media

	detected := mimetype.Detect(media.Body)
	if !strings.HasPrefix(detected.String(), "image/") {
		return pc, nil
	}

	if !detected.Is(f.codec.MIMEType()) {
		img, err := decodeImage(media.Body)
		if err != nil {
			// Formats the decoder does not know, e.g. SVG, are stored as is.
			if errors.Is(err, model.ErrInvalidArgument) {
				return pc, nil
			}

			return pc, err
		}

		if pc, err = replaceImage(pc, f.codec, img); err != nil {
			return pc, err
		}
		media = &pc.Attributes.Media
	}

	media.Metadata.ContentType = f.codec.MIMEType()
	media.Metadata.Path = media.Metadata.Path.WithExtension(f.codec.Extension())

	return pc, nil
}

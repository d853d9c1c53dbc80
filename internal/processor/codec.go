package processor

import (
	"bytes"
	"fmt"
	"image"
	"io"

	"github.com/disintegration/imaging"

	// Registers the WebP decoder with image.Decode.
	_ "golang.org/x/image/webp"

	"github.com/aliskhannn/media-service/internal/model"
)

// Codec encodes images into the canonical storage format.
type Codec interface {
	Encode(w io.Writer, img image.Image) error
	MIMEType() string
	Extension() string
}

// PNGCodec stores images as PNG.
type PNGCodec struct{}

// Encode writes img as PNG.
func (PNGCodec) Encode(w io.Writer, img image.Image) error {
	return imaging.Encode(w, img, imaging.PNG)
}

// MIMEType returns "image/png".
func (PNGCodec) MIMEType() string { return "image/png" }

// Extension returns "png".
func (PNGCodec) Extension() string { return "png" }

// decodeImage decodes body applying its EXIF orientation.
func decodeImage(body []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(body), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %v: %w", err, model.ErrInvalidArgument)
	}

	return img, nil
}

// encodeImage encodes img with c.
func encodeImage(c Codec, img image.Image) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := c.Encode(buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	return buf.Bytes(), nil
}

// transformImage decodes the handle body, applies fn and re-encodes the result.
func transformImage(pc Context, c Codec, fn func(image.Image) (image.Image, error)) (Context, error) {
	img, err := decodeImage(pc.Attributes.Media.Body)
	if err != nil {
		return pc, err
	}

	out, err := fn(img)
	if err != nil {
		return pc, err
	}

	return replaceImage(pc, c, out)
}

// replaceImage stores img encoded with c as the new body.
func replaceImage(pc Context, c Codec, img image.Image) (Context, error) {
	body, err := encodeImage(c, img)
	if err != nil {
		return pc, err
	}

	pc.Attributes.Media.Body = body
	pc.Attributes.Media.Metadata.ContentType = c.MIMEType()
	pc.Attributes.Media.Metadata.ContentLength = len(body)

	return pc, nil
}

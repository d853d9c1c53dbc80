package processor

import (
	"bytes"
	"context"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
	"github.com/wb-go/wbf/zlog"
)

// ExifExtractor copies EXIF tags into the embedded metadata. Bodies without
// EXIF data pass through unchanged.
type ExifExtractor struct{}

// NewExifExtractor creates a new ExifExtractor.
func NewExifExtractor() *ExifExtractor { return &ExifExtractor{} }

// Name returns the step name.
func (e *ExifExtractor) Name() string { return "exif_extractor" }

// Execute reads the tags.
func (e *ExifExtractor) Execute(_ context.Context, pc Context) (out Context, err error) {
	// goexif panics on some malformed inputs; treat those as having no EXIF.
	defer func() {
		if r := recover(); r != nil {
			zlog.Logger.Warn().Interface("panic", r).Msg("exif decoding failed")
			out, err = pc, nil
		}
	}()

	x, decodeErr := exif.Decode(bytes.NewReader(pc.Attributes.Media.Body))
	if decodeErr != nil {
		return pc, nil
	}

	meta := &pc.Attributes.Media.Metadata
	if meta.EmbeddedMetadata == nil {
		meta.EmbeddedMetadata = map[string]string{}
	}

	_ = x.Walk(exifWalker(meta.EmbeddedMetadata))

	return pc, nil
}

type exifWalker map[string]string

func (w exifWalker) Walk(name exif.FieldName, tag *tiff.Tag) error {
	w[string(name)] = strings.Trim(tag.String(), `"`)
	return nil
}

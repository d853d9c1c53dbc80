package processor

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/media-service/internal/model"
)

// Anchor is the position of the overlay relative to the base image.
type Anchor int

const (
	TopLeft Anchor = iota
	TopCenter
	TopRight
	CenterLeft
	Center
	CenterRight
	BottomLeft
	BottomCenter
	BottomRight
)

var anchorNames = map[string]Anchor{
	"topleft":      TopLeft,
	"lefttop":      TopLeft,
	"topcenter":    TopCenter,
	"centertop":    TopCenter,
	"topright":     TopRight,
	"righttop":     TopRight,
	"centerleft":   CenterLeft,
	"leftcenter":   CenterLeft,
	"center":       Center,
	"centerright":  CenterRight,
	"rightcenter":  CenterRight,
	"bottomleft":   BottomLeft,
	"leftbottom":   BottomLeft,
	"bottomcenter": BottomCenter,
	"centerbottom": BottomCenter,
	"bottomright":  BottomRight,
	"rightbottom":  BottomRight,
}

// ParseAnchor accepts the anchor keywords case-insensitively.
func ParseAnchor(s string) (Anchor, error) {
	a, ok := anchorNames[strings.ToLower(s)]
	if !ok {
		return 0, fmt.Errorf("invalid anchor %q: %w", s, model.ErrInvalidArgument)
	}

	return a, nil
}

// offset returns the top-left corner of an overlay of size ov placed in a
// base of size base.
func (a Anchor) offset(base, ov image.Point, padding int) image.Point {
	var pt image.Point

	switch a {
	case TopLeft, CenterLeft, BottomLeft:
		pt.X = padding
	case TopCenter, Center, BottomCenter:
		pt.X = (base.X - ov.X) / 2
	default:
		pt.X = base.X - ov.X - padding
	}

	switch a {
	case TopLeft, TopCenter, TopRight:
		pt.Y = padding
	case CenterLeft, Center, CenterRight:
		pt.Y = (base.Y - ov.Y) / 2
	default:
		pt.Y = base.Y - ov.Y - padding
	}

	return pt
}

// blobDownloader loads blobs by object key.
type blobDownloader interface {
	Download(ctx context.Context, key string) ([]byte, error)
}

// Watermarker composites an overlay image stored in file storage onto the
// handle body.
type Watermarker struct {
	files   blobDownloader
	overlay model.Path
	anchor  Anchor
	padding int
	width   int
	height  int
	codec   Codec
}

// NewWatermarker creates a new Watermarker. A zero width or height keeps the
// overlay's aspect ratio; both zero keep its size.
func NewWatermarker(files blobDownloader, overlay model.Path, anchor Anchor, padding, width, height int, codec Codec) *Watermarker {
	return &Watermarker{
		files:   files,
		overlay: overlay,
		anchor:  anchor,
		padding: padding,
		width:   width,
		height:  height,
		codec:   codec,
	}
}

// Name returns the step name.
func (w *Watermarker) Name() string { return "watermarker" }

// Execute downloads the overlay and draws it onto the body. A missing overlay
// leaves the body untouched.
func (w *Watermarker) Execute(ctx context.Context, pc Context) (Context, error) {
	raw, err := w.files.Download(ctx, w.overlay.Key())
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			zlog.Logger.Warn().Str("overlay", w.overlay.String()).Msg("watermark overlay not found, skipping")
			return pc, nil
		}

		return pc, fmt.Errorf("watermark: failed to download overlay: %w", err)
	}

	overlay, err := decodeImage(raw)
	if err != nil {
		return pc, fmt.Errorf("watermark: overlay: %w", err)
	}

	if w.width > 0 || w.height > 0 {
		overlay = imaging.Resize(overlay, w.width, w.height, imaging.Lanczos)
	}

	return transformImage(pc, w.codec, func(base image.Image) (image.Image, error) {
		pt := w.anchor.offset(base.Bounds().Size(), overlay.Bounds().Size(), w.padding)

		dc := gg.NewContextForImage(base)
		dc.DrawImage(overlay, pt.X, pt.Y)

		return dc.Image(), nil
	})
}

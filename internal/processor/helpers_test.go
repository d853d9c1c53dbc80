package processor

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"

	"github.com/aliskhannn/media-service/internal/model"
	"github.com/aliskhannn/media-service/internal/transform"
)

func encodeFixture(t *testing.T, w, h int, c color.Color, format imaging.Format) []byte {
	t.Helper()

	buf := new(bytes.Buffer)
	require.NoError(t, imaging.Encode(buf, imaging.New(w, h, c), format))

	return buf.Bytes()
}

func pngFixture(t *testing.T, w, h int, c color.Color) []byte {
	return encodeFixture(t, w, h, c, imaging.PNG)
}

func decodeFixture(t *testing.T, b []byte) image.Image {
	t.Helper()

	img, err := imaging.Decode(bytes.NewReader(b))
	require.NoError(t, err)

	return img
}

func pixel(img image.Image, x, y int) color.NRGBA {
	return color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
}

type blobMap map[string][]byte

func (m blobMap) Download(_ context.Context, key string) ([]byte, error) {
	b, ok := m[key]
	if !ok {
		return nil, model.ErrNotFound
	}

	return b, nil
}

type colorizeStub struct {
	out []byte
	err error
	req ColorizeRequest
}

func (s *colorizeStub) Colorize(_ context.Context, req ColorizeRequest) ([]byte, error) {
	s.req = req
	return s.out, s.err
}

func mustChain(t *testing.T, s string) transform.Chain {
	t.Helper()

	chain, err := transform.NewRegistry().ParseChain(s)
	require.NoError(t, err)

	return chain
}

func contextFor(body []byte, p string, chain transform.Chain) Context {
	path := model.MustParsePath(p)
	meta := model.NewMetadata(path)
	meta.ContentType = "image/png"

	return NewContext(model.NewMediaHandle(body, meta), chain, path)
}

func runSteps(t *testing.T, steps []Step, pc Context) Context {
	t.Helper()

	for _, step := range steps {
		var err error
		pc, err = step.Execute(context.Background(), pc)
		require.NoError(t, err, step.Name())
	}

	return pc
}

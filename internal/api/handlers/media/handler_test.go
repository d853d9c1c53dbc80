package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image/color"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/ginext"

	"github.com/aliskhannn/media-service/internal/model"
	mediasvc "github.com/aliskhannn/media-service/internal/service/media"
	"github.com/aliskhannn/media-service/internal/transform"
)

type stubService struct {
	body []byte

	downloadedPath  model.Path
	downloadedChain string
	uploadedPath    model.Path
	uploadedChains  []string
	failChains      bool
	moved           [2]model.Path
	deleted         model.Path
}

func (s *stubService) Read(_ context.Context, p model.Path) (model.Metadata, error) {
	if p.String() != "/a.png" {
		return model.Metadata{}, fmt.Errorf("read: %w", model.ErrNotFound)
	}

	return model.NewMetadata(p), nil
}

func (s *stubService) Upload(_ context.Context, p model.Path, chains []transform.Chain, _ []byte) (mediasvc.UploadResult, error) {
	s.uploadedPath = p
	for _, c := range chains {
		s.uploadedChains = append(s.uploadedChains, c.String())
	}

	res := mediasvc.UploadResult{Metadata: model.NewMetadata(p)}
	if s.failChains {
		res.FailedChains = []mediasvc.FailedChain{{Transformation: "c_colorize", Error: "upstream failure"}}
	}

	return res, nil
}

func (s *stubService) Download(_ context.Context, p model.Path, chain transform.Chain) ([]byte, error) {
	s.downloadedPath = p
	s.downloadedChain = chain.String()

	return s.body, nil
}

func (s *stubService) Move(_ context.Context, src, dst model.Path) (model.Metadata, error) {
	s.moved = [2]model.Path{src, dst}
	return model.NewMetadata(dst), nil
}

func (s *stubService) Copy(_ context.Context, _, dst model.Path) (model.Metadata, error) {
	return model.Metadata{}, fmt.Errorf("copy %s: %w", dst, model.ErrNotFound)
}

func (s *stubService) Delete(_ context.Context, p model.Path) error {
	s.deleted = p
	return nil
}

type noNamed struct{}

func (noNamed) Get(_ context.Context, name string) (model.NamedTransformation, error) {
	if name == "thumb" {
		return model.NamedTransformation{Name: name, Transformations: "c_scale:w_10,h_10"}, nil
	}

	return model.NamedTransformation{}, fmt.Errorf("get %s: %w", name, model.ErrNotFound)
}

func pngBody(t *testing.T) []byte {
	t.Helper()

	buf := new(bytes.Buffer)
	require.NoError(t, imaging.Encode(buf, imaging.New(4, 4, color.White), imaging.PNG))

	return buf.Bytes()
}

func setup(t *testing.T) (*stubService, *ginext.Engine) {
	t.Helper()

	svc := &stubService{body: pngBody(t)}
	h := NewHandler(svc, transform.NewExtractor(transform.NewRegistry(), noNamed{}), 1)

	r := ginext.New()
	r.GET("/media/*path", h.Get)
	r.DELETE("/media/*path", h.Delete)
	r.POST("/media/move", h.Move)
	r.POST("/media/copy", h.Copy)
	r.GET("/download/*path", h.Download)
	r.POST("/upload/*path", h.Upload)

	return svc, r
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

func TestGet(t *testing.T) {
	_, r := setup(t)

	w := serve(r, httptest.NewRequest(http.MethodGet, "/media/a.png", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"path":"/a.png"`)

	w = serve(r, httptest.NewRequest(http.MethodGet, "/media/missing.png", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), `"message"`)
}

func TestDownload_ParsesChainFromPath(t *testing.T) {
	svc, r := setup(t)

	w := serve(r, httptest.NewRequest(http.MethodGet, "/download/c_scale:w_100,h_50/uploads/t_thumb/a.png", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, svc.body, w.Body.Bytes())

	assert.Equal(t, "/uploads/a.png", svc.downloadedPath.String())
	assert.Equal(t, "c_scale,h-50,w-100,c_scale,h-10,w-10", svc.downloadedChain)
}

func TestDownload_CacheControl(t *testing.T) {
	_, r := setup(t)

	w := serve(r, httptest.NewRequest(http.MethodGet, "/download/c_scale:w_100,h_50/a.png", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "public, max-age=31536000, immutable", w.Header().Get("Cache-Control"))

	w = serve(r, httptest.NewRequest(http.MethodGet, "/download/a.png", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "public, max-age=31536000, immutable", w.Header().Get("Cache-Control"))

	// A named alias can be redefined, so the same URL may later serve other bytes.
	w = serve(r, httptest.NewRequest(http.MethodGet, "/download/t_thumb/a.png", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "public, max-age=60, must-revalidate", w.Header().Get("Cache-Control"))
	assert.NotContains(t, w.Header().Get("Cache-Control"), "immutable")
}

func TestDownload_RejectsBadChains(t *testing.T) {
	_, r := setup(t)

	w := serve(r, httptest.NewRequest(http.MethodGet, "/download/c_sepia/a.png", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(r, httptest.NewRequest(http.MethodGet, "/download/t_missing/a.png", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func multipartRequest(t *testing.T, target, filename string, body []byte, transformations string) *http.Request {
	t.Helper()

	buf := new(bytes.Buffer)
	mw := multipart.NewWriter(buf)

	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(body)
	require.NoError(t, err)

	if transformations != "" {
		require.NoError(t, mw.WriteField("transformations", transformations))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	return req
}

func TestUpload(t *testing.T) {
	svc, r := setup(t)

	req := multipartRequest(t, "/upload/uploads/", "cat.png", svc.body, `["c_grayscale","t_thumb"]`)
	w := serve(r, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "/uploads/cat.png", svc.uploadedPath.String())
	assert.Equal(t, []string{"c_grayscale", "c_scale,h-10,w-10"}, svc.uploadedChains)
}

func TestUpload_ReportsFailedChains(t *testing.T) {
	svc, r := setup(t)
	svc.failChains = true

	w := serve(r, multipartRequest(t, "/upload/a.png", "ignored.png", svc.body, ""))
	require.Equal(t, http.StatusMultiStatus, w.Code)

	var out struct {
		Result mediasvc.UploadResult `json:"result"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.Len(t, out.Result.FailedChains, 1)
	assert.Equal(t, "c_colorize", out.Result.FailedChains[0].Transformation)
}

func TestUpload_BadRequests(t *testing.T) {
	svc, r := setup(t)

	w := serve(r, multipartRequest(t, "/upload/a.png", "a.png", svc.body, `not-json`))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(r, multipartRequest(t, "/upload/a.png", "a.png", svc.body, `["c_unknown"]`))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(r, httptest.NewRequest(http.MethodPost, "/upload/a.png", strings.NewReader("x")))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMoveCopyDelete(t *testing.T) {
	svc, r := setup(t)

	req := httptest.NewRequest(http.MethodPost, "/media/move", strings.NewReader(`{"src":"/a.png","dst":"/b/c.png"}`))
	req.Header.Set("Content-Type", "application/json")

	w := serve(r, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "/a.png", svc.moved[0].String())
	assert.Equal(t, "/b/c.png", svc.moved[1].String())

	req = httptest.NewRequest(http.MethodPost, "/media/copy", strings.NewReader(`{"src":"/a.png","dst":"/b.png"}`))
	assert.Equal(t, http.StatusNotFound, serve(r, req).Code)

	req = httptest.NewRequest(http.MethodPost, "/media/move", strings.NewReader(`{"src":"a.png","dst":"/b.png"}`))
	assert.Equal(t, http.StatusBadRequest, serve(r, req).Code)

	// The old field names are not accepted.
	req = httptest.NewRequest(http.MethodPost, "/media/move", strings.NewReader(`{"from":"/a.png","to":"/b.png"}`))
	assert.Equal(t, http.StatusBadRequest, serve(r, req).Code)

	w = serve(r, httptest.NewRequest(http.MethodDelete, "/media/a.png", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "/a.png", svc.deleted.String())
}

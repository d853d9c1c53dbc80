package media

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/media-service/internal/api/respond"
	"github.com/aliskhannn/media-service/internal/model"
	mediasvc "github.com/aliskhannn/media-service/internal/service/media"
	"github.com/aliskhannn/media-service/internal/transform"
)

const defaultMaxUploadBytes = 32 << 20

// service defines the media operations the handler exposes.
type service interface {
	Read(ctx context.Context, p model.Path) (model.Metadata, error)
	Upload(ctx context.Context, p model.Path, chains []transform.Chain, body []byte) (mediasvc.UploadResult, error)
	Download(ctx context.Context, p model.Path, chain transform.Chain) ([]byte, error)
	Move(ctx context.Context, src, dst model.Path) (model.Metadata, error)
	Copy(ctx context.Context, src, dst model.Path) (model.Metadata, error)
	Delete(ctx context.Context, p model.Path) error
}

// extractor resolves chain strings, named references included.
type extractor interface {
	Extract(ctx context.Context, s string) (transform.Chain, error)
	ExtractAll(ctx context.Context, ss []string) ([]transform.Chain, error)
}

// Handler provides HTTP handlers for media endpoints.
type Handler struct {
	service        service
	extractor      extractor
	maxUploadBytes int64
}

// NewHandler creates a new Handler. maxUploadMB bounds the size of an upload.
func NewHandler(s service, e extractor, maxUploadMB int64) *Handler {
	limit := maxUploadMB << 20
	if limit <= 0 {
		limit = defaultMaxUploadBytes
	}

	return &Handler{service: s, extractor: e, maxUploadBytes: limit}
}

// RelocateRequest is the body of move and copy requests.
type RelocateRequest struct {
	Src string `json:"src"`
	Dst string `json:"dst"`
}

// Get returns the metadata of a stored original.
func (h *Handler) Get(c *ginext.Context) {
	p, err := model.ParsePath(c.Param("path"))
	if err != nil {
		respond.FailWithError(c, err)
		return
	}

	m, err := h.service.Read(c.Request.Context(), p)
	if err != nil {
		zlog.Logger.Err(err).Str("path", p.String()).Msg("failed to read metadata")
		respond.FailWithError(c, err)
		return
	}

	respond.OK(c, m)
}

// Download serves media bytes. Transformation tokens anywhere in the path
// select a derivative, e.g. /download/c_scale:w_100,h_100/uploads/a.webp.
func (h *Handler) Download(c *ginext.Context) {
	chainStr, rawPath := transform.ParseTransformationFromPath(c.Param("path"))

	p, err := model.ParsePath(rawPath)
	if err != nil {
		respond.FailWithError(c, err)
		return
	}

	chain, err := h.extractor.Extract(c.Request.Context(), chainStr)
	if err != nil {
		zlog.Logger.Warn().Err(err).Str("chain", chainStr).Msg("failed to resolve transformations")
		respond.FailWithError(c, err)
		return
	}

	body, err := h.service.Download(c.Request.Context(), p, chain)
	if err != nil {
		zlog.Logger.Err(err).
			Str("path", p.String()).
			Str("chain", chain.String()).
			Msg("failed to download media")
		respond.FailWithError(c, err)
		return
	}

	c.Header("Cache-Control", cacheControl(chainStr))

	respond.Data(c, http.StatusOK, mimetype.Detect(body).String(), body)
}

// cacheControl lets clients keep inline-only results forever. A named
// reference can be redefined, so those responses must be revalidated.
func cacheControl(chain string) string {
	if transform.HasNamedReference(chain) {
		return "public, max-age=60, must-revalidate"
	}

	return "public, max-age=31536000, immutable"
}

// Upload stores the multipart "file" field under the request path and
// derives one variant per entry of the optional "transformations" JSON array.
// A path ending in "/" takes the client's file name.
func (h *Handler) Upload(c *ginext.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		zlog.Logger.Err(err).Msg("failed to retrieve the file")
		respond.Fail(c, http.StatusBadRequest, fmt.Errorf("failed to retrieve the file: %w", model.ErrInvalidArgument))
		return
	}
	defer file.Close()

	raw := c.Param("path")
	if raw == "" || strings.HasSuffix(raw, "/") {
		raw += header.Filename
	}

	p, err := model.ParsePath(raw)
	if err != nil {
		respond.FailWithError(c, err)
		return
	}

	var chainStrs []string
	if js := c.PostForm("transformations"); js != "" {
		if err := json.Unmarshal([]byte(js), &chainStrs); err != nil {
			respond.Fail(c, http.StatusBadRequest, fmt.Errorf("transformations must be a JSON array of strings: %w", model.ErrInvalidArgument))
			return
		}
	}

	chains, err := h.extractor.ExtractAll(c.Request.Context(), chainStrs)
	if err != nil {
		respond.FailWithError(c, err)
		return
	}

	body, err := io.ReadAll(file)
	if err != nil {
		respond.Fail(c, http.StatusBadRequest, fmt.Errorf("failed to read the file: %w", model.ErrInvalidArgument))
		return
	}

	zlog.Logger.Info().
		Str("filename", header.Filename).
		Int64("size", header.Size).
		Int("chains", len(chains)).
		Msg("upload received")

	res, err := h.service.Upload(c.Request.Context(), p, chains, body)
	if err != nil {
		zlog.Logger.Err(err).Str("path", p.String()).Msg("failed to upload media")
		respond.FailWithError(c, err)
		return
	}

	if len(res.FailedChains) > 0 {
		respond.JSON(c, http.StatusMultiStatus, respond.Success{Result: res})
		return
	}

	respond.Created(c, res)
}

// Move relocates an original and its derivatives.
func (h *Handler) Move(c *ginext.Context) {
	h.relocate(c, h.service.Move)
}

// Copy duplicates an original and its derivatives.
func (h *Handler) Copy(c *ginext.Context) {
	h.relocate(c, h.service.Copy)
}

func (h *Handler) relocate(c *ginext.Context, op func(ctx context.Context, src, dst model.Path) (model.Metadata, error)) {
	var req RelocateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Fail(c, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", model.ErrInvalidArgument))
		return
	}

	src, err := model.ParsePath(req.Src)
	if err != nil {
		respond.FailWithError(c, err)
		return
	}

	dst, err := model.ParsePath(req.Dst)
	if err != nil {
		respond.FailWithError(c, err)
		return
	}

	m, err := op(c.Request.Context(), src, dst)
	if err != nil {
		zlog.Logger.Err(err).
			Str("src", src.String()).
			Str("dst", dst.String()).
			Msg("failed to relocate media")
		respond.FailWithError(c, err)
		return
	}

	respond.OK(c, m)
}

// Delete removes an original, its derivatives and its metadata.
func (h *Handler) Delete(c *ginext.Context) {
	p, err := model.ParsePath(c.Param("path"))
	if err != nil {
		respond.FailWithError(c, err)
		return
	}

	if err := h.service.Delete(c.Request.Context(), p); err != nil {
		zlog.Logger.Err(err).Str("path", p.String()).Msg("failed to delete media")
		respond.FailWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

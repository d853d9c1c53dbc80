package transformation

import (
	"context"
	"fmt"
	"net/http"

	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/media-service/internal/api/respond"
	"github.com/aliskhannn/media-service/internal/model"
	"github.com/aliskhannn/media-service/internal/transform"
)

// namedStore persists named transformations.
type namedStore interface {
	List(ctx context.Context) ([]model.NamedTransformation, error)
	Save(ctx context.Context, nt model.NamedTransformation) error
	Delete(ctx context.Context, name string) error
}

// chainValidator reports whether every step of a chain can be built.
type chainValidator interface {
	Validate(chain transform.Chain) error
}

// Handler serves the transformation catalog and named transformations.
type Handler struct {
	registry  *transform.Registry
	named     namedStore
	validator chainValidator
}

// NewHandler creates a new Handler.
func NewHandler(registry *transform.Registry, named namedStore, validator chainValidator) *Handler {
	return &Handler{registry: registry, named: named, validator: validator}
}

// List returns every supported transformation with its arguments.
func (h *Handler) List(c *ginext.Context) {
	respond.OK(c, h.registry.All())
}

// ListNamed returns every named transformation.
func (h *Handler) ListNamed(c *ginext.Context) {
	named, err := h.named.List(c.Request.Context())
	if err != nil {
		zlog.Logger.Err(err).Msg("failed to list named transformations")
		respond.FailWithError(c, err)
		return
	}

	respond.OK(c, named)
}

// SaveNamed creates or replaces a named transformation after checking that
// its chain resolves and builds.
func (h *Handler) SaveNamed(c *ginext.Context) {
	var nt model.NamedTransformation
	if err := c.ShouldBindJSON(&nt); err != nil || nt.Name == "" || nt.Transformations == "" {
		respond.Fail(c, http.StatusBadRequest, fmt.Errorf("name and transformations are required: %w", model.ErrInvalidArgument))
		return
	}

	if err := nt.ValidateName(); err != nil {
		respond.FailWithError(c, err)
		return
	}

	chain, err := h.registry.ParseChain(nt.Transformations)
	if err != nil {
		respond.FailWithError(c, err)
		return
	}

	if chain.IsEmpty() {
		respond.Fail(c, http.StatusBadRequest, fmt.Errorf("transformations must not be empty: %w", model.ErrInvalidArgument))
		return
	}

	if err := h.validator.Validate(chain); err != nil {
		respond.FailWithError(c, fmt.Errorf("%w: %w", model.ErrInvalidArgument, err))
		return
	}

	if err := h.named.Save(c.Request.Context(), nt); err != nil {
		zlog.Logger.Err(err).Str("name", nt.Name).Msg("failed to save named transformation")
		respond.FailWithError(c, err)
		return
	}

	respond.Created(c, nt)
}

// DeleteNamed removes a named transformation.
func (h *Handler) DeleteNamed(c *ginext.Context) {
	name := c.Param("name")

	if err := h.named.Delete(c.Request.Context(), name); err != nil {
		zlog.Logger.Err(err).Str("name", name).Msg("failed to delete named transformation")
		respond.FailWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

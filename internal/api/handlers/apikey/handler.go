package apikey

import (
	"context"
	"fmt"
	"net/http"

	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/media-service/internal/api/respond"
	"github.com/aliskhannn/media-service/internal/model"
)

// store manages API keys.
type store interface {
	Create(ctx context.Context, name string) (model.ApiKey, error)
	List(ctx context.Context) ([]model.ApiKey, error)
	Delete(ctx context.Context, name string) error
}

// Handler provides HTTP handlers for API key management.
type Handler struct {
	store store
}

// NewHandler creates a new Handler.
func NewHandler(s store) *Handler {
	return &Handler{store: s}
}

// CreateRequest names the key to mint.
type CreateRequest struct {
	Name string `json:"name"`
}

// List returns every API key.
func (h *Handler) List(c *ginext.Context) {
	keys, err := h.store.List(c.Request.Context())
	if err != nil {
		zlog.Logger.Err(err).Msg("failed to list api keys")
		respond.FailWithError(c, err)
		return
	}

	respond.OK(c, keys)
}

// Create mints a key for the given name, replacing any previous one.
func (h *Handler) Create(c *ginext.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Name == "" {
		respond.Fail(c, http.StatusBadRequest, fmt.Errorf("name is required: %w", model.ErrInvalidArgument))
		return
	}

	key, err := h.store.Create(c.Request.Context(), req.Name)
	if err != nil {
		zlog.Logger.Err(err).Str("name", req.Name).Msg("failed to create api key")
		respond.FailWithError(c, err)
		return
	}

	respond.Created(c, key)
}

// Delete revokes the key called name.
func (h *Handler) Delete(c *ginext.Context) {
	name := c.Param("name")

	if err := h.store.Delete(c.Request.Context(), name); err != nil {
		zlog.Logger.Err(err).Str("name", name).Msg("failed to delete api key")
		respond.FailWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

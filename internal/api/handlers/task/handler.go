package task

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/media-service/internal/api/respond"
	"github.com/aliskhannn/media-service/internal/model"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 1000
)

// scheduler queues background tasks and reports finished ones.
type scheduler interface {
	Enqueue(ctx context.Context, t model.Task) (model.Task, error)
	History(ctx context.Context, limit int) ([]model.Task, error)
}

// Handler provides HTTP handlers for background tasks.
type Handler struct {
	scheduler scheduler
}

// NewHandler creates a new Handler.
func NewHandler(s scheduler) *Handler {
	return &Handler{scheduler: s}
}

// ClearCache queues a sweep of derivatives created before the "before" query
// parameter (RFC 3339). Without it, every derivative created so far is swept.
func (h *Handler) ClearCache(c *ginext.Context) {
	before := time.Now().UTC()

	if raw := c.Query("before"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respond.Fail(c, http.StatusBadRequest, fmt.Errorf("before must be an RFC 3339 timestamp: %w", model.ErrInvalidArgument))
			return
		}

		before = parsed
	}

	task, err := h.scheduler.Enqueue(c.Request.Context(), model.NewClearCacheTask(before))
	if err != nil {
		zlog.Logger.Err(err).Msg("failed to enqueue clear cache task")
		respond.FailWithError(c, err)
		return
	}

	respond.Accepted(c, task)
}

// History returns the most recently finished tasks.
func (h *Handler) History(c *ginext.Context) {
	limit := defaultHistoryLimit

	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxHistoryLimit {
			respond.Fail(c, http.StatusBadRequest, fmt.Errorf("limit must be between 1 and %d: %w", maxHistoryLimit, model.ErrInvalidArgument))
			return
		}

		limit = n
	}

	tasks, err := h.scheduler.History(c.Request.Context(), limit)
	if err != nil {
		zlog.Logger.Err(err).Msg("failed to read task history")
		respond.FailWithError(c, err)
		return
	}

	respond.OK(c, tasks)
}

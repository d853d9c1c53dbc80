package task

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/aliskhannn/media-service/internal/model"
)

// executor runs a decoded task.
type executor interface {
	Execute(ctx context.Context, t model.Task) error
}

// Handler decodes task messages and dispatches them to the scheduler.
type Handler struct {
	executor executor
}

// NewHandler creates a new Handler.
func NewHandler(e executor) *Handler {
	return &Handler{executor: e}
}

// Handle unmarshals msg into a task and executes it.
func (h *Handler) Handle(ctx context.Context, msg kafka.Message) error {
	var t model.Task
	if err := json.Unmarshal(msg.Value, &t); err != nil {
		return fmt.Errorf("handle task: failed to unmarshal: %w", err)
	}

	if err := h.executor.Execute(ctx, t); err != nil {
		return fmt.Errorf("handle task: %w", err)
	}

	return nil
}

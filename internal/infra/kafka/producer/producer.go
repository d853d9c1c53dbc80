package producer

import (
	"context"
	"encoding/json"
	"fmt"

	wbfkafka "github.com/wb-go/wbf/kafka"
	"github.com/wb-go/wbf/retry"

	"github.com/aliskhannn/media-service/internal/config"
	"github.com/aliskhannn/media-service/internal/model"
)

// Producer publishes background tasks to Kafka.
type Producer struct {
	Client   *wbfkafka.Producer
	strategy retry.Strategy
}

// New creates a new Producer.
// - cfg: Kafka configuration struct
// - s: retry strategy
func New(cfg *config.Kafka, s retry.Strategy) *Producer {
	return &Producer{
		Client:   wbfkafka.NewProducer(cfg.Brokers, cfg.Topic),
		strategy: s,
	}
}

// Push serializes the task to JSON and sends it to Kafka.
// The task ID is used as the message key for partitioning.
func (p *Producer) Push(ctx context.Context, t model.Task) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("push: failed to marshal task: %w", err)
	}

	if err = p.Client.SendWithRetry(ctx, p.strategy, []byte(t.ID.String()), data); err != nil {
		return fmt.Errorf("push: failed to send task: %v: %w", err, model.ErrUpstream)
	}

	return nil
}

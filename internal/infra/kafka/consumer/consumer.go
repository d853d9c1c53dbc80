package consumer

import (
	"context"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	wbfkafka "github.com/wb-go/wbf/kafka"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/media-service/internal/config"
)

const fetchBackoff = 500 * time.Millisecond

// handler processes one task message.
type handler interface {
	Handle(ctx context.Context, msg kafka.Message) error
}

// Consumer reads task messages from Kafka and hands them to a handler.
type Consumer struct {
	Client   *wbfkafka.Consumer
	handler  handler
	topic    string
	strategy retry.Strategy
}

// New creates a new Consumer.
// - cfg: Kafka configuration struct
// - s: retry strategy
// - h: handler for task messages
func New(cfg *config.Kafka, s retry.Strategy, h handler) *Consumer {
	return &Consumer{
		Client:   wbfkafka.NewConsumer(cfg.Brokers, cfg.Topic, cfg.GroupID),
		handler:  h,
		topic:    cfg.Topic,
		strategy: s,
	}
}

// Consume fetches messages until ctx is canceled. Offsets are committed after
// the handler returns, whatever the outcome: a failed task is recorded in
// history by the scheduler, redelivering it would only fail again.
func (c *Consumer) Consume(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	zlog.Logger.Info().
		Str("topic", c.topic).
		Msg("starting consumer")

	for {
		if ctx.Err() != nil {
			zlog.Logger.Info().Msg("shutdown signal received, stopping consumer")
			return
		}

		var msg kafka.Message
		err := retry.Do(func() error {
			var fetchErr error
			msg, fetchErr = c.Client.Fetch(ctx)
			return fetchErr
		}, c.strategy)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}

			zlog.Logger.Err(err).Msg("failed to fetch message")

			select {
			case <-ctx.Done():
			case <-time.After(fetchBackoff):
			}

			continue
		}

		if err := c.handler.Handle(ctx, msg); err != nil {
			zlog.Logger.Err(err).
				Str("message", string(msg.Value)).
				Msg("failed to handle task")
		}

		err = retry.Do(func() error {
			return c.Client.Commit(ctx, msg)
		}, c.strategy)
		if err != nil {
			zlog.Logger.Err(err).Msg("failed to commit message after retries")
			continue
		}

		zlog.Logger.Info().
			Int64("offset", msg.Offset).
			Msg("message handled")
	}
}

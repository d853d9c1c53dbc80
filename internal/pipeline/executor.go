package pipeline

import (
	"context"
	"fmt"
	"time"
)

// observer receives the outcome of every executed step.
type observer interface {
	ObserveStep(step string, took time.Duration, err error)
}

// Executor runs pipelines sequentially.
type Executor[T any] struct {
	observer observer
}

// Option configures an Executor.
type Option[T any] func(*Executor[T])

// WithObserver reports every step run to o.
func WithObserver[T any](o observer) Option[T] {
	return func(e *Executor[T]) { e.observer = o }
}

// NewExecutor creates a new Executor.
func NewExecutor[T any](opts ...Option[T]) *Executor[T] {
	e := &Executor[T]{}
	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Execute folds pc through every step of p in order. It stops at the first
// failing step and returns its error; cancellation of ctx is checked before
// each step.
func (e *Executor[T]) Execute(ctx context.Context, p *Pipeline[T], pc Context[T]) (Context[T], error) {
	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			return pc, fmt.Errorf("pipeline: cancelled before %s: %w", step.Name(), err)
		}

		start := time.Now()
		next, err := step.Execute(ctx, pc)

		if e.observer != nil {
			e.observer.ObserveStep(step.Name(), time.Since(start), err)
		}

		if err != nil {
			return pc, fmt.Errorf("pipeline: step %s failed: %w", step.Name(), err)
		}

		pc = next
	}

	return pc, nil
}

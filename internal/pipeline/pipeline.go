// Package pipeline threads a context value through an ordered list of steps.
package pipeline

import (
	"context"
)

// Context carries the attributes one pipeline run works on.
type Context[T any] struct {
	Attributes T
}

// NewContext wraps attrs.
func NewContext[T any](attrs T) Context[T] {
	return Context[T]{Attributes: attrs}
}

// Step is one unit of work. It receives the context produced by the
// previous step and returns the context for the next one.
type Step[T any] interface {
	Name() string
	Execute(ctx context.Context, pc Context[T]) (Context[T], error)
}

// StepFunc adapts a plain function into a Step. Sources and sinks are
// usually written this way.
type StepFunc[T any] struct {
	name string
	fn   func(ctx context.Context, pc Context[T]) (Context[T], error)
}

// NewStepFunc names fn as a step.
func NewStepFunc[T any](name string, fn func(ctx context.Context, pc Context[T]) (Context[T], error)) StepFunc[T] {
	return StepFunc[T]{name: name, fn: fn}
}

// Name returns the step name.
func (s StepFunc[T]) Name() string { return s.name }

// Execute calls the wrapped function.
func (s StepFunc[T]) Execute(ctx context.Context, pc Context[T]) (Context[T], error) {
	return s.fn(ctx, pc)
}

// Pipeline is an ordered list of steps.
type Pipeline[T any] struct {
	steps []Step[T]
}

// New builds a pipeline running steps in the given order.
func New[T any](steps ...Step[T]) *Pipeline[T] {
	return &Pipeline[T]{steps: append([]Step[T](nil), steps...)}
}

// Add appends steps and returns p for chaining.
func (p *Pipeline[T]) Add(steps ...Step[T]) *Pipeline[T] {
	p.steps = append(p.steps, steps...)
	return p
}

// Steps returns a copy of the steps.
func (p *Pipeline[T]) Steps() []Step[T] {
	return append([]Step[T](nil), p.steps...)
}

// Len returns the number of steps.
func (p *Pipeline[T]) Len() int { return len(p.steps) }

package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func appendStep(name, v string) Step[[]string] {
	return NewStepFunc(name, func(_ context.Context, pc Context[[]string]) (Context[[]string], error) {
		pc.Attributes = append(pc.Attributes, v)
		return pc, nil
	})
}

type recorder struct {
	steps []string
	errs  int
}

func (r *recorder) ObserveStep(step string, _ time.Duration, err error) {
	r.steps = append(r.steps, step)
	if err != nil {
		r.errs++
	}
}

func TestExecutor_RunsStepsInOrder(t *testing.T) {
	rec := &recorder{}
	e := NewExecutor(WithObserver[[]string](rec))

	p := New[[]string](appendStep("a", "1"), appendStep("b", "2")).Add(appendStep("c", "3"))

	out, err := e.Execute(context.Background(), p, NewContext[[]string](nil))
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3"}, out.Attributes)
	assert.Equal(t, []string{"a", "b", "c"}, rec.steps)
	assert.Equal(t, 3, p.Len())
}

func TestExecutor_StopsAtFirstError(t *testing.T) {
	boom := errors.New("boom")
	rec := &recorder{}
	e := NewExecutor(WithObserver[[]string](rec))

	failing := NewStepFunc("fail", func(_ context.Context, pc Context[[]string]) (Context[[]string], error) {
		return pc, boom
	})

	p := New[[]string](appendStep("a", "1"), failing, appendStep("c", "3"))

	_, err := e.Execute(context.Background(), p, NewContext[[]string](nil))
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "fail")
	assert.Equal(t, []string{"a", "fail"}, rec.steps)
	assert.Equal(t, 1, rec.errs)
}

func TestExecutor_ChecksCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	cancelling := NewStepFunc("cancel", func(_ context.Context, pc Context[[]string]) (Context[[]string], error) {
		cancel()
		return pc, nil
	})

	p := New[[]string](cancelling, appendStep("never", "x"))

	out, err := NewExecutor[[]string]().Execute(ctx, p, NewContext[[]string](nil))
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, out.Attributes)
}

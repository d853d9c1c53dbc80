package task

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aliskhannn/media-service/internal/model"
)

type recordingExecutor struct {
	got []model.Task
	err error
}

func (r *recordingExecutor) Execute(_ context.Context, t model.Task) error {
	r.got = append(r.got, t)
	return r.err
}

func TestHandle_DispatchesDecodedTask(t *testing.T) {
	exec := &recordingExecutor{}
	task := model.NewClearCacheTask(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))

	data, err := json.Marshal(task)
	require.NoError(t, err)

	require.NoError(t, NewHandler(exec).Handle(context.Background(), kafka.Message{Value: data}))
	require.Len(t, exec.got, 1)
	assert.Equal(t, task.ID, exec.got[0].ID)
	require.NotNil(t, exec.got[0].Details.ClearCache)
	assert.True(t, task.Details.ClearCache.BeforeDate.Equal(exec.got[0].Details.ClearCache.BeforeDate))
}

func TestHandle_Errors(t *testing.T) {
	exec := &recordingExecutor{err: errors.New("boom")}
	h := NewHandler(exec)

	assert.Error(t, h.Handle(context.Background(), kafka.Message{Value: []byte("{")}))
	assert.Empty(t, exec.got)

	data, err := json.Marshal(model.NewClearCacheTask(time.Now()))
	require.NoError(t, err)
	assert.Error(t, h.Handle(context.Background(), kafka.Message{Value: data}))
}

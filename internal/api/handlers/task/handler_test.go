package task

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/ginext"

	"github.com/aliskhannn/media-service/internal/model"
)

type stubScheduler struct {
	queued []model.Task
	limit  int
}

func (s *stubScheduler) Enqueue(_ context.Context, t model.Task) (model.Task, error) {
	s.queued = append(s.queued, t)
	return t, nil
}

func (s *stubScheduler) History(_ context.Context, limit int) ([]model.Task, error) {
	s.limit = limit
	return s.queued, nil
}

func setup() (*stubScheduler, *ginext.Engine) {
	s := &stubScheduler{}
	h := NewHandler(s)

	r := ginext.New()
	r.DELETE("/cache", h.ClearCache)
	r.GET("/tasks", h.History)

	return s, r
}

func serve(r http.Handler, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, target, nil))

	return w
}

func TestClearCache(t *testing.T) {
	s, r := setup()

	w := serve(r, http.MethodDelete, "/cache?before=2024-05-01T10:00:00Z")
	require.Equal(t, http.StatusAccepted, w.Code)
	require.Len(t, s.queued, 1)

	task := s.queued[0]
	assert.Equal(t, model.TaskKindClearCache, task.Kind)
	assert.Equal(t, model.TaskStatusQueued, task.Status)
	assert.True(t, task.Details.ClearCache.BeforeDate.Equal(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)))

	var out struct {
		Result model.Task `json:"result"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, task.ID, out.Result.ID)

	assert.Equal(t, http.StatusBadRequest, serve(r, http.MethodDelete, "/cache?before=yesterday").Code)
}

func TestHistory(t *testing.T) {
	s, r := setup()

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/tasks").Code)
	assert.Equal(t, defaultHistoryLimit, s.limit)

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/tasks?limit=5").Code)
	assert.Equal(t, 5, s.limit)

	assert.Equal(t, http.StatusBadRequest, serve(r, http.MethodGet, "/tasks?limit=0").Code)
}

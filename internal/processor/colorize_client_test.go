package processor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aliskhannn/media-service/internal/model"
)

func newPredictionServer(t *testing.T, finalStatus string, pendingPolls int32) (*httptest.Server, *atomic.Int32) {
	t.Helper()

	var polls atomic.Int32
	mux := http.NewServeMux()

	mux.HandleFunc("/predictions", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var body struct {
			Version string         `json:"version"`
			Input   map[string]any `json:"input"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "v1", body.Version)
		assert.Equal(t, "Artistic", body.Input["model_name"])
		assert.Contains(t, body.Input["input_image"], "data:image/png;base64,")

		_ = json.NewEncoder(w).Encode(map[string]any{"id": "p1", "status": "starting"})
	})

	mux.HandleFunc("/predictions/p1", func(w http.ResponseWriter, r *http.Request) {
		n := polls.Add(1)

		status := "processing"
		if n > pendingPolls {
			status = finalStatus
		}

		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "p1",
			"status": status,
			"output": []string{"http://" + r.Host + "/out.png"},
		})
	})

	mux.HandleFunc("/out.png", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("colorized"))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return srv, &polls
}

func testColorizeConfig(endpoint string) ColorizeConfig {
	return ColorizeConfig{
		Endpoint:     endpoint,
		Token:        "secret",
		Version:      "v1",
		ModelName:    "Artistic",
		RenderFactor: 35,
		PollInterval: 5 * time.Millisecond,
		MaxWait:      500 * time.Millisecond,
	}
}

func TestColorizeClient_PollsUntilSucceeded(t *testing.T) {
	srv, polls := newPredictionServer(t, "succeeded", 2)
	c := NewColorizeClient(testColorizeConfig(srv.URL), srv.Client())

	out, err := c.Colorize(context.Background(), ColorizeRequest{Image: []byte{1, 2, 3}, ContentType: "image/png"})
	require.NoError(t, err)

	assert.Equal(t, []byte("colorized"), out)
	assert.Equal(t, int32(3), polls.Load())
}

func TestColorizeClient_Failed(t *testing.T) {
	srv, _ := newPredictionServer(t, "failed", 0)
	c := NewColorizeClient(testColorizeConfig(srv.URL), srv.Client())

	_, err := c.Colorize(context.Background(), ColorizeRequest{Image: []byte{1}, ContentType: "image/png"})
	assert.ErrorIs(t, err, model.ErrUpstream)
}

func TestColorizeClient_GivesUpAfterMaxWait(t *testing.T) {
	srv, _ := newPredictionServer(t, "succeeded", 1000)

	cfg := testColorizeConfig(srv.URL)
	cfg.MaxWait = 30 * time.Millisecond
	c := NewColorizeClient(cfg, srv.Client())

	_, err := c.Colorize(context.Background(), ColorizeRequest{Image: []byte{1}, ContentType: "image/png"})
	assert.ErrorIs(t, err, model.ErrUpstream)
}

func TestColorizeClient_NotConfigured(t *testing.T) {
	c := NewColorizeClient(ColorizeConfig{}, nil)

	_, err := c.Colorize(context.Background(), ColorizeRequest{Image: []byte{1}})
	assert.ErrorIs(t, err, model.ErrUpstream)
}

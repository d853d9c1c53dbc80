package processor

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/aliskhannn/media-service/internal/model"
)

const (
	defaultPollInterval = 5 * time.Second
	defaultMaxWait      = 2 * time.Minute
)

var errPredictionPending = errors.New("prediction pending")

// ColorizeConfig configures the prediction API used for colorization.
type ColorizeConfig struct {
	Endpoint     string
	Token        string
	Version      string
	ModelName    string
	RenderFactor int
	PollInterval time.Duration
	MaxWait      time.Duration
}

// ColorizeRequest is one image to colorize. Zero fields fall back to the
// client configuration.
type ColorizeRequest struct {
	Image        []byte
	ContentType  string
	ModelName    string
	RenderFactor int
}

// ColorizeClient talks to a prediction API: it creates a prediction, polls it
// until it settles and downloads the output.
type ColorizeClient struct {
	cfg        ColorizeConfig
	httpClient *http.Client
}

// NewColorizeClient creates a new ColorizeClient. A nil httpClient uses a
// client with a 30 second timeout.
func NewColorizeClient(cfg ColorizeConfig, httpClient *http.Client) *ColorizeClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}

	if cfg.MaxWait <= 0 {
		cfg.MaxWait = defaultMaxWait
	}

	return &ColorizeClient{cfg: cfg, httpClient: httpClient}
}

type prediction struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Output json.RawMessage `json:"output"`
	Error  any             `json:"error"`
	URLs   struct {
		Get string `json:"get"`
	} `json:"urls"`
}

func (p prediction) outputURL() (string, error) {
	var single string
	if err := json.Unmarshal(p.Output, &single); err == nil && single != "" {
		return single, nil
	}

	var many []string
	if err := json.Unmarshal(p.Output, &many); err == nil && len(many) > 0 {
		return many[len(many)-1], nil
	}

	return "", fmt.Errorf("prediction %s has no output: %w", p.ID, model.ErrUpstream)
}

// Colorize blocks until the prediction settles, ctx is cancelled or the
// configured maximum wait elapses.
func (c *ColorizeClient) Colorize(ctx context.Context, req ColorizeRequest) ([]byte, error) {
	if c.cfg.Endpoint == "" || c.cfg.Token == "" {
		return nil, fmt.Errorf("colorize: service is not configured: %w", model.ErrUpstream)
	}

	p, err := c.create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("colorize: failed to create prediction: %w", err)
	}

	p, err = c.await(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("colorize: %w", err)
	}

	url, err := p.outputURL()
	if err != nil {
		return nil, fmt.Errorf("colorize: %w", err)
	}

	body, err := c.do(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("colorize: failed to download output: %w", err)
	}

	return body, nil
}

func (c *ColorizeClient) create(ctx context.Context, req ColorizeRequest) (prediction, error) {
	modelName := req.ModelName
	if modelName == "" {
		modelName = c.cfg.ModelName
	}

	renderFactor := req.RenderFactor
	if renderFactor == 0 {
		renderFactor = c.cfg.RenderFactor
	}

	contentType := req.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	input := map[string]any{
		"input_image": "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(req.Image),
	}
	if modelName != "" {
		input["model_name"] = modelName
	}
	if renderFactor > 0 {
		input["render_factor"] = renderFactor
	}

	payload, err := json.Marshal(map[string]any{"version": c.cfg.Version, "input": input})
	if err != nil {
		return prediction{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	raw, err := c.do(ctx, http.MethodPost, c.endpoint("/predictions"), payload)
	if err != nil {
		return prediction{}, err
	}

	var p prediction
	if err := json.Unmarshal(raw, &p); err != nil {
		return prediction{}, fmt.Errorf("failed to decode prediction: %v: %w", err, model.ErrUpstream)
	}

	return p, nil
}

func (c *ColorizeClient) await(ctx context.Context, p prediction) (prediction, error) {
	url := p.URLs.Get
	if url == "" {
		url = c.endpoint("/predictions/" + p.ID)
	}

	check := func() error {
		switch p.Status {
		case "succeeded":
			return nil
		case "failed", "canceled":
			return backoff.Permanent(fmt.Errorf("prediction %s %s: %v: %w", p.ID, p.Status, p.Error, model.ErrUpstream))
		}

		raw, err := c.do(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}

		var next prediction
		if err := json.Unmarshal(raw, &next); err != nil {
			return backoff.Permanent(fmt.Errorf("failed to decode prediction: %v: %w", err, model.ErrUpstream))
		}
		p = next

		switch p.Status {
		case "succeeded":
			return nil
		case "failed", "canceled":
			return backoff.Permanent(fmt.Errorf("prediction %s %s: %v: %w", p.ID, p.Status, p.Error, model.ErrUpstream))
		default:
			return errPredictionPending
		}
	}

	retries := uint64(c.cfg.MaxWait / c.cfg.PollInterval)
	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(c.cfg.PollInterval), retries), ctx)

	if err := backoff.Retry(check, b); err != nil {
		if errors.Is(err, errPredictionPending) {
			return p, fmt.Errorf("prediction %s still %s after %s: %w", p.ID, p.Status, c.cfg.MaxWait, model.ErrUpstream)
		}

		return p, err
	}

	return p, nil
}

func (c *ColorizeClient) endpoint(suffix string) string {
	return strings.TrimSuffix(c.cfg.Endpoint, "/") + suffix
}

func (c *ColorizeClient) do(ctx context.Context, method, url string, payload []byte) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %v: %w", method, url, err, model.ErrUpstream)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: failed to read body: %v: %w", method, url, err, model.ErrUpstream)
	}

	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("%s %s: status %d: %w", method, url, resp.StatusCode, model.ErrUpstream)
	}

	return raw, nil
}

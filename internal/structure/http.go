package structure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPConfig points at a structure-detection service.
type HTTPConfig struct {
	Endpoint string
	// InitTimeout bounds the health probe made at construction.
	InitTimeout time.Duration
}

// HTTPModel calls a structure service: GET /healthz at construction and
// POST /detect with a PNG body per call, answered by {"results": [...]}.
type HTTPModel struct {
	endpoint string
	client   *http.Client
}

type detectResponse struct {
	Results []Detection `json:"results"`
}

// NewHTTPModel probes the service and fails with ErrUnavailable when it
// does not answer the health check.
func NewHTTPModel(cfg HTTPConfig, client *http.Client) (*HTTPModel, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("%w: no endpoint configured", ErrUnavailable)
	}
	if client == nil {
		client = http.DefaultClient
	}
	if cfg.InitTimeout <= 0 {
		cfg.InitTimeout = 5 * time.Second
	}

	m := &HTTPModel{endpoint: strings.TrimRight(cfg.Endpoint, "/"), client: client}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.InitTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.endpoint+"/healthz", nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: health check returned %s", ErrUnavailable, resp.Status)
	}
	return m, nil
}

// HTTPInitializer adapts NewHTTPModel to an Initializer.
func HTTPInitializer(cfg HTTPConfig, client *http.Client) Initializer {
	return func() (Model, error) {
		return NewHTTPModel(cfg, client)
	}
}

// Detect posts the image and decodes the detections.
func (m *HTTPModel) Detect(ctx context.Context, img image.Image) ([]Detection, error) {
	var body bytes.Buffer
	if err := png.Encode(&body, img); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint+"/detect", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "image/png")

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("structure request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("structure service returned %s: %s", resp.Status, strings.TrimSpace(string(msg)))
	}

	var out detectResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode detections: %w", err)
	}
	return out.Results, nil
}

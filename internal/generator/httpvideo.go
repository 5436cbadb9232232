// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ManuGH/shotplan/internal/domain/ports"
	"github.com/ManuGH/shotplan/internal/payload"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// ErrNoEndpoint is returned when neither the profile nor the submitter
// configuration names a provider endpoint.
var ErrNoEndpoint = errors.New("no video endpoint configured")

// HTTPVideo posts adapted requests as JSON to a video provider.
type HTTPVideo struct {
	client   *http.Client
	endpoint string
}

// NewHTTPClient returns a client whose transport is traced.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

// NewHTTPVideo builds a submitter. endpoint is used when a request carries
// no profile endpoint of its own.
func NewHTTPVideo(client *http.Client, endpoint string) *HTTPVideo {
	if client == nil {
		client = NewHTTPClient(5 * time.Minute)
	}
	return &HTTPVideo{client: client, endpoint: strings.TrimSpace(endpoint)}
}

// Submit sends one request and decodes the provider's answer.
func (h *HTTPVideo) Submit(ctx context.Context, req payload.Request) (ports.VideoResult, error) {
	endpoint := req.Endpoint
	if endpoint == "" {
		endpoint = h.endpoint
	}
	if endpoint == "" {
		return ports.VideoResult{}, ErrNoEndpoint
	}

	body, err := json.Marshal(req)
	if err != nil {
		return ports.VideoResult{}, fmt.Errorf("encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return ports.VideoResult{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if req.ShotID != "" {
		httpReq.Header.Set("X-Shot-ID", req.ShotID)
	}

	start := time.Now()
	resp, err := h.client.Do(httpReq)
	if err != nil {
		return ports.VideoResult{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return ports.VideoResult{}, fmt.Errorf("video provider returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var res ports.VideoResult
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&res); err != nil {
		return ports.VideoResult{}, fmt.Errorf("decode video response: %w", err)
	}
	res.Elapsed = time.Since(start)
	return res, nil
}

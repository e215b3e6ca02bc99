package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Client calls the scorecast HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a client with the given request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{baseURL: baseURL, http: &http.Client{Timeout: timeout}}
}

type health struct {
	Status       string `json:"status"`
	ModelsLoaded int    `json:"models_loaded"`
}

// Health returns the number of models the service reports as loaded.
func (c *Client) Health(ctx context.Context) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", http.NoBody)
	if err != nil {
		return 0, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%w: status %d", ErrUnhealthy, resp.StatusCode)
	}
	var h health
	if err := json.NewDecoder(resp.Body).Decode(&h); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnhealthy, err)
	}
	return h.ModelsLoaded, nil
}

// Predict posts st and decodes a success response. runID is sent as the
// request id prefix so server logs can be matched to a run.
func (c *Client) Predict(ctx context.Context, runID string, st MatchState) (PredictResponse, error) {
	var out PredictResponse
	body, err := json.Marshal(st)
	if err != nil {
		return out, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return out, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", runID+"-"+uuid.NewString()[:8])

	resp, err := c.http.Do(req)
	if err != nil {
		return out, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return out, err
	}
	if resp.StatusCode != http.StatusOK {
		return out, fmt.Errorf("%w: status %d: %s", ErrRejected, resp.StatusCode, bytes.TrimSpace(data))
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("%w: %v", ErrRejected, err)
	}
	return out, nil
}

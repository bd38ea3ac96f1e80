package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Remote asks a model server for the probability.
type Remote struct {
	url    string
	client *http.Client
}

type predictRequest struct {
	Features []float64 `json:"features"`
}

type predictResponse struct {
	Probability *float64 `json:"probability"`
}

func NewRemote(url string, timeout time.Duration) *Remote {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Remote{url: url, client: &http.Client{Timeout: timeout}}
}

func (r *Remote) Predict(ctx context.Context, inputs []float64) (float64, error) {
	if len(inputs) != Inputs {
		return 0, fmt.Errorf("%w: got %d, want %d", ErrInputWidth, len(inputs), Inputs)
	}
	body, err := json.Marshal(predictRequest{Features: inputs})
	if err != nil {
		return 0, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("model server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return 0, fmt.Errorf("model server returned %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
	}

	var out predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("decode model response: %w", err)
	}
	if out.Probability == nil {
		return 0, fmt.Errorf("%w: missing probability", ErrBadProbability)
	}
	return checkProbability(*out.Probability)
}

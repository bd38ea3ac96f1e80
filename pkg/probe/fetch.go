package probe

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"phishjudge/pkg/logger"
)

// Hop is one intermediate redirect response.
type Hop struct {
	URL        string `json:"url"`
	StatusCode int    `json:"status_code"`
}

// FetchResult is the outcome of one GET. A failed fetch has an empty body,
// no redirects and no headers.
type FetchResult struct {
	URL        string
	StatusCode int
	Body       string
	Redirects  []Hop
	Header     http.Header
	// TooManyRedirects is set when the chain was cut at MaxRedirects. The
	// result then describes the last redirect response and is not a failure.
	TooManyRedirects bool
	Err              error
}

// Failed reports whether the page could not be retrieved.
func (r FetchResult) Failed() bool {
	return r.Err != nil
}

// RedirectCount is the number of intermediate redirect responses.
func (r FetchResult) RedirectCount() int {
	return len(r.Redirects)
}

func failedFetch(rawURL string, err error) FetchResult {
	return FetchResult{URL: rawURL, Err: err}
}

// Fetch GETs rawURL following redirects and records every hop.
func (p *Prober) Fetch(ctx context.Context, rawURL string) FetchResult {
	var (
		hops   []Hop
		cutOff bool
	)

	client := *p.httpClient
	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		status := 0
		if req.Response != nil {
			status = req.Response.StatusCode
		}
		hops = append(hops, Hop{URL: via[len(via)-1].URL.String(), StatusCode: status})
		if len(via) > p.cfg.MaxRedirects {
			cutOff = true
			return http.ErrUseLastResponse
		}
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return failedFetch(rawURL, fmt.Errorf("failed to create http request: %w", err))
	}
	req.Header.Set("User-Agent", p.cfg.UserAgent)

	resp, err := client.Do(req)
	if err != nil {
		p.log.Debug("fetch failed", logger.String("url", rawURL), logger.Error(err))
		return failedFetch(rawURL, fmt.Errorf("http get failed: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, p.cfg.MaxBodyBytes))
	if err != nil {
		return failedFetch(rawURL, fmt.Errorf("read body: %w", err))
	}

	if cutOff {
		p.log.Debug("redirect limit reached", logger.String("url", rawURL), logger.Int("hops", len(hops)))
	}
	return FetchResult{
		URL:              resp.Request.URL.String(),
		StatusCode:       resp.StatusCode,
		Body:             string(body),
		Redirects:        hops,
		Header:           resp.Header.Clone(),
		TooManyRedirects: cutOff,
	}
}

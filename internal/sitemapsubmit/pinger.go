package sitemapsubmit

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPDoer is the part of *http.Client the pinger needs.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Pinger struct {
	client    HTTPDoer
	userAgent string
	maxBody   int64
	metrics   *Metrics
}

type PingerOption func(*Pinger)

func WithUserAgent(ua string) PingerOption {
	return func(p *Pinger) { p.userAgent = ua }
}

// WithMaxBody caps how much of the response body is kept on the result.
func WithMaxBody(n int64) PingerOption {
	return func(p *Pinger) { p.maxBody = n }
}

func WithPingMetrics(m *Metrics) PingerOption {
	return func(p *Pinger) { p.metrics = m }
}

func NewPinger(client HTTPDoer, opts ...PingerOption) *Pinger {
	if client == nil {
		client = &http.Client{Timeout: defaultPingTimeout}
	}
	p := &Pinger{
		client:    client,
		userAgent: defaultUserAgent,
		maxBody:   defaultMaxBody,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Ping issues one GET against url and reports whether the response status
// equals expectedStatus (200 when zero). It never returns an error: transport
// failures come back as an unsuccessful result.
func (p *Pinger) Ping(ctx context.Context, url string, expectedStatus int) PingResult {
	if expectedStatus == 0 {
		expectedStatus = http.StatusOK
	}
	start := time.Now()
	res := p.do(ctx, url, expectedStatus)
	p.metrics.observePing(res, time.Since(start))
	return res
}

func (p *Pinger) do(ctx context.Context, url string, expectedStatus int) PingResult {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return PingResult{ErrorMessage: fmt.Sprintf("invalid request: %v", err)}
	}
	if p.userAgent != "" {
		req.Header.Set("User-Agent", p.userAgent)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return PingResult{ErrorMessage: fmt.Sprintf("request failed: %v", err)}
	}
	defer resp.Body.Close()

	var body []byte
	if p.maxBody > 0 {
		body, _ = io.ReadAll(io.LimitReader(resp.Body, p.maxBody))
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	res := PingResult{
		Success:    resp.StatusCode == expectedStatus,
		HTTPStatus: resp.StatusCode,
		Body:       string(body),
	}
	if !res.Success {
		res.ErrorMessage = fmt.Sprintf("Expected HTTP %d but received %d", expectedStatus, resp.StatusCode)
	}
	return res
}

// pingSummary is a short form used in process logs.
func pingSummary(r PingResult) string {
	if r.Success {
		return "ok"
	}
	return strings.TrimSpace(r.ErrorMessage)
}

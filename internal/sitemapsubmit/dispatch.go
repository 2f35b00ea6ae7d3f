package sitemapsubmit

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	msgNoSitemap    = "ERROR: Sitemap not submitted, no valid sitemap URL configured"
	msgCacheCleared = "Sitemap cache cleared"
)

type EndpointPinger interface {
	Ping(ctx context.Context, url string, expectedStatus int) PingResult
}

type Invalidator interface {
	Invalidate(ctx context.Context) bool
}

type DispatcherConfig struct {
	Endpoints     []Endpoint
	SitemapURL    string
	ClearCache    bool
	WarnOnFailure bool
}

// Dispatcher fans a content change out to every configured endpoint. It keeps
// no per-event state and is safe for concurrent use.
type Dispatcher struct {
	endpoints     []Endpoint
	sitemapURL    string
	clearCache    bool
	warnOnFailure bool

	pinger      EndpointPinger
	invalidator Invalidator
	log         ActivityLog
	metrics     *Metrics
	warnLog     *rateLimitedLogger
	newID       func() string
}

type DispatcherOption func(*Dispatcher)

func WithDispatchMetrics(m *Metrics) DispatcherOption {
	return func(d *Dispatcher) { d.metrics = m }
}

func withIDFunc(f func() string) DispatcherOption {
	return func(d *Dispatcher) { d.newID = f }
}

func NewDispatcher(cfg DispatcherConfig, pinger EndpointPinger, invalidator Invalidator, log ActivityLog, opts ...DispatcherOption) *Dispatcher {
	endpoints := make([]Endpoint, len(cfg.Endpoints))
	copy(endpoints, cfg.Endpoints)
	if pinger == nil {
		pinger = NewPinger(nil)
	}
	if log == nil {
		log = NewSlogLog(nil)
	}
	d := &Dispatcher{
		endpoints:     endpoints,
		sitemapURL:    cfg.SitemapURL,
		clearCache:    cfg.ClearCache,
		warnOnFailure: cfg.WarnOnFailure,
		pinger:        pinger,
		invalidator:   invalidator,
		log:           log,
		warnLog:       newRateLimitedLogger(time.Minute, nil),
		newID:         uuid.NewString,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// NotifyChange submits the sitemap to every endpoint, in configuration order,
// after clearing the companion cache when enabled. Failures are recorded in
// the outcome; nothing is returned as an error.
func (d *Dispatcher) NotifyChange(ctx context.Context, cc ChangeContext) DispatchOutcome {
	out := DispatchOutcome{DispatchID: d.newID()}
	parts := []string{
		fmt.Sprintf("ID: %d", cc.PageID),
		fmt.Sprintf("URL: %s", cc.PageURL),
	}

	if !cc.SitemapVerified {
		out.Skipped = true
		out.Message = strings.Join(append(parts, msgNoSitemap), ", ")
		if d.warnOnFailure {
			out.Warning = fmt.Sprintf("%s does not exist. Sitemap was not submitted to search engines.", d.sitemapURL)
			d.warnLog.Warn("sitemap not submitted", "sitemap", d.sitemapURL, "page_id", cc.PageID)
		}
		d.metrics.observeDispatch(true)
		d.save(ctx, out)
		return out
	}

	if d.clearCache && d.invalidator != nil && d.invalidator.Invalidate(ctx) {
		out.CacheCleared = true
		parts = append(parts, msgCacheCleared)
	}

	out.Results = make([]EndpointResult, 0, len(d.endpoints))
	for _, e := range d.endpoints {
		url := e.Resolve(d.sitemapURL)
		res := d.pinger.Ping(ctx, url, http.StatusOK)
		out.Results = append(out.Results, EndpointResult{Endpoint: e.Name, URL: url, Result: res})
		if res.Success {
			parts = append(parts, e.Name+" - Success")
		} else {
			parts = append(parts, e.Name+" - ERROR: "+res.ErrorMessage)
		}
		slog.Debug("endpoint pinged",
			"dispatch_id", out.DispatchID,
			"endpoint", e.Name,
			"status", res.HTTPStatus,
			"result", pingSummary(res),
		)
	}

	out.Message = strings.Join(parts, ", ")
	d.metrics.observeDispatch(false)
	d.save(ctx, out)
	return out
}

func (d *Dispatcher) save(ctx context.Context, out DispatchOutcome) {
	if err := d.log.Save(ctx, LogChannel, out.Message); err != nil {
		slog.Warn("activity log write failed", "dispatch_id", out.DispatchID, "error", err)
	}
}

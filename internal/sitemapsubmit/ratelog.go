package sitemapsubmit

import (
	"log/slog"
	"sync"
	"time"
)

// rateLimitedLogger emits at most one warning per interval.
type rateLimitedLogger struct {
	mu       sync.Mutex
	lastAt   time.Time
	interval time.Duration
	logger   *slog.Logger
}

func newRateLimitedLogger(interval time.Duration, logger *slog.Logger) *rateLimitedLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &rateLimitedLogger{interval: interval, logger: logger}
}

// Warn reports whether the warning was emitted.
func (l *rateLimitedLogger) Warn(msg string, args ...any) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now()
	if !l.lastAt.IsZero() && now.Sub(l.lastAt) < l.interval {
		return false
	}
	l.lastAt = now
	l.logger.Warn(msg, args...)
	return true
}

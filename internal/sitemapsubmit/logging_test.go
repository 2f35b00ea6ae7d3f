package sitemapsubmit

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitLogger(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	InitLogger(&buf, "warn")
	slog.Info("dropped")
	slog.Warn("kept", "endpoint", "Google")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "kept", line["message"])
	assert.Equal(t, "Google", line["endpoint"])
	assert.Contains(t, line, "timestamp")
	assert.NotContains(t, line, "msg")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel(" warn "))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel("whatever"))
}

func TestRateLimitedLogger(t *testing.T) {
	var buf bytes.Buffer
	l := newRateLimitedLogger(time.Hour, slog.New(slog.NewTextHandler(&buf, nil)))

	assert.True(t, l.Warn("sitemap not submitted"))
	assert.False(t, l.Warn("sitemap not submitted"))
	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("sitemap not submitted")))

	l.interval = 0
	assert.True(t, l.Warn("sitemap not submitted"))
}

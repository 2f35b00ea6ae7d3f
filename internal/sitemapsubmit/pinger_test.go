package sitemapsubmit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPing_Success(t *testing.T) {
	var gotUA, gotMethod string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotMethod = r.Method
		_, _ = w.Write([]byte("Sitemap Notification Received"))
	}))
	defer server.Close()

	p := NewPinger(server.Client(), WithUserAgent("test-agent"))
	res := p.Ping(context.Background(), server.URL, 200)

	assert.True(t, res.Success)
	assert.Equal(t, http.StatusOK, res.HTTPStatus)
	assert.Empty(t, res.ErrorMessage)
	assert.Equal(t, "Sitemap Notification Received", res.Body)
	assert.Equal(t, "test-agent", gotUA)
	assert.Equal(t, http.MethodGet, gotMethod)
}

func TestPing_StatusMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	res := NewPinger(server.Client()).Ping(context.Background(), server.URL, 200)

	assert.False(t, res.Success)
	assert.Equal(t, http.StatusNotFound, res.HTTPStatus)
	assert.Equal(t, "Expected HTTP 200 but received 404", res.ErrorMessage)
	assert.Contains(t, res.ErrorMessage, "200")
	assert.Contains(t, res.ErrorMessage, "404")
}

func TestPing_DefaultsTo200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	p := NewPinger(server.Client())

	res := p.Ping(context.Background(), server.URL, 0)
	assert.False(t, res.Success)
	assert.Equal(t, "Expected HTTP 200 but received 204", res.ErrorMessage)

	res = p.Ping(context.Background(), server.URL, http.StatusNoContent)
	assert.True(t, res.Success)
}

func TestPing_NetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	res := NewPinger(nil).Ping(context.Background(), url, 200)

	assert.False(t, res.Success)
	assert.Zero(t, res.HTTPStatus)
	assert.Contains(t, res.ErrorMessage, "request failed")
}

func TestPing_InvalidURL(t *testing.T) {
	res := NewPinger(nil).Ping(context.Background(), "http://bad host/", 200)
	assert.False(t, res.Success)
	assert.NotEmpty(t, res.ErrorMessage)
}

func TestPing_BodyIsCapped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("0123456789"))
	}))
	defer server.Close()

	res := NewPinger(server.Client(), WithMaxBody(4)).Ping(context.Background(), server.URL, 200)
	require.True(t, res.Success)
	assert.Equal(t, "0123", res.Body)
}

func TestPing_RecordsMetrics(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	m := NewMetrics(prometheus.NewRegistry())
	p := NewPinger(server.Client(), WithPingMetrics(m))
	p.Ping(context.Background(), server.URL, 200)
	p.Ping(context.Background(), server.URL+"/missing", 200)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.PingsTotal.WithLabelValues("success", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PingsTotal.WithLabelValues("failure", "404")))
}

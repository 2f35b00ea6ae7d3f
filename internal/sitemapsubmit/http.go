package sitemapsubmit

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler exposes the host-facing endpoints.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /events", s.handleEvent)
	mux.HandleFunc("POST /verify", s.handleVerify)
	mux.HandleFunc("POST /invalidate", s.handleInvalidate)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	var h http.Handler = mux
	h = s.metricsMiddleware(h)
	h = loggingMiddleware(h)
	return h
}

func (s *Service) handleEvent(w http.ResponseWriter, r *http.Request) {
	var ev PageEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if ev.Kind == "" {
		writeJSONError(w, "kind is required", http.StatusBadRequest)
		return
	}

	out, ok := s.HandleEvent(r.Context(), ev)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusAccepted, out)
}

type verifyResponse struct {
	Sitemap SitemapLocation `json:"sitemap"`
	Error   string          `json:"error,omitempty"`
}

func (s *Service) handleVerify(w http.ResponseWriter, r *http.Request) {
	loc, err := s.Verify(r.Context())
	resp := verifyResponse{Sitemap: loc}
	if err != nil {
		var verr *VerifyError
		if !errors.As(err, &verr) {
			writeJSONError(w, "internal server error", http.StatusInternalServerError)
			return
		}
		resp.Error = verr.Message
		writeJSON(w, http.StatusUnprocessableEntity, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Service) handleInvalidate(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"cleared": s.Invalidate(r.Context())})
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to write JSON response", "error", err)
	}
}

func writeJSONError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]string{"error": message})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration_ms", time.Since(start).Milliseconds(),
			"remote_addr", r.RemoteAddr,
		)
	})
}

func (s *Service) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)
		status := strconv.Itoa(rw.status)
		s.metrics.HTTPRequestDuration.WithLabelValues(r.Method, r.URL.Path, status).Observe(time.Since(start).Seconds())
		s.metrics.HTTPRequestsTotal.WithLabelValues(r.Method, r.URL.Path, status).Inc()
	})
}

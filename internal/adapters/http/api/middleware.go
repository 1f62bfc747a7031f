// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/voralis/envrisk/pkg/metrics"
)

// MetricsMiddleware instruments a handler with request, latency and
// error metrics. The endpoint label is the fixed route name supplied at
// registration, never the raw path, so report and profile IDs in the
// URL cannot blow up the label cardinality.
func MetricsMiddleware(next http.HandlerFunc, endpoint string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		durationMs := float64(time.Since(start).Milliseconds())
		status := strconv.Itoa(rec.status)

		metrics.RecordHTTPRequest(endpoint, r.Method, status)
		metrics.RecordHTTPRequestDuration(endpoint, r.Method, status, durationMs)

		if rec.status >= http.StatusBadRequest {
			kind := errorKind(rec.status)
			metrics.RecordErrorByEndpoint(endpoint, r.Method, kind)
			metrics.RecordErrorByType(kind, errorSeverity(rec.status))
		}
	}
}

// errorKind classifies a failure status for the error counters. The
// buckets mirror respondError: validation failures, missing resources,
// the not-ready window, and everything else.
func errorKind(status int) string {
	switch {
	case status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable:
		return "server_error"
	case status == http.StatusServiceUnavailable:
		return "unavailable"
	case status == http.StatusNotFound:
		return "not_found"
	default:
		return "validation"
	}
}

func errorSeverity(status int) string {
	switch {
	case status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable:
		return "high"
	case status == http.StatusServiceUnavailable:
		return "medium"
	default:
		return "low"
	}
}

// statusRecorder captures the status code written by the wrapped
// handler. WriteHeader may never be called; the zero value is treated
// as 200 by initializing status at construction.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	n, err := s.ResponseWriter.Write(b)
	if err != nil {
		return n, fmt.Errorf("write response: %w", err)
	}
	return n, nil
}

package metrics

import (
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var uuidPattern = regexp.MustCompile(`[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`)

// Request kinds used as the "kind" label.
const (
	KindPage     = "page"
	KindFragment = "fragment" // htmx swap
	KindAPI      = "api"      // JSON client
)

// statusRecorder captures the status code and body size of a response.
type statusRecorder struct {
	http.ResponseWriter
	status  int
	size    int
	written bool
}

func newStatusRecorder(w http.ResponseWriter) *statusRecorder {
	return &statusRecorder{ResponseWriter: w, status: http.StatusOK}
}

func (sr *statusRecorder) WriteHeader(code int) {
	if !sr.written {
		sr.status = code
		sr.written = true
	}
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	sr.written = true
	n, err := sr.ResponseWriter.Write(b)
	sr.size += n
	return n, err
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (sr *statusRecorder) Unwrap() http.ResponseWriter {
	return sr.ResponseWriter
}

// normalizePath collapses IDs, slugs and asset paths so each route yields
// one label value.
func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/static/"):
		return "/static"
	case strings.HasPrefix(path, "/files/"):
		return "/files"
	case strings.HasPrefix(path, "/products/") && strings.Count(path, "/") == 2:
		return "/products/{slug}"
	}
	return uuidPattern.ReplaceAllString(path, "{id}")
}

// requestKind tells full pages from htmx fragments and JSON calls.
func requestKind(r *http.Request) string {
	if r.Header.Get("HX-Request") == "true" {
		return KindFragment
	}
	if strings.Contains(r.Header.Get("Accept"), "application/json") ||
		strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		return KindAPI
	}
	return KindPage
}

// Middleware records request count, latency and response size.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Scrapes are not traffic
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		HTTPRequestsInFlight.Inc()
		defer HTTPRequestsInFlight.Dec()

		start := time.Now()
		sr := newStatusRecorder(w)

		next.ServeHTTP(sr, r)

		path := normalizePath(r.URL.Path)
		HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(sr.status), requestKind(r)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
		HTTPResponseSize.WithLabelValues(path).Observe(float64(sr.size))
	})
}

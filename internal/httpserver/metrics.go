// internal/httpserver/metrics.go
//
// Prometheus instrumentation.
// Responsibilities:
//   - HTTP request counters/latency per route pattern and status.
//   - Game counters: sessions started, guesses by label, finds.

package httpserver

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hotspot",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "route", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "hotspot",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "route"})

	gamesStartedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hotspot",
		Subsystem: "game",
		Name:      "started_total",
		Help:      "Game sessions started, by mode",
	}, []string{"mode"})

	guessesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hotspot",
		Subsystem: "game",
		Name:      "guesses_total",
		Help:      "Guesses evaluated, by resulting label",
	}, []string{"label"})

	findsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "hotspot",
		Subsystem: "game",
		Name:      "finds_total",
		Help:      "Sessions where the target was found",
	})
)

// metricsMiddleware records request count and latency. Labels use the chi
// route pattern (/game/{id}, not the concrete path) to keep cardinality low.
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(ww.Status())).Inc()
		httpRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

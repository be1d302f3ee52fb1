package rest

import (
	"net/http"
	"strconv"
	"time"

	"github.com/owenkobasz/cyclone/pkg/datastructure"
	"github.com/owenkobasz/cyclone/pkg/server"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "cyclone"

type Metrics struct {
	httpRequests       *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
	synthesis          *prometheus.CounterVec
	distanceErrorRatio *prometheus.HistogramVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests processed",
		}, []string{"path", "method", "status"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"path", "method"}),
		synthesis: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "route_synthesis_total",
			Help:      "Route synthesis attempts by routing method and outcome",
		}, []string{"method", "outcome"}),
		distanceErrorRatio: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "route_distance_error_ratio",
			Help:      "|total - target| / target of successful routes",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.2, 0.3, 0.5, 1},
		}, []string{"method"}),
	}
}

// ObserveRoute outcome is "success" or the failure code of err.
func (m *Metrics) ObserveRoute(res datastructure.RouteResult, err error) {
	if m == nil {
		return
	}
	method := string(res.RoutingMethod)
	if err != nil {
		m.synthesis.WithLabelValues(method, server.CodeOf(err).String()).Inc()
		return
	}
	m.synthesis.WithLabelValues(method, "success").Inc()
	if res.TargetDistanceKm > 0 {
		ratio := (res.TotalDistanceKm - res.TargetDistanceKm) / res.TargetDistanceKm
		if ratio < 0 {
			ratio = -ratio
		}
		m.distanceErrorRatio.WithLabelValues(method).Observe(ratio)
	}
}

// PromeHttpMiddleware request count and latency labelled by the matched chi route pattern.
func PromeHttpMiddleware(m *Metrics) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			path := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					path = pattern
				}
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			m.httpRequests.WithLabelValues(path, r.Method, strconv.Itoa(status)).Inc()
			m.httpDuration.WithLabelValues(path, r.Method).Observe(time.Since(start).Seconds())
		})
	}
}

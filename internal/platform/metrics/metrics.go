package metrics

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pet_adoption"

var errHijackUnsupported = errors.New("metrics: response writer does not support hijack")

var (
	// Registry contiene los collectors propios de la app.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "route"},
	)

	applicationsSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "applications",
			Name:      "submissions_total",
			Help:      "Adoption application submissions by result.",
		},
		[]string{"result"},
	)

	applicationReviews = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "applications",
			Name:      "reviews_total",
			Help:      "Administrator status changes by resulting status.",
		},
		[]string{"status"},
	)

	syncSubscriptions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "applications",
			Name:      "status_sync_active",
			Help:      "Currently open application status subscriptions.",
		},
	)

	favoriteToggles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "favorites",
			Name:      "toggles_total",
			Help:      "Favorite toggles by outcome.",
		},
		[]string{"outcome"},
	)

	checkouts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cart",
			Name:      "checkouts_total",
			Help:      "Cart checkouts by result.",
		},
		[]string{"result"},
	)
)

func init() {
	Registry.MustRegister(
		httpRequests,
		httpDuration,
		applicationsSubmitted,
		applicationReviews,
		syncSubscriptions,
		favoriteToggles,
		checkouts,
	)
}

// Handler expone el registry para /metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Instrument mide requests usando el patrón de ruta de chi (no el path crudo)
// para no explotar la cardinalidad con IDs.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}

		httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

func RecordSubmission(result string) {
	applicationsSubmitted.WithLabelValues(result).Inc()
}

func RecordReview(status string) {
	applicationReviews.WithLabelValues(status).Inc()
}

func SyncOpened() { syncSubscriptions.Inc() }
func SyncClosed() { syncSubscriptions.Dec() }

func RecordFavoriteToggle(outcome string) {
	favoriteToggles.WithLabelValues(outcome).Inc()
}

func RecordCheckout(ok bool) {
	if ok {
		checkouts.WithLabelValues("ok").Inc()
		return
	}
	checkouts.WithLabelValues("failed").Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Unwrap deja que http.ResponseController llegue al writer real.
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// Hijack es necesario para que el upgrade a websocket funcione detrás del middleware.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errHijackUnsupported
	}
	return h.Hijack()
}

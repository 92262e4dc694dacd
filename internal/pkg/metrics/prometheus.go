package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "zapagent",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "zapagent",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "zapagent",
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Number of HTTP requests currently being served",
		},
	)

	// Messaging-provider provisioning metrics
	instanceCreateTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "zapagent",
			Subsystem: "messaging",
			Name:      "instance_create_total",
			Help:      "Total number of instance provisioning attempts",
		},
		[]string{"endpoint", "outcome"},
	)

	qrFetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "zapagent",
			Subsystem: "messaging",
			Name:      "qr_fetch_total",
			Help:      "Total number of QR code fetches",
		},
		[]string{"outcome"},
	)

	qrSessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "zapagent",
			Subsystem: "messaging",
			Name:      "qr_sessions_active",
			Help:      "Number of QR provisioning sessions currently open",
		},
	)

	qrSessionOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "zapagent",
			Subsystem: "messaging",
			Name:      "qr_session_outcomes_total",
			Help:      "Terminal outcomes of QR provisioning sessions",
		},
		[]string{"outcome"},
	)

	instanceTeardownTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "zapagent",
			Subsystem: "messaging",
			Name:      "instance_teardown_total",
			Help:      "Total number of instance teardown calls on agent deletion",
		},
		[]string{"outcome"},
	)

	// Plan sweeper metrics
	sweeperRunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "zapagent",
			Subsystem: "sweeper",
			Name:      "runs_total",
			Help:      "Total number of plan sweeper runs",
		},
	)

	sweeperExpiredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "zapagent",
			Subsystem: "sweeper",
			Name:      "expired_total",
			Help:      "Plans marked expired by the sweeper",
		},
		[]string{"kind"},
	)

	paymentsReconciledTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "zapagent",
			Subsystem: "payments",
			Name:      "reconciled_total",
			Help:      "Temp payments promoted to payments",
		},
	)

	// Checkout metrics
	checkoutsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "zapagent",
			Subsystem: "billing",
			Name:      "checkouts_total",
			Help:      "Checkouts started, by tier",
		},
		[]string{"tier"},
	)

	promoRedeemedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "zapagent",
			Subsystem: "billing",
			Name:      "promo_redeemed_total",
			Help:      "Promo codes redeemed at checkout",
		},
	)
)

// RecordInstanceCreate records an instance provisioning attempt
func RecordInstanceCreate(endpoint, outcome string) {
	instanceCreateTotal.WithLabelValues(endpoint, outcome).Inc()
}

// RecordQRFetch records a QR code fetch
func RecordQRFetch(outcome string) {
	qrFetchTotal.WithLabelValues(outcome).Inc()
}

// QRSessionOpened marks a QR session as open
func QRSessionOpened() {
	qrSessionsActive.Inc()
}

// QRSessionClosed marks a QR session as closed with the given terminal outcome
func QRSessionClosed(outcome string) {
	qrSessionsActive.Dec()
	qrSessionOutcomes.WithLabelValues(outcome).Inc()
}

// RecordInstanceTeardown records a best-effort teardown call
func RecordInstanceTeardown(outcome string) {
	instanceTeardownTotal.WithLabelValues(outcome).Inc()
}

// RecordSweeperRun records a sweeper pass
func RecordSweeperRun() {
	sweeperRunsTotal.Inc()
}

// RecordPlanExpired records a plan expired by the sweeper ("trial" or "subscription")
func RecordPlanExpired(kind string) {
	sweeperExpiredTotal.WithLabelValues(kind).Inc()
}

// RecordPaymentReconciled records a temp payment promotion
func RecordPaymentReconciled() {
	paymentsReconciledTotal.Inc()
}

// RecordCheckout records a checkout start for the given tier
func RecordCheckout(tier string) {
	checkoutsTotal.WithLabelValues(tier).Inc()
}

// RecordPromoRedeemed records a promo code redemption
func RecordPromoRedeemed() {
	promoRedeemedTotal.Inc()
}

// Handler returns the prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware instruments HTTP requests with request metrics. Route patterns
// are used instead of raw paths to keep label cardinality bounded.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		httpRequestsInFlight.Inc()
		defer httpRequestsInFlight.Dec()

		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				path = pattern
			}
		}

		status := strconv.Itoa(sw.status)
		httpRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path, status).Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

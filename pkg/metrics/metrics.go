// Package metrics собирает прикладные метрики приложения для Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// CheckoutMetrics — счётчики исходов оформления заказа.
// Методы безопасны для nil-получателя, поэтому метрики можно не
// подключать в тестах.
type CheckoutMetrics struct {
	completed    prometheus.Counter
	aborted      *prometheus.CounterVec
	inconsistent prometheus.Counter
}

// NewCheckoutMetrics регистрирует метрики оформления заказа в реестре по умолчанию.
func NewCheckoutMetrics() *CheckoutMetrics {
	completed := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "shop",
		Subsystem: "checkout",
		Name:      "completed_total",
		Help:      "Number of successfully completed checkouts.",
	})
	aborted := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shop",
		Subsystem: "checkout",
		Name:      "aborted_total",
		Help:      "Number of aborted checkouts by reason.",
	}, []string{"reason"})
	inconsistent := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "shop",
		Subsystem: "checkout",
		Name:      "inconsistent_total",
		Help:      "Number of checkouts that left reserved stock without an order. Requires reconciliation.",
	})

	prometheus.MustRegister(completed, aborted, inconsistent)

	return &CheckoutMetrics{
		completed:    completed,
		aborted:      aborted,
		inconsistent: inconsistent,
	}
}

func (m *CheckoutMetrics) IncCompleted() {
	if m == nil {
		return
	}
	m.completed.Inc()
}

func (m *CheckoutMetrics) IncAborted(reason string) {
	if m == nil {
		return
	}
	m.aborted.WithLabelValues(reason).Inc()
}

func (m *CheckoutMetrics) IncInconsistent() {
	if m == nil {
		return
	}
	m.inconsistent.Inc()
}

// HTTPMetrics — метрики HTTP-сервера.
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func NewHTTPMetrics() *HTTPMetrics {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shop",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"method", "status"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "shop",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method"})

	prometheus.MustRegister(requests, duration)

	return &HTTPMetrics{requests: requests, duration: duration}
}

// Middleware оборачивает обработчик сбором счётчика запросов и латентности.
func (m *HTTPMetrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		m.requests.WithLabelValues(r.Method, strconv.Itoa(sw.status)).Inc()
		m.duration.WithLabelValues(r.Method).Observe(time.Since(start).Seconds())
	})
}

// Handler возвращает обработчик /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

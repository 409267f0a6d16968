package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// CheckoutMetrics counts checkout attempts by outcome and tracks gateway
// charge latency per payment method.
type CheckoutMetrics struct {
	Attempts      *prometheus.CounterVec
	ChargeLatency *prometheus.HistogramVec
}

// NewCheckoutMetrics registers and returns the checkout metric set
func NewCheckoutMetrics() *CheckoutMetrics {
	attempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "coralcart",
		Subsystem: "checkout",
		Name:      "attempts_total",
		Help:      "Total number of checkout attempts by outcome.",
	}, []string{"outcome"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "coralcart",
		Subsystem: "checkout",
		Name:      "charge_duration_ms",
		Help:      "Payment gateway charge latency in milliseconds.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"method"})

	prometheus.MustRegister(attempts, latency)
	return &CheckoutMetrics{Attempts: attempts, ChargeLatency: latency}
}

// Handler exposes the /metrics endpoint
func Handler() http.Handler {
	return promhttp.Handler()
}

package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Placement outcomes.
const (
	OutcomePlaced             = "placed"
	OutcomePendingDelivery    = "pending_delivery"
	OutcomeStockError         = "stock_error"
	OutcomeRejectedStock      = "rejected_stock"
	OutcomeRejectedValidation = "rejected_validation"
	OutcomeRejectedDuplicate  = "rejected_duplicate"
	OutcomeFailed             = "failed"
)

// Downstream call targets.
const (
	TargetStockCheck    = "stock_check"
	TargetStockReduce   = "stock_reduce"
	TargetDeliveryStart = "delivery_start"
)

type Metrics struct {
	reg *prometheus.Registry

	Placements          *prometheus.CounterVec
	DeliveriesRecovered prometheus.Counter
	DownstreamLatency   *prometheus.HistogramVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()

	placements := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "orderapi",
		Name:      "placements_total",
		Help:      "Order placements by outcome.",
	}, []string{"outcome"})

	recovered := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "orderapi",
		Name:      "deliveries_recovered_total",
		Help:      "Orders moved out of PENDING_DELIVERY by the retry sweep.",
	})

	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "orderapi",
		Name:      "downstream_call_duration_seconds",
		Help:      "Latency of stock and delivery service calls.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"target"})

	reg.MustRegister(placements, recovered, latency)

	return &Metrics{
		reg:                 reg,
		Placements:          placements,
		DeliveriesRecovered: recovered,
		DownstreamLatency:   latency,
	}
}

// IncPlacement is nil-safe so callers can run without metrics wired.
func (m *Metrics) IncPlacement(outcome string) {
	if m == nil {
		return
	}
	m.Placements.WithLabelValues(outcome).Inc()
}

func (m *Metrics) AddRecovered(n int) {
	if m == nil {
		return
	}
	m.DeliveriesRecovered.Add(float64(n))
}

func (m *Metrics) ObserveDownstream(target string, d time.Duration) {
	if m == nil {
		return
	}
	m.DownstreamLatency.WithLabelValues(target).Observe(d.Seconds())
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

package metrics

import (
	"context"
	"time"

	"go-pos-terminal/internal/client"
	"go-pos-terminal/internal/model"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the terminal's Prometheus collectors.
type Metrics struct {
	Events         *prometheus.CounterVec
	Sales          *prometheus.CounterVec
	SaleTotal      prometheus.Counter
	BackendLatency *prometheus.HistogramVec
	Sessions       prometheus.Gauge
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pos_terminal",
			Name:      "events_total",
			Help:      "Cashier events handled, by type and outcome.",
		}, []string{"type", "outcome"}),
		Sales: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pos_terminal",
			Name:      "sales_total",
			Help:      "Sale submissions, by status.",
		}, []string{"status"}),
		SaleTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pos_terminal",
			Name:      "sales_amount_total",
			Help:      "Sum of accepted sale totals.",
		}),
		BackendLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "pos_terminal",
			Name:      "backend_request_seconds",
			Help:      "Latency of calls to the POS backend.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation", "outcome"}),
		Sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "pos_terminal",
			Name:      "sessions_open",
			Help:      "Terminal sessions currently held in memory.",
		}),
	}
	reg.MustRegister(m.Events, m.Sales, m.SaleTotal, m.BackendLatency, m.Sessions)
	return m
}

// Instrument wraps backend so every call is timed.
func (m *Metrics) Instrument(backend client.Backend) client.Backend {
	return &instrumentedBackend{next: backend, latency: m.BackendLatency}
}

type instrumentedBackend struct {
	next    client.Backend
	latency *prometheus.HistogramVec
}

func (b *instrumentedBackend) SearchProducts(ctx context.Context, query string) ([]model.Product, error) {
	start := time.Now()
	products, err := b.next.SearchProducts(ctx, query)
	b.latency.WithLabelValues("search", outcome(err)).Observe(time.Since(start).Seconds())
	return products, err
}

func (b *instrumentedBackend) SubmitSale(ctx context.Context, payload model.SalePayload, opts client.SubmitOptions) (*model.SaleReceipt, error) {
	start := time.Now()
	receipt, err := b.next.SubmitSale(ctx, payload, opts)
	b.latency.WithLabelValues("submit_sale", outcome(err)).Observe(time.Since(start).Seconds())
	return receipt, err
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

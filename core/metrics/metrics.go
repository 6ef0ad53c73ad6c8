package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Inline query outcomes.
const (
	OutcomeAnswered = "answered"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
	OutcomeBusy     = "busy"
)

// Metrics holds the bot's Prometheus collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	InlineQueries *prometheus.CounterVec
	Commands      *prometheus.CounterVec
	FetchDuration *prometheus.HistogramVec
	FetchErrors   *prometheus.CounterVec
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		InlineQueries: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ratesbot_inline_queries_total",
				Help: "Inline queries handled, by outcome",
			},
			[]string{"outcome"},
		),
		Commands: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ratesbot_commands_total",
				Help: "Chat commands handled, by command",
			},
			[]string{"command"},
		),
		FetchDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ratesbot_price_fetch_duration_seconds",
				Help:    "Latency of pricing API requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"rate_type"},
		),
		FetchErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ratesbot_price_fetch_errors_total",
				Help: "Pricing API requests that failed, by kind",
			},
			[]string{"rate_type", "kind"},
		),
	}
}

// InlineQuery counts an inline query with one of the Outcome values.
func (m *Metrics) InlineQuery(outcome string) {
	if m == nil {
		return
	}
	m.InlineQueries.WithLabelValues(outcome).Inc()
}

// Command counts a chat command by name.
func (m *Metrics) Command(name string) {
	if m == nil {
		return
	}
	m.Commands.WithLabelValues(name).Inc()
}

// ObserveFetch records one pricing request. kind is "" on success,
// otherwise "transport", "timeout" or "payload".
func (m *Metrics) ObserveFetch(rateType string, d time.Duration, kind string) {
	if m == nil {
		return
	}
	m.FetchDuration.WithLabelValues(rateType).Observe(d.Seconds())
	if kind != "" {
		m.FetchErrors.WithLabelValues(rateType, kind).Inc()
	}
}

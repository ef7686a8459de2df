// Package metrics holds the prometheus collectors of a contract host.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "crowdfund"
	subsystem = "contract"
)

// Invocation results.
const (
	ResultOK       = "ok"
	ResultRejected = "rejected"
	ResultInvalid  = "invalid"
)

// Metrics collects contract host activity. A nil *Metrics records
// nothing.
type Metrics struct {
	invocations *prometheus.CounterVec
	events      prometheus.Counter
	blocks      prometheus.Counter
	campaigns   prometheus.Gauge
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		invocations: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "invocations_total",
				Help:      "Contract messages executed, by message and result",
			},
			[]string{"message", "result"},
		),
		events: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "events_total",
			Help:      "Events emitted by successful invocations",
		}),
		blocks: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "blocks_executed_total",
			Help:      "Finalized blocks executed",
		}),
		campaigns: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "campaigns",
			Help:      "Campaigns in the committed registry log",
		}),
	}
}

func (m *Metrics) ObserveInvocation(message, result string, events int) {
	if m == nil {
		return
	}
	m.invocations.WithLabelValues(message, result).Inc()
	m.events.Add(float64(events))
}

func (m *Metrics) ObserveBlock() {
	if m == nil {
		return
	}
	m.blocks.Inc()
}

func (m *Metrics) SetCampaigns(n int) {
	if m == nil {
		return
	}
	m.campaigns.Set(float64(n))
}

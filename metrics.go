package irsim

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const tracerName = "github.com/db47h/irsim"

type metrics struct {
	events  prometheus.Counter
	punted  prometheus.Counter
	history prometheus.Counter
	pending prometheus.Gauge
}

// newMetrics creates the session metrics and registers them with reg. A nil
// reg leaves them unregistered.
func newMetrics(reg prometheus.Registerer) *metrics {
	f := promauto.With(reg)
	return &metrics{
		events: f.NewCounter(prometheus.CounterOpts{
			Namespace: "irsim",
			Name:      "events_total",
			Help:      "Total number of events fired",
		}),
		punted: f.NewCounter(prometheus.CounterOpts{
			Namespace: "irsim",
			Name:      "punted_events_total",
			Help:      "Total number of events punted before firing",
		}),
		history: f.NewCounter(prometheus.CounterOpts{
			Namespace: "irsim",
			Name:      "history_entries_total",
			Help:      "Total number of node transitions recorded",
		}),
		pending: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "irsim",
			Name:      "pending_events",
			Help:      "Number of events in the queue",
		}),
	}
}

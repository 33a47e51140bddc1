// Package metrics holds the Prometheus collectors for the state bridge and
// host, and the optional debug HTTP server that exposes them.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "sketchdesk"

// Metrics is a private registry with every collector the app records into.
type Metrics struct {
	Registry *prometheus.Registry

	BridgeWrites     *prometheus.CounterVec
	BridgeSkipped    prometheus.Counter
	BridgeSuperseded prometheus.Counter
	BridgeStaleAcks  prometheus.Counter
	BridgeRetries    prometheus.Counter

	HostInvocations *prometheus.CounterVec
	HostDuration    *prometheus.HistogramVec
}

// New creates and registers all collectors, plus the Go runtime collector.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		BridgeWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bridge",
			Name:      "writes_total",
			Help:      "Preference writes sent to the host, by result.",
		}, []string{"result"}),
		BridgeSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bridge",
			Name:      "changes_skipped_total",
			Help:      "Change events whose projection matched the cached record.",
		}),
		BridgeSuperseded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bridge",
			Name:      "writes_superseded_total",
			Help:      "Queued writes replaced by a newer value before being sent.",
		}),
		BridgeStaleAcks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bridge",
			Name:      "stale_acks_total",
			Help:      "Acknowledgements discarded because a newer write was already confirmed.",
		}),
		BridgeRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bridge",
			Name:      "write_retries_total",
			Help:      "Write attempts beyond the first.",
		}),
		HostInvocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "host",
			Name:      "invocations_total",
			Help:      "Host command invocations, by command and result.",
		}, []string{"command", "result"}),
		HostDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "host",
			Name:      "invocation_duration_seconds",
			Help:      "Host command latency.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"command"}),
	}

	m.Registry.MustRegister(
		m.BridgeWrites,
		m.BridgeSkipped,
		m.BridgeSuperseded,
		m.BridgeStaleAcks,
		m.BridgeRetries,
		m.HostInvocations,
		m.HostDuration,
		collectors.NewGoCollector(),
	)
	return m
}

// ObserveInvocation records one host command call.
func (m *Metrics) ObserveInvocation(command string, took time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.HostInvocations.WithLabelValues(command, result).Inc()
	m.HostDuration.WithLabelValues(command).Observe(took.Seconds())
}

// Snapshot is a flat view of the bridge counters for the diagnostics window.
type Snapshot struct {
	WritesOK    float64
	WritesError float64
	Skipped     float64
	Superseded  float64
	StaleAcks   float64
	Retries     float64
}

// Snapshot gathers the current bridge counter values.
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		WritesOK:    counterValue(m.BridgeWrites.WithLabelValues("ok")),
		WritesError: counterValue(m.BridgeWrites.WithLabelValues("error")),
		Skipped:     counterValue(m.BridgeSkipped),
		Superseded:  counterValue(m.BridgeSuperseded),
		StaleAcks:   counterValue(m.BridgeStaleAcks),
		Retries:     counterValue(m.BridgeRetries),
	}
}

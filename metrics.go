package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"vehicle-visualizer/protocol"
)

// metrics is safe to use through a nil pointer, which disables it.
type metrics struct {
	registry *prometheus.Registry

	datagrams     prometheus.Counter
	bytes         prometheus.Counter
	socketErrors  prometheus.Counter
	messages      *prometheus.CounterVec
	droppedTotal  prometheus.Counter
	broadcasts    prometheus.Counter
	slowViewers   prometheus.Counter
	viewersActive prometheus.Gauge
	entities      prometheus.GaugeFunc
}

func newMetrics(entityCount func() int) *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		datagrams: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "visualizer",
			Subsystem: "udp",
			Name:      "datagrams_received_total",
			Help:      "Total datagrams received from the simulator",
		}),
		bytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "visualizer",
			Subsystem: "udp",
			Name:      "bytes_received_total",
			Help:      "Total bytes received from the simulator",
		}),
		socketErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "visualizer",
			Subsystem: "udp",
			Name:      "socket_errors_total",
			Help:      "Socket read errors encountered",
		}),
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "visualizer",
			Subsystem: "ingest",
			Name:      "messages_total",
			Help:      "Ingested messages by type",
		}, []string{"type"}),
		droppedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "visualizer",
			Subsystem: "ingest",
			Name:      "messages_dropped_total",
			Help:      "Malformed or unknown messages that were not forwarded",
		}),
		broadcasts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "visualizer",
			Subsystem: "hub",
			Name:      "broadcasts_total",
			Help:      "Messages published to viewers",
		}),
		slowViewers: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "visualizer",
			Subsystem: "hub",
			Name:      "slow_viewers_dropped_total",
			Help:      "Viewers disconnected because their queue was full",
		}),
		viewersActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "visualizer",
			Subsystem: "hub",
			Name:      "subscribers",
			Help:      "Currently registered subscribers",
		}),
	}
	m.entities = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "visualizer",
		Subsystem: "hub",
		Name:      "entities",
		Help:      "Distinct entities seen in this session",
	}, func() float64 { return float64(entityCount()) })

	m.registry.MustRegister(
		m.datagrams, m.bytes, m.socketErrors, m.messages, m.droppedTotal,
		m.broadcasts, m.slowViewers, m.viewersActive, m.entities,
	)
	return m
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

func (m *metrics) datagram(n int) {
	if m == nil {
		return
	}
	m.datagrams.Inc()
	m.bytes.Add(float64(n))
}

func (m *metrics) socketError() {
	if m != nil {
		m.socketErrors.Inc()
	}
}

func (m *metrics) message(k protocol.Kind) {
	if m != nil {
		m.messages.WithLabelValues(k.String()).Inc()
	}
}

func (m *metrics) dropped() {
	if m != nil {
		m.droppedTotal.Inc()
	}
}

func (m *metrics) broadcast() {
	if m != nil {
		m.broadcasts.Inc()
	}
}

func (m *metrics) slowViewer() {
	if m != nil {
		m.slowViewers.Inc()
	}
}

func (m *metrics) viewers(n int) {
	if m != nil {
		m.viewersActive.Set(float64(n))
	}
}

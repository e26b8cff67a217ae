// Package metrics holds the Prometheus collectors of the viewer.
// All methods are safe on a nil *Metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "padview"

type Metrics struct {
	frames           prometheus.Counter
	controllerEvents *prometheus.CounterVec
	loopRunning      prometheus.Gauge
	activeControls   prometheus.Gauge
	clients          prometheus.Gauge
	messages         *prometheus.CounterVec
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		frames: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_total",
			Help:      "Sample-and-render frames run by the loop driver.",
		}),
		controllerEvents: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "controller_events_total",
			Help:      "Controller platform events by kind.",
		}, []string{"kind"}),
		loopRunning: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "loop_running",
			Help:      "1 while per-frame sampling is scheduled.",
		}),
		activeControls: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_controls",
			Help:      "Controls highlighted in the last frame.",
		}),
		clients: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ws_clients",
			Help:      "Connected websocket clients.",
		}),
		messages: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ws_messages_total",
			Help:      "Websocket messages broadcast by type.",
		}, []string{"type"}),
	}
}

// NewRegistry returns a registry with the Go and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func (m *Metrics) Frame(active int) {
	if m == nil {
		return
	}
	m.frames.Inc()
	m.activeControls.Set(float64(active))
}

func (m *Metrics) ControllerEvent(kind string) {
	if m == nil {
		return
	}
	m.controllerEvents.WithLabelValues(kind).Inc()
}

func (m *Metrics) LoopRunning(running bool) {
	if m == nil {
		return
	}
	if running {
		m.loopRunning.Set(1)
		return
	}
	m.loopRunning.Set(0)
	m.activeControls.Set(0)
}

func (m *Metrics) Clients(n int) {
	if m == nil {
		return
	}
	m.clients.Set(float64(n))
}

func (m *Metrics) Message(typ string) {
	if m == nil {
		return
	}
	m.messages.WithLabelValues(typ).Inc()
}

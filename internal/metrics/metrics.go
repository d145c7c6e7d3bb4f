// Package metrics exposes controller counters and gauges to Prometheus.
// All methods are safe on a nil *Metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sweeney/smart-clock/internal/logic"
)

const namespace = "smartclock"

// Metrics holds the collectors on a private registry.
type Metrics struct {
	reg *prometheus.Registry

	sensorReads  *prometheus.CounterVec
	syncAttempts *prometheus.CounterVec
	telemetry    *prometheus.CounterVec
	storeSaves   *prometheus.CounterVec
	buttonEdges  *prometheus.CounterVec
	temperature  prometheus.Gauge
	thresholds   *prometheus.GaugeVec
	ledChannel   *prometheus.GaugeVec
	clockSynced  prometheus.Gauge
	tickDuration prometheus.Histogram
}

// New registers every collector.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		sensorReads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sensor_reads_total",
			Help:      "Sensor reads by result (ok, error).",
		}, []string{"result"}),
		syncAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "timesync_attempts_total",
			Help:      "Time sync attempts by result (ok, network, timeout, malformed).",
		}, []string{"result"}),
		telemetry: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "telemetry_reports_total",
			Help:      "Telemetry reports by result (ok, error, dropped, skipped).",
		}, []string{"result"}),
		storeSaves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "threshold_saves_total",
			Help:      "Threshold saves by result (ok, error).",
		}, []string{"result"}),
		buttonEdges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "button_edges_total",
			Help:      "Button edges by button and outcome (accepted, bounced).",
		}, []string{"button", "outcome"}),
		temperature: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "temperature_celsius",
			Help:      "Last good temperature sample.",
		}),
		thresholds: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "threshold_celsius",
			Help:      "Active comfort range bounds.",
		}, []string{"bound"}),
		ledChannel: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "led_channel_value",
			Help:      "Current LED channel value (0-255).",
		}, []string{"channel"}),
		clockSynced: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "clock_synced",
			Help:      "1 if the clock was synchronised at boot.",
		}),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tick_duration_seconds",
			Help:      "Control loop tick duration.",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1},
		}),
	}

	m.reg.MustRegister(
		m.sensorReads,
		m.syncAttempts,
		m.telemetry,
		m.storeSaves,
		m.buttonEdges,
		m.temperature,
		m.thresholds,
		m.ledChannel,
		m.clockSynced,
		m.tickDuration,
	)
	return m
}

// Registry returns the private registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.reg
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// SensorRead records one sensor read.
func (m *Metrics) SensorRead(err error) {
	if m == nil {
		return
	}
	m.sensorReads.WithLabelValues(resultLabel(err)).Inc()
}

// SyncAttempt records one time sync attempt outcome.
func (m *Metrics) SyncAttempt(result string) {
	if m == nil {
		return
	}
	m.syncAttempts.WithLabelValues(result).Inc()
}

// ClockSynced records the boot sync result.
func (m *Metrics) ClockSynced(synced bool) {
	if m == nil {
		return
	}
	if synced {
		m.clockSynced.Set(1)
	} else {
		m.clockSynced.Set(0)
	}
}

// Telemetry records one telemetry outcome.
func (m *Metrics) Telemetry(result string) {
	if m == nil {
		return
	}
	m.telemetry.WithLabelValues(result).Inc()
}

// StoreSave records one threshold save.
func (m *Metrics) StoreSave(err error) {
	if m == nil {
		return
	}
	m.storeSaves.WithLabelValues(resultLabel(err)).Inc()
}

// ButtonEdge records a debounced (accepted) or rejected edge.
func (m *Metrics) ButtonEdge(b logic.Button, accepted bool) {
	if m == nil {
		return
	}
	outcome := "bounced"
	if accepted {
		outcome = "accepted"
	}
	m.buttonEdges.WithLabelValues(b.String(), outcome).Inc()
}

// Temperature sets the last good sample.
func (m *Metrics) Temperature(t logic.Temperature) {
	if m == nil {
		return
	}
	m.temperature.Set(float64(t))
}

// Thresholds sets the active range.
func (m *Metrics) Thresholds(cfg logic.ThresholdConfig) {
	if m == nil {
		return
	}
	m.thresholds.WithLabelValues("min").Set(float64(cfg.Min))
	m.thresholds.WithLabelValues("max").Set(float64(cfg.Max))
}

// LED sets the channel gauges.
func (m *Metrics) LED(c logic.ColorValue) {
	if m == nil {
		return
	}
	m.ledChannel.WithLabelValues("red").Set(float64(c.R))
	m.ledChannel.WithLabelValues("green").Set(float64(c.G))
	m.ledChannel.WithLabelValues("blue").Set(float64(c.B))
}

// Tick observes one control loop iteration.
func (m *Metrics) Tick(seconds float64) {
	if m == nil {
		return
	}
	m.tickDuration.Observe(seconds)
}

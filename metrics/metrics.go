// Package metrics exposes per-device health gauges for Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/opsgrid/diskwatch/model"
)

// Metrics holds the registry and the per-device gauge vectors. Gauges are
// reset and repopulated wholesale each cycle so devices that disappear stop
// being exported.
type Metrics struct {
	registry *prometheus.Registry

	healthScore   *prometheus.GaugeVec
	trendStatus   *prometheus.GaugeVec
	reallocated   *prometheus.GaugeVec
	pending       *prometheus.GaugeVec
	readErrors    *prometheus.GaugeVec
	temperature   *prometheus.GaugeVec
	powerOnHours  *prometheus.GaugeVec
	ioLoad        *prometheus.GaugeVec
	cyclesTotal   prometheus.Counter
	cycleDuration prometheus.Histogram
}

var deviceLabels = []string{"device", "serial", "model"}

// New creates a fresh registry with all collectors registered.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	gauge := func(name, help string) *prometheus.GaugeVec {
		return prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "diskwatch",
			Name:      name,
			Help:      help,
		}, deviceLabels)
	}

	m := &Metrics{
		registry:     registry,
		healthScore:  gauge("health_score", "Normalized device health score, 0-100"),
		trendStatus:  gauge("trend_status", "Trend status: 0=OK 1=WARNING 2=CRITICAL"),
		reallocated:  gauge("reallocated_sectors", "Reallocated sector count"),
		pending:      gauge("pending_sectors", "Current pending sector count"),
		readErrors:   gauge("read_errors", "Raw read error count"),
		temperature:  gauge("temperature_celsius", "Device temperature in Celsius"),
		powerOnHours: gauge("power_on_hours", "Cumulative power-on hours"),
		ioLoad:       gauge("io_load_pct", "Device busy percentage over the last cycle"),
		cyclesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "diskwatch",
			Name:      "scan_cycles_total",
			Help:      "Total completed scan cycles",
		}),
		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "diskwatch",
			Name:      "scan_cycle_duration_seconds",
			Help:      "Duration of a full scan cycle",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}),
	}

	registry.MustRegister(
		m.healthScore, m.trendStatus, m.reallocated, m.pending, m.readErrors,
		m.temperature, m.powerOnHours, m.ioLoad, m.cyclesTotal, m.cycleDuration,
	)
	return m
}

// Publish replaces all per-device gauges with the given cycle's results and
// records the cycle itself.
func (m *Metrics) Publish(devices map[string]*model.DeviceSnapshot, duration time.Duration) {
	if m == nil {
		return
	}
	m.healthScore.Reset()
	m.trendStatus.Reset()
	m.reallocated.Reset()
	m.pending.Reset()
	m.readErrors.Reset()
	m.temperature.Reset()
	m.powerOnHours.Reset()
	m.ioLoad.Reset()

	for device, snap := range devices {
		labels := prometheus.Labels{"device": device, "serial": snap.Serial, "model": snap.Model}
		m.healthScore.With(labels).Set(float64(snap.HealthScore))
		m.temperature.With(labels).Set(float64(snap.Temperature))
		m.powerOnHours.With(labels).Set(float64(snap.PowerOnHours))
		if snap.Stats != nil {
			m.reallocated.With(labels).Set(float64(snap.Stats.Reallocated))
			m.pending.With(labels).Set(float64(snap.Stats.Pending))
			m.readErrors.With(labels).Set(float64(snap.Stats.ReadErrors))
			m.ioLoad.With(labels).Set(snap.Stats.IOLoad)
		}
		if snap.Trend != nil {
			m.trendStatus.With(labels).Set(float64(snap.Trend.Status))
		}
	}

	m.cyclesTotal.Inc()
	m.cycleDuration.Observe(duration.Seconds())
}

// Handler exposes the registry over HTTP.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Package metrics defines the Prometheus collectors for discovery passes.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vk/pluginmanager/internal/pluginid"
)

// Error kinds used as the "kind" label of ErrorsTotal.
const (
	KindLocator    = "locator"
	KindParse      = "parse"
	KindValidation = "validation"
	KindCallback   = "callback"
	KindDuplicate  = "duplicate"
	KindDefinition = "definition"
)

// Metrics holds the discovery collectors.
type Metrics struct {
	registry *prometheus.Registry

	PassesTotal   *prometheus.CounterVec
	PassDuration  prometheus.Histogram
	PluginsTotal  *prometheus.GaugeVec
	TypesTotal    prometheus.Gauge
	ErrorsTotal   *prometheus.CounterVec
	LastPublishTS prometheus.Gauge
}

// New creates the collectors and registers them with registry. A nil
// registry gets a fresh one.
func New(registry *prometheus.Registry) *Metrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	m := &Metrics{
		registry: registry,
		PassesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pluginmanager_discovery_passes_total",
				Help: "Total number of discovery passes by outcome",
			},
			[]string{"status"},
		),
		PassDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "pluginmanager_discovery_duration_seconds",
				Help:    "Discovery pass duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		PluginsTotal: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "pluginmanager_plugins",
				Help: "Number of published plugins per type",
			},
			[]string{"owner", "type"},
		),
		TypesTotal: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "pluginmanager_plugin_types",
				Help: "Number of catalogued plugin types",
			},
		),
		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pluginmanager_discovery_errors_total",
				Help: "Total number of non-fatal discovery errors by kind",
			},
			[]string{"kind"},
		),
		LastPublishTS: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "pluginmanager_last_publish_timestamp_seconds",
				Help: "Unix time of the last published snapshot",
			},
		),
	}

	registry.MustRegister(
		m.PassesTotal,
		m.PassDuration,
		m.PluginsTotal,
		m.TypesTotal,
		m.ErrorsTotal,
		m.LastPublishTS,
	)
	return m
}

// Registry returns the registry the collectors live in.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObservePass records the outcome of one pass. status is "published",
// "failed" or "cancelled".
func (m *Metrics) ObservePass(status string, d time.Duration) {
	if m == nil {
		return
	}
	m.PassesTotal.WithLabelValues(status).Inc()
	m.PassDuration.Observe(d.Seconds())
}

// RecordError counts one non-fatal error of the given kind.
func (m *Metrics) RecordError(kind string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(kind).Inc()
}

// SetPublished replaces the per-type plugin gauges with counts.
func (m *Metrics) SetPublished(types int, counts map[pluginid.TypeKey]int, at time.Time) {
	if m == nil {
		return
	}
	m.TypesTotal.Set(float64(types))
	m.PluginsTotal.Reset()
	for key, n := range counts {
		m.PluginsTotal.WithLabelValues(key.Owner, key.Type).Set(float64(n))
	}
	m.LastPublishTS.Set(float64(at.Unix()))
}

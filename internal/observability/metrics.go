// Package observability wires Prometheus metrics and OpenTelemetry tracing.
package observability

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector bundles the plat_gold_* metrics. A nil *Collector is valid and
// records nothing.
type Collector struct {
	gatherer prometheus.Gatherer

	Generations       *prometheus.CounterVec
	LayerFeatures     *prometheus.GaugeVec
	TooltipLookups    *prometheus.CounterVec
	VisibilityChanges *prometheus.CounterVec
	TileExports       *prometheus.CounterVec
	HTTPRequests      *prometheus.CounterVec
	HTTPDurations     *prometheus.HistogramVec
}

// NewCollector registers the metrics on reg, or on the default registry when
// reg is nil. Registering twice on the same registry reuses the existing
// collectors.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	c := &Collector{gatherer: gatherer}
	var err error

	if c.Generations, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "plat_gold_dataset_generations_total",
		Help: "Datasets produced, labeled by origin (mock or table).",
	}, []string{"origin"})); err != nil {
		return nil, err
	}
	if c.LayerFeatures, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "plat_gold_layer_features",
		Help: "Features in the current snapshot per layer.",
	}, []string{"layer"})); err != nil {
		return nil, err
	}
	if c.TooltipLookups, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "plat_gold_tooltip_lookups_total",
		Help: "Tooltip requests, labeled by layer and result (hit or miss).",
	}, []string{"layer", "result"})); err != nil {
		return nil, err
	}
	if c.VisibilityChanges, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "plat_gold_visibility_changes_total",
		Help: "Layer visibility changes.",
	}, []string{"layer"})); err != nil {
		return nil, err
	}
	if c.TileExports, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "plat_gold_tile_exports_total",
		Help: "PMTiles exports, labeled by layer and result.",
	}, []string{"layer", "result"})); err != nil {
		return nil, err
	}
	if c.HTTPRequests, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "plat_gold_http_requests_total",
		Help: "HTTP requests by status code and method.",
	}, []string{"code", "method"})); err != nil {
		return nil, err
	}
	if c.HTTPDurations, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "plat_gold_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds.",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}, []string{"code", "method"})); err != nil {
		return nil, err
	}
	return c, nil
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
			var zero T
			return zero, fmt.Errorf("collector already registered with incompatible type: %w", err)
		}
		var zero T
		return zero, err
	}
	return c, nil
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	if c == nil || c.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}

// Instrument wraps next with request counting and latency.
func (c *Collector) Instrument(next http.Handler) http.Handler {
	if c == nil {
		return next
	}
	return promhttp.InstrumentHandlerDuration(c.HTTPDurations,
		promhttp.InstrumentHandlerCounter(c.HTTPRequests, next))
}

// RecordGeneration counts one snapshot and sets the per-layer gauges.
func (c *Collector) RecordGeneration(origin string, featuresPerLayer map[string]int) {
	if c == nil {
		return
	}
	c.Generations.WithLabelValues(origin).Inc()
	for layer, n := range featuresPerLayer {
		c.LayerFeatures.WithLabelValues(layer).Set(float64(n))
	}
}

// RecordTooltip counts one tooltip lookup.
func (c *Collector) RecordTooltip(layer string, hit bool) {
	if c == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	c.TooltipLookups.WithLabelValues(layer, result).Inc()
}

// RecordVisibilityChange counts one toggle.
func (c *Collector) RecordVisibilityChange(layer string) {
	if c == nil {
		return
	}
	c.VisibilityChanges.WithLabelValues(layer).Inc()
}

// RecordTileExport counts one export attempt.
func (c *Collector) RecordTileExport(layer string, err error) {
	if c == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.TileExports.WithLabelValues(layer, result).Inc()
}

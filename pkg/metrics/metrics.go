// Package metrics tracks dataset derivations with Prometheus metrics.
//
// Each Collector owns its own prometheus.Registry so that several datasets,
// or several tests, can create collectors without colliding on metric
// registration:
//
//	collector := metrics.NewCollector("orders")
//	ds, _ := dataset.New(orders, dataset.WithMetrics(collector))
//	families, _ := collector.Gather()
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

const namespace = "tabula"

// Derivation outcomes
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Collector records derivation activity for one component
type Collector struct {
	name     string
	registry *prometheus.Registry

	derivations       *prometheus.CounterVec // derivation passes by outcome
	derivationLatency prometheus.Histogram   // full derivation duration
	resultRows        prometheus.Gauge       // rows in the latest result
	resultColumns     prometheus.Gauge       // columns in the latest result
	rejections        *prometheus.CounterVec // registrations rejected, by kind
	joinMatches       prometheus.Counter     // matched row pairs across all joins
	startTime         time.Time
}

// NewCollector creates a collector whose metrics carry a component label
func NewCollector(name string) *Collector {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)
	labels := prometheus.Labels{"component": name}

	return &Collector{
		name:     name,
		registry: registry,
		derivations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   namespace,
				Name:        "derivations_total",
				Help:        "Total number of dataset derivation passes",
				ConstLabels: labels,
			},
			[]string{"outcome"},
		),
		derivationLatency: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace:   namespace,
				Name:        "derivation_duration_seconds",
				Help:        "Time spent deriving a dataset result",
				ConstLabels: labels,
				Buckets: []float64{
					1e-6, // 1μs - empty tables
					1e-5,
					1e-4,
					1e-3, // 1ms - small joins
					1e-2,
					1e-1,
					1, // 1s - large fan-out joins
				},
			},
		),
		resultRows: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace:   namespace,
				Name:        "result_rows",
				Help:        "Rows in the most recent dataset result",
				ConstLabels: labels,
			},
		),
		resultColumns: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace:   namespace,
				Name:        "result_columns",
				Help:        "Columns in the most recent dataset result",
				ConstLabels: labels,
			},
		),
		rejections: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   namespace,
				Name:        "registrations_rejected_total",
				Help:        "Filter, group-by and join registrations rejected",
				ConstLabels: labels,
			},
			[]string{"kind"},
		),
		joinMatches: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace:   namespace,
				Name:        "join_matches_total",
				Help:        "Matched row pairs produced by sort-merge joins",
				ConstLabels: labels,
			},
		),
		startTime: time.Now(),
	}
}

// Name returns the component name
func (c *Collector) Name() string {
	return c.name
}

// StartTime returns when the collector was created
func (c *Collector) StartTime() time.Time {
	return c.startTime
}

// Registry exposes the collector's registry, e.g. for promhttp
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// RecordDerivation records one derivation pass
func (c *Collector) RecordDerivation(d time.Duration, rows, columns int, err error) {
	if err != nil {
		c.derivations.WithLabelValues(OutcomeFailure).Inc()
		return
	}
	c.derivations.WithLabelValues(OutcomeSuccess).Inc()
	c.derivationLatency.Observe(d.Seconds())
	c.resultRows.Set(float64(rows))
	c.resultColumns.Set(float64(columns))
}

// RecordRejection counts a rejected registration of the given kind
// (filter, group_by, join)
func (c *Collector) RecordRejection(kind string) {
	c.rejections.WithLabelValues(kind).Inc()
}

// RecordJoinMatches adds n matched row pairs
func (c *Collector) RecordJoinMatches(n int) {
	c.joinMatches.Add(float64(n))
}

// Gather returns the current metric families
func (c *Collector) Gather() ([]*dto.MetricFamily, error) {
	return c.registry.Gather()
}

// Snapshot flattens counters and gauges into name{label} -> value, which is
// handy for CLI output and tests. Histograms report their sample count.
func (c *Collector) Snapshot() (map[string]float64, error) {
	families, err := c.Gather()
	if err != nil {
		return nil, err
	}

	out := make(map[string]float64)
	for _, family := range families {
		for _, m := range family.GetMetric() {
			key := family.GetName()
			for _, label := range m.GetLabel() {
				if label.GetName() == "component" {
					continue
				}
				key += "{" + label.GetName() + "=" + label.GetValue() + "}"
			}
			switch {
			case m.GetCounter() != nil:
				out[key] = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				out[key] = m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				out[key] = float64(m.GetHistogram().GetSampleCount())
			}
		}
	}
	return out, nil
}

// Timer provides a simple timing mechanism for measuring operation durations.
type Timer struct {
	start time.Time
	name  string
}

// NewTimer creates a new timer and starts timing immediately.
func NewTimer(name string) *Timer {
	return &Timer{
		start: time.Now(),
		name:  name,
	}
}

// Name returns the timer name
func (t *Timer) Name() string {
	return t.name
}

// Stop returns the elapsed duration since creation. It can be called repeatedly.
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}

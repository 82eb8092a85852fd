// Package telemetry records config reload metrics.
package telemetry

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Reload results.
const (
	ResultChanged   = "changed"
	ResultUnchanged = "unchanged"
	ResultError     = "error"
)

// Collector captures supplier events.
//
// Hooks run inline with reloads and listener dispatch, so implementations
// must be cheap and must not block.
type Collector interface {
	// ObserveReload records one reload attempt of a supplier and how long
	// it took to produce the record.
	ObserveReload(supplier, result string, took time.Duration)
	// IncListenerPanic records a recovered listener panic.
	IncListenerPanic(supplier string)
}

type noopCollector struct{}

// Noop returns a collector that discards all metrics.
func Noop() Collector {
	return noopCollector{}
}

func (noopCollector) ObserveReload(string, string, time.Duration) {}
func (noopCollector) IncListenerPanic(string)                    {}

// PrometheusCollector exposes supplier metrics via Prometheus.
type PrometheusCollector struct {
	reloads        *prometheus.CounterVec
	listenerPanics *prometheus.CounterVec
	parseDuration  *prometheus.HistogramVec
}

// NewPrometheusCollector registers the metrics with reg, or with the default
// registerer when reg is nil. Metrics already registered by an earlier
// collector are reused.
func NewPrometheusCollector(reg prometheus.Registerer) (*PrometheusCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	reloads, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "typedconf_reloads_total",
		Help: "Number of config reloads per supplier and result.",
	}, []string{"supplier", "result"}))
	if err != nil {
		return nil, err
	}

	panics, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "typedconf_listener_panics_total",
		Help: "Number of recovered config listener panics per supplier.",
	}, []string{"supplier"}))
	if err != nil {
		return nil, err
	}

	duration, err := register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "typedconf_parse_duration_seconds",
		Help:    "Time spent producing a config record on reload.",
		Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
	}, []string{"supplier"}))
	if err != nil {
		return nil, err
	}

	return &PrometheusCollector{
		reloads:        reloads,
		listenerPanics: panics,
		parseDuration:  duration,
	}, nil
}

// register registers c, returning the existing collector of the same type
// if an identical one is already registered.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		var zero C
		return zero, err
	}
	return c, nil
}

// ObserveReload increments the reload counter and records the duration.
func (p *PrometheusCollector) ObserveReload(supplier, result string, took time.Duration) {
	if p == nil {
		return
	}
	p.reloads.WithLabelValues(supplier, result).Inc()
	p.parseDuration.WithLabelValues(supplier).Observe(took.Seconds())
}

// IncListenerPanic increments the listener panic counter.
func (p *PrometheusCollector) IncListenerPanic(supplier string) {
	if p == nil {
		return
	}
	p.listenerPanics.WithLabelValues(supplier).Inc()
}

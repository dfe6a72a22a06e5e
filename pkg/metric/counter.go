package metric

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every metric registered by this package.
const Namespace = "docsite"

// IncrementalCounter counts events partitioned by label values.
type IncrementalCounter interface {
	Increment(val ...string)
}

// DurationObserver records durations partitioned by label values.
type DurationObserver interface {
	Observe(d time.Duration, val ...string)
}

// Counter is a Prometheus backed IncrementalCounter.
type Counter struct {
	Name string
	Help string

	vec *prometheus.CounterVec
}

// Increment adds one to the series identified by the label values.
func (c *Counter) Increment(val ...string) {
	c.vec.WithLabelValues(val...).Inc()
}

// Histogram is a Prometheus backed DurationObserver measuring seconds.
type Histogram struct {
	Name string
	Help string

	vec *prometheus.HistogramVec
}

// Observe records d in the series identified by the label values.
func (h *Histogram) Observe(d time.Duration, val ...string) {
	h.vec.WithLabelValues(val...).Observe(d.Seconds())
}

// NewCounter registers a counter with the default Prometheus registerer.
func NewCounter(name, help string, labels ...string) IncrementalCounter {
	return NewCounterWithRegistry(prometheus.DefaultRegisterer, name, help, labels...)
}

// NewCounterWithRegistry registers a counter with reg. It panics if a
// collector with the same name is already registered.
func NewCounterWithRegistry(reg prometheus.Registerer, name, help string, labels ...string) IncrementalCounter {
	counter := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      name,
		Help:      help,
	}, labels)

	reg.MustRegister(counter)

	return &Counter{
		Name: name,
		Help: help,
		vec:  counter,
	}
}

// NewHistogramWithRegistry registers a duration histogram with reg using
// buckets sized for sub-second page renders.
func NewHistogramWithRegistry(reg prometheus.Registerer, name, help string, labels ...string) DurationObserver {
	hist := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      name,
		Help:      help,
		Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
	}, labels)

	reg.MustRegister(hist)

	return &Histogram{
		Name: name,
		Help: help,
		vec:  hist,
	}
}

// Noop discards everything; it is used when metrics are disabled.
type Noop struct{}

func (Noop) Increment(...string)              {}
func (Noop) Observe(time.Duration, ...string) {}

// GetHandler returns an HTTP handler for serving Prometheus metrics.
func GetHandler() http.Handler {
	return promhttp.Handler()
}

// GetHandlerForRegistry returns an HTTP handler for serving Prometheus metrics from a custom registry.
func GetHandlerForRegistry(reg prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

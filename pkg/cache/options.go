package cache

import (
	"github.com/8r2y5/guilded/metric"
)

// Option configures store behavior using the functional options pattern.
type Option[V any] func(*cacheOptions[V])

// cacheOptions holds internal configuration for store instances.
// Statistics are always collected; Prometheus export is optional.
type cacheOptions[V any] struct {
	// metricsReg is optional - if provided, store stats are also exposed as
	// Prometheus metrics
	metricsReg *metric.Registry

	// metricsPrefix is used as the store label for Prometheus metrics
	metricsPrefix string

	// evictCallback is called when entries are evicted by the FIFO bound
	evictCallback EvictCallback[V]
}

// WithMetrics enables Prometheus metrics export for store statistics.
// If registry is nil or prefix is empty, this option is ignored.
func WithMetrics[V any](registry *metric.Registry, prefix string) Option[V] {
	return func(opts *cacheOptions[V]) {
		if registry != nil && prefix != "" {
			opts.metricsReg = registry
			opts.metricsPrefix = prefix
		}
	}
}

// WithEvictionCallback sets a callback invoked with the key and value of
// each entry evicted by the FIFO bound.
func WithEvictionCallback[V any](callback EvictCallback[V]) Option[V] {
	return func(opts *cacheOptions[V]) {
		opts.evictCallback = callback
	}
}

// applyOptions applies functional options to build the final configuration.
func applyOptions[V any](options ...Option[V]) *cacheOptions[V] {
	opts := &cacheOptions[V]{}
	for _, opt := range options {
		if opt != nil {
			opt(opts)
		}
	}
	return opts
}

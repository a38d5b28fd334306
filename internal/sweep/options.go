package sweep

import (
	"runtime"

	"signal-backtest-lab/internal/logger"
	"signal-backtest-lab/internal/observability"
)

type options struct {
	workers  int
	log      *logger.Logger
	metrics  *observability.Metrics
	useCache bool
}

// Option configures Run.
type Option func(*options)

// WithWorkers sets the worker pool size. n <= 0 means runtime.NumCPU().
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithLogger sets the logger for sweep progress and cell failures.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// WithMetrics records sweep and cell metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithoutCache computes rolling statistics per cell instead of sharing
// them across cells with the same window.
func WithoutCache() Option {
	return func(o *options) {
		o.useCache = false
	}
}

func buildOptions(opts []Option) options {
	o := options{
		log:      logger.Nop(),
		useCache: true,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.workers <= 0 {
		o.workers = runtime.NumCPU()
	}
	return o
}

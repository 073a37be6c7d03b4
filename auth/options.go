package auth

import (
	"github.com/jrsteele09/go-auth-client/metrics"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type options struct {
	logger  zerolog.Logger
	metrics *metrics.Collector
}

// Option configures a coordinator.
type Option func(*options)

// WithLogger sets the logger (default: the global zerolog logger).
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMetrics records coordinator activity on c.
func WithMetrics(c *metrics.Collector) Option {
	return func(o *options) {
		o.metrics = c
	}
}

func buildOptions(component string, opts []Option) options {
	o := options{logger: log.Logger}
	for _, opt := range opts {
		opt(&o)
	}
	o.logger = o.logger.With().Str("component", component).Logger()
	return o
}

package provenance

import "log/slog"

type options struct {
	logger   *slog.Logger
	maxDepth int
}

// Option configures a walk.
type Option func(*options)

// WithLogger sets the logger used for walk diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMaxDepth stops the walk from entering nodes further than depth hops
// from the start. Zero or less means unlimited.
func WithMaxDepth(depth int) Option {
	return func(o *options) {
		o.maxDepth = depth
	}
}

func newOptions(opts []Option) options {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

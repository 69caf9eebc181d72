package ceremony

import (
	"runtime"

	"go.uber.org/zap"
)

type options struct {
	workers int
	logger  *zap.Logger
}

// Option configures a [Validator] or an [Updater].
type Option func(*options)

// WithWorkers bounds the number of sub-ceremonies processed concurrently.
// n <= 0 selects the number of CPUs.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithLogger sets the logger. A nil logger discards output.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

func newOptions(opts []Option) options {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.workers <= 0 {
		o.workers = runtime.NumCPU()
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	return o
}

// File: options.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package ringpmd

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/netgroup-polito/ringpmd/internal/bypass"
)

// Option configures a Device at construction time.
type Option func(*deviceOptions)

type deviceOptions struct {
	registerer prometheus.Registerer
	logger     *zap.Logger
	clock      bypass.Clock
	bufSize    int
}

func defaultOptions() *deviceOptions {
	return &deviceOptions{
		registerer: prometheus.DefaultRegisterer,
		clock:      bypass.SystemClock,
		bufSize:    2048,
	}
}

// WithRegisterer overrides the Prometheus registerer counters are
// published to (default: prometheus.DefaultRegisterer).
func WithRegisterer(r prometheus.Registerer) Option {
	return func(o *deviceOptions) { o.registerer = r }
}

// WithLogger sets the base logger a device's component loggers are
// derived from (default: a new logger built by logging.New(cfg.LogMode)).
func WithLogger(l *zap.Logger) Option {
	return func(o *deviceOptions) { o.logger = l }
}

// WithClock overrides the time source the cap-timeout state machine
// reads from; production code should never need this, it exists for
// deterministic tests (spec §8 scenario S6).
func WithClock(c bypass.Clock) Option {
	return func(o *deviceOptions) { o.clock = c }
}

// WithBufferSize sets the per-buffer payload capacity (past headroom)
// each queue's mempool allocates.
func WithBufferSize(n int) Option {
	return func(o *deviceOptions) { o.bufSize = n }
}


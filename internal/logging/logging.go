// File: internal/logging/logging.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Structured logging facade over go.uber.org/zap, grounded on the
// zap.Logger usage in the DPDK-style network manager reference
// (mempool-network-dpdk_network.go in the retrieval pack): a single
// *zap.Logger threaded into constructors, Warn/Error with zap.Error
// for non-fatal faults on the control path.

package logging

import (
	"go.uber.org/zap"

	"github.com/netgroup-polito/ringpmd/internal/config"
)

// New builds a *zap.Logger for the given LogMode. Development mode
// enables human-readable console output and debug level; production
// mode emits JSON at info level.
func New(mode config.LogMode) (*zap.Logger, error) {
	if mode == config.LogModeDevelopment {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// Named returns a child logger scoped to a component name, e.g.
// "bypass.rx", "ivshmem.coalesce".
func Named(base *zap.Logger, component string) *zap.Logger {
	if base == nil {
		return zap.NewNop()
	}
	return base.Named(component)
}

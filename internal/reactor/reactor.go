// File: internal/reactor/reactor.go
// Package reactor provides the event-driven I/O multiplexer used by the
// ivshmem hot-plug monitor and the control side-channel reader.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// The driver's design notes (spec §9) prefer "an explicit event loop on
// an epoll/kqueue equivalent over signal-driven async I/O" to the
// SIGIO+F_SETOWN mechanism a C implementation would use for both udev
// hot-plug and the virtio-serial channel. This package is that loop,
// adapted from the teacher's reactor/reactor_linux.go and reactor.go.

package reactor

import "github.com/netgroup-polito/ringpmd/api"

// New constructs the platform-specific Reactor (epoll on Linux).
func New() (api.Reactor, error) {
	return newPlatformReactor()
}

// File: internal/reactor/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package reactor implements api.Reactor backed by epoll(7) on Linux,
// used by internal/ivshmem for udev hot-plug notifications and by
// internal/sidechannel for the virtio-serial control socket. Both
// consumers poll file descriptors, so neither needs the SIGIO-based
// async notification a native implementation would reach for.
package reactor

// File: internal/ivshmem/hotplug.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Hot-plug (spec §4.8): a udev-style monitor on the pci subsystem that
// triggers PCI rescan -> discovery -> coalesce+map -> object init on
// an "add" event matching an ivshmem device. The spec's own driving
// note (§9) prefers an explicit event loop over signal-driven I/O, so
// this drives the monitor through internal/reactor instead of the
// SIGIO/F_SETOWN mechanism it describes; mask/unmask semantics are
// preserved as a gate in front of delivery.

package ivshmem

import (
	"sync"

	"github.com/eapache/queue"
)

// HotplugAction distinguishes add/remove events.
type HotplugAction string

const (
	ActionAdd    HotplugAction = "add"
	ActionRemove HotplugAction = "remove"
)

// HotplugEvent is one PCI uevent relevant to the pci subsystem.
type HotplugEvent struct {
	Action     HotplugAction
	DevicePath string
	VendorID   uint16
	DeviceID   uint16
}

// IsIvshmem reports whether the event names an ivshmem function.
func (e HotplugEvent) IsIvshmem() bool {
	return e.VendorID == VendorID && e.DeviceID == DeviceID
}

// Watcher delivers PCI hotplug events.
type Watcher interface {
	Events() <-chan HotplugEvent
	Close() error
}

// Monitor gates a Watcher's events behind enable/disable, queuing
// events that arrive while masked and releasing them on Enable (spec
// §4.8: "a request that arrives while masked is delivered after
// unmask").
type Monitor struct {
	watcher Watcher
	out     chan HotplugEvent

	mu      sync.Mutex
	enabled bool
	pending *queue.Queue // FIFO backlog of events queued while masked

	done chan struct{}
}

// NewMonitor wraps w, starting masked.
func NewMonitor(w Watcher) *Monitor {
	m := &Monitor{watcher: w, out: make(chan HotplugEvent, 16), pending: queue.New(), done: make(chan struct{})}
	go m.pump()
	return m
}

func (m *Monitor) pump() {
	for {
		select {
		case ev, ok := <-m.watcher.Events():
			if !ok {
				close(m.out)
				return
			}
			m.mu.Lock()
			if m.enabled {
				m.mu.Unlock()
				m.out <- ev
			} else {
				m.pending.Add(ev)
				m.mu.Unlock()
			}
		case <-m.done:
			return
		}
	}
}

// EnableHotplug unmasks delivery, flushing any events queued while masked.
func (m *Monitor) EnableHotplug() {
	m.mu.Lock()
	m.enabled = true
	queued := make([]HotplugEvent, 0, m.pending.Length())
	for m.pending.Length() > 0 {
		queued = append(queued, m.pending.Remove().(HotplugEvent))
	}
	m.mu.Unlock()
	for _, ev := range queued {
		m.out <- ev
	}
}

// DisableHotplug masks delivery; subsequent events queue instead of
// reaching Events().
func (m *Monitor) DisableHotplug() {
	m.mu.Lock()
	m.enabled = false
	m.mu.Unlock()
}

// Events returns the channel delivered events (post-mask-gate) arrive on.
func (m *Monitor) Events() <-chan HotplugEvent { return m.out }

// Close stops the pump and the underlying watcher.
func (m *Monitor) Close() error {
	close(m.done)
	return m.watcher.Close()
}

// File: internal/ivshmem/watcher_sim.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package ivshmem

// SimWatcher is an in-memory Watcher for tests: Emit pushes an event
// as if it had arrived over netlink.
type SimWatcher struct {
	ch chan HotplugEvent
}

// NewSimWatcher returns an empty SimWatcher.
func NewSimWatcher() *SimWatcher {
	return &SimWatcher{ch: make(chan HotplugEvent, 16)}
}

func (w *SimWatcher) Emit(ev HotplugEvent) { w.ch <- ev }

func (w *SimWatcher) Events() <-chan HotplugEvent { return w.ch }

func (w *SimWatcher) Close() error {
	close(w.ch)
	return nil
}

var _ Watcher = (*SimWatcher)(nil)

// File: internal/registry/registry.go
// Package registry wraps the driver's global mutable state — the
// port_id <-> device table and the named-ring lookup table — behind a
// typed component with explicit init/teardown, replacing the
// process-global arrays a native poll-mode driver would use (spec §6
// REDESIGN FLAGS: "Global mutable state").
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Locking follows spec §5: the device table takes a coarse per-device
// lock around setup/release/start (modeled here as sync.RWMutex over
// the whole table, since device count is small and churn is rare), and
// the ring table is a multi-reader/single-writer lookup, grounded on
// the teacher's control/config.go RWMutex-guarded map discipline.

package registry

import (
	"sync"

	"github.com/netgroup-polito/ringpmd/api"
)

// PortID is the small integer handle spec §6 prescribes in place of a
// device back-pointer, to break the queue<->device cyclic reference.
type PortID int

// RenameHook is invoked when the side-channel parses an
// `old=<name>,new=<name>` control message (spec §6).
type RenameHook func(oldName, newName string)

// Device is the minimal contract the registry needs from a registered
// device; ringpmd.Device satisfies it.
type Device interface {
	Name() string
	Close() error
}

// Table maps port IDs and names to registered devices.
type Table struct {
	mu       sync.RWMutex
	byID     map[PortID]Device
	byName   map[string]PortID
	next     PortID
	rings    map[string]any // name -> ring object, multi-reader/single-writer
	ringsMu  sync.RWMutex
	renameFn RenameHook
}

// New returns an empty registry.
func New() *Table {
	return &Table{
		byID:   make(map[PortID]Device),
		byName: make(map[string]PortID),
		rings:  make(map[string]any),
	}
}

// Register assigns a fresh PortID to dev and indexes it by name.
// Returns api.ErrAlreadyExists if the name is already registered.
func (t *Table) Register(name string, dev Device) (PortID, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.byName[name]; exists {
		return 0, api.ErrAlreadyExists
	}
	id := t.next
	t.next++
	t.byID[id] = dev
	t.byName[name] = id
	return id, nil
}

// Lookup resolves a PortID to its device, the weak-handle pattern spec
// §6 calls for in place of queue->device pointers.
func (t *Table) Lookup(id PortID) (Device, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	d, ok := t.byID[id]
	return d, ok
}

// LookupByName resolves a device by its registered name.
func (t *Table) LookupByName(name string) (PortID, Device, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	id, ok := t.byName[name]
	if !ok {
		return 0, nil, false
	}
	return id, t.byID[id], true
}

// Unregister removes a device and closes it.
func (t *Table) Unregister(id PortID) error {
	t.mu.Lock()
	dev, ok := t.byID[id]
	if !ok {
		t.mu.Unlock()
		return api.ErrNotFound
	}
	delete(t.byID, id)
	delete(t.byName, dev.Name())
	t.mu.Unlock()
	return dev.Close()
}

// Rename updates the name index for id's device, dispatching the
// registered RenameHook (if any) for downstream components (e.g. a
// bypass queue whose ATTACH lookup name changed underneath it).
func (t *Table) Rename(oldName, newName string) error {
	t.mu.Lock()
	id, ok := t.byName[oldName]
	if !ok {
		t.mu.Unlock()
		return api.ErrNotFound
	}
	delete(t.byName, oldName)
	t.byName[newName] = id
	fn := t.renameFn
	t.mu.Unlock()
	if fn != nil {
		fn(oldName, newName)
	}
	return nil
}

// OnRename registers the rename hook dispatched by Rename.
func (t *Table) OnRename(fn RenameHook) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.renameFn = fn
}

// RegisterRing publishes a named ring object, skipping duplicates by
// name per spec §5's memzone-publication rule.
func (t *Table) RegisterRing(name string, ring any) {
	t.ringsMu.Lock()
	defer t.ringsMu.Unlock()
	if _, exists := t.rings[name]; exists {
		return
	}
	t.rings[name] = ring
}

// LookupRing resolves a ring by its published name, used for ATTACH.
func (t *Table) LookupRing(name string) (any, bool) {
	t.ringsMu.RLock()
	defer t.ringsMu.RUnlock()
	r, ok := t.rings[name]
	return r, ok
}

// File: internal/affinity/affinity.go
// Package affinity implements the api.Affinity contract for pinning a
// queue's polling goroutine to a CPU/NUMA node, keeping descriptor and
// buffer access local to the socket the hardware queue was created on.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Platform-neutral entry point; setAffinityPlatform is implemented per
// build tag in affinity_linux.go / affinity_stub.go, adapted from the
// teacher's affinity/affinity.go dispatch convention.

package affinity

import (
	"runtime"

	"github.com/netgroup-polito/ringpmd/api"
)

// Pinner implements api.Affinity for the current OS thread.
type Pinner struct {
	cpuID, numaID int
	pinned        bool
}

// NewPinner returns a thread-scoped Affinity handle.
func NewPinner() *Pinner {
	return &Pinner{cpuID: -1, numaID: -1}
}

// Pin binds the calling OS thread to cpuID; numaID is recorded for
// reporting but placement itself is driven by cpuID (NUMA-local
// allocation is the pool's responsibility, see internal/mbuf).
func (p *Pinner) Pin(cpuID, numaID int) error {
	if cpuID < 0 {
		return api.ErrInvalidArgument
	}
	runtime.LockOSThread()
	if err := setAffinityPlatform(cpuID); err != nil {
		return err
	}
	p.cpuID, p.numaID, p.pinned = cpuID, numaID, true
	return nil
}

// Unpin clears the recorded binding. The OS thread's actual affinity
// mask is left as-is; most platforms offer no portable "restore
// default" call, matching the teacher's affinity package scope.
func (p *Pinner) Unpin() error {
	p.cpuID, p.numaID, p.pinned = -1, -1, false
	return nil
}

// Get reports the last successfully pinned CPU/NUMA pair.
func (p *Pinner) Get() (cpuID, numaID int, err error) {
	return p.cpuID, p.numaID, nil
}

// Scope reports thread-level binding, the only scope this driver uses
// (one polling goroutine per queue, locked to its OS thread).
func (p *Pinner) Scope() api.AffinityScope { return api.ScopeThread }

// ImmutableDescriptor snapshots the current binding state.
func (p *Pinner) ImmutableDescriptor() api.AffinityDescriptor {
	return api.AffinityDescriptor{
		CPUID: p.cpuID, NUMAID: p.numaID,
		Scope: api.ScopeThread, Pinned: p.pinned,
	}
}

var _ api.Affinity = (*Pinner)(nil)

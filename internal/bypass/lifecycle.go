// File: internal/bypass/lifecycle.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Attach/detach orchestration (spec §4.3). These are control-plane
// operations only: the actual cap exchange that completes a cutover
// happens in-band on the next TX burst (CreationTx/DestructionTx), not
// here.

package bypass

import (
	"time"

	"github.com/netgroup-polito/ringpmd/internal/registry"
	"github.com/netgroup-polito/ringpmd/internal/worker"
)

// DefaultDetachDelay is the "small delay" spec §4.3 documents for the
// deferred bypass-NIC close (~100ms).
const DefaultDetachDelay = 100 * time.Millisecond

// AttachBypass wires normal's queues to nic, recorded under bypassID,
// and advances bypass_state to Attached. Rollback on any setup failure
// frees resources in reverse order of acquisition (spec §7).
func AttachBypass(normal *Device, bypassID registry.PortID, nic BypassNIC) error {
	if normal.BypassState() != StateDetached {
		return ErrNotDetached()
	}
	if err := nic.Configure(normal.MAC()); err != nil {
		return ErrNICSetupFailed("configure", err)
	}

	setUpRx := make([]*RxQueue, 0, len(normal.rxQueues))
	for _, q := range normal.rxQueues {
		if err := nic.SetupRxQueue(q.pool, q.nbDesc); err != nil {
			nic.Close()
			return ErrNICSetupFailed("rx queue setup", err)
		}
		setUpRx = append(setUpRx, q)
	}
	for _, q := range normal.txQueues {
		if err := nic.SetupTxQueue(q.pool, q.nbDesc); err != nil {
			nic.Close()
			return ErrNICSetupFailed("tx queue setup", err)
		}
	}
	if err := nic.Start(); err != nil {
		nic.Close()
		return ErrNICSetupFailed("start", err)
	}

	for _, q := range normal.rxQueues {
		q.bypassNIC = nic
		q.bypassPortID = bypassID
		q.nlast = 1
		q.oldTSC = time.Time{}
		q.rxPktsBypass.Store(0)
		q.setState(CreationRx)
	}
	for _, q := range normal.txQueues {
		q.bypassNIC = nic
		q.bypassPortID = bypassID
		q.txPktsBypass.Store(0)
		q.errPktsBypass.Store(0)
		q.setState(CreationTx)
	}
	normal.bypassPort = bypassID
	normal.setBypassState(StateAttached)
	return nil
}

// DetachBypass flips bypass_state to Detaching and schedules the
// bypass NIC's stop/close on a detached worker after delay, setting
// bypass_state to Detached once that worker completes. Running the
// close inline would be reentrant into the NIC driver from a transmit
// call (spec §4.3 rationale), so it is handed to pool — or, if pool is
// nil, a bare goroutine — and not waited on here.
func DetachBypass(normal *Device, pool *worker.Pool, delay time.Duration) error {
	if normal.BypassState() != StateAttached {
		return ErrNotAttached()
	}
	if delay <= 0 {
		delay = DefaultDetachDelay
	}
	normal.setBypassState(StateDetaching)
	for _, q := range normal.rxQueues {
		q.setState(DestructionRx)
	}
	for _, q := range normal.txQueues {
		q.setState(DestructionTx)
	}

	var nic BypassNIC
	if len(normal.rxQueues) > 0 {
		nic = normal.rxQueues[0].bypassNIC
	} else if len(normal.txQueues) > 0 {
		nic = normal.txQueues[0].bypassNIC
	}

	closeWork := func() {
		time.Sleep(delay)
		if nic != nil {
			nic.Stop()
			nic.Close()
		}
		normal.setBypassState(StateDetached)
	}
	if pool != nil {
		if err := pool.Submit(closeWork); err == nil {
			return nil
		}
	}
	go closeWork()
	return nil
}

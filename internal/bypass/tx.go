// File: internal/bypass/tx.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Transmit-side dispatch (spec §4.2), including cap emission: the
// in-band barrier that orders the cutover relative to data already
// committed on the old channel (spec §4.2 "Design rationale").

package bypass

import (
	"runtime"

	"github.com/netgroup-polito/ringpmd/internal/mbuf"
)

// TxBurst enqueues/transmits up to len(bufs) packets, dispatching on
// q's current state, and returns the number successfully accepted.
func (q *TxQueue) TxBurst(dev *Device, bufs []*mbuf.Buffer) int {
	n := len(bufs)
	switch q.State() {
	case CreationTx:
		return q.creationTx(dev, bufs, n)
	case BypassTx:
		return q.bypassTx(bufs, n)
	case DestructionTx:
		return q.destructionTx(dev, bufs, n)
	default:
		return q.normalTx(bufs, n)
	}
}

// normalTx enqueues onto q.ring (spec §4.2 NormalTx).
func (q *TxQueue) normalTx(bufs []*mbuf.Buffer, n int) int {
	sent := 0
	for i := 0; i < n; i++ {
		if q.ring.Enqueue(bufs[i]) {
			sent++
		} else {
			q.errPkts.Add(1)
		}
	}
	q.txPkts.Add(uint64(sent))
	return sent
}

// creationTx emits a cap on the ring, flips device mode and queue
// state, then forwards the current burst to the bypass NIC (spec §4.2
// CreationTx).
func (q *TxQueue) creationTx(dev *Device, bufs []*mbuf.Buffer, n int) int {
	q.sendCapOnRing()
	q.setState(BypassTx)
	dev.setMode(ModeBypass)
	return q.bypassTx(bufs, n)
}

// bypassTx transmits directly on the bypass NIC (spec §4.2 BypassTx).
func (q *TxQueue) bypassTx(bufs []*mbuf.Buffer, n int) int {
	sent := q.bypassNIC.TxBurst(bufs[:n])
	q.txPkts.Add(uint64(sent))
	q.txPktsBypass.Add(uint64(sent))
	if sent < n {
		q.errPktsBypass.Add(uint64(n - sent))
	}
	return sent
}

// destructionTx emits a cap on the bypass NIC, flips state/mode back to
// Normal, then forwards to normalTx (spec §4.2 DestructionTx).
func (q *TxQueue) destructionTx(dev *Device, bufs []*mbuf.Buffer, n int) int {
	q.sendCapOnBypass()
	q.setState(NormalTx)
	dev.setMode(ModeNormal)
	return q.normalTx(bufs, n)
}

// sendCapOnRing implements send_cap_ring (spec §4.2): allocate a cap
// buffer (retrying until the pool yields one — control plane, not data
// plane) and busy-loop enqueue it onto the ring about to be drained.
func (q *TxQueue) sendCapOnRing() {
	b := q.pool.MustGet()
	b.MarkCap()
	for !q.ring.Enqueue(b) {
		runtime.Gosched()
	}
}

// sendCapOnBypass implements send_cap_bypass: same discipline, but the
// busy loop targets the bypass NIC's TX burst instead of the ring.
func (q *TxQueue) sendCapOnBypass() {
	b := q.pool.MustGet()
	b.MarkCap()
	one := []*mbuf.Buffer{b}
	for {
		if sent := q.bypassNIC.TxBurst(one); sent == 1 {
			return
		}
		runtime.Gosched()
	}
}

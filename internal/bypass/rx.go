// File: internal/bypass/rx.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Receive-side dispatch (spec §4.1). rx_burst never blocks and never
// fails: adverse conditions degrade to m = 0, so every handler here
// returns an int, not an error.

package bypass

import "github.com/netgroup-polito/ringpmd/internal/mbuf"

// RxBurst dequeues up to len(bufs) packets, dispatching on q's current
// state, and returns the number of buffers populated.
func (q *RxQueue) RxBurst(dev *Device, bufs []*mbuf.Buffer) int {
	n := len(bufs)
	switch q.State() {
	case CreationRx:
		return q.creationRx(bufs, n)
	case BypassRx:
		return q.bypassRx(bufs, n)
	case DestructionRx:
		return q.destructionRx(dev, bufs, n)
	default:
		return q.normalRx(bufs, n)
	}
}

// normalRx dequeues up to n buffers from q.ring (spec §4.1 NormalRx).
func (q *RxQueue) normalRx(bufs []*mbuf.Buffer, n int) int {
	m := 0
	for m < n {
		b, ok := q.ring.Dequeue()
		if !ok {
			break
		}
		bufs[m] = b
		m++
	}
	q.rxPkts.Add(uint64(m))
	return m
}

// creationRx drains the ring, watching for the cap that signals the
// bypass NIC is now the source of truth (spec §4.1 CreationRx).
func (q *RxQueue) creationRx(bufs []*mbuf.Buffer, n int) int {
	m := q.normalRx(bufs, n)
	return q.scanCapAndTransition(bufs, m, BypassRx)
}

// bypassRx drains any in-flight ring traffic first — packets committed
// to the ring before the cap may still trail it by a burst or two —
// then falls through to the bypass NIC once the ring is empty (spec
// §4.1 BypassRx).
func (q *RxQueue) bypassRx(bufs []*mbuf.Buffer, n int) int {
	if q.ring.Len() > 0 {
		return q.normalRx(bufs, n)
	}
	m := q.bypassNIC.RxBurst(bufs[:n])
	q.rxPkts.Add(uint64(m))
	q.rxPktsBypass.Add(uint64(m))
	return m
}

// destructionRx mirrors creationRx but sources from the bypass NIC and
// returns to NormalRx on cap/timeout (spec §4.1 DestructionRx). If the
// bypass has already detached underneath this queue, it degrades to
// NormalRx immediately.
func (q *RxQueue) destructionRx(dev *Device, bufs []*mbuf.Buffer, n int) int {
	if dev.BypassState() != StateAttached {
		q.setState(NormalRx)
		return q.normalRx(bufs, n)
	}
	raw := q.bypassNIC.RxBurst(bufs[:n])
	q.rxPkts.Add(uint64(raw))
	q.rxPktsBypass.Add(uint64(raw))
	return q.scanCapAndTransition(bufs, raw, NormalRx)
}

// scanCapAndTransition implements the shared cap-detection/timeout
// logic used by both CreationRx and DestructionRx (spec §4.1-4.2): the
// cap, if present, is dropped from the returned burst and the queue
// transitions to transitionTo; absent any cap, a run of zero-length
// bursts beyond capTimeout forces the same transition (cap lost or
// peer idle).
func (q *RxQueue) scanCapAndTransition(bufs []*mbuf.Buffer, m int, transitionTo RxState) int {
	capSeen := false
	for i := 0; i < m; i++ {
		if bufs[i].IsCap() {
			q.setState(transitionTo)
			bufs[i].Release()
			copy(bufs[i:m-1], bufs[i+1:m])
			m--
			capSeen = true
			q.rxPkts.Add(^uint64(0)) // undo normalRx/bypassNIC.RxBurst counting the cap itself
			break
		}
	}
	if !capSeen && m == 0 {
		if q.nlast != 0 {
			q.oldTSC = q.clock.Now()
		}
		if !q.oldTSC.IsZero() && q.clock.Now().Sub(q.oldTSC) >= q.capTimeout {
			q.setState(transitionTo)
		}
	}
	q.nlast = m
	return m
}

// File: internal/verbs/rehash.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// rxq_rehash (spec §4.6): switches a live queue between single-segment
// and scatter descriptor layouts without discarding already-allocated
// buffers. Forbidden from data-plane threads: the work queue must sit
// in WQStateReset for the whole operation, so any burst call racing
// this function would observe a dead queue.

package verbs

import "github.com/netgroup-polito/ringpmd/internal/mbuf"

// Rehash reconfigures q to the scatter/single layout implied by
// newMaxPktLen against mbLen (the pool's per-buffer capacity past
// headroom), reusing the buffers already owned by q's descriptors
// instead of returning them to pool first.
//
// On any failure after the old descriptor array has been harvested,
// the queue is left unusable (spec §7 "post-rehash failure" contract):
// the caller must tear the whole RxQueue down rather than retry.
func Rehash(q *RxQueue, pool *mbuf.Pool, mbLen, newMaxPktLen int) error {
	newScatter := newMaxPktLen > mbLen

	if err := q.Backend.SetWQState(q.WQ, WQStateReset); err != nil {
		return ErrSetupFailed("rehash: reset wq", err)
	}

	// Harvest every buffer currently posted to the old layout; from
	// here on a failure cannot be rolled back to the old layout. The
	// total buffer count is conserved across the layout change (spec
	// §8 property 5); only how they are grouped into descriptors
	// changes.
	harvested := harvestBuffers(q)

	q.Scatter = newScatter
	if newScatter {
		q.EltsN = len(harvested) / SGWRN
	} else {
		q.EltsN = len(harvested)
	}

	recycle := append([]*mbuf.Buffer(nil), harvested...)
	for _, b := range recycle {
		b.Reset()
	}

	if err := allocateElements(q, pool, recycle); err != nil {
		return ErrQueueUnusable(err)
	}

	if err := q.Backend.SetWQState(q.WQ, WQStateReady); err != nil {
		return ErrQueueUnusable(err)
	}

	if err := postAllElements(q); err != nil {
		return ErrQueueUnusable(err)
	}

	return nil
}

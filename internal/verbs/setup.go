// File: internal/verbs/setup.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// rxq_setup (spec §4.4): allocates a hardware RX queue's verbs objects
// and descriptor elements. Any failure after memory registration rolls
// back what was already created, in the reverse order of acquisition
// (pool -> MR -> RD -> CQ -> WQ -> elements), per spec §7.

package verbs

import (
	"github.com/netgroup-polito/ringpmd/internal/mbuf"
)

// SetupConfig carries the parameters rxq_setup reads from the device
// config and the caller-supplied mempool (spec §4.4 operation
// signature: rxq_setup(dev, q, desc, socket, conf, mp)).
type SetupConfig struct {
	Desc       int
	Socket     int
	Jumbo      bool
	MaxPktLen  int
	Limits     DeviceLimits
	RecyclePool []*mbuf.Buffer // caller-supplied recycled buffers, may be nil
}

// Setup builds a fresh RxQueue against backend and pool, implementing
// the eight steps of spec §4.4.
func Setup(backend Backend, pool *mbuf.Pool, cfg SetupConfig) (*RxQueue, error) {
	if cfg.Desc <= 0 || cfg.Desc%SGWRN != 0 {
		return nil, ErrBadDescCount(cfg.Desc)
	}

	// (1) probe buffer to learn mb_len.
	probe := pool.Get()
	mbLen := probe.Cap()
	probe.Release()

	// (2) scatter flag and descriptor-count adjustment.
	sp := cfg.Jumbo && cfg.MaxPktLen > mbLen // mbLen is already past headroom
	desc := cfg.Desc
	if sp {
		desc /= SGWRN
	}

	// (3) register the mempool's virtual range as one memory region.
	// The sim/production pool does not expose one contiguous arena (see
	// internal/mbuf.Pool), so a representative placeholder buffer
	// stands in for "the mempool's range" here — what matters to the
	// rest of this package is that every posted SGE carries the same
	// lkey, which the sim backend supplies regardless of the base slice.
	mr, lkey, err := backend.RegisterMR(make([]byte, mbLen))
	if err != nil {
		return nil, ErrSetupFailed("register memory region", err)
	}

	// (4) resource domain, completion queue, work queue.
	rd, err := backend.CreateResourceDomain()
	if err != nil {
		backend.DeregisterMR(mr)
		return nil, ErrSetupFailed("create resource domain", err)
	}
	cq, err := backend.CreateCQ(desc)
	if err != nil {
		backend.DestroyResourceDomain(rd)
		backend.DeregisterMR(mr)
		return nil, ErrSetupFailed("create completion queue", err)
	}
	maxRecvWR := minInt(cfg.Limits.MaxQPWR, desc)
	maxRecvSGE := minInt(cfg.Limits.MaxSGE, SGWRN)
	wq, err := backend.CreateWQ(rd, cq, maxRecvWR, maxRecvSGE)
	if err != nil {
		backend.DestroyCQ(cq)
		backend.DestroyResourceDomain(rd)
		backend.DeregisterMR(mr)
		return nil, ErrSetupFailed("create work queue", err)
	}

	q := &RxQueue{
		Backend: backend, MR: mr, LKey: lkey, RD: rd, CQ: cq, WQ: wq,
		Scatter: sp, EltsN: desc, NUMASocket: cfg.Socket,
	}

	// (5) allocate descriptor elements.
	if err := allocateElements(q, pool, cfg.RecyclePool); err != nil {
		backend.DestroyWQ(wq)
		backend.DestroyCQ(cq)
		backend.DestroyResourceDomain(rd)
		backend.DeregisterMR(mr)
		return nil, ErrSetupFailed("allocate descriptor elements", err)
	}

	// (6)-(7) the sim backend has no separate direct-verb-interface
	// acquisition step; move straight to Ready.
	if err := backend.SetWQState(wq, WQStateReady); err != nil {
		releaseElements(q)
		backend.DestroyWQ(wq)
		backend.DestroyCQ(cq)
		backend.DestroyResourceDomain(rd)
		backend.DeregisterMR(mr)
		return nil, ErrSetupFailed("set wq ready", err)
	}

	// (8) post every allocated SG list or single SGE.
	if err := postAllElements(q); err != nil {
		releaseElements(q)
		backend.DestroyWQ(wq)
		backend.DestroyCQ(cq)
		backend.DestroyResourceDomain(rd)
		backend.DeregisterMR(mr)
		return nil, ErrSetupFailed("post recv descriptors", err)
	}

	return q, nil
}

func minInt(a, b int) int {
	if a <= 0 {
		return b
	}
	if a < b {
		return a
	}
	return b
}

func postAllElements(q *RxQueue) error {
	if q.Scatter {
		for _, el := range q.ScatterEls {
			if err := q.Backend.PostRecv(q.WQ, el.SGEs[:]); err != nil {
				return err
			}
		}
		return nil
	}
	for _, el := range q.Single {
		if err := q.Backend.PostRecv(q.WQ, []SGE{el.SGE}); err != nil {
			return err
		}
	}
	return nil
}

// File: internal/verbs/backend_sim.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// SimBackend models the verbs object table in plain Go maps, so the
// RX-queue lifecycle algorithm (spec §4.4-4.7) is fully testable
// without an RDMA-capable NIC. Handles are monotonically increasing
// counters rather than real kernel object pointers.

package verbs

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// SimBackend is the default, always-available Backend.
type SimBackend struct {
	next atomic.Uintptr

	mu    sync.Mutex
	mrs   map[MRHandle][]byte
	rds   map[RDHandle]struct{}
	cqs   map[CQHandle]int
	wqs   map[WQHandle]*simWQ
	ind   map[IndirHandle][]WQHandle
	qps   map[QPHandle]struct{}
}

type simWQ struct {
	maxRecvWR      int
	maxRecvSGE     int
	state          WQState
	postedSGELists [][]SGE
}

// NewSimBackend returns an empty SimBackend.
func NewSimBackend() *SimBackend {
	return &SimBackend{
		mrs: make(map[MRHandle][]byte),
		rds: make(map[RDHandle]struct{}),
		cqs: make(map[CQHandle]int),
		wqs: make(map[WQHandle]*simWQ),
		ind: make(map[IndirHandle][]WQHandle),
		qps: make(map[QPHandle]struct{}),
	}
}

func (b *SimBackend) handle() uintptr { return b.next.Add(1) }

func (b *SimBackend) RegisterMR(base []byte) (MRHandle, uint32, error) {
	if len(base) == 0 {
		return 0, 0, fmt.Errorf("verbs: cannot register empty memory region")
	}
	h := MRHandle(b.handle())
	b.mu.Lock()
	b.mrs[h] = base
	b.mu.Unlock()
	return h, uint32(h), nil
}

func (b *SimBackend) DeregisterMR(h MRHandle) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.mrs[h]; !ok {
		return fmt.Errorf("verbs: unknown MR handle")
	}
	delete(b.mrs, h)
	return nil
}

func (b *SimBackend) CreateResourceDomain() (RDHandle, error) {
	h := RDHandle(b.handle())
	b.mu.Lock()
	b.rds[h] = struct{}{}
	b.mu.Unlock()
	return h, nil
}

func (b *SimBackend) DestroyResourceDomain(h RDHandle) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.rds, h)
	return nil
}

func (b *SimBackend) CreateCQ(size int) (CQHandle, error) {
	if size <= 0 {
		return 0, fmt.Errorf("verbs: cq size must be positive")
	}
	h := CQHandle(b.handle())
	b.mu.Lock()
	b.cqs[h] = size
	b.mu.Unlock()
	return h, nil
}

func (b *SimBackend) DestroyCQ(h CQHandle) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.cqs, h)
	return nil
}

func (b *SimBackend) CreateWQ(rd RDHandle, cq CQHandle, maxRecvWR, maxRecvSGE int) (WQHandle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.rds[rd]; !ok {
		return 0, fmt.Errorf("verbs: unknown resource domain")
	}
	if _, ok := b.cqs[cq]; !ok {
		return 0, fmt.Errorf("verbs: unknown completion queue")
	}
	h := WQHandle(b.handle())
	b.wqs[h] = &simWQ{maxRecvWR: maxRecvWR, maxRecvSGE: maxRecvSGE, state: WQStateReset}
	return h, nil
}

func (b *SimBackend) SetWQState(wq WQHandle, state WQState) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	w, ok := b.wqs[wq]
	if !ok {
		return fmt.Errorf("verbs: unknown work queue")
	}
	w.state = state
	if state == WQStateReset {
		// A reset work queue discards the receives posted to it.
		w.postedSGELists = nil
	}
	return nil
}

func (b *SimBackend) PostRecv(wq WQHandle, sges []SGE) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	w, ok := b.wqs[wq]
	if !ok {
		return fmt.Errorf("verbs: unknown work queue")
	}
	if len(sges) > w.maxRecvSGE {
		return fmt.Errorf("verbs: sge count %d exceeds max_recv_sge %d", len(sges), w.maxRecvSGE)
	}
	cp := append([]SGE(nil), sges...)
	w.postedSGELists = append(w.postedSGELists, cp)
	if len(w.postedSGELists) > w.maxRecvWR {
		return fmt.Errorf("verbs: posted recv count exceeds max_recv_wr %d", w.maxRecvWR)
	}
	return nil
}

func (b *SimBackend) DestroyWQ(wq WQHandle) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.wqs, wq)
	return nil
}

func (b *SimBackend) CreateIndirectionTable(wqs []WQHandle) (IndirHandle, error) {
	if len(wqs) == 0 {
		return 0, fmt.Errorf("verbs: indirection table requires at least one work queue")
	}
	h := IndirHandle(b.handle())
	b.mu.Lock()
	cp := append([]WQHandle(nil), wqs...)
	b.ind[h] = cp
	b.mu.Unlock()
	return h, nil
}

func (b *SimBackend) DestroyIndirectionTable(h IndirHandle) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.ind, h)
	return nil
}

func (b *SimBackend) CreateHashQP(table IndirHandle, fieldsMask uint32, toeplitzKey [40]byte) (QPHandle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.ind[table]; !ok {
		return 0, fmt.Errorf("verbs: unknown indirection table")
	}
	h := QPHandle(b.handle())
	b.qps[h] = struct{}{}
	return h, nil
}

func (b *SimBackend) DestroyQP(qp QPHandle) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.qps, qp)
	return nil
}

var _ Backend = (*SimBackend)(nil)

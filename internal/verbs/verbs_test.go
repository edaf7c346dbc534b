// File: internal/verbs/verbs_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package verbs

import (
	"testing"

	"github.com/netgroup-polito/ringpmd/internal/mbuf"
)

func limits() DeviceLimits {
	return DeviceLimits{MaxQPWR: 256, MaxSGE: SGWRN}
}

func TestSetup_RejectsDescNotMultipleOfSGWRN(t *testing.T) {
	backend := NewSimBackend()
	pool := mbuf.NewPool(16, 512, -1)
	_, err := Setup(backend, pool, SetupConfig{Desc: 7, Limits: limits()})
	if err == nil {
		t.Fatalf("expected ErrBadDescCount for desc=7")
	}
}

func TestSetup_SingleSegmentKeepsHeadroom(t *testing.T) {
	backend := NewSimBackend()
	pool := mbuf.NewPool(16, 512, -1)
	q, err := Setup(backend, pool, SetupConfig{Desc: 8, Limits: limits()})
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if q.Scatter {
		t.Fatalf("expected non-scatter layout")
	}
	if len(q.Single) != 8 {
		t.Fatalf("expected 8 descriptors, got %d", len(q.Single))
	}
	for i, el := range q.Single {
		if el.SGE.Length != uint32(512) {
			t.Fatalf("descriptor %d: expected length 512, got %d", i, el.SGE.Length)
		}
		if el.SGE.LKey != q.LKey {
			t.Fatalf("descriptor %d: lkey mismatch", i)
		}
	}
}

func TestSetup_ScatterFirstSegmentKeepsHeadroomRestDoNot(t *testing.T) {
	backend := NewSimBackend()
	const bufSize = 512
	pool := mbuf.NewPool(32, bufSize, -1)
	q, err := Setup(backend, pool, SetupConfig{
		Desc: 8, Jumbo: true, MaxPktLen: 2000, Limits: limits(),
	})
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if !q.Scatter {
		t.Fatalf("expected scatter layout for jumbo config")
	}
	if len(q.ScatterEls) != 2 {
		t.Fatalf("expected 8/%d=2 descriptors, got %d", SGWRN, len(q.ScatterEls))
	}
	for _, el := range q.ScatterEls {
		if el.SGEs[0].Length != uint32(bufSize) {
			t.Fatalf("first segment should leave headroom: got length %d", el.SGEs[0].Length)
		}
		for j := 1; j < SGWRN; j++ {
			if el.SGEs[j].Length != uint32(bufSize+mbuf.Headroom) {
				t.Fatalf("segment %d should span the full buffer: got length %d", j, el.SGEs[j].Length)
			}
		}
	}
}

func TestSetup_ConsumesRecyclePoolBuffersFirst(t *testing.T) {
	backend := NewSimBackend()
	pool := mbuf.NewPool(16, 512, -1)
	// A recycle pool shorter than desc forces allocateElements to dip
	// into the mempool for the remainder; Setup still succeeds and the
	// recycled buffers fill the first descriptors.
	recycled := []*mbuf.Buffer{pool.Get(), pool.Get()}
	for _, b := range recycled {
		b.Reset()
	}
	q, err := Setup(backend, pool, SetupConfig{
		Desc: 4, Limits: limits(), RecyclePool: recycled,
	})
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if q.Single[0].Buf != recycled[0] || q.Single[1].Buf != recycled[1] {
		t.Fatalf("expected recycle pool buffers consumed first")
	}
}

func TestIndirTableSize_PowerOfTwoAtOrAboveRn(t *testing.T) {
	cases := map[int]int{1: 1, 2: 2, 3: 4, 4: 4, 5: 8, 7: 8, 8: 8}
	for rn, want := range cases {
		if got := indirTableSize(rn); got != want {
			t.Fatalf("indirTableSize(%d) = %d, want %d", rn, got, want)
		}
	}
}

func TestHashQPCount_OneWhenSingleQueueFourOtherwise(t *testing.T) {
	if hashQPCount(1) != 1 {
		t.Fatalf("expected 1 hash qp for a single queue")
	}
	for _, rn := range []int{2, 3, 4, 5, 7, 8} {
		if hashQPCount(rn) != 4 {
			t.Fatalf("expected 4 hash qps for Rn=%d", rn)
		}
	}
}

func TestCreateHashRxQs_WrapsAroundIndirectionTable(t *testing.T) {
	backend := NewSimBackend()
	pool := mbuf.NewPool(32, 512, -1)
	rxqs := make([]*RxQueue, 3) // Rn=3 -> Wn=4, wrap at index 3
	for i := range rxqs {
		q, err := Setup(backend, pool, SetupConfig{Desc: 4, Limits: limits()})
		if err != nil {
			t.Fatalf("Setup rxq %d: %v", i, err)
		}
		rxqs[i] = q
	}
	fabric, err := CreateHashRxQs(backend, rxqs, [ToeplitzKeyLen]byte{})
	if err != nil {
		t.Fatalf("CreateHashRxQs: %v", err)
	}
	if len(fabric.HashQPs) != 4 {
		t.Fatalf("expected 4 hash qps for Rn=3, got %d", len(fabric.HashQPs))
	}
	sim := backend
	tbl := sim.ind[fabric.Indir]
	if len(tbl) != 4 {
		t.Fatalf("expected indirection table of size 4, got %d", len(tbl))
	}
	if tbl[3] != rxqs[0].WQ {
		t.Fatalf("expected wrap-around: table[3] should equal rxqs[0].WQ")
	}
}

// maskRecordingBackend wraps a Backend and records the fieldsMask each
// CreateHashQP call received, so tests can assert which hash QP
// create_hash_rxqs actually builds.
type maskRecordingBackend struct {
	Backend
	masks []uint32
}

func (b *maskRecordingBackend) CreateHashQP(table IndirHandle, fieldsMask uint32, toeplitzKey [ToeplitzKeyLen]byte) (QPHandle, error) {
	b.masks = append(b.masks, fieldsMask)
	return b.Backend.CreateHashQP(table, fieldsMask, toeplitzKey)
}

func TestCreateHashRxQs_SingleQueueBuildsNoHashQP(t *testing.T) {
	sim := NewSimBackend()
	backend := &maskRecordingBackend{Backend: sim}
	pool := mbuf.NewPool(8, 512, -1)
	q, err := Setup(sim, pool, SetupConfig{Desc: 4, Limits: limits()})
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}

	fabric, err := CreateHashRxQs(backend, []*RxQueue{q}, [ToeplitzKeyLen]byte{})
	if err != nil {
		t.Fatalf("CreateHashRxQs: %v", err)
	}
	if len(fabric.HashQPs) != 1 {
		t.Fatalf("expected exactly 1 hash qp for Rn=1, got %d", len(fabric.HashQPs))
	}
	if backend.masks[0] != HashFieldsNone {
		t.Fatalf("expected the single Rn=1 hash qp to use the no-hash mask, got %#x", backend.masks[0])
	}
}

func TestRehash_ConservesBuffersAcrossLayoutChange(t *testing.T) {
	backend := NewSimBackend()
	const bufSize = 512
	pool := mbuf.NewPool(16, bufSize, -1)
	q, err := Setup(backend, pool, SetupConfig{Desc: 8, Limits: limits()})
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}

	before := make(map[*mbuf.Buffer]int)
	for _, el := range q.Single {
		before[el.Buf]++
	}

	if err := Rehash(q, pool, bufSize, 2000); err != nil {
		t.Fatalf("Rehash: %v", err)
	}
	if !q.Scatter {
		t.Fatalf("expected scatter layout after rehash to a jumbo max pkt len")
	}

	after := make(map[*mbuf.Buffer]int)
	for _, el := range q.ScatterEls {
		for _, b := range el.Bufs {
			after[b]++
		}
	}

	if len(before) != len(after) {
		t.Fatalf("buffer set size changed across rehash: before=%d after=%d", len(before), len(after))
	}
	for b, n := range before {
		if after[b] != n {
			t.Fatalf("buffer %p not conserved across rehash", b)
		}
	}
}

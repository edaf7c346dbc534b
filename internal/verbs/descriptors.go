// File: internal/verbs/descriptors.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Descriptor element allocation (spec §4.5): single-segment and
// scatter variants, sourcing buffers from a caller-supplied recycle
// pool when present and otherwise from the mempool.

package verbs

import (
	"fmt"
	"unsafe"

	"github.com/netgroup-polito/ringpmd/internal/mbuf"
)

func bufferAddr(b *mbuf.Buffer) uintptr {
	raw := b.Raw()
	if len(raw) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&raw[0]))
}

// acquirer pulls buffers from a recycle slice first, falling back to
// the mempool; it tracks which buffers came from the mempool so a
// failed allocation can release exactly those back (spec §4.5: "Do not
// touch the caller's pool on failure").
type acquirer struct {
	pool    *mbuf.Pool
	recycle []*mbuf.Buffer
	idx     int
	fromMP  []*mbuf.Buffer
}

func (a *acquirer) next() *mbuf.Buffer {
	if a.idx < len(a.recycle) {
		b := a.recycle[a.idx]
		a.idx++
		return b
	}
	b := a.pool.Get()
	a.fromMP = append(a.fromMP, b)
	return b
}

func (a *acquirer) releaseMempoolAcquired() {
	for _, b := range a.fromMP {
		b.Release()
	}
	a.fromMP = nil
}

func allocateElements(q *RxQueue, pool *mbuf.Pool, recycle []*mbuf.Buffer) error {
	a := &acquirer{pool: pool, recycle: recycle}
	if q.Scatter {
		return allocateScatter(q, a)
	}
	return allocateSingle(q, a)
}

func allocateSingle(q *RxQueue, a *acquirer) error {
	els := make([]Element, 0, q.EltsN)
	for i := 0; i < q.EltsN; i++ {
		buf := a.next()
		if buf.DataLen != 0 || buf.PktLen != 0 {
			a.releaseMempoolAcquired()
			return fmt.Errorf("verbs: descriptor buffer not reset (data_len=%d pkt_len=%d)", buf.DataLen, buf.PktLen)
		}
		raw := buf.Raw()
		if len(raw) < mbuf.Headroom {
			a.releaseMempoolAcquired()
			return fmt.Errorf("verbs: buffer too small for headroom")
		}
		els = append(els, Element{
			Buf: buf,
			SGE: SGE{
				Addr:   bufferAddr(buf) + uintptr(mbuf.Headroom),
				Length: uint32(len(raw) - mbuf.Headroom),
				LKey:   q.LKey,
			},
		})
	}
	q.Single = els
	return nil
}

func allocateScatter(q *RxQueue, a *acquirer) error {
	els := make([]ScatterElement, 0, q.EltsN)
	for i := 0; i < q.EltsN; i++ {
		var el ScatterElement
		for j := 0; j < SGWRN; j++ {
			buf := a.next()
			el.Bufs[j] = buf
			raw := buf.Raw()
			if j == 0 {
				if len(raw) < mbuf.Headroom {
					a.releaseMempoolAcquired()
					return fmt.Errorf("verbs: buffer too small for headroom")
				}
				el.SGEs[j] = SGE{
					Addr:   bufferAddr(buf) + uintptr(mbuf.Headroom),
					Length: uint32(len(raw) - mbuf.Headroom),
					LKey:   q.LKey,
				}
			} else {
				el.SGEs[j] = SGE{
					Addr:   bufferAddr(buf),
					Length: uint32(len(raw)),
					LKey:   q.LKey,
				}
			}
		}
		els = append(els, el)
	}
	q.ScatterEls = els
	return nil
}

// releaseElements returns every descriptor's buffers to their pool,
// used both on setup failure and during teardown (spec §3 ownership:
// "on teardown it frees buffers back to the mempool in reverse order
// of the objects it created").
func releaseElements(q *RxQueue) {
	if q.Scatter {
		for i := len(q.ScatterEls) - 1; i >= 0; i-- {
			for j := SGWRN - 1; j >= 0; j-- {
				q.ScatterEls[i].Bufs[j].Release()
			}
		}
		q.ScatterEls = nil
		return
	}
	for i := len(q.Single) - 1; i >= 0; i-- {
		q.Single[i].Buf.Release()
	}
	q.Single = nil
}

// harvestBuffers collects every buffer currently owned by the queue's
// descriptor array, used by rehash to repopulate the new layout
// without reallocating buffers (spec §4.6 step 2).
func harvestBuffers(q *RxQueue) []*mbuf.Buffer {
	if q.Scatter {
		out := make([]*mbuf.Buffer, 0, len(q.ScatterEls)*SGWRN)
		for _, el := range q.ScatterEls {
			for _, b := range el.Bufs {
				out = append(out, b)
			}
		}
		q.ScatterEls = nil
		return out
	}
	out := make([]*mbuf.Buffer, 0, len(q.Single))
	for _, el := range q.Single {
		out = append(out, el.Buf)
	}
	q.Single = nil
	return out
}

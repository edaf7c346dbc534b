// File: internal/mbuf/pool.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Pool is a NUMA-segmented mempool of *Buffer, adapted from the
// teacher's pool.baseBufferPool (pool/base_bufferpool.go) and
// pool.linuxBufferPool (pool/bufferpool_linux.go): a channel-backed
// free list per NUMA node, overflowing to fresh allocation when empty.
//
// The driver requires at least one buffer of headroom reserved so cap
// allocation during cutover cannot starve ordinary RX (§5); callers
// size the pool accordingly (capacity + 1 at minimum).

package mbuf

import (
	"sync"
	"sync/atomic"

	"github.com/netgroup-polito/ringpmd/api"
)

// Pool allocates and recycles fixed-size Buffers for one queue.
type Pool struct {
	bufSize int
	numa    int
	free    chan *Buffer

	allocated int64
	inUse     int64
	mu        sync.Mutex
}

// Pool satisfies api.ObjectPool[*Buffer].
var _ api.ObjectPool[*Buffer] = (*Pool)(nil)

// NewPool creates a pool of capacity buffers, each able to hold bufSize
// bytes of payload past the headroom, preferentially allocated on the
// given NUMA node (node -1 means "no preference").
func NewPool(capacity, bufSize, numaNode int) *Pool {
	if capacity < 1 {
		capacity = 1
	}
	p := &Pool{
		bufSize: bufSize,
		numa:    numaNode,
		free:    make(chan *Buffer, capacity),
	}
	for i := 0; i < capacity; i++ {
		p.free <- p.alloc()
	}
	return p
}

func (p *Pool) alloc() *Buffer {
	atomic.AddInt64(&p.allocated, 1)
	raw := numaAlloc(Headroom+p.bufSize, p.numa)
	return &Buffer{raw: raw, NUMA: p.numa, pool: p}
}

// Get returns a buffer from the free list, allocating a fresh one if
// the pool is momentarily exhausted. Never blocks.
func (p *Pool) Get() *Buffer {
	select {
	case b := <-p.free:
		b.Reset()
		atomic.AddInt64(&p.inUse, 1)
		return b
	default:
		b := p.alloc()
		atomic.AddInt64(&p.inUse, 1)
		return b
	}
}

// MustGet spins on the free list until a buffer is returned to it;
// unlike Get it never allocates a fresh buffer. Used only by control
// plane cap emission (§4.2), which the spec allows to busy-loop because
// "the pool must eventually have a buffer".
func (p *Pool) MustGet() *Buffer {
	for {
		select {
		case b := <-p.free:
			b.Reset()
			atomic.AddInt64(&p.inUse, 1)
			return b
		default:
		}
	}
}

// Put returns a buffer to the free list, dropping it if the list is
// momentarily full (the allocation will simply be garbage collected).
func (p *Pool) Put(b *Buffer) {
	if b == nil {
		return
	}
	atomic.AddInt64(&p.inUse, -1)
	select {
	case p.free <- b:
	default:
	}
}

// Stats reports pool usage for debug probes.
func (p *Pool) Stats() api.BufferPoolStats {
	return api.BufferPoolStats{
		TotalAlloc: atomic.LoadInt64(&p.allocated),
		InUse:      atomic.LoadInt64(&p.inUse),
		NUMAStats:  map[int]int64{p.numa: atomic.LoadInt64(&p.allocated)},
	}
}

// File: internal/ring/ring.go
// Package ring implements the single-producer/single-consumer ring
// buffer that backs each RingDevice queue.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Adapted from the teacher's pool/ring.go: same atomic head/tail,
// power-of-two mask, and padding discipline, narrowed from an MPMC-safe
// cell/sequence layout to the plain SPSC algorithm the ring transport
// assumes (one producer goroutine, one consumer goroutine per queue,
// per §5 of the driver's concurrency model).

package ring

import (
	"strconv"
	"sync/atomic"
)

// Ring is a lock-free, fixed-capacity SPSC ring of *T. Capacity is
// rounded up to the next power of two.
type Ring[T any] struct {
	head uint64
	_    [64]byte // padding to keep head and tail on separate cache lines
	tail uint64
	_    [64]byte

	mask uint64
	data []T
}

// New allocates a ring able to hold size items (rounded to power of two,
// minimum 2).
func New[T any](size int) *Ring[T] {
	if size < 2 {
		size = 2
	}
	n := 1
	for n < size {
		n <<= 1
	}
	return &Ring[T]{
		mask: uint64(n - 1),
		data: make([]T, n),
	}
}

// Enqueue adds an item; returns false if the ring is full. Safe to call
// from exactly one producer goroutine at a time.
func (r *Ring[T]) Enqueue(v T) bool {
	head := atomic.LoadUint64(&r.head)
	tail := atomic.LoadUint64(&r.tail)
	if tail-head == uint64(len(r.data)) {
		return false
	}
	r.data[tail&r.mask] = v
	atomic.StoreUint64(&r.tail, tail+1)
	return true
}

// Dequeue removes and returns the oldest item; ok is false if empty.
// Safe to call from exactly one consumer goroutine at a time.
func (r *Ring[T]) Dequeue() (v T, ok bool) {
	head := atomic.LoadUint64(&r.head)
	tail := atomic.LoadUint64(&r.tail)
	if head == tail {
		return v, false
	}
	v = r.data[head&r.mask]
	var zero T
	r.data[head&r.mask] = zero
	atomic.StoreUint64(&r.head, head+1)
	return v, true
}

// Len returns the approximate number of queued items.
func (r *Ring[T]) Len() int {
	return int(atomic.LoadUint64(&r.tail) - atomic.LoadUint64(&r.head))
}

// Cap returns the fixed capacity of the ring.
func (r *Ring[T]) Cap() int {
	return len(r.data)
}

// Name identifies a ring in the process-shared memzone registry; kept
// here (rather than on the caller) so attach/lookup-by-name share one
// convention, mirroring the prefix convention used by the ivshmem
// memzone table (see internal/ivshmem).
func Name(prefix string, i int, suffix string) string {
	return prefix + "_" + strconv.Itoa(i) + "_" + suffix
}

// File: internal/mbuf/buffer.go
// Package mbuf implements the scatter-gather-capable packet buffer and
// its NUMA-aware pool, matching the driver's Packet buffer data model.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Adapted from the teacher's api.Buffer (zero-copy slice with NUMA tag
// and pool back-reference) in api/buffer.go, extended with the headroom,
// length, and sentinel fields a packet buffer needs.

package mbuf

// CapMagic is the sentinel value carried in a cap buffer's UserData
// field. No real packet is expected to carry this value in that slot.
const CapMagic uint64 = 0x444E7834082C83A7

// Headroom is the reserved prefix every buffer keeps before its data,
// matching the driver's HEADROOM constant for descriptor population.
const Headroom = 128

// Buffer is a scatter-gather-capable packet descriptor sourced from a
// per-queue Pool. It is a value type; copies share the backing slice.
type Buffer struct {
	raw      []byte // full backing allocation, Headroom bytes reserved at the front
	DataLen  int
	PktLen   int
	UserData uint64
	NUMA     int
	pool     *Pool
}

// Data returns the populated payload (raw[Headroom : Headroom+DataLen]).
func (b *Buffer) Data() []byte {
	return b.raw[Headroom : Headroom+b.DataLen]
}

// SetData copies p into the buffer's payload area and updates lengths.
// p must fit within the buffer's capacity past the headroom.
func (b *Buffer) SetData(p []byte) {
	n := copy(b.raw[Headroom:], p)
	b.DataLen = n
	b.PktLen = n
}

// Raw returns the full backing slice, headroom included, for code that
// needs to address memory below the payload (e.g. building a chained
// scatter segment that reuses the headroom convention, see internal/verbs).
func (b *Buffer) Raw() []byte { return b.raw }

// Cap returns the payload capacity available past the headroom.
func (b *Buffer) Cap() int { return len(b.raw) - Headroom }

// IsCap reports whether this buffer is the in-band cap sentinel.
func (b *Buffer) IsCap() bool { return b.UserData == CapMagic }

// MarkCap turns this buffer into a cap: 64-byte length, sentinel set.
// Per the driver's wire format, caps are never delivered to the application.
func (b *Buffer) MarkCap() {
	b.UserData = CapMagic
	b.DataLen = 64
	b.PktLen = 64
}

// Reset clears buffer state before it is reused by a new allocation,
// without touching the backing allocation itself.
func (b *Buffer) Reset() {
	b.DataLen = 0
	b.PktLen = 0
	b.UserData = 0
}

// Release returns the buffer to the pool it was allocated from. A nil
// pool (buffer built outside Pool.Get, e.g. in tests) is a no-op.
func (b *Buffer) Release() {
	if b.pool != nil {
		b.pool.Put(b)
	}
}

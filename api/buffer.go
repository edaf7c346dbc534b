// File: api/buffer.go
// Package api defines the buffer pool statistics contract shared by
// internal/mbuf. The packet buffer type itself lives in internal/mbuf,
// since it carries domain fields (headroom, pkt_len, the cap sentinel)
// that a generic zero-copy Buffer cannot express.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// BufferPoolStats summarizes pool usage as reported by mbuf.Pool.Stats().
type BufferPoolStats struct {
	TotalAlloc int64
	TotalFree  int64
	InUse      int64
	NUMAStats  map[int]int64
}

package mbuf_test

import (
	"testing"

	"github.com/netgroup-polito/ringpmd/internal/mbuf"
)

func TestPool_GetReleaseReuse(t *testing.T) {
	p := mbuf.NewPool(4, 256, -1)
	b := p.Get()
	b.SetData([]byte("hello"))
	if string(b.Data()) != "hello" {
		t.Fatalf("unexpected payload: %q", b.Data())
	}
	b.Release()

	b2 := p.Get()
	if b2.DataLen != 0 {
		t.Fatalf("expected reset buffer, got DataLen=%d", b2.DataLen)
	}
}

func TestPool_ExhaustionAllocatesFresh(t *testing.T) {
	p := mbuf.NewPool(1, 64, -1)
	first := p.Get()
	second := p.Get() // pool has 1 slot; this must allocate fresh, not block
	if first == second {
		t.Fatalf("expected distinct buffers")
	}
}

func TestBuffer_MarkCapIsSentinelAndFixedLength(t *testing.T) {
	p := mbuf.NewPool(1, 256, -1)
	b := p.Get()
	b.MarkCap()
	if !b.IsCap() {
		t.Fatalf("expected IsCap true after MarkCap")
	}
	if b.DataLen != 64 || b.PktLen != 64 {
		t.Fatalf("expected 64-byte cap, got DataLen=%d PktLen=%d", b.DataLen, b.PktLen)
	}
}

func TestBuffer_OrdinaryBufferIsNeverACap(t *testing.T) {
	p := mbuf.NewPool(1, 256, -1)
	b := p.Get()
	b.SetData([]byte("data"))
	if b.IsCap() {
		t.Fatalf("ordinary buffer must not be mistaken for a cap")
	}
}

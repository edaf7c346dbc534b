// File: internal/physnic/nic_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package physnic

import (
	"testing"

	"github.com/netgroup-polito/ringpmd/internal/mbuf"
	"github.com/netgroup-polito/ringpmd/internal/verbs"
)

func TestNIC_SetupStartStopCloseLifecycle(t *testing.T) {
	backend := verbs.NewSimBackend()
	nic := New(backend, verbs.DeviceLimits{MaxQPWR: 1024, MaxSGE: 4}, nil)

	if err := nic.Configure([6]byte{1, 2, 3, 4, 5, 6}); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	pool := mbuf.NewPool(64, 2048, -1)
	if err := nic.SetupRxQueue(pool, 8); err != nil {
		t.Fatalf("SetupRxQueue: %v", err)
	}
	if err := nic.SetupTxQueue(pool, 8); err != nil {
		t.Fatalf("SetupTxQueue: %v", err)
	}
	if err := nic.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if nic.fabric == nil {
		t.Fatal("expected a hash fabric to be built on Start")
	}
	if err := nic.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if err := nic.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestNIC_RxBurstDrainsPushedBuffers(t *testing.T) {
	backend := verbs.NewSimBackend()
	nic := New(backend, verbs.DeviceLimits{MaxQPWR: 1024, MaxSGE: 4}, nil)
	pool := mbuf.NewPool(4, 2048, -1)

	b := pool.MustGet()
	nic.PushRx(b)

	out := make([]*mbuf.Buffer, 2)
	n := nic.RxBurst(out)
	if n != 1 || out[0] != b {
		t.Fatalf("expected to drain exactly the pushed buffer, got n=%d", n)
	}
}

func TestNIC_TxBurstReleasesAllBuffers(t *testing.T) {
	backend := verbs.NewSimBackend()
	nic := New(backend, verbs.DeviceLimits{MaxQPWR: 1024, MaxSGE: 4}, nil)
	pool := mbuf.NewPool(4, 2048, -1)

	bufs := []*mbuf.Buffer{pool.MustGet(), pool.MustGet()}
	n := nic.TxBurst(bufs)
	if n != len(bufs) {
		t.Fatalf("expected TxBurst to report %d, got %d", len(bufs), n)
	}
}

func TestNIC_StartWithNoQueuesIsANoop(t *testing.T) {
	backend := verbs.NewSimBackend()
	nic := New(backend, verbs.DeviceLimits{MaxQPWR: 1024, MaxSGE: 4}, nil)
	if err := nic.Start(); err != nil {
		t.Fatalf("Start with no queues: %v", err)
	}
	if nic.fabric != nil {
		t.Fatal("expected no fabric when no rx queues were provisioned")
	}
}

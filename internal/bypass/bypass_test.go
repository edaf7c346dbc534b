package bypass_test

import (
	"testing"
	"time"

	"github.com/netgroup-polito/ringpmd/internal/bypass"
	"github.com/netgroup-polito/ringpmd/internal/mbuf"
	"github.com/netgroup-polito/ringpmd/internal/ring"
)

type fakeNIC struct {
	configured bool
	started    bool
	closed     bool
	rxQueue    []*mbuf.Buffer
	txSent     []*mbuf.Buffer
	txAccept   int // -1 means accept everything
}

func newFakeNIC() *fakeNIC { return &fakeNIC{txAccept: -1} }

func (n *fakeNIC) Configure(mac [6]byte) error                       { n.configured = true; return nil }
func (n *fakeNIC) SetupRxQueue(pool *mbuf.Pool, descriptors int) error { return nil }
func (n *fakeNIC) SetupTxQueue(pool *mbuf.Pool, descriptors int) error { return nil }
func (n *fakeNIC) Start() error                                      { n.started = true; return nil }
func (n *fakeNIC) Stop() error                                       { n.started = false; return nil }
func (n *fakeNIC) Close() error                                      { n.closed = true; return nil }

func (n *fakeNIC) RxBurst(bufs []*mbuf.Buffer) int {
	m := 0
	for m < len(bufs) && len(n.rxQueue) > 0 {
		bufs[m] = n.rxQueue[0]
		n.rxQueue = n.rxQueue[1:]
		m++
	}
	return m
}

func (n *fakeNIC) TxBurst(bufs []*mbuf.Buffer) int {
	accept := len(bufs)
	if n.txAccept >= 0 && n.txAccept < accept {
		accept = n.txAccept
	}
	n.txSent = append(n.txSent, bufs[:accept]...)
	return accept
}

func newTestQueues(t *testing.T) (*bypass.Device, *mbuf.Pool) {
	t.Helper()
	pool := mbuf.NewPool(64, 256, -1)
	rxRing := ring.New[*mbuf.Buffer](1024)
	txRing := ring.New[*mbuf.Buffer](1024)
	rxq := bypass.NewRxQueue(rxRing, pool, 128, 2*time.Millisecond, nil)
	txq := bypass.NewTxQueue(txRing, pool, 128)
	dev := bypass.NewDevice("eth_ring0", [6]byte{0x02, 0, 0, 0, 0, 1}, []*bypass.RxQueue{rxq}, []*bypass.TxQueue{txq})
	return dev, pool
}

func payload(pool *mbuf.Pool, tag byte) *mbuf.Buffer {
	b := pool.Get()
	b.SetData([]byte{tag})
	return b
}

// S1
func TestScenario_S1_NormalRxFIFO(t *testing.T) {
	dev, pool := newTestQueues(t)
	rxq := dev.RxQueues()[0]
	for i := 0; i < 10; i++ {
		rxq.Ring().Enqueue(payload(pool, byte(i)))
	}
	out := make([]*mbuf.Buffer, 16)
	n := rxq.RxBurst(dev, out)
	if n != 10 {
		t.Fatalf("expected 10, got %d", n)
	}
	for i := 0; i < 10; i++ {
		if out[i].Data()[0] != byte(i) {
			t.Fatalf("out of order at %d: %v", i, out[i].Data())
		}
	}
	if rxq.RxPkts() != 10 {
		t.Fatalf("rx_pkts = %d, want 10", rxq.RxPkts())
	}
}

// S2
func TestScenario_S2_NormalTxAllEnqueued(t *testing.T) {
	dev, pool := newTestQueues(t)
	txq := dev.TxQueues()[0]
	bufs := make([]*mbuf.Buffer, 5)
	for i := range bufs {
		bufs[i] = payload(pool, byte(i))
	}
	n := txq.TxBurst(dev, bufs)
	if n != 5 || txq.TxPkts() != 5 || txq.ErrPkts() != 0 {
		t.Fatalf("unexpected counters n=%d tx=%d err=%d", n, txq.TxPkts(), txq.ErrPkts())
	}
}

// S3 + S4: attach, cap cutover, then steady-state bypass traffic
func TestScenario_S3S4_AttachCutoverAndBypassRx(t *testing.T) {
	dev, pool := newTestQueues(t)
	rxq := dev.RxQueues()[0]
	txq := dev.TxQueues()[0]
	nic := newFakeNIC()

	if err := bypass.AttachBypass(dev, 1, nic); err != nil {
		t.Fatalf("AttachBypass: %v", err)
	}
	if rxq.State() != bypass.CreationRx || txq.State() != bypass.CreationTx {
		t.Fatalf("unexpected states after attach: rx=%v tx=%v", rxq.State(), txq.State())
	}

	bufs := make([]*mbuf.Buffer, 3)
	for i := range bufs {
		bufs[i] = payload(pool, byte(i))
	}
	sent := txq.TxBurst(dev, bufs)
	if sent != 3 {
		t.Fatalf("expected 3 sent on bypass, got %d", sent)
	}
	if txq.State() != bypass.BypassTx || dev.Mode() != bypass.ModeBypass {
		t.Fatalf("expected BypassTx/ModeBypass, got %v/%v", txq.State(), dev.Mode())
	}
	// RX side observes the cap that travelled on the ring ahead of any
	// bypass data: it must not be delivered to the application, and the
	// queue must transition straight to BypassRx. The fixture's TX and RX
	// rings are separate, so hand what the TX side put on its ring (the
	// cap) over to the RX ring, as the peer would.
	for {
		b, ok := txq.Ring().Dequeue()
		if !ok {
			break
		}
		rxq.Ring().Enqueue(b)
	}
	out := make([]*mbuf.Buffer, 8)
	n := rxq.RxBurst(dev, out)
	if n != 0 {
		t.Fatalf("cap must not be delivered to the application, got n=%d", n)
	}
	if rxq.State() != bypass.BypassRx {
		t.Fatalf("expected BypassRx after cap, got %v", rxq.State())
	}

	// S4: attached steady state, bypass NIC delivers 4 packets.
	for i := 0; i < 4; i++ {
		nic.rxQueue = append(nic.rxQueue, payload(pool, byte(100+i)))
	}
	out2 := make([]*mbuf.Buffer, 8)
	n2 := rxq.RxBurst(dev, out2)
	if n2 != 4 {
		t.Fatalf("expected 4 from bypass NIC, got %d", n2)
	}
	if rxq.RxPktsBypass() != 4 {
		t.Fatalf("rx_pkts_bypass = %d, want 4", rxq.RxPktsBypass())
	}
}

// S5
func TestScenario_S5_DetachSchedulesDelayedClose(t *testing.T) {
	dev, _ := newTestQueues(t)
	nic := newFakeNIC()
	if err := bypass.AttachBypass(dev, 1, nic); err != nil {
		t.Fatalf("AttachBypass: %v", err)
	}
	if err := bypass.DetachBypass(dev, nil, 20*time.Millisecond); err != nil {
		t.Fatalf("DetachBypass: %v", err)
	}
	if dev.BypassState() != bypass.StateDetaching {
		t.Fatalf("expected Detaching immediately, got %v", dev.BypassState())
	}
	time.Sleep(80 * time.Millisecond)
	if dev.BypassState() != bypass.StateDetached {
		t.Fatalf("expected Detached after delay, got %v", dev.BypassState())
	}
	if !nic.closed {
		t.Fatalf("expected bypass nic closed")
	}
}

// S6: cap loss -> timeout transition.
func TestScenario_S6_CapLossTimesOut(t *testing.T) {
	clock := bypass.NewManualClock(time.Unix(0, 0))
	pool := mbuf.NewPool(4, 128, -1)
	rxRing := ring.New[*mbuf.Buffer](16)
	txRing := ring.New[*mbuf.Buffer](16)
	rxq := bypass.NewRxQueue(rxRing, pool, 128, 10*time.Millisecond, clock)
	txq := bypass.NewTxQueue(txRing, pool, 128)
	dev := bypass.NewDevice("d", [6]byte{}, []*bypass.RxQueue{rxq}, []*bypass.TxQueue{txq})

	nic := newFakeNIC()
	if err := bypass.AttachBypass(dev, 1, nic); err != nil {
		t.Fatalf("AttachBypass: %v", err)
	}
	if rxq.State() != bypass.CreationRx {
		t.Fatalf("expected CreationRx after attach, got %v", rxq.State())
	}

	out := make([]*mbuf.Buffer, 4)
	n := rxq.RxBurst(dev, out)
	if n != 0 || rxq.State() != bypass.CreationRx {
		t.Fatalf("expected zero-burst still in CreationRx, got n=%d state=%v", n, rxq.State())
	}

	clock.Advance(11 * time.Millisecond)
	n = rxq.RxBurst(dev, out)
	if n != 0 {
		t.Fatalf("expected zero-length burst at timeout, got %d", n)
	}
	if rxq.State() != bypass.BypassRx {
		t.Fatalf("expected BypassRx after CAP_TIMEOUT, got %v", rxq.State())
	}
}

// Property 3: cap invisibility.
func TestProperty_CapNeverObservedByApplication(t *testing.T) {
	dev, pool := newTestQueues(t)
	rxq := dev.RxQueues()[0]
	cap := pool.Get()
	cap.MarkCap()
	rxq.Ring().Enqueue(payload(pool, 1))
	rxq.Ring().Enqueue(cap)
	rxq.Ring().Enqueue(payload(pool, 2))

	out := make([]*mbuf.Buffer, 8)
	n := rxq.RxBurst(dev, out)
	for i := 0; i < n; i++ {
		if out[i].IsCap() {
			t.Fatalf("cap leaked to application at index %d", i)
		}
	}
}

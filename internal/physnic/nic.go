// File: internal/physnic/nic.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// physnic adapts the hardware RX queue/RSS fabric (internal/verbs) to
// the bypass.BypassNIC contract, so AttachBypass's control-plane calls
// (Configure/SetupRxQueue/SetupTxQueue/Start/Stop/Close) drive real
// rxq_setup/RSS-fabric object lifecycles instead of a bare
// stub. Grounded on the teacher's adapters package pattern: a thin
// type translating one package's domain objects into another
// package's consumer interface.

package physnic

import (
	"sync"

	"go.uber.org/zap"

	"github.com/netgroup-polito/ringpmd/internal/mbuf"
	"github.com/netgroup-polito/ringpmd/internal/verbs"
)

// NIC implements bypass.BypassNIC over one or more hardware RX queues
// and an RSS fabric fanning out across them. The completion-queue
// polling loop a real libibverbs NIC would run here is out of this
// package's scope (internal/verbs models only the queue lifecycle, not
// wire I/O, per its own doc comment); PushRx lets tests and a future
// poll loop inject completed buffers the same way SimBackend models
// the rest of the verbs object table.
type NIC struct {
	backend verbs.Backend
	limits  verbs.DeviceLimits
	log     *zap.Logger

	mu      sync.Mutex
	mac     [6]byte
	rx      []*verbs.RxQueue
	fabric  *verbs.HashFabric
	started bool

	rxReady chan *mbuf.Buffer
}

// New returns a NIC driving backend with the given per-queue-pair
// capability limits (spec §4.4 "max_qp_wr, max_sge").
func New(backend verbs.Backend, limits verbs.DeviceLimits, log *zap.Logger) *NIC {
	if log == nil {
		log = zap.NewNop()
	}
	return &NIC{backend: backend, limits: limits, log: log, rxReady: make(chan *mbuf.Buffer, 4096)}
}

// Configure records the MAC a bypass-attached device expects the
// physical NIC to answer to.
func (n *NIC) Configure(mac [6]byte) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.mac = mac
	return nil
}

// SetupRxQueue provisions one hardware RX queue (rxq_setup, spec
// §4.4) drawing descriptor buffers from pool.
func (n *NIC) SetupRxQueue(pool *mbuf.Pool, descriptors int) error {
	q, err := verbs.Setup(n.backend, pool, verbs.SetupConfig{
		Desc:   descriptors,
		Socket: 0,
		Limits: n.limits,
	})
	if err != nil {
		return err
	}
	n.mu.Lock()
	n.rx = append(n.rx, q)
	n.mu.Unlock()
	return nil
}

// SetupTxQueue is a no-op: the fabric this package wires is RX-side
// RSS only (spec §6 Non-goals: queue-0-only bypass fanout), so no
// hardware TX object is created; TxBurst releases the buffers it is
// given back to their pool.
func (n *NIC) SetupTxQueue(pool *mbuf.Pool, descriptors int) error {
	return nil
}

// Start builds the RSS indirection table and hash QPs across every
// queue provisioned so far (spec §6 "Hash Rx queue" family), bringing
// up the NIC for poll-mode operation.
func (n *NIC) Start() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.started {
		return nil
	}
	if len(n.rx) == 0 {
		n.started = true
		return nil
	}
	fabric, err := verbs.CreateHashRxQs(n.backend, n.rx, verbs.DefaultToeplitzKey)
	if err != nil {
		return err
	}
	n.fabric = fabric
	n.started = true
	return nil
}

// Stop tears down the RSS fabric, leaving the underlying RX queues
// provisioned (Close releases those).
func (n *NIC) Stop() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fabric != nil {
		n.fabric.Destroy(n.backend)
		n.fabric = nil
	}
	n.started = false
	return nil
}

// Close releases every provisioned RX queue's verbs objects.
func (n *NIC) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, q := range n.rx {
		n.backend.DestroyWQ(q.WQ)
		n.backend.DestroyCQ(q.CQ)
		n.backend.DestroyResourceDomain(q.RD)
		n.backend.DeregisterMR(q.MR)
	}
	n.rx = nil
	return nil
}

// PushRx injects a completed receive buffer, simulating what a real
// completion-queue poll would harvest. Test-only hook.
func (n *NIC) PushRx(b *mbuf.Buffer) {
	select {
	case n.rxReady <- b:
	default:
		b.Release()
	}
}

// RxBurst drains up to len(bufs) buffers pushed via PushRx.
func (n *NIC) RxBurst(bufs []*mbuf.Buffer) int {
	i := 0
	for i < len(bufs) {
		select {
		case b := <-n.rxReady:
			bufs[i] = b
			i++
		default:
			return i
		}
	}
	return i
}

// TxBurst releases every buffer back to its pool; a real NIC would
// DMA them out first. There is no loopback: physnic models only the
// RX/RSS fabric (see SetupTxQueue).
func (n *NIC) TxBurst(bufs []*mbuf.Buffer) int {
	for _, b := range bufs {
		b.Release()
	}
	return len(bufs)
}

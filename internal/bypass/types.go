// File: internal/bypass/types.go
// Package bypass implements the per-queue RX/TX dispatch state machine
// that seamlessly switches a ring-backed queue over to a physical NIC
// and back, using an in-band cap sentinel to serialise the cutover
// (spec §4.1-4.3).
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package bypass

import (
	"sync/atomic"
	"time"

	"github.com/netgroup-polito/ringpmd/internal/mbuf"
	"github.com/netgroup-polito/ringpmd/internal/ring"
	"github.com/netgroup-polito/ringpmd/internal/registry"
)

// RxState is one of the four receive-side dispatch states.
type RxState int32

const (
	NormalRx RxState = iota
	CreationRx
	BypassRx
	DestructionRx
)

func (s RxState) String() string {
	switch s {
	case CreationRx:
		return "CreationRx"
	case BypassRx:
		return "BypassRx"
	case DestructionRx:
		return "DestructionRx"
	default:
		return "NormalRx"
	}
}

// TxState is one of the four transmit-side dispatch states.
type TxState int32

const (
	NormalTx TxState = iota
	CreationTx
	BypassTx
	DestructionTx
)

func (s TxState) String() string {
	switch s {
	case CreationTx:
		return "CreationTx"
	case BypassTx:
		return "BypassTx"
	case DestructionTx:
		return "DestructionTx"
	default:
		return "NormalTx"
	}
}

// Mode is the device-wide data-path mode, flipped atomically on cap
// emission (spec §9 function-pointer dispatch note).
type Mode int32

const (
	ModeNormal Mode = iota
	ModeBypass
)

// BypassLinkState tracks the attach/detach lifecycle (spec §3).
type BypassLinkState int32

const (
	StateDetached BypassLinkState = iota
	StateAttaching
	StateAttached
	StateDetaching
)

func (s BypassLinkState) String() string {
	switch s {
	case StateAttaching:
		return "Attaching"
	case StateAttached:
		return "Attached"
	case StateDetaching:
		return "Detaching"
	default:
		return "Detached"
	}
}

// DefaultCapTimeout is the documented CAP_MS constant (spec §9 Open
// Question (a): fixed at 10ms, see DESIGN.md for the resolution).
const DefaultCapTimeout = 10 * time.Millisecond

// BypassNIC is the physical-NIC side of a bypass cutover: a single
// queue pair (queue 0 only, per the spec's §9 Open Question (c)
// resolution — see DESIGN.md) that a RingDevice's queues transmit to
// and receive from while attached.
type BypassNIC interface {
	Configure(mac [6]byte) error
	SetupRxQueue(pool *mbuf.Pool, descriptors int) error
	SetupTxQueue(pool *mbuf.Pool, descriptors int) error
	Start() error
	Stop() error
	Close() error
	RxBurst(bufs []*mbuf.Buffer) int
	TxBurst(bufs []*mbuf.Buffer) int
}

// RxQueue is the receive half of one queue pair.
type RxQueue struct {
	ring  *ring.Ring[*mbuf.Buffer]
	pool  *mbuf.Pool
	state atomic.Int32

	nbDesc int

	bypassNIC    BypassNIC
	bypassPortID registry.PortID

	rxPkts       atomic.Uint64
	rxPktsBypass atomic.Uint64

	// cutover helpers (spec §3 RxQueue fields: nlast, old_tsc)
	nlast      int
	oldTSC     time.Time
	capTimeout time.Duration
	clock      Clock
}

// NewRxQueue constructs an RxQueue in NormalRx state backed by r.
func NewRxQueue(r *ring.Ring[*mbuf.Buffer], pool *mbuf.Pool, nbDesc int, capTimeout time.Duration, clock Clock) *RxQueue {
	if clock == nil {
		clock = SystemClock
	}
	if capTimeout <= 0 {
		capTimeout = DefaultCapTimeout
	}
	q := &RxQueue{ring: r, pool: pool, nbDesc: nbDesc, capTimeout: capTimeout, clock: clock}
	q.state.Store(int32(NormalRx))
	return q
}

// State returns the queue's current RxState.
func (q *RxQueue) State() RxState { return RxState(q.state.Load()) }

func (q *RxQueue) setState(s RxState) { q.state.Store(int32(s)) }

// RxPkts returns the total receive counter.
func (q *RxQueue) RxPkts() uint64 { return q.rxPkts.Load() }

// RxPktsBypass returns the bypass-sourced receive counter.
func (q *RxQueue) RxPktsBypass() uint64 { return q.rxPktsBypass.Load() }

// Ring exposes the backing ring for enqueue by an external producer in
// tests and for the control plane's rename/attach plumbing.
func (q *RxQueue) Ring() *ring.Ring[*mbuf.Buffer] { return q.ring }

// TxQueue is the transmit half of one queue pair.
type TxQueue struct {
	ring  *ring.Ring[*mbuf.Buffer]
	pool  *mbuf.Pool
	state atomic.Int32

	nbDesc int

	bypassNIC    BypassNIC
	bypassPortID registry.PortID

	txPkts        atomic.Uint64
	errPkts       atomic.Uint64
	txPktsBypass  atomic.Uint64
	errPktsBypass atomic.Uint64
}

// NewTxQueue constructs a TxQueue in NormalTx state backed by r.
func NewTxQueue(r *ring.Ring[*mbuf.Buffer], pool *mbuf.Pool, nbDesc int) *TxQueue {
	q := &TxQueue{ring: r, pool: pool, nbDesc: nbDesc}
	q.state.Store(int32(NormalTx))
	return q
}

// State returns the queue's current TxState.
func (q *TxQueue) State() TxState { return TxState(q.state.Load()) }

func (q *TxQueue) setState(s TxState) { q.state.Store(int32(s)) }

// TxPkts, ErrPkts, TxPktsBypass, ErrPktsBypass expose the TX counters.
func (q *TxQueue) TxPkts() uint64        { return q.txPkts.Load() }
func (q *TxQueue) ErrPkts() uint64       { return q.errPkts.Load() }
func (q *TxQueue) TxPktsBypass() uint64  { return q.txPktsBypass.Load() }
func (q *TxQueue) ErrPktsBypass() uint64 { return q.errPktsBypass.Load() }

// Ring exposes the backing ring for draining by the application.
func (q *TxQueue) Ring() *ring.Ring[*mbuf.Buffer] { return q.ring }

// Device is a RingDevice: the software Ethernet device owning N_RX
// receive queues and N_TX transmit queues, switchable between Normal
// and Bypass mode (spec §3).
type Device struct {
	name string
	mac  [6]byte

	mode        atomic.Int32
	bypassState atomic.Int32
	bypassPort  registry.PortID
	linkUp      atomic.Bool

	rxQueues []*RxQueue
	txQueues []*TxQueue
}

// NewDevice constructs a Device in Normal mode, Detached bypass state.
func NewDevice(name string, mac [6]byte, rx []*RxQueue, tx []*TxQueue) *Device {
	d := &Device{name: name, mac: mac, rxQueues: rx, txQueues: tx}
	d.mode.Store(int32(ModeNormal))
	d.bypassState.Store(int32(StateDetached))
	return d
}

func (d *Device) Name() string { return d.name }
func (d *Device) MAC() [6]byte { return d.mac }

// Mode returns the device's current data-path mode.
func (d *Device) Mode() Mode { return Mode(d.mode.Load()) }

func (d *Device) setMode(m Mode) { d.mode.Store(int32(m)) }

// BypassState returns the device's current attach/detach lifecycle state.
func (d *Device) BypassState() BypassLinkState { return BypassLinkState(d.bypassState.Load()) }

func (d *Device) setBypassState(s BypassLinkState) { d.bypassState.Store(int32(s)) }

// SetLinkUp/LinkUp report link status (api.LinkStatus conversion lives
// in the ringpmd package, which owns the public-facing types).
func (d *Device) SetLinkUp(up bool) { d.linkUp.Store(up) }
func (d *Device) LinkUp() bool      { return d.linkUp.Load() }

// RxQueues and TxQueues expose the owned queues for RX/TX dispatch and
// for the lifecycle package's attach/detach plumbing.
func (d *Device) RxQueues() []*RxQueue { return d.rxQueues }
func (d *Device) TxQueues() []*TxQueue { return d.txQueues }

// Close implements registry.Device; it is a no-op at this layer since
// queue and ring teardown is owned by the caller (ringpmd.Device).
func (d *Device) Close() error { return nil }

var _ registry.Device = (*Device)(nil)

// File: device.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Device creation (spec §6 "Device creation"): from_rings and from_ring,
// adapted from the teacher's facade.Server constructor pattern — one
// entry point assembling queues, pools, metrics, and logging, then
// handing the result to a caller-owned registry.

package ringpmd

import (
	"time"

	"go.uber.org/zap"

	"github.com/netgroup-polito/ringpmd/api"
	"github.com/netgroup-polito/ringpmd/internal/bypass"
	"github.com/netgroup-polito/ringpmd/internal/config"
	"github.com/netgroup-polito/ringpmd/internal/logging"
	"github.com/netgroup-polito/ringpmd/internal/mbuf"
	"github.com/netgroup-polito/ringpmd/internal/metrics"
	"github.com/netgroup-polito/ringpmd/internal/registry"
	"github.com/netgroup-polito/ringpmd/internal/ring"
)

// RxMax and TxMax bound the number of queues a single device may carry
// (spec §6: "n_rx ≤ RxMax (compile-time, typically 16), n_tx ≤ TxMax").
const (
	RxMax = 16
	TxMax = 16
)

// Device is a RingDevice: a software Ethernet device backed by one
// ring per queue, switchable to a physical NIC via AttachBypass.
type Device struct {
	inner     *bypass.Device
	counters  *metrics.DeviceCounters
	log       *zap.Logger
	cfg       config.DeviceConfig
	startedAt time.Time
}

// Name returns the device's registered name.
func (d *Device) Name() string { return d.inner.Name() }

// MAC returns the device's configured MAC address.
func (d *Device) MAC() [6]byte { return d.inner.MAC() }

// LinkStatus reports the device's link state.
func (d *Device) LinkStatus() api.LinkStatus {
	if d.inner.LinkUp() {
		return api.LinkUp
	}
	return api.LinkDown
}

// SetLinkUp sets the device's link state.
func (d *Device) SetLinkUp(up bool) { d.inner.SetLinkUp(up) }

// NumRxQueues and NumTxQueues report queue counts.
func (d *Device) NumRxQueues() int { return len(d.inner.RxQueues()) }
func (d *Device) NumTxQueues() int { return len(d.inner.TxQueues()) }

// RxBurst dequeues up to len(bufs) packets from queue idx, dispatching
// on that queue's current bypass state.
func (d *Device) RxBurst(idx int, bufs []*mbuf.Buffer) (int, error) {
	qs := d.inner.RxQueues()
	if idx < 0 || idx >= len(qs) {
		return 0, ErrBadQueueIndex(idx, len(qs))
	}
	n := qs[idx].RxBurst(d.inner, bufs)
	if n > 0 {
		d.counters.RxPackets.Add(float64(n))
	}
	return n, nil
}

// TxBurst submits up to len(bufs) packets on queue idx.
func (d *Device) TxBurst(idx int, bufs []*mbuf.Buffer) (int, error) {
	qs := d.inner.TxQueues()
	if idx < 0 || idx >= len(qs) {
		return 0, ErrBadQueueIndex(idx, len(qs))
	}
	n := qs[idx].TxBurst(d.inner, bufs)
	if n > 0 {
		d.counters.TxPackets.Add(float64(n))
	}
	return n, nil
}

// Stats aggregates per-queue counters into the shared DeviceMetrics
// layout.
func (d *Device) Stats() api.DeviceMetrics {
	m := api.DeviceMetrics{NumQueues: d.NumRxQueues(), StartedAt: d.startedAt}
	for _, q := range d.inner.RxQueues() {
		m.RxPackets += q.RxPkts()
		m.RxPacketsBypass += q.RxPktsBypass()
	}
	for _, q := range d.inner.TxQueues() {
		m.TxPackets += q.TxPkts()
		m.TxPacketsBypass += q.TxPktsBypass()
		m.ErrPackets += q.ErrPkts() + q.ErrPktsBypass()
	}
	return m
}

// Close releases the device's registration and counters.
func (d *Device) Close() error { return d.inner.Close() }

// Shutdown satisfies api.GracefulShutdown, for callers that manage a
// mixed set of components behind that one contract.
func (d *Device) Shutdown() error { return d.Close() }

var _ api.GracefulShutdown = (*Device)(nil)

// FromRings implements the from_rings external interface: builds a
// Device over the given rings, one mempool per queue, registers it
// under reg, and publishes its counters.
func FromRings(cfg config.DeviceConfig, mac [6]byte, rxRings, txRings []*ring.Ring[*mbuf.Buffer], reg *registry.Table, opts ...Option) (*Device, registry.PortID, error) {
	if len(rxRings) > RxMax {
		return nil, 0, ErrTooManyQueues(len(rxRings), RxMax)
	}
	if len(txRings) > TxMax {
		return nil, 0, ErrTooManyQueues(len(txRings), TxMax)
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	log := o.logger
	if log == nil {
		var err error
		log, err = logging.New(cfg.LogMode)
		if err != nil {
			return nil, 0, ErrMetricsRegistration(err)
		}
	}

	capTimeout := time.Duration(cfg.CapInterval) * time.Millisecond
	if capTimeout <= 0 {
		capTimeout = bypass.DefaultCapTimeout
	}

	rxQs := make([]*bypass.RxQueue, len(rxRings))
	for i, r := range rxRings {
		pool := mbuf.NewPool(cfg.RxRingSize+1, o.bufSize, cfg.NUMANode)
		rxQs[i] = bypass.NewRxQueue(r, pool, cfg.RxRingSize, capTimeout, o.clock)
	}
	txQs := make([]*bypass.TxQueue, len(txRings))
	for i, r := range txRings {
		pool := mbuf.NewPool(cfg.TxRingSize+1, o.bufSize, cfg.NUMANode)
		txQs[i] = bypass.NewTxQueue(r, pool, cfg.TxRingSize)
	}

	inner := bypass.NewDevice(cfg.Name, mac, rxQs, txQs)

	counters, err := metrics.NewDeviceCounters(o.registerer, cfg.Name)
	if err != nil {
		return nil, 0, ErrMetricsRegistration(err)
	}

	dev := &Device{
		inner:     inner,
		counters:  counters,
		log:       logging.Named(log, "device."+cfg.Name),
		cfg:       cfg,
		startedAt: time.Now(),
	}

	id, err := reg.Register(cfg.Name, inner)
	if err != nil {
		return nil, 0, err
	}
	return dev, id, nil
}

// FromRing implements the from_ring shorthand: a single ring used for
// both RX and TX (spec §6: "identical ring pointers in rx and tx
// allowed (loopback)").
func FromRing(cfg config.DeviceConfig, mac [6]byte, r *ring.Ring[*mbuf.Buffer], reg *registry.Table, opts ...Option) (*Device, registry.PortID, error) {
	return FromRings(cfg, mac, []*ring.Ring[*mbuf.Buffer]{r}, []*ring.Ring[*mbuf.Buffer]{r}, reg, opts...)
}

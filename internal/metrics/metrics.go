// File: internal/metrics/metrics.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Per-device counters, grounded on the prometheus.Counter field group
// in the DPDK-style network manager reference (rxPackets/txPackets/
// rxErrors/txErrors). Extended with bypass-path counters and a rehash
// counter for the RSS fabric.

package metrics

import "github.com/prometheus/client_golang/prometheus"

// DeviceCounters holds the prometheus instruments exported for one
// RingDevice. Fields are exported counters, not raw uint64s, so callers
// use the standard prometheus API rather than ad-hoc atomics.
type DeviceCounters struct {
	RxPackets       prometheus.Counter
	TxPackets       prometheus.Counter
	RxPacketsBypass prometheus.Counter
	TxPacketsBypass prometheus.Counter
	RxErrors        prometheus.Counter
	TxErrors        prometheus.Counter
	BypassCutovers  prometheus.Counter
	Rehashes        prometheus.Counter
}

// NewDeviceCounters registers a DeviceCounters set labeled by device
// name against reg. Pass prometheus.NewRegistry() in tests to avoid
// colliding with the global default registry across parallel devices.
func NewDeviceCounters(reg prometheus.Registerer, deviceName string) (*DeviceCounters, error) {
	c := &DeviceCounters{
		RxPackets: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "ringpmd_rx_packets_total",
			Help:        "Packets received on the software ring path.",
			ConstLabels: prometheus.Labels{"device": deviceName},
		}),
		TxPackets: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "ringpmd_tx_packets_total",
			Help:        "Packets transmitted on the software ring path.",
			ConstLabels: prometheus.Labels{"device": deviceName},
		}),
		RxPacketsBypass: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "ringpmd_rx_packets_bypass_total",
			Help:        "Packets received directly from the physical NIC queue.",
			ConstLabels: prometheus.Labels{"device": deviceName},
		}),
		TxPacketsBypass: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "ringpmd_tx_packets_bypass_total",
			Help:        "Packets transmitted directly to the physical NIC queue.",
			ConstLabels: prometheus.Labels{"device": deviceName},
		}),
		RxErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "ringpmd_rx_errors_total",
			Help:        "Receive-path errors.",
			ConstLabels: prometheus.Labels{"device": deviceName},
		}),
		TxErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "ringpmd_tx_errors_total",
			Help:        "Transmit-path errors.",
			ConstLabels: prometheus.Labels{"device": deviceName},
		}),
		BypassCutovers: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "ringpmd_bypass_cutovers_total",
			Help:        "Number of completed ring<->hardware bypass transitions.",
			ConstLabels: prometheus.Labels{"device": deviceName},
		}),
		Rehashes: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "ringpmd_rss_rehashes_total",
			Help:        "Number of RSS indirection table rehash operations.",
			ConstLabels: prometheus.Labels{"device": deviceName},
		}),
	}
	for _, m := range []prometheus.Collector{
		c.RxPackets, c.TxPackets, c.RxPacketsBypass, c.TxPacketsBypass,
		c.RxErrors, c.TxErrors, c.BypassCutovers, c.Rehashes,
	} {
		if err := reg.Register(m); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// File: api/types.go
// Author: momentics <momentics@gmail.com>
//
// Shared API-level type declarations, DTOs, and constants.

package api

import "time"

// LinkStatus enumerates the reported state of a RingDevice's link.
type LinkStatus int

const (
	LinkDown LinkStatus = iota
	LinkUp
)

func (s LinkStatus) String() string {
	if s == LinkUp {
		return "up"
	}
	return "down"
}

// DeviceMetrics provides a standard layout for device health/statistics
// reporting through ringpmd.Device.Stats().
type DeviceMetrics struct {
	NumQueues     int
	RxPackets     uint64
	TxPackets     uint64
	RxPacketsBypass uint64
	TxPacketsBypass uint64
	ErrPackets    uint64
	StartedAt     time.Time
}

// ServiceInfo exposes descriptive build- and runtime info for external tools.
type ServiceInfo struct {
	Name      string
	Version   string
	Build     string
	StartedAt time.Time
}

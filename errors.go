// File: errors.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package ringpmd

import "github.com/netgroup-polito/ringpmd/api"

// ErrTooManyQueues reports a from_rings call exceeding RxMax/TxMax
// (spec §6 "Device creation" parameter constraints).
func ErrTooManyQueues(got, max int) *api.Error {
	return api.NewError(api.ErrCodeConfig, "ringpmd: too many queues").
		WithContext("got", got).WithContext("max", max)
}

// ErrMetricsRegistration wraps a failure to register a device's
// Prometheus counters (e.g. duplicate device name).
func ErrMetricsRegistration(cause error) *api.Error {
	return api.NewError(api.ErrCodeConfig, "ringpmd: metrics registration failed").WithContext("cause", cause)
}

// ErrBadQueueIndex reports an RxBurst/TxBurst call against a queue
// index outside the device's configured range.
func ErrBadQueueIndex(idx, n int) *api.Error {
	return api.NewError(api.ErrCodeConfig, "ringpmd: queue index out of range").
		WithContext("index", idx).WithContext("count", n)
}

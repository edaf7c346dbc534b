// File: internal/worker/errors.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package worker

import "errors"

var (
	// ErrClosed indicates the pool has been shut down.
	ErrClosed = errors.New("worker: pool is closed")

	// ErrInvalidWorkerCount indicates an invalid worker count configuration.
	ErrInvalidWorkerCount = errors.New("worker: invalid worker count")
)

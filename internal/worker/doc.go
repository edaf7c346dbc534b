// File: internal/worker/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package worker implements the control-plane task pool that runs work
// off the data-path polling goroutines, such as the deferred bypass NIC
// close scheduled by internal/bypass's DetachBypass.
package worker

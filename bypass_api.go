// File: bypass_api.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Public bypass-switching API (spec §6 add_bypass/remove_bypass):
// thin wrappers over internal/bypass's lifecycle, keeping the
// registry/worker-pool plumbing those operations need internal.

package ringpmd

import (
	"time"

	"github.com/netgroup-polito/ringpmd/internal/bypass"
	"github.com/netgroup-polito/ringpmd/internal/registry"
	"github.com/netgroup-polito/ringpmd/internal/worker"
)

// AddBypass attaches bypassNIC (registered under bypassID in reg) as
// the physical-NIC backing of dev, implementing add_bypass. dev must
// currently be Detached; see spec §4.3's state machine.
func AddBypass(dev *Device, bypassID registry.PortID, bypassNIC bypass.BypassNIC) error {
	return bypass.AttachBypass(dev.inner, bypassID, bypassNIC)
}

// RemoveBypass detaches dev's physical-NIC backing, implementing
// remove_bypass. The bypass NIC's Stop/Close runs asynchronously on
// pool (or a bare goroutine if pool is nil) after delay, avoiding a
// reentrant call into the NIC driver from the transmit path that
// triggers the detach (spec §4.3). delay of zero uses the spec's
// documented ~100ms default.
func RemoveBypass(dev *Device, pool *worker.Pool, delay time.Duration) error {
	return bypass.DetachBypass(dev.inner, pool, delay)
}

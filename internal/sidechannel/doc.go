// File: internal/sidechannel/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package sidechannel implements the host-to-guest control channel
// used to deliver ring-rename notifications (spec §4.9).
package sidechannel

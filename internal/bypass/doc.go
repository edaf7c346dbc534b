// File: internal/bypass/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package bypass implements the per-queue bypass state machine: four
// RX handlers and four TX handlers that cooperate, via an in-band cap
// sentinel, to move a queue's traffic between a software ring and a
// physical NIC without dropping, duplicating, or reordering packets
// the application observes.
package bypass

// File: doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package ringpmd implements a software ring-backed Ethernet poll-mode
// driver that can seamlessly switch a queue's data path onto a
// physical NIC at runtime and back, using an in-band cap sentinel to
// serialise the cutover without stalling either side.
//
// A Device is created from one or more pre-allocated rings with
// FromRings (or FromRing for the single-queue case), registered in the
// caller-supplied registry.Table, and driven by calling RxBurst/TxBurst
// from one worker goroutine per queue. AddBypass and RemoveBypass
// implement the runtime bypass-switching lifecycle.
package ringpmd

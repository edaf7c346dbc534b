// File: internal/verbs/types.go
// Package verbs implements the hardware receive-queue element lifecycle
// (spec §4.4-4.7): resource domain / completion queue / work queue
// setup, scatter-gather descriptor allocation, rehashing, and the RSS
// indirection-table/hash-QP fabric a bypass-attached physical NIC uses.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// The actual queue-pair and completion-queue primitives are modelled
// behind the Backend interface: a pure-Go SimBackend (always built,
// used by tests and by hosts without an RDMA-capable NIC) and an
// optional libibverbs-backed implementation gated by a build tag, the
// same "software fallback always buildable, hardware backend behind a
// tag" split the DPDK-gated network manager reference in the retrieval
// pack uses for its own cgo dependency.

package verbs

import (
	"github.com/netgroup-polito/ringpmd/internal/mbuf"
)

// SGWRN is SG_WR_N: the maximum scatter-gather segments per work
// request (spec §4.4).
const SGWRN = 4

// WQState mirrors the work-queue state machine verbs exposes.
type WQState int

const (
	WQStateReset WQState = iota
	WQStateReady
)

// Opaque handles into the Backend's object tables.
type (
	MRHandle    uintptr
	RDHandle    uintptr
	CQHandle    uintptr
	WQHandle    uintptr
	IndirHandle uintptr
	QPHandle    uintptr
)

// SGE is one scatter-gather entry of a posted receive work request.
type SGE struct {
	Addr   uintptr
	Length uint32
	LKey   uint32
}

// Element is a single-segment receive descriptor (spec §4.5 "Single-segment").
type Element struct {
	SGE SGE
	Buf *mbuf.Buffer
}

// ScatterElement is a multi-segment receive descriptor holding SGWRN
// buffers (spec §4.5 "Scatter (sp)").
type ScatterElement struct {
	SGEs [SGWRN]SGE
	Bufs [SGWRN]*mbuf.Buffer
}

// DeviceLimits models the NIC capability fields rxq_setup reads (spec
// §4.4 step 4: max_qp_wr, max_sge).
type DeviceLimits struct {
	MaxQPWR int
	MaxSGE  int
}

// RxQueue is the hardware receive queue state (spec §3 "Hardware
// RxQueue"): memory region, completion/work queue handles, scatter
// flag, and either single or scatter descriptor elements.
type RxQueue struct {
	Backend Backend

	MR     MRHandle
	LKey   uint32
	RD     RDHandle
	CQ     CQHandle
	WQ     WQHandle
	Indir  IndirHandle
	HashQP []QPHandle

	Scatter bool // sp
	EltsN   int  // elts_n

	Single     []Element
	ScatterEls []ScatterElement

	NUMASocket int
	RxPkts     uint64
}

// File: internal/verbs/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package verbs implements the hardware receive-queue lifecycle a
// bypass-attached physical NIC uses once cutover completes: resource
// domain / completion queue / work queue setup, single-segment and
// scatter descriptor allocation, live rehashing between the two
// layouts, and the RSS indirection table / hash queue-pair fabric that
// spreads a physical NIC's incoming traffic across multiple hardware
// queues.
//
// All verbs objects are addressed through the Backend interface so the
// lifecycle algorithm is testable without RDMA-capable hardware:
// SimBackend is a pure-Go, always-built implementation; RDMACoreBackend
// wraps real libibverbs calls behind the rdmacore build tag.
package verbs

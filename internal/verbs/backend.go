// File: internal/verbs/backend.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package verbs

// Backend abstracts the verbs primitives rxq_setup and its siblings
// compose. SimBackend (backend_sim.go) is the pure-Go default; a
// libibverbs-backed implementation can be compiled in behind a build
// tag for real RDMA-capable NICs.
type Backend interface {
	RegisterMR(base []byte) (MRHandle, uint32, error)
	DeregisterMR(MRHandle) error

	CreateResourceDomain() (RDHandle, error)
	DestroyResourceDomain(RDHandle) error

	CreateCQ(size int) (CQHandle, error)
	DestroyCQ(CQHandle) error

	CreateWQ(rd RDHandle, cq CQHandle, maxRecvWR, maxRecvSGE int) (WQHandle, error)
	SetWQState(wq WQHandle, state WQState) error
	PostRecv(wq WQHandle, sges []SGE) error
	DestroyWQ(WQHandle) error

	CreateIndirectionTable(wqs []WQHandle) (IndirHandle, error)
	DestroyIndirectionTable(IndirHandle) error

	CreateHashQP(table IndirHandle, fieldsMask uint32, toeplitzKey [40]byte) (QPHandle, error)
	DestroyQP(QPHandle) error
}

// Package api defines the cross-cutting contracts shared by ringpmd's
// internal packages: CPU/NUMA placement (Affinity), parallel task
// dispatch (Executor), graceful teardown (GracefulShutdown),
// event-driven I/O (Reactor), generic pooling (ObjectPool),
// and the five-kind error taxonomy (Error, ErrorCode). Concrete
// packet/queue/device types live closer to the subsystems that own
// them (internal/mbuf, internal/bypass, internal/verbs,
// internal/ivshmem) rather than here.
package api

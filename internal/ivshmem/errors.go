// File: internal/ivshmem/errors.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package ivshmem

import "github.com/netgroup-polito/ringpmd/api"

// ErrSegmentsOverlap reports a partial overlap between two segments in
// at least one axis without full adjacency or full overlap in every
// axis — an invariant violation per spec §7, fatal to the coalescing
// call.
func ErrSegmentsOverlap(a, b Segment) *api.Error {
	return api.NewError(api.ErrCodeInvariant, "ivshmem: segments overlap").
		WithContext("a", a.Name).WithContext("b", b.Name)
}

// ErrBadMagic reports a BAR2 page that does not carry the ivshmem
// metadata magic.
func ErrBadMagic(got uint32) *api.Error {
	return api.NewError(api.ErrCodeConfig, "ivshmem: bad metadata magic").
		WithContext("got", got).WithContext("want", MetadataMagic)
}

// ErrTooManyEntries reports a metadata page claiming more entries than
// MaxEntries permits.
func ErrTooManyEntries(n int) *api.Error {
	return api.NewError(api.ErrCodeConfig, "ivshmem: metadata entry count exceeds limit").
		WithContext("entries", n).WithContext("max", MaxEntries)
}

// ErrMapFailed wraps a mapping-stage failure (reservation, fixed map,
// or address mismatch), a resource error per the taxonomy in spec §7.
func ErrMapFailed(step string, cause error) *api.Error {
	return api.NewError(api.ErrCodeResource, "ivshmem: "+step+" failed").WithContext("cause", cause)
}

// ErrLockFailed wraps a flock-discipline failure on the shared config file.
func ErrLockFailed(cause error) *api.Error {
	return api.NewError(api.ErrCodeResource, "ivshmem: config file lock failed").WithContext("cause", cause)
}

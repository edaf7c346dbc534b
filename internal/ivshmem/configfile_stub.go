//go:build !linux

// File: internal/ivshmem/configfile_stub.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Non-Linux platforms have no flock discipline to honor; every opener
// becomes primary with an exclusive in-process view.

package ivshmem

import "os"

type stubFlocker struct{}

func (stubFlocker) tryExclusive(f *os.File) error     { return nil }
func (stubFlocker) shared(f *os.File) error            { return nil }
func (stubFlocker) downgradeToShared(f *os.File) error { return nil }

func init() {
	platformFlocker = stubFlocker{}
}

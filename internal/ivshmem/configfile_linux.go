//go:build linux

// File: internal/ivshmem/configfile_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package ivshmem

import (
	"os"

	"golang.org/x/sys/unix"
)

type linuxFlocker struct{}

func (linuxFlocker) tryExclusive(f *os.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
}

func (linuxFlocker) shared(f *os.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_SH)
}

func (linuxFlocker) downgradeToShared(f *os.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_SH)
}

func init() {
	platformFlocker = linuxFlocker{}
}

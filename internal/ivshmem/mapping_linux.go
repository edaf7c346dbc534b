//go:build linux

// File: internal/ivshmem/mapping_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// osMapper backs Mapper with real Linux mmap/munmap: /dev/zero PRIVATE
// to reserve the address range, then the PCI resource file MAP_SHARED
// at a fixed address, the literal algorithm of spec §4.8 "Mapping".
// Raw syscalls are used (rather than the unix package's high-level
// Mmap helper) because MAP_FIXED requires passing an explicit target
// address, which golang.org/x/sys/unix's Mmap wrapper does not expose.

package ivshmem

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// osMapper implements Mapper over real memory mappings.
type osMapper struct{}

// NewOSMapper returns the Linux Mapper implementation.
func NewOSMapper() Mapper { return osMapper{} }

func mmapRaw(addr uintptr, length int, prot, flags, fd int, offset int64) (uintptr, error) {
	ret, _, errno := unix.Syscall6(unix.SYS_MMAP, addr, uintptr(length),
		uintptr(prot), uintptr(flags), uintptr(fd), uintptr(offset))
	if errno != 0 {
		return 0, errno
	}
	return ret, nil
}

func munmapRaw(addr uintptr, length int) error {
	_, _, errno := unix.Syscall(unix.SYS_MUNMAP, addr, uintptr(length), 0)
	if errno != 0 {
		return errno
	}
	return nil
}

func (osMapper) Reserve(addr uintptr, length int) (uintptr, error) {
	zero, err := os.OpenFile("/dev/zero", os.O_RDWR, 0)
	if err != nil {
		return 0, err
	}
	defer zero.Close()

	got, err := mmapRaw(addr, length, unix.PROT_NONE, unix.MAP_PRIVATE, int(zero.Fd()), 0)
	if err != nil {
		return 0, err
	}
	return got, nil
}

func (osMapper) Unreserve(addr uintptr, length int) error {
	return munmapRaw(addr, length)
}

func (osMapper) MapFixed(devicePath string, fileOffset int64, addr uintptr, length int) error {
	f, err := os.OpenFile(devicePath, os.O_RDWR, 0)
	if err != nil {
		return err
	}
	defer f.Close()

	got, err := mmapRaw(addr, length, unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_SHARED|unix.MAP_FIXED, int(f.Fd()), fileOffset)
	if err != nil {
		return err
	}
	if got != addr {
		munmapRaw(got, length)
		return fmt.Errorf("ivshmem: MAP_FIXED landed at a different address")
	}
	return nil
}

func (osMapper) Unmap(addr uintptr, length int) error {
	return munmapRaw(addr, length)
}

var _ Mapper = osMapper{}

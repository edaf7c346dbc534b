// File: internal/ivshmem/mapping_sim.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// SimMapper is a bookkeeping-only Mapper for tests and hosts without a
// real ivshmem PCI device: it tracks reserved/mapped ranges in plain
// Go maps instead of touching the address space.

package ivshmem

import (
	"fmt"
	"sync"
)

// SimMapper implements Mapper without issuing real mmap/munmap calls.
type SimMapper struct {
	mu        sync.Mutex
	reserved  map[uintptr]int
	mapped    map[uintptr]int
	DenyAddrs map[uintptr]bool // addresses Reserve should refuse, for failure-path tests
}

// NewSimMapper returns an empty SimMapper.
func NewSimMapper() *SimMapper {
	return &SimMapper{
		reserved: make(map[uintptr]int),
		mapped:   make(map[uintptr]int),
	}
}

func (m *SimMapper) Reserve(addr uintptr, length int) (uintptr, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DenyAddrs[addr] {
		return 0, fmt.Errorf("ivshmem: address %#x already claimed", addr)
	}
	m.reserved[addr] = length
	return addr, nil
}

func (m *SimMapper) Unreserve(addr uintptr, length int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.reserved[addr] != length {
		return fmt.Errorf("ivshmem: unreserve length mismatch at %#x", addr)
	}
	delete(m.reserved, addr)
	return nil
}

func (m *SimMapper) MapFixed(devicePath string, fileOffset int64, addr uintptr, length int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mapped[addr] = length
	return nil
}

func (m *SimMapper) Unmap(addr uintptr, length int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.mapped[addr] != length {
		return fmt.Errorf("ivshmem: unmap length mismatch at %#x", addr)
	}
	delete(m.mapped, addr)
	return nil
}

var _ Mapper = (*SimMapper)(nil)

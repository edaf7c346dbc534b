// File: internal/ivshmem/configfile.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// The process-shared ivshmem configuration file (spec §4.8, §6
// "Persisted layout"): an append-only segment table plus contributing
// PCI device paths, guarded by an advisory flock that also decides
// primary/secondary role.

package ivshmem

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// Role distinguishes the primary process (first to successfully hold
// the exclusive lock) from a secondary attaching to an existing config.
type Role int

const (
	RolePrimary Role = iota
	RoleSecondary
)

// SharedConfig is the in-memory mirror of the persisted
// ivshmem_shared_config structure (spec §6): bounded segment and
// device-path tables with append-only index counters.
type SharedConfig struct {
	Segments    []Segment `json:"segments"`
	SegmentIdx  uint32    `json:"segment_idx"`
	PCIDevs     []string  `json:"pci_devs"`
	PCIDevsIdx  uint32    `json:"pci_devs_idx"`
}

// AddSegment appends seg if the table has room, per MaxMemseg.
func (c *SharedConfig) AddSegment(seg Segment) error {
	if int(c.SegmentIdx) >= MaxMemseg {
		return fmt.Errorf("ivshmem: segment table full (max %d)", MaxMemseg)
	}
	c.Segments = append(c.Segments, seg)
	c.SegmentIdx++
	return nil
}

// AddDevice appends a PCI device path if the table has room, per MaxPCIDevs.
func (c *SharedConfig) AddDevice(path string) error {
	if int(c.PCIDevsIdx) >= MaxPCIDevs {
		return fmt.Errorf("ivshmem: pci device table full (max %d)", MaxPCIDevs)
	}
	c.PCIDevs = append(c.PCIDevs, path)
	c.PCIDevsIdx++
	return nil
}

// ConfigFile owns the shared config file and its advisory lock.
type ConfigFile struct {
	path string
	file *os.File
	role Role

	mu  sync.Mutex
	cfg SharedConfig
}

// flocker is the platform hook for advisory locking, implemented for
// real on Linux and stubbed (always primary) elsewhere.
type flocker interface {
	tryExclusive(f *os.File) error
	shared(f *os.File) error
	downgradeToShared(f *os.File) error
}

var platformFlocker flocker

// Open establishes this process's role against the shared config file
// at path: it becomes primary if it can acquire the lock exclusively
// (whether because no one holds it, or because a dead primary's lock
// was released by the kernel on process exit — spec §4.8's "lock
// acquires [from a dead primary]" case), and secondary otherwise. A
// primary inheriting a non-empty file from a dead predecessor treats
// it as a fresh boot, per the same spec text.
func Open(path string) (*ConfigFile, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, ErrLockFailed(err)
	}

	cf := &ConfigFile{path: path, file: f}

	if err := platformFlocker.tryExclusive(f); err == nil {
		cf.role = RolePrimary
		if info, statErr := f.Stat(); statErr == nil && info.Size() > 0 {
			f.Truncate(0)
		}
		cf.cfg = SharedConfig{}
		if err := platformFlocker.downgradeToShared(f); err != nil {
			f.Close()
			return nil, ErrLockFailed(err)
		}
		return cf, nil
	}

	if err := platformFlocker.shared(f); err != nil {
		f.Close()
		return nil, ErrLockFailed(err)
	}
	cf.role = RoleSecondary
	dec := json.NewDecoder(f)
	_ = dec.Decode(&cf.cfg) // best-effort: an empty/partial file means "no config yet"
	return cf, nil
}

// Role reports whether this process is the primary owner.
func (c *ConfigFile) Role() Role { return c.role }

// Snapshot returns a copy of the current shared config.
func (c *ConfigFile) Snapshot() SharedConfig {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg
}

// Append adds seg and persists the updated table. Only meaningful for
// the primary; a secondary calling this mutates its own in-memory view
// but does not own the file's write access in this simplified model.
func (c *ConfigFile) Append(seg Segment) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.cfg.AddSegment(seg); err != nil {
		return err
	}
	return c.persistLocked()
}

func (c *ConfigFile) persistLocked() error {
	if _, err := c.file.Seek(0, 0); err != nil {
		return err
	}
	if err := c.file.Truncate(0); err != nil {
		return err
	}
	enc := json.NewEncoder(c.file)
	return enc.Encode(c.cfg)
}

// Close releases the underlying file handle.
func (c *ConfigFile) Close() error {
	return c.file.Close()
}

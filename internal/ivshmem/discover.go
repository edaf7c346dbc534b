// File: internal/ivshmem/discover.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Discovery (spec §4.8): read an ivshmem device's BAR2 page, validate
// its magic, and decode the memzone entries it advertises. BAR access
// is modelled behind a BarReader so the wire-format decode is testable
// without a real PCI device.

package ivshmem

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	metadataHeaderLen = 8  // magic(4) + entry_count(4)
	entryNameLen      = 32
	entryRecordLen    = entryNameLen + 8*5 + 4 // name + 5 uint64 fields + socket(int32)
)

// Metadata is the decoded rte_ivshmem_metadata page.
type Metadata struct {
	Entries []Segment
}

// BarReader fetches the raw bytes of a PCI device's BAR2 resource.
type BarReader interface {
	ReadBAR2(devicePath string) ([]byte, error)
}

// SysfsBarReader reads BAR2 from the standard Linux sysfs resource file.
type SysfsBarReader struct{}

func (SysfsBarReader) ReadBAR2(devicePath string) ([]byte, error) {
	return os.ReadFile(filepath.Join(devicePath, "resource2"))
}

// ParseMetadata decodes a BAR2 page laid out as:
//
//	magic       uint32 little-endian
//	entry_count uint32 little-endian
//	entries[entry_count] of:
//	  name          [32]byte, NUL-padded
//	  virt_addr     uint64
//	  phys_addr     uint64
//	  ioremap_addr  uint64
//	  len           uint64
//	  hugepage_sz   uint64
//	  socket        int32
//	  offset        uint64
func ParseMetadata(buf []byte, devicePath string) (Metadata, error) {
	if len(buf) < metadataHeaderLen {
		return Metadata{}, ErrBadMagic(0)
	}
	magic := binary.LittleEndian.Uint32(buf[0:4])
	if magic != MetadataMagic {
		return Metadata{}, ErrBadMagic(magic)
	}
	count := int(binary.LittleEndian.Uint32(buf[4:8]))
	if count > MaxEntries {
		return Metadata{}, ErrTooManyEntries(count)
	}

	need := metadataHeaderLen + count*(entryRecordLen+8)
	if len(buf) < need {
		return Metadata{}, fmt.Errorf("ivshmem: metadata page truncated, need %d bytes got %d", need, len(buf))
	}

	md := Metadata{Entries: make([]Segment, 0, count)}
	off := metadataHeaderLen
	for i := 0; i < count; i++ {
		rec := buf[off : off+entryRecordLen+8]
		off += entryRecordLen + 8

		name := string(rec[0:entryNameLen])
		if idx := strings.IndexByte(name, 0); idx >= 0 {
			name = name[:idx]
		}
		p := entryNameLen
		virt := binary.LittleEndian.Uint64(rec[p:])
		p += 8
		phys := binary.LittleEndian.Uint64(rec[p:])
		p += 8
		iore := binary.LittleEndian.Uint64(rec[p:])
		p += 8
		length := binary.LittleEndian.Uint64(rec[p:])
		p += 8
		hugepg := binary.LittleEndian.Uint64(rec[p:])
		p += 8
		socket := int32(binary.LittleEndian.Uint32(rec[p:]))
		p += 4
		_ = p // p == entryRecordLen: offset follows socket with no padding
		offset := binary.LittleEndian.Uint64(rec[entryRecordLen:])

		md.Entries = append(md.Entries, Segment{
			Memzone: Memzone{
				Name: name, VirtAddr: virt, PhysAddr: phys, IoremapAddr: iore,
				Len: length, HugepageSz: hugepg, Socket: int(socket),
			},
			Offset:     offset,
			DevicePath: devicePath,
		})
	}
	return md, nil
}

// RemapRequested reports whether any of md's entries has a name that
// begins with RemapPrefix, requesting the manager unmap each entry's
// existing mapping before remapping (hot-replace, spec §4.8 "Discovery").
func (md Metadata) RemapRequested() bool {
	for _, e := range md.Entries {
		if strings.HasPrefix(e.Name, RemapPrefix) {
			return true
		}
	}
	return false
}

// Discover reads and decodes the BAR2 metadata for one ivshmem device.
func Discover(reader BarReader, devicePath string) (Metadata, error) {
	buf, err := reader.ReadBAR2(devicePath)
	if err != nil {
		return Metadata{}, ErrMapFailed("read bar2", err)
	}
	return ParseMetadata(buf, devicePath)
}

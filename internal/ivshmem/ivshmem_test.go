// File: internal/ivshmem/ivshmem_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package ivshmem

import (
	"encoding/binary"
	"reflect"
	"testing"
	"time"
)

func seg(name string, virt, phys, iore, length uint64) Segment {
	return Segment{Memzone: Memzone{Name: name, VirtAddr: virt, PhysAddr: phys, IoremapAddr: iore, Len: length}}
}

func TestCoalesceSegments_AdjacentAcrossAllAxesCollapse(t *testing.T) {
	a := seg("a", 1000, 2000, 3000, 100)
	b := seg("b", 1100, 2100, 3100, 50)
	out, err := CoalesceSegments([]Segment{a, b})
	if err != nil {
		t.Fatalf("CoalesceSegments: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 merged segment, got %d", len(out))
	}
	if out[0].VirtAddr != 1000 || out[0].Len != 150 {
		t.Fatalf("unexpected merge result: %+v", out[0])
	}
}

func TestCoalesceSegments_PartialOverlapOnlyInVirtFails(t *testing.T) {
	// Same IOREMAP base (so IOREMAP axis overlaps fully), disjoint PHYS,
	// overlapping VIRT ranges: overlap mask has VIRT and IOREMAP but not
	// PHYS, and is not full adjacency either -> must fail.
	a := seg("a", 1000, 2000, 3000, 200)
	b := seg("b", 1100, 5000, 3000, 200)
	_, err := CoalesceSegments([]Segment{a, b})
	if err == nil {
		t.Fatalf("expected overlap error")
	}
}

func TestCoalesceSegments_Idempotent(t *testing.T) {
	a := seg("a", 1000, 2000, 3000, 100)
	b := seg("b", 1100, 2100, 3100, 50)
	c := seg("c", 5000, 6000, 7000, 10)
	first, err := CoalesceSegments([]Segment{a, b, c})
	if err != nil {
		t.Fatalf("first coalesce: %v", err)
	}
	second, err := CoalesceSegments(first)
	if err != nil {
		t.Fatalf("second coalesce: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("coalescing its own output changed segment count: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].VirtAddr != second[i].VirtAddr || first[i].Len != second[i].Len {
			t.Fatalf("coalescing its own output changed segment %d: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestCoalesceSegments_NoOutputOverlapsInAnyAxis(t *testing.T) {
	segs := []Segment{
		seg("a", 1000, 2000, 3000, 100),
		seg("b", 1100, 2100, 3100, 50),
		seg("c", 10000, 20000, 30000, 64),
	}
	out, err := CoalesceSegments(segs)
	if err != nil {
		t.Fatalf("CoalesceSegments: %v", err)
	}
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if overlapMask(out[i], out[j]) != 0 {
				t.Fatalf("output segments %d and %d still overlap", i, j)
			}
		}
	}
}

func encodeMetadata(t *testing.T, magic uint32, entries []Segment) []byte {
	t.Helper()
	buf := make([]byte, metadataHeaderLen+len(entries)*(entryRecordLen+8))
	binary.LittleEndian.PutUint32(buf[0:4], magic)
	binary.LittleEndian.PutUint32(buf[4:8], uint32(len(entries)))
	off := metadataHeaderLen
	for _, e := range entries {
		rec := buf[off : off+entryRecordLen+8]
		copy(rec[0:entryNameLen], e.Name)
		p := entryNameLen
		binary.LittleEndian.PutUint64(rec[p:], e.VirtAddr)
		p += 8
		binary.LittleEndian.PutUint64(rec[p:], e.PhysAddr)
		p += 8
		binary.LittleEndian.PutUint64(rec[p:], e.IoremapAddr)
		p += 8
		binary.LittleEndian.PutUint64(rec[p:], e.Len)
		p += 8
		binary.LittleEndian.PutUint64(rec[p:], e.HugepageSz)
		p += 8
		binary.LittleEndian.PutUint32(rec[p:], uint32(int32(e.Socket)))
		binary.LittleEndian.PutUint64(rec[entryRecordLen:], e.Offset)
		off += entryRecordLen + 8
	}
	return buf
}

func TestParseMetadata_RoundTrip(t *testing.T) {
	want := []Segment{
		{Memzone: Memzone{Name: "mz0", VirtAddr: 0x1000, PhysAddr: 0x2000, IoremapAddr: 0x3000, Len: 4096, HugepageSz: 2 << 20, Socket: 1}, Offset: 0x10},
		{Memzone: Memzone{Name: "mz1", VirtAddr: 0x5000, PhysAddr: 0x6000, IoremapAddr: 0x7000, Len: 8192, Socket: 0}, Offset: 0x20},
	}
	buf := encodeMetadata(t, MetadataMagic, want)
	md, err := ParseMetadata(buf, "/sys/bus/pci/devices/0000:00:04.0")
	if err != nil {
		t.Fatalf("ParseMetadata: %v", err)
	}
	if len(md.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(md.Entries))
	}
	for i, e := range md.Entries {
		if e.Name != want[i].Name || e.VirtAddr != want[i].VirtAddr || e.Offset != want[i].Offset {
			t.Fatalf("entry %d mismatch: got %+v want %+v", i, e, want[i])
		}
	}
}

func TestParseMetadata_RejectsBadMagic(t *testing.T) {
	buf := encodeMetadata(t, 0xDEADBEEF, nil)
	_, err := ParseMetadata(buf, "dev")
	if err == nil {
		t.Fatalf("expected bad-magic error")
	}
}

func TestMetadata_RemapRequested(t *testing.T) {
	md := Metadata{Entries: []Segment{{Memzone: Memzone{Name: RemapPrefix + "_foo"}}}}
	if !md.RemapRequested() {
		t.Fatalf("expected remap requested")
	}
	md2 := Metadata{Entries: []Segment{{Memzone: Memzone{Name: "plain"}}}}
	if md2.RemapRequested() {
		t.Fatalf("expected no remap requested")
	}
}

func TestMonitor_QueuesWhileMaskedDeliversOnEnable(t *testing.T) {
	w := NewSimWatcher()
	m := NewMonitor(w)
	defer m.Close()

	ev := HotplugEvent{Action: ActionAdd, DevicePath: "0000:00:04.0", VendorID: VendorID, DeviceID: DeviceID}
	w.Emit(ev)

	select {
	case <-m.Events():
		t.Fatalf("event delivered while masked")
	default:
	}

	m.EnableHotplug()
	select {
	case got := <-m.Events():
		if !reflect.DeepEqual(got, ev) {
			t.Fatalf("unexpected event: %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatalf("expected queued event to be delivered after enable")
	}
}

func TestMonitor_HotplugSegmentCountMatchesValidEntries(t *testing.T) {
	w := NewSimWatcher()
	m := NewMonitor(w)
	defer m.Close()
	m.EnableHotplug()

	reader := fakeBarReader{buf: encodeMetadata(t, MetadataMagic, []Segment{
		{Memzone: Memzone{Name: "mz0", Len: 4096}},
		{Memzone: Memzone{Name: "mz1", Len: 4096}},
		{Memzone: Memzone{Name: "mz2", Len: 4096}},
	})}

	w.Emit(HotplugEvent{Action: ActionAdd, DevicePath: "0000:00:04.0", VendorID: VendorID, DeviceID: DeviceID})
	got := <-m.Events()
	if !got.IsIvshmem() {
		t.Fatalf("expected ivshmem event")
	}

	md, err := Discover(reader, got.DevicePath)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(md.Entries) != 3 {
		t.Fatalf("expected segment count to increase by exactly 3, got %d", len(md.Entries))
	}
}

type fakeBarReader struct{ buf []byte }

func (f fakeBarReader) ReadBAR2(devicePath string) ([]byte, error) { return f.buf, nil }

func TestMapSegment_AlignsAndAdjustsAddresses(t *testing.T) {
	m := NewSimMapper()
	s := seg("mz", pageSize*2, pageSize*4, pageSize*8, 100)
	s.DevicePath = "/sys/bus/pci/devices/0000:00:04.0/resource2"
	s.Offset = 0

	out, err := MapSegment(m, s)
	if err != nil {
		t.Fatalf("MapSegment: %v", err)
	}
	if out.VirtAddr != s.VirtAddr || out.PhysAddr != s.PhysAddr {
		t.Fatalf("expected addresses unchanged for an already page-aligned virt addr: got %+v", out)
	}
	if !out.Processed {
		t.Fatalf("expected segment marked processed after mapping")
	}
}

func TestMapSegment_UnalignedVirtAddrRestoresOriginalAddresses(t *testing.T) {
	m := NewSimMapper()
	const align = 64
	s := seg("mz", pageSize*2+align, pageSize*4+align, pageSize*8+align, pageSize-align)
	s.DevicePath = "/sys/bus/pci/devices/0000:00:04.0/resource2"
	s.Offset = pageSize

	out, err := MapSegment(m, s)
	if err != nil {
		t.Fatalf("MapSegment: %v", err)
	}
	if out.VirtAddr != s.VirtAddr {
		t.Fatalf("expected VirtAddr restored to %d, got %d", s.VirtAddr, out.VirtAddr)
	}
	if out.PhysAddr != s.PhysAddr {
		t.Fatalf("expected PhysAddr restored to %d, got %d", s.PhysAddr, out.PhysAddr)
	}
	if out.IoremapAddr != s.IoremapAddr {
		t.Fatalf("expected IoremapAddr restored to %d, got %d", s.IoremapAddr, out.IoremapAddr)
	}
	if out.Len != alignCeil(s.Len+align, pageSize)-align {
		t.Fatalf("expected Len = %d, got %d", alignCeil(s.Len+align, pageSize)-align, out.Len)
	}
}

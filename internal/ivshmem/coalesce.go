// File: internal/ivshmem/coalesce.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// cleanup_segments (spec §4.8 "Coalescing"): sorts ingested segments by
// physical address, then repeatedly merges pairs that are fully
// adjacent or fully overlapping across all three axes, failing on any
// partial overlap.

package ivshmem

import "sort"

func rangesOverlap(aStart, aEnd, bStart, bEnd uint64) bool {
	return aStart < bEnd && bStart < aEnd
}

func rangesTouch(aStart, aEnd, bStart, bEnd uint64) bool {
	return aEnd == bStart || bEnd == aStart
}

func overlapMask(a, b Segment) Axis {
	var m Axis
	if rangesOverlap(a.VirtAddr, a.virtEnd(), b.VirtAddr, b.virtEnd()) {
		m |= AxisVirt
	}
	if rangesOverlap(a.PhysAddr, a.physEnd(), b.PhysAddr, b.physEnd()) {
		m |= AxisPhys
	}
	if rangesOverlap(a.IoremapAddr, a.ioremapEnd(), b.IoremapAddr, b.ioremapEnd()) {
		m |= AxisIoremap
	}
	return m
}

func adjacentMask(a, b Segment) Axis {
	var m Axis
	if rangesTouch(a.VirtAddr, a.virtEnd(), b.VirtAddr, b.virtEnd()) {
		m |= AxisVirt
	}
	if rangesTouch(a.PhysAddr, a.physEnd(), b.PhysAddr, b.physEnd()) {
		m |= AxisPhys
	}
	if rangesTouch(a.IoremapAddr, a.ioremapEnd(), b.IoremapAddr, b.ioremapEnd()) {
		m |= AxisIoremap
	}
	return m
}

func minU64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}

func maxU64(a, b uint64) uint64 {
	if a > b {
		return a
	}
	return b
}

func mergeSegments(a, b Segment) Segment {
	name := a.Name
	if name == "" {
		name = b.Name
	}
	path := a.DevicePath
	if path == "" {
		path = b.DevicePath
	}
	virt := minU64(a.VirtAddr, b.VirtAddr)
	phys := minU64(a.PhysAddr, b.PhysAddr)
	iore := minU64(a.IoremapAddr, b.IoremapAddr)
	length := maxU64(a.virtEnd(), b.virtEnd()) - virt
	offset := minU64(a.Offset, b.Offset)
	align := maxU64(a.Align, b.Align)
	return Segment{
		Memzone: Memzone{
			Name: name, VirtAddr: virt, PhysAddr: phys, IoremapAddr: iore,
			Len: length, HugepageSz: a.HugepageSz, Socket: a.Socket,
		},
		Offset: offset, Align: align, DevicePath: path,
	}
}

// CoalesceSegments sorts segs by physical address (unallocated segments
// last) and merges every pair that is fully adjacent or fully
// overlapping across VIRT, PHYS, and IOREMAP, returning an error for
// any partial overlap. Idempotent: feeding its own output back in
// returns the same set unchanged (spec §8 property 6).
func CoalesceSegments(segs []Segment) ([]Segment, error) {
	out := append([]Segment(nil), segs...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].unallocated() != out[j].unallocated() {
			return out[j].unallocated()
		}
		return out[i].PhysAddr < out[j].PhysAddr
	})

	for {
		merged := false
		for i := 0; i < len(out); i++ {
			for j := i + 1; j < len(out); j++ {
				om := overlapMask(out[i], out[j])
				am := adjacentMask(out[i], out[j])
				switch {
				case am == axisAll || om == axisAll:
					out[i] = mergeSegments(out[i], out[j])
					out = append(out[:j], out[j+1:]...)
					merged = true
				case om != 0:
					return nil, ErrSegmentsOverlap(out[i], out[j])
				}
				if merged {
					break
				}
			}
			if merged {
				break
			}
		}
		if !merged {
			break
		}
	}
	for i := range out {
		out[i].Processed = true
	}
	return out, nil
}

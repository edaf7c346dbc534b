//go:build linux

// File: internal/mbuf/numa_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Linux NUMA-local allocation via libnuma, adapted from the teacher's
// pool/numa_linux.go linuxNUMAAllocator.

package mbuf

/*
#cgo LDFLAGS: -lnuma
#include <numa.h>
#include <stdlib.h>

void *ringpmd_numa_alloc(int size, int node) {
	if (numa_available() == -1 || node < 0) {
		return malloc((size_t)size);
	}
	return numa_alloc_onnode((size_t)size, node);
}
*/
import "C"
import "unsafe"

func numaAlloc(size, node int) []byte {
	ptr := C.ringpmd_numa_alloc(C.int(size), C.int(node))
	if ptr == nil {
		return make([]byte, size)
	}
	return unsafe.Slice((*byte)(ptr), size)
}

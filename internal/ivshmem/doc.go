// File: internal/ivshmem/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package ivshmem implements the inter-VM shared-memory segment
// manager: PCI BAR metadata discovery, segment coalescing, page-aligned
// mapping, the process-shared configuration file's primary/secondary
// flock discipline, and PCI hot-plug.
package ivshmem

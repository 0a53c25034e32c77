// Package arena provides the raw, monotonically growing memory that backs the
// allocator. A Source hands out contiguous byte ranges appended after all
// previously extended memory and never shrinks or moves; everything is
// addressed by offset from the start of the arena.
//
// Two implementations are provided:
//
//   - Mapped: reserves address space with mmap(PROT_NONE) up front and commits
//     pages with mprotect as the break advances, the closest userspace analogue
//     of sbrk.
//   - Fixed: a single pre-sized []byte, useful for tests and platforms without
//     mmap.
//
// Sources are not safe for concurrent use; the heap serializes every call.
package arena

import (
	"errors"
	"fmt"
)

const (
	// DefaultReserve is the address space reserved by DefaultConfig (1 GiB).
	// Reserving is cheap: pages are only committed as the arena grows.
	DefaultReserve = 1 << 30

	// DefaultFixedReserve is the capacity NewFixed uses for a non-positive size.
	DefaultFixedReserve = 64 << 20
)

var (
	// ErrExhausted indicates the reservation cannot satisfy a growth request.
	ErrExhausted = errors.New("arena: exhausted")

	// ErrInvalidExtend indicates a non-positive growth request.
	ErrInvalidExtend = errors.New("arena: invalid extend size")

	// ErrClosed indicates the source was used after Close.
	ErrClosed = errors.New("arena: closed")
)

// Source is the single OS-facing primitive the allocator consumes.
type Source interface {
	// Extend appends n bytes to the arena and returns the offset of the first
	// new byte. The new range starts exactly where the previous one ended.
	Extend(n int) (off int, err error)

	// Bytes returns the committed region [0:Len()). The returned slice stays
	// valid across later Extend calls.
	Bytes() []byte

	// Len returns the number of bytes handed out so far.
	Len() int
}

// Config configures a Mapped source.
//
// Use DefaultConfig() for production-ready defaults.
type Config struct {
	// Reserve is the address space to reserve in bytes (rounded up to the OS
	// page size). The arena can never grow past it.
	// Default: DefaultReserve (1 GiB)
	Reserve int

	// HugePages hints the kernel to back the reservation with huge pages
	// (madvise MADV_HUGEPAGE, Linux only).
	// Default: false
	HugePages bool

	// WillNeed pre-faults newly committed ranges (madvise MADV_WILLNEED).
	// Default: false
	WillNeed bool
}

// DefaultConfig returns the default Mapped configuration.
func DefaultConfig() Config {
	return Config{
		Reserve:   DefaultReserve,
		HugePages: false,
		WillNeed:  false,
	}
}

func exhausted(n, used, reserved int) error {
	return fmt.Errorf("%w: need %d bytes, %d of %d in use", ErrExhausted, n, used, reserved)
}

func invalidExtend(n int) error {
	return fmt.Errorf("%w: %d bytes", ErrInvalidExtend, n)
}

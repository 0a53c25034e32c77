//go:build linux || darwin || freebsd || netbsd || openbsd

package arena

import (
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/joshuapare/mallocule/internal/buf"
	"github.com/joshuapare/mallocule/internal/format"
)

// Mapped is a Source over an anonymous private mapping. The whole reservation
// is mapped PROT_NONE at construction; Extend flips pages to read/write as the
// break crosses them. The mapping never moves, so every slice derived from
// Bytes stays valid until Close.
type Mapped struct {
	data      []byte // full reservation
	brk       int    // bytes handed out
	committed int    // page-aligned prefix of data that is read/write
	pageSize  int
	cfg       Config
}

// NewMapped reserves cfg.Reserve bytes of address space.
func NewMapped(cfg Config) (*Mapped, error) {
	if cfg.Reserve <= 0 {
		cfg.Reserve = DefaultReserve
	}
	pageSize := unix.Getpagesize()
	reserve := format.AlignPage(cfg.Reserve, pageSize)

	data, err := unix.Mmap(-1, 0, reserve, unix.PROT_NONE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, fmt.Errorf("arena: reserve %d bytes: %w", reserve, err)
	}
	if cfg.HugePages {
		// Advisory only; kernels without THP simply refuse.
		_ = adviseHugePages(data)
	}
	return &Mapped{
		data:     data,
		pageSize: pageSize,
		cfg:      cfg,
	}, nil
}

func (m *Mapped) Extend(n int) (int, error) {
	if m.data == nil {
		return 0, ErrClosed
	}
	if n <= 0 {
		return 0, invalidExtend(n)
	}
	newBrk, ok := buf.AddOverflowSafe(m.brk, n)
	if !ok || newBrk > len(m.data) {
		return 0, exhausted(n, m.brk, len(m.data))
	}
	if newBrk > m.committed {
		end := format.AlignPage(newBrk, m.pageSize)
		region := m.data[m.committed:end]
		if err := unix.Mprotect(region, unix.PROT_READ|unix.PROT_WRITE); err != nil {
			return 0, fmt.Errorf("%w: commit [%d,%d): %w", ErrExhausted, m.committed, end, err)
		}
		if m.cfg.WillNeed {
			_ = unix.Madvise(region, unix.MADV_WILLNEED)
		}
		m.committed = end
	}
	off := m.brk
	m.brk = newBrk
	return off, nil
}

func (m *Mapped) Bytes() []byte {
	if m.data == nil {
		return nil
	}
	return m.data[:m.brk:m.brk]
}

func (m *Mapped) Len() int {
	return m.brk
}

// Reserved returns the size of the address space reservation.
func (m *Mapped) Reserved() int {
	return len(m.data)
}

// Close unmaps the reservation. Every slice obtained from Bytes becomes
// invalid. Calling Close twice is a no-op.
func (m *Mapped) Close() error {
	if m.data == nil {
		return nil
	}
	err := unix.Munmap(m.data)
	m.data = nil
	m.brk = 0
	m.committed = 0
	return err
}

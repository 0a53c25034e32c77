//go:build !linux && !darwin && !freebsd && !netbsd && !openbsd

package arena

// Mapped falls back to a Fixed source where anonymous mmap is not available.
// HugePages and WillNeed are ignored.
type Mapped struct {
	*Fixed
}

// NewMapped allocates cfg.Reserve bytes up front.
func NewMapped(cfg Config) (*Mapped, error) {
	if cfg.Reserve <= 0 {
		cfg.Reserve = DefaultReserve
	}
	return &Mapped{Fixed: NewFixed(cfg.Reserve)}, nil
}

// Reserved returns the size of the backing slice.
func (m *Mapped) Reserved() int {
	return m.Cap()
}

// Close is a no-op; the backing slice is reclaimed by the garbage collector.
func (m *Mapped) Close() error {
	return nil
}

package heap

import (
	"github.com/joshuapare/mallocule/internal/buf"
	"github.com/joshuapare/mallocule/internal/format"
)

// Bytes returns the n-byte window starting at p, with capacity capped at n.
// It returns nil for Nil, a negative n, a range outside the arena, or a
// closed heap. The slice aliases arena memory: it stays valid until the block
// is freed or moved by Resize. p must be a live Ptr returned by this heap.
func (h *Heap) Bytes(p Ptr, n int) []byte {
	if p == Nil || n < 0 {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	w, ok := buf.Window(h.src.Bytes(), int(p), n)
	if !ok {
		return nil
	}
	return w
}

// Usable returns the payload size of the block behind p, which can exceed
// the size originally requested. It returns 0 for Nil and on a closed heap.
// p must be a live Ptr returned by this heap: any other value, misaligned ones
// included, reads whatever bytes sit where its header would be.
func (h *Heap) Usable(p Ptr) int {
	if p == Nil {
		return 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return 0
	}
	off := format.HeaderOf(int(p))
	if !buf.Has(h.src.Bytes(), off, format.HeaderSize) {
		return 0
	}
	return h.block(off).Size()
}

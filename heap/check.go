package heap

import (
	"fmt"

	"github.com/joshuapare/mallocule/arena"
	"github.com/joshuapare/mallocule/heap/verify"
)

// Check validates the whole block chain: links, contiguity, coverage of the
// arena, alignment and the no-adjacent-free rule. It returns a
// *verify.ValidationError describing the first violation, or an error
// wrapping arena.ErrClosed after Close.
func (h *Heap) Check() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.checkLocked()
}

func (h *Heap) checkLocked() error {
	if h.closed {
		return fmt.Errorf("heap: %w", arena.ErrClosed)
	}
	return verify.Chain(h.src.Bytes(), h.head, h.tail)
}

package heap

import "github.com/joshuapare/mallocule/internal/format"

// Free returns the block behind p to the heap and merges it with any free
// neighbours. Free(Nil) and Free on a closed heap are no-ops.
func (h *Heap) Free(p Ptr) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.freeLocked(p)
	h.debugValidate("Free")
}

func (h *Heap) freeLocked(p Ptr) {
	if p == Nil || h.closed {
		return
	}
	h.stats.FreeCalls++

	b := h.block(format.HeaderOf(int(p)))
	b.SetFree(true)
	h.coalesce(b)
}

// coalesce merges the free block b with every free predecessor and then
// every free successor. It returns the surviving block, which starts at or
// before b.
func (h *Heap) coalesce(b format.Block) format.Block {
	for prev := b.Prev(); prev != format.NoBlock; prev = b.Prev() {
		p := h.block(prev)
		if !p.Free() {
			break
		}
		p.SetSize(p.Size() + format.HeaderSize + b.Size())
		h.unlink(b.Off)
		h.stats.CoalesceBackward++
		b = p
	}
	h.mergeForward(b)
	return b
}

// mergeForward absorbs every free successor of b into b.
func (h *Heap) mergeForward(b format.Block) {
	for next := b.Next(); next != format.NoBlock; next = b.Next() {
		n := h.block(next)
		if !n.Free() {
			break
		}
		b.SetSize(b.Size() + format.HeaderSize + n.Size())
		h.unlink(next)
		h.stats.CoalesceForward++
	}
}

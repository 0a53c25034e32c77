package heap

import "github.com/joshuapare/mallocule/internal/format"

// block returns the header view at off. The arena slice is fetched on every
// call because Extend may have advanced the break since the last one.
func (h *Heap) block(off int) format.Block {
	return format.At(h.src.Bytes(), off)
}

// insertAfter splices the block at off into the chain right after prev, or at
// the head when prev is NoBlock. head and tail follow.
func (h *Heap) insertAfter(prev, off int) {
	b := h.block(off)
	if prev == format.NoBlock {
		b.SetPrev(format.NoBlock)
		b.SetNext(h.head)
		if h.head != format.NoBlock {
			h.block(h.head).SetPrev(off)
		} else {
			h.tail = off
		}
		h.head = off
		return
	}

	p := h.block(prev)
	next := p.Next()
	b.SetPrev(prev)
	b.SetNext(next)
	p.SetNext(off)
	if next != format.NoBlock {
		h.block(next).SetPrev(off)
	} else {
		h.tail = off
	}
}

// unlink removes the block at off from the chain. Its header bytes stay in
// the arena; whoever absorbs the span owns them now.
func (h *Heap) unlink(off int) {
	b := h.block(off)
	prev, next := b.Prev(), b.Next()
	if prev != format.NoBlock {
		h.block(prev).SetNext(next)
	} else {
		h.head = next
	}
	if next != format.NoBlock {
		h.block(next).SetPrev(prev)
	} else {
		h.tail = prev
	}
}

// walk visits every block from head to tail until fn returns false.
func (h *Heap) walk(fn func(b format.Block) bool) {
	for off := h.head; off != format.NoBlock; {
		b := h.block(off)
		if !fn(b) {
			return
		}
		off = b.Next()
	}
}

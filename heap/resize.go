package heap

import (
	"fmt"

	"github.com/joshuapare/mallocule/arena"
	"github.com/joshuapare/mallocule/internal/format"
)

// Resize changes the size of the block behind p, preserving its contents up
// to the smaller of the old and new sizes.
//
//   - Resize(Nil, n) behaves like Allocate(n).
//   - Resize(p, 0) behaves like Free(p) and returns Nil.
//   - Shrinking, or growing into free neighbours, keeps the data in place
//     (a grow that absorbs the predecessor moves it down to the new payload
//     start, so the returned Ptr can be lower than p).
//   - Otherwise the data moves to a fresh block. If that allocation fails the
//     error wraps ErrResizeRelocate and p remains valid and unchanged. Sizes
//     above MaxRequest fail the same way.
func (h *Heap) Resize(p Ptr, size int) (Ptr, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	np, err := h.resizeLocked(p, size)
	h.debugValidate("Resize")
	return np, err
}

func (h *Heap) resizeLocked(p Ptr, size int) (Ptr, error) {
	h.stats.ResizeCalls++
	if h.closed {
		return Nil, fmt.Errorf("heap: %w", arena.ErrClosed)
	}
	if p == Nil {
		return h.allocLocked(size)
	}
	if size == 0 {
		h.freeLocked(p)
		return Nil, nil
	}
	if size < 0 {
		return Nil, ErrInvalidSize
	}
	if size > MaxRequest {
		return Nil, fmt.Errorf("%w: %w", ErrResizeRelocate, tooLarge(size))
	}

	need := format.Align8(size)
	b := h.block(format.HeaderOf(int(p)))

	if need <= b.Size() {
		h.stats.ResizeShrink++
		h.split(b, need)
		return p, nil
	}
	if np, ok := h.growInPlace(b, need); ok {
		h.stats.ResizeInPlace++
		return np, nil
	}
	return h.relocate(b, size)
}

// growInPlace extends b over its free neighbours when together they hold at
// least need bytes. The block is marked free only so coalesce treats it like
// any other free block; it is marked used again before its data is touched.
func (h *Heap) growInPlace(b format.Block, need int) (Ptr, bool) {
	avail := b.Size()
	if prev := b.Prev(); prev != format.NoBlock {
		if pb := h.block(prev); pb.Free() {
			avail += format.HeaderSize + pb.Size()
		}
	}
	if next := b.Next(); next != format.NoBlock {
		if nb := h.block(next); nb.Free() {
			avail += format.HeaderSize + nb.Size()
		}
	}
	if avail < need {
		return Nil, false
	}

	oldPayload, oldSize := b.Payload(), b.Size()
	b.SetFree(true)
	merged := h.coalesce(b)
	merged.SetFree(false)

	if dst := merged.Payload(); dst != oldPayload {
		data := h.src.Bytes()
		// copy is memmove: the ranges overlap whenever the predecessor was
		// smaller than the live data.
		copy(data[dst:dst+oldSize], data[oldPayload:oldPayload+oldSize])
	}
	h.split(merged, need)
	return Ptr(merged.Payload()), true
}

// relocate moves b's payload into a freshly allocated block and frees b.
func (h *Heap) relocate(b format.Block, size int) (Ptr, error) {
	oldPayload, oldSize := b.Payload(), b.Size()

	np, err := h.allocLocked(size)
	if err != nil {
		return Nil, fmt.Errorf("%w: %w", ErrResizeRelocate, err)
	}
	h.stats.ResizeRelocated++

	data := h.src.Bytes()
	dst := int(np)
	copy(data[dst:dst+oldSize], data[oldPayload:oldPayload+oldSize])
	h.freeLocked(Ptr(oldPayload))

	h.log.Debug("resize relocated", "from", oldPayload, "to", dst, "size", format.Align8(size))
	return np, nil
}

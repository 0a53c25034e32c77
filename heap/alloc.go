package heap

import (
	"fmt"
	"math"

	"github.com/joshuapare/mallocule/arena"
	"github.com/joshuapare/mallocule/internal/buf"
	"github.com/joshuapare/mallocule/internal/format"
)

// MaxRequest is the largest size Allocate and Resize accept. Anything bigger
// cannot be rounded up and given a header without overflowing int.
const MaxRequest = math.MaxInt - format.HeaderSize - format.AlignmentMask

// Allocate returns a block with room for at least size bytes. The returned
// Ptr is 8-byte aligned within the arena.
func (h *Heap) Allocate(size int) (Ptr, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	p, err := h.allocLocked(size)
	h.debugValidate("Allocate")
	return p, err
}

func (h *Heap) allocLocked(size int) (Ptr, error) {
	h.stats.AllocCalls++
	if h.closed {
		return Nil, fmt.Errorf("heap: %w", arena.ErrClosed)
	}
	if size <= 0 {
		return Nil, ErrInvalidSize
	}
	if size > MaxRequest {
		return Nil, tooLarge(size)
	}
	need := format.Align8(size)

	if b, ok := h.firstFit(need); ok {
		b.SetFree(false)
		h.split(b, need)
		return Ptr(b.Payload()), nil
	}

	b, err := h.grow(need)
	if err != nil {
		return Nil, err
	}
	return Ptr(b.Payload()), nil
}

// firstFit returns the lowest-addressed free block of at least need bytes.
func (h *Heap) firstFit(need int) (format.Block, bool) {
	var found format.Block
	ok := false
	h.walk(func(b format.Block) bool {
		if b.Free() && b.Size() >= need {
			found, ok = b, true
			return false
		}
		return true
	})
	return found, ok
}

// grow extends the arena by one header plus need bytes and appends a used
// block there. On failure the chain is untouched.
func (h *Heap) grow(need int) (format.Block, error) {
	total, ok := buf.AddOverflowSafe(format.HeaderSize, need)
	if !ok {
		return format.Block{}, tooLarge(need)
	}
	off, err := h.src.Extend(total)
	if err != nil {
		h.log.Warn("arena exhausted", "bytes", total, "arena", h.src.Len(), "err", err)
		return format.Block{}, fmt.Errorf("%w: %w", ErrArenaExhausted, err)
	}
	h.stats.GrowCalls++
	h.stats.GrowBytes += int64(total)
	h.log.Debug("arena grow", "bytes", total, "off", off, "arena", h.src.Len())

	b := h.block(off)
	b.Init(need, false, format.NoBlock, format.NoBlock)
	h.insertAfter(h.tail, off)
	return b, nil
}

// split shrinks b to size and turns the rest into a free block right after
// it, provided the rest can hold a header and one aligned quantum. Smaller
// leftovers stay with b. The new block is merged with a free successor, which
// can only exist when b was a used block being shrunk.
func (h *Heap) split(b format.Block, size int) {
	leftover := b.Size() - size
	if leftover < format.MinBlockSize {
		return
	}
	h.stats.Splits++

	remOff := b.Payload() + size
	rem := h.block(remOff)
	rem.Init(leftover-format.HeaderSize, true, format.NoBlock, format.NoBlock)
	b.SetSize(size)
	h.insertAfter(b.Off, remOff)
	h.mergeForward(rem)
}

func tooLarge(size int) error {
	return fmt.Errorf("%w: request of %d bytes exceeds MaxRequest", ErrArenaExhausted, size)
}

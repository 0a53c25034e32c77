package heap

import "github.com/joshuapare/mallocule/internal/format"

// Stats is a point-in-time view of the heap. Call counters include calls made
// internally (a relocating Resize counts one Allocate and one Free).
type Stats struct {
	AllocCalls  int // Allocate calls, including Resize(Nil, n) and relocations
	FreeCalls   int // Free calls on non-Nil pointers, including internal ones
	ResizeCalls int // Resize calls

	GrowCalls int   // Arena extensions
	GrowBytes int64 // Bytes obtained from the arena

	Splits           int // Blocks split in two
	CoalesceBackward int // Merges into a free predecessor
	CoalesceForward  int // Merges of a free successor

	ResizeShrink    int // Resizes served by shrinking in place
	ResizeInPlace   int // Grows served by absorbing free neighbours
	ResizeRelocated int // Grows that moved the data

	// Chain gauges, computed on demand.
	Blocks      int   // Blocks in the chain
	FreeBlocks  int   // Blocks marked free
	UsedBytes   int64 // Payload bytes in used blocks
	FreeBytes   int64 // Payload bytes in free blocks
	LargestFree int   // Largest free payload
	ArenaBytes  int64 // Bytes extended from the arena
}

// Stats returns the current counters and walks the chain for the gauges.
func (h *Heap) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()

	s := h.stats
	h.walk(func(b format.Block) bool {
		s.Blocks++
		size := b.Size()
		if b.Free() {
			s.FreeBlocks++
			s.FreeBytes += int64(size)
			s.LargestFree = max(s.LargestFree, size)
		} else {
			s.UsedBytes += int64(size)
		}
		return true
	})
	s.ArenaBytes = int64(h.src.Len())
	return s
}

// Overhead returns the bytes spent on headers.
func (s Stats) Overhead() int64 {
	return int64(s.Blocks) * format.HeaderSize
}

// AllFree reports whether every block in the chain is free.
func (s Stats) AllFree() bool {
	return s.FreeBlocks == s.Blocks
}

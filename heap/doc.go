// Package heap implements a general-purpose first-fit allocator over an
// arena.Source.
//
// # Overview
//
// Every block in the arena carries a 32-byte header followed by its payload.
// Headers form a doubly-linked list in address order that covers the arena
// with no gaps: the byte after one block's payload is the next block's
// header. Callers get a Ptr, the arena offset of a payload, and reach the
// memory through Bytes.
//
//	h, err := heap.New(heap.Options{})
//	if err != nil {
//	    return err
//	}
//	defer h.Close()
//
//	p, err := h.Allocate(100)
//	if err != nil {
//	    return err
//	}
//	copy(h.Bytes(p, 100), payload)
//
//	p, err = h.Resize(p, 400)
//	...
//	h.Free(p)
//
// # Placement
//
// Allocate rounds the request up to 8 bytes and takes the first free block
// large enough, scanning from the lowest address. A block larger than needed
// is split when the leftover can hold a header plus one aligned quantum; the
// remainder becomes a new free block. When nothing fits, the arena is
// extended by exactly one header plus the aligned request.
//
// # Coalescing
//
// Free merges the block with every free predecessor, then every free
// successor, so two free blocks are never adjacent once an operation returns.
//
// # Resize
//
// Resize shrinks in place by splitting, grows in place by absorbing free
// neighbours (moving the live bytes down when a predecessor is absorbed), and
// otherwise relocates: allocate, copy, free. A failed relocation leaves the
// original block intact.
//
// # Thread Safety
//
// One mutex guards the whole heap. Every exported method holds it for its
// full duration, including arena growth. Internal paths (resize calling free,
// for example) run on the already-locked state.
//
// # Contract
//
// Freeing a pointer twice, freeing a pointer the heap never returned, or
// touching a block after freeing it is undefined. Nothing detects it.
//
// # Debug Builds
//
// Building with -tags moldebug enables DumpHeap and re-validates the entire
// chain after every mutating call, panicking on the first violation.
package heap

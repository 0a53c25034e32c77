// Package verify provides validation functions for allocator block chains.
// These helpers back heap.Check and the debug-build self checks, and are used
// in tests to ensure chain invariants are maintained.
//
// Checks performed by Chain:
//   - Links: head has no predecessor, every next block points back, the last
//     block is the recorded tail
//   - Contiguity: each block's header starts where the previous payload ends
//   - Coverage: the chain starts at offset 0 and ends at the end of the arena
//   - Alignment: header offsets and payload sizes are multiples of 8
//   - Adjacency: no two consecutive blocks are both free
package verify

import (
	"fmt"

	"github.com/joshuapare/mallocule/internal/format"
)

// ValidationError describes the first invariant violation found.
type ValidationError struct {
	Type    string
	Message string
	Offset  int
	Details map[string]interface{}
}

func (e *ValidationError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("%s at offset 0x%X: %s", e.Type, e.Offset, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Chain validates the block chain stored in data, given the head and tail
// header offsets (format.NoBlock for an empty chain).
func Chain(data []byte, head, tail int) error {
	_, err := Blocks(data, head, tail)
	return err
}

// Blocks walks and validates the chain, returning every decoded header in
// address order.
func Blocks(data []byte, head, tail int) ([]format.Header, error) {
	if head == format.NoBlock || tail == format.NoBlock {
		if head != tail {
			return nil, &ValidationError{
				Type:    "Links",
				Message: fmt.Sprintf("head %d and tail %d disagree on emptiness", head, tail),
				Offset:  -1,
			}
		}
		if len(data) != 0 {
			return nil, &ValidationError{
				Type:    "Coverage",
				Message: fmt.Sprintf("empty chain but arena holds %d bytes", len(data)),
				Offset:  -1,
			}
		}
		return nil, nil
	}
	if head != 0 {
		return nil, &ValidationError{
			Type:    "Coverage",
			Message: fmt.Sprintf("head at %d, expected arena start", head),
			Offset:  head,
		}
	}

	// The contiguity check forces every next link strictly forward, so the
	// walk terminates even on a corrupted chain.
	blocks := make([]format.Header, 0, 16)
	prev := format.NoBlock
	prevFree := false

	for off := head; off != format.NoBlock; {
		hdr, err := format.DecodeHeader(data, off)
		if err != nil {
			return blocks, &ValidationError{
				Type:    "Block",
				Message: err.Error(),
				Offset:  off,
			}
		}
		if hdr.Prev != prev {
			return blocks, &ValidationError{
				Type:    "Links",
				Message: fmt.Sprintf("prev link %d, expected %d", hdr.Prev, prev),
				Offset:  off,
			}
		}
		if !format.IsAligned(hdr.Size) {
			return blocks, &ValidationError{
				Type:    "Alignment",
				Message: fmt.Sprintf("payload size %d not 8-byte aligned", hdr.Size),
				Offset:  off,
			}
		}
		if prevFree && hdr.Free {
			return blocks, &ValidationError{
				Type:    "Adjacency",
				Message: "free block follows a free block",
				Offset:  off,
				Details: map[string]interface{}{"prev": prev},
			}
		}

		end := off + format.HeaderSize + hdr.Size
		if hdr.Next == format.NoBlock {
			if off != tail {
				return blocks, &ValidationError{
					Type:    "Links",
					Message: fmt.Sprintf("last block is not the recorded tail %d", tail),
					Offset:  off,
				}
			}
			if end != len(data) {
				return blocks, &ValidationError{
					Type:    "Coverage",
					Message: fmt.Sprintf("chain ends at %d but arena holds %d bytes", end, len(data)),
					Offset:  off,
				}
			}
		} else if hdr.Next != end {
			return blocks, &ValidationError{
				Type:    "Contiguity",
				Message: fmt.Sprintf("next block at %d, expected %d", hdr.Next, end),
				Offset:  off,
				Details: map[string]interface{}{"size": hdr.Size},
			}
		}

		blocks = append(blocks, hdr)
		prev, prevFree = off, hdr.Free
		off = hdr.Next
	}
	return blocks, nil
}

package format

import "fmt"

// Block is a typed view of the header stored at Off inside an arena slice.
// It holds no state of its own: every accessor reads or writes the arena, so
// copies of a Block observe each other's updates.
type Block struct {
	buf []byte
	Off int
}

// At returns the header view at off. The caller guarantees that
// b[off:off+HeaderSize] is inside the arena.
func At(b []byte, off int) Block {
	return Block{buf: b, Off: off}
}

// HeaderOf returns the header offset for a payload offset.
func HeaderOf(payload int) int {
	return payload - HeaderSize
}

// Init writes a complete header in one go.
func (h Block) Init(size int, free bool, prev, next int) {
	h.SetSize(size)
	h.SetFree(free)
	PutU32(h.buf, h.Off+BlockReservedOffset, 0)
	h.SetPrev(prev)
	h.SetNext(next)
}

func (h Block) Size() int {
	return int(ReadU64(h.buf, h.Off+BlockSizeOffset))
}

func (h Block) SetSize(n int) {
	PutU64(h.buf, h.Off+BlockSizeOffset, uint64(n))
}

func (h Block) Free() bool {
	return ReadU32(h.buf, h.Off+BlockFlagsOffset)&FlagFree != 0
}

func (h Block) SetFree(free bool) {
	flags := ReadU32(h.buf, h.Off+BlockFlagsOffset)
	if free {
		flags |= FlagFree
	} else {
		flags &^= FlagFree
	}
	PutU32(h.buf, h.Off+BlockFlagsOffset, flags)
}

// Next returns the header offset of the following block, or NoBlock.
func (h Block) Next() int {
	return readLink(h.buf, h.Off+BlockNextOffset)
}

func (h Block) SetNext(off int) {
	putLink(h.buf, h.Off+BlockNextOffset, off)
}

// Prev returns the header offset of the preceding block, or NoBlock.
func (h Block) Prev() int {
	return readLink(h.buf, h.Off+BlockPrevOffset)
}

func (h Block) SetPrev(off int) {
	putLink(h.buf, h.Off+BlockPrevOffset, off)
}

// Payload returns the offset of the first payload byte.
func (h Block) Payload() int {
	return h.Off + HeaderSize
}

// End returns the offset one past the last payload byte, which is where the
// next block's header must start.
func (h Block) End() int {
	return h.Payload() + h.Size()
}

// Header is a decoded copy of a block header.
type Header struct {
	Off  int
	Size int
	Free bool
	Next int
	Prev int
}

// DecodeHeader validates and decodes the header at off. Unlike At, it checks
// that both the header and the payload it declares fit inside b.
func DecodeHeader(b []byte, off int) (Header, error) {
	if off < 0 || off+HeaderSize > len(b) {
		return Header{}, fmt.Errorf("block at %d: %w", off, ErrTruncated)
	}
	if !IsAligned(off) {
		return Header{}, fmt.Errorf("block at %d: %w", off, ErrMisaligned)
	}
	raw := ReadU64(b, off+BlockSizeOffset)
	if raw > uint64(len(b)) {
		return Header{}, fmt.Errorf("block at %d: declared size %d: %w", off, raw, ErrTruncated)
	}
	h := At(b, off)
	if h.End() > len(b) {
		return Header{}, fmt.Errorf("block at %d: payload ends at %d: %w", off, h.End(), ErrTruncated)
	}
	return Header{
		Off:  off,
		Size: h.Size(),
		Free: h.Free(),
		Next: h.Next(),
		Prev: h.Prev(),
	}, nil
}

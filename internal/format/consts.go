// Package format houses the low-level layout of allocator block headers. The
// arena is a flat byte slice; every structure in it is addressed by offset and
// decoded through the helpers here so higher-level packages never reinterpret
// memory as Go structs.
package format

const (
	// Alignment is the quantum every payload size is rounded up to.
	Alignment = 8

	// AlignmentMask is the bitmask used for aligning to 8-byte boundaries (Alignment - 1).
	AlignmentMask = Alignment - 1

	// PageSize is the commit granularity assumed when the OS does not report one.
	PageSize = 0x1000

	// PageAlignmentMask is the bitmask used for aligning to 4KB boundaries (PageSize - 1).
	PageAlignmentMask = PageSize - 1

	// Block header field offsets.
	//
	// Layout (little-endian):
	//
	//	Offset  Size  Description
	//	0x00    8     Payload size in bytes (multiple of Alignment).
	//	0x08    4     Flags. Bit 0 set => block is free.
	//	0x0C    4     Reserved, always zero.
	//	0x10    8     Header offset of the next block (NoBlock at the tail).
	//	0x18    8     Header offset of the previous block (NoBlock at the head).
	//	0x20    ...   Payload.
	BlockSizeOffset     = 0x00
	BlockFlagsOffset    = 0x08
	BlockReservedOffset = 0x0C
	BlockNextOffset     = 0x10
	BlockPrevOffset     = 0x18

	// headerFieldsSize is the number of bytes covered by the header fields.
	headerFieldsSize = 0x20

	// HeaderSize is the aligned size of a block header. The payload of a block
	// always starts HeaderSize bytes after its header.
	HeaderSize = (headerFieldsSize + AlignmentMask) & ^AlignmentMask

	// MinBlockSize is the smallest span worth carving into a new block: one
	// header plus one aligned quantum of payload.
	MinBlockSize = HeaderSize + Alignment

	// FlagFree marks a block as available for reuse.
	FlagFree uint32 = 1 << 0
)

// NoBlock is the link value meaning "no neighbour". Offset 0 is a valid header
// offset (the first block ever carved), so the sentinel is all-ones instead.
const NoBlock = -1

// noBlockRaw is NoBlock as stored in the arena.
const noBlockRaw = ^uint64(0)

package format

// Align8 returns n aligned up to the next 8-byte boundary.
// Used for every payload size handed to the allocator.
//
// Example:
//
//	Align8(1)  = 8
//	Align8(8)  = 8
//	Align8(9)  = 16
//	Align8(16) = 16
func Align8(n int) int {
	return (n + AlignmentMask) & ^AlignmentMask
}

// AlignPage returns n aligned up to the next multiple of pageSize, which must
// be a power of two. A pageSize of zero falls back to PageSize.
//
// Example:
//
//	AlignPage(1, 4096)    = 4096
//	AlignPage(4096, 4096) = 4096
//	AlignPage(4097, 4096) = 8192
func AlignPage(n, pageSize int) int {
	if pageSize <= 0 {
		pageSize = PageSize
	}
	mask := pageSize - 1
	return (n + mask) & ^mask
}

// IsAligned reports whether n sits on the allocator's alignment quantum.
func IsAligned(n int) bool {
	return n&AlignmentMask == 0
}

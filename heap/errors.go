package heap

import "errors"

var (
	// ErrInvalidSize indicates a zero or negative allocation request.
	ErrInvalidSize = errors.New("heap: invalid size")

	// ErrArenaExhausted indicates no free block fits and the arena could not grow.
	ErrArenaExhausted = errors.New("heap: arena exhausted")

	// ErrResizeRelocate indicates a resize needed a fresh block and could not
	// get one. The original block and its data are untouched.
	ErrResizeRelocate = errors.New("heap: resize relocation failed")

	// ErrSourceInUse indicates New was handed a source that already has
	// memory extended; the chain must cover the arena from offset 0.
	ErrSourceInUse = errors.New("heap: arena source already in use")
)

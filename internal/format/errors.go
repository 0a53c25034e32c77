package format

import "errors"

var (
	// ErrTruncated indicates the buffer lacked the bytes required for a structure.
	ErrTruncated = errors.New("format: truncated buffer")
	// ErrMisaligned indicates an offset or size off the alignment quantum.
	ErrMisaligned = errors.New("format: misaligned")
)

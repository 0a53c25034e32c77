package arena

import "github.com/joshuapare/mallocule/internal/buf"

// Fixed is a Source backed by one pre-sized byte slice. The backing array is
// allocated once and never reallocated, so payload slices handed out earlier
// remain valid as the break advances.
type Fixed struct {
	data []byte
	brk  int
}

// NewFixed creates a Fixed source able to hand out up to reserve bytes.
// A non-positive reserve selects DefaultFixedReserve.
func NewFixed(reserve int) *Fixed {
	if reserve <= 0 {
		reserve = DefaultFixedReserve
	}
	return &Fixed{data: make([]byte, reserve)}
}

func (f *Fixed) Extend(n int) (int, error) {
	if n <= 0 {
		return 0, invalidExtend(n)
	}
	newBrk, ok := buf.AddOverflowSafe(f.brk, n)
	if !ok || newBrk > len(f.data) {
		return 0, exhausted(n, f.brk, len(f.data))
	}
	off := f.brk
	f.brk = newBrk
	return off, nil
}

func (f *Fixed) Bytes() []byte {
	return f.data[:f.brk:f.brk]
}

func (f *Fixed) Len() int {
	return f.brk
}

// Cap returns the total number of bytes the source can ever hand out.
func (f *Fixed) Cap() int {
	return len(f.data)
}

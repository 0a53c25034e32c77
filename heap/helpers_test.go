package heap

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/mallocule/arena"
	"github.com/joshuapare/mallocule/heap/verify"
	"github.com/joshuapare/mallocule/internal/format"
)

// newTestHeap returns a heap over a Fixed arena of the given capacity.
func newTestHeap(t testing.TB, reserve int) *Heap {
	t.Helper()
	h, err := New(Options{Source: arena.NewFixed(reserve)})
	require.NoError(t, err)
	return h
}

func mustAlloc(t testing.TB, h *Heap, size int) Ptr {
	t.Helper()
	p, err := h.Allocate(size)
	require.NoError(t, err)
	require.NotEqual(t, Nil, p)
	return p
}

// fill writes a recognizable pattern derived from seed into the first n
// payload bytes of p.
func fill(t testing.TB, h *Heap, p Ptr, n int, seed byte) {
	t.Helper()
	b := h.Bytes(p, n)
	require.Len(t, b, n)
	for i := range b {
		b[i] = seed + byte(i)
	}
}

func requirePattern(t testing.TB, h *Heap, p Ptr, n int, seed byte) {
	t.Helper()
	b := h.Bytes(p, n)
	require.Len(t, b, n)
	for i := range b {
		require.Equal(t, seed+byte(i), b[i], "byte %d of block 0x%x", i, p)
	}
}

// chain returns the decoded block list, failing the test on any invariant
// violation.
func chain(t testing.TB, h *Heap) []format.Header {
	t.Helper()
	h.mu.Lock()
	defer h.mu.Unlock()
	blocks, err := verify.Blocks(h.src.Bytes(), h.head, h.tail)
	require.NoError(t, err)
	return blocks
}

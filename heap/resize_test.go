package heap

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/mallocule/internal/format"
)

func TestResize_NilAllocates(t *testing.T) {
	h := newTestHeap(t, 1024)

	p, err := h.Resize(Nil, 40)
	require.NoError(t, err)
	require.NotEqual(t, Nil, p)
	require.Equal(t, 40, h.Usable(p))

	s := h.Stats()
	assert.Equal(t, 1, s.ResizeCalls)
	assert.Equal(t, 1, s.AllocCalls)
}

func TestResize_NilZero(t *testing.T) {
	h := newTestHeap(t, 1024)

	p, err := h.Resize(Nil, 0)
	require.ErrorIs(t, err, ErrInvalidSize)
	require.Equal(t, Nil, p)
	require.Zero(t, h.Stats().ArenaBytes)
}

func TestResize_ZeroFrees(t *testing.T) {
	h := newTestHeap(t, 1024)
	a := mustAlloc(t, h, 64)
	mustAlloc(t, h, 8)

	p, err := h.Resize(a, 0)
	require.NoError(t, err)
	require.Equal(t, Nil, p)

	s := h.Stats()
	require.Equal(t, 1, s.FreeCalls)
	require.Equal(t, 1, s.FreeBlocks)
}

func TestResize_NegativeSize(t *testing.T) {
	h := newTestHeap(t, 1024)
	a := mustAlloc(t, h, 64)

	p, err := h.Resize(a, -8)
	require.ErrorIs(t, err, ErrInvalidSize)
	require.Equal(t, Nil, p)
	require.Equal(t, 64, h.Usable(a), "block untouched")
}

// TestResize_ShrinkSplits tests that shrinking keeps the block in place and
// returns the tail to the heap.
func TestResize_ShrinkSplits(t *testing.T) {
	h := newTestHeap(t, 1<<20)
	a := mustAlloc(t, h, 256)
	mustAlloc(t, h, 8)
	fill(t, h, a, 256, 11)

	p, err := h.Resize(a, 64)
	require.NoError(t, err)
	require.Equal(t, a, p)
	require.Equal(t, 64, h.Usable(p))
	requirePattern(t, h, p, 64, 11)

	blocks := chain(t, h)
	require.Len(t, blocks, 3)
	require.True(t, blocks[1].Free)
	require.Equal(t, 256-64-format.HeaderSize, blocks[1].Size)
	require.Equal(t, 1, h.Stats().ResizeShrink)
}

// TestResize_ShrinkMergesFreeSuccessor tests that the split-off tail joins a
// free block right after it.
func TestResize_ShrinkMergesFreeSuccessor(t *testing.T) {
	h := newTestHeap(t, 1<<20)
	a := mustAlloc(t, h, 128)
	b := mustAlloc(t, h, 64)
	mustAlloc(t, h, 8)
	h.Free(b)

	p, err := h.Resize(a, 32)
	require.NoError(t, err)
	require.Equal(t, a, p)

	blocks := chain(t, h)
	require.Len(t, blocks, 3)
	require.True(t, blocks[1].Free)
	require.Equal(t, (128-32-format.HeaderSize)+format.HeaderSize+64, blocks[1].Size)
	require.Equal(t, 1, h.Stats().CoalesceForward)
}

// TestResize_ShrinkTooSmallToSplit tests that a leftover below the minimum
// block stays with the block.
func TestResize_ShrinkTooSmallToSplit(t *testing.T) {
	h := newTestHeap(t, 1<<20)
	a := mustAlloc(t, h, 64)

	p, err := h.Resize(a, 40)
	require.NoError(t, err)
	require.Equal(t, a, p)
	require.Equal(t, 64, h.Usable(p))
	require.Equal(t, 1, h.Stats().Blocks)
}

// TestResize_GrowIntoSuccessor tests an in-place grow that absorbs the free
// block after it.
func TestResize_GrowIntoSuccessor(t *testing.T) {
	h := newTestHeap(t, 1<<20)
	a := mustAlloc(t, h, 64)
	b := mustAlloc(t, h, 128)
	mustAlloc(t, h, 8)
	h.Free(b)
	fill(t, h, a, 64, 5)
	grows := h.Stats().GrowCalls

	p, err := h.Resize(a, 160)
	require.NoError(t, err)
	require.Equal(t, a, p)
	require.Equal(t, 160, h.Usable(p))
	requirePattern(t, h, p, 64, 5)

	s := h.Stats()
	require.Equal(t, 1, s.ResizeInPlace)
	require.Equal(t, grows, s.GrowCalls)

	blocks := chain(t, h)
	require.Len(t, blocks, 3)
	require.True(t, blocks[1].Free)
	require.Equal(t, 64+format.HeaderSize+128-160-format.HeaderSize, blocks[1].Size)
}

// TestResize_GrowIntoPredecessor tests an in-place grow that absorbs the
// free block before it, moving overlapping data down.
func TestResize_GrowIntoPredecessor(t *testing.T) {
	h := newTestHeap(t, 1<<20)
	a := mustAlloc(t, h, 8)
	b := mustAlloc(t, h, 64)
	mustAlloc(t, h, 8)
	h.Free(a)
	fill(t, h, b, 64, 9)

	// 8 + 32 + 64 = 104 bytes: the 64 live bytes move down by 40.
	p, err := h.Resize(b, 72)
	require.NoError(t, err)
	require.Equal(t, a, p)
	require.Less(t, p, b)
	requirePattern(t, h, p, 64, 9)
	require.Equal(t, 104, h.Usable(p), "32-byte leftover stays with the block")
	require.Equal(t, 1, h.Stats().ResizeInPlace)
	require.Equal(t, 2, h.Stats().Blocks)
}

// TestResize_Relocate tests a grow with no free neighbours.
func TestResize_Relocate(t *testing.T) {
	h := newTestHeap(t, 1<<20)
	a := mustAlloc(t, h, 64)
	mustAlloc(t, h, 8)
	fill(t, h, a, 64, 21)

	p, err := h.Resize(a, 256)
	require.NoError(t, err)
	require.NotEqual(t, a, p)
	require.Equal(t, 256, h.Usable(p))
	requirePattern(t, h, p, 64, 21)

	s := h.Stats()
	require.Equal(t, 1, s.ResizeRelocated)
	require.Equal(t, 1, s.FreeBlocks)
	require.NoError(t, h.Check())
}

// TestResize_RelocateFailureKeepsBlock tests that a failed relocation leaves
// the original block valid and intact.
func TestResize_RelocateFailureKeepsBlock(t *testing.T) {
	h := newTestHeap(t, 256)
	a := mustAlloc(t, h, 64)
	mustAlloc(t, h, 8)
	fill(t, h, a, 64, 33)

	p, err := h.Resize(a, 200)
	require.Error(t, err)
	require.Equal(t, Nil, p)
	require.True(t, errors.Is(err, ErrResizeRelocate))
	require.True(t, errors.Is(err, ErrArenaExhausted))

	require.Equal(t, 64, h.Usable(a))
	requirePattern(t, h, a, 64, 33)
	require.Equal(t, 2, h.Stats().Blocks)
	require.Zero(t, h.Stats().FreeBlocks)
	require.NoError(t, h.Check())
}

// TestResize_RoundTrip resizes live blocks at random and checks that the
// common prefix always survives.
func TestResize_RoundTrip(t *testing.T) {
	h := newTestHeap(t, 1<<22)
	rng := rand.New(rand.NewPCG(7, 11))

	type live struct {
		p    Ptr
		n    int
		seed byte
	}
	slots := make([]live, 16)
	for i := range slots {
		n := 1 + rng.IntN(200)
		slots[i] = live{p: mustAlloc(t, h, n), n: n, seed: byte(i * 13)}
		fill(t, h, slots[i].p, n, slots[i].seed)
	}

	for iter := 0; iter < 500; iter++ {
		s := &slots[rng.IntN(len(slots))]
		n := 1 + rng.IntN(600)

		p, err := h.Resize(s.p, n)
		require.NoError(t, err)
		requirePattern(t, h, p, min(s.n, n), s.seed)

		s.p, s.n = p, n
		fill(t, h, s.p, n, s.seed)
	}
	require.NoError(t, h.Check())

	for _, s := range slots {
		requirePattern(t, h, s.p, s.n, s.seed)
		h.Free(s.p)
	}
	st := h.Stats()
	require.Equal(t, 1, st.Blocks)
	require.True(t, st.AllFree())
}

func TestResize_OversizedRequest(t *testing.T) {
	for _, withFree := range []bool{false, true} {
		h := newTestHeap(t, 1024)
		p := mustAlloc(t, h, 16)
		fill(t, h, p, 16, 0x5A)
		if withFree {
			next := mustAlloc(t, h, 64)
			mustAlloc(t, h, 8)
			h.Free(next)
		}

		for _, size := range []int{math.MaxInt, math.MaxInt - 3, math.MaxInt - format.HeaderSize, MaxRequest + 1} {
			np, err := h.Resize(p, size)
			require.Equal(t, Nil, np, "size %d", size)
			require.ErrorIs(t, err, ErrResizeRelocate, "size %d", size)
			require.ErrorIs(t, err, ErrArenaExhausted, "size %d", size)
		}

		assert.Equal(t, 16, h.Usable(p))
		requirePattern(t, h, p, 16, 0x5A)
		require.NoError(t, h.Check())
	}
}

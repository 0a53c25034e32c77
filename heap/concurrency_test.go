package heap

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

type slot struct {
	p    Ptr
	n    int
	seed byte
}

func verifySlot(h *Heap, s slot) error {
	b := h.Bytes(s.p, s.n)
	if len(b) != s.n {
		return fmt.Errorf("block 0x%x: window of %d bytes, want %d", s.p, len(b), s.n)
	}
	for i := range b {
		if b[i] != s.seed+byte(i) {
			return fmt.Errorf("block 0x%x: byte %d = %#x, want %#x", s.p, i, b[i], s.seed+byte(i))
		}
	}
	return nil
}

func fillSlot(h *Heap, s slot) {
	b := h.Bytes(s.p, s.n)
	for i := range b {
		b[i] = s.seed + byte(i)
	}
}

// TestConcurrentStress runs workers that allocate, resize and free tagged
// blocks against one heap. Every block is checked for foreign writes before
// it is released.
func TestConcurrentStress(t *testing.T) {
	workers, iterations := 8, 4000
	if testing.Short() {
		iterations = 300
	}
	const slotsPerWorker = 16
	const maxSize = 512

	h := newTestHeap(t, 64<<20)

	var g errgroup.Group
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			rng := rand.New(rand.NewPCG(uint64(w), 99))
			slots := make([]slot, slotsPerWorker)

			for it := 0; it < iterations; it++ {
				s := &slots[rng.IntN(len(slots))]
				seed := byte(w*31 + it)

				switch {
				case s.p == Nil:
					n := 1 + rng.IntN(maxSize)
					p, err := h.Allocate(n)
					if err != nil {
						return fmt.Errorf("worker %d: allocate %d: %w", w, n, err)
					}
					*s = slot{p: p, n: n, seed: seed}
					fillSlot(h, *s)

				case rng.IntN(3) == 0:
					if err := verifySlot(h, *s); err != nil {
						return fmt.Errorf("worker %d before resize: %w", w, err)
					}
					n := 1 + rng.IntN(maxSize)
					p, err := h.Resize(s.p, n)
					if err != nil {
						return fmt.Errorf("worker %d: resize to %d: %w", w, n, err)
					}
					kept := slot{p: p, n: min(s.n, n), seed: s.seed}
					if err := verifySlot(h, kept); err != nil {
						return fmt.Errorf("worker %d after resize: %w", w, err)
					}
					*s = slot{p: p, n: n, seed: seed}
					fillSlot(h, *s)

				default:
					if err := verifySlot(h, *s); err != nil {
						return fmt.Errorf("worker %d before free: %w", w, err)
					}
					h.Free(s.p)
					*s = slot{}
				}
			}

			for _, s := range slots {
				if s.p == Nil {
					continue
				}
				if err := verifySlot(h, s); err != nil {
					return fmt.Errorf("worker %d at drain: %w", w, err)
				}
				h.Free(s.p)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	require.NoError(t, h.Check())
	st := h.Stats()
	require.True(t, st.AllFree(), "%d of %d blocks still used", st.Blocks-st.FreeBlocks, st.Blocks)
	require.Equal(t, 1, st.Blocks)
}

// TestConcurrentAllocDistinct has workers hold every block they allocate so
// no two goroutines can ever be handed overlapping memory.
func TestConcurrentAllocDistinct(t *testing.T) {
	const workers, perWorker = 8, 200
	h := newTestHeap(t, 16<<20)

	results := make([][]Ptr, workers)
	var g errgroup.Group
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for i := 0; i < perWorker; i++ {
				p, err := h.Allocate(8 + (i%8)*8)
				if err != nil {
					return err
				}
				results[w] = append(results[w], p)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	seen := make(map[Ptr]bool, workers*perWorker)
	for _, ptrs := range results {
		for _, p := range ptrs {
			require.False(t, seen[p], "pointer 0x%x handed out twice", p)
			seen[p] = true
		}
	}
	require.Len(t, chain(t, h), workers*perWorker)
}

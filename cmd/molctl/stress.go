package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/joshuapare/mallocule/arena"
	"github.com/joshuapare/mallocule/cmd/molctl/logger"
	"github.com/joshuapare/mallocule/heap"
)

var (
	stressThreads    int
	stressIterations int
	stressMaxSize    int
	stressSlots      int
	stressReserve    int
	stressSeed       uint64
	stressFixed      bool
	stressDump       bool
)

func init() {
	cmd := newStressCmd()
	cmd.Flags().IntVarP(&stressThreads, "threads", "t", 0, "Worker goroutines (env MOLCTL_THREADS)")
	cmd.Flags().IntVarP(&stressIterations, "iterations", "n", 0, "Operations per worker (env MOLCTL_ITERATIONS)")
	cmd.Flags().IntVar(&stressMaxSize, "max-size", 0, "Largest request in bytes (env MOLCTL_MAX_SIZE)")
	cmd.Flags().IntVar(&stressSlots, "slots", 0, "Live blocks each worker juggles (env MOLCTL_SLOTS)")
	cmd.Flags().IntVar(&stressReserve, "reserve", 0, "Arena reservation in bytes (env MOLCTL_RESERVE)")
	cmd.Flags().Uint64Var(&stressSeed, "seed", 0, "Random seed (0 picks one from the clock)")
	cmd.Flags().BoolVar(&stressFixed, "fixed", false, "Back the heap with a Fixed arena instead of mmap")
	cmd.Flags().BoolVar(&stressDump, "dump", false, "Print the final heap (moldebug builds only)")
	rootCmd.AddCommand(cmd)
}

func newStressCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stress",
		Short: "Run the concurrent allocate/resize/free workload",
		Long: `The stress command starts several workers that share one heap. Each
worker owns a set of slots and repeatedly allocates, resizes or frees them at
random, stamping every byte of a block with its worker tag and checking the tag
before and after each operation. When all workers finish, every block must be
free and the chain must pass validation.

Example:
  molctl stress
  molctl stress --threads 16 --iterations 100000
  MOLCTL_MAX_SIZE=4096 molctl stress --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := stressOptionsFrom(cmd, cfg)
			return runStress(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}
	return cmd
}

type stressOptions struct {
	Threads    int
	Iterations int
	MaxSize    int
	Slots      int
	Reserve    int
	Seed       uint64
	Fixed      bool
	Dump       bool
}

// stressOptionsFrom starts from the environment configuration and applies
// every flag the user set explicitly.
func stressOptionsFrom(cmd *cobra.Command, c Config) stressOptions {
	opts := stressOptions{
		Threads:    c.Threads,
		Iterations: c.Iterations,
		MaxSize:    c.MaxSize,
		Slots:      c.Slots,
		Reserve:    c.Reserve,
		Seed:       stressSeed,
		Fixed:      stressFixed,
		Dump:       stressDump,
	}
	flags := cmd.Flags()
	if flags.Changed("threads") {
		opts.Threads = stressThreads
	}
	if flags.Changed("iterations") {
		opts.Iterations = stressIterations
	}
	if flags.Changed("max-size") {
		opts.MaxSize = stressMaxSize
	}
	if flags.Changed("slots") {
		opts.Slots = stressSlots
	}
	if flags.Changed("reserve") {
		opts.Reserve = stressReserve
	}
	return opts
}

// StressReport is the outcome of a stress run.
type StressReport struct {
	Threads    int           `json:"threads"`
	Iterations int           `json:"iterations"`
	MaxSize    int           `json:"max_size"`
	Slots      int           `json:"slots"`
	Seed       uint64        `json:"seed"`
	Elapsed    time.Duration `json:"elapsed_ns"`
	OpsPerSec  float64       `json:"ops_per_sec"`
	Stats      heap.Stats    `json:"stats"`
}

var errCorrupted = errors.New("block contents corrupted")

func runStress(ctx context.Context, out io.Writer, opts stressOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := validateWorkload(opts.Threads, opts.Iterations, opts.MaxSize, opts.Slots, opts.Reserve); err != nil {
		return err
	}
	if opts.Seed == 0 {
		opts.Seed = uint64(time.Now().UnixNano())
	}

	h, err := newHeap(opts.Reserve, opts.Fixed)
	if err != nil {
		return err
	}
	defer h.Close()

	logger.Info("stress starting",
		"threads", opts.Threads, "iterations", opts.Iterations,
		"max_size", opts.MaxSize, "slots", opts.Slots, "seed", opts.Seed)

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	for w := range opts.Threads {
		g.Go(func() error {
			return stressWorker(gctx, h, w, opts)
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("stress: %w", err)
	}
	elapsed := time.Since(start)

	if err := h.Check(); err != nil {
		return fmt.Errorf("stress: heap invalid after run: %w", err)
	}
	st := h.Stats()
	if !st.AllFree() {
		return fmt.Errorf("stress: %d of %d blocks still in use after every worker freed its slots",
			st.Blocks-st.FreeBlocks, st.Blocks)
	}

	report := StressReport{
		Threads:    opts.Threads,
		Iterations: opts.Iterations,
		MaxSize:    opts.MaxSize,
		Slots:      opts.Slots,
		Seed:       opts.Seed,
		Elapsed:    elapsed,
		Stats:      st,
	}
	if secs := elapsed.Seconds(); secs > 0 {
		report.OpsPerSec = float64(opts.Threads*opts.Iterations) / secs
	}
	logger.Info("stress finished", "elapsed", elapsed, "blocks", st.Blocks, "arena", st.ArenaBytes)

	if jsonOut {
		return printJSON(out, report)
	}
	printStressReport(out, report)

	if opts.Dump {
		if !heap.DebugBuild {
			printInfo(out, "\n(heap dump needs a binary built with -tags moldebug)\n")
			return nil
		}
		printInfo(out, "\n")
		return h.DumpHeap(out)
	}
	return nil
}

// stressWorker mirrors one thread of the workload: pick an action and a slot
// at random, and skip actions that do not apply to the slot's state.
func stressWorker(ctx context.Context, h *heap.Heap, id int, opts stressOptions) error {
	rng := rand.New(rand.NewPCG(opts.Seed, uint64(id)))
	tag := byte(id + 1)
	ptrs := make([]heap.Ptr, opts.Slots)
	sizes := make([]int, opts.Slots)

	for i := range opts.Iterations {
		if i%1024 == 0 && ctx.Err() != nil {
			return ctx.Err()
		}
		idx := rng.IntN(opts.Slots)

		switch rng.IntN(3) {
		case 0: // allocate
			if ptrs[idx] != heap.Nil {
				continue
			}
			size := rng.IntN(opts.MaxSize) + 1
			p, err := h.Allocate(size)
			if err != nil {
				return fmt.Errorf("worker %d: allocate %d: %w", id, size, err)
			}
			ptrs[idx], sizes[idx] = p, size
			stamp(h, p, size, tag)

		case 1: // resize
			if ptrs[idx] == heap.Nil {
				continue
			}
			if err := checkStamp(h, ptrs[idx], sizes[idx], tag); err != nil {
				return fmt.Errorf("worker %d before resize: %w", id, err)
			}
			size := rng.IntN(opts.MaxSize) + 1
			p, err := h.Resize(ptrs[idx], size)
			if err != nil {
				return fmt.Errorf("worker %d: resize to %d: %w", id, size, err)
			}
			if err := checkStamp(h, p, min(size, sizes[idx]), tag); err != nil {
				return fmt.Errorf("worker %d after resize: %w", id, err)
			}
			ptrs[idx], sizes[idx] = p, size
			stamp(h, p, size, tag)

		case 2: // free
			if ptrs[idx] == heap.Nil {
				continue
			}
			if err := checkStamp(h, ptrs[idx], sizes[idx], tag); err != nil {
				return fmt.Errorf("worker %d before free: %w", id, err)
			}
			h.Free(ptrs[idx])
			ptrs[idx], sizes[idx] = heap.Nil, 0
		}
	}

	for idx, p := range ptrs {
		if p != heap.Nil {
			h.Free(p)
			ptrs[idx] = heap.Nil
		}
	}
	return nil
}

func stamp(h *heap.Heap, p heap.Ptr, n int, tag byte) {
	b := h.Bytes(p, n)
	for i := range b {
		b[i] = tag
	}
}

func checkStamp(h *heap.Heap, p heap.Ptr, n int, tag byte) error {
	b := h.Bytes(p, n)
	if len(b) != n {
		return fmt.Errorf("%w: block 0x%x exposes %d of %d bytes", errCorrupted, p, len(b), n)
	}
	for i, v := range b {
		if v != tag {
			return fmt.Errorf("%w: block 0x%x byte %d is %#x, want %#x", errCorrupted, p, i, v, tag)
		}
	}
	return nil
}

func newHeap(reserve int, fixed bool) (*heap.Heap, error) {
	opts := heap.Options{Logger: logger.L}
	if fixed {
		opts.Source = arena.NewFixed(reserve)
	} else {
		opts.Arena = arena.DefaultConfig()
		opts.Arena.Reserve = reserve
	}
	return heap.New(opts)
}

func printStressReport(w io.Writer, r StressReport) {
	s := r.Stats
	printInfo(w, "Stress: %d workers x %d iterations (max %d bytes, %d slots, seed %d)\n",
		r.Threads, r.Iterations, r.MaxSize, r.Slots, r.Seed)
	printInfo(w, "  Elapsed:    %s (%.0f ops/s)\n", r.Elapsed.Round(time.Millisecond), r.OpsPerSec)
	printInfo(w, "  Calls:      allocate %d, free %d, resize %d\n", s.AllocCalls, s.FreeCalls, s.ResizeCalls)
	printInfo(w, "  Resizes:    shrink %d, in place %d, relocated %d\n",
		s.ResizeShrink, s.ResizeInPlace, s.ResizeRelocated)
	printInfo(w, "  Merges:     split %d, backward %d, forward %d\n",
		s.Splits, s.CoalesceBackward, s.CoalesceForward)
	printInfo(w, "  Arena:      %d bytes in %d grows\n", s.ArenaBytes, s.GrowCalls)
	printInfo(w, "  Final heap: %d block(s), all free\n", s.Blocks)
	printVerbose(w, "  Largest free block: %d bytes\n", s.LargestFree)
}

package main

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/joshuapare/mallocule/heap"
	"github.com/joshuapare/mallocule/heap/printer"
)

var (
	dumpReserve    int
	dumpFixed      bool
	dumpOnePerLine bool
)

func init() {
	cmd := newDumpCmd()
	cmd.Flags().IntVar(&dumpReserve, "reserve", 0, "Arena reservation in bytes (env MOLCTL_RESERVE)")
	cmd.Flags().BoolVar(&dumpFixed, "fixed", false, "Back the heap with a Fixed arena instead of mmap")
	cmd.Flags().BoolVar(&dumpOnePerLine, "one-per-line", false, "Print each block of a heap dump on its own line")
	rootCmd.AddCommand(cmd)
}

func newDumpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Replay the basic allocation scenarios and show the heap after each",
		Long: `The dump command runs a fixed sequence of scenarios against a fresh heap:
basic sanity, block reuse, list traversal, and a zero-size plus churn pass.
After each scenario it prints the heap. A full block-by-block dump needs a
binary built with -tags moldebug; other builds print a statistics summary.

Example:
  molctl dump
  go run -tags moldebug . dump --one-per-line
  molctl dump --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reserve := cfg.Reserve
			if cmd.Flags().Changed("reserve") {
				reserve = dumpReserve
			}
			return runDump(cmd.OutOrStdout(), reserve, dumpFixed)
		},
	}
	return cmd
}

// scenario is one named step sequence run against the shared heap.
type scenario struct {
	name string
	run  func(h *heap.Heap, log func(format string, args ...interface{})) error
}

// ScenarioResult is the JSON form of one scenario run.
type ScenarioResult struct {
	Name   string     `json:"name"`
	Passed bool       `json:"passed"`
	Error  string     `json:"error,omitempty"`
	Steps  []string   `json:"steps"`
	Stats  heap.Stats `json:"stats"`
}

var errScenario = errors.New("scenario failed")

func scenarios() []scenario {
	return []scenario{
		{name: "Basic Sanity Checks", run: scenarioBasic},
		{name: "Memory Reuse Test", run: scenarioReuse},
		{name: "Linking and Traversal Test", run: scenarioTraversal},
		{name: "Stress Test", run: scenarioChurn},
	}
}

func runDump(out io.Writer, reserve int, fixed bool) error {
	if reserve <= 0 {
		return fmt.Errorf("%w: reserve must be positive, got %d", errBadWorkload, reserve)
	}
	h, err := newHeap(reserve, fixed)
	if err != nil {
		return err
	}
	defer h.Close()

	var results []ScenarioResult
	var failed error
	for _, sc := range scenarios() {
		res := ScenarioResult{Name: sc.name}
		if !jsonOut {
			printInfo(out, "\n--- Running %s ---\n", sc.name)
		}
		err := sc.run(h, func(format string, args ...interface{}) {
			line := fmt.Sprintf(format, args...)
			res.Steps = append(res.Steps, line)
			if !jsonOut {
				printInfo(out, "%s\n", line)
			}
		})
		res.Stats = h.Stats()
		res.Passed = err == nil
		if err != nil {
			res.Error = err.Error()
			failed = fmt.Errorf("%s: %w", sc.name, err)
		}
		results = append(results, res)

		if !jsonOut {
			if err := showHeap(out, h); err != nil {
				return err
			}
		}
		if failed != nil {
			break
		}
	}

	if jsonOut {
		if err := printJSON(out, struct {
			Scenarios []ScenarioResult `json:"scenarios"`
		}{results}); err != nil {
			return err
		}
		return failed
	}
	if failed != nil {
		return failed
	}
	printInfo(out, "\n--- TESTS FINISHED SUCCESSFULLY ---\n")
	return nil
}

// showHeap prints the full chain on moldebug builds and a one-line summary
// otherwise.
func showHeap(out io.Writer, h *heap.Heap) error {
	if quiet {
		return nil
	}
	if heap.DebugBuild {
		opts := printer.DefaultOptions()
		opts.OnePerLine = dumpOnePerLine
		return h.DumpHeapOptions(out, opts)
	}
	s := h.Stats()
	fmt.Fprintf(out, "heap: %d block(s), %d free, %d used bytes, %d arena bytes\n",
		s.Blocks, s.FreeBlocks, s.UsedBytes, s.ArenaBytes)
	return nil
}

func expect(cond bool, format string, args ...interface{}) error {
	if !cond {
		return fmt.Errorf("%w: "+format, append([]interface{}{errScenario}, args...)...)
	}
	return nil
}

func scenarioBasic(h *heap.Heap, log func(string, ...interface{})) error {
	p1, err := h.Allocate(4)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(h.Bytes(p1, 4), 123)
	if err := expect(binary.LittleEndian.Uint32(h.Bytes(p1, 4)) == 123, "read back from 0x%x", p1); err != nil {
		return err
	}
	log("Test 1 Passed: Allocation and R/W successful.")

	p2, err := h.Allocate(8)
	if err != nil {
		return err
	}
	if err := expect(p1 != p2, "two live blocks at 0x%x", p1); err != nil {
		return err
	}
	log("Test 2 Passed: Multiple allocations are distinct.")

	h.Free(p1)
	h.Free(p2)
	log("Basic checks complete.")
	return nil
}

func scenarioReuse(h *heap.Heap, log func(string, ...interface{})) error {
	p1, err := h.Allocate(4)
	if err != nil {
		return err
	}
	log("Step 1: Allocated block at offset 0x%x", p1)

	h.Free(p1)
	log("Step 2: Freed the block.")

	p2, err := h.Allocate(4)
	if err != nil {
		return err
	}
	log("Step 3: Allocated a new block at offset 0x%x", p2)

	if err := expect(p1 == p2, "reuse landed at 0x%x, want 0x%x", p2, p1); err != nil {
		return err
	}
	log("Test Passed: Memory was successfully reused!")

	h.Free(p2)
	return nil
}

func scenarioTraversal(h *heap.Heap, log func(string, ...interface{})) error {
	p1, err := h.Allocate(100)
	if err != nil {
		return err
	}
	p2, err := h.Allocate(100)
	if err != nil {
		return err
	}
	log("Step 1: Allocated p1 (0x%x) and p2 (0x%x).", p1, p2)

	h.Free(p2)
	log("Step 2: Freed p2. The head (p1) is still in use.")

	p3, err := h.Allocate(100)
	if err != nil {
		return err
	}
	log("Step 3: Allocated p3 (0x%x). It should reuse the memory from p2.", p3)

	if err := expect(p3 == p2, "p3 at 0x%x, want 0x%x", p3, p2); err != nil {
		return err
	}
	log("Test Passed: Allocator correctly traversed the list to find a free block!")

	h.Free(p1)
	h.Free(p3)
	return nil
}

func scenarioChurn(h *heap.Heap, log func(string, ...interface{})) error {
	p, err := h.Allocate(0)
	if cerr := expect(errors.Is(err, heap.ErrInvalidSize) && p == heap.Nil, "Allocate(0) = 0x%x, %v", p, err); cerr != nil {
		return cerr
	}
	h.Free(p)
	log("Allocate(0) test passed.")

	ptrs := make([]heap.Ptr, 100)
	for i := range ptrs {
		if ptrs[i], err = h.Allocate(i + 1); err != nil {
			return err
		}
	}
	for _, p := range ptrs {
		h.Free(p)
	}
	if err := h.Check(); err != nil {
		return err
	}
	log("Rapid churn test passed.")
	return nil
}

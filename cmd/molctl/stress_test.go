package main

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/mallocule/heap"
)

func smallStress() stressOptions {
	return stressOptions{
		Threads:    4,
		Iterations: 2000,
		MaxSize:    256,
		Slots:      16,
		Reserve:    16 << 20,
		Seed:       42,
		Fixed:      true,
	}
}

func TestRunStress(t *testing.T) {
	resetGlobals(t)

	var out bytes.Buffer
	require.NoError(t, runStress(context.Background(), &out, smallStress()))
	requireContainsAll(t, out.String(),
		"Stress: 4 workers x 2000 iterations",
		"seed 42",
		"Final heap: 1 block(s), all free",
	)
}

func TestRunStress_Mapped(t *testing.T) {
	resetGlobals(t)

	opts := smallStress()
	opts.Fixed = false
	opts.Iterations = 500

	var out bytes.Buffer
	require.NoError(t, runStress(context.Background(), &out, opts))
	assert.Contains(t, out.String(), "all free")
}

func TestRunStress_JSON(t *testing.T) {
	resetGlobals(t)
	jsonOut = true

	var out bytes.Buffer
	require.NoError(t, runStress(context.Background(), &out, smallStress()))

	var report StressReport
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))
	assert.Equal(t, 4, report.Threads)
	assert.Equal(t, uint64(42), report.Seed)
	assert.Equal(t, 1, report.Stats.Blocks)
	assert.True(t, report.Stats.AllFree())
	assert.Positive(t, report.Stats.AllocCalls)
}

func TestRunStress_Dump(t *testing.T) {
	resetGlobals(t)

	opts := smallStress()
	opts.Iterations = 100
	opts.Dump = true

	var out bytes.Buffer
	require.NoError(t, runStress(context.Background(), &out, opts))
	if heap.DebugBuild {
		assert.Contains(t, out.String(), "--- Heap State ---")
	} else {
		assert.Contains(t, out.String(), "-tags moldebug")
	}
}

func TestRunStress_InvalidWorkload(t *testing.T) {
	resetGlobals(t)

	opts := smallStress()
	opts.Threads = 0
	err := runStress(context.Background(), &bytes.Buffer{}, opts)
	require.ErrorIs(t, err, errBadWorkload)
}

func TestRunStress_Cancelled(t *testing.T) {
	resetGlobals(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := runStress(ctx, &bytes.Buffer{}, smallStress())
	require.ErrorIs(t, err, context.Canceled)
}

func TestRunStress_ExhaustedArena(t *testing.T) {
	resetGlobals(t)

	opts := smallStress()
	opts.Reserve = 512
	err := runStress(context.Background(), &bytes.Buffer{}, opts)
	require.ErrorIs(t, err, heap.ErrArenaExhausted)
}

func TestStressCommand_FlagsOverrideEnv(t *testing.T) {
	resetGlobals(t)
	t.Setenv("MOLCTL_THREADS", "64")
	t.Setenv("MOLCTL_SLOTS", "4")

	out, err := executeCommand(t, "stress", "--fixed",
		"--threads", "2", "--iterations", "300", "--max-size", "64",
		"--reserve", "4194304", "--seed", "7")
	require.NoError(t, err)
	requireContainsAll(t, out,
		"Stress: 2 workers x 300 iterations (max 64 bytes, 4 slots, seed 7)",
		"all free",
	)
}

package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

// resetGlobals restores the global flags to their defaults for one test.
func resetGlobals(t *testing.T) {
	t.Helper()
	verbose, quiet, jsonOut = false, false, false
	t.Cleanup(func() {
		verbose, quiet, jsonOut = false, false, false
	})
}

// executeCommand runs the root command with args and returns its stdout.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func requireContainsAll(t *testing.T, output string, want ...string) {
	t.Helper()
	for _, w := range want {
		require.Contains(t, output, w)
	}
}

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/mallocule/cmd/molctl/logger"
)

var (
	// Global flags
	verbose bool
	quiet   bool
	jsonOut bool

	// cfg holds the environment configuration, loaded before any command runs.
	cfg Config
)

var rootCmd = &cobra.Command{
	Use:   "molctl",
	Short: "Exercise and inspect the mallocule allocator",
	Long: `molctl drives the mallocule heap allocator: it runs the concurrent
stress workload, replays the basic allocation scenarios with heap dumps, and
reports allocator statistics.

Defaults come from MOLCTL_* environment variables; flags override them.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadConfig()
		if err != nil {
			return err
		}
		cfg = c
		return initLogger(cfg)
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output and debug logging")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initLogger(c Config) error {
	level, err := logger.ParseLevel(c.LogLevel)
	if err != nil {
		return err
	}
	if verbose {
		level = logger.LevelDebug
	}
	return logger.Init(logger.Options{
		Enabled: !quiet,
		Format:  c.LogFormat,
		Level:   level,
	})
}

// Helper functions for output

// printInfo prints an info message if not in quiet mode
func printInfo(w io.Writer, format string, args ...interface{}) {
	if !quiet {
		fmt.Fprintf(w, format, args...)
	}
}

// printVerbose prints a verbose message if verbose mode is enabled
func printVerbose(w io.Writer, format string, args ...interface{}) {
	if verbose && !quiet {
		fmt.Fprintf(w, format, args...)
	}
}

// printJSON outputs data as JSON
func printJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

package main

import (
	"errors"
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// envPrefix is prepended to every variable Config reads, e.g. MOLCTL_THREADS.
const envPrefix = "MOLCTL"

// Config is the environment-provided configuration. Command flags take
// precedence over every field.
type Config struct {
	// Stress workload shape.
	Threads    int `envconfig:"THREADS" default:"5"`
	Iterations int `envconfig:"ITERATIONS" default:"50000"`
	MaxSize    int `envconfig:"MAX_SIZE" default:"1024"`
	Slots      int `envconfig:"SLOTS" default:"64"`

	// Reserve is the arena reservation in bytes.
	Reserve int `envconfig:"RESERVE" default:"1073741824"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"warn"`
}

func loadConfig() (Config, error) {
	var c Config
	if err := envconfig.Process(envPrefix, &c); err != nil {
		return Config{}, fmt.Errorf("load %s_* environment: %w", envPrefix, err)
	}
	return c, nil
}

var errBadWorkload = errors.New("invalid workload")

func validateWorkload(threads, iterations, maxSize, slots, reserve int) error {
	switch {
	case threads <= 0:
		return fmt.Errorf("%w: threads must be positive, got %d", errBadWorkload, threads)
	case iterations < 0:
		return fmt.Errorf("%w: iterations must not be negative, got %d", errBadWorkload, iterations)
	case maxSize <= 0:
		return fmt.Errorf("%w: max size must be positive, got %d", errBadWorkload, maxSize)
	case slots <= 0:
		return fmt.Errorf("%w: slots must be positive, got %d", errBadWorkload, slots)
	case reserve <= 0:
		return fmt.Errorf("%w: reserve must be positive, got %d", errBadWorkload, reserve)
	}
	return nil
}

// Package config centralizes recipeforge's environment-configurable defaults.
//
// CLI flags always take precedence over these environment variables, which in
// turn take precedence over the built-in defaults below.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	// EnvBuildFolder overrides the default build output folder.
	EnvBuildFolder = "RECIPEFORGE_BUILD_FOLDER"

	// EnvNumJobs overrides the default scheduler parallelism.
	EnvNumJobs = "RECIPEFORGE_NUM_JOBS"

	// EnvMemoryLimitMB overrides the sandbox memory limit, in mebibytes.
	EnvMemoryLimitMB = "RECIPEFORGE_MEMORY_LIMIT_MB"

	// EnvFetchTimeout overrides the HTTP timeout used for fetch downloads.
	EnvFetchTimeout = "RECIPEFORGE_FETCH_TIMEOUT"

	// DefaultBuildFolder is the default build output folder, relative to the
	// invoking working directory.
	DefaultBuildFolder = "./build"

	// DefaultNumJobs is the default scheduler parallelism (sequential).
	DefaultNumJobs = 1

	// DefaultMemoryLimitMB is the default sandbox memory limit (~1 GiB).
	DefaultMemoryLimitMB = 1000

	// DefaultFetchTimeout is the default HTTP timeout for a single fetch download.
	DefaultFetchTimeout = 5 * time.Minute

	// MaxNumJobs bounds configured parallelism to something a single host can
	// reasonably schedule; values above this are clamped with a warning.
	MaxNumJobs = 256
)

// GetBuildFolder returns the configured build folder from RECIPEFORGE_BUILD_FOLDER.
// If not set, returns DefaultBuildFolder.
func GetBuildFolder() string {
	if v := os.Getenv(EnvBuildFolder); v != "" {
		return v
	}
	return DefaultBuildFolder
}

// GetNumJobs returns the configured scheduler parallelism from RECIPEFORGE_NUM_JOBS.
// If not set or invalid, returns DefaultNumJobs. Values below 1 or above
// MaxNumJobs are clamped to the nearest valid bound with a warning.
func GetNumJobs() int {
	envValue := os.Getenv(EnvNumJobs)
	if envValue == "" {
		return DefaultNumJobs
	}

	n, err := strconv.Atoi(envValue)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: invalid %s value %q, using default %d\n",
			EnvNumJobs, envValue, DefaultNumJobs)
		return DefaultNumJobs
	}

	if n < 1 {
		fmt.Fprintf(os.Stderr, "Warning: %s must be >= 1 (got %d), using 1\n", EnvNumJobs, n)
		return 1
	}
	if n > MaxNumJobs {
		fmt.Fprintf(os.Stderr, "Warning: %s too high (%d), using maximum %d\n", EnvNumJobs, n, MaxNumJobs)
		return MaxNumJobs
	}

	return n
}

// GetMemoryLimitMB returns the configured sandbox memory limit in mebibytes
// from RECIPEFORGE_MEMORY_LIMIT_MB. If not set or invalid, returns DefaultMemoryLimitMB.
func GetMemoryLimitMB() int {
	envValue := os.Getenv(EnvMemoryLimitMB)
	if envValue == "" {
		return DefaultMemoryLimitMB
	}

	n, err := strconv.Atoi(envValue)
	if err != nil || n <= 0 {
		fmt.Fprintf(os.Stderr, "Warning: invalid %s value %q, using default %dm\n",
			EnvMemoryLimitMB, envValue, DefaultMemoryLimitMB)
		return DefaultMemoryLimitMB
	}

	return n
}

// GetFetchTimeout returns the configured fetch HTTP timeout from
// RECIPEFORGE_FETCH_TIMEOUT. If not set or invalid, returns DefaultFetchTimeout.
// Accepts duration strings like "30s", "2m", "90s".
func GetFetchTimeout() time.Duration {
	envValue := os.Getenv(EnvFetchTimeout)
	if envValue == "" {
		return DefaultFetchTimeout
	}

	d, err := time.ParseDuration(envValue)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: invalid %s value %q, using default %v\n",
			EnvFetchTimeout, envValue, DefaultFetchTimeout)
		return DefaultFetchTimeout
	}

	if d < time.Second {
		fmt.Fprintf(os.Stderr, "Warning: %s too low (%v), using minimum 1s\n", EnvFetchTimeout, d)
		return time.Second
	}

	return d
}

package probe

import (
	"fmt"
	"os"

	"github.com/okian/scorecast/pkg/logger"
)

// SetupLogging initializes the global logger, teeing into logFile when set.
func SetupLogging(logFile string, verbose bool) error {
	opts := []logger.Option{}
	if logFile != "" {
		opts = append(opts, logger.WithFile(logFile))
	}
	if err := logger.Init(opts...); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		return logger.SetLevelString("debug")
	}
	return nil
}

// ShowHelp prints usage information for the probe tool.
func ShowHelp() {
	_, _ = os.Stdout.WriteString(`Scorecast Probe
===============

Submits generated T20 match states to a running scorecast service and checks
every response's metadata against a local feature derivation.

Usage:
  go run ./cmd/probe [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:8000")
  -requests int
        Number of match states to submit (default 1000)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 10s)
  -seed uint
        Generator seed, 0 for random (default 0)
  -output string
        Write a JSON report to this file
  -log string
        Also write logs to this file
  -verbose
        Log every prediction
  -help
        Show this help message

Examples:
  go run ./cmd/probe -requests 5000 -workers 32
  go run ./cmd/probe -seed 42 -output reports/run.json
`)
}

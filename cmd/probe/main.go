// Command probe load-tests a running scorecast service.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/scorecast/internal/probe"
	"github.com/okian/scorecast/pkg/logger"
)

const (
	defaultRequests = 1000
	defaultTimeout  = 10 * time.Second
	workersPerCPU   = 2
)

func main() {
	var (
		baseURL  = flag.String("url", "http://localhost:8000", "Base URL of the service")
		requests = flag.Int("requests", defaultRequests, "Number of match states to submit")
		workers  = flag.Int("workers", runtime.NumCPU()*workersPerCPU, "Number of concurrent workers")
		timeout  = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		seed     = flag.Uint64("seed", 0, "Generator seed, 0 for random")
		output   = flag.String("output", "", "JSON report file")
		logFile  = flag.String("log", "", "Log file")
		verbose  = flag.Bool("verbose", false, "Log every prediction")
		help     = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		probe.ShowHelp()
		return
	}

	if err := probe.SetupLogging(*logFile, *verbose); err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := &probe.Config{
		BaseURL:    *baseURL,
		Requests:   *requests,
		Workers:    *workers,
		Timeout:    *timeout,
		Seed:       *seed,
		OutputFile: *output,
		LogFile:    *logFile,
		Verbose:    *verbose,
	}

	if _, err := probe.Run(ctx, cfg); err != nil {
		logger.Get().Error(ctx, "probe failed", logger.Error(err))
		_ = logger.Close()
		os.Exit(1)
	}
}

package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/voralis/envrisk/internal/assessgen"
)

// Default configuration constants.
const (
	defaultCount      = 1000
	defaultWorkers    = 2 // multiplier for runtime.NumCPU()
	defaultSeed       = 1
	defaultTimeout    = 30 * time.Second
	defaultRunTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL    = flag.String("url", "http://localhost:9080", "Base URL of the service")
		count      = flag.Int("count", defaultCount, "Number of assessments to generate and submit")
		workers    = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		seed       = flag.Int64("seed", defaultSeed, "Seed for deterministic generation")
		timeout    = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		outputFile = flag.String("output", "", "Output file for generated requests (default: generated_assessments_TIMESTAMP.json)")
		logFile    = flag.String("log", "", "Log file for run output (default: assessgen_TIMESTAMP.log)")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		assessgen.ShowHelp()
		return
	}

	if err := assessgen.SetupLogging(*logFile); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	config := &assessgen.Config{
		BaseURL:        *baseURL,
		NumAssessments: *count,
		Workers:        *workers,
		Timeout:        *timeout,
		Seed:           *seed,
		OutputFile:     *outputFile,
		LogFile:        *logFile,
		Verbose:        *verbose,
	}

	if err := assessgen.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Run failed: " + err.Error() + "\n")
		cancel()
		os.Exit(1)
	}
}

package assessgen

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/voralis/envrisk/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging configures logging to both console and file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string) error {
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "assessgen_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	multiWriter := io.MultiWriter(os.Stdout, file)
	log.SetOutput(multiWriter)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information for the assessment generator.
func ShowHelp() {
	os.Stdout.WriteString(`Envrisk Assessment Generator
============================

A concurrent tool that floods a running envrisk service with generated
assessments and verifies the reports that come back.

Usage:
  go run cmd/assess-gen/main.go [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -count int
        Number of assessments to generate and submit (default 1000)
  -workers int
        Number of concurrent workers (default 2x CPUs)
  -seed int
        Seed for deterministic location/questionnaire generation (default 1)
  -timeout duration
        HTTP request timeout (default 30s)
  -output string
        Output file for generated requests (default: generated_assessments_TIMESTAMP.json)
  -log string
        Log file for run output (default: assessgen_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help

Examples:
  go run cmd/assess-gen/main.go -count 500
  go run cmd/assess-gen/main.go -url http://localhost:9080 -count 10000 -workers 32
  go run cmd/assess-gen/main.go -seed 42 -verbose
`)
}

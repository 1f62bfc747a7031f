package assessgen

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/voralis/envrisk/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
)

// drainDelay gives the write-behind pipeline time to archive snapshots
// before the stats cross-check.
const drainDelay = 2 * time.Second

// Run executes the complete assessment run.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{StartTime: time.Now()}

	logger.Get().Info(ctx, "starting envrisk assessment run",
		logger.String("baseURL", config.BaseURL),
		logger.Int("count", config.NumAssessments),
		logger.Int("workers", config.Workers),
		logger.String("timeout", config.Timeout.String()),
		logger.Int("seed", int(config.Seed)),
		logger.Any("verbose", config.Verbose))

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, config); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Generate assessments
	assessments, err := generateAssessments(ctx, config, stats)
	if err != nil {
		return fmt.Errorf("assessment generation failed: %w", err)
	}

	// Step 3: Submit concurrently and collect the reports
	results, err := submitAssessments(ctx, config, assessments, stats)
	if err != nil {
		return fmt.Errorf("assessment submission failed: %w", err)
	}

	// Step 4: Let the analytics pipeline drain
	logger.Get().Info(ctx, "waiting for snapshot pipeline to drain")
	time.Sleep(drainDelay)

	// Step 5: Fetch service stats
	svcStats, err := fetchStats(ctx, config)
	if err != nil {
		return fmt.Errorf("stats retrieval failed: %w", err)
	}

	// Step 6: Verify invariants
	if err := verifyResults(ctx, config, results, svcStats, stats); err != nil {
		return fmt.Errorf("result verification failed: %w", err)
	}

	// Step 7: Save the generated requests for replay
	if err := saveAssessmentsToFile(ctx, config, assessments); err != nil {
		logger.Get().Warn(ctx, "failed to save assessments to file", logger.Error(err))
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(stats)

	logger.Get().Info(ctx, "run completed successfully")
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config) error {
	logger.Get().Info(ctx, "checking service health")

	client := newHTTPClient(config.Timeout)
	resp, err := client.Get(ctx, config.BaseURL+"/healthz")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close response body", logger.Error(err))
		}
	}()

	// Any 200 counts as healthy; the endpoint serves Prometheus metrics.
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// saveAssessmentsToFile writes the generated requests to a JSON file so
// a run can be replayed.
func saveAssessmentsToFile(ctx context.Context, config *Config, assessments []Assessment) error {
	if len(assessments) == 0 {
		return fmt.Errorf("no assessments to save")
	}

	filename := config.OutputFile
	if filename == "" {
		timestamp := time.Now().Format("20060102_150405")
		filename = "generated_assessments_" + timestamp + ".json"
	}

	dir := filepath.Dir(filename)
	if dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close file", logger.Error(err))
		}
	}()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(assessments); err != nil {
		return fmt.Errorf("failed to encode assessments: %w", err)
	}

	logger.Get().Info(ctx, "assessments saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats prints the final run statistics.
func displayFinalStats(stats *Stats) {
	var successRate, perSecond float64

	if stats.Submitted > 0 {
		successRate = float64(stats.Successful) / float64(stats.Submitted) * 100
	}
	if stats.Duration > 0 {
		perSecond = float64(stats.Submitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("generated", stats.Generated),
		logger.Int("submitted", stats.Submitted),
		logger.Int("successful", stats.Successful),
		logger.Int("failed", stats.Failed),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("successRate", successRate),
		logger.Float64("assessmentsPerSecond", perSecond))
}

package assessgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// Worker configuration constants.
const (
	workerChannelMultiplier = 2
	progressInterval        = time.Second
)

// HTTPClient wraps http.Client with a timeout.
type HTTPClient struct {
	client *http.Client
}

func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{client: &http.Client{Timeout: timeout}}
}

// Get performs a GET request.
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

// Post performs a POST request with a JSON body.
func (c *HTTPClient) Post(ctx context.Context, url string, body any) (*http.Response, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

func readResponseBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return data, nil
}

// submitAssessments posts the assessments concurrently and collects the
// reports that come back.
func submitAssessments(ctx context.Context, config *Config, assessments []Assessment, stats *Stats) ([]ReportResult, error) {
	log.Printf("submitting %d assessments with %d workers", len(assessments), config.Workers)

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/reports"

	var (
		successful int64
		failed     int64
		submitted  int64
	)

	results := make([]ReportResult, 0, len(assessments))
	var resultsMu sync.Mutex

	var lastReport time.Time

	in := make(chan Assessment, config.Workers*workerChannelMultiplier)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for a := range in {
				select {
				case <-ctx.Done():
					return
				default:
				}
				res, err := submitSingleAssessment(ctx, client, url, a)
				atomic.AddInt64(&submitted, 1)
				if err != nil {
					atomic.AddInt64(&failed, 1)
					if config.Verbose {
						log.Printf("submission failed: %v", err)
					}
				} else {
					atomic.AddInt64(&successful, 1)
					resultsMu.Lock()
					results = append(results, res)
					resultsMu.Unlock()
				}

				if time.Since(lastReport) >= progressInterval {
					lastReport = time.Now()
					fmt.Printf("\rsubmitted: %d/%d (ok: %d, failed: %d)",
						atomic.LoadInt64(&submitted), len(assessments),
						atomic.LoadInt64(&successful), atomic.LoadInt64(&failed))
				}
			}
		}()
	}

	go func() {
		defer close(in)
		for _, a := range assessments {
			select {
			case <-ctx.Done():
				return
			case in <- a:
			}
		}
	}()

	wg.Wait()
	fmt.Println()

	stats.Submitted = int(atomic.LoadInt64(&submitted))
	stats.Successful = int(atomic.LoadInt64(&successful))
	stats.Failed = int(atomic.LoadInt64(&failed))

	log.Printf("assessment submission completed: ok %d, failed %d", stats.Successful, stats.Failed)
	return results, nil
}

func submitSingleAssessment(ctx context.Context, client *HTTPClient, url string, a Assessment) (ReportResult, error) {
	resp, err := client.Post(ctx, url, a)
	if err != nil {
		return ReportResult{}, err
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return ReportResult{}, err
	}
	if resp.StatusCode != http.StatusCreated {
		return ReportResult{}, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(body, 200))
	}
	var res ReportResult
	if err := json.Unmarshal(body, &res); err != nil {
		return ReportResult{}, fmt.Errorf("failed to parse report: %w", err)
	}
	return res, nil
}

// fetchStats retrieves GET /stats.
func fetchStats(ctx context.Context, config *Config) (ServiceStats, error) {
	client := newHTTPClient(config.Timeout)
	resp, err := client.Get(ctx, config.BaseURL+"/stats")
	if err != nil {
		return ServiceStats{}, err
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return ServiceStats{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return ServiceStats{}, fmt.Errorf("stats returned %d", resp.StatusCode)
	}
	var st ServiceStats
	if err := json.Unmarshal(body, &st); err != nil {
		return ServiceStats{}, fmt.Errorf("failed to parse stats: %w", err)
	}
	return st, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n])
}

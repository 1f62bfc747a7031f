package assessgen

import (
	"context"
	"fmt"
	"log"
	"sort"
)

// Report invariants the verifier checks against every response.
const (
	minScore           = 0
	maxScore           = 100
	mediumThreshold    = 35
	highThreshold      = 65
	maxRecommendations = 8
)

// verifyResults checks every returned report against the scoring
// invariants and cross-checks the aggregate counters.
func verifyResults(ctx context.Context, config *Config, results []ReportResult, svcStats ServiceStats, stats *Stats) error {
	log.Println("verifying results...")

	if len(results) == 0 {
		return fmt.Errorf("no reports to verify")
	}

	violations := 0
	levels := map[string]int{}
	for _, r := range results {
		levels[r.RiskLevel]++
		for _, msg := range checkReport(r) {
			violations++
			log.Printf("violation [%s]: %s", r.ReportID, msg)
		}
	}
	if violations > 0 {
		return fmt.Errorf("%d invariant violations across %d reports", violations, len(results))
	}

	log.Printf("all %d reports satisfy scoring invariants (low: %d, medium: %d, high: %d)",
		len(results), levels["low"], levels["medium"], levels["high"])

	if svcStats.Reports < stats.Successful {
		return fmt.Errorf("service reports %d stored reports, expected at least %d",
			svcStats.Reports, stats.Successful)
	}
	log.Printf("service stats consistent: %d reports, %d snapshots, %d dropped",
		svcStats.Reports, svcStats.Snapshots, svcStats.DroppedSnapshots)

	displayScoreSpread(results, config.Verbose)
	log.Println("result verification completed")
	return nil
}

// checkReport returns a description of every invariant the report
// violates.
func checkReport(r ReportResult) []string {
	var out []string
	if r.RiskScore < minScore || r.RiskScore > maxScore {
		out = append(out, fmt.Sprintf("risk_score %.2f outside [0, 100]", r.RiskScore))
	}
	expected := levelFor(r.RiskScore)
	if r.RiskLevel != expected {
		out = append(out, fmt.Sprintf("risk_level %q does not match score %.2f (expected %q)",
			r.RiskLevel, r.RiskScore, expected))
	}
	if len(r.Recommendations) > maxRecommendations {
		out = append(out, fmt.Sprintf("%d recommendations exceed the cap of %d",
			len(r.Recommendations), maxRecommendations))
	}
	if r.ScorePercentile < 0 || r.ScorePercentile > 100 {
		out = append(out, fmt.Sprintf("score_percentile %.2f outside [0, 100]", r.ScorePercentile))
	}
	if len(r.Sources) == 0 {
		out = append(out, "data_sources is empty")
	}
	return out
}

func levelFor(score float64) string {
	switch {
	case score < mediumThreshold:
		return "low"
	case score < highThreshold:
		return "medium"
	default:
		return "high"
	}
}

// displayScoreSpread shows the distribution of returned scores.
func displayScoreSpread(results []ReportResult, verbose bool) {
	scores := make([]float64, len(results))
	for i, r := range results {
		scores[i] = r.RiskScore
	}
	sort.Float64s(scores)

	sum := 0.0
	for _, s := range scores {
		sum += s
	}
	avg := sum / float64(len(scores))
	log.Printf("score spread: min %.2f, median %.2f, avg %.2f, max %.2f",
		scores[0], scores[len(scores)/2], avg, scores[len(scores)-1])

	if verbose {
		buckets := [10]int{}
		for _, s := range scores {
			idx := int(s / 10)
			if idx > 9 {
				idx = 9
			}
			buckets[idx]++
		}
		for i, n := range buckets {
			log.Printf("  %3d-%3d: %d", i*10, i*10+10, n)
		}
	}
}

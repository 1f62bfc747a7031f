package report

import (
	"strings"

	"github.com/voralis/envrisk/internal/domain/risk"
)

// Summary sentence fragments. Verbatim-stable; report consumers match on
// them.
const (
	summaryLow    = "Your overall health risk is low. "
	summaryMedium = "Your health risk is moderate. "
	summaryHigh   = "Your health risk is elevated and requires attention. "

	driverEnvironmental = "Environmental factors are the primary concern. "
	driverLifestyle     = "Lifestyle factors are the primary concern. "
	driverBoth          = "Both environmental and lifestyle factors contribute to your risk. "

	noteHealthyLifestyle = "Your healthy lifestyle choices help mitigate environmental risks."
	noteCleanEnvironment = "Good environmental conditions support your health despite lifestyle considerations."
)

// A side dominates when it exceeds 1.5x the other.
const driverDominance = 1.5

// mitigationBelow marks a side comfortable enough to earn the closing
// note.
const mitigationBelow = 30

// Summarize writes the deterministic report prose: the tier sentence, the
// primary-driver sentence, and a mitigation note when one side of the
// blend stays comfortably low. Driver comparisons use the adjusted
// environmental risk, the number that actually entered the blend.
func Summarize(a risk.Assessment) string {
	var sb strings.Builder

	switch a.Level {
	case risk.LevelLow:
		sb.WriteString(summaryLow)
	case risk.LevelMedium:
		sb.WriteString(summaryMedium)
	case risk.LevelHigh:
		sb.WriteString(summaryHigh)
	}

	env := a.AdjustedEnvironmentalRisk
	life := a.LifestyleRisk
	switch {
	case env > life*driverDominance:
		sb.WriteString(driverEnvironmental)
	case life > env*driverDominance:
		sb.WriteString(driverLifestyle)
	default:
		sb.WriteString(driverBoth)
	}

	switch {
	case life < mitigationBelow:
		sb.WriteString(noteHealthyLifestyle)
	case env < mitigationBelow:
		sb.WriteString(noteCleanEnvironment)
	}

	return sb.String()
}

package risk

import (
	"sort"

	"github.com/voralis/envrisk/internal/domain/profile"
)

// ConditionBumps is the additive vulnerability weight per condition tag.
var ConditionBumps = map[profile.Condition]float64{
	profile.ConditionAsthma:         0.15,
	profile.ConditionCOPD:           0.15,
	profile.ConditionHeartDisease:   0.2,
	profile.ConditionDiabetes:       0.1,
	profile.ConditionHypertension:   0.1,
	profile.ConditionImmuneDisorder: 0.2,
	profile.ConditionAllergies:      0.05,
}

const (
	// AgeExtremeBump is added for respondents under 18 or over 65.
	AgeExtremeBump = 0.1

	// MaxMultiplier caps the vulnerability amplification.
	MaxMultiplier = 2.0
)

// VulnerabilityMultiplier computes the environmental amplification factor
// from medical history and age band. Duplicate tags count once. Returns the
// multiplier and the sorted conditions that contributed, for factor prose.
//
// The multiplier applies to environmental risk only: vulnerable individuals
// experience amplified harm from external exposure, not from their own
// lifestyle choices.
func VulnerabilityMultiplier(history []profile.Condition, age profile.AgeRange) (float64, []profile.Condition) {
	m := 1.0
	seen := make(map[profile.Condition]struct{}, len(history))
	var contributed []profile.Condition
	for _, c := range history {
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		bump, ok := ConditionBumps[c]
		if !ok {
			continue
		}
		m += bump
		contributed = append(contributed, c)
	}
	if age.Extreme() {
		m += AgeExtremeBump
	}
	if m > MaxMultiplier {
		m = MaxMultiplier
	}
	sort.Slice(contributed, func(i, j int) bool { return contributed[i] < contributed[j] })
	return m, contributed
}

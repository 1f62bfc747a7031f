// Package profile defines the lifestyle questionnaire vocabulary and its
// validation. Every enum is closed: values outside the vocabulary are
// rejected loudly, never defaulted to a score.
package profile

// AgeRange buckets the respondent's age.
type AgeRange string

const (
	AgeUnder13 AgeRange = "under-13"
	AgeTeen    AgeRange = "13-17"
	Age18to25  AgeRange = "18-25"
	Age26to35  AgeRange = "26-35"
	Age36to50  AgeRange = "36-50"
	Age51to65  AgeRange = "51-65"
	Age65Plus  AgeRange = "65+"
)

// Known reports whether a is a recognized age range.
func (a AgeRange) Known() bool {
	switch a {
	case AgeUnder13, AgeTeen, Age18to25, Age26to35, Age36to50, Age51to65, Age65Plus:
		return true
	}
	return false
}

// Extreme reports whether the age band carries extra environmental
// susceptibility (under 18 or over 65).
func (a AgeRange) Extreme() bool {
	switch a {
	case AgeUnder13, AgeTeen, Age65Plus:
		return true
	}
	return false
}

// Gender is recorded for completeness and never scored.
type Gender string

const (
	GenderMale        Gender = "male"
	GenderFemale      Gender = "female"
	GenderOther       Gender = "other"
	GenderUndisclosed Gender = "prefer_not_to_say"
)

// Known reports whether g is a recognized gender value.
func (g Gender) Known() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther, GenderUndisclosed:
		return true
	}
	return false
}

// Smoking is the smoking status answer.
type Smoking string

const (
	SmokingNever   Smoking = "never"
	SmokingFormer  Smoking = "former"
	SmokingCurrent Smoking = "current"
)

// Known reports whether s is a recognized smoking status.
func (s Smoking) Known() bool {
	switch s {
	case SmokingNever, SmokingFormer, SmokingCurrent:
		return true
	}
	return false
}

// Activity is the physical activity level answer.
type Activity string

const (
	ActivityActive    Activity = "active"
	ActivityModerate  Activity = "moderate"
	ActivitySedentary Activity = "sedentary"
)

// Known reports whether a is a recognized activity level.
func (a Activity) Known() bool {
	switch a {
	case ActivityActive, ActivityModerate, ActivitySedentary:
		return true
	}
	return false
}

// WorkEnvironment is the workplace exposure answer.
type WorkEnvironment string

const (
	WorkIndoor  WorkEnvironment = "indoor"
	WorkMixed   WorkEnvironment = "mixed"
	WorkOutdoor WorkEnvironment = "outdoor"
)

// Known reports whether w is a recognized work environment.
func (w WorkEnvironment) Known() bool {
	switch w {
	case WorkIndoor, WorkMixed, WorkOutdoor:
		return true
	}
	return false
}

// Diet is the diet quality answer. Optional: empty means unanswered.
type Diet string

const (
	DietGood    Diet = "good"
	DietAverage Diet = "average"
	DietPoor    Diet = "poor"
)

// Known reports whether d is a recognized diet quality.
func (d Diet) Known() bool {
	switch d {
	case DietGood, DietAverage, DietPoor:
		return true
	}
	return false
}

// Sleep is the nightly sleep hours answer. Optional: empty means unanswered.
type Sleep string

const (
	SleepLong  Sleep = ">8"
	SleepMid   Sleep = "6-8"
	SleepShort Sleep = "<6"
)

// Known reports whether s is a recognized sleep bucket.
func (s Sleep) Known() bool {
	switch s {
	case SleepLong, SleepMid, SleepShort:
		return true
	}
	return false
}

// Stress is the stress level answer. Optional: empty means unanswered.
type Stress string

const (
	StressLow    Stress = "low"
	StressMedium Stress = "medium"
	StressHigh   Stress = "high"
)

// Known reports whether s is a recognized stress level.
func (s Stress) Known() bool {
	switch s {
	case StressLow, StressMedium, StressHigh:
		return true
	}
	return false
}

// Condition is a pre-existing medical condition tag.
type Condition string

const (
	ConditionAsthma         Condition = "asthma"
	ConditionCOPD           Condition = "copd"
	ConditionHeartDisease   Condition = "heart_disease"
	ConditionDiabetes       Condition = "diabetes"
	ConditionHypertension   Condition = "hypertension"
	ConditionAllergies      Condition = "allergies"
	ConditionImmuneDisorder Condition = "immune_disorder"
)

// Known reports whether c is a recognized condition tag.
func (c Condition) Known() bool {
	switch c {
	case ConditionAsthma, ConditionCOPD, ConditionHeartDisease, ConditionDiabetes,
		ConditionHypertension, ConditionAllergies, ConditionImmuneDisorder:
		return true
	}
	return false
}

// Respiratory reports whether the condition affects the airways. These
// conditions compound with poor air quality.
func (c Condition) Respiratory() bool {
	return c == ConditionAsthma || c == ConditionCOPD
}

// Cooking is the home cooking energy answer. Optional: empty means unanswered.
type Cooking string

const (
	CookingElectric Cooking = "electric"
	CookingGas      Cooking = "gas"
	CookingWood     Cooking = "wood"
)

// Known reports whether c is a recognized cooking method.
func (c Cooking) Known() bool {
	switch c {
	case CookingElectric, CookingGas, CookingWood:
		return true
	}
	return false
}

// Home captures scored home environment answers.
type Home struct {
	Cooking Cooking `json:"cooking_method,omitempty"`
}

// Profile is one submitted questionnaire. Profiles are immutable once
// submitted; a resubmission creates a new profile with a new identity.
//
// AgeRange, Smoking, Activity and Work are required. The remaining enums
// are optional: empty means the question was skipped, which is distinct
// from an unknown value (unknown always fails validation).
type Profile struct {
	AgeRange       AgeRange        `json:"age_range"`
	Gender         Gender          `json:"gender,omitempty"`
	Smoking        Smoking         `json:"smoking_status"`
	Activity       Activity        `json:"activity_level"`
	Work           WorkEnvironment `json:"work_environment"`
	Diet           Diet            `json:"diet_quality,omitempty"`
	Sleep          Sleep           `json:"sleep_hours,omitempty"`
	Stress         Stress          `json:"stress_level,omitempty"`
	MedicalHistory []Condition     `json:"medical_history,omitempty"`
	Home           Home            `json:"home_environment,omitempty"`
}

// Validate checks every answer against its vocabulary. Required fields must
// be present and known; optional fields may be empty but, when present, must
// be known. The first violation is returned as an *InvalidEnumError.
func (p Profile) Validate() error {
	if !p.AgeRange.Known() {
		return enumErr("age_range", string(p.AgeRange), ageRangeValues())
	}
	if p.Gender != "" && !p.Gender.Known() {
		return enumErr("gender", string(p.Gender), []string{"male", "female", "other", "prefer_not_to_say"})
	}
	if !p.Smoking.Known() {
		return enumErr("smoking_status", string(p.Smoking), []string{"never", "former", "current"})
	}
	if !p.Activity.Known() {
		return enumErr("activity_level", string(p.Activity), []string{"active", "moderate", "sedentary"})
	}
	if !p.Work.Known() {
		return enumErr("work_environment", string(p.Work), []string{"indoor", "mixed", "outdoor"})
	}
	if p.Diet != "" && !p.Diet.Known() {
		return enumErr("diet_quality", string(p.Diet), []string{"good", "average", "poor"})
	}
	if p.Sleep != "" && !p.Sleep.Known() {
		return enumErr("sleep_hours", string(p.Sleep), []string{">8", "6-8", "<6"})
	}
	if p.Stress != "" && !p.Stress.Known() {
		return enumErr("stress_level", string(p.Stress), []string{"low", "medium", "high"})
	}
	for _, c := range p.MedicalHistory {
		if !c.Known() {
			return enumErr("medical_history", string(c), conditionValues())
		}
	}
	if p.Home.Cooking != "" && !p.Home.Cooking.Known() {
		return enumErr("home_environment.cooking_method", string(p.Home.Cooking), []string{"electric", "gas", "wood"})
	}
	return nil
}

// Conditions returns the medical history with duplicates removed,
// preserving first-occurrence order.
func (p Profile) Conditions() []Condition {
	if len(p.MedicalHistory) == 0 {
		return nil
	}
	seen := make(map[Condition]struct{}, len(p.MedicalHistory))
	out := make([]Condition, 0, len(p.MedicalHistory))
	for _, c := range p.MedicalHistory {
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

// HasRespiratoryCondition reports whether the medical history contains a
// condition that compounds with poor air quality.
func (p Profile) HasRespiratoryCondition() bool {
	for _, c := range p.MedicalHistory {
		if c.Respiratory() {
			return true
		}
	}
	return false
}

func enumErr(field, value string, allowed []string) error {
	return &InvalidEnumError{Field: field, Value: value, Allowed: allowed}
}

func ageRangeValues() []string {
	return []string{"under-13", "13-17", "18-25", "26-35", "36-50", "51-65", "65+"}
}

func conditionValues() []string {
	return []string{"asthma", "copd", "heart_disease", "diabetes", "hypertension", "allergies", "immune_disorder"}
}

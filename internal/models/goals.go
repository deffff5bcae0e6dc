package models

// Provenance tells whether a goal was typed in by the user or extracted from a model reply.
type Provenance string

const (
	ProvenanceManual Provenance = "manual"
	ProvenanceAI     Provenance = "ai"
)

// GoalSet holds the four daily macro targets. Zero means "not set".
type GoalSet struct {
	Calories int        `json:"calories"`
	Protein  int        `json:"protein"`
	Carbs    int        `json:"carbs"`
	Fat      int        `json:"fat"`
	Method   Provenance `json:"method,omitempty"`
}

// GoalsActive reports whether all four targets are present. A partially filled set
// counts as no goals at all.
func GoalsActive(g GoalSet) bool {
	return g.Calories > 0 && g.Protein > 0 && g.Carbs > 0 && g.Fat > 0
}

// HydrationGoal is a daily water target in milliliters.
type HydrationGoal struct {
	Milliliters int        `json:"water_ml"`
	Method      Provenance `json:"method,omitempty"`
}

// HydrationActive reports whether a positive water target is set.
func HydrationActive(h HydrationGoal) bool {
	return h.Milliliters > 0
}

// Manual goal ranges accepted from users.
const (
	MinCaloriesGoal = 800
	MaxCaloriesGoal = 5000
	MinProteinGoal  = 10
	MaxProteinGoal  = 500
	MinCarbsGoal    = 10
	MaxCarbsGoal    = 800
	MinFatGoal      = 10
	MaxFatGoal      = 300
	MinWaterGoal    = 500
	MaxWaterGoal    = 5000
)

// ValidateManual checks a user-entered goal set against the accepted ranges.
func (g GoalSet) ValidateManual() error {
	checks := []struct {
		field    string
		v        int
		min, max int
	}{
		{"calories", g.Calories, MinCaloriesGoal, MaxCaloriesGoal},
		{"protein", g.Protein, MinProteinGoal, MaxProteinGoal},
		{"carbs", g.Carbs, MinCarbsGoal, MaxCarbsGoal},
		{"fat", g.Fat, MinFatGoal, MaxFatGoal},
	}
	for _, c := range checks {
		if c.v < c.min || c.v > c.max {
			return NewValidationError(c.field, rangeMessage(c.min, c.max))
		}
	}
	return nil
}

// ValidateManual checks a user-entered water target against the accepted range.
func (h HydrationGoal) ValidateManual() error {
	if h.Milliliters < MinWaterGoal || h.Milliliters > MaxWaterGoal {
		return NewValidationError("water_ml", rangeMessage(MinWaterGoal, MaxWaterGoal))
	}
	return nil
}

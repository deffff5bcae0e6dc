// Package chat runs the nutrition assistant and picks goals out of its replies.
package chat

import (
	"regexp"
	"strconv"

	"github.com/fikafood/fika/internal/models"
)

// Extractor reads goal values out of assistant text. It assumes the caller already
// decided the text should contain them.
type Extractor interface {
	Hydration(text string) (int, bool)
	Macros(text string) (models.GoalSet, bool)
}

var (
	waterPattern    = regexp.MustCompile(`(?i)(\d{3,4})\s*ml`)
	caloriesPattern = regexp.MustCompile(`(?i)calorías.*?(\d{3,4})`)
	proteinPattern  = regexp.MustCompile(`(?i)proteína.*?(\d{1,3})g`)
	carbsPattern    = regexp.MustCompile(`(?i)carbohidratos.*?(\d{1,3})g`)
	fatPattern      = regexp.MustCompile(`(?i)grasa.*?(\d{1,3})g`)
)

// PatternExtractor matches the answer formats the prompts ask for, such as
// "Agua recomendada: 2750ml" and "Calorías: 2000 / Proteína: 150g / ...".
type PatternExtractor struct{}

// Hydration returns the first 3 or 4 digit amount followed by "ml".
func (PatternExtractor) Hydration(text string) (int, bool) {
	n, ok := firstInt(waterPattern, text)
	if !ok || n <= 0 {
		return 0, false
	}
	return n, true
}

// Macros returns a goal set only when all four values are found and positive.
func (PatternExtractor) Macros(text string) (models.GoalSet, bool) {
	cal, ok1 := firstInt(caloriesPattern, text)
	prot, ok2 := firstInt(proteinPattern, text)
	carbs, ok3 := firstInt(carbsPattern, text)
	fat, ok4 := firstInt(fatPattern, text)
	if !(ok1 && ok2 && ok3 && ok4) {
		return models.GoalSet{}, false
	}
	g := models.GoalSet{Calories: cal, Protein: prot, Carbs: carbs, Fat: fat, Method: models.ProvenanceAI}
	if !models.GoalsActive(g) {
		return models.GoalSet{}, false
	}
	return g, true
}

func firstInt(re *regexp.Regexp, text string) (int, bool) {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

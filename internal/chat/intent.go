package chat

import "strings"

// Intent is what a user message asks the assistant for.
type Intent int

const (
	IntentGeneral Intent = iota
	IntentHydration
	IntentGoals
)

func (i Intent) String() string {
	switch i {
	case IntentHydration:
		return "hydration"
	case IntentGoals:
		return "goals"
	}
	return "general"
}

// DetectIntent classifies a user message by keyword. Hydration wins over goals.
func DetectIntent(message string) Intent {
	m := strings.ToLower(message)
	if strings.Contains(m, "agua") || strings.Contains(m, "hidrat") {
		return IntentHydration
	}
	if strings.Contains(m, "meta") && (strings.Contains(m, "nutri") || strings.Contains(m, "calor")) {
		return IntentGoals
	}
	return IntentGeneral
}

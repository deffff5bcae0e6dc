package chat

import (
	"fmt"
	"strings"
	"time"

	"github.com/fikafood/fika/internal/models"
)

// UserContext renders the profile lines plus the current goals when they are active.
func UserContext(u *models.User, goals models.GoalSet, now time.Time) string {
	var sb strings.Builder
	sb.WriteString(u.PromptContext(now))
	if models.GoalsActive(goals) {
		fmt.Fprintf(&sb, "\nMetas actuales:\nCalorías: %d\nProteína: %dg\nCarbohidratos: %dg\nGrasa: %dg\n",
			goals.Calories, goals.Protein, goals.Carbs, goals.Fat)
	}
	return sb.String()
}

// Prompt builds the model prompt for a user message with the given intent.
func Prompt(intent Intent, userContext, message string) string {
	switch intent {
	case IntentHydration:
		return fmt.Sprintf(`Eres un nutricionista especializado en hidratación.

%s
Calcula cuánta agua debe beber usando esta fórmula:
- Peso × 35ml = base
- Si actividad moderate: +300ml
- Si actividad active: +500ml

Ejemplo: 70kg × 35ml = 2450ml + actividad = total

Responde EXACTAMENTE así:
"Agua recomendada: 2750ml"

Usuario pregunta: %s`, userContext, message)
	case IntentGoals:
		return fmt.Sprintf(`Eres un nutricionista en FikaFood.

%s
Calcula metas nutricionales personalizadas.

Responde EXACTAMENTE así:
"Calorías: 2000
Proteína: 150g
Carbohidratos: 250g
Grasa: 67g"

Usuario: %s`, userContext, message)
	}
	return fmt.Sprintf(`Eres un nutricionista en FikaFood.

%s
Responde como experto en nutrición. Si preguntan sobre metas, diles que escriban:
- "genera mis metas nutricionales"
- "cuánta agua debo beber"

Usuario: %s`, userContext, message)
}

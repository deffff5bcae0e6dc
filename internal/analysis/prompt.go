package analysis

import "strings"

const imagePrompt = `Analiza esta imagen de comida y dame información nutricional detallada.
La respuesta debe ser corta, concisa y eficiente.
RESPONDE SOLO CON JSON VÁLIDO.
EJEMPLO:
{
    "ai_description": "Descripción detallada de la comida",
    "ai_confidence": 0.85,
    "estimated_weight": 300,
    "total_calories": 450,
    "total_protein": 25.5,
    "total_carbs": 45.0,
    "total_fat": 15.2,
    "total_fiber": 8.5,
    "total_sugar": 5.2,
    "total_sodium": 890,
    "food_items": [
        {
            "name": "Pollo a la plancha",
            "category": "Proteína",
            "estimated_quantity": 120,
            "quantity_unit": "gramos",
            "calories": 198,
            "protein": 22.5,
            "carbs": 0,
            "fat": 11.2,
            "fiber": 0,
            "sugar": 0,
            "sodium": 65,
            "confidence": 0.9
        }
    ]
}`

// ImagePrompt builds the instruction sent with a food photo.
func ImagePrompt(userDescription string) string {
	d := strings.TrimSpace(userDescription)
	if d == "" {
		return imagePrompt
	}
	return imagePrompt + "\n\nDescripción del usuario: " + d
}

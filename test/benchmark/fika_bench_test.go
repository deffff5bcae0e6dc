package benchmark

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/fikafood/fika/internal/analysis"
	"github.com/fikafood/fika/internal/keyword"
	"github.com/fikafood/fika/internal/mealplan"
	"github.com/fikafood/fika/internal/models"
	"github.com/fikafood/fika/internal/render"
)

const reply = "```json\n" + `{"ai_description":"Arroz con pollo","ai_confidence":0.9,"estimated_weight":350,` +
	`"total_calories":520,"total_protein":35,"total_carbs":60,"total_fat":12,"total_fiber":3,` +
	`"total_sugar":2,"total_sodium":640,"food_items":[{"name":"arroz","estimated_quantity":200,"calories":260},` +
	`{"name":"pollo","estimated_quantity":150,"calories":260}]}` + "\n```"

func BenchmarkValidate(b *testing.B) {
	for i := 0; i < b.N; i++ {
		if _, err := analysis.Validate(reply); err != nil {
			b.Fatal(err)
		}
	}
}

func weekPlanText() string {
	var sb strings.Builder
	sb.WriteString("Aquí tienes tu plan semanal:\n\n")
	for d := 1; d <= models.PlanLength; d++ {
		fmt.Fprintf(&sb, "**Día %d**\nDesayuno: Avena con frutas y semillas de chía\n", d)
		fmt.Fprintf(&sb, "Almuerzo: Pechuga de pollo a la plancha con arroz integral\n")
		fmt.Fprintf(&sb, "Cena: Crema de calabaza con pan tostado\n\n")
	}
	sb.WriteString("Nota: Mantén una hidratación adecuada.")
	return sb.String()
}

func BenchmarkLabeledParser(b *testing.B) {
	text := weekPlanText()
	p := mealplan.LabeledParser{}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = p.Parse(text)
	}
}

func BenchmarkRender(b *testing.B) {
	plan := mealplan.LabeledParser{}.Parse(weekPlanText())
	doc := render.NewDocument(&models.MealPlan{StartDate: "2024-03-11", EndDate: "2024-03-17", Plan: plan}, nil)
	for _, style := range []render.Style{render.StylePlain, render.StyleStyled} {
		r := render.New(style)
		b.Run(style.String(), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				if err := r.Render(io.Discard, doc); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkCache(b *testing.B) {
	c := render.NewCache(64)
	pdf := bytes.Repeat([]byte("x"), 1024)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		id := fmt.Sprintf("plan-%d", i%128)
		if _, ok := c.Get(id, render.StylePlain, "Usuario: Ana"); !ok {
			c.Set(id, render.StylePlain, "Usuario: Ana", pdf)
		}
	}
}

func BenchmarkLevenshtein(b *testing.B) {
	words := []string{"ensalada", "ensaladas", "lentejas", "lentjeas", "garbanzos", "garvanzos"}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = keyword.LevenshteinDistance(words[i%len(words)], words[(i+1)%len(words)])
	}
}

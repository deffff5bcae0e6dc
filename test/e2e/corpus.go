// Package e2e provides end-to-end tests over a corpus of analysed meals.
package e2e

import (
	"encoding/json"
	"fmt"

	"github.com/fikafood/fika/internal/models"
)

// Meal is one photo of the corpus: the user's description, the dish the model
// recognises and the reply it sends.
type Meal struct {
	// Marker is unique to the meal's description and routes the scripted reply.
	Marker      string
	Description string
	Dish        string
	Items       []string
	Totals      models.Totals
}

// QueryTestCase defines a food-log query and the dish that must be among its results.
type QueryTestCase struct {
	Query        string
	ExpectedDish string
	Description  string
}

// Corpus holds meals and query test cases.
type Corpus struct {
	Meals        []Meal
	TestCases    []QueryTestCase
	TotalMeals   int
	TotalQueries int
}

// BuildCorpus returns a corpus of n meals, cycling through the dish catalogue.
// Every dish has a signature ingredient no other dish uses, so queries for it
// must return that dish.
func BuildCorpus(n int) *Corpus {
	meals := buildMeals(n)
	cases := buildQueryTestCases(meals)
	return &Corpus{
		Meals:        meals,
		TestCases:    cases,
		TotalMeals:   len(meals),
		TotalQueries: len(cases),
	}
}

type dish struct {
	name      string
	signature string
	items     []string
	totals    models.Totals
}

var catalogue = []dish{
	{"Ensalada de quinoa", "quinoa", []string{"quinoa", "tomate", "pepino"}, models.Totals{Calories: 420, Protein: 14, Carbs: 58, Fat: 14, Fiber: 8, Sugar: 6, Sodium: 310}},
	{"Hummus con pan pita", "garbanzos", []string{"garbanzos", "tahini", "pita"}, models.Totals{Calories: 510, Protein: 18, Carbs: 62, Fat: 20, Fiber: 11, Sugar: 3, Sodium: 620}},
	{"Salmon al horno", "salmon", []string{"salmon", "limon", "esparragos"}, models.Totals{Calories: 460, Protein: 38, Carbs: 8, Fat: 30, Fiber: 3, Sugar: 2, Sodium: 410}},
	{"Lentejas guisadas", "lentejas", []string{"lentejas", "zanahoria", "cebolla"}, models.Totals{Calories: 380, Protein: 22, Carbs: 55, Fat: 6, Fiber: 15, Sugar: 7, Sodium: 520}},
	{"Berenjena rellena", "berenjena", []string{"berenjena", "queso", "carne molida"}, models.Totals{Calories: 540, Protein: 28, Carbs: 24, Fat: 36, Fiber: 9, Sugar: 10, Sodium: 700}},
	{"Tostada de aguacate", "aguacate", []string{"aguacate", "pan integral", "huevo"}, models.Totals{Calories: 390, Protein: 15, Carbs: 30, Fat: 24, Fiber: 10, Sugar: 2, Sodium: 350}},
	{"Risotto de champinones", "champinones", []string{"arroz arborio", "champinones", "parmesano"}, models.Totals{Calories: 610, Protein: 17, Carbs: 80, Fat: 22, Fiber: 3, Sugar: 4, Sodium: 830}},
	{"Tacos de pescado", "tortilla", []string{"tortilla", "merluza", "repollo"}, models.Totals{Calories: 480, Protein: 30, Carbs: 44, Fat: 18, Fiber: 5, Sugar: 4, Sodium: 690}},
	{"Batido de platano", "platano", []string{"platano", "leche", "avena"}, models.Totals{Calories: 330, Protein: 12, Carbs: 58, Fat: 6, Fiber: 5, Sugar: 32, Sodium: 120}},
	{"Pollo al curry", "curry", []string{"pollo", "curry", "leche de coco"}, models.Totals{Calories: 650, Protein: 42, Carbs: 20, Fat: 44, Fiber: 4, Sugar: 6, Sodium: 910}},
}

func buildMeals(n int) []Meal {
	meals := make([]Meal, 0, n)
	for i := 0; i < n; i++ {
		d := catalogue[i%len(catalogue)]
		marker := fmt.Sprintf("foto-%03d", i)
		meals = append(meals, Meal{
			Marker:      marker,
			Description: "Almuerzo en casa " + marker,
			Dish:        d.name,
			Items:       d.items,
			Totals:      d.totals,
		})
	}
	return meals
}

func buildQueryTestCases(meals []Meal) []QueryTestCase {
	seen := make(map[string]bool)
	var cases []QueryTestCase
	for i, m := range meals {
		d := catalogue[i%len(catalogue)]
		if seen[d.name] {
			continue
		}
		seen[d.name] = true
		cases = append(cases, QueryTestCase{
			Query:        d.signature,
			ExpectedDish: d.name,
			Description:  "signature ingredient of " + m.Dish,
		})
	}
	return cases
}

// Reply is the model's analysis of the meal, fenced the way the model answers.
func (m Meal) Reply() string {
	type item struct {
		Name              string  `json:"name"`
		Category          string  `json:"category"`
		EstimatedQuantity float64 `json:"estimated_quantity"`
		QuantityUnit      string  `json:"quantity_unit"`
		Calories          float64 `json:"calories"`
	}
	items := make([]item, len(m.Items))
	for i, name := range m.Items {
		items[i] = item{Name: name, Category: "Ingrediente", EstimatedQuantity: 100, QuantityUnit: "gramos", Calories: m.Totals.Calories / float64(len(m.Items))}
	}
	body, _ := json.Marshal(map[string]interface{}{
		"ai_description":   m.Dish,
		"ai_confidence":    0.85,
		"estimated_weight": 400,
		"total_calories":   m.Totals.Calories,
		"total_protein":    m.Totals.Protein,
		"total_carbs":      m.Totals.Carbs,
		"total_fat":        m.Totals.Fat,
		"total_fiber":      m.Totals.Fiber,
		"total_sugar":      m.Totals.Sugar,
		"total_sodium":     m.Totals.Sodium,
		"food_items":       items,
	})
	return "```json\n" + string(body) + "\n```"
}

// TotalsOf sums the expected nutrient totals of meals.
func TotalsOf(meals []Meal) models.Totals {
	var t models.Totals
	for _, m := range meals {
		t.Add(m.Totals)
	}
	return t
}

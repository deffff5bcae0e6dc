// Package analysis turns a model's image-analysis reply into a validated nutrition payload.
package analysis

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/fikafood/fika/internal/models"
)

// RequiredFields must be present in every analysis payload.
var RequiredFields = []string{"ai_description", "ai_confidence", "total_calories", "food_items"}

// MinEstimatedWeight is the lower bound applied to estimated_weight, in grams.
const MinEstimatedWeight = 10

// Validate strips code fences from text, decodes the JSON object inside and bounds
// its values. It returns an error wrapping models.ErrMalformedResponse when the
// text is not a JSON object, or models.ErrMissingField when a required key is absent.
func Validate(text string) (*models.Analysis, error) {
	cleaned := StripFences(text)
	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil || raw == nil {
		return nil, fmt.Errorf("%w: response is not a JSON object", models.ErrMalformedResponse)
	}
	for _, f := range RequiredFields {
		if _, ok := raw[f]; !ok {
			return nil, models.NewMissingFieldError(f)
		}
	}

	var desc string
	if err := json.Unmarshal(raw["ai_description"], &desc); err != nil {
		return nil, fmt.Errorf("%w: ai_description is not a string", models.ErrMalformedResponse)
	}

	nums := map[string]float64{}
	for _, key := range []string{
		"ai_confidence", "estimated_weight",
		"total_calories", "total_protein", "total_carbs", "total_fat",
		"total_fiber", "total_sugar", "total_sodium",
	} {
		v, err := field(raw, key)
		if err != nil {
			return nil, err
		}
		nums[key] = v
	}

	var items []wireItem
	if b := raw["food_items"]; !isNull(b) {
		if err := json.Unmarshal(b, &items); err != nil {
			return nil, fmt.Errorf("%w: food_items: %v", models.ErrMalformedResponse, err)
		}
	}

	a := &models.Analysis{
		AIDescription:   strings.TrimSpace(desc),
		AIConfidence:    clamp(nums["ai_confidence"], 0, 1),
		EstimatedWeight: math.Max(MinEstimatedWeight, nums["estimated_weight"]),
		Totals: models.Totals{
			Calories: nonNegative(nums["total_calories"]),
			Protein:  nonNegative(nums["total_protein"]),
			Carbs:    nonNegative(nums["total_carbs"]),
			Fat:      nonNegative(nums["total_fat"]),
			Fiber:    nonNegative(nums["total_fiber"]),
			Sugar:    nonNegative(nums["total_sugar"]),
			Sodium:   nonNegative(nums["total_sodium"]),
		},
		Items: make([]models.FoodItem, 0, len(items)),
	}
	for _, it := range items {
		a.Items = append(a.Items, it.toModel())
	}
	return a, nil
}

// StripFences removes a leading ```json or ``` marker and a trailing ``` marker.
func StripFences(text string) string {
	s := strings.TrimSpace(text)
	switch {
	case strings.HasPrefix(s, "```json"):
		s = s[len("```json"):]
	case strings.HasPrefix(s, "```JSON"):
		s = s[len("```JSON"):]
	case strings.HasPrefix(s, "```"):
		s = s[3:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func field(raw map[string]json.RawMessage, key string) (float64, error) {
	b, ok := raw[key]
	if !ok {
		return 0, nil
	}
	var n number
	if err := json.Unmarshal(b, &n); err != nil {
		return 0, fmt.Errorf("%w: %s: %v", models.ErrMalformedResponse, key, err)
	}
	return float64(n), nil
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func nonNegative(v float64) float64 { return math.Max(0, v) }

func isNull(b json.RawMessage) bool {
	return len(b) == 0 || bytes.Equal(bytes.TrimSpace(b), []byte("null"))
}

// number decodes a JSON number, a numeric string, or null (as 0).
type number float64

func (n *number) UnmarshalJSON(b []byte) error {
	if isNull(b) {
		*n = 0
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		*n = number(f)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("not a number: %s", b)
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("not a number: %q", s)
	}
	*n = number(f)
	return nil
}

type wireItem struct {
	Name              string `json:"name"`
	Category          string `json:"category"`
	EstimatedQuantity number `json:"estimated_quantity"`
	QuantityUnit      string `json:"quantity_unit"`
	Calories          number `json:"calories"`
	Protein           number `json:"protein"`
	Carbs             number `json:"carbs"`
	Fat               number `json:"fat"`
	Fiber             number `json:"fiber"`
	Sugar             number `json:"sugar"`
	Sodium            number `json:"sodium"`
	Confidence        number `json:"confidence"`
}

func (w wireItem) toModel() models.FoodItem {
	unit := strings.TrimSpace(w.QuantityUnit)
	if unit == "" {
		unit = models.DefaultQuantityUnit
	}
	return models.FoodItem{
		Name:              strings.TrimSpace(w.Name),
		Category:          strings.TrimSpace(w.Category),
		EstimatedQuantity: float64(w.EstimatedQuantity),
		QuantityUnit:      unit,
		Nutrients: models.Totals{
			Calories: float64(w.Calories),
			Protein:  float64(w.Protein),
			Carbs:    float64(w.Carbs),
			Fat:      float64(w.Fat),
			Fiber:    float64(w.Fiber),
			Sugar:    float64(w.Sugar),
			Sodium:   float64(w.Sodium),
		},
		Confidence: float64(w.Confidence),
	}
}

// Package models defines core data structures for food records, goals, meal plans, and summaries.
package models

import (
	"math"
	"time"
)

// Status is the analysis lifecycle state of a food record.
type Status string

const (
	StatusAnalyzing Status = "analyzing"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusReviewing Status = "reviewing"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusAnalyzing, StatusCompleted, StatusFailed, StatusReviewing:
		return true
	}
	return false
}

// DefaultQuantityUnit is used for food items whose unit the model left empty.
const DefaultQuantityUnit = "gramos"

// Totals holds the seven tracked nutrient amounts. Energy is kcal, sodium is mg,
// everything else is grams.
type Totals struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
	Fiber    float64 `json:"fiber"`
	Sugar    float64 `json:"sugar"`
	Sodium   float64 `json:"sodium"`
}

// Add accumulates o into t without rounding.
func (t *Totals) Add(o Totals) {
	t.Calories += o.Calories
	t.Protein += o.Protein
	t.Carbs += o.Carbs
	t.Fat += o.Fat
	t.Fiber += o.Fiber
	t.Sugar += o.Sugar
	t.Sodium += o.Sodium
}

// Rounded returns a copy with every field rounded to one decimal place.
func (t Totals) Rounded() Totals {
	return Totals{
		Calories: Round1(t.Calories),
		Protein:  Round1(t.Protein),
		Carbs:    Round1(t.Carbs),
		Fat:      Round1(t.Fat),
		Fiber:    Round1(t.Fiber),
		Sugar:    Round1(t.Sugar),
		Sodium:   Round1(t.Sodium),
	}
}

// Record is one logged food intake: a photo, the model's analysis of it, and its totals.
type Record struct {
	ID              string      `json:"id"`
	UserID          string      `json:"user_id"`
	ImagePath       string      `json:"image_path"`
	Description     string      `json:"description"`
	AIDescription   string      `json:"ai_description"`
	AIConfidence    float64     `json:"ai_confidence"`
	Totals          Totals      `json:"totals"`
	EstimatedWeight float64     `json:"estimated_weight"`
	Model           string      `json:"model"`
	Status          Status      `json:"status"`
	Items           []*FoodItem `json:"food_items"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// MacroDistribution is the share of each macro in the total macro grams.
type MacroDistribution struct {
	ProteinPercent float64 `json:"protein_percent"`
	CarbsPercent   float64 `json:"carbs_percent"`
	FatPercent     float64 `json:"fat_percent"`
}

// NutritionDensity is grams of each macro per 100 kcal.
type NutritionDensity struct {
	ProteinPerCal float64 `json:"protein_per_cal"`
	CarbsPerCal   float64 `json:"carbs_per_cal"`
	FatPerCal     float64 `json:"fat_per_cal"`
}

// MacroDistribution returns zero shares when the record has no macros.
func (r *Record) MacroDistribution() MacroDistribution {
	sum := r.Totals.Protein + r.Totals.Carbs + r.Totals.Fat
	if sum <= 0 {
		return MacroDistribution{}
	}
	return MacroDistribution{
		ProteinPercent: Round1(r.Totals.Protein / sum * 100),
		CarbsPercent:   Round1(r.Totals.Carbs / sum * 100),
		FatPercent:     Round1(r.Totals.Fat / sum * 100),
	}
}

// NutritionDensity returns zero density when the record has no calories.
func (r *Record) NutritionDensity() NutritionDensity {
	if r.Totals.Calories <= 0 {
		return NutritionDensity{}
	}
	return NutritionDensity{
		ProteinPerCal: round2(r.Totals.Protein / r.Totals.Calories * 100),
		CarbsPerCal:   round2(r.Totals.Carbs / r.Totals.Calories * 100),
		FatPerCal:     round2(r.Totals.Fat / r.Totals.Calories * 100),
	}
}

// FoodItem is a single food detected inside a record.
type FoodItem struct {
	ID                string    `json:"id"`
	RecordID          string    `json:"record_id"`
	Name              string    `json:"name"`
	Category          string    `json:"category"`
	EstimatedQuantity float64   `json:"estimated_quantity"`
	QuantityUnit      string    `json:"quantity_unit"`
	Nutrients         Totals    `json:"nutrients"`
	Confidence        float64   `json:"confidence"`
	CreatedAt         time.Time `json:"created_at"`
}

// CaloriesPer100g is only defined for items measured in grams.
func (f *FoodItem) CaloriesPer100g() (float64, bool) {
	if f.QuantityUnit != DefaultQuantityUnit || f.EstimatedQuantity <= 0 {
		return 0, false
	}
	return Round1(f.Nutrients.Calories / f.EstimatedQuantity * 100), true
}

// Analysis is a validated nutrition payload produced from a model response.
type Analysis struct {
	AIDescription   string
	AIConfidence    float64
	EstimatedWeight float64
	Totals          Totals
	Items           []FoodItem
	Model           string
}

// RecordUpdate carries manual corrections to a record. Nil fields are left unchanged.
type RecordUpdate struct {
	Description     *string  `json:"description,omitempty"`
	Calories        *float64 `json:"total_calories,omitempty"`
	Protein         *float64 `json:"total_protein,omitempty"`
	Carbs           *float64 `json:"total_carbs,omitempty"`
	Fat             *float64 `json:"total_fat,omitempty"`
	Fiber           *float64 `json:"total_fiber,omitempty"`
	Sugar           *float64 `json:"total_sugar,omitempty"`
	Sodium          *float64 `json:"total_sodium,omitempty"`
	EstimatedWeight *float64 `json:"estimated_weight,omitempty"`
}

// Apply validates u and writes its non-nil fields into r.
func (u *RecordUpdate) Apply(r *Record) error {
	fields := []struct {
		name string
		src  *float64
		dst  *float64
	}{
		{"total_calories", u.Calories, &r.Totals.Calories},
		{"total_protein", u.Protein, &r.Totals.Protein},
		{"total_carbs", u.Carbs, &r.Totals.Carbs},
		{"total_fat", u.Fat, &r.Totals.Fat},
		{"total_fiber", u.Fiber, &r.Totals.Fiber},
		{"total_sugar", u.Sugar, &r.Totals.Sugar},
		{"total_sodium", u.Sodium, &r.Totals.Sodium},
		{"estimated_weight", u.EstimatedWeight, &r.EstimatedWeight},
	}
	for _, f := range fields {
		if f.src != nil && (*f.src < 0 || math.IsNaN(*f.src) || math.IsInf(*f.src, 0)) {
			return NewValidationError(f.name, "must be a non-negative number")
		}
	}
	if u.Description != nil {
		if len([]rune(*u.Description)) > MaxDescriptionLength {
			return NewValidationError("description", "too long")
		}
		r.Description = *u.Description
	}
	for _, f := range fields {
		if f.src != nil {
			*f.dst = *f.src
		}
	}
	return nil
}

// MaxDescriptionLength bounds the user-supplied record description.
const MaxDescriptionLength = 500

// Round1 rounds v to one decimal place.
func Round1(v float64) float64 { return math.Round(v*10) / 10 }

func round2(v float64) float64 { return math.Round(v*100) / 100 }

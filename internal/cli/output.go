// Package cli formats summaries, plans and status for the fika command.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fikafood/fika/internal/models"
	"github.com/fikafood/fika/internal/storage"
	"github.com/fikafood/fika/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat accepts "text" and "json". An empty name is text.
func ParseOutputFormat(name string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(strings.TrimSpace(name))) {
	case "", OutputText:
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	}
	return OutputText, fmt.Errorf("unknown output format %q; use text or json", name)
}

// MealWidth caps each meal line in text plan output. Zero disables truncation.
var MealWidth = 120

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteDaily writes a daily summary to w in the given format.
func WriteDaily(w io.Writer, s *models.DailySummary, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, s)
	}
	fmt.Fprintf(w, "Resumen del %s (%d registros)\n\n", s.Date, s.Count)
	writeTotals(w, s.Totals)
	if g := s.GoalsProgress; g != nil {
		fmt.Fprintln(w, "\nProgreso de metas")
		writeProgress(w, "Calorías", g.Calories)
		writeProgress(w, "Proteína", g.Protein)
		writeProgress(w, "Carbohidratos", g.Carbs)
		writeProgress(w, "Grasa", g.Fat)
	}
	return nil
}

// WritePeriod writes a period summary with one line per day.
func WritePeriod(w io.Writer, s *models.PeriodSummary, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, s)
	}
	fmt.Fprintf(w, "Periodo %s: %s a %s\n", s.Period, s.StartDate, s.EndDate)
	fmt.Fprintf(w, "%d registros en %d de %d días\n\n", s.TotalCount, s.DaysWithRecords, s.DaysInPeriod)
	fmt.Fprintf(w, "%-10s  %9s  %8s  %8s  %8s  %s\n", "fecha", "kcal", "prot", "carb", "grasa", "n")
	for _, d := range s.Days {
		t := d.Totals.Rounded()
		fmt.Fprintf(w, "%-10s  %9.1f  %8.1f  %8.1f  %8.1f  %d\n", d.Date, t.Calories, t.Protein, t.Carbs, t.Fat, d.Count)
	}
	fmt.Fprintln(w, "\nTotal del periodo")
	writeTotals(w, s.PeriodTotals)
	return nil
}

func writeTotals(w io.Writer, t models.Totals) {
	t = t.Rounded()
	fmt.Fprintf(w, "  calorías:       %.1f kcal\n", t.Calories)
	fmt.Fprintf(w, "  proteína:       %.1f g\n", t.Protein)
	fmt.Fprintf(w, "  carbohidratos:  %.1f g\n", t.Carbs)
	fmt.Fprintf(w, "  grasa:          %.1f g\n", t.Fat)
	fmt.Fprintf(w, "  fibra:          %.1f g\n", t.Fiber)
	fmt.Fprintf(w, "  azúcar:         %.1f g\n", t.Sugar)
	fmt.Fprintf(w, "  sodio:          %.1f mg\n", t.Sodium)
}

func writeProgress(w io.Writer, label string, p models.GoalProgress) {
	fmt.Fprintf(w, "  %-14s %.1f / %.0f (%.1f%%)\n", label+":", p.Consumed, p.Goal, p.Percentage)
}

// WritePlan writes a parsed plan. JSON output keeps the stored dictionary shape.
func WritePlan(w io.Writer, p models.PlanContent, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, p)
	}
	if p.Empty() {
		fmt.Fprintln(w, "No se encontraron días en el plan.")
		return nil
	}
	for _, d := range p.Days {
		fmt.Fprintln(w, d.Label())
		fmt.Fprintf(w, "  Desayuno: %s\n", utils.Truncate(d.Breakfast, MealWidth))
		fmt.Fprintf(w, "  Almuerzo: %s\n", utils.Truncate(d.Lunch, MealWidth))
		fmt.Fprintf(w, "  Cena:     %s\n", utils.Truncate(d.Dinner, MealWidth))
	}
	if p.Note != "" {
		fmt.Fprintf(w, "\nNota: %s\n", utils.TruncateWords(p.Note, 60))
	}
	return nil
}

// Status is the shape of GET /api/v1/status.
type Status struct {
	Counts         storage.Stats `json:"counts"`
	DiskUsageBytes *int64        `json:"disk_usage_bytes,omitempty"`
}

// WriteStatus writes storage counts.
func WriteStatus(w io.Writer, s *Status, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, s)
	}
	fmt.Fprintf(w, "users:              %d\n", s.Counts.Users)
	fmt.Fprintf(w, "records:            %d\n", s.Counts.Records)
	fmt.Fprintf(w, "food_items:         %d\n", s.Counts.FoodItems)
	fmt.Fprintf(w, "meal_plans:         %d\n", s.Counts.MealPlans)
	fmt.Fprintf(w, "conversations:      %d\n", s.Counts.Conversations)
	if s.DiskUsageBytes != nil {
		fmt.Fprintf(w, "disk_usage_bytes:   %d   # database, index and photos\n", *s.DiskUsageBytes)
	}
	return nil
}

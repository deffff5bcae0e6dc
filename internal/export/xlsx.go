// Package export writes summaries as spreadsheets.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/fikafood/fika/internal/models"
)

// Sheet names of a period workbook.
const (
	DailySheet   = "Diario"
	SummarySheet = "Resumen"
)

// ContentType is the MIME type of the workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var dailyHeader = []interface{}{
	"Fecha", "Calorías (kcal)", "Proteína (g)", "Carbohidratos (g)", "Grasa (g)",
	"Fibra (g)", "Azúcar (g)", "Sodio (mg)", "Registros",
}

// Filename is the download name for a period workbook.
func Filename(s *models.PeriodSummary) string {
	return fmt.Sprintf("resumen_%s_%s.xlsx", s.StartDate, s.EndDate)
}

// PeriodXLSX writes a workbook with one row per day plus a totals row, and a
// second sheet with the period overview.
func PeriodXLSX(w io.Writer, s *models.PeriodSummary) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", DailySheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}

	if err := f.SetSheetRow(DailySheet, "A1", &dailyHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	row := 2
	for _, d := range s.Days {
		if err := writeRow(f, DailySheet, row, d.Date, d.Totals, d.Count); err != nil {
			return err
		}
		row++
	}
	if err := writeRow(f, DailySheet, row, "Total", s.PeriodTotals, s.TotalCount); err != nil {
		return err
	}
	last, _ := excelize.CoordinatesToCellName(len(dailyHeader), row)
	if err := f.SetCellStyle(DailySheet, "A1", lastHeaderCell(), bold); err != nil {
		return fmt.Errorf("style header: %w", err)
	}
	first, _ := excelize.CoordinatesToCellName(1, row)
	if err := f.SetCellStyle(DailySheet, first, last, bold); err != nil {
		return fmt.Errorf("style totals: %w", err)
	}
	if err := f.SetColWidth(DailySheet, "A", "I", 16); err != nil {
		return fmt.Errorf("set widths: %w", err)
	}

	if _, err := f.NewSheet(SummarySheet); err != nil {
		return fmt.Errorf("create summary sheet: %w", err)
	}
	overview := [][]interface{}{
		{"Periodo", s.Period},
		{"Inicio", s.StartDate},
		{"Fin", s.EndDate},
		{"Días en el periodo", s.DaysInPeriod},
		{"Días con registros", s.DaysWithRecords},
		{"Registros", s.TotalCount},
	}
	for i, r := range overview {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(SummarySheet, cell, &r); err != nil {
			return fmt.Errorf("write overview: %w", err)
		}
	}
	if err := f.SetCellStyle(SummarySheet, "A1", fmt.Sprintf("A%d", len(overview)), bold); err != nil {
		return fmt.Errorf("style overview: %w", err)
	}
	if err := f.SetColWidth(SummarySheet, "A", "B", 22); err != nil {
		return fmt.Errorf("set widths: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, label string, t models.Totals, count int) error {
	t = t.Rounded()
	values := []interface{}{label, t.Calories, t.Protein, t.Carbs, t.Fat, t.Fiber, t.Sugar, t.Sodium, count}
	cell, _ := excelize.CoordinatesToCellName(1, row)
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write row %d: %w", row, err)
	}
	return nil
}

func lastHeaderCell() string {
	cell, _ := excelize.CoordinatesToCellName(len(dailyHeader), 1)
	return cell
}

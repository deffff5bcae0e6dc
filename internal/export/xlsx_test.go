package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/fikafood/fika/internal/models"
)

func TestPeriodXLSX(t *testing.T) {
	s := &models.PeriodSummary{
		Period:    "custom",
		StartDate: "2024-03-10",
		EndDate:   "2024-03-11",
		Days: []models.DayBreakdown{
			{Date: "2024-03-10", Totals: models.Totals{Calories: 1200.25, Protein: 60}, Count: 2},
			{Date: "2024-03-11", Count: 0},
		},
		PeriodTotals:    models.Totals{Calories: 1200.25, Protein: 60},
		TotalCount:      2,
		DaysInPeriod:    2,
		DaysWithRecords: 1,
	}

	var buf bytes.Buffer
	require.NoError(t, PeriodXLSX(&buf, s))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{DailySheet, SummarySheet}, f.GetSheetList())

	rows, err := f.GetRows(DailySheet)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "Fecha", rows[0][0])
	assert.Equal(t, "Registros", rows[0][8])
	assert.Equal(t, []string{"2024-03-10", "1200.3", "60", "0", "0", "0", "0", "0", "2"}, rows[1])
	assert.Equal(t, "2024-03-11", rows[2][0])
	assert.Equal(t, "0", rows[2][8])
	assert.Equal(t, "Total", rows[3][0])
	assert.Equal(t, "2", rows[3][8])

	overview, err := f.GetRows(SummarySheet)
	require.NoError(t, err)
	require.Len(t, overview, 6)
	assert.Equal(t, []string{"Periodo", "custom"}, overview[0])
	assert.Equal(t, []string{"Días con registros", "1"}, overview[4])
}

func TestFilename(t *testing.T) {
	s := &models.PeriodSummary{StartDate: "2024-03-01", EndDate: "2024-03-31"}
	assert.Equal(t, "resumen_2024-03-01_2024-03-31.xlsx", Filename(s))
}

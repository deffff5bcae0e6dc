package models

// DailySummary is the reporting shape for one calendar day.
type DailySummary struct {
	Date          string         `json:"date"`
	Totals        Totals         `json:"totals"`
	Count         int            `json:"count"`
	GoalsProgress *GoalsProgress `json:"goals_progress"`
}

// GoalProgress compares a consumed amount against its target.
type GoalProgress struct {
	Consumed   float64 `json:"consumed"`
	Goal       float64 `json:"goal"`
	Percentage float64 `json:"percentage"`
}

// GoalsProgress reports the four goal-bearing fields.
type GoalsProgress struct {
	Calories GoalProgress `json:"calories"`
	Protein  GoalProgress `json:"protein"`
	Carbs    GoalProgress `json:"carbs"`
	Fat      GoalProgress `json:"fat"`
}

// DayBreakdown is one entry of a period's per-day list.
type DayBreakdown struct {
	Date   string `json:"date"`
	Totals Totals `json:"totals"`
	Count  int    `json:"count"`
}

// PeriodSummary is the reporting shape for a date range.
type PeriodSummary struct {
	Period          string         `json:"period"`
	StartDate       string         `json:"start_date"`
	EndDate         string         `json:"end_date"`
	Days            []DayBreakdown `json:"daily_summary"`
	PeriodTotals    Totals         `json:"period_totals"`
	TotalCount      int            `json:"total_count"`
	DaysInPeriod    int            `json:"days_in_period"`
	DaysWithRecords int            `json:"days_with_records"`
}

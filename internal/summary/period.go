// Package summary computes daily and period nutrition summaries and progress against goals.
package summary

import (
	"fmt"
	"strings"
	"time"

	"github.com/fikafood/fika/internal/models"
)

// Period names accepted by ResolvePeriod.
const (
	PeriodToday     = "today"
	PeriodYesterday = "yesterday"
	PeriodWeek      = "week"
	PeriodThisWeek  = "this_week"
	PeriodLastWeek  = "last_week"
	PeriodMonth     = "month"
	PeriodThisMonth = "this_month"
	PeriodLastMonth = "last_month"
	PeriodCustom    = "custom"
)

// Range is an inclusive span of civil dates. Start and End are midnight in the
// location they were resolved in.
type Range struct {
	Name  string
	Start time.Time
	End   time.Time
}

// Days returns the number of calendar days in the range.
func (r Range) Days() int {
	n := 0
	for d := r.Start; !d.After(r.End); d = d.AddDate(0, 0, 1) {
		n++
	}
	return n
}

// ResolvePeriod turns a period name or explicit dates into a date range relative to
// now. An empty name means custom when either date is given and week otherwise.
func ResolvePeriod(name, startDate, endDate string, now time.Time) (Range, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		if startDate != "" || endDate != "" {
			name = PeriodCustom
		} else {
			name = PeriodWeek
		}
	}

	today := dayStart(now)
	switch name {
	case PeriodToday:
		return Range{name, today, today}, nil
	case PeriodYesterday:
		y := today.AddDate(0, 0, -1)
		return Range{name, y, y}, nil
	case PeriodWeek, PeriodThisWeek:
		mon := weekStart(today)
		return Range{name, mon, mon.AddDate(0, 0, 6)}, nil
	case PeriodLastWeek:
		mon := weekStart(today).AddDate(0, 0, -7)
		return Range{name, mon, mon.AddDate(0, 0, 6)}, nil
	case PeriodMonth, PeriodThisMonth:
		first := monthStart(today)
		return Range{name, first, first.AddDate(0, 1, -1)}, nil
	case PeriodLastMonth:
		first := monthStart(today).AddDate(0, -1, 0)
		return Range{name, first, first.AddDate(0, 1, -1)}, nil
	case PeriodCustom:
		return customRange(startDate, endDate, now.Location())
	}
	return Range{}, fmt.Errorf("%w: %q", models.ErrInvalidPeriod, name)
}

func customRange(startDate, endDate string, loc *time.Location) (Range, error) {
	if strings.TrimSpace(startDate) == "" {
		return Range{}, models.NewMissingParameterError("start_date")
	}
	if strings.TrimSpace(endDate) == "" {
		return Range{}, models.NewMissingParameterError("end_date")
	}
	start, err := ParseDate("start_date", startDate, loc)
	if err != nil {
		return Range{}, err
	}
	end, err := ParseDate("end_date", endDate, loc)
	if err != nil {
		return Range{}, err
	}
	if end.Before(start) {
		return Range{}, models.NewInvalidDateError("end_date", "must not be before start_date")
	}
	return Range{PeriodCustom, start, end}, nil
}

// ParseDate parses a YYYY-MM-DD value as midnight in loc.
func ParseDate(param, value string, loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation(models.DateLayout, strings.TrimSpace(value), loc)
	if err != nil {
		return time.Time{}, models.NewInvalidDateError(param, "expected YYYY-MM-DD")
	}
	return d, nil
}

func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func weekStart(day time.Time) time.Time {
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

func monthStart(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, day.Location())
}

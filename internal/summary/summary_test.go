package summary

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fikafood/fika/internal/models"
)

type memStore struct {
	records []*models.Record
	goals   models.GoalSet
}

func (m *memStore) match(f models.RecordFilter) []*models.Record {
	var out []*models.Record
	for _, r := range m.records {
		if r.UserID != f.UserID {
			continue
		}
		if f.Status != "" && r.Status != f.Status {
			continue
		}
		if !f.From.IsZero() && r.CreatedAt.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && !r.CreatedAt.Before(f.To) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func (m *memStore) SumTotals(_ context.Context, f models.RecordFilter) (models.Totals, int, error) {
	var t models.Totals
	rs := m.match(f)
	for _, r := range rs {
		t.Add(r.Totals)
	}
	return t, len(rs), nil
}

func (m *memStore) FindRecords(_ context.Context, f models.RecordFilter) ([]*models.Record, error) {
	return m.match(f), nil
}

func (m *memStore) GetGoals(context.Context, string) (models.GoalSet, error) { return m.goals, nil }

// Wednesday.
var now = time.Date(2024, 3, 13, 15, 0, 0, 0, time.UTC)

func rec(user string, status models.Status, at time.Time, cal, prot float64) *models.Record {
	return &models.Record{
		UserID:    user,
		Status:    status,
		CreatedAt: at,
		Totals:    models.Totals{Calories: cal, Protein: prot, Carbs: 10.05, Fat: 1, Fiber: 2, Sugar: 3, Sodium: 100},
	}
}

func newAgg(store Store) *Aggregator {
	return NewAggregator(store, WithLocation(time.UTC), WithClock(func() time.Time { return now }))
}

func day(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

func TestResolvePeriod(t *testing.T) {
	tests := []struct {
		name, period, start, end string
		wantStart, wantEnd       string
		wantName                 string
	}{
		{"week", "week", "", "", "2024-03-11", "2024-03-17", "week"},
		{"this_week", "this_week", "", "", "2024-03-11", "2024-03-17", "this_week"},
		{"last_week", "last_week", "", "", "2024-03-04", "2024-03-10", "last_week"},
		{"month", "month", "", "", "2024-03-01", "2024-03-31", "month"},
		{"last_month", "last_month", "", "", "2024-02-01", "2024-02-29", "last_month"},
		{"today", "today", "", "", "2024-03-13", "2024-03-13", "today"},
		{"yesterday", "yesterday", "", "", "2024-03-12", "2024-03-12", "yesterday"},
		{"custom", "custom", "2024-01-30", "2024-02-02", "2024-01-30", "2024-02-02", "custom"},
		{"empty defaults to week", "", "", "", "2024-03-11", "2024-03-17", "week"},
		{"empty with dates is custom", "", "2024-03-01", "2024-03-02", "2024-03-01", "2024-03-02", "custom"},
		{"case insensitive", "WEEK", "", "", "2024-03-11", "2024-03-17", "week"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := ResolvePeriod(tt.period, tt.start, tt.end, now)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStart, r.Start.Format(models.DateLayout))
			assert.Equal(t, tt.wantEnd, r.End.Format(models.DateLayout))
			assert.Equal(t, tt.wantName, r.Name)
		})
	}
}

func TestResolvePeriod_Boundaries(t *testing.T) {
	// Sunday belongs to the week that started the previous Monday.
	r, err := ResolvePeriod("week", "", "", time.Date(2024, 3, 17, 23, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "2024-03-11", r.Start.Format(models.DateLayout))

	// December rolls over into January.
	r, err = ResolvePeriod("month", "", "", time.Date(2024, 12, 5, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "2024-12-31", r.End.Format(models.DateLayout))

	r, err = ResolvePeriod("last_month", "", "", time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "2024-12-01", r.Start.Format(models.DateLayout))
	assert.Equal(t, "2024-12-31", r.End.Format(models.DateLayout))

	r, err = ResolvePeriod("week", "", "", time.Date(2024, 12, 31, 8, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "2024-12-30", r.Start.Format(models.DateLayout))
	assert.Equal(t, "2025-01-05", r.End.Format(models.DateLayout))
}

func TestResolvePeriod_Errors(t *testing.T) {
	_, err := ResolvePeriod("custom", "2024-03-01", "", now)
	assert.ErrorIs(t, err, models.ErrMissingParameter)
	var fe *models.FieldError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "end_date", fe.Field)

	_, err = ResolvePeriod("custom", "", "2024-03-01", now)
	assert.ErrorIs(t, err, models.ErrMissingParameter)

	_, err = ResolvePeriod("custom", "2024-13-01", "2024-03-01", now)
	assert.ErrorIs(t, err, models.ErrInvalidDate)

	_, err = ResolvePeriod("custom", "2024-03-05", "01/03/2024", now)
	assert.ErrorIs(t, err, models.ErrInvalidDate)

	_, err = ResolvePeriod("custom", "2024-03-05", "2024-03-01", now)
	assert.ErrorIs(t, err, models.ErrInvalidDate)

	_, err = ResolvePeriod("fortnight", "", "", now)
	assert.ErrorIs(t, err, models.ErrInvalidPeriod)
}

func TestDaily(t *testing.T) {
	store := &memStore{
		records: []*models.Record{
			rec("u1", models.StatusCompleted, now.Add(-time.Hour), 1000, 40),
			rec("u1", models.StatusCompleted, day(2024, 3, 13), 500, 20),
			rec("u1", models.StatusFailed, now, 900, 10),
			rec("u1", models.StatusAnalyzing, now, 900, 10),
			rec("u1", models.StatusCompleted, day(2024, 3, 12), 700, 10),
			rec("u2", models.StatusCompleted, now, 300, 10),
		},
		goals: models.GoalSet{Calories: 2000, Protein: 150, Carbs: 250, Fat: 67},
	}
	s, err := newAgg(store).Daily(context.Background(), "u1", "")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-13", s.Date)
	assert.Equal(t, 2, s.Count)
	assert.Equal(t, 1500.0, s.Totals.Calories)
	assert.Equal(t, 20.1, s.Totals.Carbs)
	require.NotNil(t, s.GoalsProgress)
	assert.Equal(t, 75.0, s.GoalsProgress.Calories.Percentage)
	assert.Equal(t, 1500.0, s.GoalsProgress.Calories.Consumed)
	assert.Equal(t, 2000.0, s.GoalsProgress.Calories.Goal)
	assert.Equal(t, 40.0, s.GoalsProgress.Protein.Percentage)

	s, err = newAgg(store).Daily(context.Background(), "u1", "2024-03-12")
	require.NoError(t, err)
	assert.Equal(t, 1, s.Count)
	assert.Equal(t, 700.0, s.Totals.Calories)
}

func TestDaily_EmptyAndNoGoals(t *testing.T) {
	store := &memStore{goals: models.GoalSet{Calories: 2000, Protein: 150, Carbs: 250}}
	s, err := newAgg(store).Daily(context.Background(), "u1", "2024-01-01")
	require.NoError(t, err)
	assert.Equal(t, 0, s.Count)
	assert.Equal(t, models.Totals{}, s.Totals)
	assert.Nil(t, s.GoalsProgress, "partial goals count as absent")

	_, err = newAgg(store).Daily(context.Background(), "u1", "ayer")
	assert.ErrorIs(t, err, models.ErrInvalidDate)
	_, err = newAgg(store).Daily(context.Background(), "", "")
	assert.ErrorIs(t, err, models.ErrMissingParameter)
}

func TestProgress(t *testing.T) {
	p := Progress(models.Totals{Calories: 1500, Protein: 100, Carbs: 83.33, Fat: 0}, models.GoalSet{Calories: 2000, Protein: 150, Carbs: 250, Fat: 67})
	require.NotNil(t, p)
	assert.Equal(t, 75.0, p.Calories.Percentage)
	assert.Equal(t, 66.7, p.Protein.Percentage)
	assert.Equal(t, 33.3, p.Carbs.Percentage)
	assert.Equal(t, 0.0, p.Fat.Percentage)
	assert.Nil(t, Progress(models.Totals{}, models.GoalSet{}))
}

func TestPeriod(t *testing.T) {
	store := &memStore{records: []*models.Record{
		rec("u1", models.StatusCompleted, day(2024, 3, 11).Add(8*time.Hour), 400, 20),
		rec("u1", models.StatusCompleted, day(2024, 3, 11).Add(20*time.Hour), 600, 30),
		rec("u1", models.StatusCompleted, day(2024, 3, 14), 800, 25),
		rec("u1", models.StatusReviewing, day(2024, 3, 14), 999, 1),
		rec("u1", models.StatusCompleted, day(2024, 3, 18), 999, 1),
		rec("u1", models.StatusCompleted, day(2024, 3, 10).Add(23*time.Hour), 999, 1),
	}}
	s, err := newAgg(store).Period(context.Background(), "u1", PeriodRequest{Period: "week"})
	require.NoError(t, err)

	assert.Equal(t, "week", s.Period)
	assert.Equal(t, "2024-03-11", s.StartDate)
	assert.Equal(t, "2024-03-17", s.EndDate)
	assert.Equal(t, 7, s.DaysInPeriod)
	require.Len(t, s.Days, 7)
	assert.Equal(t, 3, s.TotalCount)
	assert.Equal(t, 2, s.DaysWithRecords)
	assert.Equal(t, 1800.0, s.PeriodTotals.Calories)

	assert.Equal(t, "2024-03-11", s.Days[0].Date)
	assert.Equal(t, 2, s.Days[0].Count)
	assert.Equal(t, 1000.0, s.Days[0].Totals.Calories)
	assert.Equal(t, "2024-03-12", s.Days[1].Date)
	assert.Equal(t, 0, s.Days[1].Count)
	assert.Equal(t, models.Totals{}, s.Days[1].Totals)
	assert.Equal(t, 1, s.Days[3].Count)

	var sum models.Totals
	for _, d := range s.Days {
		sum.Add(d.Totals)
	}
	assert.InDelta(t, s.PeriodTotals.Calories, sum.Calories, 0.001)
	assert.InDelta(t, s.PeriodTotals.Protein, sum.Protein, 0.001)
	assert.InDelta(t, s.PeriodTotals.Sodium, sum.Sodium, 0.001)
}

func TestPeriod_AccumulatesUnrounded(t *testing.T) {
	var records []*models.Record
	for i := 0; i < 10; i++ {
		records = append(records, rec("u1", models.StatusCompleted, day(2024, 3, 1).AddDate(0, 0, i), 100, 0.04))
	}
	s, err := newAgg(&memStore{records: records}).Period(context.Background(), "u1",
		PeriodRequest{Period: "custom", StartDate: "2024-03-01", EndDate: "2024-03-10"})
	require.NoError(t, err)
	assert.Equal(t, 0.4, s.PeriodTotals.Protein)
	assert.Equal(t, 0.0, s.Days[0].Totals.Protein)
	assert.Equal(t, 10, s.DaysInPeriod)
}

// Days are rounded one by one and the period total is rounded once from the raw
// sums, so the two can disagree by up to half a unit of the last place per day.
func TestPeriod_DaySumWithinRoundingOfTotal(t *testing.T) {
	var records []*models.Record
	for i := 0; i < 3; i++ {
		records = append(records, rec("u1", models.StatusCompleted, day(2024, 3, 1).AddDate(0, 0, i), 100.05, 0.05))
	}
	s, err := newAgg(&memStore{records: records}).Period(context.Background(), "u1",
		PeriodRequest{Period: "custom", StartDate: "2024-03-01", EndDate: "2024-03-03"})
	require.NoError(t, err)

	var protein, calories float64
	for _, d := range s.Days {
		protein += d.Totals.Protein
		calories += d.Totals.Calories
	}
	tolerance := 0.05*float64(s.DaysWithRecords) + 1e-9
	assert.InDelta(t, protein, s.PeriodTotals.Protein, tolerance)
	assert.InDelta(t, calories, s.PeriodTotals.Calories, tolerance)
	assert.InDelta(t, 0.15, s.PeriodTotals.Protein, 0.05+1e-9, "total comes from the raw sum")
}

func TestPeriod_LengthMatchesRange(t *testing.T) {
	agg := newAgg(&memStore{})
	for _, tc := range [][2]string{{"2024-02-01", "2024-02-29"}, {"2024-01-01", "2024-01-01"}, {"2023-12-25", "2024-01-07"}} {
		s, err := agg.Period(context.Background(), "u1", PeriodRequest{StartDate: tc[0], EndDate: tc[1]})
		require.NoError(t, err)
		start, _ := time.Parse(models.DateLayout, tc[0])
		end, _ := time.Parse(models.DateLayout, tc[1])
		want := int(end.Sub(start).Hours()/24) + 1
		assert.Len(t, s.Days, want)
		assert.Equal(t, want, s.DaysInPeriod)
		assert.Equal(t, 0, s.DaysWithRecords)
	}
}

func TestPeriod_Errors(t *testing.T) {
	agg := NewAggregator(&memStore{}, WithLocation(time.UTC), WithClock(func() time.Time { return now }), WithMaxPeriodDays(31))
	_, err := agg.Period(context.Background(), "u1", PeriodRequest{Period: "custom", StartDate: "2024-01-01"})
	assert.ErrorIs(t, err, models.ErrMissingParameter)

	_, err = agg.Period(context.Background(), "u1", PeriodRequest{Period: "year"})
	assert.ErrorIs(t, err, models.ErrInvalidPeriod)

	_, err = agg.Period(context.Background(), "u1", PeriodRequest{StartDate: "2024-01-01", EndDate: "2024-03-01"})
	assert.ErrorIs(t, err, models.ErrInvalidPeriod)
}

func TestPeriod_TimeZone(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	store := &memStore{records: []*models.Record{
		// 02:00 UTC on the 12th is still the 11th at UTC-5.
		rec("u1", models.StatusCompleted, time.Date(2024, 3, 12, 2, 0, 0, 0, time.UTC), 500, 0),
	}}
	agg := NewAggregator(store, WithLocation(loc), WithClock(func() time.Time { return now }))
	s, err := agg.Period(context.Background(), "u1", PeriodRequest{StartDate: "2024-03-11", EndDate: "2024-03-12"})
	require.NoError(t, err)
	assert.Equal(t, 1, s.Days[0].Count)
	assert.Equal(t, 0, s.Days[1].Count)
}

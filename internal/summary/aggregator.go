package summary

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fikafood/fika/internal/models"
)

// DefaultMaxPeriodDays bounds the length of a period summary.
const DefaultMaxPeriodDays = 366

// Store is the read side the aggregator needs.
type Store interface {
	SumTotals(ctx context.Context, f models.RecordFilter) (models.Totals, int, error)
	FindRecords(ctx context.Context, f models.RecordFilter) ([]*models.Record, error)
	GetGoals(ctx context.Context, userID string) (models.GoalSet, error)
}

// Aggregator builds summaries over completed records.
type Aggregator struct {
	store   Store
	loc     *time.Location
	now     func() time.Time
	maxDays int
	logger  *zap.Logger
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithLocation sets the zone calendar days are taken in.
func WithLocation(loc *time.Location) Option {
	return func(a *Aggregator) {
		if loc != nil {
			a.loc = loc
		}
	}
}

// WithClock sets the time source used for "today" and named periods.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) { a.now = now }
}

// WithMaxPeriodDays caps the number of days in a period.
func WithMaxPeriodDays(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.maxDays = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(a *Aggregator) {
		if l != nil {
			a.logger = l
		}
	}
}

// NewAggregator creates an aggregator reading from store.
func NewAggregator(store Store, opts ...Option) *Aggregator {
	a := &Aggregator{
		store:   store,
		loc:     time.Local,
		now:     time.Now,
		maxDays: DefaultMaxPeriodDays,
		logger:  zap.NewNop(),
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// PeriodRequest names a period or gives explicit dates.
type PeriodRequest struct {
	Period    string
	StartDate string
	EndDate   string
}

// Today returns the current civil date in the aggregator's zone.
func (a *Aggregator) Today() time.Time {
	return dayStart(a.now().In(a.loc))
}

// Daily sums the completed records of one day. An empty date means today.
func (a *Aggregator) Daily(ctx context.Context, userID, date string) (*models.DailySummary, error) {
	if userID == "" {
		return nil, models.NewMissingParameterError("user_id")
	}
	day := a.Today()
	if date != "" {
		d, err := ParseDate("date", date, a.loc)
		if err != nil {
			return nil, err
		}
		day = d
	}

	totals, count, err := a.store.SumTotals(ctx, a.filter(userID, day, day))
	if err != nil {
		return nil, fmt.Errorf("sum totals: %w", err)
	}
	goals, err := a.store.GetGoals(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load goals: %w", err)
	}

	return &models.DailySummary{
		Date:          day.Format(models.DateLayout),
		Totals:        totals.Rounded(),
		Count:         count,
		GoalsProgress: Progress(totals, goals),
	}, nil
}

// Period builds a per-day breakdown of completed records over the requested range.
// Every day in the range is present, including days without records.
func (a *Aggregator) Period(ctx context.Context, userID string, req PeriodRequest) (*models.PeriodSummary, error) {
	if userID == "" {
		return nil, models.NewMissingParameterError("user_id")
	}
	r, err := ResolvePeriod(req.Period, req.StartDate, req.EndDate, a.now().In(a.loc))
	if err != nil {
		return nil, err
	}
	days := r.Days()
	if days > a.maxDays {
		return nil, fmt.Errorf("%w: range of %d days exceeds %d", models.ErrInvalidPeriod, days, a.maxDays)
	}

	records, err := a.store.FindRecords(ctx, a.filter(userID, r.Start, r.End))
	if err != nil {
		return nil, fmt.Errorf("find records: %w", err)
	}

	type bucket struct {
		totals models.Totals
		count  int
	}
	idx := make(map[string]*bucket, days)
	for _, rec := range records {
		if rec.Status != models.StatusCompleted {
			continue
		}
		key := rec.CreatedAt.In(a.loc).Format(models.DateLayout)
		b, ok := idx[key]
		if !ok {
			b = &bucket{}
			idx[key] = b
		}
		b.totals.Add(rec.Totals)
		b.count++
	}

	out := &models.PeriodSummary{
		Period:       r.Name,
		StartDate:    r.Start.Format(models.DateLayout),
		EndDate:      r.End.Format(models.DateLayout),
		Days:         make([]models.DayBreakdown, 0, days),
		DaysInPeriod: days,
	}
	var total models.Totals
	for d := r.Start; !d.After(r.End); d = d.AddDate(0, 0, 1) {
		key := d.Format(models.DateLayout)
		entry := models.DayBreakdown{Date: key}
		if b, ok := idx[key]; ok {
			entry.Totals = b.totals.Rounded()
			entry.Count = b.count
			total.Add(b.totals)
			out.TotalCount += b.count
			out.DaysWithRecords++
		}
		out.Days = append(out.Days, entry)
	}
	out.PeriodTotals = total.Rounded()

	a.logger.Debug("period summary",
		zap.String("user_id", userID),
		zap.String("period", r.Name),
		zap.Int("days", days),
		zap.Int("records", out.TotalCount))
	return out, nil
}

// filter selects completed records whose creation time falls within [start, end+1 day).
func (a *Aggregator) filter(userID string, start, end time.Time) models.RecordFilter {
	return models.RecordFilter{
		UserID: userID,
		Status: models.StatusCompleted,
		From:   start,
		To:     end.AddDate(0, 0, 1),
	}
}

// Progress compares consumed totals with goals. It returns nil unless all four goals are set.
func Progress(consumed models.Totals, goals models.GoalSet) *models.GoalsProgress {
	if !models.GoalsActive(goals) {
		return nil
	}
	return &models.GoalsProgress{
		Calories: progress(consumed.Calories, goals.Calories),
		Protein:  progress(consumed.Protein, goals.Protein),
		Carbs:    progress(consumed.Carbs, goals.Carbs),
		Fat:      progress(consumed.Fat, goals.Fat),
	}
}

func progress(consumed float64, goal int) models.GoalProgress {
	p := models.GoalProgress{Consumed: models.Round1(consumed), Goal: float64(goal)}
	if goal > 0 {
		p.Percentage = models.Round1(consumed / float64(goal) * 100)
	}
	return p
}

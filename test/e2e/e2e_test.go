package e2e

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fikafood/fika/internal/ai"
	"github.com/fikafood/fika/internal/extract"
	"github.com/fikafood/fika/internal/keyword"
	"github.com/fikafood/fika/internal/mealplan"
	"github.com/fikafood/fika/internal/models"
	"github.com/fikafood/fika/internal/records"
	"github.com/fikafood/fika/internal/render"
	"github.com/fikafood/fika/internal/storage"
	"github.com/fikafood/fika/internal/summary"
)

const e2eSearchLimit = 30

var fakePhoto = []byte("\x89PNG\r\n\x1a\nfake image body")

type env struct {
	store   *storage.SQLiteStorage
	records *records.Service
	agg     *summary.Aggregator
	client  *ai.Mock
}

func newEnv(t *testing.T, meals []Meal) *env {
	t.Helper()
	dir := t.TempDir()

	store, err := storage.NewSQLiteStorage(filepath.Join(dir, "fika.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })

	images, err := storage.NewImageStore(filepath.Join(dir, "images"))
	if err != nil {
		t.Fatal(err)
	}
	index, err := keyword.NewBleveIndex(filepath.Join(dir, "bleve"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = index.Close() })

	client := ai.NewMock("")
	for _, m := range meals {
		client.On(m.Marker, m.Reply())
	}
	return &env{
		store: store,
		records: records.NewService(client, store, images,
			records.WithIndex(index),
			records.WithSpellChecker(keyword.NewSpellChecker(index))),
		agg:    summary.NewAggregator(store, summary.WithLocation(time.UTC)),
		client: client,
	}
}

func (e *env) user(t *testing.T, email string) *models.User {
	t.Helper()
	u := &models.User{Email: email}
	if err := e.store.CreateUser(context.Background(), u); err != nil {
		t.Fatal(err)
	}
	return u
}

func TestE2E_FoodLogSearchAndSummary(t *testing.T) {
	corpus := BuildCorpus(30)
	e := newEnv(t, corpus.Meals)
	ctx := context.Background()
	ana := e.user(t, "ana@example.com")
	luis := e.user(t, "luis@example.com")

	for _, m := range corpus.Meals {
		r, err := e.records.Create(ctx, ana.ID, "plato.png", fakePhoto, m.Description)
		if err != nil {
			t.Fatalf("create %s: %v", m.Marker, err)
		}
		if r.Status != models.StatusCompleted || r.AIDescription != m.Dish {
			t.Fatalf("record %s = %s/%q, want completed %q", m.Marker, r.Status, r.AIDescription, m.Dish)
		}
	}
	if got := e.client.CallCount(); got != corpus.TotalMeals {
		t.Errorf("model calls = %d, want %d", got, corpus.TotalMeals)
	}

	for _, tc := range corpus.TestCases {
		tc := tc
		t.Run(tc.Query, func(t *testing.T) {
			res, err := e.records.Search(ctx, ana.ID, tc.Query, e2eSearchLimit)
			if err != nil {
				t.Fatal(err)
			}
			found := false
			for _, r := range res.Results {
				if r.AIDescription == tc.ExpectedDish {
					found = true
				}
				if r.UserID != ana.ID {
					t.Errorf("result %s belongs to %s", r.ID, r.UserID)
				}
			}
			if !found {
				t.Errorf("%s: %q not in %d results", tc.Description, tc.ExpectedDish, len(res.Results))
			}

			other, err := e.records.Search(ctx, luis.ID, tc.Query, e2eSearchLimit)
			if err != nil {
				t.Fatal(err)
			}
			if len(other.Results) != 0 {
				t.Errorf("another user sees %d results", len(other.Results))
			}
		})
	}

	want := TotalsOf(corpus.Meals).Rounded()
	daily, err := e.agg.Daily(ctx, ana.ID, "")
	if err != nil {
		t.Fatal(err)
	}
	if daily.Count != corpus.TotalMeals {
		t.Errorf("daily count = %d, want %d", daily.Count, corpus.TotalMeals)
	}
	if daily.Totals != want {
		t.Errorf("daily totals = %+v, want %+v", daily.Totals, want)
	}

	week, err := e.agg.Period(ctx, ana.ID, summary.PeriodRequest{Period: "week"})
	if err != nil {
		t.Fatal(err)
	}
	if week.TotalCount != corpus.TotalMeals || week.DaysWithRecords != 1 || week.DaysInPeriod != 7 {
		t.Errorf("week = count %d, days with records %d, days %d", week.TotalCount, week.DaysWithRecords, week.DaysInPeriod)
	}
	if week.PeriodTotals != want {
		t.Errorf("week totals = %+v, want %+v", week.PeriodTotals, want)
	}

	empty, err := e.agg.Daily(ctx, luis.ID, "")
	if err != nil {
		t.Fatal(err)
	}
	if empty.Count != 0 || empty.Totals != (models.Totals{}) {
		t.Errorf("other user daily = %+v", empty)
	}
}

func TestE2E_DeletedRecordsLeaveSearchAndSummary(t *testing.T) {
	corpus := BuildCorpus(len(catalogue))
	e := newEnv(t, corpus.Meals)
	ctx := context.Background()
	ana := e.user(t, "ana@example.com")

	var first *models.Record
	for i, m := range corpus.Meals {
		r, err := e.records.Create(ctx, ana.ID, "plato.jpg", fakePhoto, m.Description)
		if err != nil {
			t.Fatal(err)
		}
		if i == 0 {
			first = r
		}
	}
	if err := e.records.Delete(ctx, ana.ID, first.ID); err != nil {
		t.Fatal(err)
	}

	res, err := e.records.Search(ctx, ana.ID, corpus.TestCases[0].Query, e2eSearchLimit)
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range res.Results {
		if r.ID == first.ID {
			t.Error("deleted record still searchable")
		}
	}

	daily, err := e.agg.Daily(ctx, ana.ID, "")
	if err != nil {
		t.Fatal(err)
	}
	want := TotalsOf(corpus.Meals[1:]).Rounded()
	if daily.Count != len(corpus.Meals)-1 || daily.Totals != want {
		t.Errorf("daily = %d records %+v, want %d %+v", daily.Count, daily.Totals, len(corpus.Meals)-1, want)
	}
}

// TestE2E_PlanDocumentsRoundTrip imports a plan from every document format, renders
// it in both styles and reads it back.
func TestE2E_PlanDocumentsRoundTrip(t *testing.T) {
	lines := WeekPlanLines()
	ex := extract.NewExtractor()

	for _, ext := range PlanExtensions {
		ext := ext
		t.Run(ext, func(t *testing.T) {
			content, err := PlanDocument(ext, lines)
			if err != nil {
				t.Fatal(err)
			}
			text, err := ex.ExtractBytes(content, ext)
			if err != nil {
				t.Fatal(err)
			}
			plan := mealplan.LabeledParser{}.Parse(text)
			if len(plan.Days) != models.PlanLength {
				t.Fatalf("days = %d, want %d", len(plan.Days), models.PlanLength)
			}
			if squash(plan.Days[0].Breakfast) != squash("Avena con banana") {
				t.Errorf("day 1 breakfast = %q", plan.Days[0].Breakfast)
			}
			if squash(plan.Days[6].Dinner) != squash("Ensalada caprese") {
				t.Errorf("day 7 dinner = %q", plan.Days[6].Dinner)
			}
			if plan.Note == "" {
				t.Error("note not parsed")
			}

			start, end := models.PlanDates(time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC))
			doc := render.NewDocument(&models.MealPlan{StartDate: start, EndDate: end, Plan: plan}, nil)
			for _, style := range []render.Style{render.StylePlain, render.StyleStyled} {
				var buf bytes.Buffer
				if err := render.New(style).Render(&buf, doc); err != nil {
					t.Fatal(err)
				}
				out, err := render.ExtractText(buf.Bytes())
				if err != nil {
					t.Fatal(err)
				}
				flat := squash(out)
				for _, d := range plan.Days {
					for _, meal := range []string{d.Breakfast, d.Lunch, d.Dinner} {
						if meal == "" {
							continue
						}
						if !strings.Contains(flat, squash(meal)) {
							t.Errorf("%s PDF missing %q", style, meal)
						}
					}
				}
			}
		})
	}
}

// Package integration provides end-to-end tests (requires real storage and indices).
package integration

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/fikafood/fika/internal/ai"
	"github.com/fikafood/fika/internal/chat"
	"github.com/fikafood/fika/internal/export"
	"github.com/fikafood/fika/internal/keyword"
	"github.com/fikafood/fika/internal/mealplan"
	"github.com/fikafood/fika/internal/models"
	"github.com/fikafood/fika/internal/records"
	"github.com/fikafood/fika/internal/render"
	"github.com/fikafood/fika/internal/storage"
	"github.com/fikafood/fika/internal/summary"
	"github.com/fikafood/fika/internal/watcher"
)

const lunchReply = "```json\n" + `{
  "ai_description": "Arroz con pollo",
  "ai_confidence": 0.9,
  "estimated_weight": 350,
  "total_calories": 520,
  "total_protein": 35,
  "total_carbs": 60,
  "total_fat": 12,
  "total_fiber": 3,
  "total_sugar": 2,
  "total_sodium": 640,
  "food_items": [
    {"name": "arroz", "category": "Cereal", "estimated_quantity": 200, "calories": 260},
    {"name": "pollo", "category": "Carne", "estimated_quantity": 150, "calories": 260}
  ]
}` + "\n```"

const weekPlanReply = `Aquí tienes tu plan:
**Día 1**
Desayuno: Avena con banana
Almuerzo: Pollo con arroz
Cena: Sopa de verduras
**Día 2**
Desayuno: Yogur con granola
Almuerzo: Lentejas guisadas
Cena: Tortilla de verduras
Nota: Beber dos litros de agua`

const goalsReply = "Calorías: 2000\nProteína: 150g\nCarbohidratos: 250g\nGrasa: 67g"

func TestIntegration_InboxToSummaryExportAndPlan(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	day := time.Now().UTC()

	store, err := storage.NewSQLiteStorage(filepath.Join(dir, "fika.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	images, err := storage.NewImageStore(filepath.Join(dir, "images"))
	if err != nil {
		t.Fatal(err)
	}
	index, err := keyword.NewBleveIndex(filepath.Join(dir, "bleve"))
	if err != nil {
		t.Fatal(err)
	}
	defer index.Close()

	client := ai.NewMock(goalsReply).
		On("Analiza esta imagen", lunchReply).
		On("Genera un plan alimenticio", weekPlanReply)

	recordSvc := records.NewService(client, store, images, records.WithIndex(index))
	agg := summary.NewAggregator(store, summary.WithLocation(time.UTC))
	chatSvc := chat.NewService(client, store)
	planSvc := mealplan.NewService(client, store)

	u := &models.User{Email: "ana@example.com", FirstName: "Ana", Weight: 62, Height: 165}
	if err := store.CreateUser(ctx, u); err != nil {
		t.Fatal(err)
	}

	// Goals come from the nutrition chat.
	reply, err := chatSvc.Send(ctx, u, "", "Genera mis metas nutricionales")
	if err != nil {
		t.Fatal(err)
	}
	if !reply.GoalsSaved || !strings.HasSuffix(reply.Reply, chat.GoalsSavedSuffix) {
		t.Fatalf("goals not saved: %q", reply.Reply)
	}

	// A photo dropped in the user's inbox folder becomes a record.
	inboxRoot := filepath.Join(dir, "inbox")
	photo := filepath.Join(inboxRoot, u.ID, "almuerzo.jpg")
	if err := os.MkdirAll(filepath.Dir(photo), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(photo, []byte("\xff\xd8\xff fake jpeg"), 0644); err != nil {
		t.Fatal(err)
	}
	inbox := watcher.NewInbox(inboxRoot, watcher.DefaultExtensions, recordSvc)
	if n := inbox.SyncExisting(ctx); n != 1 {
		t.Fatalf("SyncExisting = %d, want 1", n)
	}
	if _, err := os.Stat(photo); !os.IsNotExist(err) {
		t.Errorf("consumed photo still present: %v", err)
	}

	list, err := recordSvc.List(ctx, u.ID, models.Page{Limit: 10})
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].Status != models.StatusCompleted || len(list[0].Items) != 2 {
		t.Fatalf("records = %+v", list)
	}
	found, err := recordSvc.Search(ctx, u.ID, "pollo", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(found.Results) != 1 {
		t.Errorf("search results = %d, want 1", len(found.Results))
	}

	daily, err := agg.Daily(ctx, u.ID, day.Format(models.DateLayout))
	if err != nil {
		t.Fatal(err)
	}
	if daily.Count != 1 || daily.Totals.Calories != 520 {
		t.Errorf("daily = %+v", daily)
	}
	if daily.GoalsProgress == nil || daily.GoalsProgress.Calories.Percentage != 26 {
		t.Errorf("goals progress = %+v", daily.GoalsProgress)
	}

	week, err := agg.Period(ctx, u.ID, summary.PeriodRequest{Period: "week"})
	if err != nil {
		t.Fatal(err)
	}
	var xlsx bytes.Buffer
	if err := export.PeriodXLSX(&xlsx, week); err != nil {
		t.Fatal(err)
	}
	f, err := excelize.OpenReader(&xlsx)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := f.GetRows(export.DailySheet)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1+7+1 {
		t.Fatalf("rows = %d, want header, 7 days and totals", len(rows))
	}
	totals := rows[len(rows)-1]
	if totals[0] != "Total" || totals[1] != "520" || totals[8] != "1" {
		t.Errorf("totals row = %v", totals)
	}

	// A generated plan renders to a PDF holding every meal.
	plan, err := planSvc.Generate(ctx, u)
	if err != nil {
		t.Fatal(err)
	}
	if len(plan.Plan.Days) != 2 || plan.Plan.Note != "Beber dos litros de agua" {
		t.Fatalf("plan = %+v", plan.Plan)
	}
	stored, err := store.GetMealPlan(ctx, u.ID, plan.ID)
	if err != nil {
		t.Fatal(err)
	}
	var pdf bytes.Buffer
	if err := render.New(render.StyleStyled).Render(&pdf, render.NewDocument(stored, u)); err != nil {
		t.Fatal(err)
	}
	text, err := render.ExtractText(pdf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	flat := strings.Join(strings.Fields(text), "")
	for _, want := range []string{"Avenaconbanana", "Lentejasguisadas", "Tortilladeverduras", "Beberdoslitrosdeagua"} {
		if !strings.Contains(flat, want) {
			t.Errorf("PDF missing %q", want)
		}
	}
}

package keyword

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/fikafood/fika/internal/models"
)

func newTestIndex(t *testing.T) *BleveIndex {
	t.Helper()
	idx, err := NewBleveIndex(filepath.Join(t.TempDir(), "bleve"))
	if err != nil {
		t.Fatalf("NewBleveIndex: %v", err)
	}
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func seed(t *testing.T, idx *BleveIndex) {
	t.Helper()
	ctx := context.Background()
	records := []*models.Record{
		{ID: "r1", UserID: "u1", Description: "almuerzo en casa", AIDescription: "Plato de arroz con pollo",
			Items: []*models.FoodItem{{Name: "arroz", Category: "Cereal"}, {Name: "pollo", Category: "Proteína"}}},
		{ID: "r2", UserID: "u1", Description: "cena", AIDescription: "Ensalada verde",
			Items: []*models.FoodItem{{Name: "lechuga"}, {Name: "tomate"}}},
		{ID: "r3", UserID: "u2", Description: "pollo frito", AIDescription: "Pollo con papas"},
	}
	for _, r := range records {
		if err := idx.IndexRecord(ctx, r); err != nil {
			t.Fatalf("IndexRecord: %v", err)
		}
	}
}

func ids(hits []*Hit) map[string]bool {
	out := make(map[string]bool, len(hits))
	for _, h := range hits {
		out[h.ID] = true
	}
	return out
}

func TestBleveIndex_SearchIsScopedToUser(t *testing.T) {
	idx := newTestIndex(t)
	seed(t, idx)
	ctx := context.Background()

	hits, err := idx.Search(ctx, "u1", "pollo", 10, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 || hits[0].ID != "r1" {
		t.Fatalf("expected only r1, got %v", ids(hits))
	}

	hits, _ = idx.Search(ctx, "u2", "pollo", 10, nil)
	if len(hits) != 1 || hits[0].ID != "r3" {
		t.Errorf("expected only r3 for u2, got %v", ids(hits))
	}
}

func TestBleveIndex_SearchMatchesAnyField(t *testing.T) {
	idx := newTestIndex(t)
	seed(t, idx)
	ctx := context.Background()

	for _, q := range []string{"ENSALADA", "tomate", "cena"} {
		hits, err := idx.Search(ctx, "u1", q, 10, nil)
		if err != nil {
			t.Fatalf("Search %q: %v", q, err)
		}
		if !ids(hits)["r2"] {
			t.Errorf("query %q should find r2, got %v", q, ids(hits))
		}
	}

	hits, _ := idx.Search(ctx, "u1", "cereal", 10, nil)
	if !ids(hits)["r1"] {
		t.Error("item categories should be searchable")
	}
}

func TestBleveIndex_Fuzzy(t *testing.T) {
	idx := newTestIndex(t)
	seed(t, idx)
	ctx := context.Background()

	hits, _ := idx.Search(ctx, "u1", "lechugq", 10, nil)
	if len(hits) != 0 {
		t.Errorf("exact search should not match a typo, got %v", ids(hits))
	}
	hits, err := idx.Search(ctx, "u1", "lechugq", 10, &SearchOptions{FuzzyEnabled: true})
	if err != nil {
		t.Fatal(err)
	}
	if !ids(hits)["r2"] {
		t.Errorf("fuzzy search should find r2, got %v", ids(hits))
	}
}

func TestBleveIndex_EmptyQuery(t *testing.T) {
	idx := newTestIndex(t)
	seed(t, idx)
	hits, err := idx.Search(context.Background(), "u1", "   ", 10, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 0 {
		t.Errorf("expected no hits, got %d", len(hits))
	}
}

func TestBleveIndex_DeleteAndCount(t *testing.T) {
	idx := newTestIndex(t)
	seed(t, idx)
	ctx := context.Background()

	n, err := idx.DocCount()
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("DocCount = %d, want 3", n)
	}
	if err := idx.Delete(ctx, "r2"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	hits, _ := idx.Search(ctx, "u1", "ensalada", 10, nil)
	if len(hits) != 0 {
		t.Errorf("expected 0 results after delete, got %d", len(hits))
	}
}

func TestBleveIndex_Vocabulary(t *testing.T) {
	idx := newTestIndex(t)
	seed(t, idx)

	terms, err := idx.GetAllTerms()
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, term := range terms {
		if term == "lechuga" {
			found = true
		}
	}
	if !found {
		t.Errorf("vocabulary should contain lechuga, got %v", terms)
	}

	freq, err := idx.GetTermFrequency("pollo")
	if err != nil {
		t.Fatal(err)
	}
	if freq != 2 {
		t.Errorf("pollo frequency = %d, want 2", freq)
	}

	sc := NewSpellChecker(idx)
	if got := sc.SuggestedQuery("lechugq"); got != "lechuga" {
		t.Errorf("SuggestedQuery = %q, want lechuga", got)
	}
}

func TestNewBleveIndex_ReopensExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "bleve")
	idx, err := NewBleveIndex(path)
	if err != nil {
		t.Fatalf("NewBleveIndex: %v", err)
	}
	if err := idx.IndexRecord(context.Background(), &models.Record{ID: "r1", UserID: "u1", Description: "avena"}); err != nil {
		t.Fatal(err)
	}
	_ = idx.Close()

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("index path should exist: %v", err)
	}

	idx, err = NewBleveIndex(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer idx.Close()
	hits, _ := idx.Search(context.Background(), "u1", "avena", 10, nil)
	if len(hits) != 1 {
		t.Errorf("reopened index should keep documents, got %d hits", len(hits))
	}
}

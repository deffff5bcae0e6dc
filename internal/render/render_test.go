package render

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"unicode"

	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fikafood/fika/internal/models"
)

func sampleDocument() Document {
	var plan models.PlanContent
	plan.Set(models.DayPlan{Day: 2, Breakfast: "Yogur con granola", Lunch: "Lentejas guisadas", Dinner: "Tortilla de verduras"})
	plan.Set(models.DayPlan{Day: 1, Breakfast: "Avena con banana", Lunch: "Pollo con arroz", Dinner: "Salmon al horno"})
	plan.Note = "Beber dos litros de agua"
	return NewDocument(&models.MealPlan{
		ID:        "plan-1",
		StartDate: "2024-03-11",
		EndDate:   "2024-03-17",
		Plan:      plan,
	}, &models.User{Email: "ana@example.com", FirstName: "Ana", LastName: "Lopez"})
}

func squash(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

func renderBytes(t *testing.T, style Style, doc Document) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, New(style).Render(&buf, doc))
	require.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	return buf.Bytes()
}

func pageCount(t *testing.T, data []byte) int {
	t.Helper()
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	return r.NumPage()
}

func TestRenderers_SameContent(t *testing.T) {
	doc := sampleDocument()
	want := []string{
		"Plan alimenticio semanal",
		"Usuario: Ana Lopez",
		"Del 2024-03-11 al 2024-03-17",
		"Desayuno:", "Almuerzo:", "Cena:",
		"Avena con banana", "Pollo con arroz", "Salmon al horno",
		"Yogur con granola", "Lentejas guisadas", "Tortilla de verduras",
		"Notas", "Beber dos litros de agua",
	}
	for _, style := range []Style{StylePlain, StyleStyled} {
		t.Run(style.String(), func(t *testing.T) {
			text, err := ExtractText(renderBytes(t, style, doc))
			require.NoError(t, err)
			flat := squash(text)
			for _, w := range want {
				assert.Contains(t, flat, squash(w))
			}
			// Day one is drawn before day two.
			assert.Less(t, strings.Index(flat, "Avenaconbanana"), strings.Index(flat, "Yogurcongranola"))
		})
	}
}

func TestRenderers_OmitNotesWhenEmpty(t *testing.T) {
	doc := sampleDocument()
	doc.Plan.Note = "  "
	for _, style := range []Style{StylePlain, StyleStyled} {
		text, err := ExtractText(renderBytes(t, style, doc))
		require.NoError(t, err)
		assert.NotContains(t, text, "Notas", style.String())
	}
}

func TestRenderers_PaginateLongText(t *testing.T) {
	long := strings.Repeat("verduras asadas con aceite de oliva ", 300)
	var plan models.PlanContent
	for d := 1; d <= 7; d++ {
		plan.Set(models.DayPlan{Day: d, Breakfast: "Avena", Lunch: long, Dinner: "Sopa"})
	}
	doc := NewDocument(&models.MealPlan{StartDate: "2024-03-11", EndDate: "2024-03-17", Plan: plan}, nil)

	for _, style := range []Style{StylePlain, StyleStyled} {
		data := renderBytes(t, style, doc)
		assert.Greater(t, pageCount(t, data), 7, style.String())
	}
}

func TestRender_EmptyPlan(t *testing.T) {
	doc := NewDocument(&models.MealPlan{StartDate: "2024-03-11", EndDate: "2024-03-17"}, nil)
	for _, style := range []Style{StylePlain, StyleStyled} {
		data := renderBytes(t, style, doc)
		assert.Equal(t, 1, pageCount(t, data))
	}
}

func TestParseStyle(t *testing.T) {
	tests := []struct {
		in   string
		want Style
	}{
		{"", StylePlain},
		{"simple", StylePlain},
		{"Plain", StylePlain},
		{"styled", StyleStyled},
		{"ESTILIZADO", StyleStyled},
	}
	for _, tt := range tests {
		got, err := ParseStyle(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseStyle("fancy")
	assert.True(t, errors.Is(err, models.ErrValidation))
}

func TestNewDocument(t *testing.T) {
	doc := sampleDocument()
	assert.Equal(t, "plan_2024-03-11_2024-03-17.pdf", doc.Filename())
	require.Len(t, doc.Plan.Days, 2)
	assert.Equal(t, 1, doc.Plan.Days[0].Day)

	anon := NewDocument(&models.MealPlan{}, &models.User{Email: "x@example.com"})
	assert.Equal(t, "Usuario: x@example.com", anon.UserLabel)
}

func TestWrap(t *testing.T) {
	p := newPage(DefaultTitle, plainMarginX, plainMarginY)
	p.font("", plainBodySize)

	text := strings.Repeat("pan integral con tomate ", 40)
	width := 200.0
	lines := p.wrap(text, width)
	require.Greater(t, len(lines), 1)
	for _, l := range lines {
		assert.LessOrEqual(t, p.measure(l), width)
	}
	assert.Equal(t, strings.Join(strings.Fields(text), " "), strings.Join(lines, " "))

	long := strings.Repeat("x", 200)
	lines = p.wrap(long, 50)
	require.Greater(t, len(lines), 1)
	assert.Equal(t, long, strings.Join(lines, ""))

	lines = p.wrap("uno\ndos", 500)
	assert.Equal(t, []string{"uno", "dos"}, lines)

	assert.Empty(t, p.wrap("   ", 100))
}

func TestCache(t *testing.T) {
	const ana = "Usuario: Ana"
	c := NewCache(2)
	c.Set("a", StylePlain, ana, []byte("a-plain"))
	c.Set("a", StyleStyled, ana, []byte("a-styled"))

	got, ok := c.Get("a", StylePlain, ana)
	require.True(t, ok)
	assert.Equal(t, "a-plain", string(got))

	// a-styled is now least recently used.
	c.Set("b", StylePlain, ana, []byte("b-plain"))
	_, ok = c.Get("a", StyleStyled, ana)
	assert.False(t, ok)
	assert.Equal(t, 2, c.Len())

	c.Evict("a")
	_, ok = c.Get("a", StylePlain, ana)
	assert.False(t, ok)
	assert.Equal(t, 1, c.Len())

	disabled := NewCache(0)
	disabled.Set("a", StylePlain, ana, []byte("x"))
	assert.Equal(t, 0, disabled.Len())
}

func TestCache_LabelChangeMisses(t *testing.T) {
	c := NewCache(4)
	c.Set("a", StylePlain, "Usuario: Ana", []byte("old"))

	_, ok := c.Get("a", StylePlain, "Usuario: Ana Lopez")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len(), "stale entry is dropped")

	c.Set("a", StylePlain, "Usuario: Ana Lopez", []byte("new"))
	got, ok := c.Get("a", StylePlain, "Usuario: Ana Lopez")
	require.True(t, ok)
	assert.Equal(t, "new", string(got))
}

// Package render turns meal plans into PDF documents.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/fikafood/fika/internal/extract"
	"github.com/fikafood/fika/internal/models"
)

// DefaultTitle heads every plan document.
const DefaultTitle = "Plan alimenticio semanal"

// Meal labels in rendering order.
var mealLabels = [3]string{"Desayuno", "Almuerzo", "Cena"}

// Document is everything a renderer draws. Both styles render the same content.
type Document struct {
	Title     string
	UserLabel string
	StartDate string
	EndDate   string
	Plan      models.PlanContent
}

// NewDocument builds the document for a stored plan and its owner.
func NewDocument(p *models.MealPlan, u *models.User) Document {
	label := "Usuario: "
	if u != nil {
		label += u.DisplayName()
	}
	plan := models.PlanContent{Days: append([]models.DayPlan(nil), p.Plan.Days...), Note: p.Plan.Note}
	plan.Sort()
	return Document{
		Title:     DefaultTitle,
		UserLabel: label,
		StartDate: p.StartDate,
		EndDate:   p.EndDate,
		Plan:      plan,
	}
}

func (d Document) title() string {
	if d.Title == "" {
		return DefaultTitle
	}
	return d.Title
}

// Subtitle is the date range line.
func (d Document) Subtitle() string {
	return fmt.Sprintf("Del %s al %s", d.StartDate, d.EndDate)
}

// Filename is the download name for the rendered plan.
func (d Document) Filename() string {
	return fmt.Sprintf("plan_%s_%s.pdf", d.StartDate, d.EndDate)
}

func meals(day models.DayPlan) [3]string {
	return [3]string{
		strings.TrimSpace(day.Breakfast),
		strings.TrimSpace(day.Lunch),
		strings.TrimSpace(day.Dinner),
	}
}

// Renderer writes a document as PDF.
type Renderer interface {
	Render(w io.Writer, doc Document) error
}

// Style selects a Renderer.
type Style int

const (
	StylePlain Style = iota
	StyleStyled
)

func (s Style) String() string {
	if s == StyleStyled {
		return "styled"
	}
	return "simple"
}

// ParseStyle accepts simple/plain and styled/estilizado, case-insensitively.
// An empty name is the plain style.
func ParseStyle(name string) (Style, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "simple", "plain":
		return StylePlain, nil
	case "styled", "estilizado":
		return StyleStyled, nil
	}
	return StylePlain, models.NewValidationError("style", fmt.Sprintf("unsupported PDF style %q", name))
}

// New returns the renderer for style.
func New(style Style) Renderer {
	if style == StyleStyled {
		return StyledRenderer{}
	}
	return PlainRenderer{}
}

// ExtractText returns the plain text of a rendered PDF.
func ExtractText(pdf []byte) (string, error) {
	return extract.NewExtractor().ExtractBytes(pdf, ".pdf")
}

// page wraps an fpdf document with a y cursor measured from the top edge.
// The core fonts are cp1252, so every string passes through tr before drawing.
type page struct {
	pdf     *fpdf.Fpdf
	tr      func(string) string
	width   float64
	height  float64
	marginX float64
	marginY float64
	y       float64
}

func newPage(title string, marginX, marginY float64) *page {
	pdf := fpdf.New("P", "pt", "Letter", "")
	pdf.SetMargins(marginX, marginY, marginX)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle(title, true)
	pdf.SetCreator("fika", true)
	pdf.AddPage()
	w, h := pdf.GetPageSize()
	return &page{
		pdf:     pdf,
		tr:      pdf.UnicodeTranslatorFromDescriptor(""),
		width:   w,
		height:  h,
		marginX: marginX,
		marginY: marginY,
		y:       marginY,
	}
}

func (p *page) bottom() float64 { return p.height - p.marginY }

func (p *page) contentWidth() float64 { return p.width - 2*p.marginX }

// ensure starts a new page unless need more points fit above the bottom margin.
func (p *page) ensure(need float64) {
	if p.y+need <= p.bottom() {
		return
	}
	p.pdf.AddPage()
	p.y = p.marginY
}

func (p *page) font(style string, size float64) {
	p.pdf.SetFont("Helvetica", style, size)
}

func (p *page) text(x float64, s string) {
	p.pdf.Text(x, p.y, p.tr(s))
}

// wrap splits s into lines no wider than width in the current font.
// Explicit newlines start new lines; words longer than width are broken.
func (p *page) wrap(s string, width float64) []string {
	var lines []string
	for _, para := range strings.Split(s, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			continue
		}
		line := ""
		for _, word := range words {
			for p.measure(word) > width {
				head, tail := p.breakWord(word, width)
				if line != "" {
					lines = append(lines, line)
					line = ""
				}
				lines = append(lines, head)
				word = tail
			}
			if line == "" {
				line = word
				continue
			}
			if candidate := line + " " + word; p.measure(candidate) <= width {
				line = candidate
				continue
			}
			lines = append(lines, line)
			line = word
		}
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func (p *page) measure(s string) float64 {
	return p.pdf.GetStringWidth(p.tr(s))
}

// breakWord returns the longest rune prefix of word that fits width, and the rest.
// At least one rune is always taken.
func (p *page) breakWord(word string, width float64) (string, string) {
	runes := []rune(word)
	n := 1
	for n < len(runes) && p.measure(string(runes[:n+1])) <= width {
		n++
	}
	return string(runes[:n]), string(runes[n:])
}

func (p *page) output(w io.Writer) error {
	if err := p.pdf.Error(); err != nil {
		return fmt.Errorf("render PDF: %w", err)
	}
	if err := p.pdf.Output(w); err != nil {
		return fmt.Errorf("write PDF: %w", err)
	}
	return nil
}

package render

import (
	"io"
	"strings"
)

const (
	styledMargin   = 54 // 0.75in
	labelColWidth  = 86.4
	textColWidth   = 345.6
	cellPadX       = 8
	cellPadY       = 6
	styledLeading  = 14
	styledBodySize = 11
)

type rgb struct{ r, g, b int }

var (
	green      = rgb{0x2F, 0x85, 0x5A}
	lightGreen = rgb{0x68, 0xD3, 0x91}
	slate      = rgb{0x4A, 0x55, 0x68}
	whitesmoke = rgb{245, 245, 245}
	black      = rgb{0, 0, 0}
)

// StyledRenderer draws each day as a bordered two-column table with green accents.
type StyledRenderer struct{}

// Render implements Renderer.
func (StyledRenderer) Render(w io.Writer, doc Document) error {
	p := newPage(doc.title(), styledMargin, styledMargin)

	p.font("B", 18)
	p.y += 18
	title := doc.title()
	p.text((p.width-p.measure(title))/2, title)
	p.y += 26

	p.color(slate)
	p.font("", styledBodySize)
	p.text(p.marginX, doc.UserLabel)
	p.y += styledLeading
	p.text(p.marginX, doc.Subtitle())
	p.y += styledLeading + 14
	p.color(black)

	for _, day := range doc.Plan.Days {
		p.y += 12
		p.ensure(18 + 2*cellPadY + styledLeading)
		p.font("B", 14)
		p.color(green)
		p.text(p.marginX, day.Label())
		p.color(black)
		p.y += 12

		t := &table{p: p}
		for i, text := range meals(day) {
			t.row(mealLabels[i]+":", text)
		}
		t.close()
	}

	if note := strings.TrimSpace(doc.Plan.Note); note != "" {
		p.y += 22
		p.ensure(styledLeading)
		p.font("B", 14)
		p.text(p.marginX, "Notas")
		p.y += 18
		p.font("", styledBodySize)
		for _, line := range p.wrap(note, p.contentWidth()) {
			p.ensure(0)
			p.font("", styledBodySize)
			p.text(p.marginX, line)
			p.y += styledLeading
		}
	}
	return p.output(w)
}

func (p *page) color(c rgb) {
	p.pdf.SetTextColor(c.r, c.g, c.b)
}

// table draws rows top-down from p.y. A row taller than the space left is split:
// the label stays with the first chunk and the text continues on the next page.
type table struct {
	p   *page
	top float64
	n   int
}

func (t *table) row(label, text string) {
	p := t.p
	p.font("B", 12)
	labelLines := p.wrap(label, labelColWidth-2*cellPadX)
	p.font("", styledBodySize)
	textLines := p.wrap(text, textColWidth-2*cellPadX)
	if len(textLines) == 0 {
		textLines = []string{""}
	}

	first := true
	for first || len(textLines) > 0 {
		avail := int((p.bottom() - p.y - 2*cellPadY) / styledLeading)
		need := len(textLines)
		if first && len(labelLines) > need {
			need = len(labelLines)
		}
		if avail < 1 || (first && avail < min(need, len(labelLines))) {
			t.breakPage()
			continue
		}
		take := min(need, avail)
		if t.n == 0 {
			t.top = p.y
		}
		height := float64(take)*styledLeading + 2*cellPadY
		t.cells(height)

		baseline := p.y + cellPadY + styledBodySize
		if first {
			p.font("B", 12)
			for i := 0; i < len(labelLines) && i < take; i++ {
				p.pdf.Text(p.marginX+cellPadX, baseline+float64(i)*styledLeading, p.tr(labelLines[i]))
			}
		}
		p.font("", styledBodySize)
		shown := min(take, len(textLines))
		for i := 0; i < shown; i++ {
			p.pdf.Text(p.marginX+labelColWidth+cellPadX, baseline+float64(i)*styledLeading, p.tr(textLines[i]))
		}
		textLines = textLines[shown:]
		p.y += height
		t.n++
		first = false
	}
}

func (t *table) cells(height float64) {
	pdf := t.p.pdf
	pdf.SetFillColor(whitesmoke.r, whitesmoke.g, whitesmoke.b)
	pdf.SetDrawColor(lightGreen.r, lightGreen.g, lightGreen.b)
	pdf.SetLineWidth(0.25)
	pdf.Rect(t.p.marginX, t.p.y, labelColWidth, height, "FD")
	pdf.Rect(t.p.marginX+labelColWidth, t.p.y, textColWidth, height, "FD")
}

// close draws the outer box around the rows on the current page.
func (t *table) close() {
	if t.n == 0 {
		return
	}
	pdf := t.p.pdf
	pdf.SetDrawColor(green.r, green.g, green.b)
	pdf.SetLineWidth(0.75)
	pdf.Rect(t.p.marginX, t.top, labelColWidth+textColWidth, t.p.y-t.top, "D")
	t.n = 0
}

func (t *table) breakPage() {
	t.close()
	t.p.pdf.AddPage()
	t.p.y = t.p.marginY
}

package render

import (
	"io"
	"strings"
)

const (
	plainMarginX   = 40
	plainMarginY   = 50
	plainBodySize  = 11
	plainLineStep  = 14
	plainLabelStep = 16
)

// PlainRenderer draws the plan as sequential text with an explicit cursor.
type PlainRenderer struct{}

// Render implements Renderer.
func (PlainRenderer) Render(w io.Writer, doc Document) error {
	p := newPage(doc.title(), plainMarginX, plainMarginY)

	p.font("B", 18)
	p.text(p.marginX, doc.title())
	p.y += 24
	p.font("", 12)
	p.text(p.marginX, doc.UserLabel)
	p.y += 18
	p.text(p.marginX, doc.Subtitle())
	p.y += 28

	for _, day := range doc.Plan.Days {
		// Keep the day title with its first label and first line.
		p.ensure(18 + plainLabelStep)
		p.font("B", 13)
		p.text(p.marginX, day.Label())
		p.y += 18

		for i, text := range meals(day) {
			plainMeal(p, mealLabels[i], text)
		}
		p.y += 12
	}

	if note := strings.TrimSpace(doc.Plan.Note); note != "" {
		p.ensure(18)
		p.font("B", 12)
		p.text(p.marginX, "Notas")
		p.y += 18
		plainParagraph(p, note)
	}
	return p.output(w)
}

func plainMeal(p *page, label, text string) {
	p.ensure(plainLabelStep)
	p.font("B", plainBodySize)
	p.text(p.marginX, label+":")
	p.y += plainLabelStep
	plainParagraph(p, text)
	p.y += 8
}

// plainParagraph wraps text at the content width; lines continue on a new page when needed.
func plainParagraph(p *page, text string) {
	p.font("", plainBodySize)
	for _, line := range p.wrap(text, p.contentWidth()) {
		p.ensure(0)
		p.font("", plainBodySize)
		p.text(p.marginX, line)
		p.y += plainLineStep
	}
}

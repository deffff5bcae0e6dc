// Package mealplan generates weekly meal plans and parses the model's free-text answer.
package mealplan

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/fikafood/fika/internal/models"
)

// Parser turns generated plan text into a structured plan. Implementations never
// fail: text they cannot read yields an empty plan.
type Parser interface {
	Parse(text string) models.PlanContent
}

var (
	dayMarker      = regexp.MustCompile(`(?i)\bd[íi]a\s*(\d+)`)
	breakfastLabel = regexp.MustCompile(`(?i)desayuno\s*[:\-]\s*`)
	lunchLabel     = regexp.MustCompile(`(?i)almuerzo\s*[:\-]\s*`)
	dinnerLabel    = regexp.MustCompile(`(?i)cena\s*[:\-]\s*`)
	lunchWord      = regexp.MustCompile(`(?i)almuerzo`)
	dinnerWord     = regexp.MustCompile(`(?i)cena`)
	noteMarker     = regexp.MustCompile(`(?i)\*\*?nota:?|\bnota:?`)
)

// LabeledParser reads plans written as "Día N" blocks with Desayuno, Almuerzo and
// Cena labels. "Dia N" without the accent is read too. A note found after a dinner
// becomes the plan note; when several days carry one, the last day's note is kept.
type LabeledParser struct{}

// Parse implements Parser.
func (LabeledParser) Parse(text string) models.PlanContent {
	var plan models.PlanContent
	for _, seg := range daySegments(text) {
		breakfast := between(seg.body, breakfastLabel, lunchWord)
		lunch := between(seg.body, lunchLabel, dinnerWord)
		dinner := between(seg.body, dinnerLabel, nil)

		if loc := noteMarker.FindStringIndex(dinner); loc != nil {
			if note := clean(dinner[loc[1]:]); note != "" {
				plan.Note = note
			}
			dinner = dinner[:loc[0]]
		}

		plan.Set(models.DayPlan{
			Day:       seg.day,
			Breakfast: clean(breakfast),
			Lunch:     clean(lunch),
			Dinner:    clean(dinner),
		})
	}
	return plan
}

type segment struct {
	day  int
	body string
}

// daySegments splits text at each "Día N" marker. Each body runs from the end of
// its marker to the start of the next one.
func daySegments(text string) []segment {
	locs := dayMarker.FindAllStringSubmatchIndex(text, -1)
	segs := make([]segment, 0, len(locs))
	for i, loc := range locs {
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		n, err := strconv.Atoi(text[loc[2]:loc[3]])
		if err != nil || n <= 0 {
			continue
		}
		segs = append(segs, segment{day: n, body: text[loc[1]:end]})
	}
	return segs
}

// between returns the text after label up to the first stop match. With a nil stop
// the text runs to the end. A missing label, or a missing stop after it, yields "".
func between(s string, label, stop *regexp.Regexp) string {
	loc := label.FindStringIndex(s)
	if loc == nil {
		return ""
	}
	rest := s[loc[1]:]
	if stop == nil {
		return rest
	}
	end := stop.FindStringIndex(rest)
	if end == nil {
		return ""
	}
	return rest[:end[0]]
}

// clean trims whitespace, markdown emphasis and dangling list bullets.
func clean(s string) string {
	trim := func(r rune) bool { return unicode.IsSpace(r) || r == '*' }
	s = strings.TrimFunc(s, trim)
	for strings.HasSuffix(s, "-") || strings.HasSuffix(s, "•") {
		s = strings.TrimSuffix(strings.TrimSuffix(s, "-"), "•")
		s = strings.TrimFunc(s, trim)
	}
	return s
}

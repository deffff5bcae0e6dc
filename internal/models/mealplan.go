package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the civil date format used on the wire and in storage.
const DateLayout = "2006-01-02"

// DayPlan is the content of one plan day.
type DayPlan struct {
	Day       int    `json:"day"`
	Breakfast string `json:"desayuno"`
	Lunch     string `json:"almuerzo"`
	Dinner    string `json:"cena"`
}

// Label returns the display key for the day, e.g. "Día 3".
func (d DayPlan) Label() string { return DayLabel(d.Day) }

// DayLabel formats a day index as "Día N".
func DayLabel(n int) string { return "Día " + strconv.Itoa(n) }

// PlanContent is a parsed meal plan. Days are kept sorted by index.
//
// On the wire it keeps the dictionary shape the generator produced:
//
//	{"Día 1": {"desayuno": "...", "almuerzo": "...", "cena": "..."}, "nota": "..."}
type PlanContent struct {
	Days []DayPlan
	Note string
}

// Empty reports whether the plan has neither days nor a note.
func (p *PlanContent) Empty() bool { return len(p.Days) == 0 && p.Note == "" }

// Set inserts or replaces the day with d.Day and keeps the slice sorted.
func (p *PlanContent) Set(d DayPlan) {
	for i := range p.Days {
		if p.Days[i].Day == d.Day {
			p.Days[i] = d
			return
		}
	}
	p.Days = append(p.Days, d)
	p.Sort()
}

// Sort orders days by numeric index.
func (p *PlanContent) Sort() {
	sort.SliceStable(p.Days, func(i, j int) bool { return p.Days[i].Day < p.Days[j].Day })
}

type wireDay struct {
	Breakfast string `json:"desayuno"`
	Lunch     string `json:"almuerzo"`
	Dinner    string `json:"cena"`
}

const noteKey = "nota"

// MarshalJSON writes days in numeric order followed by the note.
func (p PlanContent) MarshalJSON() ([]byte, error) {
	days := make([]DayPlan, len(p.Days))
	copy(days, p.Days)
	sort.SliceStable(days, func(i, j int) bool { return days[i].Day < days[j].Day })

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, d := range days {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, _ := json.Marshal(d.Label())
		val, err := json.Marshal(wireDay{Breakfast: d.Breakfast, Lunch: d.Lunch, Dinner: d.Dinner})
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	if p.Note != "" {
		if len(days) > 0 {
			buf.WriteByte(',')
		}
		note, _ := json.Marshal(p.Note)
		buf.WriteString(`"` + noteKey + `":`)
		buf.Write(note)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON accepts the dictionary shape. Keys that are not "Día N" or the note are ignored.
func (p *PlanContent) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode plan: %w", err)
	}
	p.Days = nil
	p.Note = ""
	for key, val := range raw {
		if key == noteKey {
			if err := json.Unmarshal(val, &p.Note); err != nil {
				return fmt.Errorf("decode plan note: %w", err)
			}
			continue
		}
		n, ok := parseDayLabel(key)
		if !ok {
			continue
		}
		var d wireDay
		if err := json.Unmarshal(val, &d); err != nil {
			return fmt.Errorf("decode %s: %w", key, err)
		}
		p.Days = append(p.Days, DayPlan{Day: n, Breakfast: d.Breakfast, Lunch: d.Lunch, Dinner: d.Dinner})
	}
	p.Sort()
	return nil
}

func parseDayLabel(key string) (int, bool) {
	fields := strings.Fields(key)
	if len(fields) != 2 || !strings.EqualFold(fields[0], "Día") {
		return 0, false
	}
	n, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// MealPlan is a persisted weekly plan.
type MealPlan struct {
	ID        string      `json:"id"`
	UserID    string      `json:"user_id"`
	StartDate string      `json:"start_date"`
	EndDate   string      `json:"end_date"`
	Plan      PlanContent `json:"plan"`
	CreatedAt time.Time   `json:"created_at"`
}

// PlanLength is the number of days a generated plan covers.
const PlanLength = 7

// PlanDates returns the start and end dates of a plan beginning on day.
func PlanDates(day time.Time) (string, string) {
	return day.Format(DateLayout), day.AddDate(0, 0, PlanLength-1).Format(DateLayout)
}

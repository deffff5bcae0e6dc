package models

import "time"

// RecordFilter selects records for aggregation. From is inclusive and To is exclusive;
// zero times leave that side open. An empty Status matches every status.
type RecordFilter struct {
	UserID string
	Status Status
	From   time.Time
	To     time.Time
}

// Page bounds a listing query.
type Page struct {
	Offset int
	Limit  int
}

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// Normalize applies the default limit and caps it.
func (p *Page) Normalize() {
	if p.Offset < 0 {
		p.Offset = 0
	}
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
}

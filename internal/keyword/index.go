// Package keyword indexes food records for full-text search over a user's food log.
package keyword

import (
	"context"
	"strings"

	"github.com/fikafood/fika/internal/models"
)

// SearchOptions tune a food-log search. Nil means defaults.
type SearchOptions struct {
	// ItemBoost multiplies matches on detected food item names (e.g. 2.0). 1.0 is no boost.
	ItemBoost float64
	// FuzzyEnabled matches terms within Fuzziness edits, so "pollp" still finds "pollo".
	FuzzyEnabled bool
	// Fuzziness is the maximum edit distance (1 or 2). Defaults to 1.
	Fuzziness int
}

// Index is a per-user searchable food log.
type Index interface {
	IndexRecord(ctx context.Context, r *models.Record) error
	Search(ctx context.Context, userID, query string, limit int, opts *SearchOptions) ([]*Hit, error)
	Delete(ctx context.Context, id string) error
	DocCount() (uint64, error)
	Close() error
}

// Hit is one matching record.
type Hit struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// Document is what gets indexed for a record.
type Document struct {
	UserID        string
	Description   string
	AIDescription string
	Items         string
}

// NewDocument flattens a record into its searchable text.
func NewDocument(r *models.Record) Document {
	names := make([]string, 0, len(r.Items))
	for _, it := range r.Items {
		name := it.Name
		if it.Category != "" {
			name += " " + it.Category
		}
		names = append(names, name)
	}
	return Document{
		UserID:        r.UserID,
		Description:   r.Description,
		AIDescription: r.AIDescription,
		Items:         strings.Join(names, " "),
	}
}

func (d Document) fields() map[string]interface{} {
	return map[string]interface{}{
		fieldUser:          d.UserID,
		fieldDescription:   d.Description,
		fieldAIDescription: d.AIDescription,
		fieldItems:         d.Items,
	}
}

// TermDictionary exposes the indexed vocabulary for query suggestions.
type TermDictionary interface {
	GetAllTerms() ([]string, error)
	GetTermFrequency(term string) (int, error)
}

package keyword

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/blevesearch/bleve/v2"
	keywordanalyzer "github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	blevequery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/fikafood/fika/internal/models"
)

const (
	fieldUser          = "user_id"
	fieldDescription   = "description"
	fieldAIDescription = "ai_description"
	fieldItems         = "items"
)

var textFields = []string{fieldDescription, fieldAIDescription, fieldItems}

// BleveIndex implements Index using Bleve.
type BleveIndex struct {
	index bleve.Index
}

var _ Index = (*BleveIndex)(nil)

// NewBleveIndex creates or opens a Bleve index at path.
// If you change the index mapping in code, remove the index directory to force a re-index.
func NewBleveIndex(path string) (*BleveIndex, error) {
	if _, err := os.Stat(path); err == nil {
		index, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("failed to open Bleve index: %w", openErr)
		}
		return &BleveIndex{index: index}, nil
	}

	index, err := bleve.New(path, newMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return &BleveIndex{index: index}, nil
}

func newMapping() *mapping.IndexMappingImpl {
	im := bleve.NewIndexMapping()
	doc := bleve.NewDocumentMapping()

	// Standard analyzer lowercases and tokenizes without stemming, so "pollo" only matches pollo.
	text := bleve.NewTextFieldMapping()
	text.Analyzer = standard.Name
	for _, f := range textFields {
		doc.AddFieldMappingsAt(f, text)
	}
	user := bleve.NewTextFieldMapping()
	user.Analyzer = keywordanalyzer.Name
	doc.AddFieldMappingsAt(fieldUser, user)

	im.DefaultMapping = doc
	return im
}

// IndexRecord indexes (or re-indexes) a record under its ID.
func (b *BleveIndex) IndexRecord(ctx context.Context, r *models.Record) error {
	if err := b.index.Index(r.ID, NewDocument(r).fields()); err != nil {
		return fmt.Errorf("index record %s: %w", r.ID, err)
	}
	return nil
}

// Search returns up to limit of userID's records matching query, best first.
func (b *BleveIndex) Search(ctx context.Context, userID, query string, limit int, opts *SearchOptions) ([]*Hit, error) {
	terms := tokenizeQuery(query)
	if len(terms) == 0 {
		return []*Hit{}, nil
	}
	if limit <= 0 {
		limit = 20
	}
	itemBoost := 1.0
	fuzziness := 0
	if opts != nil {
		if opts.ItemBoost > 0 {
			itemBoost = opts.ItemBoost
		}
		if opts.FuzzyEnabled {
			fuzziness = 1
			if opts.Fuzziness > 0 {
				fuzziness = opts.Fuzziness
			}
		}
	}

	fieldQueries := make([]blevequery.Query, 0, len(textFields))
	for _, f := range textFields {
		boost := 1.0
		if f == fieldItems {
			boost = itemBoost
		}
		fieldQueries = append(fieldQueries, buildFieldQuery(terms, f, boost, fuzziness))
	}

	owner := bleve.NewTermQuery(userID)
	owner.SetField(fieldUser)
	q := bleve.NewConjunctionQuery(owner, bleve.NewDisjunctionQuery(fieldQueries...))

	req := bleve.NewSearchRequest(q)
	req.Size = limit
	results, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("Bleve search failed: %w", err)
	}
	out := make([]*Hit, len(results.Hits))
	for i, hit := range results.Hits {
		out[i] = &Hit{ID: hit.ID, Score: hit.Score}
	}
	return out, nil
}

// buildFieldQuery matches any term in field. With fuzziness > 0 each term is a fuzzy query.
func buildFieldQuery(terms []string, field string, boost float64, fuzziness int) blevequery.Query {
	if fuzziness == 0 {
		mq := bleve.NewMatchQuery(strings.Join(terms, " "))
		mq.SetField(field)
		mq.SetBoost(boost)
		return mq
	}
	queries := make([]blevequery.Query, 0, len(terms))
	for _, term := range terms {
		fq := bleve.NewFuzzyQuery(term)
		fq.SetFuzziness(fuzziness)
		fq.SetField(field)
		fq.SetBoost(boost)
		queries = append(queries, fq)
	}
	if len(queries) == 1 {
		return queries[0]
	}
	return bleve.NewDisjunctionQuery(queries...)
}

// tokenizeQuery splits query into lowercase terms.
func tokenizeQuery(query string) []string {
	return strings.Fields(strings.ToLower(query))
}

// Delete removes a record from the index.
func (b *BleveIndex) Delete(ctx context.Context, id string) error {
	return b.index.Delete(id)
}

// Close closes the Bleve index.
func (b *BleveIndex) Close() error {
	return b.index.Close()
}

// DocCount returns the number of indexed records.
func (b *BleveIndex) DocCount() (uint64, error) {
	return b.index.DocCount()
}

// GetAllTerms returns the unique terms of all text fields.
func (b *BleveIndex) GetAllTerms() ([]string, error) {
	seen := make(map[string]struct{})
	for _, f := range textFields {
		dict, err := b.index.FieldDict(f)
		if err != nil {
			return nil, fmt.Errorf("field dictionary %s: %w", f, err)
		}
		for {
			entry, err := dict.Next()
			if err != nil || entry == nil {
				break
			}
			seen[entry.Term] = struct{}{}
		}
		_ = dict.Close()
	}
	terms := make([]string, 0, len(seen))
	for t := range seen {
		terms = append(terms, t)
	}
	sort.Strings(terms)
	return terms, nil
}

// GetTermFrequency returns how many records contain term in any text field.
func (b *BleveIndex) GetTermFrequency(term string) (int, error) {
	queries := make([]blevequery.Query, 0, len(textFields))
	for _, f := range textFields {
		tq := bleve.NewTermQuery(term)
		tq.SetField(f)
		queries = append(queries, tq)
	}
	req := bleve.NewSearchRequest(bleve.NewDisjunctionQuery(queries...))
	req.Size = 0
	results, err := b.index.Search(req)
	if err != nil {
		return 0, fmt.Errorf("failed to search for term frequency: %w", err)
	}
	return int(results.Total), nil
}

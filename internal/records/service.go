// Package records logs meals from photos: it stores the image, asks the model for a
// nutrition analysis, validates it and keeps the food-log search index in step.
package records

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fikafood/fika/internal/ai"
	"github.com/fikafood/fika/internal/analysis"
	"github.com/fikafood/fika/internal/keyword"
	"github.com/fikafood/fika/internal/models"
	"github.com/fikafood/fika/internal/storage"
)

// PendingDescription is shown on a record while its photo is being analysed.
const PendingDescription = "Analizando..."

// Store is the record persistence the service needs.
type Store interface {
	CreateRecord(ctx context.Context, r *models.Record) error
	GetRecord(ctx context.Context, userID, id string) (*models.Record, error)
	UpdateRecord(ctx context.Context, r *models.Record) error
	DeleteRecord(ctx context.Context, userID, id string) error
	ListRecords(ctx context.Context, userID string, page models.Page) ([]*models.Record, error)
	CompleteAnalysis(ctx context.Context, r *models.Record, a *models.Analysis) error
	FailAnalysis(ctx context.Context, id, cause string) error
}

// Images stores meal photos.
type Images interface {
	Save(userID, name string, data []byte) (string, error)
	Read(rel string) ([]byte, string, error)
	Remove(rel string) error
}

// Service creates, re-analyses, corrects, deletes and searches food records.
type Service struct {
	client   ai.Client
	store    Store
	images   Images
	index    keyword.Index
	speller  *keyword.SpellChecker
	validate func(string) (*models.Analysis, error)
	logger   *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithIndex enables food-log search. Without it Search returns no results.
func WithIndex(idx keyword.Index) Option {
	return func(s *Service) { s.index = idx }
}

// WithSpellChecker enables query suggestions when a search finds nothing.
func WithSpellChecker(sc *keyword.SpellChecker) Option {
	return func(s *Service) { s.speller = sc }
}

// WithValidator replaces analysis.Validate.
func WithValidator(v func(string) (*models.Analysis, error)) Option {
	return func(s *Service) {
		if v != nil {
			s.validate = v
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewService creates a record service.
func NewService(client ai.Client, store Store, images Images, opts ...Option) *Service {
	s := &Service{
		client:   client,
		store:    store,
		images:   images,
		validate: analysis.Validate,
		logger:   zap.NewNop(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Create stores the photo, creates an analysing record and runs the analysis.
// When the analysis fails the failed record is returned together with the error.
func (s *Service) Create(ctx context.Context, userID, fileName string, image []byte, description string) (*models.Record, error) {
	if len([]rune(description)) > models.MaxDescriptionLength {
		return nil, models.NewValidationError("description", "too long")
	}
	rel, err := s.images.Save(userID, fileName, image)
	if err != nil {
		return nil, err
	}
	r := &models.Record{
		UserID:        userID,
		ImagePath:     rel,
		Description:   description,
		AIDescription: PendingDescription,
		Status:        models.StatusAnalyzing,
	}
	if err := s.store.CreateRecord(ctx, r); err != nil {
		_ = s.images.Remove(rel)
		return nil, fmt.Errorf("create record: %w", err)
	}

	a, err := s.analyze(ctx, image, rel, description)
	if err != nil {
		s.logger.Warn("analysis failed", zap.String("record_id", r.ID), zap.Error(err))
		if ferr := s.store.FailAnalysis(ctx, r.ID, err.Error()); ferr != nil {
			s.logger.Error("failed to mark record failed", zap.String("record_id", r.ID), zap.Error(ferr))
		}
		r.Status = models.StatusFailed
		r.AIDescription = "Error: " + err.Error()
		return r, err
	}
	if err := s.store.CompleteAnalysis(ctx, r, a); err != nil {
		return nil, fmt.Errorf("save analysis: %w", err)
	}
	s.reindex(ctx, r)
	s.logger.Info("record analysed",
		zap.String("record_id", r.ID),
		zap.Int("items", len(r.Items)),
		zap.Float64("calories", r.Totals.Calories))
	return r, nil
}

// Reanalyze runs the analysis again on the stored photo. A non-nil description
// replaces the user's description. On failure the record is left unchanged.
func (s *Service) Reanalyze(ctx context.Context, userID, id string, description *string) (*models.Record, error) {
	r, err := s.store.GetRecord(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	desc := r.Description
	if description != nil {
		if len([]rune(*description)) > models.MaxDescriptionLength {
			return nil, models.NewValidationError("description", "too long")
		}
		desc = *description
	}
	image, _, err := s.images.Read(r.ImagePath)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	a, err := s.analyze(ctx, image, r.ImagePath, desc)
	if err != nil {
		return nil, err
	}
	r.Description = desc
	if err := s.store.CompleteAnalysis(ctx, r, a); err != nil {
		return nil, fmt.Errorf("save analysis: %w", err)
	}
	s.reindex(ctx, r)
	return r, nil
}

func (s *Service) analyze(ctx context.Context, image []byte, name, description string) (*models.Analysis, error) {
	mimeType, ok := storage.ImageMIMEType(name)
	if !ok {
		return nil, models.NewValidationError("image", "unsupported format")
	}
	text, err := s.client.GenerateWithImage(ctx, analysis.ImagePrompt(description), image, mimeType)
	if err != nil {
		return nil, fmt.Errorf("analyse image: %w", err)
	}
	a, err := s.validate(text)
	if err != nil {
		return nil, err
	}
	a.Model = s.client.VisionModel()
	return a, nil
}

// Get returns one of the user's records.
func (s *Service) Get(ctx context.Context, userID, id string) (*models.Record, error) {
	return s.store.GetRecord(ctx, userID, id)
}

// Image returns the stored photo of one of the user's records and its MIME type.
func (s *Service) Image(ctx context.Context, userID, id string) ([]byte, string, error) {
	r, err := s.store.GetRecord(ctx, userID, id)
	if err != nil {
		return nil, "", err
	}
	return s.images.Read(r.ImagePath)
}

// List returns the user's records newest first.
func (s *Service) List(ctx context.Context, userID string, page models.Page) ([]*models.Record, error) {
	return s.store.ListRecords(ctx, userID, page)
}

// Update applies manual corrections.
func (s *Service) Update(ctx context.Context, userID, id string, upd models.RecordUpdate) (*models.Record, error) {
	r, err := s.store.GetRecord(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := upd.Apply(r); err != nil {
		return nil, err
	}
	if err := s.store.UpdateRecord(ctx, r); err != nil {
		return nil, fmt.Errorf("update record: %w", err)
	}
	s.reindex(ctx, r)
	return r, nil
}

// Delete removes the record, its photo and its index entry.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	r, err := s.store.GetRecord(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteRecord(ctx, userID, id); err != nil {
		return err
	}
	if err := s.images.Remove(r.ImagePath); err != nil {
		s.logger.Warn("failed to remove image", zap.String("path", r.ImagePath), zap.Error(err))
	}
	if s.index != nil {
		if err := s.index.Delete(ctx, id); err != nil {
			s.logger.Warn("failed to remove record from index", zap.String("record_id", id), zap.Error(err))
		}
		s.invalidateSpeller()
	}
	return nil
}

// SearchResult is a food-log search response.
type SearchResult struct {
	Query      string           `json:"query"`
	Results    []*models.Record `json:"results"`
	Suggestion string           `json:"suggestion,omitempty"`
}

// Search finds the user's records whose descriptions or food items match query.
func (s *Service) Search(ctx context.Context, userID, query string, limit int) (*SearchResult, error) {
	if query == "" {
		return nil, models.NewMissingParameterError("q")
	}
	res := &SearchResult{Query: query, Results: []*models.Record{}}
	if s.index == nil {
		return res, nil
	}
	hits, err := s.index.Search(ctx, userID, query, limit, &keyword.SearchOptions{ItemBoost: 2, FuzzyEnabled: true})
	if err != nil {
		return nil, fmt.Errorf("search records: %w", err)
	}
	for _, h := range hits {
		r, err := s.store.GetRecord(ctx, userID, h.ID)
		if err != nil {
			s.logger.Debug("skipping stale index entry", zap.String("record_id", h.ID), zap.Error(err))
			continue
		}
		res.Results = append(res.Results, r)
	}
	if len(res.Results) == 0 && s.speller != nil {
		res.Suggestion = s.speller.SuggestedQuery(query)
	}
	return res, nil
}

func (s *Service) reindex(ctx context.Context, r *models.Record) {
	if s.index == nil {
		return
	}
	var err error
	if r.Status == models.StatusCompleted {
		err = s.index.IndexRecord(ctx, r)
	} else {
		err = s.index.Delete(ctx, r.ID)
	}
	if err != nil {
		s.logger.Warn("failed to update search index", zap.String("record_id", r.ID), zap.Error(err))
	}
	s.invalidateSpeller()
}

func (s *Service) invalidateSpeller() {
	if s.speller != nil {
		s.speller.Invalidate()
	}
}

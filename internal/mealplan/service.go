package mealplan

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fikafood/fika/internal/ai"
	"github.com/fikafood/fika/internal/models"
)

// Store persists generated plans.
type Store interface {
	CreateMealPlan(ctx context.Context, p *models.MealPlan) error
}

// Service generates a plan with the model, parses it and stores it.
type Service struct {
	client ai.Client
	store  Store
	parser Parser
	now    func() time.Time
	logger *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithParser replaces the default LabeledParser.
func WithParser(p Parser) Option {
	return func(s *Service) { s.parser = p }
}

// WithClock sets the time source used for the plan start date.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewService creates a plan service.
func NewService(client ai.Client, store Store, opts ...Option) *Service {
	s := &Service{
		client: client,
		store:  store,
		parser: LabeledParser{},
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Generate asks the model for a seven-day plan for u, starting today.
func (s *Service) Generate(ctx context.Context, u *models.User) (*models.MealPlan, error) {
	now := s.now()
	text, err := s.client.Generate(ctx, Prompt(u, now))
	if err != nil {
		return nil, fmt.Errorf("generate meal plan: %w", err)
	}
	content := s.parser.Parse(text)
	if len(content.Days) == 0 {
		s.logger.Warn("generated plan has no days", zap.String("user_id", u.ID), zap.Int("response_len", len(text)))
	}

	start, end := models.PlanDates(now)
	p := &models.MealPlan{
		ID:        uuid.New().String(),
		UserID:    u.ID,
		StartDate: start,
		EndDate:   end,
		Plan:      content,
		CreatedAt: now.UTC(),
	}
	if err := s.store.CreateMealPlan(ctx, p); err != nil {
		return nil, fmt.Errorf("save meal plan: %w", err)
	}
	s.logger.Info("meal plan generated",
		zap.String("user_id", u.ID),
		zap.String("plan_id", p.ID),
		zap.Int("days", len(content.Days)))
	return p, nil
}

// Prompt builds the plan-generation prompt for u.
func Prompt(u *models.User, now time.Time) string {
	return fmt.Sprintf(`Eres un nutricionista en FikaFood.

%s
Genera un plan alimenticio de %d días con desayuno, almuerzo y cena.
Respóndelo EXACTAMENTE en este formato:

Día 1
Desayuno: ...
Almuerzo: ...
Cena: ...

Día 2
Desayuno: ...
Almuerzo: ...
Cena: ...
`, u.PromptContext(now), models.PlanLength)
}

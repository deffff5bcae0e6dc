package chat

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fikafood/fika/internal/ai"
	"github.com/fikafood/fika/internal/models"
)

// Reply suffixes appended after an extraction attempt.
const (
	WaterSavedSuffix = "\n\n✅ ¡Meta de agua guardada!"
	GoalsSavedSuffix = "\n\n✅ ¡Metas nutricionales guardadas!"
	NotSavedSuffix   = "\n\n❌ No pude guardar automáticamente."
)

const titleLength = 60

// Store is the persistence the chat service needs.
type Store interface {
	CreateConversation(ctx context.Context, c *models.Conversation) error
	GetConversation(ctx context.Context, userID, id string) (*models.Conversation, error)
	AddMessage(ctx context.Context, m *models.Message) error
	GetGoals(ctx context.Context, userID string) (models.GoalSet, error)
	SaveGoals(ctx context.Context, userID string, g models.GoalSet) error
	SaveHydration(ctx context.Context, userID string, h models.HydrationGoal) error
}

// Service answers chat messages and saves goals found in the answers.
type Service struct {
	client    ai.Client
	store     Store
	extractor Extractor
	now       func() time.Time
	logger    *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithExtractor replaces the default PatternExtractor.
func WithExtractor(e Extractor) Option {
	return func(s *Service) { s.extractor = e }
}

// WithClock sets the time source.
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

// NewService creates a chat service.
func NewService(client ai.Client, store Store, opts ...Option) *Service {
	s := &Service{
		client:    client,
		store:     store,
		extractor: PatternExtractor{},
		now:       time.Now,
		logger:    zap.NewNop(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Send asks the model, applies any goals it finds and records the exchange. An
// empty conversationID starts a new conversation. Nothing is written when the
// model call fails.
func (s *Service) Send(ctx context.Context, u *models.User, conversationID, message string) (*models.ChatReply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, models.NewMissingParameterError("message")
	}

	var conv *models.Conversation
	if conversationID != "" {
		c, err := s.store.GetConversation(ctx, u.ID, conversationID)
		if err != nil {
			return nil, fmt.Errorf("get conversation: %w", err)
		}
		conv = c
	}

	goals, err := s.store.GetGoals(ctx, u.ID)
	if err != nil {
		return nil, fmt.Errorf("load goals: %w", err)
	}
	intent := DetectIntent(message)
	prompt := Prompt(intent, UserContext(u, goals, s.now()), message)

	text, err := s.client.Generate(ctx, prompt)
	if err != nil {
		s.logger.Warn("chat completion failed", zap.String("conversation_id", conversationID), zap.Error(err))
		return nil, fmt.Errorf("chat completion: %w", err)
	}

	if conv == nil {
		if conv, err = s.newConversation(ctx, u.ID, message); err != nil {
			return nil, err
		}
	}
	if err := s.addMessage(ctx, conv.ID, models.RoleUser, message); err != nil {
		return nil, err
	}

	reply := &models.ChatReply{ConversationID: conv.ID}
	switch intent {
	case IntentHydration:
		reply.WaterSaved = s.applyHydration(ctx, u.ID, text)
		text += suffix(reply.WaterSaved, WaterSavedSuffix)
	case IntentGoals:
		reply.GoalsSaved = s.applyGoals(ctx, u.ID, text)
		text += suffix(reply.GoalsSaved, GoalsSavedSuffix)
	}
	reply.Reply = text

	if err := s.addMessage(ctx, conv.ID, models.RoleAssistant, text); err != nil {
		return nil, err
	}
	s.logger.Debug("chat reply",
		zap.String("conversation_id", conv.ID),
		zap.Stringer("intent", intent),
		zap.Bool("goals_saved", reply.GoalsSaved),
		zap.Bool("water_saved", reply.WaterSaved))
	return reply, nil
}

func (s *Service) newConversation(ctx context.Context, userID, firstMessage string) (*models.Conversation, error) {
	now := s.now().UTC()
	c := &models.Conversation{
		ID:        uuid.New().String(),
		UserID:    userID,
		Title:     title(firstMessage),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateConversation(ctx, c); err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}
	return c, nil
}

func (s *Service) addMessage(ctx context.Context, convID string, role models.Role, content string) error {
	m := &models.Message{
		ID:             uuid.New().String(),
		ConversationID: convID,
		Role:           role,
		Content:        content,
		CreatedAt:      s.now().UTC(),
	}
	if err := s.store.AddMessage(ctx, m); err != nil {
		return fmt.Errorf("save %s message: %w", role, err)
	}
	return nil
}

func (s *Service) applyHydration(ctx context.Context, userID, text string) bool {
	ml, ok := s.extractor.Hydration(text)
	if !ok {
		return false
	}
	h := models.HydrationGoal{Milliliters: ml, Method: models.ProvenanceAI}
	if err := s.store.SaveHydration(ctx, userID, h); err != nil {
		s.logger.Error("save hydration goal", zap.String("user_id", userID), zap.Error(err))
		return false
	}
	return true
}

func (s *Service) applyGoals(ctx context.Context, userID, text string) bool {
	g, ok := s.extractor.Macros(text)
	if !ok {
		return false
	}
	g.Method = models.ProvenanceAI
	if err := s.store.SaveGoals(ctx, userID, g); err != nil {
		s.logger.Error("save nutrition goals", zap.String("user_id", userID), zap.Error(err))
		return false
	}
	return true
}

func suffix(saved bool, ok string) string {
	if saved {
		return ok
	}
	return NotSavedSuffix
}

func title(message string) string {
	if utf8.RuneCountInString(message) <= titleLength {
		return message
	}
	return string([]rune(message)[:titleLength]) + "..."
}

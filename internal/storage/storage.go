// Package storage defines the persistence interfaces for food records, profiles, goals, plans and chat.
package storage

import (
	"context"

	"github.com/fikafood/fika/internal/models"
)

// RecordStore persists food records and their detected items.
type RecordStore interface {
	CreateRecord(ctx context.Context, r *models.Record) error
	GetRecord(ctx context.Context, userID, id string) (*models.Record, error)
	UpdateRecord(ctx context.Context, r *models.Record) error
	DeleteRecord(ctx context.Context, userID, id string) error
	ListRecords(ctx context.Context, userID string, page models.Page) ([]*models.Record, error)
	// FindRecords returns matching records oldest first, without items.
	FindRecords(ctx context.Context, f models.RecordFilter) ([]*models.Record, error)
	// SumTotals adds up the seven nutrient fields of matching records.
	SumTotals(ctx context.Context, f models.RecordFilter) (models.Totals, int, error)
	// CompleteAnalysis applies a to r, marks it completed and replaces its items in one transaction.
	CompleteAnalysis(ctx context.Context, r *models.Record, a *models.Analysis) error
	FailAnalysis(ctx context.Context, id, cause string) error
	GetFoodItems(ctx context.Context, recordID string) ([]*models.FoodItem, error)
}

// UserStore persists profiles.
type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	UpdateUser(ctx context.Context, u *models.User) error
}

// GoalStore persists nutrition and hydration goals. Absent goals read as zero values.
type GoalStore interface {
	GetGoals(ctx context.Context, userID string) (models.GoalSet, error)
	SaveGoals(ctx context.Context, userID string, g models.GoalSet) error
	ClearGoals(ctx context.Context, userID string) error
	GetHydration(ctx context.Context, userID string) (models.HydrationGoal, error)
	SaveHydration(ctx context.Context, userID string, h models.HydrationGoal) error
	ClearHydration(ctx context.Context, userID string) error
}

// MealPlanStore persists generated plans.
type MealPlanStore interface {
	CreateMealPlan(ctx context.Context, p *models.MealPlan) error
	GetMealPlan(ctx context.Context, userID, id string) (*models.MealPlan, error)
	ListMealPlans(ctx context.Context, userID string) ([]*models.MealPlan, error)
	DeleteMealPlan(ctx context.Context, userID, id string) error
}

// ChatStore persists conversations and their messages.
type ChatStore interface {
	CreateConversation(ctx context.Context, c *models.Conversation) error
	GetConversation(ctx context.Context, userID, id string) (*models.Conversation, error)
	ListConversations(ctx context.Context, userID string) ([]*models.Conversation, error)
	AddMessage(ctx context.Context, m *models.Message) error
	GetMessages(ctx context.Context, conversationID string) ([]*models.Message, error)
}

// Stats counts stored rows.
type Stats struct {
	Users         int64 `json:"users"`
	Records       int64 `json:"records"`
	FoodItems     int64 `json:"food_items"`
	MealPlans     int64 `json:"meal_plans"`
	Conversations int64 `json:"conversations"`
}

// Storage is the full persistence surface.
type Storage interface {
	RecordStore
	UserStore
	GoalStore
	MealPlanStore
	ChatStore

	Stats(ctx context.Context) (*Stats, error)
	Close() error
}

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fikafood/fika/internal/models"
)

// GetGoals returns the user's macro goals, or a zero set when none are stored.
func (s *SQLiteStorage) GetGoals(ctx context.Context, userID string) (models.GoalSet, error) {
	var g models.GoalSet
	var method string
	err := s.db.QueryRowContext(ctx,
		`SELECT calories, protein, carbs, fat, goals_method FROM goals WHERE user_id = ?`, userID,
	).Scan(&g.Calories, &g.Protein, &g.Carbs, &g.Fat, &method)
	if errors.Is(err, sql.ErrNoRows) {
		return models.GoalSet{}, nil
	}
	if err != nil {
		return models.GoalSet{}, fmt.Errorf("get goals: %w", err)
	}
	g.Method = models.Provenance(method)
	return g, nil
}

// SaveGoals stores all four macro goals in one write. Hydration is untouched.
func (s *SQLiteStorage) SaveGoals(ctx context.Context, userID string, g models.GoalSet) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO goals (user_id, calories, protein, carbs, fat, goals_method, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
		 calories = excluded.calories, protein = excluded.protein, carbs = excluded.carbs,
		 fat = excluded.fat, goals_method = excluded.goals_method, updated_at = excluded.updated_at`,
		userID, g.Calories, g.Protein, g.Carbs, g.Fat, string(g.Method), formatTime(now()))
	if err != nil {
		return fmt.Errorf("save goals: %w", err)
	}
	return nil
}

// ClearGoals removes the macro goals.
func (s *SQLiteStorage) ClearGoals(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE goals SET calories = 0, protein = 0, carbs = 0, fat = 0, goals_method = '', updated_at = ?
		 WHERE user_id = ?`, formatTime(now()), userID)
	if err != nil {
		return fmt.Errorf("clear goals: %w", err)
	}
	return nil
}

// GetHydration returns the water goal, or a zero goal when none is stored.
func (s *SQLiteStorage) GetHydration(ctx context.Context, userID string) (models.HydrationGoal, error) {
	var h models.HydrationGoal
	var method string
	err := s.db.QueryRowContext(ctx,
		`SELECT water_ml, water_method FROM goals WHERE user_id = ?`, userID).Scan(&h.Milliliters, &method)
	if errors.Is(err, sql.ErrNoRows) {
		return models.HydrationGoal{}, nil
	}
	if err != nil {
		return models.HydrationGoal{}, fmt.Errorf("get hydration: %w", err)
	}
	h.Method = models.Provenance(method)
	return h, nil
}

// SaveHydration stores the water goal. Macro goals are untouched.
func (s *SQLiteStorage) SaveHydration(ctx context.Context, userID string, h models.HydrationGoal) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO goals (user_id, water_ml, water_method, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
		 water_ml = excluded.water_ml, water_method = excluded.water_method, updated_at = excluded.updated_at`,
		userID, h.Milliliters, string(h.Method), formatTime(now()))
	if err != nil {
		return fmt.Errorf("save hydration: %w", err)
	}
	return nil
}

// ClearHydration removes the water goal.
func (s *SQLiteStorage) ClearHydration(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE goals SET water_ml = 0, water_method = '', updated_at = ? WHERE user_id = ?`,
		formatTime(now()), userID)
	if err != nil {
		return fmt.Errorf("clear hydration: %w", err)
	}
	return nil
}

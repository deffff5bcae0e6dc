package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/fikafood/fika/internal/models"
)

// CreateMealPlan inserts a plan. The plan content is stored as JSON.
func (s *SQLiteStorage) CreateMealPlan(ctx context.Context, p *models.MealPlan) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now()
	}
	content, err := json.Marshal(p.Plan)
	if err != nil {
		return fmt.Errorf("failed to marshal plan: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO meal_plans (id, user_id, start_date, end_date, plan, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.UserID, p.StartDate, p.EndDate, string(content), formatTime(p.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert meal plan: %w", err)
	}
	return nil
}

// GetMealPlan returns a plan owned by userID.
func (s *SQLiteStorage) GetMealPlan(ctx context.Context, userID, id string) (*models.MealPlan, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, start_date, end_date, plan, created_at FROM meal_plans WHERE id = ? AND user_id = ?`,
		id, userID)
	p, err := scanMealPlan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("meal plan", id)
	}
	return p, err
}

// ListMealPlans returns the user's plans newest first.
func (s *SQLiteStorage) ListMealPlans(ctx context.Context, userID string) ([]*models.MealPlan, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, start_date, end_date, plan, created_at FROM meal_plans
		 WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	plans := []*models.MealPlan{}
	for rows.Next() {
		p, err := scanMealPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	return plans, rows.Err()
}

// DeleteMealPlan removes a plan owned by userID.
func (s *SQLiteStorage) DeleteMealPlan(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM meal_plans WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete meal plan: %w", err)
	}
	return checkAffected(res, "meal plan", id)
}

func scanMealPlan(row scanner) (*models.MealPlan, error) {
	var p models.MealPlan
	var content, created string
	if err := row.Scan(&p.ID, &p.UserID, &p.StartDate, &p.EndDate, &content, &created); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(content), &p.Plan); err != nil {
		return nil, fmt.Errorf("failed to unmarshal plan: %w", err)
	}
	var err error
	if p.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	return &p, nil
}

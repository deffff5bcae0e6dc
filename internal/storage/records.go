package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/fikafood/fika/internal/models"
)

const recordColumns = `id, user_id, image_path, description, ai_description, ai_confidence,
	total_calories, total_protein, total_carbs, total_fat, total_fiber, total_sugar, total_sodium,
	estimated_weight, model, status, created_at, updated_at`

const itemColumns = `id, record_id, name, category, estimated_quantity, quantity_unit,
	calories, protein, carbs, fat, fiber, sugar, sodium, confidence, created_at`

type scanner interface {
	Scan(dest ...interface{}) error
}

// CreateRecord inserts a record and its items.
func (s *SQLiteStorage) CreateRecord(ctx context.Context, r *models.Record) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	ts := now()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = ts
	}
	r.UpdatedAt = ts

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO food_records (`+recordColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.UserID, r.ImagePath, r.Description, r.AIDescription, r.AIConfidence,
		r.Totals.Calories, r.Totals.Protein, r.Totals.Carbs, r.Totals.Fat,
		r.Totals.Fiber, r.Totals.Sugar, r.Totals.Sodium,
		r.EstimatedWeight, r.Model, string(r.Status), formatTime(r.CreatedAt), formatTime(r.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	if err := insertItems(ctx, tx, r.ID, r.Items); err != nil {
		return err
	}
	return tx.Commit()
}

// GetRecord returns a record owned by userID, with its items.
func (s *SQLiteStorage) GetRecord(ctx context.Context, userID, id string) (*models.Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM food_records WHERE id = ? AND user_id = ?`, id, userID)
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("record", id)
	}
	if err != nil {
		return nil, err
	}
	if r.Items, err = s.GetFoodItems(ctx, r.ID); err != nil {
		return nil, err
	}
	return r, nil
}

// UpdateRecord writes the record's own fields. Items are left alone.
func (s *SQLiteStorage) UpdateRecord(ctx context.Context, r *models.Record) error {
	r.UpdatedAt = now()
	res, err := s.db.ExecContext(ctx,
		`UPDATE food_records SET image_path = ?, description = ?, ai_description = ?, ai_confidence = ?,
		 total_calories = ?, total_protein = ?, total_carbs = ?, total_fat = ?,
		 total_fiber = ?, total_sugar = ?, total_sodium = ?,
		 estimated_weight = ?, model = ?, status = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		r.ImagePath, r.Description, r.AIDescription, r.AIConfidence,
		r.Totals.Calories, r.Totals.Protein, r.Totals.Carbs, r.Totals.Fat,
		r.Totals.Fiber, r.Totals.Sugar, r.Totals.Sodium,
		r.EstimatedWeight, r.Model, string(r.Status), formatTime(r.UpdatedAt),
		r.ID, r.UserID,
	)
	if err != nil {
		return fmt.Errorf("update record: %w", err)
	}
	return checkAffected(res, "record", r.ID)
}

// DeleteRecord removes a record and its items.
func (s *SQLiteStorage) DeleteRecord(ctx context.Context, userID, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM food_items WHERE record_id IN (SELECT id FROM food_records WHERE id = ? AND user_id = ?)`,
		id, userID); err != nil {
		return fmt.Errorf("delete items: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM food_records WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	if err := checkAffected(res, "record", id); err != nil {
		return err
	}
	return tx.Commit()
}

// ListRecords returns the user's records newest first, with items.
func (s *SQLiteStorage) ListRecords(ctx context.Context, userID string, page models.Page) ([]*models.Record, error) {
	page.Normalize()
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM food_records WHERE user_id = ?
		 ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		userID, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	records, err := collectRecords(rows)
	if err != nil {
		return nil, err
	}
	for _, r := range records {
		if r.Items, err = s.GetFoodItems(ctx, r.ID); err != nil {
			return nil, err
		}
	}
	return records, nil
}

// FindRecords implements RecordStore.
func (s *SQLiteStorage) FindRecords(ctx context.Context, f models.RecordFilter) ([]*models.Record, error) {
	where, args := filterClause(f)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM food_records WHERE `+where+` ORDER BY created_at ASC`, args...)
	if err != nil {
		return nil, err
	}
	return collectRecords(rows)
}

// SumTotals implements RecordStore.
func (s *SQLiteStorage) SumTotals(ctx context.Context, f models.RecordFilter) (models.Totals, int, error) {
	where, args := filterClause(f)
	var t models.Totals
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(total_calories), 0), COALESCE(SUM(total_protein), 0),
		 COALESCE(SUM(total_carbs), 0), COALESCE(SUM(total_fat), 0),
		 COALESCE(SUM(total_fiber), 0), COALESCE(SUM(total_sugar), 0),
		 COALESCE(SUM(total_sodium), 0), COUNT(*)
		 FROM food_records WHERE `+where, args...,
	).Scan(&t.Calories, &t.Protein, &t.Carbs, &t.Fat, &t.Fiber, &t.Sugar, &t.Sodium, &count)
	if err != nil {
		return models.Totals{}, 0, fmt.Errorf("sum totals: %w", err)
	}
	return t, count, nil
}

func filterClause(f models.RecordFilter) (string, []interface{}) {
	conds := []string{"user_id = ?"}
	args := []interface{}{f.UserID}
	if f.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, string(f.Status))
	}
	if !f.From.IsZero() {
		conds = append(conds, "created_at >= ?")
		args = append(args, formatTime(f.From))
	}
	if !f.To.IsZero() {
		conds = append(conds, "created_at < ?")
		args = append(args, formatTime(f.To))
	}
	return strings.Join(conds, " AND "), args
}

// CompleteAnalysis implements RecordStore. On error r is left as it was.
func (s *SQLiteStorage) CompleteAnalysis(ctx context.Context, r *models.Record, a *models.Analysis) error {
	updated := *r
	updated.AIDescription = a.AIDescription
	updated.AIConfidence = a.AIConfidence
	updated.EstimatedWeight = a.EstimatedWeight
	updated.Totals = a.Totals
	updated.Model = a.Model
	updated.Status = models.StatusCompleted
	updated.UpdatedAt = now()
	updated.Items = make([]*models.FoodItem, 0, len(a.Items))
	for i := range a.Items {
		it := a.Items[i]
		updated.Items = append(updated.Items, &it)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE food_records SET description = ?, ai_description = ?, ai_confidence = ?,
		 total_calories = ?, total_protein = ?, total_carbs = ?, total_fat = ?,
		 total_fiber = ?, total_sugar = ?, total_sodium = ?,
		 estimated_weight = ?, model = ?, status = ?, updated_at = ?
		 WHERE id = ?`,
		updated.Description, updated.AIDescription, updated.AIConfidence,
		updated.Totals.Calories, updated.Totals.Protein, updated.Totals.Carbs, updated.Totals.Fat,
		updated.Totals.Fiber, updated.Totals.Sugar, updated.Totals.Sodium,
		updated.EstimatedWeight, updated.Model, string(updated.Status), formatTime(updated.UpdatedAt),
		updated.ID,
	)
	if err != nil {
		return fmt.Errorf("update record: %w", err)
	}
	if err := checkAffected(res, "record", r.ID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM food_items WHERE record_id = ?`, r.ID); err != nil {
		return fmt.Errorf("delete items: %w", err)
	}
	if err := insertItems(ctx, tx, r.ID, updated.Items); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	*r = updated
	return nil
}

// FailAnalysis marks a record failed and keeps the cause in its AI description.
func (s *SQLiteStorage) FailAnalysis(ctx context.Context, id, cause string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE food_records SET status = ?, ai_description = ?, updated_at = ? WHERE id = ?`,
		string(models.StatusFailed), "Error: "+cause, formatTime(now()), id)
	if err != nil {
		return fmt.Errorf("fail record: %w", err)
	}
	return checkAffected(res, "record", id)
}

// GetFoodItems returns a record's items in detection order.
func (s *SQLiteStorage) GetFoodItems(ctx context.Context, recordID string) ([]*models.FoodItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM food_items WHERE record_id = ? ORDER BY position`, recordID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []*models.FoodItem{}
	for rows.Next() {
		var it models.FoodItem
		var created string
		if err := rows.Scan(&it.ID, &it.RecordID, &it.Name, &it.Category, &it.EstimatedQuantity, &it.QuantityUnit,
			&it.Nutrients.Calories, &it.Nutrients.Protein, &it.Nutrients.Carbs, &it.Nutrients.Fat,
			&it.Nutrients.Fiber, &it.Nutrients.Sugar, &it.Nutrients.Sodium, &it.Confidence, &created); err != nil {
			return nil, err
		}
		if it.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		items = append(items, &it)
	}
	return items, rows.Err()
}

func insertItems(ctx context.Context, tx *sql.Tx, recordID string, items []*models.FoodItem) error {
	if len(items) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO food_items (`+itemColumns+`, position)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	ts := now()
	for i, it := range items {
		if it.ID == "" {
			it.ID = uuid.New().String()
		}
		if it.QuantityUnit == "" {
			it.QuantityUnit = models.DefaultQuantityUnit
		}
		it.RecordID = recordID
		it.CreatedAt = ts
		if _, err := stmt.ExecContext(ctx, it.ID, it.RecordID, it.Name, it.Category, it.EstimatedQuantity, it.QuantityUnit,
			it.Nutrients.Calories, it.Nutrients.Protein, it.Nutrients.Carbs, it.Nutrients.Fat,
			it.Nutrients.Fiber, it.Nutrients.Sugar, it.Nutrients.Sodium, it.Confidence,
			formatTime(it.CreatedAt), i); err != nil {
			return fmt.Errorf("insert item %q: %w", it.Name, err)
		}
	}
	return nil
}

func scanRecord(row scanner) (*models.Record, error) {
	var r models.Record
	var status, created, updated string
	if err := row.Scan(&r.ID, &r.UserID, &r.ImagePath, &r.Description, &r.AIDescription, &r.AIConfidence,
		&r.Totals.Calories, &r.Totals.Protein, &r.Totals.Carbs, &r.Totals.Fat,
		&r.Totals.Fiber, &r.Totals.Sugar, &r.Totals.Sodium,
		&r.EstimatedWeight, &r.Model, &status, &created, &updated); err != nil {
		return nil, err
	}
	r.Status = models.Status(status)
	var err error
	if r.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if r.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &r, nil
}

func collectRecords(rows *sql.Rows) ([]*models.Record, error) {
	defer rows.Close()
	records := []*models.Record{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fikafood/fika/internal/models"
)

const userColumns = `id, email, first_name, last_name, date_of_birth, gender, weight, height,
	activity_level, objective, dietary_preference, additional_restrictions, created_at, updated_at`

// CreateUser inserts a profile. A duplicate email is a validation error.
func (s *SQLiteStorage) CreateUser(ctx context.Context, u *models.User) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	ts := now()
	u.CreatedAt = ts
	u.UpdatedAt = ts
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.FirstName, u.LastName, dateValue(u.DateOfBirth), u.Gender, u.Weight, u.Height,
		u.ActivityLevel, u.Objective, u.DietaryPreference, u.AdditionalRestrictions,
		formatTime(u.CreatedAt), formatTime(u.UpdatedAt),
	)
	if isUniqueViolation(err) {
		return models.NewValidationError("email", "already registered")
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetUser returns a profile by ID.
func (s *SQLiteStorage) GetUser(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	var dob sql.NullString
	var created, updated string
	err := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id).Scan(
		&u.ID, &u.Email, &u.FirstName, &u.LastName, &dob, &u.Gender, &u.Weight, &u.Height,
		&u.ActivityLevel, &u.Objective, &u.DietaryPreference, &u.AdditionalRestrictions, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("user", id)
	}
	if err != nil {
		return nil, err
	}
	if dob.Valid && dob.String != "" {
		d, err := time.Parse(models.DateLayout, dob.String)
		if err != nil {
			return nil, fmt.Errorf("invalid stored birth date: %w", err)
		}
		u.DateOfBirth = &d
	}
	if u.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if u.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateUser writes every profile field except email and creation time.
func (s *SQLiteStorage) UpdateUser(ctx context.Context, u *models.User) error {
	u.UpdatedAt = now()
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET first_name = ?, last_name = ?, date_of_birth = ?, gender = ?, weight = ?, height = ?,
		 activity_level = ?, objective = ?, dietary_preference = ?, additional_restrictions = ?, updated_at = ?
		 WHERE id = ?`,
		u.FirstName, u.LastName, dateValue(u.DateOfBirth), u.Gender, u.Weight, u.Height,
		u.ActivityLevel, u.Objective, u.DietaryPreference, u.AdditionalRestrictions, formatTime(u.UpdatedAt),
		u.ID,
	)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return checkAffected(res, "user", u.ID)
}

func dateValue(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.Format(models.DateLayout)
}

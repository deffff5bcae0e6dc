package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/fikafood/fika/internal/models"
)

// timeLayout is fixed width so stored timestamps compare correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

var _ Storage = (*SQLiteStorage)(nil)

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		first_name TEXT NOT NULL DEFAULT '',
		last_name TEXT NOT NULL DEFAULT '',
		date_of_birth TEXT,
		gender TEXT NOT NULL DEFAULT '',
		weight REAL NOT NULL DEFAULT 0,
		height REAL NOT NULL DEFAULT 0,
		activity_level TEXT NOT NULL DEFAULT '',
		objective TEXT NOT NULL DEFAULT '',
		dietary_preference TEXT NOT NULL DEFAULT 'classic',
		additional_restrictions TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS goals (
		user_id TEXT PRIMARY KEY,
		calories INTEGER NOT NULL DEFAULT 0,
		protein INTEGER NOT NULL DEFAULT 0,
		carbs INTEGER NOT NULL DEFAULT 0,
		fat INTEGER NOT NULL DEFAULT 0,
		goals_method TEXT NOT NULL DEFAULT '',
		water_ml INTEGER NOT NULL DEFAULT 0,
		water_method TEXT NOT NULL DEFAULT '',
		updated_at TEXT NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS food_records (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		image_path TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		ai_description TEXT NOT NULL DEFAULT '',
		ai_confidence REAL NOT NULL DEFAULT 0,
		total_calories REAL NOT NULL DEFAULT 0,
		total_protein REAL NOT NULL DEFAULT 0,
		total_carbs REAL NOT NULL DEFAULT 0,
		total_fat REAL NOT NULL DEFAULT 0,
		total_fiber REAL NOT NULL DEFAULT 0,
		total_sugar REAL NOT NULL DEFAULT 0,
		total_sodium REAL NOT NULL DEFAULT 0,
		estimated_weight REAL NOT NULL DEFAULT 0,
		model TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_records_user_created ON food_records(user_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_records_user_status ON food_records(user_id, status);

	CREATE TABLE IF NOT EXISTS food_items (
		id TEXT PRIMARY KEY,
		record_id TEXT NOT NULL,
		name TEXT NOT NULL,
		category TEXT NOT NULL DEFAULT '',
		estimated_quantity REAL NOT NULL DEFAULT 0,
		quantity_unit TEXT NOT NULL DEFAULT 'gramos',
		calories REAL NOT NULL DEFAULT 0,
		protein REAL NOT NULL DEFAULT 0,
		carbs REAL NOT NULL DEFAULT 0,
		fat REAL NOT NULL DEFAULT 0,
		fiber REAL NOT NULL DEFAULT 0,
		sugar REAL NOT NULL DEFAULT 0,
		sodium REAL NOT NULL DEFAULT 0,
		confidence REAL NOT NULL DEFAULT 0,
		position INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		FOREIGN KEY (record_id) REFERENCES food_records(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_items_record ON food_items(record_id, position);

	CREATE TABLE IF NOT EXISTS meal_plans (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		plan TEXT NOT NULL,
		created_at TEXT NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_plans_user_created ON meal_plans(user_id, created_at);

	CREATE TABLE IF NOT EXISTS conversations (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS messages (
		id TEXT PRIMARY KEY,
		conversation_id TEXT NOT NULL,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		created_at TEXT NOT NULL,
		FOREIGN KEY (conversation_id) REFERENCES conversations(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, created_at);
	`
	_, err := db.Exec(schema)
	return err
}

// Stats returns row counts for the main tables.
func (s *SQLiteStorage) Stats(ctx context.Context) (*Stats, error) {
	var st Stats
	counts := []struct {
		table string
		dst   *int64
	}{
		{"users", &st.Users},
		{"food_records", &st.Records},
		{"food_items", &st.FoodItems},
		{"meal_plans", &st.MealPlans},
		{"conversations", &st.Conversations},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+c.table).Scan(c.dst); err != nil {
			return nil, fmt.Errorf("count %s: %w", c.table, err)
		}
	}
	return &st, nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid stored time %q: %w", s, err)
	}
	return t, nil
}

func now() time.Time {
	return time.Now().UTC()
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, models.ErrNotFound)
}

func isUniqueViolation(err error) bool {
	var se sqlite3.Error
	return errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintUnique
}

func checkAffected(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound(kind, id)
	}
	return nil
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/calabozos/calabozos-backend/internal/model"
)

// SQLiteClassRepository handles class data access on SQLite.
// Timestamps are stored as UTC unix milliseconds.
type SQLiteClassRepository struct {
	db *sql.DB
}

// NewSQLiteClassRepository creates a new SQLiteClassRepository.
func NewSQLiteClassRepository(db *sql.DB) *SQLiteClassRepository {
	return &SQLiteClassRepository{db: db}
}

// FindOrCreate inserts rec unless its index already exists, then returns the stored row.
func (r *SQLiteClassRepository) FindOrCreate(ctx context.Context, rec *model.ClassRecord) (*model.ClassRecord, error) {
	if strings.TrimSpace(rec.Index) == "" {
		return nil, ErrEmptyIndex
	}

	now := toMillis(time.Now())
	row := r.db.QueryRowContext(ctx,
		`INSERT INTO classes ("index", name, url, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT ("index") DO NOTHING
		 RETURNING id, "index", name, url, created_at, updated_at`,
		rec.Index, rec.Name, rec.URL, now, now,
	)
	c, err := scanClass(row)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("insert class %q: %w", rec.Index, err)
	}

	return r.GetByIndex(ctx, rec.Index)
}

// GetByIndex retrieves a class by its natural index.
func (r *SQLiteClassRepository) GetByIndex(ctx context.Context, index string) (*model.ClassRecord, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, "index", name, url, created_at, updated_at
		 FROM classes WHERE "index" = ?`, index)
	c, err := scanClass(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get class %q: %w", index, err)
	}
	return c, nil
}

// All retrieves every class in insertion order.
func (r *SQLiteClassRepository) All(ctx context.Context) ([]model.ClassRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, "index", name, url, created_at, updated_at
		 FROM classes ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	classes := []model.ClassRecord{}
	for rows.Next() {
		c, err := scanClass(rows)
		if err != nil {
			return nil, err
		}
		classes = append(classes, *c)
	}
	return classes, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClass(s rowScanner) (*model.ClassRecord, error) {
	var (
		c                model.ClassRecord
		created, updated int64
	)
	if err := s.Scan(&c.ID, &c.Index, &c.Name, &c.URL, &created, &updated); err != nil {
		return nil, err
	}
	c.CreatedAt = fromMillis(created)
	c.UpdatedAt = fromMillis(updated)
	return &c, nil
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

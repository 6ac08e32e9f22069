package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/calabozos/calabozos-backend/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ClassRepository handles class data access on PostgreSQL.
type ClassRepository struct {
	pool *pgxpool.Pool
}

// NewClassRepository creates a new ClassRepository.
func NewClassRepository(pool *pgxpool.Pool) *ClassRepository {
	return &ClassRepository{pool: pool}
}

// FindOrCreate inserts rec unless its index already exists, then returns the stored row.
func (r *ClassRepository) FindOrCreate(ctx context.Context, rec *model.ClassRecord) (*model.ClassRecord, error) {
	if strings.TrimSpace(rec.Index) == "" {
		return nil, ErrEmptyIndex
	}

	c := &model.ClassRecord{}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO classes ("index", name, url)
		 VALUES ($1, $2, $3)
		 ON CONFLICT ("index") DO NOTHING
		 RETURNING id, "index", name, url, created_at, updated_at`,
		rec.Index, rec.Name, rec.URL,
	).Scan(&c.ID, &c.Index, &c.Name, &c.URL, &c.CreatedAt, &c.UpdatedAt)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("insert class %q: %w", rec.Index, err)
	}

	// Conflict: the index is already known.
	return r.GetByIndex(ctx, rec.Index)
}

// GetByIndex retrieves a class by its natural index.
func (r *ClassRepository) GetByIndex(ctx context.Context, index string) (*model.ClassRecord, error) {
	c := &model.ClassRecord{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, "index", name, url, created_at, updated_at
		 FROM classes WHERE "index" = $1`, index,
	).Scan(&c.ID, &c.Index, &c.Name, &c.URL, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get class %q: %w", index, err)
	}
	return c, nil
}

// All retrieves every class in insertion order.
func (r *ClassRepository) All(ctx context.Context) ([]model.ClassRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, "index", name, url, created_at, updated_at
		 FROM classes ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	classes := []model.ClassRecord{}
	for rows.Next() {
		var c model.ClassRecord
		if err := rows.Scan(&c.ID, &c.Index, &c.Name, &c.URL, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		classes = append(classes, c)
	}
	return classes, rows.Err()
}

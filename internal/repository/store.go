package repository

import (
	"context"
	"errors"
	"time"

	"github.com/calabozos/calabozos-backend/internal/model"
)

// Common repository errors.
var (
	ErrNotFound   = errors.New("record not found")
	ErrEmptyIndex = errors.New("class index is empty")

	ErrDuplicateEmail = errors.New("email already registered")
)

// ClassStore persists class records keyed by their unique index.
type ClassStore interface {
	// FindOrCreate returns the stored record for rec.Index, inserting rec
	// first if the index is unknown. Existing rows are never modified.
	FindOrCreate(ctx context.Context, rec *model.ClassRecord) (*model.ClassRecord, error)
	// All returns every record in insertion order.
	All(ctx context.Context) ([]model.ClassRecord, error)
}

// UserStore persists API users.
type UserStore interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Create(ctx context.Context, u *model.User) error
}

// SessionStore tracks which issued tokens are still live.
type SessionStore interface {
	Save(ctx context.Context, userID int64, tokenID string, ttl time.Duration) error
	Exists(ctx context.Context, userID int64, tokenID string) (bool, error)
	Delete(ctx context.Context, userID int64, tokenID string) error
}

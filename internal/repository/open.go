package repository

import (
	"context"

	"github.com/calabozos/calabozos-backend/internal/config"
	"github.com/calabozos/calabozos-backend/internal/database"
	"github.com/rs/zerolog"
)

// Stores bundles the relational repositories of the configured driver.
type Stores struct {
	Classes ClassStore
	Users   UserStore
	ping    func(ctx context.Context) error
	close   func()
}

// Ping checks that the database is reachable.
func (s *Stores) Ping(ctx context.Context) error {
	return s.ping(ctx)
}

// Close releases the underlying database handle.
func (s *Stores) Close() {
	if s != nil && s.close != nil {
		s.close()
	}
}

// Open connects to the database selected by cfg.DBDriver.
func Open(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Stores, error) {
	if cfg.DBDriver == config.DriverSQLite {
		db, err := database.NewSQLiteDB(ctx, cfg.SQLitePath, log)
		if err != nil {
			return nil, err
		}
		return &Stores{
			Classes: NewSQLiteClassRepository(db),
			Users:   NewSQLiteUserRepository(db),
			ping:    db.PingContext,
			close:   func() { _ = db.Close() },
		}, nil
	}

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	return &Stores{
		Classes: NewClassRepository(pool),
		Users:   NewUserRepository(pool),
		ping:    pool.Ping,
		close:   pool.Close,
	}, nil
}

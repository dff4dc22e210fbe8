package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"

	"camrent-web/internal/logger"
	"camrent-web/internal/repository"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type Store struct {
	db *sql.DB
	repository.SessionRepository
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:                db,
		SessionRepository: NewSessionRepository(db),
	}
}

// Open connects and pings within timeout.
func Open(ctx context.Context, connString string, timeout time.Duration) (*sql.DB, error) {
	logger.DatabaseCall("open", "postgres")
	db, err := sql.Open("postgres", connString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		logger.DatabaseResult("open", 0, err)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	logger.DatabaseResult("open", 0, nil)
	return db, nil
}

// Migrate applies the embedded migrations. An up-to-date schema is not an
// error. db stays open.
func Migrate(db *sql.DB) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}
	driver, err := migratepg.WithInstance(db, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("failed to init migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to init migrations: %w", err)
	}
	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Debug("Database schema is up to date")
			return nil
		}
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	version, _, _ := m.Version()
	logger.Info("Database migrations applied", "version", version)
	return nil
}

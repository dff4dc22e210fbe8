package repository

import (
	"context"
	"time"

	"camrent-web/internal/domain"
)

// SessionRepository persists BFF login sessions keyed by the cookie id. It
// satisfies session.Store; Load reports a missing key as session.ErrNoSession.
type SessionRepository interface {
	Load(ctx context.Context, key string) (*domain.Session, error)
	Save(ctx context.Context, key string, s *domain.Session) error
	Delete(ctx context.Context, key string) error
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

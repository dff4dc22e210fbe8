package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"camrent-web/internal/domain"
	"camrent-web/internal/logger"
	"camrent-web/internal/repository"
	"camrent-web/internal/session"
)

type sessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) repository.SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Load(ctx context.Context, key string) (*domain.Session, error) {
	query := `SELECT payload FROM sessions WHERE session_key = $1`
	var payload []byte
	err := r.db.QueryRowContext(ctx, query, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, session.ErrNoSession
	}
	if err != nil {
		logger.DatabaseResult("sessions.Load", 0, err)
		return nil, err
	}
	s := &domain.Session{}
	if err := json.Unmarshal(payload, s); err != nil {
		return nil, fmt.Errorf("corrupt session payload: %w", err)
	}
	return s, nil
}

func (r *sessionRepository) Save(ctx context.Context, key string, s *domain.Session) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return err
	}
	var expires any
	if !s.ExpiresAt.IsZero() {
		expires = s.ExpiresAt.UTC()
	}
	query := `INSERT INTO sessions (session_key, user_id, role, payload, expires_at, updated_on)
	          VALUES ($1, $2, $3, $4, $5, NOW())
	          ON CONFLICT (session_key) DO UPDATE
	          SET user_id = EXCLUDED.user_id, role = EXCLUDED.role, payload = EXCLUDED.payload,
	              expires_at = EXCLUDED.expires_at, updated_on = NOW()`
	_, err = r.db.ExecContext(ctx, query, key, s.UserID, string(s.Role), payload, expires)
	if err != nil {
		logger.DatabaseResult("sessions.Save", 0, err)
	}
	return err
}

func (r *sessionRepository) Delete(ctx context.Context, key string) error {
	query := `DELETE FROM sessions WHERE session_key = $1`
	_, err := r.db.ExecContext(ctx, query, key)
	return err
}

// DeleteExpired removes sessions that expired before the given time.
// Sessions without an expiry are kept.
func (r *sessionRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	query := `DELETE FROM sessions WHERE expires_at IS NOT NULL AND expires_at < $1`
	logger.DatabaseCall("sessions.DeleteExpired", query, "before", before)
	res, err := r.db.ExecContext(ctx, query, before.UTC())
	if err != nil {
		logger.DatabaseResult("sessions.DeleteExpired", 0, err)
		return 0, err
	}
	n, err := res.RowsAffected()
	logger.DatabaseResult("sessions.DeleteExpired", n, err)
	return n, err
}

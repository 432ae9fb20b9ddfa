// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warren Contributors

// Package postgres provides the PostgreSQL session repository.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/warrenmud/warren/internal/auth"
)

// poolIface is the subset of pgxpool.Pool the repository uses; pgxmock
// implements it for unit tests.
type poolIface interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// SessionRepository implements auth.SessionRepository using PostgreSQL.
type SessionRepository struct {
	pool poolIface
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(pool poolIface) *SessionRepository {
	return &SessionRepository{pool: pool}
}

// Create stores a new session.
func (r *SessionRepository) Create(ctx context.Context, s *auth.Session) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO sessions (id, user_id, token_hash, expires_at, created_at, last_seen_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, s.ID.String(), s.UserID.String(), s.TokenHash, s.ExpiresAt, s.CreatedAt, s.LastSeenAt)
	if err != nil {
		return oops.With("operation", "create session").With("id", s.ID.String()).Wrap(err)
	}
	return nil
}

// GetByTokenHash retrieves a session by its token hash.
func (r *SessionRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*auth.Session, error) {
	var (
		idStr, userStr string
		s              auth.Session
	)
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, token_hash, expires_at, created_at, last_seen_at
		FROM sessions WHERE token_hash = $1
	`, tokenHash).Scan(&idStr, &userStr, &s.TokenHash, &s.ExpiresAt, &s.CreatedAt, &s.LastSeenAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, auth.ErrSessionInvalid
	}
	if err != nil {
		return nil, oops.With("operation", "get session by token hash").Wrap(err)
	}

	if s.ID, err = ulid.Parse(idStr); err != nil {
		return nil, oops.With("operation", "parse session id").With("id", idStr).Wrap(err)
	}
	if s.UserID, err = ulid.Parse(userStr); err != nil {
		return nil, oops.With("operation", "parse user id").With("user_id", userStr).Wrap(err)
	}
	return &s, nil
}

// TouchLastSeen updates the LastSeenAt timestamp.
func (r *SessionRepository) TouchLastSeen(ctx context.Context, id ulid.ULID, at time.Time) error {
	result, err := r.pool.Exec(ctx,
		`UPDATE sessions SET last_seen_at = $2 WHERE id = $1`,
		id.String(), at)
	if err != nil {
		return oops.With("operation", "touch last seen").With("id", id.String()).Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return auth.ErrSessionInvalid
	}
	return nil
}

// DeleteExpired removes sessions past their expiry.
func (r *SessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at < $1`, now)
	if err != nil {
		return 0, oops.With("operation", "delete expired sessions").Wrap(err)
	}
	return result.RowsAffected(), nil
}

// Compile-time interface check.
var _ auth.SessionRepository = (*SessionRepository)(nil)

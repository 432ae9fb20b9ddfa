// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warren Contributors

// Package auth provides the session and credential primitives the game core
// consumes. The core treats session tokens as opaque; everything here exists
// to mint them (seed tooling) and to resolve them back to a user.
package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Session token configuration.
const (
	// TokenBytes is the random token length: 32 bytes = 256 bits, well
	// above the 128-bit floor.
	TokenBytes = 32

	// DefaultSessionTTL is how long a freshly minted session lives.
	DefaultSessionTTL = 24 * time.Hour
)

// Sentinel errors for session resolution.
var (
	ErrSessionInvalid = errors.New("invalid session")
	ErrSessionExpired = errors.New("session expired")
)

// Session is one authenticated presence. Only the SHA-256 hash of the token
// is stored; the plaintext is handed to the client once at minting.
type Session struct {
	ID         ulid.ULID
	UserID     ulid.ULID
	TokenHash  string
	ExpiresAt  time.Time
	CreatedAt  time.Time
	LastSeenAt time.Time
}

// NewSession creates a validated session record.
func NewSession(userID ulid.ULID, tokenHash string, expiresAt time.Time) (*Session, error) {
	if userID.IsZero() {
		return nil, oops.Code("SESSION_INVALID_USER").Errorf("user ID cannot be zero")
	}
	if tokenHash == "" {
		return nil, oops.Code("SESSION_INVALID_HASH").Errorf("token hash cannot be empty")
	}
	if expiresAt.IsZero() {
		return nil, oops.Code("SESSION_INVALID_EXPIRY").Errorf("expiry time cannot be zero")
	}
	now := time.Now()
	return &Session{
		ID:         ulid.Make(),
		UserID:     userID,
		TokenHash:  tokenHash,
		ExpiresAt:  expiresAt,
		CreatedAt:  now,
		LastSeenAt: now,
	}, nil
}

// ExpiredAt reports whether the session would be expired at the given time.
func (s *Session) ExpiredAt(t time.Time) bool {
	return t.After(s.ExpiresAt)
}

// GenerateToken creates a secure random token and its storage hash.
// The plaintext token goes to the client; only the hash is persisted.
func GenerateToken() (token, hash string, err error) {
	buf := make([]byte, TokenBytes)
	if _, err = rand.Read(buf); err != nil {
		return "", "", oops.Code("SESSION_TOKEN_GENERATE_FAILED").Wrap(err)
	}
	token = hex.EncodeToString(buf)
	return token, HashToken(token), nil
}

// HashToken computes the SHA-256 storage hash of a session token.
func HashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// VerifyToken checks a plaintext token against a stored hash in constant
// time.
func VerifyToken(token, hash string) bool {
	if token == "" || hash == "" {
		return false
	}
	computed := HashToken(token)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(hash)) == 1
}

// SessionRepository manages session persistence.
type SessionRepository interface {
	// Create stores a new session.
	Create(ctx context.Context, s *Session) error

	// GetByTokenHash retrieves a session by its token hash.
	// Returns ErrSessionInvalid when no such session exists.
	GetByTokenHash(ctx context.Context, tokenHash string) (*Session, error)

	// TouchLastSeen updates the LastSeenAt timestamp.
	TouchLastSeen(ctx context.Context, id ulid.ULID, at time.Time) error

	// DeleteExpired removes sessions past their expiry, returning the count
	// of deleted rows.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// Resolver turns opaque tokens into user identities with expiry enforcement.
type Resolver struct {
	repo SessionRepository
}

// NewResolver creates a session resolver over the given repository.
func NewResolver(repo SessionRepository) *Resolver {
	return &Resolver{repo: repo}
}

// Resolve validates a token at the given instant and returns the owning
// user. The session's last-seen timestamp is refreshed on success.
func (r *Resolver) Resolve(ctx context.Context, token string, now time.Time) (ulid.ULID, error) {
	if token == "" {
		return ulid.ULID{}, ErrSessionInvalid
	}
	s, err := r.repo.GetByTokenHash(ctx, HashToken(token))
	if err != nil {
		return ulid.ULID{}, err
	}
	if s.ExpiredAt(now) {
		return ulid.ULID{}, ErrSessionExpired
	}
	if err := r.repo.TouchLastSeen(ctx, s.ID, now); err != nil {
		return ulid.ULID{}, err
	}
	return s.UserID, nil
}

// MemorySessionRepository is an in-memory SessionRepository for tests and
// store-free local mode.
type MemorySessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]*Session // keyed by token hash
}

// NewMemorySessionRepository creates an empty in-memory repository.
func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{sessions: make(map[string]*Session)}
}

// Create stores a new session.
func (m *MemorySessionRepository) Create(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.sessions[s.TokenHash] = &cp
	return nil
}

// GetByTokenHash retrieves a session by its token hash.
func (m *MemorySessionRepository) GetByTokenHash(_ context.Context, tokenHash string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[tokenHash]
	if !ok {
		return nil, ErrSessionInvalid
	}
	cp := *s
	return &cp, nil
}

// TouchLastSeen updates the LastSeenAt timestamp.
func (m *MemorySessionRepository) TouchLastSeen(_ context.Context, id ulid.ULID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		if s.ID == id {
			s.LastSeenAt = at
			return nil
		}
	}
	return ErrSessionInvalid
}

// DeleteExpired removes sessions past their expiry.
func (m *MemorySessionRepository) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for hash, s := range m.sessions {
		if s.ExpiredAt(now) {
			delete(m.sessions, hash)
			n++
		}
	}
	return n, nil
}

// Compile-time interface check.
var _ SessionRepository = (*MemorySessionRepository)(nil)

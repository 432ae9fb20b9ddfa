// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warren Contributors

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/warrenmud/warren/internal/world"
)

// WorldRepository implements world.WorldRepository using PostgreSQL.
type WorldRepository struct {
	pool poolIface
}

// NewWorldRepository creates a new WorldRepository.
func NewWorldRepository(pool poolIface) *WorldRepository {
	return &WorldRepository{pool: pool}
}

// Get retrieves a world by ID.
func (r *WorldRepository) Get(ctx context.Context, id ulid.ULID) (*world.World, error) {
	var (
		idStr string
		seed  int64
		w     world.World
	)
	err := q(ctx, r.pool).QueryRow(ctx, `
		SELECT id, seed, generator_version, created_at
		FROM worlds WHERE id = $1
	`, id.String()).Scan(&idStr, &seed, &w.GeneratorVersion, &w.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.With("id", id.String()).Wrap(world.ErrNotFound)
	}
	if err != nil {
		return nil, oops.With("operation", "get world").With("id", id.String()).Wrap(err)
	}

	w.ID, err = ulid.Parse(idStr)
	if err != nil {
		return nil, oops.With("operation", "parse world id").With("id", idStr).Wrap(err)
	}
	w.Seed = uint32(seed)
	return &w, nil
}

// Create persists a new world.
func (r *WorldRepository) Create(ctx context.Context, w *world.World) error {
	if w.CreatedAt.IsZero() {
		w.CreatedAt = time.Now()
	}
	_, err := q(ctx, r.pool).Exec(ctx, `
		INSERT INTO worlds (id, seed, generator_version, created_at)
		VALUES ($1, $2, $3, $4)
	`, w.ID.String(), int64(w.Seed), w.GeneratorVersion, w.CreatedAt)
	if err != nil {
		return oops.With("operation", "create world").With("id", w.ID.String()).Wrap(err)
	}
	return nil
}

// Compile-time interface check.
var _ world.WorldRepository = (*WorldRepository)(nil)

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warren Contributors

package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/warrenmud/warren/internal/grid"
	"github.com/warrenmud/warren/internal/world"
)

// OverlayRepository implements world.OverlayRepository using PostgreSQL.
// All methods join an ambient transaction when one is in context, which is
// what makes frontier expansion's re-check-then-write atomic.
type OverlayRepository struct {
	pool poolIface
}

// NewOverlayRepository creates a new OverlayRepository.
func NewOverlayRepository(pool poolIface) *OverlayRepository {
	return &OverlayRepository{pool: pool}
}

// GetEdge returns the override at (world, level, x, y, dir), or nil.
// A record whose metadata fails to parse is treated as absent rather than
// fatal; the generator's base wins until the row is repaired.
func (r *OverlayRepository) GetEdge(ctx context.Context, worldID ulid.ULID, level, x, y int, dir grid.Direction) (*world.EdgeOverride, error) {
	var (
		kindStr  string
		metaJSON []byte
		ov       world.EdgeOverride
	)
	err := q(ctx, r.pool).QueryRow(ctx, `
		SELECT kind, meta, updated_at
		FROM edge_overrides
		WHERE world_id = $1 AND level = $2 AND x = $3 AND y = $4 AND dir = $5
	`, worldID.String(), level, x, y, dir.String()).Scan(&kindStr, &metaJSON, &ov.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, oops.With("operation", "get edge override").
			With("world_id", worldID.String()).With("level", level).
			Wrap(err)
	}

	ov.Level, ov.X, ov.Y, ov.Dir = level, x, y, dir
	ov.Kind = grid.EdgeKind(kindStr)
	if err := ov.Kind.Validate(); err != nil {
		slog.Warn("edge override carries unknown kind, treating as absent",
			"world_id", worldID.String(), "level", level, "x", x, "y", y, "dir", dir.String(), "kind", kindStr)
		return nil, nil
	}
	if len(metaJSON) > 0 {
		if err := json.Unmarshal(metaJSON, &ov.Meta); err != nil {
			slog.Warn("edge override carries malformed metadata, treating as absent",
				"world_id", worldID.String(), "level", level, "x", x, "y", y, "dir", dir.String(), "error", err)
			return nil, nil
		}
	}
	return &ov, nil
}

// GetCell returns the override at (world, level, x, y), or nil.
func (r *OverlayRepository) GetCell(ctx context.Context, worldID ulid.ULID, level, x, y int) (*world.CellOverride, error) {
	var (
		metaJSON []byte
		ov       world.CellOverride
	)
	err := q(ctx, r.pool).QueryRow(ctx, `
		SELECT meta, updated_at
		FROM cell_overrides
		WHERE world_id = $1 AND level = $2 AND x = $3 AND y = $4
	`, worldID.String(), level, x, y).Scan(&metaJSON, &ov.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, oops.With("operation", "get cell override").
			With("world_id", worldID.String()).With("level", level).
			Wrap(err)
	}

	ov.Level, ov.X, ov.Y = level, x, y
	if err := json.Unmarshal(metaJSON, &ov.Meta); err != nil {
		slog.Warn("cell override carries malformed metadata, treating as absent",
			"world_id", worldID.String(), "level", level, "x", x, "y", y, "error", err)
		return nil, nil
	}
	return &ov, nil
}

// WriteEdgeBothWays upserts the edge and its mirror on the neighbor cell.
// Outside an ambient transaction the pair is wrapped in its own one so the
// symmetry invariant cannot be half-written.
func (r *OverlayRepository) WriteEdgeBothWays(ctx context.Context, worldID ulid.ULID, level, x, y int, dir grid.Direction, kind grid.EdgeKind, meta world.EdgeMeta) error {
	if err := dir.Validate(); err != nil {
		return oops.With("dir", dir.String()).Wrap(err)
	}
	if err := kind.Validate(); err != nil {
		return oops.With("kind", kind.String()).Wrap(err)
	}

	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return oops.With("operation", "marshal edge meta").Wrap(err)
	}

	write := func(ctx context.Context, qr querier) error {
		dx, dy := dir.Delta()
		opp := dir.Opposite()
		for _, rec := range []struct {
			x, y int
			dir  grid.Direction
		}{
			{x, y, dir},
			{x + dx, y + dy, opp},
		} {
			_, err := qr.Exec(ctx, `
				INSERT INTO edge_overrides (world_id, level, x, y, dir, kind, meta, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, now())
				ON CONFLICT (world_id, level, x, y, dir)
				DO UPDATE SET kind = EXCLUDED.kind, meta = EXCLUDED.meta, updated_at = now()
			`, worldID.String(), level, rec.x, rec.y, rec.dir.String(), kind.String(), metaJSON)
			if err != nil {
				return oops.With("operation", "write edge override").
					With("world_id", worldID.String()).With("level", level).
					With("x", rec.x).With("y", rec.y).With("dir", rec.dir.String()).
					Wrap(err)
			}
		}
		return nil
	}

	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return write(ctx, tx)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return oops.Code("TX_BEGIN_FAILED").Wrap(err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op
	if err := write(ctx, tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return oops.Code("TX_COMMIT_FAILED").Wrap(err)
	}
	return nil
}

// WriteCell upserts a cell override.
func (r *OverlayRepository) WriteCell(ctx context.Context, worldID ulid.ULID, level, x, y int, meta world.CellMeta) error {
	if err := meta.Kind.Validate(); err != nil {
		return oops.With("kind", string(meta.Kind)).Wrap(err)
	}

	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return oops.With("operation", "marshal cell meta").Wrap(err)
	}

	_, err = q(ctx, r.pool).Exec(ctx, `
		INSERT INTO cell_overrides (world_id, level, x, y, meta, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (world_id, level, x, y)
		DO UPDATE SET meta = EXCLUDED.meta, updated_at = now()
	`, worldID.String(), level, x, y, metaJSON)
	if err != nil {
		return oops.With("operation", "write cell override").
			With("world_id", worldID.String()).With("level", level).With("x", x).With("y", y).
			Wrap(err)
	}
	return nil
}

// Compile-time interface check.
var _ world.OverlayRepository = (*OverlayRepository)(nil)

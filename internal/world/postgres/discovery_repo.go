// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warren Contributors

package postgres

import (
	"context"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/warrenmud/warren/internal/world"
)

// DiscoveryRepository implements world.DiscoveryRepository using PostgreSQL.
type DiscoveryRepository struct {
	pool poolIface
}

// NewDiscoveryRepository creates a new DiscoveryRepository.
func NewDiscoveryRepository(pool poolIface) *DiscoveryRepository {
	return &DiscoveryRepository{pool: pool}
}

// MarkDiscovered inserts a discovery record; the most recent timestamp wins
// on collision.
func (r *DiscoveryRepository) MarkDiscovered(ctx context.Context, worldID ulid.ULID, level, x, y int, atMs int64) error {
	_, err := q(ctx, r.pool).Exec(ctx, `
		INSERT INTO discovered_cells (world_id, level, x, y, discovered_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (world_id, level, x, y)
		DO UPDATE SET discovered_at = GREATEST(discovered_cells.discovered_at, EXCLUDED.discovered_at)
	`, worldID.String(), level, x, y, atMs)
	if err != nil {
		return oops.With("operation", "mark discovered").
			With("world_id", worldID.String()).With("level", level).With("x", x).With("y", y).
			Wrap(err)
	}
	return nil
}

// DiscoveredInRadius returns discovered cells in the square radius, ordered
// by (y asc, x asc).
func (r *DiscoveryRepository) DiscoveredInRadius(ctx context.Context, worldID ulid.ULID, level, cx, cy, radius int) ([]world.DiscoveredCell, error) {
	rows, err := q(ctx, r.pool).Query(ctx, `
		SELECT x, y, discovered_at
		FROM discovered_cells
		WHERE world_id = $1 AND level = $2
		  AND x BETWEEN $3 AND $4
		  AND y BETWEEN $5 AND $6
		ORDER BY y, x
	`, worldID.String(), level, cx-radius, cx+radius, cy-radius, cy+radius)
	if err != nil {
		return nil, oops.With("operation", "discovered in radius").
			With("world_id", worldID.String()).With("level", level).
			Wrap(err)
	}
	defer rows.Close()

	cells := make([]world.DiscoveredCell, 0)
	for rows.Next() {
		c := world.DiscoveredCell{Level: level}
		if err := rows.Scan(&c.X, &c.Y, &c.DiscoveredAt); err != nil {
			return nil, oops.With("operation", "scan discovered cell").Wrap(err)
		}
		cells = append(cells, c)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.With("operation", "iterate discovered cells").Wrap(err)
	}
	return cells, nil
}

// Compile-time interface check.
var _ world.DiscoveryRepository = (*DiscoveryRepository)(nil)

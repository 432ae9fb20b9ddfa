// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warren Contributors

package world

import (
	"context"

	"github.com/oklog/ulid/v2"

	"github.com/warrenmud/warren/internal/grid"
)

// WorldRepository manages world record persistence.
type WorldRepository interface {
	// Get retrieves a world by ID.
	Get(ctx context.Context, id ulid.ULID) (*World, error)

	// Create persists a new world.
	Create(ctx context.Context, w *World) error
}

// CharacterRepository manages character persistence.
type CharacterRepository interface {
	// Get retrieves a character by ID.
	Get(ctx context.Context, id ulid.ULID) (*Character, error)

	// GetActiveByUser returns the user's most recently played character.
	GetActiveByUser(ctx context.Context, userID ulid.ULID) (*Character, error)

	// Create persists a new character.
	Create(ctx context.Context, c *Character) error

	// SavePosition upserts the character's pose mirror row and stamps
	// last-played.
	SavePosition(ctx context.Context, characterID, worldID ulid.ULID, pose grid.Pose) error
}

// OverlayRepository manages the sparse edge and cell overrides of one or
// more worlds. Reads return (nil, nil) when no record exists; every write is
// idempotent given the same arguments. Implementations must honor a
// transaction carried in the context by their Transactor so that frontier
// expansion can re-check and write atomically.
type OverlayRepository interface {
	// GetEdge returns the override at (world, level, x, y, dir), or nil.
	GetEdge(ctx context.Context, worldID ulid.ULID, level, x, y int, dir grid.Direction) (*EdgeOverride, error)

	// GetCell returns the override at (world, level, x, y), or nil.
	GetCell(ctx context.Context, worldID ulid.ULID, level, x, y int) (*CellOverride, error)

	// WriteEdgeBothWays upserts the edge and its mirror on the neighbor
	// cell. Both records carry the same kind and metadata; the timestamp is
	// always refreshed.
	WriteEdgeBothWays(ctx context.Context, worldID ulid.ULID, level, x, y int, dir grid.Direction, kind grid.EdgeKind, meta EdgeMeta) error

	// WriteCell upserts a cell override.
	WriteCell(ctx context.Context, worldID ulid.ULID, level, x, y int, meta CellMeta) error
}

// DiscoveryRepository manages the append-only global discovery set.
type DiscoveryRepository interface {
	// MarkDiscovered inserts a discovery record. Idempotent; the most
	// recent timestamp wins on collision.
	MarkDiscovered(ctx context.Context, worldID ulid.ULID, level, x, y int, atMs int64) error

	// DiscoveredInRadius returns all discovered cells with |x-cx| <= r and
	// |y-cy| <= r on the level, ordered by (y asc, x asc).
	DiscoveredInRadius(ctx context.Context, worldID ulid.ULID, level, cx, cy, r int) ([]DiscoveredCell, error)
}

// Transactor runs a function inside a storage transaction. Repository
// operations performed with the callback's context join that transaction.
type Transactor interface {
	InTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

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

	"github.com/warrenmud/warren/internal/grid"
	"github.com/warrenmud/warren/internal/world"
)

// CharacterRepository implements world.CharacterRepository using PostgreSQL.
type CharacterRepository struct {
	pool poolIface
}

// NewCharacterRepository creates a new CharacterRepository.
func NewCharacterRepository(pool poolIface) *CharacterRepository {
	return &CharacterRepository{pool: pool}
}

const characterSelect = `
	SELECT c.id, c.user_id, c.world_id, c.name, c.hp, c.last_played_at,
	       p.level, p.x, p.y, p.face
	FROM characters c
	JOIN character_positions p ON p.character_id = c.id
`

// Get retrieves a character by ID.
func (r *CharacterRepository) Get(ctx context.Context, id ulid.ULID) (*world.Character, error) {
	c, err := r.scanCharacter(q(ctx, r.pool).QueryRow(ctx, characterSelect+`WHERE c.id = $1`, id.String()))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.With("id", id.String()).Wrap(world.ErrNotFound)
	}
	if err != nil {
		return nil, oops.With("operation", "get character").With("id", id.String()).Wrap(err)
	}
	return c, nil
}

// GetActiveByUser returns the user's most recently played character.
func (r *CharacterRepository) GetActiveByUser(ctx context.Context, userID ulid.ULID) (*world.Character, error) {
	c, err := r.scanCharacter(q(ctx, r.pool).QueryRow(ctx,
		characterSelect+`WHERE c.user_id = $1 ORDER BY c.last_played_at DESC LIMIT 1`,
		userID.String()))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.With("user_id", userID.String()).Wrap(world.ErrNotFound)
	}
	if err != nil {
		return nil, oops.With("operation", "get active character").With("user_id", userID.String()).Wrap(err)
	}
	return c, nil
}

// Create persists a new character and its position mirror atomically.
func (r *CharacterRepository) Create(ctx context.Context, c *world.Character) error {
	if c.LastPlayedAt.IsZero() {
		c.LastPlayedAt = time.Now()
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return oops.Code("TX_BEGIN_FAILED").Wrap(err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	_, err = tx.Exec(ctx, `
		INSERT INTO characters (id, user_id, world_id, name, hp, last_played_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, c.ID.String(), c.UserID.String(), c.WorldID.String(), c.Name, c.HP, c.LastPlayedAt)
	if err != nil {
		return oops.With("operation", "create character").With("id", c.ID.String()).Wrap(err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO character_positions (character_id, world_id, level, x, y, face, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
	`, c.ID.String(), c.WorldID.String(), c.Pose.Level, c.Pose.X, c.Pose.Y, c.Pose.Face.String())
	if err != nil {
		return oops.With("operation", "create character position").With("id", c.ID.String()).Wrap(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return oops.Code("TX_COMMIT_FAILED").Wrap(err)
	}
	return nil
}

// SavePosition upserts the pose mirror row and stamps last-played.
func (r *CharacterRepository) SavePosition(ctx context.Context, characterID, worldID ulid.ULID, pose grid.Pose) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return oops.Code("TX_BEGIN_FAILED").Wrap(err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	_, err = tx.Exec(ctx, `
		INSERT INTO character_positions (character_id, world_id, level, x, y, face, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		ON CONFLICT (character_id)
		DO UPDATE SET world_id = EXCLUDED.world_id, level = EXCLUDED.level,
		              x = EXCLUDED.x, y = EXCLUDED.y, face = EXCLUDED.face,
		              updated_at = now()
	`, characterID.String(), worldID.String(), pose.Level, pose.X, pose.Y, pose.Face.String())
	if err != nil {
		return oops.With("operation", "save position").With("character_id", characterID.String()).Wrap(err)
	}

	_, err = tx.Exec(ctx, `UPDATE characters SET last_played_at = now() WHERE id = $1`, characterID.String())
	if err != nil {
		return oops.With("operation", "stamp last played").With("character_id", characterID.String()).Wrap(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return oops.Code("TX_COMMIT_FAILED").Wrap(err)
	}
	return nil
}

// scanCharacter hydrates one character row with its position.
func (r *CharacterRepository) scanCharacter(row pgx.Row) (*world.Character, error) {
	var (
		idStr, userStr, worldStr, faceStr string
		c                                 world.Character
	)
	err := row.Scan(&idStr, &userStr, &worldStr, &c.Name, &c.HP, &c.LastPlayedAt,
		&c.Pose.Level, &c.Pose.X, &c.Pose.Y, &faceStr)
	if err != nil {
		return nil, err //nolint:wrapcheck // callers wrap with operation context
	}

	if c.ID, err = ulid.Parse(idStr); err != nil {
		return nil, oops.With("operation", "parse character id").With("id", idStr).Wrap(err)
	}
	if c.UserID, err = ulid.Parse(userStr); err != nil {
		return nil, oops.With("operation", "parse user id").With("user_id", userStr).Wrap(err)
	}
	if c.WorldID, err = ulid.Parse(worldStr); err != nil {
		return nil, oops.With("operation", "parse world id").With("world_id", worldStr).Wrap(err)
	}
	c.Pose.Face = grid.Direction(faceStr)
	if err := c.Pose.Face.Validate(); err != nil {
		return nil, oops.With("operation", "parse face").With("face", faceStr).Wrap(err)
	}
	return &c, nil
}

// Compile-time interface check.
var _ world.CharacterRepository = (*CharacterRepository)(nil)

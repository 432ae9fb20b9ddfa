// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warren Contributors

// Package world contains the world model: persistent entities, the sparse
// overlay that supersedes generated terrain, the discovery set, and the edge
// oracle that resolves what any edge of the grid actually is.
//
// For creating domain objects, prefer the constructor functions (NewX) over
// direct struct initialization; constructors validate required fields.
package world

import (
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/warrenmud/warren/internal/grid"
)

// World is one persistent game world. The seed is fixed at creation and
// defines the generated base terrain together with the generator version.
type World struct {
	ID               ulid.ULID
	Seed             uint32
	GeneratorVersion string
	CreatedAt        time.Time
}

// NewWorld creates a validated World with a generated ID.
func NewWorld(seed uint32, generatorVersion string) (*World, error) {
	w := &World{
		ID:               ulid.Make(),
		Seed:             seed,
		GeneratorVersion: generatorVersion,
		CreatedAt:        time.Now(),
	}
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return w, nil
}

// Validate checks that the world has required fields.
func (w *World) Validate() error {
	if w.ID.IsZero() {
		return &ValidationError{Field: "id", Message: "cannot be zero"}
	}
	if w.GeneratorVersion == "" {
		return &ValidationError{Field: "generator_version", Message: "cannot be empty"}
	}
	return nil
}

// User is a registered account. Users are minted by the auth pathway; the
// game core only ever reads them.
type User struct {
	ID        ulid.ULID
	Email     string
	CreatedAt time.Time
}

// Character is a playable avatar owned by a user. The game core updates its
// pose; everything else is written by external tooling.
type Character struct {
	ID           ulid.ULID
	UserID       ulid.ULID
	WorldID      ulid.ULID
	Name         string
	HP           int
	Pose         grid.Pose
	LastPlayedAt time.Time
}

// NewCharacter creates a validated Character with a generated ID, placed at
// the hub of level 1 facing north.
func NewCharacter(userID, worldID ulid.ULID, name string) (*Character, error) {
	c := &Character{
		ID:      ulid.Make(),
		UserID:  userID,
		WorldID: worldID,
		Name:    name,
		HP:      100,
		Pose:    grid.Pose{Level: 1, X: 0, Y: 0, Face: grid.North},
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks that the character has required fields.
func (c *Character) Validate() error {
	if c.ID.IsZero() {
		return &ValidationError{Field: "id", Message: "cannot be zero"}
	}
	if c.UserID.IsZero() {
		return &ValidationError{Field: "user_id", Message: "cannot be zero"}
	}
	if c.WorldID.IsZero() {
		return &ValidationError{Field: "world_id", Message: "cannot be zero"}
	}
	if c.Name == "" {
		return &ValidationError{Field: "name", Message: "cannot be empty"}
	}
	if err := c.Pose.Face.Validate(); err != nil {
		return &ValidationError{Field: "face", Message: "must be a cardinal direction"}
	}
	return nil
}

// EdgeMeta carries the optional metadata of an edge override. Frontier marks
// a lazy generation boundary; the lock fields only apply to door variants.
// KeyEntityID is a reference, never an owning pointer: a dangling identifier
// resolves to no linked entity.
type EdgeMeta struct {
	Frontier       bool   `json:"frontier,omitempty"`
	LockDifficulty int    `json:"lock_difficulty,omitempty"`
	KeyEntityID    string `json:"key_entity_id,omitempty"`
	DefaultState   string `json:"default_state,omitempty"`
}

// EdgeOverride is one sparse, authoritative per-edge record. Overrides are
// stored symmetrically: writing (x, y, dir) also writes the mirror record on
// the neighbor cell.
type EdgeOverride struct {
	Level     int
	X         int
	Y         int
	Dir       grid.Direction
	Kind      grid.EdgeKind
	Meta      EdgeMeta
	UpdatedAt time.Time
}

// CellMeta is the payload of a cell override.
type CellMeta struct {
	Kind   grid.CellKind `json:"kind"`
	AreaID string        `json:"area_id,omitempty"`
}

// CellOverride is one sparse per-cell record.
type CellOverride struct {
	Level     int
	X         int
	Y         int
	Meta      CellMeta
	UpdatedAt time.Time
}

// DiscoveredCell is one entry of the global discovery set: a cell some
// player has stepped onto.
type DiscoveredCell struct {
	Level        int
	X            int
	Y            int
	DiscoveredAt int64 // unix milliseconds
}

// Purpose classifies why an edge is being resolved. Only movement queries
// may trigger frontier expansion.
type Purpose string

// Resolution purposes.
const (
	PurposeMovement   Purpose = "movement"
	PurposeVisibility Purpose = "visibility"
	PurposeMinimap    Purpose = "minimap"
)

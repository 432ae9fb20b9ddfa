// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warren Contributors

package game

import (
	"context"
	"math"

	"github.com/oklog/ulid/v2"

	"github.com/warrenmud/warren/internal/digest"
	"github.com/warrenmud/warren/internal/grid"
	"github.com/warrenmud/warren/internal/wire"
	"github.com/warrenmud/warren/internal/world"
)

// Snapshot geometry.
const (
	// visionDepth is how many cells a visibility ray advances.
	visionDepth = 3

	// minimapRadius is the square radius of the minimap extract.
	minimapRadius = 12

	// feetPerCell scales cell distance to the display unit.
	feetPerCell = 5
)

// buildSnapshot assembles the observable view for one connection: pose, hub
// bearing, the four cardinal visibility rays, minimap cells from the
// discovery set, cooldowns, and the replay-identity hash.
func (e *Engine) buildSnapshot(ctx context.Context, oracle *world.Oracle, conn *Conn) (wire.WorldState, error) {
	pose := conn.character.Pose

	you := wire.You{
		Level:  pose.Level,
		X:      pose.X,
		Y:      pose.Y,
		Face:   pose.Face.String(),
		HP:     conn.character.HP,
		Status: []string{},
	}

	cooldowns := wire.Cooldowns{
		MoveReadyAt: conn.MoveReadyAt,
		TurnReadyAt: conn.TurnReadyAt,
	}

	visible, err := e.visibleCells(ctx, oracle, pose)
	if err != nil {
		return wire.WorldState{}, err
	}

	minimap, err := e.minimapCells(ctx, oracle, conn.WorldID, pose)
	if err != nil {
		return wire.WorldState{}, err
	}

	hash, err := digest.Sum(map[string]any{
		"you":       you,
		"cooldowns": cooldowns,
		"visible":   visible,
	})
	if err != nil {
		return wire.WorldState{}, err
	}

	return wire.WorldState{
		Now:          e.nowMs(),
		You:          you,
		Hub:          hubInfo(pose),
		Cooldowns:    cooldowns,
		WorldHash:    hash,
		VisibleCells: visible,
		MinimapCells: minimap,
	}, nil
}

// hubInfo computes the bearing toward the level hub at (0, 0).
func hubInfo(pose grid.Pose) wire.Hub {
	dist := math.Sqrt(float64(pose.X*pose.X + pose.Y*pose.Y))
	return wire.Hub{
		Level:     pose.Level,
		X:         0,
		Y:         0,
		DistFeet:  int(math.Round(dist * feetPerCell)),
		Direction: dirToHub(pose.X, pose.Y).String(),
	}
}

// dirToHub approximates the direction toward the hub by the dominant axis;
// ties break toward east/west.
func dirToHub(x, y int) grid.Direction {
	ax, ay := x, y
	if ax < 0 {
		ax = -ax
	}
	if ay < 0 {
		ay = -ay
	}
	if ax >= ay {
		if x > 0 {
			return grid.West
		}
		return grid.East
	}
	if y > 0 {
		return grid.North
	}
	return grid.South
}

// visibleCells walks the four cardinal rays from the player's cell. A ray
// advances while the forward edge is see-through, up to visionDepth cells.
// Every visited cell is recorded exactly once with its visibility-purpose
// edges; doors of any kind block the ray.
func (e *Engine) visibleCells(ctx context.Context, oracle *world.Oracle, pose grid.Pose) ([]wire.Cell, error) {
	type coord struct{ x, y int }
	seen := map[coord]bool{{pose.X, pose.Y}: true}

	cells := make([]wire.Cell, 0, 1+4*visionDepth)
	start, err := e.snapshotCell(ctx, oracle, pose.Level, pose.X, pose.Y, world.PurposeVisibility)
	if err != nil {
		return nil, err
	}
	cells = append(cells, start)

	for _, d := range grid.Directions {
		x, y := pose.X, pose.Y
		for step := 0; step < visionDepth; step++ {
			kind, err := oracle.EdgeType(ctx, pose.Level, x, y, d, world.PurposeVisibility)
			if err != nil {
				return nil, err
			}
			if !kind.SeeThrough() {
				break
			}
			dx, dy := d.Delta()
			x, y = x+dx, y+dy
			if seen[coord{x, y}] {
				continue
			}
			seen[coord{x, y}] = true

			cell, err := e.snapshotCell(ctx, oracle, pose.Level, x, y, world.PurposeVisibility)
			if err != nil {
				return nil, err
			}
			cells = append(cells, cell)
		}
	}
	return cells, nil
}

// minimapCells extracts every discovered cell around the player with its
// minimap-purpose edges. Minimap resolution never writes overlay state.
func (e *Engine) minimapCells(ctx context.Context, oracle *world.Oracle, worldID ulid.ULID, pose grid.Pose) ([]wire.Cell, error) {
	discovered, err := e.stores.Discovery.DiscoveredInRadius(ctx, worldID, pose.Level, pose.X, pose.Y, minimapRadius)
	if err != nil {
		return nil, err
	}

	cells := make([]wire.Cell, 0, len(discovered))
	for _, d := range discovered {
		cell, err := e.snapshotCell(ctx, oracle, pose.Level, d.X, d.Y, world.PurposeMinimap)
		if err != nil {
			return nil, err
		}
		cells = append(cells, cell)
	}
	return cells, nil
}

// snapshotCell resolves one cell's four edges for the wire.
func (e *Engine) snapshotCell(ctx context.Context, oracle *world.Oracle, level, x, y int, purpose world.Purpose) (wire.Cell, error) {
	edges, err := oracle.CellEdges(ctx, level, x, y, purpose)
	if err != nil {
		return wire.Cell{}, err
	}
	return wire.Cell{
		X: x,
		Y: y,
		Edges: wire.Edges{
			N: edges[grid.North].String(),
			E: edges[grid.East].String(),
			S: edges[grid.South].String(),
			W: edges[grid.West].String(),
		},
	}, nil
}

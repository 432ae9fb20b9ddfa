// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warren Contributors

package world

import (
	"context"
	"fmt"

	"github.com/samber/oops"

	"github.com/warrenmud/warren/internal/grid"
	"github.com/warrenmud/warren/internal/rng"
)

// Frontier expansion tuning, frozen under the expand label: the overlay data
// it produces is persistent, so these constants define existing worlds.
const (
	expandLabel = "expand_v1"

	// corridorContinueChance keeps a corridor running instead of attempting
	// a room when expanding out of a corridor cell.
	corridorContinueChance = 0.72

	// roomExtraDoorChance adds one frontier door to a freshly placed room
	// beyond its entrance.
	roomExtraDoorChance = 0.55
)

// Frontier door count weights for a new corridor cell: 0, 1 or 2 new doors.
const (
	zeroDoorWeight = 0.3
	oneDoorWeight  = 0.5 // cumulative 0.8
)

// expandFrontier grows the overlay through a frontier door at
// (level, x, y, dir). The whole operation runs in one transaction that
// re-reads the edge and the destination, so two concurrent expansions of the
// same frontier collapse to a single outcome.
func (o *Oracle) expandFrontier(ctx context.Context, level, x, y int, dir grid.Direction) error {
	err := o.tx.InTransaction(ctx, func(ctx context.Context) error {
		edge, err := o.overlay.GetEdge(ctx, o.world.ID, level, x, y, dir)
		if err != nil {
			return err
		}
		if edge == nil || !edge.Meta.Frontier {
			// Another expansion already consumed this frontier.
			return nil
		}

		dx, dy := dir.Delta()
		nx, ny := x+dx, y+dy

		dest, err := o.overlay.GetCell(ctx, o.world.ID, level, nx, ny)
		if err != nil {
			return err
		}
		if dest != nil {
			// The far side is already described; just retire the flag.
			meta := edge.Meta
			meta.Frontier = false
			return o.overlay.WriteEdgeBothWays(ctx, o.world.ID, level, x, y, dir, edge.Kind, meta)
		}

		worldTag := rng.MixSeq(o.world.ID.String())
		src := rng.New(rng.MixSeq(expandLabel,
			o.world.Seed, worldTag, uint32(int32(level)),
			uint32(int32(x)), uint32(int32(y)), uint32(dir.Code())))

		srcCell, err := o.overlay.GetCell(ctx, o.world.ID, level, x, y)
		if err != nil {
			return err
		}
		fromRoom := srcCell != nil && srcCell.Meta.Kind != grid.CellCorridor

		wantRoom := !fromRoom && src.Float01() >= corridorContinueChance
		if wantRoom {
			placed, err := o.placeRoom(ctx, src, level, nx, ny, dir)
			if err != nil {
				return err
			}
			if placed {
				return nil
			}
		}
		return o.placeCorridor(ctx, src, level, nx, ny, dir)
	})
	if err != nil {
		return oops.Code("EXPAND_FAILED").
			With("level", level).With("x", x).With("y", y).With("dir", dir.String()).
			Wrap(err)
	}
	return nil
}

// placeCorridor records the destination as a corridor cell: the back edge
// becomes a plain door, and zero to two of the remaining directions open as
// new frontier doors.
func (o *Oracle) placeCorridor(ctx context.Context, src *rng.Source, level, nx, ny int, entry grid.Direction) error {
	meta := CellMeta{Kind: grid.CellCorridor, AreaID: areaID("corridor", level, nx, ny)}
	if err := o.overlay.WriteCell(ctx, o.world.ID, level, nx, ny, meta); err != nil {
		return err
	}

	// The back edge is the door we just walked through, now retired from
	// the frontier.
	back := entry.Opposite()
	if err := o.overlay.WriteEdgeBothWays(ctx, o.world.ID, level, nx, ny, back, grid.EdgeDoorUnlocked, EdgeMeta{}); err != nil {
		return err
	}

	outward := make([]grid.Direction, 0, 3)
	for _, d := range grid.Directions {
		if d != back {
			outward = append(outward, d)
		}
	}
	rng.Shuffle(src, outward)

	doors := 0
	switch f := src.Float01(); {
	case f < zeroDoorWeight:
		doors = 0
	case f < zeroDoorWeight+oneDoorWeight:
		doors = 1
	default:
		doors = 2
	}

	for i, d := range outward {
		existing, err := o.overlay.GetEdge(ctx, o.world.ID, level, nx, ny, d)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}
		kind := grid.EdgeWall
		em := EdgeMeta{}
		if i < doors {
			kind = grid.EdgeDoorUnlocked
			em.Frontier = true
		}
		if err := o.overlay.WriteEdgeBothWays(ctx, o.world.ID, level, nx, ny, d, kind, em); err != nil {
			return err
		}
	}
	return nil
}

// placeRoom attempts a 2x2 room forward of the entrance. Returns false when
// any candidate cell is already described, in which case the caller falls
// back to a corridor.
func (o *Oracle) placeRoom(ctx context.Context, src *rng.Source, level, nx, ny int, entry grid.Direction) (bool, error) {
	dx, dy := entry.Delta()

	// The room spans the entered cell, one cell further forward, and the
	// pair beside them; the side is a seeded coin flip.
	perp := grid.East
	if entry == grid.East || entry == grid.West {
		perp = grid.South
	}
	px, py := perp.Delta()
	if src.IntN(0, 2) == 1 {
		px, py = -px, -py
	}

	cellsXY := [4][2]int{
		{nx, ny},
		{nx + dx, ny + dy},
		{nx + px, ny + py},
		{nx + dx + px, ny + dy + py},
	}
	for _, c := range cellsXY {
		existing, err := o.overlay.GetCell(ctx, o.world.ID, level, c[0], c[1])
		if err != nil {
			return false, err
		}
		if existing != nil {
			return false, nil
		}
	}

	area := areaID("room", level, nx, ny)
	for _, c := range cellsXY {
		if err := o.overlay.WriteCell(ctx, o.world.ID, level, c[0], c[1], CellMeta{Kind: grid.CellRoom, AreaID: area}); err != nil {
			return false, err
		}
	}

	minX, minY := cellsXY[0][0], cellsXY[0][1]
	for _, c := range cellsXY[1:] {
		minX = min(minX, c[0])
		minY = min(minY, c[1])
	}

	interior := []struct {
		x, y int
		dir  grid.Direction
	}{
		{minX, minY, grid.East},
		{minX, minY + 1, grid.East},
		{minX, minY, grid.South},
		{minX + 1, minY, grid.South},
	}
	for _, e := range interior {
		if err := o.overlay.WriteEdgeBothWays(ctx, o.world.ID, level, e.x, e.y, e.dir, grid.EdgeOpen, EdgeMeta{}); err != nil {
			return false, err
		}
	}

	// Entrance door, retired from the frontier.
	back := entry.Opposite()
	if err := o.overlay.WriteEdgeBothWays(ctx, o.world.ID, level, nx, ny, back, grid.EdgeDoorUnlocked, EdgeMeta{}); err != nil {
		return false, err
	}

	perimeter := roomPerimeterEdges(minX, minY)
	rng.Shuffle(src, perimeter)
	extraDoor := src.Float01() < roomExtraDoorChance
	for _, e := range perimeter {
		if e.x == nx && e.y == ny && e.dir == back {
			continue
		}
		existing, err := o.overlay.GetEdge(ctx, o.world.ID, level, e.x, e.y, e.dir)
		if err != nil {
			return false, err
		}
		if existing != nil {
			continue
		}
		kind := grid.EdgeWall
		em := EdgeMeta{}
		if extraDoor {
			kind = grid.EdgeDoorUnlocked
			em.Frontier = true
			extraDoor = false
		}
		if err := o.overlay.WriteEdgeBothWays(ctx, o.world.ID, level, e.x, e.y, e.dir, kind, em); err != nil {
			return false, err
		}
	}
	return true, nil
}

// roomPerimeterEdges lists the eight perimeter edges of a 2x2 room anchored
// at its minimum corner.
func roomPerimeterEdges(minX, minY int) []struct {
	x, y int
	dir  grid.Direction
} {
	return []struct {
		x, y int
		dir  grid.Direction
	}{
		{minX, minY, grid.North},
		{minX + 1, minY, grid.North},
		{minX + 1, minY, grid.East},
		{minX + 1, minY + 1, grid.East},
		{minX + 1, minY + 1, grid.South},
		{minX, minY + 1, grid.South},
		{minX, minY + 1, grid.West},
		{minX, minY, grid.West},
	}
}

// areaID derives a stable area identifier from the cell that founded the
// area.
func areaID(kind string, level, x, y int) string {
	return fmt.Sprintf("%s_%d_%d_%d", kind, level, x, y)
}

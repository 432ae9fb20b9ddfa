// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warren Contributors

package world

import (
	"context"

	"github.com/samber/oops"

	"github.com/warrenmud/warren/internal/grid"
	"github.com/warrenmud/warren/internal/rng"
)

// hubLabel seeds the hub layout PRNG. Changing it re-rolls every hub.
const hubLabel = "hub_v1"

// hubAreaID is the area identifier written on hub cells.
const hubAreaID = "hub"

// ensureHub lazily seeds the 2x2 hub room of a level into the overlay: four
// hub_room cells at (0,0)-(1,1), open interior edges, and a walled perimeter
// pierced by one or two deterministically chosen frontier doors. The write
// is idempotent, so concurrent callers converge on the same hub.
func (o *Oracle) ensureHub(ctx context.Context, level int) error {
	o.hubMu.Lock()
	seeded := o.hubSeeded[level]
	o.hubMu.Unlock()
	if seeded {
		return nil
	}

	cell, err := o.overlay.GetCell(ctx, o.world.ID, level, 0, 0)
	if err != nil {
		return oops.Code("HUB_READ_FAILED").With("level", level).Wrap(err)
	}
	if cell == nil {
		if err := o.seedHub(ctx, level); err != nil {
			return err
		}
	}

	o.hubMu.Lock()
	o.hubSeeded[level] = true
	o.hubMu.Unlock()
	return nil
}

// hubPerimeter lists the eight perimeter edges of the hub in a fixed order;
// the seeded shuffle below picks which become frontier doors.
var hubPerimeter = []struct {
	x, y int
	dir  grid.Direction
}{
	{0, 0, grid.North},
	{1, 0, grid.North},
	{1, 0, grid.East},
	{1, 1, grid.East},
	{1, 1, grid.South},
	{0, 1, grid.South},
	{0, 1, grid.West},
	{0, 0, grid.West},
}

// seedHub writes the hub overlay records inside a transaction, re-checking
// for a concurrent seeding first. A hub edge that already carries an override
// keeps it; the door roll is made regardless, so the layout stays seeded.
func (o *Oracle) seedHub(ctx context.Context, level int) error {
	err := o.tx.InTransaction(ctx, func(ctx context.Context) error {
		cell, err := o.overlay.GetCell(ctx, o.world.ID, level, 0, 0)
		if err != nil {
			return err
		}
		if cell != nil {
			return nil
		}

		meta := CellMeta{Kind: grid.CellHubRoom, AreaID: hubAreaID}
		for _, c := range [][2]int{{0, 0}, {1, 0}, {0, 1}, {1, 1}} {
			if err := o.overlay.WriteCell(ctx, o.world.ID, level, c[0], c[1], meta); err != nil {
				return err
			}
		}

		// Interior edges stay open. These are also the I4 guarantee:
		// (0,0)->E and (0,0)->S are traversable.
		interior := []struct {
			x, y int
			dir  grid.Direction
		}{
			{0, 0, grid.East},
			{0, 1, grid.East},
			{0, 0, grid.South},
			{1, 0, grid.South},
		}
		for _, e := range interior {
			existing, err := o.overlay.GetEdge(ctx, o.world.ID, level, e.x, e.y, e.dir)
			if err != nil {
				return err
			}
			if existing != nil {
				continue
			}
			if err := o.overlay.WriteEdgeBothWays(ctx, o.world.ID, level, e.x, e.y, e.dir, grid.EdgeOpen, EdgeMeta{}); err != nil {
				return err
			}
		}

		src := rng.New(rng.Mix(o.world.Seed, int32(level), 0, 0, hubLabel))
		perimeter := append([]struct {
			x, y int
			dir  grid.Direction
		}{}, hubPerimeter...)
		rng.Shuffle(src, perimeter)
		doors := 1 + src.IntN(0, 2)

		for i, e := range perimeter {
			kind := grid.EdgeWall
			meta := EdgeMeta{}
			if i < doors {
				kind = grid.EdgeDoorUnlocked
				meta.Frontier = true
			}
			existing, err := o.overlay.GetEdge(ctx, o.world.ID, level, e.x, e.y, e.dir)
			if err != nil {
				return err
			}
			if existing != nil {
				continue
			}
			if err := o.overlay.WriteEdgeBothWays(ctx, o.world.ID, level, e.x, e.y, e.dir, kind, meta); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return oops.Code("HUB_SEED_FAILED").With("level", level).Wrap(err)
	}
	return nil
}

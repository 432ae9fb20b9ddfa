// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warren Contributors

package world

import (
	"context"
	"sync"

	"github.com/samber/oops"

	"github.com/warrenmud/warren/internal/gen"
	"github.com/warrenmud/warren/internal/grid"
)

// boundaryStride is the spacing of forced openings along chunk boundaries.
// Opening every eighth boundary edge guarantees inter-chunk connectivity
// without any cross-chunk data.
const boundaryStride = 8

// Oracle resolves the kind of any edge of one world: overlay first, then the
// fixed hub guarantee, then the chunk-boundary rule, then the generator.
// The oracle is the only component allowed to trigger frontier expansion,
// and only for movement-purpose queries.
type Oracle struct {
	world   *World
	overlay OverlayRepository
	tx      Transactor
	chunks  *gen.Cache

	hubMu     sync.Mutex
	hubSeeded map[int]bool
}

// NewOracle creates an oracle for one world.
func NewOracle(w *World, overlay OverlayRepository, tx Transactor, chunks *gen.Cache) *Oracle {
	if chunks == nil {
		chunks = gen.NewCache(0)
	}
	return &Oracle{
		world:     w,
		overlay:   overlay,
		tx:        tx,
		chunks:    chunks,
		hubSeeded: make(map[int]bool),
	}
}

// World returns the world record the oracle serves.
func (o *Oracle) World() *World {
	return o.world
}

// EdgeType resolves the edge at (level, x, y, dir) for the given purpose.
func (o *Oracle) EdgeType(ctx context.Context, level, x, y int, dir grid.Direction, purpose Purpose) (grid.EdgeKind, error) {
	if err := dir.Validate(); err != nil {
		return grid.EdgeWall, oops.Code("ORACLE_BAD_DIRECTION").With("dir", string(dir)).Wrap(err)
	}

	if purpose != PurposeMinimap {
		if err := o.ensureHub(ctx, level); err != nil {
			return grid.EdgeWall, err
		}
	}

	ov, err := o.overlay.GetEdge(ctx, o.world.ID, level, x, y, dir)
	if err != nil {
		return grid.EdgeWall, oops.Code("ORACLE_OVERLAY_READ").
			With("level", level).With("x", x).With("y", y).With("dir", dir.String()).
			Wrap(err)
	}
	if ov != nil {
		if purpose == PurposeMovement && ov.Meta.Frontier && ov.Kind == grid.EdgeDoorUnlocked {
			if err := o.expandFrontier(ctx, level, x, y, dir); err != nil {
				return grid.EdgeWall, err
			}
			// The door survives expansion with the frontier flag cleared.
			return grid.EdgeDoorUnlocked, nil
		}
		return ov.Kind, nil
	}

	if isHubEdge(x, y, dir) {
		return grid.EdgeOpen, nil
	}

	if crossing, ortho := boundaryCrossing(x, y, dir); crossing {
		if ortho%boundaryStride == 0 {
			return grid.EdgeOpen, nil
		}
		return grid.EdgeWall, nil
	}

	chunk, err := o.chunks.Get(o.world.GeneratorVersion, o.world.Seed, level, grid.ChunkCoord(x), grid.ChunkCoord(y))
	if err != nil {
		return grid.EdgeWall, err
	}
	return chunk.EdgeAt(grid.LocalCoord(x), grid.LocalCoord(y), dir), nil
}

// CanTraverse reports whether movement may cross the edge. This is a
// movement-purpose query and may expand a frontier.
func (o *Oracle) CanTraverse(ctx context.Context, level, x, y int, dir grid.Direction) (bool, error) {
	kind, err := o.EdgeType(ctx, level, x, y, dir, PurposeMovement)
	if err != nil {
		return false, err
	}
	return kind.Traversable(), nil
}

// CellEdges resolves all four edges of a cell for the given purpose, keyed
// by direction.
func (o *Oracle) CellEdges(ctx context.Context, level, x, y int, purpose Purpose) (map[grid.Direction]grid.EdgeKind, error) {
	edges := make(map[grid.Direction]grid.EdgeKind, 4)
	for _, d := range grid.Directions {
		kind, err := o.EdgeType(ctx, level, x, y, d, purpose)
		if err != nil {
			return nil, err
		}
		edges[d] = kind
	}
	return edges, nil
}

// isHubEdge reports whether (x, y, dir) is one of the fixed hub-open edges
// or their mirrors: (0,0)->E and (0,0)->S are traversable on every level.
func isHubEdge(x, y int, dir grid.Direction) bool {
	switch {
	case x == 0 && y == 0 && (dir == grid.East || dir == grid.South):
		return true
	case x == 1 && y == 0 && dir == grid.West:
		return true
	case x == 0 && y == 1 && dir == grid.North:
		return true
	default:
		return false
	}
}

// boundaryCrossing reports whether the edge leaves its chunk, and if so
// returns the orthogonal local coordinate used by the stride rule.
func boundaryCrossing(x, y int, dir grid.Direction) (bool, int) {
	lx, ly := grid.LocalCoord(x), grid.LocalCoord(y)
	switch dir {
	case grid.East:
		if lx == grid.ChunkSize-1 {
			return true, ly
		}
	case grid.West:
		if lx == 0 {
			return true, ly
		}
	case grid.South:
		if ly == grid.ChunkSize-1 {
			return true, lx
		}
	default: // North
		if ly == 0 {
			return true, lx
		}
	}
	return false, 0
}

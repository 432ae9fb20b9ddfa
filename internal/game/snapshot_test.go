// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warren Contributors

package game_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warrenmud/warren/internal/grid"
	"github.com/warrenmud/warren/internal/wire"
	"github.com/warrenmud/warren/internal/world"
)

// snapshotOf drives a cooldown-free turn to force a fresh snapshot.
func snapshotOf(t *testing.T, f *fixture, face string) wire.WorldState {
	t.Helper()
	f.clock.Advance(time.Second)
	out := f.send(t, wire.TypeTurn, wire.TurnPayload{Face: face})
	require.Len(t, out, 2)
	require.True(t, out[0].Payload.(wire.ActionResult).OK)
	return out[1].Payload.(wire.WorldState)
}

func TestSnapshot_VisibilityBlockedByDoor(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 12345, nil)
	f.authenticate(t)

	// An unlocked door east of the player permits movement but blocks
	// sight: the east ray must contain only the player cell.
	require.NoError(t, f.store.WriteEdgeBothWays(ctx, f.world.ID, 1, 0, 0, grid.East, grid.EdgeDoorUnlocked, world.EdgeMeta{}))

	snap := snapshotOf(t, f, "E")
	for _, cell := range snap.VisibleCells {
		assert.False(t, cell.X > 0 && cell.Y == 0, "cell (%d,%d) is behind the door", cell.X, cell.Y)
	}

	// The door still permits traversal.
	f.clock.Advance(time.Second)
	out := f.send(t, wire.TypeMove, wire.MovePayload{Dir: "E"})
	require.Len(t, out, 2)
	assert.True(t, out[0].Payload.(wire.ActionResult).OK)
}

func TestSnapshot_VisibleCellsIncludePlayer(t *testing.T) {
	f := newFixture(t, 12345, nil)
	out := f.authenticate(t)
	snap := out[1].Payload.(wire.WorldState)

	require.NotEmpty(t, snap.VisibleCells)
	assert.Equal(t, 0, snap.VisibleCells[0].X)
	assert.Equal(t, 0, snap.VisibleCells[0].Y)

	// No cell appears twice.
	seen := map[[2]int]bool{}
	for _, c := range snap.VisibleCells {
		key := [2]int{c.X, c.Y}
		assert.False(t, seen[key], "duplicate cell (%d,%d)", c.X, c.Y)
		seen[key] = true
	}
}

func TestSnapshot_VisionDepth(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 12345, nil)
	f.authenticate(t)

	// Open a long corridor east of the hub, then verify the ray stops
	// after three cells even though the corridor continues.
	for x := 0; x < 6; x++ {
		require.NoError(t, f.store.WriteEdgeBothWays(ctx, f.world.ID, 1, x, 0, grid.East, grid.EdgeOpen, world.EdgeMeta{}))
	}

	snap := snapshotOf(t, f, "E")
	maxX := 0
	for _, c := range snap.VisibleCells {
		if c.Y == 0 && c.X > maxX {
			maxX = c.X
		}
	}
	assert.Equal(t, 3, maxX, "east ray advances exactly three cells")
}

func TestSnapshot_MinimapFromDiscovery(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 12345, nil)

	// Pre-discover two cells, one inside and one outside the radius.
	require.NoError(t, f.store.MarkDiscovered(ctx, f.world.ID, 1, 2, 3, 1000))
	require.NoError(t, f.store.MarkDiscovered(ctx, f.world.ID, 1, 30, 30, 1000))

	out := f.authenticate(t)
	snap := out[1].Payload.(wire.WorldState)

	require.Len(t, snap.MinimapCells, 1)
	assert.Equal(t, 2, snap.MinimapCells[0].X)
	assert.Equal(t, 3, snap.MinimapCells[0].Y)
}

func TestSnapshot_HubBearing(t *testing.T) {
	tests := []struct {
		x, y     int
		dir      string
		distFeet int
	}{
		{0, 0, "E", 0},
		{5, 0, "W", 25},
		{-5, 0, "E", 25},
		{0, 5, "N", 25},
		{0, -5, "S", 25},
		{3, 4, "N", 25}, // |y| dominates; 5 cells of hypotenuse
		{4, 4, "W", 28}, // tie breaks toward east/west
	}

	for _, tt := range tests {
		f := newFixtureAt(t, 12345, nil, grid.Pose{Level: 1, X: tt.x, Y: tt.y, Face: grid.North})
		snap := f.authenticate(t)[1].Payload.(wire.WorldState)

		assert.Equal(t, tt.dir, snap.Hub.Direction, "direction at (%d,%d)", tt.x, tt.y)
		assert.Equal(t, tt.distFeet, snap.Hub.DistFeet, "distance at (%d,%d)", tt.x, tt.y)
	}
}

func TestSnapshot_HashStability(t *testing.T) {
	clock := newManualClock()
	a := newFixture(t, 777, clock)
	b := newFixture(t, 777, clock)

	snapA := a.authenticate(t)[1].Payload.(wire.WorldState)
	snapB := b.authenticate(t)[1].Payload.(wire.WorldState)

	assert.Equal(t, snapA.WorldHash, snapB.WorldHash,
		"identical pose, cooldowns, overlays and discovery must hash identically")
}

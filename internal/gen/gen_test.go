// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warren Contributors

package gen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warrenmud/warren/internal/grid"
)

func TestGenerate_Deterministic(t *testing.T) {
	for _, version := range []string{VersionMaze, VersionBSP} {
		t.Run(version, func(t *testing.T) {
			g, err := ForVersion(version)
			require.NoError(t, err)

			a := g(12345, 1, 0, 0)
			b := g(12345, 1, 0, 0)
			assert.Equal(t, a.East, b.East, "east arrays must be byte-identical")
			assert.Equal(t, a.South, b.South, "south arrays must be byte-identical")
		})
	}
}

func TestGenerate_ChunksDiffer(t *testing.T) {
	for _, version := range []string{VersionMaze, VersionBSP} {
		t.Run(version, func(t *testing.T) {
			g, err := ForVersion(version)
			require.NoError(t, err)

			a := g(12345, 1, 0, 0)
			b := g(12345, 1, 1, 0)
			differs := !equalBytes(a.East, b.East) || !equalBytes(a.South, b.South)
			assert.True(t, differs, "adjacent chunks should not share a byte layout")
		})
	}
}

func TestGenerate_SeedSeparation(t *testing.T) {
	a := GenerateMaze(1, 1, 0, 0)
	b := GenerateMaze(2, 1, 0, 0)
	assert.NotEqual(t, a.East, b.East)
}

func equalBytes(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestEdgeAt_Decoding(t *testing.T) {
	c := newChunk(0, 1, 0, 0)
	c.East[5*grid.ChunkSize+3] = ByteOpen  // (3,5) east
	c.South[5*grid.ChunkSize+3] = ByteDoor // (3,5) south

	assert.Equal(t, grid.EdgeOpen, c.EdgeAt(3, 5, grid.East))
	assert.Equal(t, grid.EdgeDoorUnlocked, c.EdgeAt(3, 5, grid.South))

	// West/north edges decode from the neighbor's arrays.
	assert.Equal(t, grid.EdgeOpen, c.EdgeAt(4, 5, grid.West))
	assert.Equal(t, grid.EdgeDoorUnlocked, c.EdgeAt(3, 6, grid.North))

	// Chunk-local decoding walls off reads that leave the chunk.
	assert.Equal(t, grid.EdgeWall, c.EdgeAt(0, 5, grid.West))
	assert.Equal(t, grid.EdgeWall, c.EdgeAt(3, 0, grid.North))
}

// floodCount counts cells reachable from (startX, startY) over traversable
// edges.
func floodCount(c *ChunkEdges, startX, startY int) int {
	seen := make([]bool, cells)
	stack := []int{startY*grid.ChunkSize + startX}
	seen[stack[0]] = true
	count := 0
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		count++
		x, y := cur%grid.ChunkSize, cur/grid.ChunkSize
		for _, d := range grid.Directions {
			if !c.EdgeAt(x, y, d).Traversable() {
				continue
			}
			dx, dy := d.Delta()
			nx, ny := x+dx, y+dy
			if nx < 0 || nx >= grid.ChunkSize || ny < 0 || ny >= grid.ChunkSize {
				continue
			}
			ni := ny*grid.ChunkSize + nx
			if !seen[ni] {
				seen[ni] = true
				stack = append(stack, ni)
			}
		}
	}
	return count
}

func TestGenerateMaze_FullyConnected(t *testing.T) {
	c := GenerateMaze(777, 1, 0, 0)
	assert.Equal(t, cells, floodCount(c, 0, 0), "the carve visits every cell, so every cell is reachable")
}

func TestGenerateBSP_ActiveCellsConnected(t *testing.T) {
	c := GenerateBSP(777, 1, 0, 0)

	// Every cell that touches a non-wall edge must be reachable from every
	// other such cell: rooms hang off the corridor tree.
	var start, active int
	startX, startY := -1, -1
	for y := 0; y < grid.ChunkSize; y++ {
		for x := 0; x < grid.ChunkSize; x++ {
			for _, d := range grid.Directions {
				if c.EdgeAt(x, y, d) != grid.EdgeWall {
					active++
					if startX < 0 {
						startX, startY = x, y
					}
					break
				}
			}
		}
	}
	require.Positive(t, active)
	start = floodCount(c, startX, startY)
	assert.Equal(t, active, start)
}

func TestGenerateMaze_DoorFraction(t *testing.T) {
	c := GenerateMaze(4242, 1, 0, 0)
	var open, doors int
	for _, b := range append(append([]byte{}, c.East...), c.South...) {
		switch b {
		case ByteOpen:
			open++
		case ByteDoor:
			doors++
		}
	}
	require.Positive(t, open)
	require.Positive(t, doors, "the door pass should convert some edges")
	frac := float64(doors) / float64(open+doors)
	assert.Less(t, frac, 0.15, "doors stay a small minority of openings")
}

func TestForVersion_Unknown(t *testing.T) {
	_, err := ForVersion("nope")
	assert.Error(t, err)
}

func TestCache_Memoizes(t *testing.T) {
	cache := NewCache(0)
	a, err := cache.Get(VersionMaze, 123, 1, 0, 0)
	require.NoError(t, err)
	b, err := cache.Get(VersionMaze, 123, 1, 0, 0)
	require.NoError(t, err)
	assert.Same(t, a, b, "second read must hit the memo")

	c, err := cache.Get(VersionMaze, 123, 1, 1, 0)
	require.NoError(t, err)
	assert.NotSame(t, a, c)
}

func TestCache_UnknownVersion(t *testing.T) {
	cache := NewCache(4)
	_, err := cache.Get("nope", 1, 1, 0, 0)
	assert.Error(t, err)
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warren Contributors

package gen

import (
	"github.com/warrenmud/warren/internal/grid"
	"github.com/warrenmud/warren/internal/rng"
)

// Maze generator tuning. These values shape every world generated under the
// "maze" version label and are frozen with it.
const (
	mazeRoomAttempts = 40
	mazeDoorChance   = 0.06
)

// GenerateMaze carves a recursive-backtracker maze over the whole chunk,
// stamps a number of rooms on top of it, then converts a fraction of open
// edges into doors.
func GenerateMaze(seed uint32, level, cx, cy int) *ChunkEdges {
	c := newChunk(seed, level, cx, cy)
	src := rng.New(rng.Mix(seed, int32(level), int32(cx), int32(cy), VersionMaze))

	carveMaze(c, src)

	for i := 0; i < mazeRoomAttempts; i++ {
		placeMazeRoom(c, src)
	}

	// Door pass runs in fixed array order so the byte layout is a pure
	// function of the PRNG stream.
	for i := range c.East {
		if c.East[i] == ByteOpen && src.Float01() < mazeDoorChance {
			c.East[i] = ByteDoor
		}
	}
	for i := range c.South {
		if c.South[i] == ByteOpen && src.Float01() < mazeDoorChance {
			c.South[i] = ByteDoor
		}
	}

	return c
}

// carveMaze runs a depth-first carve visiting every cell exactly once.
func carveMaze(c *ChunkEdges, src *rng.Source) {
	visited := make([]bool, cells)
	start := src.IntN(0, cells)
	stack := make([]int, 0, cells)
	stack = append(stack, start)
	visited[start] = true

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		x, y := cur%grid.ChunkSize, cur/grid.ChunkSize

		order := []grid.Direction{grid.North, grid.East, grid.South, grid.West}
		rng.Shuffle(src, order)

		advanced := false
		for _, d := range order {
			dx, dy := d.Delta()
			nx, ny := x+dx, y+dy
			if nx < 0 || nx >= grid.ChunkSize || ny < 0 || ny >= grid.ChunkSize {
				continue
			}
			ni := ny*grid.ChunkSize + nx
			if visited[ni] {
				continue
			}
			openEdge(c, x, y, d)
			visited[ni] = true
			stack = append(stack, ni)
			advanced = true
			break
		}
		if !advanced {
			stack = stack[:len(stack)-1]
		}
	}
}

// rollRoomDim rolls a weighted room dimension. Small rooms dominate.
func rollRoomDim(src *rng.Source) int {
	f := src.Float01()
	switch {
	case f < 0.45:
		return 2
	case f < 0.75:
		return 3
	case f < 0.92:
		return 4
	default:
		return 5
	}
}

// placeMazeRoom attempts one room placement: roll a size, pick a location
// with a one-cell margin to the chunk border, open every interior edge, and
// punch one to three doorways through the perimeter.
func placeMazeRoom(c *ChunkEdges, src *rng.Source) {
	w := rollRoomDim(src)
	h := rollRoomDim(src)
	x := src.IntN(1, grid.ChunkSize-w)
	y := src.IntN(1, grid.ChunkSize-h)

	for yy := y; yy < y+h; yy++ {
		for xx := x; xx < x+w-1; xx++ {
			setEdge(c, xx, yy, grid.East, ByteOpen)
		}
	}
	for yy := y; yy < y+h-1; yy++ {
		for xx := x; xx < x+w; xx++ {
			setEdge(c, xx, yy, grid.South, ByteOpen)
		}
	}

	openings := src.IntN(1, 4)
	for i := 0; i < openings; i++ {
		side := grid.Directions[src.IntN(0, 4)]
		switch side {
		case grid.North:
			openEdge(c, x+src.IntN(0, w), y, grid.North)
		case grid.South:
			openEdge(c, x+src.IntN(0, w), y+h-1, grid.South)
		case grid.East:
			openEdge(c, x+w-1, y+src.IntN(0, h), grid.East)
		default:
			openEdge(c, x, y+src.IntN(0, h), grid.West)
		}
	}
}

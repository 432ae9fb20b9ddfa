// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warren Contributors

// Package gen produces the base edge encoding of world chunks. Generators
// are pure functions of (seed, level, chunk coordinates): for fixed inputs
// the emitted byte arrays are identical across runs and hosts. Persistent
// world changes never live here; they are overlay data that supersedes the
// generated base.
package gen

import (
	"sync"

	"github.com/samber/oops"

	"github.com/warrenmud/warren/internal/grid"
)

// Edge byte encoding inside a chunk. Locked doors and secret levers are
// overlay-only and never generated.
const (
	ByteWall byte = 0
	ByteOpen byte = 1
	ByteDoor byte = 2
)

// Generator version labels. A world is tagged with the label its chunks were
// generated under so future variants can coexist without mixing.
const (
	VersionMaze = "maze"
	VersionBSP  = "bsp_v4"
)

// cells is the number of cells in one chunk.
const cells = grid.ChunkSize * grid.ChunkSize

// ChunkEdges holds the generated east-going and south-going edge of every
// cell in one 64x64 chunk. The north and west edges of a cell are the south
// and east edges of its northern and western neighbors.
type ChunkEdges struct {
	Seed  uint32
	Level int
	CX    int
	CY    int
	East  []byte // cells entries, indexed ly*ChunkSize+lx
	South []byte
}

// EdgeAt decodes the edge of local cell (lx, ly) in direction d.
// West and north reads that would leave the chunk return a wall; the oracle
// applies the chunk-boundary rule before ever consulting the generator for
// those edges.
func (c *ChunkEdges) EdgeAt(lx, ly int, d grid.Direction) grid.EdgeKind {
	switch d {
	case grid.East:
		return kindOf(c.East[ly*grid.ChunkSize+lx])
	case grid.South:
		return kindOf(c.South[ly*grid.ChunkSize+lx])
	case grid.West:
		if lx == 0 {
			return grid.EdgeWall
		}
		return kindOf(c.East[ly*grid.ChunkSize+lx-1])
	default: // North
		if ly == 0 {
			return grid.EdgeWall
		}
		return kindOf(c.South[(ly-1)*grid.ChunkSize+lx])
	}
}

// kindOf maps an edge byte to its kind. Unknown bytes decode as wall.
func kindOf(b byte) grid.EdgeKind {
	switch b {
	case ByteOpen:
		return grid.EdgeOpen
	case ByteDoor:
		return grid.EdgeDoorUnlocked
	default:
		return grid.EdgeWall
	}
}

// Generator produces the edges of one chunk.
type Generator func(seed uint32, level, cx, cy int) *ChunkEdges

// generators maps version labels to implementations.
var generators = map[string]Generator{
	VersionMaze: GenerateMaze,
	VersionBSP:  GenerateBSP,
}

// ForVersion returns the generator registered under the given version label.
func ForVersion(version string) (Generator, error) {
	g, ok := generators[version]
	if !ok {
		return nil, oops.Code("GEN_UNKNOWN_VERSION").
			With("version", version).
			Errorf("no generator registered for version %q", version)
	}
	return g, nil
}

// newChunk allocates a chunk with all edges walled.
func newChunk(seed uint32, level, cx, cy int) *ChunkEdges {
	return &ChunkEdges{
		Seed:  seed,
		Level: level,
		CX:    cx,
		CY:    cy,
		East:  make([]byte, cells),
		South: make([]byte, cells),
	}
}

// openEdge marks the edge of (x, y) in direction d as open, writing the
// neighbor's array for west and north edges. Writes that would leave the
// chunk are dropped.
func openEdge(c *ChunkEdges, x, y int, d grid.Direction) {
	setEdge(c, x, y, d, ByteOpen)
}

// setEdge writes an edge byte, resolving west/north to the owning neighbor.
func setEdge(c *ChunkEdges, x, y int, d grid.Direction, b byte) {
	switch d {
	case grid.East:
		if x >= 0 && x < grid.ChunkSize && y >= 0 && y < grid.ChunkSize {
			c.East[y*grid.ChunkSize+x] = b
		}
	case grid.West:
		setEdge(c, x-1, y, grid.East, b)
	case grid.South:
		if x >= 0 && x < grid.ChunkSize && y >= 0 && y < grid.ChunkSize {
			c.South[y*grid.ChunkSize+x] = b
		}
	default: // North
		setEdge(c, x, y-1, grid.South, b)
	}
}

// edgeByte reads an edge byte, resolving west/north to the owning neighbor.
// Out-of-chunk reads return wall.
func edgeByte(c *ChunkEdges, x, y int, d grid.Direction) byte {
	switch d {
	case grid.East:
		if x < 0 || x >= grid.ChunkSize || y < 0 || y >= grid.ChunkSize {
			return ByteWall
		}
		return c.East[y*grid.ChunkSize+x]
	case grid.West:
		return edgeByte(c, x-1, y, grid.East)
	case grid.South:
		if x < 0 || x >= grid.ChunkSize || y < 0 || y >= grid.ChunkSize {
			return ByteWall
		}
		return c.South[y*grid.ChunkSize+x]
	default: // North
		return edgeByte(c, x, y-1, grid.South)
	}
}

// cacheKey identifies a memoized chunk.
type cacheKey struct {
	seed    uint32
	level   int
	cx, cy  int
	version string
}

// Cache memoizes generated chunks. Generation is pure, so eviction is purely
// a memory concern: when the cache exceeds its limit it is cleared wholesale
// and rebuilt on demand.
type Cache struct {
	mu      sync.RWMutex
	entries map[cacheKey]*ChunkEdges
	limit   int
}

// DefaultCacheLimit bounds the number of memoized chunks (64 chunks of two
// 4 KiB arrays each is ~512 KiB).
const DefaultCacheLimit = 64

// NewCache creates a chunk cache. A non-positive limit uses the default.
func NewCache(limit int) *Cache {
	if limit <= 0 {
		limit = DefaultCacheLimit
	}
	return &Cache{
		entries: make(map[cacheKey]*ChunkEdges),
		limit:   limit,
	}
}

// Get returns the chunk for the given coordinates, generating and memoizing
// it if absent.
func (c *Cache) Get(version string, seed uint32, level, cx, cy int) (*ChunkEdges, error) {
	key := cacheKey{seed: seed, level: level, cx: cx, cy: cy, version: version}

	c.mu.RLock()
	chunk, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return chunk, nil
	}

	gen, err := ForVersion(version)
	if err != nil {
		return nil, err
	}
	chunk = gen(seed, level, cx, cy)

	c.mu.Lock()
	if len(c.entries) >= c.limit {
		c.entries = make(map[cacheKey]*ChunkEdges)
	}
	c.entries[key] = chunk
	c.mu.Unlock()

	return chunk, nil
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warren Contributors

package gen

import (
	"github.com/warrenmud/warren/internal/grid"
	"github.com/warrenmud/warren/internal/rng"
)

// BSP generator tuning, frozen with the "bsp_v4" version label.
const (
	bspMinLeaf     = 12
	bspRoomMin     = 3
	bspRoomMax     = 8
	bspWidenChance = 1.0 / 12
)

// bspRect is an axis-aligned cell rectangle.
type bspRect struct {
	x, y, w, h int
}

func (r bspRect) contains(x, y int) bool {
	return x >= r.x && x < r.x+r.w && y >= r.y && y < r.y+r.h
}

func (r bspRect) center() (int, int) {
	return r.x + r.w/2, r.y + r.h/2
}

// bspNode is one node of the partition tree.
type bspNode struct {
	bspRect
	left, right *bspNode
	room        *bspRect
}

// GenerateBSP builds a BSP dungeon: recursive axis-aligned cuts down to a
// minimum leaf size, one room per leaf, corridors connecting sibling
// subtrees, then door promotion on every room/corridor boundary.
func GenerateBSP(seed uint32, level, cx, cy int) *ChunkEdges {
	c := newChunk(seed, level, cx, cy)
	src := rng.New(rng.Mix(seed, int32(level), int32(cx), int32(cy), VersionBSP))

	root := &bspNode{bspRect: bspRect{0, 0, grid.ChunkSize, grid.ChunkSize}}
	splitNode(root, src)

	// roomID maps each cell to the index of the room containing it, -1 if
	// none. Room membership drives door promotion below.
	roomID := make([]int, cells)
	for i := range roomID {
		roomID[i] = -1
	}
	var rooms []bspRect
	carveRooms(c, root, src, &rooms, roomID)
	connectChildren(c, root, src)

	promoteDoors(c, src, rooms, roomID)

	return c
}

// splitNode recursively cuts a node until neither axis can fit two leaves.
func splitNode(n *bspNode, src *rng.Source) {
	canVert := n.w >= 2*bspMinLeaf
	canHoriz := n.h >= 2*bspMinLeaf
	if !canVert && !canHoriz {
		return
	}

	vertical := canVert
	if canVert && canHoriz {
		// Cut across the longer axis; a square node flips a coin.
		switch {
		case n.w > n.h:
			vertical = true
		case n.h > n.w:
			vertical = false
		default:
			vertical = src.IntN(0, 2) == 0
		}
	}

	if vertical {
		cut := src.IntN(bspMinLeaf, n.w-bspMinLeaf+1)
		n.left = &bspNode{bspRect: bspRect{n.x, n.y, cut, n.h}}
		n.right = &bspNode{bspRect: bspRect{n.x + cut, n.y, n.w - cut, n.h}}
	} else {
		cut := src.IntN(bspMinLeaf, n.h-bspMinLeaf+1)
		n.left = &bspNode{bspRect: bspRect{n.x, n.y, n.w, cut}}
		n.right = &bspNode{bspRect: bspRect{n.x, n.y + cut, n.w, n.h - cut}}
	}
	splitNode(n.left, src)
	splitNode(n.right, src)
}

// carveRooms places one room per leaf and opens all its interior edges.
func carveRooms(c *ChunkEdges, n *bspNode, src *rng.Source, rooms *[]bspRect, roomID []int) {
	if n.left != nil {
		carveRooms(c, n.left, src, rooms, roomID)
		carveRooms(c, n.right, src, rooms, roomID)
		return
	}

	maxW := min(n.w-2, bspRoomMax)
	maxH := min(n.h-2, bspRoomMax)
	w := src.IntN(bspRoomMin, maxW+1)
	h := src.IntN(bspRoomMin, maxH+1)
	room := bspRect{
		x: n.x + src.IntN(1, n.w-w),
		y: n.y + src.IntN(1, n.h-h),
		w: w,
		h: h,
	}
	n.room = &room

	id := len(*rooms)
	*rooms = append(*rooms, room)
	for yy := room.y; yy < room.y+room.h; yy++ {
		for xx := room.x; xx < room.x+room.w; xx++ {
			roomID[yy*grid.ChunkSize+xx] = id
			if xx < room.x+room.w-1 {
				setEdge(c, xx, yy, grid.East, ByteOpen)
			}
			if yy < room.y+room.h-1 {
				setEdge(c, xx, yy, grid.South, ByteOpen)
			}
		}
	}
}

// representative returns the center of some room under the node.
func representative(n *bspNode) (int, int) {
	if n.room != nil {
		return n.room.center()
	}
	return representative(n.left)
}

// connectChildren walks the tree post-order and joins each internal node's
// children with a corridor between representative points.
func connectChildren(c *ChunkEdges, n *bspNode, src *rng.Source) {
	if n.left == nil {
		return
	}
	connectChildren(c, n.left, src)
	connectChildren(c, n.right, src)

	ax, ay := representative(n.left)
	bx, by := representative(n.right)
	path := corridorPath(ax, ay, bx, by, src)
	carvePath(c, path)

	// A minority of corridors run two cells wide.
	if src.Float01() < bspWidenChance {
		carveWidened(c, path)
	}
}

// pathCell is one step of a corridor.
type pathCell struct {
	x, y int
}

// corridorPath returns the straight or L-shaped cell path between two
// points. The elbow orientation is a coin flip when both legs are needed.
func corridorPath(ax, ay, bx, by int, src *rng.Source) []pathCell {
	horizontalFirst := src.IntN(0, 2) == 0

	var path []pathCell
	appendLeg := func(x0, y0, x1, y1 int) (int, int) {
		x, y := x0, y0
		path = append(path, pathCell{x, y})
		for x != x1 {
			x += sign(x1 - x)
			path = append(path, pathCell{x, y})
		}
		for y != y1 {
			y += sign(y1 - y)
			path = append(path, pathCell{x, y})
		}
		return x, y
	}

	if horizontalFirst {
		appendLeg(ax, ay, bx, by)
	} else {
		// Vertical leg first: walk y to the target row, then x.
		x, y := ax, ay
		path = append(path, pathCell{x, y})
		for y != by {
			y += sign(by - y)
			path = append(path, pathCell{x, y})
		}
		for x != bx {
			x += sign(bx - x)
			path = append(path, pathCell{x, y})
		}
	}
	return path
}

func sign(v int) int {
	if v < 0 {
		return -1
	}
	return 1
}

// carvePath opens the edge between each consecutive pair of path cells.
func carvePath(c *ChunkEdges, path []pathCell) {
	for i := 1; i < len(path); i++ {
		a, b := path[i-1], path[i]
		openEdge(c, a.x, a.y, stepDir(a, b))
	}
}

// carveWidened duplicates the path one cell to the south or east of each
// step and joins the two lanes with rungs.
func carveWidened(c *ChunkEdges, path []pathCell) {
	for i := 1; i < len(path); i++ {
		a, b := path[i-1], path[i]
		d := stepDir(a, b)

		perp := grid.South
		if d == grid.North || d == grid.South {
			perp = grid.East
		}
		pdx, pdy := perp.Delta()

		openEdge(c, a.x, a.y, perp)
		openEdge(c, b.x, b.y, perp)
		openEdge(c, a.x+pdx, a.y+pdy, d)
	}
}

// stepDir returns the direction of a single-cell step from a to b.
func stepDir(a, b pathCell) grid.Direction {
	switch {
	case b.x > a.x:
		return grid.East
	case b.x < a.x:
		return grid.West
	case b.y > a.y:
		return grid.South
	default:
		return grid.North
	}
}

// promoteDoors converts every open edge crossing a room/corridor boundary to
// a door, sanitizes doors elsewhere back to open, and guarantees every room
// at least one door.
func promoteDoors(c *ChunkEdges, src *rng.Source, rooms []bspRect, roomID []int) {
	corridor := corridorMask(c, roomID)

	boundary := func(ai, bi int) bool {
		aRoom, bRoom := roomID[ai] >= 0, roomID[bi] >= 0
		if aRoom == bRoom {
			return false
		}
		if aRoom {
			return corridor[bi]
		}
		return corridor[ai]
	}

	for y := 0; y < grid.ChunkSize; y++ {
		for x := 0; x < grid.ChunkSize; x++ {
			i := y*grid.ChunkSize + x
			if x < grid.ChunkSize-1 {
				east := c.East[i]
				onBoundary := boundary(i, i+1)
				if east == ByteOpen && onBoundary {
					c.East[i] = ByteDoor
				} else if east == ByteDoor && !onBoundary {
					c.East[i] = ByteOpen
				}
			}
			if y < grid.ChunkSize-1 {
				south := c.South[i]
				onBoundary := boundary(i, i+grid.ChunkSize)
				if south == ByteOpen && onBoundary {
					c.South[i] = ByteDoor
				} else if south == ByteDoor && !onBoundary {
					c.South[i] = ByteOpen
				}
			}
		}
	}

	for _, room := range rooms {
		ensureRoomDoor(c, src, room)
	}
}

// corridorMask marks every non-room cell that touches at least one non-wall
// edge.
func corridorMask(c *ChunkEdges, roomID []int) []bool {
	mask := make([]bool, cells)
	for y := 0; y < grid.ChunkSize; y++ {
		for x := 0; x < grid.ChunkSize; x++ {
			i := y*grid.ChunkSize + x
			if roomID[i] >= 0 {
				continue
			}
			for _, d := range grid.Directions {
				if edgeByte(c, x, y, d) != ByteWall {
					mask[i] = true
					break
				}
			}
		}
	}
	return mask
}

// perimeterEdge is one edge leading out of a room.
type perimeterEdge struct {
	x, y int
	dir  grid.Direction
}

// roomPerimeter lists every edge from a room cell to the outside of the
// room, excluding edges that would leave the chunk.
func roomPerimeter(room bspRect) []perimeterEdge {
	var edges []perimeterEdge
	for xx := room.x; xx < room.x+room.w; xx++ {
		if room.y > 0 {
			edges = append(edges, perimeterEdge{xx, room.y, grid.North})
		}
		if room.y+room.h < grid.ChunkSize {
			edges = append(edges, perimeterEdge{xx, room.y + room.h - 1, grid.South})
		}
	}
	for yy := room.y; yy < room.y+room.h; yy++ {
		if room.x > 0 {
			edges = append(edges, perimeterEdge{room.x, yy, grid.West})
		}
		if room.x+room.w < grid.ChunkSize {
			edges = append(edges, perimeterEdge{room.x + room.w - 1, yy, grid.East})
		}
	}
	return edges
}

// ensureRoomDoor guarantees a room has at least one door: promote an open
// perimeter edge if one exists, otherwise synthesize a doorway.
func ensureRoomDoor(c *ChunkEdges, src *rng.Source, room bspRect) {
	perimeter := roomPerimeter(room)

	var open []perimeterEdge
	for _, e := range perimeter {
		switch edgeByte(c, e.x, e.y, e.dir) {
		case ByteDoor:
			return
		case ByteOpen:
			open = append(open, e)
		}
	}

	if len(open) > 0 {
		e := open[src.IntN(0, len(open))]
		setEdge(c, e.x, e.y, e.dir, ByteDoor)
		return
	}
	if len(perimeter) > 0 {
		e := perimeter[src.IntN(0, len(perimeter))]
		setEdge(c, e.x, e.y, e.dir, ByteDoor)
	}
}

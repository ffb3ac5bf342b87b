// Package grid provides the spatial city state: a fixed-size rectangular
// matrix of tiles holding building occupancy, local pollution, and road
// connectivity.
package grid

import (
	"github.com/talgya/cityforge/internal/catalog"
)

// Tile is one grid cell.
type Tile struct {
	X, Y          int
	Building      catalog.Building
	Pollution     float64 // Local concentration, 0..100
	HasRoadAccess bool

	// Attribution for persistence — who placed the building and when.
	PlacedBy   string
	PlacedTick uint64
}

// Grid is the rectangular tile matrix. Created once per city, never resized.
type Grid struct {
	W, H  int
	Tiles [][]Tile
}

// New creates an empty (all-None) grid of the given extents.
func New(w, h int) *Grid {
	tiles := make([][]Tile, h)
	for y := range tiles {
		tiles[y] = make([]Tile, w)
		for x := range tiles[y] {
			tiles[y][x] = Tile{X: x, Y: y}
		}
	}
	return &Grid{W: w, H: h, Tiles: tiles}
}

// InBounds reports whether (x, y) lies within the grid.
func (g *Grid) InBounds(x, y int) bool {
	return x >= 0 && x < g.W && y >= 0 && y < g.H
}

// At returns the tile at (x, y), or nil when out of bounds.
func (g *Grid) At(x, y int) *Tile {
	if !g.InBounds(x, y) {
		return nil
	}
	return &g.Tiles[y][x]
}

// Count tallies tiles holding the given building type.
func (g *Grid) Count(b catalog.Building) int {
	n := 0
	for y := 0; y < g.H; y++ {
		for x := 0; x < g.W; x++ {
			if g.Tiles[y][x].Building == b {
				n++
			}
		}
	}
	return n
}

// Clone returns a deep copy of the grid.
func (g *Grid) Clone() *Grid {
	c := &Grid{W: g.W, H: g.H, Tiles: make([][]Tile, g.H)}
	for y := range g.Tiles {
		c.Tiles[y] = make([]Tile, g.W)
		copy(c.Tiles[y], g.Tiles[y])
	}
	return c
}

// Rect is an axis-aligned sub-rectangle of the grid (inclusive bounds).
type Rect struct {
	X0, Y0, X1, Y1 int
}

// Contains reports whether (x, y) lies within the rectangle.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X0 && x <= r.X1 && y >= r.Y0 && y <= r.Y1
}

// UnlockedRect returns the fog-of-war rectangle: a region centered on the
// grid whose half-extent grows with population milestones. Only Build
// actions are confined to it.
func (g *Grid) UnlockedRect(population int) Rect {
	// Start with the central third; unlock a ring per milestone.
	half := g.W / 6
	if g.H/6 < half {
		half = g.H / 6
	}
	for _, milestone := range []int{50, 200, 500, 1000} {
		if population >= milestone {
			half += 2
		}
	}
	cx, cy := g.W/2, g.H/2
	r := Rect{X0: cx - half, Y0: cy - half, X1: cx + half, Y1: cy + half}
	if r.X0 < 0 {
		r.X0 = 0
	}
	if r.Y0 < 0 {
		r.Y0 = 0
	}
	if r.X1 >= g.W {
		r.X1 = g.W - 1
	}
	if r.Y1 >= g.H {
		r.Y1 = g.H - 1
	}
	return r
}

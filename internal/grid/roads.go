package grid

import "github.com/talgya/cityforge/internal/catalog"

// RefreshRoadAccess recomputes the HasRoadAccess flag for every tile.
// Connectivity is computed into a fresh array from the current occupancy
// and applied afterwards, so reads never observe a half-updated scan.
func (g *Grid) RefreshRoadAccess() {
	access := make([][]bool, g.H)
	for y := 0; y < g.H; y++ {
		access[y] = make([]bool, g.W)
		for x := 0; x < g.W; x++ {
			access[y][x] = g.connected(x, y)
		}
	}
	for y := 0; y < g.H; y++ {
		for x := 0; x < g.W; x++ {
			g.Tiles[y][x].HasRoadAccess = access[y][x]
		}
	}
}

// connected reports whether the tile at (x, y) counts as road-connected:
// roads, bridges, and water are self-connected; everything else needs a
// 4-neighbor road or bridge.
func (g *Grid) connected(x, y int) bool {
	switch g.Tiles[y][x].Building {
	case catalog.Road, catalog.Bridge, catalog.Water:
		return true
	}
	for _, d := range [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
		n := g.At(x+d[0], y+d[1])
		if n == nil {
			continue
		}
		if n.Building == catalog.Road || n.Building == catalog.Bridge {
			return true
		}
	}
	return false
}

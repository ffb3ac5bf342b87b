package grid

import (
	"testing"

	"github.com/talgya/cityforge/internal/catalog"
)

func TestAtBoundsChecks(t *testing.T) {
	g := New(4, 3)
	if g.At(-1, 0) != nil || g.At(0, -1) != nil || g.At(4, 0) != nil || g.At(0, 3) != nil {
		t.Fatal("At must return nil out of bounds")
	}
	tile := g.At(3, 2)
	if tile == nil || tile.X != 3 || tile.Y != 2 {
		t.Fatalf("At(3,2) = %+v", tile)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	g := New(5, 5)
	g.Tiles[2][2].Building = catalog.Road

	c := g.Clone()
	c.Tiles[2][2].Building = catalog.Park
	c.Tiles[0][0].Pollution = 50

	if g.Tiles[2][2].Building != catalog.Road {
		t.Fatal("mutating the clone changed the original")
	}
	if g.Tiles[0][0].Pollution != 0 {
		t.Fatal("clone shares tile storage with the original")
	}
}

func TestUnlockedRectGrowsWithPopulation(t *testing.T) {
	g := New(40, 40)

	cases := []struct {
		pop  int
		half int
	}{
		{0, 6},
		{49, 6},
		{50, 8},
		{200, 10},
		{500, 12},
		{1000, 14},
	}
	for _, tc := range cases {
		r := g.UnlockedRect(tc.pop)
		want := Rect{X0: 20 - tc.half, Y0: 20 - tc.half, X1: 20 + tc.half, Y1: 20 + tc.half}
		if r != want {
			t.Errorf("pop %d: rect = %+v, want %+v", tc.pop, r, want)
		}
	}
}

func TestUnlockedRectClampsToGrid(t *testing.T) {
	g := New(10, 10)
	r := g.UnlockedRect(100000)
	if r.X0 < 0 || r.Y0 < 0 || r.X1 >= g.W || r.Y1 >= g.H {
		t.Fatalf("rect %+v escapes a 10x10 grid", r)
	}
	if !r.Contains(0, 0) || !r.Contains(9, 9) {
		t.Fatal("fully unlocked rect should cover the whole grid")
	}
}

func TestGenerateDeterministic(t *testing.T) {
	cfg := DefaultGenConfig()
	cfg.Seed = 1234

	a := Generate(cfg)
	b := Generate(cfg)
	for y := 0; y < cfg.Height; y++ {
		for x := 0; x < cfg.Width; x++ {
			if a.Tiles[y][x].Building != b.Tiles[y][x].Building {
				t.Fatalf("terrain differs at (%d,%d) for identical seeds", x, y)
			}
		}
	}
}

func TestGenerateClearsCenter(t *testing.T) {
	cfg := DefaultGenConfig()
	cfg.Seed = 7
	g := Generate(cfg)

	cx, cy := cfg.Width/2, cfg.Height/2
	for y := cy - 2; y <= cy+2; y++ {
		for x := cx - 2; x <= cx+2; x++ {
			if g.Tiles[y][x].Building != catalog.None {
				t.Fatalf("center tile (%d,%d) is %v, want empty", x, y, g.Tiles[y][x].Building)
			}
		}
	}
}

func TestGenerateEdgesAreWet(t *testing.T) {
	cfg := DefaultGenConfig()
	cfg.Seed = 99
	g := Generate(cfg)

	// The cubic falloff drives corner elevation negative, below any
	// sensible water threshold.
	for _, p := range [][2]int{{0, 0}, {cfg.Width - 1, 0}, {0, cfg.Height - 1}, {cfg.Width - 1, cfg.Height - 1}} {
		if g.Tiles[p[1]][p[0]].Building != catalog.Water {
			t.Fatalf("corner (%d,%d) is dry", p[0], p[1])
		}
	}
}

func TestRoadAccess(t *testing.T) {
	g := New(6, 6)
	g.Tiles[2][2].Building = catalog.Road
	g.Tiles[2][3].Building = catalog.Residential // adjacent to the road
	g.Tiles[4][4].Building = catalog.Commercial  // isolated
	g.Tiles[0][0].Building = catalog.Water

	g.RefreshRoadAccess()

	if !g.Tiles[2][2].HasRoadAccess {
		t.Fatal("roads are self-connected")
	}
	if !g.Tiles[2][3].HasRoadAccess {
		t.Fatal("tile next to a road should be connected")
	}
	if g.Tiles[4][4].HasRoadAccess {
		t.Fatal("isolated tile should not be connected")
	}
	if !g.Tiles[0][0].HasRoadAccess {
		t.Fatal("water counts as connected")
	}
	if g.Tiles[2][4].HasRoadAccess {
		t.Fatal("diagonal neighbors do not grant access")
	}
}

func TestRoadAccessBridge(t *testing.T) {
	g := New(5, 5)
	g.Tiles[2][1].Building = catalog.Bridge
	g.Tiles[2][2].Building = catalog.Industrial

	g.RefreshRoadAccess()

	if !g.Tiles[2][2].HasRoadAccess {
		t.Fatal("bridges should grant access like roads")
	}
}

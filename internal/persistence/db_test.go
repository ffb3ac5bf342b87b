package persistence

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/talgya/cityforge/internal/catalog"
	"github.com/talgya/cityforge/internal/grid"
	"github.com/talgya/cityforge/internal/sim"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestFreshDatabase(t *testing.T) {
	db := openTestDB(t)

	if _, err := db.LoadGrid(); !errors.Is(err, ErrNoSave) {
		t.Fatalf("LoadGrid on fresh db: %v, want ErrNoSave", err)
	}
	if _, err := db.LoadStats(); !errors.Is(err, ErrNoSave) {
		t.Fatalf("LoadStats on fresh db: %v, want ErrNoSave", err)
	}
	goal, err := db.LoadGoal()
	if err != nil || goal != nil {
		t.Fatalf("LoadGoal on fresh db: %v, %v", goal, err)
	}
	tick, err := db.LastTick()
	if err != nil || tick != 0 {
		t.Fatalf("LastTick on fresh db: %d, %v", tick, err)
	}
}

func TestGridRoundTrip(t *testing.T) {
	db := openTestDB(t)

	g := grid.New(8, 8)
	g.Tiles[3][3].Building = catalog.Road
	g.Tiles[3][4].Building = catalog.Residential
	g.Tiles[3][4].PlacedBy = "mayor"
	g.Tiles[3][4].PlacedTick = 42
	g.Tiles[0][0].Building = catalog.Water
	g.Tiles[5][5].Pollution = 12.5

	if err := db.SaveGrid(g); err != nil {
		t.Fatalf("SaveGrid: %v", err)
	}

	loaded, err := db.LoadGrid()
	if err != nil {
		t.Fatalf("LoadGrid: %v", err)
	}
	if loaded.W != 8 || loaded.H != 8 {
		t.Fatalf("loaded %dx%d", loaded.W, loaded.H)
	}
	res := loaded.Tiles[3][4]
	if res.Building != catalog.Residential || res.PlacedBy != "mayor" || res.PlacedTick != 42 {
		t.Fatalf("residential tile = %+v", res)
	}
	if loaded.Tiles[5][5].Pollution != 12.5 {
		t.Fatalf("pollution = %v", loaded.Tiles[5][5].Pollution)
	}
	// Derived on load, not stored.
	if !res.HasRoadAccess {
		t.Fatal("road access not refreshed after load")
	}
}

func TestCityStateRoundTrip(t *testing.T) {
	db := openTestDB(t)

	c := sim.NewCity(grid.New(8, 8), 1)
	c.Stats.Money = 3141
	c.Stats.Day = 99
	c.Stats.TaxRate = 0.2
	c.Stats.Budget.Details["upkeep"] = 7
	c.SetGoal(&sim.AIGoal{
		Description: "Reach 100 citizens",
		TargetType:  "population",
		TargetValue: 100,
		Reward:      500,
	})

	if err := db.SaveCityState(c, 99); err != nil {
		t.Fatalf("SaveCityState: %v", err)
	}

	stats, err := db.LoadStats()
	if err != nil {
		t.Fatalf("LoadStats: %v", err)
	}
	if stats.Money != 3141 || stats.Day != 99 || stats.TaxRate != 0.2 {
		t.Fatalf("stats = %+v", stats)
	}
	if stats.Budget.Details["upkeep"] != 7 {
		t.Fatalf("budget details lost: %+v", stats.Budget.Details)
	}

	goal, err := db.LoadGoal()
	if err != nil {
		t.Fatalf("LoadGoal: %v", err)
	}
	if goal == nil || goal.TargetValue != 100 || goal.Reward != 500 {
		t.Fatalf("goal = %+v", goal)
	}

	tick, err := db.LastTick()
	if err != nil || tick != 99 {
		t.Fatalf("LastTick = %d, %v", tick, err)
	}
}

func TestEventsRoundTrip(t *testing.T) {
	db := openTestDB(t)

	events := []sim.Event{
		{Tick: 1, Description: "first", Category: "build"},
		{Tick: 2, Description: "second", Category: "economy"},
		{Tick: 3, Description: "third", Category: "population"},
	}
	if err := db.SaveEvents(events); err != nil {
		t.Fatalf("SaveEvents: %v", err)
	}
	if err := db.SaveEvents(nil); err != nil {
		t.Fatalf("empty SaveEvents: %v", err)
	}

	got, err := db.RecentEvents(2)
	if err != nil {
		t.Fatalf("RecentEvents: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d events, want 2", len(got))
	}
	// Newest first.
	if got[0].Description != "third" || got[1].Description != "second" {
		t.Fatalf("events = %+v", got)
	}
}

func TestMetaRoundTrip(t *testing.T) {
	db := openTestDB(t)

	if err := db.SaveMeta("flavor", "vanilla"); err != nil {
		t.Fatal(err)
	}
	if err := db.SaveMeta("flavor", "chocolate"); err != nil {
		t.Fatal(err)
	}
	got, err := db.GetMeta("flavor")
	if err != nil || got != "chocolate" {
		t.Fatalf("GetMeta = %q, %v", got, err)
	}
}

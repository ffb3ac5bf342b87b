package sim

import (
	"math/rand"
	"sync"

	"github.com/talgya/cityforge/internal/catalog"
	"github.com/talgya/cityforge/internal/grid"
)

// Event is a notable occurrence in the city's history.
type Event struct {
	Tick        uint64 `json:"tick" db:"tick"`
	Description string `json:"description" db:"description"`
	Category    string `json:"category" db:"category"` // "build", "economy", "disaster", "mayor", "news"...
}

// City owns the mutable (grid, stats) pair shared by the tick driver, the
// human input path, and the mayor loop. Every tick step and every accepted
// action is an atomic read-modify-write under the mutex; readers take
// snapshots and may lag a tick without harm.
type City struct {
	mu sync.Mutex

	Grid  *grid.Grid
	Stats Stats
	Goal  *AIGoal

	Tuning Tuning

	Disaster *ActiveDisaster

	Events []Event // Recent events (trimmed to the last 1000)

	weirdPending bool

	rng *rand.Rand
}

// NewCity wraps a generated grid and initial stats with a seeded random
// source. All simulation randomness flows from this one source.
func NewCity(g *grid.Grid, seed int64) *City {
	g.RefreshRoadAccess()
	return &City{
		Grid:   g,
		Stats:  InitialStats(),
		Tuning: DefaultTuning(),
		rng:    rand.New(rand.NewSource(seed)),
	}
}

// Step advances the city by one simulated day: environment first (the
// economic step consumes the pollution gauge it produces), then the
// economy, then disaster and event checks. Pure synchronous computation;
// nothing in here may block.
func (c *City) Step(tick uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.Grid.RefreshRoadAccess()

	stats := c.Stats
	stats.Day++

	c.stepEnvironment(&stats)
	c.stepEconomy(&stats, tick)
	c.stepDisaster(&stats, tick)
	c.checkGoal(&stats, tick)

	// Publish the new record wholesale.
	c.Stats = stats

	if len(c.Events) > 1000 {
		c.Events = c.Events[len(c.Events)-1000:]
	}
}

// Snapshot returns deep copies of the grid and stats for readers.
func (c *City) Snapshot() (*grid.Grid, Stats) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Grid.Clone(), c.Stats
}

// RecentEvents returns up to limit most recent events, newest last.
func (c *City) RecentEvents(limit int) []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	start := 0
	if len(c.Events) > limit {
		start = len(c.Events) - limit
	}
	out := make([]Event, len(c.Events)-start)
	copy(out, c.Events[start:])
	return out
}

// EmitEvent appends an event to the city history.
func (c *City) EmitEvent(e Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Events = append(c.Events, e)
}

// emit appends an event while the caller already holds the mutex.
func (c *City) emit(e Event) {
	c.Events = append(c.Events, e)
}

// SetGoal replaces the current advisory goal.
func (c *City) SetGoal(g *AIGoal) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Goal = g
}

// CurrentGoal returns a copy of the active goal, or nil.
func (c *City) CurrentGoal() *AIGoal {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Goal == nil {
		return nil
	}
	g := *c.Goal
	return &g
}

// checkGoal flips the goal's Completed flag and pays the reward once the
// target is met.
func (c *City) checkGoal(stats *Stats, tick uint64) {
	if c.Goal == nil || c.Goal.Completed {
		return
	}
	met := false
	switch c.Goal.TargetType {
	case "population":
		met = stats.Demographics.Total() >= c.Goal.TargetValue
	case "money":
		met = stats.Money >= c.Goal.TargetValue
	case "building_count":
		met = c.countByName(c.Goal.BuildingType) >= c.Goal.TargetValue
	}
	if !met {
		return
	}
	c.Goal.Completed = true
	stats.Money += c.Goal.Reward
	c.emit(Event{
		Tick:        tick,
		Description: "City goal achieved: " + c.Goal.Description,
		Category:    "goal",
	})
}

func (c *City) countByName(name string) int {
	n := 0
	for y := 0; y < c.Grid.H; y++ {
		for x := 0; x < c.Grid.W; x++ {
			t := &c.Grid.Tiles[y][x]
			if catalog.Buildable(t.Building) && catalog.Name(t.Building) == name {
				n++
			}
		}
	}
	return n
}

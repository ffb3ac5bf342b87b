// Action validation — the sole gate through which human clicks and mayor
// proposals may mutate the grid and treasury.
package sim

import (
	"errors"
	"fmt"

	"github.com/talgya/cityforge/internal/catalog"
)

// Typed rejection reasons. Rejections never halt the tick loop; they are
// surfaced to the caller and (for the mayor) recorded in failure memory.
var (
	ErrOutOfBounds  = errors.New("coordinates outside the grid")
	ErrLocked       = errors.New("tile not yet unlocked")
	ErrOccupied     = errors.New("tile already occupied")
	ErrNeedsWater   = errors.New("bridges can only be built over water")
	ErrOnWater      = errors.New("cannot build on water")
	ErrUnknownType  = errors.New("unknown building type")
	ErrUnaffordable = errors.New("insufficient funds")
	ErrLimitReached = errors.New("building limit reached")
	ErrEmptyTile    = errors.New("nothing to demolish")
)

// Action is a requested grid mutation.
type Action struct {
	Demolish bool
	Building catalog.Building // Ignored for demolish
	X, Y     int
}

// Validate checks an action against grid and treasury invariants and
// returns its cost. The grid is not modified.
func (c *City) Validate(a Action) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.validate(a)
}

func (c *City) validate(a Action) (int, error) {
	t := c.Grid.At(a.X, a.Y)
	if t == nil {
		return 0, ErrOutOfBounds
	}

	if a.Demolish {
		if t.Building == catalog.None || t.Building == catalog.Water {
			return 0, ErrEmptyTile
		}
		// Demolition is allowed even at negative balance.
		return catalog.DemolishCost, nil
	}

	if !catalog.Buildable(a.Building) {
		return 0, ErrUnknownType
	}
	if !c.Grid.UnlockedRect(c.Stats.Demographics.Total()).Contains(a.X, a.Y) {
		return 0, ErrLocked
	}

	// Terrain compatibility: bridges only over water, everything else
	// only on empty land. Nothing ever overwrites a standing building.
	if a.Building == catalog.Bridge {
		if t.Building != catalog.Water {
			return 0, ErrNeedsWater
		}
	} else {
		if t.Building == catalog.Water {
			return 0, ErrOnWater
		}
		if t.Building != catalog.None {
			return 0, ErrOccupied
		}
	}

	cfg := catalog.Lookup(a.Building)
	if cfg.MaxAllowed > 0 && c.Grid.Count(a.Building) >= cfg.MaxAllowed {
		return 0, ErrLimitReached
	}
	if c.Stats.Money < cfg.Cost {
		return 0, ErrUnaffordable
	}
	return cfg.Cost, nil
}

// Apply validates and, on acceptance, executes the action: deducts the
// cost and mutates exactly the one target tile. by attributes the change
// (session ID or "mayor").
func (c *City) Apply(a Action, by string, tick uint64) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cost, err := c.validate(a)
	if err != nil {
		return 0, err
	}

	t := c.Grid.At(a.X, a.Y)
	if a.Demolish {
		was := t.Building
		// Bridges sit over water: demolishing one restores the water
		// underneath. Everything else reverts to empty land.
		if was == catalog.Bridge {
			t.Building = catalog.Water
		} else {
			t.Building = catalog.None
		}
		t.PlacedBy = ""
		t.PlacedTick = 0
		c.Stats.Money -= cost
		c.emit(Event{
			Tick:        tick,
			Description: fmt.Sprintf("%s demolished at (%d, %d)", catalog.Name(was), a.X, a.Y),
			Category:    "build",
		})
		return cost, nil
	}

	t.Building = a.Building
	t.PlacedBy = by
	t.PlacedTick = tick
	c.Stats.Money -= cost
	c.emit(Event{
		Tick:        tick,
		Description: fmt.Sprintf("%s built at (%d, %d)", catalog.Name(a.Building), a.X, a.Y),
		Category:    "build",
	})
	return cost, nil
}

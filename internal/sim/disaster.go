// Disaster scheduling — low-probability multi-stage catastrophes, at most
// one active at a time.
package sim

import (
	"fmt"

	"github.com/talgya/cityforge/internal/catalog"
)

// DisasterKind identifies a catastrophe type.
type DisasterKind uint8

const (
	DisasterMeteor DisasterKind = iota
	DisasterAlien
	DisasterSolarFlare
)

func (k DisasterKind) String() string {
	switch k {
	case DisasterMeteor:
		return "meteor"
	case DisasterAlien:
		return "alien visitation"
	case DisasterSolarFlare:
		return "solar flare"
	}
	return "unknown"
}

// DisasterStage is the lifecycle phase of an active disaster.
type DisasterStage uint8

const (
	StageWarning DisasterStage = iota
	StageActive
	StageAftermath
)

// Stage durations in ticks.
const (
	warningTicks   = 3
	activeTicks    = 1
	aftermathTicks = 3
)

// ActiveDisaster is the ephemeral record of an in-flight catastrophe.
// Created by the scheduler, destroyed by its own timeout.
type ActiveDisaster struct {
	Kind      DisasterKind  `json:"kind"`
	X         int           `json:"x"` // Impact center (meteor only)
	Y         int           `json:"y"`
	StartTick uint64        `json:"start_tick"`
	Stage     DisasterStage `json:"stage"`
	stageLeft int
}

// stepDisaster advances the active disaster's state machine or rolls for a
// new one. A fresh roll is ignored while one is in flight. Caller holds
// the mutex.
func (c *City) stepDisaster(stats *Stats, tick uint64) {
	if c.Disaster != nil {
		c.advanceDisaster(stats, tick)
		return
	}

	// Weird narrative events are independent of disasters. The roll only
	// requests narration; the agent loop services it off the tick thread.
	if c.rng.Float64() < c.Tuning.WeirdChance {
		c.weirdPending = true
	}

	if c.rng.Float64() >= c.Tuning.DisasterChance {
		return
	}

	kind := DisasterKind(c.rng.Intn(3))
	d := &ActiveDisaster{
		Kind:      kind,
		StartTick: tick,
		Stage:     StageWarning,
		stageLeft: warningTicks,
	}
	if kind == DisasterMeteor {
		d.X = c.rng.Intn(c.Grid.W)
		d.Y = c.rng.Intn(c.Grid.H)
	}
	c.Disaster = d
	c.emit(Event{
		Tick:        tick,
		Description: fmt.Sprintf("Warning: %s detected", kind),
		Category:    "disaster",
	})
}

func (c *City) advanceDisaster(stats *Stats, tick uint64) {
	d := c.Disaster
	d.stageLeft--
	if d.stageLeft > 0 {
		return
	}

	switch d.Stage {
	case StageWarning:
		d.Stage = StageActive
		d.stageLeft = activeTicks
		c.applyDisasterImpact(stats, tick)
	case StageActive:
		d.Stage = StageAftermath
		d.stageLeft = aftermathTicks
	case StageAftermath:
		c.emit(Event{
			Tick:        tick,
			Description: fmt.Sprintf("The %s has passed", d.Kind),
			Category:    "disaster",
		})
		c.Disaster = nil
	}
}

// applyDisasterImpact executes the disaster's effect at the moment it goes
// active.
func (c *City) applyDisasterImpact(stats *Stats, tick uint64) {
	d := c.Disaster
	switch d.Kind {
	case DisasterMeteor:
		// Impact clears a 3x3 area back to empty land; water stays water.
		cleared := 0
		for y := d.Y - 1; y <= d.Y+1; y++ {
			for x := d.X - 1; x <= d.X+1; x++ {
				t := c.Grid.At(x, y)
				if t == nil || t.Building == catalog.Water {
					continue
				}
				if t.Building != catalog.None {
					cleared++
				}
				t.Building = catalog.None
				t.PlacedBy = ""
				t.Pollution += 20
			}
		}
		c.emit(Event{
			Tick:        tick,
			Description: fmt.Sprintf("Meteor impact at (%d, %d): %d structures destroyed", d.X, d.Y, cleared),
			Category:    "disaster",
		})
	case DisasterAlien:
		abducted := stats.Demographics.Adults / 20
		if abducted > 5 {
			abducted = 5
		}
		stats.Demographics.Adults -= abducted
		c.emit(Event{
			Tick:        tick,
			Description: fmt.Sprintf("Strange lights overhead: %d residents unaccounted for", abducted),
			Category:    "disaster",
		})
	case DisasterSolarFlare:
		// Grid interference: a happiness shock, nothing structural.
		stats.Happiness = clampGauge(float64(stats.Happiness) - 10)
		c.emit(Event{
			Tick:        tick,
			Description: "A solar flare disrupts the power grid",
			Category:    "disaster",
		})
	}
}

// TakeWeirdEventRequest reports and clears the pending weird-event flag.
// Called by the agent loop on its own cadence.
func (c *City) TakeWeirdEventRequest() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.weirdPending {
		return false
	}
	c.weirdPending = false
	return true
}

// Environment stepping — wind random walk and per-tile pollution
// generation, decay, and wind-driven advection. Runs before the economic
// step each tick because the pollution gauge it produces feeds that step's
// happiness penalty.
package sim

import (
	"math"

	"github.com/talgya/cityforge/internal/catalog"
)

const pollutionCap = 100

// stepEnvironment advances wind and pollution. Caller holds the mutex.
func (c *City) stepEnvironment(stats *Stats) {
	c.stepWind(stats)

	g := c.Grid

	// Generation and decay, in place. Advection needs a snapshot of the
	// post-decay field, so it runs on a separate pass below.
	for y := 0; y < g.H; y++ {
		for x := 0; x < g.W; x++ {
			t := &g.Tiles[y][x]

			if coeff := catalog.Lookup(t.Building).Pollution; coeff > 0 {
				t.Pollution += coeff * c.Tuning.PollutionGenRate
				if t.Pollution > pollutionCap {
					t.Pollution = pollutionCap
				}
			}

			t.Pollution *= retention(t.Building)
		}
	}

	// Advection: each tile pushes a wind-speed-proportional fraction to
	// its single nearest downwind neighbor. Computed into a fresh field
	// from the frozen post-decay values; mass pushed off-grid is lost.
	dx := int(math.Round(stats.WindX))
	dy := int(math.Round(stats.WindY))
	moved := c.Tuning.AdvectionFraction * stats.WindSpeed
	if (dx != 0 || dy != 0) && moved > 0 {
		next := make([]float64, g.W*g.H)
		for y := 0; y < g.H; y++ {
			for x := 0; x < g.W; x++ {
				p := g.Tiles[y][x].Pollution
				keep := p * (1 - moved)
				next[y*g.W+x] += keep
				nx, ny := x+dx, y+dy
				if g.InBounds(nx, ny) {
					next[ny*g.W+nx] += p * moved
				}
			}
		}
		for y := 0; y < g.H; y++ {
			for x := 0; x < g.W; x++ {
				g.Tiles[y][x].Pollution = next[y*g.W+x]
			}
		}
	}

	// Floor sub-threshold residues so the field settles at zero instead
	// of drifting in tiny fractions forever.
	total := 0.0
	for y := 0; y < g.H; y++ {
		for x := 0; x < g.W; x++ {
			t := &g.Tiles[y][x]
			if t.Pollution < 0.5 {
				t.Pollution = 0
			}
			if t.Pollution > pollutionCap {
				t.Pollution = pollutionCap
			}
			total += t.Pollution
		}
	}

	// City gauge: area mean scaled onto a readable 0-100 band. The scale
	// factor is a tunable, not a physical constant.
	mean := total / float64(g.W*g.H)
	stats.PollutionLevel = clampGauge(mean * c.Tuning.PollutionScale)
}

// retention is the per-tick pollution survival factor. Parks scrub
// hardest; water holds pollution longest.
func retention(b catalog.Building) float64 {
	switch b {
	case catalog.Park:
		return 0.5
	case catalog.Water:
		return 0.97
	default:
		return 0.85
	}
}

// stepWind applies the wind random walk: most ticks nothing changes; with
// a small probability the heading rotates by a bounded angle and the speed
// jitters within [0.1, 1.0].
func (c *City) stepWind(stats *Stats) {
	if c.rng.Float64() >= c.Tuning.WindChangeChance {
		return
	}

	angle := math.Atan2(stats.WindY, stats.WindX)
	angle += (c.rng.Float64() - 0.5) * math.Pi / 2
	stats.WindX = math.Cos(angle)
	stats.WindY = math.Sin(angle)

	stats.WindSpeed += (c.rng.Float64() - 0.5) * 0.2
	if stats.WindSpeed < 0.1 {
		stats.WindSpeed = 0.1
	}
	if stats.WindSpeed > 1.0 {
		stats.WindSpeed = 1.0
	}
}

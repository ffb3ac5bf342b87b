// Package mayor implements the autonomous city advisor.
// It observes the city state, decides on a policy action via Haiku,
// and acts through the same validated paths a human player uses.
package mayor

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/talgya/cityforge/internal/catalog"
	"github.com/talgya/cityforge/internal/grid"
	"github.com/talgya/cityforge/internal/sim"
)

// maxLegalMoves caps how many candidate placements go into the prompt.
const maxLegalMoves = 12

// CitySnapshot holds all data collected during an observation cycle.
type CitySnapshot struct {
	Grid   *grid.Grid
	Stats  sim.Stats
	Events []sim.Event
	Goal   *sim.AIGoal

	// Candidate placements that already pass validation, so the model
	// starts from moves the simulation will accept.
	LegalMoves []LegalMove
}

// LegalMove is one pre-validated placement option.
type LegalMove struct {
	Building string
	X, Y     int
	Cost     int
}

// Observe takes a consistent snapshot of the city for the decision prompt.
// Tiles held in the failure memory are left out of the candidate moves; a
// nil memory skips that filter.
func Observe(c *sim.City, mem *FailureMemory) *CitySnapshot {
	g, stats := c.Snapshot()
	snap := &CitySnapshot{
		Grid:   g,
		Stats:  stats,
		Events: c.RecentEvents(10),
		Goal:   c.CurrentGoal(),
	}
	snap.LegalMoves = sampleLegalMoves(c, g, stats, mem)
	return snap
}

// sampleLegalMoves visits the unlocked tiles in shuffled order and collects
// placements the validator accepts, round-robining across affordable
// building types so the list is not all one kind. Remembered failure
// tiles are skipped outright.
func sampleLegalMoves(c *sim.City, g *grid.Grid, stats sim.Stats, mem *FailureMemory) []LegalMove {
	types := catalog.Affordable(stats.Money)
	if len(types) == 0 {
		return nil
	}
	area := g.UnlockedRect(stats.Demographics.Total())

	coords := make([][2]int, 0, (area.X1-area.X0+1)*(area.Y1-area.Y0+1))
	for y := area.Y0; y <= area.Y1; y++ {
		for x := area.X0; x <= area.X1; x++ {
			coords = append(coords, [2]int{x, y})
		}
	}
	rand.Shuffle(len(coords), func(i, j int) { coords[i], coords[j] = coords[j], coords[i] })

	var moves []LegalMove
	ti := 0
	for _, xy := range coords {
		if len(moves) >= maxLegalMoves {
			break
		}
		x, y := xy[0], xy[1]
		if mem != nil && mem.Blocked(x, y) {
			continue
		}
		b := types[ti%len(types)]
		cost, err := c.Validate(sim.Action{Building: b, X: x, Y: y})
		if err != nil {
			continue
		}
		moves = append(moves, LegalMove{
			Building: catalog.Name(b),
			X:        x,
			Y:        y,
			Cost:     cost,
		})
		ti++
	}
	return moves
}

// formatSnapshot builds a concise prompt from the city snapshot.
func formatSnapshot(snap *CitySnapshot) string {
	var b strings.Builder
	s := snap.Stats

	fmt.Fprintf(&b, "## City State (day %d)\n", s.Day)
	fmt.Fprintf(&b, "Treasury: %s | Tax rate: %.0f%% | Loan principal: %s\n",
		humanize.Comma(int64(s.Money)), s.TaxRate*100, humanize.Comma(int64(s.LoanPrincipal)))
	fmt.Fprintf(&b, "Population: %d (children %d, adults %d, seniors %d) | Housing: %d\n",
		s.Demographics.Total(), s.Demographics.Children, s.Demographics.Adults,
		s.Demographics.Seniors, s.Housing)
	fmt.Fprintf(&b, "Jobs: %d | Unemployment: %d\n", s.Jobs.Total, s.Jobs.Unemployment)
	fmt.Fprintf(&b, "Happiness: %d | Safety: %d | Education: %d | Pollution: %d\n",
		s.Happiness, s.Safety, s.Education, s.PollutionLevel)
	fmt.Fprintf(&b, "Crime rate: %.1f | Shadow economy: %.0f%% | Supply: %.0f%%\n",
		s.CrimeRate, s.ShadowEconomy*100, s.SupplyLevel*100)
	fmt.Fprintf(&b, "Last budget: income %s, expenses %s\n",
		humanize.Comma(int64(s.Budget.Income)), humanize.Comma(int64(s.Budget.Expenses)))
	if s.ActiveEvent != sim.EventNone {
		fmt.Fprintf(&b, "Active event: %s (%d days left)\n", s.ActiveEvent, s.EventDuration)
	}
	fmt.Fprintf(&b, "Share price: %.2f | Shares held: %d\n\n", s.SharePrice, s.Shares)

	if snap.Goal != nil && !snap.Goal.Completed {
		fmt.Fprintf(&b, "## Current Goal\n%s (reward %d)\n\n", snap.Goal.Description, snap.Goal.Reward)
	}

	if len(snap.Events) > 0 {
		b.WriteString("## Recent Events\n")
		for _, e := range snap.Events {
			fmt.Fprintf(&b, "- Day %d [%s]: %s\n", e.Tick, e.Category, e.Description)
		}
		b.WriteString("\n")
	}

	if len(snap.LegalMoves) > 0 {
		b.WriteString("## Valid Placements (all pre-checked, pick from these for build actions)\n")
		for _, m := range snap.LegalMoves {
			fmt.Fprintf(&b, "- %s at (%d, %d), cost %d\n", m.Building, m.X, m.Y, m.Cost)
		}
		b.WriteString("\n")
	}

	return b.String()
}

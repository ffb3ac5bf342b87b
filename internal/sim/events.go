// Macro-economic event lifecycle and the share price random walk.
package sim

import "fmt"

// stepMacroEvent decays the active event's countdown and, when the city is
// quiet, rolls for a new one. Weights shift with circumstances: strikes
// when the city is unhappy, audits when the treasury is fat, and a
// vanishingly rare exodus.
func (c *City) stepMacroEvent(stats *Stats, tick uint64) {
	if stats.ActiveEvent != EventNone {
		stats.EventDuration--
		if stats.EventDuration <= 0 {
			c.emit(Event{
				Tick:        tick,
				Description: fmt.Sprintf("The %s has ended", stats.ActiveEvent),
				Category:    "economy",
			})
			stats.ActiveEvent = EventNone
			stats.EventDuration = 0
		}
		return
	}

	if c.rng.Float64() >= c.Tuning.EventChance {
		return
	}

	type candidate struct {
		kind     EventKind
		weight   float64
		duration int
		desc     string
	}
	candidates := []candidate{
		{EventBoom, 30, 7, "An economic boom sweeps the city"},
		{EventRecession, 30, 7, "A recession grips local businesses"},
		{EventFestival, 10, 3, "A city festival begins"},
		{EventExodus, 1, 5, "Residents are fleeing the city en masse"},
	}
	strikeWeight := 2.0
	if stats.Happiness < 40 {
		strikeWeight = 20
	}
	candidates = append(candidates, candidate{EventStrike, strikeWeight, 5, "Workers have gone on strike"})
	auditWeight := 2.0
	if stats.Money > 10000 {
		auditWeight = 15
	}
	candidates = append(candidates, candidate{EventAudit, auditWeight, 4, "Federal auditors arrive at city hall"})

	total := 0.0
	for _, cd := range candidates {
		total += cd.weight
	}
	roll := c.rng.Float64() * total
	for _, cd := range candidates {
		roll -= cd.weight
		if roll > 0 {
			continue
		}
		stats.ActiveEvent = cd.kind
		stats.EventDuration = cd.duration
		c.emit(Event{Tick: tick, Description: cd.desc, Category: "economy"})

		// Exodus is a demographic shock, not just a multiplier.
		if cd.kind == EventExodus {
			d := &stats.Demographics
			d.Adults -= d.Adults / 5
			d.Children -= d.Children / 5
		}
		return
	}
}

// eventSupplyTarget is the supply level an active event drags the city
// toward. Strikes choke distribution hardest; quiet periods recover to
// full supply.
func eventSupplyTarget(e EventKind) float64 {
	switch e {
	case EventStrike:
		return 0.5
	case EventRecession:
		return 0.7
	case EventExodus:
		return 0.8
	default:
		return 1.0
	}
}

// stepSupply drifts SupplyLevel toward the active event's target, 0.1
// per day in either direction.
func stepSupply(stats *Stats) {
	const rate = 0.1
	target := eventSupplyTarget(stats.ActiveEvent)
	switch {
	case stats.SupplyLevel > target:
		stats.SupplyLevel -= rate
		if stats.SupplyLevel < target {
			stats.SupplyLevel = target
		}
	case stats.SupplyLevel < target:
		stats.SupplyLevel += rate
		if stats.SupplyLevel > target {
			stats.SupplyLevel = target
		}
	}
}

// eventRevenueMultiplier scales tax and business revenue while an event
// is active.
func eventRevenueMultiplier(e EventKind) float64 {
	switch e {
	case EventBoom:
		return 1.3
	case EventRecession:
		return 0.7
	case EventStrike:
		return 0.5
	case EventAudit:
		return 0.9
	case EventExodus:
		return 0.6
	default:
		return 1.0
	}
}

// eventHappinessDelta is the flat happiness shift an active event applies.
func eventHappinessDelta(e EventKind) float64 {
	switch e {
	case EventBoom:
		return 5
	case EventRecession:
		return -5
	case EventStrike:
		return -15
	case EventAudit:
		return -5
	case EventFestival:
		return 10
	case EventExodus:
		return -30
	default:
		return 0
	}
}

// stepSharePrice advances the city share price by a geometric random walk
// with an event-keyed trend, floored at 1.
func (c *City) stepSharePrice(stats *Stats) {
	trend := 1.0
	switch stats.ActiveEvent {
	case EventBoom:
		trend = 1.02
	case EventRecession, EventExodus:
		trend = 0.98
	}
	stats.SharePrice *= (1 + (c.rng.Float64()-0.5)*0.1) * trend
	if stats.SharePrice < 1 {
		stats.SharePrice = 1
	}
}

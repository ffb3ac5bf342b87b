// Economic and demographic stepping — census, cohort transitions, jobs,
// taxation, macro events, share price, expenses, debt service, and the
// happiness composition.
package sim

import (
	"fmt"
	"math"

	"github.com/talgya/cityforge/internal/catalog"
)

// census is the single-pass tally over the grid consumed by every later
// phase of the economic step.
type census struct {
	schools, hospitals, police, parks, stadiums int

	housing        int
	crimeSum       float64
	commercialJobs int
	industrialJobs int

	buildingIncome int // Daily income, halved for road-disconnected buildings
	upkeep         int
	disconnected   int // Occupied non-road buildings without road access

	residentialTiles     int
	residentialPollution float64
}

// takeCensus performs the one grid pass of the economic step.
func (c *City) takeCensus() census {
	var cs census
	g := c.Grid
	for y := 0; y < g.H; y++ {
		for x := 0; x < g.W; x++ {
			t := &g.Tiles[y][x]
			b := t.Building
			if !catalog.Buildable(b) {
				continue
			}
			cfg := catalog.Lookup(b)

			cs.housing += cfg.Housing
			cs.crimeSum += cfg.Crime
			cs.upkeep += cfg.Upkeep

			switch b {
			case catalog.School:
				cs.schools++
			case catalog.Hospital:
				cs.hospitals++
			case catalog.PoliceStation:
				cs.police++
			case catalog.Park:
				cs.parks++
			case catalog.Stadium:
				cs.stadiums++
			case catalog.Commercial:
				cs.commercialJobs += cfg.Jobs
			case catalog.Industrial:
				cs.industrialJobs += cfg.Jobs
			case catalog.Residential:
				cs.residentialTiles++
				cs.residentialPollution += t.Pollution
			}

			// Buildings cut off from the road network earn half income
			// and count toward the disconnection happiness penalty.
			income := cfg.Income
			if b != catalog.Road && b != catalog.Bridge {
				if !t.HasRoadAccess {
					income /= 2
					cs.disconnected++
				}
			}
			cs.buildingIncome += income
		}
	}
	return cs
}

// stepEconomy runs the ordered economic sub-phases. Caller holds the mutex.
func (c *City) stepEconomy(stats *Stats, tick uint64) {
	cs := c.takeCensus()

	// Derived gauges.
	stats.Housing = cs.housing
	stats.CrimeRate = math.Max(0, cs.crimeSum)
	stats.Education = clampGauge(float64(cs.schools) * 25)
	stats.Safety = clampGauge(100 - stats.CrimeRate*2)
	stats.Security = clampGauge(100 - stats.CrimeRate)

	c.stepDemographics(stats, cs, tick)

	// Jobs and welfare.
	stats.Jobs = Jobs{
		Commercial: cs.commercialJobs,
		Industrial: cs.industrialJobs,
		Total:      cs.commercialJobs + cs.industrialJobs,
	}
	if u := stats.Demographics.Adults - stats.Jobs.Total; u > 0 {
		stats.Jobs.Unemployment = u
	}
	welfare := stats.Jobs.Unemployment * c.Tuning.WelfarePerHead

	c.stepMacroEvent(stats, tick)
	stepSupply(stats)
	c.stepSharePrice(stats)

	// Revenue. The shadow economy shelters activity from taxation; supply
	// shortages depress business output; the active event multiplies both.
	eventMult := eventRevenueMultiplier(stats.ActiveEvent)
	taxEfficiency := 1 - stats.ShadowEconomy*0.5
	supplyPenalty := 0.5 + stats.SupplyLevel*0.5

	adults := stats.Demographics.Adults
	taxRevenue := int(math.Floor(float64(adults) * c.Tuning.PerCapitaTax * stats.TaxRate * taxEfficiency * eventMult))
	workers := stats.Jobs.Total
	if adults < workers {
		workers = adults
	}
	businessRevenue := int(math.Floor(float64(workers) * c.Tuning.PerJobRevenue * stats.TaxRate * supplyPenalty * eventMult))

	// Crime past the threshold steals directly from the treasury.
	theft := 0
	if stats.CrimeRate > c.Tuning.CrimeTheftAt {
		theft = int(math.Floor((stats.CrimeRate - c.Tuning.CrimeTheftAt) * 5))
	}

	// Expenses: upkeep, superlinear bureaucracy, welfare, theft, festival.
	population := stats.Demographics.Total()
	bureaucracy := int(math.Floor(math.Pow(float64(population), 1.1) * c.Tuning.BureaucracyK))
	festival := 0
	if stats.ActiveEvent == EventFestival {
		festival = population
	}

	// Loan interest accrues daily on the outstanding principal.
	interest := int(math.Floor(float64(stats.LoanPrincipal) * stats.LoanRate / 30))

	income := cs.buildingIncome + taxRevenue + businessRevenue
	expenses := cs.upkeep + bureaucracy + welfare + theft + festival + interest

	stats.Money += income - expenses
	stats.Budget = Budget{
		Income:   income,
		Expenses: expenses,
		Details: map[string]int{
			"buildings":   cs.buildingIncome,
			"tax":         taxRevenue,
			"business":    businessRevenue,
			"upkeep":      cs.upkeep,
			"bureaucracy": bureaucracy,
			"welfare":     welfare,
			"theft":       theft,
			"festival":    festival,
			"interest":    interest,
		},
	}

	// Debt spiral: a deficit compounds through a penalty charge and a
	// happiness hit. There is no automatic recovery — only player or
	// mayor intervention breaks the loop.
	debtPenalty := 0
	if stats.Money < 0 {
		debtPenalty = -stats.Money / 100
		if debtPenalty < 1 {
			debtPenalty = 1
		}
		stats.Money -= debtPenalty
		stats.Budget.Details["debt_penalty"] = debtPenalty
	}

	c.stepHappiness(stats, cs, debtPenalty > 0)
	c.stepShadowEconomy(stats)
}

// stepDemographics runs the age-cohort transition. Every transition is
// floor(count x probability): fractional people never materialize, which
// deliberately damps growth at small populations.
func (c *City) stepDemographics(stats *Stats, cs census, tick uint64) {
	d := &stats.Demographics
	pop := d.Total()

	if pop < cs.housing {
		// Births scale with the adult cohort and current happiness.
		births := int(math.Floor(float64(d.Adults) * c.Tuning.BirthRate * float64(stats.Happiness) / 100))
		d.Children += births

		// Threshold immigration seeds small cities.
		immigrants := 0
		switch {
		case pop < 10:
			immigrants = 2
		case pop < 50:
			immigrants = 1
		}
		// Never move more people in than the remaining housing holds.
		if room := cs.housing - d.Total(); immigrants > room {
			immigrants = room
		}
		if immigrants > 0 {
			d.Adults += immigrants
			c.emit(Event{
				Tick:        tick,
				Description: fmt.Sprintf("%d newcomers move into the city", immigrants),
				Category:    "population",
			})
		}
	}

	// Children age into adults faster with school coverage.
	schoolCoverage := float64(cs.schools) / (float64(d.Children)/100 + 1)
	if schoolCoverage > 1 {
		schoolCoverage = 1
	}
	aging := int(math.Floor(float64(d.Children) * (c.Tuning.ChildAgeRate + schoolCoverage*0.05)))
	d.Children -= aging
	d.Adults += aging

	retiring := int(math.Floor(float64(d.Adults) * c.Tuning.SeniorAgeRate))
	d.Adults -= retiring
	d.Seniors += retiring

	// Senior mortality: hospitals extend life, rampant crime shortens it.
	hospitalCoverage := float64(cs.hospitals) / (float64(d.Seniors)/100 + 1)
	if hospitalCoverage > 1 {
		hospitalCoverage = 1
	}
	deathRate := c.Tuning.SeniorDeathRate - hospitalCoverage*0.02
	if stats.CrimeRate > 50 {
		deathRate += 0.02
	}
	if deathRate < 0.005 {
		deathRate = 0.005
	}
	deaths := int(math.Floor(float64(d.Seniors) * deathRate))
	d.Seniors -= deaths
	if deaths > 0 {
		c.emit(Event{
			Tick:        tick,
			Description: fmt.Sprintf("%d residents passed away", deaths),
			Category:    "population",
		})
	}
}

// stepHappiness composes the happiness gauge from scratch each tick.
func (c *City) stepHappiness(stats *Stats, cs census, inDebt bool) {
	h := 100.0

	// Taxation bites hard and linearly.
	h -= stats.TaxRate * 200

	parkBonus := float64(cs.parks) * 3
	if parkBonus > 15 {
		parkBonus = 15
	}
	h += parkBonus

	if float64(stats.PollutionLevel) > 30 {
		h -= (float64(stats.PollutionLevel) - 30) * 0.5
	}
	// Local exposure on residential tiles matters more than the city
	// average.
	if cs.residentialTiles > 0 {
		local := cs.residentialPollution / float64(cs.residentialTiles)
		if local > 20 {
			h -= local - 20
		}
	}

	// Unemployment, damped by the shadow economy absorbing idle labor.
	if adults := stats.Demographics.Adults; adults > 0 {
		ratio := float64(stats.Jobs.Unemployment) / float64(adults+1)
		h -= ratio * 40 * (1 - stats.ShadowEconomy*0.5)
	}

	h -= (1 - stats.SupplyLevel) * 20

	roadPenalty := float64(cs.disconnected) * 2
	if roadPenalty > 20 {
		roadPenalty = 20
	}
	h -= roadPenalty

	h += eventHappinessDelta(stats.ActiveEvent)
	h -= stats.CrimeRate * 0.3

	if inDebt {
		h -= 10
	}

	stats.Happiness = clampGauge(math.Floor(h))
}

// stepShadowEconomy drifts the untaxed share of the economy: heavy taxes
// and unemployment push activity underground, prosperity pulls it back.
func (c *City) stepShadowEconomy(stats *Stats) {
	drift := 0.0
	if stats.TaxRate > 0.15 {
		drift += (stats.TaxRate - 0.15) * 0.02
	}
	if adults := stats.Demographics.Adults; adults > 0 {
		drift += float64(stats.Jobs.Unemployment) / float64(adults+1) * 0.005
	}
	if stats.Happiness > 70 {
		drift -= 0.005
	}
	stats.ShadowEconomy += drift
	if stats.ShadowEconomy < 0 {
		stats.ShadowEconomy = 0
	}
	if stats.ShadowEconomy > 0.8 {
		stats.ShadowEconomy = 0.8
	}
}

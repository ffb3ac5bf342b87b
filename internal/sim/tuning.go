// Package sim implements the deterministic city state machine: the action
// validator gating all grid mutations, the per-tick environment stepper,
// and the economic/demographic simulator.
package sim

// Tuning holds the adjustable simulation constants. Defaults match the
// shipped balance; a YAML tuning file may override any field.
type Tuning struct {
	// Environment.
	WindChangeChance  float64 `yaml:"wind_change_chance"` // Per-tick chance the wind shifts
	PollutionGenRate  float64 `yaml:"pollution_gen_rate"` // Multiplier on catalog pollution coefficients
	PollutionScale    float64 `yaml:"pollution_scale"`    // City-gauge normalization multiplier
	AdvectionFraction float64 `yaml:"advection_fraction"` // Share of tile pollution moved per unit wind speed

	// Demographics.
	BirthRate       float64 `yaml:"birth_rate"`      // Per-adult daily birth probability at full happiness
	ChildAgeRate    float64 `yaml:"child_age_rate"`  // Base children to adults transition rate
	SeniorAgeRate   float64 `yaml:"senior_age_rate"` // Adults to seniors transition rate
	SeniorDeathRate float64 `yaml:"senior_death_rate"`

	// Economy.
	PerCapitaTax   float64 `yaml:"per_capita_tax"`  // Taxable output per adult per day
	PerJobRevenue  float64 `yaml:"per_job_revenue"` // Business output per filled job per day
	BureaucracyK   float64 `yaml:"bureaucracy_k"`   // Superlinear overhead coefficient
	WelfarePerHead int     `yaml:"welfare_per_head"`
	CrimeTheftAt   float64 `yaml:"crime_theft_at"` // Crime rate above which theft drains the treasury
	EventChance    float64 `yaml:"event_chance"`   // Per-day chance a macro event starts

	// Disasters.
	DisasterChance float64 `yaml:"disaster_chance"` // Per-day chance a disaster spawns
	WeirdChance    float64 `yaml:"weird_chance"`    // Per-day chance of a narrated weird event
}

// DefaultTuning returns the shipped balance constants.
func DefaultTuning() Tuning {
	return Tuning{
		WindChangeChance:  0.1,
		PollutionGenRate:  2.0,
		PollutionScale:    5.0,
		AdvectionFraction: 0.2,

		BirthRate:       0.02,
		ChildAgeRate:    0.05,
		SeniorAgeRate:   0.01,
		SeniorDeathRate: 0.04,

		PerCapitaTax:   10,
		PerJobRevenue:  20,
		BureaucracyK:   0.1,
		WelfarePerHead: 2,
		CrimeTheftAt:   30,
		EventChance:    0.04,

		DisasterChance: 0.002,
		WeirdChance:    0.005,
	}
}

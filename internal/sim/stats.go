package sim

// Demographics is the age-cohort breakdown of the population.
type Demographics struct {
	Children int `json:"children"`
	Adults   int `json:"adults"`
	Seniors  int `json:"seniors"`
}

// Total returns the whole population.
func (d Demographics) Total() int {
	return d.Children + d.Adults + d.Seniors
}

// Jobs tracks job slots and unemployment.
type Jobs struct {
	Commercial   int `json:"commercial"`
	Industrial   int `json:"industrial"`
	Total        int `json:"total"`
	Unemployment int `json:"unemployment"`
}

// Budget is the last tick's income/expense ledger.
type Budget struct {
	Income   int            `json:"income"`
	Expenses int            `json:"expenses"`
	Details  map[string]int `json:"details"`
}

// EventKind identifies the active macro-economic event.
type EventKind uint8

const (
	EventNone EventKind = iota
	EventBoom
	EventRecession
	EventStrike
	EventAudit
	EventFestival
	EventExodus
)

// String returns the event name for logging and API payloads.
func (e EventKind) String() string {
	switch e {
	case EventBoom:
		return "boom"
	case EventRecession:
		return "recession"
	case EventStrike:
		return "strike"
	case EventAudit:
		return "audit"
	case EventFestival:
		return "festival"
	case EventExodus:
		return "exodus"
	}
	return "none"
}

// Stats is the aggregate city record. It is replaced wholesale each tick:
// a step reads the previous value and publishes a new one, never mutating
// a record two writers can observe.
type Stats struct {
	Money int    `json:"money"`
	Day   uint64 `json:"day"`

	Demographics Demographics `json:"demographics"`
	Housing      int          `json:"housing"`
	Jobs         Jobs         `json:"jobs"`

	TaxRate float64 `json:"tax_rate"`

	// Gauges, displayed on a 0-100 scale.
	Happiness      int     `json:"happiness"`
	Education      int     `json:"education"`
	Safety         int     `json:"safety"`
	CrimeRate      float64 `json:"crime_rate"`
	Security       int     `json:"security"`
	PollutionLevel int     `json:"pollution_level"`

	Budget Budget `json:"budget"`

	// Macro economy.
	ShadowEconomy float64 `json:"shadow_economy"` // 0..1 share of untaxed activity
	SupplyLevel   float64 `json:"supply_level"`   // 0..1, 1 = fully supplied
	LoanPrincipal int     `json:"loan_principal"`
	LoanRate      float64 `json:"loan_rate"`

	ActiveEvent   EventKind `json:"active_event"`
	EventDuration int       `json:"event_duration"` // Days remaining

	SharePrice   float64 `json:"share_price"`
	Shares       int     `json:"shares"`
	ShareAvgCost float64 `json:"share_avg_cost"`

	// Environment.
	WindX     float64 `json:"wind_x"`
	WindY     float64 `json:"wind_y"`
	WindSpeed float64 `json:"wind_speed"`
}

// InitialStats returns the day-zero city record.
func InitialStats() Stats {
	return Stats{
		Money:       2000,
		TaxRate:     0.10,
		Happiness:   100,
		Education:   0,
		Safety:      100,
		Security:    100,
		SupplyLevel: 1.0,
		LoanRate:    0.05,
		SharePrice:  100,
		WindX:       1,
		WindY:       0,
		WindSpeed:   0.3,
		Budget:      Budget{Details: map[string]int{}},
	}
}

// AIGoal is a target set by the advisory proposer. The simulation only
// flips Completed when the target is met; everything else is read-only.
type AIGoal struct {
	Description  string `json:"description"`
	TargetType   string `json:"target_type"` // population | money | building_count
	TargetValue  int    `json:"target_value"`
	BuildingType string `json:"building_type,omitempty"`
	Reward       int    `json:"reward"`
	Completed    bool   `json:"completed"`
}

func clampGauge(v float64) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return int(v)
}

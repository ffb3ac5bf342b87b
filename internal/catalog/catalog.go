// Package catalog holds the static building reference data: costs, income,
// housing capacity, job slots, and the crime/pollution coefficients each
// building contributes to the city.
package catalog

// Building identifies what occupies a tile.
type Building uint8

const (
	None Building = iota
	Water
	Road
	Bridge
	Residential
	Commercial
	Industrial
	Park
	School
	Hospital
	PoliceStation
	FireStation
	PowerPlant
	Stadium
)

// Config is one immutable catalog row.
type Config struct {
	Name       string
	Cost       int
	Income     int     // Income generated per day when road-connected
	Housing    int     // Housing capacity contributed
	Jobs       int     // Job slots (commercial/industrial only)
	Crime      float64 // Per-day contribution to the city crime rate (negative = deterrence)
	Pollution  float64 // Per-day pollution generation coefficient
	Upkeep     int     // Daily maintenance cost
	MaxAllowed int     // 0 = unlimited
}

// DemolishCost is the flat fee for clearing a tile. Charged even at
// negative balance — demolition is never gated on affordability.
const DemolishCost = 10

var configs = map[Building]Config{
	Road:          {Name: "road", Cost: 20, Upkeep: 1},
	Bridge:        {Name: "bridge", Cost: 100, Upkeep: 2},
	Residential:   {Name: "residential", Cost: 200, Housing: 10, Crime: 0.5, Pollution: 0.2, Upkeep: 2},
	Commercial:    {Name: "commercial", Cost: 400, Income: 50, Jobs: 5, Crime: 1, Pollution: 1, Upkeep: 10},
	Industrial:    {Name: "industrial", Cost: 600, Income: 100, Jobs: 8, Crime: 2, Pollution: 5, Upkeep: 15},
	Park:          {Name: "park", Cost: 100, Crime: -0.5, Upkeep: 3},
	School:        {Name: "school", Cost: 500, Upkeep: 30},
	Hospital:      {Name: "hospital", Cost: 800, Upkeep: 40},
	PoliceStation: {Name: "police", Cost: 600, Crime: -10, Upkeep: 30},
	FireStation:   {Name: "fire_station", Cost: 500, Upkeep: 25},
	PowerPlant:    {Name: "power_plant", Cost: 1500, Income: 30, Pollution: 15, Upkeep: 20, MaxAllowed: 3},
	Stadium:       {Name: "stadium", Cost: 2000, Income: 80, Crime: 1, Upkeep: 50, MaxAllowed: 1},
}

// Lookup returns the catalog row for a building type.
// Terrain values (None, Water) have a zero row.
func Lookup(b Building) Config {
	return configs[b]
}

// Buildable reports whether b is something a player can place.
func Buildable(b Building) bool {
	_, ok := configs[b]
	return ok
}

// Name returns the catalog name for a building, or "empty"/"water" for terrain.
func Name(b Building) string {
	switch b {
	case None:
		return "empty"
	case Water:
		return "water"
	}
	return configs[b].Name
}

// FromName maps a catalog name back to its building type.
func FromName(name string) (Building, bool) {
	for b, c := range configs {
		if c.Name == name {
			return b, true
		}
	}
	return None, false
}

// All returns every buildable type in a stable order.
func All() []Building {
	return []Building{
		Road, Bridge, Residential, Commercial, Industrial, Park,
		School, Hospital, PoliceStation, FireStation, PowerPlant, Stadium,
	}
}

// Affordable returns the buildable types whose cost fits within money.
func Affordable(money int) []Building {
	var out []Building
	for _, b := range All() {
		if configs[b].Cost <= money {
			out = append(out, b)
		}
	}
	return out
}

// Zstd-compressed JSON snapshots for export, backup, and transfer between
// servers. The SQLite database stays the live save; snapshots are the
// portable format.
package persistence

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/talgya/cityforge/internal/grid"
	"github.com/talgya/cityforge/internal/sim"
)

// snapshotVersion guards against loading a snapshot written by an
// incompatible build.
const snapshotVersion = 1

// CitySnapshot is the on-disk snapshot layout.
type CitySnapshot struct {
	Version int         `json:"version"`
	SavedAt time.Time   `json:"saved_at"`
	Tick    uint64      `json:"tick"`
	Grid    *grid.Grid  `json:"grid"`
	Stats   sim.Stats   `json:"stats"`
	Goal    *sim.AIGoal `json:"goal,omitempty"`
	Events  []sim.Event `json:"events,omitempty"`
}

// WriteSnapshot exports the city to a zstd-compressed JSON file.
func WriteSnapshot(path string, c *sim.City, tick uint64) error {
	g, stats := c.Snapshot()
	snap := CitySnapshot{
		Version: snapshotVersion,
		SavedAt: time.Now().UTC(),
		Tick:    tick,
		Grid:    g,
		Stats:   stats,
		Goal:    c.CurrentGoal(),
		Events:  c.RecentEvents(200),
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return fmt.Errorf("zstd writer: %w", err)
	}

	if err := json.NewEncoder(enc).Encode(&snap); err != nil {
		enc.Close()
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("flush snapshot: %w", err)
	}
	return nil
}

// ReadSnapshot loads a snapshot file written by WriteSnapshot. Road access
// is derived state and is refreshed on load.
func ReadSnapshot(path string) (*CitySnapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("zstd reader: %w", err)
	}
	defer dec.Close()

	var snap CitySnapshot
	if err := json.NewDecoder(dec).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if snap.Version != snapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d", snap.Version)
	}
	if snap.Grid == nil {
		return nil, fmt.Errorf("snapshot has no grid")
	}
	if snap.Stats.Budget.Details == nil {
		snap.Stats.Budget.Details = map[string]int{}
	}

	snap.Grid.RefreshRoadAccess()
	return &snap, nil
}

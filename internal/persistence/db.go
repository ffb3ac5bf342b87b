// Package persistence provides SQLite-based city state storage.
package persistence

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/cityforge/internal/catalog"
	"github.com/talgya/cityforge/internal/grid"
	"github.com/talgya/cityforge/internal/sim"
)

// ErrNoSave marks a database with no saved city.
var ErrNoSave = errors.New("no saved city")

// DB wraps a SQLite connection for city state persistence.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS tiles (
		x INTEGER NOT NULL,
		y INTEGER NOT NULL,
		building INTEGER NOT NULL,
		pollution REAL NOT NULL,
		placed_by TEXT NOT NULL,
		placed_tick INTEGER NOT NULL,
		PRIMARY KEY (x, y)
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		tick INTEGER NOT NULL,
		description TEXT NOT NULL,
		category TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS city_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_tick ON events(tick);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SaveGrid writes every tile to the database (full replace).
func (db *DB) SaveGrid(g *grid.Grid) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM tiles"); err != nil {
		return err
	}

	stmt, err := tx.Preparex(`INSERT INTO tiles
		(x, y, building, pollution, placed_by, placed_tick)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for y := 0; y < g.H; y++ {
		for x := 0; x < g.W; x++ {
			t := &g.Tiles[y][x]
			_, err := stmt.Exec(x, y, int(t.Building), t.Pollution, t.PlacedBy, t.PlacedTick)
			if err != nil {
				return fmt.Errorf("insert tile (%d, %d): %w", x, y, err)
			}
		}
	}

	if _, err := tx.Exec(
		"INSERT OR REPLACE INTO city_meta (key, value) VALUES ('grid_w', ?), ('grid_h', ?)",
		strconv.Itoa(g.W), strconv.Itoa(g.H),
	); err != nil {
		return err
	}

	return tx.Commit()
}

// LoadGrid reconstructs the grid from saved tiles. Road access is derived,
// not stored, so it is refreshed after loading.
func (db *DB) LoadGrid() (*grid.Grid, error) {
	wStr, err := db.GetMeta("grid_w")
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSave
	}
	if err != nil {
		return nil, err
	}
	hStr, err := db.GetMeta("grid_h")
	if err != nil {
		return nil, err
	}
	w, _ := strconv.Atoi(wStr)
	h, _ := strconv.Atoi(hStr)
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("bad grid dimensions %sx%s", wStr, hStr)
	}

	g := grid.New(w, h)

	rows, err := db.conn.Queryx("SELECT x, y, building, pollution, placed_by, placed_tick FROM tiles")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var x, y, building int
		var pollution float64
		var placedBy string
		var placedTick uint64
		if err := rows.Scan(&x, &y, &building, &pollution, &placedBy, &placedTick); err != nil {
			return nil, err
		}
		if !g.InBounds(x, y) {
			return nil, fmt.Errorf("tile (%d, %d) outside %dx%d grid", x, y, w, h)
		}
		t := &g.Tiles[y][x]
		t.Building = catalog.Building(building)
		t.Pollution = pollution
		t.PlacedBy = placedBy
		t.PlacedTick = placedTick
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	g.RefreshRoadAccess()
	return g, nil
}

// SaveEvents appends events to the database.
func (db *DB) SaveEvents(events []sim.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, e := range events {
		_, err := tx.Exec(
			"INSERT INTO events (tick, description, category) VALUES (?, ?, ?)",
			e.Tick, e.Description, e.Category,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// RecentEvents returns the most recent N events.
func (db *DB) RecentEvents(limit int) ([]sim.Event, error) {
	var events []sim.Event
	err := db.conn.Select(&events,
		"SELECT tick, description, category FROM events ORDER BY id DESC LIMIT ?",
		limit,
	)
	return events, err
}

// SaveMeta stores a key-value pair in city metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO city_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM city_meta WHERE key = ?", key)
	return value, err
}

// SaveCityState performs a full save: grid, stats, goal, and the last tick.
// Events already persisted are not re-saved; callers append those as they
// happen.
func (db *DB) SaveCityState(c *sim.City, tick uint64) error {
	g, stats := c.Snapshot()
	slog.Info("saving city state", "tick", tick, "population", stats.Demographics.Total())

	if err := db.SaveGrid(g); err != nil {
		return fmt.Errorf("save grid: %w", err)
	}

	statsJSON, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("marshal stats: %w", err)
	}
	if err := db.SaveMeta("stats", string(statsJSON)); err != nil {
		return fmt.Errorf("save stats: %w", err)
	}

	if goal := c.CurrentGoal(); goal != nil {
		goalJSON, err := json.Marshal(goal)
		if err != nil {
			return fmt.Errorf("marshal goal: %w", err)
		}
		if err := db.SaveMeta("goal", string(goalJSON)); err != nil {
			return fmt.Errorf("save goal: %w", err)
		}
	}

	if err := db.SaveMeta("last_tick", strconv.FormatUint(tick, 10)); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}

	slog.Info("city state saved")
	return nil
}

// LoadStats restores the saved stats record.
func (db *DB) LoadStats() (sim.Stats, error) {
	raw, err := db.GetMeta("stats")
	if errors.Is(err, sql.ErrNoRows) {
		return sim.Stats{}, ErrNoSave
	}
	if err != nil {
		return sim.Stats{}, err
	}
	var stats sim.Stats
	if err := json.Unmarshal([]byte(raw), &stats); err != nil {
		return sim.Stats{}, fmt.Errorf("unmarshal stats: %w", err)
	}
	if stats.Budget.Details == nil {
		stats.Budget.Details = map[string]int{}
	}
	return stats, nil
}

// LoadGoal restores the saved goal, or nil when none was set.
func (db *DB) LoadGoal() (*sim.AIGoal, error) {
	raw, err := db.GetMeta("goal")
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var goal sim.AIGoal
	if err := json.Unmarshal([]byte(raw), &goal); err != nil {
		return nil, fmt.Errorf("unmarshal goal: %w", err)
	}
	return &goal, nil
}

// LastTick returns the tick counter of the last save, or 0 for a fresh
// database.
func (db *DB) LastTick() (uint64, error) {
	raw, err := db.GetMeta("last_tick")
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseUint(raw, 10, 64)
}

// Package engine provides the tick-based simulation loop. One tick is one
// simulated day.
package engine

import (
	"fmt"
	"log/slog"
	"math"
	"sync/atomic"
	"time"
)

// TickSchedule defines when each cadence fires relative to the tick counter.
const (
	TicksPerWeek  = 7
	TicksPerMonth = 30
	TicksPerYear  = 360
)

// Engine drives the simulation forward. Tick, speed and the running flag
// are read from HTTP handlers while the loop goroutine writes them, so
// all three live behind atomics.
type Engine struct {
	tick    atomic.Uint64 // Current tick counter (monotonic, never resets)
	speed   atomic.Uint64 // float64 bits; 1.0 = real-time, 0 = paused
	running atomic.Bool

	Interval time.Duration // Base tick interval (default 1 second)

	// Callbacks for each cadence — populated during setup.
	OnTick  func(tick uint64) // Every tick (sim-day)
	OnWeek  func(tick uint64) // Every 7 ticks
	OnMonth func(tick uint64) // Every 30 ticks: autosave, ledger rollups
	OnYear  func(tick uint64) // Every 360 ticks
}

// NewEngine creates a simulation engine with default settings.
func NewEngine() *Engine {
	e := &Engine{Interval: time.Second}
	e.SetSpeed(1.0)
	return e
}

// Tick returns the current tick counter.
func (e *Engine) Tick() uint64 { return e.tick.Load() }

// SetTick seeds the counter, for resuming from a save. Call before Run.
func (e *Engine) SetTick(t uint64) { e.tick.Store(t) }

// Speed returns the current speed multiplier.
func (e *Engine) Speed() float64 { return math.Float64frombits(e.speed.Load()) }

// SetSpeed changes the speed multiplier; 0 pauses the loop.
func (e *Engine) SetSpeed(s float64) { e.speed.Store(math.Float64bits(s)) }

// Running reports whether the loop is live.
func (e *Engine) Running() bool { return e.running.Load() }

// Run starts the simulation loop. Blocks until Stop() is called.
func (e *Engine) Run() {
	e.running.Store(true)
	slog.Info("simulation engine started", "tick", e.Tick(), "speed", e.Speed())

	for e.running.Load() {
		speed := e.Speed()
		if speed <= 0 {
			// Paused — sleep briefly and check again.
			time.Sleep(100 * time.Millisecond)
			continue
		}

		start := time.Now()

		e.step()

		// Sleep for the remainder of the tick interval, adjusted for speed.
		elapsed := time.Since(start)
		target := time.Duration(float64(e.Interval) / speed)
		if elapsed < target {
			time.Sleep(target - elapsed)
		}
	}

	slog.Info("simulation engine stopped", "tick", e.Tick())
}

// Stop halts the simulation loop.
func (e *Engine) Stop() {
	e.running.Store(false)
}

// step advances the simulation by one tick.
func (e *Engine) step() {
	tick := e.tick.Add(1)

	// Every tick: the full daily city step.
	if e.OnTick != nil {
		e.OnTick(tick)
	}

	// Every sim-week: news digests, slower summaries.
	if tick%TicksPerWeek == 0 && e.OnWeek != nil {
		e.OnWeek(tick)
	}

	// Every sim-month: persistence autosave.
	if tick%TicksPerMonth == 0 && e.OnMonth != nil {
		e.OnMonth(tick)
	}

	// Every sim-year: anniversary events.
	if tick%TicksPerYear == 0 && e.OnYear != nil {
		e.OnYear(tick)
	}
}

// SimDate returns a human-readable simulation date string from a tick number.
func SimDate(tick uint64) string {
	day := tick%TicksPerMonth + 1
	month := (tick/TicksPerMonth)%12 + 1
	year := tick/TicksPerYear + 1
	return fmt.Sprintf("Year %d, Month %d, Day %d", year, month, day)
}

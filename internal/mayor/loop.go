package mayor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/talgya/cityforge/internal/catalog"
	"github.com/talgya/cityforge/internal/llm"
	"github.com/talgya/cityforge/internal/sim"
)

// actorName marks tiles and events produced by the mayor.
const actorName = "mayor"

// errSuppressedTile rejects a placement on a tile still held in the
// failure memory. Not re-recorded, so the tile frees up when the FIFO
// evicts the original failure.
var errSuppressedTile = errors.New("tile was recently rejected, pick another")

// Mayor runs the observe → decide → act cycle against the live city.
type Mayor struct {
	City   *sim.City
	Client *llm.Client
	Memory *FailureMemory

	// Interval between decision cycles (real time).
	Interval time.Duration
	// ThinkDelay is a pause between observing and acting. The world keeps
	// ticking underneath, so the action is re-validated at apply time and
	// can fail against fresher state.
	ThinkDelay time.Duration

	// CurrentTick reports the engine tick, for event timestamps.
	CurrentTick func() uint64
}

// New creates a mayor for the given city. A nil client disables decision
// cycles but still services weird-event narration with canned fallbacks.
func New(city *sim.City, client *llm.Client) *Mayor {
	return &Mayor{
		City:        city,
		Client:      client,
		Memory:      NewFailureMemory(),
		Interval:    60 * time.Second,
		ThinkDelay:  2 * time.Second,
		CurrentTick: func() uint64 { return 0 },
	}
}

// Run drives the mayor until ctx is cancelled. Blocks; run in a goroutine.
func (m *Mayor) Run(ctx context.Context) {
	slog.Info("mayor started", "interval", m.Interval, "llm_enabled", m.Client.Enabled())

	ticker := time.NewTicker(m.Interval)
	defer ticker.Stop()

	// Weird-event requests are polled faster than the decision cadence so
	// narration lands near the tick that rolled it.
	weird := time.NewTicker(5 * time.Second)
	defer weird.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("mayor stopped")
			return
		case <-weird.C:
			m.serviceWeirdEvents()
		case <-ticker.C:
			if !m.Client.Enabled() {
				continue
			}
			m.cycle(ctx)
		}
	}
}

// cycle runs one observe → decide → act pass.
func (m *Mayor) cycle(ctx context.Context) {
	snap := Observe(m.City, m.Memory)

	decision, err := Decide(m.Client, snap, m.Memory)
	if err != nil {
		slog.Error("mayor decide", "error", err)
		return
	}

	// Deliberation pause. The city state may move on; act() re-validates.
	select {
	case <-ctx.Done():
		return
	case <-time.After(m.ThinkDelay):
	}

	tick := m.CurrentTick()
	if err := m.act(decision, tick); err != nil {
		slog.Warn("mayor action rejected", "action", decision.Action, "error", err)
		if !errors.Is(err, errSuppressedTile) {
			placement := decision.Action == "build" || decision.Action == "demolish"
			m.Memory.Record(Failure{
				Tick:      tick,
				Action:    describeDecision(decision),
				Detail:    err.Error(),
				Placement: placement,
				X:         decision.X,
				Y:         decision.Y,
			})
		}
		return
	}

	if decision.Action != "wait" {
		m.City.EmitEvent(sim.Event{
			Tick:        tick,
			Description: fmt.Sprintf("Mayor: %s — %s", describeDecision(decision), decision.Reason),
			Category:    "mayor",
		})
	}
	slog.Info("mayor acted", "action", decision.Action, "reason", decision.Reason)
}

// act routes a decision through the same validated paths the API uses.
func (m *Mayor) act(d *Decision, tick uint64) error {
	switch d.Action {
	case "wait":
		return nil
	case "build":
		b, ok := catalog.FromName(strings.ToLower(d.Building))
		if !ok {
			return fmt.Errorf("unknown building %q", d.Building)
		}
		if m.Memory.Blocked(d.X, d.Y) {
			return errSuppressedTile
		}
		_, err := m.City.Apply(sim.Action{Building: b, X: d.X, Y: d.Y}, actorName, tick)
		return err
	case "demolish":
		if m.Memory.Blocked(d.X, d.Y) {
			return errSuppressedTile
		}
		_, err := m.City.Apply(sim.Action{Demolish: true, X: d.X, Y: d.Y}, actorName, tick)
		return err
	case "set_tax":
		return m.City.SetTaxRate(d.Rate)
	case "take_loan":
		return m.City.TakeLoan(d.Amount)
	case "repay_loan":
		return m.City.RepayLoan(d.Amount)
	case "buy_shares":
		return m.City.BuyShares(d.Amount)
	case "sell_shares":
		return m.City.SellShares(d.Amount)
	case "set_goal":
		if d.Goal == nil {
			return fmt.Errorf("set_goal without a goal payload")
		}
		m.City.SetGoal(&sim.AIGoal{
			Description:  d.Goal.Description,
			TargetType:   d.Goal.TargetType,
			TargetValue:  d.Goal.TargetValue,
			BuildingType: d.Goal.BuildingType,
			Reward:       d.Goal.Reward,
		})
		return nil
	}
	return fmt.Errorf("unknown action %q", d.Action)
}

// serviceWeirdEvents drains the pending weird-event flag into a narrated
// news item. Outcomes are cosmetic: nothing in the simulation changes.
func (m *Mayor) serviceWeirdEvents() {
	if !m.City.TakeWeirdEventRequest() {
		return
	}
	_, stats := m.City.Snapshot()
	blurb := NarrateWeirdEvent(m.Client, stats)
	m.City.EmitEvent(sim.Event{
		Tick:        m.CurrentTick(),
		Description: blurb,
		Category:    "news",
	})
}

func describeDecision(d *Decision) string {
	switch d.Action {
	case "build":
		return fmt.Sprintf("build %s at (%d, %d)", d.Building, d.X, d.Y)
	case "demolish":
		return fmt.Sprintf("demolish at (%d, %d)", d.X, d.Y)
	case "set_tax":
		return fmt.Sprintf("set tax to %.0f%%", d.Rate*100)
	case "take_loan":
		return fmt.Sprintf("take loan of %d", d.Amount)
	case "repay_loan":
		return fmt.Sprintf("repay %d", d.Amount)
	case "buy_shares":
		return fmt.Sprintf("buy %d shares", d.Amount)
	case "sell_shares":
		return fmt.Sprintf("sell %d shares", d.Amount)
	case "set_goal":
		if d.Goal != nil {
			return "set goal: " + d.Goal.Description
		}
		return "set goal"
	}
	return d.Action
}

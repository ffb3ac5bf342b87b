package mayor

import (
	"errors"
	"testing"

	"github.com/talgya/cityforge/internal/catalog"
	"github.com/talgya/cityforge/internal/grid"
	"github.com/talgya/cityforge/internal/sim"
)

func TestActRefusesRememberedTile(t *testing.T) {
	c := newObserveCity()
	m := New(c, nil)
	m.Memory.Record(Failure{
		Tick:      1,
		Action:    "build road at (5, 5)",
		Detail:    "occupied",
		Placement: true,
		X:         5,
		Y:         5,
	})

	err := m.act(&Decision{Action: "build", Building: "road", X: 5, Y: 5}, 2)
	if !errors.Is(err, errSuppressedTile) {
		t.Fatalf("want suppression error, got %v", err)
	}
	if c.Grid.Tiles[5][5].Building != catalog.None {
		t.Fatal("suppressed build must not reach the grid")
	}
	if err := m.act(&Decision{Action: "demolish", X: 5, Y: 5}, 2); !errors.Is(err, errSuppressedTile) {
		t.Fatalf("want suppression error for demolish, got %v", err)
	}

	// A different tile goes through the normal path.
	if err := m.act(&Decision{Action: "build", Building: "road", X: 4, Y: 4}, 2); err != nil {
		t.Fatalf("unremembered tile rejected: %v", err)
	}
	if c.Grid.Tiles[4][4].Building != catalog.Road {
		t.Fatal("build on a fresh tile should land")
	}
}

func TestSuppressionLiftsAfterEviction(t *testing.T) {
	g := grid.New(10, 10)
	c := sim.NewCity(g, 1)
	m := New(c, nil)

	m.Memory.Record(Failure{Tick: 1, Action: "build road at (5, 5)", Detail: "occupied", Placement: true, X: 5, Y: 5})
	if !m.Memory.Blocked(5, 5) {
		t.Fatal("freshly recorded tile must be blocked")
	}

	// Push the record out of the FIFO.
	for i := 0; i < maxFailures; i++ {
		m.Memory.Record(Failure{Tick: uint64(i + 2), Action: "set tax to 90%", Detail: "rate out of range"})
	}
	if m.Memory.Blocked(5, 5) {
		t.Fatal("evicted tile must be retryable")
	}
	if err := m.act(&Decision{Action: "build", Building: "road", X: 5, Y: 5}, 30); err != nil {
		t.Fatalf("evicted tile rejected: %v", err)
	}
}

package mayor

import (
	"fmt"
	"strings"
	"testing"

	"github.com/talgya/cityforge/internal/grid"
	"github.com/talgya/cityforge/internal/sim"
)

func newObserveCity() *sim.City {
	g := grid.New(10, 10)
	c := sim.NewCity(g, 1)
	c.Tuning.EventChance = 0
	c.Tuning.DisasterChance = 0
	c.Tuning.WeirdChance = 0
	c.Tuning.WindChangeChance = 0
	return c
}

func TestObserveCollectsLegalMoves(t *testing.T) {
	c := newObserveCity()

	snap := Observe(c, nil)
	if len(snap.LegalMoves) == 0 {
		t.Fatal("a fresh city should offer placements")
	}
	if len(snap.LegalMoves) > maxLegalMoves {
		t.Fatalf("%d moves exceeds the cap", len(snap.LegalMoves))
	}

	area := snap.Grid.UnlockedRect(snap.Stats.Demographics.Total())
	for _, m := range snap.LegalMoves {
		if !area.Contains(m.X, m.Y) {
			t.Errorf("move %s at (%d,%d) is outside the unlocked area", m.Building, m.X, m.Y)
		}
		if m.Cost <= 0 || m.Cost > snap.Stats.Money {
			t.Errorf("move %s cost %d is not affordable", m.Building, m.Cost)
		}
	}
}

func TestObserveBrokeCity(t *testing.T) {
	c := newObserveCity()
	c.Stats.Money = 0

	snap := Observe(c, nil)
	if len(snap.LegalMoves) != 0 {
		t.Fatalf("broke city offered %d moves", len(snap.LegalMoves))
	}
}

func TestObserveSkipsRememberedTiles(t *testing.T) {
	c := newObserveCity()
	mem := NewFailureMemory()

	snap := Observe(c, mem)
	if len(snap.LegalMoves) == 0 {
		t.Fatal("a fresh city should offer placements")
	}
	first := snap.LegalMoves[0]
	mem.Record(Failure{
		Tick:      1,
		Action:    fmt.Sprintf("build %s at (%d, %d)", first.Building, first.X, first.Y),
		Detail:    "occupied",
		Placement: true,
		X:         first.X,
		Y:         first.Y,
	})

	snap = Observe(c, mem)
	for _, m := range snap.LegalMoves {
		if m.X == first.X && m.Y == first.Y {
			t.Fatalf("tile (%d,%d) offered again while still remembered", m.X, m.Y)
		}
	}
}

func TestObserveSamplesVariedTiles(t *testing.T) {
	c := newObserveCity()

	seen := map[[2]int]bool{}
	for i := 0; i < 30; i++ {
		snap := Observe(c, nil)
		if len(snap.LegalMoves) == 0 {
			t.Fatal("a fresh city should offer placements")
		}
		m := snap.LegalMoves[0]
		seen[[2]int{m.X, m.Y}] = true
	}
	if len(seen) < 2 {
		t.Fatalf("30 observations always led with the same tile %v", seen)
	}
}

func TestFormatSnapshotMentionsPlacements(t *testing.T) {
	c := newObserveCity()
	snap := Observe(c, nil)

	out := formatSnapshot(snap)
	if !strings.Contains(out, "City State") {
		t.Fatal("prompt missing the state section")
	}
	if !strings.Contains(out, "Valid Placements") {
		t.Fatal("prompt missing the placements section")
	}
}

func TestFallbackNews(t *testing.T) {
	stats := sim.InitialStats()
	stats.Day = 14
	events := []sim.Event{{Tick: 12, Description: "A city festival begins", Category: "economy"}}

	issue := GenerateNews(nil, stats, events)
	if issue == nil || issue.Content == "" {
		t.Fatal("fallback news must always produce content")
	}
	if !strings.Contains(issue.Content, "GRIDLINE GAZETTE") {
		t.Fatalf("masthead missing: %q", issue.Content)
	}
	if !strings.Contains(issue.Content, "A city festival begins") {
		t.Fatal("events should appear in the digest")
	}
}

func TestNarrateWeirdEventFallback(t *testing.T) {
	line := NarrateWeirdEvent(nil, sim.InitialStats())
	if line == "" {
		t.Fatal("weird event narration must never be empty")
	}
}

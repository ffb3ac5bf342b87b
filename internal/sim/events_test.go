package sim

import "testing"

func TestMacroEventStartsAndExpires(t *testing.T) {
	c := newTestCity()
	c.Tuning.EventChance = 1

	c.Step(1)
	if c.Stats.ActiveEvent == EventNone {
		t.Fatal("forced roll should start an event")
	}
	if c.Stats.EventDuration <= 0 {
		t.Fatalf("duration = %d, want positive", c.Stats.EventDuration)
	}

	// Once active, the countdown runs out before anything new rolls.
	kind := c.Stats.ActiveEvent
	dur := c.Stats.EventDuration
	c.Tuning.EventChance = 0
	for tick := uint64(2); tick <= uint64(1+dur); tick++ {
		c.Step(tick)
	}
	if c.Stats.ActiveEvent != EventNone {
		t.Fatalf("event %s should have expired after %d ticks", kind, dur)
	}
	if c.Stats.EventDuration != 0 {
		t.Fatalf("duration = %d after expiry, want 0", c.Stats.EventDuration)
	}
}

func TestActiveEventBlocksNewRolls(t *testing.T) {
	c := newTestCity()
	c.Tuning.EventChance = 1

	c.Step(1)
	kind := c.Stats.ActiveEvent
	dur := c.Stats.EventDuration
	c.Step(2)
	if c.Stats.ActiveEvent != kind {
		t.Fatalf("event switched from %s to %s mid-run", kind, c.Stats.ActiveEvent)
	}
	if c.Stats.EventDuration != dur-1 {
		t.Fatalf("duration = %d, want %d", c.Stats.EventDuration, dur-1)
	}
}

func TestEventRevenueMultiplier(t *testing.T) {
	cases := []struct {
		kind EventKind
		want float64
	}{
		{EventNone, 1.0},
		{EventBoom, 1.3},
		{EventRecession, 0.7},
		{EventStrike, 0.5},
		{EventAudit, 0.9},
		{EventExodus, 0.6},
		{EventFestival, 1.0},
	}
	for _, tc := range cases {
		if got := eventRevenueMultiplier(tc.kind); got != tc.want {
			t.Errorf("%s: multiplier = %v, want %v", tc.kind, got, tc.want)
		}
	}
}

func TestSharePriceStaysPositive(t *testing.T) {
	c := newTestCity()
	c.Stats.SharePrice = 1.5
	c.Stats.ActiveEvent = EventRecession
	c.Stats.EventDuration = 1 << 30

	for i := 0; i < 1000; i++ {
		c.stepSharePrice(&c.Stats)
		if c.Stats.SharePrice < 1 {
			t.Fatalf("share price fell to %v", c.Stats.SharePrice)
		}
	}
}

func TestSupplyDipsDuringStrikeAndRecovers(t *testing.T) {
	c := newTestCity()
	c.Stats.ActiveEvent = EventStrike
	c.Stats.EventDuration = 50

	tick := uint64(1)
	for ; tick <= 10; tick++ {
		c.Step(tick)
	}
	if c.Stats.SupplyLevel > 0.55 || c.Stats.SupplyLevel < 0.45 {
		t.Fatalf("supply = %.2f after a sustained strike, want near 0.5", c.Stats.SupplyLevel)
	}

	c.Stats.ActiveEvent = EventNone
	c.Stats.EventDuration = 0
	for ; tick <= 20; tick++ {
		c.Step(tick)
	}
	if c.Stats.SupplyLevel != 1.0 {
		t.Fatalf("supply = %.2f after the strike ended, want full recovery", c.Stats.SupplyLevel)
	}
}

func TestSupplyTargets(t *testing.T) {
	cases := []struct {
		event EventKind
		want  float64
	}{
		{EventStrike, 0.5},
		{EventRecession, 0.7},
		{EventExodus, 0.8},
		{EventBoom, 1.0},
		{EventNone, 1.0},
	}
	for _, tc := range cases {
		if got := eventSupplyTarget(tc.event); got != tc.want {
			t.Errorf("target(%s) = %.1f, want %.1f", tc.event, got, tc.want)
		}
	}
}

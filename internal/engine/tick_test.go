package engine

import "testing"

func TestStepCadences(t *testing.T) {
	e := NewEngine()

	var ticks, weeks, months, years int
	e.OnTick = func(uint64) { ticks++ }
	e.OnWeek = func(uint64) { weeks++ }
	e.OnMonth = func(uint64) { months++ }
	e.OnYear = func(uint64) { years++ }

	for i := 0; i < 30; i++ {
		e.step()
	}

	if ticks != 30 {
		t.Errorf("ticks = %d, want 30", ticks)
	}
	if weeks != 4 {
		t.Errorf("weeks = %d, want 4", weeks)
	}
	if months != 1 {
		t.Errorf("months = %d, want 1", months)
	}
	if years != 0 {
		t.Errorf("years = %d, want 0", years)
	}
	if e.Tick() != 30 {
		t.Errorf("tick counter = %d, want 30", e.Tick())
	}
}

func TestStepWithoutCallbacks(t *testing.T) {
	e := NewEngine()
	e.step()
	if e.Tick() != 1 {
		t.Fatalf("tick = %d", e.Tick())
	}

	// Resuming from a save seeds the counter.
	e.SetTick(360)
	e.step()
	if e.Tick() != 361 {
		t.Fatalf("tick = %d after seeding, want 361", e.Tick())
	}
}

func TestSpeedIsConcurrencySafe(t *testing.T) {
	e := NewEngine()
	if e.Speed() != 1.0 {
		t.Fatalf("default speed = %v, want 1", e.Speed())
	}

	// Writers race against a reader, as HTTP handlers do against the
	// tick loop.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 1000; i++ {
			e.SetSpeed(float64(i % 10))
		}
	}()
	for i := 0; i < 1000; i++ {
		if s := e.Speed(); s < 0 || s > 9 {
			t.Fatalf("torn speed read: %v", s)
		}
	}
	<-done

	e.SetSpeed(2.5)
	if e.Speed() != 2.5 {
		t.Fatalf("speed = %v, want 2.5", e.Speed())
	}
}

func TestStopClearsRunning(t *testing.T) {
	e := NewEngine()
	if e.Running() {
		t.Fatal("engine must not report running before Run")
	}
	e.Stop()
	if e.Running() {
		t.Fatal("Stop must clear the running flag")
	}
}

func TestSimDate(t *testing.T) {
	cases := []struct {
		tick uint64
		want string
	}{
		{0, "Year 1, Month 1, Day 1"},
		{29, "Year 1, Month 1, Day 30"},
		{30, "Year 1, Month 2, Day 1"},
		{359, "Year 1, Month 12, Day 30"},
		{360, "Year 2, Month 1, Day 1"},
	}
	for _, tc := range cases {
		if got := SimDate(tc.tick); got != tc.want {
			t.Errorf("SimDate(%d) = %q, want %q", tc.tick, got, tc.want)
		}
	}
}

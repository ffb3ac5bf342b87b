package catalog

import "testing"

func TestNameRoundTrip(t *testing.T) {
	for _, b := range All() {
		got, ok := FromName(Name(b))
		if !ok || got != b {
			t.Errorf("FromName(Name(%v)) = %v, %v", b, got, ok)
		}
	}
}

func TestTerrainNames(t *testing.T) {
	if Name(None) != "empty" {
		t.Errorf("Name(None) = %q", Name(None))
	}
	if Name(Water) != "water" {
		t.Errorf("Name(Water) = %q", Name(Water))
	}
	if _, ok := FromName("empty"); ok {
		t.Error("terrain must not be buildable by name")
	}
}

func TestBuildable(t *testing.T) {
	if Buildable(None) || Buildable(Water) {
		t.Error("terrain is not buildable")
	}
	for _, b := range All() {
		if !Buildable(b) {
			t.Errorf("%s should be buildable", Name(b))
		}
	}
}

func TestAffordable(t *testing.T) {
	if got := Affordable(0); len(got) != 0 {
		t.Errorf("Affordable(0) = %v", got)
	}

	got := Affordable(100)
	want := map[Building]bool{Road: true, Bridge: true, Park: true}
	if len(got) != len(want) {
		t.Fatalf("Affordable(100) = %v", got)
	}
	for _, b := range got {
		if !want[b] {
			t.Errorf("Affordable(100) includes %s", Name(b))
		}
	}

	if got := Affordable(1 << 20); len(got) != len(All()) {
		t.Errorf("unlimited money should afford everything, got %d types", len(got))
	}
}

func TestLookupCosts(t *testing.T) {
	if c := Lookup(Stadium); c.Cost != 2000 || c.MaxAllowed != 1 {
		t.Errorf("stadium row = %+v", c)
	}
	if c := Lookup(None); c != (Config{}) {
		t.Errorf("terrain lookup should be zero, got %+v", c)
	}
}

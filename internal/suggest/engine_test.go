package suggest

import (
	"strings"
	"testing"

	"allowcast/internal/support"
)

func assertDistinctValid(t *testing.T, seed string, candidates []string) {
	t.Helper()

	seen := make(map[string]struct{}, len(candidates))
	for _, addr := range candidates {
		if addr == seed {
			t.Fatalf("candidate list contains the seed %s", seed)
		}
		if _, dup := seen[addr]; dup {
			t.Fatalf("candidate list contains %s twice", addr)
		}
		seen[addr] = struct{}{}
		if _, ok := support.ParseDottedQuad(addr); !ok {
			t.Fatalf("candidate %s is not a well-formed address", addr)
		}
	}
}

func TestSuggest_FillsSeedBandFirst(t *testing.T) {
	e := NewEngine()

	got := e.Suggest("10.0.0.55", 5, 10)
	want := []string{"10.0.0.50", "10.0.0.51", "10.0.0.52", "10.0.0.53", "10.0.0.54"}

	if len(got) != len(want) {
		t.Fatalf("Suggest returned %d candidates, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("candidate %d = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestSuggest_ProximityWhenSeedOutsideBands(t *testing.T) {
	e := NewEngine()

	got := e.Suggest("10.0.0.30", 4, 10)
	want := []string{"10.0.0.31", "10.0.0.29", "10.0.0.32", "10.0.0.28"}

	if len(got) != len(want) {
		t.Fatalf("Suggest returned %d candidates, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("candidate %d = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestSuggest_NeverRepeatsOrEmitsSeed(t *testing.T) {
	e := NewEngine()

	got := e.Suggest("10.0.0.55", 200, 10)
	assertDistinctValid(t, "10.0.0.55", got)

	// Band (50 octets) plus the proximity offsets below the band.
	if len(got) != 55 {
		t.Fatalf("Suggest exhausted the neighbourhood at %d candidates, want 55", len(got))
	}
}

func TestSuggest_AdjacentSubnetsForClassB(t *testing.T) {
	e := NewEngine()

	got := e.Suggest("150.7.33.10", 100, 10)
	assertDistinctValid(t, "150.7.33.10", got)

	var lower, upper bool
	for _, addr := range got {
		if strings.HasPrefix(addr, "150.7.32.") {
			lower = true
		}
		if strings.HasPrefix(addr, "150.7.34.") {
			upper = true
		}
	}
	if !lower || !upper {
		t.Fatalf("adjacent subnets missing from candidates (32: %v, 34: %v)", lower, upper)
	}

	// The same seed outside the class B range stays inside its own /24.
	for _, addr := range e.Suggest("10.7.33.10", 100, 10) {
		if !strings.HasPrefix(addr, "10.7.33.") {
			t.Fatalf("class A seed produced out-of-subnet candidate %s", addr)
		}
	}
}

func TestSuggest_InvalidInput(t *testing.T) {
	e := NewEngine()

	if got := e.Suggest("not-an-ip", 5, 10); got != nil {
		t.Fatalf("Suggest with invalid seed = %v, want nil", got)
	}
	if got := e.Suggest("10.0.0.55", 0, 10); got != nil {
		t.Fatalf("Suggest with zero count = %v, want nil", got)
	}
}

func TestSuggestDiversified_SplitsAcrossBands(t *testing.T) {
	e := NewEngine()

	got := e.SuggestDiversified("10.0.0.55", 10, 10)
	want := []string{
		"10.0.0.50", "10.0.0.51", "10.0.0.52", "10.0.0.53", "10.0.0.54",
		"10.0.0.56", "10.0.0.57",
		"10.0.0.1", "10.0.0.2", "10.0.0.3",
	}

	if len(got) != len(want) {
		t.Fatalf("SuggestDiversified returned %d candidates, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("candidate %d = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestSuggestDiversified_RandomTopUp(t *testing.T) {
	e := NewEngine()

	got := e.SuggestDiversified("10.0.0.128", 160, 10)
	assertDistinctValid(t, "10.0.0.128", got)

	if len(got) != 160 {
		t.Fatalf("SuggestDiversified returned %d candidates, want 160", len(got))
	}
	for _, addr := range got {
		if !strings.HasPrefix(addr, "10.0.0.") {
			t.Fatalf("candidate %s left the seed subnet", addr)
		}
	}
}

package universe

import "testing"

func TestDefaultUniverseFullyMapped(t *testing.T) {
	if missing := Unmapped(Symbols, nil); len(missing) > 0 {
		t.Errorf("default universe has unmapped symbols: %v", missing)
	}
}

func TestUnmappedDetectsStray(t *testing.T) {
	missing := Unmapped([]string{"AAPL", "ZZZZ"}, nil)
	if len(missing) != 1 || missing[0] != "ZZZZ" {
		t.Errorf("Unmapped = %v, want [ZZZZ]", missing)
	}
}

func TestSectorTagsAreKnownETFs(t *testing.T) {
	known := make(map[string]bool, len(SectorETFs))
	for _, etf := range SectorETFs {
		known[etf] = true
	}
	for sym, etf := range SectorMap {
		if !known[etf] {
			t.Errorf("%s maps to unknown sector tag %s", sym, etf)
		}
	}
}

func TestBenchmarkNotInUniverse(t *testing.T) {
	for _, s := range Symbols {
		if s == Benchmark {
			t.Errorf("benchmark %s must not be a universe member", Benchmark)
		}
	}
}

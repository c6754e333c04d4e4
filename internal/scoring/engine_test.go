package scoring

import (
	"errors"
	"math"
	"testing"
	"time"

	"RSRadar/internal/model"
)

func mkBars(start, step float64, n int) []model.OHLCV {
	bars := make([]model.OHLCV, n)
	price := start
	for i := 0; i < n; i++ {
		bars[i] = model.OHLCV{
			Time:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(i) * time.Hour),
			Open:   price,
			High:   price * 1.01,
			Low:    price * 0.99,
			Close:  price,
			Volume: 1_000_000,
		}
		price += step
	}
	return bars
}

func testEngine(topN int) *Engine {
	m, _ := ModelByVersion(DefaultVersion)
	sectors := map[string]string{"AAA": "XLK", "BBB": "XLK", "CCC": "XLF", "DDD": "XLF"}
	return NewEngine(m, "SPY", sectors, topN)
}

func TestZScores_MeanZeroStdOne(t *testing.T) {
	values := []float64{1.2, -0.4, 3.3, 0.0, 7.1, -2.6}
	z := zscores(values)

	var mean float64
	for _, v := range z {
		mean += v
	}
	mean /= float64(len(z))

	var variance float64
	for _, v := range z {
		variance += (v - mean) * (v - mean)
	}
	std := math.Sqrt(variance / float64(len(z)))

	if math.Abs(mean) > 1e-9 {
		t.Errorf("expected mean ~0, got %v", mean)
	}
	if math.Abs(std-1) > 1e-9 {
		t.Errorf("expected population std ~1, got %v", std)
	}
}

func TestZScores_UndefinedExcludedAndNeutral(t *testing.T) {
	values := []float64{2, 4, math.NaN(), 6}
	z := zscores(values)

	if z[2] != 0 {
		t.Errorf("undefined value must normalize to 0, got %v", z[2])
	}
	// Distribution is {2,4,6}: mean 4, population std sqrt(8/3).
	want := (2.0 - 4.0) / math.Sqrt(8.0/3.0)
	if math.Abs(z[0]-want) > 1e-12 {
		t.Errorf("expected %v, got %v", want, z[0])
	}
}

func TestZScores_ZeroVariance(t *testing.T) {
	z := zscores([]float64{5, 5, 5, 5})
	for i, v := range z {
		if v != 0 {
			t.Errorf("index %d: expected 0 for degenerate distribution, got %v", i, v)
		}
	}
}

func TestBlend_RenormalizesMissingTimeframe(t *testing.T) {
	m, _ := ModelByVersion(DefaultVersion)
	scores := map[model.Timeframe]float64{
		model.TimeframeWeekly: 1.0,
		model.TimeframeDaily:  1.0,
	}
	got, ok := Blend(scores, m.TimeframeWeights)
	if !ok {
		t.Fatal("expected a blendable result")
	}
	// {0.40, 0.35} over 0.75 → effective {0.5333, 0.4667}, summing to 1.
	if math.Abs(got-1.0) > 1e-9 {
		t.Errorf("renormalized weights must sum to 1: blend of equal scores = %v", got)
	}

	scores[model.TimeframeWeekly] = 3.0
	got, _ = Blend(scores, m.TimeframeWeights)
	want := (0.40*3.0 + 0.35*1.0) / 0.75
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("expected %v, got %v", want, got)
	}

	if _, ok := Blend(nil, m.TimeframeWeights); ok {
		t.Error("expected ok=false with no timeframes present")
	}
}

func TestScan_EndToEnd_DailyOnly(t *testing.T) {
	// AAA rises 100→110, BBB and the benchmark stay flat.
	daily := model.UniverseBars{
		"AAA": mkBars(100, 1, 11),
		"BBB": mkBars(100, 0, 11),
		"SPY": mkBars(400, 0, 11),
	}
	ranked, err := testEngine(10).Scan(map[model.Timeframe]model.UniverseBars{
		model.TimeframeDaily: daily,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(ranked.Rows) != 2 {
		t.Fatalf("expected 2 rows (benchmark never scored), got %d", len(ranked.Rows))
	}
	if ranked.Rows[0].Symbol != "AAA" || ranked.Rows[1].Symbol != "BBB" {
		t.Fatalf("expected AAA ranked above BBB, got %s, %s",
			ranked.Rows[0].Symbol, ranked.Rows[1].Symbol)
	}

	aaa := ranked.Rows[0].Timeframes[model.TimeframeDaily]
	bbb := ranked.Rows[1].Timeframes[model.TimeframeDaily]
	if aaa.Z.Slope <= 0 || aaa.Z.RelStrength <= 0 {
		t.Errorf("expected positive normalized slope and RS for AAA, got %v / %v",
			aaa.Z.Slope, aaa.Z.RelStrength)
	}
	if bbb.Z.Slope >= 0 || bbb.Z.RelStrength >= 0 {
		t.Errorf("expected non-positive normalized metrics for flat BBB, got %v / %v",
			bbb.Z.Slope, bbb.Z.RelStrength)
	}
	// Identical volumes across the universe: degenerate rvol distribution.
	if aaa.Z.RelVolume != 0 || bbb.Z.RelVolume != 0 {
		t.Errorf("expected neutral rvol z-scores, got %v / %v",
			aaa.Z.RelVolume, bbb.Z.RelVolume)
	}
	// Flat benchmark: volatility ratio undefined, must stay neutral.
	if bbb.Z.VolRatio != 0 {
		t.Errorf("expected neutral vol ratio for undefined metric, got %v", bbb.Z.VolRatio)
	}
	if ranked.Rows[0].Composite <= ranked.Rows[1].Composite {
		t.Error("expected AAA composite above BBB")
	}
}

func TestScan_CompositeIsWeightedSum(t *testing.T) {
	m, _ := ModelByVersion(DefaultVersion)
	data := map[model.Timeframe]model.UniverseBars{
		model.TimeframeWeekly: {
			"AAA": mkBars(100, 2, 30), "BBB": mkBars(50, -0.5, 30), "SPY": mkBars(400, 1, 30),
		},
		model.TimeframeDaily: {
			"AAA": mkBars(100, 1, 30), "BBB": mkBars(50, 0.25, 30), "SPY": mkBars(400, 0.5, 30),
		},
		model.TimeframeHourly: {
			"AAA": mkBars(100, -0.1, 30), "BBB": mkBars(50, 0.1, 30), "SPY": mkBars(400, 0.1, 30),
		},
	}
	ranked, err := testEngine(10).Scan(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ranked.Timeframes) != 3 {
		t.Fatalf("expected 3 scored timeframes, got %v", ranked.Timeframes)
	}

	for _, row := range ranked.Rows {
		want := m.TimeframeWeights[model.TimeframeWeekly]*row.Timeframes[model.TimeframeWeekly].Score +
			m.TimeframeWeights[model.TimeframeDaily]*row.Timeframes[model.TimeframeDaily].Score +
			m.TimeframeWeights[model.TimeframeHourly]*row.Timeframes[model.TimeframeHourly].Score
		if math.Abs(row.Composite-want) > 1e-9 {
			t.Errorf("%s: composite %v != weighted sum %v", row.Symbol, row.Composite, want)
		}
	}
}

func TestScan_ZeroVarianceSlopeAcrossUniverse(t *testing.T) {
	// Every symbol has an identical series → identical raw slope.
	daily := model.UniverseBars{
		"AAA": mkBars(100, 1, 12),
		"BBB": mkBars(100, 1, 12),
		"CCC": mkBars(100, 1, 12),
		"SPY": mkBars(400, 0, 12),
	}
	ranked, err := testEngine(10).Scan(map[model.Timeframe]model.UniverseBars{
		model.TimeframeDaily: daily,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, row := range ranked.Rows {
		z := row.Timeframes[model.TimeframeDaily].Z.Slope
		if math.IsNaN(z) || math.IsInf(z, 0) || z != 0 {
			t.Errorf("%s: expected normalized slope 0 for degenerate universe, got %v",
				row.Symbol, z)
		}
	}
}

func TestScan_DeterministicTieBreak(t *testing.T) {
	// Identical symbols produce equal composites; order must be lexical.
	daily := model.UniverseBars{
		"DDD": mkBars(100, 1, 12),
		"AAA": mkBars(100, 1, 12),
		"CCC": mkBars(100, 1, 12),
		"SPY": mkBars(400, 0, 12),
	}
	ranked, err := testEngine(10).Scan(map[model.Timeframe]model.UniverseBars{
		model.TimeframeDaily: daily,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"AAA", "CCC", "DDD"}
	for i, sym := range want {
		if ranked.Rows[i].Symbol != sym {
			t.Errorf("position %d: expected %s, got %s", i, sym, ranked.Rows[i].Symbol)
		}
	}
}

func TestScan_BenchmarkMissing(t *testing.T) {
	data := map[model.Timeframe]model.UniverseBars{
		model.TimeframeDaily: {"AAA": mkBars(100, 1, 12)},
	}
	if _, err := testEngine(10).Scan(data); !errors.Is(err, ErrBenchmarkMissing) {
		t.Errorf("expected ErrBenchmarkMissing, got %v", err)
	}
}

func TestScan_BenchmarkMissingDropsOnlyThatTimeframe(t *testing.T) {
	data := map[model.Timeframe]model.UniverseBars{
		model.TimeframeWeekly: {"AAA": mkBars(100, 1, 12), "BBB": mkBars(100, 0, 12)},
		model.TimeframeDaily: {
			"AAA": mkBars(100, 1, 12), "BBB": mkBars(100, 0, 12), "SPY": mkBars(400, 0, 12),
		},
	}
	ranked, err := testEngine(10).Scan(data)
	if err != nil {
		t.Fatalf("expected scan to proceed on daily alone, got %v", err)
	}
	if len(ranked.Timeframes) != 1 || ranked.Timeframes[0] != model.TimeframeDaily {
		t.Fatalf("expected only daily scored, got %v", ranked.Timeframes)
	}
	// Daily carries the full (renormalized) weight.
	for _, row := range ranked.Rows {
		if math.Abs(row.Composite-row.Timeframes[model.TimeframeDaily].Score) > 1e-9 {
			t.Errorf("%s: composite %v != daily score %v",
				row.Symbol, row.Composite, row.Timeframes[model.TimeframeDaily].Score)
		}
	}
}

func TestScan_UnreachableSymbolListedWithNullScore(t *testing.T) {
	daily := model.UniverseBars{
		"AAA": mkBars(100, 1, 12),
		"BBB": mkBars(100, 0, 12),
		"CCC": nil, // fetch failed upstream
		"SPY": mkBars(400, 0, 12),
	}
	ranked, err := testEngine(10).Scan(map[model.Timeframe]model.UniverseBars{
		model.TimeframeDaily: daily,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ranked.Rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(ranked.Rows))
	}
	last := ranked.Rows[2]
	if last.Symbol != "CCC" || !last.Skipped || !math.IsNaN(last.Composite) {
		t.Errorf("expected CCC skipped with null score at the bottom, got %+v", last)
	}
	// Skipped rows never enter the watchlists.
	for _, row := range append(ranked.Strong, ranked.Weak...) {
		if row.Symbol == "CCC" {
			t.Error("skipped symbol leaked into a watchlist")
		}
	}
}

func TestScan_SectorRollupAveragesMembers(t *testing.T) {
	daily := model.UniverseBars{
		"AAA": mkBars(100, 1, 12), // XLK
		"BBB": mkBars(100, 0.5, 12), // XLK
		"CCC": mkBars(100, -1, 12), // XLF
		"SPY": mkBars(400, 0, 12),
	}
	ranked, err := testEngine(10).Scan(map[model.Timeframe]model.UniverseBars{
		model.TimeframeDaily: daily,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ranked.Sectors) != 2 {
		t.Fatalf("expected 2 sectors, got %d", len(ranked.Sectors))
	}
	if ranked.Sectors[0].Sector != "XLK" {
		t.Errorf("expected XLK strongest, got %s", ranked.Sectors[0].Sector)
	}

	var sum float64
	var n int
	for _, row := range ranked.Rows {
		if row.Sector == "XLK" {
			sum += row.Composite
			n++
		}
	}
	if n != ranked.Sectors[0].Members {
		t.Errorf("expected %d members, got %d", n, ranked.Sectors[0].Members)
	}
	if math.Abs(ranked.Sectors[0].Score-sum/float64(n)) > 1e-9 {
		t.Errorf("sector score %v is not the member mean %v",
			ranked.Sectors[0].Score, sum/float64(n))
	}
}

func TestScan_BiasAlignment(t *testing.T) {
	data := map[model.Timeframe]model.UniverseBars{
		model.TimeframeWeekly: {
			"AAA": mkBars(100, 2, 30), "BBB": mkBars(100, -1, 30), "SPY": mkBars(400, 0.1, 30),
		},
		model.TimeframeDaily: {
			"AAA": mkBars(100, 2, 30), "BBB": mkBars(100, -1, 30), "SPY": mkBars(400, 0.1, 30),
		},
	}
	ranked, err := testEngine(10).Scan(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, row := range ranked.Rows {
		if !row.Aligned {
			t.Errorf("%s: expected aligned biases across timeframes, got %+v", row.Symbol, row)
		}
	}
}

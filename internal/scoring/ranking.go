package scoring

import (
	"math"
	"sort"

	"RSRadar/internal/model"
)

// rank orders the universe descending by composite score (skipped rows sink
// to the bottom, ties break by symbol), derives sector rollups, and slices
// the top-N / bottom-N watchlist candidates.
func rank(ranked *model.RankedUniverse, topN int) {
	rows := ranked.Rows
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		switch {
		case a.Skipped != b.Skipped:
			return !a.Skipped
		case a.Skipped:
			return a.Symbol < b.Symbol
		case a.Composite != b.Composite:
			return a.Composite > b.Composite
		default:
			return a.Symbol < b.Symbol
		}
	})

	ranked.Sectors = sectorRollup(rows)

	scored := rows
	for len(scored) > 0 && scored[len(scored)-1].Skipped {
		scored = scored[:len(scored)-1]
	}
	n := topN
	if n > len(scored) {
		n = len(scored)
	}
	ranked.Strong = scored[:n]
	ranked.Weak = scored[len(scored)-n:]
}

// sectorRollup averages member composites per sector tag, strongest first.
func sectorRollup(rows []model.SymbolScore) []model.SectorScore {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, r := range rows {
		if r.Skipped || r.Sector == "" || math.IsNaN(r.Composite) {
			continue
		}
		sums[r.Sector] += r.Composite
		counts[r.Sector]++
	}

	out := make([]model.SectorScore, 0, len(sums))
	for sector, sum := range sums {
		out = append(out, model.SectorScore{
			Sector:  sector,
			Score:   sum / float64(counts[sector]),
			Members: counts[sector],
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Sector < out[j].Sector
	})
	return out
}

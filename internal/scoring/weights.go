package scoring

import (
	"fmt"

	"RSRadar/internal/model"
)

// MetricWeights blends the four normalized metrics into one timeframe score.
type MetricWeights struct {
	Slope       float64
	RelStrength float64
	RelVolume   float64
	VolRatio    float64
}

// Lookbacks holds the per-metric bar windows for one timeframe.
type Lookbacks struct {
	Slope       int
	RelStrength int
	RelVolume   int
	VolRatio    int
}

// Model is a named, versioned scoring configuration. Scoring behavior is
// selected by version rather than branching, so model revisions can coexist.
type Model struct {
	Version          string
	Metrics          MetricWeights
	TimeframeWeights map[model.Timeframe]float64
	Lookbacks        map[model.Timeframe]Lookbacks
	SpotWeights      map[model.Timeframe]float64
	SpotRSLookbacks  map[model.Timeframe]int
	ATRLookback      int
}

// DefaultVersion is the scoring model used when none is configured.
const DefaultVersion = "v1.3"

// Models is the registry of known scoring model versions.
var Models = map[string]Model{
	"v1.3": {
		Version: "v1.3",
		Metrics: MetricWeights{
			Slope:       0.35,
			RelStrength: 0.35,
			RelVolume:   0.15,
			VolRatio:    0.15,
		},
		TimeframeWeights: map[model.Timeframe]float64{
			model.TimeframeWeekly: 0.40,
			model.TimeframeDaily:  0.35,
			model.TimeframeHourly: 0.25,
		},
		Lookbacks: map[model.Timeframe]Lookbacks{
			model.TimeframeWeekly: {Slope: 4, RelStrength: 4, RelVolume: 4, VolRatio: 4},
			model.TimeframeDaily:  {Slope: 5, RelStrength: 10, RelVolume: 10, VolRatio: 10},
			model.TimeframeHourly: {Slope: 10, RelStrength: 20, RelVolume: 20, VolRatio: 20},
		},
		SpotWeights: map[model.Timeframe]float64{
			model.Timeframe1H:  0.50,
			model.Timeframe15M: 0.30,
			model.Timeframe5M:  0.20,
		},
		SpotRSLookbacks: map[model.Timeframe]int{
			model.Timeframe1H:  10,
			model.Timeframe15M: 16,
			model.Timeframe5M:  12,
		},
		ATRLookback: 14,
	},
}

// ModelByVersion looks up a scoring model from the registry.
func ModelByVersion(version string) (Model, error) {
	if version == "" {
		version = DefaultVersion
	}
	m, ok := Models[version]
	if !ok {
		return Model{}, fmt.Errorf("unknown scoring model version %q", version)
	}
	return m, nil
}

// ScanTimeframes returns the model's scan timeframes in blend order.
func (m Model) ScanTimeframes() []model.Timeframe {
	return []model.Timeframe{model.TimeframeWeekly, model.TimeframeDaily, model.TimeframeHourly}
}

// SpotTimeframes returns the model's intraday spot timeframes in blend order.
func (m Model) SpotTimeframes() []model.Timeframe {
	return []model.Timeframe{model.Timeframe1H, model.Timeframe15M, model.Timeframe5M}
}

// Blend combines per-timeframe scores with the given weights, renormalizing
// over the timeframes actually present so a missing timeframe redistributes
// its weight instead of shrinking the result toward zero. The second return
// is false when no weighted timeframe is present.
func Blend(scores map[model.Timeframe]float64, weights map[model.Timeframe]float64) (float64, bool) {
	var weighted, total float64
	for tf, w := range weights {
		s, ok := scores[tf]
		if !ok {
			continue
		}
		weighted += w * s
		total += w
	}
	if total == 0 {
		return 0, false
	}
	return weighted / total, true
}

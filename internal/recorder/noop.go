package recorder

import "RSRadar/internal/model"

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordScan(_ *model.RankedUniverse) error { return nil }
func (n *NoopRecorder) RecordSpot(_ []*model.SpotMetrics) error  { return nil }
func (n *NoopRecorder) Close() error                             { return nil }

package recorder

import "VCPSentinel/internal/model"

// NoopRecorder is a no-op implementation used when persistence is disabled.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) BeginRun(_ *RunInfo) error                          { return nil }
func (n *NoopRecorder) RecordResult(_ string, _ *model.ScreenResult) error { return nil }
func (n *NoopRecorder) FinishRun(_ *RunInfo) error                         { return nil }
func (n *NoopRecorder) LatestCandidates(_ int) ([]CandidateRow, error)     { return nil, nil }
func (n *NoopRecorder) Close() error                                       { return nil }

package recorder

import (
	"time"

	"VCPSentinel/internal/model"
)

// RunInfo describes one screening run.
type RunInfo struct {
	ID         string
	Name       string
	Mode       model.ScreenMode
	AsOf       time.Time
	StartedAt  time.Time
	FinishedAt time.Time
	Tickers    int
	Candidates int
	Failures   int
}

// CandidateRow is a stored signal, as listed by chat commands.
type CandidateRow struct {
	RunID      string
	Symbol     string
	AsOf       time.Time
	Mode       model.ScreenMode
	Price      float64
	Support    float64
	Resistance float64
	Position   float64
	VolRatio   float64
}

// Recorder persists screening runs and their per-ticker results.
type Recorder interface {
	BeginRun(run *RunInfo) error
	RecordResult(runID string, res *model.ScreenResult) error
	FinishRun(run *RunInfo) error
	LatestCandidates(limit int) ([]CandidateRow, error)
	Close() error
}

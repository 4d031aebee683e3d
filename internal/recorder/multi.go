package recorder

import (
	"errors"

	"VCPSentinel/internal/model"
)

// Multi fans every call out to several recorders. Queries are answered by
// the first recorder that returns rows.
type Multi []Recorder

func (m Multi) BeginRun(run *RunInfo) error {
	var errs []error
	for _, r := range m {
		errs = append(errs, r.BeginRun(run))
	}
	return errors.Join(errs...)
}

func (m Multi) RecordResult(runID string, res *model.ScreenResult) error {
	var errs []error
	for _, r := range m {
		errs = append(errs, r.RecordResult(runID, res))
	}
	return errors.Join(errs...)
}

func (m Multi) FinishRun(run *RunInfo) error {
	var errs []error
	for _, r := range m {
		errs = append(errs, r.FinishRun(run))
	}
	return errors.Join(errs...)
}

func (m Multi) LatestCandidates(limit int) ([]CandidateRow, error) {
	for _, r := range m {
		rows, err := r.LatestCandidates(limit)
		if err != nil {
			return nil, err
		}
		if len(rows) > 0 {
			return rows, nil
		}
	}
	return nil, nil
}

func (m Multi) Close() error {
	var errs []error
	for _, r := range m {
		errs = append(errs, r.Close())
	}
	return errors.Join(errs...)
}

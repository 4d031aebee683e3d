package recorder

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"VCPSentinel/internal/model"
)

// JSONFileRecorder keeps a results/<date>/<name>.json document per run with
// the shape {"data": [...]}. Only signals are appended.
type JSONFileRecorder struct {
	Dir string

	mu    sync.Mutex
	files map[string]string
}

// ResultEntry is one appended signal, keyed by ticker in the file.
type ResultEntry struct {
	Mode             model.ScreenMode `json:"mode"`
	CurrentPrice     float64          `json:"current_price"`
	SupportPrice     float64          `json:"support_price"`
	PressurePrice    float64          `json:"pressure_price"`
	IsGoodPivot      bool             `json:"is_good_pivot"`
	IsDeepCorrection bool             `json:"is_deep_correction"`
	IsDemandDry      bool             `json:"is_demand_dry"`
	Position52w      float64          `json:"position_52w"`
	VolumeRatio      float64          `json:"volume_ratio"`
	Footprint        []float64        `json:"footprint,omitempty"`
}

type resultDoc struct {
	Data []map[string]ResultEntry `json:"data"`
}

func NewJSONFileRecorder(dir string) *JSONFileRecorder {
	return &JSONFileRecorder{Dir: dir, files: make(map[string]string)}
}

// PathFor returns the results file of a run.
func (j *JSONFileRecorder) PathFor(run *RunInfo) string {
	name := run.Name
	if name == "" {
		name = "vcp_study"
	}
	return filepath.Join(j.Dir, model.FormatDate(run.AsOf), name+".json")
}

func (j *JSONFileRecorder) BeginRun(run *RunInfo) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	path := j.PathFor(run)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create results dir: %w", err)
	}
	if err := writeDoc(path, &resultDoc{Data: []map[string]ResultEntry{}}); err != nil {
		return err
	}
	j.files[run.ID] = path
	return nil
}

func (j *JSONFileRecorder) RecordResult(runID string, res *model.ScreenResult) error {
	if !res.Signal {
		return nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()

	path, ok := j.files[runID]
	if !ok {
		return fmt.Errorf("results file for run %s not started", runID)
	}
	doc, err := readDoc(path)
	if err != nil {
		return err
	}
	entry := ResultEntry{
		Mode:             res.Mode,
		CurrentPrice:     res.Pivot.Current,
		SupportPrice:     res.Pivot.Support,
		PressurePrice:    res.Pivot.Resistance,
		IsGoodPivot:      res.Pivot.Good,
		IsDeepCorrection: res.CorrectionDeep,
		IsDemandDry:      res.DemandDry.IsDry,
		Position52w:      res.Position.Position,
		VolumeRatio:      res.Volume.Ratio,
	}
	if entry.CurrentPrice == 0 {
		entry.CurrentPrice = res.Position.Current
	}
	for _, fp := range res.Footprint {
		entry.Footprint = append(entry.Footprint, fp.Depth)
	}
	doc.Data = append(doc.Data, map[string]ResultEntry{res.Symbol: entry})
	return writeDoc(path, doc)
}

func (j *JSONFileRecorder) FinishRun(run *RunInfo) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	delete(j.files, run.ID)
	return nil
}

// LatestCandidates is not served from files.
func (j *JSONFileRecorder) LatestCandidates(_ int) ([]CandidateRow, error) { return nil, nil }

func (j *JSONFileRecorder) Close() error { return nil }

func readDoc(path string) (*resultDoc, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read results file: %w", err)
	}
	var doc resultDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode results file %s: %w", path, err)
	}
	return &doc, nil
}

func writeDoc(path string, doc *resultDoc) error {
	data, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write results file: %w", err)
	}
	return os.Rename(tmp, path)
}

package watchlist

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// Entry tracks how long a ticker has been a screen candidate. Streak counts
// consecutive runs in which the ticker signalled.
type Entry struct {
	Symbol    string    `json:"symbol"`
	FirstSeen time.Time `json:"first_seen"`
	LastSeen  time.Time `json:"last_seen"`
	Streak    int       `json:"streak"`
	LastPrice float64   `json:"last_price"`
}

// State is the persisted watchlist.
type State struct {
	Entries   map[string]*Entry `json:"entries"`
	LastRun   time.Time         `json:"last_run"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// LoadState reads the watchlist from a JSON file. Returns an empty state if the file doesn't exist.
func LoadState(filePath string) (*State, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return &State{Entries: map[string]*Entry{}}, nil
		}
		return nil, err
	}
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	if state.Entries == nil {
		state.Entries = map[string]*Entry{}
	}
	return &state, nil
}

// SaveState writes the watchlist to a JSON file.
func SaveState(filePath string, state *State) error {
	state.UpdatedAt = time.Now()
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(filePath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(filePath, data, 0o644)
}

// Package watchlist remembers screen candidates across runs.
package watchlist

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"VCPSentinel/internal/model"
)

// Change is the outcome of applying one run to the watchlist.
type Change struct {
	New     []string // first signal, or returning after a gap
	Kept    []string
	Dropped []string
}

// Manager applies run results to the persisted watchlist with concurrency safety.
type Manager struct {
	mu       sync.Mutex
	state    *State
	filePath string
}

// NewManager creates a Manager, loading state from disk.
func NewManager(filePath string) (*Manager, error) {
	state, err := LoadState(filePath)
	if err != nil {
		return nil, fmt.Errorf("load watchlist: %w", err)
	}
	return &Manager{state: state, filePath: filePath}, nil
}

// Apply folds the signals of a finished run into the watchlist. Tickers that
// signalled before but not in this run are dropped.
func (m *Manager) Apply(runAt time.Time, results []*model.ScreenResult) (Change, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var ch Change
	seen := make(map[string]bool)
	for _, r := range results {
		if r == nil || !r.Signal {
			continue
		}
		seen[r.Symbol] = true
		price := r.Position.Current
		if e, ok := m.state.Entries[r.Symbol]; ok {
			e.LastSeen = runAt
			e.Streak++
			e.LastPrice = price
			ch.Kept = append(ch.Kept, r.Symbol)
			continue
		}
		m.state.Entries[r.Symbol] = &Entry{
			Symbol:    r.Symbol,
			FirstSeen: runAt,
			LastSeen:  runAt,
			Streak:    1,
			LastPrice: price,
		}
		ch.New = append(ch.New, r.Symbol)
	}
	// Only tickers this run actually screened can drop out.
	screened := make(map[string]bool, len(results))
	for _, r := range results {
		if r != nil && r.Error == "" {
			screened[r.Symbol] = true
		}
	}
	for sym := range m.state.Entries {
		if !seen[sym] && screened[sym] {
			delete(m.state.Entries, sym)
			ch.Dropped = append(ch.Dropped, sym)
		}
	}
	sort.Strings(ch.New)
	sort.Strings(ch.Kept)
	sort.Strings(ch.Dropped)

	m.state.LastRun = runAt
	return ch, m.save()
}

// Entries returns a snapshot of the watchlist ordered by longest streak.
func (m *Manager) Entries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Entry, 0, len(m.state.Entries))
	for _, e := range m.state.Entries {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Streak != out[j].Streak {
			return out[i].Streak > out[j].Streak
		}
		return out[i].Symbol < out[j].Symbol
	})
	return out
}

// LastRun returns when the watchlist was last updated by a run.
func (m *Manager) LastRun() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.LastRun
}

func (m *Manager) save() error {
	if m.filePath == "" {
		return nil
	}
	return SaveState(m.filePath, m.state)
}

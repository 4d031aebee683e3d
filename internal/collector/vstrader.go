package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"VCPSentinel/internal/model"
)

// VsTraderFetcher reads daily bars from a vstrader bar server.
type VsTraderFetcher struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
	Now     func() time.Time
}

// NewVsTraderFetcher creates a new fetcher with optional proxy support.
func NewVsTraderFetcher(baseURL, apiKey, proxyURL string) *VsTraderFetcher {
	return &VsTraderFetcher{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Client:  newHTTPClient(proxyURL),
		Now:     time.Now,
	}
}

func (f *VsTraderFetcher) Name() string { return "vstrader" }

// vsDailyBar is one bar of the daily endpoint. Older servers send a unix
// timestamp, newer ones a date. Close and volume are null on halted sessions.
type vsDailyBar struct {
	Date      string   `json:"date"`
	Timestamp int64    `json:"timestamp"`
	Open      float64  `json:"open"`
	High      float64  `json:"high"`
	Low       float64  `json:"low"`
	Close     *float64 `json:"close"`
	Volume    *float64 `json:"volume"`
}

func (b vsDailyBar) day() string {
	if b.Date != "" {
		return b.Date
	}
	if b.Timestamp > 0 {
		return time.Unix(b.Timestamp, 0).UTC().Format(model.DateLayout)
	}
	return ""
}

// FetchDailyBars asks for the bars between days calendar days ago and today.
// An unknown symbol (404) or an empty answer is model.ErrNoData.
func (f *VsTraderFetcher) FetchDailyBars(ctx context.Context, symbol string, days int) ([]model.RawBar, error) {
	to := model.Day(f.Now())
	q := url.Values{}
	q.Set("symbol", strings.ToUpper(symbol))
	q.Set("from", model.FormatDate(to.AddDate(0, 0, -days)))
	q.Set("to", model.FormatDate(to))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.BaseURL+"/api/v1/bars/daily?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if f.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+f.APIKey)
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("vstrader fetch: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("vstrader %s: %w", symbol, model.ErrNoData)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &StatusError{Provider: "vstrader", Code: resp.StatusCode, Body: truncate(body, 256)}
	}

	var raw []vsDailyBar
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("vstrader decode: %w", err)
	}

	byDate := make(map[string]model.RawBar, len(raw))
	for _, vb := range raw {
		d := vb.day()
		if d == "" {
			continue
		}
		byDate[d] = model.RawBar{Date: d, Open: vb.Open, High: vb.High, Low: vb.Low, Close: vb.Close, Volume: vb.Volume}
	}
	if len(byDate) == 0 {
		return nil, fmt.Errorf("vstrader %s: %w", symbol, model.ErrNoData)
	}
	bars := make([]model.RawBar, 0, len(byDate))
	for _, b := range byDate {
		bars = append(bars, b)
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date < bars[j].Date })
	return bars, nil
}

package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"VCPSentinel/internal/model"
)

const yahooBaseURL = "https://query1.finance.yahoo.com"

// indexAliases maps index names used in ticker files to Yahoo symbols.
var indexAliases = map[string]string{
	"SPX":    "^GSPC",
	"SP500":  "^GSPC",
	"SPX500": "^GSPC",
	"NDX":    "^NDX",
	"RUT":    "^RUT",
}

// Yahoo keeps these exchange suffixes after the share-class dash.
var exchangeSuffixes = map[string]bool{
	"L": true, "HK": true, "TO": true, "AX": true, "DE": true, "PA": true, "T": true,
}

// YahooFetcher reads daily bars from the public Yahoo Finance chart API.
type YahooFetcher struct {
	BaseURL string
	Client  *http.Client
	Now     func() time.Time
}

func NewYahooFetcher(proxyURL string) *YahooFetcher {
	return &YahooFetcher{
		BaseURL: yahooBaseURL,
		Client:  newHTTPClient(proxyURL),
		Now:     time.Now,
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

// yahooTicker spells share classes with a dash (BRK.B -> BRK-B) and leaves
// exchange suffixes alone (BT.A.L -> BT-A.L, 0700.HK).
func yahooTicker(symbol string) string {
	if alias, ok := indexAliases[symbol]; ok {
		return alias
	}
	base, suffix := symbol, ""
	if i := strings.LastIndex(symbol, "."); i > 0 && exchangeSuffixes[symbol[i+1:]] {
		base, suffix = symbol[:i], symbol[i:]
	}
	return strings.ReplaceAll(base, ".", "-") + suffix
}

type chartQuote struct {
	Open   []*float64 `json:"open"`
	High   []*float64 `json:"high"`
	Low    []*float64 `json:"low"`
	Close  []*float64 `json:"close"`
	Volume []*float64 `json:"volume"`
}

type chartSeries struct {
	Meta struct {
		Timezone string `json:"exchangeTimezoneName"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []chartQuote `json:"quote"`
	} `json:"indicators"`
}

type chartEnvelope struct {
	Chart struct {
		Result []chartSeries `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func (f *YahooFetcher) chartURL(symbol string, days int) string {
	to := f.Now()
	from := to.AddDate(0, 0, -days)
	q := url.Values{}
	q.Set("interval", "1d")
	q.Set("period1", strconv.FormatInt(from.Unix(), 10))
	q.Set("period2", strconv.FormatInt(to.Unix(), 10))
	return f.BaseURL + "/v8/finance/chart/" + url.PathEscape(yahooTicker(symbol)) + "?" + q.Encode()
}

// FetchDailyBars returns the daily bars of the last days calendar days.
func (f *YahooFetcher) FetchDailyBars(ctx context.Context, symbol string, days int) ([]model.RawBar, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.chartURL(symbol, days), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("yahoo %s: %w", symbol, model.ErrNoData)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &StatusError{Provider: "yahoo", Code: resp.StatusCode, Body: truncate(body, 256)}
	}

	var env chartEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("yahoo %s: decode chart: %w", symbol, err)
	}
	if e := env.Chart.Error; e != nil {
		if e.Code == "Not Found" {
			return nil, fmt.Errorf("yahoo %s: %s: %w", symbol, e.Description, model.ErrNoData)
		}
		return nil, fmt.Errorf("yahoo %s: %s", symbol, e.Description)
	}
	if len(env.Chart.Result) == 0 {
		return nil, fmt.Errorf("yahoo %s: %w", symbol, model.ErrNoData)
	}
	bars := env.Chart.Result[0].bars()
	if len(bars) == 0 {
		return nil, fmt.Errorf("yahoo %s: %w", symbol, model.ErrNoData)
	}
	return bars, nil
}

// bars converts the series to exchange-local daily bars. Rows with no prices
// are holidays and are dropped. A second row on the same day is the live
// session's partial bar and is dropped too.
func (s chartSeries) bars() []model.RawBar {
	if len(s.Indicators.Quote) == 0 {
		return nil
	}
	loc := time.UTC
	if s.Meta.Timezone != "" {
		if l, err := time.LoadLocation(s.Meta.Timezone); err == nil {
			loc = l
		}
	}
	q := s.Indicators.Quote[0]
	out := make([]model.RawBar, 0, len(s.Timestamp))
	seen := make(map[string]struct{}, len(s.Timestamp))
	for i, ts := range s.Timestamp {
		open, high, low, cl := pick(q.Open, i), pick(q.High, i), pick(q.Low, i), pick(q.Close, i)
		if open == nil && high == nil && low == nil && cl == nil {
			continue
		}
		day := time.Unix(ts, 0).In(loc).Format(model.DateLayout)
		if _, dup := seen[day]; dup {
			continue
		}
		seen[day] = struct{}{}
		out = append(out, model.RawBar{
			Date:   day,
			Open:   valueOr0(open),
			High:   valueOr0(high),
			Low:    valueOr0(low),
			Close:  cl,
			Volume: pick(q.Volume, i),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

func pick(vals []*float64, i int) *float64 {
	if i < len(vals) {
		return vals[i]
	}
	return nil
}

func valueOr0(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

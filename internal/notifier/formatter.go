package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"VCPSentinel/internal/model"
	"VCPSentinel/internal/recorder"
	"VCPSentinel/internal/watchlist"
)

// maxListed caps the tickers listed in one message.
const maxListed = 30

// RunReport is what a finished run tells the chat.
type RunReport struct {
	Name       string
	Mode       model.ScreenMode
	AsOf       time.Time
	Screened   int
	Failures   int
	Elapsed    time.Duration
	Candidates []*model.ScreenResult
	Change     *watchlist.Change
}

func mark(ok bool) string {
	if ok {
		return "✅"
	}
	return "❌"
}

// FormatRunReport formats the candidates of a run into a Telegram message.
func FormatRunReport(r *RunReport) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>VCP screen</b> | %s | %s\n", html.EscapeString(r.Name), model.FormatDate(r.AsOf)))
	b.WriteString(fmt.Sprintf("Mode: %s | screened %d | failed %d | %s\n\n",
		r.Mode, r.Screened, r.Failures, r.Elapsed.Round(time.Second)))

	if len(r.Candidates) == 0 {
		b.WriteString("No candidates today.\n")
		return b.String()
	}

	isNew := map[string]bool{}
	if r.Change != nil {
		for _, s := range r.Change.New {
			isNew[s] = true
		}
	}

	b.WriteString(fmt.Sprintf("🎯 <b>%d candidate(s):</b>\n", len(r.Candidates)))
	for i, c := range r.Candidates {
		if i == maxListed {
			b.WriteString(fmt.Sprintf("… and %d more\n", len(r.Candidates)-maxListed))
			break
		}
		tag := ""
		if isNew[c.Symbol] {
			tag = " 🆕"
		}
		b.WriteString(fmt.Sprintf("• <b>%s</b>%s %.2f | pos %.0f%% | vol ×%.2f",
			html.EscapeString(c.Symbol), tag, c.Position.Current, c.Position.Position*100, c.Volume.Ratio))
		if c.Mode == model.ModeFull {
			b.WriteString(fmt.Sprintf(" | pivot %.2f–%.2f", c.Pivot.Support, c.Pivot.Resistance))
		}
		b.WriteString("\n")
	}

	if r.Change != nil && len(r.Change.Dropped) > 0 {
		b.WriteString(fmt.Sprintf("\n📤 Dropped: %s\n", html.EscapeString(strings.Join(r.Change.Dropped, ", "))))
	}
	return b.String()
}

// FormatResult formats the full breakdown of one ticker.
func FormatResult(res *model.ScreenResult) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🔎 <b>%s</b> | %s | %s\n\n", html.EscapeString(res.Symbol), model.FormatDate(res.AsOf), res.Mode))
	if res.Error != "" {
		b.WriteString(fmt.Sprintf("⚠️ Analysis failed: %s\n", html.EscapeString(res.Error)))
		return b.String()
	}

	t := res.Trend
	b.WriteString(fmt.Sprintf("%s Trend: price %.2f | SMA50 %.2f | SMA150 %.2f | SMA200 %.2f\n",
		mark(t.Passed), t.CurrentPrice, t.SMA50, t.SMA150, t.SMA200))
	b.WriteString(fmt.Sprintf("   SMA200 rising: %v | 30d slope %+.3f\n", t.SMA200Rising, t.PriceSlope30d))

	v := res.Volume
	b.WriteString(fmt.Sprintf("%s Volume: recent %.0f vs base %.0f (×%.2f)\n", mark(v.Passed), v.RecentAvg, v.BaselineAvg, v.Ratio))

	p := res.Position
	b.WriteString(fmt.Sprintf("%s 52w position: %.0f%% (low %.2f, high %.2f)\n", mark(p.Passed), p.Position*100, p.Low52w, p.High52w))

	if res.Mode == model.ModeFull {
		b.WriteString(fmt.Sprintf("%s Pivot: support %.2f, resistance %.2f\n", mark(res.Pivot.Good), res.Pivot.Support, res.Pivot.Resistance))
		b.WriteString(fmt.Sprintf("%s Correction depth ok\n", mark(!res.CorrectionDeep)))
		b.WriteString(fmt.Sprintf("%s Demand dry\n", mark(res.DemandDry.IsDry)))
		if len(res.Footprint) > 0 {
			depths := make([]string, len(res.Footprint))
			for i, f := range res.Footprint {
				depths[i] = fmt.Sprintf("%.1f%%", f.Depth*100)
			}
			b.WriteString(fmt.Sprintf("   Footprint: %s\n", strings.Join(depths, " → ")))
		}
	}

	b.WriteString(fmt.Sprintf("\nSignal: %s\n", mark(res.Signal)))
	return b.String()
}

// FormatCandidates lists stored candidates for the /candidates command.
func FormatCandidates(rows []recorder.CandidateRow) string {
	if len(rows) == 0 {
		return "No stored candidates yet."
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🎯 <b>Latest candidates</b> | %s\n\n", model.FormatDate(rows[0].AsOf)))
	for _, r := range rows {
		b.WriteString(fmt.Sprintf("• <b>%s</b> %.2f | pivot %.2f–%.2f | pos %.0f%%\n",
			html.EscapeString(r.Symbol), r.Price, r.Support, r.Resistance, r.Position*100))
	}
	return b.String()
}

// FormatWatchlist formats the persisted watchlist.
func FormatWatchlist(entries []watchlist.Entry, lastRun time.Time) string {
	if len(entries) == 0 {
		return "Watchlist is empty."
	}
	var b strings.Builder
	b.WriteString("📋 <b>Watchlist</b>\n\n")
	for _, e := range entries {
		b.WriteString(fmt.Sprintf("• <b>%s</b> since %s | %d run(s) | %.2f\n",
			html.EscapeString(e.Symbol), model.FormatDate(e.FirstSeen), e.Streak, e.LastPrice))
	}
	if !lastRun.IsZero() {
		b.WriteString(fmt.Sprintf("\nUpdated: %s\n", lastRun.Format("2006-01-02 15:04")))
	}
	return b.String()
}

// FormatHelp lists the chat commands.
func FormatHelp() string {
	return "Available commands:\n" +
		"• /scan TICKER [TICKER…] - full screen of tickers\n" +
		"• /quick TICKER [TICKER…] - trend/volume/price only\n" +
		"• /run - screen the whole universe now\n" +
		"• /candidates - latest stored candidates\n" +
		"• /watchlist - tickers currently signalling"
}

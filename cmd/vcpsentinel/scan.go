package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"VCPSentinel/internal/logger"
	"VCPSentinel/internal/model"
	"VCPSentinel/internal/screener"
	"VCPSentinel/internal/universe"
)

type scanOptions struct {
	market   string
	file     string
	name     string
	asOf     string
	workers  int
	prefetch bool
	notify   bool
	asJSON   bool
	all      bool
}

func newScanCmd(root *rootOptions, use, short string, quick bool) *cobra.Command {
	opts := &scanOptions{}
	cmd := &cobra.Command{
		Use:   use + " [TICKER...]",
		Short: short,
		Long: short + ".\n\nTickers given as arguments take precedence over --file, " +
			"which takes precedence over --market and the configured universe.",
		RunE: func(cmd *cobra.Command, args []string) error {
			mode := model.ModeFull
			if quick {
				mode = model.ModeQuick
			}
			return runScan(cmd, root, opts, mode, args)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.market, "market", "m", "", "ticker universe: US, UK, HK, BOTH or ALL")
	f.StringVarP(&opts.file, "file", "f", "", "file listing tickers")
	f.StringVarP(&opts.name, "name", "n", "", "run name, also the results file name")
	f.StringVar(&opts.asOf, "as-of", "", "evaluation date YYYY-MM-DD (default today)")
	f.IntVarP(&opts.workers, "workers", "w", 0, "concurrent tickers (default from config)")
	f.BoolVar(&opts.prefetch, "prefetch", false, "download all series before screening")
	f.BoolVar(&opts.notify, "notify", false, "send the run report to the configured chat")
	f.BoolVar(&opts.asJSON, "json", false, "print results as JSON")
	f.BoolVarP(&opts.all, "all", "a", false, "print every screened ticker, not only signals")
	return cmd
}

func runScan(cmd *cobra.Command, root *rootOptions, opts *scanOptions, mode model.ScreenMode, args []string) error {
	cfg := root.cfg
	if opts.market != "" {
		cfg.Universe.Market = opts.market
		cfg.Universe.File = ""
	}
	if opts.file != "" {
		cfg.Universe.File = opts.file
	}
	if len(args) > 0 {
		cfg.Universe.Symbols = args
	}
	if opts.workers > 0 {
		cfg.Screener.Workers = opts.workers
	}
	if opts.prefetch {
		cfg.Screener.Prefetch = true
	}
	if opts.name != "" {
		cfg.Results.Name = opts.name
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	symbols, err := universe.Resolve(cfg.Universe)
	if err != nil {
		return fmt.Errorf("resolve universe: %w", err)
	}
	if len(symbols) == 0 {
		return fmt.Errorf("resolve universe: no tickers")
	}

	ctx := cmd.Context()
	a, err := newApp(ctx, cfg, opts.notify)
	if err != nil {
		return err
	}
	defer a.close()

	if opts.asOf != "" {
		asOf, err := model.ParseDate(opts.asOf)
		if err != nil {
			return fmt.Errorf("--as-of: %w", err)
		}
		a.scheduler.Now = func() time.Time { return asOf }
	}

	logger.Info("scan started",
		zap.String("mode", string(mode)),
		zap.Int("tickers", len(symbols)),
		zap.Int("workers", cfg.Screener.Workers))
	run, err := a.scheduler.RunSymbols(ctx, cfg.Results.Name, symbols, mode)
	if run == nil {
		return err
	}
	out := cmd.OutOrStdout()
	if opts.asJSON {
		if perr := printJSON(out, run, opts.all); perr != nil {
			return perr
		}
	} else {
		printTable(out, run, opts.all)
	}
	logger.Info("scan finished",
		zap.String("run_id", run.ID),
		zap.Int("candidates", len(run.Candidates())),
		zap.Int("failures", len(run.Failures())),
		logger.Elapsed(run.StartedAt))
	return err
}

func selectResults(run *screener.Run, all bool) []*model.ScreenResult {
	if all {
		return run.Results
	}
	return run.Candidates()
}

func printJSON(w io.Writer, run *screener.Run, all bool) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		RunID   string                `json:"run_id"`
		Name    string                `json:"name"`
		Mode    model.ScreenMode      `json:"mode"`
		AsOf    string                `json:"as_of"`
		Results []*model.ScreenResult `json:"results"`
	}{run.ID, run.Name, run.Mode, model.FormatDate(run.AsOf), selectResults(run, all)})
}

func yesNo(ok bool) string {
	if ok {
		return "yes"
	}
	return "-"
}

func printTable(w io.Writer, run *screener.Run, all bool) {
	signals := color.New(color.Faint)
	if len(run.Candidates()) > 0 {
		signals = color.New(color.FgGreen, color.Bold)
	}
	errs := color.New(color.Faint)
	if len(run.Failures()) > 0 {
		errs = color.New(color.FgYellow)
	}
	fmt.Fprintf(w, "%s %s scan as of %s: %d screened, %s, %s (%s)\n\n",
		run.Name, strings.ToLower(string(run.Mode)), model.FormatDate(run.AsOf), len(run.Results),
		signals.Sprintf("%d signals", len(run.Candidates())),
		errs.Sprintf("%d errors", len(run.Failures())),
		run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond))

	results := selectResults(run, all)
	if len(results) == 0 {
		fmt.Fprintln(w, "No tickers passed the screen.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TICKER\tSIGNAL\tPRICE\tSUPPORT\tPIVOT\tPOS52W\tVOL\tTIGHT\tDEEP\tDRY\tFOOTPRINT\tERROR")
	for _, r := range results {
		depths := make([]string, len(r.Footprint))
		for i, fp := range r.Footprint {
			depths[i] = fmt.Sprintf("%.1f%%", fp.Depth*100)
		}
		fmt.Fprintf(tw, "%s\t%s\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t%s\t%s\t%s\t%s\t%s\n",
			r.Symbol, yesNo(r.Signal), r.Trend.CurrentPrice, r.Pivot.Support, r.Pivot.Resistance,
			r.Position.Position, r.Volume.Ratio, yesNo(r.Pivot.Good), yesNo(r.CorrectionDeep),
			yesNo(r.DemandDry.IsDry), strings.Join(depths, " "), r.Error)
	}
	tw.Flush()
}

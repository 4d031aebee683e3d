package main

import (
	"context"
	"errors"
	"os"
	"sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"VCPSentinel/internal/logger"
	"VCPSentinel/internal/metrics"
	"VCPSentinel/internal/model"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var runOnStart bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run scheduled scans, chat commands and the metrics endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := root.cfg
			if err := cfg.ValidateServe(); err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			a, err := newApp(ctx, cfg, true)
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.scheduler.RegisterAll(cfg.Schedule.FullCron, cfg.Schedule.QuickCron); err != nil {
				return err
			}
			a.scheduler.Start()
			defer a.scheduler.Stop()

			var wg sync.WaitGroup
			errCh := make(chan error, 1)
			if cfg.Metrics.Addr != "" {
				wg.Add(1)
				go func() {
					defer wg.Done()
					router := metrics.NewRouter(a.metrics, a.healthStatus)
					if err := metrics.Serve(ctx, cfg.Metrics.Addr, router); err != nil {
						errCh <- err
						cancel()
					}
				}()
			}
			if a.telegram != nil {
				wg.Add(1)
				go func() {
					defer wg.Done()
					a.telegram.StartPolling(ctx, a.scheduler.HandleCommand)
				}()
			}
			if runOnStart {
				go func() {
					if _, err := a.scheduler.RunUniverse(ctx, model.ModeFull); err != nil && !errors.Is(err, context.Canceled) {
						logger.Warn("startup scan failed", zap.Error(err))
					}
				}()
			}

			logger.Info("vcpsentinel serving",
				zap.String("full_cron", cfg.Schedule.FullCron),
				zap.String("quick_cron", cfg.Schedule.QuickCron),
				zap.String("metrics_addr", cfg.Metrics.Addr),
				zap.Bool("telegram", a.telegram != nil))

			<-ctx.Done()
			logger.Info("shutting down")
			cancel()
			wg.Wait()
			select {
			case err := <-errCh:
				return err
			default:
				return nil
			}
		},
	}
	cmd.Flags().BoolVar(&runOnStart, "run-on-start", os.Getenv("RUN_ON_START") == "true", "screen the universe once at startup")
	return cmd
}

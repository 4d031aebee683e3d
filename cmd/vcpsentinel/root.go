package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"VCPSentinel/internal/config"
	"VCPSentinel/internal/logger"
)

type rootOptions struct {
	configPath string
	logLevel   string
	noColor    bool
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "vcpsentinel",
		Short:         "Volatility contraction pattern stock screener",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.noColor {
				color.NoColor = true
			}
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if opts.logLevel != "" {
				cfg.Log.Level = opts.logLevel
			}
			if err := logger.Init(cfg.Log.Level, cfg.Log.Environment); err != nil {
				return err
			}
			logger.Debug("config loaded", zap.String("path", opts.configPath))
			opts.cfg = cfg
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", config.Path(), "path to the YAML config file")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	root.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "disable colored output")

	root.AddCommand(
		newScanCmd(opts, "scan", "Run the full VCP screen", false),
		newScanCmd(opts, "quick", "Run the trend/volume/price pre-screen only", true),
		newServeCmd(opts),
	)
	return root
}

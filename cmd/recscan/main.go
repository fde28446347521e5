package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/AnTengye/recscan/config"
	"github.com/AnTengye/recscan/pkg/logger"
	"github.com/AnTengye/recscan/service"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type options struct {
	configPath string
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "recscan",
		Short: "Scan technical PDF reports for recommendations",
		Long: `recscan reads a project workbook, finds the report PDF named on each row
and extracts the recommendations it contains, either by keyword matching
or by asking a completion model.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts.configPath, cmd.Flags().Changed("config"))
			if err != nil {
				return err
			}
			logger.Init(&logger.Config{
				Level:  cfg.Log.Level,
				Format: cfg.Log.Format,
				Output: cmd.ErrOrStderr(),
			})
			opts.cfg = cfg
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "config.yaml", "Path to the YAML configuration file")

	rootCmd.AddCommand(
		newScanCmd(opts),
		newSheetsCmd(opts),
		newReportsCmd(opts),
		newAnalyzeCmd(opts),
	)
	return rootCmd
}

// loadConfig falls back to defaults when the default config file is absent.
// A path given explicitly must exist.
func loadConfig(path string, explicit bool) (*config.Config, error) {
	cfg, err := config.Load(path)
	if errors.Is(err, os.ErrNotExist) && !explicit {
		cfg, err = config.Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// app holds the services a command runs against.
type app struct {
	source       service.ReportSource
	scanner      *service.Scanner
	recommenders *service.Recommenders
}

// newApp wires the report source and recommenders. The completion backend is
// only built when strategy needs it.
func newApp(ctx context.Context, cfg *config.Config, strategy string) (*app, error) {
	source, err := service.NewReportSource(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("report source: %w", err)
	}

	var completer service.Completer
	if strategy == config.StrategyModel {
		if completer, err = service.NewCompleter(&cfg.LLM, nil); err != nil {
			return nil, fmt.Errorf("completion backend: %w", err)
		}
	}

	resolver := service.NewResolver(source, cfg.Reports.SimilarityThreshold)
	return &app{
		source:       source,
		scanner:      service.NewScanner(source, resolver, service.NewPDFTextExtractor(), cfg.Reports.Workers, nil),
		recommenders: service.NewRecommenders(&cfg.Extraction, &cfg.LLM, completer),
	}, nil
}

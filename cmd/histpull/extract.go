package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"histpull/internal/checkpoint"
	"histpull/internal/config"
	"histpull/internal/fetch"
	"histpull/internal/progress"
	"histpull/internal/runner"
	"histpull/internal/source"
	"histpull/internal/sysres"
	"histpull/internal/version"
	"histpull/internal/writer"
)

func newExtractCmd() *cobra.Command {
	var (
		configPath string
		startDate  string
		endDate    string
		instrument string
		outputDir  string
		resume     bool
	)

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Fetch daily records over a date range and write monthly parquet artifacts",
		Long: "Fetches daily records for one instrument between the start and end dates,\n" +
			"batches them by calendar month, and writes one parquet artifact per month.\n" +
			"Completed months are checkpointed; an interrupted run resumes where it left off.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadAndValidate(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			// CLI flags override the config file.
			if startDate != "" {
				cfg.Extract.StartDate = startDate
			}
			if endDate != "" {
				cfg.Extract.EndDate = endDate
			}
			if instrument != "" {
				cfg.Extract.Instrument = instrument
			}
			if outputDir != "" {
				cfg.Output.Dir = outputDir
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger := newLogger(cfg.Log.Level)
			logger.Info("starting histpull",
				"version", version.Version,
				"commit", version.Commit,
				"config", configPath,
			)

			dateRange, err := cfg.DateRange()
			if err != nil {
				return err
			}

			workers := cfg.Fetch.Workers
			if workers == 0 {
				res := sysres.Detect()
				workers = res.Workers()
				logger.Info("derived worker count",
					"cores", res.Cores,
					"memory_gb", res.MemoryBytes>>30,
					"workers", workers,
				)
			}

			client := source.NewClient(
				cfg.Source.BaseURL,
				source.Credentials{Email: cfg.Source.Email, AccessCode: cfg.Source.AccessCode},
				source.WithLogger(logger),
				source.WithTimeout(cfg.Source.Timeout),
				source.WithRetries(cfg.Source.MaxRetries, cfg.Source.RetryBackoff),
				source.WithRateLimit(cfg.Source.RatePerSec, cfg.Source.RateBurst),
			)

			store, err := checkpoint.Open(cfg.Checkpoint.Path, logger)
			if err != nil {
				return err
			}

			reporter := progress.NewLogReporter(logger, 2*time.Second)

			fetcher := fetch.New(fetch.Config{
				Workers:         workers,
				DayTimeout:      cfg.Fetch.DayTimeout,
				RequiredColumns: cfg.Extract.RequiredColumns,
			}, client, reporter, logger)

			run := runner.New(
				runner.Config{
					Instrument:      cfg.Extract.Instrument,
					Range:           dateRange,
					RequiredColumns: cfg.Extract.RequiredColumns,
					Resume:          resume,
				},
				client,
				fetcher,
				writer.New(cfg.Output.Dir, cfg.Extract.RequiredColumns, logger),
				store,
				reporter,
				logger,
			)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			summary, err := run.Run(ctx)
			if err != nil {
				return err
			}

			for key, reason := range summary.Failures {
				logger.Error("segment did not complete", "segment", key, "reason", reason)
			}
			if summary.Failed > 0 {
				return fmt.Errorf("%d segment(s) failed", summary.Failed)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "histpull.yaml", "path to config file")
	cmd.Flags().StringVar(&startDate, "start", "", "start date (YYYY-MM-DD), overrides config")
	cmd.Flags().StringVar(&endDate, "end", "", "end date (YYYY-MM-DD), overrides config")
	cmd.Flags().StringVar(&instrument, "instrument", "", "instrument name, overrides config")
	cmd.Flags().StringVar(&outputDir, "out", "", "output directory, overrides config")
	cmd.Flags().BoolVar(&resume, "resume", true, "skip segments already checkpointed done")

	return cmd
}

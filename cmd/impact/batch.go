package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"phantomImpact/internal/batch"
	"phantomImpact/internal/config"
	"phantomImpact/internal/impact"
	"phantomImpact/internal/snapshot"
	"phantomImpact/internal/storage"
	"phantomImpact/internal/storage/postgres"
)

func runBatch(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadBatch(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Pool == "" {
		return fmt.Errorf("pool snapshot path is required")
	}
	if cfg.In == "" {
		return fmt.Errorf("input path is required")
	}
	if cfg.Out == "" {
		return fmt.Errorf("output path is required")
	}
	if cfg.Errors == "" {
		return fmt.Errorf("errors path is required")
	}

	pool, meta, err := snapshot.Load(cfg.Pool)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var input io.Reader = os.Stdin
	if cfg.In != "-" {
		inputFile, err := os.Open(cfg.In)
		if err != nil {
			return fmt.Errorf("open input: %w", err)
		}
		defer inputFile.Close()
		input = inputFile
	}

	jsonlSink := storage.NewJsonlStorage(cfg.Out)
	if !cfg.CheckpointEnabled {
		if err := jsonlSink.Truncate(); err != nil {
			return err
		}
	}
	sinks := []storage.Storage{jsonlSink}

	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		sinks = append(sinks, store)
	}

	errWriter, err := newJSONLWriter(cfg.Errors, cfg.CheckpointEnabled)
	if err != nil {
		return err
	}
	defer errWriter.Close()

	logger.Info("batch start",
		zap.String("pool", meta.PoolID),
		zap.Int("tokens", pool.TokenCount()),
		zap.String("kind", string(pool.Kind)),
		zap.String("in", cfg.In),
		zap.String("out", cfg.Out),
		zap.String("errors", cfg.Errors),
		zap.Bool("postgres", cfg.PGDSN != ""),
		zap.Int("batch_size", cfg.BatchSize),
		zap.Bool("estimate_missing", cfg.EstimateMissing),
		zap.Bool("checkpoint_enabled", cfg.CheckpointEnabled),
	)

	runner := batch.NewRunner(batch.RunConfig{
		Input:             cfg.In,
		BatchSize:         cfg.BatchSize,
		MaxRetries:        cfg.MaxRetries,
		RetryBackoff:      cfg.RetryBackoff,
		EstimateMissing:   cfg.EstimateMissing,
		CheckpointPath:    cfg.Checkpoint,
		CheckpointEnabled: cfg.CheckpointEnabled,
	}, impact.NewCalculator(nil, logger), pool, meta, sinks, errWriter, logger)

	_, err = runner.Run(ctx, input)
	return err
}

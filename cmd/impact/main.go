package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	root := &cobra.Command{
		Use:          "impact",
		Short:        "Phantom-stable pool deposit price impact",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	joinCmd := &cobra.Command{
		Use:   "join",
		Short: "Compute the price impact of a single deposit",
		RunE:  runJoin,
	}

	joinCmd.Flags().String("pool", "", "pool snapshot JSON path")
	joinCmd.Flags().StringSlice("amounts", nil, "deposit amount per pool token, human readable (comma-separated)")
	joinCmd.Flags().String("quoted-shares", "", "pool shares returned by the join quote, empty if unavailable")
	joinCmd.Flags().Bool("estimate-quote", false, "estimate the join quote from pool math when --quoted-shares is empty")
	joinCmd.Flags().String("output", "json", "output format (json, text)")
	joinCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(joinCmd)

	batchCmd := &cobra.Command{
		Use:   "batch",
		Short: "Compute price impact for a JSONL stream of deposits",
		RunE:  runBatch,
	}

	batchCmd.Flags().String("pool", "", "pool snapshot JSON path")
	batchCmd.Flags().String("in", "", "input requests JSONL, - for stdin")
	batchCmd.Flags().String("out", "./data/price_impact.jsonl", "output records JSONL")
	batchCmd.Flags().String("errors", "./data/price_impact_errors.jsonl", "failed requests JSONL")
	batchCmd.Flags().String("pg-dsn", "", "Postgres DSN, enables the price_impact_quotes sink")
	batchCmd.Flags().Int("batch-size", 500, "records per flush")
	batchCmd.Flags().Int("max-retries", 5, "maximum retry attempts per flush")
	batchCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	batchCmd.Flags().Bool("estimate-missing", false, "estimate join quotes for requests without quoted_shares")
	batchCmd.Flags().String("checkpoint", "./data/impact_checkpoint.json", "checkpoint file path")
	batchCmd.Flags().Bool("checkpoint-enabled", false, "resume from the last flushed input line")
	batchCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(batchCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

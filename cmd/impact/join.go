package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"phantomImpact/internal/batch"
	"phantomImpact/internal/config"
	"phantomImpact/internal/impact"
	"phantomImpact/internal/model"
	"phantomImpact/internal/snapshot"
)

func runJoin(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadJoin(cfgFile, cmd.Flags())
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
	if len(cfg.Amounts) == 0 {
		return fmt.Errorf("amounts are required")
	}

	pool, meta, err := snapshot.Load(cfg.Pool)
	if err != nil {
		return err
	}

	quoted := cfg.QuotedShares
	estimated := false
	if quoted == "" && cfg.EstimateQuote && pool.Kind != impact.Withdrawal {
		estimate, err := impact.EstimateJoin(cfg.Amounts, pool)
		if err != nil {
			return fmt.Errorf("estimate quote: %w", err)
		}
		quoted = estimate.String()
		estimated = true
	}

	req := impact.DepositRequest{Amounts: cfg.Amounts}
	if quoted != "" {
		req.QuotedShares = &quoted
	}

	logger.Debug("join start",
		zap.String("pool", meta.PoolID),
		zap.Strings("amounts", cfg.Amounts),
		zap.String("quoted_shares", quoted),
		zap.Bool("estimated", estimated),
	)

	res, err := impact.NewCalculator(nil, logger).PriceImpact(req, pool)
	if err != nil {
		return err
	}

	return writeRecord(cmd.OutOrStdout(), cfg.Output, batch.NewRecord("", meta.PoolID, res, estimated, time.Now()))
}

func writeRecord(w io.Writer, format string, record model.ImpactRecord) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(record)
	case "text":
		if record.Status != string(impact.StatusMeasured) {
			_, err := fmt.Fprintf(w, "price impact: %s%% (%s %s)\n", record.Percent, record.Status, record.Reason)
			return err
		}
		_, err := fmt.Fprintf(w, "price impact: %s%% (%s)\nzero-impact shares: %s\nquoted shares: %s\n",
			record.Percent, record.Severity, record.ZeroImpactShares, record.QuotedShares)
		if err == nil && record.Warning != "" {
			_, err = fmt.Fprintln(w, record.Warning)
		}
		return err
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

package batch

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"phantomImpact/internal/impact"
	"phantomImpact/internal/model"
	"phantomImpact/internal/snapshot"
	"phantomImpact/internal/storage"
)

// ErrorSink receives requests that could not be evaluated. Rejections are
// written when the batch they belong to is flushed, before the checkpoint
// advances. A sink that also has Flush() error is flushed at that point.
type ErrorSink interface {
	Write(value interface{}) error
}

type flusher interface {
	Flush() error
}

// RunConfig holds runtime settings for a batch run.
type RunConfig struct {
	// Input names the request stream for checkpointing.
	Input             string
	BatchSize         int
	MaxRetries        int
	RetryBackoff      time.Duration
	EstimateMissing   bool
	CheckpointPath    string
	CheckpointEnabled bool
	// Now defaults to time.Now.
	Now func() time.Time
}

// Stats counts request outcomes of a run.
type Stats struct {
	Total         int
	Resumed       int
	Measured      int
	Unavailable   int
	NotApplicable int
	Estimated     int
	Failed        int
}

// Runner evaluates a stream of deposit requests against one pool snapshot.
type Runner struct {
	cfg        RunConfig
	calc       *impact.Calculator
	pool       impact.PoolState
	meta       snapshot.Meta
	sinks      []storage.Storage
	errors     ErrorSink
	logger     *zap.Logger
	checkpoint *CheckpointStore
	rejected   []model.QuoteError
}

// NewRunner builds a Runner with its dependencies.
func NewRunner(cfg RunConfig, calc *impact.Calculator, pool impact.PoolState, meta snapshot.Meta, sinks []storage.Storage, errSink ErrorSink, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if calc == nil {
		calc = impact.NewCalculator(nil, logger)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Runner{
		cfg:        cfg,
		calc:       calc,
		pool:       pool,
		meta:       meta,
		sinks:      sinks,
		errors:     errSink,
		logger:     logger,
		checkpoint: NewCheckpointStore(cfg.CheckpointPath, cfg.CheckpointEnabled),
	}
}

// Run reads JSONL requests from in until EOF and writes one record per
// evaluated request to every sink.
func (r *Runner) Run(ctx context.Context, in io.Reader) (Stats, error) {
	var stats Stats
	if len(r.sinks) == 0 {
		return stats, fmt.Errorf("at least one sink is required")
	}
	if r.cfg.BatchSize <= 0 {
		return stats, fmt.Errorf("batch size must be greater than zero")
	}

	skipUntil := 0
	cp, ok, err := r.checkpoint.Load(r.cfg.Input)
	if err != nil {
		return stats, err
	}
	if ok {
		skipUntil = cp.LastProcessedLine
		r.logger.Info("resume from checkpoint", zap.Int("last_processed_line", skipUntil))
	}

	scanner := bufio.NewScanner(in)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	pending := make([]model.ImpactRecord, 0, r.cfg.BatchSize)
	r.rejected = r.rejected[:0]
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		if lineNo <= skipUntil {
			stats.Resumed++
			continue
		}

		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		default:
		}

		stats.Total++
		record, ok := r.evaluate(lineNo, line, &stats)
		if ok {
			pending = append(pending, record)
		} else {
			stats.Failed++
		}

		if len(pending)+len(r.rejected) >= r.cfg.BatchSize {
			if err := r.flush(ctx, pending, lineNo); err != nil {
				return stats, err
			}
			pending = pending[:0]
		}
	}

	if err := scanner.Err(); err != nil {
		return stats, fmt.Errorf("scan input: %w", err)
	}
	switch {
	case len(pending) > 0 || len(r.rejected) > 0:
		if err := r.flush(ctx, pending, lineNo); err != nil {
			return stats, err
		}
	case lineNo > skipUntil:
		if err := r.checkpoint.Save(r.cfg.Input, lineNo); err != nil {
			return stats, err
		}
	}

	r.logger.Info("batch complete",
		zap.Int("total", stats.Total),
		zap.Int("resumed", stats.Resumed),
		zap.Int("measured", stats.Measured),
		zap.Int("unavailable", stats.Unavailable),
		zap.Int("not_applicable", stats.NotApplicable),
		zap.Int("estimated", stats.Estimated),
		zap.Int("failed", stats.Failed),
	)
	return stats, nil
}

func (r *Runner) evaluate(lineNo int, line []byte, stats *Stats) (model.ImpactRecord, bool) {
	var req model.ImpactRequest
	if err := json.Unmarshal(line, &req); err != nil {
		r.reject(model.QuoteError{Line: lineNo, Kind: KindDecode, Error: err.Error()})
		return model.ImpactRecord{}, false
	}
	if req.PoolID != "" && r.meta.PoolID != "" && !strings.EqualFold(req.PoolID, r.meta.PoolID) {
		r.reject(quoteError(lineNo, req, KindPoolMismatch, fmt.Errorf("request for pool %s, snapshot is %s", req.PoolID, r.meta.PoolID)))
		return model.ImpactRecord{}, false
	}

	estimated := false
	if r.cfg.EstimateMissing && r.pool.Kind != impact.Withdrawal && (req.QuotedShares == nil || strings.TrimSpace(*req.QuotedShares) == "") {
		quote, err := impact.EstimateJoin(req.Amounts, r.pool)
		if err != nil {
			r.reject(quoteError(lineNo, req, KindEstimate, err))
			return model.ImpactRecord{}, false
		}
		q := quote.String()
		req.QuotedShares = &q
		estimated = true
	}

	res, err := r.calc.PriceImpact(impact.DepositRequest{Amounts: req.Amounts, QuotedShares: req.QuotedShares}, r.pool)
	if err != nil {
		r.reject(quoteError(lineNo, req, ErrorKind(err), err))
		return model.ImpactRecord{}, false
	}

	switch res.Status {
	case impact.StatusMeasured:
		stats.Measured++
	case impact.StatusUnavailable:
		stats.Unavailable++
	case impact.StatusNotApplicable:
		stats.NotApplicable++
	}
	if estimated {
		stats.Estimated++
	}

	return NewRecord(req.ID, r.meta.PoolID, res, estimated, r.cfg.Now()), true
}

// flush stores records in every sink, then writes pending rejections, then
// advances the checkpoint to lastLine.
func (r *Runner) flush(ctx context.Context, records []model.ImpactRecord, lastLine int) error {
	if len(records) > 0 {
		for i, sink := range r.sinks {
			err := withRetry(ctx, r.cfg.MaxRetries, r.cfg.RetryBackoff, func(attempt int, err error) {
				r.logger.Warn("store retry", zap.Int("sink", i), zap.Int("attempt", attempt), zap.Error(err))
			}, func(ctx context.Context) error {
				return sink.PutImpactBatch(ctx, records)
			})
			if err != nil {
				return fmt.Errorf("store impact records: %w", err)
			}
		}
	}
	if err := r.writeRejected(); err != nil {
		return err
	}

	if err := r.checkpoint.Save(r.cfg.Input, lastLine); err != nil {
		return err
	}
	r.logger.Info("batch flushed", zap.Int("records", len(records)), zap.Int("line", lastLine))
	return nil
}

func (r *Runner) writeRejected() error {
	defer func() { r.rejected = r.rejected[:0] }()
	if r.errors == nil {
		return nil
	}
	for _, errRecord := range r.rejected {
		if err := r.errors.Write(errRecord); err != nil {
			return fmt.Errorf("write quote error: %w", err)
		}
	}
	if f, ok := r.errors.(flusher); ok {
		if err := f.Flush(); err != nil {
			return fmt.Errorf("flush quote errors: %w", err)
		}
	}
	return nil
}

func (r *Runner) reject(errRecord model.QuoteError) {
	r.logger.Warn("request failed",
		zap.Int("line", errRecord.Line),
		zap.String("id", errRecord.ID),
		zap.String("kind", errRecord.Kind),
		zap.String("error", errRecord.Error),
	)
	r.rejected = append(r.rejected, errRecord)
}

func quoteError(lineNo int, req model.ImpactRequest, kind string, err error) model.QuoteError {
	return model.QuoteError{
		Line:   lineNo,
		ID:     req.ID,
		PoolID: req.PoolID,
		Kind:   kind,
		Error:  err.Error(),
	}
}

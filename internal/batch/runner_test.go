package batch

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phantomImpact/internal/impact"
	"phantomImpact/internal/model"
	"phantomImpact/internal/snapshot"
	"phantomImpact/internal/storage"
)

const poolSnapshot = `{
  "id": "0xpool",
  "poolType": "StablePhantom",
  "onchain": {
    "amp": "100",
    "swapFee": "0.001",
    "totalSupply": "2000000000000000000000",
    "tokens": [
      {"balance": "1000000000000000000000", "decimals": 18},
      {"balance": "1000000000", "decimals": 6}
    ]
  }
}`

var fixedNow = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type memorySink struct {
	mu      sync.Mutex
	batches [][]model.ImpactRecord
}

func (m *memorySink) PutImpactBatch(_ context.Context, records []model.ImpactRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(records) == 0 {
		return nil
	}
	m.batches = append(m.batches, append([]model.ImpactRecord(nil), records...))
	return nil
}

func (m *memorySink) records() []model.ImpactRecord {
	var out []model.ImpactRecord
	for _, b := range m.batches {
		out = append(out, b...)
	}
	return out
}

type flakySink struct {
	memorySink
	failures int
	calls    int
}

func (f *flakySink) PutImpactBatch(ctx context.Context, records []model.ImpactRecord) error {
	f.calls++
	if f.calls <= f.failures {
		return errors.New("connection reset")
	}
	return f.memorySink.PutImpactBatch(ctx, records)
}

type errorRecorder struct {
	items []model.QuoteError
}

func (e *errorRecorder) Write(value interface{}) error {
	e.items = append(e.items, value.(model.QuoteError))
	return nil
}

func (e *errorRecorder) kinds() []string {
	out := make([]string, len(e.items))
	for i, item := range e.items {
		out[i] = item.Kind
	}
	return out
}

type flushingRecorder struct {
	errorRecorder
	flushes int
}

func (f *flushingRecorder) Flush() error {
	f.flushes++
	return nil
}

func loadPool(t *testing.T) (impact.PoolState, snapshot.Meta) {
	t.Helper()
	pool, meta, err := snapshot.Parse([]byte(poolSnapshot))
	require.NoError(t, err)
	return pool, meta
}

func TestRunnerEvaluatesRequests(t *testing.T) {
	pool, meta := loadPool(t)
	input := strings.Join([]string{
		`{"id":"a","amounts":["100","0"],"quoted_shares":"95"}`,
		`{"id":"b","amounts":["100","0"],"quoted_shares":null}`,
		`{"id":"c","amounts":["100","0"],"quoted_shares":"-1"}`,
		``,
		`not json`,
		`{"id":"e","amounts":["1"],"quoted_shares":"1"}`,
		`{"id":"f","pool_id":"0xother","amounts":["1","0"],"quoted_shares":"1"}`,
		`{"id":"g","amounts":["0","0"],"quoted_shares":"1"}`,
	}, "\n")

	sink := &memorySink{}
	errs := &errorRecorder{}
	runner := NewRunner(RunConfig{BatchSize: 2, Now: func() time.Time { return fixedNow }}, nil, pool, meta, []storage.Storage{sink}, errs, nil)

	stats, err := runner.Run(context.Background(), strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, Stats{Total: 7, Measured: 1, Unavailable: 2, Failed: 4}, stats)
	assert.Equal(t, []string{KindDecode, KindSchemaMismatch, KindPoolMismatch, KindDivisionByZero}, errs.kinds())
	assert.Equal(t, 5, errs.items[0].Line)

	require.Len(t, sink.batches, 2)
	assert.Len(t, sink.batches[0], 2)
	records := sink.records()
	require.Len(t, records, 3)

	assert.Equal(t, model.ImpactRecord{
		ID:               "a",
		PoolID:           "0xpool",
		Status:           "measured",
		Ratio:            "0.05",
		LegacyRatio:      "0.05",
		Percent:          "5",
		ZeroImpactShares: "100",
		QuotedShares:     "95",
		Severity:         "high",
		Warning:          impact.SeverityHigh.Warning(),
		ComputedAt:       "2024-01-01T00:00:00Z",
	}, records[0])

	assert.Equal(t, "unavailable", records[1].Status)
	assert.Equal(t, "quote_missing", records[1].Reason)
	assert.Equal(t, "1", records[1].LegacyRatio)
	assert.Empty(t, records[1].Ratio)

	assert.Equal(t, "quote_pending", records[2].Reason)
	assert.Equal(t, "0", records[2].LegacyRatio)
}

func TestRunnerEstimatesMissingQuotes(t *testing.T) {
	pool, meta := loadPool(t)
	sink := &memorySink{}
	runner := NewRunner(RunConfig{BatchSize: 10, EstimateMissing: true}, nil, pool, meta, []storage.Storage{sink}, nil, nil)

	stats, err := runner.Run(context.Background(), strings.NewReader(`{"id":"a","amounts":["100","0"]}`))
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Measured)
	assert.Equal(t, 1, stats.Estimated)

	records := sink.records()
	require.Len(t, records, 1)
	assert.True(t, records[0].Estimated)
	assert.Equal(t, "99.926396539779962", records[0].QuotedShares)
	assert.Equal(t, "0.00073603460220038", records[0].Ratio)
	assert.Equal(t, "none", records[0].Severity)
}

func TestRunnerWithdrawalIsNotApplicable(t *testing.T) {
	pool, meta := loadPool(t)
	pool.Kind = impact.Withdrawal
	sink := &memorySink{}
	runner := NewRunner(RunConfig{BatchSize: 10, EstimateMissing: true}, nil, pool, meta, []storage.Storage{sink}, nil, nil)

	stats, err := runner.Run(context.Background(), strings.NewReader(`{"id":"a","amounts":["100","0"],"quoted_shares":"95"}`))
	require.NoError(t, err)
	assert.Equal(t, 1, stats.NotApplicable)
	assert.Equal(t, "1", sink.records()[0].LegacyRatio)
}

func TestRunnerRetriesSink(t *testing.T) {
	pool, meta := loadPool(t)
	input := `{"id":"a","amounts":["100","0"],"quoted_shares":"95"}`

	flaky := &flakySink{failures: 2}
	runner := NewRunner(RunConfig{BatchSize: 1, MaxRetries: 3, RetryBackoff: time.Millisecond}, nil, pool, meta, []storage.Storage{flaky}, nil, nil)
	_, err := runner.Run(context.Background(), strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 3, flaky.calls)
	assert.Len(t, flaky.records(), 1)

	broken := &flakySink{failures: 100}
	runner = NewRunner(RunConfig{BatchSize: 1, MaxRetries: 1, RetryBackoff: time.Millisecond}, nil, pool, meta, []storage.Storage{broken}, nil, nil)
	_, err = runner.Run(context.Background(), strings.NewReader(input))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.Equal(t, 2, broken.calls)
}

func TestRunnerResumesFromCheckpoint(t *testing.T) {
	pool, meta := loadPool(t)
	cfg := RunConfig{
		Input:             "requests.jsonl",
		BatchSize:         1,
		CheckpointPath:    filepath.Join(t.TempDir(), "checkpoint.json"),
		CheckpointEnabled: true,
	}
	lines := []string{
		`{"id":"a","amounts":["100","0"],"quoted_shares":"95"}`,
		`{"id":"b","amounts":["0","100"],"quoted_shares":"95"}`,
		`{"id":"c","amounts":["50","50"],"quoted_shares":"100"}`,
	}

	first := &memorySink{}
	_, err := NewRunner(cfg, nil, pool, meta, []storage.Storage{first}, nil, nil).Run(context.Background(), strings.NewReader(strings.Join(lines[:2], "\n")))
	require.NoError(t, err)
	assert.Len(t, first.records(), 2)

	second := &memorySink{}
	stats, err := NewRunner(cfg, nil, pool, meta, []storage.Storage{second}, nil, nil).Run(context.Background(), strings.NewReader(strings.Join(lines, "\n")))
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Resumed)
	assert.Equal(t, 1, stats.Total)
	records := second.records()
	require.Len(t, records, 1)
	assert.Equal(t, "c", records[0].ID)

	cfg.Input = "other.jsonl"
	third := &memorySink{}
	stats, err = NewRunner(cfg, nil, pool, meta, []storage.Storage{third}, nil, nil).Run(context.Background(), strings.NewReader(strings.Join(lines, "\n")))
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Resumed)
	assert.Len(t, third.records(), 3)
}

func TestRunnerWritesRejectionsOnceAcrossResume(t *testing.T) {
	pool, meta := loadPool(t)
	cfg := RunConfig{
		Input:             "requests.jsonl",
		BatchSize:         3,
		CheckpointPath:    filepath.Join(t.TempDir(), "checkpoint.json"),
		CheckpointEnabled: true,
	}
	lines := []string{
		`{"id":"a","amounts":["100","0"],"quoted_shares":"95"}`,
		`not json`,
		`{"id":"b","amounts":["0","100"],"quoted_shares":"95"}`,
		`{"id":"c","amounts":["1"],"quoted_shares":"1"}`,
	}
	errs := &errorRecorder{}

	broken := &flakySink{failures: 100}
	_, err := NewRunner(cfg, nil, pool, meta, []storage.Storage{broken}, errs, nil).Run(context.Background(), strings.NewReader(strings.Join(lines[:3], "\n")))
	require.Error(t, err)
	assert.Empty(t, errs.items, "rejections of an unflushed batch must not be written")

	sink := &memorySink{}
	_, err = NewRunner(cfg, nil, pool, meta, []storage.Storage{sink}, errs, nil).Run(context.Background(), strings.NewReader(strings.Join(lines[:3], "\n")))
	require.NoError(t, err)
	assert.Len(t, sink.records(), 2)
	assert.Equal(t, []string{KindDecode}, errs.kinds())

	stats, err := NewRunner(cfg, nil, pool, meta, []storage.Storage{sink}, errs, nil).Run(context.Background(), strings.NewReader(strings.Join(lines, "\n")))
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Resumed)
	assert.Equal(t, []string{KindDecode, KindSchemaMismatch}, errs.kinds())
	assert.Equal(t, 4, errs.items[1].Line)
	assert.Len(t, sink.records(), 2)
}

func TestRunnerFlushesErrorSink(t *testing.T) {
	pool, meta := loadPool(t)
	errs := &flushingRecorder{}
	_, err := NewRunner(RunConfig{BatchSize: 10}, nil, pool, meta, []storage.Storage{&memorySink{}}, errs, nil).
		Run(context.Background(), strings.NewReader("not json"))
	require.NoError(t, err)
	assert.Len(t, errs.items, 1)
	assert.Equal(t, 1, errs.flushes)
}

func TestRunnerValidatesConfig(t *testing.T) {
	pool, meta := loadPool(t)
	_, err := NewRunner(RunConfig{BatchSize: 1}, nil, pool, meta, nil, nil, nil).Run(context.Background(), strings.NewReader(""))
	assert.Error(t, err)

	_, err = NewRunner(RunConfig{}, nil, pool, meta, []storage.Storage{&memorySink{}}, nil, nil).Run(context.Background(), strings.NewReader(""))
	assert.Error(t, err)
}

func TestRunnerStopsOnCancel(t *testing.T) {
	pool, meta := loadPool(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRunner(RunConfig{BatchSize: 1}, nil, pool, meta, []storage.Storage{&memorySink{}}, nil, nil).
		Run(ctx, strings.NewReader(`{"id":"a","amounts":["100","0"],"quoted_shares":"95"}`))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestErrorKind(t *testing.T) {
	assert.Equal(t, KindInvalidAmount, ErrorKind(impact.ErrInvalidAmount))
	assert.Equal(t, KindSolver, ErrorKind(errors.Join(errors.New("x"), impact.ErrSolverContractViolation)))
	assert.Equal(t, KindUnknown, ErrorKind(errors.New("x")))
}

package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"phantomImpact/internal/model"
)

// Store persists price impact records to Postgres. It expects a table
//
//	price_impact_quotes (
//	    pool_id text, request_id text, status text, reason text,
//	    ratio numeric, legacy_ratio numeric, zero_impact_shares numeric,
//	    quoted_shares numeric, estimated boolean, severity text,
//	    computed_at timestamptz, created_at timestamptz, updated_at timestamptz,
//	    PRIMARY KEY (pool_id, request_id))
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// PutImpactBatch implements storage.Storage.
func (s *Store) PutImpactBatch(ctx context.Context, records []model.ImpactRecord) error {
	return s.UpsertImpactRecords(ctx, records)
}

// UpsertImpactRecords inserts or updates impact records keyed by pool and request id.
func (s *Store) UpsertImpactRecords(ctx context.Context, records []model.ImpactRecord) error {
	if len(records) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, r := range records {
		batch.Queue(`
			INSERT INTO price_impact_quotes (
				pool_id, request_id, status, reason, ratio, legacy_ratio,
				zero_impact_shares, quoted_shares, estimated, severity, computed_at, created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,now(),now())
			ON CONFLICT (pool_id, request_id)
			DO UPDATE SET
				status = EXCLUDED.status,
				reason = EXCLUDED.reason,
				ratio = EXCLUDED.ratio,
				legacy_ratio = EXCLUDED.legacy_ratio,
				zero_impact_shares = EXCLUDED.zero_impact_shares,
				quoted_shares = EXCLUDED.quoted_shares,
				estimated = EXCLUDED.estimated,
				severity = EXCLUDED.severity,
				computed_at = EXCLUDED.computed_at,
				updated_at = now()
		`,
			r.PoolID,
			r.ID,
			r.Status,
			r.Reason,
			nullable(r.Ratio),
			r.LegacyRatio,
			nullable(r.ZeroImpactShares),
			nullable(r.QuotedShares),
			r.Estimated,
			r.Severity,
			r.ComputedAt,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range records {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

func nullable(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

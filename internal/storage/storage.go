package storage

import (
	"context"

	"phantomImpact/internal/model"
)

// Storage defines a sink for price impact records.
type Storage interface {
	PutImpactBatch(ctx context.Context, records []model.ImpactRecord) error
}

package vatrec

import (
	"context"
	"time"

	"fiskalis/internal/core/id"
)

// Repository defines operations for VAT record persistence.
type Repository interface {
	// Create inserts one record. Records are never updated.
	Create(ctx context.Context, rec *VATRecord) error

	// CreateBatch inserts multiple records atomically.
	CreateBatch(ctx context.Context, recs []*VATRecord) error

	// ListByPeriod retrieves all records of a company whose date falls
	// in [from, to] inclusive, ordered by date.
	ListByPeriod(ctx context.Context, companyID id.ID, from, to time.Time) ([]*VATRecord, error)
}

package vatrec

import (
	"context"
	"fmt"
	"time"

	"fiskalis/internal/core/id"
	"fiskalis/internal/core/tx"
	"fiskalis/pkg/logger"
)

// Service provides ingestion and period queries for VAT records.
type Service struct {
	repo      Repository
	txManager tx.Manager
}

// NewService creates a new VAT record service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		txManager: txManager,
	}
}

// Ingest validates and stores a batch of records atomically.
// A single invalid record rejects the whole batch.
func (s *Service) Ingest(ctx context.Context, recs []*VATRecord) error {
	for i, rec := range recs {
		if id.IsNil(rec.LineID) {
			rec.LineID = id.New()
		}
		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = time.Now().UTC()
		}
		if err := rec.Validate(ctx); err != nil {
			return fmt.Errorf("record %d: %w", i+1, err)
		}
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.CreateBatch(ctx, recs)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "vat records ingested", "count", len(recs))
	return nil
}

// ListByPeriod retrieves a company's records for a date range.
func (s *Service) ListByPeriod(ctx context.Context, companyID id.ID, from, to time.Time) ([]*VATRecord, error) {
	return s.repo.ListByPeriod(ctx, companyID, from, to)
}

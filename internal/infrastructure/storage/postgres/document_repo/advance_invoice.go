package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"fiskalis/internal/core/id"
	"fiskalis/internal/domain"
	"fiskalis/internal/domain/advances"
	"fiskalis/internal/infrastructure/storage/postgres"
)

const (
	advanceInvoiceTable    = "doc_advance_invoices"
	advanceAllocationTable = "doc_advance_allocations"
)

// Compile-time check that AdvanceInvoiceRepo implements advances.Repository.
var _ advances.Repository = (*AdvanceInvoiceRepo)(nil)

// AdvanceInvoiceRepo implements advances.Repository.
type AdvanceInvoiceRepo struct {
	*BaseDocumentRepo[*advances.AdvanceInvoice]
}

// NewAdvanceInvoiceRepo creates a new advance invoice repository.
func NewAdvanceInvoiceRepo(txManager *postgres.TxManager) *AdvanceInvoiceRepo {
	return &AdvanceInvoiceRepo{
		BaseDocumentRepo: NewBaseDocumentRepo[*advances.AdvanceInvoice](
			txManager,
			advanceInvoiceTable,
			postgres.ExtractDBColumns[advances.AdvanceInvoice](),
			func() *advances.AdvanceInvoice { return &advances.AdvanceInvoice{} },
		),
	}
}

// GetAllocations retrieves the allocation log ordered by time.
func (r *AdvanceInvoiceRepo) GetAllocations(ctx context.Context, advID id.ID) ([]advances.Allocation, error) {
	q := r.Builder().
		Select("allocation_id", "invoice_id", "amount", "allocated_at").
		From(advanceAllocationTable).
		Where(squirrel.Eq{"advance_id": advID}).
		OrderBy("allocated_at", "allocation_id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var allocs []advances.Allocation
	if err := pgxscan.Select(ctx, r.Querier(ctx), &allocs, sql, args...); err != nil {
		return nil, fmt.Errorf("select allocations: %w", err)
	}

	return allocs, nil
}

// AppendAllocation inserts one allocation event. The log is append only.
func (r *AdvanceInvoiceRepo) AppendAllocation(ctx context.Context, advID id.ID, alloc advances.Allocation) error {
	q := r.Builder().
		Insert(advanceAllocationTable).
		Columns("allocation_id", "advance_id", "invoice_id", "amount", "allocated_at").
		Values(alloc.AllocationID, advID, alloc.InvoiceID, alloc.Amount, alloc.AllocatedAt)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert allocation: %w", err)
	}

	if _, err := r.Querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert allocation: %w", err)
	}

	return nil
}

// Delete removes the advance with its allocation log.
// Services only call this for drafts, which have no allocations.
func (r *AdvanceInvoiceRepo) Delete(ctx context.Context, advID id.ID) error {
	delQ := r.Builder().
		Delete(advanceAllocationTable).
		Where(squirrel.Eq{"advance_id": advID})

	delSQL, delArgs, err := delQ.ToSql()
	if err != nil {
		return fmt.Errorf("build delete allocations: %w", err)
	}

	if _, err := r.Querier(ctx).Exec(ctx, delSQL, delArgs...); err != nil {
		return fmt.Errorf("delete allocations: %w", err)
	}

	return r.BaseDocumentRepo.Delete(ctx, advID)
}

// List retrieves advances with advance-specific filtering.
func (r *AdvanceInvoiceRepo) List(ctx context.Context, filter advances.ListFilter) (domain.ListResult[*advances.AdvanceInvoice], error) {
	var extra []squirrel.Sqlizer

	if filter.PartnerID != nil {
		extra = append(extra, squirrel.Eq{"partner_id": *filter.PartnerID})
	}
	if filter.DateFrom != nil {
		extra = append(extra, squirrel.GtOrEq{"date": *filter.DateFrom})
	}
	if filter.DateTo != nil {
		extra = append(extra, squirrel.LtOrEq{"date": *filter.DateTo})
	}
	if filter.HasRemaining != nil {
		if *filter.HasRemaining {
			extra = append(extra,
				squirrel.Eq{"status": []string{
					string(advances.StatusPaid),
					string(advances.StatusPartiallyUsed),
				}},
				squirrel.Expr("used_amount < total_amount"),
			)
		} else {
			extra = append(extra, squirrel.Expr("used_amount >= total_amount"))
		}
	}

	return r.ListWhere(ctx, filter.ListFilter, extra)
}

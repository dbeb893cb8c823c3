// Package register_repo provides PostgreSQL implementations for register repositories.
package register_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"fiskalis/internal/core/id"
	"fiskalis/internal/domain/vatrec"
	"fiskalis/internal/infrastructure/storage/postgres"
)

const vatRecordTable = "reg_vat_records"

var vatRecordColumns = []string{
	"line_id", "company_id", "direction", "rate",
	"base_amount", "vat_amount", "document_ref", "date", "created_at",
}

// Compile-time check that VATRecordRepo implements vatrec.Repository.
var _ vatrec.Repository = (*VATRecordRepo)(nil)

// VATRecordRepo implements vatrec.Repository.
// Records are an append-only register; there are no update paths.
type VATRecordRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewVATRecordRepo creates a new VAT record repository.
func NewVATRecordRepo(txManager *postgres.TxManager) *VATRecordRepo {
	return &VATRecordRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts one record.
func (r *VATRecordRepo) Create(ctx context.Context, rec *vatrec.VATRecord) error {
	q := r.builder.Insert(vatRecordTable).
		Columns(vatRecordColumns...).
		Values(
			rec.LineID, rec.CompanyID, rec.Direction, rec.Rate,
			rec.BaseAmount, rec.VATAmount, rec.DocumentRef, rec.Date, rec.CreatedAt,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert record: %w", err)
	}

	return nil
}

// CreateBatch inserts multiple records.
func (r *VATRecordRepo) CreateBatch(ctx context.Context, recs []*vatrec.VATRecord) error {
	if len(recs) == 0 {
		return nil
	}

	// Fast path: COPY when inside a transaction.
	if tx := r.txManager.GetTx(ctx); tx != nil {
		inserter := postgres.NewBatchInserter(r.txManager)
		rows := make([][]any, 0, len(recs))
		for _, rec := range recs {
			rows = append(rows, []any{
				rec.LineID, rec.CompanyID, rec.Direction, rec.Rate,
				rec.BaseAmount, rec.VATAmount, rec.DocumentRef, rec.Date, rec.CreatedAt,
			})
		}
		if _, err := inserter.CopyFromSlice(ctx, vatRecordTable, vatRecordColumns, rows); err != nil {
			return fmt.Errorf("copy records: %w", err)
		}
		return nil
	}

	// Fallback: multi-row insert. Prefer calling CreateBatch within tx.
	q := r.builder.Insert(vatRecordTable).Columns(vatRecordColumns...)
	for _, rec := range recs {
		q = q.Values(
			rec.LineID, rec.CompanyID, rec.Direction, rec.Rate,
			rec.BaseAmount, rec.VATAmount, rec.DocumentRef, rec.Date, rec.CreatedAt,
		)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert records: %w", err)
	}

	return nil
}

// ListByPeriod retrieves records of a company within [from, to] inclusive.
func (r *VATRecordRepo) ListByPeriod(ctx context.Context, companyID id.ID, from, to time.Time) ([]*vatrec.VATRecord, error) {
	q := r.builder.Select(vatRecordColumns...).
		From(vatRecordTable).
		Where(squirrel.Eq{"company_id": companyID}).
		Where(squirrel.GtOrEq{"date": from}).
		Where(squirrel.LtOrEq{"date": to}).
		OrderBy("date", "created_at")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var recs []*vatrec.VATRecord
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &recs, sql, args...); err != nil {
		return nil, fmt.Errorf("select records: %w", err)
	}

	return recs, nil
}

package document_repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"fiskalis/internal/core/apperror"
	"fiskalis/internal/core/id"
	"fiskalis/internal/domain"
	"fiskalis/internal/domain/company"
	"fiskalis/internal/domain/pppdv"
	"fiskalis/internal/infrastructure/storage/postgres"
)

const taxReportTable = "doc_tax_reports"

// Compile-time check that TaxReportRepo implements pppdv.Repository.
var _ pppdv.Repository = (*TaxReportRepo)(nil)

// TaxReportRepo implements pppdv.Repository.
// Field values are kept in a jsonb column next to the header so the report
// always loads as one row.
type TaxReportRepo struct {
	*BaseDocumentRepo[*pppdv.TaxPeriodReport]
}

// NewTaxReportRepo creates a new tax report repository.
func NewTaxReportRepo(txManager *postgres.TxManager) *TaxReportRepo {
	return &TaxReportRepo{
		BaseDocumentRepo: NewBaseDocumentRepo[*pppdv.TaxPeriodReport](
			txManager,
			taxReportTable,
			postgres.ExtractDBColumns[pppdv.TaxPeriodReport](),
			func() *pppdv.TaxPeriodReport { return &pppdv.TaxPeriodReport{} },
		),
	}
}

// Create inserts the report header and its field values.
func (r *TaxReportRepo) Create(ctx context.Context, rep *pppdv.TaxPeriodReport) error {
	if err := r.BaseDocumentRepo.Create(ctx, rep); err != nil {
		return err
	}
	return r.saveFields(ctx, rep)
}

// Update writes the report header and its field values.
func (r *TaxReportRepo) Update(ctx context.Context, rep *pppdv.TaxPeriodReport) error {
	if err := r.BaseDocumentRepo.Update(ctx, rep); err != nil {
		return err
	}
	return r.saveFields(ctx, rep)
}

func (r *TaxReportRepo) saveFields(ctx context.Context, rep *pppdv.TaxPeriodReport) error {
	payload, err := json.Marshal(rep.Fields)
	if err != nil {
		return fmt.Errorf("marshal fields: %w", err)
	}

	q := r.Builder().
		Update(taxReportTable).
		Set("fields", payload).
		Where(squirrel.Eq{"id": rep.ID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update fields: %w", err)
	}

	if _, err := r.Querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("update fields: %w", err)
	}

	return nil
}

func (r *TaxReportRepo) loadFields(ctx context.Context, rep *pppdv.TaxPeriodReport) error {
	var payload []byte
	err := r.Querier(ctx).QueryRow(ctx,
		fmt.Sprintf("SELECT fields FROM %s WHERE id = $1", taxReportTable), rep.ID,
	).Scan(&payload)
	if err != nil {
		return fmt.Errorf("load fields: %w", err)
	}

	if len(payload) == 0 {
		rep.Fields = pppdv.NewFieldValues()
		return nil
	}

	fields := pppdv.NewFieldValues()
	if err := json.Unmarshal(payload, &fields); err != nil {
		return fmt.Errorf("unmarshal fields: %w", err)
	}
	rep.Fields = fields
	return nil
}

// GetByID retrieves the report with its field values.
func (r *TaxReportRepo) GetByID(ctx context.Context, repID id.ID) (*pppdv.TaxPeriodReport, error) {
	rep, err := r.BaseDocumentRepo.GetByID(ctx, repID)
	if err != nil {
		return nil, err
	}
	if err := r.loadFields(ctx, rep); err != nil {
		return nil, err
	}
	return rep, nil
}

// GetForUpdate retrieves the report with a row lock and its field values.
func (r *TaxReportRepo) GetForUpdate(ctx context.Context, repID id.ID) (*pppdv.TaxPeriodReport, error) {
	rep, err := r.BaseDocumentRepo.GetForUpdate(ctx, repID)
	if err != nil {
		return nil, err
	}
	if err := r.loadFields(ctx, rep); err != nil {
		return nil, err
	}
	return rep, nil
}

// FindByPeriod retrieves the report of a company period, if any.
func (r *TaxReportRepo) FindByPeriod(ctx context.Context, companyID id.ID, year int, periodType company.VATPeriodType, periodNo int) (*pppdv.TaxPeriodReport, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"company_id": companyID}).
		Where(squirrel.Eq{"year": year}).
		Where(squirrel.Eq{"period_type": periodType}).
		Where(squirrel.Expr("COALESCE(month, quarter) = ?", periodNo)).
		Limit(1)

	rep, err := r.findOne(ctx, q)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("tax report", fmt.Sprintf("%d/%d", year, periodNo))
		}
		return nil, err
	}
	return rep, nil
}

// periodEndExpr computes the exclusive end of a report's period: the first
// day of the month after the period. Normalizing both cadences to a date
// keeps monthly and quarterly reports of one company comparable.
const periodEndExpr = "(make_date(year, CASE WHEN period_type = 'MONTHLY' THEN month ELSE quarter * 3 END, 1) + interval '1 month')"

// FindLatestBefore retrieves the submitted or accepted report with the
// latest period end on or before the given date.
func (r *TaxReportRepo) FindLatestBefore(ctx context.Context, companyID id.ID, before time.Time) (*pppdv.TaxPeriodReport, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"company_id": companyID}).
		Where(squirrel.Eq{"status": []string{
			string(pppdv.StatusSubmitted),
			string(pppdv.StatusAccepted),
		}}).
		Where(squirrel.Expr(periodEndExpr+" <= ?", before)).
		OrderBy(periodEndExpr + " DESC").
		Limit(1)

	return r.findOne(ctx, q)
}

func (r *TaxReportRepo) findOne(ctx context.Context, q squirrel.SelectBuilder) (*pppdv.TaxPeriodReport, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rep := &pppdv.TaxPeriodReport{}
	if err := scanOne(ctx, r.Querier(ctx), rep, sql, args...); err != nil {
		return nil, err
	}
	if err := r.loadFields(ctx, rep); err != nil {
		return nil, err
	}
	return rep, nil
}

// List retrieves reports with report-specific filtering.
func (r *TaxReportRepo) List(ctx context.Context, filter pppdv.ListFilter) (domain.ListResult[*pppdv.TaxPeriodReport], error) {
	var extra []squirrel.Sqlizer

	if filter.Year != nil {
		extra = append(extra, squirrel.Eq{"year": *filter.Year})
	}
	if filter.PeriodType != nil {
		extra = append(extra, squirrel.Eq{"period_type": *filter.PeriodType})
	}

	result, err := r.ListWhere(ctx, filter.ListFilter, extra)
	if err != nil {
		return result, err
	}

	for _, rep := range result.Items {
		if err := r.loadFields(ctx, rep); err != nil {
			return result, err
		}
	}

	return result, nil
}

package pppdv

import (
	"context"
	"time"

	"fiskalis/internal/core/id"
	"fiskalis/internal/domain"
	"fiskalis/internal/domain/company"
)

// Repository defines operations for tax report persistence.
// Field values are stored with the report and loaded with it.
type Repository interface {
	Create(ctx context.Context, rep *TaxPeriodReport) error
	GetByID(ctx context.Context, repID id.ID) (*TaxPeriodReport, error)
	Update(ctx context.Context, rep *TaxPeriodReport) error

	// Delete physically removes a draft report.
	Delete(ctx context.Context, repID id.ID) error

	// FindByPeriod retrieves the report of a company period, if any.
	FindByPeriod(ctx context.Context, companyID id.ID, year int, periodType company.VATPeriodType, periodNo int) (*TaxPeriodReport, error)

	// FindLatestBefore retrieves the submitted/accepted report with the
	// latest period end strictly before the given date. Ordering by
	// period end date, not by raw period number, so monthly and
	// quarterly reports of the same company compare correctly. Used to
	// resolve the carried-forward credit.
	FindLatestBefore(ctx context.Context, companyID id.ID, before time.Time) (*TaxPeriodReport, error)

	List(ctx context.Context, filter ListFilter) (domain.ListResult[*TaxPeriodReport], error)

	// Locking. Must be called inside a transaction.
	GetForUpdate(ctx context.Context, repID id.ID) (*TaxPeriodReport, error)
}

// ListFilter for filtering tax reports.
type ListFilter struct {
	domain.ListFilter

	Year       *int
	PeriodType *company.VATPeriodType
}

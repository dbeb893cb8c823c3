package pppdv

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"fiskalis/internal/core/apperror"
	"fiskalis/internal/core/entity"
	"fiskalis/internal/core/id"
	"fiskalis/internal/core/types"
	"fiskalis/internal/domain/company"
)

// Report lifecycle. ACCEPTED and REJECTED are terminal.
const (
	StatusDraft      entity.Status = "DRAFT"
	StatusCalculated entity.Status = "CALCULATED"
	StatusSubmitted  entity.Status = "SUBMITTED"
	StatusAccepted   entity.Status = "ACCEPTED"
	StatusRejected   entity.Status = "REJECTED"
)

// statusTransitions lists the allowed lifecycle moves.
var statusTransitions = map[entity.Status][]entity.Status{
	StatusDraft:      {StatusCalculated},
	StatusCalculated: {StatusCalculated, StatusSubmitted},
	StatusSubmitted:  {StatusAccepted, StatusRejected},
}

// TaxPeriodReport is one PPPDV declaration for a company period.
type TaxPeriodReport struct {
	entity.Document

	Year int `db:"year" json:"year"`

	// PeriodType: MONTHLY or QUARTERLY
	PeriodType company.VATPeriodType `db:"period_type" json:"periodType"`

	// Month is 1..12 for monthly periods, Quarter 1..4 for quarterly.
	// Exactly one of the pair is set.
	Month   *int `db:"month" json:"month,omitempty"`
	Quarter *int `db:"quarter" json:"quarter,omitempty"`

	// ProRataPercent is the proportional deduction rate applied
	ProRataPercent decimal.Decimal `db:"prorata_percent" json:"proRataPercent"`

	// PreviousCredit is the carried-forward credit resolved at calculation
	PreviousCredit types.Money `db:"previous_credit" json:"previousCredit"`

	// Fields holds the frozen form values
	Fields FieldValues `db:"-" json:"fields"`

	// SubmissionReference is assigned by the tax authority callback
	SubmissionReference *string `db:"submission_reference" json:"submissionReference,omitempty"`

	// SubmittedAt is stamped on submission
	SubmittedAt *time.Time `db:"submitted_at" json:"submittedAt,omitempty"`
}

// NewTaxPeriodReport creates a draft report shell for a period.
func NewTaxPeriodReport(companyID id.ID, year int, periodType company.VATPeriodType, periodNo int) *TaxPeriodReport {
	rep := &TaxPeriodReport{
		Document:       entity.NewDocument(companyID, StatusDraft),
		Year:           year,
		PeriodType:     periodType,
		ProRataPercent: decimal.NewFromInt(100),
		Fields:         NewFieldValues(),
	}
	if periodType == company.VATPeriodQuarterly {
		rep.Quarter = &periodNo
	} else {
		rep.Month = &periodNo
	}
	return rep
}

// PeriodNo returns the month or quarter number.
func (r *TaxPeriodReport) PeriodNo() int {
	if r.PeriodType == company.VATPeriodQuarterly && r.Quarter != nil {
		return *r.Quarter
	}
	if r.Month != nil {
		return *r.Month
	}
	return 0
}

// PeriodBounds resolves the inclusive [firstDay, lastDay] of the period.
func (r *TaxPeriodReport) PeriodBounds() (time.Time, time.Time) {
	return PeriodBounds(r.Year, r.PeriodType, r.PeriodNo())
}

// PeriodBounds resolves period boundaries for a year and month/quarter.
func PeriodBounds(year int, periodType company.VATPeriodType, periodNo int) (time.Time, time.Time) {
	var firstMonth time.Month
	var months int
	if periodType == company.VATPeriodQuarterly {
		firstMonth = time.Month((periodNo-1)*3 + 1)
		months = 3
	} else {
		firstMonth = time.Month(periodNo)
		months = 1
	}

	first := time.Date(year, firstMonth, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, months, 0).Add(-time.Nanosecond)
	return first, last
}

// Validate implements entity.Validatable.
func (r *TaxPeriodReport) Validate(ctx context.Context) error {
	if err := r.Document.Validate(ctx); err != nil {
		return err
	}

	if r.Year < 2000 || r.Year > 2100 {
		return apperror.NewValidation("year out of range").
			WithDetail("field", "year").
			WithDetail("value", r.Year)
	}

	switch r.PeriodType {
	case company.VATPeriodMonthly:
		if r.Month == nil || *r.Month < 1 || *r.Month > 12 {
			return apperror.NewValidation("month must be 1..12 for monthly periods").
				WithDetail("field", "month")
		}
		if r.Quarter != nil {
			return apperror.NewValidation("quarter must not be set for monthly periods").
				WithDetail("field", "quarter")
		}
	case company.VATPeriodQuarterly:
		if r.Quarter == nil || *r.Quarter < 1 || *r.Quarter > 4 {
			return apperror.NewValidation("quarter must be 1..4 for quarterly periods").
				WithDetail("field", "quarter")
		}
		if r.Month != nil {
			return apperror.NewValidation("month must not be set for quarterly periods").
				WithDetail("field", "month")
		}
	default:
		return apperror.NewValidation("invalid period type").
			WithDetail("field", "periodType").
			WithDetail("value", string(r.PeriodType))
	}

	if r.ProRataPercent.IsNegative() || r.ProRataPercent.GreaterThan(decimal.NewFromInt(100)) {
		return apperror.NewValidation("prorata percent must be between 0 and 100").
			WithDetail("field", "proRataPercent").
			WithDetail("value", r.ProRataPercent.String())
	}

	return nil
}

// CheckBalanceInvariant verifies that at most one of the final fields
// is populated.
func (r *TaxPeriodReport) CheckBalanceInvariant() error {
	payable := r.Fields.Get(Field401)
	credit := r.Fields.Get(Field402)
	if !payable.IsZero() && !credit.IsZero() {
		return apperror.NewValidation("payable and credit fields are mutually exclusive").
			WithDetail("field401", payable.String()).
			WithDetail("field402", credit.String())
	}
	return nil
}

// ApplyCalculation copies derived values into the report.
func (r *TaxPeriodReport) ApplyCalculation(calc Calculation) error {
	r.Fields = calc.Fields.Clone()
	r.PreviousCredit = calc.PreviousCredit
	return r.Transition("tax report", StatusCalculated, statusTransitions)
}

// CanRecalculate rejects recalculation of submitted reports.
func (r *TaxPeriodReport) CanRecalculate() error {
	if !r.InStatus(StatusDraft, StatusCalculated) {
		return apperror.NewStateConflict("tax report", string(r.Status), string(StatusCalculated)).
			WithDetail("document_id", r.ID.String()).
			WithDetail("hint", "submitted reports are frozen")
	}
	return nil
}

// MarkSubmitted transitions CALCULATED -> SUBMITTED and freezes fields.
func (r *TaxPeriodReport) MarkSubmitted() error {
	if err := r.CheckBalanceInvariant(); err != nil {
		return err
	}
	if err := r.Transition("tax report", StatusSubmitted, statusTransitions); err != nil {
		return err
	}
	now := time.Now().UTC()
	r.SubmittedAt = &now
	return nil
}

// ApplyOutcome records the externally reported result.
func (r *TaxPeriodReport) ApplyOutcome(accepted bool, submissionReference string) error {
	target := StatusAccepted
	if !accepted {
		target = StatusRejected
	}
	if err := r.Transition("tax report", target, statusTransitions); err != nil {
		return err
	}
	if submissionReference != "" {
		r.SubmissionReference = &submissionReference
	}
	return nil
}

package pppdv

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"fiskalis/internal/core/apperror"
	"fiskalis/internal/core/id"
	"fiskalis/internal/core/numerator"
	"fiskalis/internal/core/tx"
	"fiskalis/internal/core/types"
	"fiskalis/internal/domain"
	"fiskalis/internal/domain/company"
	"fiskalis/internal/domain/vatrec"
	"fiskalis/pkg/logger"
)

const entityName = "tax report"

// numberPrefix for report numbers (PPPDV-2026-00001).
const numberPrefix = "PPPDV"

// RecordSource supplies the VAT-classified records the engine aggregates.
type RecordSource interface {
	ListByPeriod(ctx context.Context, companyID id.ID, from, to time.Time) ([]*vatrec.VATRecord, error)
}

// PeriodParams identify one declaration period of a company.
type PeriodParams struct {
	CompanyID  id.ID
	Year       int
	PeriodType company.VATPeriodType
	PeriodNo   int

	// ProRataPercent defaults to 100 when zero.
	ProRataPercent decimal.Decimal

	// Overrides for editable fields.
	Overrides FieldValues
}

// Service provides the tax period computation and report lifecycle.
type Service struct {
	repo      Repository
	records   RecordSource
	numerator numerator.Generator
	txManager tx.Manager
	audit     domain.AuditRecorder
	events    domain.EventPublisher
}

// NewService creates a new tax report service.
func NewService(
	repo Repository,
	records RecordSource,
	num numerator.Generator,
	txManager tx.Manager,
	audit domain.AuditRecorder,
) *Service {
	if audit == nil {
		audit = domain.NopAuditRecorder{}
	}
	return &Service{
		repo:      repo,
		records:   records,
		numerator: num,
		txManager: txManager,
		audit:     audit,
		events:    domain.NopEventPublisher{},
	}
}

// SetEventPublisher routes submission events to the publisher. The
// publisher is invoked inside the service transaction.
func (s *Service) SetEventPublisher(events domain.EventPublisher) {
	if events != nil {
		s.events = events
	}
}

// Calculate derives a declaration preview without persisting anything.
func (s *Service) Calculate(ctx context.Context, params PeriodParams) (Calculation, error) {
	if err := validatePeriod(params); err != nil {
		return Calculation{}, err
	}

	input, err := s.buildInput(ctx, params)
	if err != nil {
		return Calculation{}, err
	}

	return Calculate(input), nil
}

// Create runs the calculation and persists the result as a new report
// in CALCULATED status. One report per company period.
func (s *Service) Create(ctx context.Context, params PeriodParams) (*TaxPeriodReport, error) {
	if err := validatePeriod(params); err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByPeriod(ctx, params.CompanyID, params.Year, params.PeriodType, params.PeriodNo)
	if err != nil && !apperror.IsNotFound(err) {
		return nil, err
	}
	if existing != nil {
		return nil, apperror.NewDuplicate(entityName, "period",
			fmt.Sprintf("%d/%d", params.Year, params.PeriodNo)).
			WithDetail("reportId", existing.ID.String())
	}

	input, err := s.buildInput(ctx, params)
	if err != nil {
		return nil, err
	}
	calc := Calculate(input)

	rep := NewTaxPeriodReport(params.CompanyID, params.Year, params.PeriodType, params.PeriodNo)
	rep.ProRataPercent = normalizeProRata(params.ProRataPercent)
	if err := rep.Validate(ctx); err != nil {
		return nil, err
	}
	if err := rep.ApplyCalculation(calc); err != nil {
		return nil, err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		cfg := numerator.DefaultConfig(numberPrefix, rep.CompanyID)
		number, err := s.numerator.GetNextNumber(ctx, cfg, numerator.DefaultOptions(), rep.Date)
		if err != nil {
			return fmt.Errorf("generate number: %w", err)
		}
		rep.Number = number

		if err := s.repo.Create(ctx, rep); err != nil {
			return fmt.Errorf("create report: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.audit.LogChange(ctx, "tax_report", rep.ID, domain.AuditCreate, map[string]any{
		"number":   rep.Number,
		"year":     rep.Year,
		"periodNo": rep.PeriodNo(),
		"payable":  rep.Fields.Get(Field401).String(),
		"credit":   rep.Fields.Get(Field402).String(),
	}); err != nil {
		logger.Warn(ctx, "audit log failed", "error", err)
	}

	logger.Info(ctx, "tax report created",
		"id", rep.ID,
		"number", rep.Number,
		"year", rep.Year,
		"periodNo", rep.PeriodNo())

	return rep, nil
}

// Recalculate re-derives all fields of a DRAFT or CALCULATED report
// from the current source records. Submitted reports are frozen.
func (s *Service) Recalculate(ctx context.Context, repID id.ID, overrides FieldValues) (*TaxPeriodReport, error) {
	var recalced *TaxPeriodReport

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		rep, err := s.lock(ctx, repID)
		if err != nil {
			return err
		}

		if err := rep.CanRecalculate(); err != nil {
			return err
		}

		input, err := s.buildInput(ctx, PeriodParams{
			CompanyID:      rep.CompanyID,
			Year:           rep.Year,
			PeriodType:     rep.PeriodType,
			PeriodNo:       rep.PeriodNo(),
			ProRataPercent: rep.ProRataPercent,
			Overrides:      overrides,
		})
		if err != nil {
			return err
		}

		if err := rep.ApplyCalculation(Calculate(input)); err != nil {
			return err
		}

		if err := s.repo.Update(ctx, rep); err != nil {
			return fmt.Errorf("update report: %w", err)
		}

		recalced = rep
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.audit.LogChange(ctx, "tax_report", repID, domain.AuditUpdate, map[string]any{
		"action": "recalculate",
	}); err != nil {
		logger.Warn(ctx, "audit log failed", "error", err)
	}

	return recalced, nil
}

// Submit freezes a CALCULATED report.
func (s *Service) Submit(ctx context.Context, repID id.ID) (*TaxPeriodReport, error) {
	var submitted *TaxPeriodReport

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		rep, err := s.lock(ctx, repID)
		if err != nil {
			return err
		}

		if err := rep.MarkSubmitted(); err != nil {
			return err
		}

		if err := s.repo.Update(ctx, rep); err != nil {
			return fmt.Errorf("update report: %w", err)
		}

		if err := s.events.Publish(ctx, domain.Event{
			AggregateType: "tax_report",
			AggregateID:   rep.ID,
			EventType:     "TaxReportSubmitted",
			Payload: map[string]any{
				"number":    rep.Number,
				"companyId": rep.CompanyID.String(),
				"year":      rep.Year,
				"periodNo":  rep.PeriodNo(),
			},
		}); err != nil {
			return fmt.Errorf("publish submitted event: %w", err)
		}

		submitted = rep
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.audit.LogChange(ctx, "tax_report", repID, domain.AuditSubmit, map[string]any{
		"number": submitted.Number,
	}); err != nil {
		logger.Warn(ctx, "audit log failed", "error", err)
	}

	logger.Info(ctx, "tax report submitted", "id", repID, "number", submitted.Number)

	return submitted, nil
}

// ApplyOutcome records the tax authority's response for a submitted
// report. Invoked by the external collaborator callback, not computed.
func (s *Service) ApplyOutcome(ctx context.Context, repID id.ID, accepted bool, submissionReference string) (*TaxPeriodReport, error) {
	var updated *TaxPeriodReport

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		rep, err := s.lock(ctx, repID)
		if err != nil {
			return err
		}

		if err := rep.ApplyOutcome(accepted, submissionReference); err != nil {
			return err
		}

		if err := s.repo.Update(ctx, rep); err != nil {
			return fmt.Errorf("update report: %w", err)
		}

		updated = rep
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "tax report outcome applied",
		"id", repID,
		"status", string(updated.Status),
		"reference", submissionReference)

	return updated, nil
}

// GetByID retrieves a report with its field values.
func (s *Service) GetByID(ctx context.Context, repID id.ID) (*TaxPeriodReport, error) {
	rep, err := s.repo.GetByID(ctx, repID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound(entityName, repID.String())
		}
		return nil, err
	}
	return rep, nil
}

// List retrieves reports with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*TaxPeriodReport], error) {
	return s.repo.List(ctx, filter)
}

// buildInput gathers period records and resolves the carried-forward credit.
func (s *Service) buildInput(ctx context.Context, params PeriodParams) (Input, error) {
	from, to := PeriodBounds(params.Year, params.PeriodType, params.PeriodNo)

	records, err := s.records.ListByPeriod(ctx, params.CompanyID, from, to)
	if err != nil {
		return Input{}, fmt.Errorf("load vat records: %w", err)
	}

	credit, err := s.resolvePreviousCredit(ctx, params.CompanyID, from)
	if err != nil {
		return Input{}, err
	}

	return Input{
		Records:        records,
		ProRataPercent: normalizeProRata(params.ProRataPercent),
		PreviousCredit: credit,
		Overrides:      params.Overrides,
	}, nil
}

// resolvePreviousCredit reads field402 of the latest submitted or
// accepted report whose period ends before periodStart; zero when there
// is none. Comparing period end dates keeps the lookup correct when a
// company switches between monthly and quarterly cadence.
func (s *Service) resolvePreviousCredit(ctx context.Context, companyID id.ID, periodStart time.Time) (types.Money, error) {
	prev, err := s.repo.FindLatestBefore(ctx, companyID, periodStart)
	if err != nil {
		if apperror.IsNotFound(err) {
			return types.ZeroMoney(), nil
		}
		return types.Money{}, err
	}
	return prev.Fields.Get(Field402), nil
}

func (s *Service) lock(ctx context.Context, repID id.ID) (*TaxPeriodReport, error) {
	rep, err := s.repo.GetForUpdate(ctx, repID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound(entityName, repID.String())
		}
		return nil, err
	}
	return rep, nil
}

func validatePeriod(params PeriodParams) error {
	if id.IsNil(params.CompanyID) {
		return apperror.NewValidation("company is required").
			WithDetail("field", "companyId")
	}

	if params.Year < 2000 || params.Year > 2100 {
		return apperror.NewValidation("year out of range").
			WithDetail("field", "year").
			WithDetail("value", params.Year)
	}

	switch params.PeriodType {
	case company.VATPeriodMonthly:
		if params.PeriodNo < 1 || params.PeriodNo > 12 {
			return apperror.NewValidation("month must be 1..12").
				WithDetail("field", "month").
				WithDetail("value", params.PeriodNo)
		}
	case company.VATPeriodQuarterly:
		if params.PeriodNo < 1 || params.PeriodNo > 4 {
			return apperror.NewValidation("quarter must be 1..4").
				WithDetail("field", "quarter").
				WithDetail("value", params.PeriodNo)
		}
	default:
		return apperror.NewValidation("invalid period type").
			WithDetail("field", "periodType").
			WithDetail("value", string(params.PeriodType))
	}

	if params.ProRataPercent.IsNegative() || params.ProRataPercent.GreaterThan(decimal.NewFromInt(100)) {
		return apperror.NewValidation("prorata percent must be between 0 and 100").
			WithDetail("field", "proRataPercent").
			WithDetail("value", params.ProRataPercent.String())
	}

	return nil
}

func normalizeProRata(p decimal.Decimal) decimal.Decimal {
	if p.IsZero() {
		return decimal.NewFromInt(100)
	}
	return p
}

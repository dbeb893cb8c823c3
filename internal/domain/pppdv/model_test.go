package pppdv

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fiskalis/internal/core/apperror"
	"fiskalis/internal/core/id"
	"fiskalis/internal/core/types"
	"fiskalis/internal/domain/company"
)

func ruleCode(t *testing.T, err error) string {
	t.Helper()
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok, "expected AppError, got %v", err)
	return appErr.Code
}

func TestPeriodBounds(t *testing.T) {
	first, last := PeriodBounds(2026, company.VATPeriodMonthly, 3)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), first)
	assert.Equal(t, time.March, last.Month())
	assert.Equal(t, 31, last.Day())

	// February respects the calendar.
	_, last = PeriodBounds(2026, company.VATPeriodMonthly, 2)
	assert.Equal(t, 28, last.Day())

	first, last = PeriodBounds(2026, company.VATPeriodQuarterly, 2)
	assert.Equal(t, time.April, first.Month())
	assert.Equal(t, time.June, last.Month())
	assert.Equal(t, 30, last.Day())
}

func TestReport_Validate(t *testing.T) {
	t.Run("monthly", func(t *testing.T) {
		rep := NewTaxPeriodReport(id.New(), 2026, company.VATPeriodMonthly, 3)
		assert.NoError(t, rep.Validate(context.Background()))
		assert.Equal(t, 3, rep.PeriodNo())
		require.NotNil(t, rep.Month)
		assert.Nil(t, rep.Quarter)
	})

	t.Run("quarterly", func(t *testing.T) {
		rep := NewTaxPeriodReport(id.New(), 2026, company.VATPeriodQuarterly, 4)
		assert.NoError(t, rep.Validate(context.Background()))
		assert.Equal(t, 4, rep.PeriodNo())
		assert.Nil(t, rep.Month)
	})

	t.Run("month out of range", func(t *testing.T) {
		rep := NewTaxPeriodReport(id.New(), 2026, company.VATPeriodMonthly, 13)
		err := rep.Validate(context.Background())
		assert.Equal(t, apperror.CodeValidation, ruleCode(t, err))
	})

	t.Run("quarter out of range", func(t *testing.T) {
		rep := NewTaxPeriodReport(id.New(), 2026, company.VATPeriodQuarterly, 5)
		err := rep.Validate(context.Background())
		assert.Equal(t, apperror.CodeValidation, ruleCode(t, err))
	})

	t.Run("both period fields set", func(t *testing.T) {
		rep := NewTaxPeriodReport(id.New(), 2026, company.VATPeriodMonthly, 3)
		q := 1
		rep.Quarter = &q
		err := rep.Validate(context.Background())
		assert.Equal(t, apperror.CodeValidation, ruleCode(t, err))
	})

	t.Run("prorata out of range", func(t *testing.T) {
		rep := NewTaxPeriodReport(id.New(), 2026, company.VATPeriodMonthly, 3)
		rep.ProRataPercent = decimal.NewFromInt(101)
		err := rep.Validate(context.Background())
		assert.Equal(t, apperror.CodeValidation, ruleCode(t, err))
	})
}

func TestReport_Lifecycle(t *testing.T) {
	rep := NewTaxPeriodReport(id.New(), 2026, company.VATPeriodMonthly, 3)
	assert.Equal(t, StatusDraft, rep.Status)

	// SUBMITTED cannot be reached from DRAFT.
	err := rep.MarkSubmitted()
	assert.Equal(t, apperror.CodeStateConflict, ruleCode(t, err))

	require.NoError(t, rep.ApplyCalculation(Calculate(Input{})))
	assert.Equal(t, StatusCalculated, rep.Status)

	// Recalculation repeats while in CALCULATED.
	require.NoError(t, rep.CanRecalculate())
	require.NoError(t, rep.ApplyCalculation(Calculate(Input{})))

	require.NoError(t, rep.MarkSubmitted())
	assert.Equal(t, StatusSubmitted, rep.Status)
	require.NotNil(t, rep.SubmittedAt)

	// Submitted reports are frozen.
	err = rep.CanRecalculate()
	assert.Equal(t, apperror.CodeStateConflict, ruleCode(t, err))
	err = rep.MarkSubmitted()
	assert.Equal(t, apperror.CodeStateConflict, ruleCode(t, err))
}

func TestReport_Outcome(t *testing.T) {
	submitted := func(t *testing.T) *TaxPeriodReport {
		rep := NewTaxPeriodReport(id.New(), 2026, company.VATPeriodMonthly, 3)
		require.NoError(t, rep.ApplyCalculation(Calculate(Input{})))
		require.NoError(t, rep.MarkSubmitted())
		return rep
	}

	t.Run("accepted", func(t *testing.T) {
		rep := submitted(t)
		require.NoError(t, rep.ApplyOutcome(true, "SEF-2026-42"))
		assert.Equal(t, StatusAccepted, rep.Status)
		require.NotNil(t, rep.SubmissionReference)
		assert.Equal(t, "SEF-2026-42", *rep.SubmissionReference)
	})

	t.Run("rejected", func(t *testing.T) {
		rep := submitted(t)
		require.NoError(t, rep.ApplyOutcome(false, ""))
		assert.Equal(t, StatusRejected, rep.Status)
		assert.Nil(t, rep.SubmissionReference)
	})

	t.Run("terminal", func(t *testing.T) {
		rep := submitted(t)
		require.NoError(t, rep.ApplyOutcome(true, "SEF-1"))
		assert.Error(t, rep.ApplyOutcome(false, "SEF-2"))
	})

	t.Run("requires submitted", func(t *testing.T) {
		rep := NewTaxPeriodReport(id.New(), 2026, company.VATPeriodMonthly, 3)
		err := rep.ApplyOutcome(true, "SEF-1")
		assert.Equal(t, apperror.CodeStateConflict, ruleCode(t, err))
	})
}

func TestReport_BalanceInvariant(t *testing.T) {
	rep := NewTaxPeriodReport(id.New(), 2026, company.VATPeriodMonthly, 3)
	require.NoError(t, rep.ApplyCalculation(Calculate(Input{})))

	rep.Fields.Set(Field401, types.MustMoney("100.00"))
	rep.Fields.Set(Field402, types.MustMoney("50.00"))

	err := rep.MarkSubmitted()
	assert.Equal(t, apperror.CodeValidation, ruleCode(t, err))
	assert.Equal(t, StatusCalculated, rep.Status)
}

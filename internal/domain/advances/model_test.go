package advances

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fiskalis/internal/core/apperror"
	"fiskalis/internal/core/id"
	"fiskalis/internal/core/types"
)

func ruleCode(t *testing.T, err error) string {
	t.Helper()
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok, "expected AppError, got %v", err)
	return appErr.Code
}

func paidAdvance(t *testing.T, net string, rate types.VATRate) *AdvanceInvoice {
	t.Helper()
	adv := NewAdvanceInvoice(id.New(), id.New(), types.MustMoney(net), rate)
	require.NoError(t, adv.MarkIssued())
	require.NoError(t, adv.MarkPaid(time.Now(), adv.TotalAmount))
	return adv
}

func TestAdvance_DerivedAmounts(t *testing.T) {
	adv := NewAdvanceInvoice(id.New(), id.New(), types.MustMoney("1000.00"), types.VATRate(20))

	assert.Equal(t, "200.00", adv.VATAmount.String())
	assert.Equal(t, "1200.00", adv.TotalAmount.String())
	assert.Equal(t, "1200.00", adv.RemainingAmount.String())
	assert.Equal(t, "RSD", adv.Currency)
	assert.Equal(t, StatusDraft, adv.Status)
	assert.NoError(t, adv.Validate(context.Background()))
}

func TestAdvance_ZeroRate(t *testing.T) {
	adv := NewAdvanceInvoice(id.New(), id.New(), types.MustMoney("500.00"), types.VATRate(0))

	assert.True(t, adv.VATAmount.IsZero())
	assert.Equal(t, "500.00", adv.TotalAmount.String())
	assert.NoError(t, adv.Validate(context.Background()))
}

func TestAdvance_ValidateRejects(t *testing.T) {
	base := func() *AdvanceInvoice {
		return NewAdvanceInvoice(id.New(), id.New(), types.MustMoney("100.00"), types.VATRate(20))
	}

	t.Run("invalid rate", func(t *testing.T) {
		adv := NewAdvanceInvoice(id.New(), id.New(), types.MustMoney("100.00"), types.VATRate(18))
		err := adv.Validate(context.Background())
		assert.Equal(t, apperror.CodeValidation, ruleCode(t, err))
	})

	t.Run("non positive net", func(t *testing.T) {
		adv := NewAdvanceInvoice(id.New(), id.New(), types.ZeroMoney(), types.VATRate(20))
		err := adv.Validate(context.Background())
		assert.Equal(t, apperror.CodeValidation, ruleCode(t, err))
	})

	t.Run("missing partner", func(t *testing.T) {
		adv := base()
		adv.PartnerID = id.Nil()
		err := adv.Validate(context.Background())
		assert.Equal(t, apperror.CodeValidation, ruleCode(t, err))
	})

	t.Run("tampered vat amount", func(t *testing.T) {
		adv := base()
		adv.VATAmount = types.MustMoney("19.99")
		err := adv.Validate(context.Background())
		assert.Equal(t, apperror.CodeValidation, ruleCode(t, err))
	})
}

func TestAdvance_Lifecycle(t *testing.T) {
	adv := NewAdvanceInvoice(id.New(), id.New(), types.MustMoney("1000.00"), types.VATRate(20))

	// PAID cannot be reached from DRAFT directly.
	err := adv.MarkPaid(time.Now(), adv.TotalAmount)
	assert.Equal(t, apperror.CodeStateConflict, ruleCode(t, err))

	require.NoError(t, adv.MarkIssued())
	assert.Equal(t, StatusIssued, adv.Status)

	require.NoError(t, adv.MarkPaid(time.Now(), adv.TotalAmount))
	assert.Equal(t, StatusPaid, adv.Status)
	require.NotNil(t, adv.PaymentDate)
	assert.Equal(t, "1200.00", adv.PaidAmount.String())
}

func TestAdvance_MarkPaidValidation(t *testing.T) {
	adv := NewAdvanceInvoice(id.New(), id.New(), types.MustMoney("1000.00"), types.VATRate(20))
	require.NoError(t, adv.MarkIssued())

	err := adv.MarkPaid(time.Now(), types.ZeroMoney())
	assert.Equal(t, apperror.CodeValidation, ruleCode(t, err))

	err = adv.MarkPaid(time.Now(), types.MustMoney("1200.01"))
	assert.Equal(t, apperror.CodeValidation, ruleCode(t, err))

	assert.Equal(t, StatusIssued, adv.Status, "failed payment leaves status unchanged")
}

func TestAdvance_AllocatePartialThenFull(t *testing.T) {
	adv := paidAdvance(t, "1000.00", types.VATRate(20))

	require.NoError(t, adv.Allocate(id.New(), types.MustMoney("700.00")))
	assert.Equal(t, StatusPartiallyUsed, adv.Status)
	assert.Equal(t, "700.00", adv.UsedAmount.String())
	assert.Equal(t, "500.00", adv.RemainingAmount.String())

	require.NoError(t, adv.Allocate(id.New(), types.MustMoney("500.00")))
	assert.Equal(t, StatusFullyUsed, adv.Status)
	assert.True(t, adv.RemainingAmount.IsZero())
	assert.Len(t, adv.Allocations, 2)
}

func TestAdvance_AllocateFullInOneStep(t *testing.T) {
	adv := paidAdvance(t, "1000.00", types.VATRate(20))

	require.NoError(t, adv.Allocate(id.New(), types.MustMoney("1200.00")))
	assert.Equal(t, StatusFullyUsed, adv.Status)
}

func TestAdvance_OverAllocationRejected(t *testing.T) {
	adv := paidAdvance(t, "1000.00", types.VATRate(20))
	require.NoError(t, adv.Allocate(id.New(), types.MustMoney("1000.00")))

	err := adv.Allocate(id.New(), types.MustMoney("200.01"))
	assert.Equal(t, apperror.CodeOverAllocation, ruleCode(t, err))

	// Rejection leaves the advance untouched.
	assert.Equal(t, StatusPartiallyUsed, adv.Status)
	assert.Equal(t, "1000.00", adv.UsedAmount.String())
	assert.Len(t, adv.Allocations, 1)
}

func TestAdvance_AllocateRequiresPaid(t *testing.T) {
	adv := NewAdvanceInvoice(id.New(), id.New(), types.MustMoney("1000.00"), types.VATRate(20))
	require.NoError(t, adv.MarkIssued())

	err := adv.Allocate(id.New(), types.MustMoney("100.00"))
	assert.Equal(t, apperror.CodeStateConflict, ruleCode(t, err))
}

func TestAdvance_AllocateTerminalState(t *testing.T) {
	adv := paidAdvance(t, "100.00", types.VATRate(0))
	require.NoError(t, adv.Allocate(id.New(), types.MustMoney("100.00")))
	assert.Equal(t, StatusFullyUsed, adv.Status)

	err := adv.Allocate(id.New(), types.MustMoney("0.01"))
	assert.Equal(t, apperror.CodeStateConflict, ruleCode(t, err))
}

func TestAdvance_Cancel(t *testing.T) {
	t.Run("from draft", func(t *testing.T) {
		adv := NewAdvanceInvoice(id.New(), id.New(), types.MustMoney("100.00"), types.VATRate(20))
		require.NoError(t, adv.MarkCancelled("customer withdrew"))
		assert.Equal(t, StatusCancelled, adv.Status)
		assert.Equal(t, "customer withdrew", adv.CancelReason)
	})

	t.Run("from paid", func(t *testing.T) {
		adv := paidAdvance(t, "100.00", types.VATRate(20))
		require.NoError(t, adv.MarkCancelled("refunded"))
		assert.Equal(t, StatusCancelled, adv.Status)
	})

	t.Run("requires reason", func(t *testing.T) {
		adv := NewAdvanceInvoice(id.New(), id.New(), types.MustMoney("100.00"), types.VATRate(20))
		err := adv.MarkCancelled("")
		assert.Equal(t, apperror.CodeValidation, ruleCode(t, err))
	})

	t.Run("rejected with allocations", func(t *testing.T) {
		adv := paidAdvance(t, "1000.00", types.VATRate(20))
		require.NoError(t, adv.Allocate(id.New(), types.MustMoney("100.00")))

		err := adv.MarkCancelled("too late")
		assert.Equal(t, apperror.CodeConflict, ruleCode(t, err))
		assert.Equal(t, StatusPartiallyUsed, adv.Status)
	})

	t.Run("rejected when fully used", func(t *testing.T) {
		adv := paidAdvance(t, "100.00", types.VATRate(0))
		require.NoError(t, adv.Allocate(id.New(), types.MustMoney("100.00")))

		assert.Error(t, adv.MarkCancelled("terminal"))
	})
}

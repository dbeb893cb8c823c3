package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fiskalis/internal/core/apperror"
	"fiskalis/internal/core/id"
	"fiskalis/internal/core/types"
)

func balancedEntry(t *testing.T) *JournalEntry {
	t.Helper()
	entry := NewJournalEntry(id.New(), TypeGeneral, "test entry")
	entry.AddLine(id.New(), types.MustMoney("1000.00"), types.ZeroMoney(), "debit side")
	entry.AddLine(id.New(), types.ZeroMoney(), types.MustMoney("1000.00"), "credit side")
	return entry
}

func ruleCode(t *testing.T, err error) string {
	t.Helper()
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok, "expected AppError, got %v", err)
	return appErr.Code
}

func TestJournalEntry_ValidateBalanced(t *testing.T) {
	entry := balancedEntry(t)
	assert.NoError(t, entry.Validate(context.Background()))
}

func TestJournalEntry_ValidateUnbalanced(t *testing.T) {
	entry := NewJournalEntry(id.New(), TypeGeneral, "skewed")
	entry.AddLine(id.New(), types.MustMoney("1000.00"), types.ZeroMoney(), "")
	entry.AddLine(id.New(), types.ZeroMoney(), types.MustMoney("999.99"), "")

	err := entry.Validate(context.Background())
	assert.Equal(t, apperror.CodeUnbalanced, ruleCode(t, err))
}

func TestJournalEntry_ValidateTotalsMismatch(t *testing.T) {
	entry := balancedEntry(t)
	// Simulate totals drifting from lines (e.g. a client sent stale totals).
	entry.TotalDebit = types.MustMoney("500.00")

	err := entry.CheckBalanced()
	assert.Equal(t, apperror.CodeUnbalanced, ruleCode(t, err))

	entry.RecalculateTotals()
	assert.NoError(t, entry.CheckBalanced())
}

func TestJournalEntry_ValidateTooFewLines(t *testing.T) {
	entry := NewJournalEntry(id.New(), TypeGeneral, "single line")
	entry.AddLine(id.New(), types.MustMoney("100.00"), types.ZeroMoney(), "")

	err := entry.Validate(context.Background())
	assert.Equal(t, apperror.CodeInvalidLine, ruleCode(t, err))
}

func TestJournalEntry_ValidateLineRules(t *testing.T) {
	cases := []struct {
		name          string
		accountID     id.ID
		debit, credit types.Money
	}{
		{"both sides set", id.New(), types.MustMoney("10.00"), types.MustMoney("10.00")},
		{"both sides zero", id.New(), types.ZeroMoney(), types.ZeroMoney()},
		{"negative debit", id.New(), types.MustMoney("-10.00"), types.ZeroMoney()},
		{"negative credit", id.New(), types.ZeroMoney(), types.MustMoney("-10.00")},
		{"missing account", id.Nil(), types.MustMoney("10.00"), types.ZeroMoney()},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			entry := NewJournalEntry(id.New(), TypeGeneral, "bad line")
			entry.AddLine(tc.accountID, tc.debit, tc.credit, "")
			entry.AddLine(id.New(), types.ZeroMoney(), types.MustMoney("10.00"), "")

			err := entry.Validate(context.Background())
			assert.Equal(t, apperror.CodeInvalidLine, ruleCode(t, err))
		})
	}
}

func TestJournalEntry_ValidateEntryType(t *testing.T) {
	entry := balancedEntry(t)
	entry.Type = EntryType("BOGUS")

	err := entry.Validate(context.Background())
	assert.Equal(t, apperror.CodeValidation, ruleCode(t, err))
}

func TestJournalEntry_StatusTransitions(t *testing.T) {
	entry := balancedEntry(t)
	assert.Equal(t, StatusDraft, entry.Status)
	assert.Nil(t, entry.PostedAt)

	require.NoError(t, entry.MarkPosted())
	assert.Equal(t, StatusPosted, entry.Status)
	require.NotNil(t, entry.PostedAt)

	// Posting twice is an illegal transition.
	err := entry.MarkPosted()
	assert.Equal(t, apperror.CodeStateConflict, ruleCode(t, err))

	require.NoError(t, entry.MarkReversed())
	assert.Equal(t, StatusReversed, entry.Status)

	// REVERSED is terminal.
	assert.Error(t, entry.MarkPosted())
	assert.Error(t, entry.MarkReversed())
}

func TestJournalEntry_ReverseRequiresPosted(t *testing.T) {
	entry := balancedEntry(t)

	err := entry.MarkReversed()
	assert.Equal(t, apperror.CodeStateConflict, ruleCode(t, err))
	assert.Equal(t, StatusDraft, entry.Status)
}

func TestJournalEntry_CanModify(t *testing.T) {
	entry := balancedEntry(t)
	assert.NoError(t, entry.CanModify())

	require.NoError(t, entry.MarkPosted())
	err := entry.CanModify()
	assert.Equal(t, apperror.CodeStateConflict, ruleCode(t, err))
}

func TestJournalEntry_BuildReversal(t *testing.T) {
	entry := balancedEntry(t)
	entry.Number = "NO-2026-00042"
	require.NoError(t, entry.MarkPosted())

	rev := entry.BuildReversal(TypeAdjustment, "wrong partner")

	assert.Equal(t, StatusDraft, rev.Status)
	assert.Equal(t, TypeAdjustment, rev.Type)
	assert.Equal(t, entry.CompanyID, rev.CompanyID)
	require.NotNil(t, rev.ReversalOf)
	assert.Equal(t, entry.ID, *rev.ReversalOf)
	assert.Equal(t, "wrong partner", rev.ReversalReason)
	assert.Contains(t, rev.Description, entry.Number)

	require.Len(t, rev.Lines, len(entry.Lines))
	for i, line := range rev.Lines {
		orig := entry.Lines[i]
		assert.Equal(t, orig.AccountID, line.AccountID)
		assert.True(t, line.Debit.Equal(orig.Credit), "line %d debit", i)
		assert.True(t, line.Credit.Equal(orig.Debit), "line %d credit", i)
		assert.NotEqual(t, orig.LineID, line.LineID)
	}

	// The mirror balances by construction and is itself postable.
	assert.NoError(t, rev.Validate(context.Background()))
	assert.True(t, rev.TotalDebit.Equal(entry.TotalCredit))
	assert.True(t, rev.TotalCredit.Equal(entry.TotalDebit))
}

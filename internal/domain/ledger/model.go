// Package ledger provides the double-entry journal: balanced entries,
// posting, and mirror reversals. The ledger is append-only; posted
// entries are never mutated, only compensated.
package ledger

import (
	"context"
	"time"

	"fiskalis/internal/core/apperror"
	"fiskalis/internal/core/entity"
	"fiskalis/internal/core/id"
	"fiskalis/internal/core/types"
)

// EntryType classifies a journal entry by its business origin.
type EntryType string

const (
	TypeGeneral    EntryType = "GENERAL"
	TypeSales      EntryType = "SALES"
	TypePurchase   EntryType = "PURCHASE"
	TypeCash       EntryType = "CASH"
	TypeBank       EntryType = "BANK"
	TypeAdjustment EntryType = "ADJUSTMENT"
	TypeClosing    EntryType = "CLOSING"
)

// Journal entry lifecycle. REVERSED is terminal.
const (
	StatusDraft    entity.Status = "DRAFT"
	StatusPosted   entity.Status = "POSTED"
	StatusReversed entity.Status = "REVERSED"
)

// statusTransitions lists the allowed lifecycle moves.
var statusTransitions = map[entity.Status][]entity.Status{
	StatusDraft:  {StatusPosted},
	StatusPosted: {StatusReversed},
}

// JournalEntry is a balanced set of debit/credit lines against accounts.
type JournalEntry struct {
	entity.Document

	// EntryNumber is sequential per company, assigned at creation
	EntryNumber int64 `db:"entry_number" json:"entryNumber"`

	// Type classifies the entry
	Type EntryType `db:"type" json:"type"`

	// Description of the business event
	Description string `db:"description" json:"description"`

	// Totals computed from lines; equal for a valid entry
	TotalDebit  types.Money `db:"total_debit" json:"totalDebit"`
	TotalCredit types.Money `db:"total_credit" json:"totalCredit"`

	// PostedAt is stamped when the entry is posted
	PostedAt *time.Time `db:"posted_at" json:"postedAt,omitempty"`

	// ReversalOf references the entry this one compensates.
	// Weak reference, lookup only.
	ReversalOf *id.ID `db:"reversal_of" json:"reversalOf,omitempty"`

	// Reason recorded when this entry reverses another
	ReversalReason string `db:"reversal_reason" json:"reversalReason,omitempty"`

	// Table part: debit/credit lines
	Lines []JournalLine `db:"-" json:"lines"`
}

// JournalLine is a single debit or credit against an account.
// Exactly one of Debit/Credit is non-zero. Lines are owned by their
// entry and saved/loaded with it.
type JournalLine struct {
	LineID id.ID `db:"line_id" json:"lineId"`
	LineNo int   `db:"line_no" json:"lineNo"`

	AccountID id.ID `db:"account_id" json:"accountId"`

	Debit  types.Money `db:"debit" json:"debit"`
	Credit types.Money `db:"credit" json:"credit"`

	Description string `db:"description" json:"description,omitempty"`
}

// NewJournalEntry creates a draft entry without lines.
func NewJournalEntry(companyID id.ID, entryType EntryType, description string) *JournalEntry {
	return &JournalEntry{
		Document:    entity.NewDocument(companyID, StatusDraft),
		Type:        entryType,
		Description: description,
		Lines:       make([]JournalLine, 0),
	}
}

// AddLine appends a line and recalculates totals.
func (e *JournalEntry) AddLine(accountID id.ID, debit, credit types.Money, description string) {
	e.Lines = append(e.Lines, JournalLine{
		LineID:      id.New(),
		LineNo:      len(e.Lines) + 1,
		AccountID:   accountID,
		Debit:       debit,
		Credit:      credit,
		Description: description,
	})
	e.RecalculateTotals()
}

// RecalculateTotals updates entry totals from lines.
func (e *JournalEntry) RecalculateTotals() {
	e.TotalDebit = types.ZeroMoney()
	e.TotalCredit = types.ZeroMoney()
	for _, line := range e.Lines {
		e.TotalDebit = e.TotalDebit.Add(line.Debit)
		e.TotalCredit = e.TotalCredit.Add(line.Credit)
	}
}

// Validate implements entity.Validatable.
// Checks structural invariants: line count, the per-line debit/credit
// rule, and the exact-balance identity. Account existence/activity is
// checked by the service against the account registry.
func (e *JournalEntry) Validate(ctx context.Context) error {
	if err := e.Document.Validate(ctx); err != nil {
		return err
	}

	if !isValidEntryType(e.Type) {
		return apperror.NewValidation("invalid entry type").
			WithDetail("field", "type").
			WithDetail("value", string(e.Type))
	}

	if len(e.Lines) < 2 {
		return apperror.NewRuleViolation(apperror.CodeInvalidLine, "journal entry requires at least two lines").
			WithDetail("field", "lines").
			WithDetail("count", len(e.Lines))
	}

	for i, line := range e.Lines {
		if err := validateLine(i+1, line); err != nil {
			return err
		}
	}

	if err := e.CheckBalanced(); err != nil {
		return err
	}

	return nil
}

// CheckBalanced verifies the exact-balance identity against the lines.
// Exact decimal comparison, no epsilon.
func (e *JournalEntry) CheckBalanced() error {
	debit := types.ZeroMoney()
	credit := types.ZeroMoney()
	for _, line := range e.Lines {
		debit = debit.Add(line.Debit)
		credit = credit.Add(line.Credit)
	}

	if !debit.Equal(credit) {
		return apperror.NewRuleViolation(apperror.CodeUnbalanced, "journal entry is not balanced").
			WithDetail("totalDebit", debit.String()).
			WithDetail("totalCredit", credit.String())
	}

	if !e.TotalDebit.Equal(debit) || !e.TotalCredit.Equal(credit) {
		return apperror.NewRuleViolation(apperror.CodeUnbalanced, "entry totals do not match line sums").
			WithDetail("totalDebit", e.TotalDebit.String()).
			WithDetail("totalCredit", e.TotalCredit.String()).
			WithDetail("lineDebit", debit.String()).
			WithDetail("lineCredit", credit.String())
	}

	return nil
}

func validateLine(lineNo int, line JournalLine) error {
	if id.IsNil(line.AccountID) {
		return apperror.NewRuleViolation(apperror.CodeInvalidLine, "line account is required").
			WithDetail("lineNo", lineNo)
	}

	if line.Debit.IsNegative() || line.Credit.IsNegative() {
		return apperror.NewRuleViolation(apperror.CodeInvalidLine, "line amounts must not be negative").
			WithDetail("lineNo", lineNo)
	}

	debitSet := !line.Debit.IsZero()
	creditSet := !line.Credit.IsZero()

	// Exactly one side of the line carries an amount.
	if debitSet == creditSet {
		return apperror.NewRuleViolation(apperror.CodeInvalidLine, "line must have exactly one of debit or credit non-zero").
			WithDetail("lineNo", lineNo).
			WithDetail("debit", line.Debit.String()).
			WithDetail("credit", line.Credit.String())
	}

	return nil
}

// CanModify rejects modification of non-draft entries.
func (e *JournalEntry) CanModify() error {
	if e.Status != StatusDraft {
		return apperror.NewStateConflict("journal entry", string(e.Status), string(StatusDraft)).
			WithDetail("document_id", e.ID.String()).
			WithDetail("hint", "posted entries are immutable, use reverse")
	}
	return nil
}

// MarkPosted transitions DRAFT -> POSTED and stamps PostedAt.
func (e *JournalEntry) MarkPosted() error {
	if err := e.Transition("journal entry", StatusPosted, statusTransitions); err != nil {
		return err
	}
	now := time.Now().UTC()
	e.PostedAt = &now
	return nil
}

// MarkReversed transitions POSTED -> REVERSED.
func (e *JournalEntry) MarkReversed() error {
	return e.Transition("journal entry", StatusReversed, statusTransitions)
}

// BuildReversal creates the mirror entry: every debit becomes a credit
// and vice versa, same magnitudes, new line IDs. The reversal is born
// POSTED and references the original.
func (e *JournalEntry) BuildReversal(entryType EntryType, reason string) *JournalEntry {
	rev := NewJournalEntry(e.CompanyID, entryType, "Reversal of entry "+e.Number)
	rev.ReversalOf = &e.ID
	rev.ReversalReason = reason

	for _, line := range e.Lines {
		rev.AddLine(line.AccountID, line.Credit, line.Debit, line.Description)
	}

	return rev
}

func isValidEntryType(t EntryType) bool {
	switch t {
	case TypeGeneral, TypeSales, TypePurchase, TypeCash, TypeBank, TypeAdjustment, TypeClosing:
		return true
	}
	return false
}

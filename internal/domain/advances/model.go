// Package advances provides the advance invoice document: prepayments
// that are later consumed against final invoices. Allocations form an
// append-only event log; the remaining amount is always derived from it.
package advances

import (
	"context"
	"time"

	"fiskalis/internal/core/apperror"
	"fiskalis/internal/core/entity"
	"fiskalis/internal/core/id"
	"fiskalis/internal/core/types"
)

// DefaultCurrency for advance invoices.
const DefaultCurrency = "RSD"

// Advance invoice lifecycle. FULLY_USED and CANCELLED are terminal.
const (
	StatusDraft         entity.Status = "DRAFT"
	StatusIssued        entity.Status = "ISSUED"
	StatusPaid          entity.Status = "PAID"
	StatusPartiallyUsed entity.Status = "PARTIALLY_USED"
	StatusFullyUsed     entity.Status = "FULLY_USED"
	StatusCancelled     entity.Status = "CANCELLED"
)

// statusTransitions lists the allowed lifecycle moves.
// PARTIALLY_USED repeats while allocations accumulate.
var statusTransitions = map[entity.Status][]entity.Status{
	StatusDraft:         {StatusIssued, StatusCancelled},
	StatusIssued:        {StatusPaid, StatusCancelled},
	StatusPaid:          {StatusPartiallyUsed, StatusFullyUsed, StatusCancelled},
	StatusPartiallyUsed: {StatusPartiallyUsed, StatusFullyUsed, StatusCancelled},
}

// Allocation records one consumption of the advance against a final invoice.
type Allocation struct {
	AllocationID id.ID       `db:"allocation_id" json:"allocationId"`
	InvoiceID    id.ID       `db:"invoice_id" json:"invoiceId"`
	Amount       types.Money `db:"amount" json:"amount"`
	AllocatedAt  time.Time   `db:"allocated_at" json:"allocatedAt"`
}

// AdvanceInvoice is a prepayment document.
type AdvanceInvoice struct {
	entity.Document

	// PartnerID references the partner catalog
	PartnerID id.ID `db:"partner_id" json:"partnerId"`

	// Currency, RSD unless stated otherwise
	Currency string `db:"currency" json:"currency"`

	// NetAmount is the base amount; VATAmount and TotalAmount are derived
	NetAmount   types.Money   `db:"net_amount" json:"netAmount"`
	VATRate     types.VATRate `db:"vat_rate" json:"vatRate"`
	VATAmount   types.Money   `db:"vat_amount" json:"vatAmount"`
	TotalAmount types.Money   `db:"total_amount" json:"totalAmount"`

	// PaidAmount is set when the advance payment arrives
	PaidAmount  types.Money `db:"paid_amount" json:"paidAmount"`
	PaymentDate *time.Time  `db:"payment_date" json:"paymentDate,omitempty"`

	// UsedAmount equals the sum of allocation amounts at all times
	UsedAmount types.Money `db:"used_amount" json:"usedAmount"`

	// RemainingAmount is a projection (total - used), never stored truth
	RemainingAmount types.Money `db:"-" json:"remainingAmount"`

	// CancelReason recorded on cancellation
	CancelReason string `db:"cancel_reason" json:"cancelReason,omitempty"`

	// Allocations is the append-only consumption log
	Allocations []Allocation `db:"-" json:"linkedInvoices"`
}

// NewAdvanceInvoice creates a draft advance with derived VAT amounts.
func NewAdvanceInvoice(companyID, partnerID id.ID, net types.Money, rate types.VATRate) *AdvanceInvoice {
	adv := &AdvanceInvoice{
		Document:    entity.NewDocument(companyID, StatusDraft),
		PartnerID:   partnerID,
		Currency:    DefaultCurrency,
		NetAmount:   net,
		VATRate:     rate,
		Allocations: make([]Allocation, 0),
	}
	adv.RecalculateAmounts()
	return adv
}

// RecalculateAmounts derives VAT, total, used and remaining amounts.
func (a *AdvanceInvoice) RecalculateAmounts() {
	a.VATAmount = a.VATRate.VATOn(a.NetAmount)
	a.TotalAmount = a.NetAmount.Add(a.VATAmount)

	used := types.ZeroMoney()
	for _, alloc := range a.Allocations {
		used = used.Add(alloc.Amount)
	}
	a.UsedAmount = used
	a.RemainingAmount = a.TotalAmount.Sub(a.UsedAmount)
}

// Remaining returns totalAmount - usedAmount.
func (a *AdvanceInvoice) Remaining() types.Money {
	return a.TotalAmount.Sub(a.UsedAmount)
}

// Validate implements entity.Validatable.
func (a *AdvanceInvoice) Validate(ctx context.Context) error {
	if err := a.Document.Validate(ctx); err != nil {
		return err
	}

	if id.IsNil(a.PartnerID) {
		return apperror.NewValidation("partner is required").
			WithDetail("field", "partnerId")
	}

	if a.Currency == "" {
		return apperror.NewValidation("currency is required").
			WithDetail("field", "currency")
	}

	if !a.NetAmount.IsPositive() {
		return apperror.NewValidation("net amount must be positive").
			WithDetail("field", "netAmount").
			WithDetail("value", a.NetAmount.String())
	}

	if !a.VATRate.Valid() {
		return apperror.NewValidation("VAT rate must be one of 0, 10, 20").
			WithDetail("field", "vatRate").
			WithDetail("value", int(a.VATRate))
	}

	expectedVAT := a.VATRate.VATOn(a.NetAmount)
	if !a.VATAmount.Equal(expectedVAT) {
		return apperror.NewValidation("VAT amount does not match net amount and rate").
			WithDetail("field", "vatAmount").
			WithDetail("expected", expectedVAT.String()).
			WithDetail("actual", a.VATAmount.String())
	}

	if !a.TotalAmount.Equal(a.NetAmount.Add(a.VATAmount)) {
		return apperror.NewValidation("total amount does not match net plus VAT").
			WithDetail("field", "totalAmount")
	}

	return nil
}

// CanAllocate reports whether any amount may still be consumed.
func (a *AdvanceInvoice) CanAllocate() bool {
	return a.InStatus(StatusPaid, StatusPartiallyUsed) && a.Remaining().IsPositive()
}

// Allocate appends a consumption event and moves the status forward.
// Rejects over-allocation; the caller must hold the row lock.
func (a *AdvanceInvoice) Allocate(invoiceID id.ID, amount types.Money) error {
	if id.IsNil(invoiceID) {
		return apperror.NewValidation("invoice is required").
			WithDetail("field", "invoiceId")
	}

	if !amount.IsPositive() {
		return apperror.NewValidation("allocation amount must be positive").
			WithDetail("field", "amount").
			WithDetail("value", amount.String())
	}

	if !a.CanAllocate() {
		return apperror.NewStateConflict("advance invoice", string(a.Status), string(StatusPartiallyUsed)).
			WithDetail("document_id", a.ID.String()).
			WithDetail("remainingAmount", a.Remaining().String())
	}

	remaining := a.Remaining()
	if amount.GreaterThan(remaining) {
		return apperror.NewRuleViolation(apperror.CodeOverAllocation, "allocation exceeds remaining amount").
			WithDetail("amount", amount.String()).
			WithDetail("remainingAmount", remaining.String())
	}

	a.Allocations = append(a.Allocations, Allocation{
		AllocationID: id.New(),
		InvoiceID:    invoiceID,
		Amount:       amount,
		AllocatedAt:  time.Now().UTC(),
	})
	a.RecalculateAmounts()

	next := StatusPartiallyUsed
	if a.RemainingAmount.IsZero() {
		next = StatusFullyUsed
	}
	return a.Transition("advance invoice", next, statusTransitions)
}

// MarkIssued transitions DRAFT -> ISSUED.
func (a *AdvanceInvoice) MarkIssued() error {
	return a.Transition("advance invoice", StatusIssued, statusTransitions)
}

// MarkPaid records the payment and transitions ISSUED -> PAID.
// Amount must be positive and must not exceed the total.
func (a *AdvanceInvoice) MarkPaid(paymentDate time.Time, amount types.Money) error {
	if !amount.IsPositive() {
		return apperror.NewValidation("payment amount must be positive").
			WithDetail("field", "amount")
	}

	if amount.GreaterThan(a.TotalAmount) {
		return apperror.NewValidation("payment exceeds total amount").
			WithDetail("field", "amount").
			WithDetail("amount", amount.String()).
			WithDetail("totalAmount", a.TotalAmount.String())
	}

	if err := a.Transition("advance invoice", StatusPaid, statusTransitions); err != nil {
		return err
	}

	a.PaidAmount = amount
	date := paymentDate.UTC()
	a.PaymentDate = &date
	return nil
}

// MarkCancelled transitions any non-terminal state to CANCELLED.
// Cancellation of a partially used advance is rejected; its allocations
// must be reversed first.
func (a *AdvanceInvoice) MarkCancelled(reason string) error {
	if reason == "" {
		return apperror.NewValidation("cancel reason is required").
			WithDetail("field", "reason")
	}

	if a.UsedAmount.IsPositive() {
		return apperror.NewConflict("cannot cancel advance with allocations, reverse them first").
			WithDetail("document_id", a.ID.String()).
			WithDetail("usedAmount", a.UsedAmount.String())
	}

	if err := a.Transition("advance invoice", StatusCancelled, statusTransitions); err != nil {
		return err
	}

	a.CancelReason = reason
	return nil
}

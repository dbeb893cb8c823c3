package dto

import (
	"time"

	"fiskalis/internal/core/id"
	"fiskalis/internal/core/types"
	"fiskalis/internal/domain/advances"
)

// --- Request DTOs ---

// CreateAdvanceInvoiceRequest creates an advance invoice. The advance is
// issued immediately unless draft is set.
type CreateAdvanceInvoiceRequest struct {
	CompanyID string      `json:"companyId" binding:"required,uuid"`
	PartnerID string      `json:"partnerId" binding:"required,uuid"`
	Date      *time.Time  `json:"date,omitempty"`
	Currency  string      `json:"currency,omitempty"`
	NetAmount types.Money `json:"netAmount" binding:"required"`
	VATRate   int         `json:"vatRate" binding:"oneof=0 10 20"`
	Comment   string      `json:"comment,omitempty"`
	Draft     bool        `json:"draft,omitempty"`
}

// ToEntity converts request to domain entity.
func (r *CreateAdvanceInvoiceRequest) ToEntity() *advances.AdvanceInvoice {
	companyID, _ := id.Parse(r.CompanyID)
	partnerID, _ := id.Parse(r.PartnerID)

	adv := advances.NewAdvanceInvoice(companyID, partnerID, r.NetAmount, types.VATRate(r.VATRate))
	if r.Date != nil {
		adv.Date = *r.Date
	}
	if r.Currency != "" {
		adv.Currency = r.Currency
	}
	adv.Comment = r.Comment
	return adv
}

// MarkPaidRequest records the advance payment.
type MarkPaidRequest struct {
	PaymentDate time.Time   `json:"paymentDate" binding:"required"`
	Amount      types.Money `json:"amount" binding:"required"`
}

// UseAdvanceRequest allocates part of the advance to a final invoice.
type UseAdvanceRequest struct {
	InvoiceID string      `json:"invoiceId" binding:"required,uuid"`
	Amount    types.Money `json:"amount" binding:"required"`
}

// CancelAdvanceRequest cancels a non-terminal advance.
type CancelAdvanceRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// AdvanceInvoiceFilter narrows advance listing.
type AdvanceInvoiceFilter struct {
	CompanyID    string     `form:"companyId"`
	PartnerID    string     `form:"partnerId"`
	Status       []string   `form:"status"`
	DateFrom     *time.Time `form:"dateFrom"`
	DateTo       *time.Time `form:"dateTo"`
	HasRemaining *bool      `form:"hasRemaining"`
	Limit        int        `form:"limit"`
	Offset       int        `form:"offset"`
}

// --- Response DTOs ---

// AdvanceInvoiceResponse represents an advance invoice in API responses.
type AdvanceInvoiceResponse struct {
	DocumentResponse
	PartnerID       string               `json:"partnerId"`
	Currency        string               `json:"currency"`
	NetAmount       types.Money          `json:"netAmount"`
	VATRate         int                  `json:"vatRate"`
	VATAmount       types.Money          `json:"vatAmount"`
	TotalAmount     types.Money          `json:"totalAmount"`
	PaidAmount      types.Money          `json:"paidAmount"`
	PaymentDate     *time.Time           `json:"paymentDate,omitempty"`
	UsedAmount      types.Money          `json:"usedAmount"`
	RemainingAmount types.Money          `json:"remainingAmount"`
	CancelReason    string               `json:"cancelReason,omitempty"`
	LinkedInvoices  []AllocationResponse `json:"linkedInvoices,omitempty"`
}

// AllocationResponse represents one consumption event.
type AllocationResponse struct {
	AllocationID string      `json:"allocationId"`
	InvoiceID    string      `json:"invoiceId"`
	Amount       types.Money `json:"amount"`
	AllocatedAt  time.Time   `json:"allocatedAt"`
}

// FromAdvanceInvoice converts domain entity to response DTO.
func FromAdvanceInvoice(adv *advances.AdvanceInvoice) *AdvanceInvoiceResponse {
	resp := &AdvanceInvoiceResponse{
		DocumentResponse: FromDocument(adv.Document),
		PartnerID:        adv.PartnerID.String(),
		Currency:         adv.Currency,
		NetAmount:        adv.NetAmount,
		VATRate:          int(adv.VATRate),
		VATAmount:        adv.VATAmount,
		TotalAmount:      adv.TotalAmount,
		PaidAmount:       adv.PaidAmount,
		PaymentDate:      adv.PaymentDate,
		UsedAmount:       adv.UsedAmount,
		RemainingAmount:  adv.Remaining(),
		CancelReason:     adv.CancelReason,
	}

	resp.LinkedInvoices = make([]AllocationResponse, len(adv.Allocations))
	for i, alloc := range adv.Allocations {
		resp.LinkedInvoices[i] = AllocationResponse{
			AllocationID: alloc.AllocationID.String(),
			InvoiceID:    alloc.InvoiceID.String(),
			Amount:       alloc.Amount,
			AllocatedAt:  alloc.AllocatedAt,
		}
	}

	return resp
}

// FromAdvanceInvoices converts a slice of advances (without allocations).
func FromAdvanceInvoices(items []*advances.AdvanceInvoice) []*AdvanceInvoiceResponse {
	out := make([]*AdvanceInvoiceResponse, len(items))
	for i, adv := range items {
		out[i] = FromAdvanceInvoice(adv)
	}
	return out
}

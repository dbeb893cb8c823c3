// Package vatrec provides the VAT record register: the classified
// transactional rows the tax period engine aggregates. Records are
// immutable once ingested.
package vatrec

import (
	"context"
	"time"

	"fiskalis/internal/core/apperror"
	"fiskalis/internal/core/id"
	"fiskalis/internal/core/types"
)

// Direction classifies a record as sales or purchases.
type Direction string

const (
	// DirectionOutput covers sales (output VAT)
	DirectionOutput Direction = "OUTPUT"
	// DirectionInput covers purchases (input VAT)
	DirectionInput Direction = "INPUT"
)

// VATRecord is one VAT-classified transactional row.
type VATRecord struct {
	// LineID is the unique identifier of this record (UUIDv7)
	LineID id.ID `db:"line_id" json:"lineId"`

	// CompanyID scopes the record
	CompanyID id.ID `db:"company_id" json:"companyId"`

	// Direction: OUTPUT (sales) or INPUT (purchases)
	Direction Direction `db:"direction" json:"direction"`

	// Rate is the VAT rate bucket (0, 10, 20)
	Rate types.VATRate `db:"rate" json:"rate"`

	// BaseAmount is the taxable base
	BaseAmount types.Money `db:"base_amount" json:"baseAmount"`

	// VATAmount is the tax on the base
	VATAmount types.Money `db:"vat_amount" json:"vatAmount"`

	// DocumentRef identifies the source document (invoice number etc.)
	DocumentRef string `db:"document_ref" json:"documentRef"`

	// Date is the business date, determines the tax period
	Date time.Time `db:"date" json:"date"`

	// CreatedAt is when the record was ingested
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// NewVATRecord creates a record with generated LineID.
func NewVATRecord(companyID id.ID, direction Direction, rate types.VATRate, base, vat types.Money, documentRef string, date time.Time) *VATRecord {
	return &VATRecord{
		LineID:      id.New(),
		CompanyID:   companyID,
		Direction:   direction,
		Rate:        rate,
		BaseAmount:  base,
		VATAmount:   vat,
		DocumentRef: documentRef,
		Date:        date,
		CreatedAt:   time.Now().UTC(),
	}
}

// Validate implements entity.Validatable.
// Out-of-set rates and inconsistent amounts are rejected at ingestion.
func (r *VATRecord) Validate(ctx context.Context) error {
	if id.IsNil(r.CompanyID) {
		return apperror.NewValidation("company is required").
			WithDetail("field", "companyId")
	}

	if r.Direction != DirectionOutput && r.Direction != DirectionInput {
		return apperror.NewValidation("direction must be OUTPUT or INPUT").
			WithDetail("field", "direction").
			WithDetail("value", string(r.Direction))
	}

	if !r.Rate.Valid() {
		return apperror.NewValidation("VAT rate must be one of 0, 10, 20").
			WithDetail("field", "rate").
			WithDetail("value", int(r.Rate))
	}

	if r.BaseAmount.IsNegative() {
		return apperror.NewValidation("base amount must not be negative").
			WithDetail("field", "baseAmount")
	}

	expected := r.Rate.VATOn(r.BaseAmount)
	if !r.VATAmount.Equal(expected) {
		return apperror.NewValidation("VAT amount does not match base and rate").
			WithDetail("field", "vatAmount").
			WithDetail("expected", expected.String()).
			WithDetail("actual", r.VATAmount.String())
	}

	if r.Date.IsZero() {
		return apperror.NewValidation("date is required").
			WithDetail("field", "date")
	}

	return nil
}

package dto

import (
	"time"

	"fiskalis/internal/core/id"
	"fiskalis/internal/core/types"
	"fiskalis/internal/domain/vatrec"
)

// --- Request DTOs ---

// IngestVATRecordsRequest ingests a batch of VAT evidence records.
type IngestVATRecordsRequest struct {
	CompanyID string             `json:"companyId" binding:"required,uuid"`
	Records   []VATRecordRequest `json:"records" binding:"required,min=1,dive"`
}

// VATRecordRequest is one evidence line.
type VATRecordRequest struct {
	Direction   string      `json:"direction" binding:"required,oneof=OUTPUT INPUT"`
	Rate        int         `json:"rate" binding:"oneof=0 10 20"`
	BaseAmount  types.Money `json:"baseAmount" binding:"required"`
	VATAmount   types.Money `json:"vatAmount"`
	DocumentRef string      `json:"documentRef" binding:"required"`
	Date        time.Time   `json:"date" binding:"required"`
}

// ToEntities converts request to domain records.
func (r *IngestVATRecordsRequest) ToEntities() []*vatrec.VATRecord {
	companyID, _ := id.Parse(r.CompanyID)

	recs := make([]*vatrec.VATRecord, len(r.Records))
	for i, rec := range r.Records {
		recs[i] = vatrec.NewVATRecord(
			companyID,
			vatrec.Direction(rec.Direction),
			types.VATRate(rec.Rate),
			rec.BaseAmount,
			rec.VATAmount,
			rec.DocumentRef,
			rec.Date,
		)
	}
	return recs
}

// VATRecordFilter narrows evidence listing to a period.
type VATRecordFilter struct {
	CompanyID string    `form:"companyId" binding:"required,uuid"`
	From      time.Time `form:"from" binding:"required"`
	To        time.Time `form:"to" binding:"required"`
}

// --- Response DTOs ---

// VATRecordResponse represents an evidence record in API responses.
type VATRecordResponse struct {
	LineID      string      `json:"lineId"`
	CompanyID   string      `json:"companyId"`
	Direction   string      `json:"direction"`
	Rate        int         `json:"rate"`
	BaseAmount  types.Money `json:"baseAmount"`
	VATAmount   types.Money `json:"vatAmount"`
	DocumentRef string      `json:"documentRef"`
	Date        time.Time   `json:"date"`
	CreatedAt   time.Time   `json:"createdAt"`
}

// FromVATRecord converts domain entity to response DTO.
func FromVATRecord(rec *vatrec.VATRecord) *VATRecordResponse {
	return &VATRecordResponse{
		LineID:      rec.LineID.String(),
		CompanyID:   rec.CompanyID.String(),
		Direction:   string(rec.Direction),
		Rate:        int(rec.Rate),
		BaseAmount:  rec.BaseAmount,
		VATAmount:   rec.VATAmount,
		DocumentRef: rec.DocumentRef,
		Date:        rec.Date,
		CreatedAt:   rec.CreatedAt,
	}
}

// FromVATRecords converts a slice of records.
func FromVATRecords(items []*vatrec.VATRecord) []*VATRecordResponse {
	out := make([]*VATRecordResponse, len(items))
	for i, rec := range items {
		out[i] = FromVATRecord(rec)
	}
	return out
}

package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"fiskalis/internal/core/id"
	"fiskalis/internal/core/types"
	"fiskalis/internal/domain/company"
	"fiskalis/internal/domain/pppdv"
)

// --- Request DTOs ---

// CreateTaxReportRequest creates and calculates a PPPDV report.
type CreateTaxReportRequest struct {
	CompanyID      string                 `json:"companyId" binding:"required,uuid"`
	Year           int                    `json:"year" binding:"required,min=2000,max=2100"`
	PeriodType     string                 `json:"periodType" binding:"required,oneof=MONTHLY QUARTERLY"`
	PeriodNo       int                    `json:"periodNo" binding:"required,min=1,max=12"`
	ProRataPercent *decimal.Decimal       `json:"proRataPercent,omitempty"`
	Overrides      map[string]types.Money `json:"overrides,omitempty"`
}

// ToParams converts request to domain period parameters.
func (r *CreateTaxReportRequest) ToParams() pppdv.PeriodParams {
	companyID, _ := id.Parse(r.CompanyID)

	params := pppdv.PeriodParams{
		CompanyID:  companyID,
		Year:       r.Year,
		PeriodType: company.VATPeriodType(r.PeriodType),
		PeriodNo:   r.PeriodNo,
		Overrides:  toFieldValues(r.Overrides),
	}
	if r.ProRataPercent != nil {
		params.ProRataPercent = *r.ProRataPercent
	}
	return params
}

// RecalculateTaxReportRequest recalculates a non-submitted report.
type RecalculateTaxReportRequest struct {
	Overrides map[string]types.Money `json:"overrides,omitempty"`
}

// ToFieldValues converts override amounts to domain field values.
func (r *RecalculateTaxReportRequest) ToFieldValues() pppdv.FieldValues {
	return toFieldValues(r.Overrides)
}

// TaxReportOutcomeRequest records the tax authority's decision.
type TaxReportOutcomeRequest struct {
	Accepted            bool   `json:"accepted"`
	SubmissionReference string `json:"submissionReference,omitempty"`
}

// TaxReportFilter narrows report listing.
type TaxReportFilter struct {
	CompanyID  string   `form:"companyId"`
	Year       *int     `form:"year"`
	PeriodType string   `form:"periodType"`
	Status     []string `form:"status"`
	Limit      int      `form:"limit"`
	Offset     int      `form:"offset"`
}

func toFieldValues(raw map[string]types.Money) pppdv.FieldValues {
	if raw == nil {
		return nil
	}
	values := pppdv.NewFieldValues()
	for k, v := range raw {
		values.Set(pppdv.FieldID(k), v)
	}
	return values
}

// --- Response DTOs ---

// TaxReportResponse represents a PPPDV report in API responses.
type TaxReportResponse struct {
	DocumentResponse
	Year                int                    `json:"year"`
	PeriodType          string                 `json:"periodType"`
	Month               *int                   `json:"month,omitempty"`
	Quarter             *int                   `json:"quarter,omitempty"`
	ProRataPercent      decimal.Decimal        `json:"proRataPercent"`
	PreviousCredit      types.Money            `json:"previousCredit"`
	Fields              map[string]types.Money `json:"fields"`
	SubmissionReference *string                `json:"submissionReference,omitempty"`
	SubmittedAt         *time.Time             `json:"submittedAt,omitempty"`
}

// FromTaxReport converts domain entity to response DTO.
func FromTaxReport(rep *pppdv.TaxPeriodReport) *TaxReportResponse {
	fields := make(map[string]types.Money, len(rep.Fields))
	for fid, val := range rep.Fields {
		fields[string(fid)] = val
	}

	return &TaxReportResponse{
		DocumentResponse:    FromDocument(rep.Document),
		Year:                rep.Year,
		PeriodType:          string(rep.PeriodType),
		Month:               rep.Month,
		Quarter:             rep.Quarter,
		ProRataPercent:      rep.ProRataPercent,
		PreviousCredit:      rep.PreviousCredit,
		Fields:              fields,
		SubmissionReference: rep.SubmissionReference,
		SubmittedAt:         rep.SubmittedAt,
	}
}

// FromTaxReports converts a slice of reports.
func FromTaxReports(items []*pppdv.TaxPeriodReport) []*TaxReportResponse {
	out := make([]*TaxReportResponse, len(items))
	for i, rep := range items {
		out[i] = FromTaxReport(rep)
	}
	return out
}

// TaxFieldDefResponse describes one form field.
type TaxFieldDefResponse struct {
	ID       string `json:"id"`
	Category string `json:"category"`
	Rate     *int   `json:"rate,omitempty"`
	Editable bool   `json:"editable"`
}

// FromFieldDefs converts the field schema for API exposure.
func FromFieldDefs(defs []pppdv.FieldDef) []TaxFieldDefResponse {
	out := make([]TaxFieldDefResponse, len(defs))
	for i, d := range defs {
		resp := TaxFieldDefResponse{
			ID:       string(d.ID),
			Category: string(d.Category),
			Editable: d.Editable,
		}
		if d.Rate != nil {
			rate := int(*d.Rate)
			resp.Rate = &rate
		}
		out[i] = resp
	}
	return out
}

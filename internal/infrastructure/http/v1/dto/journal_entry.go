package dto

import (
	"time"

	"fiskalis/internal/core/id"
	"fiskalis/internal/core/types"
	"fiskalis/internal/domain/ledger"
)

// --- Request DTOs ---

// CreateJournalEntryRequest creates a draft journal entry with lines.
type CreateJournalEntryRequest struct {
	CompanyID   string                    `json:"companyId" binding:"required,uuid"`
	Date        time.Time                 `json:"date" binding:"required"`
	Type        string                    `json:"type,omitempty"`
	Description string                    `json:"description,omitempty"`
	Comment     string                    `json:"comment,omitempty"`
	Lines       []JournalEntryLineRequest `json:"lines" binding:"required,min=2,dive"`
}

// JournalEntryLineRequest is one debit or credit line in a request.
// Amounts are decimal strings, exactly one side non-zero.
type JournalEntryLineRequest struct {
	AccountID   string      `json:"accountId" binding:"required,uuid"`
	Debit       types.Money `json:"debit"`
	Credit      types.Money `json:"credit"`
	Description string      `json:"description,omitempty"`
}

// ToEntity converts request to domain entity.
func (r *CreateJournalEntryRequest) ToEntity() *ledger.JournalEntry {
	companyID, _ := id.Parse(r.CompanyID)

	entryType := ledger.EntryType(r.Type)
	if r.Type == "" {
		entryType = ledger.TypeGeneral
	}

	entry := ledger.NewJournalEntry(companyID, entryType, r.Description)
	entry.Date = r.Date
	entry.Comment = r.Comment

	for _, line := range r.Lines {
		accountID, _ := id.Parse(line.AccountID)
		entry.AddLine(accountID, line.Debit, line.Credit, line.Description)
	}

	return entry
}

// UpdateJournalEntryRequest updates a draft entry.
type UpdateJournalEntryRequest struct {
	Date        *time.Time                `json:"date,omitempty"`
	Type        *string                   `json:"type,omitempty"`
	Description *string                   `json:"description,omitempty"`
	Comment     *string                   `json:"comment,omitempty"`
	Lines       []JournalEntryLineRequest `json:"lines,omitempty"`
	Version     int                       `json:"version" binding:"required,min=1"`
}

// ApplyTo applies updates to an existing entity.
func (r *UpdateJournalEntryRequest) ApplyTo(entry *ledger.JournalEntry) {
	if r.Date != nil {
		entry.Date = *r.Date
	}
	if r.Type != nil {
		entry.Type = ledger.EntryType(*r.Type)
	}
	if r.Description != nil {
		entry.Description = *r.Description
	}
	if r.Comment != nil {
		entry.Comment = *r.Comment
	}
	if r.Lines != nil {
		entry.Lines = make([]ledger.JournalLine, 0, len(r.Lines))
		for _, line := range r.Lines {
			accountID, _ := id.Parse(line.AccountID)
			entry.AddLine(accountID, line.Debit, line.Credit, line.Description)
		}
	}
	entry.Version = r.Version
}

// ReverseJournalEntryRequest reverses a posted entry.
type ReverseJournalEntryRequest struct {
	Reason string  `json:"reason" binding:"required"`
	Type   *string `json:"type,omitempty"`
}

// JournalEntryFilter narrows entry listing.
type JournalEntryFilter struct {
	CompanyID string     `form:"companyId"`
	Status    []string   `form:"status"`
	Type      string     `form:"type"`
	AccountID string     `form:"accountId"`
	DateFrom  *time.Time `form:"dateFrom"`
	DateTo    *time.Time `form:"dateTo"`
	Search    string     `form:"search"`
	Limit     int        `form:"limit"`
	Offset    int        `form:"offset"`
}

// --- Response DTOs ---

// JournalEntryResponse represents a journal entry in API responses.
type JournalEntryResponse struct {
	DocumentResponse
	EntryNumber    int64                      `json:"entryNumber"`
	Type           string                     `json:"type"`
	Description    string                     `json:"description,omitempty"`
	TotalDebit     types.Money                `json:"totalDebit"`
	TotalCredit    types.Money                `json:"totalCredit"`
	PostedAt       *time.Time                 `json:"postedAt,omitempty"`
	ReversalOf     *string                    `json:"reversalOf,omitempty"`
	ReversalReason string                     `json:"reversalReason,omitempty"`
	Lines          []JournalEntryLineResponse `json:"lines,omitempty"`
}

// JournalEntryLineResponse represents a line in API responses.
type JournalEntryLineResponse struct {
	LineID      string      `json:"lineId"`
	LineNo      int         `json:"lineNo"`
	AccountID   string      `json:"accountId"`
	Debit       types.Money `json:"debit"`
	Credit      types.Money `json:"credit"`
	Description string      `json:"description,omitempty"`
}

// FromJournalEntry converts domain entity to response DTO.
func FromJournalEntry(entry *ledger.JournalEntry) *JournalEntryResponse {
	resp := &JournalEntryResponse{
		DocumentResponse: FromDocument(entry.Document),
		EntryNumber:      entry.EntryNumber,
		Type:             string(entry.Type),
		Description:      entry.Description,
		TotalDebit:       entry.TotalDebit,
		TotalCredit:      entry.TotalCredit,
		PostedAt:         entry.PostedAt,
		ReversalReason:   entry.ReversalReason,
	}
	if entry.ReversalOf != nil {
		s := entry.ReversalOf.String()
		resp.ReversalOf = &s
	}

	resp.Lines = make([]JournalEntryLineResponse, len(entry.Lines))
	for i, line := range entry.Lines {
		resp.Lines[i] = JournalEntryLineResponse{
			LineID:      line.LineID.String(),
			LineNo:      line.LineNo,
			AccountID:   line.AccountID.String(),
			Debit:       line.Debit,
			Credit:      line.Credit,
			Description: line.Description,
		}
	}

	return resp
}

// FromJournalEntries converts a slice of entries (without lines).
func FromJournalEntries(items []*ledger.JournalEntry) []*JournalEntryResponse {
	out := make([]*JournalEntryResponse, len(items))
	for i, e := range items {
		out[i] = FromJournalEntry(e)
	}
	return out
}

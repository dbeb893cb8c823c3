package entity

import (
	"context"
	"time"

	"fiskalis/internal/core/apperror"
	"fiskalis/internal/core/id"
)

// Status is a document lifecycle state. Each document type defines its
// own set of statuses and the allowed transitions between them.
type Status string

// Document is the base type for business transactions.
// Examples: JournalEntry, AdvanceInvoice, TaxReturn.
type Document struct {
	BaseDocument

	// Number is the document number (auto-generated, unique within type+company+year)
	Number string `db:"number" json:"number"`

	// Date is the business date of the document
	Date time.Time `db:"date" json:"date"`

	// Status is the current lifecycle state
	Status Status `db:"status" json:"status"`

	// CompanyID is the owning company (all documents are company-scoped)
	CompanyID id.ID `db:"company_id" json:"companyId"`

	// Comment is an optional user comment
	Comment string `db:"comment" json:"comment,omitempty"`
}

// NewDocument creates a new Document with generated ID and initial status.
func NewDocument(companyID id.ID, initial Status) Document {
	return Document{
		BaseDocument: NewBaseDocument(),
		Date:         time.Now().UTC(),
		Status:       initial,
		CompanyID:    companyID,
	}
}

// Validate implements Validatable interface.
func (d *Document) Validate(ctx context.Context) error {
	if id.IsNil(d.CompanyID) {
		return apperror.NewValidation("company is required").
			WithDetail("field", "companyId")
	}

	if d.Date.IsZero() {
		return apperror.NewValidation("date is required").
			WithDetail("field", "date")
	}

	return nil
}

// Transition moves the document to the target status if the transition
// is listed in allowed. Returns STATE_CONFLICT otherwise.
func (d *Document) Transition(entityName string, to Status, allowed map[Status][]Status) error {
	for _, next := range allowed[d.Status] {
		if next == to {
			d.Status = to
			d.Touch()
			return nil
		}
	}
	return apperror.NewStateConflict(entityName, string(d.Status), string(to)).
		WithDetail("document_id", d.ID.String())
}

// InStatus reports whether the document is in any of the given statuses.
func (d *Document) InStatus(statuses ...Status) bool {
	for _, s := range statuses {
		if d.Status == s {
			return true
		}
	}
	return false
}

// Package partners provides the business partner catalog.
// Partners are the counterparties of advance and final invoices.
package partners

import (
	"context"
	"regexp"

	"fiskalis/internal/core/apperror"
	"fiskalis/internal/core/entity"
)

// Pre-compiled regex patterns for validation
var (
	pibRE   = regexp.MustCompile(`^\d{9}$`)
	mbRE    = regexp.MustCompile(`^\d{8}$`)
	emailRE = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
)

// PartnerType defines the role of the partner.
type PartnerType string

const (
	TypeCustomer PartnerType = "customer"
	TypeSupplier PartnerType = "supplier"
	TypeBoth     PartnerType = "both"
)

// Partner represents a business partner (customer, supplier, or both).
type Partner struct {
	entity.Catalog

	// Type defines whether this is a customer, supplier, or both
	Type PartnerType `db:"type" json:"type"`

	// PIB is the Serbian tax identification number (9 digits)
	PIB string `db:"pib" json:"pib"`

	// MaticniBroj is the company registration number (8 digits)
	MaticniBroj *string `db:"maticni_broj" json:"maticniBroj,omitempty"`

	// Address is the registered address
	Address *string `db:"address" json:"address,omitempty"`

	// City
	City *string `db:"city" json:"city,omitempty"`

	// Email is the primary contact email
	Email *string `db:"email" json:"email,omitempty"`

	// Comment is a free-form note
	Comment *string `db:"comment" json:"comment,omitempty"`
}

// NewPartner creates a new Partner with required fields.
func NewPartner(code, name, pib string, pType PartnerType) *Partner {
	return &Partner{
		Catalog: entity.NewCatalog(code, name),
		Type:    pType,
		PIB:     pib,
	}
}

// Validate implements entity.Validatable interface.
func (p *Partner) Validate(ctx context.Context) error {
	if err := p.Catalog.Validate(ctx); err != nil {
		return err
	}

	if !isValidPartnerType(p.Type) {
		return apperror.NewValidation("invalid partner type").
			WithDetail("field", "type").
			WithDetail("value", string(p.Type))
	}

	if !pibRE.MatchString(p.PIB) {
		return apperror.NewValidation("PIB must be 9 digits").
			WithDetail("field", "pib")
	}

	if p.MaticniBroj != nil && *p.MaticniBroj != "" && !mbRE.MatchString(*p.MaticniBroj) {
		return apperror.NewValidation("maticni broj must be 8 digits").
			WithDetail("field", "maticniBroj")
	}

	if p.Email != nil && *p.Email != "" && !emailRE.MatchString(*p.Email) {
		return apperror.NewValidation("invalid email format").
			WithDetail("field", "email")
	}

	return nil
}

// IsCustomer returns true if partner is a customer.
func (p *Partner) IsCustomer() bool {
	return p.Type == TypeCustomer || p.Type == TypeBoth
}

// IsSupplier returns true if partner is a supplier.
func (p *Partner) IsSupplier() bool {
	return p.Type == TypeSupplier || p.Type == TypeBoth
}

func isValidPartnerType(t PartnerType) bool {
	switch t {
	case TypeCustomer, TypeSupplier, TypeBoth:
		return true
	}
	return false
}

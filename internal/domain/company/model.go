// Package company provides the company catalog.
// All documents, sequences and VAT reports are scoped to a company.
package company

import (
	"context"
	"regexp"

	"fiskalis/internal/core/apperror"
	"fiskalis/internal/core/entity"
)

var (
	pibRE = regexp.MustCompile(`^\d{9}$`)
	mbRE  = regexp.MustCompile(`^\d{8}$`)
)

// VATPeriodType defines how often the company files VAT declarations.
type VATPeriodType string

const (
	VATPeriodMonthly   VATPeriodType = "MONTHLY"
	VATPeriodQuarterly VATPeriodType = "QUARTERLY"
)

// Company represents a legal entity keeping books in the system.
type Company struct {
	entity.Catalog

	// PIB is the Serbian tax identification number (9 digits)
	PIB string `db:"pib" json:"pib"`

	// MaticniBroj is the company registration number (8 digits)
	MaticniBroj *string `db:"maticni_broj" json:"maticniBroj,omitempty"`

	// VATPeriod defines the declaration cadence
	VATPeriod VATPeriodType `db:"vat_period" json:"vatPeriod"`

	// Address is the registered address
	Address *string `db:"address" json:"address,omitempty"`

	// City
	City *string `db:"city" json:"city,omitempty"`
}

// NewCompany creates a new Company with monthly VAT period by default.
func NewCompany(code, name, pib string) *Company {
	return &Company{
		Catalog:   entity.NewCatalog(code, name),
		PIB:       pib,
		VATPeriod: VATPeriodMonthly,
	}
}

// Validate implements entity.Validatable interface.
func (c *Company) Validate(ctx context.Context) error {
	if err := c.Catalog.Validate(ctx); err != nil {
		return err
	}

	if !pibRE.MatchString(c.PIB) {
		return apperror.NewValidation("PIB must be 9 digits").
			WithDetail("field", "pib")
	}

	if c.MaticniBroj != nil && *c.MaticniBroj != "" && !mbRE.MatchString(*c.MaticniBroj) {
		return apperror.NewValidation("maticni broj must be 8 digits").
			WithDetail("field", "maticniBroj")
	}

	switch c.VATPeriod {
	case VATPeriodMonthly, VATPeriodQuarterly:
	default:
		return apperror.NewValidation("invalid VAT period type").
			WithDetail("field", "vatPeriod").
			WithDetail("value", string(c.VATPeriod))
	}

	return nil
}

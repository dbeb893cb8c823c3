package entity

import (
	"context"

	"fiskalis/internal/core/apperror"
)

// Catalog is the base type for reference data.
// Examples: Account, Partner, Company.
type Catalog struct {
	BaseCatalog

	// Code is a human-readable identifier (unique within its scope)
	Code string `db:"code" json:"code"`

	// Name is the display name
	Name string `db:"name" json:"name"`

	// Active controls whether the entry can be used in new documents.
	// Deactivation is the soft-delete mechanism for catalogs.
	Active bool `db:"active" json:"active"`
}

// NewCatalog creates a new active Catalog with generated ID.
func NewCatalog(code, name string) Catalog {
	return Catalog{
		BaseCatalog: NewBaseCatalog(),
		Code:        code,
		Name:        name,
		Active:      true,
	}
}

// Validate implements Validatable interface.
func (c *Catalog) Validate(ctx context.Context) error {
	if c.Name == "" {
		return apperror.NewValidation("name is required").
			WithDetail("field", "name")
	}

	if c.Code == "" {
		return apperror.NewValidation("code is required").
			WithDetail("field", "code")
	}

	return nil
}

// Deactivate marks the entry unusable for new documents.
func (c *Catalog) Deactivate() {
	c.Active = false
	c.Touch()
}

// Activate restores the entry.
func (c *Catalog) Activate() {
	c.Active = true
	c.Touch()
}

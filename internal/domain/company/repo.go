package company

import (
	"context"

	"fiskalis/internal/domain"
)

// Repository defines the interface for Company persistence.
type Repository interface {
	domain.CatalogRepository[*Company]

	// FindByPIB retrieves company by tax identification number.
	FindByPIB(ctx context.Context, pib string) (*Company, error)
}

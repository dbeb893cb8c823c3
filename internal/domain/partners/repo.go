package partners

import (
	"context"

	"fiskalis/internal/domain"
)

// Repository defines the interface for Partner persistence.
type Repository interface {
	domain.CatalogRepository[*Partner]

	// FindByPIB retrieves partner by tax identification number.
	FindByPIB(ctx context.Context, pib string) (*Partner, error)
}

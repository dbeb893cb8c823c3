package partners

import (
	"context"

	"fiskalis/internal/core/apperror"
	"fiskalis/internal/core/id"
	"fiskalis/internal/core/tx"
	"fiskalis/internal/domain"
)

// Service provides business logic for the Partner catalog.
// Uses composition with domain.CatalogService for common CRUD operations.
type Service struct {
	*domain.CatalogService[*Partner]
	repo Repository
}

// NewService creates a new Partner service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Partner]{
		Repo:       repo,
		TxManager:  txManager,
		EntityName: "partner",
	})

	svc := &Service{
		CatalogService: base,
		repo:           repo,
	}

	base.Hooks().On(domain.BeforeCreate, svc.checkPIBUnique)
	base.Hooks().On(domain.BeforeUpdate, svc.checkPIBUnique)

	return svc
}

// checkPIBUnique rejects a second partner with the same tax number.
func (s *Service) checkPIBUnique(ctx context.Context, p *Partner) error {
	exists, err := s.pibExists(ctx, p.PIB, p.ID)
	if err != nil {
		return err
	}
	if exists {
		return apperror.NewDuplicate("partner", "pib", p.PIB)
	}
	return nil
}

// FindByPIB retrieves partner by tax identification number.
func (s *Service) FindByPIB(ctx context.Context, pib string) (*Partner, error) {
	return s.repo.FindByPIB(ctx, pib)
}

func (s *Service) pibExists(ctx context.Context, pib string, excludeID id.ID) (bool, error) {
	existing, err := s.repo.FindByPIB(ctx, pib)
	if err != nil {
		// Not found is OK; other errors must be propagated.
		if apperror.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return existing.ID != excludeID, nil
}

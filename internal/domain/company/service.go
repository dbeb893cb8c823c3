package company

import (
	"context"

	"fiskalis/internal/core/apperror"
	"fiskalis/internal/core/id"
	"fiskalis/internal/core/tx"
	"fiskalis/internal/domain"
)

// Service provides business logic for the Company catalog.
type Service struct {
	*domain.CatalogService[*Company]
	repo Repository
}

// NewService creates a new Company service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Company]{
		Repo:       repo,
		TxManager:  txManager,
		EntityName: "company",
	})

	svc := &Service{
		CatalogService: base,
		repo:           repo,
	}

	base.Hooks().On(domain.BeforeCreate, svc.checkPIBUnique)
	base.Hooks().On(domain.BeforeUpdate, svc.checkPIBUnique)

	return svc
}

func (s *Service) checkPIBUnique(ctx context.Context, c *Company) error {
	existing, err := s.repo.FindByPIB(ctx, c.PIB)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil
		}
		return err
	}
	if existing.ID != c.ID {
		return apperror.NewDuplicate("company", "pib", c.PIB)
	}
	return nil
}

// RequireActive loads a company and rejects inactive or unknown ones.
func (s *Service) RequireActive(ctx context.Context, companyID id.ID) (*Company, error) {
	c, err := s.GetByID(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if !c.Active {
		return nil, apperror.NewConflict("company is inactive").
			WithDetail("companyId", companyID.String())
	}
	return c, nil
}

package catalog_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"fiskalis/internal/core/apperror"
	"fiskalis/internal/domain/partners"
	"fiskalis/internal/infrastructure/storage/postgres"
)

const partnerTable = "cat_partners"

// Compile-time check that PartnerRepo implements partners.Repository.
var _ partners.Repository = (*PartnerRepo)(nil)

// PartnerRepo implements partners.Repository.
type PartnerRepo struct {
	*BaseCatalogRepo[*partners.Partner]
}

// NewPartnerRepo creates a new partner repository.
func NewPartnerRepo(txManager *postgres.TxManager) *PartnerRepo {
	return &PartnerRepo{
		BaseCatalogRepo: NewBaseCatalogRepo[*partners.Partner](
			txManager,
			partnerTable,
			postgres.ExtractDBColumns[partners.Partner](),
			func() *partners.Partner { return &partners.Partner{} },
		),
	}
}

// FindByPIB retrieves partner by tax identification number.
func (r *PartnerRepo) FindByPIB(ctx context.Context, pib string) (*partners.Partner, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"pib": pib}).
		Limit(1)

	p, err := r.FindOne(ctx, q)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("partner", pib)
		}
		return nil, err
	}
	return p, nil
}

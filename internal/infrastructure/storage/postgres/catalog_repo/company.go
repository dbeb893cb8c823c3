package catalog_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"fiskalis/internal/core/apperror"
	"fiskalis/internal/domain/company"
	"fiskalis/internal/infrastructure/storage/postgres"
)

const companyTable = "cat_companies"

// Compile-time check that CompanyRepo implements company.Repository.
var _ company.Repository = (*CompanyRepo)(nil)

// CompanyRepo implements company.Repository.
type CompanyRepo struct {
	*BaseCatalogRepo[*company.Company]
}

// NewCompanyRepo creates a new company repository.
func NewCompanyRepo(txManager *postgres.TxManager) *CompanyRepo {
	return &CompanyRepo{
		BaseCatalogRepo: NewBaseCatalogRepo[*company.Company](
			txManager,
			companyTable,
			postgres.ExtractDBColumns[company.Company](),
			func() *company.Company { return &company.Company{} },
		),
	}
}

// FindByPIB retrieves company by tax identification number.
func (r *CompanyRepo) FindByPIB(ctx context.Context, pib string) (*company.Company, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"pib": pib}).
		Limit(1)

	c, err := r.FindOne(ctx, q)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("company", pib)
		}
		return nil, err
	}
	return c, nil
}

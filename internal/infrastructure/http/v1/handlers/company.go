package handlers

import (
	"fiskalis/internal/domain/company"
	"fiskalis/internal/infrastructure/http/v1/dto"
)

// CompanyHandler handles HTTP requests for owning companies.
type CompanyHandler struct {
	*CatalogHandler[*company.Company, dto.CreateCompanyRequest, dto.UpdateCompanyRequest]
	service *company.Service
}

// NewCompanyHandler creates a new company handler.
func NewCompanyHandler(base *BaseHandler, service *company.Service) *CompanyHandler {
	cfg := CatalogHandlerConfig[*company.Company, dto.CreateCompanyRequest, dto.UpdateCompanyRequest]{
		Service:    service.CatalogService,
		EntityName: "company",
		MapCreateDTO: func(req dto.CreateCompanyRequest) *company.Company {
			return req.ToEntity()
		},
		MapUpdateDTO: func(req dto.UpdateCompanyRequest, existing *company.Company) *company.Company {
			req.ApplyTo(existing)
			return existing
		},
		MapToDTO: func(c *company.Company) any {
			return dto.FromCompany(c)
		},
	}

	return &CompanyHandler{
		CatalogHandler: NewCatalogHandler(base, cfg),
		service:        service,
	}
}

package dto

import (
	"fiskalis/internal/domain/company"
)

// --- Request DTOs ---

// CreateCompanyRequest creates an owning company.
type CreateCompanyRequest struct {
	Code        string  `json:"code" binding:"required"`
	Name        string  `json:"name" binding:"required"`
	PIB         string  `json:"pib" binding:"required,len=9,numeric"`
	MaticniBroj *string `json:"maticniBroj,omitempty"`
	VATPeriod   string  `json:"vatPeriod" binding:"omitempty,oneof=MONTHLY QUARTERLY"`
	Address     *string `json:"address,omitempty"`
	City        *string `json:"city,omitempty"`
}

// ToEntity converts request to domain entity.
func (r *CreateCompanyRequest) ToEntity() *company.Company {
	c := company.NewCompany(r.Code, r.Name, r.PIB)
	c.MaticniBroj = r.MaticniBroj
	c.Address = r.Address
	c.City = r.City
	if r.VATPeriod != "" {
		c.VATPeriod = company.VATPeriodType(r.VATPeriod)
	}
	return c
}

// UpdateCompanyRequest updates mutable company fields.
type UpdateCompanyRequest struct {
	Name        *string `json:"name,omitempty"`
	MaticniBroj *string `json:"maticniBroj,omitempty"`
	VATPeriod   *string `json:"vatPeriod,omitempty"`
	Address     *string `json:"address,omitempty"`
	City        *string `json:"city,omitempty"`
	Version     int     `json:"version" binding:"required,min=1"`
}

// ApplyTo applies updates to an existing entity.
func (r *UpdateCompanyRequest) ApplyTo(c *company.Company) {
	if r.Name != nil {
		c.Name = *r.Name
	}
	if r.MaticniBroj != nil {
		c.MaticniBroj = r.MaticniBroj
	}
	if r.VATPeriod != nil {
		c.VATPeriod = company.VATPeriodType(*r.VATPeriod)
	}
	if r.Address != nil {
		c.Address = r.Address
	}
	if r.City != nil {
		c.City = r.City
	}
	c.Version = r.Version
}

// --- Response DTOs ---

// CompanyResponse represents a company in API responses.
type CompanyResponse struct {
	CatalogResponse
	PIB         string  `json:"pib"`
	MaticniBroj *string `json:"maticniBroj,omitempty"`
	VATPeriod   string  `json:"vatPeriod"`
	Address     *string `json:"address,omitempty"`
	City        *string `json:"city,omitempty"`
}

// FromCompany converts domain entity to response DTO.
func FromCompany(c *company.Company) *CompanyResponse {
	return &CompanyResponse{
		CatalogResponse: FromCatalog(c.Catalog),
		PIB:             c.PIB,
		MaticniBroj:     c.MaticniBroj,
		VATPeriod:       string(c.VATPeriod),
		Address:         c.Address,
		City:            c.City,
	}
}

// FromCompanies converts a slice of companies.
func FromCompanies(items []*company.Company) []*CompanyResponse {
	out := make([]*CompanyResponse, len(items))
	for i, c := range items {
		out[i] = FromCompany(c)
	}
	return out
}

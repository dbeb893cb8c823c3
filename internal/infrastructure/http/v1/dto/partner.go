package dto

import (
	"fiskalis/internal/domain/partners"
)

// --- Request DTOs ---

// CreatePartnerRequest creates a partner catalog entry.
type CreatePartnerRequest struct {
	Code        string  `json:"code" binding:"required"`
	Name        string  `json:"name" binding:"required"`
	Type        string  `json:"type" binding:"required,oneof=customer supplier both"`
	PIB         string  `json:"pib" binding:"required,len=9,numeric"`
	MaticniBroj *string `json:"maticniBroj,omitempty"`
	Address     *string `json:"address,omitempty"`
	City        *string `json:"city,omitempty"`
	Email       *string `json:"email,omitempty"`
	Comment     *string `json:"comment,omitempty"`
}

// ToEntity converts request to domain entity.
func (r *CreatePartnerRequest) ToEntity() *partners.Partner {
	p := partners.NewPartner(r.Code, r.Name, r.PIB, partners.PartnerType(r.Type))
	p.MaticniBroj = r.MaticniBroj
	p.Address = r.Address
	p.City = r.City
	p.Email = r.Email
	p.Comment = r.Comment
	return p
}

// UpdatePartnerRequest updates mutable partner fields.
type UpdatePartnerRequest struct {
	Name        *string `json:"name,omitempty"`
	Type        *string `json:"type,omitempty"`
	MaticniBroj *string `json:"maticniBroj,omitempty"`
	Address     *string `json:"address,omitempty"`
	City        *string `json:"city,omitempty"`
	Email       *string `json:"email,omitempty"`
	Comment     *string `json:"comment,omitempty"`
	Version     int     `json:"version" binding:"required,min=1"`
}

// ApplyTo applies updates to an existing entity.
func (r *UpdatePartnerRequest) ApplyTo(p *partners.Partner) {
	if r.Name != nil {
		p.Name = *r.Name
	}
	if r.Type != nil {
		p.Type = partners.PartnerType(*r.Type)
	}
	if r.MaticniBroj != nil {
		p.MaticniBroj = r.MaticniBroj
	}
	if r.Address != nil {
		p.Address = r.Address
	}
	if r.City != nil {
		p.City = r.City
	}
	if r.Email != nil {
		p.Email = r.Email
	}
	if r.Comment != nil {
		p.Comment = r.Comment
	}
	p.Version = r.Version
}

// PartnerFilter narrows partner listing.
type PartnerFilter struct {
	BaseFilter
	Type   string `form:"type"`
	Limit  int    `form:"limit"`
	Offset int    `form:"offset"`
}

// --- Response DTOs ---

// PartnerResponse represents a partner in API responses.
type PartnerResponse struct {
	CatalogResponse
	Type        string  `json:"type"`
	PIB         string  `json:"pib"`
	MaticniBroj *string `json:"maticniBroj,omitempty"`
	Address     *string `json:"address,omitempty"`
	City        *string `json:"city,omitempty"`
	Email       *string `json:"email,omitempty"`
	Comment     *string `json:"comment,omitempty"`
}

// FromPartner converts domain entity to response DTO.
func FromPartner(p *partners.Partner) *PartnerResponse {
	return &PartnerResponse{
		CatalogResponse: FromCatalog(p.Catalog),
		Type:            string(p.Type),
		PIB:             p.PIB,
		MaticniBroj:     p.MaticniBroj,
		Address:         p.Address,
		City:            p.City,
		Email:           p.Email,
		Comment:         p.Comment,
	}
}

// FromPartners converts a slice of partners.
func FromPartners(items []*partners.Partner) []*PartnerResponse {
	out := make([]*PartnerResponse, len(items))
	for i, p := range items {
		out[i] = FromPartner(p)
	}
	return out
}

package dto

import (
	"fiskalis/internal/core/id"
	"fiskalis/internal/domain/accounts"
)

// --- Request DTOs ---

// CreateAccountRequest creates a chart of accounts entry.
type CreateAccountRequest struct {
	Code     string  `json:"code" binding:"required"`
	Name     string  `json:"name" binding:"required"`
	Type     string  `json:"type" binding:"required,oneof=ASSET LIABILITY EQUITY INCOME EXPENSE"`
	ParentID *string `json:"parentId,omitempty"`
}

// ToEntity converts request to domain entity.
func (r *CreateAccountRequest) ToEntity() *accounts.Account {
	acc := accounts.NewAccount(r.Code, r.Name, accounts.AccountType(r.Type))
	if r.ParentID != nil {
		if parentID, err := id.Parse(*r.ParentID); err == nil {
			acc.ParentID = &parentID
		}
	}
	return acc
}

// UpdateAccountRequest updates mutable account fields.
// Code, type and parent are fixed after creation.
type UpdateAccountRequest struct {
	Name    *string `json:"name,omitempty"`
	Version int     `json:"version" binding:"required,min=1"`
}

// ApplyTo applies updates to an existing entity.
func (r *UpdateAccountRequest) ApplyTo(acc *accounts.Account) {
	if r.Name != nil {
		acc.Name = *r.Name
	}
	acc.Version = r.Version
}

// AccountFilter narrows account listing.
type AccountFilter struct {
	BaseFilter
	Type     string  `form:"type"`
	ParentID *string `form:"parentId"`
	Limit    int     `form:"limit"`
	Offset   int     `form:"offset"`
}

// --- Response DTOs ---

// AccountResponse represents an account in API responses.
type AccountResponse struct {
	CatalogResponse
	Type     string  `json:"type"`
	ParentID *string `json:"parentId,omitempty"`
}

// FromAccount converts domain entity to response DTO.
func FromAccount(acc *accounts.Account) *AccountResponse {
	resp := &AccountResponse{
		CatalogResponse: FromCatalog(acc.Catalog),
		Type:            string(acc.Type),
	}
	if acc.ParentID != nil {
		s := acc.ParentID.String()
		resp.ParentID = &s
	}
	return resp
}

// FromAccounts converts a slice of accounts.
func FromAccounts(items []*accounts.Account) []*AccountResponse {
	out := make([]*AccountResponse, len(items))
	for i, acc := range items {
		out[i] = FromAccount(acc)
	}
	return out
}

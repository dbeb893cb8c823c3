// Package accounts provides the chart of accounts catalog.
// Accounts form a tree; journal lines may only reference active accounts.
package accounts

import (
	"context"
	"regexp"

	"fiskalis/internal/core/apperror"
	"fiskalis/internal/core/entity"
	"fiskalis/internal/core/id"
)

// codeRE matches hierarchical account codes: digit groups with optional
// dot separators ("2", "20", "204", "433.1").
var codeRE = regexp.MustCompile(`^\d+(\.\d+)*$`)

// AccountType classifies an account by its balance nature.
type AccountType string

const (
	TypeAsset     AccountType = "ASSET"
	TypeLiability AccountType = "LIABILITY"
	TypeEquity    AccountType = "EQUITY"
	TypeIncome    AccountType = "INCOME"
	TypeExpense   AccountType = "EXPENSE"
)

// Account is a node of the chart of accounts.
type Account struct {
	entity.Catalog

	// Type must match the root ancestor's type for non-root accounts
	Type AccountType `db:"type" json:"type"`

	// ParentID is nil for root accounts
	ParentID *id.ID `db:"parent_id" json:"parentId,omitempty"`
}

// NewAccount creates a new active Account.
func NewAccount(code, name string, accType AccountType) *Account {
	return &Account{
		Catalog: entity.NewCatalog(code, name),
		Type:    accType,
	}
}

// Validate implements entity.Validatable interface.
func (a *Account) Validate(ctx context.Context) error {
	if err := a.Catalog.Validate(ctx); err != nil {
		return err
	}

	if !codeRE.MatchString(a.Code) {
		return apperror.NewValidation("account code must be digits with optional dot separators").
			WithDetail("field", "code").
			WithDetail("value", a.Code)
	}

	if !isValidAccountType(a.Type) {
		return apperror.NewValidation("invalid account type").
			WithDetail("field", "type").
			WithDetail("value", string(a.Type))
	}

	if a.ParentID != nil && *a.ParentID == a.ID {
		return apperror.NewValidation("account cannot be its own parent").
			WithDetail("field", "parentId")
	}

	return nil
}

// IsRoot returns true if the account has no parent.
func (a *Account) IsRoot() bool {
	return a.ParentID == nil || id.IsNil(*a.ParentID)
}

// SetParent sets the parent reference.
func (a *Account) SetParent(parentID id.ID) {
	if id.IsNil(parentID) {
		a.ParentID = nil
	} else {
		a.ParentID = &parentID
	}
}

func isValidAccountType(t AccountType) bool {
	switch t {
	case TypeAsset, TypeLiability, TypeEquity, TypeIncome, TypeExpense:
		return true
	}
	return false
}

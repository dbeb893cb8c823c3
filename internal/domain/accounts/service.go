package accounts

import (
	"context"

	"fiskalis/internal/core/apperror"
	"fiskalis/internal/core/id"
	"fiskalis/internal/core/tx"
	"fiskalis/internal/domain"
)

// maxTreeDepth bounds the parent walk so a corrupted tree cannot loop forever.
const maxTreeDepth = 32

// Service provides business logic for the chart of accounts.
// Uses composition with domain.CatalogService for common CRUD operations.
type Service struct {
	*domain.CatalogService[*Account]
	repo Repository
}

// NewService creates a new Account service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Account]{
		Repo:       repo,
		TxManager:  txManager,
		EntityName: "account",
	})

	svc := &Service{
		CatalogService: base,
		repo:           repo,
	}

	base.Hooks().On(domain.BeforeCreate, svc.prepareForWrite)
	base.Hooks().On(domain.BeforeUpdate, svc.prepareForWrite)
	base.Hooks().On(domain.BeforeCreate, svc.checkCodeUnique)

	return svc
}

// prepareForWrite validates hierarchy invariants before create/update:
// parent must exist, the parent chain must not form a cycle, and the
// account's type must match its root ancestor's type.
func (s *Service) prepareForWrite(ctx context.Context, acc *Account) error {
	if acc.IsRoot() {
		return nil
	}

	root, err := s.resolveRoot(ctx, acc)
	if err != nil {
		return err
	}

	if root.Type != acc.Type {
		return apperror.NewValidation("account type must match root ancestor type").
			WithDetail("field", "type").
			WithDetail("accountType", string(acc.Type)).
			WithDetail("rootType", string(root.Type)).
			WithDetail("rootCode", root.Code)
	}

	return nil
}

// resolveRoot walks the parent chain up to the root ancestor.
// Rejects unknown parents and cycles.
func (s *Service) resolveRoot(ctx context.Context, acc *Account) (*Account, error) {
	seen := map[id.ID]bool{acc.ID: true}

	current := acc
	for depth := 0; depth < maxTreeDepth; depth++ {
		if current.IsRoot() {
			return current, nil
		}

		parentID := *current.ParentID
		if seen[parentID] {
			return nil, apperror.NewValidation("account hierarchy contains a cycle").
				WithDetail("field", "parentId").
				WithDetail("accountId", acc.ID.String())
		}
		seen[parentID] = true

		parent, err := s.repo.GetByID(ctx, parentID)
		if err != nil {
			if apperror.IsNotFound(err) {
				return nil, apperror.NewValidation("parent account does not exist").
					WithDetail("field", "parentId").
					WithDetail("parentId", parentID.String())
			}
			return nil, err
		}
		current = parent
	}

	return nil, apperror.NewValidation("account hierarchy too deep").
		WithDetail("field", "parentId").
		WithDetail("maxDepth", maxTreeDepth)
}

func (s *Service) checkCodeUnique(ctx context.Context, acc *Account) error {
	exists, err := s.repo.ExistsByCode(ctx, acc.Code)
	if err != nil {
		return err
	}
	if exists {
		return apperror.NewDuplicate("account", "code", acc.Code)
	}
	return nil
}

// GetTree retrieves the chart of accounts as an ordered tree slice.
func (s *Service) GetTree(ctx context.Context, rootID *id.ID) ([]*Account, error) {
	return s.repo.GetTree(ctx, rootID)
}

// Deactivate marks the account unusable for new journal lines.
// Children keep their own active flag; deactivating a group account does
// not cascading-deactivate its children.
func (s *Service) Deactivate(ctx context.Context, accountID id.ID) error {
	return s.CatalogService.Deactivate(ctx, accountID)
}

// RequireActive loads an account and rejects inactive or unknown ones.
// Used by the ledger engine when validating lines.
func (s *Service) RequireActive(ctx context.Context, accountID id.ID) (*Account, error) {
	acc, err := s.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if !acc.Active {
		return nil, apperror.NewRuleViolation(apperror.CodeInactiveAccount, "account is inactive").
			WithDetail("accountId", accountID.String()).
			WithDetail("code", acc.Code)
	}
	return acc, nil
}

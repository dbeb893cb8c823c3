package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"fiskalis/internal/core/id"
	"fiskalis/internal/domain/accounts"
	"fiskalis/internal/infrastructure/storage/postgres"
)

const accountTable = "cat_accounts"

// Compile-time check that AccountRepo implements accounts.Repository.
var _ accounts.Repository = (*AccountRepo)(nil)

// AccountRepo implements accounts.Repository.
type AccountRepo struct {
	*BaseCatalogRepo[*accounts.Account]
}

// NewAccountRepo creates a new account repository.
func NewAccountRepo(txManager *postgres.TxManager) *AccountRepo {
	return &AccountRepo{
		BaseCatalogRepo: NewBaseCatalogRepo[*accounts.Account](
			txManager,
			accountTable,
			postgres.ExtractDBColumns[accounts.Account](),
			func() *accounts.Account { return &accounts.Account{} },
		),
	}
}

// Create inserts the account and announces the change.
func (r *AccountRepo) Create(ctx context.Context, acc *accounts.Account) error {
	if err := r.BaseCatalogRepo.Create(ctx, acc); err != nil {
		return err
	}
	return r.notifyChanged(ctx, acc.ID)
}

// Update writes the account and announces the change.
func (r *AccountRepo) Update(ctx context.Context, acc *accounts.Account) error {
	if err := r.BaseCatalogRepo.Update(ctx, acc); err != nil {
		return err
	}
	return r.notifyChanged(ctx, acc.ID)
}

// SetActive flips the active flag and announces the change. Caches that
// gate posting on the flag pick it up without a TTL.
func (r *AccountRepo) SetActive(ctx context.Context, accountID id.ID, active bool) error {
	if err := r.BaseCatalogRepo.SetActive(ctx, accountID, active); err != nil {
		return err
	}
	return r.notifyChanged(ctx, accountID)
}

// Delete removes the account and announces the change.
func (r *AccountRepo) Delete(ctx context.Context, accountID id.ID) error {
	if err := r.BaseCatalogRepo.Delete(ctx, accountID); err != nil {
		return err
	}
	return r.notifyChanged(ctx, accountID)
}

// notifyChanged emits NOTIFY with the account ID. Runs on the caller's
// querier, so inside a transaction the notification is only delivered
// on commit.
func (r *AccountRepo) notifyChanged(ctx context.Context, accountID id.ID) error {
	if _, err := r.Querier(ctx).Exec(ctx,
		"SELECT pg_notify($1, $2)", accounts.ChangedChannel, accountID.String(),
	); err != nil {
		return fmt.Errorf("notify %s: %w", accounts.ChangedChannel, err)
	}
	return nil
}

// GetChildren retrieves direct children of an account.
func (r *AccountRepo) GetChildren(ctx context.Context, parentID id.ID) ([]*accounts.Account, error) {
	var items []*accounts.Account

	q := r.baseSelect().
		Where(squirrel.Eq{"parent_id": parentID}).
		OrderBy("code")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Select(ctx, r.Querier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("get children: %w", err)
	}
	return items, nil
}

package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fiskalis/internal/core/apperror"
	"fiskalis/internal/core/id"
	"fiskalis/internal/domain"
	"fiskalis/internal/domain/accounts"
)

type fakeAccountRepo struct {
	accounts map[id.ID]*accounts.Account
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{accounts: make(map[id.ID]*accounts.Account)}
}

func (r *fakeAccountRepo) Create(ctx context.Context, acc *accounts.Account) error {
	cp := *acc
	r.accounts[acc.ID] = &cp
	return nil
}

func (r *fakeAccountRepo) GetByID(ctx context.Context, accountID id.ID) (*accounts.Account, error) {
	acc, ok := r.accounts[accountID]
	if !ok {
		return nil, apperror.NewNotFound("account", accountID.String())
	}
	cp := *acc
	return &cp, nil
}

func (r *fakeAccountRepo) GetByCode(ctx context.Context, code string) (*accounts.Account, error) {
	for _, acc := range r.accounts {
		if acc.Code == code {
			cp := *acc
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("account", code)
}

func (r *fakeAccountRepo) Update(ctx context.Context, acc *accounts.Account) error {
	if _, ok := r.accounts[acc.ID]; !ok {
		return apperror.NewNotFound("account", acc.ID.String())
	}
	cp := *acc
	r.accounts[acc.ID] = &cp
	return nil
}

func (r *fakeAccountRepo) SetActive(ctx context.Context, accountID id.ID, active bool) error {
	acc, ok := r.accounts[accountID]
	if !ok {
		return apperror.NewNotFound("account", accountID.String())
	}
	acc.Active = active
	return nil
}

func (r *fakeAccountRepo) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*accounts.Account], error) {
	var result domain.ListResult[*accounts.Account]
	for _, acc := range r.accounts {
		result.Items = append(result.Items, acc)
	}
	result.TotalCount = int64(len(result.Items))
	return result, nil
}

func (r *fakeAccountRepo) Exists(ctx context.Context, accountID id.ID) (bool, error) {
	_, ok := r.accounts[accountID]
	return ok, nil
}

func (r *fakeAccountRepo) ExistsByCode(ctx context.Context, code string) (bool, error) {
	for _, acc := range r.accounts {
		if acc.Code == code {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeAccountRepo) GetChildren(ctx context.Context, parentID id.ID) ([]*accounts.Account, error) {
	return nil, nil
}

func (r *fakeAccountRepo) GetTree(ctx context.Context, rootID *id.ID) ([]*accounts.Account, error) {
	return nil, nil
}

// seeded builds a cache with a listen context but no live pool; only the
// repo-backed paths are exercised.
func seeded(repo *fakeAccountRepo) *AccountCache {
	c := NewAccountCache(nil, repo)
	c.ctx = context.Background()
	for accID, acc := range repo.accounts {
		cp := *acc
		c.accounts[accID] = &cp
	}
	return c
}

func TestAccountCache_NotificationRefreshesEntry(t *testing.T) {
	repo := newFakeAccountRepo()
	acc := accounts.NewAccount("2040", "Kupci u zemlji", accounts.TypeAsset)
	require.NoError(t, repo.Create(context.Background(), acc))

	c := seeded(repo)

	_, err := c.RequireActive(context.Background(), acc.ID)
	require.NoError(t, err)

	// Deactivated in the database; the cached copy is now stale until
	// the change notification lands.
	require.NoError(t, repo.SetActive(context.Background(), acc.ID, false))

	c.handleNotification(accounts.ChangedChannel, acc.ID.String())

	_, err = c.RequireActive(context.Background(), acc.ID)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInactiveAccount, appErr.Code)
}

func TestAccountCache_NotificationEvictsDeleted(t *testing.T) {
	repo := newFakeAccountRepo()
	acc := accounts.NewAccount("4350", "Obaveze za PDV", accounts.TypeLiability)
	require.NoError(t, repo.Create(context.Background(), acc))

	c := seeded(repo)
	delete(repo.accounts, acc.ID)

	c.handleNotification(accounts.ChangedChannel, acc.ID.String())

	_, err := c.Get(context.Background(), acc.ID)
	assert.True(t, apperror.IsNotFound(err))
}

func TestAccountCache_IgnoresOtherChannels(t *testing.T) {
	repo := newFakeAccountRepo()
	acc := accounts.NewAccount("6040", "Prihodi od prodaje", accounts.TypeIncome)
	require.NoError(t, repo.Create(context.Background(), acc))

	c := seeded(repo)
	require.NoError(t, repo.SetActive(context.Background(), acc.ID, false))

	c.handleNotification("partners_changed", acc.ID.String())

	got, err := c.Get(context.Background(), acc.ID)
	require.NoError(t, err)
	assert.True(t, got.Active)
}

package accounts

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fiskalis/internal/core/apperror"
	"fiskalis/internal/core/id"
	"fiskalis/internal/domain"
)

type fakeTxManager struct{}

func (fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeRepo struct {
	accounts map[id.ID]*Account
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{accounts: make(map[id.ID]*Account)}
}

func (r *fakeRepo) Create(ctx context.Context, acc *Account) error {
	cp := *acc
	r.accounts[acc.ID] = &cp
	return nil
}

func (r *fakeRepo) GetByID(ctx context.Context, accountID id.ID) (*Account, error) {
	acc, ok := r.accounts[accountID]
	if !ok {
		return nil, apperror.NewNotFound("account", accountID.String())
	}
	cp := *acc
	return &cp, nil
}

func (r *fakeRepo) GetByCode(ctx context.Context, code string) (*Account, error) {
	for _, acc := range r.accounts {
		if acc.Code == code {
			cp := *acc
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("account", code)
}

func (r *fakeRepo) Update(ctx context.Context, acc *Account) error {
	if _, ok := r.accounts[acc.ID]; !ok {
		return apperror.NewNotFound("account", acc.ID.String())
	}
	cp := *acc
	r.accounts[acc.ID] = &cp
	return nil
}

func (r *fakeRepo) SetActive(ctx context.Context, accountID id.ID, active bool) error {
	acc, ok := r.accounts[accountID]
	if !ok {
		return apperror.NewNotFound("account", accountID.String())
	}
	acc.Active = active
	return nil
}

func (r *fakeRepo) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Account], error) {
	var result domain.ListResult[*Account]
	for _, acc := range r.accounts {
		result.Items = append(result.Items, acc)
	}
	result.TotalCount = int64(len(result.Items))
	return result, nil
}

func (r *fakeRepo) Exists(ctx context.Context, accountID id.ID) (bool, error) {
	_, ok := r.accounts[accountID]
	return ok, nil
}

func (r *fakeRepo) ExistsByCode(ctx context.Context, code string) (bool, error) {
	for _, acc := range r.accounts {
		if acc.Code == code {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeRepo) GetChildren(ctx context.Context, parentID id.ID) ([]*Account, error) {
	var out []*Account
	for _, acc := range r.accounts {
		if acc.ParentID != nil && *acc.ParentID == parentID {
			out = append(out, acc)
		}
	}
	return out, nil
}

func (r *fakeRepo) GetTree(ctx context.Context, rootID *id.ID) ([]*Account, error) {
	var out []*Account
	for _, acc := range r.accounts {
		out = append(out, acc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func ruleCode(t *testing.T, err error) string {
	t.Helper()
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok, "expected AppError, got %v", err)
	return appErr.Code
}

func newFixture(t *testing.T) (*Service, *fakeRepo) {
	t.Helper()
	repo := newFakeRepo()
	return NewService(repo, fakeTxManager{}), repo
}

func TestAccount_Validate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, NewAccount("2.41", "Tekuci racuni", TypeAsset).Validate(context.Background()))
		assert.NoError(t, NewAccount("6", "Prihodi", TypeIncome).Validate(context.Background()))
	})

	t.Run("bad code", func(t *testing.T) {
		for _, code := range []string{"2.41.", ".2", "2..41", "abc", "2-41", ""} {
			acc := NewAccount(code, "Konto", TypeAsset)
			assert.Error(t, acc.Validate(context.Background()), "code %q", code)
		}
	})

	t.Run("bad type", func(t *testing.T) {
		acc := NewAccount("2", "Konto", AccountType("REVENUE"))
		assert.Error(t, acc.Validate(context.Background()))
	})

	t.Run("self parent", func(t *testing.T) {
		acc := NewAccount("2", "Konto", TypeAsset)
		acc.SetParent(acc.ID)
		assert.Error(t, acc.Validate(context.Background()))
	})
}

func TestService_CreateHierarchy(t *testing.T) {
	service, _ := newFixture(t)
	ctx := context.Background()

	root := NewAccount("2", "Obrtna imovina", TypeAsset)
	require.NoError(t, service.Create(ctx, root))

	child := NewAccount("2.41", "Tekuci racuni", TypeAsset)
	child.SetParent(root.ID)
	require.NoError(t, service.Create(ctx, child))

	grandchild := NewAccount("2.41.1", "Dinarski racun", TypeAsset)
	grandchild.SetParent(child.ID)
	require.NoError(t, service.Create(ctx, grandchild))
}

func TestService_CreateRejectsTypeMismatch(t *testing.T) {
	service, _ := newFixture(t)
	ctx := context.Background()

	root := NewAccount("2", "Obrtna imovina", TypeAsset)
	require.NoError(t, service.Create(ctx, root))

	mid := NewAccount("2.41", "Tekuci racuni", TypeAsset)
	mid.SetParent(root.ID)
	require.NoError(t, service.Create(ctx, mid))

	// The type check runs against the root ancestor, not the direct parent.
	wrong := NewAccount("2.41.9", "Prihod na pogresnom mestu", TypeIncome)
	wrong.SetParent(mid.ID)

	err := service.Create(ctx, wrong)
	assert.Equal(t, apperror.CodeValidation, ruleCode(t, err))
}

func TestService_CreateRejectsUnknownParent(t *testing.T) {
	service, _ := newFixture(t)

	child := NewAccount("2.41", "Siroce", TypeAsset)
	child.SetParent(id.New())

	err := service.Create(context.Background(), child)
	assert.Equal(t, apperror.CodeValidation, ruleCode(t, err))
}

func TestService_UpdateRejectsCycle(t *testing.T) {
	service, repo := newFixture(t)
	ctx := context.Background()

	a := NewAccount("2", "A", TypeAsset)
	require.NoError(t, service.Create(ctx, a))
	b := NewAccount("2.1", "B", TypeAsset)
	b.SetParent(a.ID)
	require.NoError(t, service.Create(ctx, b))

	// Re-parenting the root under its own descendant closes a loop.
	a.SetParent(b.ID)
	err := service.Update(ctx, a)
	assert.Equal(t, apperror.CodeValidation, ruleCode(t, err))

	stored, getErr := repo.GetByID(ctx, a.ID)
	require.NoError(t, getErr)
	assert.True(t, stored.IsRoot(), "rejected update leaves the stored account untouched")
}

func TestService_CreateRejectsDuplicateCode(t *testing.T) {
	service, _ := newFixture(t)
	ctx := context.Background()

	require.NoError(t, service.Create(ctx, NewAccount("2", "Prvi", TypeAsset)))

	err := service.Create(ctx, NewAccount("2", "Drugi", TypeAsset))
	assert.Equal(t, apperror.CodeDuplicate, ruleCode(t, err))
}

func TestService_DeactivateIsSoft(t *testing.T) {
	service, repo := newFixture(t)
	ctx := context.Background()

	acc := NewAccount("5.12", "Troskovi materijala", TypeExpense)
	require.NoError(t, service.Create(ctx, acc))
	require.NoError(t, service.Deactivate(ctx, acc.ID))

	// The account survives deactivation and can be restored.
	stored, err := repo.GetByID(ctx, acc.ID)
	require.NoError(t, err)
	assert.False(t, stored.Active)

	require.NoError(t, service.Activate(ctx, acc.ID))
	stored, err = repo.GetByID(ctx, acc.ID)
	require.NoError(t, err)
	assert.True(t, stored.Active)
}

func TestService_RequireActive(t *testing.T) {
	service, _ := newFixture(t)
	ctx := context.Background()

	acc := NewAccount("6.04", "Prihodi od prodaje", TypeIncome)
	require.NoError(t, service.Create(ctx, acc))

	got, err := service.RequireActive(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, acc.ID, got.ID)

	require.NoError(t, service.Deactivate(ctx, acc.ID))
	_, err = service.RequireActive(ctx, acc.ID)
	assert.Equal(t, apperror.CodeInactiveAccount, ruleCode(t, err))

	_, err = service.RequireActive(ctx, id.New())
	assert.True(t, apperror.IsNotFound(err))
}

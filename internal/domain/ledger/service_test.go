package ledger

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fiskalis/internal/core/apperror"
	"fiskalis/internal/core/id"
	"fiskalis/internal/core/numerator"
	"fiskalis/internal/core/types"
	"fiskalis/internal/domain"
	"fiskalis/internal/domain/accounts"
)

// fakeTxManager runs the function directly, no database involved.
type fakeTxManager struct{}

func (fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// fakeRegistry resolves accounts from an in-memory map.
type fakeRegistry struct {
	accounts map[id.ID]*accounts.Account
}

func (r *fakeRegistry) RequireActive(ctx context.Context, accountID id.ID) (*accounts.Account, error) {
	acc, ok := r.accounts[accountID]
	if !ok {
		return nil, apperror.NewNotFound("account", accountID.String())
	}
	if !acc.Active {
		return nil, apperror.NewRuleViolation(apperror.CodeInactiveAccount, "account is inactive").
			WithDetail("accountId", accountID.String())
	}
	return acc, nil
}

// fakeRepo stores entries and lines in memory.
type fakeRepo struct {
	entries map[id.ID]*JournalEntry
	lines   map[id.ID][]JournalLine
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		entries: make(map[id.ID]*JournalEntry),
		lines:   make(map[id.ID][]JournalLine),
	}
}

func (r *fakeRepo) Create(ctx context.Context, entry *JournalEntry) error {
	cp := *entry
	r.entries[entry.ID] = &cp
	return nil
}

func (r *fakeRepo) GetByID(ctx context.Context, entryID id.ID) (*JournalEntry, error) {
	entry, ok := r.entries[entryID]
	if !ok {
		return nil, apperror.NewNotFound("journal entry", entryID.String())
	}
	cp := *entry
	return &cp, nil
}

func (r *fakeRepo) GetByNumber(ctx context.Context, companyID id.ID, number string) (*JournalEntry, error) {
	for _, entry := range r.entries {
		if entry.CompanyID == companyID && entry.Number == number {
			cp := *entry
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("journal entry", number)
}

func (r *fakeRepo) Update(ctx context.Context, entry *JournalEntry) error {
	if _, ok := r.entries[entry.ID]; !ok {
		return apperror.NewNotFound("journal entry", entry.ID.String())
	}
	cp := *entry
	r.entries[entry.ID] = &cp
	return nil
}

func (r *fakeRepo) Delete(ctx context.Context, entryID id.ID) error {
	delete(r.entries, entryID)
	delete(r.lines, entryID)
	return nil
}

func (r *fakeRepo) GetLines(ctx context.Context, entryID id.ID) ([]JournalLine, error) {
	return append([]JournalLine(nil), r.lines[entryID]...), nil
}

func (r *fakeRepo) SaveLines(ctx context.Context, entryID id.ID, lines []JournalLine) error {
	r.lines[entryID] = append([]JournalLine(nil), lines...)
	return nil
}

func (r *fakeRepo) List(ctx context.Context, filter ListFilter) (domain.ListResult[*JournalEntry], error) {
	var result domain.ListResult[*JournalEntry]
	for _, entry := range r.entries {
		result.Items = append(result.Items, entry)
	}
	result.TotalCount = int64(len(result.Items))
	return result, nil
}

func (r *fakeRepo) GetForUpdate(ctx context.Context, entryID id.ID) (*JournalEntry, error) {
	return r.GetByID(ctx, entryID)
}

type fixture struct {
	service  *Service
	repo     *fakeRepo
	registry *fakeRegistry

	companyID id.ID
	cashAcc   id.ID
	salesAcc  id.ID
	closedAcc id.ID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cash := accounts.NewAccount("2.41", "Tekuci racuni", accounts.TypeAsset)
	sales := accounts.NewAccount("6.04", "Prihodi od prodaje", accounts.TypeIncome)
	closed := accounts.NewAccount("5.99", "Ukinuti troskovi", accounts.TypeExpense)
	closed.Deactivate()

	registry := &fakeRegistry{accounts: map[id.ID]*accounts.Account{
		cash.ID:   cash,
		sales.ID:  sales,
		closed.ID: closed,
	}}

	repo := newFakeRepo()
	service := NewService(repo, registry, &numerator.MockGenerator{}, fakeTxManager{}, nil, nil)

	return &fixture{
		service:   service,
		repo:      repo,
		registry:  registry,
		companyID: id.New(),
		cashAcc:   cash.ID,
		salesAcc:  sales.ID,
		closedAcc: closed.ID,
	}
}

func (f *fixture) draft(t *testing.T, amount string) *JournalEntry {
	t.Helper()
	entry := NewJournalEntry(f.companyID, TypeSales, "invoice 2026/17")
	entry.AddLine(f.cashAcc, types.MustMoney(amount), types.ZeroMoney(), "")
	entry.AddLine(f.salesAcc, types.ZeroMoney(), types.MustMoney(amount), "")
	return entry
}

func TestService_CreateAssignsSequentialNumbers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.draft(t, "1000.00")
	require.NoError(t, f.service.Create(ctx, first))
	assert.Equal(t, int64(1), first.EntryNumber)
	assert.Equal(t, fmt.Sprintf("NO-%d-00001", first.Date.Year()), first.Number)

	second := f.draft(t, "250.00")
	require.NoError(t, f.service.Create(ctx, second))
	assert.Equal(t, int64(2), second.EntryNumber)

	stored, err := f.service.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusDraft, stored.Status)
	assert.Len(t, stored.Lines, 2)
}

func TestService_CreateRejectsUnbalanced(t *testing.T) {
	f := newFixture(t)

	entry := NewJournalEntry(f.companyID, TypeGeneral, "off by a cent")
	entry.AddLine(f.cashAcc, types.MustMoney("100.00"), types.ZeroMoney(), "")
	entry.AddLine(f.salesAcc, types.ZeroMoney(), types.MustMoney("100.01"), "")

	err := f.service.Create(context.Background(), entry)
	assert.Equal(t, apperror.CodeUnbalanced, ruleCode(t, err))
	assert.Empty(t, f.repo.entries, "nothing persisted on validation failure")
}

func TestService_CreateRejectsInactiveAccount(t *testing.T) {
	f := newFixture(t)

	entry := NewJournalEntry(f.companyID, TypeGeneral, "uses retired account")
	entry.AddLine(f.closedAcc, types.MustMoney("100.00"), types.ZeroMoney(), "")
	entry.AddLine(f.salesAcc, types.ZeroMoney(), types.MustMoney("100.00"), "")

	err := f.service.Create(context.Background(), entry)
	assert.Equal(t, apperror.CodeInactiveAccount, ruleCode(t, err))
}

func TestService_CreateRejectsUnknownAccount(t *testing.T) {
	f := newFixture(t)

	entry := NewJournalEntry(f.companyID, TypeGeneral, "ghost account")
	entry.AddLine(id.New(), types.MustMoney("100.00"), types.ZeroMoney(), "")
	entry.AddLine(f.salesAcc, types.ZeroMoney(), types.MustMoney("100.00"), "")

	err := f.service.Create(context.Background(), entry)
	assert.Equal(t, apperror.CodeInactiveAccount, ruleCode(t, err))
}

func TestService_Post(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	entry := f.draft(t, "1000.00")
	require.NoError(t, f.service.Create(ctx, entry))

	posted, err := f.service.Post(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPosted, posted.Status)
	require.NotNil(t, posted.PostedAt)

	// A second post attempt conflicts.
	_, err = f.service.Post(ctx, entry.ID)
	assert.Equal(t, apperror.CodeStateConflict, ruleCode(t, err))
}

func TestService_PostRechecksBalance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	entry := f.draft(t, "1000.00")
	require.NoError(t, f.service.Create(ctx, entry))

	// Corrupt the stored lines to simulate drift between validation
	// and posting. Post must re-verify under the lock.
	lines := f.repo.lines[entry.ID]
	lines[0].Debit = types.MustMoney("999.00")
	f.repo.lines[entry.ID] = lines

	_, err := f.service.Post(ctx, entry.ID)
	assert.Equal(t, apperror.CodeUnbalanced, ruleCode(t, err))

	stored, getErr := f.service.GetByID(ctx, entry.ID)
	require.NoError(t, getErr)
	assert.Equal(t, StatusDraft, stored.Status, "failed post leaves entry in DRAFT")
}

func TestService_Reverse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	entry := f.draft(t, "1000.00")
	require.NoError(t, f.service.Create(ctx, entry))
	_, err := f.service.Post(ctx, entry.ID)
	require.NoError(t, err)

	reversal, err := f.service.Reverse(ctx, entry.ID, "duplicate booking", nil)
	require.NoError(t, err)

	assert.Equal(t, StatusPosted, reversal.Status, "reversals are born posted")
	assert.Equal(t, TypeAdjustment, reversal.Type)
	assert.Equal(t, "duplicate booking", reversal.ReversalReason)
	require.NotNil(t, reversal.ReversalOf)
	assert.Equal(t, entry.ID, *reversal.ReversalOf)
	assert.Greater(t, reversal.EntryNumber, entry.EntryNumber)

	original, err := f.service.GetByID(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusReversed, original.Status)

	// Mirror lines: sides swapped, magnitudes identical.
	require.Len(t, reversal.Lines, 2)
	assert.True(t, reversal.Lines[0].Credit.Equal(types.MustMoney("1000.00")))
	assert.True(t, reversal.Lines[1].Debit.Equal(types.MustMoney("1000.00")))
}

func TestService_ReverseWithExplicitType(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	entry := f.draft(t, "400.00")
	require.NoError(t, f.service.Create(ctx, entry))
	_, err := f.service.Post(ctx, entry.ID)
	require.NoError(t, err)

	closing := TypeClosing
	reversal, err := f.service.Reverse(ctx, entry.ID, "year-end correction", &closing)
	require.NoError(t, err)
	assert.Equal(t, TypeClosing, reversal.Type)
}

func TestService_ReverseRequiresReason(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Reverse(context.Background(), id.New(), "", nil)
	assert.Equal(t, apperror.CodeValidation, ruleCode(t, err))
}

func TestService_ReverseRejectsDraft(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	entry := f.draft(t, "100.00")
	require.NoError(t, f.service.Create(ctx, entry))

	_, err := f.service.Reverse(ctx, entry.ID, "not posted yet", nil)
	assert.Equal(t, apperror.CodeStateConflict, ruleCode(t, err))
}

func TestService_ReverseRejectsReversed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	entry := f.draft(t, "100.00")
	require.NoError(t, f.service.Create(ctx, entry))
	_, err := f.service.Post(ctx, entry.ID)
	require.NoError(t, err)
	_, err = f.service.Reverse(ctx, entry.ID, "first time", nil)
	require.NoError(t, err)

	_, err = f.service.Reverse(ctx, entry.ID, "second time", nil)
	assert.Equal(t, apperror.CodeStateConflict, ruleCode(t, err))
}

func TestService_UpdateDraftOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	entry := f.draft(t, "100.00")
	require.NoError(t, f.service.Create(ctx, entry))

	entry.Description = "corrected description"
	require.NoError(t, f.service.Update(ctx, entry))

	_, err := f.service.Post(ctx, entry.ID)
	require.NoError(t, err)

	posted, err := f.service.GetByID(ctx, entry.ID)
	require.NoError(t, err)
	posted.Description = "too late"
	err = f.service.Update(ctx, posted)
	assert.Equal(t, apperror.CodeStateConflict, ruleCode(t, err))
}

func TestService_UpdateDetectsVersionConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	entry := f.draft(t, "100.00")
	require.NoError(t, f.service.Create(ctx, entry))

	stale, err := f.service.GetByID(ctx, entry.ID)
	require.NoError(t, err)
	stale.Version = entry.Version + 1

	err = f.service.Update(ctx, stale)
	assert.Equal(t, apperror.CodeConcurrentModification, ruleCode(t, err))
}

func TestService_UpdateKeepsNumberImmutable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	entry := f.draft(t, "100.00")
	require.NoError(t, f.service.Create(ctx, entry))
	origNumber := entry.Number

	entry.Number = "NO-2026-99999"
	entry.EntryNumber = 99999
	require.NoError(t, f.service.Update(ctx, entry))

	stored, err := f.service.GetByID(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, origNumber, stored.Number)
}

func TestService_DeleteDraftOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	entry := f.draft(t, "100.00")
	require.NoError(t, f.service.Create(ctx, entry))
	require.NoError(t, f.service.Delete(ctx, entry.ID))

	_, err := f.service.GetByID(ctx, entry.ID)
	assert.True(t, apperror.IsNotFound(err))

	posted := f.draft(t, "200.00")
	require.NoError(t, f.service.Create(ctx, posted))
	_, err = f.service.Post(ctx, posted.ID)
	require.NoError(t, err)

	err = f.service.Delete(ctx, posted.ID)
	assert.Equal(t, apperror.CodeStateConflict, ruleCode(t, err))
}

func TestService_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.GetByID(context.Background(), id.New())
	assert.True(t, apperror.IsNotFound(err))

	_, err = f.service.Post(context.Background(), id.New())
	assert.True(t, apperror.IsNotFound(err))
}

type capturingPublisher struct {
	events []domain.Event
}

func (p *capturingPublisher) Publish(ctx context.Context, e domain.Event) error {
	p.events = append(p.events, e)
	return nil
}

func TestService_PostPublishesEvent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	published := &capturingPublisher{}
	f.service.SetEventPublisher(published)

	entry := f.draft(t, "1000.00")
	require.NoError(t, f.service.Create(ctx, entry))
	assert.Empty(t, published.events, "draft creation publishes nothing")

	posted, err := f.service.Post(ctx, entry.ID)
	require.NoError(t, err)

	require.Len(t, published.events, 1)
	evt := published.events[0]
	assert.Equal(t, "JournalEntryPosted", evt.EventType)
	assert.Equal(t, "journal_entry", evt.AggregateType)
	assert.Equal(t, entry.ID, evt.AggregateID)
	assert.Equal(t, posted.Number, evt.Payload["number"])
}

func TestService_ReversePublishesEvent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	published := &capturingPublisher{}
	f.service.SetEventPublisher(published)

	entry := f.draft(t, "400.00")
	require.NoError(t, f.service.Create(ctx, entry))
	_, err := f.service.Post(ctx, entry.ID)
	require.NoError(t, err)

	reversal, err := f.service.Reverse(ctx, entry.ID, "duplicate booking", nil)
	require.NoError(t, err)

	require.Len(t, published.events, 2)
	evt := published.events[1]
	assert.Equal(t, "JournalEntryReversed", evt.EventType)
	assert.Equal(t, entry.ID, evt.AggregateID)
	assert.Equal(t, reversal.ID.String(), evt.Payload["reversalId"])
}

func TestService_EntrySequenceNeverResets(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var configs []numerator.Config
	num := &numerator.MockGenerator{}
	var counter int64
	num.GetNextValueFunc = func(ctx context.Context, cfg numerator.Config, period time.Time) (int64, error) {
		configs = append(configs, cfg)
		counter++
		return counter, nil
	}
	f.service.numerator = num

	dec := f.draft(t, "100.00")
	dec.Date = time.Date(2025, 12, 30, 0, 0, 0, 0, time.UTC)
	require.NoError(t, f.service.Create(ctx, dec))

	jan := f.draft(t, "100.00")
	jan.Date = time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	require.NoError(t, f.service.Create(ctx, jan))

	// Raw entry numbers run on across the year boundary; only the
	// formatted number carries the year.
	assert.Equal(t, int64(1), dec.EntryNumber)
	assert.Equal(t, int64(2), jan.EntryNumber)
	assert.Equal(t, "NO-2025-00001", dec.Number)
	assert.Equal(t, "NO-2026-00002", jan.Number)

	require.Len(t, configs, 2)
	for _, cfg := range configs {
		assert.Equal(t, "never", cfg.ResetPeriod)
	}
}

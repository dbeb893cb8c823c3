package advances

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fiskalis/internal/core/apperror"
	"fiskalis/internal/core/id"
	"fiskalis/internal/core/numerator"
	"fiskalis/internal/core/types"
	"fiskalis/internal/domain"
	"fiskalis/internal/domain/partners"
)

type fakeTxManager struct{}

func (fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakePartnerRegistry struct {
	partners map[id.ID]*partners.Partner
}

func (r *fakePartnerRegistry) GetByID(ctx context.Context, partnerID id.ID) (*partners.Partner, error) {
	p, ok := r.partners[partnerID]
	if !ok {
		return nil, apperror.NewNotFound("partner", partnerID.String())
	}
	return p, nil
}

type fakeRepo struct {
	advances    map[id.ID]*AdvanceInvoice
	allocations map[id.ID][]Allocation
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		advances:    make(map[id.ID]*AdvanceInvoice),
		allocations: make(map[id.ID][]Allocation),
	}
}

func (r *fakeRepo) Create(ctx context.Context, adv *AdvanceInvoice) error {
	cp := *adv
	r.advances[adv.ID] = &cp
	return nil
}

func (r *fakeRepo) GetByID(ctx context.Context, advID id.ID) (*AdvanceInvoice, error) {
	adv, ok := r.advances[advID]
	if !ok {
		return nil, apperror.NewNotFound("advance invoice", advID.String())
	}
	cp := *adv
	return &cp, nil
}

func (r *fakeRepo) Update(ctx context.Context, adv *AdvanceInvoice) error {
	if _, ok := r.advances[adv.ID]; !ok {
		return apperror.NewNotFound("advance invoice", adv.ID.String())
	}
	cp := *adv
	r.advances[adv.ID] = &cp
	return nil
}

func (r *fakeRepo) Delete(ctx context.Context, advID id.ID) error {
	delete(r.advances, advID)
	delete(r.allocations, advID)
	return nil
}

func (r *fakeRepo) GetAllocations(ctx context.Context, advID id.ID) ([]Allocation, error) {
	return append([]Allocation(nil), r.allocations[advID]...), nil
}

func (r *fakeRepo) AppendAllocation(ctx context.Context, advID id.ID, alloc Allocation) error {
	r.allocations[advID] = append(r.allocations[advID], alloc)
	return nil
}

func (r *fakeRepo) List(ctx context.Context, filter ListFilter) (domain.ListResult[*AdvanceInvoice], error) {
	var result domain.ListResult[*AdvanceInvoice]
	for _, adv := range r.advances {
		result.Items = append(result.Items, adv)
	}
	result.TotalCount = int64(len(result.Items))
	return result, nil
}

func (r *fakeRepo) GetForUpdate(ctx context.Context, advID id.ID) (*AdvanceInvoice, error) {
	return r.GetByID(ctx, advID)
}

type fixture struct {
	service *Service
	repo    *fakeRepo

	companyID       id.ID
	partnerID       id.ID
	closedPartnerID id.ID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	partner := partners.NewPartner("PAR-001", "Kupac d.o.o.", "101134702", partners.TypeCustomer)
	closed := partners.NewPartner("PAR-002", "Ugasena firma d.o.o.", "100001015", partners.TypeCustomer)
	closed.Deactivate()

	registry := &fakePartnerRegistry{partners: map[id.ID]*partners.Partner{
		partner.ID: partner,
		closed.ID:  closed,
	}}

	repo := newFakeRepo()
	service := NewService(repo, registry, &numerator.MockGenerator{}, fakeTxManager{}, nil)

	return &fixture{
		service:         service,
		repo:            repo,
		companyID:       id.New(),
		partnerID:       partner.ID,
		closedPartnerID: closed.ID,
	}
}

func (f *fixture) issued(t *testing.T, net string) *AdvanceInvoice {
	t.Helper()
	adv := NewAdvanceInvoice(f.companyID, f.partnerID, types.MustMoney(net), types.VATRate(20))
	require.NoError(t, f.service.Issue(context.Background(), adv))
	return adv
}

func (f *fixture) paid(t *testing.T, net string) *AdvanceInvoice {
	t.Helper()
	adv := f.issued(t, net)
	paid, err := f.service.MarkPaid(context.Background(), adv.ID, time.Now(), adv.TotalAmount)
	require.NoError(t, err)
	return paid
}

func TestService_Issue(t *testing.T) {
	f := newFixture(t)

	adv := f.issued(t, "1000.00")
	assert.Equal(t, StatusIssued, adv.Status)
	assert.NotEmpty(t, adv.Number)
	assert.Equal(t, "200.00", adv.VATAmount.String())
	assert.Equal(t, "1200.00", adv.TotalAmount.String())

	stored, err := f.service.GetByID(context.Background(), adv.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusIssued, stored.Status)
	assert.Equal(t, "1200.00", stored.RemainingAmount.String())
}

func TestService_IssueRejectsUnknownPartner(t *testing.T) {
	f := newFixture(t)

	adv := NewAdvanceInvoice(f.companyID, id.New(), types.MustMoney("100.00"), types.VATRate(20))
	err := f.service.Issue(context.Background(), adv)
	assert.Equal(t, apperror.CodeValidation, ruleCode(t, err))
	assert.Empty(t, f.repo.advances)
}

func TestService_IssueRejectsInactivePartner(t *testing.T) {
	f := newFixture(t)

	adv := NewAdvanceInvoice(f.companyID, f.closedPartnerID, types.MustMoney("100.00"), types.VATRate(20))
	err := f.service.Issue(context.Background(), adv)
	assert.Equal(t, apperror.CodeValidation, ruleCode(t, err))
}

func TestService_IssueRejectsInvalidRate(t *testing.T) {
	f := newFixture(t)

	adv := NewAdvanceInvoice(f.companyID, f.partnerID, types.MustMoney("100.00"), types.VATRate(15))
	err := f.service.Issue(context.Background(), adv)
	assert.Equal(t, apperror.CodeValidation, ruleCode(t, err))
}

func TestService_MarkPaid(t *testing.T) {
	f := newFixture(t)
	adv := f.issued(t, "1000.00")

	paymentDate := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	paid, err := f.service.MarkPaid(context.Background(), adv.ID, paymentDate, adv.TotalAmount)
	require.NoError(t, err)

	assert.Equal(t, StatusPaid, paid.Status)
	require.NotNil(t, paid.PaymentDate)
	assert.Equal(t, paymentDate, *paid.PaymentDate)
}

func TestService_UsePartial(t *testing.T) {
	f := newFixture(t)
	adv := f.paid(t, "1000.00")
	ctx := context.Background()

	used, err := f.service.Use(ctx, adv.ID, id.New(), types.MustMoney("700.00"))
	require.NoError(t, err)
	assert.Equal(t, StatusPartiallyUsed, used.Status)
	assert.Equal(t, "500.00", used.RemainingAmount.String())

	// The allocation log persists and is replayed on read.
	reloaded, err := f.service.GetByID(ctx, adv.ID)
	require.NoError(t, err)
	require.Len(t, reloaded.Allocations, 1)
	assert.Equal(t, "700.00", reloaded.UsedAmount.String())
}

func TestService_UseUntilFull(t *testing.T) {
	f := newFixture(t)
	adv := f.paid(t, "1000.00")
	ctx := context.Background()

	_, err := f.service.Use(ctx, adv.ID, id.New(), types.MustMoney("700.00"))
	require.NoError(t, err)

	used, err := f.service.Use(ctx, adv.ID, id.New(), types.MustMoney("500.00"))
	require.NoError(t, err)
	assert.Equal(t, StatusFullyUsed, used.Status)
	assert.True(t, used.RemainingAmount.IsZero())
}

func TestService_UseOverAllocationLeavesStateUnchanged(t *testing.T) {
	f := newFixture(t)
	adv := f.paid(t, "1000.00")
	ctx := context.Background()

	_, err := f.service.Use(ctx, adv.ID, id.New(), types.MustMoney("1000.00"))
	require.NoError(t, err)

	_, err = f.service.Use(ctx, adv.ID, id.New(), types.MustMoney("500.00"))
	assert.Equal(t, apperror.CodeOverAllocation, ruleCode(t, err))

	reloaded, err := f.service.GetByID(ctx, adv.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPartiallyUsed, reloaded.Status)
	assert.Equal(t, "1000.00", reloaded.UsedAmount.String())
	assert.Len(t, reloaded.Allocations, 1)
}

func TestService_UseRequiresPaid(t *testing.T) {
	f := newFixture(t)
	adv := f.issued(t, "1000.00")

	_, err := f.service.Use(context.Background(), adv.ID, id.New(), types.MustMoney("100.00"))
	assert.Equal(t, apperror.CodeStateConflict, ruleCode(t, err))
}

func TestService_Cancel(t *testing.T) {
	f := newFixture(t)
	adv := f.issued(t, "1000.00")

	cancelled, err := f.service.Cancel(context.Background(), adv.ID, "order withdrawn")
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)
	assert.Equal(t, "order withdrawn", cancelled.CancelReason)
}

func TestService_CancelRejectedAfterUse(t *testing.T) {
	f := newFixture(t)
	adv := f.paid(t, "1000.00")
	ctx := context.Background()

	_, err := f.service.Use(ctx, adv.ID, id.New(), types.MustMoney("100.00"))
	require.NoError(t, err)

	_, err = f.service.Cancel(ctx, adv.ID, "changed my mind")
	assert.Equal(t, apperror.CodeConflict, ruleCode(t, err))

	reloaded, err := f.service.GetByID(ctx, adv.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPartiallyUsed, reloaded.Status)
}

func TestService_CreateDraft(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	adv := NewAdvanceInvoice(f.companyID, f.partnerID, types.MustMoney("1000.00"), types.VATRate(20))
	require.NoError(t, f.service.CreateDraft(ctx, adv))

	assert.Equal(t, StatusDraft, adv.Status)
	assert.NotEmpty(t, adv.Number)
	assert.Equal(t, "1200.00", adv.TotalAmount.String())

	stored, err := f.service.GetByID(ctx, adv.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusDraft, stored.Status)
}

func TestService_IssueDraft(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	adv := NewAdvanceInvoice(f.companyID, f.partnerID, types.MustMoney("500.00"), types.VATRate(20))
	require.NoError(t, f.service.CreateDraft(ctx, adv))

	issued, err := f.service.IssueDraft(ctx, adv.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusIssued, issued.Status)

	// Issuing twice conflicts.
	_, err = f.service.IssueDraft(ctx, adv.ID)
	assert.Equal(t, apperror.CodeStateConflict, ruleCode(t, err))
}

func TestService_DeleteDraftOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// One-shot Issue stores the advance already ISSUED, so it is never
	// deletable.
	adv := f.issued(t, "100.00")
	err := f.service.Delete(ctx, adv.ID)
	assert.Equal(t, apperror.CodeStateConflict, ruleCode(t, err))

	// A drafted advance can be deleted until it is issued.
	draft := NewAdvanceInvoice(f.companyID, f.partnerID, types.MustMoney("50.00"), types.VATRate(10))
	require.NoError(t, f.service.CreateDraft(ctx, draft))
	require.NoError(t, f.service.Delete(ctx, draft.ID))

	_, err = f.service.GetByID(ctx, draft.ID)
	assert.True(t, apperror.IsNotFound(err))

	// Once issued, the former draft is retained.
	kept := NewAdvanceInvoice(f.companyID, f.partnerID, types.MustMoney("75.00"), types.VATRate(20))
	require.NoError(t, f.service.CreateDraft(ctx, kept))
	_, err = f.service.IssueDraft(ctx, kept.ID)
	require.NoError(t, err)

	err = f.service.Delete(ctx, kept.ID)
	assert.Equal(t, apperror.CodeStateConflict, ruleCode(t, err))
}

type capturingPublisher struct {
	events []domain.Event
}

func (p *capturingPublisher) Publish(ctx context.Context, e domain.Event) error {
	p.events = append(p.events, e)
	return nil
}

func TestService_UsePublishesEvent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	published := &capturingPublisher{}
	f.service.SetEventPublisher(published)

	adv := f.paid(t, "1000.00")
	invoiceID := id.New()

	used, err := f.service.Use(ctx, adv.ID, invoiceID, types.MustMoney("700.00"))
	require.NoError(t, err)

	require.Len(t, published.events, 1)
	evt := published.events[0]
	assert.Equal(t, "AdvanceAllocated", evt.EventType)
	assert.Equal(t, "advance_invoice", evt.AggregateType)
	assert.Equal(t, adv.ID, evt.AggregateID)
	assert.Equal(t, invoiceID.String(), evt.Payload["invoiceId"])
	assert.Equal(t, used.RemainingAmount.String(), evt.Payload["remainingAmount"])
}

func TestService_NotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.GetByID(ctx, id.New())
	assert.True(t, apperror.IsNotFound(err))

	_, err = f.service.MarkPaid(ctx, id.New(), time.Now(), types.MustMoney("10.00"))
	assert.True(t, apperror.IsNotFound(err))

	_, err = f.service.Use(ctx, id.New(), id.New(), types.MustMoney("10.00"))
	assert.True(t, apperror.IsNotFound(err))
}

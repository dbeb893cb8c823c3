package pppdv

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fiskalis/internal/core/apperror"
	"fiskalis/internal/core/id"
	"fiskalis/internal/core/numerator"
	"fiskalis/internal/core/types"
	"fiskalis/internal/domain"
	"fiskalis/internal/domain/company"
	"fiskalis/internal/domain/vatrec"
)

type fakeTxManager struct{}

func (fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeRecordSource struct {
	records []*vatrec.VATRecord
}

func (s *fakeRecordSource) ListByPeriod(ctx context.Context, companyID id.ID, from, to time.Time) ([]*vatrec.VATRecord, error) {
	var out []*vatrec.VATRecord
	for _, rec := range s.records {
		if rec.CompanyID != companyID {
			continue
		}
		if rec.Date.Before(from) || rec.Date.After(to) {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

type fakeRepo struct {
	reports map[id.ID]*TaxPeriodReport
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{reports: make(map[id.ID]*TaxPeriodReport)}
}

func (r *fakeRepo) store(rep *TaxPeriodReport) {
	cp := *rep
	cp.Fields = rep.Fields.Clone()
	r.reports[rep.ID] = &cp
}

func (r *fakeRepo) Create(ctx context.Context, rep *TaxPeriodReport) error {
	r.store(rep)
	return nil
}

func (r *fakeRepo) GetByID(ctx context.Context, repID id.ID) (*TaxPeriodReport, error) {
	rep, ok := r.reports[repID]
	if !ok {
		return nil, apperror.NewNotFound("tax report", repID.String())
	}
	cp := *rep
	cp.Fields = rep.Fields.Clone()
	return &cp, nil
}

func (r *fakeRepo) Update(ctx context.Context, rep *TaxPeriodReport) error {
	if _, ok := r.reports[rep.ID]; !ok {
		return apperror.NewNotFound("tax report", rep.ID.String())
	}
	r.store(rep)
	return nil
}

func (r *fakeRepo) Delete(ctx context.Context, repID id.ID) error {
	delete(r.reports, repID)
	return nil
}

func (r *fakeRepo) FindByPeriod(ctx context.Context, companyID id.ID, year int, periodType company.VATPeriodType, periodNo int) (*TaxPeriodReport, error) {
	for _, rep := range r.reports {
		if rep.CompanyID == companyID && rep.Year == year &&
			rep.PeriodType == periodType && rep.PeriodNo() == periodNo {
			return r.GetByID(ctx, rep.ID)
		}
	}
	return nil, apperror.NewNotFound("tax report", "period")
}

func (r *fakeRepo) FindLatestBefore(ctx context.Context, companyID id.ID, before time.Time) (*TaxPeriodReport, error) {
	var best *TaxPeriodReport
	var bestEnd time.Time
	for _, rep := range r.reports {
		if rep.CompanyID != companyID {
			continue
		}
		if !rep.InStatus(StatusSubmitted, StatusAccepted) {
			continue
		}
		_, end := rep.PeriodBounds()
		if !end.Before(before) {
			continue
		}
		if best == nil || end.After(bestEnd) {
			best = rep
			bestEnd = end
		}
	}
	if best == nil {
		return nil, apperror.NewNotFound("tax report", "previous period")
	}
	return r.GetByID(ctx, best.ID)
}

func (r *fakeRepo) List(ctx context.Context, filter ListFilter) (domain.ListResult[*TaxPeriodReport], error) {
	var result domain.ListResult[*TaxPeriodReport]
	for _, rep := range r.reports {
		result.Items = append(result.Items, rep)
	}
	result.TotalCount = int64(len(result.Items))
	return result, nil
}

func (r *fakeRepo) GetForUpdate(ctx context.Context, repID id.ID) (*TaxPeriodReport, error) {
	return r.GetByID(ctx, repID)
}

type capturingPublisher struct {
	events []domain.Event
}

func (p *capturingPublisher) Publish(ctx context.Context, e domain.Event) error {
	p.events = append(p.events, e)
	return nil
}

type fixture struct {
	service   *Service
	repo      *fakeRepo
	source    *fakeRecordSource
	companyID id.ID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := newFakeRepo()
	source := &fakeRecordSource{}
	service := NewService(repo, source, &numerator.MockGenerator{}, fakeTxManager{}, nil)
	return &fixture{
		service:   service,
		repo:      repo,
		source:    source,
		companyID: id.New(),
	}
}

func (f *fixture) addRecord(dir vatrec.Direction, rate types.VATRate, base string, date time.Time) {
	b := types.MustMoney(base)
	f.source.records = append(f.source.records,
		vatrec.NewVATRecord(f.companyID, dir, rate, b, rate.VATOn(b), "DOC", date))
}

func (f *fixture) marchParams() PeriodParams {
	return PeriodParams{
		CompanyID:  f.companyID,
		Year:       2026,
		PeriodType: company.VATPeriodMonthly,
		PeriodNo:   3,
	}
}

func TestService_Create(t *testing.T) {
	f := newFixture(t)
	march := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	f.addRecord(vatrec.DirectionOutput, types.VATRateStandard, "1000.00", march)
	f.addRecord(vatrec.DirectionInput, types.VATRateStandard, "400.00", march)

	rep, err := f.service.Create(context.Background(), f.marchParams())
	require.NoError(t, err)

	assert.Equal(t, StatusCalculated, rep.Status)
	assert.NotEmpty(t, rep.Number)
	assert.Equal(t, "120.00", rep.Fields.Get(Field401).String())
	assert.True(t, rep.Fields.Get(Field402).IsZero())
}

func TestService_CreateExcludesOutOfPeriodRecords(t *testing.T) {
	f := newFixture(t)
	f.addRecord(vatrec.DirectionOutput, types.VATRateStandard, "1000.00",
		time.Date(2026, 3, 31, 12, 0, 0, 0, time.UTC))
	f.addRecord(vatrec.DirectionOutput, types.VATRateStandard, "9999.00",
		time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC))
	f.addRecord(vatrec.DirectionOutput, types.VATRateStandard, "9999.00",
		time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC))

	rep, err := f.service.Create(context.Background(), f.marchParams())
	require.NoError(t, err)

	assert.Equal(t, "1000.00", rep.Fields.Get(Field001).String())
}

func TestService_CreateOnePerPeriod(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.Create(ctx, f.marchParams())
	require.NoError(t, err)

	_, err = f.service.Create(ctx, f.marchParams())
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeDuplicate, appErr.Code)
}

func TestService_CreateValidatesPeriod(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	params := f.marchParams()
	params.PeriodNo = 13
	_, err := f.service.Create(ctx, params)
	assert.Equal(t, apperror.CodeValidation, ruleCode(t, err))

	params = f.marchParams()
	params.PeriodType = company.VATPeriodType("WEEKLY")
	_, err = f.service.Create(ctx, params)
	assert.Equal(t, apperror.CodeValidation, ruleCode(t, err))

	params = f.marchParams()
	params.ProRataPercent = decimal.NewFromInt(150)
	_, err = f.service.Create(ctx, params)
	assert.Equal(t, apperror.CodeValidation, ruleCode(t, err))
}

func TestService_CalculateDoesNotPersist(t *testing.T) {
	f := newFixture(t)
	f.addRecord(vatrec.DirectionOutput, types.VATRateStandard, "1000.00",
		time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC))

	calc, err := f.service.Calculate(context.Background(), f.marchParams())
	require.NoError(t, err)

	assert.Equal(t, "200.00", calc.Fields.Get(Field203).String())
	assert.Empty(t, f.repo.reports)
}

func TestService_CreditCarriesAcrossPeriods(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// February ends in a 80.00 credit position.
	f.addRecord(vatrec.DirectionInput, types.VATRateStandard, "400.00",
		time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC))

	febParams := f.marchParams()
	febParams.PeriodNo = 2
	feb, err := f.service.Create(ctx, febParams)
	require.NoError(t, err)
	assert.Equal(t, "80.00", feb.Fields.Get(Field402).String())

	_, err = f.service.Submit(ctx, feb.ID)
	require.NoError(t, err)

	// March owes 200.00 output VAT, offset by February's credit.
	f.addRecord(vatrec.DirectionOutput, types.VATRateStandard, "1000.00",
		time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC))

	march, err := f.service.Create(ctx, f.marchParams())
	require.NoError(t, err)

	assert.Equal(t, "80.00", march.PreviousCredit.String())
	assert.Equal(t, "120.00", march.Fields.Get(Field401).String())
}

func TestService_CreditCarriesAcrossCadenceSwitch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Monthly March ends in a 80.00 credit position. Comparing raw
	// period numbers would discard it (month 3 vs quarter 2): the
	// lookup must order by period end date.
	f.addRecord(vatrec.DirectionInput, types.VATRateStandard, "400.00",
		time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC))

	march, err := f.service.Create(ctx, f.marchParams())
	require.NoError(t, err)
	assert.Equal(t, "80.00", march.Fields.Get(Field402).String())

	_, err = f.service.Submit(ctx, march.ID)
	require.NoError(t, err)

	// The company switches to quarterly filing from Q2.
	f.addRecord(vatrec.DirectionOutput, types.VATRateStandard, "1000.00",
		time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC))

	q2, err := f.service.Create(ctx, PeriodParams{
		CompanyID:  f.companyID,
		Year:       2026,
		PeriodType: company.VATPeriodQuarterly,
		PeriodNo:   2,
	})
	require.NoError(t, err)

	assert.Equal(t, "80.00", q2.PreviousCredit.String())
	assert.Equal(t, "120.00", q2.Fields.Get(Field401).String())
}

func TestService_UnsubmittedCreditIsNotCarried(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.addRecord(vatrec.DirectionInput, types.VATRateStandard, "400.00",
		time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC))

	febParams := f.marchParams()
	febParams.PeriodNo = 2
	_, err := f.service.Create(ctx, febParams)
	require.NoError(t, err)

	f.addRecord(vatrec.DirectionOutput, types.VATRateStandard, "1000.00",
		time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC))

	march, err := f.service.Create(ctx, f.marchParams())
	require.NoError(t, err)

	assert.True(t, march.PreviousCredit.IsZero())
	assert.Equal(t, "200.00", march.Fields.Get(Field401).String())
}

func TestService_Recalculate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rep, err := f.service.Create(ctx, f.marchParams())
	require.NoError(t, err)
	assert.True(t, rep.Fields.Get(Field203).IsZero())

	// A late record arrives after the report was calculated.
	f.addRecord(vatrec.DirectionOutput, types.VATRateStandard, "500.00",
		time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC))

	recalced, err := f.service.Recalculate(ctx, rep.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, "100.00", recalced.Fields.Get(Field203).String())
}

func TestService_RecalculateWithOverrides(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.addRecord(vatrec.DirectionInput, types.VATRateStandard, "1000.00",
		time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC))

	rep, err := f.service.Create(ctx, f.marchParams())
	require.NoError(t, err)
	assert.Equal(t, "200.00", rep.Fields.Get(Field301).String())

	recalced, err := f.service.Recalculate(ctx, rep.ID, FieldValues{
		Field301: types.MustMoney("120.00"),
	})
	require.NoError(t, err)
	assert.Equal(t, "120.00", recalced.Fields.Get(Field301).String())
	assert.Equal(t, "120.00", recalced.Fields.Get(Field304).String())
}

func TestService_RecalculateRejectedAfterSubmit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rep, err := f.service.Create(ctx, f.marchParams())
	require.NoError(t, err)
	_, err = f.service.Submit(ctx, rep.ID)
	require.NoError(t, err)

	_, err = f.service.Recalculate(ctx, rep.ID, nil)
	assert.Equal(t, apperror.CodeStateConflict, ruleCode(t, err))
}

func TestService_SubmitAndOutcome(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rep, err := f.service.Create(ctx, f.marchParams())
	require.NoError(t, err)

	submitted, err := f.service.Submit(ctx, rep.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusSubmitted, submitted.Status)
	require.NotNil(t, submitted.SubmittedAt)

	accepted, err := f.service.ApplyOutcome(ctx, rep.ID, true, "SEF-2026-17")
	require.NoError(t, err)
	assert.Equal(t, StatusAccepted, accepted.Status)
	require.NotNil(t, accepted.SubmissionReference)

	// Terminal: no further transitions.
	_, err = f.service.ApplyOutcome(ctx, rep.ID, false, "")
	assert.Equal(t, apperror.CodeStateConflict, ruleCode(t, err))
}

func TestService_SubmitPublishesEvent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	published := &capturingPublisher{}
	f.service.SetEventPublisher(published)

	rep, err := f.service.Create(ctx, f.marchParams())
	require.NoError(t, err)
	assert.Empty(t, published.events)

	_, err = f.service.Submit(ctx, rep.ID)
	require.NoError(t, err)

	require.Len(t, published.events, 1)
	evt := published.events[0]
	assert.Equal(t, "TaxReportSubmitted", evt.EventType)
	assert.Equal(t, "tax_report", evt.AggregateType)
	assert.Equal(t, rep.ID, evt.AggregateID)
	assert.Equal(t, rep.Number, evt.Payload["number"])
}

func TestService_NotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.GetByID(ctx, id.New())
	assert.True(t, apperror.IsNotFound(err))

	_, err = f.service.Submit(ctx, id.New())
	assert.True(t, apperror.IsNotFound(err))

	_, err = f.service.Recalculate(ctx, id.New(), nil)
	assert.True(t, apperror.IsNotFound(err))
}

package vatrec

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fiskalis/internal/core/apperror"
	"fiskalis/internal/core/id"
	"fiskalis/internal/core/types"
)

type fakeTxManager struct{}

func (fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeRepo struct {
	records []*VATRecord
}

func (r *fakeRepo) Create(ctx context.Context, rec *VATRecord) error {
	r.records = append(r.records, rec)
	return nil
}

func (r *fakeRepo) CreateBatch(ctx context.Context, recs []*VATRecord) error {
	r.records = append(r.records, recs...)
	return nil
}

func (r *fakeRepo) ListByPeriod(ctx context.Context, companyID id.ID, from, to time.Time) ([]*VATRecord, error) {
	var out []*VATRecord
	for _, rec := range r.records {
		if rec.CompanyID != companyID || rec.Date.Before(from) || rec.Date.After(to) {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func validRecord(companyID id.ID, base string, rate types.VATRate) *VATRecord {
	b := types.MustMoney(base)
	return NewVATRecord(companyID, DirectionOutput, rate, b, rate.VATOn(b),
		"INV-2026-001", time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC))
}

func TestVATRecord_Validate(t *testing.T) {
	companyID := id.New()

	assert.NoError(t, validRecord(companyID, "1000.00", types.VATRate(20)).Validate(context.Background()))

	t.Run("bad direction", func(t *testing.T) {
		rec := validRecord(companyID, "1000.00", types.VATRate(20))
		rec.Direction = Direction("SIDEWAYS")
		assert.Error(t, rec.Validate(context.Background()))
	})

	t.Run("out of set rate", func(t *testing.T) {
		rec := validRecord(companyID, "1000.00", types.VATRate(20))
		rec.Rate = types.VATRate(18)
		assert.Error(t, rec.Validate(context.Background()))
	})

	t.Run("negative base", func(t *testing.T) {
		rec := validRecord(companyID, "1000.00", types.VATRate(20))
		rec.BaseAmount = types.MustMoney("-1.00")
		assert.Error(t, rec.Validate(context.Background()))
	})

	t.Run("vat mismatch", func(t *testing.T) {
		rec := validRecord(companyID, "1000.00", types.VATRate(20))
		rec.VATAmount = types.MustMoney("199.99")
		assert.Error(t, rec.Validate(context.Background()))
	})

	t.Run("zero rate carries no vat", func(t *testing.T) {
		rec := validRecord(companyID, "1000.00", types.VATRate(0))
		assert.NoError(t, rec.Validate(context.Background()))

		rec.VATAmount = types.MustMoney("10.00")
		assert.Error(t, rec.Validate(context.Background()))
	})
}

func TestService_Ingest(t *testing.T) {
	repo := &fakeRepo{}
	service := NewService(repo, fakeTxManager{})
	companyID := id.New()

	recs := []*VATRecord{
		validRecord(companyID, "1000.00", types.VATRate(20)),
		validRecord(companyID, "500.00", types.VATRate(10)),
	}
	require.NoError(t, service.Ingest(context.Background(), recs))
	assert.Len(t, repo.records, 2)
}

func TestService_IngestRejectsWholeBatch(t *testing.T) {
	repo := &fakeRepo{}
	service := NewService(repo, fakeTxManager{})
	companyID := id.New()

	bad := validRecord(companyID, "500.00", types.VATRate(20))
	bad.VATAmount = types.MustMoney("1.00")

	err := service.Ingest(context.Background(), []*VATRecord{
		validRecord(companyID, "1000.00", types.VATRate(20)),
		bad,
	})
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
	assert.Empty(t, repo.records, "invalid batch stores nothing")
}

func TestService_ListByPeriod(t *testing.T) {
	repo := &fakeRepo{}
	service := NewService(repo, fakeTxManager{})
	companyID := id.New()
	otherCompany := id.New()

	require.NoError(t, service.Ingest(context.Background(), []*VATRecord{
		validRecord(companyID, "1000.00", types.VATRate(20)),
		validRecord(otherCompany, "999.00", types.VATRate(20)),
	}))

	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 31, 23, 59, 59, 0, time.UTC)

	recs, err := service.ListByPeriod(context.Background(), companyID, from, to)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, companyID, recs[0].CompanyID)
}

package pppdv

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fiskalis/internal/core/id"
	"fiskalis/internal/core/types"
	"fiskalis/internal/domain/vatrec"
)

func record(companyID id.ID, dir vatrec.Direction, rate types.VATRate, base string) *vatrec.VATRecord {
	b := types.MustMoney(base)
	return vatrec.NewVATRecord(companyID, dir, rate, b, rate.VATOn(b),
		"DOC-1", time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC))
}

func TestCalculate_SaleAndPurchase(t *testing.T) {
	companyID := id.New()
	in := Input{
		Records: []*vatrec.VATRecord{
			record(companyID, vatrec.DirectionOutput, types.VATRateStandard, "1000.00"),
			record(companyID, vatrec.DirectionInput, types.VATRateStandard, "400.00"),
		},
	}

	calc := Calculate(in)

	assert.Equal(t, "1000.00", calc.Fields.Get(Field001).String())
	assert.Equal(t, "200.00", calc.Fields.Get(Field002).String())
	assert.Equal(t, "400.00", calc.Fields.Get(Field101).String())
	assert.Equal(t, "80.00", calc.Fields.Get(Field102).String())
	assert.Equal(t, "200.00", calc.Fields.Get(Field203).String())
	assert.Equal(t, "80.00", calc.Fields.Get(Field304).String())
	assert.Equal(t, "120.00", calc.Fields.Get(Field401).String())
	assert.True(t, calc.Fields.Get(Field402).IsZero())
	assert.Equal(t, "120.00", calc.Balance.String())
}

func TestCalculate_RateBuckets(t *testing.T) {
	companyID := id.New()
	in := Input{
		Records: []*vatrec.VATRecord{
			record(companyID, vatrec.DirectionOutput, types.VATRateStandard, "1000.00"),
			record(companyID, vatrec.DirectionOutput, types.VATRateStandard, "500.00"),
			record(companyID, vatrec.DirectionOutput, types.VATRateReduced, "300.00"),
			record(companyID, vatrec.DirectionOutput, types.VATRateZero, "200.00"),
			record(companyID, vatrec.DirectionInput, types.VATRateReduced, "100.00"),
			record(companyID, vatrec.DirectionInput, types.VATRateZero, "50.00"),
		},
	}

	calc := Calculate(in)

	// Same-bucket records accumulate.
	assert.Equal(t, "1500.00", calc.Fields.Get(Field001).String())
	assert.Equal(t, "300.00", calc.Fields.Get(Field002).String())
	assert.Equal(t, "300.00", calc.Fields.Get(Field003).String())
	assert.Equal(t, "30.00", calc.Fields.Get(Field004).String())
	assert.Equal(t, "200.00", calc.Fields.Get(Field005).String())

	assert.Equal(t, "100.00", calc.Fields.Get(Field103).String())
	assert.Equal(t, "10.00", calc.Fields.Get(Field104).String())
	assert.Equal(t, "50.00", calc.Fields.Get(Field105).String())

	// Zero-rated turnover carries no tax into the aggregation.
	assert.Equal(t, "330.00", calc.Fields.Get(Field203).String())
	assert.Equal(t, "10.00", calc.Fields.Get(Field304).String())
}

func TestCalculate_EmptyPeriodCarriesCreditForward(t *testing.T) {
	in := Input{
		PreviousCredit: types.MustMoney("75.00"),
	}

	calc := Calculate(in)

	for _, def := range AllFields() {
		if def.ID == Field402 {
			continue
		}
		assert.True(t, calc.Fields.Get(def.ID).IsZero(), "field %s expected zero", def.ID)
	}
	assert.Equal(t, "75.00", calc.Fields.Get(Field402).String())
	assert.True(t, calc.Balance.IsZero())
}

func TestCalculate_PreviousCreditOffsetsPayable(t *testing.T) {
	companyID := id.New()
	in := Input{
		Records: []*vatrec.VATRecord{
			record(companyID, vatrec.DirectionOutput, types.VATRateStandard, "1000.00"),
		},
		PreviousCredit: types.MustMoney("50.00"),
	}

	calc := Calculate(in)

	// 200 output VAT minus 50 carried credit.
	assert.Equal(t, "150.00", calc.Fields.Get(Field401).String())
	assert.True(t, calc.Fields.Get(Field402).IsZero())
	assert.Equal(t, "200.00", calc.Balance.String())
}

func TestCalculate_CreditPosition(t *testing.T) {
	companyID := id.New()
	in := Input{
		Records: []*vatrec.VATRecord{
			record(companyID, vatrec.DirectionOutput, types.VATRateStandard, "100.00"),
			record(companyID, vatrec.DirectionInput, types.VATRateStandard, "400.00"),
		},
	}

	calc := Calculate(in)

	// Input VAT 80 exceeds output VAT 20; the difference is a credit.
	assert.True(t, calc.Fields.Get(Field401).IsZero())
	assert.Equal(t, "60.00", calc.Fields.Get(Field402).String())
	assert.Equal(t, "-60.00", calc.Balance.String())
}

func TestCalculate_ExactlyOneFinalField(t *testing.T) {
	companyID := id.New()

	cases := []struct {
		name    string
		outBase string
		inBase  string
	}{
		{"payable", "1000.00", "100.00"},
		{"credit", "100.00", "1000.00"},
		{"break even", "500.00", "500.00"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			calc := Calculate(Input{
				Records: []*vatrec.VATRecord{
					record(companyID, vatrec.DirectionOutput, types.VATRateStandard, tc.outBase),
					record(companyID, vatrec.DirectionInput, types.VATRateStandard, tc.inBase),
				},
			})

			payable := calc.Fields.Get(Field401)
			credit := calc.Fields.Get(Field402)
			assert.False(t, !payable.IsZero() && !credit.IsZero(),
				"payable %s and credit %s must not both be set", payable, credit)
		})
	}
}

func TestCalculate_ProRata(t *testing.T) {
	companyID := id.New()
	in := Input{
		Records: []*vatrec.VATRecord{
			record(companyID, vatrec.DirectionInput, types.VATRateStandard, "1000.00"),
		},
		ProRataPercent: decimal.NewFromInt(60),
	}

	calc := Calculate(in)

	assert.Equal(t, "200.00", calc.Fields.Get(Field303).String())
	assert.Equal(t, "120.00", calc.Fields.Get(Field304).String())
	assert.Equal(t, "120.00", calc.Fields.Get(Field402).String())
	assert.Equal(t, "60.00", calc.ProRataPercent)
}

func TestCalculate_Overrides(t *testing.T) {
	companyID := id.New()
	in := Input{
		Records: []*vatrec.VATRecord{
			record(companyID, vatrec.DirectionInput, types.VATRateStandard, "1000.00"),
		},
		Overrides: FieldValues{
			Field301: types.MustMoney("150.00"),
			// Computed fields silently ignore override attempts.
			Field203: types.MustMoney("999.00"),
		},
	}

	calc := Calculate(in)

	assert.Equal(t, "150.00", calc.Fields.Get(Field301).String())
	assert.Equal(t, "150.00", calc.Fields.Get(Field303).String())
	assert.Equal(t, "150.00", calc.Fields.Get(Field304).String())
	assert.True(t, calc.Fields.Get(Field203).IsZero())
}

func TestCalculate_PureAndDeterministic(t *testing.T) {
	companyID := id.New()
	records := []*vatrec.VATRecord{
		record(companyID, vatrec.DirectionOutput, types.VATRateStandard, "333.33"),
		record(companyID, vatrec.DirectionInput, types.VATRateReduced, "111.11"),
	}
	in := Input{Records: records, PreviousCredit: types.MustMoney("10.00")}

	first := Calculate(in)
	second := Calculate(in)

	require.True(t, first.Fields.Equal(second.Fields))
	assert.True(t, first.Balance.Equal(second.Balance))

	// Input records are read, never mutated.
	assert.Equal(t, "333.33", records[0].BaseAmount.String())
}

func TestFieldSchema(t *testing.T) {
	defs := AllFields()
	require.Len(t, defs, 19)

	// Exactly the two deductible input VAT fields accept overrides.
	editable := make([]FieldID, 0, 2)
	for _, def := range defs {
		if def.Editable {
			editable = append(editable, def.ID)
		}
	}
	assert.ElementsMatch(t, []FieldID{Field301, Field302}, editable)

	_, ok := LookupField(FieldID("field999"))
	assert.False(t, ok)
	assert.False(t, IsEditable(FieldID("field999")))
}

package pppdv

import (
	"github.com/shopspring/decimal"

	"fiskalis/internal/core/types"
	"fiskalis/internal/domain/vatrec"
)

// Input holds everything Calculate needs. Records outside the target
// period must be filtered out by the caller.
type Input struct {
	Records []*vatrec.VATRecord

	// ProRataPercent is the proportional deduction rate (0..100).
	// 100 means full input VAT deduction.
	ProRataPercent decimal.Decimal

	// PreviousCredit is the carried-forward VAT credit from the most
	// recent earlier report.
	PreviousCredit types.Money

	// Overrides replace computed values of editable fields.
	Overrides FieldValues
}

// Calculation is the derived preview of a declaration period.
type Calculation struct {
	Fields         FieldValues `json:"fields"`
	Balance        types.Money `json:"balance"`
	PreviousCredit types.Money `json:"previousCredit"`
	ProRataPercent string      `json:"proRataPercent"`
}

// Calculate derives all form fields from VAT records. It is pure and
// deterministic: same input always yields the same field values, and it
// performs no I/O. A period with zero records yields all-zero fields
// with field402 carrying the previous credit forward.
func Calculate(in Input) Calculation {
	fields := NewFieldValues()

	for _, rec := range in.Records {
		switch rec.Direction {
		case vatrec.DirectionOutput:
			switch rec.Rate {
			case types.VATRateStandard:
				fields.Add(Field001, rec.BaseAmount)
				fields.Add(Field002, rec.VATAmount)
			case types.VATRateReduced:
				fields.Add(Field003, rec.BaseAmount)
				fields.Add(Field004, rec.VATAmount)
			case types.VATRateZero:
				fields.Add(Field005, rec.BaseAmount)
			}
		case vatrec.DirectionInput:
			switch rec.Rate {
			case types.VATRateStandard:
				fields.Add(Field101, rec.BaseAmount)
				fields.Add(Field102, rec.VATAmount)
			case types.VATRateReduced:
				fields.Add(Field103, rec.BaseAmount)
				fields.Add(Field104, rec.VATAmount)
			case types.VATRateZero:
				fields.Add(Field105, rec.BaseAmount)
			}
		}
	}

	// Output VAT aggregation mirrors the turnover tax fields.
	fields.Set(Field201, fields.Get(Field002))
	fields.Set(Field202, fields.Get(Field004))
	fields.Set(Field203, fields.Get(Field201).Add(fields.Get(Field202)))

	// Deductible input VAT defaults to full input VAT per rate;
	// editable overrides replace it.
	fields.Set(Field301, fields.Get(Field102))
	fields.Set(Field302, fields.Get(Field104))
	applyOverrides(fields, in.Overrides)

	fields.Set(Field303, fields.Get(Field301).Add(fields.Get(Field302)))

	prorata := in.ProRataPercent
	if prorata.IsZero() {
		prorata = decimal.NewFromInt(100)
	}
	fields.Set(Field304, fields.Get(Field303).MulPercent(prorata))

	// Balance net of carried-forward credit determines which of the two
	// final fields is populated; never both.
	balance := fields.Get(Field203).Sub(fields.Get(Field304))
	net := balance.Sub(in.PreviousCredit)

	if net.IsPositive() {
		fields.Set(Field401, net)
		fields.Set(Field402, types.ZeroMoney())
	} else {
		fields.Set(Field401, types.ZeroMoney())
		fields.Set(Field402, net.Neg())
	}

	return Calculation{
		Fields:         fields,
		Balance:        balance,
		PreviousCredit: in.PreviousCredit,
		ProRataPercent: prorata.StringFixed(2),
	}
}

// applyOverrides copies override values for editable fields only.
func applyOverrides(fields FieldValues, overrides FieldValues) {
	for fid, value := range overrides {
		if IsEditable(fid) {
			fields.Set(fid, value)
		}
	}
}

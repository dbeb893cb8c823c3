package types

import "fmt"

// VATRate is a legal VAT rate in percent. Only the fixed set {0, 10, 20}
// is accepted anywhere in the system.
type VATRate int

const (
	VATRateZero     VATRate = 0
	VATRateReduced  VATRate = 10
	VATRateStandard VATRate = 20
)

// VATRates is the closed set of accepted rates.
var VATRates = []VATRate{VATRateZero, VATRateReduced, VATRateStandard}

// Valid reports whether r is one of the accepted rates.
func (r VATRate) Valid() bool {
	switch r {
	case VATRateZero, VATRateReduced, VATRateStandard:
		return true
	}
	return false
}

// VATOn returns the VAT amount for the given net base at this rate,
// rounded to two fraction digits.
func (r VATRate) VATOn(base Money) Money {
	return base.MulPercent(MoneyFromInt(int64(r)).Decimal())
}

func (r VATRate) String() string {
	return fmt.Sprintf("%d", int(r))
}

package types

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoney_Normalization(t *testing.T) {
	m, err := NewMoneyFromString("100.005")
	require.NoError(t, err)
	assert.Equal(t, "100.01", m.String())

	m, err = NewMoneyFromString("100")
	require.NoError(t, err)
	assert.Equal(t, "100.00", m.String())

	_, err = NewMoneyFromString("abc")
	assert.Error(t, err)
}

func TestMoney_Arithmetic(t *testing.T) {
	a := MustMoney("1000.00")
	b := MustMoney("200.00")

	assert.Equal(t, "1200.00", a.Add(b).String())
	assert.Equal(t, "800.00", a.Sub(b).String())
	assert.Equal(t, "-1000.00", a.Neg().String())
	assert.Equal(t, "1000.00", a.Neg().Abs().String())
}

func TestMoney_ExactComparison(t *testing.T) {
	// 0.1 + 0.2 must be exactly 0.3, no epsilon involved
	sum := MustMoney("0.10").Add(MustMoney("0.20"))
	assert.True(t, sum.Equal(MustMoney("0.30")))
	assert.Equal(t, 0, sum.Cmp(MustMoney("0.30")))

	assert.True(t, MustMoney("0.01").GreaterThan(ZeroMoney()))
	assert.True(t, MustMoney("-0.01").LessThan(ZeroMoney()))
	assert.True(t, ZeroMoney().IsZero())
}

func TestMoney_MulPercent(t *testing.T) {
	base := MustMoney("1000.00")

	vat := base.MulPercent(decimal.NewFromInt(20))
	assert.Equal(t, "200.00", vat.String())

	// Rounding happens once, on the final product
	odd := MustMoney("33.33").MulPercent(decimal.NewFromInt(10))
	assert.Equal(t, "3.33", odd.String())
}

func TestMoney_JSON(t *testing.T) {
	m := MustMoney("1234.50")

	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.Equal(t, "1234.50", string(data))

	var fromNumber Money
	require.NoError(t, json.Unmarshal([]byte("99.90"), &fromNumber))
	assert.Equal(t, "99.90", fromNumber.String())

	var fromString Money
	require.NoError(t, json.Unmarshal([]byte(`"99.90"`), &fromString))
	assert.Equal(t, "99.90", fromString.String())

	var fromNull Money
	require.NoError(t, json.Unmarshal([]byte("null"), &fromNull))
	assert.True(t, fromNull.IsZero())
}

func TestSumMoney(t *testing.T) {
	total := SumMoney(MustMoney("1.10"), MustMoney("2.20"), MustMoney("3.30"))
	assert.Equal(t, "6.60", total.String())

	assert.True(t, SumMoney().IsZero())
}

func TestVATRate_Valid(t *testing.T) {
	assert.True(t, VATRateZero.Valid())
	assert.True(t, VATRateReduced.Valid())
	assert.True(t, VATRateStandard.Valid())
	assert.False(t, VATRate(18).Valid())
	assert.False(t, VATRate(-10).Valid())
}

func TestVATRate_VATOn(t *testing.T) {
	assert.Equal(t, "200.00", VATRateStandard.VATOn(MustMoney("1000.00")).String())
	assert.Equal(t, "100.00", VATRateReduced.VATOn(MustMoney("1000.00")).String())
	assert.Equal(t, "0.00", VATRateZero.VATOn(MustMoney("1000.00")).String())

	// Half-up rounding on the computed VAT
	assert.Equal(t, "2.47", VATRateStandard.VATOn(MustMoney("12.34")).String())
}

package company

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompany_Validate(t *testing.T) {
	valid := func() *Company {
		return NewCompany("COM-001", "Fiskalis Demo d.o.o.", "106006802")
	}

	c := valid()
	assert.NoError(t, c.Validate(context.Background()))
	assert.Equal(t, VATPeriodMonthly, c.VATPeriod)

	t.Run("quarterly", func(t *testing.T) {
		c := valid()
		c.VATPeriod = VATPeriodQuarterly
		assert.NoError(t, c.Validate(context.Background()))
	})

	t.Run("bad pib", func(t *testing.T) {
		for _, pib := range []string{"12345678", "1234567890", "10600680x", ""} {
			c := valid()
			c.PIB = pib
			assert.Error(t, c.Validate(context.Background()), "pib %q", pib)
		}
	})

	t.Run("bad vat period", func(t *testing.T) {
		c := valid()
		c.VATPeriod = VATPeriodType("WEEKLY")
		assert.Error(t, c.Validate(context.Background()))
	})

	t.Run("bad maticni broj", func(t *testing.T) {
		c := valid()
		mb := "123"
		c.MaticniBroj = &mb
		assert.Error(t, c.Validate(context.Background()))
	})

	t.Run("missing code", func(t *testing.T) {
		c := valid()
		c.Code = ""
		assert.Error(t, c.Validate(context.Background()))
	})
}

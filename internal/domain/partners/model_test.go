package partners

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPartner_Validate(t *testing.T) {
	valid := func() *Partner {
		return NewPartner("PAR-001", "Poslovni Partner d.o.o.", "101134702", TypeCustomer)
	}

	assert.NoError(t, valid().Validate(context.Background()))

	t.Run("bad pib", func(t *testing.T) {
		for _, pib := range []string{"12345678", "1234567890", "10113470a", ""} {
			p := valid()
			p.PIB = pib
			assert.Error(t, p.Validate(context.Background()), "pib %q", pib)
		}
	})

	t.Run("bad type", func(t *testing.T) {
		p := valid()
		p.Type = PartnerType("vendor")
		assert.Error(t, p.Validate(context.Background()))
	})

	t.Run("bad maticni broj", func(t *testing.T) {
		p := valid()
		mb := "1234567"
		p.MaticniBroj = &mb
		assert.Error(t, p.Validate(context.Background()))
	})

	t.Run("bad email", func(t *testing.T) {
		p := valid()
		email := "not-an-email"
		p.Email = &email
		assert.Error(t, p.Validate(context.Background()))
	})

	t.Run("optional fields empty", func(t *testing.T) {
		p := valid()
		empty := ""
		p.MaticniBroj = &empty
		p.Email = &empty
		assert.NoError(t, p.Validate(context.Background()))
	})
}

func TestPartner_Roles(t *testing.T) {
	customer := NewPartner("PAR-001", "Kupac", "101134702", TypeCustomer)
	assert.True(t, customer.IsCustomer())
	assert.False(t, customer.IsSupplier())

	supplier := NewPartner("PAR-002", "Dobavljac", "101134702", TypeSupplier)
	assert.False(t, supplier.IsCustomer())
	assert.True(t, supplier.IsSupplier())

	both := NewPartner("PAR-003", "Oba", "101134702", TypeBoth)
	assert.True(t, both.IsCustomer())
	assert.True(t, both.IsSupplier())
}

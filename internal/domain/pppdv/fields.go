// Package pppdv provides the Serbian periodic VAT declaration engine:
// a closed field schema, a pure calculation over VAT records, and the
// report document lifecycle.
package pppdv

import (
	"fiskalis/internal/core/types"
)

// FieldID identifies one numbered line of the PPPDV form.
// The enumeration is closed; unknown field identifiers are rejected.
type FieldID string

const (
	// Output turnover bases
	Field001 FieldID = "field001" // output base @20%
	Field003 FieldID = "field003" // output base @10%
	Field005 FieldID = "field005" // output base @0%

	// Output VAT by rate
	Field002 FieldID = "field002" // output VAT @20%
	Field004 FieldID = "field004" // output VAT @10%

	// Input turnover bases
	Field101 FieldID = "field101" // input base @20%
	Field103 FieldID = "field103" // input base @10%
	Field105 FieldID = "field105" // input base @0%

	// Input VAT by rate
	Field102 FieldID = "field102" // input VAT @20%
	Field104 FieldID = "field104" // input VAT @10%

	// Output VAT aggregation
	Field201 FieldID = "field201" // output VAT @20%
	Field202 FieldID = "field202" // output VAT @10%
	Field203 FieldID = "field203" // total output VAT

	// Input VAT deduction
	Field301 FieldID = "field301" // deductible input VAT @20%, editable
	Field302 FieldID = "field302" // deductible input VAT @10%, editable
	Field303 FieldID = "field303" // input VAT before proportional deduction
	Field304 FieldID = "field304" // deductible input VAT after proportional deduction

	// Final balance
	Field401 FieldID = "field401" // VAT payable
	Field402 FieldID = "field402" // VAT credit / refundable
)

// FieldCategory groups form fields by their role.
type FieldCategory string

const (
	CategoryOutput      FieldCategory = "output"
	CategoryInput       FieldCategory = "input"
	CategoryCalculation FieldCategory = "calculation"
)

// FieldDef describes one form field.
type FieldDef struct {
	ID       FieldID
	Category FieldCategory

	// Rate binds turnover/tax fields to a VAT rate bucket; nil for
	// aggregation fields.
	Rate *types.VATRate

	// Editable marks fields a user may override per period
	Editable bool
}

func ratePtr(r types.VATRate) *types.VATRate { return &r }

// fieldDefs is the closed schema, in form order.
var fieldDefs = []FieldDef{
	{ID: Field001, Category: CategoryOutput, Rate: ratePtr(types.VATRateStandard)},
	{ID: Field002, Category: CategoryOutput, Rate: ratePtr(types.VATRateStandard)},
	{ID: Field003, Category: CategoryOutput, Rate: ratePtr(types.VATRateReduced)},
	{ID: Field004, Category: CategoryOutput, Rate: ratePtr(types.VATRateReduced)},
	{ID: Field005, Category: CategoryOutput, Rate: ratePtr(types.VATRateZero)},
	{ID: Field101, Category: CategoryInput, Rate: ratePtr(types.VATRateStandard)},
	{ID: Field102, Category: CategoryInput, Rate: ratePtr(types.VATRateStandard)},
	{ID: Field103, Category: CategoryInput, Rate: ratePtr(types.VATRateReduced)},
	{ID: Field104, Category: CategoryInput, Rate: ratePtr(types.VATRateReduced)},
	{ID: Field105, Category: CategoryInput, Rate: ratePtr(types.VATRateZero)},
	{ID: Field201, Category: CategoryCalculation, Rate: ratePtr(types.VATRateStandard)},
	{ID: Field202, Category: CategoryCalculation, Rate: ratePtr(types.VATRateReduced)},
	{ID: Field203, Category: CategoryCalculation},
	{ID: Field301, Category: CategoryCalculation, Rate: ratePtr(types.VATRateStandard), Editable: true},
	{ID: Field302, Category: CategoryCalculation, Rate: ratePtr(types.VATRateReduced), Editable: true},
	{ID: Field303, Category: CategoryCalculation},
	{ID: Field304, Category: CategoryCalculation},
	{ID: Field401, Category: CategoryCalculation},
	{ID: Field402, Category: CategoryCalculation},
}

var fieldIndex = func() map[FieldID]FieldDef {
	idx := make(map[FieldID]FieldDef, len(fieldDefs))
	for _, def := range fieldDefs {
		idx[def.ID] = def
	}
	return idx
}()

// AllFields returns the schema in form order.
func AllFields() []FieldDef {
	return fieldDefs
}

// LookupField returns the definition of a field identifier.
func LookupField(fid FieldID) (FieldDef, bool) {
	def, ok := fieldIndex[fid]
	return def, ok
}

// IsEditable reports whether a field accepts user overrides.
func IsEditable(fid FieldID) bool {
	def, ok := fieldIndex[fid]
	return ok && def.Editable
}

// FieldValues maps every schema field to a monetary value.
// Missing fields read as zero.
type FieldValues map[FieldID]types.Money

// NewFieldValues returns an all-zero value set over the full schema.
func NewFieldValues() FieldValues {
	values := make(FieldValues, len(fieldDefs))
	for _, def := range fieldDefs {
		values[def.ID] = types.ZeroMoney()
	}
	return values
}

// Get returns the value of a field, zero when absent.
func (v FieldValues) Get(fid FieldID) types.Money {
	if m, ok := v[fid]; ok {
		return m
	}
	return types.ZeroMoney()
}

// Set assigns a field value.
func (v FieldValues) Set(fid FieldID, m types.Money) {
	v[fid] = m
}

// Add accumulates into a field.
func (v FieldValues) Add(fid FieldID, m types.Money) {
	v[fid] = v.Get(fid).Add(m)
}

// Clone returns an independent copy.
func (v FieldValues) Clone() FieldValues {
	out := make(FieldValues, len(v))
	for k, m := range v {
		out[k] = m
	}
	return out
}

// Equal compares two value sets over the full schema.
func (v FieldValues) Equal(other FieldValues) bool {
	for _, def := range fieldDefs {
		if !v.Get(def.ID).Equal(other.Get(def.ID)) {
			return false
		}
	}
	return true
}

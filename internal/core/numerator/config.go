// Package numerator provides domain contracts for document auto-numbering.
package numerator

import "fiskalis/internal/core/id"

// Strategy defines the numbering generation strategy.
type Strategy int

const (
	// StrategyStrict uses UPDATE ... RETURNING for every number.
	// Guarantees sequential numbers without gaps.
	// Required for journal entries and tax documents.
	StrategyStrict Strategy = iota

	// StrategyCached allocates ranges of numbers in memory.
	// Much faster, but may produce gaps if application restarts.
	// Suitable for internal references only.
	StrategyCached
)

// Options configuration for number generation.
type Options struct {
	// Strategy to use for number generation
	Strategy Strategy
	// RangeSize is the number of IDs to allocate at once in Cached strategy.
	// Default is 50.
	RangeSize int64
}

// DefaultOptions returns standard options (Strict).
func DefaultOptions() *Options {
	return &Options{
		Strategy: StrategyStrict,
	}
}

// Config holds numbering configuration.
// Sequences are scoped per company, so two companies each start at 1.
type Config struct {
	// Prefix added to all numbers (e.g., "NO", "AVR", "PPPDV")
	Prefix string

	// CompanyID scopes the sequence. Required.
	CompanyID id.ID

	// IncludeYear adds year to the number
	IncludeYear bool

	// PadWidth is the minimum number width (default 5)
	PadWidth int

	// ResetPeriod: "year", "month", "never"
	ResetPeriod string
}

// DefaultConfig returns sensible defaults for a company-scoped sequence.
func DefaultConfig(prefix string, companyID id.ID) Config {
	return Config{
		Prefix:      prefix,
		CompanyID:   companyID,
		IncludeYear: true,
		PadWidth:    5,
		ResetPeriod: "year",
	}
}

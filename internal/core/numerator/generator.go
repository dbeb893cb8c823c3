// Package numerator provides domain contracts for document auto-numbering.
// Implementations live in infrastructure layer.
package numerator

import (
	"context"
	"time"
)

// Generator generates sequential document numbers.
// This is the domain contract, implementations live in infrastructure layer.
type Generator interface {
	// GetNextNumber generates the next formatted document number.
	// Pattern: PREFIX-YEAR-XXXXX (e.g., NO-2026-00001)
	//
	// Supports Strict (DB-level) and Cached (Memory-level) strategies.
	GetNextNumber(ctx context.Context, cfg Config, opts *Options, period time.Time) (string, error)

	// GetNextValue returns the next raw sequence value without formatting.
	// Used for entry numbers that must be plain sequential integers.
	// Always uses the Strict strategy.
	GetNextValue(ctx context.Context, cfg Config, period time.Time) (int64, error)

	// SetNextNumber sets the next number value (for migration purposes).
	SetNextNumber(ctx context.Context, cfg Config, period time.Time, value int64) error
}

// Package numerator provides domain contracts for document auto-numbering.
package numerator

import (
	"context"
	"sync/atomic"
	"time"
)

// MockGenerator is a test implementation of Generator.
// Use in unit tests to avoid database dependencies.
type MockGenerator struct {
	GetNextNumberFunc func(ctx context.Context, cfg Config, opts *Options, period time.Time) (string, error)
	GetNextValueFunc  func(ctx context.Context, cfg Config, period time.Time) (int64, error)
	SetNextNumberFunc func(ctx context.Context, cfg Config, period time.Time, value int64) error

	counter int64
}

// GetNextNumber implements Generator.
func (m *MockGenerator) GetNextNumber(ctx context.Context, cfg Config, opts *Options, period time.Time) (string, error) {
	if m.GetNextNumberFunc != nil {
		return m.GetNextNumberFunc(ctx, cfg, opts, period)
	}
	return "MOCK-2026-00001", nil
}

// GetNextValue implements Generator. By default returns an incrementing counter.
func (m *MockGenerator) GetNextValue(ctx context.Context, cfg Config, period time.Time) (int64, error) {
	if m.GetNextValueFunc != nil {
		return m.GetNextValueFunc(ctx, cfg, period)
	}
	return atomic.AddInt64(&m.counter, 1), nil
}

// SetNextNumber implements Generator.
func (m *MockGenerator) SetNextNumber(ctx context.Context, cfg Config, period time.Time, value int64) error {
	if m.SetNextNumberFunc != nil {
		return m.SetNextNumberFunc(ctx, cfg, period, value)
	}
	return nil
}

// Ensure compile-time interface compliance.
var _ Generator = (*MockGenerator)(nil)

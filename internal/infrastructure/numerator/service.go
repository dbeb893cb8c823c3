// Package numerator provides the PostgreSQL implementation of document
// auto-numbering. It implements the core/numerator.Generator contract.
package numerator

import (
	"context"
	"fmt"
	"sync"
	"time"

	corenumerator "fiskalis/internal/core/numerator"
	"fiskalis/internal/infrastructure/storage/postgres"
)

type cachedRange struct {
	current int64
	max     int64
}

// Service provides document numbering backed by the sys_sequences table.
// Sequences are scoped per company. Strict allocations run on the caller's
// querier, so when the caller is inside a transaction the increment commits
// or rolls back together with the document that consumed the number.
type Service struct {
	txManager *postgres.TxManager

	// cacheMu protects ranges map
	cacheMu sync.Mutex
	// ranges stores active in-memory ranges keyed by company and sequence key
	ranges map[string]*cachedRange
}

var _ corenumerator.Generator = (*Service)(nil)

// New creates a new numerator service.
func New(txManager *postgres.TxManager) *Service {
	return &Service{
		txManager: txManager,
		ranges:    make(map[string]*cachedRange),
	}
}

// GetNextNumber generates the next formatted document number.
// Pattern: PREFIX-YEAR-XXXXX (e.g., NO-2026-00001)
//
// Supports Strict (DB-level) and Cached (Memory-level) strategies.
func (s *Service) GetNextNumber(ctx context.Context, cfg corenumerator.Config, opts *corenumerator.Options, period time.Time) (string, error) {
	if s == nil {
		return "", fmt.Errorf("numerator service is not initialized")
	}

	if opts == nil {
		opts = corenumerator.DefaultOptions()
	}

	key := s.buildKey(cfg, period)

	var num int64
	var err error

	switch opts.Strategy {
	case corenumerator.StrategyCached:
		num, err = s.getNextCached(ctx, cfg, key, opts)
	case corenumerator.StrategyStrict:
		fallthrough
	default:
		num, err = s.getNextStrict(ctx, cfg, key)
	}

	if err != nil {
		return "", err
	}

	return s.formatNumber(cfg, period, num), nil
}

// GetNextValue returns the next raw sequence value without formatting.
// Always strict: entry numbers must be gapless within a company.
func (s *Service) GetNextValue(ctx context.Context, cfg corenumerator.Config, period time.Time) (int64, error) {
	if s == nil {
		return 0, fmt.Errorf("numerator service is not initialized")
	}
	return s.getNextStrict(ctx, cfg, s.buildKey(cfg, period))
}

// getNextStrict fetches the next number from the DB using UPSERT + RETURNING.
// The row lock taken by the UPDATE serializes concurrent allocators.
func (s *Service) getNextStrict(ctx context.Context, cfg corenumerator.Config, key string) (int64, error) {
	q := s.txManager.GetQuerier(ctx)

	var num int64
	err := q.QueryRow(ctx, `
		INSERT INTO sys_sequences (company_id, key, current_val)
		VALUES ($1, $2, 1)
		ON CONFLICT (company_id, key) DO UPDATE SET current_val = sys_sequences.current_val + 1
		RETURNING current_val
	`, cfg.CompanyID, key).Scan(&num)
	if err != nil {
		return 0, fmt.Errorf("strict next: %w", err)
	}

	return num, nil
}

// getNextCached fetches the next number from memory, refilling from DB if needed.
func (s *Service) getNextCached(ctx context.Context, cfg corenumerator.Config, key string, opts *corenumerator.Options) (int64, error) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	cacheKey := s.cacheKey(cfg, key)
	rng, exists := s.ranges[cacheKey]
	if !exists {
		rng = &cachedRange{}
		s.ranges[cacheKey] = rng
	}

	if rng.current >= rng.max {
		size := opts.RangeSize
		if size <= 0 {
			size = 50 // default
		}

		q := s.txManager.GetQuerier(ctx)
		var newMax int64

		err := q.QueryRow(ctx, `
			INSERT INTO sys_sequences (company_id, key, current_val)
			VALUES ($1, $2, $3)
			ON CONFLICT (company_id, key) DO UPDATE SET current_val = sys_sequences.current_val + $3
			RETURNING current_val
		`, cfg.CompanyID, key, size).Scan(&newMax)
		if err != nil {
			return 0, fmt.Errorf("reserve range: %w", err)
		}

		// newMax is the end of the reserved range, the first valid number
		// is newMax - size + 1.
		rng.current = newMax - size
		rng.max = newMax
	}

	rng.current++
	return rng.current, nil
}

// SetNextNumber sets the current sequence value (for migration purposes).
func (s *Service) SetNextNumber(ctx context.Context, cfg corenumerator.Config, period time.Time, value int64) error {
	key := s.buildKey(cfg, period)
	q := s.txManager.GetQuerier(ctx)

	var result int64
	err := q.QueryRow(ctx, `
		INSERT INTO sys_sequences (company_id, key, current_val)
		VALUES ($1, $2, $3)
		ON CONFLICT (company_id, key) DO UPDATE SET current_val = $3
		RETURNING current_val
	`, cfg.CompanyID, key, value).Scan(&result)

	s.cacheMu.Lock()
	delete(s.ranges, s.cacheKey(cfg, key))
	s.cacheMu.Unlock()

	return err
}

// buildKey creates the sequence key based on config and period.
func (s *Service) buildKey(cfg corenumerator.Config, period time.Time) string {
	switch cfg.ResetPeriod {
	case "month":
		return fmt.Sprintf("%s_%s", cfg.Prefix, period.Format("2006_01"))
	case "year":
		return fmt.Sprintf("%s_%s", cfg.Prefix, period.Format("2006"))
	default:
		return cfg.Prefix
	}
}

// cacheKey prepends the company ID so a shared Service instance never
// mixes ranges between companies.
func (s *Service) cacheKey(cfg corenumerator.Config, key string) string {
	return fmt.Sprintf("%s:%s", cfg.CompanyID, key)
}

// formatNumber creates the final number string.
func (s *Service) formatNumber(cfg corenumerator.Config, period time.Time, num int64) string {
	padWidth := cfg.PadWidth
	if padWidth == 0 {
		padWidth = 5
	}

	if cfg.IncludeYear {
		return fmt.Sprintf("%s-%s-%0*d", cfg.Prefix, period.Format("2006"), padWidth, num)
	}
	return fmt.Sprintf("%s-%0*d", cfg.Prefix, padWidth, num)
}

// ParseNumber extracts the numeric part from a formatted number.
// Returns -1 if parsing fails.
func ParseNumber(formatted string) int64 {
	var num int64
	patterns := []string{
		"%*[^-]-%*d-%d",
		"%*[^-]-%d",
	}

	for _, pattern := range patterns {
		if _, err := fmt.Sscanf(formatted, pattern, &num); err == nil {
			return num
		}
	}

	return -1
}

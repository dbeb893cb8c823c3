package numerator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"fiskalis/internal/core/id"
	corenumerator "fiskalis/internal/core/numerator"
)

func testConfig(prefix string) corenumerator.Config {
	return corenumerator.DefaultConfig(prefix, id.New())
}

func TestBuildKey(t *testing.T) {
	s := New(nil)
	march := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	cfg := testConfig("NO")
	assert.Equal(t, "NO_2026", s.buildKey(cfg, march))

	cfg.ResetPeriod = "month"
	assert.Equal(t, "NO_2026_03", s.buildKey(cfg, march))

	cfg.ResetPeriod = "never"
	assert.Equal(t, "NO", s.buildKey(cfg, march))
}

func TestCacheKeyScopedByCompany(t *testing.T) {
	s := New(nil)
	march := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	a := testConfig("NO")
	b := testConfig("NO")

	// Same prefix and period, different companies: the ranges must not mix.
	assert.NotEqual(t,
		s.cacheKey(a, s.buildKey(a, march)),
		s.cacheKey(b, s.buildKey(b, march)))
}

func TestFormatNumber(t *testing.T) {
	s := New(nil)
	march := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	cfg := testConfig("NO")
	assert.Equal(t, "NO-2026-00001", s.formatNumber(cfg, march, 1))
	assert.Equal(t, "NO-2026-12345", s.formatNumber(cfg, march, 12345))
	assert.Equal(t, "NO-2026-123456", s.formatNumber(cfg, march, 123456))

	cfg.IncludeYear = false
	cfg.PadWidth = 3
	assert.Equal(t, "AVR-042", s.formatNumber(corenumerator.Config{Prefix: "AVR", PadWidth: 3}, march, 42))
}

func TestParseNumber(t *testing.T) {
	assert.Equal(t, int64(1), ParseNumber("NO-2026-00001"))
	assert.Equal(t, int64(12345), ParseNumber("PPPDV-2026-12345"))
	assert.Equal(t, int64(42), ParseNumber("AVR-042"))
	assert.Equal(t, int64(-1), ParseNumber("garbage"))
}

package money

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestIsZero(t *testing.T) {
	assert.True(t, IsZero(decimal.Zero))
	assert.True(t, IsZero(d("0.009")))
	assert.True(t, IsZero(d("-0.009")))
	assert.False(t, IsZero(d("0.01")))
	assert.False(t, IsZero(d("-0.01")))
}

func TestSum_IsExact(t *testing.T) {
	// 0.1 + 0.2 drifts in float64; decimal must not
	total := Sum(d("0.1"), d("0.2"), d("-0.3"))
	assert.True(t, total.IsZero(), "expected exact zero, got %s", total)
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1234.56", "1234.56"},
		{"-1,234.56", "-1234.56"},
		{"1.234,56", "1234.56"},
		{"R$ 10,00", "10"},
		{"+12", "12"},
		{"(12.34)", "-12.34"},
		{"-150.00", "-150"},
		{"1,234", "1234"},
		{"1.234", "1234"},
		{"-12.345", "-12345"},
		{"R$ 999.000", "999000"},
		{"0.125", "0.125"},
		{"0,125", "0.125"},
		{"1234.567", "1234.567"},
		{"1.5", "1.5"},
		{"12,50", "12.5"},
		{"  -45.5 ", "-45.5"},
		{"1.234.567,89", "1234567.89"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAmount(tt.in)
			require.NoError(t, err)
			assert.True(t, d(tt.want).Equal(got), "ParseAmount(%q) = %s, want %s", tt.in, got, tt.want)
		})
	}
}

func TestParseAmount_Invalid(t *testing.T) {
	for _, in := range []string{"", "   ", "abc", "12#3"} {
		_, err := ParseAmount(in)
		assert.Error(t, err, "input %q", in)
	}
}

func TestDaysBetween(t *testing.T) {
	base := time.Date(2025, 10, 10, 23, 59, 0, 0, time.UTC)

	assert.Equal(t, 0, DaysBetween(base, time.Date(2025, 10, 10, 0, 0, 1, 0, time.UTC)))
	assert.Equal(t, 3, DaysBetween(base, time.Date(2025, 10, 13, 1, 0, 0, 0, time.UTC)))
	assert.Equal(t, 3, DaysBetween(time.Date(2025, 10, 13, 1, 0, 0, 0, time.UTC), base))
	assert.Equal(t, 31, DaysBetween(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 1, 29, 0, 0, 0, 0, time.UTC)))
}

func TestDaysBetween_IgnoresZone(t *testing.T) {
	saoPaulo := time.FixedZone("BRT", -3*60*60)
	// 22:00 local on the 10th is already the 11th in UTC; the written date wins
	local := time.Date(2025, 10, 10, 22, 0, 0, 0, saoPaulo)
	utc := time.Date(2025, 10, 10, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 0, DaysBetween(local, utc))
}

func TestMonth(t *testing.T) {
	m, err := ParseMonth("2025-12")
	require.NoError(t, err)

	assert.Equal(t, "2025-12", m.String())
	assert.Equal(t, time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC), m.Start())
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), m.End())
	assert.True(t, m.Contains(time.Date(2025, 12, 31, 23, 0, 0, 0, time.UTC)))
	assert.False(t, m.Contains(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.False(t, m.Contains(time.Date(2025, 11, 30, 0, 0, 0, 0, time.UTC)))

	_, err = ParseMonth("2025/12")
	assert.Error(t, err)
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "", FormatDate(time.Time{}))
	assert.Equal(t, "2025-10-14", FormatDate(time.Date(2025, 10, 14, 18, 30, 0, 0, time.UTC)))
}

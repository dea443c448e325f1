package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCurrency(t *testing.T) {
	tests := []struct {
		in      string
		want    Currency
		wantErr bool
	}{
		{in: "", want: USDT},
		{in: "usdc", want: USDC},
		{in: " USDT ", want: USDT},
		{in: "BTC", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCurrency(tt.in, USDT)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRoundsToScale(t *testing.T) {
	d, err := Parse("1.123456789")
	require.NoError(t, err)
	assert.Equal(t, "1.12345679", d.String())

	_, err = Parse("abc")
	assert.Error(t, err)
}

func TestDailyInterest(t *testing.T) {
	// 1000 at 10% for one day: 1000 * 0.10 / 365
	got := DailyInterest(decimal.NewFromInt(1000), decimal.NewFromInt(10))
	assert.Equal(t, "0.2739726", got.String())

	// no drift across a year of identical accruals
	year := PeriodInterest(decimal.NewFromInt(3650), decimal.NewFromInt(10), 365)
	assert.True(t, year.Equal(decimal.NewFromInt(365)), year.String())

	assert.True(t, PeriodInterest(decimal.NewFromInt(1000), decimal.NewFromInt(10), 0).IsZero())
}

func TestSumAndPercent(t *testing.T) {
	total := Sum(MustParse("0.1"), MustParse("0.2"), MustParse("0.3"))
	assert.True(t, total.Equal(MustParse("0.6")))

	assert.Equal(t, "25", Percent(decimal.NewFromInt(25), decimal.NewFromInt(100)).String())
	assert.True(t, Percent(decimal.NewFromInt(5), decimal.Zero).IsZero())
	assert.True(t, IsPositive(MustParse("0.00000001")))
	assert.False(t, IsPositive(decimal.Zero))
}

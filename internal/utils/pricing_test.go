package utils

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"camrent-web/internal/domain"
)

func TestFeeRate(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"0.1", "0.1"},
		{"10", "0.1"},
		{"1", "1"},
		{"0", "0"},
		{"12.5", "0.125"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := FeeRate(decimal.RequireFromString(tt.in))
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s", got)
		})
	}
}

func TestComputeTotals(t *testing.T) {
	b := &domain.Booking{
		SnapshotRentalTotal:        decimal.NewFromInt(1000000),
		SnapshotDepositAmount:      decimal.NewFromInt(500000),
		SnapshotPlatformFeePercent: decimal.RequireFromString("0.1"),
	}
	got := ComputeTotals(b)
	assert.True(t, got.PlatformFee.Equal(decimal.NewFromInt(100000)))
	assert.True(t, got.Payable.Equal(decimal.NewFromInt(1600000)))

	b.SnapshotPlatformFeePercent = decimal.NewFromInt(10)
	assert.True(t, ComputeTotals(b).Payable.Equal(decimal.NewFromInt(1600000)))
}

func TestComputeTotals_KeepsFractionalFee(t *testing.T) {
	b := &domain.Booking{
		SnapshotRentalTotal:        decimal.NewFromInt(1000005),
		SnapshotPlatformFeePercent: decimal.RequireFromString("0.1"),
	}
	got := ComputeTotals(b)
	assert.True(t, got.PlatformFee.Equal(decimal.RequireFromString("100000.5")), "fee %s", got.PlatformFee)
	assert.True(t, got.Payable.Equal(decimal.RequireFromString("1100005.5")), "payable %s", got.Payable)
	assert.Equal(t, "1.100.006 ₫", FormatVND(got.Payable))
}

func TestComputeTotals_IgnoresLivePrices(t *testing.T) {
	b := &domain.Booking{
		SnapshotRentalTotal:        decimal.NewFromInt(600000),
		SnapshotDepositAmount:      decimal.NewFromInt(200000),
		SnapshotPlatformFeePercent: decimal.RequireFromString("0.05"),
		Items: []domain.BookingItem{{
			ItemID:    "cam-1",
			ItemType:  domain.ItemTypeCamera,
			UnitPrice: decimal.NewFromInt(300000),
			Quantity:  1,
			Product:   &domain.Camera{ID: "cam-1", BaseDailyRate: decimal.NewFromInt(300000)},
		}},
	}
	before := ComputeTotals(b)

	b.Items[0].Product.(*domain.Camera).BaseDailyRate = decimal.NewFromInt(999999)
	b.Items[0].UnitPrice = decimal.NewFromInt(999999)
	after := ComputeTotals(b)

	assert.True(t, before.Payable.Equal(after.Payable))
	assert.True(t, after.Payable.Equal(decimal.NewFromInt(830000)))
}

func TestRentalDays(t *testing.T) {
	start := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		ret  time.Time
		want int
	}{
		{"same instant", start, 1},
		{"two hours", start.Add(2 * time.Hour), 1},
		{"exactly one day", start.Add(24 * time.Hour), 1},
		{"a day and a minute", start.Add(24*time.Hour + time.Minute), 2},
		{"three days", start.Add(72 * time.Hour), 3},
		{"inverted", start.Add(-time.Hour), 0},
		{"missing", time.Time{}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RentalDays(start, tt.ret))
		})
	}
}

func TestEstimateRental(t *testing.T) {
	items := []domain.BookingItem{
		{UnitPrice: decimal.NewFromInt(300000), Quantity: 1},
		{UnitPrice: decimal.NewFromInt(50000), Quantity: 2},
	}
	assert.True(t, EstimateRental(items, 3).Equal(decimal.NewFromInt(1200000)))
	assert.True(t, EstimateRental(nil, 3).IsZero())
}

func TestFormatVND(t *testing.T) {
	assert.Equal(t, "1.250.000 ₫", FormatVND(decimal.NewFromInt(1250000)))
	assert.Equal(t, "0 ₫", FormatVND(decimal.Zero))
	assert.Equal(t, "1.001 ₫", FormatVND(decimal.RequireFromString("1000.6")))
}

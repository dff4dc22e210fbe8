package utils

import (
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"camrent-web/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// Totals is the payable breakdown of a booking, read from its snapshot.
type Totals struct {
	Rental      decimal.Decimal `json:"rental"`
	Deposit     decimal.Decimal `json:"deposit"`
	PlatformFee decimal.Decimal `json:"platformFee"`
	Payable     decimal.Decimal `json:"payable"`
}

// FeeRate turns a platform fee percent into a multiplier. The backend sends
// either a fraction (0.1) or a whole percentage (10).
func FeeRate(percent decimal.Decimal) decimal.Decimal {
	if percent.GreaterThan(decimal.NewFromInt(1)) {
		return percent.Div(hundred)
	}
	return percent
}

// ComputeTotals computes rentalTotal + depositAmount + rentalTotal*fee from
// the booking's snapshot fields only. Live catalogue prices never enter it.
// Amounts keep full precision; rounding happens only in FormatVND.
func ComputeTotals(b *domain.Booking) Totals {
	rental := b.SnapshotRentalTotal
	deposit := b.SnapshotDepositAmount
	fee := rental.Mul(FeeRate(b.SnapshotPlatformFeePercent))
	return Totals{
		Rental:      rental,
		Deposit:     deposit,
		PlatformFee: fee,
		Payable:     rental.Add(deposit).Add(fee),
	}
}

// RentalDays counts started 24h periods between pickup and return, with a
// minimum of one. It returns 0 when either end is missing or the window is
// inverted.
func RentalDays(pickup, ret time.Time) int {
	if pickup.IsZero() || ret.IsZero() || ret.Before(pickup) {
		return 0
	}
	d := ret.Sub(pickup)
	days := int(d / (24 * time.Hour))
	if d%(24*time.Hour) > 0 {
		days++
	}
	if days < 1 {
		days = 1
	}
	return days
}

// EstimateRental prices lines at their unit price for the given number of
// days. Used for carts, which carry no snapshot yet.
func EstimateRental(items []domain.BookingItem, days int) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.LineTotal())
	}
	return total.Mul(decimal.NewFromInt(int64(days)))
}

var vnd = message.NewPrinter(language.Vietnamese)

// FormatVND renders an amount in whole dong with Vietnamese grouping,
// e.g. "1.250.000 ₫".
func FormatVND(amount decimal.Decimal) string {
	return vnd.Sprintf("%d ₫", amount.Round(0).IntPart())
}

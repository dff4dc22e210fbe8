package status

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"camrent-web/internal/domain"
)

func TestMapBookingStatus_Codes(t *testing.T) {
	tests := []struct {
		raw  any
		code domain.BookingStatus
		tone Tone
	}{
		{0, domain.BookingStatusDraft, ToneNeutral},
		{1, domain.BookingStatusPendingApproval, ToneWarning},
		{int64(2), domain.BookingStatusConfirmed, ToneSuccess},
		{float64(3), domain.BookingStatusInProgress, ToneInfo},
		{json.Number("4"), domain.BookingStatusDelivering, ToneInfo},
		{"5", domain.BookingStatusDelivered, ToneSuccess},
		{uint8(6), domain.BookingStatusCompleted, ToneSuccess},
		{7, domain.BookingStatusCancelled, ToneError},
		{" 8 ", domain.BookingStatusOverdue, ToneError},
	}
	for _, tt := range tests {
		got := MapBookingStatus(tt.raw)
		assert.Equal(t, tt.code, got.Code, "raw %v", tt.raw)
		assert.Equal(t, tt.tone, got.Tone, "raw %v", tt.raw)
		assert.NotEmpty(t, got.Label)
	}
}

func TestMapBookingStatus_Text(t *testing.T) {
	tests := map[string]domain.BookingStatus{
		"PendingApproval":  domain.BookingStatusPendingApproval,
		"pending_approval": domain.BookingStatusPendingApproval,
		"Pending Approval": domain.BookingStatusPendingApproval,
		"Chờ duyệt":        domain.BookingStatusPendingApproval,
		"cho duyet":        domain.BookingStatusPendingApproval,
		"Đã xác nhận":      domain.BookingStatusConfirmed,
		"IN-PROGRESS":      domain.BookingStatusInProgress,
		"Đang thuê":        domain.BookingStatusInProgress,
		"Đang giao":        domain.BookingStatusDelivering,
		"Đã giao":          domain.BookingStatusDelivered,
		"Hoàn thành":       domain.BookingStatusCompleted,
		"Canceled":         domain.BookingStatusCancelled,
		"Đã hủy":           domain.BookingStatusCancelled,
		"Quá hạn":          domain.BookingStatusOverdue,
		"Nháp":             domain.BookingStatusDraft,
	}
	for raw, want := range tests {
		assert.Equal(t, want, MapBookingStatus(raw).Code, "raw %q", raw)
	}
}

func TestMapBookingStatus_Unknown(t *testing.T) {
	tests := []struct {
		raw   any
		label string
	}{
		{nil, "Unknown"},
		{"", "Unknown"},
		{"   ", "Unknown"},
		{"Archived", "Archived"},
		{42, "42"},
		{-1, "-1"},
		{2.5, "2.5"},
		{math.NaN(), "NaN"},
		{math.Inf(1), "+Inf"},
		{true, "true"},
		{[]int{1}, "[1]"},
		{map[string]int{"a": 1}, "map[a:1]"},
		{uint64(math.MaxUint64), "18446744073709551615"},
		{domain.RawStatus{}, "Unknown"},
		{(*domain.RawStatus)(nil), "Unknown"},
	}
	for _, tt := range tests {
		var got StatusView
		require.NotPanics(t, func() { got = MapBookingStatus(tt.raw) }, "raw %#v", tt.raw)
		assert.Equal(t, domain.BookingStatusUnknown, got.Code, "raw %#v", tt.raw)
		assert.Equal(t, ToneNeutral, got.Tone)
		assert.Equal(t, tt.label, got.Label)
	}
}

func TestMapBookingStatus_Totality(t *testing.T) {
	inputs := []any{struct{}{}, new(int), (*int)(nil), domain.BookingStatus(99), "🙂", "\x00", int64(math.MinInt64)}
	for i := -20; i < 20; i++ {
		inputs = append(inputs, i, float64(i)+0.5, string(rune('a'+i+20)))
	}
	for _, raw := range inputs {
		assert.NotPanics(t, func() {
			v := MapBookingStatus(raw)
			assert.NotEmpty(t, v.Label)
			assert.NotEmpty(t, v.Tone)
		})
	}
}

func TestMapBookingStatus_RawStatus(t *testing.T) {
	assert.Equal(t, domain.BookingStatusConfirmed, MapBookingStatus(domain.RawNumber(2)).Code)
	assert.Equal(t, domain.BookingStatusConfirmed, MapBookingStatus(domain.RawText("Confirmed")).Code)
	rs := domain.RawText("Đang giao")
	assert.Equal(t, domain.BookingStatusDelivering, MapBookingStatus(&rs).Code)
	// Canonical values map to themselves.
	for _, s := range domain.AllBookingStatuses() {
		assert.Equal(t, s, MapBookingStatus(s).Code)
		assert.Equal(t, BookingStatusView(s), MapBookingStatus(int(s)))
	}
}

// A staffbookings payload sends the status as text; it must land on the same
// code and tone as the numeric form.
func TestApplyBooking_StaffBookingsPayload(t *testing.T) {
	var bookings []domain.Booking
	require.NoError(t, json.Unmarshal([]byte(`[
		{"id":"b1","status":"PendingApproval","items":[]},
		{"id":"b2","status":2,"items":[]},
		{"id":"b3","status":null,"statusText":"Đang thuê","items":[]}
	]`), &bookings))

	for i := range bookings {
		ApplyBooking(&bookings[i])
	}
	assert.Equal(t, domain.BookingStatusPendingApproval, bookings[0].Status)
	assert.Equal(t, domain.BookingStatusConfirmed, bookings[1].Status)
	assert.Equal(t, domain.BookingStatusInProgress, bookings[2].Status)

	pending := BookingStatusView(bookings[0].Status)
	confirmed := BookingStatusView(bookings[1].Status)
	assert.Equal(t, ToneWarning, pending.Tone)
	assert.Equal(t, ToneSuccess, confirmed.Tone)
	assert.NotEqual(t, pending.Tone, confirmed.Tone)
}

func TestMapDisputeStatus(t *testing.T) {
	assert.Equal(t, DisputeView{Code: domain.DisputeStatusOpen, Label: "Đang mở", Tone: ToneWarning}, MapDisputeStatus(0))
	assert.Equal(t, domain.DisputeStatusInProgress, MapDisputeStatus("InProgress").Code)
	assert.Equal(t, ToneInfo, MapDisputeStatus(1).Tone)
	assert.Equal(t, domain.DisputeStatusResolved, MapDisputeStatus("resolved").Code)
	assert.Equal(t, ToneSuccess, MapDisputeStatus(2).Tone)
	assert.Equal(t, domain.DisputeStatusClosed, MapDisputeStatus("Rejected").Code)
	assert.Equal(t, ToneNeutral, MapDisputeStatus(3).Tone)

	unknown := MapDisputeStatus(9)
	assert.Equal(t, domain.DisputeStatusUnknown, unknown.Code)
	assert.Equal(t, "9", unknown.Label)

	d := &domain.Dispute{RawStatus: domain.RawText("Đã giải quyết")}
	ApplyDispute(d)
	assert.Equal(t, domain.DisputeStatusResolved, d.Status)
	assert.False(t, d.CanAppendItems())
}

func TestMapInspectionType(t *testing.T) {
	assert.Equal(t, domain.InspectionTypeCheckIn, MapInspectionType(1).Type)
	assert.Equal(t, domain.InspectionTypeCheckOut, MapInspectionType("2").Type)
	assert.Equal(t, domain.InspectionTypeCheckIn, MapInspectionType("check-in").Type)
	assert.Equal(t, domain.InspectionTypeCheckOut, MapInspectionType("CheckOut").Type)

	v := MapInspectionType(3)
	assert.Equal(t, domain.InspectionType(0), v.Type)
	assert.Equal(t, ToneNeutral, v.Tone)
	assert.Equal(t, "3", v.Label)
}

func TestMapSeverity(t *testing.T) {
	assert.Equal(t, ToneInfo, MapSeverity(domain.SeverityLow).Tone)
	assert.Equal(t, ToneWarning, MapSeverity(domain.SeverityMedium).Tone)
	assert.Equal(t, ToneError, MapSeverity(domain.SeverityHigh).Tone)

	v := MapSeverity(domain.Severity("Critical"))
	assert.Equal(t, ToneNeutral, v.Tone)
	assert.Equal(t, "Critical", v.Label)
	assert.Equal(t, "Unknown", MapSeverity("").Label)
}

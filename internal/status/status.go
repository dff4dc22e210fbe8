// Package status is the single table translating raw backend status values
// into canonical codes, display labels and tones. Every screen reads it.
package status

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"camrent-web/internal/domain"
)

type Tone string

const (
	ToneInfo    Tone = "info"
	ToneWarning Tone = "warning"
	ToneSuccess Tone = "success"
	ToneError   Tone = "error"
	ToneNeutral Tone = "neutral"
)

const unknownLabel = "Unknown"

// StatusView is what a dashboard needs to render a booking status badge.
type StatusView struct {
	Code  domain.BookingStatus `json:"code"`
	Label string               `json:"label"`
	Tone  Tone                 `json:"tone"`
}

type bookingEntry struct {
	label   string
	tone    Tone
	aliases []string
}

var bookingTable = map[domain.BookingStatus]bookingEntry{
	domain.BookingStatusDraft: {
		label: "Nháp", tone: ToneNeutral,
		aliases: []string{"draft", "nhap", "cart", "giohang"},
	},
	domain.BookingStatusPendingApproval: {
		label: "Chờ duyệt", tone: ToneWarning,
		aliases: []string{"pendingapproval", "pending", "waitingforapproval", "awaitingapproval", "choduyet", "choxacnhan", "dangchoduyet"},
	},
	domain.BookingStatusConfirmed: {
		label: "Đã xác nhận", tone: ToneSuccess,
		aliases: []string{"confirmed", "approved", "daxacnhan", "daduyet"},
	},
	domain.BookingStatusInProgress: {
		label: "Đang thuê", tone: ToneInfo,
		aliases: []string{"inprogress", "active", "renting", "dangthue", "dangxuly", "dangsudung"},
	},
	domain.BookingStatusDelivering: {
		label: "Đang giao", tone: ToneInfo,
		aliases: []string{"delivering", "shipping", "intransit", "danggiao", "danggiaohang", "dangvanchuyen"},
	},
	domain.BookingStatusDelivered: {
		label: "Đã giao", tone: ToneSuccess,
		aliases: []string{"delivered", "dagiao", "dagiaohang", "danhanhang"},
	},
	domain.BookingStatusCompleted: {
		label: "Hoàn thành", tone: ToneSuccess,
		aliases: []string{"completed", "complete", "done", "finished", "hoanthanh", "dahoanthanh"},
	},
	domain.BookingStatusCancelled: {
		label: "Đã hủy", tone: ToneError,
		aliases: []string{"cancelled", "canceled", "cancel", "dahuy", "huy", "bihuy"},
	},
	domain.BookingStatusOverdue: {
		label: "Quá hạn", tone: ToneError,
		aliases: []string{"overdue", "late", "quahan", "trehan"},
	},
}

var bookingAliases = buildBookingAliases()

func buildBookingAliases() map[string]domain.BookingStatus {
	m := make(map[string]domain.BookingStatus)
	for code, e := range bookingTable {
		for _, a := range e.aliases {
			m[a] = code
		}
		m[foldKey(e.label)] = code
	}
	return m
}

// MapBookingStatus classifies a raw status: an integer code, a numeric
// string, an English enum name or a Vietnamese label. It never panics;
// unclassifiable input yields Unknown with the raw value as its label.
func MapBookingStatus(raw any) StatusView {
	if n, ok := asInt(raw); ok {
		if e, ok := bookingTable[domain.BookingStatus(n)]; ok && n >= 0 {
			return StatusView{Code: domain.BookingStatus(n), Label: e.label, Tone: e.tone}
		}
		return unknownBooking(raw)
	}
	if s, ok := asString(raw); ok {
		if code, ok := bookingAliases[foldKey(s)]; ok {
			e := bookingTable[code]
			return StatusView{Code: code, Label: e.label, Tone: e.tone}
		}
	}
	return unknownBooking(raw)
}

// BookingStatusView renders an already canonical status.
func BookingStatusView(code domain.BookingStatus) StatusView {
	if e, ok := bookingTable[code]; ok {
		return StatusView{Code: code, Label: e.label, Tone: e.tone}
	}
	return StatusView{Code: domain.BookingStatusUnknown, Label: unknownLabel, Tone: ToneNeutral}
}

func unknownBooking(raw any) StatusView {
	return StatusView{Code: domain.BookingStatusUnknown, Label: rawLabel(raw), Tone: ToneNeutral}
}

// ApplyBooking fills b.Status from whichever raw field the endpoint sent:
// the numeric/string status, falling back to statusText.
func ApplyBooking(b *domain.Booking) {
	view := MapBookingStatus(b.RawStatus.Value())
	if view.Code == domain.BookingStatusUnknown && b.StatusText != "" {
		view = MapBookingStatus(b.StatusText)
	}
	b.Status = view.Code
}

// DisputeView is the dispute equivalent of StatusView.
type DisputeView struct {
	Code  domain.DisputeStatus `json:"code"`
	Label string               `json:"label"`
	Tone  Tone                 `json:"tone"`
}

var disputeTable = map[domain.DisputeStatus]bookingEntry{
	domain.DisputeStatusOpen: {
		label: "Đang mở", tone: ToneWarning,
		aliases: []string{"open", "opened", "new", "dangmo", "moi"},
	},
	domain.DisputeStatusInProgress: {
		label: "Đang xử lý", tone: ToneInfo,
		aliases: []string{"inprogress", "processing", "underreview", "dangxuly"},
	},
	domain.DisputeStatusResolved: {
		label: "Đã giải quyết", tone: ToneSuccess,
		aliases: []string{"resolved", "dagiaiquyet", "daxuly"},
	},
	domain.DisputeStatusClosed: {
		label: "Đã đóng", tone: ToneNeutral,
		aliases: []string{"closed", "rejected", "dismissed", "dadong", "tuchoi", "datuchoi"},
	},
}

var disputeAliases = func() map[string]domain.DisputeStatus {
	m := make(map[string]domain.DisputeStatus)
	for code, e := range disputeTable {
		for _, a := range e.aliases {
			m[a] = code
		}
		m[foldKey(e.label)] = code
	}
	return m
}()

func MapDisputeStatus(raw any) DisputeView {
	if n, ok := asInt(raw); ok {
		if e, ok := disputeTable[domain.DisputeStatus(n)]; ok && n >= 0 {
			return DisputeView{Code: domain.DisputeStatus(n), Label: e.label, Tone: e.tone}
		}
	} else if s, ok := asString(raw); ok {
		if code, ok := disputeAliases[foldKey(s)]; ok {
			e := disputeTable[code]
			return DisputeView{Code: code, Label: e.label, Tone: e.tone}
		}
	}
	return DisputeView{Code: domain.DisputeStatusUnknown, Label: rawLabel(raw), Tone: ToneNeutral}
}

func ApplyDispute(d *domain.Dispute) {
	d.Status = MapDisputeStatus(d.RawStatus.Value()).Code
}

type InspectionView struct {
	Type  domain.InspectionType `json:"type"`
	Label string                `json:"label"`
	Tone  Tone                  `json:"tone"`
}

func MapInspectionType(raw any) InspectionView {
	t := domain.InspectionType(0)
	if n, ok := asInt(raw); ok {
		t = domain.InspectionType(n)
	} else if s, ok := asString(raw); ok {
		switch foldKey(s) {
		case "checkin", "prerental", "nhanmay", "kiemtranhanmay":
			t = domain.InspectionTypeCheckIn
		case "checkout", "postrental", "tramay", "kiemtratramay":
			t = domain.InspectionTypeCheckOut
		}
	}
	switch t {
	case domain.InspectionTypeCheckIn:
		return InspectionView{Type: t, Label: "Kiểm tra nhận máy", Tone: ToneInfo}
	case domain.InspectionTypeCheckOut:
		return InspectionView{Type: t, Label: "Kiểm tra trả máy", Tone: ToneInfo}
	}
	return InspectionView{Type: 0, Label: rawLabel(raw), Tone: ToneNeutral}
}

type SeverityView struct {
	Severity domain.Severity `json:"severity"`
	Label    string          `json:"label"`
	Tone     Tone            `json:"tone"`
}

func MapSeverity(s domain.Severity) SeverityView {
	switch s {
	case domain.SeverityLow:
		return SeverityView{Severity: s, Label: "Thấp", Tone: ToneInfo}
	case domain.SeverityMedium:
		return SeverityView{Severity: s, Label: "Trung bình", Tone: ToneWarning}
	case domain.SeverityHigh:
		return SeverityView{Severity: s, Label: "Cao", Tone: ToneError}
	}
	return SeverityView{Severity: s, Label: rawLabel(string(s)), Tone: ToneNeutral}
}

// asInt extracts an integral number from numeric kinds, json.Number and
// numeric strings.
func asInt(raw any) (int64, bool) {
	switch v := raw.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint:
		return int64(v), v <= math.MaxInt64
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint64:
		return int64(v), v <= math.MaxInt64
	case float32:
		return floatToInt(float64(v))
	case float64:
		return floatToInt(v)
	case json.Number:
		return asInt(string(v))
	case domain.RawStatus:
		return asInt(v.Value())
	case *domain.RawStatus:
		if v == nil {
			return 0, false
		}
		return asInt(v.Value())
	case string:
		s := strings.TrimSpace(v)
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i, true
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return floatToInt(f)
		}
	}
	return 0, false
}

func floatToInt(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) || math.Abs(f) > 1<<53 {
		return 0, false
	}
	return int64(f), true
}

func asString(raw any) (string, bool) {
	switch v := raw.(type) {
	case string:
		return v, true
	case domain.RawStatus:
		return v.Text, v.Text != ""
	case *domain.RawStatus:
		if v == nil {
			return "", false
		}
		return v.Text, v.Text != ""
	case fmt.Stringer:
		// fmt recovers from Stringers with nil receivers.
		return fmt.Sprint(v), true
	}
	return "", false
}

func rawLabel(raw any) string {
	switch v := raw.(type) {
	case nil:
		return unknownLabel
	case string:
		if strings.TrimSpace(v) == "" {
			return unknownLabel
		}
		return v
	case domain.RawStatus:
		if v.IsZero() {
			return unknownLabel
		}
		return v.String()
	case *domain.RawStatus:
		if v == nil || v.IsZero() {
			return unknownLabel
		}
		return v.String()
	}
	return fmt.Sprint(raw)
}

var diacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// foldKey lower-cases, strips Vietnamese diacritics and drops separators so
// "Chờ duyệt", "cho_duyet" and "CHO-DUYET" collide.
func foldKey(s string) string {
	folded, _, err := transform.String(diacritics, strings.ToLower(s))
	if err != nil {
		folded = strings.ToLower(s)
	}
	var b strings.Builder
	for _, r := range folded {
		switch {
		case r == 'đ':
			b.WriteRune('d')
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		}
	}
	return b.String()
}

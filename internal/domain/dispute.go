package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type DisputeStatus int

const (
	DisputeStatusOpen DisputeStatus = iota
	DisputeStatusInProgress
	DisputeStatusResolved
	DisputeStatusClosed

	DisputeStatusUnknown DisputeStatus = -1
)

func (s DisputeStatus) String() string {
	switch s {
	case DisputeStatusOpen:
		return "Open"
	case DisputeStatusInProgress:
		return "InProgress"
	case DisputeStatusResolved:
		return "Resolved"
	case DisputeStatusClosed:
		return "Closed"
	}
	return "Unknown"
}

func (s DisputeStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s DisputeStatus) IsTerminal() bool {
	return s == DisputeStatusResolved || s == DisputeStatusClosed
}

// Open -> InProgress (on staff assignment) -> Resolved | Closed.
var disputeTransitions = map[DisputeStatus][]DisputeStatus{
	DisputeStatusOpen:       {DisputeStatusInProgress, DisputeStatusResolved, DisputeStatusClosed},
	DisputeStatusInProgress: {DisputeStatusResolved, DisputeStatusClosed},
}

func CanTransitionDispute(from, to DisputeStatus) bool {
	for _, s := range disputeTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

type Severity string

const (
	SeverityLow    Severity = "Low"
	SeverityMedium Severity = "Medium"
	SeverityHigh   Severity = "High"
)

// ParseSeverity accepts names in any case or the codes 0..2. Empty input
// defaults to Medium.
func ParseSeverity(v string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "":
		return SeverityMedium, nil
	case "low", "0":
		return SeverityLow, nil
	case "medium", "1":
		return SeverityMedium, nil
	case "high", "2":
		return SeverityHigh, nil
	}
	return "", NewValidationError("severity", fmt.Sprintf("unknown severity %q", v))
}

func (s *Severity) UnmarshalJSON(b []byte) error {
	raw := bytes.Trim(bytes.TrimSpace(b), `"`)
	if bytes.Equal(raw, []byte("null")) {
		*s = ""
		return nil
	}
	parsed, err := ParseSeverity(string(raw))
	if err != nil {
		// Unknown severities are kept verbatim for display.
		*s = Severity(raw)
		return nil
	}
	*s = parsed
	return nil
}

type DisputeItemType string

const (
	DisputeItemTypePayOS DisputeItemType = "PayOS"
	DisputeItemTypeMoney DisputeItemType = "Money"
)

func ParseDisputeItemType(v string) (DisputeItemType, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "payos", "0":
		return DisputeItemTypePayOS, nil
	case "money", "1":
		return DisputeItemTypeMoney, nil
	}
	return "", NewValidationError("type", fmt.Sprintf("unknown dispute item type %q", v))
}

func (t *DisputeItemType) UnmarshalJSON(b []byte) error {
	raw := bytes.Trim(bytes.TrimSpace(b), `"`)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		*t = ""
		return nil
	}
	parsed, err := ParseDisputeItemType(string(raw))
	if err != nil {
		*t = DisputeItemType(raw)
		return nil
	}
	*t = parsed
	return nil
}

type DisputeItem struct {
	ID        string          `json:"id,omitempty"`
	Type      DisputeItemType `json:"type"`
	Amount    decimal.Decimal `json:"amount"`
	Notes     string          `json:"notes"`
	CreatedAt Timestamp       `json:"createdAt"`
}

// Dispute is a claim raised against a booking. TotalAmount is computed by
// the server; PreviewTotal exists only for display before a re-fetch.
type Dispute struct {
	ID          string          `json:"id"`
	BookingID   string          `json:"bookingId"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Severity    Severity        `json:"severity"`
	RawStatus   RawStatus       `json:"status"`
	Status      DisputeStatus   `json:"-"`
	Items       []DisputeItem   `json:"items"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	CreatedAt   Timestamp       `json:"createdAt"`
	ResolvedAt  Timestamp       `json:"resolvedAt"`
}

// CanAppendItems reports whether compensation items may still be added.
func (d *Dispute) CanAppendItems() bool {
	return d.Status == DisputeStatusOpen || d.Status == DisputeStatusInProgress
}

// PreviewTotal sums item amounts locally. It is not authoritative.
func (d *Dispute) PreviewTotal() decimal.Decimal {
	total := decimal.Zero
	for _, it := range d.Items {
		total = total.Add(it.Amount)
	}
	return total
}

// CreateDisputeRequest is the body of POST /Disputes.
type CreateDisputeRequest struct {
	BookingID   string   `json:"bookingId"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Severity    Severity `json:"severity"`
}

// AddDisputeItemRequest is the body of POST /Disputes/{id}/items.
type AddDisputeItemRequest struct {
	Type   DisputeItemType `json:"type"`
	Amount decimal.Decimal `json:"amount"`
	Notes  string          `json:"notes"`
}

package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// BookingStatus is the canonical booking state. The numeric values are the
// ones the /Bookings endpoint sends on the wire.
type BookingStatus int

const (
	BookingStatusDraft BookingStatus = iota
	BookingStatusPendingApproval
	BookingStatusConfirmed
	BookingStatusInProgress
	BookingStatusDelivering
	BookingStatusDelivered
	BookingStatusCompleted
	BookingStatusCancelled
	BookingStatusOverdue

	// BookingStatusUnknown is never sent by the backend; it marks input the
	// status table could not classify.
	BookingStatusUnknown BookingStatus = -1
)

var bookingStatusNames = map[BookingStatus]string{
	BookingStatusDraft:           "Draft",
	BookingStatusPendingApproval: "PendingApproval",
	BookingStatusConfirmed:       "Confirmed",
	BookingStatusInProgress:      "InProgress",
	BookingStatusDelivering:      "Delivering",
	BookingStatusDelivered:       "Delivered",
	BookingStatusCompleted:       "Completed",
	BookingStatusCancelled:       "Cancelled",
	BookingStatusOverdue:         "Overdue",
	BookingStatusUnknown:         "Unknown",
}

func (s BookingStatus) String() string {
	if name, ok := bookingStatusNames[s]; ok {
		return name
	}
	return "Unknown"
}

func (s BookingStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// AllBookingStatuses lists the statuses the backend can send, in lifecycle order.
func AllBookingStatuses() []BookingStatus {
	return []BookingStatus{
		BookingStatusDraft,
		BookingStatusPendingApproval,
		BookingStatusConfirmed,
		BookingStatusInProgress,
		BookingStatusDelivering,
		BookingStatusDelivered,
		BookingStatusCompleted,
		BookingStatusCancelled,
		BookingStatusOverdue,
	}
}

// RawStatus keeps a status exactly as the backend sent it: a small integer on
// some endpoints, free text on others.
type RawStatus struct {
	Number *int64
	Text   string
}

func RawNumber(n int64) RawStatus { return RawStatus{Number: &n} }

func RawText(s string) RawStatus { return RawStatus{Text: s} }

func (r RawStatus) IsZero() bool { return r.Number == nil && r.Text == "" }

// Value returns the raw value as int64, string or nil.
func (r RawStatus) Value() any {
	if r.Number != nil {
		return *r.Number
	}
	if r.Text != "" {
		return r.Text
	}
	return nil
}

func (r RawStatus) String() string {
	if r.Number != nil {
		return strconv.FormatInt(*r.Number, 10)
	}
	return r.Text
}

func (r *RawStatus) UnmarshalJSON(b []byte) error {
	*r = RawStatus{}
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '"' {
		return json.Unmarshal(b, &r.Text)
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("status must be a number or a string: %w", err)
	}
	if i, err := n.Int64(); err == nil {
		r.Number = &i
		return nil
	}
	// 3.0 and friends still classify; anything else stays as text.
	if f, err := n.Float64(); err == nil && f == float64(int64(f)) {
		i := int64(f)
		r.Number = &i
		return nil
	}
	r.Text = n.String()
	return nil
}

func (r RawStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Value())
}

// ItemType is the tag of a booking line's product.
type ItemType string

const (
	ItemTypeCamera    ItemType = "Camera"
	ItemTypeAccessory ItemType = "Accessory"
	ItemTypeCombo     ItemType = "Combo"
)

// ParseItemType accepts the names (any case) or the numeric codes 1..3.
func ParseItemType(v string) (ItemType, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "camera", "1":
		return ItemTypeCamera, nil
	case "accessory", "2":
		return ItemTypeAccessory, nil
	case "combo", "3":
		return ItemTypeCombo, nil
	}
	return "", fmt.Errorf("unknown item type %q", v)
}

// Product is the catalogue entry behind a booking line. Exactly one concrete
// type exists per ItemType.
type Product interface {
	Kind() ItemType
	ProductID() string
	DisplayName() string
}

type Camera struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Brand         string          `json:"brand,omitempty"`
	Model         string          `json:"model,omitempty"`
	BaseDailyRate decimal.Decimal `json:"baseDailyRate"`
	ImageURL      string          `json:"imageUrl,omitempty"`
}

func (c *Camera) Kind() ItemType { return ItemTypeCamera }
func (c *Camera) ProductID() string { return c.ID }
func (c *Camera) DisplayName() string { return joinNonEmpty(c.Brand, c.Name) }

type Accessory struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Brand         string          `json:"brand,omitempty"`
	BaseDailyRate decimal.Decimal `json:"baseDailyRate"`
	ImageURL      string          `json:"imageUrl,omitempty"`
}

func (a *Accessory) Kind() ItemType { return ItemTypeAccessory }
func (a *Accessory) ProductID() string { return a.ID }
func (a *Accessory) DisplayName() string { return joinNonEmpty(a.Brand, a.Name) }

type Combo struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	BaseDailyRate decimal.Decimal `json:"baseDailyRate"`
	ImageURL      string          `json:"imageUrl,omitempty"`
}

func (c *Combo) Kind() ItemType { return ItemTypeCombo }
func (c *Combo) ProductID() string { return c.ID }
func (c *Combo) DisplayName() string { return c.Name }

func joinNonEmpty(parts ...string) string {
	var out []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}

// BookingItem is one line of a booking. Product stays nil until the line is
// enriched from the catalogue.
type BookingItem struct {
	ItemID        string
	ItemType      ItemType
	UnitPrice     decimal.Decimal
	Quantity      int
	DepositAmount decimal.Decimal
	Product       Product
}

// LineTotal is unit price times quantity.
func (i BookingItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// NeedsEnrichment reports whether only the id of the product is known.
func (i BookingItem) NeedsEnrichment() bool {
	return i.Product == nil && i.ItemID != ""
}

type bookingItemWire struct {
	ItemID        string          `json:"itemId,omitempty"`
	CameraID      string          `json:"cameraId,omitempty"`
	AccessoryID   string          `json:"accessoryId,omitempty"`
	ComboID       string          `json:"comboId,omitempty"`
	ItemType      json.RawMessage `json:"itemType,omitempty"`
	UnitPrice     decimal.Decimal `json:"unitPrice"`
	Quantity      int             `json:"quantity"`
	DepositAmount decimal.Decimal `json:"depositAmount"`
	Camera        *Camera         `json:"camera,omitempty"`
	Accessory     *Accessory      `json:"accessory,omitempty"`
	Combo         *Combo          `json:"combo,omitempty"`
}

func (i *BookingItem) UnmarshalJSON(b []byte) error {
	var w bookingItemWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*i = BookingItem{
		ItemID:        w.ItemID,
		UnitPrice:     w.UnitPrice,
		Quantity:      w.Quantity,
		DepositAmount: w.DepositAmount,
	}

	if raw := bytes.Trim(bytes.TrimSpace(w.ItemType), `"`); len(raw) > 0 && !bytes.Equal(raw, []byte("null")) {
		t, err := ParseItemType(string(raw))
		if err != nil {
			return err
		}
		i.ItemType = t
	}

	// The tag decides which sub-object counts; lines without a tag are
	// classified from whichever product reference is present.
	if i.ItemType == "" {
		switch {
		case w.Camera != nil || w.CameraID != "":
			i.ItemType = ItemTypeCamera
		case w.Accessory != nil || w.AccessoryID != "":
			i.ItemType = ItemTypeAccessory
		case w.Combo != nil || w.ComboID != "":
			i.ItemType = ItemTypeCombo
		default:
			return fmt.Errorf("booking item %q has no item type", w.ItemID)
		}
	}

	switch i.ItemType {
	case ItemTypeCamera:
		i.ItemID = firstNonEmpty(w.ItemID, w.CameraID)
		if w.Camera != nil {
			i.Product = w.Camera
		}
	case ItemTypeAccessory:
		i.ItemID = firstNonEmpty(w.ItemID, w.AccessoryID)
		if w.Accessory != nil {
			i.Product = w.Accessory
		}
	case ItemTypeCombo:
		i.ItemID = firstNonEmpty(w.ItemID, w.ComboID)
		if w.Combo != nil {
			i.Product = w.Combo
		}
	}
	if i.ItemID == "" && i.Product != nil {
		i.ItemID = i.Product.ProductID()
	}
	return nil
}

func (i BookingItem) MarshalJSON() ([]byte, error) {
	w := bookingItemWire{
		ItemID:        i.ItemID,
		UnitPrice:     i.UnitPrice,
		Quantity:      i.Quantity,
		DepositAmount: i.DepositAmount,
	}
	if i.ItemType != "" {
		w.ItemType, _ = json.Marshal(string(i.ItemType))
	}
	switch p := i.Product.(type) {
	case *Camera:
		w.Camera = p
	case *Accessory:
		w.Accessory = p
	case *Combo:
		w.Combo = p
	}
	return json.Marshal(w)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Booking is a rental order. Monetary snapshot fields are captured when the
// booking is created and are never recomputed from live catalogue prices.
type Booking struct {
	ID         string    `json:"id"`
	RenterID   string    `json:"renterId,omitempty"`
	RenterName string    `json:"renterName,omitempty"`
	RawStatus  RawStatus `json:"status"`
	StatusText string    `json:"statusText,omitempty"`
	// Status is filled in by the status table after every fetch.
	Status BookingStatus `json:"-"`

	PickupAt  Timestamp     `json:"pickupAt"`
	ReturnAt  Timestamp     `json:"returnAt"`
	CreatedAt Timestamp     `json:"createdAt"`
	Items     []BookingItem `json:"items"`

	// Price snapshot, captured when the booking was created.
	SnapshotRentalTotal        decimal.Decimal `json:"snapshotRentalTotal"`
	SnapshotDepositAmount      decimal.Decimal `json:"snapshotDepositAmount"`
	SnapshotBaseDailyRate      decimal.Decimal `json:"snapshotBaseDailyRate"`
	SnapshotPlatformFeePercent decimal.Decimal `json:"snapshotPlatformFeePercent"`
	SnapshotDepositPercent     decimal.Decimal `json:"snapshotDepositPercent"`

	AssignedStaffID string `json:"assignedStaffId,omitempty"`
	ContractID      string `json:"contractId,omitempty"`
}

// CheckWindow enforces pickupAt <= returnAt.
func (b *Booking) CheckWindow() error {
	if b.PickupAt.IsZero() || b.ReturnAt.IsZero() {
		return NewValidationError("pickupAt", "pickup and return times are required")
	}
	if b.ReturnAt.Before(b.PickupAt.Time) {
		return NewValidationError("returnAt", "return time must not be before pickup time")
	}
	return nil
}

// ItemCount sums quantities across lines.
func (b *Booking) ItemCount() int {
	n := 0
	for _, it := range b.Items {
		n += it.Quantity
	}
	return n
}

// Cart is the renter's draft booking as returned by /Bookings/GetCard.
type Cart struct {
	ID    string        `json:"id,omitempty"`
	Items []BookingItem `json:"items"`
}

func (c *Cart) ItemCount() int {
	n := 0
	for _, it := range c.Items {
		n += it.Quantity
	}
	return n
}

// BookingScope selects which list endpoint a dashboard reads.
type BookingScope string

const (
	BookingScopeAll          BookingScope = "all"
	BookingScopeStaff        BookingScope = "staff"
	BookingScopeOwnerRenters BookingScope = "owner-renters"
)

func ParseBookingScope(s string) (BookingScope, error) {
	switch BookingScope(strings.ToLower(strings.TrimSpace(s))) {
	case "", BookingScopeAll:
		return BookingScopeAll, nil
	case BookingScopeStaff:
		return BookingScopeStaff, nil
	case BookingScopeOwnerRenters:
		return BookingScopeOwnerRenters, nil
	}
	return "", NewValidationError("scope", fmt.Sprintf("unknown booking scope %q", s))
}

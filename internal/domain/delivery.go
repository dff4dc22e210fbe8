package domain

import "github.com/shopspring/decimal"

// CreateDeliveryRequest is the body of POST /Deliveries. Creating a delivery
// is how a staff member gets assigned to a booking.
type CreateDeliveryRequest struct {
	BookingID      string          `json:"bookingId"`
	AssigneeUserID string          `json:"assigneeUserId"`
	TrackingCode   string          `json:"trackingCode"`
	Notes          string          `json:"notes"`
	DeliveryFee    decimal.Decimal `json:"deliveryFee"`
}

type Delivery struct {
	ID             string          `json:"id"`
	BookingID      string          `json:"bookingId"`
	AssigneeUserID string          `json:"assigneeUserId"`
	TrackingCode   string          `json:"trackingCode"`
	Notes          string          `json:"notes"`
	DeliveryFee    decimal.Decimal `json:"deliveryFee"`
	CreatedAt      Timestamp       `json:"createdAt"`
}

// CreateContractRequest is the body of POST /Contracts.
type CreateContractRequest struct {
	BookingID string `json:"bookingId"`
	Notes     string `json:"notes,omitempty"`
}

type Contract struct {
	ID        string    `json:"id"`
	BookingID string    `json:"bookingId"`
	CreatedAt Timestamp `json:"createdAt"`
}

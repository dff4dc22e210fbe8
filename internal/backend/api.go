package backend

import (
	"context"

	"camrent-web/internal/domain"
)

// AuthAPI covers /Auths.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (*domain.LoginResult, error)
}

// BookingAPI covers /Bookings, /Deliveries and /Contracts.
type BookingAPI interface {
	ListBookings(ctx context.Context) ([]domain.Booking, error)
	ListStaffBookings(ctx context.Context) ([]domain.Booking, error)
	ListOwnerRenterBookings(ctx context.Context) ([]domain.Booking, error)
	GetBooking(ctx context.Context, id string) (*domain.Booking, error)
	GetCart(ctx context.Context) (*domain.Cart, error)
	CompleteBooking(ctx context.Context, id string) error
	CreateDelivery(ctx context.Context, req domain.CreateDeliveryRequest) (*domain.Delivery, error)
	CreateContract(ctx context.Context, req domain.CreateContractRequest) (*domain.Contract, error)
}

// CatalogAPI is the product and staff directory used to enrich bookings.
type CatalogAPI interface {
	GetCamera(ctx context.Context, id string) (*domain.Camera, error)
	GetAccessory(ctx context.Context, id string) (*domain.Accessory, error)
	GetCombo(ctx context.Context, id string) (*domain.Combo, error)
	ListBranches(ctx context.Context) ([]domain.Branch, error)
	ListStaff(ctx context.Context) ([]domain.Staff, error)
}

// InspectionAPI covers /Inspections.
type InspectionAPI interface {
	CreateInspection(ctx context.Context, req domain.CreateInspectionRequest) error
	ListInspections(ctx context.Context, bookingID string) ([]domain.Inspection, error)
}

// DisputeAPI covers /Disputes.
type DisputeAPI interface {
	CreateDispute(ctx context.Context, req domain.CreateDisputeRequest) (string, error)
	GetDispute(ctx context.Context, id string) (*domain.Dispute, error)
	ListDisputesByBooking(ctx context.Context, bookingID string) ([]domain.Dispute, error)
	AddDisputeItem(ctx context.Context, disputeID string, req domain.AddDisputeItemRequest) error
	ResolveDispute(ctx context.Context, id string) error
	RejectDispute(ctx context.Context, id string) error
}

// API is everything the web side calls.
type API interface {
	AuthAPI
	BookingAPI
	CatalogAPI
	InspectionAPI
	DisputeAPI
}

var _ API = (*Client)(nil)

package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"camrent-web/internal/domain"
	"camrent-web/internal/session"
)

type AuthService interface {
	Login(ctx context.Context, sc *session.Context, email, password string) (*domain.Session, error)
	Logout(ctx context.Context, sc *session.Context) error
}

// AssignRequest describes a delivery assignment of one staff member.
type AssignRequest struct {
	BookingID   string
	StaffID     string
	Notes       string
	DeliveryFee decimal.Decimal
}

type BookingService interface {
	ListBookings(ctx context.Context, scope domain.BookingScope) ([]domain.Booking, error)
	GetBooking(ctx context.Context, id string) (*domain.Booking, error)
	AssignStaff(ctx context.Context, req AssignRequest) (*domain.Booking, error)
	CreateContract(ctx context.Context, bookingID, notes string) (*domain.Booking, error)
	CompleteBooking(ctx context.Context, bookingID string) (*domain.Booking, error)
	GetCart(ctx context.Context) (*domain.Cart, error)
	ListStaff(ctx context.Context) ([]domain.Staff, error)
	NextActions(b *domain.Booking, role domain.Role, inspections []domain.Inspection, now time.Time) []Action
}

type InspectionService interface {
	CreateInspection(ctx context.Context, req domain.CreateInspectionRequest) error
	ListInspectionsForBooking(ctx context.Context, bookingID string) ([]domain.Inspection, error)
	ListBranches(ctx context.Context) ([]domain.Branch, error)
}

type DisputeService interface {
	CreateDispute(ctx context.Context, req domain.CreateDisputeRequest) (string, error)
	AddDisputeItem(ctx context.Context, disputeID string, req domain.AddDisputeItemRequest) (*domain.Dispute, error)
	GetDisputeByID(ctx context.Context, id string) (*domain.Dispute, error)
	GetDisputesByBooking(ctx context.Context, bookingID string) ([]domain.Dispute, error)
	ResolveDispute(ctx context.Context, id string) (*domain.Dispute, error)
	RejectDispute(ctx context.Context, id string) (*domain.Dispute, error)
}

// Notifier delivers operational e-mail.
type Notifier interface {
	Notify(ctx context.Context, to, subject, body string) error
}

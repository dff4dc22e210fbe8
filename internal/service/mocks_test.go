package service_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"camrent-web/internal/domain"
)

// MockBookingAPI
type MockBookingAPI struct {
	mock.Mock
}

func (m *MockBookingAPI) ListBookings(ctx context.Context) ([]domain.Booking, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Booking), args.Error(1)
}
func (m *MockBookingAPI) ListStaffBookings(ctx context.Context) ([]domain.Booking, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Booking), args.Error(1)
}
func (m *MockBookingAPI) ListOwnerRenterBookings(ctx context.Context) ([]domain.Booking, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Booking), args.Error(1)
}
func (m *MockBookingAPI) GetBooking(ctx context.Context, id string) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}
func (m *MockBookingAPI) GetCart(ctx context.Context) (*domain.Cart, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Cart), args.Error(1)
}
func (m *MockBookingAPI) CompleteBooking(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockBookingAPI) CreateDelivery(ctx context.Context, req domain.CreateDeliveryRequest) (*domain.Delivery, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Delivery), args.Error(1)
}
func (m *MockBookingAPI) CreateContract(ctx context.Context, req domain.CreateContractRequest) (*domain.Contract, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Contract), args.Error(1)
}

// MockCatalogAPI
type MockCatalogAPI struct {
	mock.Mock
}

func (m *MockCatalogAPI) GetCamera(ctx context.Context, id string) (*domain.Camera, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Camera), args.Error(1)
}
func (m *MockCatalogAPI) GetAccessory(ctx context.Context, id string) (*domain.Accessory, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Accessory), args.Error(1)
}
func (m *MockCatalogAPI) GetCombo(ctx context.Context, id string) (*domain.Combo, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Combo), args.Error(1)
}
func (m *MockCatalogAPI) ListBranches(ctx context.Context) ([]domain.Branch, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Branch), args.Error(1)
}
func (m *MockCatalogAPI) ListStaff(ctx context.Context) ([]domain.Staff, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Staff), args.Error(1)
}

// MockInspectionAPI
type MockInspectionAPI struct {
	mock.Mock
}

func (m *MockInspectionAPI) CreateInspection(ctx context.Context, req domain.CreateInspectionRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}
func (m *MockInspectionAPI) ListInspections(ctx context.Context, bookingID string) ([]domain.Inspection, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Inspection), args.Error(1)
}

// MockDisputeAPI
type MockDisputeAPI struct {
	mock.Mock
}

func (m *MockDisputeAPI) CreateDispute(ctx context.Context, req domain.CreateDisputeRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}
func (m *MockDisputeAPI) GetDispute(ctx context.Context, id string) (*domain.Dispute, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Dispute), args.Error(1)
}
func (m *MockDisputeAPI) ListDisputesByBooking(ctx context.Context, bookingID string) ([]domain.Dispute, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Dispute), args.Error(1)
}
func (m *MockDisputeAPI) AddDisputeItem(ctx context.Context, disputeID string, req domain.AddDisputeItemRequest) error {
	args := m.Called(ctx, disputeID, req)
	return args.Error(0)
}
func (m *MockDisputeAPI) ResolveDispute(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockDisputeAPI) RejectDispute(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockAuthAPI
type MockAuthAPI struct {
	mock.Mock
}

func (m *MockAuthAPI) Login(ctx context.Context, email, password string) (*domain.LoginResult, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LoginResult), args.Error(1)
}

// MockTokenSource
type MockTokenSource struct {
	mock.Mock
}

func (m *MockTokenSource) Token(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}
func (m *MockTokenSource) Invalidate(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

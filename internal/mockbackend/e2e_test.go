package mockbackend_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"camrent-web/internal/backend"
	"camrent-web/internal/domain"
	"camrent-web/internal/mockbackend"
	"camrent-web/internal/security"
	"camrent-web/internal/service"
	"camrent-web/internal/session"
	"camrent-web/internal/status"
)

type harness struct {
	mock        *mockbackend.Server
	store       *session.MemoryStore
	auth        service.AuthService
	bookings    service.BookingService
	inspections service.InspectionService
	disputes    service.DisputeService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	tm := security.NewTokenManager("e2e-secret", time.Hour)
	mock := mockbackend.Demo(tm, time.Now())
	srv := httptest.NewServer(mock.Handler())
	t.Cleanup(srv.Close)

	client := backend.New(srv.URL, srv.Client(), session.Ambient{})
	return &harness{
		mock:        mock,
		store:       session.NewMemoryStore(),
		auth:        service.NewAuthService(client),
		bookings:    service.NewBookingService(client, client, 2),
		inspections: service.NewInspectionService(client, client, session.Ambient{}),
		disputes:    service.NewDisputeService(client),
	}
}

func (h *harness) login(t *testing.T, u mockbackend.User) context.Context {
	t.Helper()
	sc := session.New(h.store, "sess-"+u.ID)
	_, err := h.auth.Login(context.Background(), sc, u.Email, u.Password)
	require.NoError(t, err)
	return session.NewContext(context.Background(), sc)
}

func find(list []domain.Booking, id string) *domain.Booking {
	for i := range list {
		if list[i].ID == id {
			return &list[i]
		}
	}
	return nil
}

func TestE2E_StaffBookingsClassifyTextStatus(t *testing.T) {
	h := newHarness(t)
	ctx := h.login(t, mockbackend.DemoStaff)

	list, err := h.bookings.ListBookings(ctx, domain.BookingScopeStaff)
	require.NoError(t, err)

	pending := find(list, "bk-pending")
	require.NotNil(t, pending)
	assert.Equal(t, "PendingApproval", pending.RawStatus.Value())
	assert.Equal(t, domain.BookingStatusPendingApproval, pending.Status)

	confirmed := find(list, "bk-confirmed")
	require.NotNil(t, confirmed)
	assert.Equal(t, domain.BookingStatusConfirmed, confirmed.Status)

	pv := status.BookingStatusView(pending.Status)
	cv := status.BookingStatusView(confirmed.Status)
	assert.Equal(t, status.ToneWarning, pv.Tone)
	assert.Equal(t, status.ToneSuccess, cv.Tone)
	assert.NotEqual(t, pv.Tone, cv.Tone)
}

func TestE2E_NumericAndTextStatusAgree(t *testing.T) {
	h := newHarness(t)
	ctx := h.login(t, mockbackend.DemoManager)

	all, err := h.bookings.ListBookings(ctx, domain.BookingScopeAll)
	require.NoError(t, err)
	staff, err := h.bookings.ListBookings(ctx, domain.BookingScopeStaff)
	require.NoError(t, err)
	require.Len(t, staff, len(all))

	for _, b := range all {
		other := find(staff, b.ID)
		require.NotNil(t, other, b.ID)
		assert.NotNil(t, b.RawStatus.Number, "numeric on /Bookings")
		assert.Nil(t, other.RawStatus.Number, "text on staffbookings")
		assert.Equal(t, b.Status, other.Status, b.ID)
	}
}

func TestE2E_ListEnrichesProducts(t *testing.T) {
	h := newHarness(t)
	ctx := h.login(t, mockbackend.DemoManager)

	list, err := h.bookings.ListBookings(ctx, domain.BookingScopeAll)
	require.NoError(t, err)
	b := find(list, "bk-confirmed")
	require.NotNil(t, b)
	require.Len(t, b.Items, 2)
	for _, it := range b.Items {
		require.NotNil(t, it.Product, it.ItemID)
		assert.Equal(t, it.ItemType, it.Product.Kind())
	}
	assert.Equal(t, "Sony Alpha 7 IV", b.Items[0].Product.DisplayName())
}

func TestE2E_DisputeCreateThenAddItem(t *testing.T) {
	h := newHarness(t)
	ctx := h.login(t, mockbackend.DemoManager)

	id, err := h.disputes.CreateDispute(ctx, domain.CreateDisputeRequest{
		BookingID:   "bk-confirmed",
		Title:       "t",
		Description: "d",
		Severity:    domain.SeverityHigh,
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	_, err = h.disputes.AddDisputeItem(ctx, id, domain.AddDisputeItemRequest{
		Type:   domain.DisputeItemTypeMoney,
		Amount: decimal.NewFromInt(50000),
		Notes:  "damage",
	})
	require.NoError(t, err)

	d, err := h.disputes.GetDisputeByID(ctx, id)
	require.NoError(t, err)
	require.Len(t, d.Items, 1)
	assert.True(t, d.TotalAmount.Equal(decimal.NewFromInt(50000)), d.TotalAmount.String())
	assert.Equal(t, domain.SeverityHigh, d.Severity)
	assert.Equal(t, domain.DisputeStatusInProgress, d.Status)
}

func TestE2E_ClosedDisputeRefusesItems(t *testing.T) {
	h := newHarness(t)
	ctx := h.login(t, mockbackend.DemoManager)

	d, err := h.disputes.ResolveDispute(ctx, "dsp-completed")
	require.NoError(t, err)
	assert.Equal(t, domain.DisputeStatusResolved, d.Status)
	assert.False(t, d.CanAppendItems())
	assert.False(t, d.ResolvedAt.IsZero())

	_, err = h.disputes.AddDisputeItem(ctx, "dsp-completed", domain.AddDisputeItemRequest{
		Type:   domain.DisputeItemTypeMoney,
		Amount: decimal.NewFromInt(1000),
		Notes:  "late",
	})
	var se *domain.ServerError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 400, se.StatusCode)
	assert.Contains(t, domain.UserMessage(err), "Tranh chấp đã đóng")

	_, err = h.disputes.RejectDispute(ctx, "dsp-completed")
	require.ErrorAs(t, err, &se)
}

func TestE2E_InspectionRoundTrip(t *testing.T) {
	h := newHarness(t)
	ctx := h.login(t, mockbackend.DemoStaff)

	err := h.inspections.CreateInspection(ctx, domain.CreateInspectionRequest{
		BookingID: "bk-confirmed",
		Type:      domain.InspectionTypeCheckIn,
		BranchID:  "br-hcm",
		Items: []domain.InspectionItem{
			{Section: "Body", Label: "Exterior", Value: "Good", Passed: true, Notes: ""},
		},
	})
	require.NoError(t, err)

	list, err := h.inspections.ListInspectionsForBooking(ctx, "bk-confirmed")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, domain.InspectionTypeCheckIn, list[0].Type)
	assert.Equal(t, mockbackend.DemoStaff.ID, list[0].PerformedByUserID)
	require.Len(t, list[0].Items, 1)
	assert.True(t, list[0].Items[0].Passed)

	// A second check-in is the backend's to refuse.
	err = h.inspections.CreateInspection(ctx, domain.CreateInspectionRequest{
		BookingID: "bk-confirmed",
		Type:      domain.InspectionTypeCheckIn,
		BranchID:  "br-hcm",
		Items:     []domain.InspectionItem{{Section: "Body", Label: "Exterior", Value: "Good", Passed: true}},
	})
	var se *domain.ServerError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 409, se.StatusCode)
}

func TestE2E_DeliveryFlowToCompletion(t *testing.T) {
	h := newHarness(t)
	ctx := h.login(t, mockbackend.DemoManager)

	b, err := h.bookings.CreateContract(ctx, "bk-confirmed", "")
	require.NoError(t, err)
	assert.NotEmpty(t, b.ContractID)

	b, err = h.bookings.AssignStaff(ctx, service.AssignRequest{BookingID: "bk-confirmed", StaffID: mockbackend.DemoStaff.ID})
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusInProgress, b.Status)
	assert.Equal(t, mockbackend.DemoStaff.ID, b.AssignedStaffID)

	_, err = h.bookings.AssignStaff(ctx, service.AssignRequest{BookingID: "bk-confirmed", StaffID: mockbackend.DemoStaff.ID})
	var se *domain.ServerError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 409, se.StatusCode)

	staffCtx := h.login(t, mockbackend.DemoStaff)
	item := []domain.InspectionItem{{Section: "Body", Label: "Exterior", Value: "Good", Passed: true}}
	require.NoError(t, h.inspections.CreateInspection(staffCtx, domain.CreateInspectionRequest{
		BookingID: "bk-confirmed", Type: domain.InspectionTypeCheckIn, BranchID: "br-hcm", Items: item,
	}))
	stored, ok := h.mock.Booking("bk-confirmed")
	require.True(t, ok)
	assert.Equal(t, domain.BookingStatusDelivered, stored.Status)

	// Completion needs the check-out first.
	_, err = h.bookings.CompleteBooking(staffCtx, "bk-confirmed")
	require.ErrorAs(t, err, &se)

	require.NoError(t, h.inspections.CreateInspection(staffCtx, domain.CreateInspectionRequest{
		BookingID: "bk-confirmed", Type: domain.InspectionTypeCheckOut, BranchID: "br-hcm", Items: item,
	}))
	b, err = h.bookings.CompleteBooking(staffCtx, "bk-confirmed")
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusCompleted, b.Status)
}

func TestE2E_UnknownIDsAreNotFound(t *testing.T) {
	h := newHarness(t)
	ctx := h.login(t, mockbackend.DemoManager)

	_, err := h.bookings.GetBooking(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = h.disputes.GetDisputeByID(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestE2E_ForgedTokenClearsSession(t *testing.T) {
	h := newHarness(t)
	sc := session.New(h.store, "forged")
	other := security.NewTokenManager("someone-else", time.Hour)
	token, exp, err := other.GenerateAccessToken("u-x", "x@example.com", "X", []string{"Manager"})
	require.NoError(t, err)
	_, err = sc.Login(context.Background(), &domain.LoginResult{Token: token, ExpiresAt: domain.NewTimestamp(exp)})
	require.NoError(t, err)
	ctx := session.NewContext(context.Background(), sc)

	_, err = h.bookings.ListBookings(ctx, domain.BookingScopeAll)
	require.ErrorIs(t, err, domain.ErrUnauthorized)

	cur, err := sc.Current(context.Background())
	require.NoError(t, err)
	assert.Nil(t, cur)

	before := h.mock.RequestCount()
	_, err = h.bookings.ListBookings(ctx, domain.BookingScopeAll)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
	assert.Equal(t, before, h.mock.RequestCount(), "no request without a session")
}

func TestE2E_WrongPasswordLeavesNoSession(t *testing.T) {
	h := newHarness(t)
	sc := session.New(h.store, "bad")
	_, err := h.auth.Login(context.Background(), sc, mockbackend.DemoStaff.Email, "wrong")
	require.Error(t, err)
	assert.Equal(t, "Sai email hoặc mật khẩu", domain.UserMessage(err))
	assert.Equal(t, 0, h.store.Len())
}

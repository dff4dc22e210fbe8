package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/lithammer/shortuuid/v3"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"camrent-web/internal/backend"
	"camrent-web/internal/domain"
	"camrent-web/internal/logger"
	"camrent-web/internal/status"
)

// Action is a server endpoint a role may invoke next on a booking.
type Action string

const (
	ActionCreateContract     Action = "CreateContract"
	ActionAssignDelivery     Action = "AssignDelivery"
	ActionCheckInInspection  Action = "CheckInInspection"
	ActionCheckOutInspection Action = "CheckOutInspection"
	ActionComplete           Action = "Complete"
	ActionOpenDispute        Action = "OpenDispute"
)

type bookingService struct {
	bookings          backend.BookingAPI
	catalog           backend.CatalogAPI
	enrichConcurrency int
}

func NewBookingService(bookings backend.BookingAPI, catalog backend.CatalogAPI, enrichConcurrency int) BookingService {
	if enrichConcurrency <= 0 {
		enrichConcurrency = 4
	}
	return &bookingService{
		bookings:          bookings,
		catalog:           catalog,
		enrichConcurrency: enrichConcurrency,
	}
}

func (s *bookingService) ListBookings(ctx context.Context, scope domain.BookingScope) ([]domain.Booking, error) {
	logger.EnterMethod("bookingService.ListBookings", "scope", scope)

	var (
		list []domain.Booking
		err  error
	)
	switch scope {
	case domain.BookingScopeAll, "":
		list, err = s.bookings.ListBookings(ctx)
	case domain.BookingScopeStaff:
		list, err = s.bookings.ListStaffBookings(ctx)
	case domain.BookingScopeOwnerRenters:
		list, err = s.bookings.ListOwnerRenterBookings(ctx)
	default:
		err = domain.NewValidationError("scope", fmt.Sprintf("unknown booking scope %q", scope))
	}
	if err != nil {
		logger.ExitMethodWithError("bookingService.ListBookings", err, "scope", scope)
		return nil, err
	}

	for i := range list {
		status.ApplyBooking(&list[i])
	}
	if err := s.enrich(ctx, list); err != nil {
		logger.ExitMethodWithError("bookingService.ListBookings", err, "scope", scope)
		return nil, err
	}
	if list == nil {
		list = []domain.Booking{}
	}

	logger.ExitMethod("bookingService.ListBookings", "scope", scope, "count", len(list))
	return list, nil
}

func (s *bookingService) GetBooking(ctx context.Context, id string) (*domain.Booking, error) {
	logger.EnterMethod("bookingService.GetBooking", "bookingID", id)
	if strings.TrimSpace(id) == "" {
		return nil, domain.NewValidationError("bookingId", "booking id is required")
	}
	b, err := s.bookings.GetBooking(ctx, id)
	if err != nil {
		logger.ExitMethodWithError("bookingService.GetBooking", err, "bookingID", id)
		return nil, err
	}
	status.ApplyBooking(b)
	one := []domain.Booking{*b}
	if err := s.enrich(ctx, one); err != nil {
		logger.ExitMethodWithError("bookingService.GetBooking", err, "bookingID", id)
		return nil, err
	}
	*b = one[0]
	logger.ExitMethod("bookingService.GetBooking", "bookingID", id, "status", b.Status)
	return b, nil
}

// AssignStaff creates the delivery that assigns staffID, then returns the
// re-fetched booking. Duplicate assignments are the backend's to reject.
func (s *bookingService) AssignStaff(ctx context.Context, req AssignRequest) (*domain.Booking, error) {
	logger.EnterMethod("bookingService.AssignStaff", "bookingID", req.BookingID, "staffID", req.StaffID)
	if strings.TrimSpace(req.BookingID) == "" {
		return nil, domain.NewValidationError("bookingId", "booking id is required")
	}
	if strings.TrimSpace(req.StaffID) == "" {
		return nil, domain.NewValidationError("assigneeUserId", "Vui lòng chọn nhân viên giao hàng")
	}
	if req.DeliveryFee.IsNegative() {
		return nil, domain.NewValidationError("deliveryFee", "delivery fee must not be negative")
	}

	delivery, err := s.bookings.CreateDelivery(ctx, domain.CreateDeliveryRequest{
		BookingID:      req.BookingID,
		AssigneeUserID: req.StaffID,
		TrackingCode:   "CR-" + strings.ToUpper(shortuuid.New()[:10]),
		Notes:          req.Notes,
		DeliveryFee:    req.DeliveryFee,
	})
	if err != nil {
		logger.ExitMethodWithError("bookingService.AssignStaff", err, "bookingID", req.BookingID)
		return nil, err
	}
	logger.Info("Delivery created", "bookingID", req.BookingID, "trackingCode", delivery.TrackingCode)

	b, err := s.GetBooking(ctx, req.BookingID)
	if err != nil {
		return nil, err
	}
	logger.ExitMethod("bookingService.AssignStaff", "bookingID", req.BookingID, "status", b.Status)
	return b, nil
}

func (s *bookingService) CreateContract(ctx context.Context, bookingID, notes string) (*domain.Booking, error) {
	logger.EnterMethod("bookingService.CreateContract", "bookingID", bookingID)
	if strings.TrimSpace(bookingID) == "" {
		return nil, domain.NewValidationError("bookingId", "booking id is required")
	}
	ct, err := s.bookings.CreateContract(ctx, domain.CreateContractRequest{BookingID: bookingID, Notes: notes})
	if err != nil {
		logger.ExitMethodWithError("bookingService.CreateContract", err, "bookingID", bookingID)
		return nil, err
	}
	b, err := s.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	logger.ExitMethod("bookingService.CreateContract", "bookingID", bookingID, "contractID", ct.ID)
	return b, nil
}

func (s *bookingService) CompleteBooking(ctx context.Context, bookingID string) (*domain.Booking, error) {
	logger.EnterMethod("bookingService.CompleteBooking", "bookingID", bookingID)
	if strings.TrimSpace(bookingID) == "" {
		return nil, domain.NewValidationError("bookingId", "booking id is required")
	}
	if err := s.bookings.CompleteBooking(ctx, bookingID); err != nil {
		logger.ExitMethodWithError("bookingService.CompleteBooking", err, "bookingID", bookingID)
		return nil, err
	}
	b, err := s.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	logger.ExitMethod("bookingService.CompleteBooking", "bookingID", bookingID, "status", b.Status)
	return b, nil
}

func (s *bookingService) GetCart(ctx context.Context) (*domain.Cart, error) {
	cart, err := s.bookings.GetCart(ctx)
	if err != nil {
		return nil, err
	}
	if cart.Items == nil {
		cart.Items = []domain.BookingItem{}
	}
	return cart, nil
}

func (s *bookingService) ListStaff(ctx context.Context) ([]domain.Staff, error) {
	staff, err := s.catalog.ListStaff(ctx)
	if err != nil {
		return nil, err
	}
	if staff == nil {
		staff = []domain.Staff{}
	}
	return staff, nil
}

// NextActions lists what role may ask the backend to do next with b. It
// never predicts the resulting status.
func (s *bookingService) NextActions(b *domain.Booking, role domain.Role, inspections []domain.Inspection, now time.Time) []Action {
	st := b.EffectiveStatus(now)
	if st == domain.BookingStatusUnknown {
		return []Action{}
	}
	hasCheckIn := lo.ContainsBy(inspections, func(in domain.Inspection) bool { return in.Type == domain.InspectionTypeCheckIn })
	hasCheckOut := lo.ContainsBy(inspections, func(in domain.Inspection) bool { return in.Type == domain.InspectionTypeCheckOut })

	isStaff := role == domain.RoleStaff
	isManagement := role == domain.RoleManager || role == domain.RoleOwner

	actions := []Action{}
	if isManagement && st == domain.BookingStatusConfirmed && b.ContractID == "" {
		actions = append(actions, ActionCreateContract)
	}
	if (isStaff || role == domain.RoleManager) && (st == domain.BookingStatusConfirmed || st == domain.BookingStatusInProgress) {
		actions = append(actions, ActionAssignDelivery)
	}
	if isStaff && !hasCheckIn && (st == domain.BookingStatusConfirmed || st == domain.BookingStatusInProgress) {
		actions = append(actions, ActionCheckInInspection)
	}
	if isStaff && !hasCheckOut && (st == domain.BookingStatusDelivered || st == domain.BookingStatusOverdue) {
		actions = append(actions, ActionCheckOutInspection)
	}
	if (isStaff || role == domain.RoleManager) && (st == domain.BookingStatusDelivered || st == domain.BookingStatusOverdue) &&
		domain.CanTransition(st, domain.BookingStatusCompleted) {
		actions = append(actions, ActionComplete)
	}
	if (isStaff || role == domain.RoleManager) && st != domain.BookingStatusDraft {
		actions = append(actions, ActionOpenDispute)
	}
	return actions
}

type productKey struct {
	kind domain.ItemType
	id   string
}

// enrich fills Product on lines that only carry an id. Each distinct product
// is fetched once, with bounded concurrency. A failed lookup leaves the line
// bare, except for Unauthorized, which aborts the listing.
func (s *bookingService) enrich(ctx context.Context, list []domain.Booking) error {
	var keys []productKey
	for _, b := range list {
		for _, it := range b.Items {
			if it.NeedsEnrichment() {
				keys = append(keys, productKey{kind: it.ItemType, id: it.ItemID})
			}
		}
	}
	keys = lo.Uniq(keys)
	if len(keys) == 0 {
		return nil
	}

	var mu sync.Mutex
	found := make(map[productKey]domain.Product, len(keys))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.enrichConcurrency)
	for _, k := range keys {
		k := k
		g.Go(func() error {
			p, err := s.lookup(gctx, k)
			if err != nil {
				if errors.Is(err, domain.ErrUnauthorized) {
					return err
				}
				logger.Warn("Booking item enrichment failed", "itemType", k.kind, "itemID", k.id, "error", err)
				return nil
			}
			mu.Lock()
			found[k] = p
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for bi := range list {
		for ii := range list[bi].Items {
			it := &list[bi].Items[ii]
			if p, ok := found[productKey{kind: it.ItemType, id: it.ItemID}]; ok && it.Product == nil {
				it.Product = p
			}
		}
	}
	return nil
}

func (s *bookingService) lookup(ctx context.Context, k productKey) (domain.Product, error) {
	switch k.kind {
	case domain.ItemTypeCamera:
		return s.catalog.GetCamera(ctx, k.id)
	case domain.ItemTypeAccessory:
		return s.catalog.GetAccessory(ctx, k.id)
	case domain.ItemTypeCombo:
		return s.catalog.GetCombo(ctx, k.id)
	}
	return nil, fmt.Errorf("unknown item type %q", k.kind)
}

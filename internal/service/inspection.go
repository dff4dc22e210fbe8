package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"

	"camrent-web/internal/backend"
	"camrent-web/internal/domain"
	"camrent-web/internal/logger"
	"camrent-web/internal/security"
	"camrent-web/internal/session"
)

type inspectionService struct {
	inspections backend.InspectionAPI
	catalog     backend.CatalogAPI
	tokens      session.TokenSource
}

func NewInspectionService(inspections backend.InspectionAPI, catalog backend.CatalogAPI, tokens session.TokenSource) InspectionService {
	return &inspectionService{
		inspections: inspections,
		catalog:     catalog,
		tokens:      tokens,
	}
}

// validateInspection rejects payloads the backend would refuse anyway, before
// anything is sent.
func validateInspection(req *domain.CreateInspectionRequest) error {
	if strings.TrimSpace(req.BookingID) == "" {
		return domain.NewValidationError("bookingId", "booking id is required")
	}
	if !req.Type.Valid() {
		return domain.NewValidationError("type", "Loại kiểm tra không hợp lệ")
	}
	if strings.TrimSpace(req.BranchID) == "" {
		return domain.NewValidationError("branchId", "Vui lòng chọn chi nhánh")
	}
	if len(req.Items) == 0 {
		return domain.NewValidationError("items", "Cần ít nhất một hạng mục kiểm tra")
	}
	for i, it := range req.Items {
		switch {
		case strings.TrimSpace(it.Section) == "":
			return domain.NewValidationError(fmt.Sprintf("items[%d].section", i), fmt.Sprintf("Hạng mục %d thiếu phần (section)", i+1))
		case strings.TrimSpace(it.Label) == "":
			return domain.NewValidationError(fmt.Sprintf("items[%d].label", i), fmt.Sprintf("Hạng mục %d thiếu tên (label)", i+1))
		case strings.TrimSpace(it.Value) == "":
			return domain.NewValidationError(fmt.Sprintf("items[%d].value", i), fmt.Sprintf("Hạng mục %d thiếu giá trị (value)", i+1))
		}
	}
	return nil
}

// CreateInspection validates locally, stamps the acting user decoded from
// the session token, checks the branch against the branch list and submits.
// Any caller-supplied performedByUserId is overwritten.
func (s *inspectionService) CreateInspection(ctx context.Context, req domain.CreateInspectionRequest) error {
	logger.EnterMethod("inspectionService.CreateInspection", "bookingID", req.BookingID, "type", req.Type)

	if err := validateInspection(&req); err != nil {
		logger.ExitMethodWithError("inspectionService.CreateInspection", err, "bookingID", req.BookingID)
		return err
	}

	token, err := s.tokens.Token(ctx)
	if err != nil {
		logger.ExitMethodWithError("inspectionService.CreateInspection", err, "bookingID", req.BookingID)
		return err
	}
	userID, err := security.UserIDFromToken(token)
	if err != nil {
		logger.ExitMethodWithError("inspectionService.CreateInspection", err, "bookingID", req.BookingID)
		return err
	}
	req.PerformedByUserID = userID

	branches, err := s.catalog.ListBranches(ctx)
	if err != nil {
		logger.ExitMethodWithError("inspectionService.CreateInspection", err, "bookingID", req.BookingID)
		return err
	}
	if !lo.ContainsBy(branches, func(b domain.Branch) bool { return b.ID == req.BranchID }) {
		err := domain.NewValidationError("branchId", "Chi nhánh không tồn tại")
		logger.ExitMethodWithError("inspectionService.CreateInspection", err, "bookingID", req.BookingID, "branchID", req.BranchID)
		return err
	}

	if err := s.inspections.CreateInspection(ctx, req); err != nil {
		logger.ExitMethodWithError("inspectionService.CreateInspection", err, "bookingID", req.BookingID)
		return err
	}

	logger.ExitMethod("inspectionService.CreateInspection", "bookingID", req.BookingID, "items", len(req.Items))
	return nil
}

// ListInspectionsForBooking returns the booking's inspections oldest first.
// No history is an empty list, not an error.
func (s *inspectionService) ListInspectionsForBooking(ctx context.Context, bookingID string) ([]domain.Inspection, error) {
	logger.EnterMethod("inspectionService.ListInspectionsForBooking", "bookingID", bookingID)
	if strings.TrimSpace(bookingID) == "" {
		return nil, domain.NewValidationError("bookingId", "booking id is required")
	}

	list, err := s.inspections.ListInspections(ctx, bookingID)
	if err != nil {
		logger.ExitMethodWithError("inspectionService.ListInspectionsForBooking", err, "bookingID", bookingID)
		return nil, err
	}
	if list == nil {
		list = []domain.Inspection{}
	}
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt.Before(list[j].CreatedAt.Time)
	})

	logger.ExitMethod("inspectionService.ListInspectionsForBooking", "bookingID", bookingID, "count", len(list))
	return list, nil
}

func (s *inspectionService) ListBranches(ctx context.Context) ([]domain.Branch, error) {
	branches, err := s.catalog.ListBranches(ctx)
	if err != nil {
		return nil, err
	}
	if branches == nil {
		branches = []domain.Branch{}
	}
	return branches, nil
}

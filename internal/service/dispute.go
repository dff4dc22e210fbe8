package service

import (
	"context"
	"strings"

	"camrent-web/internal/backend"
	"camrent-web/internal/domain"
	"camrent-web/internal/logger"
	"camrent-web/internal/status"
)

type disputeService struct {
	disputes backend.DisputeAPI
}

func NewDisputeService(disputes backend.DisputeAPI) DisputeService {
	return &disputeService{disputes: disputes}
}

// CreateDispute validates and submits a dispute, returning its new id.
// Severity defaults to Medium.
func (s *disputeService) CreateDispute(ctx context.Context, req domain.CreateDisputeRequest) (string, error) {
	logger.EnterMethod("disputeService.CreateDispute", "bookingID", req.BookingID)

	if strings.TrimSpace(req.BookingID) == "" {
		return "", domain.NewValidationError("bookingId", "booking id is required")
	}
	if strings.TrimSpace(req.Title) == "" {
		return "", domain.NewValidationError("title", "Vui lòng nhập tiêu đề")
	}
	if strings.TrimSpace(req.Description) == "" {
		return "", domain.NewValidationError("description", "Vui lòng nhập mô tả")
	}
	sev, err := domain.ParseSeverity(string(req.Severity))
	if err != nil {
		return "", err
	}
	req.Severity = sev
	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)

	id, err := s.disputes.CreateDispute(ctx, req)
	if err != nil {
		logger.ExitMethodWithError("disputeService.CreateDispute", err, "bookingID", req.BookingID)
		return "", err
	}

	logger.ExitMethod("disputeService.CreateDispute", "bookingID", req.BookingID, "disputeID", id, "severity", sev)
	return id, nil
}

// AddDisputeItem validates and appends a compensation item, then re-fetches
// the dispute so totalAmount comes from the server.
func (s *disputeService) AddDisputeItem(ctx context.Context, disputeID string, req domain.AddDisputeItemRequest) (*domain.Dispute, error) {
	logger.EnterMethod("disputeService.AddDisputeItem", "disputeID", disputeID)

	if strings.TrimSpace(disputeID) == "" {
		return nil, domain.NewValidationError("disputeId", "dispute id is required")
	}
	typ, err := domain.ParseDisputeItemType(string(req.Type))
	if err != nil {
		return nil, err
	}
	if !req.Amount.IsPositive() {
		return nil, domain.NewValidationError("amount", "Số tiền phải lớn hơn 0")
	}
	if strings.TrimSpace(req.Notes) == "" {
		return nil, domain.NewValidationError("notes", "Vui lòng nhập ghi chú")
	}
	req.Type = typ

	if err := s.disputes.AddDisputeItem(ctx, disputeID, req); err != nil {
		logger.ExitMethodWithError("disputeService.AddDisputeItem", err, "disputeID", disputeID)
		return nil, err
	}

	d, err := s.GetDisputeByID(ctx, disputeID)
	if err != nil {
		return nil, err
	}
	logger.ExitMethod("disputeService.AddDisputeItem", "disputeID", disputeID, "items", len(d.Items), "total", d.TotalAmount)
	return d, nil
}

func (s *disputeService) GetDisputeByID(ctx context.Context, id string) (*domain.Dispute, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.NewValidationError("disputeId", "dispute id is required")
	}
	d, err := s.disputes.GetDispute(ctx, id)
	if err != nil {
		return nil, err
	}
	normaliseDispute(d)
	return d, nil
}

func (s *disputeService) GetDisputesByBooking(ctx context.Context, bookingID string) ([]domain.Dispute, error) {
	if strings.TrimSpace(bookingID) == "" {
		return nil, domain.NewValidationError("bookingId", "booking id is required")
	}
	list, err := s.disputes.ListDisputesByBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []domain.Dispute{}
	}
	for i := range list {
		normaliseDispute(&list[i])
	}
	return list, nil
}

func (s *disputeService) ResolveDispute(ctx context.Context, id string) (*domain.Dispute, error) {
	logger.EnterMethod("disputeService.ResolveDispute", "disputeID", id)
	if strings.TrimSpace(id) == "" {
		return nil, domain.NewValidationError("disputeId", "dispute id is required")
	}
	if err := s.disputes.ResolveDispute(ctx, id); err != nil {
		logger.ExitMethodWithError("disputeService.ResolveDispute", err, "disputeID", id)
		return nil, err
	}
	d, err := s.GetDisputeByID(ctx, id)
	if err != nil {
		return nil, err
	}
	logger.ExitMethod("disputeService.ResolveDispute", "disputeID", id, "status", d.Status)
	return d, nil
}

func (s *disputeService) RejectDispute(ctx context.Context, id string) (*domain.Dispute, error) {
	logger.EnterMethod("disputeService.RejectDispute", "disputeID", id)
	if strings.TrimSpace(id) == "" {
		return nil, domain.NewValidationError("disputeId", "dispute id is required")
	}
	if err := s.disputes.RejectDispute(ctx, id); err != nil {
		logger.ExitMethodWithError("disputeService.RejectDispute", err, "disputeID", id)
		return nil, err
	}
	d, err := s.GetDisputeByID(ctx, id)
	if err != nil {
		return nil, err
	}
	logger.ExitMethod("disputeService.RejectDispute", "disputeID", id, "status", d.Status)
	return d, nil
}

func normaliseDispute(d *domain.Dispute) {
	status.ApplyDispute(d)
	if d.Severity == "" {
		d.Severity = domain.SeverityMedium
	}
	if d.Items == nil {
		d.Items = []domain.DisputeItem{}
	}
}

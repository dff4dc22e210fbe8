package http

import (
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"camrent-web/internal/domain"
	"camrent-web/internal/service"
	"camrent-web/internal/status"
	"camrent-web/internal/utils"
)

type sessionView struct {
	UserID    string      `json:"userId"`
	Role      domain.Role `json:"role"`
	Email     string      `json:"email"`
	FullName  string      `json:"fullName"`
	ExpiresAt time.Time   `json:"expiresAt"`
}

func newSessionView(s *domain.Session) sessionView {
	return sessionView{
		UserID:    s.UserID,
		Role:      s.Role,
		Email:     s.UserInfo.Email,
		FullName:  s.UserInfo.FullName,
		ExpiresAt: s.ExpiresAt,
	}
}

type itemView struct {
	ItemID        string          `json:"itemId"`
	ItemType      domain.ItemType `json:"itemType"`
	Name          string          `json:"name"`
	ImageURL      string          `json:"imageUrl,omitempty"`
	Quantity      int             `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unitPrice"`
	DepositAmount decimal.Decimal `json:"depositAmount"`
	LineTotal     decimal.Decimal `json:"lineTotal"`
}

func newItemView(it domain.BookingItem) itemView {
	v := itemView{
		ItemID:        it.ItemID,
		ItemType:      it.ItemType,
		Quantity:      it.Quantity,
		UnitPrice:     it.UnitPrice,
		DepositAmount: it.DepositAmount,
		LineTotal:     it.LineTotal(),
	}
	switch p := it.Product.(type) {
	case *domain.Camera:
		v.Name, v.ImageURL = p.DisplayName(), p.ImageURL
	case *domain.Accessory:
		v.Name, v.ImageURL = p.DisplayName(), p.ImageURL
	case *domain.Combo:
		v.Name, v.ImageURL = p.DisplayName(), p.ImageURL
	default:
		// Not enriched; show the bare id.
		v.Name = it.ItemID
	}
	return v
}

type bookingView struct {
	ID              string            `json:"id"`
	RenterName      string            `json:"renterName,omitempty"`
	Status          status.StatusView `json:"status"`
	PickupAt        domain.Timestamp  `json:"pickupAt"`
	ReturnAt        domain.Timestamp  `json:"returnAt"`
	CreatedAt       domain.Timestamp  `json:"createdAt"`
	RentalDays      int               `json:"rentalDays"`
	Items           []itemView        `json:"items"`
	ItemCount       int               `json:"itemCount"`
	Totals          utils.Totals      `json:"totals"`
	PayableText     string            `json:"payableText"`
	AssignedStaffID string            `json:"assignedStaffId,omitempty"`
	ContractID      string            `json:"contractId,omitempty"`
}

func newBookingView(b *domain.Booking, now time.Time) bookingView {
	var st status.StatusView
	if b.Status == domain.BookingStatusUnknown {
		st = status.MapBookingStatus(b.RawStatus.Value())
	} else {
		st = status.BookingStatusView(b.EffectiveStatus(now))
	}
	totals := utils.ComputeTotals(b)
	return bookingView{
		ID:              b.ID,
		RenterName:      b.RenterName,
		Status:          st,
		PickupAt:        b.PickupAt,
		ReturnAt:        b.ReturnAt,
		CreatedAt:       b.CreatedAt,
		RentalDays:      utils.RentalDays(b.PickupAt.Time, b.ReturnAt.Time),
		Items:           lo.Map(b.Items, func(it domain.BookingItem, _ int) itemView { return newItemView(it) }),
		ItemCount:       b.ItemCount(),
		Totals:          totals,
		PayableText:     utils.FormatVND(totals.Payable),
		AssignedStaffID: b.AssignedStaffID,
		ContractID:      b.ContractID,
	}
}

type bookingDetailView struct {
	Booking     bookingView      `json:"booking"`
	Inspections []inspectionView `json:"inspections"`
	Actions     []service.Action `json:"actions"`
}

type inspectionView struct {
	ID                string                  `json:"id"`
	Type              status.InspectionView   `json:"type"`
	PerformedByUserID string                  `json:"performedByUserId"`
	BranchID          string                  `json:"branchId"`
	Notes             string                  `json:"notes"`
	Items             []domain.InspectionItem `json:"items"`
	PassedCount       int                     `json:"passedCount"`
	PassRate          float64                 `json:"passRate"`
	CreatedAt         domain.Timestamp        `json:"createdAt"`
}

func newInspectionView(in domain.Inspection) inspectionView {
	items := in.Items
	if items == nil {
		items = []domain.InspectionItem{}
	}
	return inspectionView{
		ID:                in.ID,
		Type:              status.MapInspectionType(int(in.Type)),
		PerformedByUserID: in.PerformedByUserID,
		BranchID:          in.BranchID,
		Notes:             in.Notes,
		Items:             items,
		PassedCount:       in.PassedCount(),
		PassRate:          in.PassRate(),
		CreatedAt:         in.CreatedAt,
	}
}

func newInspectionViews(list []domain.Inspection) []inspectionView {
	return lo.Map(list, func(in domain.Inspection, _ int) inspectionView { return newInspectionView(in) })
}

type disputeItemView struct {
	Type       domain.DisputeItemType `json:"type"`
	Amount     decimal.Decimal        `json:"amount"`
	AmountText string                 `json:"amountText"`
	Notes      string                 `json:"notes"`
	CreatedAt  domain.Timestamp       `json:"createdAt"`
}

type disputeView struct {
	ID             string              `json:"id"`
	BookingID      string              `json:"bookingId"`
	Title          string              `json:"title"`
	Description    string              `json:"description"`
	Status         status.DisputeView  `json:"status"`
	Severity       status.SeverityView `json:"severity"`
	Items          []disputeItemView   `json:"items"`
	TotalAmount    decimal.Decimal     `json:"totalAmount"`
	TotalText      string              `json:"totalText"`
	CanAppendItems bool                `json:"canAppendItems"`
	CreatedAt      domain.Timestamp    `json:"createdAt"`
	ResolvedAt     domain.Timestamp    `json:"resolvedAt"`
}

func newDisputeView(d *domain.Dispute) disputeView {
	return disputeView{
		ID:          d.ID,
		BookingID:   d.BookingID,
		Title:       d.Title,
		Description: d.Description,
		Status:      status.MapDisputeStatus(d.RawStatus.Value()),
		Severity:    status.MapSeverity(d.Severity),
		Items: lo.Map(d.Items, func(it domain.DisputeItem, _ int) disputeItemView {
			return disputeItemView{
				Type:       it.Type,
				Amount:     it.Amount,
				AmountText: utils.FormatVND(it.Amount),
				Notes:      it.Notes,
				CreatedAt:  it.CreatedAt,
			}
		}),
		TotalAmount:    d.TotalAmount,
		TotalText:      utils.FormatVND(d.TotalAmount),
		CanAppendItems: d.CanAppendItems(),
		CreatedAt:      d.CreatedAt,
		ResolvedAt:     d.ResolvedAt,
	}
}

type cartView struct {
	ID           string          `json:"id,omitempty"`
	Items        []itemView      `json:"items"`
	ItemCount    int             `json:"itemCount"`
	DailyTotal   decimal.Decimal `json:"dailyTotal"`
	DailyTotalVN string          `json:"dailyTotalText"`
}

func newCartView(c *domain.Cart) cartView {
	daily := utils.EstimateRental(c.Items, 1)
	return cartView{
		ID:           c.ID,
		Items:        lo.Map(c.Items, func(it domain.BookingItem, _ int) itemView { return newItemView(it) }),
		ItemCount:    c.ItemCount(),
		DailyTotal:   daily,
		DailyTotalVN: utils.FormatVND(daily),
	}
}

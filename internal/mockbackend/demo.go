package mockbackend

import (
	"time"

	"github.com/shopspring/decimal"

	"camrent-web/internal/domain"
	"camrent-web/internal/security"
)

// Demo accounts. Passwords are for local use only.
var (
	DemoRenter  = User{ID: "u-renter", Email: "renter@camrent.vn", Password: "renter123", FullName: "Nguyễn Văn An", Roles: []string{"Renter"}}
	DemoStaff   = User{ID: "u-staff", Email: "staff@camrent.vn", Password: "staff123", FullName: "Trần Thị Bình", Roles: []string{"Staff"}}
	DemoManager = User{ID: "u-manager", Email: "manager@camrent.vn", Password: "manager123", FullName: "Lê Quốc Cường", Roles: []string{"Manager"}}
	DemoOwner   = User{ID: "u-owner", Email: "owner@camrent.vn", Password: "owner123", FullName: "Phạm Minh Đức", Roles: []string{"Owner"}}
)

func vnd(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

// Demo returns a server seeded with one booking per interesting lifecycle
// state, times relative to now.
func Demo(tokens security.TokenManager, now time.Time) *Server {
	s := New(tokens)

	for _, u := range []User{DemoRenter, DemoStaff, DemoManager, DemoOwner} {
		s.AddUser(u)
	}
	s.AddStaff(domain.Staff{ID: DemoStaff.ID, FullName: DemoStaff.FullName, Email: DemoStaff.Email, BranchID: "br-hcm"})
	s.AddStaff(domain.Staff{ID: DemoManager.ID, FullName: DemoManager.FullName, Email: DemoManager.Email, BranchID: "br-hcm"})
	s.AddBranch(domain.Branch{ID: "br-hcm", Name: "CamRent Quận 1", Address: "12 Lê Lợi, Quận 1, TP.HCM"})
	s.AddBranch(domain.Branch{ID: "br-hn", Name: "CamRent Hoàn Kiếm", Address: "5 Tràng Tiền, Hoàn Kiếm, Hà Nội"})

	s.AddCamera(domain.Camera{ID: "cam-a7iv", Name: "Alpha 7 IV", Brand: "Sony", Model: "ILCE-7M4", BaseDailyRate: vnd(500000)})
	s.AddCamera(domain.Camera{ID: "cam-r6", Name: "EOS R6 Mark II", Brand: "Canon", BaseDailyRate: vnd(450000)})
	s.AddAccessory(domain.Accessory{ID: "acc-2470", Name: "FE 24-70mm f/2.8 GM II", Brand: "Sony", BaseDailyRate: vnd(250000)})
	s.AddAccessory(domain.Accessory{ID: "acc-bat", Name: "NP-FZ100", Brand: "Sony", BaseDailyRate: vnd(30000)})
	s.AddCombo(domain.Combo{ID: "combo-vlog", Name: "Combo Vlog", BaseDailyRate: vnd(700000)})

	day := 24 * time.Hour
	a7 := domain.BookingItem{ItemID: "cam-a7iv", ItemType: domain.ItemTypeCamera, UnitPrice: vnd(500000), Quantity: 1, DepositAmount: vnd(5000000)}
	lens := domain.BookingItem{ItemID: "acc-2470", ItemType: domain.ItemTypeAccessory, UnitPrice: vnd(250000), Quantity: 1, DepositAmount: vnd(2000000)}
	bat := domain.BookingItem{ItemID: "acc-bat", ItemType: domain.ItemTypeAccessory, UnitPrice: vnd(30000), Quantity: 2}
	r6 := domain.BookingItem{ItemID: "cam-r6", ItemType: domain.ItemTypeCamera, UnitPrice: vnd(450000), Quantity: 1, DepositAmount: vnd(4000000)}
	vlog := domain.BookingItem{ItemID: "combo-vlog", ItemType: domain.ItemTypeCombo, UnitPrice: vnd(700000), Quantity: 1, DepositAmount: vnd(6000000)}

	booking := func(id string, st domain.BookingStatus, pickup time.Time, days int, items ...domain.BookingItem) domain.Booking {
		rental := decimal.Zero
		deposit := decimal.Zero
		daily := decimal.Zero
		for _, it := range items {
			daily = daily.Add(it.LineTotal())
			deposit = deposit.Add(it.DepositAmount)
		}
		rental = daily.Mul(decimal.NewFromInt(int64(days)))
		return domain.Booking{
			ID:                         id,
			RenterID:                   DemoRenter.ID,
			RenterName:                 DemoRenter.FullName,
			Status:                     st,
			PickupAt:                   domain.NewTimestamp(pickup),
			ReturnAt:                   domain.NewTimestamp(pickup.Add(time.Duration(days) * day)),
			CreatedAt:                  domain.NewTimestamp(pickup.Add(-3 * day)),
			Items:                      items,
			SnapshotRentalTotal:        rental,
			SnapshotDepositAmount:      deposit,
			SnapshotBaseDailyRate:      daily,
			SnapshotPlatformFeePercent: decimal.NewFromInt(10),
			SnapshotDepositPercent:     decimal.NewFromInt(30),
		}
	}

	pending := booking("bk-pending", domain.BookingStatusPendingApproval, now.Add(5*day), 2, r6)
	confirmed := booking("bk-confirmed", domain.BookingStatusConfirmed, now.Add(2*day), 3, a7, lens)
	delivered := booking("bk-delivered", domain.BookingStatusDelivered, now.Add(-2*day), 4, vlog, bat)
	delivered.AssignedStaffID = DemoStaff.ID
	late := booking("bk-late", domain.BookingStatusInProgress, now.Add(-5*day), 2, r6)
	late.AssignedStaffID = DemoStaff.ID
	completed := booking("bk-completed", domain.BookingStatusCompleted, now.Add(-20*day), 3, a7)
	completed.AssignedStaffID = DemoStaff.ID
	for _, b := range []domain.Booking{pending, confirmed, delivered, late, completed} {
		s.AddBooking(b)
	}

	s.AddInspection(domain.Inspection{
		ID:                "insp-delivered-in",
		BookingID:         delivered.ID,
		Type:              domain.InspectionTypeCheckIn,
		PerformedByUserID: DemoStaff.ID,
		BranchID:          "br-hcm",
		Items: []domain.InspectionItem{
			{Section: "Thân máy", Label: "Vỏ ngoài", Value: "Không trầy", Passed: true},
			{Section: "Ống kính", Label: "Tròng kính", Value: "Sạch", Passed: true},
		},
		CreatedAt: domain.NewTimestamp(now.Add(-2 * day)),
	})
	s.AddDispute(domain.Dispute{
		ID:          "dsp-completed",
		BookingID:   completed.ID,
		Title:       "Trầy màn hình LCD",
		Description: "Màn hình có vết trầy dài 2cm khi nhận lại.",
		Severity:    domain.SeverityHigh,
		Status:      domain.DisputeStatusOpen,
		Items: []domain.DisputeItem{
			{ID: "dsp-item-1", Type: domain.DisputeItemTypeMoney, Amount: vnd(800000), Notes: "Thay kính bảo vệ", CreatedAt: domain.NewTimestamp(now.Add(-15 * day))},
		},
		CreatedAt: domain.NewTimestamp(now.Add(-16 * day)),
	})

	s.SetCart(DemoRenter.ID, domain.Cart{ID: "cart-renter", Items: []domain.BookingItem{a7, bat}})
	return s
}

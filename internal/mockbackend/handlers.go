package mockbackend

import (
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"camrent-web/internal/domain"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeProblem answers with the problem-details shape the real backend uses.
func writeProblem(w http.ResponseWriter, status int, title string) {
	w.Header().Set("Content-Type", "application/problem+json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"title": title, "status": status})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeProblem(w, http.StatusBadRequest, "One or more validation errors occurred.")
		return false
	}
	return true
}

type loginBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body loginBody
	if !decodeBody(w, r, &body) {
		return
	}
	s.mu.Lock()
	u, ok := s.users[strings.ToLower(strings.TrimSpace(body.Email))]
	s.mu.Unlock()
	if !ok || u.Password != body.Password {
		writeProblem(w, http.StatusUnauthorized, "Sai email hoặc mật khẩu")
		return
	}

	token, expiresAt, err := s.tokens.GenerateAccessToken(u.ID, u.Email, u.FullName, u.Roles)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, err.Error())
		return
	}
	refresh, err := s.tokens.GenerateRefreshToken(u.ID)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, domain.LoginResult{
		Token:        token,
		RefreshToken: refresh,
		ExpiresAt:    domain.NewTimestamp(expiresAt),
		FullName:     u.FullName,
		Email:        u.Email,
		Roles:        u.Roles,
	})
}

// wireBooking renders b with its status as a number or as text, matching
// the endpoint it is served from.
func wireBooking(b *domain.Booking, textStatus bool) domain.Booking {
	cp := *b
	cp.Items = slices.Clone(b.Items)
	if textStatus {
		cp.RawStatus = domain.RawText(b.Status.String())
	} else {
		cp.RawStatus = domain.RawNumber(int64(b.Status))
	}
	return cp
}

func (s *Server) listBookings(w http.ResponseWriter, keep func(*domain.Booking) bool, textStatus bool) {
	s.mu.Lock()
	out := []domain.Booking{}
	for _, id := range s.order {
		b := s.bookings[id]
		if keep(b) {
			out = append(out, wireBooking(b, textStatus))
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

// handleListBookings serves the caller's own bookings; staff-side roles see
// every booking.
func (s *Server) handleListBookings(w http.ResponseWriter, r *http.Request) {
	c := callerOf(r)
	renterOnly := !lo.Some(c.Roles, []string{"Staff", "Manager", "Owner"})
	s.listBookings(w, func(b *domain.Booking) bool {
		return !renterOnly || b.RenterID == c.UserID
	}, false)
}

// handleStaffBookings lists unassigned bookings plus the caller's own;
// managers and owners see the whole desk.
func (s *Server) handleStaffBookings(w http.ResponseWriter, r *http.Request) {
	c := callerOf(r)
	desk := lo.Some(c.Roles, []string{"Manager", "Owner"})
	s.listBookings(w, func(b *domain.Booking) bool {
		return desk || b.AssignedStaffID == "" || b.AssignedStaffID == c.UserID
	}, true)
}

func (s *Server) handleOwnerRenterBookings(w http.ResponseWriter, _ *http.Request) {
	s.listBookings(w, func(b *domain.Booking) bool {
		return b.Status != domain.BookingStatusDraft
	}, false)
}

func (s *Server) handleCart(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	cart, ok := s.carts[callerOf(r).UserID]
	s.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusOK, domain.Cart{Items: []domain.BookingItem{}})
		return
	}
	writeJSON(w, http.StatusOK, cart)
}

// handleGetBooking embeds the product sub-objects, as the detail endpoint
// does.
func (s *Server) handleGetBooking(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[mux.Vars(r)["id"]]
	if !ok {
		writeProblem(w, http.StatusNotFound, "Booking not found")
		return
	}
	out := wireBooking(b, false)
	for i := range out.Items {
		it := &out.Items[i]
		switch it.ItemType {
		case domain.ItemTypeCamera:
			if p, ok := s.cameras[it.ItemID]; ok {
				it.Product = p
			}
		case domain.ItemTypeAccessory:
			if p, ok := s.accessories[it.ItemID]; ok {
				it.Product = p
			}
		case domain.ItemTypeCombo:
			if p, ok := s.combos[it.ItemID]; ok {
				it.Product = p
			}
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// advance moves b through each status in path, refusing the whole walk if
// any step is not allowed. Callers hold s.mu.
func advance(b *domain.Booking, path ...domain.BookingStatus) error {
	cur := b.Status
	for _, next := range path {
		if !domain.CanTransition(cur, next) {
			return fmt.Errorf("Không thể chuyển trạng thái từ %s sang %s", cur, next)
		}
		cur = next
	}
	b.Status = cur
	return nil
}

func (s *Server) handleComplete(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[mux.Vars(r)["id"]]
	if !ok {
		writeProblem(w, http.StatusNotFound, "Booking not found")
		return
	}
	if !s.hasInspection(b.ID, domain.InspectionTypeCheckOut) {
		writeProblem(w, http.StatusBadRequest, "Cần kiểm tra trả máy trước khi hoàn tất")
		return
	}
	if err := advance(b, domain.BookingStatusCompleted); err != nil {
		writeProblem(w, http.StatusBadRequest, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleCreateDelivery assigns the staff member. Assigning the same person
// twice is refused, so retries never create duplicates.
func (s *Server) handleCreateDelivery(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateDeliveryRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[req.BookingID]
	if !ok {
		writeProblem(w, http.StatusNotFound, "Booking not found")
		return
	}
	if req.AssigneeUserID == "" || !lo.ContainsBy(s.staff, func(st domain.Staff) bool { return st.ID == req.AssigneeUserID }) {
		writeProblem(w, http.StatusBadRequest, "Nhân viên không tồn tại")
		return
	}
	if b.AssignedStaffID == req.AssigneeUserID {
		writeProblem(w, http.StatusConflict, "Đơn đã được phân công cho nhân viên này")
		return
	}
	switch b.Status {
	case domain.BookingStatusConfirmed:
		if err := advance(b, domain.BookingStatusInProgress); err != nil {
			writeProblem(w, http.StatusBadRequest, err.Error())
			return
		}
	case domain.BookingStatusInProgress:
	default:
		writeProblem(w, http.StatusBadRequest, "Đơn chưa thể phân công giao hàng")
		return
	}
	b.AssignedStaffID = req.AssigneeUserID

	d := domain.Delivery{
		ID:             uuid.NewString(),
		BookingID:      req.BookingID,
		AssigneeUserID: req.AssigneeUserID,
		TrackingCode:   req.TrackingCode,
		Notes:          req.Notes,
		DeliveryFee:    req.DeliveryFee,
		CreatedAt:      domain.NewTimestamp(s.now()),
	}
	s.deliveries = append(s.deliveries, d)
	writeJSON(w, http.StatusCreated, d)
}

func (s *Server) handleCreateContract(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateContractRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[req.BookingID]
	if !ok {
		writeProblem(w, http.StatusNotFound, "Booking not found")
		return
	}
	if b.Status != domain.BookingStatusConfirmed || b.ContractID != "" {
		writeProblem(w, http.StatusBadRequest, "Không thể tạo hợp đồng cho đơn này")
		return
	}
	b.ContractID = uuid.NewString()
	writeJSON(w, http.StatusCreated, domain.Contract{
		ID:        b.ContractID,
		BookingID: b.ID,
		CreatedAt: domain.NewTimestamp(s.now()),
	})
}

func (s *Server) handleGetCamera(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	p, ok := s.cameras[mux.Vars(r)["id"]]
	s.mu.Unlock()
	if !ok {
		writeProblem(w, http.StatusNotFound, "Camera not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleGetAccessory(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	p, ok := s.accessories[mux.Vars(r)["id"]]
	s.mu.Unlock()
	if !ok {
		writeProblem(w, http.StatusNotFound, "Accessory not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleGetCombo(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	p, ok := s.combos[mux.Vars(r)["id"]]
	s.mu.Unlock()
	if !ok {
		writeProblem(w, http.StatusNotFound, "Combo not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// handleBranches wraps its payload in a data envelope; some backend
// endpoints do.
func (s *Server) handleBranches(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	out := slices.Clone(s.branches)
	s.mu.Unlock()
	if out == nil {
		out = []domain.Branch{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": out})
}

func (s *Server) handleStaff(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	out := slices.Clone(s.staff)
	s.mu.Unlock()
	if out == nil {
		out = []domain.Staff{}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) hasInspection(bookingID string, t domain.InspectionType) bool {
	return lo.ContainsBy(s.inspections, func(in domain.Inspection) bool {
		return in.BookingID == bookingID && in.Type == t
	})
}

// handleCreateInspection allows one inspection of each type per booking.
// A check-in hands the equipment over, so the booking moves on to
// Delivered.
func (s *Server) handleCreateInspection(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateInspectionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bookings[req.BookingID]
	if !ok {
		writeProblem(w, http.StatusNotFound, "Booking not found")
		return
	}
	if !req.Type.Valid() || len(req.Items) == 0 {
		writeProblem(w, http.StatusBadRequest, "One or more validation errors occurred.")
		return
	}
	if !lo.ContainsBy(s.branches, func(br domain.Branch) bool { return br.ID == req.BranchID }) {
		writeProblem(w, http.StatusBadRequest, "Chi nhánh không tồn tại")
		return
	}
	if req.PerformedByUserID != callerOf(r).UserID {
		writeProblem(w, http.StatusForbidden, "performedByUserId does not match the token")
		return
	}
	if s.hasInspection(b.ID, req.Type) {
		writeProblem(w, http.StatusConflict, fmt.Sprintf("Đơn đã có biên bản %s", req.Type))
		return
	}

	switch req.Type {
	case domain.InspectionTypeCheckIn:
		if b.Status == domain.BookingStatusInProgress {
			if err := advance(b, domain.BookingStatusDelivering, domain.BookingStatusDelivered); err != nil {
				writeProblem(w, http.StatusBadRequest, err.Error())
				return
			}
		}
	case domain.InspectionTypeCheckOut:
		if b.Status != domain.BookingStatusDelivered && b.Status != domain.BookingStatusOverdue {
			writeProblem(w, http.StatusBadRequest, "Đơn chưa giao, không thể kiểm tra trả máy")
			return
		}
	}

	items := slices.Clone(req.Items)
	if items == nil {
		items = []domain.InspectionItem{}
	}
	s.inspections = append(s.inspections, domain.Inspection{
		ID:                uuid.NewString(),
		BookingID:         req.BookingID,
		Type:              req.Type,
		PerformedByUserID: req.PerformedByUserID,
		BranchID:          req.BranchID,
		Notes:             req.Notes,
		Items:             items,
		CreatedAt:         domain.NewTimestamp(s.now()),
	})
	w.WriteHeader(http.StatusCreated)
}

// handleListInspections returns newest first; clients sort for display.
func (s *Server) handleListInspections(w http.ResponseWriter, r *http.Request) {
	bookingID := r.URL.Query().Get("bookingId")
	s.mu.Lock()
	out := lo.Filter(s.inspections, func(in domain.Inspection, _ int) bool { return in.BookingID == bookingID })
	s.mu.Unlock()
	slices.Reverse(out)
	writeJSON(w, http.StatusOK, out)
}

// handleCreateDispute answers with the bare id as text.
func (s *Server) handleCreateDispute(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateDisputeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Description) == "" {
		writeProblem(w, http.StatusBadRequest, "One or more validation errors occurred.")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bookings[req.BookingID]; !ok {
		writeProblem(w, http.StatusNotFound, "Booking not found")
		return
	}
	sev := req.Severity
	if sev == "" {
		sev = domain.SeverityMedium
	}
	d := &domain.Dispute{
		ID:          uuid.NewString(),
		BookingID:   req.BookingID,
		Title:       req.Title,
		Description: req.Description,
		Severity:    sev,
		Status:      domain.DisputeStatusOpen,
		Items:       []domain.DisputeItem{},
		TotalAmount: decimal.Zero,
		CreatedAt:   domain.NewTimestamp(s.now()),
	}
	s.disputes[d.ID] = d
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(d.ID))
}

func wireDispute(d *domain.Dispute) domain.Dispute {
	cp := *d
	cp.Items = slices.Clone(d.Items)
	cp.RawStatus = domain.RawNumber(int64(d.Status))
	return cp
}

func (s *Server) handleGetDispute(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	d, ok := s.disputes[mux.Vars(r)["id"]]
	var out domain.Dispute
	if ok {
		out = wireDispute(d)
	}
	s.mu.Unlock()
	if !ok {
		writeProblem(w, http.StatusNotFound, "Dispute not found")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDisputesByBooking(w http.ResponseWriter, r *http.Request) {
	bookingID := mux.Vars(r)["id"]
	s.mu.Lock()
	out := []domain.Dispute{}
	for _, d := range s.disputes {
		if d.BookingID == bookingID {
			out = append(out, wireDispute(d))
		}
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt.Time) })
	writeJSON(w, http.StatusOK, out)
}

// handleAddDisputeItem appends while the dispute is not terminal and
// recomputes the total.
func (s *Server) handleAddDisputeItem(w http.ResponseWriter, r *http.Request) {
	var req domain.AddDisputeItemRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.disputes[mux.Vars(r)["id"]]
	if !ok {
		writeProblem(w, http.StatusNotFound, "Dispute not found")
		return
	}
	if d.Status.IsTerminal() {
		writeProblem(w, http.StatusBadRequest, "Tranh chấp đã đóng, không thể thêm khoản bồi thường")
		return
	}
	if !req.Amount.IsPositive() {
		writeProblem(w, http.StatusBadRequest, "Amount must be greater than 0")
		return
	}
	d.Items = append(d.Items, domain.DisputeItem{
		ID:        uuid.NewString(),
		Type:      req.Type,
		Amount:    req.Amount,
		Notes:     req.Notes,
		CreatedAt: domain.NewTimestamp(s.now()),
	})
	d.TotalAmount = d.PreviewTotal()
	if d.Status == domain.DisputeStatusOpen {
		d.Status = domain.DisputeStatusInProgress
	}
	w.WriteHeader(http.StatusCreated)
}

func (s *Server) handleResolveDispute(w http.ResponseWriter, r *http.Request) {
	s.closeDispute(w, r, domain.DisputeStatusResolved)
}

func (s *Server) handleRejectDispute(w http.ResponseWriter, r *http.Request) {
	s.closeDispute(w, r, domain.DisputeStatusClosed)
}

func (s *Server) closeDispute(w http.ResponseWriter, r *http.Request, to domain.DisputeStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.disputes[mux.Vars(r)["id"]]
	if !ok {
		writeProblem(w, http.StatusNotFound, "Dispute not found")
		return
	}
	if !domain.CanTransitionDispute(d.Status, to) {
		writeProblem(w, http.StatusBadRequest, fmt.Sprintf("Không thể chuyển tranh chấp sang %s", to))
		return
	}
	d.Status = to
	d.ResolvedAt = domain.NewTimestamp(s.now())
	w.WriteHeader(http.StatusNoContent)
}

package http

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"camrent-web/internal/domain"
	"camrent-web/internal/service"
	"camrent-web/internal/session"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// handleLogin always starts a fresh session id; a previous cookie's session
// is dropped once the new one exists.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	sc := session.New(s.store, uuid.NewString())
	sess, err := s.svc.Auth.Login(r.Context(), sc, req.Email, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if old, ok := session.FromContext(r.Context()); ok {
		_ = s.svc.Auth.Logout(r.Context(), old)
	}

	s.setCookie(w, sc.Key(), sess.ExpiresAt)
	writeJSON(w, http.StatusOK, newSessionView(sess))
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if sc, ok := session.FromContext(r.Context()); ok {
		if err := s.svc.Auth.Logout(r.Context(), sc); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	s.clearCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newSessionView(currentSession(r.Context())))
}

func (s *Server) handleCart(w http.ResponseWriter, r *http.Request) {
	cart, err := s.svc.Bookings.GetCart(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newCartView(cart))
}

func (s *Server) handleListBookings(w http.ResponseWriter, r *http.Request) {
	scope, err := domain.ParseBookingScope(r.URL.Query().Get("scope"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	list, err := s.svc.Bookings.ListBookings(r.Context(), scope)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	now := s.now()
	views := make([]bookingView, 0, len(list))
	for i := range list {
		views = append(views, newBookingView(&list[i], now))
	}
	writeJSON(w, http.StatusOK, views)
}

// handleGetBooking loads the booking and its inspection history side by side
// and derives what the caller may do next.
func (s *Server) handleGetBooking(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	detail, err := s.bookingDetail(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) bookingDetail(ctx context.Context, id string) (*bookingDetailView, error) {
	var (
		b           *domain.Booking
		inspections []domain.Inspection
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		b, err = s.svc.Bookings.GetBooking(gctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		inspections, err = s.svc.Inspections.ListInspectionsForBooking(gctx, id)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var role domain.Role
	if sess := currentSession(ctx); sess != nil {
		role = sess.Role
	}
	now := s.now()
	return &bookingDetailView{
		Booking:     newBookingView(b, now),
		Inspections: newInspectionViews(inspections),
		Actions:     s.svc.Bookings.NextActions(b, role, inspections, now),
	}, nil
}

type assignRequest struct {
	StaffID     string          `json:"staffId"`
	Notes       string          `json:"notes"`
	DeliveryFee decimal.Decimal `json:"deliveryFee"`
}

func (s *Server) handleAssign(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req assignRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	v, err := s.sequenced(r, id, req, func(ctx context.Context) (any, error) {
		b, err := s.svc.Bookings.AssignStaff(ctx, service.AssignRequest{
			BookingID:   id,
			StaffID:     req.StaffID,
			Notes:       req.Notes,
			DeliveryFee: req.DeliveryFee,
		})
		if err != nil {
			return nil, err
		}
		return newBookingView(b, s.now()), nil
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

type contractRequest struct {
	Notes string `json:"notes"`
}

func (s *Server) handleContract(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req contractRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	v, err := s.sequenced(r, id, req, func(ctx context.Context) (any, error) {
		b, err := s.svc.Bookings.CreateContract(ctx, id, req.Notes)
		if err != nil {
			return nil, err
		}
		return newBookingView(b, s.now()), nil
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

func (s *Server) handleComplete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	v, err := s.sequenced(r, id, nil, func(ctx context.Context) (any, error) {
		b, err := s.svc.Bookings.CompleteBooking(ctx, id)
		if err != nil {
			return nil, err
		}
		return newBookingView(b, s.now()), nil
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleStaff(w http.ResponseWriter, r *http.Request) {
	staff, err := s.svc.Bookings.ListStaff(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, staff)
}

func (s *Server) handleListInspections(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Inspections.ListInspectionsForBooking(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newInspectionViews(list))
}

// handleCreateInspection answers with the booking's refreshed inspection
// history so the dashboard shows what the server stored.
func (s *Server) handleCreateInspection(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateInspectionRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	v, err := s.sequenced(r, req.BookingID, req, func(ctx context.Context) (any, error) {
		if err := s.svc.Inspections.CreateInspection(ctx, req); err != nil {
			return nil, err
		}
		list, err := s.svc.Inspections.ListInspectionsForBooking(ctx, req.BookingID)
		if err != nil {
			return nil, err
		}
		return newInspectionViews(list), nil
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

func (s *Server) handleBranches(w http.ResponseWriter, r *http.Request) {
	branches, err := s.svc.Inspections.ListBranches(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, branches)
}

func (s *Server) handleDisputesByBooking(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Disputes.GetDisputesByBooking(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	views := make([]disputeView, 0, len(list))
	for i := range list {
		views = append(views, newDisputeView(&list[i]))
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleGetDispute(w http.ResponseWriter, r *http.Request) {
	d, err := s.svc.Disputes.GetDisputeByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newDisputeView(d))
}

type createdResponse struct {
	ID string `json:"id"`
}

func (s *Server) handleCreateDispute(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateDisputeRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	v, err := s.sequenced(r, req.BookingID, req, func(ctx context.Context) (any, error) {
		id, err := s.svc.Disputes.CreateDispute(ctx, req)
		if err != nil {
			return nil, err
		}
		return createdResponse{ID: id}, nil
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

type disputeItemRequest struct {
	Type   string          `json:"type"`
	Amount decimal.Decimal `json:"amount"`
	Notes  string          `json:"notes"`
}

func (s *Server) handleAddDisputeItem(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req disputeItemRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	v, err := s.sequenced(r, id, req, func(ctx context.Context) (any, error) {
		d, err := s.svc.Disputes.AddDisputeItem(ctx, id, domain.AddDisputeItemRequest{
			Type:   domain.DisputeItemType(req.Type),
			Amount: req.Amount,
			Notes:  req.Notes,
		})
		if err != nil {
			return nil, err
		}
		return newDisputeView(d), nil
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleResolveDispute(w http.ResponseWriter, r *http.Request) {
	s.closeDispute(w, r, s.svc.Disputes.ResolveDispute)
}

func (s *Server) handleRejectDispute(w http.ResponseWriter, r *http.Request) {
	s.closeDispute(w, r, s.svc.Disputes.RejectDispute)
}

func (s *Server) closeDispute(w http.ResponseWriter, r *http.Request, op func(context.Context, string) (*domain.Dispute, error)) {
	id := mux.Vars(r)["id"]
	v, err := s.sequenced(r, id, nil, func(ctx context.Context) (any, error) {
		d, err := op(ctx, id)
		if err != nil {
			return nil, err
		}
		return newDisputeView(d), nil
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// Package mockbackend is an in-memory stand-in for the rental REST backend.
// It speaks the same paths and payload shapes, issues signed tokens on
// login and enforces the booking lifecycle with domain.CanTransition.
package mockbackend

import (
	"context"
	"net/http"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"

	"camrent-web/internal/domain"
	"camrent-web/internal/logger"
	"camrent-web/internal/security"
)

// User is a login the mock accepts.
type User struct {
	ID       string
	Email    string
	Password string
	FullName string
	Roles    []string
}

type Server struct {
	tokens security.TokenManager
	now    func() time.Time

	mu          sync.Mutex
	users       map[string]User
	bookings    map[string]*domain.Booking
	order       []string
	cameras     map[string]*domain.Camera
	accessories map[string]*domain.Accessory
	combos      map[string]*domain.Combo
	branches    []domain.Branch
	staff       []domain.Staff
	deliveries  []domain.Delivery
	inspections []domain.Inspection
	disputes    map[string]*domain.Dispute
	carts       map[string]*domain.Cart

	requests atomic.Int64
}

func New(tokens security.TokenManager) *Server {
	return &Server{
		tokens:      tokens,
		now:         time.Now,
		users:       make(map[string]User),
		bookings:    make(map[string]*domain.Booking),
		cameras:     make(map[string]*domain.Camera),
		accessories: make(map[string]*domain.Accessory),
		combos:      make(map[string]*domain.Combo),
		disputes:    make(map[string]*domain.Dispute),
		carts:       make(map[string]*domain.Cart),
	}
}

// SetNow pins the clock used for createdAt stamps.
func (s *Server) SetNow(fn func() time.Time) { s.now = fn }

func (s *Server) AddUser(u User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[strings.ToLower(u.Email)] = u
}

// AddBooking stores b under its canonical Status. Items keep only their ids
// so list responses need enrichment, as the real backend's do.
func (s *Server) AddBooking(b domain.Booking) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := b
	cp.Items = make([]domain.BookingItem, len(b.Items))
	for i, it := range b.Items {
		it.Product = nil
		cp.Items[i] = it
	}
	if _, exists := s.bookings[cp.ID]; !exists {
		s.order = append(s.order, cp.ID)
	}
	s.bookings[cp.ID] = &cp
}

func (s *Server) AddCamera(c domain.Camera) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cameras[c.ID] = &c
}

func (s *Server) AddAccessory(a domain.Accessory) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessories[a.ID] = &a
}

func (s *Server) AddCombo(c domain.Combo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.combos[c.ID] = &c
}

func (s *Server) AddBranch(b domain.Branch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.branches = append(s.branches, b)
}

func (s *Server) AddStaff(st domain.Staff) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.staff = append(s.staff, st)
}

// AddInspection records an inspection as if it had been submitted.
func (s *Server) AddInspection(in domain.Inspection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inspections = append(s.inspections, in)
}

// AddDispute stores d under its canonical Status.
func (s *Server) AddDispute(d domain.Dispute) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d.Items == nil {
		d.Items = []domain.DisputeItem{}
	}
	d.TotalAmount = d.PreviewTotal()
	s.disputes[d.ID] = &d
}

// SetCart gives userID a draft cart.
func (s *Server) SetCart(userID string, c domain.Cart) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.carts[userID] = &c
}

// Booking returns a copy of the stored booking.
func (s *Server) Booking(id string) (domain.Booking, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return domain.Booking{}, false
	}
	return *b, true
}

// RequestCount is the number of requests served so far.
func (s *Server) RequestCount() int64 { return s.requests.Load() }

func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(s.countMiddleware)

	r.HandleFunc("/Auths/Login", s.handleLogin).Methods(http.MethodPost)

	api := r.NewRoute().Subrouter()
	api.Use(s.authMiddleware)
	api.HandleFunc("/Bookings", s.handleListBookings).Methods(http.MethodGet)
	api.HandleFunc("/Bookings/staffbookings", s.handleStaffBookings).Methods(http.MethodGet)
	api.HandleFunc("/Bookings/owner-renters", s.handleOwnerRenterBookings).Methods(http.MethodGet)
	api.HandleFunc("/Bookings/GetCard", s.handleCart).Methods(http.MethodGet)
	api.HandleFunc("/Bookings/{id}", s.handleGetBooking).Methods(http.MethodGet)
	api.HandleFunc("/Bookings/{id}/complete", s.handleComplete).Methods(http.MethodPut)
	api.HandleFunc("/Deliveries", s.handleCreateDelivery).Methods(http.MethodPost)
	api.HandleFunc("/Contracts", s.handleCreateContract).Methods(http.MethodPost)

	api.HandleFunc("/Cameras/{id}", s.handleGetCamera).Methods(http.MethodGet)
	api.HandleFunc("/Accessories/{id}", s.handleGetAccessory).Methods(http.MethodGet)
	api.HandleFunc("/Combos/{id}", s.handleGetCombo).Methods(http.MethodGet)
	api.HandleFunc("/Branches", s.handleBranches).Methods(http.MethodGet)
	api.HandleFunc("/Staffs", s.handleStaff).Methods(http.MethodGet)

	api.HandleFunc("/Inspections", s.handleCreateInspection).Methods(http.MethodPost)
	api.HandleFunc("/Inspections", s.handleListInspections).Methods(http.MethodGet)

	api.HandleFunc("/Disputes", s.handleCreateDispute).Methods(http.MethodPost)
	api.HandleFunc("/Disputes/by-booking/{id}", s.handleDisputesByBooking).Methods(http.MethodGet)
	api.HandleFunc("/Disputes/{id}", s.handleGetDispute).Methods(http.MethodGet)
	api.HandleFunc("/Disputes/{id}/items", s.handleAddDisputeItem).Methods(http.MethodPost)
	api.HandleFunc("/Disputes/{id}/resolved", s.handleResolveDispute).Methods(http.MethodPut)
	api.HandleFunc("/Disputes/{id}/rejected", s.handleRejectDispute).Methods(http.MethodPut)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeProblem(w, http.StatusNotFound, "Not Found")
	})
	return r
}

func (s *Server) countMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.requests.Add(1)
		logger.Debug("mock backend request", "method", r.Method, "path", r.URL.Path,
			"correlation_id", r.Header.Get("X-Correlation-ID"))
		next.ServeHTTP(w, r)
	})
}

type claimsKey struct{}

// authMiddleware verifies the bearer token the way the real backend does;
// anything missing, malformed or expired is a 401.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := r.Header.Get("Authorization")
		if len(h) < 8 || !strings.EqualFold(h[:7], "Bearer ") {
			writeProblem(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		claims, err := s.tokens.ValidateToken(strings.TrimSpace(h[7:]))
		if err != nil || slices.Contains(claims.Audience, "token-refresh") {
			writeProblem(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey{}, claims)))
	})
}

func callerOf(r *http.Request) *security.BackendClaims {
	c, _ := r.Context().Value(claimsKey{}).(*security.BackendClaims)
	return c
}

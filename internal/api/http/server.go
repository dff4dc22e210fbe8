package http

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/singleflight"

	"camrent-web/internal/config"
	"camrent-web/internal/logger"
	"camrent-web/internal/service"
	"camrent-web/internal/session"
)

// Services bundles what the handlers call. The backend client behind them
// must resolve its token from the request context (session.Ambient).
type Services struct {
	Auth        service.AuthService
	Bookings    service.BookingService
	Inspections service.InspectionService
	Disputes    service.DisputeService
}

// Server is the dashboard-facing API. It keeps no state of its own besides
// the session store and in-flight mutation tracking.
type Server struct {
	svc          Services
	store        session.Store
	cookieName   string
	cookieSecure bool
	inflight     singleflight.Group
	now          func() time.Time
}

func NewServer(cfg config.ServerConfig, store session.Store, svc Services) *Server {
	return &Server{
		svc:          svc,
		store:        store,
		cookieName:   cfg.CookieName,
		cookieSecure: cfg.CookieSecure,
		now:          time.Now,
	}
}

// Router registers every route. Route names double as keys into
// config.RouteSecurity.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	r.Use(correlationMiddleware, metricsMiddleware, s.sessionMiddleware)

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet).Name("healthz")
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet).Name("metrics")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/login", s.handleLogin).Methods(http.MethodPost).Name("login")
	api.HandleFunc("/logout", s.handleLogout).Methods(http.MethodPost).Name("logout")
	api.HandleFunc("/session", s.handleSession).Methods(http.MethodGet).Name("session")
	api.HandleFunc("/cart", s.handleCart).Methods(http.MethodGet).Name("cart")

	api.HandleFunc("/bookings", s.handleListBookings).Methods(http.MethodGet).Name("bookings.list")
	api.HandleFunc("/bookings/{id}", s.handleGetBooking).Methods(http.MethodGet).Name("bookings.get")
	api.HandleFunc("/bookings/{id}/assign", s.handleAssign).Methods(http.MethodPost).Name("bookings.assign")
	api.HandleFunc("/bookings/{id}/contract", s.handleContract).Methods(http.MethodPost).Name("bookings.contract")
	api.HandleFunc("/bookings/{id}/complete", s.handleComplete).Methods(http.MethodPost).Name("bookings.complete")
	api.HandleFunc("/bookings/{id}/inspections", s.handleListInspections).Methods(http.MethodGet).Name("inspections.list")
	api.HandleFunc("/bookings/{id}/disputes", s.handleDisputesByBooking).Methods(http.MethodGet).Name("disputes.byBooking")

	api.HandleFunc("/inspections", s.handleCreateInspection).Methods(http.MethodPost).Name("inspections.create")
	api.HandleFunc("/branches", s.handleBranches).Methods(http.MethodGet).Name("branches.list")
	api.HandleFunc("/staff", s.handleStaff).Methods(http.MethodGet).Name("staff.list")

	api.HandleFunc("/disputes", s.handleCreateDispute).Methods(http.MethodPost).Name("disputes.create")
	api.HandleFunc("/disputes/{id}", s.handleGetDispute).Methods(http.MethodGet).Name("disputes.get")
	api.HandleFunc("/disputes/{id}/items", s.handleAddDisputeItem).Methods(http.MethodPost).Name("disputes.addItem")
	api.HandleFunc("/disputes/{id}/resolve", s.handleResolveDispute).Methods(http.MethodPut).Name("disputes.resolve")
	api.HandleFunc("/disputes/{id}/reject", s.handleRejectDispute).Methods(http.MethodPut).Name("disputes.reject")

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, http.StatusNotFound, "not_found", "Không tìm thấy đường dẫn.")
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// mutationTimeout bounds a shared mutation once it no longer follows the
// request that started it.
const mutationTimeout = 30 * time.Second

// sequenced runs a mutation at most once at a time per session, route,
// resource and payload. An identical resubmit while the first is pending
// shares its result instead of reaching the backend again; a different
// payload is a different mutation and runs on its own.
//
// The shared call is detached from the starting request's cancellation so
// a client that gives up does not fail the others waiting on it.
func (s *Server) sequenced(r *http.Request, resource string, payload any, fn func(ctx context.Context) (any, error)) (any, error) {
	key := ""
	if sc, ok := session.FromContext(r.Context()); ok {
		key = sc.Key()
	}
	key += "|" + routeName(r) + "|" + resource + "|" + payloadDigest(payload)
	v, err, shared := s.inflight.Do(key, func() (any, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), mutationTimeout)
		defer cancel()
		return fn(ctx)
	})
	if shared {
		logger.FromContext(r.Context()).Debug("Duplicate submit joined pending request", "route", routeName(r), "resource", resource)
	}
	return v, err
}

// payloadDigest fingerprints a decoded request body. Bodies that decode to
// the same value share a digest.
func payloadDigest(payload any) string {
	if payload == nil {
		return ""
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		raw = []byte(fmt.Sprintf("%#v", payload))
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

func routeName(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		return route.GetName()
	}
	return ""
}

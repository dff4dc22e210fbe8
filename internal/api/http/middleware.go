package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"camrent-web/internal/config"
	"camrent-web/internal/logger"
	"camrent-web/internal/metrics"
	"camrent-web/internal/session"
)

const correlationHeader = "X-Correlation-ID"

// correlationMiddleware carries the caller's correlation id, or a fresh one,
// into the request context so backend calls reuse it.
func correlationMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(correlationHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(correlationHeader, id)
		next.ServeHTTP(w, r.WithContext(logger.WithCorrelationID(r.Context(), id)))
	})
}

// metricsMiddleware logs basic request details and latency and counts the
// response by route and status.
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := routeName(r)
		metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
		logger.FromContext(r.Context()).Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"route", route,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// sessionMiddleware enforces the route's policy. Session routes get the
// caller's session.Context attached so the backend client can find the
// bearer token and clear it on 401.
func (s *Server) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		policy := config.GetRoutePolicy(routeName(r))

		ctx := r.Context()
		if c, err := r.Cookie(s.cookieName); err == nil && c.Value != "" {
			ctx = session.NewContext(ctx, session.New(s.store, c.Value))
		}
		if policy.Level == config.SecurityPublic {
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		sc, ok := session.FromContext(ctx)
		if !ok {
			writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Vui lòng đăng nhập.")
			return
		}
		cur, err := sc.Current(ctx)
		if err != nil {
			logger.FromContext(ctx).Error("Failed to load session", "error", err)
			writeJSONError(w, http.StatusInternalServerError, "internal", "Đã có lỗi xảy ra, vui lòng thử lại sau.")
			return
		}
		if cur == nil {
			s.clearCookie(w)
			writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Phiên đăng nhập đã hết hạn, vui lòng đăng nhập lại.")
			return
		}
		if !policy.Allows(cur.Role) {
			writeJSONError(w, http.StatusForbidden, "forbidden", "Bạn không có quyền thực hiện thao tác này.")
			return
		}
		next.ServeHTTP(w, r.WithContext(withSession(ctx, cur)))
	})
}

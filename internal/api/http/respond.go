package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"camrent-web/internal/domain"
	"camrent-web/internal/logger"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
	Field string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: message, Code: code})
}

// writeError maps a service error to a status and the user-facing message.
// Unauthorized also drops the cookie; the backend client has already cleared
// the stored session.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	resp := errorResponse{Error: domain.UserMessage(err)}
	var status int

	var ve *domain.ValidationError
	var se *domain.ServerError
	switch {
	case r.Context().Err() != nil:
		// This client went away; nobody reads the answer.
		return
	case errors.As(err, &ve):
		status, resp.Code, resp.Field = http.StatusBadRequest, "validation", ve.Field
	case errors.Is(err, domain.ErrValidation):
		status, resp.Code = http.StatusBadRequest, "validation"
	case errors.Is(err, domain.ErrUnauthorized), errors.Is(err, domain.ErrMissingIdentity):
		status, resp.Code = http.StatusUnauthorized, "unauthorized"
		s.clearCookie(w)
	case errors.Is(err, domain.ErrNotFound):
		status, resp.Code = http.StatusNotFound, "not_found"
	case errors.As(err, &se) && se.StatusCode >= 400 && se.StatusCode < 500:
		// The backend refused the request; its message says why.
		status, resp.Code = http.StatusUnprocessableEntity, "rejected"
	case errors.As(err, &se):
		status, resp.Code = http.StatusBadGateway, "backend"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status, resp.Code = http.StatusGatewayTimeout, "timeout"
	default:
		status, resp.Code = http.StatusInternalServerError, "internal"
	}

	log := logger.FromContext(r.Context())
	if status >= 500 {
		log.Error("Request failed", "route", routeName(r), "status", status, "error", err)
	} else {
		log.Warn("Request rejected", "route", routeName(r), "status", status, "error", err)
	}
	writeJSON(w, status, resp)
}

// decodeBody reads a JSON body into v. A malformed body is a validation
// error.
func decodeBody(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, v); err != nil {
		return domain.NewValidationError("", "Dữ liệu gửi lên không hợp lệ.")
	}
	return nil
}

func (s *Server) setCookie(w http.ResponseWriter, value string, expires time.Time) {
	c := &http.Cookie{
		Name:     s.cookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
	if !expires.IsZero() {
		c.Expires = expires
	}
	http.SetCookie(w, c)
}

func (s *Server) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

type sessionKey struct{}

func withSession(ctx context.Context, sess *domain.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, sess)
}

// currentSession is the session loaded by the middleware. Only session
// routes have one.
func currentSession(ctx context.Context) *domain.Session {
	sess, _ := ctx.Value(sessionKey{}).(*domain.Session)
	return sess
}

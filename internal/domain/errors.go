package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized means the session token is missing, expired or was
	// refused by the backend. The local session is cleared when it surfaces.
	ErrUnauthorized    = errors.New("unauthorized")
	ErrNotFound        = errors.New("not found")
	ErrValidation      = errors.New("validation failed")
	ErrMissingIdentity = errors.New("session token carries no usable user identity")
)

// GenericErrorMessage is shown when nothing better is known.
const GenericErrorMessage = "Đã có lỗi xảy ra, vui lòng thử lại sau."

// ValidationError is raised locally, before any request is sent.
type ValidationError struct {
	Field   string
	Message string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// ServerError is a non-2xx response not classified as Unauthorized or
// NotFound. Message comes from the body's message/title when present.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server error (status %d)", e.StatusCode)
	}
	return fmt.Sprintf("server error (status %d): %s", e.StatusCode, e.Message)
}

// UserMessage turns any error from the service layer into a displayable
// string.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	var se *ServerError
	if errors.As(err, &se) && se.Message != "" {
		return se.Message
	}
	switch {
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrMissingIdentity):
		return "Phiên đăng nhập đã hết hạn, vui lòng đăng nhập lại."
	case errors.Is(err, ErrNotFound):
		return "Không tìm thấy dữ liệu yêu cầu."
	}
	return GenericErrorMessage
}

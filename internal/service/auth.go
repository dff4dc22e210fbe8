package service

import (
	"context"
	"strings"

	"camrent-web/internal/backend"
	"camrent-web/internal/domain"
	"camrent-web/internal/logger"
	"camrent-web/internal/session"
)

type authService struct {
	auth backend.AuthAPI
}

func NewAuthService(auth backend.AuthAPI) AuthService {
	return &authService{auth: auth}
}

// Login exchanges credentials for a token and stores the session in sc.
func (s *authService) Login(ctx context.Context, sc *session.Context, email, password string) (*domain.Session, error) {
	email = strings.TrimSpace(email)
	logger.EnterMethod("authService.Login", "email", email)

	if email == "" {
		return nil, domain.NewValidationError("email", "Vui lòng nhập email")
	}
	if password == "" {
		return nil, domain.NewValidationError("password", "Vui lòng nhập mật khẩu")
	}

	res, err := s.auth.Login(ctx, email, password)
	if err != nil {
		logger.ExitMethodWithError("authService.Login", err, "email", email)
		return nil, err
	}
	sess, err := sc.Login(ctx, res)
	if err != nil {
		logger.ExitMethodWithError("authService.Login", err, "email", email)
		return nil, err
	}

	logger.ExitMethod("authService.Login", "email", email, "role", sess.Role, "userID", sess.UserID)
	return sess, nil
}

// Logout clears the local session. The backend keeps no logout endpoint.
func (s *authService) Logout(ctx context.Context, sc *session.Context) error {
	logger.EnterMethod("authService.Logout")
	if err := sc.Logout(ctx); err != nil {
		logger.ExitMethodWithError("authService.Logout", err)
		return err
	}
	logger.ExitMethod("authService.Logout")
	return nil
}

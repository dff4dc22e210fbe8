package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// BackendClaims is the claim set the rental backend puts in access tokens.
// Role is duplicated into Roles because different backend versions read one
// or the other.
type BackendClaims struct {
	UserID   string   `json:"userId"`
	Email    string   `json:"email,omitempty"`
	FullName string   `json:"name,omitempty"`
	Role     string   `json:"role,omitempty"`
	Roles    []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies tokens. Only the development backend
// uses it; the web side never verifies signatures.
type TokenManager interface {
	GenerateAccessToken(userID, email, fullName string, roles []string) (string, time.Time, error)
	GenerateRefreshToken(userID string) (string, error)
	ValidateToken(tokenString string) (*BackendClaims, error)
}

type tokenManager struct {
	secret    []byte
	accessTTL time.Duration
	now       func() time.Time
}

func NewTokenManager(secret string, accessTTL time.Duration) TokenManager {
	if accessTTL <= 0 {
		accessTTL = time.Hour
	}
	return &tokenManager{
		secret:    []byte(secret),
		accessTTL: accessTTL,
		now:       time.Now,
	}
}

func (m *tokenManager) GenerateAccessToken(userID, email, fullName string, roles []string) (string, time.Time, error) {
	now := m.now()
	expiresAt := now.Add(m.accessTTL)
	claims := BackendClaims{
		UserID:   userID,
		Email:    email,
		FullName: fullName,
		Roles:    roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "camrent-dev-backend",
			Audience:  jwt.ClaimStrings{"camrent-api"},
			ID:        uuid.NewString(),
		},
	}
	if len(roles) > 0 {
		claims.Role = roles[0]
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

func (m *tokenManager) GenerateRefreshToken(userID string) (string, error) {
	claims := BackendClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(m.now().Add(24 * 7 * time.Hour)), // 7 days
			IssuedAt:  jwt.NewNumericDate(m.now()),
			Issuer:    "camrent-dev-backend",
			Audience:  jwt.ClaimStrings{"token-refresh"},
			ID:        uuid.NewString(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

func (m *tokenManager) ValidateToken(tokenString string) (*BackendClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &BackendClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	if claims, ok := token.Claims.(*BackendClaims); ok && token.Valid {
		if claims.UserID == "" {
			claims.UserID = claims.Subject
		}
		return claims, nil
	}

	return nil, ErrInvalidToken
}

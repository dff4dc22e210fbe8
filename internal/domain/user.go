package domain

import (
	"strings"
	"time"
)

type Role string

const (
	RoleRenter  Role = "Renter"
	RoleStaff   Role = "Staff"
	RoleOwner   Role = "Owner"
	RoleManager Role = "Manager"
)

// ParseRole normalises role names as the backend spells them in tokens and
// login responses ("staff", "STAFF", "Staff").
func ParseRole(s string) Role {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "renter", "customer":
		return RoleRenter
	case "staff":
		return RoleStaff
	case "owner":
		return RoleOwner
	case "manager", "admin":
		return RoleManager
	}
	return Role(strings.TrimSpace(s))
}

type Staff struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
	BranchID string `json:"branchId,omitempty"`
}

type Renter struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
}

// LoginResult is the body returned by POST /Auths/Login.
type LoginResult struct {
	Token        string    `json:"token"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    Timestamp `json:"expiresAt"`
	FullName     string    `json:"fullName"`
	Email        string    `json:"email"`
	Roles        []string  `json:"roles"`
}

type UserInfo struct {
	Email    string   `json:"email"`
	FullName string   `json:"fullName"`
	Roles    []string `json:"roles"`
}

// Session is the locally persisted login state. Role and UserID are read
// from the token for display and request fields only; the server re-derives
// identity from the verified token.
type Session struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken,omitempty"`
	ExpiresAt    time.Time `json:"expiresAt"`
	Role         Role      `json:"role"`
	UserID       string    `json:"userId"`
	UserInfo     UserInfo  `json:"userInfo"`
}

// Expired reports whether the session can no longer authenticate a request.
// A zero ExpiresAt means the backend did not say.
func (s *Session) Expired(now time.Time) bool {
	if s == nil || s.AccessToken == "" {
		return true
	}
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

func (s *Session) HasRole(roles ...Role) bool {
	if s == nil {
		return false
	}
	for _, r := range roles {
		if s.Role == r {
			return true
		}
	}
	return false
}

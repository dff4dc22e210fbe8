package security

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"camrent-web/internal/domain"
)

// Claim names as issued by ASP.NET Identity, which the backend uses when it
// does not emit the short forms.
const (
	claimNameIdentifier = "http://schemas.xmlsoap.org/ws/2005/05/identity/claims/nameidentifier"
	claimEmailAddress   = "http://schemas.xmlsoap.org/ws/2005/05/identity/claims/emailaddress"
	claimName           = "http://schemas.xmlsoap.org/ws/2005/05/identity/claims/name"
	claimRole           = "http://schemas.microsoft.com/ws/2008/06/identity/claims/role"
)

var (
	userIDKeys = []string{"sub", "userId", "user_id", "uid", "nameid", claimNameIdentifier}
	roleKeys   = []string{"role", "roles", claimRole}
	emailKeys  = []string{"email", claimEmailAddress}
	nameKeys   = []string{"name", "fullName", "unique_name", claimName}
)

// Claims is what the web side reads out of an access token. None of it is
// verified: it populates display fields and request bodies only.
type Claims struct {
	UserID    string
	Email     string
	FullName  string
	Roles     []string
	ExpiresAt time.Time
}

// Role is the first recognised role, or "" when the token carries none.
func (c *Claims) Role() domain.Role {
	for _, r := range c.Roles {
		if role := domain.ParseRole(r); role != "" {
			return role
		}
	}
	return ""
}

// DecodeClaims reads a JWT payload without verifying its signature.
func DecodeClaims(token string) (*Claims, error) {
	token = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer "))
	if token == "" {
		return nil, ErrInvalidToken
	}
	mc := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, mc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	c := &Claims{
		UserID:   firstString(mc, userIDKeys),
		Email:    firstString(mc, emailKeys),
		FullName: firstString(mc, nameKeys),
	}
	for _, k := range roleKeys {
		c.Roles = append(c.Roles, stringsOf(mc[k])...)
	}
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		c.ExpiresAt = exp.Time
	}
	return c, nil
}

// UserIDFromToken decodes the acting user's id, failing with
// ErrMissingIdentity when the token is unreadable or names nobody.
func UserIDFromToken(token string) (string, error) {
	c, err := DecodeClaims(token)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrMissingIdentity, err)
	}
	if c.UserID == "" {
		return "", domain.ErrMissingIdentity
	}
	return c.UserID, nil
}

func firstString(mc jwt.MapClaims, keys []string) string {
	for _, k := range keys {
		if vs := stringsOf(mc[k]); len(vs) > 0 {
			return vs[0]
		}
	}
	return ""
}

// stringsOf flattens a claim value: a string, a number, or an array of them.
func stringsOf(v any) []string {
	switch t := v.(type) {
	case string:
		if s := strings.TrimSpace(t); s != "" {
			return []string{s}
		}
	case float64:
		return []string{strconv.FormatFloat(t, 'f', -1, 64)}
	case []any:
		var out []string
		for _, e := range t {
			out = append(out, stringsOf(e)...)
		}
		return out
	case []string:
		var out []string
		for _, e := range t {
			out = append(out, stringsOf(e)...)
		}
		return out
	}
	return nil
}

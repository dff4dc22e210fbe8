// Package session holds the signed-in user's state: populated on login,
// cleared on logout or when the backend refuses the token, and read by every
// outgoing request. It is never refreshed silently.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"camrent-web/internal/domain"
	"camrent-web/internal/logger"
	"camrent-web/internal/metrics"
	"camrent-web/internal/security"
)

// ErrNoSession is returned by stores when nothing is saved under a key.
var ErrNoSession = errors.New("no session")

// Store persists sessions by key. Delete of a missing key is not an error.
type Store interface {
	Load(ctx context.Context, key string) (*domain.Session, error)
	Save(ctx context.Context, key string, s *domain.Session) error
	Delete(ctx context.Context, key string) error
}

// TokenSource is what the REST client needs from a session.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
	Invalidate(ctx context.Context) error
}

// Context is the single owner of one session key. All reads and writes of
// that session go through it.
type Context struct {
	store Store
	key   string
	now   func() time.Time
	mu    sync.Mutex
}

func New(store Store, key string) *Context {
	return &Context{store: store, key: key, now: time.Now}
}

func (c *Context) Key() string { return c.key }

// Login stores the session built from a login response. Role and user id are
// read from the token when it carries them, for display only.
func (c *Context) Login(ctx context.Context, res *domain.LoginResult) (*domain.Session, error) {
	if res == nil || strings.TrimSpace(res.Token) == "" {
		return nil, domain.NewValidationError("token", "login response carries no token")
	}
	s := &domain.Session{
		AccessToken:  res.Token,
		RefreshToken: res.RefreshToken,
		ExpiresAt:    res.ExpiresAt.Time,
		UserInfo: domain.UserInfo{
			Email:    res.Email,
			FullName: res.FullName,
			Roles:    res.Roles,
		},
	}
	if len(res.Roles) > 0 {
		s.Role = domain.ParseRole(res.Roles[0])
	}

	claims, err := security.DecodeClaims(res.Token)
	if err != nil {
		logger.Warn("Access token is not a readable JWT", "error", err)
	} else {
		s.UserID = claims.UserID
		if role := claims.Role(); role != "" {
			s.Role = role
		}
		if s.ExpiresAt.IsZero() {
			s.ExpiresAt = claims.ExpiresAt
		}
		if s.UserInfo.Email == "" {
			s.UserInfo.Email = claims.Email
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.store.Save(ctx, c.key, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Logout clears the session. Logging out twice is fine.
func (c *Context) Logout(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.Delete(ctx, c.key)
}

// Current returns the live session, or nil when there is none or it has
// expired.
func (c *Context) Current(ctx context.Context) (*domain.Session, error) {
	s, err := c.store.Load(ctx, c.key)
	if errors.Is(err, ErrNoSession) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if s.Expired(c.now()) {
		return nil, nil
	}
	return s, nil
}

// Token returns the bearer token or ErrUnauthorized.
func (c *Context) Token(ctx context.Context) (string, error) {
	s, err := c.Current(ctx)
	if err != nil {
		return "", err
	}
	if s == nil {
		return "", domain.ErrUnauthorized
	}
	return s.AccessToken, nil
}

// Invalidate is the Unauthorized side effect. Concurrent and repeated calls
// leave the store in the same cleared state as a single call.
func (c *Context) Invalidate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.store.Load(ctx, c.key)
	if errors.Is(err, ErrNoSession) {
		return nil
	}
	if err := c.store.Delete(ctx, c.key); err != nil {
		return err
	}
	metrics.SessionsInvalidated.Inc()
	logger.Info("Session invalidated after unauthorized response")
	return nil
}

type ctxKey struct{}

// NewContext binds a session to a request.
func NewContext(ctx context.Context, sc *Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, sc)
}

func FromContext(ctx context.Context) (*Context, bool) {
	sc, ok := ctx.Value(ctxKey{}).(*Context)
	return sc, ok && sc != nil
}

// Ambient is a TokenSource that uses whichever session the request context
// carries. Requests without one are unauthorized.
type Ambient struct{}

func (Ambient) Token(ctx context.Context) (string, error) {
	sc, ok := FromContext(ctx)
	if !ok {
		return "", domain.ErrUnauthorized
	}
	return sc.Token(ctx)
}

func (Ambient) Invalidate(ctx context.Context) error {
	sc, ok := FromContext(ctx)
	if !ok {
		return nil
	}
	return sc.Invalidate(ctx)
}

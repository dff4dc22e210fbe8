package session

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"camrent-web/internal/domain"
	"camrent-web/internal/metrics"
	"camrent-web/internal/security"
)

func loginResult(t *testing.T, roles ...string) *domain.LoginResult {
	t.Helper()
	tm := security.NewTokenManager("test-secret", time.Hour)
	token, exp, err := tm.GenerateAccessToken("u-1", "staff@camrent.vn", "Nguyễn Văn A", roles)
	require.NoError(t, err)
	return &domain.LoginResult{
		Token:        token,
		RefreshToken: "refresh-1",
		ExpiresAt:    domain.NewTimestamp(exp),
		FullName:     "Nguyễn Văn A",
		Email:        "staff@camrent.vn",
		Roles:        roles,
	}
}

func TestContext_LoginCurrentLogout(t *testing.T) {
	ctx := context.Background()
	sc := New(NewMemoryStore(), "cli")

	cur, err := sc.Current(ctx)
	require.NoError(t, err)
	assert.Nil(t, cur)

	s, err := sc.Login(ctx, loginResult(t, "Staff"))
	require.NoError(t, err)
	assert.Equal(t, "u-1", s.UserID)
	assert.Equal(t, domain.RoleStaff, s.Role)
	assert.Equal(t, "Nguyễn Văn A", s.UserInfo.FullName)

	cur, err = sc.Current(ctx)
	require.NoError(t, err)
	require.NotNil(t, cur)
	assert.Equal(t, s.AccessToken, cur.AccessToken)

	token, err := sc.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, s.AccessToken, token)

	require.NoError(t, sc.Logout(ctx))
	require.NoError(t, sc.Logout(ctx))
	_, err = sc.Token(ctx)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestContext_LoginRejectsEmptyToken(t *testing.T) {
	_, err := New(NewMemoryStore(), "k").Login(context.Background(), &domain.LoginResult{})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestContext_OpaqueTokenStillLogsIn(t *testing.T) {
	sc := New(NewMemoryStore(), "k")
	s, err := sc.Login(context.Background(), &domain.LoginResult{Token: "opaque", Roles: []string{"owner"}})
	require.NoError(t, err)
	assert.Empty(t, s.UserID)
	assert.Equal(t, domain.RoleOwner, s.Role)
}

func TestContext_ExpiredReadsAsAbsent(t *testing.T) {
	ctx := context.Background()
	sc := New(NewMemoryStore(), "k")
	_, err := sc.Login(ctx, loginResult(t, "Staff"))
	require.NoError(t, err)

	sc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	cur, err := sc.Current(ctx)
	require.NoError(t, err)
	assert.Nil(t, cur)
}

func TestContext_InvalidateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	sc := New(store, "k")
	_, err := sc.Login(ctx, loginResult(t, "Staff"))
	require.NoError(t, err)

	before := testutil.ToFloat64(metrics.SessionsInvalidated)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, sc.Invalidate(ctx))
		}()
	}
	wg.Wait()
	require.NoError(t, sc.Invalidate(ctx))

	assert.Equal(t, 0, store.Len())
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.SessionsInvalidated))
	cur, err := sc.Current(ctx)
	require.NoError(t, err)
	assert.Nil(t, cur)
}

func TestAmbient(t *testing.T) {
	ctx := context.Background()
	_, err := Ambient{}.Token(ctx)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.NoError(t, Ambient{}.Invalidate(ctx))

	sc := New(NewMemoryStore(), "k")
	_, err = sc.Login(ctx, loginResult(t, "Manager"))
	require.NoError(t, err)

	ctx = NewContext(ctx, sc)
	token, err := Ambient{}.Token(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	require.NoError(t, Ambient{}.Invalidate(ctx))
	_, err = Ambient{}.Token(ctx)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	sc := New(NewFileStore(path), "default")

	_, err := sc.Login(ctx, loginResult(t, "Staff"))
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	// A second process sees the same session.
	again := New(NewFileStore(path), "default")
	cur, err := again.Current(ctx)
	require.NoError(t, err)
	require.NotNil(t, cur)
	assert.Equal(t, "u-1", cur.UserID)

	require.NoError(t, again.Logout(ctx))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestSealedStore(t *testing.T) {
	ctx := context.Background()
	var key [32]byte
	copy(key[:], "0123456789abcdef0123456789abcdef")

	inner := NewMemoryStore()
	sc := New(NewSealedStore(inner, &key), "k")
	s, err := sc.Login(ctx, loginResult(t, "Staff"))
	require.NoError(t, err)

	raw, err := inner.Load(ctx, "k")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(raw.AccessToken, sealedPrefix))
	assert.NotContains(t, raw.AccessToken, s.AccessToken)
	assert.Equal(t, "u-1", raw.UserID)

	cur, err := sc.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, s.AccessToken, cur.AccessToken)
	assert.Equal(t, "refresh-1", cur.RefreshToken)

	var other [32]byte
	_, err = NewSealedStore(inner, &other).Load(ctx, "k")
	assert.ErrorIs(t, err, errUnseal)
}

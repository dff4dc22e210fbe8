package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"camrent-web/internal/domain"
	"camrent-web/internal/mockbackend"
	"camrent-web/internal/security"
	"camrent-web/internal/status"
)

type env struct {
	config string
	dir    string
	mock   *mockbackend.Server
}

func newEnv(t *testing.T) *env {
	t.Helper()
	mock := mockbackend.Demo(security.NewTokenManager("cli-secret", time.Hour), time.Now())
	srv := httptest.NewServer(mock.Handler())
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	cfg := fmt.Sprintf(`backend:
  base_url: %s
session:
  store: file
  file_path: %s
log:
  level: error
`, srv.URL, filepath.Join(dir, "session.json"))
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o600))
	return &env{config: path, dir: dir, mock: mock}
}

func (e *env) run(args ...string) (string, error) {
	var buf bytes.Buffer
	err := run(append([]string{"--config", e.config}, args...), &buf)
	return buf.String(), err
}

func (e *env) login(t *testing.T, u mockbackend.User) {
	t.Helper()
	_, err := e.run("login", "--email", u.Email, "--password", u.Password)
	require.NoError(t, err)
}

func TestRentalctl_SessionSurvivesInvocations(t *testing.T) {
	e := newEnv(t)

	out, err := e.run("login", "-e", mockbackend.DemoStaff.Email, "-p", mockbackend.DemoStaff.Password)
	require.NoError(t, err)
	assert.Contains(t, out, "Signed in as staff@camrent.vn (Staff)")

	out, err = e.run("whoami")
	require.NoError(t, err)
	assert.Contains(t, out, mockbackend.DemoStaff.FullName)
	assert.Contains(t, out, "role: Staff")

	_, err = e.run("logout")
	require.NoError(t, err)
	_, err = e.run("whoami")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestRentalctl_PasswordFromEnvironment(t *testing.T) {
	e := newEnv(t)
	t.Setenv("CAMRENT_PASSWORD", mockbackend.DemoManager.Password)

	out, err := e.run("login", "-e", mockbackend.DemoManager.Email)
	require.NoError(t, err)
	assert.Contains(t, out, "(Manager)")
}

func TestRentalctl_WrongPassword(t *testing.T) {
	e := newEnv(t)
	_, err := e.run("login", "-e", mockbackend.DemoStaff.Email, "-p", "nope")
	require.Error(t, err)
	assert.Equal(t, "Sai email hoặc mật khẩu", errorText(err))
}

func TestRentalctl_BookingsNeedSession(t *testing.T) {
	e := newEnv(t)
	_, err := e.run("bookings")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.Equal(t, int64(0), e.mock.RequestCount())
}

func TestRentalctl_StaffBookingsTable(t *testing.T) {
	e := newEnv(t)
	e.login(t, mockbackend.DemoStaff)

	out, err := e.run("bookings", "--scope", "staff")
	require.NoError(t, err)
	assert.Contains(t, out, "bk-pending")
	assert.Contains(t, out, status.BookingStatusView(domain.BookingStatusPendingApproval).Label)
	assert.Contains(t, out, "PAYABLE")
}

func TestRentalctl_BookingsJSON(t *testing.T) {
	e := newEnv(t)
	e.login(t, mockbackend.DemoManager)

	out, err := e.run("--json", "bookings")
	require.NoError(t, err)
	var list []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	assert.NotEmpty(t, list)
}

func TestRentalctl_BadScopeIsRejectedByParser(t *testing.T) {
	e := newEnv(t)
	_, err := e.run("bookings", "--scope", "everything")
	var ferr *flags.Error
	require.ErrorAs(t, err, &ferr)
	assert.Equal(t, flags.ErrInvalidChoice, ferr.Type)
}

func TestRentalctl_MissingBookingID(t *testing.T) {
	e := newEnv(t)
	_, err := e.run("booking")
	var ferr *flags.Error
	require.ErrorAs(t, err, &ferr)
	assert.Equal(t, flags.ErrRequired, ferr.Type)
}

func TestRentalctl_BookingDetailShowsNextActions(t *testing.T) {
	e := newEnv(t)
	e.login(t, mockbackend.DemoStaff)

	out, err := e.run("booking", "bk-delivered")
	require.NoError(t, err)
	assert.Contains(t, out, "Booking bk-delivered")
	assert.Contains(t, out, "Payable:")
	assert.Contains(t, out, "CheckOutInspection")
	assert.Contains(t, out, "Complete")
}

func TestRentalctl_InspectFromChecklist(t *testing.T) {
	e := newEnv(t)
	e.login(t, mockbackend.DemoStaff)

	checklist := filepath.Join(e.dir, "checklist.yaml")
	require.NoError(t, os.WriteFile(checklist, []byte(`
- section: Body
  label: Exterior
  value: Good
  passed: true
- section: Sensor
  label: Dust
  value: Some
  passed: false
  notes: needs cleaning
`), 0o600))

	out, err := e.run("inspect", "bk-confirmed", "-t", "checkin", "-b", "br-hcm", "-f", checklist)
	require.NoError(t, err)
	assert.Contains(t, out, "1/2")

	_, err = e.run("inspect", "bk-confirmed", "-t", "checkin", "-b", "br-nowhere", "-f", checklist)
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "branchId", ve.Field)
}

func TestRentalctl_DisputeLifecycle(t *testing.T) {
	e := newEnv(t)
	e.login(t, mockbackend.DemoManager)

	out, err := e.run("dispute-create", "bk-completed", "--title", "Xước ống kính", "--description", "Vết xước mới", "--severity", "high")
	require.NoError(t, err)
	id := string(bytes.TrimSpace([]byte(out)))
	require.NotEmpty(t, id)

	out, err = e.run("dispute-item", id, "--amount", "1.250.000", "--notes", "Thay kính lọc")
	require.NoError(t, err)
	assert.Contains(t, out, "1.250.000 ₫")

	_, err = e.run("resolve", id)
	require.NoError(t, err)

	_, err = e.run("dispute-item", id, "--amount", "1000", "--notes", "muộn")
	require.Error(t, err)
	assert.Contains(t, errorText(err), "Tranh chấp đã đóng")

	out, err = e.run("disputes", "bk-completed")
	require.NoError(t, err)
	assert.Contains(t, out, id)
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    decimal.Decimal
		wantErr bool
	}{
		{"250000", decimal.NewFromInt(250000), false},
		{"1.250.000", decimal.NewFromInt(1250000), false},
		{" 99.5 ", decimal.RequireFromString("99.5"), false},
		{"abc", decimal.Zero, true},
	}
	for _, tt := range tests {
		got, err := parseAmount("amount", tt.in)
		if tt.wantErr {
			assert.True(t, errors.Is(err, domain.ErrValidation), tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.True(t, tt.want.Equal(got), "%s: got %s", tt.in, got)
	}
}

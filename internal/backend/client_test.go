package backend

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"camrent-web/internal/domain"
	"camrent-web/internal/logger"
	"camrent-web/internal/session"
)

func signedIn(t *testing.T) (*session.Context, *session.MemoryStore) {
	t.Helper()
	store := session.NewMemoryStore()
	sc := session.New(store, "test")
	_, err := sc.Login(context.Background(), &domain.LoginResult{
		Token:     "tok-123",
		ExpiresAt: domain.NewTimestamp(time.Now().Add(time.Hour)),
		Roles:     []string{"Staff"},
	})
	require.NoError(t, err)
	return sc, store
}

func newTestClient(t *testing.T, h http.HandlerFunc) (*Client, *session.MemoryStore, *int32) {
	t.Helper()
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		h(w, r)
	}))
	t.Cleanup(srv.Close)
	sc, store := signedIn(t)
	return New(srv.URL+"/", srv.Client(), sc), store, &hits
}

func TestClient_SendsBearerAndCorrelationID(t *testing.T) {
	c, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/Bookings/staffbookings", r.URL.Path)
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		assert.Equal(t, "corr-9", r.Header.Get("X-Correlation-ID"))
		w.Write([]byte(`[{"id":"b1","status":"PendingApproval","items":[]}]`))
	})

	ctx := logger.WithCorrelationID(context.Background(), "corr-9")
	out, err := c.ListStaffBookings(ctx)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "PendingApproval", out[0].RawStatus.Value())
}

func TestClient_UnauthorizedClearsSession(t *testing.T) {
	c, store, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := c.GetBooking(context.Background(), "b1")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.Equal(t, 0, store.Len())

	// The next call fails locally without reaching the network.
	_, err = c.GetBooking(context.Background(), "b1")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestClient_NoSessionSkipsNetwork(t *testing.T) {
	c, store, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("request must not be sent")
	})
	require.NoError(t, store.Delete(context.Background(), "test"))

	_, err := c.ListBookings(context.Background())
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.Equal(t, int32(0), atomic.LoadInt32(hits))
}

func TestClient_ErrorNormalisation(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantIs  error
		wantMsg string
	}{
		{"not found", 404, ``, domain.ErrNotFound, ""},
		{"message field", 409, `{"message":"Dispute already closed"}`, nil, "Dispute already closed"},
		{"title field", 400, `{"type":"x","title":"One or more validation errors occurred.","status":400}`, nil, "One or more validation errors occurred."},
		{"raw text", 500, `Internal failure`, nil, "Internal failure"},
		{"empty body", 503, ``, nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, store, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			})
			_, err := c.GetDispute(context.Background(), "d1")
			require.Error(t, err)
			if tt.wantIs != nil {
				assert.ErrorIs(t, err, tt.wantIs)
			} else {
				var se *domain.ServerError
				require.True(t, errors.As(err, &se))
				assert.Equal(t, tt.status, se.StatusCode)
				assert.Equal(t, tt.wantMsg, se.Message)
			}
			// Only 401 touches the session.
			assert.Equal(t, 1, store.Len())
		})
	}
}

func TestClient_LoginFailureIsNotSessionExpiry(t *testing.T) {
	c, store, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"message":"Sai email hoặc mật khẩu"}`)
	})

	_, err := c.Login(context.Background(), "a@b.c", "wrong")
	var se *domain.ServerError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "Sai email hoặc mật khẩu", se.Message)
	assert.Equal(t, 1, store.Len())
}

func TestClient_CreateDisputeRawID(t *testing.T) {
	for _, body := range []string{`"3fa85f64"`, "3fa85f64\n", `{"id":"3fa85f64"}`} {
		c, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			io.WriteString(w, body)
		})
		id, err := c.CreateDispute(context.Background(), domain.CreateDisputeRequest{BookingID: "b1", Title: "t", Description: "d"})
		require.NoError(t, err)
		assert.Equal(t, "3fa85f64", id, "body %q", body)
	}
}

func TestClient_EnvelopeAndQuery(t *testing.T) {
	c, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "b 1", r.URL.Query().Get("bookingId"))
		io.WriteString(w, `{"data":[{"id":"i1","bookingId":"b 1","type":2,"items":[]}]}`)
	})
	out, err := c.ListInspections(context.Background(), "b 1")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, domain.InspectionTypeCheckOut, out[0].Type)
}

func TestClient_CreateDeliveryEmptyBody(t *testing.T) {
	c, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})
	d, err := c.CreateDelivery(context.Background(), domain.CreateDeliveryRequest{
		BookingID: "b1", AssigneeUserID: "s1", TrackingCode: "TRK", DeliveryFee: decimal.NewFromInt(30000),
	})
	require.NoError(t, err)
	assert.Equal(t, "s1", d.AssigneeUserID)
	assert.Equal(t, "TRK", d.TrackingCode)
}

func TestClient_PathEscaping(t *testing.T) {
	c, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/Disputes/a%2Fb/resolved", r.URL.RawPath)
		assert.Equal(t, http.MethodPut, r.Method)
	})
	require.NoError(t, c.ResolveDispute(context.Background(), "a/b"))
}

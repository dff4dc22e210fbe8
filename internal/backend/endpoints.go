package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"camrent-web/internal/domain"
)

func (c *Client) Login(ctx context.Context, email, password string) (*domain.LoginResult, error) {
	const op = "Login"
	b, err := c.do(ctx, call{
		op:     op,
		method: http.MethodPost,
		path:   "/Auths/Login",
		body:   map[string]string{"email": email, "password": password},
		public: true,
	})
	if err != nil {
		return nil, err
	}
	var res domain.LoginResult
	if err := decode(op, b, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) listBookings(ctx context.Context, op, path string) ([]domain.Booking, error) {
	var out []domain.Booking
	if err := c.getJSON(ctx, op, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListBookings(ctx context.Context) ([]domain.Booking, error) {
	return c.listBookings(ctx, "ListBookings", "/Bookings")
}

func (c *Client) ListStaffBookings(ctx context.Context) ([]domain.Booking, error) {
	return c.listBookings(ctx, "ListStaffBookings", "/Bookings/staffbookings")
}

func (c *Client) ListOwnerRenterBookings(ctx context.Context) ([]domain.Booking, error) {
	return c.listBookings(ctx, "ListOwnerRenterBookings", "/Bookings/owner-renters")
}

func (c *Client) GetBooking(ctx context.Context, id string) (*domain.Booking, error) {
	var b domain.Booking
	if err := c.getJSON(ctx, "GetBooking", pathID("/Bookings", id), nil, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (c *Client) GetCart(ctx context.Context) (*domain.Cart, error) {
	var cart domain.Cart
	if err := c.getJSON(ctx, "GetCart", "/Bookings/GetCard", nil, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (c *Client) CompleteBooking(ctx context.Context, id string) error {
	_, err := c.do(ctx, call{op: "CompleteBooking", method: http.MethodPut, path: pathID("/Bookings", id, "complete")})
	return err
}

func (c *Client) CreateDelivery(ctx context.Context, req domain.CreateDeliveryRequest) (*domain.Delivery, error) {
	const op = "CreateDelivery"
	b, err := c.do(ctx, call{op: op, method: http.MethodPost, path: "/Deliveries", body: req})
	if err != nil {
		return nil, err
	}
	d := &domain.Delivery{
		BookingID:      req.BookingID,
		AssigneeUserID: req.AssigneeUserID,
		TrackingCode:   req.TrackingCode,
		Notes:          req.Notes,
		DeliveryFee:    req.DeliveryFee,
	}
	if isObject(b) {
		if err := decode(op, b, d); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func (c *Client) CreateContract(ctx context.Context, req domain.CreateContractRequest) (*domain.Contract, error) {
	const op = "CreateContract"
	b, err := c.do(ctx, call{op: op, method: http.MethodPost, path: "/Contracts", body: req})
	if err != nil {
		return nil, err
	}
	ct := &domain.Contract{BookingID: req.BookingID}
	if isObject(b) {
		if err := decode(op, b, ct); err != nil {
			return nil, err
		}
	} else {
		ct.ID = rawID(b)
	}
	return ct, nil
}

func (c *Client) GetCamera(ctx context.Context, id string) (*domain.Camera, error) {
	var p domain.Camera
	if err := c.getJSON(ctx, "GetCamera", pathID("/Cameras", id), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) GetAccessory(ctx context.Context, id string) (*domain.Accessory, error) {
	var p domain.Accessory
	if err := c.getJSON(ctx, "GetAccessory", pathID("/Accessories", id), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) GetCombo(ctx context.Context, id string) (*domain.Combo, error) {
	var p domain.Combo
	if err := c.getJSON(ctx, "GetCombo", pathID("/Combos", id), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) ListBranches(ctx context.Context) ([]domain.Branch, error) {
	var out []domain.Branch
	if err := c.getJSON(ctx, "ListBranches", "/Branches", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListStaff(ctx context.Context) ([]domain.Staff, error) {
	var out []domain.Staff
	if err := c.getJSON(ctx, "ListStaff", "/Staffs", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateInspection(ctx context.Context, req domain.CreateInspectionRequest) error {
	_, err := c.do(ctx, call{op: "CreateInspection", method: http.MethodPost, path: "/Inspections", body: req})
	return err
}

func (c *Client) ListInspections(ctx context.Context, bookingID string) ([]domain.Inspection, error) {
	var out []domain.Inspection
	q := url.Values{"bookingId": {bookingID}}
	if err := c.getJSON(ctx, "ListInspections", "/Inspections", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateDispute returns the new id, which the backend sends as bare text.
func (c *Client) CreateDispute(ctx context.Context, req domain.CreateDisputeRequest) (string, error) {
	const op = "CreateDispute"
	b, err := c.do(ctx, call{op: op, method: http.MethodPost, path: "/Disputes", body: req})
	if err != nil {
		return "", err
	}
	if isObject(b) {
		var created struct {
			ID string `json:"id"`
		}
		if err := decode(op, b, &created); err != nil {
			return "", err
		}
		return created.ID, nil
	}
	id := rawID(b)
	if id == "" {
		return "", fmt.Errorf("%s: backend returned no dispute id", op)
	}
	return id, nil
}

func (c *Client) GetDispute(ctx context.Context, id string) (*domain.Dispute, error) {
	var d domain.Dispute
	if err := c.getJSON(ctx, "GetDispute", pathID("/Disputes", id), nil, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (c *Client) ListDisputesByBooking(ctx context.Context, bookingID string) ([]domain.Dispute, error) {
	var out []domain.Dispute
	if err := c.getJSON(ctx, "ListDisputesByBooking", pathID("/Disputes/by-booking", bookingID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) AddDisputeItem(ctx context.Context, disputeID string, req domain.AddDisputeItemRequest) error {
	_, err := c.do(ctx, call{op: "AddDisputeItem", method: http.MethodPost, path: pathID("/Disputes", disputeID, "items"), body: req})
	return err
}

func (c *Client) ResolveDispute(ctx context.Context, id string) error {
	_, err := c.do(ctx, call{op: "ResolveDispute", method: http.MethodPut, path: pathID("/Disputes", id, "resolved")})
	return err
}

func (c *Client) RejectDispute(ctx context.Context, id string) error {
	_, err := c.do(ctx, call{op: "RejectDispute", method: http.MethodPut, path: pathID("/Disputes", id, "rejected")})
	return err
}

func isObject(b []byte) bool {
	b = bytes.TrimSpace(b)
	return len(b) > 0 && b[0] == '{'
}

// rawID strips whitespace and the JSON quotes some endpoints wrap ids in.
func rawID(b []byte) string {
	s := strings.TrimSpace(string(b))
	var quoted string
	if json.Unmarshal([]byte(s), &quoted) == nil {
		return strings.TrimSpace(quoted)
	}
	return strings.Trim(s, `"`)
}

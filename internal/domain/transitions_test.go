package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	happy := []BookingStatus{
		BookingStatusDraft,
		BookingStatusPendingApproval,
		BookingStatusConfirmed,
		BookingStatusInProgress,
		BookingStatusDelivering,
		BookingStatusDelivered,
		BookingStatusCompleted,
	}
	for i := 0; i+1 < len(happy); i++ {
		assert.True(t, CanTransition(happy[i], happy[i+1]), "%s -> %s", happy[i], happy[i+1])
		assert.False(t, CanTransition(happy[i+1], happy[i]), "%s -> %s must not go back", happy[i+1], happy[i])
	}

	for _, s := range AllBookingStatuses() {
		if s.IsTerminal() {
			assert.False(t, CanTransition(s, BookingStatusCancelled))
			continue
		}
		assert.True(t, CanTransition(s, BookingStatusCancelled), "%s -> Cancelled", s)
	}

	assert.True(t, CanTransition(BookingStatusInProgress, BookingStatusOverdue))
	assert.True(t, CanTransition(BookingStatusDelivering, BookingStatusOverdue))
	assert.False(t, CanTransition(BookingStatusConfirmed, BookingStatusOverdue))
	assert.False(t, CanTransition(BookingStatusDelivered, BookingStatusOverdue))
	assert.False(t, CanTransition(BookingStatusUnknown, BookingStatusDraft))
}

func TestBooking_IsOverdue(t *testing.T) {
	returnAt := time.Date(2025, 5, 10, 17, 0, 0, 0, time.UTC)
	before := returnAt.Add(-time.Minute)
	after := returnAt.Add(time.Minute)

	tests := []struct {
		status BookingStatus
		now    time.Time
		want   bool
	}{
		{BookingStatusInProgress, after, true},
		{BookingStatusDelivering, after, true},
		{BookingStatusInProgress, before, false},
		{BookingStatusDelivered, after, false},
		{BookingStatusCompleted, after, false},
		{BookingStatusConfirmed, after, false},
		{BookingStatusOverdue, before, true},
	}
	for _, tt := range tests {
		t.Run(tt.status.String(), func(t *testing.T) {
			b := &Booking{Status: tt.status, ReturnAt: NewTimestamp(returnAt)}
			assert.Equal(t, tt.want, b.IsOverdue(tt.now))
			if tt.want {
				assert.Equal(t, BookingStatusOverdue, b.EffectiveStatus(tt.now))
			} else {
				assert.Equal(t, tt.status, b.EffectiveStatus(tt.now))
			}
		})
	}
}

func TestDisputeTransitions(t *testing.T) {
	assert.True(t, CanTransitionDispute(DisputeStatusOpen, DisputeStatusInProgress))
	assert.True(t, CanTransitionDispute(DisputeStatusInProgress, DisputeStatusResolved))
	assert.True(t, CanTransitionDispute(DisputeStatusInProgress, DisputeStatusClosed))
	assert.False(t, CanTransitionDispute(DisputeStatusResolved, DisputeStatusOpen))
	assert.False(t, CanTransitionDispute(DisputeStatusClosed, DisputeStatusInProgress))

	d := &Dispute{Status: DisputeStatusInProgress}
	assert.True(t, d.CanAppendItems())
	d.Status = DisputeStatusResolved
	assert.False(t, d.CanAppendItems())
}

func TestDisputeCanAppendItems(t *testing.T) {
	tests := []struct {
		status DisputeStatus
		want   bool
	}{
		{DisputeStatusOpen, true},
		{DisputeStatusInProgress, true},
		{DisputeStatusResolved, false},
		{DisputeStatusClosed, false},
		{DisputeStatusUnknown, false},
	}
	for _, tt := range tests {
		d := &Dispute{Status: tt.status}
		assert.Equal(t, tt.want, d.CanAppendItems(), "status %d", tt.status)
	}
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "", UserMessage(nil))
	assert.Equal(t, "amount must be greater than 0", UserMessage(NewValidationError("amount", "amount must be greater than 0")))
	assert.Equal(t, "Booking is locked", UserMessage(fmt.Errorf("create dispute: %w", &ServerError{StatusCode: 409, Message: "Booking is locked"})))
	assert.Equal(t, GenericErrorMessage, UserMessage(&ServerError{StatusCode: 500}))
	assert.Equal(t, GenericErrorMessage, UserMessage(errors.New("dial tcp: refused")))
	assert.NotEqual(t, GenericErrorMessage, UserMessage(fmt.Errorf("get booking: %w", ErrUnauthorized)))
}

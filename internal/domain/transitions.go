package domain

import "time"

// Happy path: Draft -> PendingApproval -> Confirmed -> InProgress ->
// Delivering -> Delivered -> Completed. Cancelled is reachable from every
// non-terminal state; Overdue only from InProgress and Delivering.
var allowedTransitions = map[BookingStatus]map[BookingStatus]bool{
	BookingStatusDraft:           {BookingStatusPendingApproval: true, BookingStatusCancelled: true},
	BookingStatusPendingApproval: {BookingStatusConfirmed: true, BookingStatusCancelled: true},
	BookingStatusConfirmed:       {BookingStatusInProgress: true, BookingStatusCancelled: true},
	BookingStatusInProgress:      {BookingStatusDelivering: true, BookingStatusOverdue: true, BookingStatusCancelled: true},
	BookingStatusDelivering:      {BookingStatusDelivered: true, BookingStatusOverdue: true, BookingStatusCancelled: true},
	BookingStatusDelivered:       {BookingStatusCompleted: true, BookingStatusCancelled: true},
	BookingStatusOverdue:         {BookingStatusDelivered: true, BookingStatusCompleted: true, BookingStatusCancelled: true},
	BookingStatusCompleted:       {},
	BookingStatusCancelled:       {},
}

// CanTransition reports whether the lifecycle allows moving from one status
// to another. The client uses it to validate, never to compute, a status.
func CanTransition(from, to BookingStatus) bool {
	m, ok := allowedTransitions[from]
	if !ok {
		return false
	}
	return m[to]
}

// IsTerminal is true for Completed and Cancelled. Terminal bookings persist
// for history and disputes.
func (s BookingStatus) IsTerminal() bool {
	return s == BookingStatusCompleted || s == BookingStatusCancelled
}

// IsOverdue applies the overdue rule: the booking is InProgress or
// Delivering and now is past its return time.
func (b *Booking) IsOverdue(now time.Time) bool {
	if b.Status == BookingStatusOverdue {
		return true
	}
	if b.Status != BookingStatusInProgress && b.Status != BookingStatusDelivering {
		return false
	}
	return !b.ReturnAt.IsZero() && now.After(b.ReturnAt.Time)
}

// EffectiveStatus is the status to display at now. It differs from Status
// only when the backend has not flagged an overdue booking yet.
func (b *Booking) EffectiveStatus(now time.Time) BookingStatus {
	if b.IsOverdue(now) {
		return BookingStatusOverdue
	}
	return b.Status
}
